// Package report 保存每次构建中各模块的安装结果
package report

import (
	"context"
	"sync"
	"time"
)

// Entry 一条模块安装记录
type Entry struct {
	BuildID     string    `json:"buildId" bson:"build_id"`
	Module      string    `json:"module" bson:"module"`
	Status      string    `json:"status" bson:"status"`
	SetupMillis float64   `json:"setupMillis,omitempty" bson:"setup_millis,omitempty"`
	Issues      []string  `json:"issues,omitempty" bson:"issues,omitempty"`
	Time        time.Time `json:"time" bson:"time"`
}

// Sink 安装记录的写入端
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// Lister 可按构建 ID 查询记录的 Sink
// buildID 为空时返回全部记录
type Lister interface {
	List(ctx context.Context, buildID string) ([]Entry, error)
}

// Discard 丢弃所有记录
type Discard struct{}

func (Discard) Record(context.Context, Entry) error { return nil }

// MemorySink 内存中的记录，按写入顺序保存
type MemorySink struct {
	entries []Entry
	mu      sync.RWMutex
}

// NewMemorySink 创建内存 Sink
func NewMemorySink() *MemorySink {
	return &MemorySink{entries: make([]Entry, 0)}
}

func (s *MemorySink) Record(_ context.Context, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.Issues = append([]string(nil), entry.Issues...)
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemorySink) List(_ context.Context, buildID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		if buildID == "" || e.BuildID == buildID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Multi 把记录依次写入多个 Sink，返回第一个错误
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

type multiSink []Sink

func (m multiSink) Record(ctx context.Context, entry Entry) error {
	var first error
	for _, s := range m {
		if err := s.Record(ctx, entry); err != nil && first == nil {
			first = err
		}
	}
	return first
}
