package core

import (
	"context"
	"fmt"
	"sync"
)

// InstallStore 外部安装状态存储
// 键按构建 ID 隔离，仅在一次构建内有效。
type InstallStore interface {
	// MarkInstalled 原子地检查并标记；首次标记返回 true
	MarkInstalled(ctx context.Context, buildID, key string) (bool, error)
	// IsInstalled 是否已标记
	IsInstalled(ctx context.Context, buildID, key string) (bool, error)
}

// installSet 安装集合
// 未配置 store 时使用内存集合（互斥锁保护的 check-and-set）
type installSet struct {
	store     InstallStore
	installed map[string]struct{}
	mu        sync.Mutex
}

func newInstallSet(store InstallStore) *installSet {
	return &installSet{
		store:     store,
		installed: make(map[string]struct{}),
	}
}

func (s *installSet) mark(ctx context.Context, buildID, key string) (bool, error) {
	if s.store != nil {
		ok, err := s.store.MarkInstalled(ctx, buildID, key)
		if err != nil {
			return false, fmt.Errorf("failed to mark module %s installed: %w", key, err)
		}
		return ok, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.installed[key]; exists {
		return false, nil
	}
	s.installed[key] = struct{}{}
	return true, nil
}

func (s *installSet) has(ctx context.Context, buildID, key string) (bool, error) {
	if s.store != nil {
		ok, err := s.store.IsInstalled(ctx, buildID, key)
		if err != nil {
			return false, fmt.Errorf("failed to read install state of module %s: %w", key, err)
		}
		return ok, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, exists := s.installed[key]
	return exists, nil
}
