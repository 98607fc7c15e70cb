// Package metrics 记录模块安装的耗时与结果
package metrics

import "time"

// Recorder 模块安装指标接口
// outcome 取值: installed|skipped|incompatible|failed
type Recorder interface {
	ObserveSetup(module string, d time.Duration)
	IncOutcome(module string, outcome string)
}

// NoopRecorder 不做任何事（未配置指标时的默认值）
type NoopRecorder struct{}

func (NoopRecorder) ObserveSetup(string, time.Duration) {}
func (NoopRecorder) IncOutcome(string, string)          {}
