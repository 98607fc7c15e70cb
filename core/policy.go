package core

import (
	"slices"
	"time"
)

// DefaultSlowThreshold 慢安装阈值
const DefaultSlowThreshold = 5 * time.Second

// SetupPolicy 模块安装耗时策略
type SetupPolicy struct {
	// SlowThreshold 超过该耗时记为慢安装；0 表示使用默认值
	SlowThreshold time.Duration
	// Exempt 不做慢安装告警的模块标识
	Exempt []string
}

// Threshold 生效的阈值
func (p SetupPolicy) Threshold() time.Duration {
	if p.SlowThreshold <= 0 {
		return DefaultSlowThreshold
	}
	return p.SlowThreshold
}

// IsSlow key 对应的模块耗时 d 是否应告警
func (p SetupPolicy) IsSlow(key string, d time.Duration) bool {
	if d <= p.Threshold() {
		return false
	}
	return key == "" || !slices.Contains(p.Exempt, key)
}
