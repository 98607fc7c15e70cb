package module

import "errors"

// ErrSkip 由 SetupFunc 返回，表示模块主动放弃安装
// 不会作为错误返回给调用方
var ErrSkip = errors.New("module: skip installation")

// Status 安装结果类型
type Status int

const (
	// StatusInstalled 已安装，Result 中含 timings.setup
	StatusInstalled Status = iota
	// StatusSkipped 重复安装或模块主动放弃
	StatusSkipped
	// StatusIncompatible 兼容性检查未通过，Issues 中为原因
	StatusIncompatible
)

func (s Status) String() string {
	switch s {
	case StatusInstalled:
		return "installed"
	case StatusSkipped:
		return "skipped"
	case StatusIncompatible:
		return "incompatible"
	default:
		return "unknown"
	}
}

// Outcome 安装结果
type Outcome struct {
	Status Status
	Result map[string]any
	Issues []string
}

// Installed 是否已安装
func (o Outcome) Installed() bool {
	return o.Status == StatusInstalled
}

// SetupMillis 安装耗时（毫秒），未安装时为 0
func (o Outcome) SetupMillis() float64 {
	timings, ok := o.Result["timings"].(map[string]any)
	if !ok {
		return 0
	}
	ms, _ := timings["setup"].(float64)
	return ms
}
