package core

import "sync"

// 进程级的“当前构建上下文”，仅供无法传参的旧调用点使用
var (
	current   *BuildContext
	currentMu sync.RWMutex
)

// Current 返回当前构建上下文（可能为 nil）
func Current() *BuildContext {
	currentMu.RLock()
	defer currentMu.RUnlock()
	return current
}

// SetCurrent 仅在尚未设置时设置当前上下文，设置成功返回 true
func SetCurrent(bc *BuildContext) bool {
	currentMu.Lock()
	defer currentMu.Unlock()
	if current != nil {
		return false
	}
	current = bc
	return true
}

// ClearCurrent 当前上下文为 bc 时清除
func ClearCurrent(bc *BuildContext) {
	currentMu.Lock()
	defer currentMu.Unlock()
	if current == bc {
		current = nil
	}
}
