package core

import (
	"context"
	"sync"
)

// HookFunc 钩子处理函数
type HookFunc func(ctx context.Context, args ...any) error

// HookRegistry 钩子注册表
type HookRegistry interface {
	// AddHooks 批量注册钩子
	AddHooks(hooks map[string]HookFunc)
	// Hook 注册单个钩子
	Hook(name string, fn HookFunc)
	// CallHook 按注册顺序调用钩子，遇到第一个错误即返回
	CallHook(ctx context.Context, name string, args ...any) error
}

// NewHookRegistry 创建独立的钩子注册表
func NewHookRegistry() HookRegistry {
	return &hookRegistry{hooks: make(map[string][]HookFunc)}
}

type hookRegistry struct {
	hooks map[string][]HookFunc
	mu    sync.RWMutex
}

func (r *hookRegistry) AddHooks(hooks map[string]HookFunc) {
	for name, fn := range hooks {
		r.Hook(name, fn)
	}
}

func (r *hookRegistry) Hook(name string, fn HookFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks[name] = append(r.hooks[name], fn)
}

func (r *hookRegistry) CallHook(ctx context.Context, name string, args ...any) error {
	r.mu.RLock()
	fns := append([]HookFunc(nil), r.hooks[name]...)
	r.mu.RUnlock()
	return callAll(ctx, fns, args)
}

func callAll(ctx context.Context, fns []HookFunc, args []any) error {
	for _, fn := range fns {
		if err := fn(ctx, args...); err != nil {
			return err
		}
	}
	return nil
}

// Hooks 钩子注册表
// 旧版宿主在桥接之前返回 nil
func (c *BuildContext) Hooks() HookRegistry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.registry
}

// SetHooks 替换钩子注册表
func (c *BuildContext) SetHooks(r HookRegistry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registry = r
}

// Hook 上下文自身的钩子注册 API
func (c *BuildContext) Hook(name string, fn HookFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks[name] = append(c.hooks[name], fn)
}

// CallHook 调用通过 Hook 注册的钩子
func (c *BuildContext) CallHook(ctx context.Context, name string, args ...any) error {
	c.mu.RLock()
	fns := append([]HookFunc(nil), c.hooks[name]...)
	c.mu.RUnlock()
	return callAll(ctx, fns, args)
}
