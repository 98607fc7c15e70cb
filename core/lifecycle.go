package core

import (
	"context"
	"errors"
)

// OnClose 注册构建结束时的处理函数
// 处理函数按注册的倒序执行
func (c *BuildContext) OnClose(fn func(context.Context) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onClose = append(c.onClose, fn)
}

// Close 结束构建会话
// 先触发 close 钩子，再倒序执行 OnClose 处理函数，最后执行清理函数。
// 重复调用无效果。所有错误合并返回，某一步失败不影响后续步骤。
func (c *BuildContext) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	handlers := append([]func(context.Context) error(nil), c.onClose...)
	cleanups := make([]func(), 0, len(c.cleanups))
	for _, fn := range c.cleanups {
		cleanups = append(cleanups, fn)
	}
	registry := c.registry
	c.mu.Unlock()

	var errs []error

	var hookErr error
	if registry != nil {
		hookErr = registry.CallHook(ctx, "close", c)
	} else {
		hookErr = c.CallHook(ctx, "close", c)
	}
	if hookErr != nil {
		errs = append(errs, hookErr)
	}

	for i := len(handlers) - 1; i >= 0; i-- {
		if err := handlers[i](ctx); err != nil {
			c.logger.Warn("Close handler failed", logErr(err))
			errs = append(errs, err)
		}
	}

	for _, fn := range cleanups {
		fn()
	}

	return errors.Join(errs...)
}

// Closed 是否已经结束
func (c *BuildContext) Closed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}
