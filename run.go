package modkit

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gocrud/modkit/core"
	"github.com/gocrud/modkit/module"
)

// ShutdownTimeout 关闭构建上下文的超时时间
const ShutdownTimeout = 5 * time.Second

// Entry 待安装的模块及其内联选项
type Entry struct {
	Module  *module.Module
	Options map[string]any
}

// Install 按顺序安装模块，遇到第一个错误即停止
// 返回已完成安装的结果（与 entries 顺序一致）
func Install(ctx context.Context, bc *core.BuildContext, entries ...Entry) ([]module.Outcome, error) {
	outcomes := make([]module.Outcome, 0, len(entries))
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		if e.Module == nil {
			return outcomes, fmt.Errorf("entry %d has no module", i)
		}
		out, err := e.Module.Install(ctx, e.Options, bc)
		if err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// Run 安装所有模块后关闭构建上下文
// 安装过程中收到退出信号 (Ctrl+C, kill) 会中止剩余模块的安装
func Run(bc *core.BuildContext, entries ...Entry) ([]module.Outcome, error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	outcomes, installErr := Install(ctx, bc, entries...)

	// 无论安装是否成功都要执行关闭钩子与清理
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	if err := bc.Close(shutdownCtx); err != nil && installErr == nil {
		return outcomes, err
	}
	return outcomes, installErr
}
