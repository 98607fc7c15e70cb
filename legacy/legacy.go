// Package legacy 让旧版（v2）宿主支持内容在构建时计算的虚拟模板
package legacy

import (
	"context"
	"fmt"
	"sync"

	"github.com/gocrud/modkit/core"
	"github.com/gocrud/modkit/logging"
	"github.com/gocrud/modkit/templates"
)

const (
	onceKey = "legacy:templates"

	// HookBuilderPrepared 构建器准备好模板列表后触发，参数为 *templates.BuildOptions
	HookBuilderPrepared = "builder:prepared"
	// HookBuildTemplates 写入模板前触发，参数为 *templates.TemplatesPayload
	HookBuildTemplates = "build:templates"
)

// Install 在旧版宿主上安装模板兼容层
// 非旧版上下文时什么也不做；同一上下文只安装一次。本次调用完成安装时返回 true。
func Install(bc *core.BuildContext) bool {
	if bc == nil || bc.Generation() != core.GenerationLegacy {
		return false
	}

	return bc.Once(onceKey, func() {
		if bc.Hooks() == nil {
			bc.SetHooks(bridge{bc: bc})
		}

		if core.SetCurrent(bc) {
			bc.OnClose(func(context.Context) error {
				core.ClearCurrent(bc)
				return nil
			})
		}

		s := &shim{
			bc:     bc,
			logger: bc.Logger().WithCategory("legacy"),
		}
		hooks := bc.Hooks()
		hooks.Hook(HookBuilderPrepared, s.builderPrepared)
		hooks.Hook(HookBuildTemplates, s.buildTemplates)
	})
}

// bridge 把注册表方法转发到上下文自身的钩子 API
type bridge struct {
	bc *core.BuildContext
}

func (b bridge) AddHooks(hooks map[string]core.HookFunc) {
	for name, fn := range hooks {
		b.bc.Hook(name, fn)
	}
}

func (b bridge) Hook(name string, fn core.HookFunc) {
	b.bc.Hook(name, fn)
}

func (b bridge) CallHook(ctx context.Context, name string, args ...any) error {
	return b.bc.CallHook(ctx, name, args...)
}

type shim struct {
	bc      *core.BuildContext
	logger  logging.Logger
	virtual []*templates.Template
	mu      sync.Mutex
}

// builderPrepared 把虚拟模板从构建器的列表中移出
// 每次触发都会替换之前收集的虚拟模板
func (s *shim) builderPrepared(_ context.Context, args ...any) error {
	opts, err := argAt[*templates.BuildOptions](HookBuilderPrepared, args)
	if err != nil {
		return err
	}

	static := make([]*templates.Template, 0, len(opts.Templates))
	var virtual []*templates.Template
	for _, t := range opts.Templates {
		if t.Virtual() {
			virtual = append(virtual, t)
		} else {
			static = append(static, t)
		}
	}
	opts.Templates = static

	s.mu.Lock()
	s.virtual = virtual
	s.mu.Unlock()

	if len(virtual) > 0 {
		s.logger.Debug("Virtual templates collected", logging.Field{Key: "count", Value: len(virtual)})
	}
	return nil
}

// buildTemplates 计算并写入虚拟模板
func (s *shim) buildTemplates(ctx context.Context, args ...any) error {
	payload, err := argAt[*templates.TemplatesPayload](HookBuildTemplates, args)
	if err != nil {
		return err
	}

	s.mu.Lock()
	virtual := append([]*templates.Template(nil), s.virtual...)
	s.mu.Unlock()

	all := make([]*templates.Template, 0, len(payload.Templates)+len(virtual))
	all = append(all, payload.Templates...)
	all = append(all, virtual...)

	rc := &templates.RenderContext{
		BuildContext: s.bc,
		Utils:        templates.Utils{},
		App: templates.App{
			SrcDir:       s.bc.SrcDir(),
			Extensions:   s.bc.Extensions(),
			Plugins:      s.bc.Plugins(),
			Templates:    all,
			TemplateVars: payload.TemplateVars,
		},
	}

	if err := templates.WriteVirtual(ctx, s.bc.Compiler(), virtual, rc, s.bc.BuildDir()); err != nil {
		return err
	}

	if len(virtual) > 0 {
		s.logger.Debug("Virtual templates written", logging.Field{Key: "count", Value: len(virtual)})
	}
	return nil
}

func argAt[T any](hook string, args []any) (T, error) {
	var zero T
	if len(args) == 0 {
		return zero, fmt.Errorf("%s: missing argument", hook)
	}
	v, ok := args[0].(T)
	if !ok {
		return zero, fmt.Errorf("%s: unexpected argument %T", hook, args[0])
	}
	return v, nil
}
