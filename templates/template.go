// Package templates 描述构建输出模板，并负责编译与写入虚拟模板
package templates

import (
	"context"
	"fmt"
	"path/filepath"
)

// Template 模板描述
// Src 指向静态模板文件；设置了 GetContents 的模板为虚拟模板，内容在构建时计算。
type Template struct {
	Src      string
	Dst      string
	Filename string
	Options  map[string]any

	GetContents func(ctx context.Context, data *RenderContext) (string, error)
}

// Virtual 是否为虚拟模板
func (t *Template) Virtual() bool {
	return t.GetContents != nil
}

// Name 用于日志和错误信息
func (t *Template) Name() string {
	switch {
	case t.Filename != "":
		return t.Filename
	case t.Dst != "":
		return filepath.Base(t.Dst)
	default:
		return t.Src
	}
}

// Destination 输出路径：Dst，为空时为 buildDir/Filename
// 两者都为空时返回 ErrNoDestination
func (t *Template) Destination(buildDir string) (string, error) {
	if t.Dst != "" {
		return t.Dst, nil
	}
	if t.Filename == "" {
		return "", fmt.Errorf("%w: %s", ErrNoDestination, t.Name())
	}
	return filepath.Join(buildDir, t.Filename), nil
}

// BuildOptions builder:prepared 钩子的参数
// 钩子可以修改 Templates，修改后的列表交给底层构建工具写入
type BuildOptions struct {
	BuildDir  string
	Templates []*Template
}

// TemplatesPayload build:templates 钩子的参数
type TemplatesPayload struct {
	Templates    []*Template
	TemplateVars map[string]any
}

// Env 渲染时可见的构建上下文
type Env interface {
	ID() string
	Debug() bool
	SrcDir() string
	BuildDir() string
}

// App 应用级字段
type App struct {
	SrcDir       string
	Extensions   []string
	Plugins      []string
	Templates    []*Template
	TemplateVars map[string]any
}

// RenderContext 模板渲染上下文
type RenderContext struct {
	BuildContext Env
	Utils        Utils
	App          App
	// Options 当前模板的选项，由编译器按模板设置
	Options map[string]any
}

// forTemplate 返回带有该模板选项的浅拷贝
func (rc *RenderContext) forTemplate(t *Template) *RenderContext {
	data := *rc
	data.Options = t.Options
	if data.Options == nil {
		data.Options = map[string]any{}
	}
	return &data
}
