// Package module 把声明式的模块定义转换为幂等、可观测、带兼容性检查的安装函数
package module

import (
	"context"
	"maps"

	"github.com/gocrud/modkit/compat"
	"github.com/gocrud/modkit/core"
	"github.com/gocrud/modkit/schema"
)

// Meta 模块元信息
type Meta struct {
	Name          string
	ConfigKey     string
	Version       string
	Compatibility compat.Constraints
	Extra         map[string]any
}

// SetupFunc 模块安装函数
// 返回 ErrSkip 表示模块主动放弃安装；返回的 map 会与安装耗时合并为结果。
type SetupFunc func(ctx context.Context, opts map[string]any, bc *core.BuildContext) (map[string]any, error)

// Definition 模块定义
type Definition struct {
	Meta Meta

	// Defaults 默认选项
	Defaults map[string]any
	// DefaultsFunc 根据构建上下文计算默认选项，设置后优先于 Defaults；bc 可能为 nil
	DefaultsFunc func(bc *core.BuildContext) map[string]any

	// Schema 可选的选项 schema
	Schema schema.Schema

	// Hooks 安装时原样注册到宿主的钩子
	Hooks map[string]core.HookFunc

	Setup SetupFunc
}

// Module 规范化后的模块
type Module struct {
	meta Meta
	def  Definition
}

// Define 规范化模块定义
// ConfigKey 为空时取 Name，此后不再变化。
func Define(def Definition) *Module {
	meta := def.Meta
	if meta.ConfigKey == "" {
		meta.ConfigKey = meta.Name
	}
	meta.Extra = maps.Clone(meta.Extra)

	return &Module{
		meta: meta,
		def:  def,
	}
}

// Meta 模块元信息（副本）
func (m *Module) Meta() Meta {
	meta := m.meta
	meta.Extra = maps.Clone(m.meta.Extra)
	return meta
}

// UniqueKey 模块标识：Name，为空时取 ConfigKey；空字符串表示匿名模块
func (m *Module) UniqueKey() string {
	if m.meta.Name != "" {
		return m.meta.Name
	}
	return m.meta.ConfigKey
}

// displayName 日志和指标中使用的名称
func (m *Module) displayName() string {
	if key := m.UniqueKey(); key != "" {
		return key
	}
	return "anonymous"
}
