package modkit

import "github.com/gocrud/modkit/core"

// NewBuildContext 创建构建上下文
// 这是使用 modkit 的入口点
func NewBuildContext(opts ...core.Option) *core.BuildContext {
	return core.NewBuildContext(opts...)
}
