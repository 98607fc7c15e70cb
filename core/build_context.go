package core

import (
	"context"
	"sync"

	"github.com/gocrud/modkit/compat"
	"github.com/gocrud/modkit/config"
	"github.com/gocrud/modkit/logging"
	"github.com/gocrud/modkit/metrics"
	"github.com/gocrud/modkit/report"
	"github.com/gocrud/modkit/templates"
)

// Generation 宿主框架的代际
type Generation int

const (
	// GenerationLegacy 旧版（v2）宿主，钩子 API 挂在上下文本身
	GenerationLegacy Generation = 2
	// GenerationCurrent 当前宿主，使用独立的钩子注册表
	GenerationCurrent Generation = 3
)

// BuildContext 构建上下文
// 代表一次构建会话，在整个构建期间存活，由宿主持有，模块安装时借用。
type BuildContext struct {
	id             string
	version        string
	generation     Generation
	builder        string
	builderVersion string

	configuration config.Configuration
	options       map[string]any

	debug    bool
	debugSet bool

	srcDir     string
	buildDir   string
	extensions []string
	plugins    []string

	logger   logging.Logger
	recorder metrics.Recorder
	reporter report.Sink
	policy   SetupPolicy
	checker  compat.Checker
	compiler templates.Compiler

	store    InstallStore
	installs *installSet

	// hooks 上下文自身的钩子 API（旧版宿主直接调用）
	hooks    map[string][]HookFunc
	registry HookRegistry

	onClose  []func(context.Context) error
	cleanups map[string]func()
	closed   bool

	once map[string]bool

	mu     sync.RWMutex
	onceMu sync.Mutex
}

// ID 构建 ID
func (c *BuildContext) ID() string {
	return c.id
}

// Version 宿主版本
func (c *BuildContext) Version() string {
	return c.version
}

// Generation 宿主代际
func (c *BuildContext) Generation() Generation {
	return c.generation
}

// IsLegacy 是否为旧版宿主
func (c *BuildContext) IsLegacy() bool {
	return c.generation == GenerationLegacy
}

// Builder 构建器名称，例如 vite
func (c *BuildContext) Builder() string {
	return c.builder
}

// BuilderVersion 构建器版本
func (c *BuildContext) BuilderVersion() string {
	return c.builderVersion
}

// Debug 是否为调试模式
func (c *BuildContext) Debug() bool {
	return c.debug
}

// SrcDir 项目源码目录
func (c *BuildContext) SrcDir() string {
	return c.srcDir
}

// BuildDir 构建输出目录
func (c *BuildContext) BuildDir() string {
	return c.buildDir
}

// Extensions 返回副本
func (c *BuildContext) Extensions() []string {
	return append([]string(nil), c.extensions...)
}

// Plugins 返回副本
func (c *BuildContext) Plugins() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.plugins...)
}

// AddPlugin 追加插件
func (c *BuildContext) AddPlugin(src string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.plugins = append(c.plugins, src)
}

// Configuration 项目配置（未设置时为 nil）
func (c *BuildContext) Configuration() config.Configuration {
	return c.configuration
}

// Options 项目级选项包的副本
func (c *BuildContext) Options() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return config.CloneMap(c.options)
}

// Option 读取选项包中的单个键
func (c *BuildContext) Option(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.options[key]
	return v, ok
}

// SetOption 设置选项包中的键
func (c *BuildContext) SetOption(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.options[key] = value
}

// Logger 构建日志记录器
func (c *BuildContext) Logger() logging.Logger {
	return c.logger
}

// Recorder 安装指标记录器
func (c *BuildContext) Recorder() metrics.Recorder {
	return c.recorder
}

// Reporter 安装报告 Sink
func (c *BuildContext) Reporter() report.Sink {
	return c.reporter
}

// SetupPolicy 慢安装判定策略
func (c *BuildContext) SetupPolicy() SetupPolicy {
	return c.policy
}

// Checker 兼容性检查器
func (c *BuildContext) Checker() compat.Checker {
	return c.checker
}

// Compiler 虚拟模板编译器
func (c *BuildContext) Compiler() templates.Compiler {
	return c.compiler
}

// MarkInstalled 原子地检查并标记模块已安装
// 首次标记返回 true；已经安装过返回 false。
func (c *BuildContext) MarkInstalled(ctx context.Context, key string) (bool, error) {
	return c.installs.mark(ctx, c.id, key)
}

// IsInstalled 模块是否已在本次构建中安装
func (c *BuildContext) IsInstalled(ctx context.Context, key string) (bool, error) {
	return c.installs.has(ctx, c.id, key)
}

// Once 每个上下文只执行一次 fn；执行了返回 true
func (c *BuildContext) Once(name string, fn func()) bool {
	c.onceMu.Lock()
	if c.once[name] {
		c.onceMu.Unlock()
		return false
	}
	c.once[name] = true
	c.onceMu.Unlock()

	fn()
	return true
}

// SetCleanup 设置资源清理函数，在 Close 的最后执行
func (c *BuildContext) SetCleanup(key string, cleanup func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanups[key] = cleanup
}
