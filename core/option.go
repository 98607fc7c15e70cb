package core

import (
	"io"
	"os"

	"github.com/gocrud/modkit/compat"
	"github.com/gocrud/modkit/config"
	"github.com/gocrud/modkit/logging"
	"github.com/gocrud/modkit/metrics"
	"github.com/gocrud/modkit/report"
	"github.com/gocrud/modkit/templates"
	"github.com/google/uuid"
)

// Option 修改 BuildContext 的函数
type Option func(c *BuildContext)

// NewBuildContext 创建构建上下文
// 默认：当前代际、随机构建 ID、内存安装集合、控制台日志、内存报告、semver 兼容性检查。
// WithOptions 给出的选项覆盖 WithConfiguration 的同名键。
func NewBuildContext(opts ...Option) *BuildContext {
	c := &BuildContext{
		id:         uuid.NewString(),
		generation: GenerationCurrent,
		options:    make(map[string]any),
		hooks:      make(map[string][]HookFunc),
		cleanups:   make(map[string]func()),
		once:       make(map[string]bool),
		recorder:   metrics.NoopRecorder{},
		checker:    compat.SemverChecker{},
		compiler:   templates.DefaultCompiler{},
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.configuration != nil {
		options := c.configuration.GetAll()
		config.MergeMaps(options, c.options)
		c.options = options

		if !c.debugSet {
			if debug, err := c.configuration.GetBool("debug"); err == nil {
				c.debug = debug
			}
		}
	}

	if c.logger == nil {
		c.logger = newDefaultLogger(c.configuration, c.debug, os.Stdout)
	}
	if c.reporter == nil {
		c.reporter = report.NewMemorySink()
	}
	if c.registry == nil && c.generation != GenerationLegacy {
		c.registry = NewHookRegistry()
	}
	c.installs = newInstallSet(c.store)

	return c
}

// newDefaultLogger 按配置的 logging:level 与 logging:format 创建日志；调试模式至少输出 Debug 级别
func newDefaultLogger(cfg config.Configuration, debug bool, output io.Writer) logging.Logger {
	builder := logging.NewLoggingBuilder()

	var problems []error
	var format string
	if cfg != nil {
		if err := builder.SetLevel(cfg.Get("logging:level")); err != nil {
			problems = append(problems, err)
		}
		format = cfg.Get("logging:format")
	}
	if err := builder.AddOutput(format, output); err != nil {
		problems = append(problems, err)
		_ = builder.AddOutput(logging.FormatText, output)
	}

	logger := builder.Debug(debug).Logger()
	for _, err := range problems {
		logger.Warn("Invalid logging configuration", logging.Field{Key: "error", Value: err.Error()})
	}
	return logger
}

// WithID 指定构建 ID
func WithID(id string) Option {
	return func(c *BuildContext) {
		if id != "" {
			c.id = id
		}
	}
}

// WithVersion 宿主版本
func WithVersion(version string) Option {
	return func(c *BuildContext) {
		c.version = version
	}
}

// WithGeneration 宿主代际
func WithGeneration(g Generation) Option {
	return func(c *BuildContext) {
		c.generation = g
	}
}

// WithBuilder 构建器及其版本
func WithBuilder(name, version string) Option {
	return func(c *BuildContext) {
		c.builder = name
		c.builderVersion = version
	}
}

// WithDebug 调试模式；优先于配置中的 debug
func WithDebug(debug bool) Option {
	return func(c *BuildContext) {
		c.debug = debug
		c.debugSet = true
	}
}

// WithConfiguration 使用项目配置生成选项包
func WithConfiguration(cfg config.Configuration) Option {
	return func(c *BuildContext) {
		c.configuration = cfg
	}
}

// WithOptions 直接设置选项包（深度合并，可多次使用）
func WithOptions(options map[string]any) Option {
	return func(c *BuildContext) {
		config.MergeMaps(c.options, options)
	}
}

// WithLogger 日志记录器
func WithLogger(logger logging.Logger) Option {
	return func(c *BuildContext) {
		c.logger = logger
	}
}

// WithInstallStore 外部安装状态存储（例如 redis）
func WithInstallStore(store InstallStore) Option {
	return func(c *BuildContext) {
		c.store = store
	}
}

// WithRecorder 指标记录器
func WithRecorder(r metrics.Recorder) Option {
	return func(c *BuildContext) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithReporter 安装报告
func WithReporter(s report.Sink) Option {
	return func(c *BuildContext) {
		c.reporter = s
	}
}

// WithSetupPolicy 安装耗时策略
func WithSetupPolicy(p SetupPolicy) Option {
	return func(c *BuildContext) {
		c.policy = p
	}
}

// WithChecker 兼容性检查器
func WithChecker(checker compat.Checker) Option {
	return func(c *BuildContext) {
		if checker != nil {
			c.checker = checker
		}
	}
}

// WithCompiler 模板编译器
func WithCompiler(compiler templates.Compiler) Option {
	return func(c *BuildContext) {
		if compiler != nil {
			c.compiler = compiler
		}
	}
}

// WithHooks 指定钩子注册表
func WithHooks(r HookRegistry) Option {
	return func(c *BuildContext) {
		c.registry = r
	}
}

func WithSrcDir(dir string) Option {
	return func(c *BuildContext) {
		c.srcDir = dir
	}
}

func WithBuildDir(dir string) Option {
	return func(c *BuildContext) {
		c.buildDir = dir
	}
}

func WithExtensions(exts ...string) Option {
	return func(c *BuildContext) {
		c.extensions = append(c.extensions, exts...)
	}
}

func WithPlugins(plugins ...string) Option {
	return func(c *BuildContext) {
		c.plugins = append(c.plugins, plugins...)
	}
}

func logErr(err error) logging.Field {
	return logging.Field{Key: "error", Value: err}
}
