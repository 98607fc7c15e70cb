package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// 输出格式
const (
	FormatText = "text"
	FormatJSON = "json"
)

// LoggingBuilder 日志构建器
// 未添加任何输出时 Logger 使用标准输出的文本格式。
type LoggingBuilder struct {
	providers    []LoggerProvider
	minimumLevel LogLevel
	category     string
	mu           sync.RWMutex
}

// NewLoggingBuilder 创建日志构建器，默认级别 Info，分类 modkit
func NewLoggingBuilder() *LoggingBuilder {
	return &LoggingBuilder{
		minimumLevel: LogLevelInfo,
		category:     "modkit",
	}
}

// ParseLevel 解析级别名称（不区分大小写）
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "trace":
		return LogLevelTrace, nil
	case "debug":
		return LogLevelDebug, nil
	case "info", "":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	}
	return LogLevelInfo, fmt.Errorf("unknown log level %q", name)
}

// SetMinimumLevel 设置最小日志级别
func (b *LoggingBuilder) SetMinimumLevel(level LogLevel) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.minimumLevel = level
	return b
}

// SetLevel 按名称设置最小日志级别
func (b *LoggingBuilder) SetLevel(name string) error {
	level, err := ParseLevel(name)
	if err != nil {
		return err
	}
	b.SetMinimumLevel(level)
	return nil
}

// Debug 调试模式下至少输出 Debug 级别
func (b *LoggingBuilder) Debug(on bool) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	if on && b.minimumLevel > LogLevelDebug {
		b.minimumLevel = LogLevelDebug
	}
	return b
}

// SetCategory 设置 Logger 的分类
func (b *LoggingBuilder) SetCategory(category string) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.category = category
	return b
}

// AddProvider 添加日志提供者
func (b *LoggingBuilder) AddProvider(provider LoggerProvider) *LoggingBuilder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.providers = append(b.providers, provider)
	return b
}

// AddConsole 添加控制台文本日志
func (b *LoggingBuilder) AddConsole(options ...ConsoleLoggerOptions) *LoggingBuilder {
	opts := ConsoleLoggerOptions{
		IncludeTimestamp: true,
		TimestampFormat:  "15:04:05",
		ColorOutput:      true,
		Output:           os.Stdout,
	}
	if len(options) > 0 {
		opts = options[0]
	}
	return b.AddProvider(NewConsoleLoggerProvider(opts))
}

// AddJSON 添加 JSON 日志（zerolog）
func (b *LoggingBuilder) AddJSON(output io.Writer) *LoggingBuilder {
	return b.AddProvider(NewJSONLoggerProvider(output))
}

// AddOutput 按格式名添加输出：text（默认）或 json
func (b *LoggingBuilder) AddOutput(format string, output io.Writer) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatText:
		b.AddConsole(ConsoleLoggerOptions{
			IncludeTimestamp: true,
			TimestampFormat:  "15:04:05",
			ColorOutput:      output == os.Stdout,
			Output:           output,
		})
	case FormatJSON:
		b.AddJSON(output)
	default:
		return fmt.Errorf("unknown log format %q", format)
	}
	return nil
}

// Build 构建日志工厂
func (b *LoggingBuilder) Build() LoggerFactory {
	b.mu.RLock()
	defer b.mu.RUnlock()

	factory := &loggerFactory{
		providers:    make([]LoggerProvider, 0, len(b.providers)),
		minimumLevel: b.minimumLevel,
	}
	for _, provider := range b.providers {
		factory.AddProvider(provider)
	}
	if len(b.providers) == 0 {
		factory.AddProvider(NewConsoleLoggerProvider(ConsoleLoggerOptions{Output: os.Stdout}))
	}
	return factory
}

// Logger 构建并返回使用当前分类的 Logger
func (b *LoggingBuilder) Logger() Logger {
	b.mu.RLock()
	category := b.category
	b.mu.RUnlock()
	return b.Build().CreateLogger(category)
}
