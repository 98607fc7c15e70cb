package logging

import (
	"sync"
)

// LogLevel 日志级别
type LogLevel int

const (
	LogLevelTrace LogLevel = iota
	LogLevelDebug
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// String 返回日志级别的字符串表示
func (l LogLevel) String() string {
	switch l {
	case LogLevelTrace:
		return "TRACE"
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Field 日志字段
type Field struct {
	Key   string
	Value any
}

// Logger 日志接口
// 构建上下文、模块安装器和模板写入器都通过它输出结构化日志
type Logger interface {
	Trace(msg string, fields ...Field)
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Log(level LogLevel, msg string, fields ...Field)
	WithFields(fields ...Field) Logger
	WithCategory(category string) Logger
}

// LoggerFactory 日志工厂接口
type LoggerFactory interface {
	CreateLogger(category string) Logger
	AddProvider(provider LoggerProvider)
	SetMinimumLevel(level LogLevel)
}

// LoggerProvider 日志提供者接口
// 每个提供者负责一种输出（控制台文本、JSON 等）
type LoggerProvider interface {
	Write(entry *LogEntry)
}

// loggerFactory 日志工厂实现
type loggerFactory struct {
	providers    []LoggerProvider
	minimumLevel LogLevel
	mu           sync.RWMutex
}

func (f *loggerFactory) CreateLogger(category string) Logger {
	f.mu.RLock()
	defer f.mu.RUnlock()

	providers := make([]LoggerProvider, len(f.providers))
	copy(providers, f.providers)

	return &compositeLogger{
		providers:    providers,
		minimumLevel: f.minimumLevel,
		category:     category,
	}
}

func (f *loggerFactory) AddProvider(provider LoggerProvider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers = append(f.providers, provider)
}

func (f *loggerFactory) SetMinimumLevel(level LogLevel) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.minimumLevel = level
}

// compositeLogger 组合日志记录器（将日志条目分发到所有提供者）
type compositeLogger struct {
	providers    []LoggerProvider
	minimumLevel LogLevel
	category     string
	fields       []Field
}

// NewCompositeLogger 使用给定提供者创建日志记录器
func NewCompositeLogger(providers []LoggerProvider, minimumLevel LogLevel, category string) Logger {
	return &compositeLogger{
		providers:    providers,
		minimumLevel: minimumLevel,
		category:     category,
	}
}

func (l *compositeLogger) Trace(msg string, fields ...Field) {
	l.Log(LogLevelTrace, msg, fields...)
}

func (l *compositeLogger) Debug(msg string, fields ...Field) {
	l.Log(LogLevelDebug, msg, fields...)
}

func (l *compositeLogger) Info(msg string, fields ...Field) {
	l.Log(LogLevelInfo, msg, fields...)
}

func (l *compositeLogger) Warn(msg string, fields ...Field) {
	l.Log(LogLevelWarn, msg, fields...)
}

func (l *compositeLogger) Error(msg string, fields ...Field) {
	l.Log(LogLevelError, msg, fields...)
}

func (l *compositeLogger) Log(level LogLevel, msg string, fields ...Field) {
	if level < l.minimumLevel {
		return
	}

	entry := &LogEntry{
		Time:     now(),
		Level:    level,
		Category: l.category,
		Message:  msg,
		Fields:   joinFields(l.fields, fields),
	}

	for _, provider := range l.providers {
		provider.Write(entry)
	}
}

func (l *compositeLogger) WithFields(fields ...Field) Logger {
	return &compositeLogger{
		providers:    l.providers,
		minimumLevel: l.minimumLevel,
		category:     l.category,
		fields:       joinFields(l.fields, fields),
	}
}

func (l *compositeLogger) WithCategory(category string) Logger {
	return &compositeLogger{
		providers:    l.providers,
		minimumLevel: l.minimumLevel,
		category:     category,
		fields:       l.fields,
	}
}

// joinFields 合并字段，总是返回新切片，避免共享底层数组
func joinFields(base, extra []Field) []Field {
	if len(base) == 0 && len(extra) == 0 {
		return nil
	}
	out := make([]Field, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}
