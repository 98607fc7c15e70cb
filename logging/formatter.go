package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// now 便于测试替换
var now = time.Now

// LogEntry 日志条目
type LogEntry struct {
	Time     time.Time
	Level    LogLevel
	Category string
	Message  string
	Fields   []Field
}

// Formatter 日志格式化接口
type Formatter interface {
	// Format 格式化日志条目
	Format(entry *LogEntry) ([]byte, error)
}

// TextFormatter 文本格式化器
// 输出形如: 2006-01-02 15:04:05 WARN [modkit] message {key=value}
type TextFormatter struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
}

// NewTextFormatter 创建文本格式化器
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: true,
		TimestampFormat:  "2006-01-02 15:04:05",
	}
}

var bufferPool = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// Format 格式化日志
func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	buffer := bufferPool.Get().(*bytes.Buffer)
	defer func() {
		buffer.Reset()
		bufferPool.Put(buffer)
	}()

	if f.IncludeTimestamp {
		buffer.WriteString(entry.Time.Format(f.TimestampFormat))
		buffer.WriteByte(' ')
	}

	levelStr := entry.Level.String()
	if f.ColorOutput {
		buffer.WriteString(colorize(entry.Level, levelStr))
	} else {
		buffer.WriteString(levelStr)
	}

	if entry.Category != "" {
		buffer.WriteString(" [")
		buffer.WriteString(entry.Category)
		buffer.WriteString("]")
	}

	buffer.WriteByte(' ')
	buffer.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		buffer.WriteString(" {")
		for i, field := range entry.Fields {
			if i > 0 {
				buffer.WriteString(", ")
			}
			buffer.WriteString(field.Key)
			buffer.WriteByte('=')
			fmt.Fprintf(buffer, "%v", field.Value)
		}
		buffer.WriteByte('}')
	}

	buffer.WriteByte('\n')

	// 复制结果，buffer 会被归还
	result := make([]byte, buffer.Len())
	copy(result, buffer.Bytes())
	return result, nil
}

// ConsoleLoggerOptions 控制台日志选项
type ConsoleLoggerOptions struct {
	IncludeTimestamp bool
	TimestampFormat  string
	ColorOutput      bool
	Output           io.Writer
}

// ConsoleLoggerProvider 控制台文本日志提供者
type ConsoleLoggerProvider struct {
	formatter *TextFormatter
	output    io.Writer
	mu        sync.Mutex
}

// NewConsoleLoggerProvider 创建控制台日志提供者
func NewConsoleLoggerProvider(options ConsoleLoggerOptions) *ConsoleLoggerProvider {
	if options.Output == nil {
		options.Output = os.Stdout
	}
	if options.TimestampFormat == "" {
		options.TimestampFormat = "2006-01-02 15:04:05"
	}
	return &ConsoleLoggerProvider{
		formatter: &TextFormatter{
			IncludeTimestamp: options.IncludeTimestamp,
			TimestampFormat:  options.TimestampFormat,
			ColorOutput:      options.ColorOutput,
		},
		output: options.Output,
	}
}

// Write 写入一条日志
func (p *ConsoleLoggerProvider) Write(entry *LogEntry) {
	data, err := p.formatter.Format(entry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: format error: %v\n", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := p.output.Write(data); err != nil {
		fmt.Fprintf(os.Stderr, "logging: write error: %v\n", err)
	}
}

// colorize 为日志级别添加颜色
func colorize(level LogLevel, text string) string {
	const (
		reset  = "\033[0m"
		gray   = "\033[90m"
		cyan   = "\033[36m"
		green  = "\033[32m"
		yellow = "\033[33m"
		red    = "\033[31m"
	)

	switch level {
	case LogLevelTrace:
		return gray + text + reset
	case LogLevelDebug:
		return cyan + text + reset
	case LogLevelInfo:
		return green + text + reset
	case LogLevelWarn:
		return yellow + text + reset
	case LogLevelError:
		return red + text + reset
	default:
		return text
	}
}
