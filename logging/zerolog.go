package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// JSONLoggerProvider 基于 zerolog 的 JSON 日志提供者
// 每条日志输出一行 JSON，字段平铺在顶层
type JSONLoggerProvider struct {
	logger zerolog.Logger
}

// NewJSONLoggerProvider 创建 JSON 日志提供者
func NewJSONLoggerProvider(output io.Writer) *JSONLoggerProvider {
	if output == nil {
		output = os.Stdout
	}
	return &JSONLoggerProvider{
		logger: zerolog.New(output),
	}
}

// Write 写入一条日志
func (p *JSONLoggerProvider) Write(entry *LogEntry) {
	event := p.logger.WithLevel(zerologLevel(entry.Level))
	if event == nil {
		return
	}

	event = event.Time(zerolog.TimestampFieldName, entry.Time)
	if entry.Category != "" {
		event = event.Str("category", entry.Category)
	}

	for _, field := range entry.Fields {
		if err, ok := field.Value.(error); ok {
			event = event.AnErr(field.Key, err)
			continue
		}
		event = event.Interface(field.Key, field.Value)
	}

	event.Msg(entry.Message)
}

func zerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LogLevelTrace:
		return zerolog.TraceLevel
	case LogLevelDebug:
		return zerolog.DebugLevel
	case LogLevelInfo:
		return zerolog.InfoLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.NoLevel
	}
}
