package logging

import "io"

// NewLogger 创建一个默认的控制台 Logger
func NewLogger() Logger {
	return NewLoggingBuilder().AddConsole().Logger()
}

// NewWriterLogger 创建输出到 w 的无颜色文本 Logger（便于测试断言）
func NewWriterLogger(w io.Writer, level LogLevel) Logger {
	return NewLoggingBuilder().
		SetMinimumLevel(level).
		AddConsole(ConsoleLoggerOptions{Output: w}).
		Logger()
}

// Nop 返回丢弃所有日志的 Logger
func Nop() Logger {
	return NewCompositeLogger(nil, LogLevelError+1, "")
}
