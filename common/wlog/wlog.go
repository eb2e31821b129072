// Package wlog 提供分级日志记录器，以及库内部诊断使用的系统记录器。
package wlog

import "io"

var (
	// 提供默认记录器供使用
	logger FullLogger = newDefaultLogger()

	// 提供系统记录器供使用
	sysLogger FullLogger = &systemLogger{
		logger: newDefaultLogger(),
		prefix: systemLogPrefix,
	}
)

// SetOutput 设置默认记录器和系统记录器的写入器。默认为 os.Stderr。
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
	sysLogger.SetOutput(w)
}

// SetLevel 设置默认记录器和系统记录器的输出级别，低于该级别将不输出。默认级别为 LevelInfo。并发不安全。
func SetLevel(lv Level) {
	logger.SetLevel(lv)
	sysLogger.SetLevel(lv)
}

// DefaultLogger 返回默认记录器。
func DefaultLogger() FullLogger {
	return logger
}

// SystemLogger 返回库内部使用的系统记录器。不建议业务端使用。
func SystemLogger() FullLogger {
	return sysLogger
}

// SetSystemLogger 设置系统记录器。并发不安全，在使用 SystemLogger 后不得调用。
func SetSystemLogger(v FullLogger) {
	sysLogger = &systemLogger{
		logger: v,
		prefix: systemLogPrefix,
	}
}

// SetLogger 设置默认记录器和系统记录器。并发不安全。
func SetLogger(v FullLogger) {
	logger = v
	SetSystemLogger(v)
}
