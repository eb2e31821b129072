package wlog

import (
	"io"
	"strings"
	"sync"
)

const systemLogPrefix = "LIBCOM: "

// TransferTimeoutFormat 是读写超时诊断的日志格式，静默模式下不输出。
const TransferTimeoutFormat = "%s：描述符 %d 等待就绪超时（%s），剩余 %d 字节"

var silentMode = false

// SetSilentMode 设置系统日志的静默开关。
// 开启后，读写超时这类预期内的诊断不再输出。
func SetSilentMode(s bool) {
	silentMode = s
}

var builderPool = sync.Pool{New: func() any {
	return &strings.Builder{}
}}

type systemLogger struct {
	logger FullLogger
	prefix string
}

func (l *systemLogger) SetOutput(w io.Writer) { l.logger.SetOutput(w) }
func (l *systemLogger) SetLevel(lv Level)     { l.logger.SetLevel(lv) }

func (l *systemLogger) Trace(v ...any)  { l.logger.Trace(l.prepend(v)...) }
func (l *systemLogger) Debug(v ...any)  { l.logger.Debug(l.prepend(v)...) }
func (l *systemLogger) Info(v ...any)   { l.logger.Info(l.prepend(v)...) }
func (l *systemLogger) Notice(v ...any) { l.logger.Notice(l.prepend(v)...) }
func (l *systemLogger) Warn(v ...any)   { l.logger.Warn(l.prepend(v)...) }
func (l *systemLogger) Error(v ...any)  { l.logger.Error(l.prepend(v)...) }
func (l *systemLogger) Fatal(v ...any)  { l.logger.Fatal(l.prepend(v)...) }

func (l *systemLogger) Tracef(format string, v ...any) {
	l.logger.Tracef(l.addPrefix(format), v...)
}

func (l *systemLogger) Debugf(format string, v ...any) {
	if silentMode && format == TransferTimeoutFormat {
		return
	}
	l.logger.Debugf(l.addPrefix(format), v...)
}

func (l *systemLogger) Infof(format string, v ...any) {
	l.logger.Infof(l.addPrefix(format), v...)
}

func (l *systemLogger) Noticef(format string, v ...any) {
	l.logger.Noticef(l.addPrefix(format), v...)
}

func (l *systemLogger) Warnf(format string, v ...any) {
	l.logger.Warnf(l.addPrefix(format), v...)
}

func (l *systemLogger) Errorf(format string, v ...any) {
	l.logger.Errorf(l.addPrefix(format), v...)
}

func (l *systemLogger) Fatalf(format string, v ...any) {
	l.logger.Fatalf(l.addPrefix(format), v...)
}

func (l *systemLogger) prepend(v []any) []any {
	return append([]any{l.prefix}, v...)
}

func (l *systemLogger) addPrefix(format string) string {
	builder := builderPool.Get().(*strings.Builder)
	defer func() {
		builder.Reset()
		builderPool.Put(builder)
	}()

	builder.Grow(len(l.prefix) + len(format))
	builder.WriteString(l.prefix)
	builder.WriteString(format)
	return builder.String()
}
