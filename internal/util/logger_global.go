package util

import (
	"sync"
)

var (
	globalLogger LoggerInterface
	loggerOnce   sync.Once
)

// InitLogger installs the process-wide logger. Only the first call has an effect.
func InitLogger(opts LoggerOptions) error {
	var err error
	loggerOnce.Do(func() {
		var l *Logger
		l, err = NewLogger(opts)
		if err == nil {
			globalLogger = l
		}
	})
	return err
}

// SetLogger replaces the process-wide logger; tests use it to capture output.
func SetLogger(l LoggerInterface) {
	globalLogger = l
}

// CloseLogger flushes and closes the process-wide logger outputs
func CloseLogger() {
	if globalLogger != nil {
		_ = globalLogger.Close()
	}
}

// LogWith returns a child of the process-wide logger carrying fields. Without
// a logger the child discards everything.
func LogWith(fields ...Field) LoggerInterface {
	if globalLogger == nil {
		return &Logger{fields: map[string]interface{}{}}
	}
	return globalLogger.With(fields...)
}

func LogInfo(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.Info(msg, fields...)
	}
}

func LogInfof(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.Infof(format, args...)
	}
}

func LogDebug(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.Debug(msg, fields...)
	}
}

func LogDebugf(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.Debugf(format, args...)
	}
}

func LogWarn(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.Warn(msg, fields...)
	}
}

func LogWarnf(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.Warnf(format, args...)
	}
}

func LogError(msg string, fields ...Field) {
	if globalLogger != nil {
		globalLogger.Error(msg, fields...)
	}
}

func LogErrorf(format string, args ...interface{}) {
	if globalLogger != nil {
		globalLogger.Errorf(format, args...)
	}
}
