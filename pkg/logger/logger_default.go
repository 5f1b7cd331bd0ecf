package logger

import "sync"

var (
	defaultLogger *Logger
	onceLogger    sync.Once
)

// Default returns the process-wide logger, creating it on first use.
func Default() *Logger {
	onceLogger.Do(func() {
		defaultLogger = New()
	})
	return defaultLogger
}
