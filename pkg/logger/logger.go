// Package logger fans log calls out to every registered backend.
package logger

import "sync"

// LoggerInstance is one logging backend. keyvals are alternating keys and
// values.
type LoggerInstance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

var (
	mu        sync.RWMutex
	instances []LoggerInstance
)

// Init replaces all backends. Logging before Init is a no-op.
func Init(backends ...LoggerInstance) {
	mu.Lock()
	defer mu.Unlock()
	instances = backends
}

// Add registers one more backend.
func Add(backend LoggerInstance) {
	mu.Lock()
	defer mu.Unlock()
	instances = append(instances, backend)
}

func each(fn func(LoggerInstance)) {
	mu.RLock()
	backends := instances
	mu.RUnlock()

	for _, b := range backends {
		fn(b)
	}
}

func Log(message string, keyvals ...any) {
	each(func(b LoggerInstance) { b.Log(message, keyvals...) })
}

func Info(message string, keyvals ...any) {
	each(func(b LoggerInstance) { b.Info(message, keyvals...) })
}

func Warn(message string, keyvals ...any) {
	each(func(b LoggerInstance) { b.Warn(message, keyvals...) })
}

func Error(message string, keyvals ...any) {
	each(func(b LoggerInstance) { b.Error(message, keyvals...) })
}

func Debug(message string, keyvals ...any) {
	each(func(b LoggerInstance) { b.Debug(message, keyvals...) })
}

// Fatal logs to every backend. Backends usually exit the process.
func Fatal(message string, keyvals ...any) {
	each(func(b LoggerInstance) { b.Fatal(message, keyvals...) })
}
