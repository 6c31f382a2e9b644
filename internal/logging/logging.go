// Package logging provides the service-wide structured logger. It wraps
// zap behind a small printf-style API so call sites stay terse, plus a
// structured helper for the one-line-per-request access log.
package logging

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu     sync.RWMutex
	logger = newLogger(false)
)

func newLogger(development bool) *zap.SugaredLogger {
	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	l, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// zap's default configs cannot fail to build; fall back anyway
		l = zap.NewNop()
	}
	return l.Sugar()
}

// Init replaces the package logger. Called once at startup; the default
// production logger is used until then.
func Init(development bool) {
	mu.Lock()
	defer mu.Unlock()
	logger = newLogger(development)
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = logger.Sync()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func Debugf(format string, args ...any) { get().Debugf(format, args...) }
func Infof(format string, args ...any)  { get().Infof(format, args...) }
func Warnf(format string, args ...any)  { get().Warnf(format, args...) }
func Errorf(format string, args ...any) { get().Errorf(format, args...) }

// Request emits the per-request access line: one entry per request
// regardless of outcome.
func Request(method, path, outcome string, status int, duration time.Duration) {
	get().Infow("request completed",
		"method", method,
		"path", path,
		"outcome", outcome,
		"status", status,
		"duration_ms", duration.Milliseconds(),
	)
}
