// Package log provides structured logging for the network monitor using zap.
package log

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aws-samples/sample-lambda-network-monitor/internal/config"
)

// Logger wraps zap.Logger with monitor-specific helpers.
type Logger struct {
	*zap.Logger
}

var (
	// L is the global logger instance.
	L    = NewNop()
	once sync.Once
)

// Init initializes the global logger with the given configuration.
// Safe to call multiple times; only the first call takes effect.
func Init(cfg config.Config) {
	once.Do(func() {
		L = New(cfg)
	})
}

// New creates a new Logger instance.
func New(cfg config.Config) *Logger {
	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if cfg.Debug() {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if cfg.LogFormat == config.FormatConsole {
		zcfg.Encoding = "console"
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	if cfg.LogFile != "" {
		zcfg.OutputPaths = []string{cfg.LogFile}
	}

	// Every socket event matters, so no sampling.
	zcfg.Sampling = nil
	zcfg.DisableCaller = true
	zcfg.DisableStacktrace = true
	zcfg.EncoderConfig.TimeKey = "ts"
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zcfg.Build()
	if err != nil {
		// Fallback to no-op if config fails
		logger = zap.NewNop()
	}

	return &Logger{Logger: logger.With(zap.Int("pid", os.Getpid()))}
}

// NewNop creates a no-op logger for testing.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// FromCore wraps an existing core, typically an observer in tests.
func FromCore(core zapcore.Core) *Logger {
	return &Logger{Logger: zap.New(core)}
}

// With returns a logger with the given fields preset.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// Field helpers for common patterns.

// Fd creates a file descriptor field.
func Fd(fd int32) zap.Field {
	return zap.Int32("fd", fd)
}

// Rv creates a return value field.
func Rv(rv int32) zap.Field {
	return zap.Int32("rv", rv)
}

// Addr creates a socket address field.
func Addr(addr string) zap.Field {
	return zap.String("addr", addr)
}

// IP creates an IP address field.
func IP(ip string) zap.Field {
	return zap.String("ip", ip)
}

// Node creates a hostname field.
func Node(node string) zap.Field {
	return zap.String("node", node)
}

// SpanID creates a span id field.
func SpanID(id string) zap.Field {
	return zap.String("spanID", id)
}
