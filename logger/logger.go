package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds configuration for the logger
type Config struct {
	Level       string
	Development bool
	// Encoding is "json" or "console". Empty picks console in development
	// and json otherwise.
	Encoding string
}

// New creates a new logger with the given configuration
func New(cfg Config) (*zap.Logger, error) {
	if cfg.Encoding == "" {
		cfg.Encoding = "json"
		if cfg.Development {
			cfg.Encoding = "console"
		}
	}

	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if cfg.Development {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(ParseLevel(cfg.Level)),
		Development:      cfg.Development,
		Encoding:         cfg.Encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}

// ParseLevel converts a level name to a zap level, defaulting to info
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// raylib trace log levels
const (
	raylibTrace   = 1
	raylibDebug   = 2
	raylibInfo    = 3
	raylibWarning = 4
	raylibError   = 5
	raylibFatal   = 6
)

// RaylibSink returns a trace log callback that forwards raylib messages to
// l. Raylib's info chatter is logged at debug.
func RaylibSink(l *zap.Logger) func(level int, text string) {
	l = l.Named("raylib")
	return func(level int, text string) {
		switch level {
		case raylibTrace, raylibDebug, raylibInfo:
			l.Debug(text)
		case raylibWarning:
			l.Warn(text)
		case raylibError, raylibFatal:
			l.Error(text)
		}
	}
}
