// Package logger provides structured key/value logging backed by zap.
package logger

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ErrInvalidEncoding is returned for encodings other than console and json.
var ErrInvalidEncoding = errors.New("invalid log encoding")

// Interface is the logger used across the crawler.
type Interface interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
	With(fields ...any) Interface
	Sync() error
}

// Config controls level and encoding.
type Config struct {
	Level       string
	Encoding    string
	Development bool
}

// Logger implements Interface on top of a zap.Logger.
type Logger struct {
	zapLogger *zap.Logger
}

var logLevels = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
}

// New builds a Logger writing to stdout.
func New(cfg Config) (*Logger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Encoding) {
	case "", "console":
		if cfg.Development {
			encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidEncoding, cfg.Encoding)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), levelOf(cfg.Level))

	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Development {
		opts = append(opts, zap.Development())
	}

	return &Logger{zapLogger: zap.New(core, opts...)}, nil
}

// NewFromZap wraps an existing zap logger.
func NewFromZap(l *zap.Logger) *Logger {
	return &Logger{zapLogger: l}
}

func levelOf(level string) zapcore.Level {
	if lvl, ok := logLevels[strings.ToLower(level)]; ok {
		return lvl
	}
	return zapcore.InfoLevel
}

func (l *Logger) Debug(msg string, fields ...any) { l.zapLogger.Debug(msg, toZapFields(fields)...) }
func (l *Logger) Info(msg string, fields ...any)  { l.zapLogger.Info(msg, toZapFields(fields)...) }
func (l *Logger) Warn(msg string, fields ...any)  { l.zapLogger.Warn(msg, toZapFields(fields)...) }
func (l *Logger) Error(msg string, fields ...any) { l.zapLogger.Error(msg, toZapFields(fields)...) }

// With returns a child logger carrying fields on every entry.
func (l *Logger) With(fields ...any) Interface {
	return &Logger{zapLogger: l.zapLogger.With(toZapFields(fields)...)}
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}

// toZapFields converts alternating key/value pairs; zap.Field values pass through.
func toZapFields(fields []any) []zap.Field {
	if len(fields) == 0 {
		return nil
	}

	zapFields := make([]zap.Field, 0, len(fields)/2+1)
	for i := 0; i < len(fields); i++ {
		switch field := fields[i].(type) {
		case zap.Field:
			zapFields = append(zapFields, field)
		case string:
			if i+1 >= len(fields) {
				zapFields = append(zapFields, zap.String("dangling_key", field))
				continue
			}
			if err, ok := fields[i+1].(error); ok {
				zapFields = append(zapFields, zap.NamedError(field, err))
			} else {
				zapFields = append(zapFields, zap.Any(field, fields[i+1]))
			}
			i++
		default:
			zapFields = append(zapFields, zap.Any(fmt.Sprintf("field_%d", i), field))
		}
	}

	return zapFields
}
