// Package logging builds the process-wide structured logger: leveled,
// appended to a rotated file, and tee'd to stdout simultaneously (not a
// stdout-or-file switch — the specification calls for both sinks at once).
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the logger's sinks and level.
type Options struct {
	File  string // append-mode log file path; empty disables the file sink
	Level string // debug, info, warn, error
}

func toZapLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a *zap.Logger writing to stdout and, if Options.File is set,
// to a lumberjack-rotated file, at the configured level.
func New(opt Options) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	level := toZapLevel(opt.Level)

	syncers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if opt.File != "" {
		syncers = append(syncers, zapcore.AddSync(&lumberjack.Logger{
			Filename:  opt.File,
			MaxSize:   100,
			MaxAge:    28,
			LocalTime: true,
			Compress:  true,
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(syncers...), level)
	return zap.New(core, zap.AddCaller())
}
