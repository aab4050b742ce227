package log

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/backupctl/backupctl/internal/cfg"
)

var (
	mu     sync.Mutex
	global = newConsoleLogger(zapcore.InfoLevel)
)

func newConsoleLogger(level zapcore.Level) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level)
	return zap.New(core, zap.AddCaller())
}

// InitLogger rebuilds the global logger from config. An unknown level
// falls back to info instead of failing, logging must never abort a run.
func InitLogger(c *cfg.LogConfig) {
	level, err := zapcore.ParseLevel(c.Level.Val)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var cores []zapcore.Core
	if c.Console.Val {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stderr), level))
	}
	if c.File.Filename.Val != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   c.File.Filename.Val,
			MaxSize:    c.File.MaxSize.Val,
			MaxAge:     c.File.MaxDays.Val,
			MaxBackups: c.File.MaxBackups.Val,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), sink, level))
	}

	mu.Lock()
	defer mu.Unlock()
	global = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
}

// L returns the global logger.
func L() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	return global
}

// With creates a child logger with the given fields attached.
func With(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}

func Debug(msg string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	L().WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

func Sync() {
	_ = L().Sync()
}
