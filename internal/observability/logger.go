// File: internal/observability/logger.go

// Package observability owns the process-wide zap logger. The pipeline runs
// both interactively (console format) and under CI (JSON format plus a
// rotated log file), so the logger is built from config rather than
// hardcoded presets.
package observability

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/davidjmoloney/cicd-ai-assistant/internal/config"
)

var (
	globalLogger atomic.Pointer[zap.Logger]
	// once guards Initialize so repeated calls (root command re-entry in
	// tests, fallback-then-real init) keep the first logger.
	once sync.Once
)

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

const ansiReset = "\x1b[0m"

// ansiCodes maps the color names accepted in logger.colors.* to their
// terminal escape codes.
var ansiCodes = map[string]string{
	"black":   "\x1b[30m",
	"red":     "\x1b[31m",
	"green":   "\x1b[32m",
	"yellow":  "\x1b[33m",
	"blue":    "\x1b[34m",
	"magenta": "\x1b[35m",
	"cyan":    "\x1b[36m",
	"white":   "\x1b[37m",
}

// Initialize builds the global logger from cfg, sending console output to
// consoleWriter. When cfg.LogFile is set a second JSON core writes through
// lumberjack for rotation. The first call wins; later calls are no-ops.
func Initialize(cfg config.LoggerConfig, consoleWriter zapcore.WriteSyncer) {
	once.Do(func() {
		logger := zap.New(buildCore(cfg, consoleWriter), buildOptions(cfg)...).Named(cfg.ServiceName)

		globalLogger.Store(logger)
		zap.ReplaceGlobals(logger)
		zap.RedirectStdLog(logger)
	})
}

// InitializeLogger is the production entry point: console output goes to a
// locked stdout.
func InitializeLogger(cfg config.LoggerConfig) {
	Initialize(cfg, zapcore.Lock(os.Stdout))
}

func buildCore(cfg config.LoggerConfig, consoleWriter zapcore.WriteSyncer) zapcore.Core {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zap.InfoLevel)
	}

	cores := []zapcore.Core{
		zapcore.NewCore(newEncoder(cfg), consoleWriter, level),
	}

	if cfg.LogFile != "" {
		// The file core is always JSON so CI log collectors can parse it,
		// regardless of the console format.
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		})
		cores = append(cores, zapcore.NewCore(newEncoder(config.LoggerConfig{Format: "json"}), fileWriter, level))
	}

	return zapcore.NewTee(cores...)
}

func buildOptions(cfg config.LoggerConfig) []zap.Option {
	options := []zap.Option{zap.AddStacktrace(zap.ErrorLevel)}
	if cfg.AddSource {
		options = append(options, zap.AddCaller())
	}
	return options
}

// newEncoder returns a console encoder for terminals and a JSON encoder for
// everything else.
func newEncoder(cfg config.LoggerConfig) zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)

	if cfg.Format != "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		return zapcore.NewJSONEncoder(encoderConfig)
	}

	encoderConfig.EncodeLevel = levelEncoder(cfg.Colors)
	// Suffix component names with a dot so "cicd-assistant.runner" reads as
	// a path in the log line.
	encoderConfig.EncodeName = func(name string, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(name + ".")
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

// levelEncoder colorizes the level token using the configured color names.
// Unknown or empty color names leave the token uncolored.
func levelEncoder(colors config.ColorConfig) zapcore.LevelEncoder {
	byLevel := map[zapcore.Level]string{
		zapcore.DebugLevel:  colors.Debug,
		zapcore.InfoLevel:   colors.Info,
		zapcore.WarnLevel:   colors.Warn,
		zapcore.ErrorLevel:  colors.Error,
		zapcore.DPanicLevel: colors.DPanic,
		zapcore.PanicLevel:  colors.Panic,
		zapcore.FatalLevel:  colors.Fatal,
	}

	return func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		token := strings.ToUpper(level.String())
		if code, ok := ansiCodes[byLevel[level]]; ok {
			enc.AppendString(code + token + ansiReset)
			return
		}
		enc.AppendString(token)
	}
}

// GetLogger returns the global logger. Before Initialize it hands out a
// development fallback so early code paths still log somewhere.
func GetLogger() *zap.Logger {
	if logger := globalLogger.Load(); logger != nil {
		return logger
	}
	fallback, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	fallback.Warn("Global logger requested before initialization; using fallback.")
	return fallback.Named("fallback")
}

// Sync flushes buffered log entries. Call it before the process exits.
func Sync() {
	logger := globalLogger.Load()
	if logger == nil {
		return
	}
	if err := logger.Sync(); err != nil && !ignorableSyncError(err) {
		fmt.Fprintln(os.Stderr, "Error: failed to sync logger:", err)
	}
}

// ignorableSyncError filters the sync failures stdout and stderr produce on
// some platforms during shutdown.
func ignorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stdout") ||
		strings.Contains(msg, "invalid argument") ||
		strings.Contains(msg, "operation not supported")
}

// ResetForTest clears the global logger and re-arms the init guard. Tests
// only.
func ResetForTest() {
	globalLogger.Store(nil)
	once = sync.Once{}
}
