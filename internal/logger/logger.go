// Package logger provides the structured logger used across sercha-desk.
//
// A *Logger is created once in the CLI root command and handed to every
// service that needs it. Console output goes to stderr (WARN and above, or
// DEBUG when verbose), and an optional rotating JSON file sink records
// everything at DEBUG.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Defaults for the rotating log file.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 28
)

// Options configures a Logger.
type Options struct {
	// Verbose lowers the console level from WARN to DEBUG.
	Verbose bool

	// Console receives human readable output. Defaults to os.Stderr.
	Console io.Writer

	// LogFile is the path of the rotating JSON log. Empty disables it.
	LogFile string

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Logger wraps a zap SugaredLogger with printf-style helpers.
// A nil *Logger is valid and discards everything.
type Logger struct {
	sugar   *zap.SugaredLogger
	verbose bool
	closer  io.Closer
}

// New builds a Logger from opts.
func New(opts Options) (*Logger, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	cores := []zapcore.Core{consoleCore(console, opts.Verbose)}

	var closer io.Closer
	if opts.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0700); err != nil {
			return nil, fmt.Errorf("create log directory: %w", err)
		}
		rotator := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    orDefault(opts.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: orDefault(opts.MaxBackups, DefaultMaxBackups),
			MaxAge:     orDefault(opts.MaxAgeDays, DefaultMaxAgeDays),
		}
		closer = rotator

		encCfg := zap.NewProductionEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(rotator),
			zapcore.DebugLevel,
		))
	}

	zl := zap.New(zapcore.NewTee(cores...), zap.AddStacktrace(zap.ErrorLevel), zap.AddCaller(), zap.AddCallerSkip(1))
	return &Logger{sugar: zl.Sugar(), verbose: opts.Verbose, closer: closer}, nil
}

// NewForWriter returns a console-only logger writing to w.
func NewForWriter(w io.Writer, verbose bool) *Logger {
	zl := zap.New(consoleCore(w, verbose), zap.AddStacktrace(zap.ErrorLevel))
	return &Logger{sugar: zl.Sugar(), verbose: verbose}
}

// Nop returns a logger that discards all output.
func Nop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar()}
}

func consoleCore(w io.Writer, verbose bool) zapcore.Core {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	encCfg := zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		StacktraceKey:    "stack",
		EncodeLevel:      bracketLevelEncoder,
		ConsoleSeparator: " ",
		LineEnding:       zapcore.DefaultLineEnding,
	}
	return zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), level)
}

// bracketLevelEncoder renders levels as [DEBUG], [INFO] and so on.
func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// IsVerbose reports whether debug output reaches the console.
func (l *Logger) IsVerbose() bool {
	return l != nil && l.verbose
}

// Debug logs a formatted message at DEBUG.
func (l *Logger) Debug(format string, args ...any) {
	if l == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

// Info logs a formatted message at INFO.
func (l *Logger) Info(format string, args ...any) {
	if l == nil {
		return
	}
	l.sugar.Infof(format, args...)
}

// Warn logs a formatted message at WARN.
func (l *Logger) Warn(format string, args ...any) {
	if l == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

// Error logs a formatted message at ERROR. A stack trace is attached.
func (l *Logger) Error(format string, args ...any) {
	if l == nil {
		return
	}
	l.sugar.Errorf(format, args...)
}

// Section marks the start of a pipeline phase in debug output.
func (l *Logger) Section(name string) {
	if l == nil {
		return
	}
	l.sugar.Debugf("=== %s ===", name)
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keysAndValues ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{sugar: l.sugar.With(keysAndValues...), verbose: l.verbose, closer: l.closer}
}

// Close flushes buffered entries and closes the file sink.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	_ = l.sugar.Sync() //nolint:errcheck // stderr sync fails on some platforms
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
