// Package logging builds the balebot process loggers: a zap logger for
// the CLI and a slog logger for the balego library, both sharing one
// rotating log file.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Level      string
	File       string // Rotating JSON log file; empty disables it
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int

	// Console receives human-facing output. Defaults to os.Stderr.
	Console io.Writer
}

// Loggers is the pair returned by New.
type Loggers struct {
	Zap   *zap.Logger
	Slog  *slog.Logger
	Level zap.AtomicLevel

	file *lumberjack.Logger
}

// New builds the loggers. The console gets colored text when it is a
// terminal and JSON otherwise; the log file always gets JSON.
func New(opts Options) *Loggers {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	level := ParseLevel(opts.Level)
	consoleSink := zapcore.Lock(zapcore.AddSync(console))
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder(console), consoleSink, level),
	}

	l := &Loggers{Level: level}
	libOut := console
	if opts.File != "" {
		l.file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(l.file),
			level,
		))
		libOut = l.file
	}

	l.Zap = zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.ErrorOutput(consoleSink))
	l.Slog = slog.New(slog.NewJSONHandler(libOut, &slog.HandlerOptions{
		Level: slogLevel{level},
	})).With("component", "balego")
	return l
}

// Close flushes the zap logger and closes the log file.
func (l *Loggers) Close() error {
	_ = l.Zap.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// Rotate starts a new log file. It is a no-op without a file.
func (l *Loggers) Rotate() error {
	if l.file == nil {
		return nil
	}
	return l.file.Rotate()
}

// ParseLevel maps debug, info, warn and error to a zap level. Anything
// else is info.
func ParseLevel(s string) zap.AtomicLevel {
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil {
		return zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return lvl
}

func consoleEncoder(w io.Writer) zapcore.Encoder {
	if !isTerminal(w) {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	})
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// slogLevel lets the library logger follow the zap atomic level.
type slogLevel struct {
	zl zap.AtomicLevel
}

func (s slogLevel) Level() slog.Level {
	switch s.zl.Level() {
	case zapcore.DebugLevel:
		return slog.LevelDebug
	case zapcore.InfoLevel:
		return slog.LevelInfo
	case zapcore.WarnLevel:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
