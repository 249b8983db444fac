// Package logging hands out per-component logrus entries configured from
// codesync settings and the environment.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/manpreetbhatti/codesync/internal/config"
)

var (
	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex

	base = newBase(os.Stderr)
)

// Option adjusts the shared logger after configuration
type Option func(*logrus.Logger)

// WithOutput sets the logger output
func WithOutput(w io.Writer) Option {
	return func(l *logrus.Logger) {
		l.SetOutput(w)
	}
}

// WithLevel sets the log level
func WithLevel(level logrus.Level) Option {
	return func(l *logrus.Logger) {
		l.SetLevel(level)
	}
}

// WithJSON switches to the JSON formatter
func WithJSON() Option {
	return func(l *logrus.Logger) {
		l.SetFormatter(&logrus.JSONFormatter{})
	}
}

func newBase(out io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(textFormatter(out))
	return l
}

func textFormatter(out io.Writer) logrus.Formatter {
	colors := false
	if f, ok := out.(*os.File); ok {
		colors = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		ForceColors:     colors,
		DisableColors:   !colors,
		TimestampFormat: "2006-01-02 15:04:05",
	}
}

// Configure applies cfg to the shared logger. CODESYNC_LOG_LEVEL wins over
// the configured level; options are applied last.
func Configure(cfg config.LoggingConfig, opts ...Option) {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	levelStr := "info"
	if env := os.Getenv("CODESYNC_LOG_LEVEL"); env != "" {
		levelStr = env
	} else if cfg.Level != "" {
		levelStr = cfg.Level
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	switch cfg.Format {
	case "json":
		base.SetFormatter(&logrus.JSONFormatter{})
	default:
		base.SetFormatter(textFormatter(base.Out))
	}

	for _, opt := range opts {
		opt(base)
	}
}

// NewLogger returns the entry for component, creating it on first use.
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := base.WithField("component", component)
	loggers[component] = logger
	return logger
}

// Base exposes the shared logger, mainly for tests that capture output.
func Base() *logrus.Logger {
	return base
}
