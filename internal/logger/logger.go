package logger

import (
	"io"
	"os"
	"strings"

	"admarket/internal/config"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus so the rest of the code base depends on one logging type.
type Logger struct {
	*logrus.Logger
}

// New builds a logger from config. Unknown levels fall back to info, unknown formats to json.
func New(cfg *config.LoggerConfig) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level)))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Format, "text") {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
	}

	l.SetOutput(os.Stdout)
	if cfg.File != "" {
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			l.WithError(err).Warn("failed to open log file, using stdout")
		} else {
			l.SetOutput(io.MultiWriter(os.Stdout, file))
		}
	}

	return &Logger{Logger: l}
}

// Discard returns a logger that drops everything. Used by tests and optional collaborators.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return &Logger{Logger: l}
}
