package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger provides leveled, printf-style logging throughout the application.
type Logger struct {
	entry *logrus.Logger
}

// NewLogger creates a new Logger writing to stdout at info level.
func NewLogger() *Logger {
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(logrus.InfoLevel)
	return &Logger{entry: l}
}

// NewDiscardLogger returns a Logger that drops everything. Used by tests.
func NewDiscardLogger() *Logger {
	l := NewLogger()
	l.entry.SetOutput(io.Discard)
	return l
}

// SetLevel parses a logrus level name; unknown names leave the level unchanged.
func (l *Logger) SetLevel(level string) {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		l.Warn("[logger] Unknown log level %q, keeping %s", level, l.entry.GetLevel())
		return
	}
	l.entry.SetLevel(lvl)
}

func (l *Logger) SetOutput(w io.Writer) {
	l.entry.SetOutput(w)
}

func (l *Logger) Info(format string, args ...any) {
	l.entry.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.entry.Debugf(format, args...)
}
