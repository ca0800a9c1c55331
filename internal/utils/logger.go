package utils

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger is the application logger, JSON lines through logrus
type Logger struct {
	entry *logrus.Entry
}

// NewLogger creates a new logger at the given level ("debug", "info", "error", ...)
func NewLogger(level string) *Logger {
	return NewLoggerTo(os.Stdout, level)
}

// NewLoggerTo creates a logger writing to w
func NewLoggerTo(w io.Writer, level string) *Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetOutput(w)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return &Logger{entry: logrus.NewEntry(l)}
}

// Discard returns a logger that writes nothing, for tests
func Discard() *Logger {
	return NewLoggerTo(io.Discard, "panic")
}

// With returns a child logger carrying extra fields
func (l *Logger) With(fields map[string]any) *Logger {
	return &Logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

// Info logs an informational message
func (l *Logger) Info(format string, v ...interface{}) {
	l.entry.Infof(format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.entry.Errorf(format, v...)
}

// LogError logs err with the module, function and context that produced it
func (l *Logger) LogError(module, funcName, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   module,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	l.entry.WithFields(fields).Error(err.Error())
}
