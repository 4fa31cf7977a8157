// Package logging provides structured logging for HomeVault Core.
//
// All output is JSON, one entry per line, so the hosting application
// (desktop shell or mobile bridge) can ship logs without re-parsing.
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	global *logrus.Logger
	once   sync.Once
)

// Init initializes the global logger. Subsequent calls are no-ops.
func Init(out io.Writer, level string) {
	once.Do(func() {
		global = newLogger(out, level)
	})
}

// Get returns the global logger instance.
func Get() *logrus.Logger {
	if global == nil {
		Init(os.Stdout, "info")
	}
	return global
}

func newLogger(out io.Writer, level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.JSONFormatter{})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// Fields is re-exported so callers don't need to import logrus directly.
type Fields = logrus.Fields

// Debug logs a debug message with optional structured fields.
func Debug(message string, fields ...Fields) {
	entry(fields...).Debug(message)
}

// Info logs an info message with optional structured fields.
func Info(message string, fields ...Fields) {
	entry(fields...).Info(message)
}

// Warn logs a warning message with optional structured fields.
func Warn(message string, fields ...Fields) {
	entry(fields...).Warn(message)
}

// Error logs an error message with optional structured fields.
func Error(message string, err error, fields ...Fields) {
	e := entry(fields...)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(message)
}

// entry merges the given field maps into one logrus entry.
func entry(fields ...Fields) *logrus.Entry {
	e := logrus.NewEntry(Get())
	for _, f := range fields {
		e = e.WithFields(f)
	}
	return e
}
