package logging

import (
	"context"
	"io"
	"maps"
	"os"

	"github.com/sirupsen/logrus"
)

// DefaultLogger is the logrus-backed Logger implementation.
// Colors are handled by logrus' TextFormatter when attached to a TTY.
type DefaultLogger struct {
	entry *logrus.Entry
}

// NewDefaultLogger creates a logger writing text records to stderr at info level
func NewDefaultLogger() *DefaultLogger {
	return NewLogrusLogger(newLogrus(os.Stderr, false))
}

// NewDefaultLoggerNoColor creates a default logger without colored output
func NewDefaultLoggerNoColor() *DefaultLogger {
	return NewLogrusLogger(newLogrus(os.Stderr, true))
}

// NewJSONLogger creates a logger emitting one JSON object per record to w
func NewJSONLogger(w io.Writer) *DefaultLogger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(logrus.InfoLevel)
	return NewLogrusLogger(l)
}

// NewLogrusLogger wraps an existing logrus logger, so applications that already
// configure logrus can hand it to this library.
func NewLogrusLogger(l *logrus.Logger) *DefaultLogger {
	if l == nil {
		l = newLogrus(os.Stderr, false)
	}
	return &DefaultLogger{entry: logrus.NewEntry(l)}
}

func newLogrus(w io.Writer, disableColors bool) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		DisableColors: disableColors,
	})
	l.SetLevel(logrus.InfoLevel)
	return l
}

func toLogrusLevel(level Level) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case FatalLevel:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

func (d *DefaultLogger) with(err error, fields []Fields) *logrus.Entry {
	entry := d.entry
	if len(fields) > 0 {
		merged := make(logrus.Fields)
		for _, f := range fields {
			maps.Copy(merged, f)
		}
		entry = entry.WithFields(merged)
	}
	if err != nil {
		entry = entry.WithError(err)
	}
	return entry
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.with(nil, fields).Debug(msg)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.with(nil, fields).Info(msg)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.with(nil, fields).Warn(msg)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.with(err, fields).Error(msg)
}

// Fatal logs and exits the process through logrus' exit handler
func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.with(err, fields).Fatal(msg)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	return &DefaultLogger{entry: d.entry.WithFields(logrus.Fields(fields))}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

// SetLevel changes the level of the underlying logrus logger, which is shared
// by every logger derived through WithFields.
func (d *DefaultLogger) SetLevel(level Level) {
	d.entry.Logger.SetLevel(toLogrusLevel(level))
}

// NoOpLogger discards everything. Tests install it with SetGlobalLogger(nil).
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
