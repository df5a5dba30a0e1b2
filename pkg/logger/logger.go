// Package logger provides structured, leveled logging on top of logrus
// with correlation ID propagation for HTTP and gRPC request paths.
package logger

import (
	"context"
	"io"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

// LogField is a single structured key/value pair attached to a log entry.
// Values are pre-rendered to strings so entries stay cheap to copy.
type LogField struct {
	Key   string
	Value string
}

// Logger is the logging interface passed around the application.
type Logger interface {
	Info(msg string, fields ...LogField)
	Error(msg string, fields ...LogField)
	Debug(msg string, fields ...LogField)
	Warn(msg string, fields ...LogField)
	WithFields(fields ...LogField) Logger
	WithCorrelationID(id string) Logger
	GrpcRequestsInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error)
	HTTPMiddleware(next http.Handler) http.Handler
}

// Config controls how a new Logger behaves.
type Config struct {
	Level   Level
	Format  string    // "json" (default) or "text"
	Service string    // added as a "service" field on every entry when set
	Output  io.Writer // defaults to os.Stdout when nil
}

// logrusLogger adapts a logrus entry to the Logger interface. Entries are
// immutable, so WithFields derivations never affect the parent.
type logrusLogger struct {
	entry *logrus.Entry
}

// NewLogger builds a Logger from the given configuration.
func NewLogger(config Config) Logger {
	base := logrus.New()

	if config.Format == "text" {
		base.SetFormatter(&logrus.TextFormatter{})
	} else {
		base.SetFormatter(&logrus.JSONFormatter{})
	}

	if config.Output != nil {
		base.SetOutput(config.Output)
	} else {
		base.SetOutput(os.Stdout)
	}

	base.SetLevel(toLogrusLevel(config.Level))

	entry := logrus.NewEntry(base)
	if config.Service != "" {
		entry = entry.WithField("service", config.Service)
	}

	return &logrusLogger{entry: entry}
}

// toLogrusLevel maps our Level enum onto logrus levels.
func toLogrusLevel(level Level) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// WithFields returns a derived Logger carrying the extra fields.
func (l *logrusLogger) WithFields(fields ...LogField) Logger {
	return &logrusLogger{entry: l.entry.WithFields(toLogrusFields(fields))}
}

// WithCorrelationID returns a derived Logger tagged with the correlation ID.
func (l *logrusLogger) WithCorrelationID(id string) Logger {
	return l.WithFields(CorrelationIDField(id))
}

func (l *logrusLogger) Info(msg string, fields ...LogField) {
	l.log(logrus.InfoLevel, msg, fields)
}

func (l *logrusLogger) Error(msg string, fields ...LogField) {
	l.log(logrus.ErrorLevel, msg, fields)
}

func (l *logrusLogger) Debug(msg string, fields ...LogField) {
	l.log(logrus.DebugLevel, msg, fields)
}

func (l *logrusLogger) Warn(msg string, fields ...LogField) {
	l.log(logrus.WarnLevel, msg, fields)
}

func (l *logrusLogger) log(level logrus.Level, msg string, fields []LogField) {
	entry := l.entry
	if len(fields) > 0 {
		entry = entry.WithFields(toLogrusFields(fields))
	}
	entry.Log(level, msg)
}

func toLogrusFields(fields []LogField) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}
