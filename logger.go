package gomessagebus

import (
	"fmt"
	"log/slog"

	"github.com/sirupsen/logrus"
)

// Logger defines the logging interface the client logs through
type Logger interface {
	// Debug takes a message and any number of arguments and logs them at the
	// debug level
	Debug(msg string, args ...any)

	// Info takes a message and any number of arguments and logs them at the
	// info level
	Info(msg string, args ...any)

	// Warn takes a message and any number of arguments and logs them at the
	// warn level
	Warn(msg string, args ...any)

	// Error takes a message and any number of arguments and logs them at the
	// error level
	Error(msg string, args ...any)

	// WithError returns a new Logger that adds the given error to any log
	// messages emitted
	WithError(error) Logger

	// WithField returns a new Logger that adds the given key/value to any
	// log messages emitted
	WithField(key string, value any) Logger
}

type nullLogger struct {
}

func (*nullLogger) Debug(msg string, args ...any) {
}

func (*nullLogger) Info(msg string, args ...any) {
}

func (*nullLogger) Warn(msg string, args ...any) {
}

func (*nullLogger) Error(msg string, args ...any) {
}

func (l *nullLogger) WithError(err error) Logger {
	return l
}

func (l *nullLogger) WithField(key string, value any) Logger {
	return l
}

func newNullLogger() *nullLogger {
	return &nullLogger{}
}

// badKey is the field name used for a trailing value with no key
const badKey = "!BADKEY"

// wrappedFieldLogger adapts a logrus.FieldLogger to Logger. The key/value
// args every method takes become logrus fields.
type wrappedFieldLogger struct {
	logrus.FieldLogger
}

func (w *wrappedFieldLogger) Debug(msg string, args ...any) {
	w.log(logrus.DebugLevel, msg, args)
}

func (w *wrappedFieldLogger) Info(msg string, args ...any) {
	w.log(logrus.InfoLevel, msg, args)
}

func (w *wrappedFieldLogger) Warn(msg string, args ...any) {
	w.log(logrus.WarnLevel, msg, args)
}

func (w *wrappedFieldLogger) Error(msg string, args ...any) {
	w.log(logrus.ErrorLevel, msg, args)
}

func (w *wrappedFieldLogger) log(level logrus.Level, msg string, args []any) {
	w.FieldLogger.WithFields(argsToFields(args)).Log(level, msg)
}

// argsToFields pairs alternating keys and values the way slog and zap's
// sugared logger do. slog.Attr values are accepted in place of a pair.
func argsToFields(args []any) logrus.Fields {
	fields := make(logrus.Fields, len(args)/2)
	for len(args) > 0 {
		switch key := args[0].(type) {
		case slog.Attr:
			fields[key.Key] = key.Value.Any()
			args = args[1:]
		case string:
			if len(args) == 1 {
				fields[badKey] = key
				return fields
			}
			fields[key] = args[1]
			args = args[2:]
		default:
			if len(args) == 1 {
				fields[badKey] = key
				return fields
			}
			fields[fmt.Sprint(key)] = args[1]
			args = args[2:]
		}
	}
	return fields
}

func (w *wrappedFieldLogger) WithError(err error) Logger {
	return &wrappedFieldLogger{w.FieldLogger.WithError(err)}
}

func (w *wrappedFieldLogger) WithField(key string, value any) Logger {
	return &wrappedFieldLogger{w.FieldLogger.WithField(key, value)}
}

// WithLogger configures the client to log through the given logrus logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(options *Options) {
		if logger != nil {
			options.Logger = &wrappedFieldLogger{logger}
		}
	}
}
