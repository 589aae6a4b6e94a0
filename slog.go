package gomessagebus

import "log/slog"

// wrappedSlog adapts a *slog.Logger to Logger. slog already takes
// alternating key/value args so only the field helpers need wrapping.
type wrappedSlog struct {
	*slog.Logger
}

func (w *wrappedSlog) WithError(err error) Logger {
	return w.WithField("error", err)
}

func (w *wrappedSlog) WithField(key string, value any) Logger {
	return &wrappedSlog{w.With(slog.Any(key, value))}
}

// WithSlogLogger configures the client to log through the given slog.Logger
func WithSlogLogger(logger *slog.Logger) Option {
	return func(options *Options) {
		if logger != nil {
			options.Logger = &wrappedSlog{logger}
		}
	}
}
