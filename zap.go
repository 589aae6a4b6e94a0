package gomessagebus

import "go.uber.org/zap"

type wrappedZap struct {
	sugar *zap.SugaredLogger
}

func (w *wrappedZap) Debug(msg string, args ...any) {
	w.sugar.Debugw(msg, args...)
}

func (w *wrappedZap) Info(msg string, args ...any) {
	w.sugar.Infow(msg, args...)
}

func (w *wrappedZap) Warn(msg string, args ...any) {
	w.sugar.Warnw(msg, args...)
}

func (w *wrappedZap) Error(msg string, args ...any) {
	w.sugar.Errorw(msg, args...)
}

func (w *wrappedZap) WithError(err error) Logger {
	return &wrappedZap{w.sugar.With(zap.Error(err))}
}

func (w *wrappedZap) WithField(key string, value any) Logger {
	return &wrappedZap{w.sugar.With(key, value)}
}

// WithZapLogger configures the client to log through the given zap.Logger
func WithZapLogger(logger *zap.Logger) Option {
	return func(options *Options) {
		if logger != nil {
			options.Logger = &wrappedZap{logger.Sugar()}
		}
	}
}
