package gomessagebus

import (
	"io"
	"net/http"
	"time"
)

// Options configures a Client. Use the With* functions rather than building
// it directly.
type Options struct {
	Client    *http.Client
	Transport http.RoundTripper
	Logger    Logger

	// EnableLongPolling lets the server hold poll requests open. When false
	// every request asks the server to respond immediately.
	EnableLongPolling bool
	// CallbackInterval is the base delay after a poll without messages.
	// Collaborators also use it as a hint for their own cadence.
	CallbackInterval time.Duration
	// MaxPollInterval caps the delay between polls
	MaxPollInterval time.Duration

	Visibility VisibilityOracle
	RandSource io.Reader
	Extensions []NamedExtension
}

// NamedExtension pairs a MessageExtender with the name it registers under
type NamedExtension struct {
	Name string
	MessageExtender
}

// Option mutates Options
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Logger:            newNullLogger(),
		EnableLongPolling: true,
		CallbackInterval:  DefaultCallbackInterval,
		MaxPollInterval:   DefaultMaxPollInterval,
		Visibility:        alwaysVisible,
	}
}

// WithHTTPClient uses client for every poll request
func WithHTTPClient(client *http.Client) Option {
	return func(options *Options) {
		options.Client = client
	}
}

// WithHTTPTransport uses transport for every poll request
func WithHTTPTransport(transport http.RoundTripper) Option {
	return func(options *Options) {
		options.Transport = transport
	}
}

// WithLongPolling enables or disables long polling
func WithLongPolling(enabled bool) Option {
	return func(options *Options) {
		options.EnableLongPolling = enabled
	}
}

// WithCallbackInterval sets the base delay after a poll without messages
func WithCallbackInterval(interval time.Duration) Option {
	return func(options *Options) {
		if interval > 0 {
			options.CallbackInterval = interval
		}
	}
}

// WithMaxPollInterval caps the delay between polls
func WithMaxPollInterval(interval time.Duration) Option {
	return func(options *Options) {
		if interval > 0 {
			options.MaxPollInterval = interval
		}
	}
}

// WithVisibility tells the client how to find out whether its host is hidden
func WithVisibility(visibility VisibilityOracle) Option {
	return func(options *Options) {
		if visibility != nil {
			options.Visibility = visibility
		}
	}
}

// WithRandSource sets the source of randomness for the client id
func WithRandSource(r io.Reader) Option {
	return func(options *Options) {
		options.RandSource = r
	}
}

// WithExtension registers ext under name when the client is created
func WithExtension(name string, ext MessageExtender) Option {
	return func(options *Options) {
		options.Extensions = append(options.Extensions, NamedExtension{name, ext})
	}
}
