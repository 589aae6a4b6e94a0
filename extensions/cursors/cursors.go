// Package cursors persists the last message id seen on every channel so a
// restarted client resumes where it left off instead of only receiving new
// messages.
package cursors

import (
	"context"
	"io"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	mb "github.com/sigmavirus24/gomessagebus"
)

const (
	// ExtensionName is the name the extension registers under by default
	ExtensionName string = "cursors"

	defaultTimeout = 2 * time.Second
	noMessagesYet  = "-1"
)

// Storage stores the last message id per channel
type Storage interface {
	Set(ctx context.Context, channel string, lastID int64) error
	Get(ctx context.Context, channel string) (int64, bool, error)
	Delete(ctx context.Context, channel string) error
	AsMap(ctx context.Context) (map[string]int64, error)
}

// Extension fills in stored cursors for channels the client has not heard
// from yet and records the id of every message it sees.
type Extension struct {
	storage Storage
	logger  logrus.FieldLogger
	timeout time.Duration

	lock       sync.Mutex
	registered bool
}

// Option configures an Extension
type Option func(*Extension)

// WithLogger logs storage failures to logger
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Extension) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithTimeout bounds every storage operation
func WithTimeout(timeout time.Duration) Option {
	return func(e *Extension) {
		if timeout > 0 {
			e.timeout = timeout
		}
	}
}

// New creates a new extension instance backed by storage
func New(storage Storage, opts ...Option) *Extension {
	nullLogger := logrus.New()
	nullLogger.Out = io.Discard
	e := &Extension{
		storage: storage,
		logger:  nullLogger,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Outgoing replaces the cursor of every channel that has not received a
// message with the stored one
func (e *Extension) Outgoing(payload url.Values) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	for channel := range payload {
		if payload.Get(channel) != noMessagesYet {
			continue
		}
		lastID, ok, err := e.storage.Get(ctx, channel)
		if err != nil {
			e.logger.WithError(err).WithField("channel", channel).Warn("could not load cursor")
			continue
		}
		if ok {
			payload.Set(channel, strconv.FormatInt(lastID, 10))
		}
	}
}

// Incoming records the id of ms. Status messages record every cursor they
// carry.
func (e *Extension) Incoming(ms *mb.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()

	if !ms.Channel.IsStatus() {
		if ms.ID < 0 {
			return
		}
		e.set(ctx, string(ms.Channel), ms.ID)
		return
	}

	status, err := ms.StatusCursors()
	if err != nil {
		e.logger.WithError(err).Debug("ignoring malformed status message")
		return
	}
	for channel, lastID := range status {
		e.set(ctx, string(channel), lastID)
	}
}

// Registered is called after an extension has been successfully registered
func (e *Extension) Registered(extensionName string, client *mb.MessageBusClient) {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.registered = true
	logger := e.logger.WithField("extension", extensionName)
	if client != nil {
		logger = logger.WithField("client_id", client.ClientID())
	}
	logger.Debug("registered")
}

// Unregistered is called when an extension is unregistered
func (e *Extension) Unregistered() {
	e.lock.Lock()
	defer e.lock.Unlock()
	e.registered = false
}

// IsRegistered reports whether the extension is registered with a client
func (e *Extension) IsRegistered() bool {
	e.lock.Lock()
	defer e.lock.Unlock()
	return e.registered
}

// Forget drops the stored cursor for channel so the next subscription only
// receives new messages
func (e *Extension) Forget(ctx context.Context, channel mb.Channel) error {
	return e.storage.Delete(ctx, string(channel))
}

func (e *Extension) set(ctx context.Context, channel string, lastID int64) {
	if err := e.storage.Set(ctx, channel, lastID); err != nil {
		e.logger.WithError(err).WithField("channel", channel).Warn("could not store cursor")
	}
}
