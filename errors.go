package gomessagebus

import (
	"fmt"
)

const (
	// ErrAlreadyStarted is returned when Start is called more than once
	ErrAlreadyStarted = sentinel("client has already been started")

	// ErrNilCallback is returned when subscribing without a callback
	ErrNilCallback = sentinel("a callback is required to subscribe")

	// ErrEmptyData is returned when decoding a message without any data
	ErrEmptyData = sentinel("message carries no data")

	// ErrNoServerAddress is returned when the client is created without an
	// address for the message bus server
	ErrNoServerAddress = sentinel("no server address provided")
)

type sentinel string

func (s sentinel) Error() string {
	return string(s)
}

// PollFailedError is returned whenever a poll request fails. The poll loop
// never surfaces it to callers; it is logged and recovered by backing off.
type PollFailedError struct {
	ClientID string
	Err      error
}

func (e PollFailedError) Error() string {
	return fmt.Sprintf("poll failed for client %s (%s)", e.ClientID, e.Err)
}

func (e PollFailedError) Unwrap() error {
	return e.Err
}

// BadResponseError is returned when we get an unexpected HTTP response from the server
type BadResponseError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e BadResponseError) Error() string {
	return fmt.Sprintf(
		"expected 200 response from message bus server, got %d with status '%s' and body '%s'",
		e.StatusCode,
		e.Status,
		e.Body,
	)
}

// MessageUnparsableError is returned when a message's data can't be decoded
type MessageUnparsableError struct {
	Channel
	Err error
}

func (e MessageUnparsableError) Error() string {
	return fmt.Sprintf("data on channel %q not parseable (%s)", e.Channel, e.Err)
}

func (e MessageUnparsableError) Unwrap() error {
	return e.Err
}

// NotStatusMessageError is returned when status cursors are requested from a
// message that was not published on the StatusChannel
type NotStatusMessageError struct {
	Channel
}

func (e NotStatusMessageError) Error() string {
	return fmt.Sprintf("message on channel %q is not a status message", e.Channel)
}

// InvalidChannelError is the result of a failure to validate a channel name
type InvalidChannelError struct {
	Channel
}

func (e InvalidChannelError) Error() string {
	return fmt.Sprintf("channel %q appears to not be a valid channel", e.Channel)
}

// CallbackPanicError records a panic raised by a subscriber's callback. The
// panic is recovered so other subscribers still receive the message.
type CallbackPanicError struct {
	Channel
	MessageID int64
	Value     interface{}
}

func (e CallbackPanicError) Error() string {
	return fmt.Sprintf("callback for channel %q panicked on message %d: %v", e.Channel, e.MessageID, e.Value)
}

// AlreadyRegisteredError signifies that the given MessageExtender is already
// registered with the client
type AlreadyRegisteredError struct {
	MessageExtender
}

func (e AlreadyRegisteredError) Error() string {
	return fmt.Sprintf("extension already registered: %v", e.MessageExtender)
}

// BadStateError is returned when the state machine transition is not valid
type BadStateError struct {
	CurrentState int32
	Event
}

func (e BadStateError) Error() string {
	return fmt.Sprintf("event %q is not valid in state %s", e.Event, stateName(e.CurrentState))
}

// UnknownEventTypeError is returned when the next state is unknown
type UnknownEventTypeError struct {
	Event
}

func (e UnknownEventTypeError) Error() string {
	return fmt.Sprintf("unknown event type (%q)", e.Event)
}
