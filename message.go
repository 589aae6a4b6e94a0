package gomessagebus

import (
	"encoding/json"
)

// noMessagesYet is the cursor sent for a channel that has not received any
// message.
const noMessagesYet int64 = -1

// Message represents a single message returned by a poll request
type Message struct {
	// Channel is the Channel on which the message was published
	Channel Channel `json:"channel"`
	// ID is the identifier of the message. Identifiers increase
	// monotonically per channel on the server and are used as the cursor
	// for the next poll.
	ID int64 `json:"message_id"`
	// Data is the payload of the message. For messages on the StatusChannel
	// it is an object mapping channel names to their last message id.
	Data json.RawMessage `json:"data,omitempty"`
}

// Decode unmarshals the Data of the message into v
func (m *Message) Decode(v interface{}) error {
	if len(m.Data) == 0 {
		return ErrEmptyData
	}
	if err := json.Unmarshal(m.Data, v); err != nil {
		return MessageUnparsableError{m.Channel, err}
	}
	return nil
}

// StatusCursors returns the cursors reported by a StatusChannel message
func (m *Message) StatusCursors() (map[Channel]int64, error) {
	if !m.Channel.IsStatus() {
		return nil, NotStatusMessageError{m.Channel}
	}
	cursors := make(map[Channel]int64)
	if err := m.Decode(&cursors); err != nil {
		return nil, err
	}
	return cursors, nil
}
