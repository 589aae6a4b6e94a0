package gomessagebus

import "strings"

// Channel represents a message bus channel name such as `/chat` or
// `/worker/status`. A Channel ending in `*` is a prefix pattern which is only
// meaningful when unsubscribing.
type Channel string

const (
	// StatusChannel is reserved by the server to report the last message id
	// of each polled channel without delivering any payload.
	StatusChannel Channel = "/__status"
	emptyChannel  Channel = ""

	wildcard = "*"
)

// HasWildcard indicates whether the Channel ends with *
func (c Channel) HasWildcard() bool {
	return strings.HasSuffix(string(c), wildcard)
}

// Prefix returns the Channel with its trailing wildcard stripped. Channels
// without a wildcard are returned unchanged.
func (c Channel) Prefix() string {
	return strings.TrimSuffix(string(c), wildcard)
}

// IsStatus reports whether this is the reserved status channel
func (c Channel) IsStatus() bool {
	return c == StatusChannel
}

// IsValid does its best to check the validity of a Channel. Empty names and
// a wildcard anywhere but the end are rejected.
func (c Channel) IsValid() bool {
	if c == emptyChannel {
		return false
	}
	return !strings.Contains(c.Prefix(), wildcard)
}

// Match checks if a given Channel matches this Channel.
//
// A wildcard Channel matches every channel starting with its prefix, any
// other Channel only matches itself.
func (c Channel) Match(other Channel) bool {
	return c.MatchString(string(other))
}

// MatchString checks if a given string matches this Channel.
func (c Channel) MatchString(other string) bool {
	if c.HasWildcard() {
		return strings.HasPrefix(other, c.Prefix())
	}
	return string(c) == other
}
