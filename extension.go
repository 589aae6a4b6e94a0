package gomessagebus

import "net/url"

// MessageExtender defines the interface that extensions are expected to
// implement. Outgoing sees the form payload of every poll request before it
// is sent and Incoming sees every message before it is dispatched.
type MessageExtender interface {
	Outgoing(payload url.Values)
	Incoming(*Message)
	Registered(extensionName string, client *MessageBusClient)
	Unregistered()
}
