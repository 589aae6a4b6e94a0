package gomessagebus

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

const (
	// SilenceLoggerHeader asks the server not to log poll requests
	SilenceLoggerHeader = "X-SILENCE-LOGGER"
	// DegradedPollParam asks the server to answer immediately instead of
	// holding the request open
	DegradedPollParam = "dlp"

	pollPathPrefix = "message-bus"
	pollPathSuffix = "poll"

	maxErrorBodyBytes = 4096
)

// MessageBusClient speaks the message bus polling protocol: one call to Poll
// is one HTTP request.
type MessageBusClient struct {
	client        *http.Client
	serverAddress *url.URL
	clientID      string
	logger        Logger

	extLock sync.RWMutex
	exts    []MessageExtender
}

// NewMessageBusClient initializes a MessageBusClient for the user
func NewMessageBusClient(client *http.Client, transport http.RoundTripper, serverAddress, clientID string, logger Logger) (*MessageBusClient, error) {
	if serverAddress == "" {
		return nil, ErrNoServerAddress
	}
	if client == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, err
		}
		client = &http.Client{Jar: jar}
	}
	if transport != nil {
		client.Transport = transport
	}

	parsedAddress, err := url.Parse(serverAddress)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = newNullLogger()
	}

	return &MessageBusClient{
		client:        client,
		serverAddress: parsedAddress,
		clientID:      clientID,
		logger:        logger,
	}, nil
}

// ClientID returns the identifier the client polls with
func (b *MessageBusClient) ClientID() string {
	return b.clientID
}

// PollURL returns the URL a poll request is sent to
func (b *MessageBusClient) PollURL(degraded bool) *url.URL {
	u := b.serverAddress.JoinPath(pollPathPrefix, b.clientID, pollPathSuffix)
	if degraded {
		q := u.Query()
		q.Set(DegradedPollParam, "t")
		u.RawQuery = q.Encode()
	}
	return u
}

// Poll asks the server for every message published after the given cursors.
// When degraded is true the server is asked to respond immediately rather
// than hold the request open.
func (b *MessageBusClient) Poll(ctx context.Context, cursors map[Channel]int64, degraded bool) ([]Message, error) {
	logger := b.logger.WithField("at", "poll")
	start := time.Now()
	logger.Debug("starting", "channels", len(cursors), "degraded", degraded)

	payload := make(url.Values, len(cursors))
	for channel, lastID := range cursors {
		payload.Set(string(channel), strconv.FormatInt(lastID, 10))
	}

	resp, err := b.request(ctx, payload, degraded)
	if err != nil {
		logger.WithError(err).Debug("error during request")
		return nil, PollFailedError{b.clientID, err}
	}

	response, err := b.parseResponse(resp)
	if err != nil {
		logger.WithError(err).Debug("error parsing response")
		return nil, PollFailedError{b.clientID, err}
	}

	logger.WithField("duration", time.Since(start)).Debug("finishing", "messages", len(response))
	return response, nil
}

// UseExtension adds the provided MessageExtender to the list of known
// extensions
func (b *MessageBusClient) UseExtension(name string, ext MessageExtender) error {
	b.extLock.Lock()
	for _, registered := range b.exts {
		if ext == registered {
			b.extLock.Unlock()
			return AlreadyRegisteredError{ext}
		}
	}
	b.exts = append(b.exts, ext)
	b.extLock.Unlock()

	ext.Registered(name, b)
	return nil
}

// RemoveExtension unregisters a previously registered MessageExtender
func (b *MessageBusClient) RemoveExtension(ext MessageExtender) bool {
	b.extLock.Lock()
	defer b.extLock.Unlock()
	for i, registered := range b.exts {
		if ext == registered {
			b.exts = append(b.exts[:i], b.exts[i+1:]...)
			ext.Unregistered()
			return true
		}
	}
	return false
}

func (b *MessageBusClient) extensions() []MessageExtender {
	b.extLock.RLock()
	defer b.extLock.RUnlock()
	return append([]MessageExtender(nil), b.exts...)
}

func (b *MessageBusClient) request(ctx context.Context, payload url.Values, degraded bool) (*http.Response, error) {
	for _, ext := range b.extensions() {
		ext.Outgoing(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.PollURL(degraded).String(), strings.NewReader(payload.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(SilenceLoggerHeader, "true")
	return b.client.Do(req)
}

func (b *MessageBusClient) parseResponse(resp *http.Response) ([]Message, error) {
	messages := make([]Message, 0)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil, BadResponseError{resp.StatusCode, resp.Status, body}
	}

	if err := json.NewDecoder(resp.Body).Decode(&messages); err != nil {
		return nil, err
	}
	exts := b.extensions()
	for i := range messages {
		for _, ext := range exts {
			ext.Incoming(&messages[i])
		}
	}
	return messages, nil
}
