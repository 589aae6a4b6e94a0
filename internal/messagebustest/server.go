package messagebustest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sigmavirus24/gomessagebus"
)

const (
	pollPrefix = "/message-bus/"
	pollSuffix = "/poll"
)

// ErrNotRunning is returned by RoundTrip when the server is stopped
var ErrNotRunning = errors.New("server not running")

type Logger interface {
	Log(args ...any)
	Logf(format string, args ...any)
}

// Request records one poll request received by the Server
type Request struct {
	ClientID      string
	Cursors       map[gomessagebus.Channel]int64
	Degraded      bool
	SilenceLogger bool
}

// Server is an in-memory message bus that implements http.RoundTripper so
// it can be plugged into a client with gomessagebus.WithHTTPTransport.
type Server struct {
	log Logger

	mu       sync.Mutex
	running  bool
	backlog  map[gomessagebus.Channel][]gomessagebus.Message
	lastIDs  map[gomessagebus.Channel]int64
	requests []Request
	changed  chan struct{}
	failures int

	hold time.Duration
}

func NewServer(logger Logger, opts ...ServerOpts) *Server {
	server := &Server{
		log:     logger,
		backlog: make(map[gomessagebus.Channel][]gomessagebus.Message),
		lastIDs: make(map[gomessagebus.Channel]int64),
		changed: make(chan struct{}),
		hold:    time.Second,
	}

	for _, opt := range opts {
		opt.apply(server)
	}

	return server
}

func (s *Server) Start(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = true

	return nil
}

func (s *Server) Stop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.running = false

	return nil
}

// Publish appends a message to channel and wakes any held poll. It returns
// the id assigned to the message.
func (s *Server) Publish(channel gomessagebus.Channel, data any) (int64, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return 0, fmt.Errorf("issue marshaling data (%w)", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastIDs[channel]++
	id := s.lastIDs[channel]
	s.backlog[channel] = append(s.backlog[channel], gomessagebus.Message{
		Channel: channel,
		ID:      id,
		Data:    raw,
	})
	s.notifyLocked()

	return id, nil
}

// FailNext makes the next n requests fail with a 500
func (s *Server) FailNext(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures = n
}

// Requests returns every request received so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]Request(nil), s.requests...)
}

// WaitForRequests blocks until at least n requests have been received or
// timeout elapses.
func (s *Server) WaitForRequests(n int, timeout time.Duration) ([]Request, error) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		s.mu.Lock()
		if len(s.requests) >= n {
			requests := append([]Request(nil), s.requests...)
			s.mu.Unlock()
			return requests, nil
		}
		changed := s.changed
		s.mu.Unlock()

		select {
		case <-changed:
		case <-deadline.C:
			return s.Requests(), fmt.Errorf("timed out waiting for %d requests", n)
		}
	}
}

func (s *Server) RoundTrip(req *http.Request) (*http.Response, error) {
	defer func() {
		if err := req.Body.Close(); err != nil {
			s.log.Logf("could not close test server request body: %+v", err)
		}
	}()

	if req.Method != http.MethodPost {
		return reply(http.StatusMethodNotAllowed, nil), nil
	}

	clientID, ok := parsePath(req.URL.Path)
	if !ok {
		return reply(http.StatusNotFound, nil), nil
	}

	body, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("issue reading body (%w)", err)
	}
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return reply(http.StatusBadRequest, []byte(`{"error":"Invalid form"}`)), nil
	}

	request := Request{
		ClientID:      clientID,
		Cursors:       make(map[gomessagebus.Channel]int64, len(form)),
		Degraded:      req.URL.Query().Get(gomessagebus.DegradedPollParam) == "t",
		SilenceLogger: req.Header.Get(gomessagebus.SilenceLoggerHeader) == "true",
	}
	for channel := range form {
		lastID, err := strconv.ParseInt(form.Get(channel), 10, 64)
		if err != nil {
			return reply(http.StatusBadRequest, []byte(`{"error":"Invalid cursor"}`)), nil
		}
		request.Cursors[gomessagebus.Channel(channel)] = lastID
	}

	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil, ErrNotRunning
	}
	s.requests = append(s.requests, request)
	s.notifyLocked()
	if s.failures > 0 {
		s.failures--
		s.mu.Unlock()
		return reply(http.StatusInternalServerError, []byte(`{"error":"Internal error"}`)), nil
	}
	s.mu.Unlock()

	hold := time.NewTimer(s.hold)
	defer hold.Stop()

	for {
		s.mu.Lock()
		messages := s.pendingLocked(request.Cursors)
		changed := s.changed
		s.mu.Unlock()

		if len(messages) > 0 || request.Degraded {
			return s.encode(messages)
		}

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-hold.C:
			return s.encode(messages)
		case <-changed:
		}
	}
}

// pendingLocked returns the messages newer than cursors. Channels polled
// with no cursor get a status message carrying their latest id instead of
// the backlog.
func (s *Server) pendingLocked(cursors map[gomessagebus.Channel]int64) []gomessagebus.Message {
	messages := make([]gomessagebus.Message, 0)
	status := make(map[gomessagebus.Channel]int64)

	for channel, lastID := range cursors {
		if lastID < 0 {
			status[channel] = s.lastIDs[channel]
			continue
		}
		for _, m := range s.backlog[channel] {
			if m.ID > lastID {
				messages = append(messages, m)
			}
		}
	}

	if len(status) > 0 {
		raw, err := json.Marshal(status)
		if err != nil {
			s.log.Logf("could not marshal status: %+v", err)
			return messages
		}
		messages = append(messages, gomessagebus.Message{
			Channel: gomessagebus.StatusChannel,
			ID:      -1,
			Data:    raw,
		})
	}

	return messages
}

func (s *Server) notifyLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *Server) encode(messages []gomessagebus.Message) (*http.Response, error) {
	body, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("issue marshaling body (%w)", err)
	}
	return reply(http.StatusOK, body), nil
}

func reply(statusCode int, body []byte) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Status:     http.StatusText(statusCode),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(body)),
	}
}

func parsePath(path string) (string, bool) {
	if !strings.HasPrefix(path, pollPrefix) || !strings.HasSuffix(path, pollSuffix) {
		return "", false
	}
	clientID := strings.TrimSuffix(strings.TrimPrefix(path, pollPrefix), pollSuffix)
	if clientID == "" || strings.Contains(clientID, "/") {
		return "", false
	}
	return clientID, true
}
