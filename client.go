package gomessagebus

import (
	"context"
	"sync"
	"time"
)

// Client is a high-level abstraction over the message bus. It keeps at most
// one poll request in flight, delivers messages to subscribers in order and
// backs off when the server has nothing to say, fails, or the host is
// hidden.
type Client struct {
	client        *MessageBusClient
	subscriptions *subscriptionRegistry
	stateMachine  *PollStateMachine
	logger        Logger
	visibility    VisibilityOracle

	enableLongPolling bool
	callbackInterval  time.Duration
	maxPollInterval   time.Duration

	wake chan struct{}
	done chan struct{}

	lock     sync.Mutex
	started  bool
	inFlight context.CancelFunc
	aborted  bool
	failures int
	backoff  time.Duration
}

// NewClient creates a new high-level client
func NewClient(serverAddress string, opts ...Option) (*Client, error) {
	options := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(options)
		}
	}

	clientID, err := newClientID(options.RandSource)
	if err != nil {
		return nil, err
	}

	mbc, err := NewMessageBusClient(options.Client, options.Transport, serverAddress, clientID, options.Logger)
	if err != nil {
		return nil, err
	}
	for _, ext := range options.Extensions {
		if err := mbc.UseExtension(ext.Name, ext.MessageExtender); err != nil {
			return nil, err
		}
	}

	return &Client{
		client:            mbc,
		subscriptions:     newSubscriptionRegistry(),
		stateMachine:      NewPollStateMachine(),
		logger:            options.Logger.WithField("client_id", clientID),
		visibility:        options.Visibility,
		enableLongPolling: options.EnableLongPolling,
		callbackInterval:  options.CallbackInterval,
		maxPollInterval:   options.MaxPollInterval,
		wake:              make(chan struct{}, 1),
		done:              make(chan struct{}),
	}, nil
}

// ClientID returns the identifier this client polls with. It never changes.
func (c *Client) ClientID() string {
	return c.client.ClientID()
}

// CallbackInterval returns the configured base poll interval. Collaborators
// may use it to pace their own work.
func (c *Client) CallbackInterval() time.Duration {
	return c.callbackInterval
}

// CurrentState reports what the poll loop is doing
func (c *Client) CurrentState() StateRepresentation {
	return c.stateMachine.CurrentState()
}

// Failures returns the number of consecutive failed polls
func (c *Client) Failures() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.failures
}

// Backoff returns the delay scheduled after the last poll
func (c *Client) Backoff() time.Duration {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.backoff
}

// UseExtension registers ext with the underlying MessageBusClient
func (c *Client) UseExtension(name string, ext MessageExtender) error {
	return c.client.UseExtension(name, ext)
}

// Subscribe registers callback for every new message on channel
func (c *Client) Subscribe(channel Channel, callback Callback) error {
	return c.SubscribeFrom(channel, callback, noMessagesYet)
}

// SubscribeFrom registers callback for every message on channel published
// after lastID. A poll in flight is cancelled so the next one includes the
// new channel.
func (c *Client) SubscribeFrom(channel Channel, callback Callback, lastID int64) error {
	if err := c.subscriptions.Add(channel, callback, lastID); err != nil {
		c.logger.WithField("at", "subscribe").WithError(err).Debug("rejected subscription")
		return err
	}
	c.logger.WithField("at", "subscribe").Debug("subscribed", "channel", channel, "last_id", lastID)
	c.interrupt()
	return nil
}

// Unsubscribe removes every subscription matching channel. A channel ending
// in * removes every subscription starting with the part before it. It
// returns the number of subscriptions removed.
func (c *Client) Unsubscribe(channel Channel) int {
	removed := c.subscriptions.Remove(channel)
	c.logger.WithField("at", "unsubscribe").Debug("unsubscribed", "channel", channel, "removed", removed)
	c.interrupt()
	return removed
}

// CancelPoll aborts the poll request in flight, if any. The poll loop does
// not count the abort as a failure and polls again right away.
func (c *Client) CancelPoll() bool {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.inFlight == nil {
		return false
	}
	c.aborted = true
	c.inFlight()
	return true
}

// Start begins the background poll loop. The loop runs until ctx is done.
func (c *Client) Start(ctx context.Context) error {
	c.lock.Lock()
	if c.started {
		c.lock.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.lock.Unlock()

	go c.poll(ctx)
	return nil
}

// Done is closed once the poll loop has stopped
func (c *Client) Done() <-chan struct{} {
	return c.done
}

func (c *Client) interrupt() {
	c.CancelPoll()
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Client) poll(ctx context.Context) {
	logger := c.logger.WithField("at", "poll-loop")
	logger.Debug("starting")
	defer close(c.done)

	for {
		delay := idleRecheckInterval
		if c.subscriptions.Len() == 0 {
			_ = c.stateMachine.ProcessEvent(noSubscriptions)
		} else {
			delay = c.pollOnce(ctx)
		}

		if !c.wait(ctx, delay) {
			_ = c.stateMachine.ProcessEvent(shutdown)
			logger.Debug("finishing")
			return
		}
	}
}

// wait blocks for delay or until a subscription change wakes the loop. It
// returns false once ctx is done.
func (c *Client) wait(ctx context.Context, delay time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-c.wake:
	case <-timer.C:
	}
	return true
}

func (c *Client) pollOnce(ctx context.Context) time.Duration {
	logger := c.logger.WithField("at", "poll-loop")

	pollCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.lock.Lock()
	c.inFlight = cancel
	c.aborted = false
	c.lock.Unlock()

	// changes made before the snapshot below are already part of it
	select {
	case <-c.wake:
	default:
	}

	if err := c.stateMachine.ProcessEvent(pollSent); err != nil {
		logger.WithError(err).Error("invalid poll state")
	}
	degraded := !c.enableLongPolling || c.visibility.Hidden()
	messages, err := c.client.Poll(pollCtx, c.subscriptions.Snapshot(), degraded)

	c.lock.Lock()
	aborted := c.aborted
	c.inFlight = nil
	c.lock.Unlock()

	if err != nil && (aborted || ctx.Err() != nil) {
		_ = c.stateMachine.ProcessEvent(pollAborted)
		logger.Debug("poll aborted")
		return 0
	}
	_ = c.stateMachine.ProcessEvent(pollCompleted)

	if err != nil {
		failures := c.recordFailure()
		logger.WithError(err).Warn("poll failed", "failures", failures)
		return c.scheduleBackoff()
	}

	c.lock.Lock()
	c.failures = 0
	c.lock.Unlock()

	for _, m := range messages {
		c.dispatch(m)
	}
	if len(messages) > 0 {
		c.setBackoff(gotDataInterval)
		return gotDataInterval
	}
	return c.scheduleBackoff()
}

func (c *Client) dispatch(m Message) {
	logger := c.logger.WithField("at", "dispatch").WithField("channel", m.Channel)
	panics, err := c.subscriptions.Dispatch(m)
	if err != nil {
		logger.WithError(err).Warn("ignoring malformed message", "message_id", m.ID)
		return
	}
	for _, p := range panics {
		logger.WithError(p).Error("callback panicked")
	}
}

func (c *Client) recordFailure() int {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.failures++
	return c.failures
}

func (c *Client) scheduleBackoff() time.Duration {
	c.lock.Lock()
	failures := c.failures
	c.lock.Unlock()

	delay := pollDelay(c.callbackInterval, c.maxPollInterval, failures, c.visibility.Hidden())
	c.setBackoff(delay)
	return delay
}

func (c *Client) setBackoff(delay time.Duration) {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.backoff = delay
}
