package gomessagebus

import (
	"encoding/json"
	"sync"
)

// Callback receives the data of each message delivered on a subscribed
// channel
type Callback func(data json.RawMessage)

type subscription struct {
	channel  Channel
	callback Callback
	lastID   int64
}

// subscriptionRegistry keeps subscriptions in insertion order. The same
// channel may be subscribed more than once and every subscription tracks its
// own cursor.
type subscriptionRegistry struct {
	lock sync.RWMutex
	subs []*subscription
}

func newSubscriptionRegistry() *subscriptionRegistry {
	return &subscriptionRegistry{subs: make([]*subscription, 0)}
}

func (sr *subscriptionRegistry) Add(channel Channel, callback Callback, lastID int64) error {
	if !channel.IsValid() {
		return InvalidChannelError{channel}
	}
	if callback == nil {
		return ErrNilCallback
	}
	sr.lock.Lock()
	defer sr.lock.Unlock()
	sr.subs = append(sr.subs, &subscription{channel: channel, callback: callback, lastID: lastID})
	return nil
}

// Remove drops every subscription matched by channel and reports how many
// were removed.
func (sr *subscriptionRegistry) Remove(channel Channel) int {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	kept := make([]*subscription, 0, len(sr.subs))
	for _, sub := range sr.subs {
		if channel.Match(sub.channel) {
			continue
		}
		kept = append(kept, sub)
	}
	removed := len(sr.subs) - len(kept)
	sr.subs = kept
	return removed
}

func (sr *subscriptionRegistry) Len() int {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	return len(sr.subs)
}

// Snapshot returns the cursor to poll each distinct channel from, which is
// the highest cursor of any subscription on that channel.
func (sr *subscriptionRegistry) Snapshot() map[Channel]int64 {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	cursors := make(map[Channel]int64, len(sr.subs))
	for _, sub := range sr.subs {
		if current, ok := cursors[sub.channel]; ok && current >= sub.lastID {
			continue
		}
		cursors[sub.channel] = sub.lastID
	}
	return cursors
}

// Dispatch delivers m to every subscription on its channel in insertion order
// and advances their cursors. A StatusChannel message also fast-forwards the
// cursors it reports without invoking any callback. Callbacks run without
// the lock held; a panicking callback is recovered and reported in the
// returned slice.
func (sr *subscriptionRegistry) Dispatch(m Message) ([]error, error) {
	var (
		cursors map[Channel]int64
		err     error
	)
	if m.Channel.IsStatus() {
		if cursors, err = m.StatusCursors(); err != nil {
			return nil, err
		}
	}

	sr.lock.Lock()
	matched := make([]Callback, 0, 1)
	for _, sub := range sr.subs {
		if sub.channel == m.Channel {
			matched = append(matched, sub.callback)
			sub.lastID = m.ID
		}
		if lastID, ok := cursors[sub.channel]; ok {
			sub.lastID = lastID
		}
	}
	sr.lock.Unlock()

	var panics []error
	for _, callback := range matched {
		if err := invoke(callback, m); err != nil {
			panics = append(panics, err)
		}
	}
	return panics, nil
}

func invoke(callback Callback, m Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = CallbackPanicError{Channel: m.Channel, MessageID: m.ID, Value: r}
		}
	}()
	callback(m.Data)
	return nil
}
