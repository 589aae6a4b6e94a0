package cursors

import (
	"context"
	"sync"
)

// MapStorage implements the Storage interface over a regular map with a
// RWMutex protecting the access
type MapStorage struct {
	store map[string]int64
	lock  sync.RWMutex
}

// NewMapStorage creates a new MapStorage instance
func NewMapStorage() *MapStorage {
	return &MapStorage{store: make(map[string]int64)}
}

// Set implements the Storage interface
func (s *MapStorage) Set(_ context.Context, channel string, lastID int64) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.store[channel] = lastID
	return nil
}

// Get implements the Storage interface
func (s *MapStorage) Get(_ context.Context, channel string) (lastID int64, ok bool, err error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	lastID, ok = s.store[channel]
	return
}

// Delete implements the Storage interface
func (s *MapStorage) Delete(_ context.Context, channel string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.store, channel)
	return nil
}

// AsMap implements the Storage interface
func (s *MapStorage) AsMap(context.Context) (map[string]int64, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	cursors := make(map[string]int64, len(s.store))
	for k, v := range s.store {
		cursors[k] = v
	}
	return cursors, nil
}
