package cursors

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the hash RedisStorage keeps cursors in unless told
// otherwise
const DefaultRedisKey = "gomessagebus:cursors"

// RedisStorage implements the Storage interface over a redis hash so several
// processes, or a restarted one, can share cursors
type RedisStorage struct {
	client redis.Cmdable
	key    string
}

// NewRedisStorage stores cursors in the hash at key. An empty key uses
// DefaultRedisKey.
func NewRedisStorage(client redis.Cmdable, key string) *RedisStorage {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStorage{client: client, key: key}
}

// Set implements the Storage interface
func (s *RedisStorage) Set(ctx context.Context, channel string, lastID int64) error {
	if err := s.client.HSet(ctx, s.key, channel, lastID).Err(); err != nil {
		return fmt.Errorf("issue storing cursor for %s (%w)", channel, err)
	}
	return nil
}

// Get implements the Storage interface
func (s *RedisStorage) Get(ctx context.Context, channel string) (int64, bool, error) {
	lastID, err := s.client.HGet(ctx, s.key, channel).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("issue loading cursor for %s (%w)", channel, err)
	}
	return lastID, true, nil
}

// Delete implements the Storage interface
func (s *RedisStorage) Delete(ctx context.Context, channel string) error {
	if err := s.client.HDel(ctx, s.key, channel).Err(); err != nil {
		return fmt.Errorf("issue deleting cursor for %s (%w)", channel, err)
	}
	return nil
}

// AsMap implements the Storage interface
func (s *RedisStorage) AsMap(ctx context.Context) (map[string]int64, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("issue loading cursors (%w)", err)
	}
	cursors := make(map[string]int64, len(raw))
	for channel, value := range raw {
		lastID, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("cursor for %s is not a number (%w)", channel, err)
		}
		cursors[channel] = lastID
	}
	return cursors, nil
}
