package cursors

import (
	"context"
	"net/url"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	mb "github.com/sigmavirus24/gomessagebus"
)

func newRedisStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStorage(client, ""), server
}

func TestRedisStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, server := newRedisStorage(t)

	if _, ok, err := s.Get(ctx, "/chat"); err != nil || ok {
		t.Fatalf("expected no cursor yet, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "/chat", 12); err != nil {
		t.Fatalf("unexpected error %q", err)
	}
	if err := s.Set(ctx, "/news", 3); err != nil {
		t.Fatalf("unexpected error %q", err)
	}

	if got := server.HGet(DefaultRedisKey, "/chat"); got != "12" {
		t.Errorf("expected the cursor in the %s hash, got %q", DefaultRedisKey, got)
	}

	lastID, ok, err := s.Get(ctx, "/chat")
	if err != nil || !ok || lastID != 12 {
		t.Fatalf("expected cursor 12, got %d ok=%v err=%v", lastID, ok, err)
	}

	m, err := s.AsMap(ctx)
	if err != nil {
		t.Fatalf("unexpected error %q", err)
	}
	if len(m) != 2 || m["/news"] != 3 {
		t.Errorf("unexpected cursors %v", m)
	}

	if err := s.Delete(ctx, "/chat"); err != nil {
		t.Fatalf("unexpected error %q", err)
	}
	if _, ok, _ := s.Get(ctx, "/chat"); ok {
		t.Error("expected /chat to be deleted")
	}
}

func TestRedisStorageCustomKey(t *testing.T) {
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer client.Close()

	s := NewRedisStorage(client, "forum:cursors")
	if err := s.Set(context.Background(), "/chat", 1); err != nil {
		t.Fatalf("unexpected error %q", err)
	}
	if !server.Exists("forum:cursors") || server.Exists(DefaultRedisKey) {
		t.Error("expected cursors to live under the custom key only")
	}
}

func TestRedisStorageErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("not a number", func(t *testing.T) {
		s, server := newRedisStorage(t)
		server.HSet(DefaultRedisKey, "/chat", "nope")
		if _, err := s.AsMap(ctx); err == nil {
			t.Error("expected AsMap to reject a corrupt cursor")
		}
		if _, _, err := s.Get(ctx, "/chat"); err == nil {
			t.Error("expected Get to reject a corrupt cursor")
		}
	})

	t.Run("server gone", func(t *testing.T) {
		s, server := newRedisStorage(t)
		server.Close()
		if err := s.Set(ctx, "/chat", 1); err == nil {
			t.Error("expected Set to fail without a server")
		}
		if _, _, err := s.Get(ctx, "/chat"); err == nil {
			t.Error("expected Get to fail without a server")
		}
	})
}

func TestExtensionWithRedisStorage(t *testing.T) {
	s, _ := newRedisStorage(t)
	e := New(s)

	e.Incoming(&mb.Message{Channel: "/chat", ID: 9})
	payload := url.Values{"/chat": {"-1"}}
	e.Outgoing(payload)
	if got := payload["/chat"][0]; got != "9" {
		t.Errorf("expected the stored cursor 9, got %s", got)
	}
}
