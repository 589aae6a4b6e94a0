package cursors

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	mb "github.com/sigmavirus24/gomessagebus"
)

func TestNewUsesDefaults(t *testing.T) {
	e := New(NewMapStorage())
	if e.timeout != defaultTimeout {
		t.Errorf("expected default timeout %s, got %s", defaultTimeout, e.timeout)
	}
	if e.logger == nil {
		t.Error("expected a logger to be set")
	}
	if e.IsRegistered() {
		t.Error("extension should not start registered")
	}
}

func TestRegistration(t *testing.T) {
	e := New(NewMapStorage())
	client, err := mb.NewMessageBusClient(nil, nil, "https://example.com", "abc", nil)
	if err != nil {
		t.Fatalf("expected a working client but got %q", err)
	}
	if err := client.UseExtension(ExtensionName, e); err != nil {
		t.Fatalf("expected registration to succeed but got %q", err)
	}
	if !e.IsRegistered() {
		t.Fatal("expected the extension to be registered")
	}
	client.RemoveExtension(e)
	if e.IsRegistered() {
		t.Fatal("expected the extension to be unregistered")
	}
}

func TestOutgoingFillsStoredCursors(t *testing.T) {
	ctx := context.Background()
	s := NewMapStorage()
	_ = s.Set(ctx, "/chat", 42)
	_ = s.Set(ctx, "/news", 7)
	e := New(s)

	payload := url.Values{}
	payload.Set("/chat", "-1")
	payload.Set("/news", "9")
	payload.Set("/other", "-1")
	e.Outgoing(payload)

	testCases := []struct {
		channel string
		want    string
	}{
		{"/chat", "42"},
		{"/news", "9"},
		{"/other", "-1"},
	}
	for _, testCase := range testCases {
		tc := testCase
		t.Run(tc.channel, func(t *testing.T) {
			if got := payload.Get(tc.channel); got != tc.want {
				t.Errorf("expected cursor %s for %s, got %s", tc.want, tc.channel, got)
			}
		})
	}
}

func TestIncomingStoresMessageIDs(t *testing.T) {
	ctx := context.Background()
	s := NewMapStorage()
	e := New(s)

	e.Incoming(&mb.Message{Channel: "/chat", ID: 3, Data: json.RawMessage(`"hi"`)})
	e.Incoming(&mb.Message{Channel: "/chat", ID: 4, Data: json.RawMessage(`"there"`)})
	e.Incoming(&mb.Message{Channel: "/bogus", ID: -1})

	if got, ok, _ := s.Get(ctx, "/chat"); !ok || got != 4 {
		t.Errorf("expected /chat cursor 4, got %d (ok=%v)", got, ok)
	}
	if _, ok, _ := s.Get(ctx, "/bogus"); ok {
		t.Error("expected a negative id not to be stored")
	}
}

func TestIncomingStatusStoresEveryCursor(t *testing.T) {
	ctx := context.Background()
	s := NewMapStorage()
	e := New(s)

	e.Incoming(&mb.Message{
		Channel: mb.StatusChannel,
		ID:      -1,
		Data:    json.RawMessage(`{"/chat":12,"/news":3}`),
	})

	m, err := s.AsMap(ctx)
	if err != nil {
		t.Fatalf("unexpected error %q", err)
	}
	if len(m) != 2 || m["/chat"] != 12 || m["/news"] != 3 {
		t.Errorf("unexpected stored cursors %v", m)
	}
	if _, ok := m[string(mb.StatusChannel)]; ok {
		t.Error("the status channel itself should never be stored")
	}
}

func TestIncomingMalformedStatusIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	s := NewMapStorage()
	e := New(s, WithLogger(logger))

	e.Incoming(&mb.Message{Channel: mb.StatusChannel, ID: -1, Data: json.RawMessage(`[1,2]`)})

	m, _ := s.AsMap(context.Background())
	if len(m) != 0 {
		t.Errorf("expected nothing stored, got %v", m)
	}
	if entry := hook.LastEntry(); entry == nil || entry.Message != "ignoring malformed status message" {
		t.Errorf("expected a debug entry about the malformed status, got %+v", entry)
	}
}

type failingStorage struct {
	*MapStorage
}

var errStorage = errors.New("storage unavailable")

func (failingStorage) Set(context.Context, string, int64) error {
	return errStorage
}

func (failingStorage) Get(context.Context, string) (int64, bool, error) {
	return 0, false, errStorage
}

func TestStorageFailuresAreLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	e := New(failingStorage{NewMapStorage()}, WithLogger(logger))

	payload := url.Values{"/chat": []string{"-1"}}
	e.Outgoing(payload)
	if got := payload.Get("/chat"); got != "-1" {
		t.Errorf("expected the cursor to be left alone, got %s", got)
	}
	e.Incoming(&mb.Message{Channel: "/chat", ID: 1})

	entries := hook.AllEntries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	for _, entry := range entries {
		if entry.Level != logrus.WarnLevel {
			t.Errorf("expected a warning, got %s", entry.Level)
		}
		if entry.Data[logrus.ErrorKey] != errStorage {
			t.Errorf("expected the storage error to be attached, got %v", entry.Data[logrus.ErrorKey])
		}
	}
}

func TestForget(t *testing.T) {
	ctx := context.Background()
	s := NewMapStorage()
	_ = s.Set(ctx, "/chat", 5)
	e := New(s)

	if err := e.Forget(ctx, "/chat"); err != nil {
		t.Fatalf("unexpected error %q", err)
	}
	if _, ok, _ := s.Get(ctx, "/chat"); ok {
		t.Error("expected the cursor to be forgotten")
	}
}

func TestMapStorageSet(t *testing.T) {
	ctx := context.Background()
	s := NewMapStorage()
	var want int64 = 1
	_ = s.Set(ctx, "/foo/bar", want)
	if got, ok, _ := s.Get(ctx, "/foo/bar"); !ok || want != got {
		if !ok {
			t.Fatal("expected s.Set to store value but it didn't")
		}
		t.Fatalf("expected cursor to be %d but got %d", want, got)
	}
}

func TestEmptyMapStorageGet(t *testing.T) {
	s := NewMapStorage()
	if _, ok, _ := s.Get(context.Background(), "/foo/bar"); ok {
		t.Fatal("expected s.Get(\"/foo/bar\") to not return ok")
	}
}

func TestMapStorageDelete(t *testing.T) {
	ctx := context.Background()
	s := &MapStorage{store: map[string]int64{"/foo/bar": 1}}
	_ = s.Delete(ctx, "/foo/bar")
	if _, ok, _ := s.Get(ctx, "/foo/bar"); ok {
		t.Fatal("expected s.Get(\"/foo/bar\") to not return ok")
	}
}

func TestMapStorageAsMap(t *testing.T) {
	s := &MapStorage{store: map[string]int64{"/foo/bar": 1234}}
	m, _ := s.AsMap(context.Background())
	if len(m) != 1 {
		t.Fatalf("expected len(m) = %d, got %d", 1, len(m))
	}
	if m["/foo/bar"] != 1234 {
		t.Fatalf("expected m[\"/foo/bar\"] = %d, got %d", 1234, m["/foo/bar"])
	}
	m["/foo/bar"] = 1
	if got, _, _ := s.Get(context.Background(), "/foo/bar"); got != 1234 {
		t.Fatal("expected AsMap to return a copy")
	}
}
