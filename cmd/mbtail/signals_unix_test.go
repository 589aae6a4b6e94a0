//go:build !windows

package main

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	mb "github.com/sigmavirus24/gomessagebus"
)

func TestToggleOnSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	logger, hook := test.NewNullLogger()
	visibility := &mb.ToggleVisibility{}
	sigc := make(chan os.Signal)
	done := make(chan struct{})

	go func() {
		toggleOnSignal(ctx, sigc, visibility, logger)
		close(done)
	}()

	sigc <- syscall.SIGUSR1
	sigc <- syscall.SIGHUP
	if !visibility.Hidden() {
		t.Error("expected SIGUSR1 to hide the client")
	}
	sigc <- syscall.SIGUSR2
	sigc <- syscall.SIGHUP
	if visibility.Hidden() {
		t.Error("expected SIGUSR2 to show the client")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected the watcher to stop with its context")
	}
	if got := len(hook.AllEntries()); got != 2 {
		t.Errorf("expected 2 log entries, got %d", got)
	}
}
