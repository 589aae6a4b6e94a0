//go:build !windows

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	mb "github.com/sigmavirus24/gomessagebus"
)

// watchVisibility hides the client on SIGUSR1 and shows it again on
// SIGUSR2 so a backgrounded mbtail polls less often.
func watchVisibility(ctx context.Context, visibility *mb.ToggleVisibility, logger logrus.FieldLogger) {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGUSR1, syscall.SIGUSR2)
	defer signal.Stop(sigc)

	toggleOnSignal(ctx, sigc, visibility, logger)
}

func toggleOnSignal(ctx context.Context, sigc <-chan os.Signal, visibility *mb.ToggleVisibility, logger logrus.FieldLogger) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigc:
			switch sig {
			case syscall.SIGUSR1:
				visibility.Hide()
				logger.Info("hidden; polling less often")
			case syscall.SIGUSR2:
				visibility.Show()
				logger.Info("visible")
			}
		}
	}
}
