//go:build unix

package main

import (
	"context"
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// setupReloadSignal queues a reload on triggers for every SIGUSR1 until ctx
// is done.
func setupReloadSignal(ctx context.Context, triggers chan<- string) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, unix.SIGUSR1)
	go func() {
		defer signal.Stop(sigChan)
		for {
			select {
			case <-sigChan:
				sendTrigger(ctx, triggers, "Manual reload triggered (SIGUSR1)")
			case <-ctx.Done():
				return
			}
		}
	}()
}
