// Package signaler relays process interrupts
package signaler

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WaitForInterrupt returns a channel receiving SIGINT and SIGTERM
func WaitForInterrupt() chan os.Signal {
	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)
	return sigC
}

// WithInterrupt returns a context cancelled on the first interrupt
func WithInterrupt(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	sigC := WaitForInterrupt()
	go func() {
		defer signal.Stop(sigC)
		select {
		case <-sigC:
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
