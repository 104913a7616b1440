package hostio

import (
	"context"
	"io"
	"time"

	"golang.org/x/sync/errgroup"
)

// Host bundles the background capability providers a CLI driver needs
// - a Console and a Clock - under one errgroup.Group, so tearing both
// down is a single Shutdown call instead of remembering to Close each
// provider in the right order.
type Host struct {
	Console *Console
	Clock   *Clock

	cancel context.CancelFunc
	group  *errgroup.Group
}

// NewHost starts a Console writing to out and a Clock ticking every
// tick, both supervised by a shared errgroup.
func NewHost(out io.Writer, tick time.Duration) *Host {
	ctx, cancel := context.WithCancel(context.Background())
	group, ctx := errgroup.WithContext(ctx)

	console := NewConsole(out)
	clock := NewClock(tick)

	group.Go(func() error {
		<-ctx.Done()
		console.Close()
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		clock.Close()
		return nil
	})

	return &Host{Console: console, Clock: clock, cancel: cancel, group: group}
}

// Shutdown cancels the shared context and waits for both supervisor
// goroutines to observe it and close their provider.
func (h *Host) Shutdown() {
	h.cancel()
	h.group.Wait()
}
