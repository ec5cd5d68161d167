// Package clock abstracts wall-clock time so timed behaviour (toast expiry,
// session idle expiry, simulated submission latency) can be driven
// deterministically from tests.
package clock

import (
	"context"
	"time"
)

// Timer is a pending call scheduled with AfterFunc
type Timer interface {
	// Stop prevents the call from running. It reports whether the call was
	// still pending.
	Stop() bool
}

// Clock provides the current time and scheduled callbacks
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

// Real returns a Clock backed by the time package
func Real() Clock {
	return realClock{}
}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Sleep blocks for d as measured by clk, returning early with the context
// error if ctx is done first.
func Sleep(ctx context.Context, clk Clock, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	done := make(chan struct{})
	timer := clk.AfterFunc(d, func() { close(done) })

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	}
}
