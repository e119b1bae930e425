package mpr

import (
	"context"
	"time"
)

// Delayer waits between triggering a conversion and reading its result.
type Delayer interface {
	Delay(ctx context.Context, d time.Duration) error
}

// ReadySignal waits for the end-of-conversion (EOC) line to go high.
type ReadySignal interface {
	WaitReady(ctx context.Context) error
}

// TimerDelay sleeps on a timer and returns early with ctx.Err() on cancellation.
type TimerDelay struct{}

func (TimerDelay) Delay(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
