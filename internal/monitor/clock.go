package monitor

import (
	"context"
	"time"
)

// Clock is the scheduler seam for the sampling cadence. Tests swap it for a
// deterministic implementation instead of waiting on real timers.
type Clock interface {
	// Sleep waits for d or until ctx is done. Returns false when ctx won.
	Sleep(ctx context.Context, d time.Duration) bool
}

type realClock struct{}

func (realClock) Sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// RealClock returns a Clock backed by real timers.
func RealClock() Clock {
	return realClock{}
}
