package mock

import (
	"context"
	"time"

	"github.com/fwojciec/sdr"
)

// Interface compliance check.
var _ sdr.Clock = (*Clock)(nil)

// Clock is a test double for sdr.Clock.
// Now returns the zero time when NowFn is nil. Sleep returns immediately
// (honouring cancellation) when SleepFn is nil.
type Clock struct {
	NowFn   func() time.Time
	SleepFn func(ctx context.Context, d time.Duration) error
}

// Now delegates to NowFn if set.
func (c *Clock) Now() time.Time {
	if c.NowFn == nil {
		return time.Time{}
	}
	return c.NowFn()
}

// Sleep delegates to SleepFn if set.
func (c *Clock) Sleep(ctx context.Context, d time.Duration) error {
	if c.SleepFn == nil {
		return ctx.Err()
	}
	return c.SleepFn(ctx, d)
}
