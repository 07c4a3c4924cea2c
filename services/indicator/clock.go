package indicator

import (
	"context"
	"time"

	"indicator-go/x/mathx"
)

// Tick is a reading of the monotonic tick counter. The counter wraps; compare
// readings with Since and Reached, never with < or >.
type Tick uint32

// Ticks is a length of time in ticks.
type Ticks uint32

// Add returns t advanced by d, wrapping.
func (t Tick) Add(d Ticks) Tick { return t + Tick(d) }

// Since returns t - earlier using unsigned wrap-around.
func (t Tick) Since(earlier Tick) Ticks { return Ticks(t - earlier) }

// Reached reports whether now is at or past deadline. Valid while the two
// readings are less than half the counter range apart.
func Reached(now, deadline Tick) bool { return int32(now-deadline) >= 0 }

// Clock is the scheduler's tick source. Sleep and SleepUntil suspend only the
// calling unit; both return false when ctx ends before the wake-up.
type Clock interface {
	Now() Tick
	Rate() uint32 // ticks per second
	Sleep(ctx context.Context, d Ticks) bool
	SleepUntil(ctx context.Context, deadline Tick) bool
}

// UnitTracker is implemented by clocks that need to know which schedulable
// units are alive (the lock-step simulation clock). The runtime calls Attach
// before a unit starts and Detach after it returns.
type UnitTracker interface {
	Attach()
	Detach()
}

// MsToTicks converts milliseconds to ticks, truncating like pdMS_TO_TICKS.
func MsToTicks(rate, ms uint32) Ticks {
	return Ticks(uint64(ms) * uint64(rate) / 1000)
}

// HalfPeriod returns the half-period of freqHz rounded to the nearest tick and
// never less than one tick. freqHz == 0 yields 0 (no wave).
func HalfPeriod(rate, freqHz uint32) Ticks {
	if freqHz == 0 {
		return 0
	}
	t := mathx.RoundDiv(uint64(rate), 2*uint64(freqHz))
	return Ticks(mathx.Clamp(t, 1, uint64(^Ticks(0))))
}

// atLeastOne keeps converted waits from collapsing to zero at coarse tick rates.
func atLeastOne(d Ticks) Ticks {
	return mathx.Max(d, 1)
}

// ---- Wall clock ----

// WallClock derives ticks from the Go runtime clock. It is the tick source on
// hardware and for real-time runs on a host.
type WallClock struct {
	start  time.Time
	rate   uint32
	period time.Duration
}

func NewWallClock(rate uint32) *WallClock {
	if rate == 0 {
		rate = 1000
	}
	return &WallClock{
		start:  time.Now(),
		rate:   rate,
		period: time.Second / time.Duration(rate),
	}
}

func (c *WallClock) Rate() uint32 { return c.rate }

func (c *WallClock) Now() Tick {
	return Tick(time.Since(c.start) / c.period)
}

func (c *WallClock) Sleep(ctx context.Context, d Ticks) bool {
	return c.SleepUntil(ctx, c.Now().Add(d))
}

func (c *WallClock) SleepUntil(ctx context.Context, deadline Tick) bool {
	now := c.Now()
	if Reached(now, deadline) {
		return ctx.Err() == nil
	}
	t := time.NewTimer(time.Duration(deadline.Since(now)) * c.period)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

// pacer implements fixed-rate waits (vTaskDelayUntil): each wait ends one
// period after the previous wake-up rather than one period after now. A unit
// that falls more than a period behind re-anchors on the current tick.
type pacer struct {
	clock Clock
	last  Tick
}

func (p *pacer) reset() { p.last = p.clock.Now() }

func (p *pacer) wait(ctx context.Context, period Ticks) bool {
	next := p.last.Add(period)
	now := p.clock.Now()
	if now.Since(next) > period && Reached(now, next) {
		next = now
	}
	p.last = next
	return p.clock.SleepUntil(ctx, next)
}
