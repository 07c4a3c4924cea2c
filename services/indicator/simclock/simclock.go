// Package simclock is a deterministic tick clock for driving controller
// units in lock-step. Time moves only in Advance, and only once every
// attached unit is suspended in Sleep/SleepUntil, so between Advance calls
// the caller sees a quiescent system and may read pins or write handles
// without racing the units.
package simclock

import (
	"context"
	"sync"

	"indicator-go/services/indicator"
)

type sleeper struct {
	at indicator.Tick
	ch chan struct{}
}

// Clock implements indicator.Clock and indicator.UnitTracker. Only attached
// units may sleep on it.
type Clock struct {
	mu       sync.Mutex
	cond     *sync.Cond
	now      indicator.Tick
	rate     uint32
	busy     int // attached units not currently sleeping
	sleepers []*sleeper
}

// New returns a clock at tick start running at rate ticks per second.
func New(rate uint32, start indicator.Tick) *Clock {
	c := &Clock{rate: rate, now: start}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *Clock) Rate() uint32 { return c.rate }

func (c *Clock) Now() indicator.Tick {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Attach() {
	c.mu.Lock()
	c.busy++
	c.mu.Unlock()
}

func (c *Clock) Detach() {
	c.mu.Lock()
	c.busy--
	c.cond.Broadcast()
	c.mu.Unlock()
}

func (c *Clock) Sleep(ctx context.Context, d indicator.Ticks) bool {
	c.mu.Lock()
	at := c.now.Add(d)
	c.mu.Unlock()
	return c.SleepUntil(ctx, at)
}

func (c *Clock) SleepUntil(ctx context.Context, at indicator.Tick) bool {
	c.mu.Lock()
	if indicator.Reached(c.now, at) {
		c.mu.Unlock()
		return ctx.Err() == nil
	}
	s := &sleeper{at: at, ch: make(chan struct{})}
	c.sleepers = append(c.sleepers, s)
	c.busy--
	c.cond.Broadcast()
	c.mu.Unlock()

	select {
	case <-s.ch:
		return true
	case <-ctx.Done():
		c.mu.Lock()
		// If a wake-up raced the cancel, Advance already counted us busy.
		if c.remove(s) {
			c.busy++
		}
		c.mu.Unlock()
		return false
	}
}

// Advance moves the clock forward d ticks, one tick at a time, waking due
// sleepers at each tick and waiting for them to suspend again.
func (c *Clock) Advance(d indicator.Ticks) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.settle()
	for i := indicator.Ticks(0); i < d; i++ {
		c.now++
		kept := c.sleepers[:0]
		for _, s := range c.sleepers {
			if indicator.Reached(c.now, s.at) {
				c.busy++
				close(s.ch)
				continue
			}
			kept = append(kept, s)
		}
		c.sleepers = kept
		c.settle()
	}
}

// AdvanceMs is Advance with the interval given in milliseconds.
func (c *Clock) AdvanceMs(ms uint32) {
	c.Advance(indicator.MsToTicks(c.rate, ms))
}

// Settle blocks until every attached unit is suspended.
func (c *Clock) Settle() {
	c.mu.Lock()
	c.settle()
	c.mu.Unlock()
}

// Sleepers reports how many units are suspended.
func (c *Clock) Sleepers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sleepers)
}

func (c *Clock) settle() {
	for c.busy > 0 {
		c.cond.Wait()
	}
}

func (c *Clock) remove(s *sleeper) bool {
	for i, x := range c.sleepers {
		if x == s {
			c.sleepers = append(c.sleepers[:i], c.sleepers[i+1:]...)
			return true
		}
	}
	return false
}
