package simclock

import (
	"context"
	"sync/atomic"
	"testing"

	"indicator-go/services/indicator"
)

func startUnit(c *Clock, ctx context.Context, period indicator.Ticks, wakes *atomic.Int32) <-chan struct{} {
	done := make(chan struct{})
	c.Attach()
	go func() {
		defer close(done)
		defer c.Detach()
		for c.Sleep(ctx, period) {
			wakes.Add(1)
		}
	}()
	return done
}

func TestAdvanceWakesDueSleepers(t *testing.T) {
	c := New(1000, 0)
	ctx, cancel := context.WithCancel(context.Background())
	var a, b atomic.Int32
	doneA := startUnit(c, ctx, 10, &a)
	doneB := startUnit(c, ctx, 3, &b)

	c.Advance(35)
	if got := a.Load(); got != 3 {
		t.Fatalf("unit a woke %d times, want 3", got)
	}
	if got := b.Load(); got != 11 {
		t.Fatalf("unit b woke %d times, want 11", got)
	}
	if c.Now() != 35 {
		t.Fatalf("now = %d", c.Now())
	}
	if c.Sleepers() != 2 {
		t.Fatalf("sleepers = %d, want 2", c.Sleepers())
	}

	cancel()
	<-doneA
	<-doneB
	if c.Sleepers() != 0 {
		t.Fatalf("sleepers after cancel = %d", c.Sleepers())
	}
	// All units detached: Advance must not block.
	c.AdvanceMs(10)
}

func TestSleepUntilPastDeadline(t *testing.T) {
	c := New(1000, 100)
	if !c.SleepUntil(context.Background(), 50) {
		t.Fatal("past deadline should return at once")
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if c.SleepUntil(ctx, 50) {
		t.Fatal("cancelled context should report false")
	}
}
