package indicator_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"indicator-go/errcode"
	"indicator-go/services/indicator"
	"indicator-go/services/indicator/simclock"
)

// ---- Test doubles ----

type write struct {
	at    indicator.Tick
	level bool
}

// recPin records every Set with the tick it happened on.
type recPin struct {
	n     int
	clock indicator.Clock

	mu         sync.Mutex
	configured bool
	level      bool
	writes     []write
	failConfig bool
}

func (p *recPin) Number() int { return p.n }

func (p *recPin) ConfigureOutput(initial bool) error {
	if p.failConfig {
		return errors.New("pad locked")
	}
	p.mu.Lock()
	p.configured = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

func (p *recPin) Set(level bool) {
	at := p.clock.Now()
	p.mu.Lock()
	p.level = level
	p.writes = append(p.writes, write{at: at, level: level})
	p.mu.Unlock()
}

func (p *recPin) Level() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// edges returns the writes that changed the level, starting from low.
func (p *recPin) edges() []write {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []write
	prev := false
	for _, w := range p.writes {
		if w.level != prev {
			out = append(out, w)
			prev = w.level
		}
	}
	return out
}

// highTicks is how long the pin was high in [from, to).
func (p *recPin) highTicks(from, to indicator.Tick) indicator.Ticks {
	var sum indicator.Ticks
	var rose indicator.Tick
	high := false
	for _, e := range p.edges() {
		if e.level {
			rose, high = e.at, true
			continue
		}
		if high {
			sum += clip(rose, e.at, from, to)
			high = false
		}
	}
	if high {
		sum += clip(rose, to, from, to)
	}
	return sum
}

func clip(a, b, from, to indicator.Tick) indicator.Ticks {
	if a < from {
		a = from
	}
	if b > to {
		b = to
	}
	if b <= a {
		return 0
	}
	return b.Since(a)
}

// fakePins hands out recPins and enforces one owner per pin.
type fakePins struct {
	clock indicator.Clock

	mu      sync.Mutex
	claimed map[int]string
	pins    map[int]*recPin
	locked  map[int]bool // pins whose ConfigureOutput fails
}

func newFakePins(clock indicator.Clock) *fakePins {
	return &fakePins{
		clock:   clock,
		claimed: map[int]string{},
		pins:    map[int]*recPin{},
		locked:  map[int]bool{},
	}
}

func (f *fakePins) ClaimGPIO(devID string, n int) (indicator.Pin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if n < 0 || n > 29 {
		return nil, errcode.UnknownPin
	}
	if _, ok := f.claimed[n]; ok {
		return nil, errcode.PinInUse
	}
	f.claimed[n] = devID
	p, ok := f.pins[n]
	if !ok {
		p = &recPin{n: n, clock: f.clock}
		f.pins[n] = p
	}
	p.failConfig = f.locked[n]
	return p, nil
}

func (f *fakePins) ReleaseGPIO(devID string, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimed[n] == devID {
		delete(f.claimed, n)
	}
}

func (f *fakePins) isClaimed(n int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.claimed[n]
	return ok
}

func (f *fakePins) pin(n int) *recPin {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pins[n]
}

// ---- Harness ----

type harness struct {
	clock *simclock.Clock
	pins  *fakePins
	rt    *indicator.Runtime
}

func newHarness(t *testing.T, mutate func(*indicator.Options)) *harness {
	t.Helper()
	clock := simclock.New(1000, 0)
	pins := newFakePins(clock)
	o := indicator.Options{Clock: clock, Pins: pins}
	if mutate != nil {
		mutate(&o)
	}
	ctx, cancel := context.WithCancel(context.Background())
	rt := indicator.NewRuntime(ctx, o)
	t.Cleanup(func() {
		cancel()
		rt.Wait()
	})
	return &harness{clock: clock, pins: pins, rt: rt}
}

func withTunables(tun indicator.Tunables) func(*indicator.Options) {
	return func(o *indicator.Options) { o.Tunables = &tun }
}
