//go:build !rp2040 && !rp2350

package platform

import (
	"sync"

	"indicator-go/services/indicator"
)

// GPIOMax is the highest pin number the host factory will open, matching
// the RP2040 bank so wiring validates the same way on both.
const GPIOMax = 28

// FakePin is an in-memory output pin.
type FakePin struct {
	mu      sync.RWMutex
	number  int
	level   bool
	modeOut bool
	onSet   func(n int, level bool)
}

func (p *FakePin) Number() int { return p.number }

func (p *FakePin) ConfigureOutput(initial bool) error {
	p.mu.Lock()
	p.modeOut = true
	p.level = initial
	p.mu.Unlock()
	return nil
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	old := p.level
	p.level = level
	fn := p.onSet
	p.mu.Unlock()
	if fn != nil && old != level {
		fn(p.number, level)
	}
}

func (p *FakePin) Get() bool {
	p.mu.RLock()
	v := p.level
	p.mu.RUnlock()
	return v
}

// IsOutput reports whether ConfigureOutput has been called.
func (p *FakePin) IsOutput() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.modeOut
}

// HostPinFactory returns stable *FakePin instances per number. OnSet, if
// set before pins are opened, observes every level change.
type HostPinFactory struct {
	mu    sync.Mutex
	pins  map[int]*FakePin
	OnSet func(n int, level bool)
}

func (f *HostPinFactory) ByNumber(n int) (indicator.Pin, bool) {
	if n < 0 || n > GPIOMax {
		return nil, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pins == nil {
		f.pins = make(map[int]*FakePin)
	}
	p, ok := f.pins[n]
	if !ok {
		p = &FakePin{number: n, onSet: f.OnSet}
		f.pins[n] = p
	}
	return p, true
}

// Get exposes the underlying *FakePin for tests and the simulator.
func (f *HostPinFactory) Get(n int) (*FakePin, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pins[n]
	return p, ok
}

// NewHostRegistry returns a registry over f's pins.
func NewHostRegistry(f *HostPinFactory) *Registry {
	return NewRegistry(f.ByNumber)
}

// DefaultRegistry returns a registry over fresh host pins. Host pins have
// no buzzer driver, so speakerPins open like any other pin.
func DefaultRegistry(speakerPins ...int) *Registry {
	return NewHostRegistry(&HostPinFactory{})
}
