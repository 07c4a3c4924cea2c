// Package platform supplies the pins the indicator controllers drive: a
// claim registry shared by every build, machine pins on RP2 targets and
// in-memory pins on a host.
package platform

import (
	"sync"

	"indicator-go/errcode"
	"indicator-go/services/indicator"
)

// Opener maps a GPIO number to a pin, or reports that the number does not
// exist on this board.
type Opener func(n int) (indicator.Pin, bool)

// Registry hands each pin to at most one device at a time.
type Registry struct {
	mu    sync.Mutex
	open  Opener
	used  map[int]string        // pin -> devID
	cache map[int]indicator.Pin // pin -> handle
}

var _ indicator.PinRegistry = (*Registry)(nil)

func NewRegistry(open Opener) *Registry {
	return &Registry{
		open:  open,
		used:  make(map[int]string),
		cache: make(map[int]indicator.Pin),
	}
}

func (g *Registry) lookup(n int) (indicator.Pin, bool) {
	if p, ok := g.cache[n]; ok {
		return p, true
	}
	p, ok := g.open(n)
	if !ok {
		return nil, false
	}
	g.cache[n] = p
	return p, true
}

func (g *Registry) ClaimGPIO(devID string, n int) (indicator.Pin, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.lookup(n)
	if !ok {
		return nil, errcode.UnknownPin
	}
	if owner, inUse := g.used[n]; inUse && owner != "" {
		return nil, errcode.PinInUse
	}
	g.used[n] = devID
	return p, nil
}

func (g *Registry) ReleaseGPIO(devID string, n int) {
	g.mu.Lock()
	if owner, ok := g.used[n]; ok && owner == devID {
		delete(g.used, n)
	}
	g.mu.Unlock()
}

// Owner returns the device holding pin n, if any.
func (g *Registry) Owner(n int) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := g.used[n]
	return id, ok
}
