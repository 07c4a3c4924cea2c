//go:build !tinygo

package main

import (
	"context"
	"sort"
	"sync"

	"indicator-go/services/indicator"
)

// Event types carried on the simulator dispatcher.
const (
	TypeEdge uint32 = iota + 1
)

// EdgeEvent is one level change on a wired pin. An event with End set
// closes the run: delivery is ordered per subscriber, so a subscriber that
// has seen it has seen every edge before it.
type EdgeEvent struct {
	Device string
	Pin    int
	Level  bool
	At     indicator.Tick
	End    bool
}

func (EdgeEvent) Type() uint32 { return TypeEdge }

func endOfRun(at indicator.Tick) EdgeEvent { return EdgeEvent{At: at, End: true} }

// PinSummary describes one pin's activity over a run.
type PinSummary struct {
	Device     string
	Pin        int
	Edges      int
	HighTicks  indicator.Ticks
	Duty       float64
	MeanPeriod float64 // ticks between rising edges, 0 with fewer than two
}

// Recorder collects edges per device.
type Recorder struct {
	mu    sync.Mutex
	edges map[string][]EdgeEvent
	end   indicator.Tick
	done  chan struct{}
	ended bool
}

func NewRecorder() *Recorder {
	return &Recorder{edges: map[string][]EdgeEvent{}, done: make(chan struct{})}
}

func (r *Recorder) OnEdge(e EdgeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch {
	case r.ended:
	case e.End:
		r.ended = true
		r.end = e.At
		close(r.done)
	default:
		r.edges[e.Device] = append(r.edges[e.Device], e)
	}
}

// Wait blocks until the end of the run has been handled.
func (r *Recorder) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Edges returns a copy of the edges seen for device.
func (r *Recorder) Edges(device string) []EdgeEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EdgeEvent(nil), r.edges[device]...)
}

// Timeline returns every edge ordered by its offset from start, then device.
// Edges written during bring-up, just before start, sort first.
func (r *Recorder) Timeline(start indicator.Tick) []EdgeEvent {
	r.mu.Lock()
	var all []EdgeEvent
	for _, es := range r.edges {
		all = append(all, es...)
	}
	r.mu.Unlock()
	offset := func(e EdgeEvent) int32 { return int32(e.At - start) }
	sort.SliceStable(all, func(i, j int) bool {
		if oi, oj := offset(all[i]), offset(all[j]); oi != oj {
			return oi < oj
		}
		return all[i].Device < all[j].Device
	})
	return all
}

// Summary reports every device in pins from start to the end tick. Pins
// start low.
func (r *Recorder) Summary(start indicator.Tick, pins map[int]string) []PinSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	nums := make([]int, 0, len(pins))
	for n := range pins {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	total := r.end.Since(start)
	out := make([]PinSummary, 0, len(nums))
	for _, n := range nums {
		dev := pins[n]
		es := r.edges[dev]
		s := PinSummary{Device: dev, Pin: n, Edges: len(es)}

		var (
			highSince indicator.Tick
			high      bool
			rises     []indicator.Tick
		)
		for _, e := range es {
			if e.Level && !high {
				highSince = e.At
				rises = append(rises, e.At)
			}
			if !e.Level && high {
				s.HighTicks += e.At.Since(highSince)
			}
			high = e.Level
		}
		if high {
			s.HighTicks += r.end.Since(highSince)
		}
		if total > 0 {
			s.Duty = float64(s.HighTicks) / float64(total)
		}
		if len(rises) > 1 {
			s.MeanPeriod = float64(rises[len(rises)-1].Since(rises[0])) / float64(len(rises)-1)
		}
		out = append(out, s)
	}
	return out
}
