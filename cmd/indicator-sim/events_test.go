//go:build !tinygo

package main

import (
	"context"
	"testing"
	"time"

	"indicator-go/services/indicator"
)

func TestRecorderSummary(t *testing.T) {
	r := NewRecorder()
	for _, e := range []EdgeEvent{
		{Device: "a", Pin: 1, Level: true, At: 10},
		{Device: "a", Pin: 1, Level: false, At: 30},
		{Device: "a", Pin: 1, Level: true, At: 50},
		{Device: "b", Pin: 2, Level: true, At: 90},
	} {
		r.OnEdge(e)
	}
	r.OnEdge(endOfRun(100))
	r.OnEdge(EdgeEvent{Device: "a", Pin: 1, Level: false, At: 100})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := r.Wait(ctx); err != nil {
		t.Fatal(err)
	}

	sum := r.Summary(0, map[int]string{2: "b", 1: "a", 3: "c"})
	if len(sum) != 3 || sum[0].Device != "a" || sum[2].Device != "c" {
		t.Fatalf("summary order = %+v", sum)
	}
	a := sum[0]
	// High 10..30 and 50..end; the edge after the end marker is ignored.
	if a.Edges != 3 || a.HighTicks != 70 || a.MeanPeriod != 40 || a.Duty != 0.7 {
		t.Fatalf("a = %+v", a)
	}
	if b := sum[1]; b.HighTicks != 10 || b.MeanPeriod != 0 {
		t.Fatalf("b = %+v", b)
	}
	if c := sum[2]; c.Edges != 0 || c.HighTicks != 0 {
		t.Fatalf("c = %+v", c)
	}

	tl := r.Timeline(0)
	if len(tl) != 4 || tl[3].Device != "b" {
		t.Fatalf("timeline = %+v", tl)
	}
}

func TestTimelineAcrossCounterWrap(t *testing.T) {
	r := NewRecorder()
	const start = indicator.Tick(0xFFFFFFF0)
	for _, e := range []EdgeEvent{
		{Device: "spk", Pin: 15, Level: true, At: 4},
		{Device: "led", Pin: 3, Level: true, At: start.Add(10)},
		{Device: "spk", Pin: 15, Level: false, At: start.Add(2)},
		{Device: "led", Pin: 3, Level: false, At: start - 1},
	} {
		r.OnEdge(e)
	}
	tl := r.Timeline(start)
	want := []indicator.Tick{start - 1, start.Add(2), start.Add(10), 4}
	if len(tl) != len(want) {
		t.Fatalf("timeline = %+v", tl)
	}
	for i, at := range want {
		if tl[i].At != at {
			t.Fatalf("timeline[%d].At = %#x, want %#x (%+v)", i, tl[i].At, at, tl)
		}
	}
}
