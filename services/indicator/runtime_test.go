package indicator_test

import (
	"errors"
	"testing"

	"indicator-go/errcode"
	"indicator-go/services/indicator"
	"indicator-go/types"
)

func TestInitLEDPinInUse(t *testing.T) {
	h := newHarness(t, nil)
	if _, err := h.rt.InitLED(25, types.LEDOff, 1, 256); err != nil {
		t.Fatal(err)
	}
	_, err := h.rt.InitLED(25, types.LEDOff, 1, 256)
	if !errors.Is(err, errcode.PinInUse) {
		t.Fatalf("err = %v, want pin_in_use", err)
	}
	if _, err := h.rt.InitSpeaker(25, types.SpeakerOff, types.Warning1, 1, 256); errcode.Of(err) != errcode.PinInUse {
		t.Fatalf("speaker on a LED pin: err = %v", err)
	}
}

func TestInitLEDArenaExhausted(t *testing.T) {
	h := newHarness(t, func(o *indicator.Options) { o.MaxLEDs = 1 })
	if _, err := h.rt.InitLED(2, types.LEDOff, 1, 256); err != nil {
		t.Fatal(err)
	}
	_, err := h.rt.InitLED(3, types.LEDOff, 1, 256)
	if errcode.Of(err) != errcode.NoMemory {
		t.Fatalf("err = %v, want no_memory", err)
	}
	if h.pins.isClaimed(3) {
		t.Fatal("pin 3 still claimed after a failed init")
	}
	if got := err.Error(); got != "init_led: no_memory" {
		t.Fatalf("message = %q", got)
	}
}

func TestInitSpawnFailuresReleaseEverything(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*indicator.Options)
		stack  uint16
	}{
		{"stack below minimum", nil, indicator.MinStackWords - 1},
		{"unit limit", func(o *indicator.Options) { o.MaxUnits = 1 }, 256},
		{"stack budget", func(o *indicator.Options) { o.StackBudget = 300 }, 256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, func(o *indicator.Options) {
				o.MaxLEDs = 1
				o.MaxSpeakers = 1
				if tt.mutate != nil {
					tt.mutate(o)
				}
			})
			// Use up one unit so the limits bite on the second.
			if _, err := h.rt.InitLED(2, types.LEDOff, 1, 256); err != nil {
				t.Fatal(err)
			}
			_, err := h.rt.InitSpeaker(15, types.SpeakerOff, types.Warning1, 1, tt.stack)
			if errcode.Of(err) != errcode.SpawnFailed {
				t.Fatalf("err = %v, want spawn_failed", err)
			}
			if h.pins.isClaimed(15) {
				t.Fatal("speaker pin still claimed")
			}
			if n := len(h.rt.Tasks()); n != 1 {
				t.Fatalf("%d tasks recorded, want 1", n)
			}
		})
	}
}

func TestFailedInitFreesArenaSlot(t *testing.T) {
	h := newHarness(t, func(o *indicator.Options) { o.MaxLEDs = 1 })
	if _, err := h.rt.InitLED(5, types.LEDOff, 1, 64); errcode.Of(err) != errcode.SpawnFailed {
		t.Fatalf("err = %v, want spawn_failed", err)
	}
	led, err := h.rt.InitLED(5, types.LEDFastBlink, 1, 256)
	if err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if led.State.Load() != types.LEDFastBlink {
		t.Fatalf("state = %v", led.State.Load())
	}
}

func TestInitConfigureFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.pins.locked[6] = true
	_, err := h.rt.InitSpeaker(6, types.SpeakerOff, types.Warning1, 1, 256)
	if err == nil {
		t.Fatal("expected error")
	}
	if h.pins.isClaimed(6) {
		t.Fatal("pin 6 still claimed")
	}
	if len(h.rt.Tasks()) != 0 {
		t.Fatal("unit started for a pin that failed to configure")
	}
}

func TestInitUnknownPin(t *testing.T) {
	h := newHarness(t, nil)
	_, err := h.rt.InitLED(99, types.LEDOff, 1, 256)
	if errcode.Of(err) != errcode.UnknownPin {
		t.Fatalf("err = %v, want unknown_pin", err)
	}
}
