package indicator_test

import (
	"testing"

	"indicator-go/services/indicator"
	"indicator-go/types"
)

// testSounds keeps half-periods whole at 1000 ticks/s.
// WARNING1: half 5, 200 ms. WARNING2: half 3, no duration. TRACK_BALANCE: silent.
func testSounds() indicator.Tunables {
	tun := indicator.DefaultTunables()
	tun.Sounds = indicator.NewSoundTable(map[types.SpeakerSound]indicator.Tone{
		types.Warning1:     {FreqHz: 100, DurationMs: 200},
		types.Warning2:     {FreqHz: 200},
		types.TrackBalance: {DurationMs: 200},
	})
	return tun
}

func after(es []write, t indicator.Tick) []write {
	var out []write
	for _, e := range es {
		if e.at > t {
			out = append(out, e)
		}
	}
	return out
}

func TestSpeakerContinuousTogglesAtHalfPeriod(t *testing.T) {
	h := newHarness(t, withTunables(testSounds()))
	if _, err := h.rt.InitSpeaker(15, types.SpeakerContinuous, types.Warning1, 1, 256); err != nil {
		t.Fatalf("InitSpeaker: %v", err)
	}
	h.clock.AdvanceMs(100)

	es := h.pins.pin(15).edges()
	if len(es) != 20 {
		t.Fatalf("got %d edges in 100 ticks, want 20", len(es))
	}
	checkSpacing(t, es, 5, 5)
}

func TestSpeakerSoundChangeRestartsWave(t *testing.T) {
	h := newHarness(t, withTunables(testSounds()))
	spk, err := h.rt.InitSpeaker(15, types.SpeakerContinuous, types.Warning1, 1, 256)
	if err != nil {
		t.Fatal(err)
	}
	h.clock.AdvanceMs(50)
	spk.Sound.Store(types.Warning2)
	h.clock.AdvanceMs(30)

	// Picked up on the next poll (51), restarting low with half 3.
	es := after(h.pins.pin(15).edges(), 51)
	if len(es) != 9 {
		t.Fatalf("got %d edges after the change, want 9: %v", len(es), es)
	}
	checkSpacing(t, es, 54, 3)
}

func TestSpeakerContinuousToOffSilences(t *testing.T) {
	h := newHarness(t, withTunables(testSounds()))
	spk, err := h.rt.InitSpeaker(15, types.SpeakerContinuous, types.Warning1, 1, 256)
	if err != nil {
		t.Fatal(err)
	}
	h.clock.AdvanceMs(97)
	p := h.pins.pin(15)
	if !p.Level() {
		t.Fatal("expected the wave high at tick 97")
	}
	spk.Mode.Store(types.SpeakerOff)
	h.clock.AdvanceMs(200)

	es := p.edges()
	if last := es[len(es)-1]; last != (write{98, false}) {
		t.Fatalf("last edge = %v, want low@98", last)
	}
	if p.Level() {
		t.Fatal("pin high while OFF")
	}
}

func TestSpeakerOneShotPlaysForDuration(t *testing.T) {
	h := newHarness(t, withTunables(testSounds()))
	spk, err := h.rt.InitSpeaker(15, types.SpeakerOneShot, types.Warning1, 1, 256)
	if err != nil {
		t.Fatal(err)
	}
	h.clock.AdvanceMs(199)
	if m := spk.Mode.Load(); m != types.SpeakerOneShot {
		t.Fatalf("mode at 199 = %v, want oneshot", m)
	}
	h.clock.AdvanceMs(1)
	if m := spk.Mode.Load(); m != types.SpeakerOff {
		t.Fatalf("mode at 200 = %v, want off", m)
	}

	p := h.pins.pin(15)
	if p.Level() {
		t.Fatal("pin high after the tone")
	}
	es := p.edges()
	if len(es) != 40 {
		t.Fatalf("got %d edges, want 40", len(es))
	}
	checkSpacing(t, es, 5, 5)

	h.clock.AdvanceMs(500)
	if n := len(p.edges()); n != 40 {
		t.Fatalf("tone replayed: %d edges", n)
	}
	if m := spk.Mode.Load(); m != types.SpeakerOff {
		t.Fatalf("mode = %v, want off", m)
	}
}

func TestSpeakerOneShotRetrigger(t *testing.T) {
	h := newHarness(t, withTunables(testSounds()))
	spk, err := h.rt.InitSpeaker(15, types.SpeakerOff, types.Warning2, 1, 256)
	if err != nil {
		t.Fatal(err)
	}
	h.clock.AdvanceMs(5)
	spk.Sound.Store(types.Warning1)
	spk.Mode.Store(types.SpeakerOneShot)
	h.clock.AdvanceMs(295)

	p := h.pins.pin(15)
	es := p.edges()
	if len(es) != 40 {
		t.Fatalf("first tone: %d edges, want 40", len(es))
	}
	// OFF polls every 10 ticks, so the tone starts at 10.
	checkSpacing(t, es, 15, 5)

	// After the tone: settle to 215, then OFF polls at 225, 235, ... 305.
	spk.Mode.Store(types.SpeakerOneShot)
	h.clock.AdvanceMs(300)
	es = after(p.edges(), 300)
	if len(es) != 40 {
		t.Fatalf("second tone: %d edges, want 40", len(es))
	}
	checkSpacing(t, es, 310, 5)
	if spk.Mode.Load() != types.SpeakerOff {
		t.Fatal("mode not cleared after second tone")
	}
}

func TestSpeakerOneShotClearsOverMidToneWrite(t *testing.T) {
	h := newHarness(t, withTunables(testSounds()))
	spk, err := h.rt.InitSpeaker(15, types.SpeakerOneShot, types.Warning1, 1, 256)
	if err != nil {
		t.Fatal(err)
	}
	h.clock.AdvanceMs(100)
	spk.Mode.Store(types.SpeakerContinuous)
	h.clock.AdvanceMs(100)

	if m := spk.Mode.Load(); m != types.SpeakerOff {
		t.Fatalf("mode = %v, want off: the one-shot end overwrites it", m)
	}
	p := h.pins.pin(15)
	n := len(p.edges())
	h.clock.AdvanceMs(100)
	if len(p.edges()) != n || p.Level() {
		t.Fatal("speaker sounded after the one-shot cleared")
	}
}

func TestSpeakerZeroDurationBlip(t *testing.T) {
	h := newHarness(t, withTunables(testSounds()))
	spk, err := h.rt.InitSpeaker(15, types.SpeakerOneShot, types.Warning2, 1, 256)
	if err != nil {
		t.Fatal(err)
	}
	h.clock.AdvanceMs(49)
	if spk.Mode.Load() != types.SpeakerOneShot {
		t.Fatal("blip ended early")
	}
	h.clock.AdvanceMs(1)
	if spk.Mode.Load() != types.SpeakerOff {
		t.Fatal("blip did not end at 50 ticks")
	}
	es := h.pins.pin(15).edges()
	if len(es) != 16 {
		t.Fatalf("got %d edges, want 16", len(es))
	}
	checkSpacing(t, es, 3, 3)
}

func TestSpeakerSilentSound(t *testing.T) {
	h := newHarness(t, withTunables(testSounds()))
	shot, err := h.rt.InitSpeaker(15, types.SpeakerOneShot, types.TrackBalance, 1, 256)
	if err != nil {
		t.Fatal(err)
	}
	h.clock.Settle()
	if shot.Mode.Load() != types.SpeakerOff {
		t.Fatal("silent one-shot did not clear immediately")
	}
	shot.Mode.Store(types.SpeakerContinuous)
	h.clock.AdvanceMs(300)
	if es := h.pins.pin(15).edges(); len(es) != 0 {
		t.Fatalf("silent sound toggled the pin: %v", es)
	}
}

func TestSpeakerSilentOneShotAfterContinuousDropsPin(t *testing.T) {
	h := newHarness(t, withTunables(testSounds()))
	spk, err := h.rt.InitSpeaker(15, types.SpeakerContinuous, types.Warning1, 1, 256)
	if err != nil {
		t.Fatal(err)
	}
	h.clock.AdvanceMs(97)
	p := h.pins.pin(15)
	if !p.Level() {
		t.Fatal("expected the wave high at tick 97")
	}
	spk.Sound.Store(types.TrackBalance)
	spk.Mode.Store(types.SpeakerOneShot)
	h.clock.AdvanceMs(500)

	if p.Level() {
		t.Fatal("silent one-shot left the pin high")
	}
	if m := spk.Mode.Load(); m != types.SpeakerOff {
		t.Fatalf("mode = %v, want OFF", m)
	}
}

func TestSpeakerDefaultSoundsAtTickRate(t *testing.T) {
	// 2 kHz cannot be represented at 1000 ticks/s; the half-period clamps to
	// one tick and the tone still lasts exactly its duration.
	h := newHarness(t, nil)
	spk, err := h.rt.InitSpeaker(15, types.SpeakerOneShot, types.Warning1, 1, 256)
	if err != nil {
		t.Fatal(err)
	}
	h.clock.AdvanceMs(199)
	if spk.Mode.Load() != types.SpeakerOneShot {
		t.Fatal("tone ended early")
	}
	h.clock.AdvanceMs(1)
	if spk.Mode.Load() != types.SpeakerOff {
		t.Fatal("tone did not end at 200 ms")
	}
	es := h.pins.pin(15).edges()
	checkSpacing(t, es, 1, 1)
	if es[len(es)-1].at != 200 || es[len(es)-1].level {
		t.Fatalf("last edge = %v, want low@200", es[len(es)-1])
	}
}
