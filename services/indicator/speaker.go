package indicator

import (
	"context"

	"indicator-go/errcode"
	"indicator-go/types"
)

// SpeakerHandle is the control record for the piezo. Writers store Mode and
// Sound independently; the unit may observe one store before the other.
//
// A ONESHOT is fire-and-forget: when the tone finishes the unit itself stores
// SpeakerOff into Mode. Writers must not expect Mode to still read ONESHOT.
type SpeakerHandle struct {
	Pin   int
	Mode  Word[types.SpeakerMode]
	Sound Word[types.SpeakerSound]

	task *Task
	used bool
}

func (h *SpeakerHandle) Task() *Task { return h.task }

// InitSpeaker claims pin, drives it low and starts the unit that renders the
// handle's Mode and Sound as a GPIO square wave.
func (rt *Runtime) InitSpeaker(pin int, mode types.SpeakerMode, sound types.SpeakerSound, priority uint8, stackWords uint16) (*SpeakerHandle, error) {
	const op = "init_speaker"
	devID := speakerDevID(pin)

	p, err := rt.pins.ClaimGPIO(devID, pin)
	if err != nil {
		return nil, opErr(op, err)
	}
	h, err := rt.allocSpeaker()
	if err != nil {
		rt.pins.ReleaseGPIO(devID, pin)
		return nil, opErr(op, err)
	}
	if err := p.ConfigureOutput(false); err != nil {
		rt.freeSpeaker(h)
		rt.pins.ReleaseGPIO(devID, pin)
		return nil, errcode.Wrap(errcode.Error, op, err)
	}
	h.Pin = pin
	h.Mode.Store(mode)
	h.Sound.Store(sound)

	c := &speakerController{
		h:      h,
		pin:    p,
		clock:  rt.clock,
		rate:   rt.clock.Rate(),
		sounds: rt.tun.Sounds,
		t:      rt.tun.speakerTiming(rt.clock.Rate()),
		pace:   pacer{clock: rt.clock},
	}
	task, err := rt.spawn("Speaker", priority, stackWords, c.run)
	if err != nil {
		rt.freeSpeaker(h)
		rt.pins.ReleaseGPIO(devID, pin)
		return nil, opErr(op, err)
	}
	h.task = task
	rt.log.Debug("speaker unit started", "pin", pin, "mode", mode.String(), "sound", sound.String(), "priority", priority)
	return h, nil
}

// speakerController owns the generator state; nothing else reads or writes it.
type speakerController struct {
	h      *SpeakerHandle
	pin    Pin
	clock  Clock
	rate   uint32
	sounds SoundTable
	t      speakerTiming
	pace   pacer

	wave  Wave
	level bool // level last written to the pin

	applied   bool // false until the first mode is applied
	lastMode  types.SpeakerMode
	lastSound types.SpeakerSound
}

func (c *speakerController) run(ctx context.Context) {
	c.pace.reset()
	for {
		mode := c.h.Mode.Load()
		sound := c.h.Sound.Load()

		var ok bool
		switch mode {
		case types.SpeakerOff:
			ok = c.off(ctx, sound)
		case types.SpeakerContinuous:
			ok = c.continuous(ctx, sound)
		case types.SpeakerOneShot:
			ok = c.oneShot(ctx, sound)
		default:
			ok = c.pace.wait(ctx, c.t.idle)
		}
		if !ok {
			c.silence()
			return
		}
	}
}

func (c *speakerController) off(ctx context.Context, sound types.SpeakerSound) bool {
	if !c.applied || c.lastMode != types.SpeakerOff {
		c.silence()
	}
	c.record(types.SpeakerOff, sound)
	return c.pace.wait(ctx, c.t.idle)
}

func (c *speakerController) continuous(ctx context.Context, sound types.SpeakerSound) bool {
	if !c.applied || c.lastMode != types.SpeakerContinuous || c.lastSound != sound {
		// Restart at a known phase: low, anchored on now.
		c.wave = StartWave(c.clock.Now(), HalfPeriod(c.rate, c.sounds.Lookup(sound).FreqHz))
		c.write(false)
		c.record(types.SpeakerContinuous, sound)
	}
	c.step()
	return c.pace.wait(ctx, c.t.poll)
}

// oneShot plays the sound's tone to completion, then clears Mode to OFF.
// Mode is not re-read while the tone plays.
func (c *speakerController) oneShot(ctx context.Context, sound types.SpeakerSound) bool {
	tone := c.sounds.Lookup(sound)
	if tone.FreqHz != 0 {
		d := MsToTicks(c.rate, tone.DurationMs)
		if d == 0 {
			d = c.t.blip
		}
		if !c.play(ctx, tone.FreqHz, d) {
			return false
		}
	} else {
		// A continuous tone may have left the pin high.
		c.silence()
	}
	c.h.Mode.Store(types.SpeakerOff)
	c.record(types.SpeakerOff, sound)
	return c.pace.wait(ctx, c.t.settle)
}

func (c *speakerController) play(ctx context.Context, freqHz uint32, d Ticks) bool {
	start := c.clock.Now()
	c.wave = StartWave(start, HalfPeriod(c.rate, freqHz))
	c.write(false)
	for c.clock.Now().Since(start) < d {
		c.step()
		if !c.pace.wait(ctx, c.t.poll) {
			return false
		}
	}
	c.silence()
	return true
}

func (c *speakerController) step() {
	var level bool
	c.wave, level = c.wave.Step(c.clock.Now())
	if level != c.level {
		c.write(level)
	}
}

func (c *speakerController) silence() {
	c.wave = c.wave.Stop()
	c.write(false)
}

func (c *speakerController) write(level bool) {
	c.level = level
	c.pin.Set(level)
}

// record notes the mode and sound now in effect, so the next poll can tell a
// real transition from a re-read of the same values.
func (c *speakerController) record(mode types.SpeakerMode, sound types.SpeakerSound) {
	c.applied = true
	c.lastMode = mode
	c.lastSound = sound
}
