package config

import (
	"errors"
	"log/slog"

	"indicator-go/services/indicator"
	"indicator-go/types"
)

// Indicators are the handles brought up from a config, keyed by name.
type Indicators struct {
	LEDs     map[string]*indicator.LEDHandle
	Speakers map[string]*indicator.SpeakerHandle
}

// RuntimeOptions sizes a runtime from the [runtime] table.
func (c Config) RuntimeOptions(clock indicator.Clock, pins indicator.PinRegistry, tun *indicator.Tunables) indicator.Options {
	return indicator.Options{
		Clock:       clock,
		Pins:        pins,
		Tunables:    tun,
		MaxLEDs:     c.Runtime.MaxLEDs,
		MaxSpeakers: c.Runtime.MaxSpeakers,
		MaxUnits:    c.Runtime.MaxUnits,
		StackBudget: c.Runtime.StackBudget,
	}
}

// SpeakerPins lists the pins wired to a speaker.
func (c Config) SpeakerPins() []int {
	if c.Speaker == nil {
		return nil
	}
	return []int{c.Speaker.Pin}
}

// BringUp starts a controller for every wired LED and the speaker, in
// document order. A controller that fails is logged and left out, and its
// error joined into the result; the others keep running.
func (c Config) BringUp(rt *indicator.Runtime, log *slog.Logger) (*Indicators, error) {
	ind := &Indicators{
		LEDs:     map[string]*indicator.LEDHandle{},
		Speakers: map[string]*indicator.SpeakerHandle{},
	}
	var errs []error
	for _, l := range c.LEDs {
		st, _ := types.ParseLEDState(l.Initial)
		h, err := rt.InitLED(l.Pin, st, l.Priority, l.StackWords)
		if err != nil {
			log.Error("led init failed", "led", l.Name, "pin", l.Pin, "error", err)
			errs = append(errs, err)
			continue
		}
		ind.LEDs[l.Name] = h
	}
	if s := c.Speaker; s != nil {
		mode, _ := types.ParseSpeakerMode(s.Mode)
		sound, _ := types.ParseSpeakerSound(s.Sound)
		h, err := rt.InitSpeaker(s.Pin, mode, sound, s.Priority, s.StackWords)
		if err != nil {
			log.Error("speaker init failed", "speaker", s.Name, "pin", s.Pin, "error", err)
			errs = append(errs, err)
		} else {
			ind.Speakers[s.Name] = h
		}
	}
	return ind, errors.Join(errs...)
}
