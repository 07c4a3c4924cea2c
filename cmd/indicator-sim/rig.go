//go:build !tinygo

package main

import (
	"strings"

	"indicator-go/errcode"
	"indicator-go/services/config"
	"indicator-go/types"
)

// rig is a set of running controllers built from a device config.
type rig struct {
	*config.Indicators
}

// apply writes value into the named handle the way any firmware component
// would. Speaker values are "mode" or "mode/sound".
func (r *rig) apply(target, value string) error {
	if h, ok := r.LEDs[target]; ok {
		st, ok := types.ParseLEDState(value)
		if !ok {
			return &errcode.E{C: errcode.InvalidParams, Op: "apply", Msg: "unknown led state " + value}
		}
		h.State.Store(st)
		return nil
	}
	if h, ok := r.Speakers[target]; ok {
		modeName, soundName, hasSound := strings.Cut(value, "/")
		mode, ok := types.ParseSpeakerMode(modeName)
		if !ok {
			return &errcode.E{C: errcode.InvalidParams, Op: "apply", Msg: "unknown speaker mode " + modeName}
		}
		if hasSound {
			sound, ok := types.ParseSpeakerSound(soundName)
			if !ok {
				return &errcode.E{C: errcode.InvalidParams, Op: "apply", Msg: "unknown sound " + soundName}
			}
			h.Sound.Store(sound)
		}
		h.Mode.Store(mode)
		return nil
	}
	return &errcode.E{C: errcode.UnknownDevice, Op: "apply", Msg: target}
}

// pinNames maps each wired pin to its device name.
func pinNames(c config.Config) map[int]string {
	m := map[int]string{}
	for _, l := range c.LEDs {
		m[l.Pin] = l.Name
	}
	if s := c.Speaker; s != nil {
		m[s.Pin] = s.Name
	}
	return m
}
