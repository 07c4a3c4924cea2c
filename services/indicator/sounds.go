package indicator

import "indicator-go/types"

// Tone is the frequency and one-shot duration mapped to a sound.
// DurationMs is only used by one-shots.
type Tone struct {
	FreqHz     uint32
	DurationMs uint32
}

// SoundTable maps each SpeakerSound to its Tone. It is a value: copies are
// independent and the table a controller holds never changes under it.
type SoundTable struct {
	tones [types.NumSounds]Tone
}

// NewSoundTable builds a table from m. Sounds outside the enum are ignored;
// sounds missing from m map to silence.
func NewSoundTable(m map[types.SpeakerSound]Tone) SoundTable {
	var t SoundTable
	for s, tone := range m {
		if s < types.NumSounds {
			t.tones[s] = tone
		}
	}
	return t
}

// DefaultSounds returns the stock alert tones.
func DefaultSounds() SoundTable {
	return NewSoundTable(map[types.SpeakerSound]Tone{
		types.Warning1:     {FreqHz: 2000, DurationMs: 200},
		types.Warning2:     {FreqHz: 3000, DurationMs: 300},
		types.TrackBalance: {FreqHz: 1000, DurationMs: 250},
	})
}

// Lookup returns the tone for s; unmapped sounds are silent.
func (t SoundTable) Lookup(s types.SpeakerSound) Tone {
	if s >= types.NumSounds {
		return Tone{}
	}
	return t.tones[s]
}

// With returns a copy of t with s remapped to tone.
func (t SoundTable) With(s types.SpeakerSound, tone Tone) SoundTable {
	if s < types.NumSounds {
		t.tones[s] = tone
	}
	return t
}
