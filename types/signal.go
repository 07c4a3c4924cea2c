package types

// LEDState is the pattern an indicator LED renders.
type LEDState uint8

const (
	LEDOff LEDState = iota
	LEDOnContinuous
	LEDFastBlink
	LEDSlowBlink
)

var ledStateNames = [...]string{
	LEDOff:          "off",
	LEDOnContinuous: "on",
	LEDFastBlink:    "fast_blink",
	LEDSlowBlink:    "slow_blink",
}

func (s LEDState) String() string {
	if int(s) < len(ledStateNames) {
		return ledStateNames[s]
	}
	return "unknown"
}

// ParseLEDState maps a name from config or the bus to a state.
func ParseLEDState(name string) (LEDState, bool) {
	for i, n := range ledStateNames {
		if n == name {
			return LEDState(i), true
		}
	}
	return 0, false
}

// SpeakerMode selects silence, a single timed tone or a sustained tone.
type SpeakerMode uint8

const (
	SpeakerOff SpeakerMode = iota
	SpeakerOneShot
	SpeakerContinuous
)

var speakerModeNames = [...]string{
	SpeakerOff:        "off",
	SpeakerOneShot:    "oneshot",
	SpeakerContinuous: "continuous",
}

func (m SpeakerMode) String() string {
	if int(m) < len(speakerModeNames) {
		return speakerModeNames[m]
	}
	return "unknown"
}

func ParseSpeakerMode(name string) (SpeakerMode, bool) {
	for i, n := range speakerModeNames {
		if n == name {
			return SpeakerMode(i), true
		}
	}
	return 0, false
}

// SpeakerSound names a tone; each maps to a frequency and a one-shot duration.
type SpeakerSound uint8

const (
	Warning1 SpeakerSound = iota
	Warning2
	TrackBalance

	// NumSounds bounds the sound lookup table.
	NumSounds
)

var speakerSoundNames = [...]string{
	Warning1:     "warning1",
	Warning2:     "warning2",
	TrackBalance: "track_balance",
}

func (s SpeakerSound) String() string {
	if int(s) < len(speakerSoundNames) {
		return speakerSoundNames[s]
	}
	return "unknown"
}

func ParseSpeakerSound(name string) (SpeakerSound, bool) {
	for i, n := range speakerSoundNames {
		if n == name {
			return SpeakerSound(i), true
		}
	}
	return 0, false
}
