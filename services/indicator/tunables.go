package indicator

// Tunables are the timing constants of the controllers. Override any of them
// by building a Runtime with a modified copy of DefaultTunables.
type Tunables struct {
	TickRateHz uint32

	LEDFastPeriodMs uint32 // full period, 50% duty
	LEDSlowPeriodMs uint32 // full period, 50% duty
	LEDIdleMs       uint32 // re-poll interval while OFF or ON

	SpeakerIdleMs   uint32 // re-poll interval while OFF
	SpeakerPoll     Ticks  // toggle poll interval while sounding
	OneShotSettleMs uint32 // pause after a one-shot clears itself
	BlipMs          uint32 // one-shot length when a sound has no duration

	Sounds SoundTable
}

func DefaultTunables() Tunables {
	return Tunables{
		TickRateHz:      1000,
		LEDFastPeriodMs: 200,
		LEDSlowPeriodMs: 1000,
		LEDIdleMs:       20,
		SpeakerIdleMs:   10,
		SpeakerPoll:     1,
		OneShotSettleMs: 5,
		BlipMs:          50,
		Sounds:          DefaultSounds(),
	}
}

type ledTiming struct {
	fastHalf, slowHalf, idle Ticks
}

type speakerTiming struct {
	idle, poll, settle, blip Ticks
}

func (t Tunables) ledTiming(rate uint32) ledTiming {
	return ledTiming{
		fastHalf: atLeastOne(MsToTicks(rate, t.LEDFastPeriodMs/2)),
		slowHalf: atLeastOne(MsToTicks(rate, t.LEDSlowPeriodMs/2)),
		idle:     atLeastOne(MsToTicks(rate, t.LEDIdleMs)),
	}
}

func (t Tunables) speakerTiming(rate uint32) speakerTiming {
	return speakerTiming{
		idle:   atLeastOne(MsToTicks(rate, t.SpeakerIdleMs)),
		poll:   atLeastOne(t.SpeakerPoll),
		settle: atLeastOne(MsToTicks(rate, t.OneShotSettleMs)),
		blip:   atLeastOne(MsToTicks(rate, t.BlipMs)),
	}
}
