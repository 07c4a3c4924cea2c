package indicator

// Wave is a square-wave generator driven purely by tick readings. Step
// returns the next generator state, so the speaker unit and a test harness
// advance it identically.
//
// Mark is the tick of the most recent scheduled edge; the next edge is due at
// Mark+Half. Each edge advances Mark by exactly Half, so late polls delay an
// edge without shifting the ones after it.
type Wave struct {
	Enabled bool
	Half    Ticks
	Level   bool
	Mark    Tick
	Edges   uint32
}

// StartWave returns a generator at level low, phase-anchored on now.
// half == 0 yields a disabled (silent) generator.
func StartWave(now Tick, half Ticks) Wave {
	return Wave{Enabled: half > 0, Half: half, Mark: now}
}

// Deadline is the tick at which the next edge is due.
func (w Wave) Deadline() Tick { return w.Mark.Add(w.Half) }

// Step toggles the level if the deadline has been reached and returns the new
// state and the level the pin should hold. At most one edge per call.
func (w Wave) Step(now Tick) (Wave, bool) {
	if w.Enabled && w.Half > 0 && now.Since(w.Mark) >= w.Half {
		w.Level = !w.Level
		w.Mark = w.Mark.Add(w.Half)
		w.Edges++
	}
	return w, w.Level
}

// Stop disables the generator and drops the level low.
func (w Wave) Stop() Wave {
	w.Enabled = false
	w.Level = false
	return w
}
