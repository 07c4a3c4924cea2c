// cmd/boardtest/main.go
//
// Board bring-up check: starts the indicators from the board config, then
// walks every LED through each state and plays every sound over the bus,
// logging each reply. The first LED reports the result of a cycle.
package main

import (
	"context"
	"log/slog"
	"time"

	"indicator-go/bus"
	"indicator-go/logging"
	"indicator-go/services/config"
	"indicator-go/services/indicator"
	"indicator-go/services/indicator/platform"
	"indicator-go/services/signals"
	"indicator-go/types"
)

// ---------- Configuration ----------

const (
	device = "pico"

	readyTimeout = 5 * time.Second
	replyTimeout = time.Second

	dwellLED     = 1500 * time.Millisecond
	dwellSound   = 600 * time.Millisecond
	dwellTone    = time.Second
	betweenCycle = 3 * time.Second

	// Cycles: 0 = loop forever
	cyclesToRun = 0
)

var ledSteps = []types.LEDState{
	types.LEDOnContinuous,
	types.LEDOff,
	types.LEDFastBlink,
	types.LEDSlowBlink,
}

// ---------- Topics ----------

func tLEDSet(name string) bus.Topic {
	return bus.T("signals", string(types.KindLED), name, "set")
}
func tSpeakerSet(name string) bus.Topic {
	return bus.T("signals", string(types.KindSpeaker), name, "set")
}
func tSignalsState() bus.Topic { return bus.T("signals", "state") }

// ---------- Helpers ----------

func waitSignalsReady(c *bus.Connection, d time.Duration) bool {
	sub := c.Subscribe(tSignalsState())
	defer c.Unsubscribe(sub)

	dead := time.Now().Add(d)
	for time.Now().Before(dead) {
		select {
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.ServiceState); ok && st.Level == "ready" {
				return true
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	return false
}

// set sends one set request and reports whether it was applied.
func set(ctx context.Context, ui *bus.Connection, log *slog.Logger, topic bus.Topic, payload any) bool {
	rctx, cancel := context.WithTimeout(ctx, replyTimeout)
	defer cancel()
	reply, err := ui.RequestWait(rctx, ui.NewMessage(topic, payload, false))
	if err != nil {
		log.Error("no reply", "topic", topic, "error", err)
		return false
	}
	r, ok := reply.Payload.(types.OKReply)
	if !ok || !r.OK {
		log.Error("set rejected", "topic", topic, "reply", reply.Payload)
		return false
	}
	log.Info("set", "topic", topic, "value", payload)
	return true
}

func ledFlashPassFail(ctx context.Context, ui *bus.Connection, log *slog.Logger, name string, pass bool) {
	if pass {
		// Fast blink for a pass
		set(ctx, ui, log, tLEDSet(name), types.LEDSet{State: types.LEDFastBlink})
	} else {
		// Solid for a fail
		set(ctx, ui, log, tLEDSet(name), types.LEDSet{State: types.LEDOnContinuous})
	}
	time.Sleep(betweenCycle)
}

// ---------- Main ----------

func main() {
	time.Sleep(2 * time.Second)
	ctx := context.Background()

	c, err := config.Load(device)
	if err != nil {
		println("[boardtest] config:", err.Error())
		select {}
	}
	if w, err := platform.Console(c.Console.Baud, c.Console.TX, c.Console.RX); err != nil {
		println("[boardtest] console:", err.Error())
	} else {
		logging.SetOutput(w)
	}
	logging.Initialize(c.Logging)
	log := logging.GetLogger("boardtest")

	tun, err := c.Tunables()
	if err != nil {
		log.Error("timing rejected", "error", err)
		select {}
	}
	rt := indicator.NewRuntime(ctx, c.RuntimeOptions(
		indicator.NewWallClock(tun.TickRateHz), platform.DefaultRegistry(c.SpeakerPins()...), &tun))
	ind, err := c.BringUp(rt, log)
	pass := err == nil

	// Local bus and connections
	b := bus.NewBus(8)
	sig := signals.New(b.NewConnection("signals"))
	for name, h := range ind.LEDs {
		sig.AddLED(name, h)
	}
	for name, h := range ind.Speakers {
		sig.AddSpeaker(name, h)
	}
	ui := b.NewConnection("ui")
	_ = sig.Start(ctx)

	if !waitSignalsReady(ui, readyTimeout) {
		log.Warn("signals not ready within timeout; continuing")
	}

	var status string
	if len(c.LEDs) > 0 {
		status = c.LEDs[0].Name
	}

	for cycle := 1; cyclesToRun == 0 || cycle <= cyclesToRun; cycle++ {
		log.Info("cycle start", "cycle", cycle)
		ok := pass

		for _, l := range c.LEDs {
			if _, up := ind.LEDs[l.Name]; !up {
				continue
			}
			for _, st := range ledSteps {
				ok = set(ctx, ui, log, tLEDSet(l.Name), types.LEDSet{State: st}) && ok
				time.Sleep(dwellLED)
			}
			ok = set(ctx, ui, log, tLEDSet(l.Name), types.LEDSet{State: types.LEDOff}) && ok
		}

		if s := c.Speaker; s != nil {
			if _, up := ind.Speakers[s.Name]; up {
				for snd := types.SpeakerSound(0); snd < types.NumSounds; snd++ {
					ok = set(ctx, ui, log, tSpeakerSet(s.Name), types.SpeakerSet{Mode: types.SpeakerOneShot, Sound: snd}) && ok
					time.Sleep(dwellSound)
				}
				ok = set(ctx, ui, log, tSpeakerSet(s.Name), types.SpeakerSet{Mode: types.SpeakerContinuous, Sound: types.Warning1}) && ok
				time.Sleep(dwellTone)
				ok = set(ctx, ui, log, tSpeakerSet(s.Name), types.SpeakerSet{Mode: types.SpeakerOff, Sound: types.Warning1}) && ok
			}
		}

		log.Info("cycle done", "cycle", cycle, "pass", ok, "units", len(rt.Tasks()))
		if status != "" {
			ledFlashPassFail(ctx, ui, log, status, ok)
		} else {
			time.Sleep(betweenCycle)
		}
	}
	select {}
}
