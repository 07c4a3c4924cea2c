package main

import (
	"context"
	"time"

	"indicator-go/bus"
	"indicator-go/logging"
	"indicator-go/services/config"
	"indicator-go/services/heartbeat"
	"indicator-go/services/indicator"
	"indicator-go/services/indicator/platform"
	"indicator-go/services/signals"
)

const device = "pico"

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)

	c, err := config.Load(device)
	if err != nil {
		println("config:", err.Error())
		select {}
	}
	if w, err := platform.Console(c.Console.Baud, c.Console.TX, c.Console.RX); err != nil {
		println("console:", err.Error())
	} else {
		logging.SetOutput(w)
	}
	logging.Initialize(c.Logging)
	log := logging.GetLogger("main")

	tun, err := c.Tunables()
	if err != nil {
		log.Error("timing rejected", "error", err)
		select {}
	}

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, device)

	clock := indicator.NewWallClock(tun.TickRateHz)
	rt := indicator.NewRuntime(ctx, c.RuntimeOptions(clock, platform.DefaultRegistry(c.SpeakerPins()...), &tun))

	// A failed indicator is logged and left out; the rest still run.
	ind, _ := c.BringUp(rt, log)

	b := bus.NewBus(8)
	sig := signals.New(b.NewConnection("signals"))
	for name, h := range ind.LEDs {
		sig.AddLED(name, h)
	}
	for name, h := range ind.Speakers {
		sig.AddSpeaker(name, h)
	}

	if err := sig.Start(ctx); err != nil {
		log.Error("signals start failed", "error", err)
	}
	if err := heartbeat.New(rt).Start(ctx, b.NewConnection("heartbeat")); err != nil {
		log.Error("heartbeat start failed", "error", err)
	}
	config.NewConfigService().Start(ctx, b.NewConnection("config"))

	log.Info("indicators running", "units", len(rt.Tasks()), "tick_rate_hz", tun.TickRateHz)
	select {}
}
