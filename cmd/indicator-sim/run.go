//go:build !tinygo

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/spf13/cobra"

	"indicator-go/bus"
	"indicator-go/logging"
	"indicator-go/services/config"
	"indicator-go/services/indicator"
	"indicator-go/services/indicator/platform"
	"indicator-go/services/signals"
)

type runOptions struct {
	tickRate uint32
	tower    string
	baud     int
	control  string
	debounce time.Duration
}

func newRunCmd(g *globalOptions) *cobra.Command {
	o := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the controllers in real time until interrupted",
		Long: `Run brings the configured controllers up on the wall clock and exposes
them on the in-process bus. With --tower the LEDs named red, yellow and
green and the speaker drive a serial tower light; with --control a TOML
file is watched and every change is published as set requests.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.load()
			if err != nil {
				return err
			}
			return run(cmd.Context(), c, *o)
		},
	}
	f := cmd.Flags()
	f.Uint32Var(&o.tickRate, "tick-rate", 1000, "wall clock tick rate (0 keeps timing.tick_rate_hz)")
	f.StringVar(&o.tower, "tower", "", "serial port of a tower light")
	f.IntVar(&o.baud, "baud", 9600, "tower light baud rate")
	f.StringVar(&o.control, "control", "", "control file to watch")
	f.DurationVar(&o.debounce, "debounce", 300*time.Millisecond, "control file debounce")
	return cmd
}

func run(ctx context.Context, c config.Config, o runOptions) error {
	log := logging.GetLogger("run")
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tun, err := c.Tunables()
	if err != nil {
		return err
	}
	if o.tickRate != 0 {
		tun.TickRateHz = o.tickRate
	}

	host := &platform.HostPinFactory{}
	open := platform.Opener(host.ByNumber)
	if o.tower != "" {
		tl, err := platform.OpenTowerLight(o.tower, o.baud)
		if err != nil {
			return err
		}
		defer tl.Close()
		open = tl.Opener(towerLamps(c), host.ByNumber)
		log.Info("tower light attached", "port", o.tower, "baud", o.baud)
	}

	rtCtx, cancel := context.WithCancel(ctx)
	rt := indicator.NewRuntime(rtCtx, c.RuntimeOptions(indicator.NewWallClock(tun.TickRateHz), platform.NewRegistry(open), &tun))
	defer func() {
		cancel()
		rt.Wait()
	}()
	r, err := c.BringUp(rt, log)
	if err != nil {
		return err
	}

	b := bus.NewBus(16)
	svc := signals.New(b.NewConnection("signals"))
	for name, h := range r.LEDs {
		svc.AddLED(name, h)
	}
	for name, h := range r.Speakers {
		svc.AddSpeaker(name, h)
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}

	conn := b.NewConnection("indicator-sim")
	conn.Publish(conn.NewMessage(bus.T("config", "signals"), c.Signals, true))
	go logStates(ctx, conn, log)

	if o.control != "" {
		if err := watchControl(ctx, o.control, o.debounce, log, func(cs controlSets) { cs.publish(conn) }); err != nil {
			return err
		}
	}

	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Warn("sd_notify failed", "error", err)
	} else if ok {
		log.Debug("notified systemd")
	}
	log.Info("running", "leds", len(r.LEDs), "speakers", len(r.Speakers), "tick_rate_hz", tun.TickRateHz)

	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	log.Info("stopping")
	return nil
}

// towerLamps maps wired pins onto tower lamps by device name.
func towerLamps(c config.Config) map[int]platform.Lamp {
	byName := map[string]platform.Lamp{
		"red":    platform.LampRed,
		"yellow": platform.LampYellow,
		"green":  platform.LampGreen,
	}
	m := map[int]platform.Lamp{}
	for _, l := range c.LEDs {
		if lamp, ok := byName[l.Name]; ok {
			m[l.Pin] = lamp
		}
	}
	if s := c.Speaker; s != nil {
		m[s.Pin] = platform.LampBuzzer
	}
	return m
}

// logStates logs every reported state change.
func logStates(ctx context.Context, conn *bus.Connection, log *slog.Logger) {
	sub := conn.Subscribe(bus.T("signals", bus.SingleWild, bus.SingleWild, "state"))
	defer conn.Unsubscribe(sub)
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-sub.Channel():
			log.Info("state", "topic", msg.Topic, "value", msg.Payload)
		}
	}
}
