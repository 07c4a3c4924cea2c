//go:build !tinygo

package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/kelindar/event"
	"github.com/spf13/cobra"

	"indicator-go/logging"
	"indicator-go/services/config"
	"indicator-go/services/indicator"
	"indicator-go/services/indicator/platform"
	"indicator-go/services/indicator/simclock"
)

type simulateOptions struct {
	durationMs uint32
	tickRate   uint32
	initial    []string
	script     []string
	timeline   bool
	metrics    bool
}

// simResult is what a finished run produced.
type simResult struct {
	Rate     uint32
	Elapsed  indicator.Ticks
	Pins     []PinSummary
	Timeline []EdgeEvent
	Metrics  *Metrics
}

func newSimulateCmd(g *globalOptions) *cobra.Command {
	o := &simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the controllers on a virtual clock and summarise pin activity",
		Example: `  indicator-sim simulate --duration-ms 3000 --at 1000:red=off
  indicator-sim simulate -d pico --initial piezo=continuous/warning2 --timeline`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.load()
			if err != nil {
				return err
			}
			res, err := simulate(cmd.Context(), c, *o)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res, *o)
		},
	}
	f := cmd.Flags()
	f.Uint32Var(&o.durationMs, "duration-ms", 2000, "virtual run length")
	f.Uint32Var(&o.tickRate, "tick-rate", 0, "override timing.tick_rate_hz")
	f.StringArrayVar(&o.initial, "initial", nil, "initial value override, name=value (repeatable)")
	f.StringArrayVar(&o.script, "at", nil, "scripted write, ms:name=value (repeatable)")
	f.BoolVar(&o.timeline, "timeline", false, "print every edge")
	f.BoolVar(&o.metrics, "metrics", false, "print prometheus text exposition")
	return cmd
}

// simulate brings the configured controllers up on a lock-step clock, plays
// the script against their handles and reports what the pins did.
func simulate(ctx context.Context, c config.Config, o simulateOptions) (*simResult, error) {
	log := logging.GetLogger("sim")
	if err := applyInitial(&c, o.initial); err != nil {
		return nil, err
	}
	script, err := parseScript(o.script)
	if err != nil {
		return nil, err
	}
	tun, err := c.Tunables()
	if err != nil {
		return nil, err
	}
	if o.tickRate != 0 {
		tun.TickRateHz = o.tickRate
	}

	clock := simclock.New(tun.TickRateHz, 0)
	names := pinNames(c)

	d := event.NewDispatcher()
	rec := NewRecorder()
	met := NewMetrics(tun.TickRateHz)
	for _, n := range names {
		met.Register(n)
	}
	unsubRec := event.Subscribe(d, rec.OnEdge)
	defer unsubRec()
	unsubMet := event.Subscribe(d, met.OnEdge)
	defer unsubMet()

	pins := &platform.HostPinFactory{OnSet: func(n int, level bool) {
		event.Publish(d, EdgeEvent{Device: names[n], Pin: n, Level: level, At: clock.Now()})
	}}

	runCtx, cancel := context.WithCancel(ctx)
	rt := indicator.NewRuntime(runCtx, c.RuntimeOptions(clock, platform.NewHostRegistry(pins), &tun))
	defer func() {
		cancel()
		rt.Wait()
	}()
	ind, err := c.BringUp(rt, log)
	if err != nil {
		return nil, err
	}
	r := &rig{ind}

	clock.Settle()
	start := clock.Now()
	var elapsed uint32
	for _, a := range script {
		if a.AtMs > o.durationMs {
			log.Warn("action after end of run ignored", "at_ms", a.AtMs, "target", a.Target)
			continue
		}
		clock.AdvanceMs(a.AtMs - elapsed)
		elapsed = a.AtMs
		if err := r.apply(a.Target, a.Value); err != nil {
			return nil, err
		}
		log.Debug("applied", "at_ms", a.AtMs, "target", a.Target, "value", a.Value)
	}
	clock.AdvanceMs(o.durationMs - elapsed)
	end := clock.Now()

	// Units are quiescent here; anything they write while stopping comes
	// after the end marker and is not counted.
	event.Publish(d, endOfRun(end))
	waitCtx, stop := context.WithTimeout(ctx, 5*time.Second)
	defer stop()
	if err := rec.Wait(waitCtx); err != nil {
		return nil, err
	}
	select {
	case <-met.Done():
	case <-waitCtx.Done():
		return nil, waitCtx.Err()
	}
	met.SetElapsed(end.Since(start))

	return &simResult{
		Rate:     tun.TickRateHz,
		Elapsed:  end.Since(start),
		Pins:     rec.Summary(start, names),
		Timeline: rec.Timeline(start),
		Metrics:  met,
	}, nil
}

func printResult(w io.Writer, res *simResult, o simulateOptions) error {
	ms := func(t float64) float64 { return t * 1000 / float64(res.Rate) }

	fmt.Fprintf(w, "simulated %.1f ms at %d Hz\n\n", ms(float64(res.Elapsed)), res.Rate)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DEVICE\tPIN\tEDGES\tHIGH ms\tDUTY\tPERIOD ms")
	for _, p := range res.Pins {
		period := "-"
		if p.MeanPeriod > 0 {
			period = fmt.Sprintf("%.2f", ms(p.MeanPeriod))
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f\t%.3f\t%s\n",
			p.Device, p.Pin, p.Edges, ms(float64(p.HighTicks)), p.Duty, period)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if o.timeline {
		fmt.Fprintln(w, "\nTICK\tDEVICE\tLEVEL")
		for _, e := range res.Timeline {
			lvl := "low"
			if e.Level {
				lvl = "high"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\n", e.At, e.Device, lvl)
		}
	}
	if o.metrics {
		fmt.Fprintln(w)
		return res.Metrics.WriteText(w)
	}
	return nil
}
