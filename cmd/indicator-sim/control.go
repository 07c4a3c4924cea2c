//go:build !tinygo

package main

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"indicator-go/bus"
	"indicator-go/errcode"
	"indicator-go/types"
)

// controlFile is the document `run --control` watches. Every load is
// published in full as set requests:
//
//	[led]
//	red = "fast_blink"
//
//	[speaker.piezo]
//	mode = "oneshot"
//	sound = "warning2"
type controlFile struct {
	LEDs     map[string]string         `toml:"led"`
	Speakers map[string]speakerControl `toml:"speaker"`
}

type speakerControl struct {
	Mode  string `toml:"mode"`
	Sound string `toml:"sound"`
}

// controlSets is a parsed control file, ready to publish.
type controlSets struct {
	leds     map[string]types.LEDSet
	speakers map[string]types.SpeakerSet
}

func parseControl(raw []byte) (controlSets, error) {
	var f controlFile
	if err := toml.Unmarshal(raw, &f); err != nil {
		return controlSets{}, errcode.Wrap(errcode.InvalidPayload, "control", err)
	}
	cs := controlSets{leds: map[string]types.LEDSet{}, speakers: map[string]types.SpeakerSet{}}
	for name, v := range f.LEDs {
		st, ok := types.ParseLEDState(v)
		if !ok {
			return controlSets{}, &errcode.E{C: errcode.InvalidParams, Op: "control", Msg: name + ": unknown state " + v}
		}
		cs.leds[name] = types.LEDSet{State: st}
	}
	for name, v := range f.Speakers {
		if v.Sound == "" {
			v.Sound = types.Warning1.String()
		}
		m, ok := types.ParseSpeakerMode(v.Mode)
		if !ok {
			return controlSets{}, &errcode.E{C: errcode.InvalidParams, Op: "control", Msg: name + ": unknown mode " + v.Mode}
		}
		s, ok := types.ParseSpeakerSound(v.Sound)
		if !ok {
			return controlSets{}, &errcode.E{C: errcode.InvalidParams, Op: "control", Msg: name + ": unknown sound " + v.Sound}
		}
		cs.speakers[name] = types.SpeakerSet{Mode: m, Sound: s}
	}
	return cs, nil
}

func loadControl(path string) (controlSets, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return controlSets{}, err
	}
	return parseControl(raw)
}

// publish sends one set request per entry, in name order.
func (cs controlSets) publish(conn *bus.Connection) {
	for _, name := range slices.Sorted(maps.Keys(cs.leds)) {
		conn.Publish(conn.NewMessage(
			bus.T("signals", string(types.KindLED), name, "set"), cs.leds[name], false))
	}
	for _, name := range slices.Sorted(maps.Keys(cs.speakers)) {
		conn.Publish(conn.NewMessage(
			bus.T("signals", string(types.KindSpeaker), name, "set"), cs.speakers[name], false))
	}
}

// watchControl loads path once, then again after every write settles for
// debounce, handing each successful load to apply. It returns when ctx ends.
func watchControl(ctx context.Context, path string, debounce time.Duration, log *slog.Logger, apply func(controlSets)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := w.Add(path); err != nil {
		w.Close()
		return err
	}

	load := func() {
		cs, err := loadControl(path)
		if err != nil {
			log.Warn("control file rejected", "path", path, "error", err)
			return
		}
		log.Info("control file applied", "path", path, "leds", len(cs.leds), "speakers", len(cs.speakers))
		apply(cs)
	}
	load()

	go func() {
		defer w.Close()
		var (
			timer  *time.Timer
			timerC <-chan time.Time
		)
		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				// Some editors replace the file rather than write it.
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.NewTimer(debounce)
				timerC = timer.C
			case <-timerC:
				timerC = nil
				load()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("control watcher error", "error", err)
			}
		}
	}()
	return nil
}
