// Package signals exposes indicator handles on the bus. It is one more
// external writer of handle fields: a set message stores the new value and
// returns; the controller picks it up on its next poll.
package signals

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"indicator-go/bus"
	"indicator-go/errcode"
	"indicator-go/logging"
	"indicator-go/services/indicator"
	"indicator-go/types"
	"indicator-go/x/timex"
)

const (
	tokSignals = "signals"
	tokSet     = "set"
	tokState   = "state"
	tokInfo    = "info"

	defaultReport = 500 * time.Millisecond
)

var topicConfigSignals = bus.Topic{"config", "signals"}

// Config is the payload of config/signals.
type Config struct {
	ReportMs uint32 `toml:"report_ms"`
}

type ledEntry struct {
	h    *indicator.LEDHandle
	last types.LEDState
	seen bool
}

type speakerEntry struct {
	h         *indicator.SpeakerHandle
	lastMode  types.SpeakerMode
	lastSound types.SpeakerSound
	seen      bool
}

type Service struct {
	conn *bus.Connection
	log  *slog.Logger

	mu       sync.Mutex
	leds     map[string]*ledEntry
	speakers map[string]*speakerEntry
}

func New(conn *bus.Connection) *Service {
	return &Service{
		conn:     conn,
		log:      logging.GetLogger("signals"),
		leds:     map[string]*ledEntry{},
		speakers: map[string]*speakerEntry{},
	}
}

// AddLED exposes h under signals/led/<name>. Register handles before Start.
func (s *Service) AddLED(name string, h *indicator.LEDHandle) {
	s.mu.Lock()
	s.leds[name] = &ledEntry{h: h}
	s.mu.Unlock()
	s.conn.Publish(s.conn.NewMessage(
		bus.T(tokSignals, string(types.KindLED), name, tokInfo),
		types.Info{SchemaVersion: 1, Driver: "gpio_led", Detail: types.LEDInfo{Pin: h.Pin}},
		true))
}

// AddSpeaker exposes h under signals/speaker/<name>.
func (s *Service) AddSpeaker(name string, h *indicator.SpeakerHandle) {
	s.mu.Lock()
	s.speakers[name] = &speakerEntry{h: h}
	s.mu.Unlock()
	s.conn.Publish(s.conn.NewMessage(
		bus.T(tokSignals, string(types.KindSpeaker), name, tokInfo),
		types.Info{SchemaVersion: 1, Driver: "gpio_speaker", Detail: types.SpeakerInfo{Pin: h.Pin}},
		true))
}

func (s *Service) serviceLoop(ctx context.Context, ledSub, spkSub, cfgSub *bus.Subscription) {
	defer s.conn.Unsubscribe(ledSub)
	defer s.conn.Unsubscribe(spkSub)
	defer s.conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(defaultReport)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.publishState("stopped", "context_done")
			s.log.Info("signals service stopping")
			return
		case <-tick.C:
			s.report(false)
		case msg := <-ledSub.Channel():
			s.handleLEDSet(msg)
		case msg := <-spkSub.Channel():
			s.handleSpeakerSet(msg)
		case msg := <-cfgSub.Channel():
			if d, ok := reportInterval(msg.Payload); ok {
				tick.Reset(d)
				s.log.Debug("report interval set", "interval", d)
			}
		}
	}
}

// Start subscribes, publishes the initial states and runs the service
// until ctx ends. Sets published after Start returns are not missed.
func (s *Service) Start(ctx context.Context) error {
	ledSub := s.conn.Subscribe(bus.T(tokSignals, string(types.KindLED), bus.SingleWild, tokSet))
	spkSub := s.conn.Subscribe(bus.T(tokSignals, string(types.KindSpeaker), bus.SingleWild, tokSet))
	cfgSub := s.conn.Subscribe(topicConfigSignals)

	s.publishState("ready", "running")
	s.report(true)
	go s.serviceLoop(ctx, ledSub, spkSub, cfgSub)
	return nil
}

func (s *Service) handleLEDSet(msg *bus.Message) {
	name, _ := msg.Topic[2].(string)
	s.mu.Lock()
	e, ok := s.leds[name]
	s.mu.Unlock()
	if !ok {
		s.reply(msg, errcode.UnknownDevice)
		return
	}
	st, err := decodeLEDSet(msg.Payload)
	if err != nil {
		s.reply(msg, err)
		return
	}
	e.h.State.Store(st.State)
	s.log.Debug("led set", "led", name, "state", st.State.String())
	s.report(false)
	s.reply(msg, nil)
}

func (s *Service) handleSpeakerSet(msg *bus.Message) {
	name, _ := msg.Topic[2].(string)
	s.mu.Lock()
	e, ok := s.speakers[name]
	s.mu.Unlock()
	if !ok {
		s.reply(msg, errcode.UnknownDevice)
		return
	}
	set, err := decodeSpeakerSet(msg.Payload)
	if err != nil {
		s.reply(msg, err)
		return
	}
	// Sound first, so a mode change never plays the previous sound.
	e.h.Sound.Store(set.Sound)
	e.h.Mode.Store(set.Mode)
	s.log.Debug("speaker set", "speaker", name, "mode", set.Mode.String(), "sound", set.Sound.String())
	s.report(false)
	s.reply(msg, nil)
}

// report publishes a retained state for every handle whose fields changed
// since the last report, or for all of them when force is set.
func (s *Service) report(force bool) {
	now := timex.NowMs()
	s.mu.Lock()
	defer s.mu.Unlock()
	for name, e := range s.leds {
		st := e.h.State.Load()
		if !force && e.seen && st == e.last {
			continue
		}
		e.last, e.seen = st, true
		s.conn.Publish(s.conn.NewMessage(
			bus.T(tokSignals, string(types.KindLED), name, tokState),
			types.LEDValue{State: st, TS: now}, true))
	}
	for name, e := range s.speakers {
		m, snd := e.h.Mode.Load(), e.h.Sound.Load()
		if !force && e.seen && m == e.lastMode && snd == e.lastSound {
			continue
		}
		e.lastMode, e.lastSound, e.seen = m, snd, true
		s.conn.Publish(s.conn.NewMessage(
			bus.T(tokSignals, string(types.KindSpeaker), name, tokState),
			types.SpeakerValue{Mode: m, Sound: snd, TS: now}, true))
	}
}

func (s *Service) reply(msg *bus.Message, err error) {
	if err != nil {
		s.log.Warn("set rejected", "topic", msg.Topic, "error", err)
		s.conn.Reply(msg, types.OKReply{OK: false, Error: string(errcode.Of(err))}, false)
		return
	}
	s.conn.Reply(msg, types.OKReply{OK: true}, false)
}

func (s *Service) publishState(level, status string) {
	s.conn.Publish(s.conn.NewMessage(
		bus.T(tokSignals, tokState),
		types.ServiceState{Level: level, Status: status, TS: timex.NowMs()},
		true))
}
