package config

import (
	"context"
	"errors"

	"indicator-go/bus"
	"indicator-go/errcode"
	"indicator-go/logging"
	"indicator-go/services/heartbeat"
	"indicator-go/services/indicator"
	"indicator-go/services/signals"
	"indicator-go/types"
	"indicator-go/x/mathx"
	"indicator-go/x/strx"

	"github.com/pelletier/go-toml/v2"
)

const (
	serviceName  = "config"
	configPrefix = "config"
	CtxDeviceKey = "device" // context key used for device ID

	// GPIOMax bounds wiring on the supported boards.
	GPIOMax = 28
)

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// -----------------------------------------------------------------------------
// Document
// -----------------------------------------------------------------------------

// Config is one device's document. Tables left out keep their defaults.
type Config struct {
	Logging   logging.Config         `toml:"logging"`
	Console   Console                `toml:"console"`
	Timing    Timing                 `toml:"timing"`
	Sounds    map[string]SoundConfig `toml:"sounds"`
	Runtime   RuntimeLimits          `toml:"runtime"`
	Signals   signals.Config         `toml:"signals"`
	Heartbeat heartbeat.Config       `toml:"heartbeat"`
	LEDs      []LED                  `toml:"led"`
	Speaker   *Speaker               `toml:"speaker"`
}

type Console struct {
	Baud uint32 `toml:"baud"`
	TX   int    `toml:"tx"`
	RX   int    `toml:"rx"`
}

type Timing struct {
	TickRateHz      uint32 `toml:"tick_rate_hz"`
	LEDFastPeriodMs uint32 `toml:"led_fast_period_ms"`
	LEDSlowPeriodMs uint32 `toml:"led_slow_period_ms"`
	LEDIdleMs       uint32 `toml:"led_idle_ms"`
	SpeakerIdleMs   uint32 `toml:"speaker_idle_ms"`
	SpeakerPoll     uint32 `toml:"speaker_poll_ticks"`
	OneShotSettleMs uint32 `toml:"oneshot_settle_ms"`
	BlipMs          uint32 `toml:"blip_ms"`
}

type SoundConfig struct {
	FreqHz     uint32 `toml:"freq_hz"`
	DurationMs uint32 `toml:"duration_ms"`
}

type RuntimeLimits struct {
	MaxLEDs     int    `toml:"max_leds"`
	MaxSpeakers int    `toml:"max_speakers"`
	MaxUnits    int    `toml:"max_units"`
	StackBudget uint32 `toml:"stack_budget"`
}

type LED struct {
	Name       string `toml:"name"`
	Pin        int    `toml:"pin"`
	Initial    string `toml:"initial"`
	Priority   uint8  `toml:"priority"`
	StackWords uint16 `toml:"stack_words"`
}

type Speaker struct {
	Name       string `toml:"name"`
	Pin        int    `toml:"pin"`
	Mode       string `toml:"mode"`
	Sound      string `toml:"sound"`
	Priority   uint8  `toml:"priority"`
	StackWords uint16 `toml:"stack_words"`
}

// Defaults returns the document every parse starts from.
func Defaults() Config {
	t := indicator.DefaultTunables()
	c := Config{
		Logging: logging.Config{Level: "info", Format: "text"},
		Console: Console{Baud: 115200, TX: 0, RX: 1},
		Timing: Timing{
			TickRateHz:      t.TickRateHz,
			LEDFastPeriodMs: t.LEDFastPeriodMs,
			LEDSlowPeriodMs: t.LEDSlowPeriodMs,
			LEDIdleMs:       t.LEDIdleMs,
			SpeakerIdleMs:   t.SpeakerIdleMs,
			SpeakerPoll:     uint32(t.SpeakerPoll),
			OneShotSettleMs: t.OneShotSettleMs,
			BlipMs:          t.BlipMs,
		},
		Sounds: map[string]SoundConfig{},
		Runtime: RuntimeLimits{
			MaxLEDs:     indicator.DefaultMaxLEDs,
			MaxSpeakers: indicator.DefaultMaxSpeakers,
			MaxUnits:    indicator.DefaultMaxUnits,
			StackBudget: indicator.DefaultStackBudget,
		},
		Signals:   signals.Config{ReportMs: 500},
		Heartbeat: heartbeat.Config{IntervalMs: 10000},
	}
	for s := types.SpeakerSound(0); s < types.NumSounds; s++ {
		tone := t.Sounds.Lookup(s)
		c.Sounds[s.String()] = SoundConfig{FreqHz: tone.FreqHz, DurationMs: tone.DurationMs}
	}
	return c
}

// Parse overlays raw onto Defaults and validates the result.
func Parse(raw []byte) (Config, error) {
	c := Defaults()
	if err := toml.Unmarshal(raw, &c); err != nil {
		return Config{}, errcode.Wrap(errcode.InvalidPayload, "config_parse", err)
	}
	for i := range c.LEDs {
		l := &c.LEDs[i]
		l.Initial = strx.Coalesce(l.Initial, types.LEDOff.String())
		if l.StackWords == 0 {
			l.StackWords = 256
		}
		if l.Priority == 0 {
			l.Priority = 1
		}
	}
	if s := c.Speaker; s != nil {
		s.Name = strx.Coalesce(s.Name, "speaker")
		s.Mode = strx.Coalesce(s.Mode, types.SpeakerOff.String())
		s.Sound = strx.Coalesce(s.Sound, types.Warning1.String())
		if s.StackWords == 0 {
			s.StackWords = 256
		}
		if s.Priority == 0 {
			s.Priority = 1
		}
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load parses the embedded document for device.
func Load(device string) (Config, error) {
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return Config{}, &errcode.E{C: errcode.UnknownDevice, Op: "config_load", Msg: device}
	}
	return Parse(raw)
}

func invalid(msg string) error {
	return &errcode.E{C: errcode.InvalidParams, Op: "config_validate", Msg: msg}
}

// Validate checks wiring and names. Timing values are checked by Tunables.
func (c Config) Validate() error {
	used := map[int]string{}
	claim := func(owner string, pin int) error {
		if !mathx.Between(pin, 0, GPIOMax) {
			return invalid(owner + ": pin out of range")
		}
		if prev, ok := used[pin]; ok {
			return invalid(owner + ": pin shared with " + prev)
		}
		used[pin] = owner
		return nil
	}
	names := map[string]bool{}
	for _, l := range c.LEDs {
		if l.Name == "" {
			return invalid("led: missing name")
		}
		if names[l.Name] {
			return invalid("led " + l.Name + ": duplicate name")
		}
		names[l.Name] = true
		if err := claim("led "+l.Name, l.Pin); err != nil {
			return err
		}
		if _, ok := types.ParseLEDState(l.Initial); !ok {
			return invalid("led " + l.Name + ": unknown state " + l.Initial)
		}
		if l.StackWords < indicator.MinStackWords {
			return invalid("led " + l.Name + ": stack_words below minimum")
		}
	}
	if s := c.Speaker; s != nil {
		if err := claim("speaker "+s.Name, s.Pin); err != nil {
			return err
		}
		if _, ok := types.ParseSpeakerMode(s.Mode); !ok {
			return invalid("speaker: unknown mode " + s.Mode)
		}
		if _, ok := types.ParseSpeakerSound(s.Sound); !ok {
			return invalid("speaker: unknown sound " + s.Sound)
		}
		if s.StackWords < indicator.MinStackWords {
			return invalid("speaker: stack_words below minimum")
		}
	}
	for name := range c.Sounds {
		if _, ok := types.ParseSpeakerSound(name); !ok {
			return invalid("sounds: unknown sound " + name)
		}
	}
	_, err := c.Tunables()
	return err
}

// Tunables converts the timing and sound tables for the controllers.
func (c Config) Tunables() (indicator.Tunables, error) {
	t := c.Timing
	if t.TickRateHz == 0 {
		return indicator.Tunables{}, invalid("timing: tick_rate_hz must be positive")
	}
	if t.LEDFastPeriodMs == 0 || t.LEDSlowPeriodMs == 0 {
		return indicator.Tunables{}, invalid("timing: blink periods must be positive")
	}
	m := make(map[types.SpeakerSound]indicator.Tone, len(c.Sounds))
	for name, sc := range c.Sounds {
		s, ok := types.ParseSpeakerSound(name)
		if !ok {
			return indicator.Tunables{}, invalid("sounds: unknown sound " + name)
		}
		m[s] = indicator.Tone{FreqHz: sc.FreqHz, DurationMs: sc.DurationMs}
	}
	return indicator.Tunables{
		TickRateHz:      t.TickRateHz,
		LEDFastPeriodMs: t.LEDFastPeriodMs,
		LEDSlowPeriodMs: t.LEDSlowPeriodMs,
		LEDIdleMs:       t.LEDIdleMs,
		SpeakerIdleMs:   t.SpeakerIdleMs,
		SpeakerPoll:     indicator.Ticks(t.SpeakerPoll),
		OneShotSettleMs: t.OneShotSettleMs,
		BlipMs:          t.BlipMs,
		Sounds:          indicator.NewSoundTable(m),
	}, nil
}

// -----------------------------------------------------------------------------
// Config Service
// -----------------------------------------------------------------------------

type ConfigService struct {
	Name string
}

func NewConfigService() *ConfigService {
	return &ConfigService{Name: serviceName}
}

// publishConfig loads the device config and publishes each section as a
// retained message under config/<section>.
func (s *ConfigService) publishConfig(ctx context.Context, conn *bus.Connection) error {
	device, _ := ctx.Value(CtxDeviceKey).(string)
	if device == "" {
		return errors.New("missing device ID in context")
	}
	c, err := Load(device)
	if err != nil {
		return err
	}
	tun, err := c.Tunables()
	if err != nil {
		return err
	}

	sections := map[string]any{
		"logging":   c.Logging,
		"signals":   c.Signals,
		"heartbeat": c.Heartbeat,
		"indicator": tun,
	}
	for k, v := range sections {
		conn.Publish(&bus.Message{
			Topic:    bus.T(configPrefix, k),
			Payload:  v,
			Retained: true,
		})
	}
	return nil
}

// Start launches the config publisher in a goroutine.
func (s *ConfigService) Start(ctx context.Context, conn *bus.Connection) {
	go func() {
		if err := s.publishConfig(ctx, conn); err != nil {
			logging.GetLogger(serviceName).Error("publish failed", "error", err)
		}
	}()
}
