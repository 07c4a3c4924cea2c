//go:build !tinygo

package platform

import (
	"io"
	"sync"
	"time"

	"indicator-go/services/indicator"

	"github.com/tarm/serial"
)

// Lamp is one element of a USB serial tower light.
type Lamp byte

const (
	LampRed    Lamp = 0x01
	LampYellow Lamp = 0x02
	LampGreen  Lamp = 0x04
	LampBuzzer Lamp = 0x08
)

// Command high nibbles; the low nibble selects the lamp.
const (
	cmdOn  byte = 0x10
	cmdOff byte = 0x20
)

// TowerLight drives a serial tower light. Commands are only sent when a
// lamp changes.
type TowerLight struct {
	mu    sync.Mutex
	w     io.Writer
	c     io.Closer
	state Lamp // lamps currently on
	known bool
	err   error // first write error
}

// OpenTowerLight opens the serial device and switches every lamp off.
func OpenTowerLight(name string, baud int) (*TowerLight, error) {
	p, err := serial.OpenPort(&serial.Config{
		Name:        name,
		Baud:        baud,
		ReadTimeout: time.Second,
	})
	if err != nil {
		return nil, err
	}
	t := NewTowerLight(p)
	t.c = p
	if err := t.Clear(); err != nil {
		_ = p.Close()
		return nil, err
	}
	return t, nil
}

// NewTowerLight drives a tower light over w.
func NewTowerLight(w io.Writer) *TowerLight {
	return &TowerLight{w: w}
}

// Clear switches the buzzer and all lamps off.
func (t *TowerLight) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, l := range []Lamp{LampBuzzer, LampRed, LampYellow, LampGreen} {
		if _, err := t.w.Write([]byte{cmdOff | byte(l)}); err != nil {
			return err
		}
	}
	t.state = 0
	t.known = true
	return nil
}

// Set switches one lamp.
func (t *TowerLight) Set(l Lamp, on bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.known && (t.state&l != 0) == on {
		return nil
	}
	cmd := cmdOff
	if on {
		cmd = cmdOn
	}
	if _, err := t.w.Write([]byte{cmd | byte(l)}); err != nil {
		if t.err == nil {
			t.err = err
		}
		return err
	}
	if on {
		t.state |= l
	} else {
		t.state &^= l
	}
	return nil
}

// Err returns the first error seen by a lamp pin.
func (t *TowerLight) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *TowerLight) Close() error {
	if t.c == nil {
		return nil
	}
	return t.c.Close()
}

// Opener maps the pins in lamps onto the tower light and opens any other
// pin with fallback.
func (t *TowerLight) Opener(lamps map[int]Lamp, fallback Opener) Opener {
	return func(n int) (indicator.Pin, bool) {
		if l, ok := lamps[n]; ok {
			return &lampPin{t: t, n: n, lamp: l}, true
		}
		if fallback == nil {
			return nil, false
		}
		return fallback(n)
	}
}

type lampPin struct {
	t    *TowerLight
	n    int
	lamp Lamp
}

func (p *lampPin) Number() int { return p.n }

func (p *lampPin) ConfigureOutput(initial bool) error {
	return p.t.Set(p.lamp, initial)
}

func (p *lampPin) Set(level bool) { _ = p.t.Set(p.lamp, level) }
