//go:build rp2040 || rp2350

package platform

import (
	"machine"

	"indicator-go/services/indicator"

	"tinygo.org/x/drivers/buzzer"
)

const GPIOMax = 28

type rp2Pin struct {
	p machine.Pin
	n int
}

func (r *rp2Pin) Number() int { return r.n }
func (r *rp2Pin) ConfigureOutput(initial bool) error {
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}
func (r *rp2Pin) Set(b bool) { r.p.Set(b) }

// buzzerPin drives a piezo through the buzzer driver. The controller does
// its own timing, so only On/Off are used.
type buzzerPin struct {
	d buzzer.Device
	n int
}

func (b *buzzerPin) Number() int { return b.n }
func (b *buzzerPin) ConfigureOutput(initial bool) error {
	machine.Pin(b.n).Configure(machine.PinConfig{Mode: machine.PinOutput})
	b.Set(initial)
	return nil
}
func (b *buzzerPin) Set(level bool) {
	if level {
		_ = b.d.On()
	} else {
		_ = b.d.Off()
	}
}

// DefaultRegistry returns a registry over machine pins. Pins listed in
// speakerPins are opened through the buzzer driver.
func DefaultRegistry(speakerPins ...int) *Registry {
	spk := make(map[int]bool, len(speakerPins))
	for _, n := range speakerPins {
		spk[n] = true
	}
	return NewRegistry(func(n int) (indicator.Pin, bool) {
		if n < 0 || n > GPIOMax {
			return nil, false
		}
		if spk[n] {
			return &buzzerPin{d: buzzer.New(machine.Pin(n)), n: n}, true
		}
		return &rp2Pin{p: machine.Pin(n), n: n}, true
	})
}
