package indicator

import (
	"context"

	"indicator-go/errcode"
	"indicator-go/types"
)

// LEDHandle is the control record for one indicator LED. Any part of the
// firmware may store a new State at any time; the LED's unit picks it up on
// its next poll. There is no acknowledgement.
type LEDHandle struct {
	Pin   int
	State Word[types.LEDState]

	task *Task
	used bool
}

// Task returns the unit rendering this LED.
func (h *LEDHandle) Task() *Task { return h.task }

// InitLED claims pin, drives it low and starts the unit that renders the
// handle's State on it. On failure nothing stays claimed or allocated.
func (rt *Runtime) InitLED(pin int, initial types.LEDState, priority uint8, stackWords uint16) (*LEDHandle, error) {
	const op = "init_led"
	devID := ledDevID(pin)

	p, err := rt.pins.ClaimGPIO(devID, pin)
	if err != nil {
		return nil, opErr(op, err)
	}
	h, err := rt.allocLED()
	if err != nil {
		rt.pins.ReleaseGPIO(devID, pin)
		return nil, opErr(op, err)
	}
	if err := p.ConfigureOutput(false); err != nil {
		rt.freeLED(h)
		rt.pins.ReleaseGPIO(devID, pin)
		return nil, errcode.Wrap(errcode.Error, op, err)
	}
	h.Pin = pin
	h.State.Store(initial)

	c := &ledController{
		h:     h,
		pin:   p,
		clock: rt.clock,
		t:     rt.tun.ledTiming(rt.clock.Rate()),
	}
	task, err := rt.spawn("LED", priority, stackWords, c.run)
	if err != nil {
		rt.freeLED(h)
		rt.pins.ReleaseGPIO(devID, pin)
		return nil, opErr(op, err)
	}
	h.task = task
	rt.log.Debug("led unit started", "pin", pin, "state", initial.String(), "priority", priority)
	return h, nil
}

type ledController struct {
	h     *LEDHandle
	pin   Pin
	clock Clock
	t     ledTiming
}

// run re-reads the state every iteration. A blink finishes its on/off cycle
// before the next read, so a change lands on a cycle boundary.
func (c *ledController) run(ctx context.Context) {
	for {
		var ok bool
		switch c.h.State.Load() {
		case types.LEDOff:
			c.pin.Set(false)
			ok = c.clock.Sleep(ctx, c.t.idle)
		case types.LEDOnContinuous:
			c.pin.Set(true)
			ok = c.clock.Sleep(ctx, c.t.idle)
		case types.LEDFastBlink:
			ok = c.blink(ctx, c.t.fastHalf)
		case types.LEDSlowBlink:
			ok = c.blink(ctx, c.t.slowHalf)
		default:
			ok = c.clock.Sleep(ctx, c.t.idle)
		}
		if !ok {
			return
		}
	}
}

func (c *ledController) blink(ctx context.Context, half Ticks) bool {
	c.pin.Set(true)
	if !c.clock.Sleep(ctx, half) {
		return false
	}
	c.pin.Set(false)
	return c.clock.Sleep(ctx, half)
}
