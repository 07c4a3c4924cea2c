package signals

import (
	"context"
	"testing"
	"time"

	"indicator-go/bus"
	"indicator-go/services/indicator"
	"indicator-go/services/indicator/platform"
	"indicator-go/services/indicator/simclock"
	"indicator-go/types"
)

type fixture struct {
	clock *simclock.Clock
	conn  *bus.Connection
	led   *indicator.LEDHandle
	spk   *indicator.SpeakerHandle
}

func setup(t *testing.T) *fixture {
	t.Helper()
	clock := simclock.New(1000, 0)
	ctx, cancel := context.WithCancel(context.Background())
	rt := indicator.NewRuntime(ctx, indicator.Options{Clock: clock, Pins: platform.DefaultRegistry()})
	t.Cleanup(func() {
		cancel()
		rt.Wait()
	})

	led, err := rt.InitLED(16, types.LEDSlowBlink, 1, 256)
	if err != nil {
		t.Fatal(err)
	}
	spk, err := rt.InitSpeaker(15, types.SpeakerOff, types.Warning1, 1, 256)
	if err != nil {
		t.Fatal(err)
	}

	b := bus.NewBus(32)
	svc := New(b.NewConnection("signals"))
	svc.AddLED("red", led)
	svc.AddSpeaker("piezo", spk)
	if err := svc.Start(ctx); err != nil {
		t.Fatal(err)
	}
	return &fixture{clock: clock, conn: b.NewConnection("test"), led: led, spk: spk}
}

func request(t *testing.T, c *bus.Connection, topic bus.Topic, payload any) types.OKReply {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := c.RequestWait(ctx, c.NewMessage(topic, payload, false))
	if err != nil {
		t.Fatalf("request %v: %v", topic, err)
	}
	r, ok := reply.Payload.(types.OKReply)
	if !ok {
		t.Fatalf("reply payload %T", reply.Payload)
	}
	return r
}

func TestLEDSetStoresState(t *testing.T) {
	f := setup(t)

	r := request(t, f.conn, bus.T("signals", "led", "red", "set"), types.LEDSet{State: types.LEDFastBlink})
	if !r.OK {
		t.Fatalf("reply = %+v", r)
	}
	if got := f.led.State.Load(); got != types.LEDFastBlink {
		t.Fatalf("state = %v", got)
	}

	// Bridged form.
	r = request(t, f.conn, bus.T("signals", "led", "red", "set"), map[string]any{"state": "on"})
	if !r.OK || f.led.State.Load() != types.LEDOnContinuous {
		t.Fatalf("reply = %+v state = %v", r, f.led.State.Load())
	}

	sub := f.conn.Subscribe(bus.T("signals", "led", "red", "state"))
	defer f.conn.Unsubscribe(sub)
	select {
	case m := <-sub.Channel():
		v, ok := m.Payload.(types.LEDValue)
		if !ok || v.State != types.LEDOnContinuous {
			t.Fatalf("retained state = %#v", m.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no retained state")
	}
}

func TestSetRejections(t *testing.T) {
	f := setup(t)

	tests := []struct {
		name    string
		topic   bus.Topic
		payload any
		code    string
	}{
		{"unknown led", bus.T("signals", "led", "blue", "set"), types.LEDSet{}, "unknown_device"},
		{"bad state", bus.T("signals", "led", "red", "set"), "strobe", "invalid_payload"},
		{"bad speaker payload", bus.T("signals", "speaker", "piezo", "set"), 42, "invalid_payload"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := request(t, f.conn, tt.topic, tt.payload)
			if r.OK || r.Error != tt.code {
				t.Fatalf("reply = %+v, want error %s", r, tt.code)
			}
		})
	}
	if f.led.State.Load() != types.LEDSlowBlink {
		t.Fatal("rejected set changed the handle")
	}
}

func TestOneShotAutoClearIsReported(t *testing.T) {
	f := setup(t)
	f.conn.Publish(f.conn.NewMessage(topicConfigSignals, Config{ReportMs: 5}, true))

	sub := f.conn.Subscribe(bus.T("signals", "speaker", "piezo", "state"))
	defer f.conn.Unsubscribe(sub)

	r := request(t, f.conn, bus.T("signals", "speaker", "piezo", "set"),
		map[string]any{"mode": "oneshot", "sound": "warning2"})
	if !r.OK {
		t.Fatalf("reply = %+v", r)
	}
	if f.spk.Mode.Load() != types.SpeakerOneShot || f.spk.Sound.Load() != types.Warning2 {
		t.Fatal("handle not updated")
	}

	// WARNING2 lasts 300 ms; the controller clears the mode itself.
	f.clock.AdvanceMs(400)
	if f.spk.Mode.Load() != types.SpeakerOff {
		t.Fatalf("mode = %v after the tone", f.spk.Mode.Load())
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if v, ok := m.Payload.(types.SpeakerValue); ok && v.Mode == types.SpeakerOff && v.Sound == types.Warning2 {
				return
			}
		case <-deadline:
			t.Fatal("auto-clear to off was never reported")
		}
	}
}

func TestServiceStateAndInfoRetained(t *testing.T) {
	f := setup(t)
	info := f.conn.Subscribe(bus.T("signals", "speaker", "piezo", "info"))
	defer f.conn.Unsubscribe(info)
	select {
	case m := <-info.Channel():
		i, ok := m.Payload.(types.Info)
		if !ok || i.Detail.(types.SpeakerInfo).Pin != 15 {
			t.Fatalf("info = %#v", m.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no info")
	}

	st := f.conn.Subscribe(bus.T("signals", "state"))
	defer f.conn.Unsubscribe(st)
	select {
	case m := <-st.Channel():
		if s, ok := m.Payload.(types.ServiceState); !ok || s.Level != "ready" {
			t.Fatalf("service state = %#v", m.Payload)
		}
	case <-time.After(time.Second):
		t.Fatal("no service state")
	}
}
