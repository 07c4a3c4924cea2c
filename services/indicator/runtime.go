package indicator

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"sync"

	"indicator-go/errcode"
	"indicator-go/logging"
)

// Resource limits. Handles live in fixed arenas sized at NewRuntime and units
// draw their stacks from a shared word budget, the way an RTOS heap would.
const (
	MinStackWords      = 128
	DefaultMaxLEDs     = 4
	DefaultMaxSpeakers = 1
	DefaultMaxUnits    = 8
	DefaultStackBudget = 4096 // words
)

// Options configure a Runtime. Clock and Pins are required.
type Options struct {
	Clock    Clock
	Pins     PinRegistry
	Tunables *Tunables // nil: DefaultTunables()
	Logger   *slog.Logger

	MaxLEDs     int
	MaxSpeakers int
	MaxUnits    int
	StackBudget uint32 // words
}

// Runtime owns what controllers are built from: the tick clock, the pin
// registry, the handle arenas and the unit budget. Handles and units it hands
// out live until ctx ends.
type Runtime struct {
	ctx   context.Context
	clock Clock
	pins  PinRegistry
	tun   Tunables
	log   *slog.Logger

	mu        sync.Mutex
	leds      []LEDHandle
	speakers  []SpeakerHandle
	units     int
	stackFree uint32
	tasks     []*Task
	wg        sync.WaitGroup
}

// Task is the record of one schedulable unit. Priority and StackWords are the
// values the unit was admitted with.
type Task struct {
	Name       string
	Priority   uint8
	StackWords uint16
	done       chan struct{}
}

// Done is closed when the unit has returned.
func (t *Task) Done() <-chan struct{} { return t.done }

func NewRuntime(ctx context.Context, o Options) *Runtime {
	tun := DefaultTunables()
	if o.Tunables != nil {
		tun = *o.Tunables
	}
	if o.Logger == nil {
		o.Logger = logging.GetLogger("indicator")
	}
	if o.MaxLEDs <= 0 {
		o.MaxLEDs = DefaultMaxLEDs
	}
	if o.MaxSpeakers <= 0 {
		o.MaxSpeakers = DefaultMaxSpeakers
	}
	if o.MaxUnits <= 0 {
		o.MaxUnits = DefaultMaxUnits
	}
	if o.StackBudget == 0 {
		o.StackBudget = DefaultStackBudget
	}
	return &Runtime{
		ctx:       ctx,
		clock:     o.Clock,
		pins:      o.Pins,
		tun:       tun,
		log:       o.Logger,
		leds:      make([]LEDHandle, o.MaxLEDs),
		speakers:  make([]SpeakerHandle, o.MaxSpeakers),
		units:     o.MaxUnits,
		stackFree: o.StackBudget,
	}
}

func (rt *Runtime) Clock() Clock { return rt.clock }

func (rt *Runtime) Tunables() Tunables { return rt.tun }

// Tasks returns the units started so far.
func (rt *Runtime) Tasks() []*Task {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return append([]*Task(nil), rt.tasks...)
}

// Wait blocks until every unit has returned (after ctx ends).
func (rt *Runtime) Wait() { rt.wg.Wait() }

func (rt *Runtime) allocLED() (*LEDHandle, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for i := range rt.leds {
		if !rt.leds[i].used {
			rt.leds[i].used = true
			return &rt.leds[i], nil
		}
	}
	return nil, errcode.NoMemory
}

func (rt *Runtime) freeLED(h *LEDHandle) {
	rt.mu.Lock()
	h.used = false
	h.task = nil
	h.State.Store(0)
	rt.mu.Unlock()
}

func (rt *Runtime) allocSpeaker() (*SpeakerHandle, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	for i := range rt.speakers {
		if !rt.speakers[i].used {
			rt.speakers[i].used = true
			return &rt.speakers[i], nil
		}
	}
	return nil, errcode.NoMemory
}

func (rt *Runtime) freeSpeaker(h *SpeakerHandle) {
	rt.mu.Lock()
	h.used = false
	h.task = nil
	h.Mode.Store(0)
	h.Sound.Store(0)
	rt.mu.Unlock()
}

// spawn admits a unit against the unit and stack budgets and starts it.
func (rt *Runtime) spawn(name string, prio uint8, stackWords uint16, fn func(ctx context.Context)) (*Task, error) {
	rt.mu.Lock()
	switch {
	case rt.units == 0:
		rt.mu.Unlock()
		return nil, &errcode.E{C: errcode.SpawnFailed, Msg: "unit limit reached"}
	case stackWords < MinStackWords:
		rt.mu.Unlock()
		return nil, &errcode.E{C: errcode.SpawnFailed, Msg: "stack below minimum"}
	case uint32(stackWords) > rt.stackFree:
		rt.mu.Unlock()
		return nil, &errcode.E{C: errcode.SpawnFailed, Msg: "stack budget exhausted"}
	}
	rt.units--
	rt.stackFree -= uint32(stackWords)
	t := &Task{Name: name, Priority: prio, StackWords: stackWords, done: make(chan struct{})}
	rt.tasks = append(rt.tasks, t)
	rt.mu.Unlock()

	tr, tracked := rt.clock.(UnitTracker)
	if tracked {
		tr.Attach()
	}
	rt.wg.Add(1)
	go func() {
		defer rt.wg.Done()
		defer close(t.done)
		if tracked {
			defer tr.Detach()
		}
		fn(rt.ctx)
	}()
	return t, nil
}

func ledDevID(pin int) string     { return "led" + strconv.Itoa(pin) }
func speakerDevID(pin int) string { return "speaker" + strconv.Itoa(pin) }

// opErr attaches op to a bring-up failure, keeping its code.
func opErr(op string, err error) error {
	var e *errcode.E
	if errors.As(err, &e) && e.Op == "" {
		e.Op = op
		return e
	}
	return errcode.Wrap(errcode.Of(err), op, err)
}
