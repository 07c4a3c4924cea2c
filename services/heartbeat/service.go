// Package heartbeat logs a periodic liveness line with the indicator
// runtime's unit count and memory use.
package heartbeat

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"indicator-go/bus"
	"indicator-go/logging"
	"indicator-go/services/indicator"
)

var topicConfigHeartbeat = bus.Topic{"config", "heartbeat"}

const defaultInterval = 10 * time.Second

// Config is the payload of config/heartbeat.
type Config struct {
	IntervalMs uint32 `toml:"interval_ms"`
}

type Service struct {
	rt  *indicator.Runtime
	log *slog.Logger
}

func New(rt *indicator.Runtime) *Service {
	return &Service{rt: rt, log: logging.GetLogger("heartbeat")}
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection, cfgSub *bus.Subscription) {
	defer conn.Unsubscribe(cfgSub)

	tick := time.NewTicker(defaultInterval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("heartbeat service stopping")
			return
		case <-tick.C:
			s.beat()
		case msg := <-cfgSub.Channel():
			if d, ok := interval(msg.Payload); ok {
				tick.Reset(d)
				s.log.Debug("heartbeat interval set", "interval", d)
			}
		}
	}
}

func (s *Service) beat() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	s.log.Info("heartbeat",
		"units", len(s.rt.Tasks()),
		"tick", uint32(s.rt.Clock().Now()),
		"heap_inuse", ms.HeapInuse,
		"mallocs", ms.Mallocs)
}

func interval(p any) (time.Duration, bool) {
	var ms uint32
	switch v := p.(type) {
	case Config:
		ms = v.IntervalMs
	case map[string]any:
		f, ok := v["interval_ms"].(float64)
		if !ok || f <= 0 {
			return 0, false
		}
		ms = uint32(f)
	}
	if ms == 0 {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

// Start subscribes to config/heartbeat and runs the service until ctx ends.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	cfgSub := conn.Subscribe(topicConfigHeartbeat)
	go s.serviceLoop(ctx, conn, cfgSub)
	return nil
}
