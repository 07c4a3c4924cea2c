//go:build !tinygo

package main

import (
	"io"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"indicator-go/services/indicator"
)

// Metrics mirrors the edge stream into a private prometheus registry. Times
// are virtual seconds derived from the tick rate.
type Metrics struct {
	reg  *prometheus.Registry
	rate float64

	edges     *prometheus.CounterVec
	level     *prometheus.GaugeVec
	highSecs  *prometheus.CounterVec
	simulated prometheus.Gauge

	mu    sync.Mutex
	rose  map[string]indicator.Tick
	done  chan struct{}
	ended bool
}

func NewMetrics(rate uint32) *Metrics {
	m := &Metrics{
		reg:  prometheus.NewRegistry(),
		rate: float64(rate),
		edges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "indicator",
			Subsystem: "pin",
			Name:      "edges_total",
			Help:      "Level changes written to the pin",
		}, []string{"device"}),
		level: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "indicator",
			Subsystem: "pin",
			Name:      "level",
			Help:      "Last level written to the pin (1 = high)",
		}, []string{"device"}),
		highSecs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "indicator",
			Subsystem: "pin",
			Name:      "high_seconds_total",
			Help:      "Completed high intervals, in virtual seconds",
		}, []string{"device"}),
		simulated: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "indicator",
			Subsystem: "sim",
			Name:      "elapsed_seconds",
			Help:      "Virtual time covered by the run",
		}),
		rose: map[string]indicator.Tick{},
		done: make(chan struct{}),
	}
	m.reg.MustRegister(m.edges, m.level, m.highSecs, m.simulated)
	return m
}

// Register pre-creates the series for device so idle pins still report.
func (m *Metrics) Register(device string) {
	m.edges.WithLabelValues(device)
	m.level.WithLabelValues(device).Set(0)
	m.highSecs.WithLabelValues(device)
}

func (m *Metrics) OnEdge(e EdgeEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ended {
		return
	}
	if e.End {
		m.ended = true
		close(m.done)
		return
	}
	m.edges.WithLabelValues(e.Device).Inc()
	if e.Level {
		m.level.WithLabelValues(e.Device).Set(1)
		m.rose[e.Device] = e.At
		return
	}
	m.level.WithLabelValues(e.Device).Set(0)
	if at, ok := m.rose[e.Device]; ok {
		m.highSecs.WithLabelValues(e.Device).Add(float64(e.At.Since(at)) / m.rate)
		delete(m.rose, e.Device)
	}
}

// Done is closed once the end of the run has been handled.
func (m *Metrics) Done() <-chan struct{} { return m.done }

// SetElapsed records the virtual duration of the run.
func (m *Metrics) SetElapsed(d indicator.Ticks) {
	m.simulated.Set(float64(d) / m.rate)
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// WriteText dumps every family in the text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	mfs, err := m.reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
