// ABOUTME: Prometheus collectors for player statistics
// ABOUTME: Exposes stream.Client counters without the engine knowing about Prometheus
package metrics

import (
	"strings"

	"github.com/WiFiAudioLink/wifiaudiolink-go/pkg/stream"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultNamespace = "wifiaudiolink"
	subsystemPlayer  = "player"
)

// StatsSource is anything that can report player statistics.
type StatsSource interface {
	Stats() stream.Stats
}

// StatsFunc adapts a function to StatsSource.
type StatsFunc func() stream.Stats

func (f StatsFunc) Stats() stream.Stats { return f() }

// PlayerCollector publishes a StatsSource on its own registry.
type PlayerCollector struct {
	namespace string
	registry  *prometheus.Registry
	source    StatsSource
}

// NewPlayerCollector creates a collector and wires up prometheus collectors.
func NewPlayerCollector(namespace string, source StatsSource) *PlayerCollector {
	if strings.TrimSpace(namespace) == "" {
		namespace = defaultNamespace
	}
	c := &PlayerCollector{
		namespace: namespace,
		registry:  prometheus.NewRegistry(),
		source:    source,
	}
	c.registerMetrics()
	return c
}

// Registry returns the prometheus registry managed by this collector.
func (c *PlayerCollector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *PlayerCollector) registerMetrics() {
	makeCounter := func(name, help string, valueFn func(stream.Stats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: c.namespace,
			Subsystem: subsystemPlayer,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(valueFn(c.source.Stats())) })
	}
	makeGauge := func(name, help string, valueFn func(stream.Stats) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: c.namespace,
			Subsystem: subsystemPlayer,
			Name:      name,
			Help:      help,
		}, func() float64 { return valueFn(c.source.Stats()) })
	}

	c.registry.MustRegister(
		makeCounter("frames_received_total", "Frames read from the server.",
			func(s stream.Stats) uint64 { return s.Received }),
		makeCounter("frames_played_total", "Frames written to the audio sink.",
			func(s stream.Stats) uint64 { return s.Played }),
		makeCounter("frames_evicted_total", "Frames dropped by the jitter buffer.",
			func(s stream.Stats) uint64 { return s.Evicted }),
		makeCounter("decode_failures_total", "Frames skipped because they failed to decode.",
			func(s stream.Stats) uint64 { return s.DecodeFailures }),
		makeCounter("sink_resets_total", "Audio sinks reopened after a failed write.",
			func(s stream.Stats) uint64 { return s.SinkResets }),
		makeCounter("sessions_total", "Streaming sessions started.",
			func(s stream.Stats) uint64 { return s.Sessions }),
		makeCounter("reconnects_total", "Sessions started by the retry loop.",
			func(s stream.Stats) uint64 { return s.Reconnects }),
		makeGauge("buffer_depth_frames", "Frames queued in the jitter buffer.",
			func(s stream.Stats) float64 { return float64(s.BufferDepth) }),
		makeGauge("connection_state", "Current connection state (0 idle .. 5 failed).",
			func(s stream.Stats) float64 { return float64(s.State) }),
	)
}
