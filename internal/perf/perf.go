// Package perf measures how long driver code paths take. The collector is a
// statically-declared object: the global object runtime constructs it and
// destroys it at unload.
package perf

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/blacktop/go-hyperplatform/internal/globalobject"
	"github.com/blacktop/go-hyperplatform/internal/status"
)

const metricName = "hyperplatform_perf_duration_seconds"

var global atomic.Pointer[Collector]

func init() {
	globalobject.Declare("perf.collector", func(rt *globalobject.Runtime) {
		global.Store(NewCollector())
		_ = rt.AtExit(func() { global.Store(nil) })
	})
}

// Collector records durations per code location.
type Collector struct {
	registry  *prometheus.Registry
	durations *prometheus.HistogramVec

	mu      sync.Mutex
	enabled bool
	log     zerolog.Logger
}

// NewCollector returns a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    metricName,
			Help:    "Time spent in measured driver code paths.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 12),
		}, []string{"location"}),
		log: zerolog.Nop(),
	}
	c.registry.MustRegister(c.durations)
	return c
}

// Result is the aggregate for one location.
type Result struct {
	Location string
	Count    uint64
	Total    time.Duration
}

// Average returns the mean duration.
func (r Result) Average() time.Duration {
	if r.Count == 0 {
		return 0
	}
	return r.Total / time.Duration(r.Count)
}

// Initialize enables measurement on the global collector.
func Initialize(log zerolog.Logger) error {
	c := global.Load()
	if c == nil {
		return status.New(status.Unsuccessful, "perf: collector was not constructed")
	}
	c.mu.Lock()
	c.enabled = true
	c.log = log
	c.mu.Unlock()
	log.Debug().Msg("performance counters enabled")
	return nil
}

// Terminate reports every location measured so far, then disables and
// resets the collector.
func Terminate() {
	c := global.Load()
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.enabled {
		return
	}
	for _, r := range c.results() {
		c.log.Info().
			Str("location", r.Location).
			Uint64("count", r.Count).
			Dur("total", r.Total).
			Dur("average", r.Average()).
			Msg("perf")
	}
	c.durations.Reset()
	c.enabled = false
}

// Measure starts timing location and returns the func that stops it. It is a
// no-op while the collector is absent or disabled.
//
//	defer perf.Measure("vm.Initialize")()
func Measure(location string) func() {
	c := global.Load()
	if c == nil {
		return func() {}
	}
	c.mu.Lock()
	enabled := c.enabled
	c.mu.Unlock()
	if !enabled {
		return func() {}
	}
	obs := c.durations.WithLabelValues(location)
	start := time.Now()
	return func() { obs.Observe(time.Since(start).Seconds()) }
}

// Results returns the aggregate per location, sorted by location.
func Results() []Result {
	c := global.Load()
	if c == nil {
		return nil
	}
	return c.results()
}

// Gatherer exposes the global collector's registry, or nil when it is
// absent.
func Gatherer() prometheus.Gatherer {
	c := global.Load()
	if c == nil {
		return nil
	}
	return c.registry
}

func (c *Collector) results() []Result {
	families, err := c.registry.Gather()
	if err != nil {
		return nil
	}
	var out []Result
	for _, mf := range families {
		if mf.GetName() != metricName {
			continue
		}
		for _, m := range mf.GetMetric() {
			r := Result{}
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "location" {
					r.Location = lp.GetValue()
				}
			}
			h := m.GetHistogram()
			r.Count = h.GetSampleCount()
			r.Total = time.Duration(h.GetSampleSum() * float64(time.Second))
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Location < out[j].Location })
	return out
}
