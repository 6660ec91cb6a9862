package hyperplatform

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// driverMetrics counts lifecycle events for one Driver.
type driverMetrics struct {
	loads         atomic.Uint64
	loadFailures  atomic.Uint64
	cancellations atomic.Uint64
	unloads       atomic.Uint64
	stageInits    atomic.Uint64
	stageFailures atomic.Uint64
	stageTerms    atomic.Uint64
	rollbacks     atomic.Uint64

	// nanoseconds
	totalStartTime atomic.Uint64
}

// Metrics is a snapshot of a Driver's lifecycle counters.
type Metrics struct {
	Loads          uint64 `json:"loads" yaml:"loads"`
	LoadFailures   uint64 `json:"load_failures" yaml:"load_failures"`
	Cancellations  uint64 `json:"cancellations" yaml:"cancellations"`
	Unloads        uint64 `json:"unloads" yaml:"unloads"`
	StageInits     uint64 `json:"stage_inits" yaml:"stage_inits"`
	StageFailures  uint64 `json:"stage_failures" yaml:"stage_failures"`
	StageTerms     uint64 `json:"stage_terms" yaml:"stage_terms"`
	Rollbacks      uint64 `json:"rollbacks" yaml:"rollbacks"`
	AvgStartTimeNs uint64 `json:"avg_start_time_ns" yaml:"avg_start_time_ns"`
}

func (m *driverMetrics) snapshot() Metrics {
	loads := m.loads.Load()
	var avg uint64
	if loads > 0 {
		avg = m.totalStartTime.Load() / loads
	}
	return Metrics{
		Loads:          loads,
		LoadFailures:   m.loadFailures.Load(),
		Cancellations:  m.cancellations.Load(),
		Unloads:        m.unloads.Load(),
		StageInits:     m.stageInits.Load(),
		StageFailures:  m.stageFailures.Load(),
		StageTerms:     m.stageTerms.Load(),
		Rollbacks:      m.rollbacks.Load(),
		AvgStartTimeNs: avg,
	}
}

func (m *driverMetrics) reset() {
	m.loads.Store(0)
	m.loadFailures.Store(0)
	m.cancellations.Store(0)
	m.unloads.Store(0)
	m.stageInits.Store(0)
	m.stageFailures.Store(0)
	m.stageTerms.Store(0)
	m.rollbacks.Store(0)
	m.totalStartTime.Store(0)
}

func (m *driverMetrics) recordStart(d time.Duration) {
	m.loads.Add(1)
	m.totalStartTime.Add(uint64(d.Nanoseconds()))
}

var (
	loadsDesc = prometheus.NewDesc("hyperplatform_loads_total",
		"Start attempts.", nil, nil)
	loadFailuresDesc = prometheus.NewDesc("hyperplatform_load_failures_total",
		"Start attempts that failed for a reason other than an unsupported host.", nil, nil)
	cancellationsDesc = prometheus.NewDesc("hyperplatform_cancellations_total",
		"Start attempts refused by the compatibility check.", nil, nil)
	unloadsDesc = prometheus.NewDesc("hyperplatform_unloads_total",
		"Completed Stop calls.", nil, nil)
	stageInitsDesc = prometheus.NewDesc("hyperplatform_stage_inits_total",
		"Stages initialized.", nil, nil)
	stageFailuresDesc = prometheus.NewDesc("hyperplatform_stage_failures_total",
		"Stage initializations that failed.", nil, nil)
	stageTermsDesc = prometheus.NewDesc("hyperplatform_stage_terms_total",
		"Stages terminated.", nil, nil)
	rollbacksDesc = prometheus.NewDesc("hyperplatform_rollbacks_total",
		"Failed starts that tore down already started stages.", nil, nil)
	runningDesc = prometheus.NewDesc("hyperplatform_running",
		"1 while the driver is loaded.", nil, nil)
)

type driverCollector struct {
	d *Driver
}

// Collector exposes the lifecycle counters to Prometheus.
func (d *Driver) Collector() prometheus.Collector {
	return driverCollector{d: d}
}

func (c driverCollector) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(c, ch)
}

func (c driverCollector) Collect(ch chan<- prometheus.Metric) {
	m := c.d.Metrics()
	counter := func(desc *prometheus.Desc, v uint64) {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(v))
	}
	counter(loadsDesc, m.Loads)
	counter(loadFailuresDesc, m.LoadFailures)
	counter(cancellationsDesc, m.Cancellations)
	counter(unloadsDesc, m.Unloads)
	counter(stageInitsDesc, m.StageInits)
	counter(stageFailuresDesc, m.StageFailures)
	counter(stageTermsDesc, m.StageTerms)
	counter(rollbacksDesc, m.Rollbacks)

	running := 0.0
	if c.d.State() == StateRunning {
		running = 1
	}
	ch <- prometheus.MustNewConstMetric(runningDesc, prometheus.GaugeValue, running)
}
