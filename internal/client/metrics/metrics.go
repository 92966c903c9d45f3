// Package metrics counts the events of the sync core that would otherwise
// be silent: repaired or discarded local data, records dropped under quota
// pressure, and push outcomes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Recorder interface {
	IncCorruptionRepaired()
	IncCorruptionReset()
	IncBootstrap()
	IncQuotaShrink()
	IncLastResortWrite()
	AddRecordsDropped(collection string, n int)
	IncPush(success bool)
	ObservePushDuration(d time.Duration)
}

type Metrics struct {
	corruptionRepaired prometheus.Counter
	corruptionReset    prometheus.Counter
	bootstraps         prometheus.Counter
	quotaShrinks       prometheus.Counter
	lastResortWrites   prometheus.Counter
	recordsDropped     *prometheus.CounterVec
	pushes             *prometheus.CounterVec
	pushDuration       prometheus.Histogram
}

// New registers the counters with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		corruptionRepaired: f.NewCounter(prometheus.CounterOpts{
			Name: "homekeeper_local_corruption_repaired_total",
			Help: "Stored snapshots that parsed only after textual repair",
		}),
		corruptionReset: f.NewCounter(prometheus.CounterOpts{
			Name: "homekeeper_local_corruption_reset_total",
			Help: "Stored snapshots discarded as unrecoverable",
		}),
		bootstraps: f.NewCounter(prometheus.CounterOpts{
			Name: "homekeeper_local_bootstrap_total",
			Help: "Default snapshots written",
		}),
		quotaShrinks: f.NewCounter(prometheus.CounterOpts{
			Name: "homekeeper_local_quota_shrink_total",
			Help: "Writes retried after truncating collections",
		}),
		lastResortWrites: f.NewCounter(prometheus.CounterOpts{
			Name: "homekeeper_local_last_resort_write_total",
			Help: "Writes reduced to the minimal snapshot",
		}),
		recordsDropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "homekeeper_local_records_dropped_total",
			Help: "Records dropped to fit the storage quota",
		}, []string{"collection"}),
		pushes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "homekeeper_backup_push_total",
			Help: "Backup pushes by outcome",
		}, []string{"result"}),
		pushDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "homekeeper_backup_push_duration_seconds",
			Help:    "Duration of backup pushes in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) IncCorruptionRepaired() { m.corruptionRepaired.Inc() }
func (m *Metrics) IncCorruptionReset()    { m.corruptionReset.Inc() }
func (m *Metrics) IncBootstrap()          { m.bootstraps.Inc() }
func (m *Metrics) IncQuotaShrink()        { m.quotaShrinks.Inc() }
func (m *Metrics) IncLastResortWrite()    { m.lastResortWrites.Inc() }

func (m *Metrics) AddRecordsDropped(collection string, n int) {
	m.recordsDropped.WithLabelValues(collection).Add(float64(n))
}

func (m *Metrics) IncPush(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	m.pushes.WithLabelValues(result).Inc()
}

func (m *Metrics) ObservePushDuration(d time.Duration) {
	m.pushDuration.Observe(d.Seconds())
}

// Noop returns a Recorder that records nothing.
func Noop() Recorder {
	return noopMetrics{}
}

type noopMetrics struct{}

func (noopMetrics) IncCorruptionRepaired()              {}
func (noopMetrics) IncCorruptionReset()                 {}
func (noopMetrics) IncBootstrap()                       {}
func (noopMetrics) IncQuotaShrink()                     {}
func (noopMetrics) IncLastResortWrite()                 {}
func (noopMetrics) AddRecordsDropped(_ string, _ int)   {}
func (noopMetrics) IncPush(_ bool)                      {}
func (noopMetrics) ObservePushDuration(_ time.Duration) {}
