// Package metrics exposes reconciliation metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/ports"
)

const namespace = "quotesync"

// Sync implements ports.SyncMetrics with Prometheus collectors.
type Sync struct {
	runs      *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	dropped   prometheus.Counter
	merged    *prometheus.CounterVec
	storeSize prometheus.Gauge
}

var _ ports.SyncMetrics = (*Sync)(nil)

// NewSync creates the collectors and registers them with reg.
func NewSync(reg prometheus.Registerer) (*Sync, error) {
	s := &Sync{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Finished sync runs by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "run_duration_seconds",
			Help:      "Duration of sync runs.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "dropped_triggers_total",
			Help:      "Sync triggers rejected because a run was in flight.",
		}),
		merged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "merged_records_total",
			Help:      "Remote records applied by kind: added, updated or conflict.",
		}, []string{"kind"}),
		storeSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "records",
			Help:      "Records currently held in the store.",
		}),
	}

	for _, c := range []prometheus.Collector{s.runs, s.duration, s.dropped, s.merged, s.storeSize} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// ObserveRun implements ports.SyncMetrics.
func (s *Sync) ObserveRun(outcome domain.SyncStatus, elapsed time.Duration) {
	s.runs.WithLabelValues(string(outcome)).Inc()
	s.duration.WithLabelValues(string(outcome)).Observe(elapsed.Seconds())
}

// IncDroppedTriggers implements ports.SyncMetrics.
func (s *Sync) IncDroppedTriggers() {
	s.dropped.Inc()
}

// ObserveMerge implements ports.SyncMetrics.
func (s *Sync) ObserveMerge(result domain.MergeResult) {
	s.merged.WithLabelValues("added").Add(float64(result.Added))
	s.merged.WithLabelValues("updated").Add(float64(result.Updated))
	s.merged.WithLabelValues("conflict").Add(float64(result.Conflicts))
}

// SetStoreSize implements ports.SyncMetrics.
func (s *Sync) SetStoreSize(n int) {
	s.storeSize.Set(float64(n))
}

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return reg
}

// Handler serves the registry in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
