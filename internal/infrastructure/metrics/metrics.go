package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics tracks the hot-cache write budget and job outcomes.
type Metrics struct {
	registry *prometheus.Registry

	HotCacheWrites  *prometheus.CounterVec
	SkippedWrites   prometheus.Counter
	ColdStoreWrites *prometheus.CounterVec
	JobRuns         *prometheus.CounterVec
	JobDuration     *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		HotCacheWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricesync",
			Name:      "hot_cache_writes_total",
			Help:      "Writes issued to the hot cache, by key.",
		}, []string{"key"}),
		SkippedWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "pricesync",
			Name:      "hot_cache_writes_skipped_total",
			Help:      "Price refreshes that skipped the write because the content hash was unchanged.",
		}),
		ColdStoreWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricesync",
			Name:      "cold_store_writes_total",
			Help:      "Objects written to the cold store, by kind.",
		}, []string{"kind"}),
		JobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pricesync",
			Name:      "job_runs_total",
			Help:      "Job runs by job and result.",
		}, []string{"job", "result"}),
		JobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pricesync",
			Name:      "job_duration_seconds",
			Help:      "Job run duration.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30},
		}, []string{"job"}),
	}

	reg.MustRegister(
		m.HotCacheWrites,
		m.SkippedWrites,
		m.ColdStoreWrites,
		m.JobRuns,
		m.JobDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveJob records one finished job run.
func (m *Metrics) ObserveJob(job string, started time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.JobRuns.WithLabelValues(job, result).Inc()
	m.JobDuration.WithLabelValues(job).Observe(time.Since(started).Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
