// Package prometheus exports gisdb metrics through prometheus/client_golang.
//
//	reg := prometheus.NewRegistry()
//	mc, _ := gisprom.New(reg)
//	db, _ := gisdb.Open(ctx, backend, gisdb.WithMetricsCollector(mc))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/gisdb"
)

const namespace = "gisdb"

// Collector implements gisdb.MetricsCollector.
type Collector struct {
	importLines   *prometheus.CounterVec
	importLatency prometheus.Histogram
	queryLatency  *prometheus.HistogramVec
	queryResults  *prometheus.CounterVec
	cacheAccess   *prometheus.CounterVec
	probeLength   prometheus.Histogram
	longestProbe  prometheus.Gauge
	longest       int
}

var _ gisdb.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers it with reg.
// If reg is nil, prometheus.DefaultRegisterer is used.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &Collector{
		importLines: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_lines_total",
			Help:      "Record lines read by import and rebuild passes.",
		}, []string{"status"}),
		importLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Duration of import and rebuild passes.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "query_duration_seconds",
			Help:      "Latency of index queries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "status"}),
		queryResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_results_total",
			Help:      "Records matched by index queries.",
		}, []string{"kind"}),
		cacheAccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Record cache lookups.",
		}, []string{"result"}),
		probeLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "name_index_probe_length",
			Help:      "Probe sequence length of name index inserts.",
			Buckets:   prometheus.LinearBuckets(0, 1, 10),
		}),
		longestProbe: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "name_index_longest_probe",
			Help:      "Longest probe sequence observed.",
		}),
	}

	for _, m := range []prometheus.Collector{
		c.importLines, c.importLatency, c.queryLatency, c.queryResults,
		c.cacheAccess, c.probeLength, c.longestProbe,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordImport implements gisdb.MetricsCollector.
func (c *Collector) RecordImport(lines, failed int, d time.Duration) {
	c.importLines.WithLabelValues("indexed").Add(float64(lines - failed))
	c.importLines.WithLabelValues("malformed").Add(float64(failed))
	c.importLatency.Observe(d.Seconds())
}

// RecordQuery implements gisdb.MetricsCollector.
func (c *Collector) RecordQuery(kind gisdb.QueryKind, results int, d time.Duration, err error) {
	c.queryLatency.WithLabelValues(kind.String(), status(err)).Observe(d.Seconds())
	c.queryResults.WithLabelValues(kind.String()).Add(float64(results))
}

// RecordCacheAccess implements gisdb.MetricsCollector.
func (c *Collector) RecordCacheAccess(hit bool) {
	if hit {
		c.cacheAccess.WithLabelValues("hit").Inc()
	} else {
		c.cacheAccess.WithLabelValues("miss").Inc()
	}
}

// RecordProbe implements gisdb.MetricsCollector. Imports hold the DB's
// exclusive lock, so calls are not concurrent.
func (c *Collector) RecordProbe(length int) {
	c.probeLength.Observe(float64(length))
	if length > c.longest {
		c.longest = length
		c.longestProbe.Set(float64(length))
	}
}
