package gisdb

import (
	"sync/atomic"
	"time"
)

// QueryKind identifies the index a query is answered by.
type QueryKind uint8

const (
	// QueryAt looks up a single coordinate.
	QueryAt QueryKind = iota
	// QueryName looks up a "name:state" key.
	QueryName
	// QueryRegion scans a rectangle.
	QueryRegion
	// QueryNamedIn intersects a name lookup with a region.
	QueryNamedIn
)

func (k QueryKind) String() string {
	switch k {
	case QueryAt:
		return "at"
	case QueryName:
		return "name"
	case QueryRegion:
		return "region"
	case QueryNamedIn:
		return "named_in"
	default:
		return "unknown"
	}
}

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like
// Prometheus (see package metrics/prometheus).
type MetricsCollector interface {
	// RecordImport is called after each import or rebuild pass.
	// lines is the number of records read, failed the number skipped.
	RecordImport(lines, failed int, duration time.Duration)

	// RecordQuery is called after each query. results is the number of
	// offsets matched.
	RecordQuery(kind QueryKind, results int, duration time.Duration, err error)

	// RecordCacheAccess is called for every record resolved through the cache.
	RecordCacheAccess(hit bool)

	// RecordProbe is called with the probe length of each name index insert.
	RecordProbe(length int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordImport(int, int, time.Duration)             {}
func (NoopMetricsCollector) RecordQuery(QueryKind, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordCacheAccess(bool)                           {}
func (NoopMetricsCollector) RecordProbe(int)                                  {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	ImportCount      atomic.Int64
	ImportLines      atomic.Int64
	ImportFailed     atomic.Int64
	ImportTotalNanos atomic.Int64
	QueryCount       atomic.Int64
	QueryErrors      atomic.Int64
	QueryResults     atomic.Int64
	QueryTotalNanos  atomic.Int64
	CacheHits        atomic.Int64
	CacheMisses      atomic.Int64
	LongestProbe     atomic.Int64
}

// RecordImport implements MetricsCollector.
func (b *BasicMetricsCollector) RecordImport(lines, failed int, duration time.Duration) {
	b.ImportCount.Add(1)
	b.ImportLines.Add(int64(lines))
	b.ImportFailed.Add(int64(failed))
	b.ImportTotalNanos.Add(duration.Nanoseconds())
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(_ QueryKind, results int, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryResults.Add(int64(results))
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.QueryErrors.Add(1)
	}
}

// RecordCacheAccess implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCacheAccess(hit bool) {
	if hit {
		b.CacheHits.Add(1)
	} else {
		b.CacheMisses.Add(1)
	}
}

// RecordProbe implements MetricsCollector.
func (b *BasicMetricsCollector) RecordProbe(length int) {
	for {
		cur := b.LongestProbe.Load()
		if int64(length) <= cur || b.LongestProbe.CompareAndSwap(cur, int64(length)) {
			return
		}
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		ImportCount:   b.ImportCount.Load(),
		ImportLines:   b.ImportLines.Load(),
		ImportFailed:  b.ImportFailed.Load(),
		QueryCount:    b.QueryCount.Load(),
		QueryErrors:   b.QueryErrors.Load(),
		QueryResults:  b.QueryResults.Load(),
		QueryAvgNanos: b.getAvgQueryNanos(),
		CacheHits:     b.CacheHits.Load(),
		CacheMisses:   b.CacheMisses.Load(),
		LongestProbe:  int(b.LongestProbe.Load()),
	}
}

func (b *BasicMetricsCollector) getAvgQueryNanos() int64 {
	count := b.QueryCount.Load()
	if count == 0 {
		return 0
	}
	return b.QueryTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	ImportCount   int64
	ImportLines   int64
	ImportFailed  int64
	QueryCount    int64
	QueryErrors   int64
	QueryResults  int64
	QueryAvgNanos int64
	CacheHits     int64
	CacheMisses   int64
	LongestProbe  int
}
