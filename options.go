package gisdb

import (
	"log/slog"

	"github.com/hupe1980/gisdb/cache"
	"github.com/hupe1980/gisdb/hashindex"
	"github.com/hupe1980/gisdb/internal/fs"
	"github.com/hupe1980/gisdb/resource"
)

// DefaultBucketSize is the number of points a quadtree leaf holds before it splits.
const DefaultBucketSize = 4

type options struct {
	bucketSize       int
	cacheCapacity    int
	hashConfig       hashindex.Config
	metricsCollector MetricsCollector
	logger           *Logger
	rc               *resource.Controller
	fs               fs.FileSystem
	mmap             bool
	syncEachLine     bool
	recreate         bool
	remoteCacheBytes int64
}

// Option configures Open behavior.
type Option func(*options)

// WithBucketSize sets the quadtree leaf capacity. Values < 1 are ignored.
func WithBucketSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bucketSize = n
		}
	}
}

// WithCacheCapacity sets the number of lines held by the record cache.
// Values < 1 are ignored.
func WithCacheCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.cacheCapacity = n
		}
	}
}

// WithHashConfig replaces the name index prime ladder and load factor.
// The configuration is validated by Open.
func WithHashConfig(cfg hashindex.Config) Option {
	return func(o *options) {
		o.hashConfig = cfg
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &gisdb.BasicMetricsCollector{}
//	db, _ := gisdb.Open(ctx, gisdb.Local("db.txt"), gisdb.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Queries: %d, hits: %d\n", stats.QueryCount, stats.CacheHits)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := gisdb.NewJSONLogger(slog.LevelInfo)
//	db, _ := gisdb.Open(ctx, gisdb.Local("db.txt"), gisdb.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResourceController charges cached lines against rc's memory limit and
// throttles backing-store reads (cache misses and Publish) with its read limit.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithFileSystem sets the file system used for Local backends and import
// sources.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		if fsys != nil {
			o.fs = fsys
		}
	}
}

// WithMmap memory-maps Local backing stores for reads.
func WithMmap() Option {
	return func(o *options) {
		o.mmap = true
	}
}

// WithSyncEachLine syncs the backing store after every imported line instead
// of once per import.
func WithSyncEachLine() Option {
	return func(o *options) {
		o.syncEachLine = true
	}
}

// WithRecreate discards an existing backing store on Open.
// It has no effect on read-only backends.
func WithRecreate() Option {
	return func(o *options) {
		o.recreate = true
	}
}

// WithRemoteCache caches blocks of Remote backing stores in memory, up to
// bytes in total. Zero disables the block cache.
func WithRemoteCache(bytes int64) Option {
	return func(o *options) {
		o.remoteCacheBytes = bytes
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		bucketSize:       DefaultBucketSize,
		cacheCapacity:    cache.DefaultCapacity,
		hashConfig:       hashindex.DefaultConfig(),
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		fs:               fs.Default,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
