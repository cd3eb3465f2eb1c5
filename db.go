package gisdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hupe1980/gisdb/blobstore"
	"github.com/hupe1980/gisdb/cache"
	"github.com/hupe1980/gisdb/hashindex"
	"github.com/hupe1980/gisdb/internal/lineio"
	"github.com/hupe1980/gisdb/spatial"
)

// DB indexes the records of one backing store by location and by name.
type DB struct {
	mu      sync.RWMutex
	opts    options
	logger  *Logger
	backend Backend

	store   blobstore.BlobStore
	caching *blobstore.CachingStore
	blob    blobstore.Blob
	writer  blobstore.WritableBlob
	size    int64 // offset of the next appended line

	tree  *spatial.Tree // nil until SetWorld
	names *hashindex.Table
	pool  *cache.RecordCache

	closed bool
}

// Open opens the backing store described by backend. A missing Local store
// is created empty; a missing Remote store is an error matching ErrNotFound.
//
// The indexes start empty. Call SetWorld, then Import or Rebuild.
func Open(ctx context.Context, backend Backend, optFns ...Option) (*DB, error) {
	o := applyOptions(optFns)

	names, err := hashindex.New(o.hashConfig)
	if err != nil {
		return nil, err
	}

	store, caching, err := backend.resolve(&o)
	if err != nil {
		return nil, err
	}

	db := &DB{
		opts:    o,
		logger:  o.logger.WithSource(backend.name),
		backend: backend,
		store:   store,
		caching: caching,
		names:   names,
	}

	blob, err := db.openStore(ctx)
	if err != nil {
		_ = db.closeStore()
		return nil, translateError(fmt.Errorf("gisdb: open %s: %w", backend.name, err))
	}
	db.blob = blob
	db.size = blob.Size()

	db.pool = cache.New(cache.SourceFunc(db.readLine),
		cache.WithCapacity(o.cacheCapacity),
		cache.WithController(o.rc),
		cache.WithObserver(o.metricsCollector.RecordCacheAccess),
	)

	db.logger.DebugContext(ctx, "opened backing store", "bytes", db.size, "read_only", backend.readOnly)
	return db, nil
}

func (db *DB) openStore(ctx context.Context) (blobstore.Blob, error) {
	name := db.backend.name
	if db.opts.recreate && !db.backend.readOnly {
		if err := db.store.Delete(ctx, name); err != nil {
			return nil, err
		}
	}

	blob, err := db.store.Open(ctx, name)
	if errors.Is(err, blobstore.ErrNotFound) && !db.backend.readOnly {
		if err := db.store.Put(ctx, name, nil); err != nil {
			return nil, err
		}
		blob, err = db.store.Open(ctx, name)
	}
	return blob, err
}

func (db *DB) readLine(ctx context.Context, off int64) (string, error) {
	line, err := lineio.ReadLineAt(ctx, db.blob, off)
	if err == nil {
		db.logger.LogCacheMiss(ctx, off, nil)
	}
	return line, err
}

// SetWorld sets the boundary of the spatial index in arc-seconds and resets
// both indexes and the record cache. Records already in the backing store are
// indexed again by Rebuild.
func (db *DB) SetWorld(west, east, south, north int64) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return ErrClosed
	}

	tree, err := spatial.New(spatial.Rect{XMin: west, XMax: east, YMin: south, YMax: north}, db.opts.bucketSize)
	if err != nil {
		return err
	}
	names, err := hashindex.New(db.opts.hashConfig)
	if err != nil {
		return err
	}

	db.tree = tree
	db.names = names
	db.pool.Reset()
	return nil
}

// World returns the spatial boundary and whether it has been set.
func (db *DB) World() (spatial.Rect, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.tree == nil {
		return spatial.Rect{}, false
	}
	return db.tree.World(), true
}

// ReadOnly reports whether Import is rejected.
func (db *DB) ReadOnly() bool { return db.backend.readOnly }

// Stats describes the indexes and the record cache.
type Stats struct {
	// StoreBytes is the size of the backing store.
	StoreBytes int64
	// Names is the number of distinct name keys.
	Names int
	// Records is the number of offsets in the name index.
	Records int
	// Locations is the number of distinct coordinates in the spatial index.
	Locations    int
	TreeHeight   int
	HashCapacity int
	CacheLen     int
	Cache        cache.Stats
}

// Stats returns a snapshot of index sizes and cache counters.
func (db *DB) Stats() Stats {
	db.mu.RLock()
	defer db.mu.RUnlock()

	s := Stats{
		StoreBytes:   db.size,
		Names:        db.names.Len(),
		Records:      db.names.Offsets(),
		HashCapacity: db.names.Capacity(),
		CacheLen:     db.pool.Len(),
		Cache:        db.pool.Stats(),
	}
	if db.tree != nil {
		s.Locations = db.tree.Len()
		s.TreeHeight = db.tree.Height()
	}
	return s
}

// DumpHash writes the name index layout to w.
func (db *DB) DumpHash(w io.Writer) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return ErrClosed
	}
	return db.names.Dump(w)
}

// DumpQuad writes the spatial index structure to w.
func (db *DB) DumpQuad(w io.Writer) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.spatialReady(); err != nil {
		return err
	}
	return db.tree.Dump(w)
}

// DumpPool writes the record cache from most to least recently used.
func (db *DB) DumpPool(w io.Writer) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return ErrClosed
	}
	return db.pool.Dump(w)
}

// Close syncs pending writes and releases the backing store.
// Subsequent operations return ErrClosed.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if db.closed {
		return nil
	}
	db.closed = true

	var errs []error
	if db.writer != nil {
		errs = append(errs, db.writer.Sync(), db.writer.Close())
		db.writer = nil
	}
	errs = append(errs, db.pool.Close(), db.closeStore())
	return errors.Join(errs...)
}

func (db *DB) closeStore() error {
	var errs []error
	if db.blob != nil {
		errs = append(errs, db.blob.Close())
		db.blob = nil
	}
	if db.caching != nil {
		errs = append(errs, db.caching.Close())
	}
	return errors.Join(errs...)
}

func (db *DB) spatialReady() error {
	if db.closed {
		return ErrClosed
	}
	if db.tree == nil {
		return ErrNoWorld
	}
	return nil
}

func (db *DB) writable() error {
	if db.closed {
		return ErrClosed
	}
	if db.backend.readOnly {
		return ErrReadOnly
	}
	return nil
}
