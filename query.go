package gisdb

import (
	"context"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/gisdb/record"
	"github.com/hupe1980/gisdb/spatial"
)

// Match is a record resolved from a backing-store offset.
type Match struct {
	Offset int64
	Record record.Record
}

// Region returns the rectangle centred on (x, y) extending halfWidth
// arc-seconds east and west and halfHeight north and south.
func Region(x, y, halfHeight, halfWidth int64) spatial.Rect {
	return spatial.Rect{
		XMin: x - halfWidth, XMax: x + halfWidth,
		YMin: y - halfHeight, YMax: y + halfHeight,
	}
}

// WhatIsAt returns the records located exactly at (x, y).
func (db *DB) WhatIsAt(ctx context.Context, x, y int64) ([]Match, error) {
	start := time.Now()

	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.spatialReady(); err != nil {
		return nil, db.observe(ctx, QueryAt, 0, start, err)
	}

	offs, _ := db.tree.Find(x, y)
	matches, err := db.resolve(ctx, offs)
	return matches, db.observe(ctx, QueryAt, len(matches), start, err)
}

// WhatIs returns the records whose name and state match, case-insensitively.
func (db *DB) WhatIs(ctx context.Context, name, state string) ([]Match, error) {
	start := time.Now()

	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return nil, db.observe(ctx, QueryName, 0, start, ErrClosed)
	}

	offs := db.names.FindAll(record.NameKey(name, state))
	matches, err := db.resolve(ctx, offs)
	return matches, db.observe(ctx, QueryName, len(matches), start, err)
}

// WhatIsIn returns the records located in Region(x, y, halfHeight, halfWidth),
// boundary included.
func (db *DB) WhatIsIn(ctx context.Context, x, y, halfHeight, halfWidth int64) ([]Match, error) {
	start := time.Now()

	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.spatialReady(); err != nil {
		return nil, db.observe(ctx, QueryRegion, 0, start, err)
	}

	offs := db.regionOffsets(Region(x, y, halfHeight, halfWidth))
	matches, err := db.resolve(ctx, offs)
	return matches, db.observe(ctx, QueryRegion, len(matches), start, err)
}

// WhatIsNamedIn returns the records matching name and state that are located
// in r, in ascending offset order.
func (db *DB) WhatIsNamedIn(ctx context.Context, name, state string, r spatial.Rect) ([]Match, error) {
	start := time.Now()

	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.spatialReady(); err != nil {
		return nil, db.observe(ctx, QueryNamedIn, 0, start, err)
	}

	named := bitmapOf(db.names.FindAll(record.NameKey(name, state)))
	if named.IsEmpty() {
		return nil, db.observe(ctx, QueryNamedIn, 0, start, nil)
	}
	named.And(bitmapOf(db.regionOffsets(r)))

	offs := make([]int64, 0, named.GetCardinality())
	for _, off := range named.ToArray() {
		offs = append(offs, int64(off))
	}

	matches, err := db.resolve(ctx, offs)
	return matches, db.observe(ctx, QueryNamedIn, len(matches), start, err)
}

// CountAt returns the number of records located exactly at (x, y).
func (db *DB) CountAt(ctx context.Context, x, y int64) (int, error) {
	start := time.Now()

	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.spatialReady(); err != nil {
		return 0, db.observe(ctx, QueryAt, 0, start, err)
	}

	offs, _ := db.tree.Find(x, y)
	return len(offs), db.observe(ctx, QueryAt, len(offs), start, nil)
}

// CountNamed returns the number of records whose name and state match.
func (db *DB) CountNamed(ctx context.Context, name, state string) (int, error) {
	start := time.Now()

	db.mu.RLock()
	defer db.mu.RUnlock()

	if db.closed {
		return 0, db.observe(ctx, QueryName, 0, start, ErrClosed)
	}

	n := db.names.Count(record.NameKey(name, state))
	return n, db.observe(ctx, QueryName, n, start, nil)
}

// CountIn returns the number of records located in
// Region(x, y, halfHeight, halfWidth).
func (db *DB) CountIn(ctx context.Context, x, y, halfHeight, halfWidth int64) (int, error) {
	start := time.Now()

	db.mu.RLock()
	defer db.mu.RUnlock()

	if err := db.spatialReady(); err != nil {
		return 0, db.observe(ctx, QueryRegion, 0, start, err)
	}

	n := int(bitmapOf(db.regionOffsets(Region(x, y, halfHeight, halfWidth))).GetCardinality())
	return n, db.observe(ctx, QueryRegion, n, start, nil)
}

// regionOffsets flattens the offsets of every point in r, in tree order.
func (db *DB) regionOffsets(r spatial.Rect) []int64 {
	var offs []int64
	for _, p := range db.tree.FindRegion(r) {
		offs = append(offs, p.Offsets...)
	}
	return offs
}

// resolve reads each offset through the record cache. Offsets that cannot be
// read or parsed are logged and skipped.
func (db *DB) resolve(ctx context.Context, offs []int64) ([]Match, error) {
	matches := make([]Match, 0, len(offs))
	for _, off := range offs {
		if err := ctx.Err(); err != nil {
			return matches, err
		}

		rec, err := db.pool.Get(ctx, off)
		if err != nil {
			if ctx.Err() != nil {
				return matches, ctx.Err()
			}
			db.logger.LogCacheMiss(ctx, off, translateError(err))
			continue
		}
		matches = append(matches, Match{Offset: off, Record: rec})
	}
	return matches, nil
}

func (db *DB) observe(ctx context.Context, kind QueryKind, results int, start time.Time, err error) error {
	db.opts.metricsCollector.RecordQuery(kind, results, time.Since(start), err)
	db.logger.LogQuery(ctx, kind, results, err)
	return err
}

func bitmapOf(offs []int64) *roaring64.Bitmap {
	bm := roaring64.New()
	for _, off := range offs {
		bm.Add(uint64(off))
	}
	return bm
}
