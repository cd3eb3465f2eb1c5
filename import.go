package gisdb

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/gisdb/blobstore"
	"github.com/hupe1980/gisdb/hashindex"
	"github.com/hupe1980/gisdb/internal/fs"
	"github.com/hupe1980/gisdb/internal/lineio"
	"github.com/hupe1980/gisdb/record"
	"github.com/hupe1980/gisdb/resource"
	"github.com/hupe1980/gisdb/spatial"
)

// ImportStats summarizes an Import or Rebuild pass.
type ImportStats struct {
	// Lines is the number of record lines read, excluding the header.
	Lines int
	// ByName is the number of records added to the name index.
	ByName int
	// ByLocation is the number of records added to the spatial index.
	ByLocation int
	// LongestProbe is the longest name index probe sequence of the pass.
	LongestProbe int
	// Malformed is the number of lines skipped because they did not parse.
	Malformed int
	// Unlocated is the number of records without usable coordinates.
	Unlocated int
	// OutsideWorld is the number of records located outside the world.
	OutsideWorld int
}

// Import appends the records of the GNIS file at path to the backing store
// and indexes them. Files ending in .gz, .zst or .lz4 are decompressed.
//
// The first line of the file is a header. It is copied to the backing store
// only when the store is empty. Every record line is written before it is
// indexed, so offsets in the indexes always point at stored bytes. Malformed
// lines are logged and skipped.
func (db *DB) Import(ctx context.Context, path string) (ImportStats, error) {
	start := time.Now()

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.writable(); err != nil {
		return ImportStats{}, err
	}
	if db.tree == nil {
		return ImportStats{}, ErrNoWorld
	}

	src, err := db.openSource(path)
	if err != nil {
		return ImportStats{}, fmt.Errorf("gisdb: import %s: %w", path, err)
	}
	defer src.Close()

	w, err := db.appender(ctx)
	if err != nil {
		return ImportStats{}, fmt.Errorf("gisdb: import %s: %w", path, err)
	}

	stats, err := db.ingest(ctx, src, w)
	if err == nil && !db.opts.syncEachLine {
		err = w.Sync()
	}
	if err != nil {
		err = fmt.Errorf("gisdb: import %s: %w", path, err)
	}

	db.opts.metricsCollector.RecordImport(stats.Lines, stats.Malformed, time.Since(start))
	db.logger.LogImport(ctx, path, stats.ByName, stats.LongestProbe, err)
	return stats, err
}

func (db *DB) appender(ctx context.Context) (blobstore.WritableBlob, error) {
	if db.writer != nil {
		return db.writer, nil
	}
	a, ok := db.store.(blobstore.Appender)
	if !ok {
		return nil, ErrReadOnly
	}
	w, err := a.Append(ctx, db.backend.name)
	if err != nil {
		return nil, err
	}
	db.writer = w
	return w, nil
}

func (db *DB) ingest(ctx context.Context, r io.Reader, w blobstore.WritableBlob) (ImportStats, error) {
	var stats ImportStats

	sc := lineio.NewScanner(r, 0)
	if !sc.Scan() {
		return stats, sc.Err()
	}
	if db.size == 0 {
		if err := db.appendLine(w, sc.Line()); err != nil {
			return stats, err
		}
	}

	for lineNo := 2; sc.Scan(); lineNo++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		line := sc.Line()
		if line == "" {
			continue
		}
		stats.Lines++

		rec, err := record.Parse(line)
		if err != nil {
			stats.Malformed++
			db.logger.LogMalformed(ctx, lineNo, err)
			continue
		}

		off := db.size
		if err := db.appendLine(w, line); err != nil {
			return stats, err
		}
		if err := db.index(rec, off, &stats); err != nil {
			return stats, err
		}
	}
	return stats, sc.Err()
}

func (db *DB) appendLine(w blobstore.WritableBlob, line string) error {
	n, err := io.WriteString(w, line+"\n")
	db.size += int64(n)
	if err != nil {
		return fmt.Errorf("write offset %d: %w", db.size-int64(n), err)
	}
	if db.opts.syncEachLine {
		return w.Sync()
	}
	return nil
}

// index adds rec at off to both indexes. Only a name index capacity error is
// returned; records that cannot be located are counted.
func (db *DB) index(rec record.Record, off int64, stats *ImportStats) error {
	probes, err := db.names.Insert(rec.Key(), off)
	if err != nil {
		return err
	}
	stats.ByName++
	stats.LongestProbe = max(stats.LongestProbe, probes)
	db.opts.metricsCollector.RecordProbe(probes)

	x, y, err := rec.Coordinates()
	if err != nil {
		stats.Unlocated++
		return nil
	}
	if !db.tree.Insert(spatial.NewPoint(x, y, off)) {
		stats.OutsideWorld++
		db.logger.Debug("record not located", "offset", off, "reason", ErrOutsideWorld)
		return nil
	}
	stats.ByLocation++
	return nil
}

// Rebuild clears both indexes and the record cache, then indexes every record
// of the backing store again. The world must be set.
func (db *DB) Rebuild(ctx context.Context) (ImportStats, error) {
	start := time.Now()

	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.spatialReady(); err != nil {
		return ImportStats{}, err
	}

	stats, err := db.rebuild(ctx)
	if err != nil {
		err = fmt.Errorf("gisdb: rebuild: %w", err)
	}

	db.opts.metricsCollector.RecordImport(stats.Lines, stats.Malformed, time.Since(start))
	db.logger.LogImport(ctx, db.backend.name, stats.ByName, stats.LongestProbe, err)
	return stats, err
}

func (db *DB) rebuild(ctx context.Context) (ImportStats, error) {
	var stats ImportStats

	tree, err := spatial.New(db.tree.World(), db.opts.bucketSize)
	if err != nil {
		return stats, err
	}
	names, err := hashindex.New(db.opts.hashConfig)
	if err != nil {
		return stats, err
	}
	db.tree, db.names = tree, names
	db.pool.Reset()

	db.size = db.blob.Size()
	rc, err := db.blob.ReadRange(ctx, 0, db.size)
	if err != nil {
		return stats, err
	}
	defer rc.Close()

	sc := lineio.NewScanner(resource.NewRateLimitedReader(ctx, rc, db.opts.rc), 0)
	if !sc.Scan() {
		return stats, sc.Err()
	}

	for lineNo := 2; sc.Scan(); lineNo++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		line := sc.Line()
		if line == "" {
			continue
		}
		stats.Lines++

		rec, err := record.Parse(line)
		if err != nil {
			stats.Malformed++
			db.logger.LogMalformed(ctx, lineNo, err)
			continue
		}
		if err := db.index(rec, sc.Offset(), &stats); err != nil {
			return stats, err
		}
	}
	return stats, sc.Err()
}

type source struct {
	io.Reader
	closers []io.Closer
}

func (s *source) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (db *DB) openSource(path string) (io.ReadCloser, error) {
	f, err := fs.Open(db.opts.fs, path)
	if err != nil {
		return nil, err
	}

	src := &source{Reader: f, closers: []io.Closer{f}}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		src.Reader = zr
		src.closers = append(src.closers, zr)
	case ".zst", ".zstd":
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		rc := zr.IOReadCloser()
		src.Reader = rc
		src.closers = append(src.closers, rc)
	case ".lz4":
		src.Reader = lz4.NewReader(f)
	}
	return src, nil
}
