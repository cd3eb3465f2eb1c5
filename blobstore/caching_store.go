package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/dgraph-io/ristretto/v2"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBlockSize is the granularity of cached reads.
	DefaultBlockSize = 4096
	// DefaultCacheBytes bounds the block cache.
	DefaultCacheBytes = 64 << 20
)

// CachingOption configures a CachingStore.
type CachingOption func(*cachingConfig)

type cachingConfig struct {
	blockSize  int64
	cacheBytes int64
	fetchers   int
}

// WithBlockSize sets the cached block size in bytes.
func WithBlockSize(n int64) CachingOption {
	return func(c *cachingConfig) {
		if n > 0 {
			c.blockSize = n
		}
	}
}

// WithCacheBytes sets the total cost budget of the block cache.
func WithCacheBytes(n int64) CachingOption {
	return func(c *cachingConfig) {
		if n > 0 {
			c.cacheBytes = n
		}
	}
}

// WithFetchers limits concurrent backend reads when filling the cache.
func WithFetchers(n int) CachingOption {
	return func(c *cachingConfig) {
		if n > 0 {
			c.fetchers = n
		}
	}
}

// CachingStore wraps a BlobStore and caches fixed-size blocks of blob reads.
//
// Writes through the store invalidate cached blocks of the affected name.
// Blobs mutated behind the store's back are not detected.
type CachingStore struct {
	inner BlobStore
	cfg   cachingConfig
	cache *ristretto.Cache[string, []byte]

	mu          sync.Mutex
	generations map[string]uint64
}

// NewCachingStore wraps inner with a block cache.
func NewCachingStore(inner BlobStore, opts ...CachingOption) (*CachingStore, error) {
	cfg := cachingConfig{
		blockSize:  DefaultBlockSize,
		cacheBytes: DefaultCacheBytes,
		fetchers:   8,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: max(10*cfg.cacheBytes/cfg.blockSize, 100),
		MaxCost:     cfg.cacheBytes,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("blobstore: block cache: %w", err)
	}

	return &CachingStore{
		inner:       inner,
		cfg:         cfg,
		cache:       c,
		generations: make(map[string]uint64),
	}, nil
}

func (s *CachingStore) generation(name string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[name]
}

func (s *CachingStore) invalidate(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[name]++
}

// Open opens a blob whose reads go through the block cache.
func (s *CachingStore) Open(ctx context.Context, name string) (Blob, error) {
	b, err := s.inner.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	return &cachingBlob{
		inner: b,
		store: s,
		name:  name,
		gen:   s.generation(name),
	}, nil
}

// Create passes through to the inner store.
func (s *CachingStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	s.invalidate(name)
	return s.inner.Create(ctx, name)
}

// Put passes through to the inner store.
func (s *CachingStore) Put(ctx context.Context, name string, data []byte) error {
	s.invalidate(name)
	return s.inner.Put(ctx, name, data)
}

// Delete passes through to the inner store.
func (s *CachingStore) Delete(ctx context.Context, name string) error {
	s.invalidate(name)
	return s.inner.Delete(ctx, name)
}

// List passes through to the inner store.
func (s *CachingStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Wait blocks until pending cache admissions are applied.
func (s *CachingStore) Wait() { s.cache.Wait() }

// HitRatio reports the block cache hit ratio.
func (s *CachingStore) HitRatio() float64 { return s.cache.Metrics.Ratio() }

// Close releases the block cache.
func (s *CachingStore) Close() error {
	s.cache.Close()
	return nil
}

type cachingBlob struct {
	inner Blob
	store *CachingStore
	name  string
	gen   uint64
}

func (b *cachingBlob) key(blk int64) string {
	return fmt.Sprintf("%s\x00%d\x00%d", b.name, b.gen, blk)
}

func (b *cachingBlob) Size() int64  { return b.inner.Size() }
func (b *cachingBlob) Close() error { return b.inner.Close() }

func (b *cachingBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	return newSectionReader(ctx, b, off, length), nil
}

func (b *cachingBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	size := b.Size()
	if off < 0 || off >= size {
		return 0, io.EOF
	}

	bs := b.store.cfg.blockSize
	end := min(off+int64(len(p)), size)
	first, last := off/bs, (end-1)/bs

	blocks, err := b.blocks(ctx, first, last)
	if err != nil {
		return 0, err
	}

	n := 0
	for blk := first; blk <= last; blk++ {
		data := blocks[blk]
		start := blk * bs
		lo := max(off, start) - start
		hi := min(end, start+int64(len(data))) - start
		if lo >= hi {
			break
		}
		n += copy(p[n:], data[lo:hi])
	}

	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// blocks returns blocks first..last, fetching contiguous runs of misses
// from the inner blob concurrently.
func (b *cachingBlob) blocks(ctx context.Context, first, last int64) (map[int64][]byte, error) {
	out := make(map[int64][]byte, last-first+1)

	type run struct{ start, count int64 }
	var runs []run
	for blk := first; blk <= last; blk++ {
		if data, ok := b.store.cache.Get(b.key(blk)); ok {
			out[blk] = data
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].start+runs[n-1].count == blk {
			runs[n-1].count++
		} else {
			runs = append(runs, run{start: blk, count: 1})
		}
	}
	if len(runs) == 0 {
		return out, nil
	}

	bs := b.store.cfg.blockSize
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.store.cfg.fetchers)

	for _, r := range runs {
		g.Go(func() error {
			buf := make([]byte, r.count*bs)
			n, err := b.inner.ReadAt(gctx, buf, r.start*bs)
			if err != nil && !errors.Is(err, io.EOF) {
				return err
			}
			buf = buf[:n]

			mu.Lock()
			defer mu.Unlock()
			for i := int64(0); i < r.count && i*bs < int64(len(buf)); i++ {
				block := buf[i*bs : min((i+1)*bs, int64(len(buf)))]
				block = block[:len(block):len(block)]
				out[r.start+i] = block
				b.store.cache.Set(b.key(r.start+i), block, int64(len(block)))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
