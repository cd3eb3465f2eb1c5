package cache

import (
	"container/list"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/gisdb/record"
	"github.com/hupe1980/gisdb/resource"
)

const (
	// DefaultCapacity is the number of entries a cache holds unless configured otherwise.
	DefaultCapacity = 20

	// Delimiter separates the offset from the payload in Put entries and dumps.
	Delimiter = ":\t"
)

// Source reads the raw line stored at a backing-store offset.
type Source interface {
	ReadLine(ctx context.Context, off int64) (string, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, off int64) (string, error)

// ReadLine calls f.
func (f SourceFunc) ReadLine(ctx context.Context, off int64) (string, error) {
	return f(ctx, off)
}

// Entry is a cached line.
type Entry struct {
	Offset int64
	Raw    string
}

func (e Entry) String() string {
	return strconv.FormatInt(e.Offset, 10) + Delimiter + e.Raw
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits   int64
	Misses int64
	// Reads counts Source reads performed on misses.
	Reads int64
}

// Option configures a RecordCache.
type Option func(*RecordCache)

// WithCapacity sets the maximum number of entries. Values < 1 are ignored.
func WithCapacity(n int) Option {
	return func(c *RecordCache) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithController charges cached payload bytes against rc's memory limit and
// throttles read-through with its read limit.
func WithController(rc *resource.Controller) Option {
	return func(c *RecordCache) {
		c.rc = rc
	}
}

// WithObserver registers a callback invoked on every Get with whether it hit.
func WithObserver(fn func(hit bool)) Option {
	return func(c *RecordCache) {
		c.observe = fn
	}
}

// RecordCache is an LRU cache of backing-store lines with read-through.
type RecordCache struct {
	mu       sync.Mutex
	capacity int
	src      Source
	items    map[int64]*list.Element
	order    *list.List // front is most recently used
	rc       *resource.Controller
	observe  func(hit bool)

	hits   atomic.Int64
	misses atomic.Int64
	reads  atomic.Int64
}

// New creates a RecordCache reading misses from src.
func New(src Source, opts ...Option) *RecordCache {
	c := &RecordCache{
		capacity: DefaultCapacity,
		src:      src,
		items:    make(map[int64]*list.Element),
		order:    list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the record stored at off, promoting it to most recently used.
// On a miss the line is read once from the Source and cached.
func (c *RecordCache) Get(ctx context.Context, off int64) (record.Record, error) {
	c.mu.Lock()
	if el, ok := c.items[off]; ok {
		c.order.MoveToFront(el)
		raw := el.Value.(*Entry).Raw
		c.mu.Unlock()

		c.record(true)
		return record.Parse(raw)
	}
	c.mu.Unlock()
	c.record(false)

	raw, err := c.readThrough(ctx, off)
	if err != nil {
		return record.Record{}, err
	}

	rec, err := record.Parse(raw)
	if err != nil {
		return record.Record{}, fmt.Errorf("cache: offset %d: %w", off, err)
	}

	c.mu.Lock()
	c.insert(Entry{Offset: off, Raw: raw})
	c.mu.Unlock()

	return rec, nil
}

func (c *RecordCache) readThrough(ctx context.Context, off int64) (string, error) {
	if c.src == nil {
		return "", fmt.Errorf("%w: offset %d: no source", ErrNotFound, off)
	}

	c.reads.Add(1)
	raw, err := c.src.ReadLine(ctx, off)
	if err != nil {
		return "", fmt.Errorf("%w: offset %d: %w", ErrNotFound, off, err)
	}

	if err := c.rc.WaitRead(ctx, len(raw)+1); err != nil {
		return "", err
	}
	return raw, nil
}

func (c *RecordCache) record(hit bool) {
	if hit {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	if c.observe != nil {
		c.observe(hit)
	}
}

// Put caches an entry of the form "offset:\tpayload" at the most recently
// used position. Malformed entries are rejected and leave the cache unchanged.
func (c *RecordCache) Put(entry string) error {
	idx := strings.Index(entry, Delimiter)
	if idx < 0 {
		return &ErrMalformedEntry{Entry: entry}
	}

	off, err := strconv.ParseInt(entry[:idx], 10, 64)
	if err != nil || off < 0 {
		return &ErrMalformedEntry{Entry: entry}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.insert(Entry{Offset: off, Raw: entry[idx+len(Delimiter):]})
	return nil
}

// insert places e at the front, replacing an entry with the same offset.
// Caller must hold c.mu.
func (c *RecordCache) insert(e Entry) {
	if el, ok := c.items[e.Offset]; ok {
		c.removeElement(el)
	}

	size := int64(len(e.Raw))
	if limit := c.rc.Limit(); limit > 0 && size > limit {
		return
	}
	for !c.rc.Reserve(size) {
		if c.order.Len() == 0 {
			return
		}
		c.removeElement(c.order.Back())
	}

	for c.order.Len() >= c.capacity {
		c.removeElement(c.order.Back())
	}

	ent := e
	c.items[e.Offset] = c.order.PushFront(&ent)
}

func (c *RecordCache) removeElement(el *list.Element) {
	c.order.Remove(el)
	ent := el.Value.(*Entry)
	delete(c.items, ent.Offset)
	c.rc.Release(int64(len(ent.Raw)))
}

// Contains reports whether off is cached, without changing recency.
func (c *RecordCache) Contains(off int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.items[off]
	return ok
}

// Entries returns a snapshot ordered from most to least recently used.
func (c *RecordCache) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Entry, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		out = append(out, *el.Value.(*Entry))
	}
	return out
}

// Dump writes the entries between an "MRU" header and an "LRU" trailer.
func (c *RecordCache) Dump(w io.Writer) error {
	var b strings.Builder

	b.WriteString("MRU\n")
	for _, e := range c.Entries() {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	b.WriteString("LRU\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// Len returns the number of cached entries.
func (c *RecordCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Capacity returns the maximum number of entries.
func (c *RecordCache) Capacity() int { return c.capacity }

// Stats returns hit, miss and read counters.
func (c *RecordCache) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Reads:  c.reads.Load(),
	}
}

// Reset drops every entry and releases its memory reservation.
func (c *RecordCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.order.Len() > 0 {
		c.removeElement(c.order.Back())
	}
}

// Close releases all entries.
func (c *RecordCache) Close() error {
	c.Reset()
	return nil
}
