// Package cache provides RecordCache, a fixed-capacity LRU cache of raw
// backing-store lines keyed by byte offset.
//
// A miss reads the line through from a Source, parses it and caches it at the
// most-recently-used position, evicting the least-recently-used entry when the
// cache is full:
//
//	c := cache.New(src, cache.WithCapacity(20))
//	rec, err := c.Get(ctx, 1024)
//
// Entries hold no authoritative data; the Source is always consulted again
// after eviction.
package cache
