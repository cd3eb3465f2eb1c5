package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hupe1980/gisdb/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func line(i int64) string {
	return fmt.Sprintf("%d|Feature%d|Stream|VA|51|Highland|091|382443N|0793450W|38.4|-79.5|||||881|2890|Monterey|09/28/1979", i, i)
}

type fakeSource struct {
	lines map[int64]string
	reads map[int64]int
	err   error
}

func newFakeSource(n int64) *fakeSource {
	s := &fakeSource{lines: make(map[int64]string), reads: make(map[int64]int)}
	for i := int64(0); i < n; i++ {
		s.lines[i] = line(i)
	}
	return s
}

func (s *fakeSource) ReadLine(_ context.Context, off int64) (string, error) {
	s.reads[off]++
	if s.err != nil {
		return "", s.err
	}
	l, ok := s.lines[off]
	if !ok {
		return "", fmt.Errorf("offset %d past end", off)
	}
	return l, nil
}

func offsets(entries []Entry) []int64 {
	out := make([]int64, len(entries))
	for i, e := range entries {
		out[i] = e.Offset
	}
	return out
}

func TestGet_ReadThroughAndHit(t *testing.T) {
	src := newFakeSource(3)
	c := New(src)
	ctx := context.Background()

	rec, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Feature1", rec.FeatureName)
	assert.Equal(t, 1, src.reads[1])

	rec, err = c.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Feature1", rec.FeatureName)
	assert.Equal(t, 1, src.reads[1], "hit must not read the source")

	assert.Equal(t, Stats{Hits: 1, Misses: 1, Reads: 1}, c.Stats())
}

func TestGet_EvictsLeastRecentlyUsed(t *testing.T) {
	src := newFakeSource(25)
	c := New(src)
	ctx := context.Background()

	for i := int64(0); i < 25; i++ {
		_, err := c.Get(ctx, i)
		require.NoError(t, err)
	}

	assert.Equal(t, DefaultCapacity, c.Len())

	want := make([]int64, 0, 20)
	for i := int64(24); i >= 5; i-- {
		want = append(want, i)
	}
	assert.Equal(t, want, offsets(c.Entries()))

	for i := int64(0); i < 5; i++ {
		assert.False(t, c.Contains(i))
	}
}

func TestGet_EvictedOffsetReadsOnce(t *testing.T) {
	src := newFakeSource(25)
	c := New(src)
	ctx := context.Background()

	for i := int64(0); i < 25; i++ {
		_, err := c.Get(ctx, i)
		require.NoError(t, err)
	}
	require.Equal(t, 1, src.reads[3])

	rec, err := c.Get(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, "Feature3", rec.FeatureName)
	assert.Equal(t, 2, src.reads[3])

	entries := c.Entries()
	assert.Equal(t, int64(3), entries[0].Offset)
	assert.Equal(t, int64(6), entries[len(entries)-1].Offset)
}

func TestGet_PromotesOnHit(t *testing.T) {
	c := New(newFakeSource(3), WithCapacity(2))
	ctx := context.Background()

	for _, off := range []int64{0, 1, 0, 2} {
		_, err := c.Get(ctx, off)
		require.NoError(t, err)
	}

	assert.Equal(t, []int64{2, 0}, offsets(c.Entries()))
}

func TestGet_SourceError(t *testing.T) {
	boom := errors.New("disk on fire")
	src := newFakeSource(1)
	src.err = boom
	c := New(src)

	_, err := c.Get(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestGet_MalformedLineNotCached(t *testing.T) {
	src := &fakeSource{lines: map[int64]string{0: "not|a|record"}, reads: map[int64]int{}}
	c := New(src)

	_, err := c.Get(context.Background(), 0)
	assert.Error(t, err)
	assert.False(t, c.Contains(0))
}

func TestGet_NoSource(t *testing.T) {
	c := New(nil)

	_, err := c.Get(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPut(t *testing.T) {
	c := New(nil, WithCapacity(2))

	require.NoError(t, c.Put("10:\t"+line(10)))
	require.NoError(t, c.Put("20:\t"+line(20)))
	require.NoError(t, c.Put("30:\t"+line(30)))

	assert.Equal(t, []int64{30, 20}, offsets(c.Entries()))

	rec, err := c.Get(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, "Feature20", rec.FeatureName)
}

func TestPut_Replaces(t *testing.T) {
	c := New(nil)

	require.NoError(t, c.Put("10:\told"))
	require.NoError(t, c.Put("11:\tother"))
	require.NoError(t, c.Put("10:\tnew"))

	assert.Equal(t, []Entry{{Offset: 10, Raw: "new"}, {Offset: 11, Raw: "other"}}, c.Entries())
}

func TestPut_Malformed(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Put("1:\tkeep"))

	for _, entry := range []string{"no delimiter", "1: missing tab", "abc:\tpayload", "-4:\tpayload"} {
		err := c.Put(entry)

		var malformed *ErrMalformedEntry
		require.ErrorAs(t, err, &malformed, entry)
		assert.Equal(t, entry, malformed.Entry)
	}

	assert.Equal(t, []Entry{{Offset: 1, Raw: "keep"}}, c.Entries())
}

func TestDump(t *testing.T) {
	c := New(nil)
	require.NoError(t, c.Put("0:\talpha"))
	require.NoError(t, c.Put("42:\tbeta"))

	var buf bytes.Buffer
	require.NoError(t, c.Dump(&buf))
	assert.Equal(t, "MRU\n42:\tbeta\n0:\talpha\nLRU\n", buf.String())

	buf.Reset()
	require.NoError(t, New(nil).Dump(&buf))
	assert.Equal(t, "MRU\nLRU\n", buf.String())
}

func TestMemoryBudget(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 10})
	c := New(nil, WithController(rc))

	require.NoError(t, c.Put("1:\taaaa"))
	require.NoError(t, c.Put("2:\tbbbb"))
	assert.Equal(t, int64(8), rc.Reserved())

	// Needs 4 more bytes than remain: the LRU entry makes room.
	require.NoError(t, c.Put("3:\tcccc"))
	assert.Equal(t, []int64{3, 2}, offsets(c.Entries()))
	assert.Equal(t, int64(8), rc.Reserved())

	// Larger than the entire budget: not cached, nothing evicted.
	require.NoError(t, c.Put("4:\t0123456789abc"))
	assert.False(t, c.Contains(4))
	assert.Equal(t, []int64{3, 2}, offsets(c.Entries()))
	assert.Equal(t, int64(8), rc.Reserved())

	require.NoError(t, c.Put("5:\tdd"))
	require.NoError(t, c.Close())
	assert.Equal(t, int64(0), rc.Reserved())
	assert.Equal(t, 0, c.Len())
}

func TestObserver(t *testing.T) {
	var hits, misses int
	c := New(newFakeSource(2), WithObserver(func(hit bool) {
		if hit {
			hits++
		} else {
			misses++
		}
	}))
	ctx := context.Background()

	_, _ = c.Get(ctx, 0)
	_, _ = c.Get(ctx, 0)
	_, _ = c.Get(ctx, 1)

	assert.Equal(t, 1, hits)
	assert.Equal(t, 2, misses)
}

func TestSourceFunc(t *testing.T) {
	var calls int
	c := New(SourceFunc(func(_ context.Context, off int64) (string, error) {
		calls++
		return line(off), nil
	}))

	rec, err := c.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "7", rec.FeatureID)
	assert.Equal(t, 1, calls)
}
