package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Open(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	data := []byte("hello")
	require.NoError(t, store.Put(ctx, "b", data))
	data[0] = 'j'

	w, err := store.Create(ctx, "a")
	require.NoError(t, err)
	_, err = w.Write([]byte("a-content"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)

	blob, err := store.Open(ctx, "b")
	require.NoError(t, err)
	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	n, err = blob.ReadAt(ctx, buf, 3)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "lo", string(buf[:n]))

	require.NoError(t, store.Delete(ctx, "b"))
	_, err = blob.ReadAt(ctx, buf, 0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Append(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	w, err := store.Append(ctx, "features.db")
	require.NoError(t, err)

	blob, err := store.Open(ctx, "features.db")
	require.NoError(t, err)
	assert.Equal(t, int64(0), blob.Size())

	_, err = w.Write([]byte("line one\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("line two\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, int64(18), blob.Size())

	r, err := blob.ReadRange(ctx, 9, 8)
	require.NoError(t, err)
	content, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "line two", string(content))
}

func TestCopy(t *testing.T) {
	ctx := context.Background()
	src := NewMemoryStore()
	dst := NewLocalStore(t.TempDir())

	require.NoError(t, src.Put(ctx, "features.db", []byte("one\ntwo\n")))
	blob, err := src.Open(ctx, "features.db")
	require.NoError(t, err)

	n, err := Copy(ctx, dst, "published/features.db", blob)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	out, err := dst.Open(ctx, "published/features.db")
	require.NoError(t, err)
	defer out.Close()

	buf := make([]byte, 8)
	_, err = out.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(buf))
}
