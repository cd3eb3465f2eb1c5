package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "features.db")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestOpenReadClose(t *testing.T) {
	f, err := Open(writeFile(t, "first line\nsecond line\n"))
	require.NoError(t, err)

	assert.Equal(t, int64(23), f.Len())

	buf := make([]byte, 6)
	n, err := f.ReadAt(buf, 11)
	require.NoError(t, err)
	assert.Equal(t, "second", string(buf[:n]))

	n, err = f.ReadAt(buf, 21)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "e\n", string(buf[:n]))

	_, err = f.ReadAt(buf, 23)
	assert.ErrorIs(t, err, io.EOF)

	_, err = f.ReadAt(buf, -1)
	assert.ErrorIs(t, err, ErrInvalidOffset)

	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	assert.Zero(t, f.Len())

	_, err = f.ReadAt(buf, 0)
	assert.ErrorIs(t, err, ErrClosed)

	_, err = f.Grow()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestReadAfterAppend(t *testing.T) {
	path := writeFile(t, "header\n")
	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	grew, err := f.Grow()
	require.NoError(t, err)
	assert.False(t, grew)

	out, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = out.WriteString("record\n")
	require.NoError(t, err)
	require.NoError(t, out.Close())

	buf := make([]byte, 6)
	n, err := f.ReadAt(buf, 7)
	require.NoError(t, err)
	assert.Equal(t, "record", string(buf[:n]))
	assert.Equal(t, int64(14), f.Len())
}

func TestOpenEmpty(t *testing.T) {
	path := writeFile(t, "")
	f, err := Open(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Zero(t, f.Len())

	_, err = f.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, io.EOF)

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	grew, err := f.Grow()
	require.NoError(t, err)
	assert.True(t, grew)
	assert.Equal(t, int64(1), f.Len())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.db"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
