package fs

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOS(t *testing.T) {
	tmp := t.TempDir()
	lfs := OS{}

	dir := filepath.Join(tmp, "subdir")
	require.NoError(t, lfs.MkdirAll(dir, 0o755))

	fpath := filepath.Join(dir, "store.db")
	f, err := lfs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)

	_, err = f.Write([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, f.Sync())

	buf := make([]byte, 3)
	n, err := f.ReadAt(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, "llo", string(buf[:n]))
	require.NoError(t, f.Close())

	info, err := os.Stat(fpath)
	require.NoError(t, err)
	assert.Equal(t, int64(5), info.Size())

	entries, err := lfs.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	renamed := filepath.Join(dir, "renamed.db")
	require.NoError(t, lfs.Rename(fpath, renamed))
	require.NoError(t, lfs.Remove(renamed))

	_, err = os.Stat(renamed)
	assert.True(t, os.IsNotExist(err))
}

func TestOpenAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "va", "db.txt")

	for _, line := range []string{"header\n", "record\n"} {
		f, err := OpenAppend(Default, path)
		require.NoError(t, err)
		_, err = f.Write([]byte(line))
		require.NoError(t, err)
		require.NoError(t, f.Close())
	}

	f, err := Open(Default, path)
	require.NoError(t, err)
	defer f.Close()

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "header\nrecord\n", string(data))

	_, err = f.Write([]byte("x"))
	assert.Error(t, err)
}

func TestFaultyFS_WriteLimit(t *testing.T) {
	ffs := NewFaultyFS(nil)
	ffs.AddRule(".db", Fault{FailAfterBytes: 5})

	f, err := ffs.OpenFile(filepath.Join(t.TempDir(), "store.db"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	n, err = f.Write([]byte("!"))
	assert.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, 0, n)
}

func TestFaultyFS_ReadAndSync(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "store.db")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))

	ffs := NewFaultyFS(OS{})
	ffs.AddRule("store", Fault{FailAfterBytes: -1, FailOnRead: true, FailOnSync: true})

	f, err := ffs.OpenFile(path, os.O_RDWR, 0)
	require.NoError(t, err)
	defer f.Close()

	_, err = f.ReadAt(make([]byte, 2), 0)
	assert.ErrorIs(t, err, ErrInjected)

	_, err = io.ReadAll(f)
	assert.ErrorIs(t, err, ErrInjected)

	assert.ErrorIs(t, f.Sync(), ErrInjected)
}

func TestFaultyFS_OpenAndRules(t *testing.T) {
	tmp := t.TempDir()
	custom := os.ErrPermission

	ffs := NewFaultyFS(nil)
	ffs.AddRule("locked", Fault{FailOnOpen: true, Err: custom})
	ffs.AddRule("locked-but-fine", NoFault)

	_, err := ffs.OpenFile(filepath.Join(tmp, "locked.db"), os.O_CREATE|os.O_RDWR, 0o644)
	assert.ErrorIs(t, err, custom)

	f, err := ffs.OpenFile(filepath.Join(tmp, "locked-but-fine.db"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ffs.ClearRules()
	f, err = ffs.OpenFile(filepath.Join(tmp, "locked.db"), os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestFaultyFS_Delegation(t *testing.T) {
	tmp := t.TempDir()
	ffs := NewFaultyFS(OS{})

	dir := filepath.Join(tmp, "subdir")
	require.NoError(t, ffs.MkdirAll(dir, 0o755))

	fpath := filepath.Join(dir, "a.db")
	f, err := ffs.OpenFile(fpath, os.O_CREATE|os.O_RDWR, 0o644)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	entries, err := ffs.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, ffs.Rename(fpath, fpath+".old"))
	_, err = os.Stat(fpath + ".old")
	require.NoError(t, err)
	require.NoError(t, ffs.Remove(fpath+".old"))
}
