package minio

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/hupe1980/gisdb/blobstore"
	"github.com/hupe1980/gisdb/internal/lineio"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(fmt.Errorf("dial tcp: refused")))
}

func TestStore_KeyMapping(t *testing.T) {
	for _, prefix := range []string{"va", "va/"} {
		s := NewStore(nil, "gis-data", WithPrefix(prefix))

		assert.Equal(t, "va/features.db", s.key("features.db"))
		assert.Equal(t, "va/", s.listPrefix(""))
		assert.Equal(t, "va/arch", s.listPrefix("arch"))
		assert.Equal(t, "features.db", s.name("va/features.db"))
		assert.Equal(t, "archive/2012.db", s.name("va/archive/2012.db"))
	}

	s := NewStore(nil, "gis-data")
	assert.Equal(t, "features.db", s.key("features.db"))
	assert.Equal(t, "features.db", s.name("features.db"))
	assert.Equal(t, "", s.listPrefix(""))
}

func TestMinioBlob_OutOfRange(t *testing.T) {
	b := &minioBlob{size: 10}
	ctx := context.Background()

	_, err := b.ReadAt(ctx, make([]byte, 4), 10)
	assert.ErrorIs(t, err, io.EOF)

	n, err := b.ReadAt(ctx, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	r, err := b.ReadRange(ctx, 12, 3)
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, data)
}

// TestStore_Integration runs against the server named by GISDB_MINIO_ENDPOINT.
func TestStore_Integration(t *testing.T) {
	endpoint := os.Getenv("GISDB_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("GISDB_MINIO_ENDPOINT not set")
	}

	store, err := New(endpoint, "gisdb-test",
		WithCredentials(os.Getenv("GISDB_MINIO_ACCESS_KEY"), os.Getenv("GISDB_MINIO_SECRET_KEY")),
		WithPrefix(fmt.Sprintf("run-%d/", time.Now().UnixNano())),
	)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.EnsureBucket(ctx))

	content := "header\n1479116|Monterey|Populated Place|VA\n"
	require.NoError(t, store.Put(ctx, "features.db", []byte(content)))

	blob, err := store.Open(ctx, "features.db")
	require.NoError(t, err)
	defer blob.Close()
	require.Equal(t, int64(len(content)), blob.Size())

	line, err := lineio.ReadLineAt(ctx, blob, 7)
	require.NoError(t, err)
	assert.Equal(t, "1479116|Monterey|Populated Place|VA", line)

	w, err := store.Create(ctx, "copy.db")
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"copy.db", "features.db"}, names)

	require.NoError(t, store.Delete(ctx, "copy.db"))
	require.NoError(t, store.Delete(ctx, "features.db"))

	_, err = store.Open(ctx, "features.db")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
