package gisdb

import (
	"path/filepath"

	"github.com/hupe1980/gisdb/blobstore"
)

// Backend locates the backing store of a DB.
type Backend struct {
	path     string
	store    blobstore.BlobStore
	name     string
	readOnly bool
	remote   bool
}

// Local returns a read-write backend for the file at path. The file is
// created if it does not exist.
func Local(path string) Backend {
	return Backend{path: path, name: filepath.Base(path)}
}

// Remote returns a read-only backend for the blob name in store.
func Remote(store blobstore.BlobStore, name string) Backend {
	return Backend{store: store, name: name, readOnly: true, remote: true}
}

// Store returns a backend for the blob name in store. It is writable when
// store implements blobstore.Appender.
func Store(store blobstore.BlobStore, name string) Backend {
	_, ok := store.(blobstore.Appender)
	return Backend{store: store, name: name, readOnly: !ok}
}

// Name returns the blob name of the backing store.
func (b Backend) Name() string { return b.name }

func (b Backend) resolve(o *options) (blobstore.BlobStore, *blobstore.CachingStore, error) {
	if b.store == nil {
		lopts := []blobstore.LocalOption{blobstore.WithFileSystem(o.fs)}
		if o.mmap {
			lopts = append(lopts, blobstore.WithMmap())
		}
		return blobstore.NewLocalStore(filepath.Dir(b.path), lopts...), nil, nil
	}
	if b.remote && o.remoteCacheBytes > 0 {
		cs, err := blobstore.NewCachingStore(b.store, blobstore.WithCacheBytes(o.remoteCacheBytes))
		if err != nil {
			return nil, nil, err
		}
		return cs, cs, nil
	}
	return b.store, nil, nil
}
