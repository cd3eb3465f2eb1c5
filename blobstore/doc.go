// Package blobstore abstracts the append-only backing store that holds GIS
// feature records.
//
// A record's identity is the byte offset of its line within a blob, so every
// implementation supports random-access reads through [Blob.ReadAt]. Local
// stores also implement [Appender], which the import pipeline uses to extend
// an existing blob.
//
// # Implementations
//
//   - [LocalStore]: local filesystem, optionally memory-mapped for reads
//   - [MemoryStore]: in-process map, for tests and scratch databases
//   - [CachingStore]: block cache in front of a slow (remote) store
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible services
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Implementations must be safe for concurrent use.
package blobstore
