package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/hupe1980/gisdb/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Options configures a Store.
type Options struct {
	AccessKey string
	SecretKey string
	Secure    bool
	Region    string
	// Prefix is prepended to every blob name.
	Prefix string
}

// Option configures a Store.
type Option func(*Options)

// WithCredentials sets static access credentials.
func WithCredentials(accessKey, secretKey string) Option {
	return func(o *Options) {
		o.AccessKey = accessKey
		o.SecretKey = secretKey
	}
}

// WithSecure enables TLS.
func WithSecure(secure bool) Option {
	return func(o *Options) { o.Secure = secure }
}

// WithRegion sets the bucket region, skipping location lookups.
func WithRegion(region string) Option {
	return func(o *Options) { o.Region = region }
}

// WithPrefix sets the key prefix, e.g. "va/".
func WithPrefix(prefix string) Option {
	return func(o *Options) { o.Prefix = prefix }
}

// Store implements blobstore.BlobStore for MinIO and S3-compatible storage.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

var _ blobstore.BlobStore = (*Store)(nil)

// New connects to endpoint (host:port) and returns a Store for bucket.
func New(endpoint, bucket string, opts ...Option) (*Store, error) {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.Secure,
		Region: o.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: connect %s: %w", endpoint, err)
	}
	return NewStore(client, bucket, WithPrefix(o.Prefix)), nil
}

// NewStore creates a Store over an existing client. Only WithPrefix applies.
func NewStore(client *minio.Client, bucket string, opts ...Option) *Store {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{client: client, bucket: bucket, prefix: o.Prefix}
}

// EnsureBucket creates the bucket if it does not exist.
func (s *Store) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

// listPrefix keeps a bare root prefix from matching sibling directories.
func (s *Store) listPrefix(prefix string) string {
	p := s.key(prefix)
	if prefix == "" && p != "" {
		p += "/"
	}
	return p
}

func (s *Store) name(key string) string {
	root := strings.TrimSuffix(s.prefix, "/")
	if root == "" {
		return key
	}
	return strings.TrimPrefix(key, root+"/")
}

func isNotFound(err error) bool {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NotFound":
		return true
	}
	return false
}

// Open stats the object and returns a blob served by ranged GETs.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	return &minioBlob{client: s.client, bucket: s.bucket, key: key, size: info.Size}, nil
}

// Put uploads data in a single request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, s.key(name), bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{SendContentMd5: true})
	return err
}

// Create streams a new object; it is committed when the blob is closed.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	key := s.key(name)
	pr, pw := io.Pipe()

	blob := &minioWritableBlob{pw: pw, done: make(chan error, 1)}

	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, key, pr, -1, minio.PutObjectOptions{})
		_ = pr.CloseWithError(err)
		blob.done <- err
	}()

	return blob, nil
}

// Delete removes a blob. Missing blobs are not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, s.key(name), minio.RemoveObjectOptions{})
	if err != nil && !isNotFound(err) {
		return err
	}
	return nil
}

// List returns blob names relative to the store prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.listPrefix(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		if name := s.name(obj.Key); name != "" {
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}

type minioBlob struct {
	client *minio.Client
	bucket string
	key    string
	size   int64
}

func (b *minioBlob) Size() int64  { return b.size }
func (b *minioBlob) Close() error { return nil }

func (b *minioBlob) get(ctx context.Context, off, length int64) (*minio.Object, int64, error) {
	end := min(off+length, b.size) - 1

	opts := minio.GetObjectOptions{}
	if err := opts.SetRange(off, end); err != nil {
		return nil, 0, err
	}

	obj, err := b.client.GetObject(ctx, b.bucket, b.key, opts)
	if err != nil {
		return nil, 0, err
	}
	return obj, end - off + 1, nil
}

func (b *minioBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= b.size {
		return 0, io.EOF
	}

	obj, want, err := b.get(ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer obj.Close()

	n, err := io.ReadFull(obj, p[:want])
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *minioBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || off >= b.size || length <= 0 {
		return io.NopCloser(bytes.NewReader(nil)), nil
	}

	obj, _, err := b.get(ctx, off, length)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

type minioWritableBlob struct {
	pw   *io.PipeWriter
	done chan error

	mu       sync.Mutex
	closed   bool
	closeErr error
}

func (b *minioWritableBlob) Write(p []byte) (int, error) {
	return b.pw.Write(p)
}

// Sync is a no-op; the object is committed on Close.
func (b *minioWritableBlob) Sync() error { return nil }

func (b *minioWritableBlob) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return b.closeErr
	}
	b.closed = true

	if err := b.pw.Close(); err != nil {
		b.closeErr = err
		return err
	}
	b.closeErr = <-b.done
	return b.closeErr
}
