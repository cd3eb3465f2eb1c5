package s3

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/gisdb/blobstore"
)

// Options configures a Store.
type Options struct {
	// Prefix is prepended to every blob name.
	Prefix string
	// Region overrides the region from the shared AWS configuration.
	Region string
	// Endpoint overrides the S3 endpoint, e.g. for LocalStack.
	Endpoint string
	// UsePathStyle addresses buckets as path segments instead of subdomains.
	UsePathStyle bool
	Upload       UploadConfig
}

// Option configures a Store.
type Option func(*Options)

// WithPrefix sets the key prefix, e.g. "va/".
func WithPrefix(prefix string) Option {
	return func(o *Options) { o.Prefix = prefix }
}

// WithRegion sets the AWS region.
func WithRegion(region string) Option {
	return func(o *Options) { o.Region = region }
}

// WithEndpoint sets a custom endpoint and switches to path-style addressing.
func WithEndpoint(endpoint string) Option {
	return func(o *Options) {
		o.Endpoint = endpoint
		o.UsePathStyle = true
	}
}

// WithUploadConfig replaces the upload settings.
func WithUploadConfig(cfg UploadConfig) Option {
	return func(o *Options) { o.Upload = cfg }
}

func newOptions(opts []Option) Options {
	o := Options{Upload: DefaultUploadConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Store implements blobstore.BlobStore for S3.
type Store struct {
	client Client
	bucket string
	opts   Options
}

var _ blobstore.BlobStore = (*Store)(nil)

// New creates a Store from the default AWS configuration chain.
func New(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	o := newOptions(opts)

	var loadOpts []func(*config.LoadOptions) error
	if o.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.Region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
		}
		so.UsePathStyle = o.UsePathStyle
	})

	return &Store{client: client, bucket: bucket, opts: o}, nil
}

// NewStore creates a Store over an existing client.
func NewStore(client Client, bucket string, opts ...Option) *Store {
	return &Store{client: client, bucket: bucket, opts: newOptions(opts)}
}

func (s *Store) key(name string) string {
	return path.Join(s.opts.Prefix, name)
}

// Open issues a HEAD request and returns a blob served by ranged GETs.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, blobstore.ErrNotFound
		}
		return nil, err
	}

	return &blob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	return errors.As(err, &nsk)
}

// Create streams a new object through the upload manager. The object is
// committed when the returned blob is closed.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	uploader := newUploader(s.client, s.opts.Upload)
	return newStreamingWritableBlob(ctx, uploader, s.bucket, s.key(name), s.opts.Upload.EnableChecksum), nil
}

// Put uploads data in a single request.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	return putObject(ctx, s.client, s.bucket, s.key(name), data, s.opts.Upload.EnableChecksum)
}

// Delete removes an object. Missing objects are not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	return err
}

// List returns blob names relative to the store prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string

	full := s.key(prefix)
	root := strings.TrimSuffix(s.opts.Prefix, "/")
	if prefix == "" && root != "" {
		// Keep a bare root from matching sibling prefixes.
		full += "/"
	}

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(full),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			name := aws.ToString(obj.Key)
			if root != "" {
				name = strings.TrimPrefix(name, root+"/")
			}
			names = append(names, name)
		}
	}

	sort.Strings(names)
	return names, nil
}
