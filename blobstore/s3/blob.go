package s3

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// blob is an immutable S3 object read by byte range.
type blob struct {
	client Client
	bucket string
	key    string
	size   int64
}

func (b *blob) Close() error { return nil }

func (b *blob) Size() int64 { return b.size }

func (b *blob) get(ctx context.Context, off, length int64) (io.ReadCloser, int64, error) {
	end := min(off+length, b.size) - 1

	resp, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", off, end)),
	})
	if err != nil {
		return nil, 0, err
	}
	return resp.Body, end - off + 1, nil
}

// ReadAt reads len(p) bytes at off with a single ranged GET.
func (b *blob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if off < 0 || off >= b.size {
		return 0, io.EOF
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	body, want, err := b.get(ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer func() { _ = body.Close() }()

	n, err := io.ReadFull(body, p[:want])
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return n, io.EOF
		}
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// ReadRange streams a byte range. Ranges starting past the end are empty.
func (b *blob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if off < 0 || off >= b.size || length <= 0 {
		return io.NopCloser(eofReader{}), nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, _, err := b.get(ctx, off, length)
	return body, err
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }
