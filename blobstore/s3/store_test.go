package s3

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/gisdb/blobstore"
	"github.com/hupe1980/gisdb/internal/hash"
	"github.com/hupe1980/gisdb/internal/lineio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestStore_Open(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "gis-data", WithPrefix("va"))

	t.Run("NotFound", func(t *testing.T) {
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Bucket == "gis-data" && *input.Key == "va/missing.db"
		})).Return(nil, &types.NotFound{}).Once()

		_, err := store.Open(context.Background(), "missing.db")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("NoSuchKey", func(t *testing.T) {
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Key == "va/gone.db"
		})).Return(nil, &types.NoSuchKey{}).Once()

		_, err := store.Open(context.Background(), "gone.db")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("OtherError", func(t *testing.T) {
		denied := errors.New("access denied")
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Key == "va/secret.db"
		})).Return(nil, denied).Once()

		_, err := store.Open(context.Background(), "secret.db")
		assert.ErrorIs(t, err, denied)
	})

	t.Run("Success", func(t *testing.T) {
		mockClient.On("HeadObject", mock.Anything, mock.MatchedBy(func(input *s3.HeadObjectInput) bool {
			return *input.Key == "va/features.db"
		})).Return(&s3.HeadObjectOutput{ContentLength: aws.Int64(100)}, nil).Once()

		blob, err := store.Open(context.Background(), "features.db")
		require.NoError(t, err)
		assert.Equal(t, int64(100), blob.Size())
	})

	mockClient.AssertExpectations(t)
}

func TestStore_Delete(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "gis-data", WithPrefix("va"))

	mockClient.On("DeleteObject", mock.Anything, mock.MatchedBy(func(input *s3.DeleteObjectInput) bool {
		return *input.Bucket == "gis-data" && *input.Key == "va/old.db"
	})).Return(&s3.DeleteObjectOutput{}, nil).Once()

	require.NoError(t, store.Delete(context.Background(), "old.db"))
	mockClient.AssertExpectations(t)
}

func TestStore_List(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "gis-data", WithPrefix("va/"))

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return *input.Bucket == "gis-data" && *input.Prefix == "va/"
	})).Return(&s3.ListObjectsV2Output{
		Contents: []types.Object{
			{Key: aws.String("va/features.db")},
			{Key: aws.String("va/archive/2012.db")},
		},
	}, nil).Once()

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"archive/2012.db", "features.db"}, names)
}

func TestStore_ListPagination(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "gis-data", WithPrefix("va/"))

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("token"),
		Contents:              []types.Object{{Key: aws.String("va/b.db")}},
	}, nil).Once()

	mockClient.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
		return input.ContinuationToken != nil && *input.ContinuationToken == "token"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(false),
		Contents:    []types.Object{{Key: aws.String("va/a.db")}},
	}, nil).Once()

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.db", "b.db"}, names)
	mockClient.AssertExpectations(t)
}

func TestBlob_ReadAt(t *testing.T) {
	mockClient := new(MockS3Client)
	b := &blob{client: mockClient, bucket: "b", key: "k", size: 10}

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Bucket == "b" && *input.Key == "k" && *input.Range == "bytes=0-4"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("hello"))}, nil).Once()

	buf := make([]byte, 5)
	n, err := b.ReadAt(context.Background(), buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))
}

func TestBlob_ReadAtClampsToSize(t *testing.T) {
	mockClient := new(MockS3Client)
	b := &blob{client: mockClient, bucket: "b", key: "k", size: 10}

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Range == "bytes=7-9"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("ld\n"))}, nil).Once()

	buf := make([]byte, 8)
	n, err := b.ReadAt(context.Background(), buf, 7)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "ld\n", string(buf[:n]))

	_, err = b.ReadAt(context.Background(), buf, 10)
	assert.ErrorIs(t, err, io.EOF)
	mockClient.AssertExpectations(t)
}

func TestBlob_ReadLineThroughRangedGet(t *testing.T) {
	mockClient := new(MockS3Client)
	content := "header\n1479116|Monterey\n"
	b := &blob{client: mockClient, bucket: "b", key: "k", size: int64(len(content))}

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Range == "bytes=7-23"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(content[7:]))}, nil).Once()

	line, err := lineio.ReadLineAt(context.Background(), b, 7)
	require.NoError(t, err)
	assert.Equal(t, "1479116|Monterey", line)
}

func TestBlob_ReadRange(t *testing.T) {
	mockClient := new(MockS3Client)
	b := &blob{client: mockClient, bucket: "b", key: "k", size: 10}

	mockClient.On("GetObject", mock.Anything, mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Range == "bytes=2-6"
	})).Return(&s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("llo W"))}, nil).Once()

	r, err := b.ReadRange(context.Background(), 2, 5)
	require.NoError(t, err)
	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "llo W", string(data))

	r, err = b.ReadRange(context.Background(), 10, 5)
	require.NoError(t, err)
	data, err = io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestStore_Put(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "gis-data", WithPrefix("va"))

	mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
		return *input.Key == "va/small.db" &&
			aws.ToInt64(input.ContentLength) == 5 &&
			aws.ToString(input.ChecksumCRC32C) == hash.Checksum([]byte("hello"))
	})).Return(&s3.PutObjectOutput{}, nil).Once()

	require.NoError(t, store.Put(context.Background(), "small.db", []byte("hello")))
	mockClient.AssertExpectations(t)
}

func TestStore_Create(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "gis-data", WithPrefix("va"))

	var uploaded string
	mockClient.On("PutObject", mock.Anything, mock.MatchedBy(func(input *s3.PutObjectInput) bool {
		return *input.Bucket == "gis-data" && *input.Key == "va/features.db" &&
			input.ChecksumAlgorithm == types.ChecksumAlgorithmCrc32c
	})).Run(func(args mock.Arguments) {
		input := args.Get(1).(*s3.PutObjectInput)
		data, _ := io.ReadAll(input.Body)
		uploaded = string(data)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	wb, err := store.Create(context.Background(), "features.db")
	require.NoError(t, err)

	_, err = wb.Write([]byte("header\n"))
	require.NoError(t, err)
	_, err = wb.Write([]byte("1479116|Monterey\n"))
	require.NoError(t, err)

	require.NoError(t, wb.Sync())
	require.NoError(t, wb.Close())
	require.NoError(t, wb.Close())
	assert.Equal(t, "header\n1479116|Monterey\n", uploaded)

	_, err = wb.Write([]byte("late"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)
}

func TestStore_CreateUploadFails(t *testing.T) {
	mockClient := new(MockS3Client)
	store := NewStore(mockClient, "gis-data", WithUploadConfig(UploadConfig{EnableChecksum: false}))

	boom := errors.New("service unavailable")
	mockClient.On("PutObject", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		_, _ = io.ReadAll(args.Get(1).(*s3.PutObjectInput).Body)
	}).Return(nil, boom).Once()

	wb, err := store.Create(context.Background(), "features.db")
	require.NoError(t, err)
	_, err = wb.Write([]byte("data"))
	require.NoError(t, err)

	assert.ErrorIs(t, wb.Close(), boom)
}
