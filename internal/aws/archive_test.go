package aws

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockS3 struct {
	mock.Mock
}

func (m *mockS3) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.ListObjectsV2Output)
	return out, args.Error(1)
}

func (m *mockS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func TestArchiveList(t *testing.T) {
	api := new(mockS3)
	a := NewArchiveWithAPI(ArchiveConfig{Bucket: "traces", Prefix: "2026/"}, api)
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	api.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return *in.Bucket == "traces" && *in.Prefix == "2026/" && in.ContinuationToken == nil
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("next"),
		Contents: []types.Object{
			{Key: aws.String("2026/a.json"), Size: aws.Int64(10), ETag: aws.String(`"e1"`), LastModified: &ts},
		},
	}, nil).Once()
	api.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken != nil && *in.ContinuationToken == "next"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(false),
		Contents:    []types.Object{{Key: aws.String("2026/b.json.zst"), Size: aws.Int64(20)}},
	}, nil).Once()

	oo, err := a.List(context.Background())
	require.NoError(t, err)
	require.Len(t, oo, 2)
	assert.Equal(t, ObjectInfo{Key: "2026/a.json", Size: 10, ETag: "e1", LastModified: ts}, oo[0])
	assert.Equal(t, "b.json.zst", oo[1].Name(a.Prefix()))
	assert.True(t, oo[1].Compressed())
	assert.Equal(t, "traces/2026/", a.Bucket())
	api.AssertExpectations(t)
}

func TestArchivePreviewPlain(t *testing.T) {
	api := new(mockS3)
	a := NewArchiveWithAPI(ArchiveConfig{Bucket: "traces"}, api)

	api.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Key == "a.json" && in.Range != nil && *in.Range == "bytes=0-4"
	})).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader("hello")),
	}, nil).Once()

	s, err := a.Preview(context.Background(), "a.json", 5)
	require.NoError(t, err)
	assert.Equal(t, "hello", s)
	api.AssertExpectations(t)
}

func TestArchivePreviewCompressed(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	payload := enc.EncodeAll([]byte(strings.Repeat("trace line\n", 100)), nil)
	require.NoError(t, enc.Close())

	api := new(mockS3)
	a := NewArchiveWithAPI(ArchiveConfig{Bucket: "traces"}, api)
	api.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
		return *in.Key == "b.zst" && in.Range == nil
	})).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(payload)),
	}, nil).Once()

	s, err := a.Preview(context.Background(), "b.zst", 22)
	require.NoError(t, err)
	assert.Equal(t, "trace line\ntrace line\n", s)
}

func TestArchivePreviewBinary(t *testing.T) {
	api := new(mockS3)
	a := NewArchiveWithAPI(ArchiveConfig{Bucket: "traces"}, api)
	api.On("GetObject", mock.Anything, mock.Anything).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader([]byte{1, 0, 2})),
	}, nil).Once()

	s, err := a.Preview(context.Background(), "blob", 10)
	require.NoError(t, err)
	assert.Contains(t, s, "binary")
}

func TestArchiveNoBucket(t *testing.T) {
	_, err := NewArchive(ArchiveConfig{}).List(context.Background())
	assert.ErrorIs(t, err, ErrNoBucket)
}

func TestWrapAWSError(t *testing.T) {
	uu := map[string]struct {
		err  error
		want error
	}{
		"nil":     {},
		"expired": {err: &smithy.GenericAPIError{Code: "ExpiredToken"}, want: ErrExpiredCredentials},
		"missing": {err: &smithy.GenericAPIError{Code: "NoSuchKey"}, want: ErrNoSuchKey},
		"creds":   {err: &smithy.GenericAPIError{Code: "InvalidAccessKeyId"}, want: ErrNoCredentials},
	}

	for k := range uu {
		u := uu[k]
		t.Run(k, func(t *testing.T) {
			err := WrapAWSError(u.err, "op")
			if u.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, u.want)
		})
	}

	err := WrapAWSError(errors.New("boom"), "op")
	assert.EqualError(t, err, "op failed: boom")
}
