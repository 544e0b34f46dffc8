package aws

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/klauspost/compress/zstd"
)

// ObjectInfo describes one archived trace.
type ObjectInfo struct {
	Key          string    `json:"key" yaml:"key"`
	Size         int64     `json:"size" yaml:"size"`
	ETag         string    `json:"etag" yaml:"etag"`
	StorageClass string    `json:"storageClass" yaml:"storageClass"`
	LastModified time.Time `json:"lastModified" yaml:"lastModified"`
}

// Name returns the key relative to the archive prefix.
func (o ObjectInfo) Name(prefix string) string {
	if prefix == "" {
		return o.Key
	}
	return strings.TrimPrefix(strings.TrimPrefix(o.Key, prefix), "/")
}

// Compressed reports whether the object is a zstd stream.
func (o ObjectInfo) Compressed() bool {
	return IsCompressed(o.Key)
}

// IsCompressed reports whether key names a zstd stream.
func IsCompressed(key string) bool {
	ext := path.Ext(key)
	return ext == ".zst" || ext == ".zstd"
}

// Prefix returns the configured key prefix.
func (a *Archive) Prefix() string {
	return a.config.Prefix
}

// List returns every object under the archive prefix, in key order.
func (a *Archive) List(ctx context.Context) ([]ObjectInfo, error) {
	api, err := a.client(ctx)
	if err != nil {
		return nil, err
	}

	in := s3.ListObjectsV2Input{Bucket: aws.String(a.config.Bucket)}
	if a.config.Prefix != "" {
		in.Prefix = aws.String(a.config.Prefix)
	}

	var oo []ObjectInfo
	paginator := s3.NewListObjectsV2Paginator(api, &in)
	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, WrapAWSError(err, "list archive")
		}
		for _, obj := range out.Contents {
			oo = append(oo, ObjectInfo{
				Key:          SafeString(obj.Key),
				Size:         SafeInt64(obj.Size),
				ETag:         strings.Trim(SafeString(obj.ETag), `"`),
				StorageClass: string(obj.StorageClass),
				LastModified: SafeTime(obj.LastModified),
			})
		}
	}

	return oo, nil
}

// Preview returns at most n bytes of the object content, decompressing zstd
// streams on the fly.
func (a *Archive) Preview(ctx context.Context, key string, n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	api, err := a.client(ctx)
	if err != nil {
		return "", err
	}

	in := s3.GetObjectInput{
		Bucket: aws.String(a.config.Bucket),
		Key:    aws.String(key),
	}
	compressed := IsCompressed(key)
	if !compressed {
		in.Range = aws.String(fmt.Sprintf("bytes=0-%d", n-1))
	}
	out, err := api.GetObject(ctx, &in)
	if err != nil {
		return "", WrapAWSError(err, "get "+key)
	}
	defer func() { _ = out.Body.Close() }()

	var r io.Reader = out.Body
	if compressed {
		dec, err := zstd.NewReader(out.Body, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return "", fmt.Errorf("zstd %s: %w", key, err)
		}
		defer dec.Close()
		r = dec
	}

	raw, err := io.ReadAll(io.LimitReader(r, int64(n)))
	if err != nil && len(raw) == 0 {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	if bytes.IndexByte(raw, 0) >= 0 {
		return fmt.Sprintf("<binary content, %d bytes shown>", len(raw)), nil
	}

	return strings.ToValidUTF8(string(raw), ""), nil
}
