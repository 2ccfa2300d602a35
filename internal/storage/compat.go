package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// compatRegion is the region R2 expects in signatures.
const compatRegion = "auto"

var _ Backend = (*CompatBackend)(nil)

// CompatBackend reaches the bucket through the S3-compatible API. The client is
// built once and shared by all requests.
type CompatBackend struct {
	client *minio.Client
	bucket string
}

// NewCompatBackend creates a path-style S3 client for endpoint, which may be a
// full URL ("https://<account>.r2.cloudflarestorage.com") or a bare host:port
// (assumed https).
func NewCompatBackend(endpoint, accessKey, secretKey, bucket string) (*CompatBackend, error) {
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse storage endpoint: %w", err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse storage endpoint %q: missing host", endpoint)
	}

	client, err := minio.New(u.Host, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       u.Scheme == "https",
		Region:       compatRegion,
		BucketLookup: minio.BucketLookupPath,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return &CompatBackend{client: client, bucket: bucket}, nil
}

func (c *CompatBackend) Mode() Mode { return ModeCompat }

// Put streams body to the bucket. size must be the exact byte count, or -1.
func (c *CompatBackend) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	_, err := c.client.PutObject(ctx, c.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object: %w", mapCompatError(err))
	}
	return nil
}

// Get opens the object and reads its headers so missing keys surface here
// rather than on the first Read.
func (c *CompatBackend) Get(ctx context.Context, key string) (*Object, error) {
	obj, err := c.client.GetObject(ctx, c.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapCompatError(err)
	}

	info, err := obj.Stat()
	if err != nil {
		_ = obj.Close()
		return nil, mapCompatError(err)
	}

	return &Object{
		Body:        obj,
		ContentType: info.ContentType,
		Size:        info.Size,
		ETag:        info.ETag,
	}, nil
}

func (c *CompatBackend) Delete(ctx context.Context, key string) error {
	err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{})
	if err != nil {
		return mapCompatError(err)
	}
	return nil
}

// AccessURL presigns a GET for key. Signing is local; no request is sent.
func (c *CompatBackend) AccessURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := c.client.PresignedGetObject(ctx, c.bucket, key, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return u.String(), nil
}

func mapCompatError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return ErrNotFound
	}
	return err
}
