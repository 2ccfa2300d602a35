package storage

import (
	"context"
	"io"
	"net/url"
	"time"
)

// ProxyPathPrefix is where the proxy endpoint is mounted.
const ProxyPathPrefix = "/api/r2-proxy/"

var _ Backend = NativeBackend{}

// NativeBackend uses the request-scoped Bucket binding. It holds no client;
// the binding is only reachable through the request context.
type NativeBackend struct{}

func (NativeBackend) Mode() Mode { return ModeNative }

func (NativeBackend) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	b, err := boundBucket(ctx)
	if err != nil {
		return err
	}
	return b.Put(ctx, key, body, size, HTTPMetadata{ContentType: contentType})
}

func (NativeBackend) Get(ctx context.Context, key string) (*Object, error) {
	b, err := boundBucket(ctx)
	if err != nil {
		return nil, err
	}
	return b.Get(ctx, key)
}

func (NativeBackend) Delete(ctx context.Context, key string) error {
	b, err := boundBucket(ctx)
	if err != nil {
		return err
	}
	return b.Delete(ctx, key)
}

// AccessURL returns the proxy path for key. The expiry is ignored: the proxy
// re-reads the bucket on every request.
func (NativeBackend) AccessURL(ctx context.Context, key string, _ time.Duration) (string, error) {
	if _, err := boundBucket(ctx); err != nil {
		return "", err
	}
	return ProxyPath(key), nil
}

// ProxyPath is the same-origin URL path that serves key through the proxy.
func ProxyPath(key string) string {
	return ProxyPathPrefix + url.PathEscape(key)
}

func boundBucket(ctx context.Context) (Bucket, error) {
	b := BucketFromContext(ctx)
	if b == nil {
		return nil, ErrNotConfigured
	}
	return b, nil
}
