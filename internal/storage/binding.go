package storage

import (
	"context"
	"io"
	"net/http"
)

// HTTPMetadata is stored alongside an object by a native binding.
type HTTPMetadata struct {
	ContentType string `json:"contentType,omitempty"`
}

// Bucket is the native binding the hosting runtime supplies with each request.
type Bucket interface {
	// Get returns ErrNotFound when key is absent.
	Get(ctx context.Context, key string) (*Object, error)
	Put(ctx context.Context, key string, body io.Reader, size int64, meta HTTPMetadata) error
	// Delete succeeds when key is absent.
	Delete(ctx context.Context, key string) error
}

type bucketKey struct{}

// WithBucket returns a context carrying the native binding.
func WithBucket(ctx context.Context, b Bucket) context.Context {
	return context.WithValue(ctx, bucketKey{}, b)
}

// BucketFromContext returns the binding attached to ctx, or nil.
func BucketFromContext(ctx context.Context) Bucket {
	b, _ := ctx.Value(bucketKey{}).(Bucket)
	return b
}

// BindBucket attaches b to every request passing through, the way the hosting
// runtime exposes its bucket binding to request handlers.
func BindBucket(b Bucket) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithBucket(r.Context(), b)))
		})
	}
}
