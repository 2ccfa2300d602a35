// Package storage is the object storage gateway for photos and images.
//
// The gateway hides which transport reaches the bucket. Inside the hosting
// platform it uses a request-scoped native Bucket binding and hands out
// same-origin proxy URLs; elsewhere it uses an S3-compatible client and hands
// out presigned URLs. The strategy is chosen once, when the Gateway is built.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// Mode names the active storage strategy.
type Mode string

const (
	ModeNone   Mode = "none"
	ModeNative Mode = "native"
	ModeCompat Mode = "compat"
)

// DefaultAccessExpiry is used when a caller asks for an access URL without an expiry.
const DefaultAccessExpiry = time.Hour

var (
	// ErrNotConfigured is returned when no backend (or no native binding) is available.
	ErrNotConfigured = errors.New("storage: not configured")
	// ErrNotFound is returned when the key does not resolve to an object.
	ErrNotFound = errors.New("storage: object not found")
	// ErrInvalidKey is returned for empty keys or keys a binding cannot hold.
	ErrInvalidKey = errors.New("storage: invalid key")
)

// BackendError wraps a transport, auth or quota failure reported by a backend.
type BackendError struct {
	Op   string
	Key  string
	Mode Mode
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("storage %s %q (%s): %v", e.Op, e.Key, e.Mode, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Object is a stored object opened for reading. The caller must close Body.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64 // -1 when unknown
	ETag        string
}

// AccessDescriptor is a short-lived way for a client to read one object.
// The URL is opaque: presigned URLs and proxy paths share no format.
type AccessDescriptor struct {
	URL       string     `json:"url"`
	Mode      Mode       `json:"mode"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Backend is one way of reaching the bucket.
type Backend interface {
	Mode() Mode
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	// Get returns ErrNotFound for missing keys.
	Get(ctx context.Context, key string) (*Object, error)
	// Delete returns nil or ErrNotFound for missing keys.
	Delete(ctx context.Context, key string) error
	AccessURL(ctx context.Context, key string, expiry time.Duration) (string, error)
}
