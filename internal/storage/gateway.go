package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cachetcache/service/internal/config"
	"github.com/cachetcache/service/internal/logger"
)

// Gateway is the single entry point callers use for object storage.
// It is safe for concurrent use; it keeps no per-request state.
type Gateway struct {
	backend Backend
	log     *logger.Logger
	now     func() time.Time
}

// NewGateway wraps an already-built backend. A nil backend yields a gateway on
// which every operation fails with ErrNotConfigured.
func NewGateway(backend Backend, log *logger.Logger) *Gateway {
	if log == nil {
		log = logger.Discard()
	}
	return &Gateway{backend: backend, log: log, now: time.Now}
}

// NewFromConfig selects the storage strategy for this process.
func NewFromConfig(cfg *config.Config, log *logger.Logger) (*Gateway, error) {
	if cfg.UseNativeStorage() {
		log.Info("storage: using native bucket binding", slog.String("bucket", cfg.StorageBucket))
		return NewGateway(NativeBackend{}, log), nil
	}

	if !cfg.HasCompatCredentials() {
		log.Warn("storage: R2 credentials missing, photo storage is disabled")
		return NewGateway(nil, log), nil
	}

	backend, err := NewCompatBackend(cfg.StorageEndpoint, cfg.StorageAccessKey, cfg.StorageSecretKey, cfg.StorageBucket)
	if err != nil {
		return nil, err
	}
	log.Info("storage: using S3 compatibility client",
		slog.String("endpoint", cfg.StorageEndpoint),
		slog.String("bucket", cfg.StorageBucket),
	)
	return NewGateway(backend, log), nil
}

// Mode reports the active strategy.
func (g *Gateway) Mode() Mode {
	if g.backend == nil {
		return ModeNone
	}
	return g.backend.Mode()
}

// Upload creates or overwrites the object at key.
func (g *Gateway) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	return g.do(ctx, "upload", key, func(b Backend) error {
		return b.Put(ctx, key, body, size, contentType)
	})
}

// Fetch opens the object at key. The caller must close the returned body.
func (g *Gateway) Fetch(ctx context.Context, key string) (*Object, error) {
	var obj *Object
	err := g.do(ctx, "fetch", key, func(b Backend) error {
		var err error
		obj, err = b.Get(ctx, key)
		return err
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// Remove deletes the object at key. Removing a missing key succeeds.
func (g *Gateway) Remove(ctx context.Context, key string) error {
	return g.do(ctx, "remove", key, func(b Backend) error {
		if err := b.Delete(ctx, key); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		return nil
	})
}

// AccessDescriptor returns a URL a client can use to read key. Expiry only
// applies to presigned URLs; zero or negative means DefaultAccessExpiry.
func (g *Gateway) AccessDescriptor(ctx context.Context, key string, expiry time.Duration) (*AccessDescriptor, error) {
	if expiry <= 0 {
		expiry = DefaultAccessExpiry
	}

	var desc *AccessDescriptor
	err := g.do(ctx, "sign", key, func(b Backend) error {
		issuedAt := g.now()
		u, err := b.AccessURL(ctx, key, expiry)
		if err != nil {
			return err
		}
		desc = &AccessDescriptor{URL: u, Mode: b.Mode()}
		if b.Mode() == ModeCompat {
			expiresAt := issuedAt.Add(expiry)
			desc.ExpiresAt = &expiresAt
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return desc, nil
}

func (g *Gateway) do(ctx context.Context, op, key string, fn func(Backend) error) error {
	if g.backend == nil {
		return ErrNotConfigured
	}
	if key == "" {
		return ErrInvalidKey
	}

	err := fn(g.backend)
	switch {
	case err == nil:
		g.log.WithContext(ctx).Debug("storage "+op, slog.String("key", key), slog.String("mode", string(g.backend.Mode())))
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrInvalidKey):
		return err
	case errors.Is(err, ErrNotConfigured):
		g.log.WithContext(ctx).Error("storage not configured",
			slog.String("op", op),
			slog.String("key", key),
			slog.String("mode", string(g.backend.Mode())),
		)
		return err
	}

	g.log.WithContext(ctx).Error("storage backend error",
		slog.String("op", op),
		slog.String("key", key),
		slog.String("mode", string(g.backend.Mode())),
		slog.String("error", err.Error()),
	)
	return &BackendError{Op: op, Key: key, Mode: g.backend.Mode(), Err: err}
}

// HTTPStatus maps a gateway error to the status a handler should answer with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidKey):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
