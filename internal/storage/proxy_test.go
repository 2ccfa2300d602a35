package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachetcache/service/internal/logger"
)

func proxyRouter(gw *Gateway, bucket Bucket) http.Handler {
	r := chi.NewRouter()
	if bucket != nil {
		r.Use(BindBucket(bucket))
	}
	r.Get(ProxyPathPrefix+"*", NewProxyHandler(gw, logger.Discard()).ServeHTTP)
	return r
}

func TestProxyServesObject(t *testing.T) {
	bucket := NewMemoryBucket()
	gw := NewGateway(NativeBackend{}, logger.Discard())
	key := "visits/v1/initial_consult/abc.jpg"
	ctx := WithBucket(context.Background(), bucket)
	require.NoError(t, gw.Upload(ctx, key, strings.NewReader("jpeg-data"), 9, "image/jpeg"))

	desc, err := gw.AccessDescriptor(ctx, key, 0)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	proxyRouter(gw, bucket).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, desc.URL, nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "9", rec.Header().Get("Content-Length"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("ETag"), `"`))
	assert.Equal(t, "jpeg-data", rec.Body.String())
}

func TestProxyUnescapedPath(t *testing.T) {
	bucket := NewMemoryBucket()
	gw := NewGateway(NativeBackend{}, logger.Discard())
	require.NoError(t, bucket.Put(context.Background(), "user-1/img.bin", strings.NewReader("raw"), 3, HTTPMetadata{}))

	rec := httptest.NewRecorder()
	proxyRouter(gw, bucket).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/r2-proxy/user-1/img.bin", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "raw", string(body))
}

func TestProxyErrors(t *testing.T) {
	bucket := NewMemoryBucket()

	tests := []struct {
		name   string
		gw     *Gateway
		bucket Bucket
		path   string
		want   int
	}{
		{"missing key", NewGateway(NativeBackend{}, nil), bucket, "/api/r2-proxy/", http.StatusBadRequest},
		{"absent object", NewGateway(NativeBackend{}, nil), bucket, "/api/r2-proxy/nope.jpg", http.StatusNotFound},
		{"no binding", NewGateway(NativeBackend{}, nil), nil, "/api/r2-proxy/a.jpg", http.StatusInternalServerError},
		{"no backend", NewGateway(nil, nil), bucket, "/api/r2-proxy/a.jpg", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			proxyRouter(tt.gw, tt.bucket).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/plain"))
		})
	}
}

func TestProxyServesKeysWithPercent(t *testing.T) {
	bucket := NewMemoryBucket()
	gw := NewGateway(NativeBackend{}, logger.Discard())
	ctx := WithBucket(context.Background(), bucket)

	// Mounted the way the server mounts it.
	r := chi.NewRouter()
	r.Use(BindBucket(bucket))
	r.Route("/api", func(r chi.Router) {
		r.Get("/r2-proxy/*", NewProxyHandler(gw, logger.Discard()).ServeHTTP)
	})

	for _, key := range []string{"50%off.jpg", "a%2541.jpg", "user-1/50%off.jpg", "visits/v1/before/a b.jpg"} {
		t.Run(key, func(t *testing.T) {
			require.NoError(t, gw.Upload(ctx, key, strings.NewReader(key), int64(len(key)), "image/jpeg"))
			desc, err := gw.AccessDescriptor(ctx, key, 0)
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, desc.URL, nil))

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, key, rec.Body.String())
		})
	}
}
