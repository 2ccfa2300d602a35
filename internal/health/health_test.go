package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cachetcache/service/internal/logger"
	"github.com/cachetcache/service/internal/storage"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type checkResponse struct {
	Success bool          `json:"success"`
	Data    StorageReport `json:"data"`
	Error   string        `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) checkResponse {
	t.Helper()
	var out checkResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestCheckStorageNative(t *testing.T) {
	bucket := storage.NewMemoryBucket()
	h := NewHandler(nil, storage.NewGateway(storage.NativeBackend{}, logger.Discard()), logger.Discard())
	h.now = func() time.Time { return time.Unix(1700000000, 42) }

	req := httptest.NewRequest(http.MethodGet, "/api/storage/check", nil)
	req = req.WithContext(storage.WithBucket(req.Context(), bucket))
	rec := httptest.NewRecorder()
	h.CheckStorage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode(t, rec)
	assert.True(t, out.Success)
	assert.Equal(t, storage.ModeNative, out.Data.Mode)
	assert.Equal(t, "test/1700000000000000042.txt", out.Data.Key)
	assert.Equal(t, storage.ProxyPath(out.Data.Key), out.Data.URL)
	require.Len(t, out.Data.Steps, 4)
	for _, s := range out.Data.Steps {
		assert.True(t, s.OK, s.Name)
	}
	assert.Zero(t, bucket.Len())
}

func TestCheckStorageNotConfigured(t *testing.T) {
	h := NewHandler(nil, storage.NewGateway(nil, logger.Discard()), logger.Discard())

	rec := httptest.NewRecorder()
	h.CheckStorage(rec, httptest.NewRequest(http.MethodGet, "/api/storage/check", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	out := decode(t, rec)
	assert.False(t, out.Success)
	assert.Equal(t, storage.ModeNone, out.Data.Mode)
	require.Len(t, out.Data.Steps, 1)
	assert.Equal(t, "upload", out.Data.Steps[0].Name)
	assert.False(t, out.Data.Steps[0].OK)
	assert.True(t, strings.HasPrefix(out.Error, "upload:"))
}

func TestLive(t *testing.T) {
	gw := storage.NewGateway(storage.NativeBackend{}, logger.Discard())

	rec := httptest.NewRecorder()
	NewHandler(pingFunc(func(context.Context) error { return nil }), gw, logger.Discard()).
		Live(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)

	rec = httptest.NewRecorder()
	NewHandler(pingFunc(func(context.Context) error { return errors.New("refused") }), gw, logger.Discard()).
		Live(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
}
