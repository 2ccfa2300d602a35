package storage

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cachetcache/service/internal/logger"
)

// ProxyCacheControl is sent with every proxied object.
const ProxyCacheControl = "public, max-age=3600"

// ProxyHandler streams objects back to the client so the bucket is never
// exposed directly. It checks only that the key resolves to an object.
type ProxyHandler struct {
	gw  *Gateway
	log *logger.Logger
}

// NewProxyHandler creates a ProxyHandler over gw.
func NewProxyHandler(gw *Gateway, log *logger.Logger) *ProxyHandler {
	return &ProxyHandler{gw: gw, log: log}
}

// ServeHTTP handles GET /api/r2-proxy/*.
func (h *ProxyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key, err := proxyKey(r)
	if err != nil {
		http.Error(w, "invalid file key", http.StatusBadRequest)
		return
	}
	if key == "" {
		http.Error(w, "File key is required", http.StatusBadRequest)
		return
	}

	obj, err := h.gw.Fetch(r.Context(), key)
	if err != nil {
		status := HTTPStatus(err)
		switch {
		case status == http.StatusNotFound:
			h.log.WithContext(r.Context()).Warn("proxy: object not found", slog.String("key", key))
			http.Error(w, "File not found", status)
		case status == http.StatusBadRequest:
			http.Error(w, "invalid file key", status)
		case errors.Is(err, ErrNotConfigured):
			http.Error(w, "storage is not configured", status)
		default:
			http.Error(w, "Failed to fetch file from storage", status)
		}
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", ProxyCacheControl)
	if obj.ETag != "" {
		w.Header().Set("ETag", quoteETag(obj.ETag))
	}
	if obj.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	}
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		// Headers are already out; all we can do is record it.
		h.log.WithContext(r.Context()).Error("proxy: stream interrupted",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

// proxyKey decodes the key from the escaped request path exactly once. The
// router may hand out an already decoded wildcard when the path has no
// escaped slashes, so the key is never taken from it.
func proxyKey(r *http.Request) (string, error) {
	raw, ok := strings.CutPrefix(r.URL.EscapedPath(), ProxyPathPrefix)
	if !ok {
		return "", ErrInvalidKey
	}
	return url.PathUnescape(raw)
}

func quoteETag(etag string) string {
	if strings.HasPrefix(etag, `"`) || strings.HasPrefix(etag, `W/"`) {
		return etag
	}
	return `"` + etag + `"`
}
