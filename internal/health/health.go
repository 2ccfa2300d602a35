// Package health serves liveness and the object storage self test.
package health

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cachetcache/service/internal/logger"
	"github.com/cachetcache/service/internal/response"
	"github.com/cachetcache/service/internal/storage"
)

// Pinger reports whether a dependency is reachable. *pgxpool.Pool satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Step is the outcome of one stage of the storage check.
type Step struct {
	Name  string `json:"name"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// StorageReport is returned by the storage check endpoint.
type StorageReport struct {
	Mode      storage.Mode `json:"mode"`
	Key       string       `json:"key"`
	URL       string       `json:"url,omitempty"`
	Steps     []Step       `json:"steps"`
	CheckedAt time.Time    `json:"checkedAt"`
}

// Handler serves the health endpoints.
type Handler struct {
	db  Pinger
	gw  *storage.Gateway
	log *logger.Logger
	now func() time.Time
}

// NewHandler creates a new health Handler. db may be nil.
func NewHandler(db Pinger, gw *storage.Gateway, log *logger.Logger) *Handler {
	return &Handler{db: db, gw: gw, log: log, now: time.Now}
}

// Live reports process liveness and, when a database is wired, whether it answers a ping.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok", "storage": string(h.gw.Mode())}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.Ping(ctx); err != nil {
			h.log.WithContext(r.Context()).Warn("database ping failed", "error", err.Error())
			body["status"] = "degraded"
			body["database"] = "unreachable"
			response.JSON(w, http.StatusServiceUnavailable, body)
			return
		}
		body["database"] = "ok"
	}
	response.JSON(w, http.StatusOK, body)
}

// CheckStorage godoc
//
//	@Summary		Storage self test
//	@Description	Uploads a probe object, reads it back, signs an access URL and removes it.
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	response.Envelope{data=StorageReport}
//	@Failure		500	{object}	response.Envelope{data=StorageReport}
//	@Router			/storage/check [get]
func (h *Handler) CheckStorage(w http.ResponseWriter, r *http.Request) {
	report, err := h.runStorageCheck(r.Context())
	if err != nil {
		h.log.WithContext(r.Context()).Error("storage check failed",
			"mode", string(report.Mode),
			"key", report.Key,
			"error", err.Error(),
		)
		response.JSON(w, http.StatusInternalServerError, response.Envelope{
			Success: false,
			Data:    report,
			Error:   err.Error(),
		})
		return
	}
	response.OK(w, report)
}

func (h *Handler) runStorageCheck(ctx context.Context) (*StorageReport, error) {
	now := h.now().UTC()
	report := &StorageReport{
		Mode:      h.gw.Mode(),
		Key:       "test/" + strconv.FormatInt(now.UnixNano(), 10) + ".txt",
		CheckedAt: now,
	}
	content := []byte("storage check at " + now.Format(time.RFC3339Nano))

	step := func(name string, fn func() error) error {
		err := fn()
		s := Step{Name: name, OK: err == nil}
		if err != nil {
			s.Error = err.Error()
		}
		report.Steps = append(report.Steps, s)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}

	if err := step("upload", func() error {
		return h.gw.Upload(ctx, report.Key, bytes.NewReader(content), int64(len(content)), "text/plain")
	}); err != nil {
		return report, err
	}

	if err := step("fetch", func() error {
		obj, err := h.gw.Fetch(ctx, report.Key)
		if err != nil {
			return err
		}
		defer obj.Body.Close()
		got, err := io.ReadAll(obj.Body)
		if err != nil {
			return err
		}
		if !bytes.Equal(got, content) {
			return fmt.Errorf("read back %d bytes, want %d", len(got), len(content))
		}
		return nil
	}); err != nil {
		_ = h.gw.Remove(ctx, report.Key)
		return report, err
	}

	if err := step("access_url", func() error {
		desc, err := h.gw.AccessDescriptor(ctx, report.Key, time.Minute)
		if err != nil {
			return err
		}
		report.URL = desc.URL
		return nil
	}); err != nil {
		_ = h.gw.Remove(ctx, report.Key)
		return report, err
	}

	if err := step("remove", func() error {
		return h.gw.Remove(ctx, report.Key)
	}); err != nil {
		return report, err
	}
	return report, nil
}
