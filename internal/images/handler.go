package images

import (
	"errors"
	"net/http"

	"github.com/cachetcache/service/internal/logger"
	"github.com/cachetcache/service/internal/middleware"
	"github.com/cachetcache/service/internal/response"
	"github.com/cachetcache/service/internal/storage"
	"github.com/cachetcache/service/internal/upload"
)

// Handler serves the image upload endpoint.
type Handler struct {
	svc *Service
	log *logger.Logger
}

// NewHandler creates a new images Handler.
func NewHandler(svc *Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Upload godoc
//
//	@Summary		Upload image
//	@Description	Multipart upload: image (JPEG, PNG or WebP, max 10MB) and an optional description.
//	@Tags			images
//	@Accept			mpfd
//	@Produce		json
//	@Security		BearerAuth
//	@Param			image		formData	file	true	"Image"
//	@Param			description	formData	string	false	"Description"
//	@Success		200			{object}	response.Envelope{data=Uploaded}
//	@Failure		400			{object}	response.Envelope
//	@Failure		401			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/upload-image [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	f, err := upload.FormImage(w, r, "image")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer f.Body.Close()

	out, err := h.svc.Upload(r.Context(), UploadInput{
		UserID:       userID,
		UserEmail:    middleware.UserEmail(r.Context()),
		OriginalName: f.Name,
		ContentType:  f.ContentType,
		Size:         f.Size,
		Description:  r.FormValue("description"),
		Body:         f.Body,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, out)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, upload.ErrTooLarge):
		response.PayloadTooLarge(w, err.Error())
	case upload.IsValidationError(err):
		response.BadRequest(w, err.Error())
	case errors.Is(err, storage.ErrNotConfigured):
		response.Error(w, http.StatusInternalServerError,
			"image storage is not configured: set CLOUDFLARE_R2_ACCESS_KEY_ID, CLOUDFLARE_R2_SECRET_ACCESS_KEY and CLOUDFLARE_R2_ENDPOINT")
	default:
		h.log.WithContext(r.Context()).Error("image upload failed", "error", err.Error())
		response.InternalError(w)
	}
}
