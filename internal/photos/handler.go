package photos

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/cachetcache/service/internal/logger"
	"github.com/cachetcache/service/internal/middleware"
	"github.com/cachetcache/service/internal/response"
	"github.com/cachetcache/service/internal/storage"
	"github.com/cachetcache/service/internal/upload"
)

// Handler holds HTTP handlers for the visit timeline.
type Handler struct {
	svc *Service
	log *logger.Logger
}

// NewHandler creates a new photos Handler.
func NewHandler(svc *Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// Routes mounts the timeline endpoints. Callers wrap it in RequireAuth.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/visits", h.CreateVisit)
	r.Get("/users/{userID}/visits", h.Timeline)
	r.Get("/visits/{visitID}/photos", h.ListPhotos)
	r.Post("/visits/{visitID}/photos", h.UploadPhoto)
	r.Delete("/photos/{photoID}", h.DeletePhoto)
}

// CreateVisit godoc
//
//	@Summary	Create visit
//	@Tags		visits
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		VisitInput	true	"Visit"
//	@Success	201		{object}	response.Envelope{data=Visit}
//	@Failure	400		{object}	response.Envelope
//	@Failure	403		{object}	response.Envelope
//	@Router		/v1/visits [post]
func (h *Handler) CreateVisit(w http.ResponseWriter, r *http.Request) {
	var in VisitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	v, err := h.svc.CreateVisit(r.Context(), middleware.UserID(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, v)
}

// Timeline godoc
//
//	@Summary		Patient timeline
//	@Description	Visits of a patient with their photos. Patients see their own timeline; admins see any.
//	@Tags			visits
//	@Produce		json
//	@Security		BearerAuth
//	@Param			userID	path		string	true	"Patient id"
//	@Success		200		{object}	response.Envelope{data=[]VisitView}
//	@Failure		403		{object}	response.Envelope
//	@Router			/v1/users/{userID}/visits [get]
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if userID == "me" {
		userID = middleware.UserID(r.Context())
	}

	views, err := h.svc.Timeline(r.Context(), middleware.UserID(r.Context()), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, views)
}

// ListPhotos godoc
//
//	@Summary	List visit photos
//	@Tags		photos
//	@Produce	json
//	@Security	BearerAuth
//	@Param		visitID	path		string	true	"Visit id"
//	@Success	200		{object}	response.Envelope{data=[]PhotoView}
//	@Failure	403		{object}	response.Envelope
//	@Failure	404		{object}	response.Envelope
//	@Router		/v1/visits/{visitID}/photos [get]
func (h *Handler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListPhotos(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "visitID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, views)
}

// UploadPhoto godoc
//
//	@Summary		Upload visit photo
//	@Description	Multipart upload: photo (JPEG, PNG or WebP, max 10MB), photo_type, doctor_note. Admin only.
//	@Tags			photos
//	@Accept			mpfd
//	@Produce		json
//	@Security		BearerAuth
//	@Param			visitID		path		string	true	"Visit id"
//	@Param			photo		formData	file	true	"Photo"
//	@Param			photo_type	formData	string	true	"initial_consult, follow_up, before or after"
//	@Param			doctor_note	formData	string	false	"Note"
//	@Success		201			{object}	response.Envelope{data=PhotoView}
//	@Failure		400			{object}	response.Envelope
//	@Failure		403			{object}	response.Envelope
//	@Failure		500			{object}	response.Envelope
//	@Router			/v1/visits/{visitID}/photos [post]
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	f, err := upload.FormImage(w, r, "photo")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer f.Body.Close()

	view, err := h.svc.Upload(r.Context(), middleware.UserID(r.Context()), UploadInput{
		VisitID:      chi.URLParam(r, "visitID"),
		PhotoType:    r.FormValue("photo_type"),
		DoctorNote:   r.FormValue("doctor_note"),
		OriginalName: f.Name,
		ContentType:  f.ContentType,
		Size:         f.Size,
		Body:         f.Body,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, view)
}

// DeletePhoto godoc
//
//	@Summary	Delete visit photo
//	@Tags		photos
//	@Security	BearerAuth
//	@Param		photoID	path	string	true	"Photo id"
//	@Success	204
//	@Failure	403	{object}	response.Envelope
//	@Failure	404	{object}	response.Envelope
//	@Router		/v1/photos/{photoID} [delete]
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), middleware.UserID(r.Context()), chi.URLParam(r, "photoID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	response.NoContent(w)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "admin privileges required")
	case errors.Is(err, ErrVisitNotFound):
		response.NotFound(w, "visit not found")
	case errors.Is(err, ErrPhotoNotFound):
		response.NotFound(w, "photo not found")
	case errors.Is(err, upload.ErrTooLarge):
		response.PayloadTooLarge(w, err.Error())
	case errors.Is(err, ErrInvalidInput), upload.IsValidationError(err):
		response.BadRequest(w, err.Error())
	case errors.Is(err, storage.ErrNotConfigured):
		response.Error(w, http.StatusInternalServerError,
			"photo storage is not configured: set the R2 credentials or bucket binding")
	default:
		h.log.WithContext(r.Context()).Error("photos request failed", "error", err.Error())
		response.InternalError(w)
	}
}
