package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cachetcache/service/internal/middleware"
	"github.com/cachetcache/service/internal/response"
)

// Handler holds HTTP handlers for user-related endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new user Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// GetMe godoc
//
//	@Summary		Get current user
//	@Description	Returns the profile of the currently authenticated user, creating it on first access.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=Profile}
//	@Failure		401	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/v1/users/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	p, err := h.svc.GetOrCreate(r.Context(), userID, middleware.UserEmail(r.Context()))
	if err != nil {
		response.InternalError(w)
		return
	}

	response.OK(w, p)
}

// UpdateProfile godoc
//
//	@Summary		Update current user
//	@Description	Updates name, phone number, sex and birthdate. Age is derived from the birthdate.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			request	body		UpdateInput	true	"Profile fields"
//	@Success		200		{object}	response.Envelope{data=Profile}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/v1/users/me [patch]
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var in UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	p, err := h.svc.Update(r.Context(), userID, in)
	switch {
	case errors.Is(err, ErrInvalidInput):
		response.BadRequest(w, err.Error())
	case h.svc.IsNotFound(err):
		response.NotFound(w, "profile not found")
	case err != nil:
		response.InternalError(w)
	default:
		response.OK(w, p)
	}
}

// ListPatients godoc
//
//	@Summary		List patients
//	@Description	Lists every patient profile, newest first. Admin only.
//	@Tags			admin
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=[]Patient}
//	@Failure		401	{object}	response.Envelope
//	@Failure		403	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/v1/admin/patients [get]
func (h *Handler) ListPatients(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		response.Unauthorized(w, "unauthorized")
		return
	}

	patients, err := h.svc.ListPatients(r.Context(), userID)
	switch {
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, "Access denied. Admin privileges required.")
	case err != nil:
		response.InternalError(w)
	default:
		response.OK(w, patients)
	}
}
