// Package photos manages the patient visit timeline and its photos.
package photos

import (
	"errors"
	"time"

	"github.com/cachetcache/service/internal/storage"
)

// Photo types accepted on upload.
const (
	TypeInitialConsult = "initial_consult"
	TypeFollowUp       = "follow_up"
	TypeBefore         = "before"
	TypeAfter          = "after"
)

var validPhotoTypes = map[string]bool{
	TypeInitialConsult: true,
	TypeFollowUp:       true,
	TypeBefore:         true,
	TypeAfter:          true,
}

var (
	ErrVisitNotFound = errors.New("visit not found")
	ErrPhotoNotFound = errors.New("photo not found")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidInput  = errors.New("invalid input")
)

// Visit is one entry in a patient's treatment timeline.
type Visit struct {
	ID                 string     `json:"id"`
	UserID             string     `json:"userId"`
	Title              string     `json:"title"`
	InitialConsultDate *time.Time `json:"initialConsultDate,omitempty"`
	FollowUpDate       *time.Time `json:"followUpDate,omitempty"`
	Expanded           bool       `json:"expanded"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// Photo is the metadata row for a stored visit photo. R2Key references the
// object in the bucket.
type Photo struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	VisitID      string    `json:"visitId"`
	R2Key        string    `json:"r2Key"`
	Filename     string    `json:"filename"`
	OriginalName *string   `json:"originalName,omitempty"`
	FileSize     *int64    `json:"fileSize,omitempty"`
	MimeType     *string   `json:"mimeType,omitempty"`
	PhotoType    string    `json:"photoType"`
	DoctorNote   *string   `json:"doctorNote,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PhotoView is a Photo plus a URL the client can load it from.
type PhotoView struct {
	Photo
	Access *storage.AccessDescriptor `json:"access"`
}

// VisitView is a Visit with its photos.
type VisitView struct {
	Visit
	Photos []PhotoView `json:"photos"`
}
