package photos

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/cachetcache/service/internal/logger"
	"github.com/cachetcache/service/internal/storage"
	"github.com/cachetcache/service/internal/upload"
	"github.com/cachetcache/service/internal/validate"
)

// accessExpiry is how long photo URLs handed to the timeline stay valid.
const accessExpiry = time.Hour

// Store is the persistence the Service needs.
type Store interface {
	CreateVisit(ctx context.Context, v *Visit) error
	GetVisit(ctx context.Context, id string) (*Visit, error)
	ListVisits(ctx context.Context, userID string) ([]Visit, error)
	InsertPhoto(ctx context.Context, p *Photo) error
	GetPhoto(ctx context.Context, id string) (*Photo, error)
	ListPhotosByUser(ctx context.Context, userID string) ([]Photo, error)
	ListPhotosByVisit(ctx context.Context, visitID string) ([]Photo, error)
	DeletePhoto(ctx context.Context, id string) error
}

// AdminChecker answers whether a user has clinic admin rights.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// VisitInput describes a visit an admin adds to a patient's timeline.
type VisitInput struct {
	UserID             string     `json:"userId" validate:"required"`
	Title              string     `json:"title" validate:"required,max=200"`
	InitialConsultDate *time.Time `json:"initialConsultDate,omitempty"`
	FollowUpDate       *time.Time `json:"followUpDate,omitempty"`
}

// UploadInput is a validated photo upload.
type UploadInput struct {
	VisitID      string
	PhotoType    string
	DoctorNote   string
	OriginalName string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// Service contains the visit timeline business logic.
type Service struct {
	repo   Store
	gw     *storage.Gateway
	admins AdminChecker
	log    *logger.Logger
}

// NewService creates a new photos Service.
func NewService(repo Store, gw *storage.Gateway, admins AdminChecker, log *logger.Logger) *Service {
	return &Service{repo: repo, gw: gw, admins: admins, log: log}
}

func (s *Service) requireAdmin(ctx context.Context, actorID string) error {
	ok, err := s.admins.IsAdmin(ctx, actorID)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

// canView allows the patient and any admin.
func (s *Service) canView(ctx context.Context, actorID, ownerID string) error {
	if actorID == ownerID {
		return nil
	}
	return s.requireAdmin(ctx, actorID)
}

// CreateVisit adds a visit to a patient's timeline. Admin only.
func (s *Service) CreateVisit(ctx context.Context, actorID string, in VisitInput) (*Visit, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	v := &Visit{
		UserID:             in.UserID,
		Title:              in.Title,
		InitialConsultDate: in.InitialConsultDate,
		FollowUpDate:       in.FollowUpDate,
	}
	if err := s.repo.CreateVisit(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Timeline returns a patient's visits with their photos and access URLs.
func (s *Service) Timeline(ctx context.Context, actorID, userID string) ([]VisitView, error) {
	if err := s.canView(ctx, actorID, userID); err != nil {
		return nil, err
	}

	visits, err := s.repo.ListVisits(ctx, userID)
	if err != nil {
		return nil, err
	}
	photos, err := s.repo.ListPhotosByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	byVisit := make(map[string][]PhotoView, len(visits))
	for _, p := range photos {
		view, err := s.view(ctx, p)
		if err != nil {
			return nil, err
		}
		byVisit[p.VisitID] = append(byVisit[p.VisitID], view)
	}

	out := make([]VisitView, 0, len(visits))
	for _, v := range visits {
		views := byVisit[v.ID]
		if views == nil {
			views = []PhotoView{}
		}
		out = append(out, VisitView{Visit: v, Photos: views})
	}
	return out, nil
}

// ListPhotos returns one visit's photos with access URLs.
func (s *Service) ListPhotos(ctx context.Context, actorID, visitID string) ([]PhotoView, error) {
	visit, err := s.repo.GetVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	if err := s.canView(ctx, actorID, visit.UserID); err != nil {
		return nil, err
	}

	photos, err := s.repo.ListPhotosByVisit(ctx, visitID)
	if err != nil {
		return nil, err
	}
	out := make([]PhotoView, 0, len(photos))
	for _, p := range photos {
		view, err := s.view(ctx, p)
		if err != nil {
			return nil, err
		}
		out = append(out, view)
	}
	return out, nil
}

// Upload stores a photo for a visit and records its metadata row. The object
// is stored first; if the row cannot be written the object is removed again.
// Admin only.
func (s *Service) Upload(ctx context.Context, actorID string, in UploadInput) (*PhotoView, error) {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return nil, err
	}
	if !validPhotoTypes[in.PhotoType] {
		return nil, fmt.Errorf("%w: unknown photo type %q", ErrInvalidInput, in.PhotoType)
	}
	if err := upload.ValidateImage(in.ContentType, in.Size); err != nil {
		return nil, err
	}

	visit, err := s.repo.GetVisit(ctx, in.VisitID)
	if err != nil {
		return nil, err
	}

	key := storage.VisitPhotoKey(visit.ID, in.PhotoType, storage.Extension(in.OriginalName, in.ContentType))
	if err := s.gw.Upload(ctx, key, in.Body, in.Size, in.ContentType); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	p := &Photo{
		UserID:       visit.UserID,
		VisitID:      visit.ID,
		R2Key:        key,
		Filename:     key,
		OriginalName: optional(in.OriginalName),
		FileSize:     &in.Size,
		MimeType:     optional(in.ContentType),
		PhotoType:    in.PhotoType,
		DoctorNote:   optional(strings.TrimSpace(in.DoctorNote)),
	}
	if err := s.repo.InsertPhoto(ctx, p); err != nil {
		s.compensate(ctx, key, err)
		return nil, fmt.Errorf("save photo metadata: %w", err)
	}

	view, err := s.view(ctx, *p)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Delete removes the stored object and then its metadata row. If the object
// cannot be removed the row is kept so the photo stays reachable. Admin only.
func (s *Service) Delete(ctx context.Context, actorID, photoID string) error {
	if err := s.requireAdmin(ctx, actorID); err != nil {
		return err
	}

	p, err := s.repo.GetPhoto(ctx, photoID)
	if err != nil {
		return err
	}
	if err := s.gw.Remove(ctx, p.R2Key); err != nil {
		return fmt.Errorf("remove photo object: %w", err)
	}
	if err := s.repo.DeletePhoto(ctx, photoID); err != nil {
		s.log.WithContext(ctx).Error("photo row left pointing at removed object",
			slog.String("photo_id", photoID),
			slog.String("key", p.R2Key),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("delete photo metadata: %w", err)
	}
	return nil
}

func (s *Service) view(ctx context.Context, p Photo) (PhotoView, error) {
	desc, err := s.gw.AccessDescriptor(ctx, p.R2Key, accessExpiry)
	if err != nil {
		return PhotoView{}, fmt.Errorf("photo access url: %w", err)
	}
	return PhotoView{Photo: p, Access: desc}, nil
}

func (s *Service) compensate(ctx context.Context, key string, cause error) {
	log := s.log.WithContext(ctx)
	if err := s.gw.Remove(ctx, key); err != nil {
		log.Error("orphaned photo object after metadata failure",
			slog.String("key", key),
			slog.String("cause", cause.Error()),
			slog.String("error", err.Error()),
		)
		return
	}
	log.Warn("removed photo object after metadata failure",
		slog.String("key", key),
		slog.String("cause", cause.Error()),
	)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
