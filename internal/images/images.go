// Package images handles images users upload to their own gallery.
package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cachetcache/service/internal/logger"
	"github.com/cachetcache/service/internal/storage"
	"github.com/cachetcache/service/internal/upload"
	"github.com/cachetcache/service/internal/user"
)

// Image is the user_images metadata row.
type Image struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	R2Key        string    `json:"r2Key"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	FileSize     int64     `json:"fileSize"`
	MimeType     string    `json:"mimeType"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store persists image metadata.
type Store interface {
	Insert(ctx context.Context, img *Image) error
}

// Repository is the pgx-backed Store.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new images Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Insert writes img and fills in its id and timestamp.
func (r *Repository) Insert(ctx context.Context, img *Image) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO user_images (user_id, r2_key, filename, original_name, file_size, mime_type, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		img.UserID, img.R2Key, img.Filename, img.OriginalName, img.FileSize, img.MimeType, img.Description,
	).Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

// Profiles makes sure the uploader has a profile row to own the image.
type Profiles interface {
	GetOrCreate(ctx context.Context, id, email string) (*user.Profile, error)
}

// UploadInput is an image upload from an authenticated user.
type UploadInput struct {
	UserID       string
	UserEmail    string
	OriginalName string
	ContentType  string
	Size         int64
	Description  string
	Body         io.Reader
}

// Uploaded is returned to the client after a successful upload.
type Uploaded struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Service uploads user images.
type Service struct {
	repo     Store
	profiles Profiles
	gw       *storage.Gateway
	log      *logger.Logger
}

// NewService creates a new images Service.
func NewService(repo Store, profiles Profiles, gw *storage.Gateway, log *logger.Logger) *Service {
	return &Service{repo: repo, profiles: profiles, gw: gw, log: log}
}

// Upload stores the image under {userID}/{uuid}.{ext} and records it. When
// the row cannot be written the stored object is removed again.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*Uploaded, error) {
	if err := upload.ValidateImage(in.ContentType, in.Size); err != nil {
		return nil, err
	}
	if _, err := s.profiles.GetOrCreate(ctx, in.UserID, in.UserEmail); err != nil {
		return nil, err
	}

	key := storage.UserImageKey(in.UserID, storage.Extension(in.OriginalName, in.ContentType))
	if err := s.gw.Upload(ctx, key, in.Body, in.Size, in.ContentType); err != nil {
		return nil, fmt.Errorf("store image: %w", err)
	}

	img := &Image{
		UserID:       in.UserID,
		R2Key:        key,
		Filename:     key,
		OriginalName: in.OriginalName,
		FileSize:     in.Size,
		MimeType:     in.ContentType,
		Description:  strings.TrimSpace(in.Description),
	}
	if err := s.repo.Insert(ctx, img); err != nil {
		if rmErr := s.gw.Remove(ctx, key); rmErr != nil {
			s.log.WithContext(ctx).Error("orphaned image object after metadata failure",
				slog.String("key", key),
				slog.String("error", rmErr.Error()),
			)
		}
		return nil, fmt.Errorf("save image metadata: %w", err)
	}

	desc, err := s.gw.AccessDescriptor(ctx, key, storage.DefaultAccessExpiry)
	if err != nil {
		return nil, fmt.Errorf("image access url: %w", err)
	}

	s.log.WithContext(ctx).Info("image uploaded", slog.String("image_id", img.ID), slog.String("key", key))
	return &Uploaded{ID: img.ID, Filename: key, URL: desc.URL, Description: img.Description}, nil
}
