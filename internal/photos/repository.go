package photos

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cachetcache/service/internal/db"
)

const (
	visitColumns = `id, user_id, title, initial_consult_date, follow_up_date, expanded, created_at, updated_at`
	photoColumns = `id, user_id, visit_id, r2_key, filename, original_name, file_size, mime_type, photo_type, doctor_note, created_at, updated_at`
)

// Repository handles visits and visit_photos persistence.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new photos Repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanVisit(row pgx.Row) (*Visit, error) {
	v := &Visit{}
	err := row.Scan(&v.ID, &v.UserID, &v.Title, &v.InitialConsultDate, &v.FollowUpDate, &v.Expanded, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func scanPhoto(row pgx.Row) (*Photo, error) {
	p := &Photo{}
	err := row.Scan(&p.ID, &p.UserID, &p.VisitID, &p.R2Key, &p.Filename, &p.OriginalName, &p.FileSize,
		&p.MimeType, &p.PhotoType, &p.DoctorNote, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreateVisit inserts v and fills in the generated columns.
func (r *Repository) CreateVisit(ctx context.Context, v *Visit) error {
	created, err := scanVisit(r.db.QueryRow(ctx,
		`INSERT INTO visits (user_id, title, initial_consult_date, follow_up_date)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+visitColumns,
		v.UserID, v.Title, v.InitialConsultDate, v.FollowUpDate,
	))
	if err != nil {
		if db.IsForeignKeyViolation(err) || db.IsInvalidTextRepresentation(err) {
			return fmt.Errorf("%w: unknown patient", ErrInvalidInput)
		}
		return fmt.Errorf("create visit: %w", err)
	}
	*v = *created
	return nil
}

// GetVisit fetches a visit by id.
func (r *Repository) GetVisit(ctx context.Context, id string) (*Visit, error) {
	v, err := scanVisit(r.db.QueryRow(ctx, `SELECT `+visitColumns+` FROM visits WHERE id = $1`, id))
	if db.IsNoMatch(err) {
		return nil, ErrVisitNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get visit: %w", err)
	}
	return v, nil
}

// ListVisits returns a patient's visits, newest first.
func (r *Repository) ListVisits(ctx context.Context, userID string) ([]Visit, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+visitColumns+` FROM visits WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if db.IsInvalidTextRepresentation(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visit: %w", err)
		}
		visits = append(visits, *v)
	}
	return visits, noMatchIsEmpty(rows.Err())
}

// InsertPhoto writes the metadata row for an uploaded photo.
func (r *Repository) InsertPhoto(ctx context.Context, p *Photo) error {
	created, err := scanPhoto(r.db.QueryRow(ctx,
		`INSERT INTO visit_photos (user_id, visit_id, r2_key, filename, original_name, file_size, mime_type, photo_type, doctor_note)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+photoColumns,
		p.UserID, p.VisitID, p.R2Key, p.Filename, p.OriginalName, p.FileSize, p.MimeType, p.PhotoType, p.DoctorNote,
	))
	if err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	*p = *created
	return nil
}

// GetPhoto fetches a photo row by id.
func (r *Repository) GetPhoto(ctx context.Context, id string) (*Photo, error) {
	p, err := scanPhoto(r.db.QueryRow(ctx, `SELECT `+photoColumns+` FROM visit_photos WHERE id = $1`, id))
	if db.IsNoMatch(err) {
		return nil, ErrPhotoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get photo: %w", err)
	}
	return p, nil
}

// ListPhotosByUser returns every photo of a patient, oldest first.
func (r *Repository) ListPhotosByUser(ctx context.Context, userID string) ([]Photo, error) {
	return r.listPhotos(ctx, `SELECT `+photoColumns+` FROM visit_photos WHERE user_id = $1 ORDER BY created_at`, userID)
}

// ListPhotosByVisit returns the photos of one visit, oldest first.
func (r *Repository) ListPhotosByVisit(ctx context.Context, visitID string) ([]Photo, error) {
	return r.listPhotos(ctx, `SELECT `+photoColumns+` FROM visit_photos WHERE visit_id = $1 ORDER BY created_at`, visitID)
}

func (r *Repository) listPhotos(ctx context.Context, query, arg string) ([]Photo, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if db.IsInvalidTextRepresentation(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	defer rows.Close()

	var photos []Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, *p)
	}
	return photos, noMatchIsEmpty(rows.Err())
}

// DeletePhoto removes a photo row.
func (r *Repository) DeletePhoto(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM visit_photos WHERE id = $1`, id)
	if db.IsInvalidTextRepresentation(err) {
		return ErrPhotoNotFound
	}
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPhotoNotFound
	}
	return nil
}

// noMatchIsEmpty drops the error a list query raises for an id that is not a
// UUID; such an id matches no rows.
func noMatchIsEmpty(err error) error {
	if db.IsInvalidTextRepresentation(err) {
		return nil
	}
	return err
}
