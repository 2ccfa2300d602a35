// Package user manages clinic user profiles and the admin flag.
package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cachetcache/service/internal/db"
)

// Profile is the user_profile row for an authenticated user.
type Profile struct {
	ID          string     `json:"id"`
	Email       *string    `json:"email,omitempty"`
	Name        *string    `json:"name,omitempty"`
	PhoneNumber *string    `json:"phoneNumber,omitempty"`
	Sex         *string    `json:"sex,omitempty"`
	Age         *int       `json:"age,omitempty"`
	Birthdate   *time.Time `json:"birthdate,omitempty"`
	IsAdmin     bool       `json:"isAdmin"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Patient is the admin listing view of a profile.
type Patient struct {
	ID          string     `json:"id"`
	Name        *string    `json:"name,omitempty"`
	PhoneNumber *string    `json:"phoneNumber,omitempty"`
	Sex         *string    `json:"sex,omitempty"`
	Age         *int       `json:"age,omitempty"`
	Birthdate   *time.Time `json:"birthdate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ErrNotFound is returned when a profile does not exist.
var ErrNotFound = errors.New("profile not found")

// ErrAlreadyExists is returned when a profile row already exists for the id.
var ErrAlreadyExists = errors.New("profile already exists")

const profileColumns = `id, email, name, phone_number, sex, age, birthdate, is_admin, created_at, updated_at`

// Repository handles all user_profile database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scanProfile(row pgx.Row) (*Profile, error) {
	p := &Profile{}
	err := row.Scan(&p.ID, &p.Email, &p.Name, &p.PhoneNumber, &p.Sex, &p.Age, &p.Birthdate, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// Create inserts an empty profile for a newly seen auth user.
func (r *Repository) Create(ctx context.Context, id, email string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx,
		`INSERT INTO user_profile (id, email)
		 VALUES ($1, NULLIF($2, ''))
		 RETURNING `+profileColumns,
		id, email,
	))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}
	return p, nil
}

// GetByID fetches a profile by the auth user id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_profile WHERE id = $1`,
		id,
	))
	if db.IsNoMatch(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile by id: %w", err)
	}
	return p, nil
}

// SetEmail fills in the email of an existing profile.
func (r *Repository) SetEmail(ctx context.Context, id, email string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE user_profile SET email = $2, updated_at = NOW() WHERE id = $1`,
		id, email,
	)
	if err != nil {
		return fmt.Errorf("set profile email: %w", err)
	}
	return nil
}

// Update writes the editable profile fields.
func (r *Repository) Update(ctx context.Context, id string, u ProfileUpdate) (*Profile, error) {
	p, err := scanProfile(r.db.QueryRow(ctx,
		`UPDATE user_profile
		 SET name = $2, phone_number = $3, sex = $4, birthdate = $5, age = $6, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+profileColumns,
		id, u.Name, u.PhoneNumber, u.Sex, u.Birthdate, u.Age,
	))
	if db.IsNoMatch(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

// IsAdmin reports the is_admin flag; a missing profile is not an admin.
func (r *Repository) IsAdmin(ctx context.Context, id string) (bool, error) {
	var isAdmin bool
	err := r.db.QueryRow(ctx,
		`SELECT is_admin FROM user_profile WHERE id = $1`,
		id,
	).Scan(&isAdmin)
	if db.IsNoMatch(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check admin: %w", err)
	}
	return isAdmin, nil
}

// ListPatients returns every profile, newest first.
func (r *Repository) ListPatients(ctx context.Context) ([]Patient, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, phone_number, sex, age, birthdate, created_at, updated_at
		 FROM user_profile
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	patients := []Patient{}
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.Name, &p.PhoneNumber, &p.Sex, &p.Age, &p.Birthdate, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}
