package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cachetcache/service/internal/validate"
)

// ErrInvalidInput wraps profile validation failures.
var ErrInvalidInput = errors.New("invalid profile input")

// ErrForbidden is returned when a non-admin calls an admin operation.
var ErrForbidden = errors.New("admin privileges required")

// UpdateInput holds the editable profile fields as sent by the client.
type UpdateInput struct {
	Name        string  `json:"name" validate:"required,max=120"`
	PhoneNumber *string `json:"phoneNumber,omitempty" example:"+33612345678"`
	Sex         *string `json:"sex,omitempty" validate:"omitempty,oneof=Male Female Other"`
	Birthdate   *string `json:"birthdate,omitempty" example:"1990-05-01"`
	Age         *int    `json:"age,omitempty"`
}

// ProfileUpdate is a validated UpdateInput.
type ProfileUpdate struct {
	Name        string
	PhoneNumber *string
	Sex         *string
	Birthdate   *time.Time
	Age         *int
}

// Store is the persistence the Service needs.
type Store interface {
	Create(ctx context.Context, id, email string) (*Profile, error)
	GetByID(ctx context.Context, id string) (*Profile, error)
	SetEmail(ctx context.Context, id, email string) error
	Update(ctx context.Context, id string, u ProfileUpdate) (*Profile, error)
	IsAdmin(ctx context.Context, id string) (bool, error)
	ListPatients(ctx context.Context) ([]Patient, error)
}

// Service contains business logic for user profiles.
type Service struct {
	repo Store
	now  func() time.Time
}

// NewService creates a new user Service.
func NewService(repo Store) *Service {
	return &Service{repo: repo, now: time.Now}
}

// GetOrCreate returns the caller's profile, creating it on first access and
// backfilling the email when the row has none.
func (s *Service) GetOrCreate(ctx context.Context, id, email string) (*Profile, error) {
	p, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		p, err = s.repo.Create(ctx, id, email)
		if errors.Is(err, ErrAlreadyExists) {
			// Lost a race with a concurrent first request.
			p, err = s.repo.GetByID(ctx, id)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	if p.Email == nil && email != "" {
		if err := s.repo.SetEmail(ctx, id, email); err == nil {
			p.Email = &email
		}
	}
	return p, nil
}

// IsAdmin reports whether the user has clinic admin rights.
func (s *Service) IsAdmin(ctx context.Context, id string) (bool, error) {
	return s.repo.IsAdmin(ctx, id)
}

// ListPatients returns every patient profile, newest first. Admin only.
func (s *Service) ListPatients(ctx context.Context, actorID string) ([]Patient, error) {
	ok, err := s.repo.IsAdmin(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("check admin: %w", err)
	}
	if !ok {
		return nil, ErrForbidden
	}
	return s.repo.ListPatients(ctx)
}

// Update validates and saves the caller's profile. Phone numbers are stored
// as E.164. Age is derived from the birthdate when one is given, otherwise
// taken as supplied.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Profile, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Sex = nonEmpty(in.Sex)
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	u := ProfileUpdate{Name: in.Name, Sex: in.Sex, Age: in.Age}
	if phone := nonEmpty(in.PhoneNumber); phone != nil {
		e164, err := validate.PhoneE164(*phone)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		u.PhoneNumber = &e164
	}

	if bd := nonEmpty(in.Birthdate); bd != nil {
		birth, err := time.Parse("2006-01-02", *bd)
		if err != nil {
			return nil, fmt.Errorf("%w: birthdate must be YYYY-MM-DD", ErrInvalidInput)
		}
		age := ageOn(birth, s.now())
		u.Birthdate = &birth
		u.Age = &age
	}
	if u.Age != nil && (*u.Age < 0 || *u.Age > 150) {
		return nil, fmt.Errorf("%w: invalid age or date of birth", ErrInvalidInput)
	}

	return s.repo.Update(ctx, id, u)
}

// IsNotFound returns true when the error indicates a profile was not found.
func (s *Service) IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func ageOn(birth, today time.Time) int {
	age := today.Year() - birth.Year()
	if today.Month() < birth.Month() || (today.Month() == birth.Month() && today.Day() < birth.Day()) {
		age--
	}
	return age
}
