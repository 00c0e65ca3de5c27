package profile

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/finaccosolutions/portal/internal/apperror"
	"github.com/finaccosolutions/portal/internal/plugins/auth"
)

// ProfileService defines the business logic contract for the account page.
type ProfileService interface {
	// Get returns the caller's profile, creating it from the session data
	// on first access.
	Get(ctx context.Context, session *auth.Session) (*Profile, error)

	// Update changes the caller's editable fields. The admin flag cannot
	// be changed through this path.
	Update(ctx context.Context, session *auth.Session, input UpdateRequest) (*Profile, error)
}

// profileService implements ProfileService.
type profileService struct {
	repo ProfileRepository
}

// NewService creates a new profile service.
func NewService(repo ProfileRepository) ProfileService {
	return &profileService{repo: repo}
}

// Get loads the profile, lazily creating the row on first access so accounts
// that predate the profiles table (or arrived via OAuth) still get one.
func (s *profileService) Get(ctx context.Context, session *auth.Session) (*Profile, error) {
	p, err := s.repo.FindByID(ctx, session.UserID)
	if err == nil {
		return p, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, apperror.NewInternal(fmt.Errorf("loading profile: %w", err))
	}

	p = &Profile{
		ID:       session.UserID,
		Email:    session.Email,
		FullName: session.Name,
		IsAdmin:  session.IsAdmin,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		// A concurrent first access may have won the insert race.
		if existing, findErr := s.repo.FindByID(ctx, session.UserID); findErr == nil {
			return existing, nil
		}
		return nil, apperror.NewInternal(fmt.Errorf("creating profile: %w", err))
	}

	slog.Info("profile created", slog.String("user_id", session.UserID))
	return s.repo.FindByID(ctx, session.UserID)
}

// Update validates and applies the editable fields.
func (s *profileService) Update(ctx context.Context, session *auth.Session, input UpdateRequest) (*Profile, error) {
	fullName := strings.TrimSpace(input.FullName)
	phone := strings.TrimSpace(input.Phone)

	fields := map[string]string{}
	if fullName == "" {
		fields["full_name"] = "full name is required"
	}
	if len(fullName) > 100 {
		fields["full_name"] = "full name must be at most 100 characters"
	}
	if len(phone) > 20 {
		fields["phone"] = "phone must be at most 20 characters"
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidation("please correct the highlighted fields", fields)
	}

	// Make sure the row exists before updating (first action may be a save).
	if _, err := s.Get(ctx, session); err != nil {
		return nil, err
	}

	p, err := s.repo.Update(ctx, session.UserID, fullName, phone)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, err
		}
		return nil, apperror.NewInternal(fmt.Errorf("updating profile: %w", err))
	}
	return p, nil
}
