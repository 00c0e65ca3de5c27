package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/finaccosolutions/portal/internal/apperror"
)

// ProfileRepository defines data access for profiles.
type ProfileRepository interface {
	FindByID(ctx context.Context, id string) (*Profile, error)
	Create(ctx context.Context, p *Profile) error
	Update(ctx context.Context, id, fullName, phone string) (*Profile, error)
}

// profileRepository implements ProfileRepository using MariaDB.
type profileRepository struct {
	db *sql.DB
}

// NewRepository creates a new profile repository.
func NewRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) FindByID(ctx context.Context, id string) (*Profile, error) {
	query := `
		SELECT id, email, full_name, phone, is_admin, created_at, updated_at
		FROM profiles
		WHERE id = ?`

	var p Profile
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.Email, &p.FullName, &p.Phone, &p.IsAdmin, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("profile not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying profile: %w", err)
	}
	return &p, nil
}

func (r *profileRepository) Create(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO profiles (id, email, full_name, phone, is_admin)
		VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query, p.ID, p.Email, p.FullName, p.Phone, p.IsAdmin)
	if err != nil {
		return fmt.Errorf("inserting profile: %w", err)
	}
	return nil
}

func (r *profileRepository) Update(ctx context.Context, id, fullName, phone string) (*Profile, error) {
	query := `
		UPDATE profiles
		SET full_name = ?, phone = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, fullName, phone, id)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("checking update result: %w", err)
	}
	if rows == 0 {
		// Zero rows can also mean a no-op update; confirm existence.
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return nil, findErr
		}
	}
	return r.FindByID(ctx, id)
}
