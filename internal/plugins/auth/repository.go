package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/finaccosolutions/portal/internal/apperror"
)

// UserRepository defines the data access contract for account operations.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateLastLogin(ctx context.Context, id string) error
	MarkEmailConfirmed(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error

	// Email confirmation.
	CreateConfirmationToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	FindConfirmationToken(ctx context.Context, tokenHash string) (userID string, expiresAt time.Time, usedAt *time.Time, err error)
	MarkConfirmationTokenUsed(ctx context.Context, tokenHash string) error

	// Password reset.
	CreateResetToken(ctx context.Context, userID, email, tokenHash string, expiresAt time.Time) error
	FindResetToken(ctx context.Context, tokenHash string) (userID, email string, expiresAt time.Time, usedAt *time.Time, err error)
	MarkResetTokenUsed(ctx context.Context, tokenHash string) error
}

// userRepository implements UserRepository with hand-written MariaDB queries.
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository backed by the given DB pool.
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts a new user row into the users table.
func (r *userRepository) Create(ctx context.Context, user *User) error {
	query := `INSERT INTO users (id, email, display_name, phone, password_hash, is_admin, email_confirmed, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID,
		user.Email,
		user.DisplayName,
		user.Phone,
		user.PasswordHash,
		user.IsAdmin,
		user.EmailConfirmed,
		user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}

	return nil
}

// FindByID retrieves a user by their UUID.
// Returns apperror.NewNotFound if no user exists with this ID.
func (r *userRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query := `SELECT id, email, display_name, phone, password_hash,
	                 is_admin, email_confirmed, created_at, last_login_at
	          FROM users WHERE id = ?`

	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// FindByEmail retrieves a user by their email address.
// Returns apperror.NewNotFound if no user exists with this email.
func (r *userRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT id, email, display_name, phone, password_hash,
	                 is_admin, email_confirmed, created_at, last_login_at
	          FROM users WHERE email = ?`

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) scanUser(row *sql.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.DisplayName,
		&user.Phone,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.EmailConfirmed,
		&user.CreatedAt,
		&user.LastLoginAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	return user, nil
}

// EmailExists returns true if a user with the given email already exists.
// Used during registration to check for duplicates before hashing the password.
func (r *userRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`

	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking email existence: %w", err)
	}

	return exists, nil
}

// UpdateLastLogin sets the last_login_at timestamp to now for the given user.
func (r *userRepository) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login_at = NOW() WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("updating last login: %w", err)
	}

	return nil
}

// MarkEmailConfirmed flips email_confirmed for the given user.
func (r *userRepository) MarkEmailConfirmed(ctx context.Context, id string) error {
	query := `UPDATE users SET email_confirmed = TRUE WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("marking email confirmed: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}

	return nil
}

// UpdatePassword sets a new password hash for a user.
func (r *userRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	query := `UPDATE users SET password_hash = ? WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return apperror.NewNotFound("user not found")
	}
	return nil
}

// --- Email confirmation ---

// CreateConfirmationToken inserts a new email confirmation token. The
// tokenHash is SHA-256(plaintext_token) -- plaintext is never stored.
func (r *userRepository) CreateConfirmationToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	query := `INSERT INTO email_confirmation_tokens (token_hash, user_id, expires_at)
	          VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, tokenHash, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("creating confirmation token: %w", err)
	}
	return nil
}

// FindConfirmationToken looks up a confirmation token by its hash.
func (r *userRepository) FindConfirmationToken(ctx context.Context, tokenHash string) (string, time.Time, *time.Time, error) {
	query := `SELECT user_id, expires_at, used_at
	          FROM email_confirmation_tokens WHERE token_hash = ?`
	var userID string
	var expiresAt time.Time
	var usedAt *time.Time
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(&userID, &expiresAt, &usedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", time.Time{}, nil, apperror.NewNotFound("invalid or expired confirmation link")
	}
	if err != nil {
		return "", time.Time{}, nil, fmt.Errorf("finding confirmation token: %w", err)
	}
	return userID, expiresAt, usedAt, nil
}

// MarkConfirmationTokenUsed stamps used_at so the link can't be replayed.
func (r *userRepository) MarkConfirmationTokenUsed(ctx context.Context, tokenHash string) error {
	query := `UPDATE email_confirmation_tokens SET used_at = NOW() WHERE token_hash = ?`
	_, err := r.db.ExecContext(ctx, query, tokenHash)
	if err != nil {
		return fmt.Errorf("marking confirmation token used: %w", err)
	}
	return nil
}

// --- Password reset ---

// CreateResetToken inserts a new password reset token. The tokenHash is
// SHA-256(plaintext_token) -- plaintext is never stored.
func (r *userRepository) CreateResetToken(ctx context.Context, userID, email, tokenHash string, expiresAt time.Time) error {
	query := `INSERT INTO password_reset_tokens (token_hash, user_id, email, expires_at)
	          VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, tokenHash, userID, email, expiresAt)
	if err != nil {
		return fmt.Errorf("creating reset token: %w", err)
	}
	return nil
}

// FindResetToken looks up a reset token by its hash. Returns the associated
// user ID, email, expiry, and used_at (nil if unused).
func (r *userRepository) FindResetToken(ctx context.Context, tokenHash string) (string, string, time.Time, *time.Time, error) {
	query := `SELECT user_id, email, expires_at, used_at
	          FROM password_reset_tokens WHERE token_hash = ?`
	var userID, email string
	var expiresAt time.Time
	var usedAt *time.Time
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(&userID, &email, &expiresAt, &usedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", time.Time{}, nil, apperror.NewNotFound("invalid or expired reset token")
	}
	if err != nil {
		return "", "", time.Time{}, nil, fmt.Errorf("finding reset token: %w", err)
	}
	return userID, email, expiresAt, usedAt, nil
}

// MarkResetTokenUsed stamps the used_at column so the token can't be reused.
func (r *userRepository) MarkResetTokenUsed(ctx context.Context, tokenHash string) error {
	query := `UPDATE password_reset_tokens SET used_at = NOW() WHERE token_hash = ?`
	_, err := r.db.ExecContext(ctx, query, tokenHash)
	if err != nil {
		return fmt.Errorf("marking reset token used: %w", err)
	}
	return nil
}
