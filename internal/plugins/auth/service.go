package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/argon2"

	"github.com/finaccosolutions/portal/internal/apperror"
	"github.com/finaccosolutions/portal/internal/mailer"
)

// Token sizing: 32 random bytes, hex-encoded to 64 characters.
const (
	sessionTokenBytes = 32
	mailTokenBytes    = 32
)

// Confirmation and reset links stay valid for 24 hours.
const mailTokenTTL = 24 * time.Hour

// argon2id parameters following OWASP recommendations: memory=64MB,
// iterations=3, parallelism=4.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // 64 MB in KiB
	argonThreads = 4
	argonKeyLen  = 32
	argonSaltLen = 16
)

// AuthService defines the business logic contract for accounts and sessions.
// Handlers call these methods -- they never touch the repository directly.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*User, error)
	ConfirmEmail(ctx context.Context, code string) error
	Login(ctx context.Context, input LoginInput) (token string, session *Session, err error)
	LoginOAuth(ctx context.Context, email, name string) (token string, session *Session, err error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error

	SessionManager
}

// SessionManager is the session-state portion of the auth contract. Route
// middleware and the /session endpoints depend only on this.
type SessionManager interface {
	// GetSession returns the session for a token, transparently re-issuing
	// it from the refresh entry when the access entry has lapsed. Redis
	// errors are retried with exponential backoff; exhausting the retries
	// yields unauthenticated, never a silently-valid session.
	GetSession(ctx context.Context, token string) (*Session, error)

	// Refresh re-issues the access entry with a later expiry. Used by the
	// explicit /session/refresh hook the client calls when a tab regains
	// visibility.
	Refresh(ctx context.Context, token string) (*Session, error)

	// ClearSession destroys both session entries and broadcasts sign-out.
	// Idempotent: clearing an already-cleared token is not an error.
	ClearSession(ctx context.Context, token string) error

	// StartRefresh launches the background keeper that periodically
	// re-validates live sessions; StopRefresh halts it.
	StartRefresh()
	StopRefresh()

	// Subscribe delivers auth-state events for a user until ctx ends.
	Subscribe(ctx context.Context, userID string) (<-chan Event, error)
}

// authService implements AuthService with argon2id hashing and Redis sessions.
type authService struct {
	repo       UserRepository
	redis      *redis.Client
	mail       mailer.Sender
	baseURL    string
	sessionTTL time.Duration
	refreshTTL time.Duration

	keeperInterval time.Duration
	keeperStop     chan struct{}
}

// NewAuthService creates a new auth service with the given dependencies.
func NewAuthService(repo UserRepository, rdb *redis.Client, mail mailer.Sender, baseURL string, sessionTTL, refreshTTL, keeperInterval time.Duration) AuthService {
	return &authService{
		repo:           repo,
		redis:          rdb,
		mail:           mail,
		baseURL:        baseURL,
		sessionTTL:     sessionTTL,
		refreshTTL:     refreshTTL,
		keeperInterval: keeperInterval,
	}
}

// Register creates a new user account. It validates uniqueness, hashes the
// password with argon2id, persists the user, and emails a confirmation link
// when mail is configured. Without mail the account is confirmed directly.
func (s *authService) Register(ctx context.Context, input RegisterInput) (*User, error) {
	// Check if email is already taken before doing expensive hashing.
	email := strings.ToLower(strings.TrimSpace(input.Email))
	exists, err := s.repo.EmailExists(ctx, email)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("checking email: %w", err))
	}
	if exists {
		return nil, apperror.NewConflict("an account with this email already exists")
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}

	user := &User{
		ID:             uuid.NewString(),
		Email:          email,
		DisplayName:    strings.TrimSpace(input.DisplayName),
		Phone:          strings.TrimSpace(input.Phone),
		PasswordHash:   hash,
		IsAdmin:        false,
		EmailConfirmed: !s.mail.IsConfigured(),
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating user: %w", err))
	}

	if s.mail.IsConfigured() {
		if err := s.sendConfirmationEmail(ctx, user); err != nil {
			// The account exists; the user can request a fresh link later.
			slog.Warn("failed to send confirmation email",
				slog.String("user_id", user.ID),
				slog.Any("error", err),
			)
		}
	}

	slog.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, nil
}

// sendConfirmationEmail creates a confirmation token and emails the link.
func (s *authService) sendConfirmationEmail(ctx context.Context, user *User) error {
	token, err := generateToken(mailTokenBytes)
	if err != nil {
		return fmt.Errorf("generating confirmation token: %w", err)
	}
	if err := s.repo.CreateConfirmationToken(ctx, user.ID, hashToken(token), time.Now().UTC().Add(mailTokenTTL)); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/auth/callback?code=%s", s.baseURL, token)
	body := confirmationEmailBody(user.DisplayName, link)
	return s.mail.SendMail(ctx, []string{user.Email}, "Confirm your Finacco Solutions account", body)
}

// ConfirmEmail validates a confirmation code from the emailed link and marks
// the account confirmed. Expired or replayed codes are rejected.
func (s *authService) ConfirmEmail(ctx context.Context, code string) error {
	userID, expiresAt, usedAt, err := s.repo.FindConfirmationToken(ctx, hashToken(code))
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewBadRequest("invalid or expired confirmation link")
		}
		return apperror.NewInternal(err)
	}
	if usedAt != nil || time.Now().UTC().After(expiresAt) {
		return apperror.NewBadRequest("invalid or expired confirmation link")
	}

	if err := s.repo.MarkEmailConfirmed(ctx, userID); err != nil {
		return apperror.NewInternal(fmt.Errorf("confirming email: %w", err))
	}
	if err := s.repo.MarkConfirmationTokenUsed(ctx, hashToken(code)); err != nil {
		return apperror.NewInternal(err)
	}

	slog.Info("email confirmed", slog.String("user_id", userID))
	return nil
}

// Login authenticates a user by email and password. On success it creates a
// new session in Redis and returns the session token for the cookie.
func (s *authService) Login(ctx context.Context, input LoginInput) (string, *Session, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		// Don't reveal whether the email exists -- use generic message.
		if apperror.IsNotFound(err) {
			return "", nil, apperror.NewUnauthorized("invalid email or password")
		}
		return "", nil, apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	if !verifyPassword(input.Password, user.PasswordHash) {
		return "", nil, apperror.NewUnauthorized("invalid email or password")
	}

	if !user.EmailConfirmed {
		return "", nil, apperror.NewUnauthorized("please confirm your email address before signing in")
	}

	token, session, err := s.createSession(ctx, user)
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}

	// Update the user's last login timestamp (fire-and-forget, non-critical).
	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("failed to update last login",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
	}

	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return token, session, nil
}

// LoginOAuth signs in a user arriving from the Google OAuth callback. The
// provider has verified the email, so a missing account is created on the
// spot with email_confirmed set.
func (s *authService) LoginOAuth(ctx context.Context, email, name string) (string, *Session, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.repo.FindByEmail(ctx, email)
	if apperror.IsNotFound(err) {
		user = &User{
			ID:             uuid.NewString(),
			Email:          email,
			DisplayName:    strings.TrimSpace(name),
			EmailConfirmed: true,
			CreatedAt:      time.Now().UTC(),
		}
		if createErr := s.repo.Create(ctx, user); createErr != nil {
			return "", nil, apperror.NewInternal(fmt.Errorf("creating oauth user: %w", createErr))
		}
		slog.Info("oauth user created", slog.String("user_id", user.ID))
	} else if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("finding oauth user: %w", err))
	}

	token, session, err := s.createSession(ctx, user)
	if err != nil {
		return "", nil, apperror.NewInternal(fmt.Errorf("creating session: %w", err))
	}
	if err := s.repo.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("failed to update last login", slog.String("user_id", user.ID), slog.Any("error", err))
	}

	return token, session, nil
}

// RequestPasswordReset emails a reset link. To avoid account enumeration it
// reports success even when the email is unknown.
func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return apperror.NewInternal(fmt.Errorf("finding user: %w", err))
	}

	token, err := generateToken(mailTokenBytes)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("generating reset token: %w", err))
	}
	if err := s.repo.CreateResetToken(ctx, user.ID, user.Email, hashToken(token), time.Now().UTC().Add(mailTokenTTL)); err != nil {
		return apperror.NewInternal(err)
	}

	link := fmt.Sprintf("%s/auth/reset-password?token=%s", s.baseURL, token)
	body := resetEmailBody(user.DisplayName, link)
	if err := s.mail.SendMail(ctx, []string{user.Email}, "Reset your Finacco Solutions password", body); err != nil {
		return apperror.NewInternal(fmt.Errorf("sending reset email: %w", err))
	}

	slog.Info("password reset requested", slog.String("user_id", user.ID))
	return nil
}

// ResetPassword applies a new password for a valid, unused, unexpired token.
func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	userID, _, expiresAt, usedAt, err := s.repo.FindResetToken(ctx, hashToken(token))
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewBadRequest("invalid or expired reset token")
		}
		return apperror.NewInternal(err)
	}
	if usedAt != nil || time.Now().UTC().After(expiresAt) {
		return apperror.NewBadRequest("invalid or expired reset token")
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("hashing password: %w", err))
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return apperror.NewInternal(err)
	}
	if err := s.repo.MarkResetTokenUsed(ctx, hashToken(token)); err != nil {
		return apperror.NewInternal(err)
	}

	slog.Info("password reset completed", slog.String("user_id", userID))
	return nil
}

// --- Password Hashing (argon2id) ---

// hashPassword creates an argon2id hash of the given password. The output
// format is: $argon2id$v=19$m=65536,t=3,p=4$<salt>$<hash>
// This format is compatible with most argon2 libraries and allows self-
// contained verification without separate salt storage.
func hashPassword(password string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	// Encode to the standard PHC string format.
	b64Salt := base64.RawStdEncoding.EncodeToString(salt)
	b64Hash := base64.RawStdEncoding.EncodeToString(hash)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads, b64Salt, b64Hash)

	return encoded, nil
}

// verifyPassword checks a plaintext password against an argon2id hash string.
// Returns true if the password matches.
func verifyPassword(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 {
		return false
	}

	var memory uint32
	var iterations uint32
	var parallelism uint8
	_, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &parallelism)
	if err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}

	expectedHash, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, uint32(len(expectedHash)))

	// Constant-time comparison to prevent timing attacks.
	return subtle.ConstantTimeCompare(expectedHash, computedHash) == 1
}

// --- Helpers ---

// generateToken creates a cryptographically random hex-encoded token.
func generateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// hashToken returns the hex SHA-256 digest of a token, the form stored in
// the database.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
