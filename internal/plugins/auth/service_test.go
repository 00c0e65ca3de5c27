package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/finaccosolutions/portal/internal/apperror"
)

// --- Mock Repository ---

// mockUserRepo implements UserRepository for testing.
type mockUserRepo struct {
	createFn                    func(ctx context.Context, user *User) error
	findByIDFn                  func(ctx context.Context, id string) (*User, error)
	findByEmailFn               func(ctx context.Context, email string) (*User, error)
	emailExistsFn               func(ctx context.Context, email string) (bool, error)
	updateLastLoginFn           func(ctx context.Context, id string) error
	markEmailConfirmedFn        func(ctx context.Context, id string) error
	updatePasswordFn            func(ctx context.Context, userID, passwordHash string) error
	createConfirmationTokenFn   func(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error
	findConfirmationTokenFn     func(ctx context.Context, tokenHash string) (string, time.Time, *time.Time, error)
	markConfirmationTokenUsedFn func(ctx context.Context, tokenHash string) error
	createResetTokenFn          func(ctx context.Context, userID, email, tokenHash string, expiresAt time.Time) error
	findResetTokenFn            func(ctx context.Context, tokenHash string) (string, string, time.Time, *time.Time, error)
	markResetTokenUsedFn        func(ctx context.Context, tokenHash string) error
}

func (m *mockUserRepo) Create(ctx context.Context, user *User) error {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	return nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, apperror.NewNotFound("user not found")
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	if m.emailExistsFn != nil {
		return m.emailExistsFn(ctx, email)
	}
	return false, nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string) error {
	if m.updateLastLoginFn != nil {
		return m.updateLastLoginFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) MarkEmailConfirmed(ctx context.Context, id string) error {
	if m.markEmailConfirmedFn != nil {
		return m.markEmailConfirmedFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, userID, passwordHash)
	}
	return nil
}

func (m *mockUserRepo) CreateConfirmationToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	if m.createConfirmationTokenFn != nil {
		return m.createConfirmationTokenFn(ctx, userID, tokenHash, expiresAt)
	}
	return nil
}

func (m *mockUserRepo) FindConfirmationToken(ctx context.Context, tokenHash string) (string, time.Time, *time.Time, error) {
	if m.findConfirmationTokenFn != nil {
		return m.findConfirmationTokenFn(ctx, tokenHash)
	}
	return "", time.Time{}, nil, apperror.NewNotFound("token not found")
}

func (m *mockUserRepo) MarkConfirmationTokenUsed(ctx context.Context, tokenHash string) error {
	if m.markConfirmationTokenUsedFn != nil {
		return m.markConfirmationTokenUsedFn(ctx, tokenHash)
	}
	return nil
}

func (m *mockUserRepo) CreateResetToken(ctx context.Context, userID, email, tokenHash string, expiresAt time.Time) error {
	if m.createResetTokenFn != nil {
		return m.createResetTokenFn(ctx, userID, email, tokenHash, expiresAt)
	}
	return nil
}

func (m *mockUserRepo) FindResetToken(ctx context.Context, tokenHash string) (string, string, time.Time, *time.Time, error) {
	if m.findResetTokenFn != nil {
		return m.findResetTokenFn(ctx, tokenHash)
	}
	return "", "", time.Time{}, nil, apperror.NewNotFound("token not found")
}

func (m *mockUserRepo) MarkResetTokenUsed(ctx context.Context, tokenHash string) error {
	if m.markResetTokenUsedFn != nil {
		return m.markResetTokenUsedFn(ctx, tokenHash)
	}
	return nil
}

// --- Mock Mail Sender ---

// mockMailSender implements mailer.Sender for testing.
type mockMailSender struct {
	configured bool
	sendMailFn func(ctx context.Context, to []string, subject, body string) error
	// Capture fields for assertions.
	lastTo      []string
	lastSubject string
	lastBody    string
	sendCount   int
}

func (m *mockMailSender) SendMail(ctx context.Context, to []string, subject, body string) error {
	m.lastTo = to
	m.lastSubject = subject
	m.lastBody = body
	m.sendCount++
	if m.sendMailFn != nil {
		return m.sendMailFn(ctx, to, subject, body)
	}
	return nil
}

func (m *mockMailSender) IsConfigured() bool {
	return m.configured
}

// --- Test Helpers ---

// newTestAuthService creates an authService backed by a miniredis instance.
func newTestAuthService(t *testing.T, repo *mockUserRepo, mail *mockMailSender) *authService {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return &authService{
		repo:           repo,
		redis:          rdb,
		mail:           mail,
		baseURL:        "https://portal.example.com",
		sessionTTL:     time.Hour,
		refreshTTL:     30 * 24 * time.Hour,
		keeperInterval: time.Minute,
	}
}

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// --- Register Tests ---

func TestRegister_Success(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			if user.Email != "alice@example.com" {
				t.Errorf("expected email alice@example.com, got %s", user.Email)
			}
			if user.DisplayName != "Alice" {
				t.Errorf("expected display name Alice, got %s", user.DisplayName)
			}
			if user.IsAdmin {
				t.Error("expected non-admin user")
			}
			if user.PasswordHash == "" {
				t.Error("expected password hash to be set")
			}
			return nil
		},
	}

	svc := newTestAuthService(t, repo, &mockMailSender{configured: true})
	user, err := svc.Register(context.Background(), RegisterInput{
		Email:       "Alice@Example.com",
		DisplayName: "Alice",
		Password:    "secure-password-123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user == nil {
		t.Fatal("expected user, got nil")
	}
	if user.ID == "" {
		t.Error("expected user ID to be generated")
	}
	if user.EmailConfirmed {
		t.Error("expected account to require email confirmation")
	}
}

func TestRegister_SendsConfirmationEmail(t *testing.T) {
	mail := &mockMailSender{configured: true}
	svc := newTestAuthService(t, &mockUserRepo{}, mail)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Password:    "secure-password-123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mail.sendCount != 1 {
		t.Fatalf("expected 1 email sent, got %d", mail.sendCount)
	}
	if len(mail.lastTo) != 1 || mail.lastTo[0] != "alice@example.com" {
		t.Errorf("expected email to alice@example.com, got %v", mail.lastTo)
	}
	if !strings.Contains(mail.lastBody, "/auth/callback?code=") {
		t.Error("expected confirmation link in email body")
	}
}

func TestRegister_NoMailAutoConfirms(t *testing.T) {
	svc := newTestAuthService(t, &mockUserRepo{}, &mockMailSender{configured: false})
	user, err := svc.Register(context.Background(), RegisterInput{
		Email:       "alice@example.com",
		DisplayName: "Alice",
		Password:    "secure-password-123",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !user.EmailConfirmed {
		t.Error("expected auto-confirm when mail is not configured")
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{
		emailExistsFn: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}

	svc := newTestAuthService(t, repo, &mockMailSender{})
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:       "taken@example.com",
		DisplayName: "Test",
		Password:    "secure-password-123",
	})
	assertAppError(t, err, 409)
}

func TestRegister_CreateError(t *testing.T) {
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			return errors.New("db write error")
		},
	}

	svc := newTestAuthService(t, repo, &mockMailSender{})
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:       "test@example.com",
		DisplayName: "Test",
		Password:    "secure-password-123",
	})
	assertAppError(t, err, 500)
}

// --- Confirm Email Tests ---

func TestConfirmEmail_Success(t *testing.T) {
	var confirmed, used bool
	code := "plain-confirmation-code"
	repo := &mockUserRepo{
		findConfirmationTokenFn: func(ctx context.Context, tokenHash string) (string, time.Time, *time.Time, error) {
			if tokenHash != hashToken(code) {
				t.Errorf("expected hashed code lookup, got %s", tokenHash)
			}
			return "user-123", time.Now().Add(time.Hour), nil, nil
		},
		markEmailConfirmedFn: func(ctx context.Context, id string) error {
			confirmed = true
			return nil
		},
		markConfirmationTokenUsedFn: func(ctx context.Context, tokenHash string) error {
			used = true
			return nil
		},
	}

	svc := newTestAuthService(t, repo, &mockMailSender{})
	if err := svc.ConfirmEmail(context.Background(), code); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !confirmed {
		t.Error("expected account to be marked confirmed")
	}
	if !used {
		t.Error("expected token to be marked used")
	}
}

func TestConfirmEmail_Expired(t *testing.T) {
	repo := &mockUserRepo{
		findConfirmationTokenFn: func(ctx context.Context, tokenHash string) (string, time.Time, *time.Time, error) {
			return "user-123", time.Now().Add(-time.Minute), nil, nil
		},
	}

	svc := newTestAuthService(t, repo, &mockMailSender{})
	assertAppError(t, svc.ConfirmEmail(context.Background(), "old-code"), 400)
}

func TestConfirmEmail_Replayed(t *testing.T) {
	usedAt := time.Now().Add(-time.Minute)
	repo := &mockUserRepo{
		findConfirmationTokenFn: func(ctx context.Context, tokenHash string) (string, time.Time, *time.Time, error) {
			return "user-123", time.Now().Add(time.Hour), &usedAt, nil
		},
	}

	svc := newTestAuthService(t, repo, &mockMailSender{})
	assertAppError(t, svc.ConfirmEmail(context.Background(), "replayed-code"), 400)
}

// --- Login Tests ---

func confirmedUser(t *testing.T, password string) *User {
	t.Helper()
	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	return &User{
		ID:             "user-123",
		Email:          "alice@example.com",
		DisplayName:    "Alice",
		PasswordHash:   hash,
		EmailConfirmed: true,
	}
}

func TestLogin_Success(t *testing.T) {
	user := confirmedUser(t, "correct-password")
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return user, nil
		},
	}

	svc := newTestAuthService(t, repo, &mockMailSender{})
	token, session, err := svc.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "correct-password",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("expected session token")
	}
	if session.UserID != "user-123" {
		t.Errorf("expected user-123, got %s", session.UserID)
	}

	// The token must resolve back to the same session.
	got, err := svc.GetSession(context.Background(), token)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.UserID != "user-123" {
		t.Errorf("expected session for user-123, got %s", got.UserID)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	user := confirmedUser(t, "correct-password")
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return user, nil
		},
	}

	svc := newTestAuthService(t, repo, &mockMailSender{})
	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "wrong-password",
	})
	assertAppError(t, err, 401)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newTestAuthService(t, &mockUserRepo{}, &mockMailSender{})
	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "whatever",
	})
	assertAppError(t, err, 401)
}

func TestLogin_UnconfirmedEmail(t *testing.T) {
	user := confirmedUser(t, "correct-password")
	user.EmailConfirmed = false
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return user, nil
		},
	}

	svc := newTestAuthService(t, repo, &mockMailSender{})
	_, _, err := svc.Login(context.Background(), LoginInput{
		Email:    "alice@example.com",
		Password: "correct-password",
	})
	assertAppError(t, err, 401)
}

// --- OAuth Tests ---

func TestLoginOAuth_CreatesMissingAccount(t *testing.T) {
	var created *User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *User) error {
			created = user
			return nil
		},
	}

	svc := newTestAuthService(t, repo, &mockMailSender{})
	token, session, err := svc.LoginOAuth(context.Background(), "New@Example.com", "New User")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("expected session token")
	}
	if created == nil {
		t.Fatal("expected account to be created")
	}
	if created.Email != "new@example.com" {
		t.Errorf("expected normalized email, got %s", created.Email)
	}
	if !created.EmailConfirmed {
		t.Error("expected oauth account to be pre-confirmed")
	}
	if session.UserID != created.ID {
		t.Errorf("expected session for created user, got %s", session.UserID)
	}
}

func TestLoginOAuth_ExistingAccount(t *testing.T) {
	user := confirmedUser(t, "irrelevant")
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return user, nil
		},
		createFn: func(ctx context.Context, u *User) error {
			t.Error("should not create an account that already exists")
			return nil
		},
	}

	svc := newTestAuthService(t, repo, &mockMailSender{})
	_, session, err := svc.LoginOAuth(context.Background(), "alice@example.com", "Alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if session.UserID != "user-123" {
		t.Errorf("expected existing user, got %s", session.UserID)
	}
}

// --- Session Manager Tests ---

func sessionFixture(t *testing.T, svc *authService) (string, *User) {
	t.Helper()
	user := confirmedUser(t, "password")
	token, _, err := svc.createSession(context.Background(), user)
	if err != nil {
		t.Fatalf("createSession failed: %v", err)
	}
	return token, user
}

func TestGetSession_EmptyToken(t *testing.T) {
	svc := newTestAuthService(t, &mockUserRepo{}, &mockMailSender{})
	_, err := svc.GetSession(context.Background(), "")
	assertAppError(t, err, 401)
}

func TestGetSession_UnknownToken(t *testing.T) {
	svc := newTestAuthService(t, &mockUserRepo{}, &mockMailSender{})
	_, err := svc.GetSession(context.Background(), "never-issued")
	assertAppError(t, err, 401)
}

func TestGetSession_ReissuesFromRefreshEntry(t *testing.T) {
	user := confirmedUser(t, "password")
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			if id != user.ID {
				t.Errorf("expected lookup of %s, got %s", user.ID, id)
			}
			return user, nil
		},
	}
	svc := newTestAuthService(t, repo, &mockMailSender{})
	token, _ := sessionFixture(t, svc)

	// Drop the access entry; the refresh entry survives.
	if err := svc.redis.Del(context.Background(), sessionKey(token)).Err(); err != nil {
		t.Fatalf("del failed: %v", err)
	}

	session, err := svc.GetSession(context.Background(), token)
	if err != nil {
		t.Fatalf("expected re-issued session, got %v", err)
	}
	if session.UserID != user.ID {
		t.Errorf("expected session for %s, got %s", user.ID, session.UserID)
	}

	// The access entry must exist again.
	if exists := svc.redis.Exists(context.Background(), sessionKey(token)).Val(); exists != 1 {
		t.Error("expected access entry to be re-created")
	}
}

func TestGetSession_BothEntriesGone(t *testing.T) {
	svc := newTestAuthService(t, &mockUserRepo{}, &mockMailSender{})
	token, _ := sessionFixture(t, svc)

	svc.redis.Del(context.Background(), sessionKey(token), refreshKey(token))

	_, err := svc.GetSession(context.Background(), token)
	assertAppError(t, err, 401)
}

func TestGetSession_DeletedUser(t *testing.T) {
	svc := newTestAuthService(t, &mockUserRepo{}, &mockMailSender{})
	token, _ := sessionFixture(t, svc)

	// Access entry gone, refresh alive, but the user no longer exists
	// (mock FindByID defaults to not-found).
	svc.redis.Del(context.Background(), sessionKey(token))

	_, err := svc.GetSession(context.Background(), token)
	assertAppError(t, err, 401)

	// Both entries must have been cleaned up.
	if exists := svc.redis.Exists(context.Background(), refreshKey(token)).Val(); exists != 0 {
		t.Error("expected refresh entry to be removed for deleted user")
	}
}

func TestRefresh_ExtendsExpiry(t *testing.T) {
	user := confirmedUser(t, "password")
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return user, nil
		},
	}
	svc := newTestAuthService(t, repo, &mockMailSender{})
	token, _ := sessionFixture(t, svc)

	before, err := svc.GetSession(context.Background(), token)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	after, err := svc.Refresh(context.Background(), token)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if !after.ExpiresAt.After(before.ExpiresAt) {
		t.Errorf("expected later expiry, before=%v after=%v", before.ExpiresAt, after.ExpiresAt)
	}
}

func TestClearSession_ThenGetSessionFails(t *testing.T) {
	svc := newTestAuthService(t, &mockUserRepo{}, &mockMailSender{})
	token, _ := sessionFixture(t, svc)

	if err := svc.ClearSession(context.Background(), token); err != nil {
		t.Fatalf("ClearSession failed: %v", err)
	}

	_, err := svc.GetSession(context.Background(), token)
	assertAppError(t, err, 401)
}

func TestClearSession_Idempotent(t *testing.T) {
	svc := newTestAuthService(t, &mockUserRepo{}, &mockMailSender{})
	token, _ := sessionFixture(t, svc)

	if err := svc.ClearSession(context.Background(), token); err != nil {
		t.Fatalf("first clear failed: %v", err)
	}
	if err := svc.ClearSession(context.Background(), token); err != nil {
		t.Fatalf("second clear should succeed: %v", err)
	}
	if err := svc.ClearSession(context.Background(), ""); err != nil {
		t.Fatalf("clearing empty token should succeed: %v", err)
	}
}

func TestSweepSessions_RemovesOrphanedAccessEntries(t *testing.T) {
	svc := newTestAuthService(t, &mockUserRepo{}, &mockMailSender{})
	token, _ := sessionFixture(t, svc)

	// Simulate refresh-entry expiry.
	svc.redis.Del(context.Background(), refreshKey(token))

	svc.sweepSessions(context.Background())

	if exists := svc.redis.Exists(context.Background(), sessionKey(token)).Val(); exists != 0 {
		t.Error("expected orphaned access entry to be swept")
	}
}

func TestSweepSessions_KeepsLiveSessions(t *testing.T) {
	svc := newTestAuthService(t, &mockUserRepo{}, &mockMailSender{})
	token, _ := sessionFixture(t, svc)

	svc.sweepSessions(context.Background())

	if exists := svc.redis.Exists(context.Background(), sessionKey(token)).Val(); exists != 1 {
		t.Error("expected live session to survive the sweep")
	}
}

// --- Password Reset Tests ---

func TestRequestPasswordReset_Success(t *testing.T) {
	var capturedTokenHash string
	mail := &mockMailSender{configured: true}
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*User, error) {
			return &User{ID: "user-123", Email: "alice@example.com", DisplayName: "Alice"}, nil
		},
		createResetTokenFn: func(ctx context.Context, userID, email, tokenHash string, expiresAt time.Time) error {
			if userID != "user-123" {
				t.Errorf("expected user-123, got %s", userID)
			}
			capturedTokenHash = tokenHash
			return nil
		},
	}

	svc := newTestAuthService(t, repo, mail)
	if err := svc.RequestPasswordReset(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mail.sendCount != 1 {
		t.Errorf("expected 1 email sent, got %d", mail.sendCount)
	}
	if capturedTokenHash == "" {
		t.Error("expected token hash to be stored")
	}
	if !strings.Contains(mail.lastBody, "/auth/reset-password?token=") {
		t.Error("expected reset link in email body")
	}
}

func TestRequestPasswordReset_UnknownEmail(t *testing.T) {
	mail := &mockMailSender{configured: true}
	svc := newTestAuthService(t, &mockUserRepo{}, mail)

	// Should return nil (no error) to prevent email enumeration.
	if err := svc.RequestPasswordReset(context.Background(), "unknown@example.com"); err != nil {
		t.Fatalf("expected nil error for unknown email, got: %v", err)
	}
	if mail.sendCount != 0 {
		t.Errorf("expected no emails sent for unknown user, got %d", mail.sendCount)
	}
}

func TestResetPassword_Success(t *testing.T) {
	var updatedHash string
	var tokenMarkedUsed bool

	repo := &mockUserRepo{
		findResetTokenFn: func(ctx context.Context, tokenHash string) (string, string, time.Time, *time.Time, error) {
			return "user-123", "alice@example.com", time.Now().Add(30 * time.Minute), nil, nil
		},
		updatePasswordFn: func(ctx context.Context, userID, passwordHash string) error {
			if userID != "user-123" {
				t.Errorf("expected user-123, got %s", userID)
			}
			updatedHash = passwordHash
			return nil
		},
		markResetTokenUsedFn: func(ctx context.Context, tokenHash string) error {
			tokenMarkedUsed = true
			return nil
		},
	}

	svc := newTestAuthService(t, repo, &mockMailSender{})
	if err := svc.ResetPassword(context.Background(), "valid-token", "new-secure-password"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !verifyPassword("new-secure-password", updatedHash) {
		t.Error("expected new password to verify against updated hash")
	}
	if !tokenMarkedUsed {
		t.Error("expected token to be marked as used")
	}
}

func TestResetPassword_UsedToken(t *testing.T) {
	usedAt := time.Now().Add(-5 * time.Minute)
	repo := &mockUserRepo{
		findResetTokenFn: func(ctx context.Context, tokenHash string) (string, string, time.Time, *time.Time, error) {
			return "user-123", "alice@example.com", time.Now().Add(30 * time.Minute), &usedAt, nil
		},
	}

	svc := newTestAuthService(t, repo, &mockMailSender{})
	assertAppError(t, svc.ResetPassword(context.Background(), "used-token", "new-password"), 400)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	repo := &mockUserRepo{
		findResetTokenFn: func(ctx context.Context, tokenHash string) (string, string, time.Time, *time.Time, error) {
			return "user-123", "alice@example.com", time.Now().Add(-10 * time.Minute), nil, nil
		},
	}

	svc := newTestAuthService(t, repo, &mockMailSender{})
	assertAppError(t, svc.ResetPassword(context.Background(), "expired-token", "new-password"), 400)
}

// --- Password Hashing Tests ---

func TestHashAndVerifyPassword(t *testing.T) {
	password := "my-secret-password-123"

	hash, err := hashPassword(password)
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if !verifyPassword(password, hash) {
		t.Error("expected correct password to verify")
	}
	if verifyPassword("wrong-password", hash) {
		t.Error("expected wrong password to fail verification")
	}
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	tests := []struct {
		name string
		hash string
	}{
		{"empty string", ""},
		{"random text", "not-a-hash"},
		{"too few parts", "$argon2id$v=19$m=65536"},
		{"corrupted salt", "$argon2id$v=19$m=65536,t=3,p=4$!!!invalid$aGFzaA"},
		{"corrupted hash", "$argon2id$v=19$m=65536,t=3,p=4$c2FsdA$!!!invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if verifyPassword("password", tt.hash) {
				t.Error("expected invalid hash to fail verification")
			}
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	hash1, err := hashPassword("same-password")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	hash2, err := hashPassword("same-password")
	if err != nil {
		t.Fatalf("hashPassword failed: %v", err)
	}
	if hash1 == hash2 {
		t.Error("expected different salts to produce different hashes")
	}
}

// --- Token Helper Tests ---

func TestHashToken_Deterministic(t *testing.T) {
	token := "test-token-12345"
	if hashToken(token) != hashToken(token) {
		t.Error("expected hashToken to be deterministic")
	}
}

func TestHashToken_Length(t *testing.T) {
	// SHA-256 = 32 bytes = 64 hex characters.
	if got := len(hashToken("any-token")); got != 64 {
		t.Errorf("expected 64-char hex hash, got %d chars", got)
	}
}

func TestGenerateToken_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := generateToken(sessionTokenBytes)
		if err != nil {
			t.Fatalf("generateToken failed: %v", err)
		}
		if len(token) != sessionTokenBytes*2 {
			t.Fatalf("expected %d-char token, got %d", sessionTokenBytes*2, len(token))
		}
		if seen[token] {
			t.Fatalf("token collision after %d iterations", i)
		}
		seen[token] = true
	}
}
