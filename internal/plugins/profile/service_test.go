package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/finaccosolutions/portal/internal/apperror"
	"github.com/finaccosolutions/portal/internal/plugins/auth"
)

// mockProfileRepo implements ProfileRepository for testing.
type mockProfileRepo struct {
	findByIDFn func(ctx context.Context, id string) (*Profile, error)
	createFn   func(ctx context.Context, p *Profile) error
	updateFn   func(ctx context.Context, id, fullName, phone string) (*Profile, error)
}

func (m *mockProfileRepo) FindByID(ctx context.Context, id string) (*Profile, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("profile not found")
}

func (m *mockProfileRepo) Create(ctx context.Context, p *Profile) error {
	if m.createFn != nil {
		return m.createFn(ctx, p)
	}
	return nil
}

func (m *mockProfileRepo) Update(ctx context.Context, id, fullName, phone string) (*Profile, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, fullName, phone)
	}
	return nil, apperror.NewNotFound("profile not found")
}

func testSession() *auth.Session {
	return &auth.Session{
		UserID:    "user-123",
		Email:     "alice@example.com",
		Name:      "Alice",
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestGet_ExistingProfile(t *testing.T) {
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, id string) (*Profile, error) {
			return &Profile{ID: id, Email: "alice@example.com", FullName: "Alice"}, nil
		},
		createFn: func(ctx context.Context, p *Profile) error {
			t.Error("should not create when the profile exists")
			return nil
		},
	}

	svc := NewService(repo)
	p, err := svc.Get(context.Background(), testSession())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.FullName != "Alice" {
		t.Errorf("expected Alice, got %s", p.FullName)
	}
}

func TestGet_LazyCreate(t *testing.T) {
	var created *Profile
	calls := 0
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, id string) (*Profile, error) {
			calls++
			if created != nil {
				return created, nil
			}
			return nil, apperror.NewNotFound("profile not found")
		},
		createFn: func(ctx context.Context, p *Profile) error {
			created = p
			return nil
		},
	}

	svc := NewService(repo)
	p, err := svc.Get(context.Background(), testSession())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected profile to be created on first access")
	}
	if p.ID != "user-123" || p.Email != "alice@example.com" || p.FullName != "Alice" {
		t.Errorf("expected profile seeded from session, got %+v", p)
	}
	if p.IsAdmin {
		t.Error("expected non-admin profile for non-admin session")
	}
	if calls < 2 {
		t.Errorf("expected re-read after create, got %d find calls", calls)
	}
}

func TestGet_InsertRaceFallsBackToRead(t *testing.T) {
	raced := &Profile{ID: "user-123", Email: "alice@example.com", FullName: "Alice"}
	first := true
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, id string) (*Profile, error) {
			if first {
				first = false
				return nil, apperror.NewNotFound("profile not found")
			}
			return raced, nil
		},
		createFn: func(ctx context.Context, p *Profile) error {
			return errors.New("duplicate key")
		},
	}

	svc := NewService(repo)
	p, err := svc.Get(context.Background(), testSession())
	if err != nil {
		t.Fatalf("expected race to resolve via re-read, got %v", err)
	}
	if p != raced {
		t.Error("expected the concurrently-created profile")
	}
}

func TestUpdate_Success(t *testing.T) {
	existing := &Profile{ID: "user-123", Email: "alice@example.com", FullName: "Alice"}
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, id string) (*Profile, error) {
			return existing, nil
		},
		updateFn: func(ctx context.Context, id, fullName, phone string) (*Profile, error) {
			if fullName != "Alice B" {
				t.Errorf("expected trimmed name, got %q", fullName)
			}
			if phone != "+91 9000000000" {
				t.Errorf("unexpected phone %q", phone)
			}
			return &Profile{ID: id, FullName: fullName, Phone: phone}, nil
		},
	}

	svc := NewService(repo)
	p, err := svc.Update(context.Background(), testSession(), UpdateRequest{
		FullName: "  Alice B  ",
		Phone:    "+91 9000000000",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.FullName != "Alice B" {
		t.Errorf("expected updated name, got %s", p.FullName)
	}
}

func TestUpdate_EmptyName(t *testing.T) {
	svc := NewService(&mockProfileRepo{})
	_, err := svc.Update(context.Background(), testSession(), UpdateRequest{FullName: "   "})
	assertAppError(t, err, 422)
}

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
