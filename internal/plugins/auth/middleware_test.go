package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

// adminCheck runs the RequireAdmin middleware against a request whose
// session (if any) is already resolved, the way RequireAuth leaves it.
func adminCheck(t *testing.T, repo UserRepository, session *Session) int {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/admin/templates", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if session != nil {
		c.Set(contextKeySession, session)
		c.Set(contextKeyUserID, session.UserID)
	}

	handler := RequireAdmin(repo)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		t.Fatalf("unexpected error from middleware: %v", err)
	}
	return rec.Code
}

func TestRequireAdmin_AllowsAdminUser(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return &User{ID: id, IsAdmin: true}, nil
		},
	}

	code := adminCheck(t, repo, &Session{UserID: "user-1", IsAdmin: true})
	if code != http.StatusOK {
		t.Errorf("expected 200 for admin user, got %d", code)
	}
}

func TestRequireAdmin_ChecksUserRecordNotSessionSnapshot(t *testing.T) {
	// The session was issued while the user was an admin, but the flag has
	// since been revoked. The fresh lookup must win.
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return &User{ID: id, IsAdmin: false}, nil
		},
	}

	code := adminCheck(t, repo, &Session{UserID: "user-1", IsAdmin: true})
	if code != http.StatusForbidden {
		t.Errorf("expected 403 after admin revocation, got %d", code)
	}
}

func TestRequireAdmin_LookupFailureFailsClosed(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			return nil, errors.New("connection refused")
		},
	}

	code := adminCheck(t, repo, &Session{UserID: "user-1", IsAdmin: true})
	if code != http.StatusForbidden {
		t.Errorf("expected 403 when the user lookup fails, got %d", code)
	}
}

func TestRequireAdmin_NoSessionRejected(t *testing.T) {
	repo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*User, error) {
			t.Fatal("lookup must not run without a session")
			return nil, nil
		},
	}

	code := adminCheck(t, repo, nil)
	if code != http.StatusForbidden {
		t.Errorf("expected 403 without a session, got %d", code)
	}
}
