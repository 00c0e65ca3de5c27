package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func csrfTestServer() *echo.Echo {
	e := echo.New()
	e.Use(CSRF())
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	e.GET("/api/things", handler)
	e.POST("/api/things", handler)
	return e
}

func doCSRFRequest(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCSRF_MutatingAPIRequestWithoutTokenRejected(t *testing.T) {
	e := csrfTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/things", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-token"})

	rec := doCSRFRequest(e, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for cookie-authenticated POST without token, got %d", rec.Code)
	}
}

func TestCSRF_MatchingCookieAndHeaderAccepted(t *testing.T) {
	e := csrfTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/things", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-token"})
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok-123"})
	req.Header.Set(csrfHeaderName, "tok-123")

	rec := doCSRFRequest(e, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with matching token, got %d", rec.Code)
	}
}

func TestCSRF_MismatchedTokenRejected(t *testing.T) {
	e := csrfTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/things", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "tok-123"})
	req.Header.Set(csrfHeaderName, "tok-456")

	rec := doCSRFRequest(e, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected 403 for mismatched token, got %d", rec.Code)
	}
}

func TestCSRF_SafeMethodPassesAndSetsCookie(t *testing.T) {
	e := csrfTestServer()

	rec := doCSRFRequest(e, httptest.NewRequest(http.MethodGet, "/api/things", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for GET, got %d", rec.Code)
	}

	var found bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName && c.Value != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected a CSRF cookie to be issued on first request")
	}
}

func TestCSRF_BearerOnlyRequestExempt(t *testing.T) {
	e := csrfTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/things", nil)
	req.Header.Set("Authorization", "Bearer some-api-token")

	rec := doCSRFRequest(e, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected bearer-only request to bypass CSRF, got %d", rec.Code)
	}
}

func TestCSRF_BearerWithSessionCookieStillChecked(t *testing.T) {
	e := csrfTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/things", nil)
	req.Header.Set("Authorization", "Bearer some-api-token")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "sess-token"})

	rec := doCSRFRequest(e, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("expected session-cookie request to require a token, got %d", rec.Code)
	}
}

func TestCSRF_TokenRoundTrip(t *testing.T) {
	e := csrfTestServer()

	// First request gets a token, second request echoes it back.
	first := doCSRFRequest(e, httptest.NewRequest(http.MethodGet, "/api/things", nil))
	var token string
	for _, c := range first.Result().Cookies() {
		if c.Name == csrfCookieName {
			token = c.Value
		}
	}
	if token == "" || len(token) != csrfTokenLength*2 || strings.ContainsAny(token, " \n") {
		t.Fatalf("expected a hex token, got %q", token)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/things", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: token})
	req.Header.Set(csrfHeaderName, token)

	rec := doCSRFRequest(e, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected issued token to validate, got %d", rec.Code)
	}
}
