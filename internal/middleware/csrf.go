package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// csrfTokenLength is the number of random bytes in a CSRF token (32 bytes = 64 hex chars).
const csrfTokenLength = 32

// csrfCookieName is the name of the cookie that stores the CSRF token.
const csrfCookieName = "finacco_csrf"

// csrfHeaderName is the header the SPA sends the CSRF token in.
const csrfHeaderName = "X-CSRF-Token"

// sessionCookieName must match the session cookie the auth plugin sets.
// A request carrying it is cookie-authenticated and needs CSRF protection.
const sessionCookieName = "finacco_session"

// CSRF returns middleware that implements the double-submit cookie pattern
// for CSRF protection on all state-changing requests (POST, PUT, PATCH, DELETE).
//
// How it works:
//  1. On every request, if no CSRF cookie exists, generate one and set it.
//  2. On mutating requests, compare the cookie value with the X-CSRF-Token
//     header.
//  3. If they don't match, reject with 403 Forbidden.
//
// The SPA reads the cookie and sends its value back in the X-CSRF-Token
// header on every mutating fetch call. Requests authenticated purely by an
// Authorization bearer token, with no session cookie attached, are exempt:
// a browser cannot be tricked into attaching such a header cross-site.
func CSRF() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			if bearerOnly(req) {
				return next(c)
			}

			// Ensure a CSRF token cookie exists.
			cookie, err := req.Cookie(csrfCookieName)
			if err != nil || cookie.Value == "" {
				// Generate a new CSRF token and set it as a cookie.
				token, genErr := generateCSRFToken()
				if genErr != nil {
					return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate CSRF token")
				}

				c.SetCookie(&http.Cookie{
					Name:     csrfCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: false, // Must be readable by JS so the SPA can echo it.
					Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
					SameSite: http.SameSiteLaxMode,
				})

				c.Set("csrf_token", token)
			} else {
				c.Set("csrf_token", cookie.Value)
			}

			// Skip validation for safe (non-mutating) HTTP methods.
			if isSafeMethod(req.Method) {
				return next(c)
			}

			// Validate CSRF token on mutating requests.
			cookieToken := ""
			if cookie != nil {
				cookieToken = cookie.Value
			} else {
				// We just set the cookie above, use the generated value.
				if ct, ok := c.Get("csrf_token").(string); ok {
					cookieToken = ct
				}
			}

			submittedToken := req.Header.Get(csrfHeaderName)

			// Use constant-time comparison to prevent timing side-channel attacks
			// that could allow an attacker to deduce the token byte-by-byte.
			if submittedToken == "" || subtle.ConstantTimeCompare([]byte(submittedToken), []byte(cookieToken)) != 1 {
				return echo.NewHTTPError(http.StatusForbidden, "invalid or missing CSRF token")
			}

			return next(c)
		}
	}
}

// bearerOnly reports whether the request authenticates with an Authorization
// bearer token and carries no session cookie.
func bearerOnly(req *http.Request) bool {
	if !strings.HasPrefix(req.Header.Get("Authorization"), "Bearer ") {
		return false
	}
	_, err := req.Cookie(sessionCookieName)
	return err != nil
}

// isSafeMethod returns true for HTTP methods that should not change state.
func isSafeMethod(method string) bool {
	return method == http.MethodGet ||
		method == http.MethodHead ||
		method == http.MethodOptions
}

// generateCSRFToken generates a cryptographically random hex-encoded token.
func generateCSRFToken() (string, error) {
	b := make([]byte, csrfTokenLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GetCSRFToken retrieves the CSRF token stored on the Echo context so a
// handler can return it to the client in a JSON payload.
func GetCSRFToken(c echo.Context) string {
	if token, ok := c.Get("csrf_token").(string); ok {
		return token
	}
	return ""
}
