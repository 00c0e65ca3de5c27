package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Context keys for storing session data in Echo context. Other plugins
// use these keys (via the exported getter functions below) to access
// the authenticated user's information.
const (
	contextKeySession = "auth_session"
	contextKeyUserID  = "auth_user_id"
)

// RequireAuth returns middleware that resolves the session cookie and
// injects session data into the request context. Unauthenticated requests
// get a 401 JSON body carrying the requested path so the client can return
// the user there after sign-in.
func RequireAuth(sessions SessionManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := getSessionToken(c)
			if token == "" {
				return handleUnauthenticated(c)
			}

			session, err := sessions.GetSession(c.Request().Context(), token)
			if err != nil {
				// Invalid or expired session -- clear the stale cookie.
				clearSessionCookie(c)
				return handleUnauthenticated(c)
			}

			// Store session data in context for downstream handlers.
			c.Set(contextKeySession, session)
			c.Set(contextKeyUserID, session.UserID)

			return next(c)
		}
	}
}

// RequireAdmin returns middleware that rejects non-admin users. Must be
// applied after RequireAuth. The admin flag is read from the user record at
// check time, not from the session snapshot, so revoking admin rights takes
// effect immediately. Fails closed: no session or a failed lookup means no
// access.
func RequireAdmin(users UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			session := GetSession(c)
			if session == nil {
				return forbidAdmin(c)
			}
			user, err := users.FindByID(c.Request().Context(), session.UserID)
			if err != nil || !user.IsAdmin {
				return forbidAdmin(c)
			}
			return next(c)
		}
	}
}

func forbidAdmin(c echo.Context) error {
	return c.JSON(http.StatusForbidden, map[string]string{
		"error":   "forbidden",
		"message": "administrator access required",
	})
}

// handleUnauthenticated returns the 401 response for unauthenticated
// requests. The requested path is echoed back so the client can redirect
// to sign-in and come back afterwards.
func handleUnauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{
		"error":   "unauthorized",
		"message": "authentication required",
		"path":    c.Request().URL.Path,
	})
}

// --- Exported getters for other plugins ---

// GetSession retrieves the authenticated session from the Echo context.
// Returns nil if the request is not authenticated (middleware not applied).
func GetSession(c echo.Context) *Session {
	session, ok := c.Get(contextKeySession).(*Session)
	if !ok {
		return nil
	}
	return session
}

// GetUserID retrieves the authenticated user's ID from the Echo context.
// Returns empty string if the request is not authenticated.
func GetUserID(c echo.Context) string {
	id, ok := c.Get(contextKeyUserID).(string)
	if !ok {
		return ""
	}
	return id
}
