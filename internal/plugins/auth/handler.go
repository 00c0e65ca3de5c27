package auth

import (
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/finaccosolutions/portal/internal/apperror"
)

// sessionCookieName is the HTTP cookie used to store the session token.
const sessionCookieName = "finacco_session"

// oauthStateCookieName carries the anti-forgery state across the Google
// OAuth round trip.
const oauthStateCookieName = "finacco_oauth_state"

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Handler handles HTTP requests for authentication and session state.
// Handlers are thin: they bind the request, call the service, and render the
// response. No business logic lives here.
type Handler struct {
	service AuthService
	oauth   *OAuthProvider
}

// NewHandler creates a new auth handler with the given service.
func NewHandler(service AuthService, oauth *OAuthProvider) *Handler {
	return &Handler{service: service, oauth: oauth}
}

// Register creates a new account (POST /api/auth/register).
func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	if fields := validateRegisterRequest(&req); len(fields) > 0 {
		return apperror.NewValidation("please correct the highlighted fields", fields)
	}

	user, err := h.service.Register(c.Request().Context(), RegisterInput{
		Email:       req.Email,
		DisplayName: req.FullName,
		Phone:       req.Phone,
		Password:    req.Password,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"id":                user.ID,
		"email":             user.Email,
		"confirmation_sent": !user.EmailConfirmed,
	})
}

// ConfirmEmail handles the link from the confirmation email
// (GET /auth/callback?code=...). Browsers land here, so the response is a
// redirect back into the app rather than JSON.
func (h *Handler) ConfirmEmail(c echo.Context) error {
	code := c.QueryParam("code")
	if code == "" {
		return c.Redirect(http.StatusSeeOther, "/auth?error=invalid_link")
	}
	if err := h.service.ConfirmEmail(c.Request().Context(), code); err != nil {
		return c.Redirect(http.StatusSeeOther, "/auth?error=invalid_link")
	}
	return c.Redirect(http.StatusSeeOther, "/auth?confirmed=1")
}

// Login authenticates with email and password (POST /api/auth/login).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if req.Email == "" || req.Password == "" {
		return apperror.NewBadRequest("email and password are required")
	}

	token, session, err := h.service.Login(c.Request().Context(), LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	setSessionCookie(c, token)
	return c.JSON(http.StatusOK, session)
}

// Logout destroys the session and clears the cookie (POST /api/auth/logout).
func (h *Handler) Logout(c echo.Context) error {
	token := getSessionToken(c)
	if token != "" {
		// Destroy the session in Redis. Ignore errors -- the cookie
		// will be cleared regardless.
		_ = h.service.ClearSession(c.Request().Context(), token)
	}
	clearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// --- Password reset ---

// RequestPasswordReset emails a reset link (POST /api/auth/password-reset).
// Always answers 202 to avoid leaking whether the email exists.
func (h *Handler) RequestPasswordReset(c echo.Context) error {
	var req ResetRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	if !emailRe.MatchString(req.Email) {
		return apperror.NewValidation("please correct the highlighted fields",
			map[string]string{"email": "enter a valid email address"})
	}

	if err := h.service.RequestPasswordReset(c.Request().Context(), req.Email); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, map[string]string{
		"message": "if an account exists for this email, a reset link has been sent",
	})
}

// ConfirmPasswordReset applies the new password
// (POST /api/auth/password-reset/confirm).
func (h *Handler) ConfirmPasswordReset(c echo.Context) error {
	var req ResetConfirmRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	fields := map[string]string{}
	if req.Token == "" {
		fields["token"] = "reset token is required"
	}
	if len(req.Password) < 6 {
		fields["password"] = "password must be at least 6 characters"
	}
	if req.Password != req.ConfirmPassword {
		fields["confirm_password"] = "passwords do not match"
	}
	if len(fields) > 0 {
		return apperror.NewValidation("please correct the highlighted fields", fields)
	}

	if err := h.service.ResetPassword(c.Request().Context(), req.Token, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{
		"message": "your password has been reset, you can now sign in",
	})
}

// --- Session endpoints ---

// CurrentSession reports the session for the cookie (GET /api/session).
func (h *Handler) CurrentSession(c echo.Context) error {
	session, err := h.service.GetSession(c.Request().Context(), getSessionToken(c))
	if err != nil {
		clearSessionCookie(c)
		return handleUnauthenticated(c)
	}
	return c.JSON(http.StatusOK, session)
}

// RefreshSession re-issues the session with a later expiry
// (POST /api/session/refresh). Clients call this when a tab regains
// visibility.
func (h *Handler) RefreshSession(c echo.Context) error {
	session, err := h.service.Refresh(c.Request().Context(), getSessionToken(c))
	if err != nil {
		clearSessionCookie(c)
		return handleUnauthenticated(c)
	}
	return c.JSON(http.StatusOK, session)
}

// SessionEvents streams auth-state events over SSE (GET /api/session/events).
// Every open tab subscribes here, so a sign-out anywhere reaches all of them.
func (h *Handler) SessionEvents(c echo.Context) error {
	session := GetSession(c)
	if session == nil {
		return handleUnauthenticated(c)
	}

	ctx := c.Request().Context()
	events, err := h.service.Subscribe(ctx, session.UserID)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("subscribing to auth events: %w", err))
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	// Heartbeat comments keep proxies from closing an idle stream.
	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-heartbeat.C:
			if _, err := fmt.Fprint(resp, ": ping\n\n"); err != nil {
				return nil
			}
			resp.Flush()
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if _, err := fmt.Fprintf(resp, "event: %s\ndata: {\"type\":%q,\"at\":%q}\n\n",
				event.Type, event.Type, event.At.Format(time.RFC3339)); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}

// --- Google OAuth ---

// GoogleLogin starts the Google sign-in flow (GET /auth/google).
func (h *Handler) GoogleLogin(c echo.Context) error {
	if h.oauth == nil || !h.oauth.Enabled() {
		return apperror.NewBadRequest("google sign-in is not configured")
	}

	state, err := generateToken(16)
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("generating oauth state: %w", err))
	}
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookieName,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})

	return c.Redirect(http.StatusSeeOther, h.oauth.AuthURL(state))
}

// GoogleCallback finishes the Google sign-in flow (GET /auth/google/callback).
func (h *Handler) GoogleCallback(c echo.Context) error {
	if h.oauth == nil || !h.oauth.Enabled() {
		return apperror.NewBadRequest("google sign-in is not configured")
	}

	stateCookie, err := c.Cookie(oauthStateCookieName)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != c.QueryParam("state") {
		return c.Redirect(http.StatusSeeOther, "/auth?error=oauth_state")
	}
	// The state cookie is single-use.
	c.SetCookie(&http.Cookie{Name: oauthStateCookieName, Value: "", Path: "/", HttpOnly: true, MaxAge: -1})

	code := c.QueryParam("code")
	if code == "" {
		return c.Redirect(http.StatusSeeOther, "/auth?error=oauth_denied")
	}

	profile, err := h.oauth.Exchange(c.Request().Context(), code)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/auth?error=oauth_failed")
	}

	token, _, err := h.service.LoginOAuth(c.Request().Context(), profile.Email, profile.Name)
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/auth?error=oauth_failed")
	}

	setSessionCookie(c, token)
	return c.Redirect(http.StatusSeeOther, "/")
}

// --- Cookie helpers ---

// getSessionToken reads the session token from the cookie.
func getSessionToken(c echo.Context) string {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	return cookie.Value
}

// setSessionCookie sets the session cookie on the response. The cookie is
// HttpOnly (JS can't read it), Secure if behind TLS, and SameSite=Lax.
func setSessionCookie(c echo.Context, token string) {
	req := c.Request()
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   req.TLS != nil || req.Header.Get("X-Forwarded-Proto") == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   30 * 24 * 60 * 60, // 30 days in seconds
	})
}

// clearSessionCookie removes the session cookie by setting MaxAge to -1.
func clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// --- Validation helpers ---

// validateRegisterRequest performs server-side validation on the
// registration payload. Returns per-field messages, empty when valid.
func validateRegisterRequest(req *RegisterRequest) map[string]string {
	fields := map[string]string{}
	if !emailRe.MatchString(req.Email) {
		fields["email"] = "enter a valid email address"
	}
	if req.FullName == "" {
		fields["full_name"] = "full name is required"
	}
	if len(req.Password) < 6 {
		fields["password"] = "password must be at least 6 characters"
	}
	if len(req.Password) > 128 {
		fields["password"] = "password must be at most 128 characters"
	}
	if req.Password != req.ConfirmPassword {
		fields["confirm_password"] = "passwords do not match"
	}
	return fields
}
