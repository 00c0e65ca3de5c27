// Package auth owns user accounts and the session manager: sign-up with
// email confirmation, password and Google OAuth sign-in, password reset,
// Redis-backed sessions with refresh semantics, and the auth-state event
// stream that keeps every open tab converged on the same session state.
package auth

import "time"

// User is an account row. PasswordHash is empty for OAuth-only accounts.
type User struct {
	ID             string     `json:"id"`
	Email          string     `json:"email"`
	DisplayName    string     `json:"display_name"`
	Phone          string     `json:"phone"`
	PasswordHash   string     `json:"-"`
	IsAdmin        bool       `json:"is_admin"`
	EmailConfirmed bool       `json:"email_confirmed"`
	CreatedAt      time.Time  `json:"created_at"`
	LastLoginAt    *time.Time `json:"last_login_at,omitempty"`
}

// Session is the authenticated-identity record stored in Redis. The cookie
// token identifies both the short-lived access entry and the long-lived
// refresh entry; when the access entry lapses while the refresh entry is
// still alive, the session is re-issued with a later expiry.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	IsAdmin   bool      `json:"is_admin"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Auth-state event types broadcast to peer tabs.
const (
	EventSignedIn  = "signed_in"
	EventSignedOut = "signed_out"
	EventRefreshed = "refreshed"
)

// Event is a session transition broadcast on the per-user channel. Tabs
// listening on /session/events reload their local auth state when one
// arrives, so signing out anywhere signs out everywhere.
type Event struct {
	Type   string    `json:"type"`
	UserID string    `json:"user_id"`
	At     time.Time `json:"at"`
}

// --- Service inputs ---

// RegisterInput is the validated input for creating an account.
type RegisterInput struct {
	Email       string
	DisplayName string
	Phone       string
	Password    string
}

// LoginInput is the validated input for password sign-in.
type LoginInput struct {
	Email    string
	Password string
}

// --- HTTP request DTOs ---

// RegisterRequest is the JSON body for POST /auth/register.
type RegisterRequest struct {
	Email           string `json:"email"`
	FullName        string `json:"full_name"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// LoginRequest is the JSON body for POST /auth/login and /admin/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ResetRequest is the JSON body for POST /auth/password-reset.
type ResetRequest struct {
	Email string `json:"email"`
}

// ResetConfirmRequest is the JSON body for POST /auth/password-reset/confirm.
type ResetConfirmRequest struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}
