// Package profile manages the account page: a per-user profile row that is
// created lazily the first time the account is viewed and can be updated by
// its owner. The admin flag is read-only through this plugin.
package profile

import "time"

// Profile is a user's account page data. The row shares its primary key with
// the user it belongs to.
type Profile struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Phone     string    `json:"phone"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UpdateRequest is the JSON payload for profile updates. The admin flag is
// deliberately absent: it can only change through database administration.
type UpdateRequest struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}
