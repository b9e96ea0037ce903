package models

import "time"

// User mirrors the identity row in a tenant's user table, inherited from the
// previous system. The password hash is one of the two legacy formats and is
// never rewritten or upgraded here.
type User struct {
	ID                string
	UserName          string
	Email             string
	PasswordHash      string
	LockoutEnabled    bool
	LockoutEnd        *time.Time // stored in UTC
	AccessFailedCount int
}

// LockedOutAt reports whether the user is under an active lockout at the
// given instant. Comparison happens in UTC.
func (u *User) LockedOutAt(now time.Time) bool {
	return u.LockoutEnabled && u.LockoutEnd != nil && u.LockoutEnd.After(now.UTC())
}

// LoginRequest is the interactive login body.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the successful login response.
type LoginResult struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
