package model

import "time"

// UserProfile is the authenticated user as returned by the profile endpoint.
type UserProfile struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`
}

// DisplayName returns "First Last", falling back to the email.
func (u UserProfile) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}

// LoginResult is returned by a successful credential exchange.
type LoginResult struct {
	UserID    int
	Token     string
	ExpiresAt time.Time // zero when the token carries no expiry
}
