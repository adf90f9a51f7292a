package entity

import (
	"strings"
	"time"
)

// User is the identity record owned by the identity provider.
// Password holds the bcrypt hash and never leaves the provider.
type User struct {
	ID               string
	Email            string
	Password         string
	Username         string
	EmailConfirmedAt *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsConfirmed reports whether the user has confirmed their email address.
func (u *User) IsConfirmed() bool {
	return u.EmailConfirmedAt != nil
}

// DisplayName returns the explicit username, falling back to the email prefix.
func (u *User) DisplayName() string {
	if s := strings.TrimSpace(u.Username); s != "" {
		return s
	}
	return UsernameFromEmail(u.Email)
}

// UsernameFromEmail derives a display name from the local part of an email.
func UsernameFromEmail(email string) string {
	if i := strings.IndexByte(email, '@'); i > 0 {
		return email[:i]
	}
	return email
}

// Session is the bearer credential pair issued at login or signup.
type Session struct {
	AccessToken  string
	TokenType    string
	ExpiresAt    time.Time
	RefreshToken string
}

// ExpiresIn returns the remaining lifetime of the access token in whole seconds.
func (s *Session) ExpiresIn(now time.Time) int64 {
	d := s.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return int64(d.Seconds())
}
