package domain

import (
	"regexp"
	"time"
	"unicode/utf8"
)

const (
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// PasswordLongEnough counts characters, not bytes.
func PasswordLongEnough(p string) bool {
	return utf8.RuneCountInString(p) >= MinPasswordLength
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// User models an authenticated actor in the system.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// ValidEmail reports whether s has the local@domain.tld shape.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleInstructor || role == RoleAdmin
}

// Principal is the identity proven by a verified access token.
type Principal struct {
	UserID    int64
	Email     string
	Role      string
	SessionID string
	ExpiresAt time.Time
}
