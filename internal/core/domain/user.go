package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Role is the closed set of privilege levels. It is always produced through
// ParseRole at the boundary; a free-form string never reaches the core.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleManager Role = "Manager"
	RoleViewer  Role = "Viewer"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserExists = errors.New("user already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrNotAllowed = errors.New("operation not allowed")
var ErrInvalidRole = errors.New("invalid role")
var ErrInvalidInput = errors.New("invalid input")
var ErrInvalidToken = errors.New("invalid or already used confirmation token")
var ErrTokenExpired = errors.New("confirmation token has expired")

// ParseRole converts a transport string into a Role, failing on anything
// outside the enumerated set. It never silently defaults.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleViewer:
		return Role(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
}

// User models an account in the credential store.
//
// ConfirmationToken and TokenCreatedAt are both set while the email is
// pending confirmation and both nil afterwards, never one without the other.
type User struct {
	ID                uuid.UUID  `json:"id"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	Email             string     `json:"email"`
	PasswordHash      string     `json:"-"`
	Role              Role       `json:"role"`
	EmailConfirmed    bool       `json:"email_confirmed"`
	ConfirmationToken *string    `json:"-"`
	TokenCreatedAt    *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}
