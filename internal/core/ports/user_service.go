package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// RegisterInput carries all data needed to create a new account.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
	// Role is the requested role as transmitted, validated by the service.
	// Empty means the lowest-privilege role.
	Role string
}

// UpdateUserInput carries the profile fields an admin may rewrite. An empty
// Role leaves the current role untouched.
type UpdateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Role      string
}

// UserService defines the authentication and identity use cases. The caller's
// role is passed in as a plain value; requesterRole is empty for self-service
// requests with no authenticated caller.
type UserService interface {
	Register(ctx context.Context, in RegisterInput, requesterRole domain.Role) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ConfirmEmail(ctx context.Context, token string) error
	UpdateUserRole(ctx context.Context, targetEmail, newRole string, requesterRole domain.Role) error
	UpdateUser(ctx context.Context, id uuid.UUID, in UpdateUserInput, requesterRole domain.Role) error
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListUsers(ctx context.Context, page, pageSize int) ([]*domain.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
}
