package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// UserRepository defines the interface for credential-store persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByConfirmationToken(ctx context.Context, token string) (*domain.User, error)
	List(ctx context.Context, page, pageSize int) ([]*domain.User, error)
	// Update persists the mutable profile fields of an existing user.
	Update(ctx context.Context, user *domain.User) error
	// ConfirmEmail sets the confirmed flag and clears both token fields in a
	// single persisted update.
	ConfirmEmail(ctx context.Context, id uuid.UUID) error
	UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error
	Delete(ctx context.Context, id uuid.UUID) error
}
