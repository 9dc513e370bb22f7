package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// CategoryInput carries the writable fields of a category.
type CategoryInput struct {
	Name        string
	Description string
}

type CategoryService interface {
	GetAllCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategoryByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	AddCategory(ctx context.Context, in CategoryInput) (*domain.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, in CategoryInput) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}
