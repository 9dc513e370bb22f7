package ports

import (
	"context"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// ProductInput carries the writable fields of a product.
type ProductInput struct {
	Name        string
	Description string
	Price       float64
	Stock       int
	CategoryID  string
	SKU         string
}

// ProductService defines the product use cases, fronted by a cache-aside
// layer on reads.
type ProductService interface {
	GetAllProducts(ctx context.Context) ([]*domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	AddProduct(ctx context.Context, in ProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id string, in ProductInput) error
	DeleteProduct(ctx context.Context, id string) error
}
