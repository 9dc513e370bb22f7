package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

// CategoryService implements category CRUD over the relational store.
type CategoryService struct {
	repo ports.CategoryRepository
	log  zerolog.Logger
}

func NewCategoryService(repo ports.CategoryRepository, log zerolog.Logger) *CategoryService {
	return &CategoryService{repo: repo, log: log}
}

func (s *CategoryService) GetAllCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.repo.GetAll(ctx)
}

func (s *CategoryService) GetCategoryByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CategoryService) AddCategory(ctx context.Context, in ports.CategoryInput) (*domain.Category, error) {
	now := time.Now().UTC()
	category := &domain.Category{
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := s.repo.Create(ctx, category)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("category_id", created.ID.String()).Str("name", created.Name).Msg("category created")
	return created, nil
}

func (s *CategoryService) UpdateCategory(ctx context.Context, id uuid.UUID, in ports.CategoryInput) error {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	existing.Name = in.Name
	existing.Description = in.Description
	existing.UpdatedAt = time.Now().UTC()
	return s.repo.Update(ctx, existing)
}

func (s *CategoryService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
