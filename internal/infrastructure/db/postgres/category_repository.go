package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// CategoryRepository persists categories in PostgreSQL via bun.
type CategoryRepository struct {
	db *bun.DB
}

func NewCategoryRepository(db *bun.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

type categoryRow struct {
	bun.BaseModel `bun:"table:categories,alias:c"`

	ID          uuid.UUID `bun:"id,pk,nullzero,type:uuid,default:gen_random_uuid()"`
	Name        string    `bun:"name"`
	Description string    `bun:"description"`
	CreatedAt   time.Time `bun:"created_at"`
	UpdatedAt   time.Time `bun:"updated_at"`
}

func (r *CategoryRepository) Create(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	row := &categoryRow{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		CreatedAt:   category.CreatedAt,
		UpdatedAt:   category.UpdatedAt,
	}

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}

	return toCategory(row), nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	row := new(categoryRow)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, fmt.Errorf("select category: %w", err)
	}
	return toCategory(row), nil
}

func (r *CategoryRepository) GetAll(ctx context.Context) ([]*domain.Category, error) {
	var rows []categoryRow
	err := r.db.NewSelect().
		Model(&rows).
		Order("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	categories := make([]*domain.Category, 0, len(rows))
	for i := range rows {
		categories = append(categories, toCategory(&rows[i]))
	}
	return categories, nil
}

func (r *CategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	res, err := r.db.NewUpdate().
		Model((*categoryRow)(nil)).
		Set("name = ?", category.Name).
		Set("description = ?", category.Description).
		Set("updated_at = ?", category.UpdatedAt).
		Where("id = ?", category.ID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return checkCategoryAffected(res)
}

func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*categoryRow)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return checkCategoryAffected(res)
}

func checkCategoryAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func toCategory(r *categoryRow) *domain.Category {
	return &domain.Category{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
