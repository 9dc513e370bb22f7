package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/stockroom/inventory-api/internal/core/domain"
)

// UserRepository persists users in PostgreSQL via bun.
//
// The users table carries a unique index on email and a partial unique index
// on confirmation_token.
type UserRepository struct {
	db *bun.DB
}

func NewUserRepository(db *bun.DB) *UserRepository {
	return &UserRepository{db: db}
}

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid,default:gen_random_uuid()"`
	FirstName         string     `bun:"first_name"`
	LastName          string     `bun:"last_name"`
	Email             string     `bun:"email,unique"`
	PasswordHash      string     `bun:"password_hash"`
	Role              string     `bun:"role"`
	EmailConfirmed    bool       `bun:"email_confirmed"`
	ConfirmationToken *string    `bun:"confirmation_token"`
	TokenCreatedAt    *time.Time `bun:"token_created_at"`
	CreatedAt         time.Time  `bun:"created_at"`
	UpdatedAt         time.Time  `bun:"updated_at"`
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	row := toRow(user)

	_, err := r.db.NewInsert().
		Model(row).
		Returning("*").
		Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return toUser(row), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row := new(userRow)
	err := r.db.NewSelect().
		Model(row).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user by id: %w", err)
	}
	return toUser(row), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := new(userRow)
	err := r.db.NewSelect().
		Model(row).
		Where("email = ?", email).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user by email: %w", err)
	}
	return toUser(row), nil
}

func (r *UserRepository) GetByConfirmationToken(ctx context.Context, token string) (*domain.User, error) {
	row := new(userRow)
	err := r.db.NewSelect().
		Model(row).
		Where("confirmation_token = ?", token).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user by confirmation token: %w", err)
	}
	return toUser(row), nil
}

func (r *UserRepository) List(ctx context.Context, page, pageSize int) ([]*domain.User, error) {
	var rows []userRow
	err := r.db.NewSelect().
		Model(&rows).
		Order("created_at ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]*domain.User, 0, len(rows))
	for i := range rows {
		users = append(users, toUser(&rows[i]))
	}
	return users, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	res, err := r.db.NewUpdate().
		Model((*userRow)(nil)).
		Set("first_name = ?", user.FirstName).
		Set("last_name = ?", user.LastName).
		Set("email = ?", user.Email).
		Set("role = ?", string(user.Role)).
		Set("updated_at = ?", user.UpdatedAt).
		Where("id = ?", user.ID).
		Exec(ctx)
	if err != nil {
		if strings.Contains(err.Error(), "duplicate key value violates unique constraint") {
			return domain.ErrUserExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	return checkAffected(res)
}

// ConfirmEmail flips the confirmed flag and clears both token fields in a
// single statement.
func (r *UserRepository) ConfirmEmail(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewUpdate().
		Model((*userRow)(nil)).
		Set("email_confirmed = ?", true).
		Set("confirmation_token = NULL").
		Set("token_created_at = NULL").
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}
	return checkAffected(res)
}

func (r *UserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role domain.Role) error {
	res, err := r.db.NewUpdate().
		Model((*userRow)(nil)).
		Set("role = ?", string(role)).
		Set("updated_at = NOW()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update role: %w", err)
	}
	return checkAffected(res)
}

func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*userRow)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return checkAffected(res)
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func toRow(u *domain.User) *userRow {
	return &userRow{
		ID:                u.ID,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		Email:             u.Email,
		PasswordHash:      u.PasswordHash,
		Role:              string(u.Role),
		EmailConfirmed:    u.EmailConfirmed,
		ConfirmationToken: u.ConfirmationToken,
		TokenCreatedAt:    u.TokenCreatedAt,
		CreatedAt:         u.CreatedAt,
		UpdatedAt:         u.UpdatedAt,
	}
}

func toUser(r *userRow) *domain.User {
	return &domain.User{
		ID:                r.ID,
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Email:             r.Email,
		PasswordHash:      r.PasswordHash,
		Role:              domain.Role(r.Role),
		EmailConfirmed:    r.EmailConfirmed,
		ConfirmationToken: r.ConfirmationToken,
		TokenCreatedAt:    r.TokenCreatedAt,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}
