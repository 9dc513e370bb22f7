package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom/inventory-api/internal/api/metrics"
	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

const confirmationTokenTTL = 24 * time.Hour

// UserService implements registration, login, email confirmation, and user
// administration.
type UserService struct {
	repo    ports.UserRepository
	tokens  *TokenIssuer
	mailer  ports.Mailer
	baseURL string
	log     zerolog.Logger
}

func NewUserService(repo ports.UserRepository, tokens *TokenIssuer, mailer ports.Mailer, baseURL string, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, tokens: tokens, mailer: mailer, baseURL: baseURL, log: log}
}

// Register creates an unconfirmed account and dispatches a confirmation mail.
// Only admins may assign a role other than Viewer; an empty requesterRole
// marks a self-service registration.
func (s *UserService) Register(ctx context.Context, in ports.RegisterInput, requesterRole domain.Role) (*domain.User, error) {
	if in.Email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	requested := domain.RoleViewer
	if in.Role != "" {
		parsed, err := domain.ParseRole(in.Role)
		if err != nil {
			return nil, err
		}
		requested = parsed
	}
	if requested != domain.RoleViewer && requesterRole != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: only admins can assign roles other than %s", domain.ErrNotAllowed, domain.RoleViewer)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	token, err := GenerateOpaqueToken()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Email:             in.Email,
		PasswordHash:      string(hash),
		Role:              requested,
		EmailConfirmed:    false,
		ConfirmationToken: &token,
		TokenCreatedAt:    &now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	metrics.RegistrationsTotal.WithLabelValues(string(requested)).Inc()
	s.log.Info().Str("email", created.Email).Str("role", string(requested)).Msg("user registered")

	// Fire-and-forget: the mailer enqueues for background delivery, and a
	// failure never rolls back the registration.
	link := fmt.Sprintf("%s/auth/confirm-email?token=%s", s.baseURL, token)
	body := fmt.Sprintf("Please follow %s to confirm your email address. This link is valid for 24 hours.", link)
	if err := s.mailer.Send(ctx, created.Email, "Confirm your email", body); err != nil {
		s.log.Warn().Err(err).Str("email", created.Email).Msg("confirmation mail not dispatched")
	}

	return created, nil
}

// Login verifies credentials and returns a signed access token. Unknown email
// and wrong password produce the same error so accounts cannot be enumerated.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	if email == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.LoginsTotal.WithLabelValues("failure").Inc()
			return "", domain.ErrInvalidCredentials
		}
		return "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	return token, nil
}

// ConfirmEmail validates a confirmation token and marks the account
// confirmed, clearing the token fields in one persisted update.
func (s *UserService) ConfirmEmail(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrInvalidToken
	}

	user, err := s.repo.GetByConfirmationToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return domain.ErrInvalidToken
		}
		return err
	}
	if user.EmailConfirmed || user.TokenCreatedAt == nil {
		return domain.ErrInvalidToken
	}
	if time.Now().UTC().After(user.TokenCreatedAt.Add(confirmationTokenTTL)) {
		return domain.ErrTokenExpired
	}

	if err := s.repo.ConfirmEmail(ctx, user.ID); err != nil {
		return err
	}

	s.log.Info().Str("email", user.Email).Msg("email confirmed")
	return nil
}

// UpdateUserRole changes the role of the user with the given email.
// Admin-only; the new role string is validated before it is stored.
func (s *UserService) UpdateUserRole(ctx context.Context, targetEmail, newRole string, requesterRole domain.Role) error {
	if requesterRole != domain.RoleAdmin {
		return fmt.Errorf("%w: only admins can update roles", domain.ErrNotAllowed)
	}

	role, err := domain.ParseRole(newRole)
	if err != nil {
		return err
	}

	user, err := s.repo.GetByEmail(ctx, targetEmail)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateRole(ctx, user.ID, role); err != nil {
		return err
	}

	s.log.Info().Str("email", targetEmail).Str("role", string(role)).Msg("user role updated")
	return nil
}

// UpdateUser rewrites a user's profile fields. Admin-only. An empty Role in
// the input keeps the current role.
func (s *UserService) UpdateUser(ctx context.Context, id uuid.UUID, in ports.UpdateUserInput, requesterRole domain.Role) error {
	if requesterRole != domain.RoleAdmin {
		return fmt.Errorf("%w: only admins can update users", domain.ErrNotAllowed)
	}
	if in.Email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if in.Role != "" {
		role, err := domain.ParseRole(in.Role)
		if err != nil {
			return err
		}
		user.Role = role
	}
	user.FirstName = in.FirstName
	user.LastName = in.LastName
	user.Email = in.Email
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, user); err != nil {
		return err
	}

	s.log.Info().Str("user_id", id.String()).Msg("user updated")
	return nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context, page, pageSize int) ([]*domain.User, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return s.repo.List(ctx, page, pageSize)
}

func (s *UserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}
