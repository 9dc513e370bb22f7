package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/stockroom/inventory-api/internal/core/domain"
	"github.com/stockroom/inventory-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	byEmail map[string]*domain.User
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byEmail: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	if _, exists := r.byEmail[user.Email]; exists {
		return nil, domain.ErrUserExists
	}
	copy := cloneUser(user)
	if copy.ID == uuid.Nil {
		copy.ID = uuid.New()
	}
	r.byEmail[copy.Email] = cloneUser(copy)
	return cloneUser(copy), nil
}

func (r *stubUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ID == id {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	u, ok := r.byEmail[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) GetByConfirmationToken(_ context.Context, token string) (*domain.User, error) {
	for _, u := range r.byEmail {
		if u.ConfirmationToken != nil && *u.ConfirmationToken == token {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context, page, pageSize int) ([]*domain.User, error) {
	users := make([]*domain.User, 0, len(r.byEmail))
	for _, u := range r.byEmail {
		users = append(users, cloneUser(u))
	}
	return users, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	for email, u := range r.byEmail {
		if u.ID == user.ID {
			if other, exists := r.byEmail[user.Email]; exists && other.ID != user.ID {
				return domain.ErrUserExists
			}
			delete(r.byEmail, email)
			r.byEmail[user.Email] = cloneUser(user)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *stubUserRepo) ConfirmEmail(_ context.Context, id uuid.UUID) error {
	for _, u := range r.byEmail {
		if u.ID == id {
			u.EmailConfirmed = true
			u.ConfirmationToken = nil
			u.TokenCreatedAt = nil
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdateRole(_ context.Context, id uuid.UUID, role domain.Role) error {
	for _, u := range r.byEmail {
		if u.ID == id {
			u.Role = role
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *stubUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	for email, u := range r.byEmail {
		if u.ID == id {
			delete(r.byEmail, email)
			return nil
		}
	}
	return domain.ErrUserNotFound
}

type recordingMailer struct {
	to      []string
	bodies  []string
	sendErr error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.to = append(m.to, to)
	m.bodies = append(m.bodies, body)
	return nil
}

func newUserService(repo *stubUserRepo, mailer *recordingMailer) *UserService {
	return NewUserService(repo, NewTokenIssuer("secret"), mailer, "http://localhost:8080", zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestUserService_Register_SelfServiceViewer(t *testing.T) {
	repo := newStubUserRepo()
	mailer := &recordingMailer{}
	svc := newUserService(repo, mailer)

	user, err := svc.Register(context.Background(), ports.RegisterInput{
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     "a@x.com",
		Password:  "s3cretpass",
	}, "")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != domain.RoleViewer {
		t.Fatalf("expected Viewer role, got %s", user.Role)
	}
	if user.EmailConfirmed {
		t.Fatalf("new user must be unconfirmed")
	}
	if user.PasswordHash == "s3cretpass" {
		t.Fatalf("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("s3cretpass")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if user.ConfirmationToken == nil || user.TokenCreatedAt == nil {
		t.Fatalf("confirmation token and creation time must both be set")
	}
	if len(mailer.to) != 1 || mailer.to[0] != "a@x.com" {
		t.Fatalf("expected one confirmation mail to a@x.com, got %v", mailer.to)
	}
	if !strings.Contains(mailer.bodies[0], *user.ConfirmationToken) {
		t.Fatalf("confirmation mail does not embed the token")
	}
}

func TestUserService_Register_ElevatedRoleRequiresAdmin(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo, &recordingMailer{})

	cases := []domain.Role{"", domain.RoleManager, domain.RoleViewer}
	for _, requester := range cases {
		_, err := svc.Register(context.Background(), ports.RegisterInput{
			Email:    "m@x.com",
			Password: "s3cretpass",
			Role:     "Manager",
		}, requester)
		if !errors.Is(err, domain.ErrNotAllowed) {
			t.Fatalf("requester %q: expected ErrNotAllowed, got %v", requester, err)
		}
	}
	if len(repo.byEmail) != 0 {
		t.Fatalf("no user may be persisted on a rejected registration")
	}
}

func TestUserService_Register_AdminAssignsManager(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo, &recordingMailer{})

	user, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    "m@x.com",
		Password: "s3cretpass",
		Role:     "Manager",
	}, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Role != domain.RoleManager {
		t.Fatalf("expected Manager role, got %s", user.Role)
	}
}

func TestUserService_Register_MissingFields(t *testing.T) {
	svc := newUserService(newStubUserRepo(), &recordingMailer{})

	if _, err := svc.Register(context.Background(), ports.RegisterInput{Password: "pass"}, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty email, got %v", err)
	}
	if _, err := svc.Register(context.Background(), ports.RegisterInput{Email: "a@x.com"}, ""); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty password, got %v", err)
	}
}

func TestUserService_Register_InvalidRoleString(t *testing.T) {
	svc := newUserService(newStubUserRepo(), &recordingMailer{})

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    "a@x.com",
		Password: "s3cretpass",
		Role:     "Root",
	}, domain.RoleAdmin)
	if !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestUserService_Register_MailFailureDoesNotRollBack(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo, &recordingMailer{sendErr: errors.New("smtp down")})

	if _, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    "a@x.com",
		Password: "s3cretpass",
	}, ""); err != nil {
		t.Fatalf("registration must survive a mail failure, got %v", err)
	}
	if _, ok := repo.byEmail["a@x.com"]; !ok {
		t.Fatalf("user not persisted")
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestUserService_Login_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo, &recordingMailer{})

	created, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    "carol@x.com",
		Password: "s3cretpass",
	}, "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, err := svc.Login(context.Background(), "carol@x.com", "s3cretpass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token invalid: %v", err)
	}
	if claims["sub"] != created.ID.String() {
		t.Fatalf("expected subject %s, got %v", created.ID, claims["sub"])
	}
	if claims["role"] != string(domain.RoleViewer) {
		t.Fatalf("expected role claim %s, got %v", domain.RoleViewer, claims["role"])
	}
	exp, ok := claims["exp"].(float64)
	if !ok || time.Unix(int64(exp), 0).After(time.Now().Add(2*time.Hour+time.Minute)) {
		t.Fatalf("expiry outside the fixed 2h window: %v", claims["exp"])
	}
}

func TestUserService_Login_UniformFailure(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo, &recordingMailer{})

	if _, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    "dave@x.com",
		Password: "goodpass1",
	}, ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, wrongPass := svc.Login(context.Background(), "dave@x.com", "badpass")
	_, unknownUser := svc.Login(context.Background(), "ghost@x.com", "whatever")

	if !errors.Is(wrongPass, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPass)
	}
	if !errors.Is(unknownUser, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", unknownUser)
	}
	// The two failures must be indistinguishable to the caller.
	if wrongPass.Error() != unknownUser.Error() {
		t.Fatalf("login failures leak which part failed: %q vs %q", wrongPass, unknownUser)
	}
}

// ---------------------------------------------------------------------------
// ConfirmEmail
// ---------------------------------------------------------------------------

func TestUserService_ConfirmEmail_Success(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo, &recordingMailer{})

	user, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    "eve@x.com",
		Password: "s3cretpass",
	}, "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	token := *user.ConfirmationToken

	if err := svc.ConfirmEmail(context.Background(), token); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}

	stored := repo.byEmail["eve@x.com"]
	if !stored.EmailConfirmed {
		t.Fatalf("user not marked confirmed")
	}
	if stored.ConfirmationToken != nil || stored.TokenCreatedAt != nil {
		t.Fatalf("token fields must be cleared on confirmation")
	}

	// Reusing the token must fail.
	if err := svc.ConfirmEmail(context.Background(), token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken on reuse, got %v", err)
	}
}

func TestUserService_ConfirmEmail_Expired(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo, &recordingMailer{})

	token := "stale-token"
	createdAt := time.Now().UTC().Add(-25 * time.Hour)
	repo.byEmail["old@x.com"] = &domain.User{
		ID:                uuid.New(),
		Email:             "old@x.com",
		Role:              domain.RoleViewer,
		ConfirmationToken: &token,
		TokenCreatedAt:    &createdAt,
	}

	if err := svc.ConfirmEmail(context.Background(), token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestUserService_ConfirmEmail_UnknownToken(t *testing.T) {
	svc := newUserService(newStubUserRepo(), &recordingMailer{})

	if err := svc.ConfirmEmail(context.Background(), "no-such-token"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if err := svc.ConfirmEmail(context.Background(), ""); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for empty token, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// UpdateUserRole
// ---------------------------------------------------------------------------

func TestUserService_UpdateUserRole_AdminOnly(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo, &recordingMailer{})

	if _, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    "frank@x.com",
		Password: "s3cretpass",
	}, ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	for _, requester := range []domain.Role{"", domain.RoleManager, domain.RoleViewer} {
		err := svc.UpdateUserRole(context.Background(), "frank@x.com", "Manager", requester)
		if !errors.Is(err, domain.ErrNotAllowed) {
			t.Fatalf("requester %q: expected ErrNotAllowed, got %v", requester, err)
		}
	}

	if err := svc.UpdateUserRole(context.Background(), "frank@x.com", "Manager", domain.RoleAdmin); err != nil {
		t.Fatalf("admin update failed: %v", err)
	}
	if repo.byEmail["frank@x.com"].Role != domain.RoleManager {
		t.Fatalf("role change not persisted")
	}
}

// ---------------------------------------------------------------------------
// UpdateUser
// ---------------------------------------------------------------------------

func TestUserService_UpdateUser_AdminOnly(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo, &recordingMailer{})

	created, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    "gina@x.com",
		Password: "s3cretpass",
	}, "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	in := ports.UpdateUserInput{FirstName: "Gina", LastName: "Lee", Email: "gina@x.com"}
	for _, requester := range []domain.Role{"", domain.RoleManager, domain.RoleViewer} {
		if err := svc.UpdateUser(context.Background(), created.ID, in, requester); !errors.Is(err, domain.ErrNotAllowed) {
			t.Fatalf("requester %q: expected ErrNotAllowed, got %v", requester, err)
		}
	}

	if err := svc.UpdateUser(context.Background(), created.ID, in, domain.RoleAdmin); err != nil {
		t.Fatalf("admin update failed: %v", err)
	}
	stored := repo.byEmail["gina@x.com"]
	if stored.FirstName != "Gina" || stored.LastName != "Lee" {
		t.Fatalf("profile change not persisted: %+v", stored)
	}
}

func TestUserService_UpdateUser_RoleHandling(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo, &recordingMailer{})

	created, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    "hank@x.com",
		Password: "s3cretpass",
	}, "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Empty role keeps the current one.
	if err := svc.UpdateUser(context.Background(), created.ID, ports.UpdateUserInput{
		FirstName: "Hank", LastName: "Hill", Email: "hank@x.com",
	}, domain.RoleAdmin); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if repo.byEmail["hank@x.com"].Role != domain.RoleViewer {
		t.Fatalf("empty role must not change the stored role")
	}

	if err := svc.UpdateUser(context.Background(), created.ID, ports.UpdateUserInput{
		FirstName: "Hank", LastName: "Hill", Email: "hank@x.com", Role: "Root",
	}, domain.RoleAdmin); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	if err := svc.UpdateUser(context.Background(), created.ID, ports.UpdateUserInput{
		FirstName: "Hank", LastName: "Hill", Email: "hank@x.com", Role: "Manager",
	}, domain.RoleAdmin); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if repo.byEmail["hank@x.com"].Role != domain.RoleManager {
		t.Fatalf("role change not persisted")
	}
}

func TestUserService_UpdateUser_Validation(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo, &recordingMailer{})

	if err := svc.UpdateUser(context.Background(), uuid.New(), ports.UpdateUserInput{
		Email: "ghost@x.com",
	}, domain.RoleAdmin); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	created, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    "iris@x.com",
		Password: "s3cretpass",
	}, "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if err := svc.UpdateUser(context.Background(), created.ID, ports.UpdateUserInput{}, domain.RoleAdmin); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty email, got %v", err)
	}
}

func TestUserService_UpdateUser_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo, &recordingMailer{})

	if _, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    "taken@x.com",
		Password: "s3cretpass",
	}, ""); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	created, err := svc.Register(context.Background(), ports.RegisterInput{
		Email:    "moving@x.com",
		Password: "s3cretpass",
	}, "")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	err = svc.UpdateUser(context.Background(), created.ID, ports.UpdateUserInput{
		FirstName: "M", LastName: "V", Email: "taken@x.com",
	}, domain.RoleAdmin)
	if !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestUserService_UpdateUserRole_Validation(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo, &recordingMailer{})

	if err := svc.UpdateUserRole(context.Background(), "nobody@x.com", "Superuser", domain.RoleAdmin); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole before any lookup, got %v", err)
	}
	if err := svc.UpdateUserRole(context.Background(), "nobody@x.com", "Viewer", domain.RoleAdmin); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
