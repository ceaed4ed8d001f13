package users

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	pkgauth "github.com/printhaus/printhaus-backend/pkg/auth"
	"github.com/printhaus/printhaus-backend/pkg/config"
	"github.com/printhaus/printhaus-backend/pkg/db/models"
	"github.com/printhaus/printhaus-backend/pkg/enums"
	pkgerrors "github.com/printhaus/printhaus-backend/pkg/errors"
)

type fakeRepo struct {
	byEmail map[string]*models.User
	byID    map[uuid.UUID]*models.User
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byEmail: map[string]*models.User{}, byID: map[uuid.UUID]*models.User{}}
}

func (f *fakeRepo) Create(_ context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	f.byEmail[user.Email] = user
	f.byID[user.ID] = user
	return nil
}

func (f *fakeRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return f.byEmail[strings.ToLower(email)], nil
}

func (f *fakeRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	return f.byID[id], nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "printhaus-test",
		ExpirationMinutes: 15,
	}
}

func newTestService(t *testing.T, repo repository) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:      repo,
		JWTConfig: testJWTConfig(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(t, repo)

	registered, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "Vendor@Example.com",
		Password:    "correct horse battery",
		DisplayName: "Wave Studio",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if registered.AccessToken == "" {
		t.Fatal("expected access token")
	}
	if registered.User.Email != "vendor@example.com" {
		t.Fatalf("expected lowercased email, got %s", registered.User.Email)
	}
	if registered.User.Role != enums.UserRoleVendor {
		t.Fatalf("expected vendor role, got %s", registered.User.Role)
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), registered.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != registered.User.ID || claims.Role != enums.UserRoleVendor {
		t.Fatalf("unexpected claims %+v", claims)
	}

	logged, err := svc.Login(context.Background(), LoginRequest{
		Email:    "vendor@example.com",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if logged.User.ID != registered.User.ID {
		t.Fatal("login should resolve the registered user")
	}
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newFakeRepo())
	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{name: "bad email", req: RegisterRequest{Email: "nope", Password: "long enough pw", DisplayName: "X"}},
		{name: "short password", req: RegisterRequest{Email: "a@b.com", Password: "short", DisplayName: "X"}},
		{name: "empty display name", req: RegisterRequest{Email: "a@b.com", Password: "long enough pw"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.req)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(t, repo)
	if _, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "vendor@example.com",
		Password:    "correct horse battery",
		DisplayName: "Wave Studio",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "vendor@example.com",
		Password: "wrong",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, newFakeRepo())
	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "ghost@example.com",
		Password: "whatever pw",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginInactiveUser(t *testing.T) {
	t.Parallel()

	repo := newFakeRepo()
	svc := newTestService(t, repo)
	if _, err := svc.Register(context.Background(), RegisterRequest{
		Email:       "vendor@example.com",
		Password:    "correct horse battery",
		DisplayName: "Wave Studio",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	repo.byEmail["vendor@example.com"].IsActive = false

	_, err := svc.Login(context.Background(), LoginRequest{
		Email:    "vendor@example.com",
		Password: "correct horse battery",
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
