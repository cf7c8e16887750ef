package service

import (
	"context"
	"testing"
	"time"

	"parking_reservation/internal/domain"
	"parking_reservation/internal/repository/memory"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*AuthService, *memory.UserRepository) {
	t.Helper()
	logger := zerolog.New(zerolog.NewConsoleWriter()).Level(zerolog.Disabled)
	users := memory.NewUserRepository()
	return NewAuthService(users, "test-secret", time.Hour, &logger), users
}

func TestRegister(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	dto := domain.RegisterUserDTO{Name: "Nguyen Van A", Email: "a@example.com", Password: "matkhau123"}

	resp, err := svc.Register(ctx, dto)
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.NotEmpty(t, resp.UserID)
	assert.Equal(t, domain.RoleUser, resp.Role)

	t.Run("DuplicateEmail", func(t *testing.T) {
		_, err := svc.Register(ctx, dto)
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("PasswordIsHashed", func(t *testing.T) {
		svc2, users := newAuthService(t)
		resp, err := svc2.Register(ctx, dto)
		require.NoError(t, err)
		stored, err := users.FindByID(ctx, resp.UserID)
		require.NoError(t, err)
		assert.NotEqual(t, dto.Password, stored.Password)
	})
}

func zerologDisabled() *zerolog.Logger {
	logger := zerolog.New(zerolog.NewConsoleWriter()).Level(zerolog.Disabled)
	return &logger
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterUserDTO{Name: "Nguyen Van A", Email: "a@example.com", Password: "matkhau123"})
	require.NoError(t, err)

	t.Run("Success", func(t *testing.T) {
		resp, err := svc.Login(ctx, domain.LoginUserDTO{Email: "a@example.com", Password: "matkhau123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Token)
		assert.Equal(t, "a@example.com", resp.Email)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		_, err := svc.Login(ctx, domain.LoginUserDTO{Email: "a@example.com", Password: "sai-mat-khau"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		_, err := svc.Login(ctx, domain.LoginUserDTO{Email: "x@example.com", Password: "matkhau123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestValidateToken(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, domain.RegisterUserDTO{Name: "Nguyen Van A", Email: "a@example.com", Password: "matkhau123"})
	require.NoError(t, err)

	t.Run("RoundTrip", func(t *testing.T) {
		_, claims, err := svc.ValidateToken(resp.Token)
		require.NoError(t, err)
		assert.Equal(t, resp.UserID, claims["sub"])
		assert.Equal(t, domain.RoleUser, claims["role"])
		assert.Equal(t, "a@example.com", claims["email"])
	})

	t.Run("Malformed", func(t *testing.T) {
		_, _, err := svc.ValidateToken("không-phải-jwt")
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		other := NewAuthService(memory.NewUserRepository(), "secret-khác", time.Hour, zerologDisabled())
		_, _, err := other.ValidateToken(resp.Token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("Expired", func(t *testing.T) {
		expired := NewAuthService(memory.NewUserRepository(), "test-secret", -time.Hour, zerologDisabled())
		expResp, err := expired.Register(ctx, domain.RegisterUserDTO{Name: "B", Email: "b@example.com", Password: "matkhau123"})
		require.NoError(t, err)
		_, _, err = expired.ValidateToken(expResp.Token)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestEnsureDefaultAdmin(t *testing.T) {
	svc, users := newAuthService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaultAdmin(ctx, "admin@example.com", "adminpass"))

	admin, err := users.FindAdminByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, admin.Role)

	t.Run("Idempotent", func(t *testing.T) {
		require.NoError(t, svc.EnsureDefaultAdmin(ctx, "admin@example.com", "adminpass"))
		resp, err := svc.Login(ctx, domain.LoginUserDTO{Email: "admin@example.com", Password: "adminpass"})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, resp.Role)
	})
}
