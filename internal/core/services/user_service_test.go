package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/fintrack/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/fintrack/internal/core/domain"
	"github.com/vncsmyrnk/fintrack/internal/core/ports"
)

func newUserService(store *memory.Store, issuer *fakeIssuer) *UserService {
	sessions := NewSessionService(store.Sessions(), issuer)
	return NewUserService(store.Users(), sessions, issuer, plainHasher{})
}

func TestUserService_Register(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(memory.NewStore(), &fakeIssuer{})

	user, err := svc.Register(ctx, ports.RegisterInput{Name: " Ann ", Email: " Ann@Example.com ", Password: "s3cret"})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "Ann", user.Name)
	assert.Equal(t, "ann@example.com", user.Email)
	assert.Equal(t, "hashed:s3cret", user.PasswordHash)

	_, err = svc.Register(ctx, ports.RegisterInput{Name: "Other", Email: "ann@example.com", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
}

func TestUserService_Login(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	issuer := &fakeIssuer{}
	svc := newUserService(store, issuer)

	user, err := svc.Register(ctx, ports.RegisterInput{Name: "Ann", Email: "ann@example.com", Password: "s3cret"})
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, ports.LoginInput{Email: "ann@example.com", Password: "nope"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.Login(ctx, ports.LoginInput{Email: "bob@example.com", Password: "s3cret"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("success replaces the previous session", func(t *testing.T) {
		first, err := svc.Login(ctx, ports.LoginInput{Email: "ANN@example.com", Password: "s3cret"})
		require.NoError(t, err)
		assert.Equal(t, user.ID, first.User.ID)
		assert.NotEmpty(t, first.Token)
		assert.Equal(t, user.ID, first.Session.UserID)

		second, err := svc.Login(ctx, ports.LoginInput{Email: "ann@example.com", Password: "s3cret"})
		require.NoError(t, err)
		assert.NotEqual(t, first.Session.ID, second.Session.ID)
		assert.Equal(t, 1, store.Sessions().Count(user.ID))
	})
}

func TestUserService_GetByID(t *testing.T) {
	ctx := context.Background()
	svc := newUserService(memory.NewStore(), &fakeIssuer{})

	_, err := svc.GetByID(ctx, 404)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
