package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/minegocio/backend/internal/domain/identity"
	"github.com/minegocio/backend/internal/domain/shared"
	"github.com/minegocio/backend/internal/infrastructure/auth"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewUserService(userRepo, newTestJWT(), nil, zap.NewNop())

		userRepo.On("ExistsByEmail", ctx, "luis@tienda.co", int64(0)).Return(false, nil)
		userRepo.On("Save", ctx, mock.AnythingOfType("*identity.User")).
			Run(func(args mock.Arguments) { args.Get(1).(*identity.User).ID = 4 }).
			Return(nil)

		result, err := service.Create(ctx, CreateUserRequest{
			Name:     "Luis",
			Email:    " Luis@Tienda.co ",
			Password: "Password123",
			Role:     "employee",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(4), result.ID)
		assert.Equal(t, "luis@tienda.co", result.Email)
		assert.Equal(t, "employee", result.Role)
		assert.True(t, result.IsActive)
	})

	t.Run("duplicate email", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewUserService(userRepo, newTestJWT(), nil, zap.NewNop())
		userRepo.On("ExistsByEmail", ctx, "luis@tienda.co", int64(0)).Return(true, nil)

		_, err := service.Create(ctx, CreateUserRequest{Name: "Luis", Email: "luis@tienda.co", Password: "Password123", Role: "employee"})

		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("weak password", func(t *testing.T) {
		service := NewUserService(new(MockUserRepository), newTestJWT(), nil, zap.NewNop())

		_, err := service.Create(ctx, CreateUserRequest{Name: "Luis", Email: "luis@tienda.co", Password: "abcdefgh", Role: "employee"})

		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	owner := identity.Actor{UserID: 1, Role: identity.RoleOwner}

	t.Run("deactivation revokes live tokens", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		blacklist := auth.NewInMemoryTokenBlacklist()
		service := NewUserService(userRepo, newTestJWT(), blacklist, zap.NewNop())
		user := createTestUser(t, 5, identity.RoleEmployee)

		userRepo.On("FindByID", ctx, int64(5)).Return(user, nil)
		userRepo.On("Save", ctx, user).Return(nil)

		result, err := service.Update(ctx, owner, 5, UpdateUserRequest{IsActive: boolPtr(false)})

		require.NoError(t, err)
		assert.False(t, result.IsActive)
		revoked, err := blacklist.IsUserTokenInvalidated(ctx, 5, user.CreatedAt)
		require.NoError(t, err)
		assert.True(t, revoked)
	})

	t.Run("role change", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewUserService(userRepo, newTestJWT(), nil, zap.NewNop())
		user := createTestUser(t, 5, identity.RoleEmployee)

		userRepo.On("FindByID", ctx, int64(5)).Return(user, nil)
		userRepo.On("Save", ctx, user).Return(nil)

		result, err := service.Update(ctx, owner, 5, UpdateUserRequest{Role: strPtr("owner")})

		require.NoError(t, err)
		assert.Equal(t, "owner", result.Role)
	})

	t.Run("owners cannot lock themselves out", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewUserService(userRepo, newTestJWT(), nil, zap.NewNop())
		self := createTestUser(t, 1, identity.RoleOwner)
		userRepo.On("FindByID", ctx, int64(1)).Return(self, nil)

		_, err := service.Update(ctx, owner, 1, UpdateUserRequest{Role: strPtr("employee")})
		assert.ErrorIs(t, err, shared.ErrInvalidState)

		_, err = service.Update(ctx, owner, 1, UpdateUserRequest{IsActive: boolPtr(false)})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
		userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("email change must be free", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewUserService(userRepo, newTestJWT(), nil, zap.NewNop())
		user := createTestUser(t, 5, identity.RoleEmployee)

		userRepo.On("FindByID", ctx, int64(5)).Return(user, nil)
		userRepo.On("ExistsByEmail", ctx, "taken@tienda.co", int64(5)).Return(true, nil)

		_, err := service.Update(ctx, owner, 5, UpdateUserRequest{Email: strPtr("Taken@tienda.co")})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestUserService_EnsureOwner(t *testing.T) {
	ctx := context.Background()

	t.Run("empty table", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewUserService(userRepo, newTestJWT(), nil, zap.NewNop())
		userRepo.On("Count", ctx).Return(int64(0), nil)
		userRepo.On("Save", ctx, mock.MatchedBy(func(u *identity.User) bool {
			return u.Role == identity.RoleOwner && u.Email == "owner@tienda.co"
		})).Return(nil)

		created, err := service.EnsureOwner(ctx, "Dueño", "owner@tienda.co", "Password123")

		require.NoError(t, err)
		assert.True(t, created)
		userRepo.AssertExpectations(t)
	})

	t.Run("users already exist", func(t *testing.T) {
		userRepo := new(MockUserRepository)
		service := NewUserService(userRepo, newTestJWT(), nil, zap.NewNop())
		userRepo.On("Count", ctx).Return(int64(2), nil)

		created, err := service.EnsureOwner(ctx, "Dueño", "owner@tienda.co", "Password123")

		require.NoError(t, err)
		assert.False(t, created)
		userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}
