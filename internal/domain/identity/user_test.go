package identity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minegocio/backend/internal/domain/shared"
)

func TestNewUser(t *testing.T) {
	t.Run("creates active user with hashed password", func(t *testing.T) {
		user, err := NewUser("  Ana Pérez ", "Ana@Example.com", "Password123", RoleEmployee)

		require.NoError(t, err)
		assert.Equal(t, "Ana Pérez", user.Name)
		assert.Equal(t, "ana@example.com", user.Email)
		assert.Equal(t, RoleEmployee, user.Role)
		assert.True(t, user.IsActive)
		assert.NotEqual(t, "Password123", user.PasswordHash)
		assert.True(t, user.VerifyPassword("Password123"))
		assert.False(t, user.VerifyPassword("wrong"))
		assert.Equal(t, 1, user.Version)
	})

	t.Run("collects every invalid field", func(t *testing.T) {
		_, err := NewUser("", "not-an-email", "short", Role("admin"))

		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
		var verr *shared.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "name")
		assert.Contains(t, verr.Fields, "email")
		assert.Contains(t, verr.Fields, "password")
		assert.Contains(t, verr.Fields, "role")
	})

	t.Run("password needs a letter and a number", func(t *testing.T) {
		_, err := NewUser("Ana", "ana@example.com", "onlyletters", RoleOwner)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "at least one letter and one number")
	})
}

func TestUser_Passwords(t *testing.T) {
	user, err := NewUser("Ana", "ana@example.com", "Password123", RoleOwner)
	require.NoError(t, err)

	err = user.ChangePassword("wrong", "NewPassword456")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "incorrect")

	require.NoError(t, user.ChangePassword("Password123", "NewPassword456"))
	assert.True(t, user.VerifyPassword("NewPassword456"))
	assert.False(t, user.VerifyPassword("Password123"))
}

func TestUser_ActivateDeactivate(t *testing.T) {
	user, err := NewUser("Ana", "ana@example.com", "Password123", RoleEmployee)
	require.NoError(t, err)

	assert.Error(t, user.Activate())
	require.NoError(t, user.Deactivate())
	assert.False(t, user.IsActive)
	assert.Error(t, user.Deactivate())
	require.NoError(t, user.Activate())
	assert.True(t, user.IsActive)
}

func TestUser_ChangeRole(t *testing.T) {
	user, err := NewUser("Ana", "ana@example.com", "Password123", RoleEmployee)
	require.NoError(t, err)

	require.NoError(t, user.ChangeRole(RoleOwner))
	assert.True(t, user.IsOwner())
	assert.ErrorIs(t, user.ChangeRole("manager"), shared.ErrInvalidInput)
	assert.Equal(t, RoleOwner, user.Role)
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole(" Owner ")
	require.NoError(t, err)
	assert.Equal(t, RoleOwner, r)

	_, err = ParseRole("manager")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}
