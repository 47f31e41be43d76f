package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUserHasPermission(t *testing.T) {
	user := NewUser("alice", "hash")
	user.Permissions = []string{PermManageOrders}

	require.True(t, user.HasPermission(PermManageOrders))
	require.False(t, user.HasPermission(PermManageUsers))

	// Admins pass every permission check.
	user.IsAdmin = true
	require.True(t, user.HasPermission(PermManageUsers))
}

func TestUserHasRole(t *testing.T) {
	user := NewUser("alice", "hash")
	user.Roles = []Role{*NewRole("manager", "Manager", nil)}

	require.True(t, user.HasRole("manager"))
	require.False(t, user.HasRole("admin"))
}

func TestUserLockout(t *testing.T) {
	user := NewUser("bob", "hash")
	require.NoError(t, user.CanLogin())

	for i := 0; i < 5; i++ {
		user.RecordFailedLogin(5, 15*time.Minute)
	}
	require.True(t, user.IsLocked())
	require.Error(t, user.CanLogin())

	user.RecordSuccessfulLogin()
	require.False(t, user.IsLocked())
	require.NoError(t, user.CanLogin())
	require.Equal(t, 0, user.FailedLoginAttempts)
	require.NotNil(t, user.LastLoginAt)
}

func TestUserCanLogin_Disabled(t *testing.T) {
	user := NewUser("carol", "hash")
	user.IsActive = false
	require.Error(t, user.CanLogin())
}

func TestRefreshTokenIsValid(t *testing.T) {
	token := &RefreshToken{ExpiresAt: time.Now().Add(time.Hour)}
	require.True(t, token.IsValid())

	expired := &RefreshToken{ExpiresAt: time.Now().Add(-time.Hour)}
	require.False(t, expired.IsValid())

	now := time.Now()
	revoked := &RefreshToken{ExpiresAt: time.Now().Add(time.Hour), RevokedAt: &now}
	require.False(t, revoked.IsValid())
}
