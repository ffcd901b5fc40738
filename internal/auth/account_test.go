// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Role
		wantErr bool
	}{
		{name: "user", input: "user", want: RoleUser},
		{name: "admin", input: "admin", want: RoleAdmin},
		{name: "unknown role", input: "superuser", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "case sensitive", input: "Admin", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, err := ParseRole(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, role)
		})
	}
}

func TestNewAccount(t *testing.T) {
	const hash = "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA"

	t.Run("creates account with user role", func(t *testing.T) {
		account, err := NewAccount("alice@example.com", "Alice", hash)
		require.NoError(t, err)

		assert.NotZero(t, account.ID)
		assert.Equal(t, "alice@example.com", account.Email)
		assert.Equal(t, RoleUser, account.Role)
		assert.Equal(t, hash, account.PasswordHash)
		assert.False(t, account.CreatedAt.IsZero())
	})

	t.Run("rejects invalid email", func(t *testing.T) {
		_, err := NewAccount("not-an-email", "Alice", hash)
		assert.Error(t, err)
	})

	t.Run("rejects short name", func(t *testing.T) {
		_, err := NewAccount("alice@example.com", "A", hash)
		assert.Error(t, err)
	})

	t.Run("rejects empty hash", func(t *testing.T) {
		_, err := NewAccount("alice@example.com", "Alice", "")
		assert.Error(t, err)
	})

	t.Run("generates unique IDs", func(t *testing.T) {
		first, err := NewAccount("a@example.com", "First", hash)
		require.NoError(t, err)
		second, err := NewAccount("b@example.com", "Second", hash)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, second.ID)
	})
}

func TestAccount_Identity(t *testing.T) {
	account, err := NewAccount("alice@example.com", "Alice", "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA")
	require.NoError(t, err)
	account.Role = RoleAdmin

	identity := account.Identity()
	assert.Equal(t, account.ID, identity.ID)
	assert.Equal(t, account.Email, identity.Email)
	assert.Equal(t, account.Name, identity.Name)
	assert.Equal(t, RoleAdmin, identity.Role)
}

func TestIdentity_IsAdmin(t *testing.T) {
	assert.True(t, Identity{Role: RoleAdmin}.IsAdmin())
	assert.False(t, Identity{Role: RoleUser}.IsAdmin())
	assert.False(t, Identity{}.IsAdmin())
}
