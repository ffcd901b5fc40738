// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Role grants an account its authorization level.
type Role string

const (
	// RoleUser is the default role: owns and manages its own catalog items.
	RoleUser Role = "user"
	// RoleAdmin sees and manages all items and all accounts.
	RoleAdmin Role = "admin"
)

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", oops.Code("AUTH_INVALID_ROLE").
			With("role", s).
			Errorf("unknown role %q", s)
	}
}

// Account is a credential record. Email is unique case-insensitively,
// enforced by the store. PasswordHash is a PHC-encoded argon2id digest;
// plaintext never reaches this type.
type Account struct {
	ID           ulid.ULID
	Email        string
	Name         string
	Role         Role
	PasswordHash string
	CreatedAt    time.Time
}

// NewAccount creates a validated Account with RoleUser. The email must be
// normalized and the name sanitized by the caller; validation here is the
// last line of defense before persistence.
func NewAccount(email, name, passwordHash string) (*Account, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, oops.Code("AUTH_INVALID_EMAIL").Wrap(err)
	}
	if err := ValidateName(name); err != nil {
		return nil, oops.Code("AUTH_INVALID_NAME").Wrap(err)
	}
	if passwordHash == "" {
		return nil, oops.Code("AUTH_INVALID_HASH").Errorf("password hash cannot be empty")
	}
	return &Account{
		ID:           ulid.Make(),
		Email:        email,
		Name:         name,
		Role:         RoleUser,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// Identity returns the read-only snapshot a session carries. It goes stale
// on role change until the next login or bootstrap.
func (a *Account) Identity() Identity {
	return Identity{
		ID:    a.ID,
		Email: a.Email,
		Name:  a.Name,
		Role:  a.Role,
	}
}

// Identity is a verified (email, role) pair resulting from successful
// authentication.
type Identity struct {
	ID    ulid.ULID `json:"id"`
	Email string    `json:"email"`
	Name  string    `json:"name"`
	Role  Role      `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// AccountRepository manages credential persistence.
type AccountRepository interface {
	// Create stores a new account. Returns ErrDuplicateEmail (wrapped) when
	// the email is already taken, regardless of case.
	Create(ctx context.Context, account *Account) error

	// GetByID retrieves an account by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Account, error)

	// GetByEmail retrieves an account by email (case-insensitive).
	GetByEmail(ctx context.Context, email string) (*Account, error)

	// UpdateRole changes only the role of an account.
	UpdateRole(ctx context.Context, id ulid.ULID, role Role) error

	// UpdatePassword changes only the password hash of an account.
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash string) error

	// List returns all accounts ordered by creation time.
	List(ctx context.Context) ([]*Account, error)

	// Delete removes an account.
	Delete(ctx context.Context, id ulid.ULID) error
}
