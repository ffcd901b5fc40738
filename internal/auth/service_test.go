// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryAccountRepo is an in-process AccountRepository for facade tests.
// It enforces case-insensitive email uniqueness like the real store.
type memoryAccountRepo struct {
	accounts  map[string]*Account // keyed by ID string
	createErr error
	updateErr error
}

func newMemoryAccountRepo() *memoryAccountRepo {
	return &memoryAccountRepo{accounts: make(map[string]*Account)}
}

func (r *memoryAccountRepo) Create(_ context.Context, account *Account) error {
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.accounts {
		if NormalizeEmail(existing.Email) == NormalizeEmail(account.Email) {
			return oops.Wrap(ErrDuplicateEmail)
		}
	}
	clone := *account
	r.accounts[account.ID.String()] = &clone
	return nil
}

func (r *memoryAccountRepo) GetByID(_ context.Context, id ulid.ULID) (*Account, error) {
	account, ok := r.accounts[id.String()]
	if !ok {
		return nil, oops.Wrap(ErrNotFound)
	}
	clone := *account
	return &clone, nil
}

func (r *memoryAccountRepo) GetByEmail(_ context.Context, email string) (*Account, error) {
	for _, account := range r.accounts {
		if NormalizeEmail(account.Email) == NormalizeEmail(email) {
			clone := *account
			return &clone, nil
		}
	}
	return nil, oops.Wrap(ErrNotFound)
}

func (r *memoryAccountRepo) UpdateRole(_ context.Context, id ulid.ULID, role Role) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	account, ok := r.accounts[id.String()]
	if !ok {
		return oops.Wrap(ErrNotFound)
	}
	account.Role = role
	return nil
}

func (r *memoryAccountRepo) UpdatePassword(_ context.Context, id ulid.ULID, passwordHash string) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	account, ok := r.accounts[id.String()]
	if !ok {
		return oops.Wrap(ErrNotFound)
	}
	account.PasswordHash = passwordHash
	return nil
}

func (r *memoryAccountRepo) List(_ context.Context) ([]*Account, error) {
	out := make([]*Account, 0, len(r.accounts))
	for _, account := range r.accounts {
		clone := *account
		out = append(out, &clone)
	}
	return out, nil
}

func (r *memoryAccountRepo) Delete(_ context.Context, id ulid.ULID) error {
	if _, ok := r.accounts[id.String()]; !ok {
		return oops.Wrap(ErrNotFound)
	}
	delete(r.accounts, id.String())
	return nil
}

// spyHasher wraps a real hasher and records which digests were verified.
type spyHasher struct {
	PasswordHasher
	verifiedDigests []string
}

func (h *spyHasher) Verify(password, digest string) (bool, error) {
	h.verifiedDigests = append(h.verifiedDigests, digest)
	return h.PasswordHasher.Verify(password, digest)
}

type serviceFixture struct {
	service  *Service
	repo     *memoryAccountRepo
	hasher   *spyHasher
	throttle *MemoryThrottle
	clock    *fakeClock
	cache    *memoryCache
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	repo := newMemoryAccountRepo()
	hasher := &spyHasher{PasswordHasher: NewArgon2idHasherWithParams(fastParams())}
	clock := newFakeClock()
	throttle := NewMemoryThrottleWithClock(clock.Now)
	cache := &memoryCache{}
	issuer, err := NewIssuerWithClock(cache, clock.Now)
	require.NoError(t, err)

	service, err := NewService(repo, hasher, throttle, issuer)
	require.NoError(t, err)

	return &serviceFixture{
		service:  service,
		repo:     repo,
		hasher:   hasher,
		throttle: throttle,
		clock:    clock,
		cache:    cache,
	}
}

func (f *serviceFixture) register(t *testing.T, email, password, name string) *Session {
	t.Helper()
	session, err := f.service.Register(context.Background(), email, password, name)
	require.NoError(t, err)
	return session
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("creates account and issues session", func(t *testing.T) {
		f := newServiceFixture(t)

		session, err := f.service.Register(ctx, "alice@example.com", "secret123", "Alice")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", session.Identity.Email)
		assert.Equal(t, RoleUser, session.Identity.Role)
		assert.NotNil(t, f.cache.blob)

		current := f.service.CurrentSession()
		require.NotNil(t, current)
		assert.Equal(t, session.Identity.ID, current.Identity.ID)
	})

	t.Run("normalizes email before storing", func(t *testing.T) {
		f := newServiceFixture(t)

		session, err := f.service.Register(ctx, "  Alice@Example.COM ", "secret123", "Alice")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", session.Identity.Email)
	})

	t.Run("sanitizes the display name", func(t *testing.T) {
		f := newServiceFixture(t)

		session, err := f.service.Register(ctx, "alice@example.com", "secret123", "  <b>Alice</b> ")
		require.NoError(t, err)
		assert.Equal(t, "&lt;b&gt;Alice&lt;&#47;b&gt;", session.Identity.Name)
	})

	t.Run("password is stored only as a digest", func(t *testing.T) {
		f := newServiceFixture(t)
		f.register(t, "alice@example.com", "secret123", "Alice")

		account, err := f.repo.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.NotContains(t, account.PasswordHash, "secret123")
		assert.Contains(t, account.PasswordHash, "$argon2id$")
	})

	t.Run("rejects duplicate email regardless of case", func(t *testing.T) {
		f := newServiceFixture(t)
		f.register(t, "alice@example.com", "secret123", "Alice")

		_, err := f.service.Register(ctx, "ALICE@example.com", "other456", "Other")
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("rejects invalid input before touching the store", func(t *testing.T) {
		f := newServiceFixture(t)

		var vErr *ValidationError

		_, err := f.service.Register(ctx, "bad-email", "secret123", "Alice")
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "email", vErr.Field)

		_, err = f.service.Register(ctx, "alice@example.com", "short", "Alice")
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "password", vErr.Field)

		_, err = f.service.Register(ctx, "alice@example.com", "secret123", "A")
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "name", vErr.Field)

		assert.Empty(t, f.repo.accounts)
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("authenticates valid credentials", func(t *testing.T) {
		f := newServiceFixture(t)
		f.register(t, "alice@example.com", "secret123", "Alice")
		require.NoError(t, f.service.Logout(ctx))

		session, err := f.service.Login(ctx, "alice@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", session.Identity.Email)
		require.NotNil(t, f.service.CurrentSession())
	})

	t.Run("email matching ignores case and whitespace", func(t *testing.T) {
		f := newServiceFixture(t)
		f.register(t, "alice@example.com", "secret123", "Alice")

		session, err := f.service.Login(ctx, "  ALICE@Example.com ", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", session.Identity.Email)
	})

	t.Run("unknown account and wrong password yield the same error", func(t *testing.T) {
		f := newServiceFixture(t)
		f.register(t, "alice@example.com", "secret123", "Alice")

		_, unknownErr := f.service.Login(ctx, "ghost@example.com", "whatever123")
		_, wrongErr := f.service.Login(ctx, "alice@example.com", "wrongpass")

		require.ErrorIs(t, unknownErr, ErrInvalidCredentials)
		require.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	})

	t.Run("verifies a dummy digest for unknown accounts", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.service.Login(ctx, "ghost@example.com", "whatever123")
		require.ErrorIs(t, err, ErrInvalidCredentials)
		require.Len(t, f.hasher.verifiedDigests, 1)
		assert.Equal(t, dummyPasswordHash, f.hasher.verifiedDigests[0])
	})

	t.Run("rejects empty credentials", func(t *testing.T) {
		f := newServiceFixture(t)

		var vErr *ValidationError
		_, err := f.service.Login(ctx, "", "secret123")
		assert.ErrorAs(t, err, &vErr)

		_, err = f.service.Login(ctx, "alice@example.com", "")
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("locks after five failures and recovers after the window", func(t *testing.T) {
		f := newServiceFixture(t)
		f.register(t, "bob@example.com", "secret123", "Bob")
		require.NoError(t, f.service.Logout(ctx))

		for i := 0; i < FailureThreshold; i++ {
			_, err := f.service.Login(ctx, "bob@example.com", "wrongpass")
			require.ErrorIs(t, err, ErrInvalidCredentials)
		}

		// Sixth attempt is rejected before any credential check,
		// even with the correct password.
		verifications := len(f.hasher.verifiedDigests)
		_, err := f.service.Login(ctx, "bob@example.com", "secret123")
		var throttled *ThrottledError
		require.ErrorAs(t, err, &throttled)
		assert.Equal(t, 15, throttled.WaitMinutes())
		assert.Len(t, f.hasher.verifiedDigests, verifications)

		// Partway through the cooldown the wait shrinks.
		f.clock.Advance(10 * time.Minute)
		_, err = f.service.Login(ctx, "bob@example.com", "secret123")
		require.ErrorAs(t, err, &throttled)
		assert.Equal(t, 5, throttled.WaitMinutes())

		// After the window the correct password gets in.
		f.clock.Advance(CooldownWindow)
		session, err := f.service.Login(ctx, "bob@example.com", "secret123")
		require.NoError(t, err)
		assert.Equal(t, "bob@example.com", session.Identity.Email)
	})

	t.Run("throttle counts failures for nonexistent accounts", func(t *testing.T) {
		f := newServiceFixture(t)

		for i := 0; i < FailureThreshold; i++ {
			_, err := f.service.Login(ctx, "ghost@example.com", "whatever123")
			require.ErrorIs(t, err, ErrInvalidCredentials)
		}

		_, err := f.service.Login(ctx, "ghost@example.com", "whatever123")
		var throttled *ThrottledError
		assert.ErrorAs(t, err, &throttled)
	})

	t.Run("success clears accumulated failures", func(t *testing.T) {
		f := newServiceFixture(t)
		f.register(t, "alice@example.com", "secret123", "Alice")

		for i := 0; i < FailureThreshold-1; i++ {
			_, err := f.service.Login(ctx, "alice@example.com", "wrongpass")
			require.ErrorIs(t, err, ErrInvalidCredentials)
		}

		_, err := f.service.Login(ctx, "alice@example.com", "secret123")
		require.NoError(t, err)

		// The budget is fresh again.
		for i := 0; i < FailureThreshold-1; i++ {
			_, err := f.service.Login(ctx, "alice@example.com", "wrongpass")
			require.ErrorIs(t, err, ErrInvalidCredentials)
		}
		_, err = f.service.Login(ctx, "alice@example.com", "secret123")
		assert.NoError(t, err)
	})

	t.Run("upgrades a legacy digest on successful login", func(t *testing.T) {
		f := newServiceFixture(t)
		f.register(t, "alice@example.com", "secret123", "Alice")

		// Swap in a digest that verifies but reports NeedsUpgrade.
		account, err := f.repo.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		f.hasher.PasswordHasher = &legacyHasher{inner: f.hasher.PasswordHasher}

		_, err = f.service.Login(ctx, "alice@example.com", "secret123")
		require.NoError(t, err)

		updated, err := f.repo.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.NotEqual(t, account.PasswordHash, updated.PasswordHash)
	})
}

// legacyHasher reports every digest as needing an upgrade.
type legacyHasher struct {
	inner PasswordHasher
}

func (h *legacyHasher) Hash(password string) (string, error) { return h.inner.Hash(password) }
func (h *legacyHasher) Verify(password, digest string) (bool, error) {
	return h.inner.Verify(password, digest)
}
func (h *legacyHasher) NeedsUpgrade(string) bool { return true }

func TestService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("clears session and cache", func(t *testing.T) {
		f := newServiceFixture(t)
		f.register(t, "alice@example.com", "secret123", "Alice")

		require.NoError(t, f.service.Logout(ctx))
		assert.Nil(t, f.service.CurrentSession())
		assert.Nil(t, f.cache.blob)
	})

	t.Run("double logout is idempotent", func(t *testing.T) {
		f := newServiceFixture(t)
		f.register(t, "alice@example.com", "secret123", "Alice")

		require.NoError(t, f.service.Logout(ctx))
		assert.NoError(t, f.service.Logout(ctx))
	})

	t.Run("logout without login is a no-op", func(t *testing.T) {
		f := newServiceFixture(t)
		assert.NoError(t, f.service.Logout(ctx))
	})
}

func TestService_Bootstrap(t *testing.T) {
	ctx := context.Background()

	t.Run("restores a persisted session", func(t *testing.T) {
		f := newServiceFixture(t)
		issued := f.register(t, "alice@example.com", "secret123", "Alice")

		// Simulate a fresh process over the same cache.
		issuer, err := NewIssuerWithClock(f.cache, f.clock.Now)
		require.NoError(t, err)
		restarted, err := NewService(f.repo, f.hasher, f.throttle, issuer)
		require.NoError(t, err)

		session, err := restarted.Bootstrap(ctx)
		require.NoError(t, err)
		require.NotNil(t, session)
		assert.Equal(t, issued.Identity.ID, session.Identity.ID)
		require.NotNil(t, restarted.CurrentSession())
	})

	t.Run("expired session is discarded", func(t *testing.T) {
		f := newServiceFixture(t)
		f.register(t, "alice@example.com", "secret123", "Alice")

		f.clock.Advance(SessionLifetime + time.Second)

		session, err := f.service.Bootstrap(ctx)
		require.NoError(t, err)
		assert.Nil(t, session)
		assert.Nil(t, f.service.CurrentSession())
		assert.Nil(t, f.cache.blob)
	})

	t.Run("no persisted session yields nil without error", func(t *testing.T) {
		f := newServiceFixture(t)

		session, err := f.service.Bootstrap(ctx)
		require.NoError(t, err)
		assert.Nil(t, session)
	})
}

func TestService_SetRole(t *testing.T) {
	ctx := context.Background()

	t.Run("admin promotes a user", func(t *testing.T) {
		f := newServiceFixture(t)
		target := f.register(t, "alice@example.com", "secret123", "Alice")
		admin := Identity{ID: ulid.Make(), Role: RoleAdmin}

		err := f.service.SetRole(ctx, admin, target.Identity.ID, RoleAdmin)
		require.NoError(t, err)

		account, err := f.repo.GetByID(ctx, target.Identity.ID)
		require.NoError(t, err)
		assert.Equal(t, RoleAdmin, account.Role)
	})

	t.Run("non-admin is denied", func(t *testing.T) {
		f := newServiceFixture(t)
		target := f.register(t, "alice@example.com", "secret123", "Alice")
		caller := Identity{ID: ulid.Make(), Role: RoleUser}

		err := f.service.SetRole(ctx, caller, target.Identity.ID, RoleAdmin)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("missing target reports not found", func(t *testing.T) {
		f := newServiceFixture(t)
		admin := Identity{ID: ulid.Make(), Role: RoleAdmin}

		err := f.service.SetRole(ctx, admin, ulid.Make(), RoleAdmin)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_ListAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("admin lists all accounts", func(t *testing.T) {
		f := newServiceFixture(t)
		f.register(t, "alice@example.com", "secret123", "Alice")
		f.register(t, "bob@example.com", "secret123", "Bob")
		admin := Identity{ID: ulid.Make(), Role: RoleAdmin}

		accounts, err := f.service.ListAccounts(ctx, admin)
		require.NoError(t, err)
		assert.Len(t, accounts, 2)
	})

	t.Run("non-admin is denied", func(t *testing.T) {
		f := newServiceFixture(t)
		caller := Identity{ID: ulid.Make(), Role: RoleUser}

		_, err := f.service.ListAccounts(ctx, caller)
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})
}

func TestNewService(t *testing.T) {
	f := newServiceFixture(t)
	issuer, err := NewIssuer(&memoryCache{})
	require.NoError(t, err)

	t.Run("rejects nil dependencies", func(t *testing.T) {
		_, err := NewService(nil, f.hasher, f.throttle, issuer)
		assert.Error(t, err)

		_, err = NewService(f.repo, nil, f.throttle, issuer)
		assert.Error(t, err)

		_, err = NewService(f.repo, f.hasher, nil, issuer)
		assert.Error(t, err)

		_, err = NewService(f.repo, f.hasher, f.throttle, nil)
		assert.Error(t, err)
	})
}
