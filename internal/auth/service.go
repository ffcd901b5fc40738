// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/vitrina/vitrina/internal/observability"
	"github.com/vitrina/vitrina/pkg/errutil"
)

// dummyPasswordHash is verified when no account matches the email, so the
// response time of a login attempt does not reveal whether the account
// exists. It is a fake digest that can never match any password.
//
//nolint:gosec // G101: intentionally fake digest for timing consistency, not a credential.
const dummyPasswordHash = "$argon2id$v=19$m=65536,t=1,p=4$AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// Service is the authentication facade. It is the only component the UI
// layer calls; everything else in this package is composed behind it.
//
// The current session is the one process-wide piece of shared auth state:
// set by Register/Login/Bootstrap, cleared by Logout. Access is serialized
// internally; callers receive value snapshots.
type Service struct {
	accounts AccountRepository
	hasher   PasswordHasher
	throttle RateLimiter
	issuer   *Issuer
	logger   *slog.Logger

	mu      sync.Mutex
	current *Session
}

// NewService creates the facade. All dependencies are required.
func NewService(accounts AccountRepository, hasher PasswordHasher, throttle RateLimiter, issuer *Issuer) (*Service, error) {
	return NewServiceWithLogger(accounts, hasher, throttle, issuer, slog.Default())
}

// NewServiceWithLogger creates the facade with an explicit logger.
func NewServiceWithLogger(accounts AccountRepository, hasher PasswordHasher, throttle RateLimiter, issuer *Issuer, logger *slog.Logger) (*Service, error) {
	if accounts == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("accounts repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("password hasher is required")
	}
	if throttle == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("rate limiter is required")
	}
	if issuer == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("session issuer is required")
	}
	if logger == nil {
		return nil, oops.Code("AUTH_SERVICE_INVALID").Errorf("logger is required")
	}
	return &Service{
		accounts: accounts,
		hasher:   hasher,
		throttle: throttle,
		issuer:   issuer,
		logger:   logger,
	}, nil
}

// Register creates an account from raw credential fields and issues a
// session for it. Email uniqueness is enforced by the credential store's
// constraint; a conflict surfaces as ErrDuplicateEmail, never as a
// read-then-write race.
func (s *Service) Register(ctx context.Context, email, password, name string) (*Session, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, oops.Code("AUTH_INVALID_EMAIL").Wrap(err)
	}
	name = Sanitize(name)
	if err := ValidateName(name); err != nil {
		return nil, oops.Code("AUTH_INVALID_NAME").Wrap(err)
	}
	if err := ValidatePassword(password); err != nil {
		return nil, oops.Code("AUTH_INVALID_PASSWORD").Wrap(err)
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	account, err := NewAccount(email, name, digest)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			observability.RecordRegistration("duplicate")
			return nil, oops.Code("AUTH_DUPLICATE_EMAIL").
				With("email", email).
				Wrap(err)
		}
		observability.RecordRegistration("error")
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create account").
			Wrap(err)
	}

	session, err := s.issueFor(account.Identity())
	if err != nil {
		return nil, err
	}

	observability.RecordRegistration("ok")
	s.logger.Info("account registered", "account_id", account.ID.String())
	return session, nil
}

// Login authenticates raw credentials and issues a session. The throttle is
// consulted before any store lookup or hash verification, so locked attempts
// cost nothing and leak nothing. Unknown-account and wrong-password failures
// share one error so responses cannot enumerate accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, oops.Code("AUTH_INVALID_INPUT").
			Wrap(&ValidationError{Field: "credentials", Message: "email and password are required"})
	}

	if d := s.throttle.Check(email); !d.Allowed {
		observability.RecordLogin("throttled")
		return nil, oops.Code("AUTH_THROTTLED").
			With("wait_minutes", d.WaitMinutes()).
			Wrap(&ThrottledError{Wait: d.Wait})
	}

	account, lookupErr := s.accounts.GetByEmail(ctx, email)

	// Always verify against some digest so response time stays flat
	// whether or not the account exists.
	targetDigest := dummyPasswordHash
	accountExists := false
	if lookupErr != nil {
		if !errors.Is(lookupErr, ErrNotFound) {
			return nil, oops.Code("AUTH_LOGIN_FAILED").
				With("operation", "get account by email").
				Wrap(lookupErr)
		}
	} else {
		targetDigest = account.PasswordHash
		accountExists = true
	}

	valid, verifyErr := s.hasher.Verify(password, targetDigest)
	if verifyErr != nil {
		if !accountExists {
			observability.RecordLogin("invalid")
			s.throttle.RecordFailure(email)
			return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}

	if !accountExists || !valid {
		observability.RecordLogin("invalid")
		s.throttle.RecordFailure(email)
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	s.throttle.RecordSuccess(email)

	// Re-hash under the current algorithm when the stored digest is stale.
	// Best effort: login succeeds regardless.
	if s.hasher.NeedsUpgrade(account.PasswordHash) {
		if digest, hashErr := s.hasher.Hash(password); hashErr == nil {
			if err := s.accounts.UpdatePassword(ctx, account.ID, digest); err != nil {
				errutil.LogError(s.logger, "password digest upgrade failed", err)
			}
		}
	}

	session, err := s.issueFor(account.Identity())
	if err != nil {
		return nil, err
	}

	observability.RecordLogin("ok")
	s.logger.Info("login succeeded", "account_id", account.ID.String())
	return session, nil
}

// Logout revokes the current session. Idempotent: a second call with no
// session is a no-op. Neither the throttle nor the credential store is
// involved.
func (s *Service) Logout(_ context.Context) error {
	if err := s.issuer.Revoke(); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").Wrap(err)
	}
	s.setCurrent(nil)
	return nil
}

// Bootstrap runs once per client context start: it reloads the persisted
// session, clearing it when it is stale, and populates the process-wide
// session handle. Returns nil with no error when unauthenticated.
func (s *Service) Bootstrap(_ context.Context) (*Session, error) {
	session, err := s.issuer.Bootstrap()
	if err != nil {
		return nil, oops.Code("AUTH_BOOTSTRAP_FAILED").Wrap(err)
	}
	s.setCurrent(session)
	return session, nil
}

// CurrentSession returns a snapshot of the active session, or nil when
// unauthenticated.
func (s *Service) CurrentSession() *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return nil
	}
	snapshot := *s.current
	return &snapshot
}

// SetRole changes the role of the target account. Admin-only. The caller
// may change its own role: the self-demotion guard is a UI affordance and
// is deliberately not re-checked here.
func (s *Service) SetRole(ctx context.Context, caller Identity, targetID ulid.ULID, role Role) error {
	if !caller.IsAdmin() {
		return oops.Code("AUTH_PERMISSION_DENIED").
			With("caller_id", caller.ID.String()).
			Wrap(ErrPermissionDenied)
	}

	if err := s.accounts.UpdateRole(ctx, targetID, role); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_ACCOUNT_NOT_FOUND").
				With("account_id", targetID.String()).
				Wrap(err)
		}
		return oops.Code("AUTH_SET_ROLE_FAILED").
			With("account_id", targetID.String()).
			Wrap(err)
	}

	s.logger.Info("role changed",
		"account_id", targetID.String(),
		"role", string(role),
		"changed_by", caller.ID.String())
	return nil
}

// ListAccounts returns all accounts. Admin-only.
func (s *Service) ListAccounts(ctx context.Context, caller Identity) ([]*Account, error) {
	if !caller.IsAdmin() {
		return nil, oops.Code("AUTH_PERMISSION_DENIED").
			With("caller_id", caller.ID.String()).
			Wrap(ErrPermissionDenied)
	}

	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, oops.Code("AUTH_LIST_ACCOUNTS_FAILED").Wrap(err)
	}
	return accounts, nil
}

func (s *Service) issueFor(identity Identity) (*Session, error) {
	session, err := s.issuer.Issue(identity)
	if err != nil {
		return nil, oops.Code("AUTH_SESSION_ISSUE_FAILED").Wrap(err)
	}
	s.setCurrent(session)
	return session, nil
}

func (s *Service) setCurrent(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = session
}
