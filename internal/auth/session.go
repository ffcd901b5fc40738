// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package auth

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/samber/oops"
)

// SessionLifetime is the fixed session validity. Sessions are tickets, not
// sliding windows: there is no renewal or refresh.
const SessionLifetime = 24 * time.Hour

// Session is a time-bounded proof that an Identity was authenticated. It is
// persisted client-side as one JSON blob, overwritten wholesale on every
// login and logout.
type Session struct {
	Identity  Identity  `json:"identity"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSession creates a session for the identity, valid for SessionLifetime
// from now.
func NewSession(identity Identity, now time.Time) *Session {
	return &Session{
		Identity:  identity,
		IssuedAt:  now,
		ExpiresAt: now.Add(SessionLifetime),
	}
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt returns true if the session would be expired at the given time.
// Useful for testing with deterministic time values.
func (s *Session) IsExpiredAt(t time.Time) bool {
	return !t.Before(s.ExpiresAt)
}

// SessionCache persists the single client-side session blob.
type SessionCache interface {
	// Load returns the persisted blob, or ErrNotFound (wrapped) when none
	// is stored.
	Load() ([]byte, error)

	// Store overwrites the persisted blob wholesale.
	Store(blob []byte) error

	// Clear removes the persisted blob. Clearing an empty cache is a no-op.
	Clear() error
}

// Issuer mints sessions and reloads them from the persisted cache.
type Issuer struct {
	cache    SessionCache
	lifetime time.Duration
	now      func() time.Time
}

// NewIssuer creates an Issuer over the given cache.
func NewIssuer(cache SessionCache) (*Issuer, error) {
	return newIssuer(cache, time.Now)
}

// NewIssuerWithClock creates an Issuer with an injected clock for tests.
func NewIssuerWithClock(cache SessionCache, now func() time.Time) (*Issuer, error) {
	return newIssuer(cache, now)
}

func newIssuer(cache SessionCache, now func() time.Time) (*Issuer, error) {
	if cache == nil {
		return nil, oops.Code("SESSION_CACHE_REQUIRED").Errorf("session cache is required")
	}
	return &Issuer{cache: cache, lifetime: SessionLifetime, now: now}, nil
}

// Issue mints a session for the identity and persists it.
func (i *Issuer) Issue(identity Identity) (*Session, error) {
	session := NewSession(identity, i.now())

	blob, err := json.Marshal(session)
	if err != nil {
		return nil, oops.Code("SESSION_ENCODE_FAILED").Wrap(err)
	}
	if err := i.cache.Store(blob); err != nil {
		return nil, oops.Code("SESSION_PERSIST_FAILED").Wrap(err)
	}
	return session, nil
}

// Bootstrap reloads the persisted session. A missing blob yields (nil, nil).
// A blob that fails to parse or is already expired is discarded: the stale
// persisted copy is cleared and (nil, nil) returned.
func (i *Issuer) Bootstrap() (*Session, error) {
	blob, err := i.cache.Load()
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, oops.Code("SESSION_LOAD_FAILED").Wrap(err)
	}

	var session Session
	if err := json.Unmarshal(blob, &session); err != nil {
		if clearErr := i.cache.Clear(); clearErr != nil {
			return nil, oops.Code("SESSION_CLEAR_FAILED").Wrap(clearErr)
		}
		return nil, nil
	}

	if session.IsExpiredAt(i.now()) {
		if clearErr := i.cache.Clear(); clearErr != nil {
			return nil, oops.Code("SESSION_CLEAR_FAILED").Wrap(clearErr)
		}
		return nil, nil
	}

	return &session, nil
}

// Revoke clears the persisted session. Revoking when nothing is persisted
// is not an error.
func (i *Issuer) Revoke() error {
	if err := i.cache.Clear(); err != nil {
		return oops.Code("SESSION_CLEAR_FAILED").Wrap(err)
	}
	return nil
}
