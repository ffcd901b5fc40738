// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package auth

import (
	"sync"
	"time"
)

// Throttle configuration.
const (
	// FailureThreshold is the number of consecutive failures that locks
	// an email out of further attempts.
	FailureThreshold = 5

	// CooldownWindow is how long a lockout lasts, and also the rolling
	// window after which stale failure counts decay.
	CooldownWindow = 15 * time.Minute
)

// Decision is the outcome of a throttle check.
type Decision struct {
	// Allowed reports whether a login attempt may proceed to the
	// credential check.
	Allowed bool

	// Wait is the remaining cooldown when not allowed.
	Wait time.Duration
}

// WaitMinutes returns the remaining cooldown in minutes, rounded up.
func (d Decision) WaitMinutes() int {
	if d.Allowed {
		return 0
	}
	m := int((d.Wait + time.Minute - 1) / time.Minute)
	if m < 1 {
		m = 1
	}
	return m
}

// RateLimiter tracks failed login attempts per normalized email. The seam
// exists so the in-process table and a shared external store are
// interchangeable (multi-instance deployments need the latter).
type RateLimiter interface {
	// Check reports whether an attempt for the email may proceed. Called
	// before any credential lookup so locked attempts cost no hash work.
	Check(email string) Decision

	// RecordFailure notes a failed credential check for the email.
	RecordFailure(email string)

	// RecordSuccess clears all failure state for the email.
	RecordSuccess(email string)
}

type throttleEntry struct {
	failures    int
	lastFailure time.Time
}

// MemoryThrottle is the in-process RateLimiter: a mutex-guarded table keyed
// by normalized email. Entries decay lazily; there is no sweeper goroutine
// and the state does not survive a restart.
type MemoryThrottle struct {
	mu        sync.Mutex
	entries   map[string]*throttleEntry
	threshold int
	window    time.Duration
	now       func() time.Time
}

// NewMemoryThrottle creates a throttle with the default threshold and window.
func NewMemoryThrottle() *MemoryThrottle {
	return NewMemoryThrottleWithClock(time.Now)
}

// NewMemoryThrottleWithClock creates a throttle with an injected clock.
// Tests use this to simulate the cooldown elapsing.
func NewMemoryThrottleWithClock(now func() time.Time) *MemoryThrottle {
	return &MemoryThrottle{
		entries:   make(map[string]*throttleEntry),
		threshold: FailureThreshold,
		window:    CooldownWindow,
		now:       now,
	}
}

// Check reports whether an attempt may proceed. A lockout clears itself once
// the window has elapsed since the last failure; no external job is needed.
func (t *MemoryThrottle) Check(email string) Decision {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[email]
	if !ok {
		return Decision{Allowed: true}
	}

	elapsed := t.now().Sub(entry.lastFailure)
	if elapsed > t.window {
		// Stale entry: the count decays without being rewritten here;
		// the next failure restarts it at 1.
		return Decision{Allowed: true}
	}

	if entry.failures >= t.threshold {
		return Decision{Allowed: false, Wait: t.window - elapsed}
	}

	return Decision{Allowed: true}
}

// RecordFailure increments the failure count, restarting at 1 when the
// previous failure is older than the window.
func (t *MemoryThrottle) RecordFailure(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	entry, ok := t.entries[email]
	if !ok || now.Sub(entry.lastFailure) > t.window {
		t.entries[email] = &throttleEntry{failures: 1, lastFailure: now}
		return
	}

	entry.failures++
	entry.lastFailure = now
}

// RecordSuccess discards the entry for the email.
func (t *MemoryThrottle) RecordSuccess(email string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, email)
}

// Compile-time interface check.
var _ RateLimiter = (*MemoryThrottle)(nil)
