// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package auth

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the categories the facade returns. Callers match them
// with errors.Is; the oops wrapping layered on top carries diagnostics only.
var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when registering an email that already
	// has an account. The mapping comes from the store's unique constraint,
	// not from a read-then-write check.
	ErrDuplicateEmail = errors.New("email already registered")

	// ErrInvalidCredentials is returned for both unknown-account and
	// wrong-password failures. The message is deliberately shared so login
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrPermissionDenied is returned when an identity lacks the role or
	// ownership an operation requires.
	ErrPermissionDenied = errors.New("permission denied")
)

// ThrottledError reports a login attempt rejected before any credential
// check because the account's failure budget is exhausted.
type ThrottledError struct {
	Wait time.Duration
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %d minute(s)", e.WaitMinutes())
}

// WaitMinutes returns the remaining cooldown in minutes, rounded up.
// Always at least 1 while the throttle is active.
func (e *ThrottledError) WaitMinutes() int {
	m := int((e.Wait + time.Minute - 1) / time.Minute)
	if m < 1 {
		m = 1
	}
	return m
}

// ValidationError represents an input validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
