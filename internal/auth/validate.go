// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package auth

import (
	"fmt"
	"regexp"
	"strings"
)

// Field validation constraints.
const (
	MinNameLength     = 2
	MaxNameLength     = 50
	MaxEmailLength    = 60
	MinPasswordLength = 6
)

// emailRegex accepts one non-whitespace local part, an @, and a domain with
// at least one dot. Anything stricter belongs to an email verification flow,
// not to input validation.
var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// sanitizeReplacer escapes the characters that would change meaning if a
// stored field were ever rendered unescaped.
var sanitizeReplacer = strings.NewReplacer(
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"/", "&#47;",
)

// Sanitize trims surrounding whitespace and HTML-escapes the five markup
// characters. It is applied to every free-text field before storage or
// comparison. Pure; safe to call repeatedly only on unescaped input.
func Sanitize(s string) string {
	return sanitizeReplacer.Replace(strings.TrimSpace(s))
}

// NormalizeEmail trims and lowercases an email address. All email keys
// (credential lookup, throttle entries, uniqueness) go through this first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that an email address is plausible.
func ValidateEmail(email string) error {
	if email == "" {
		return &ValidationError{Field: "email", Message: "cannot be empty"}
	}
	if len(email) > MaxEmailLength {
		return &ValidationError{Field: "email", Message: fmt.Sprintf("exceeds maximum length of %d", MaxEmailLength)}
	}
	if !emailRegex.MatchString(email) {
		return &ValidationError{Field: "email", Message: "is not a valid address"}
	}
	return nil
}

// ValidateName checks a display name. Callers sanitize first; the length
// limits apply to the sanitized form.
func ValidateName(name string) error {
	if len(name) < MinNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("must be at least %d characters", MinNameLength)}
	}
	if len(name) > MaxNameLength {
		return &ValidationError{Field: "name", Message: fmt.Sprintf("must be at most %d characters", MaxNameLength)}
	}
	return nil
}

// ValidatePassword checks a registration password. There is no upper bound
// here: the 15-character cap some login forms apply is a presentation
// constraint and must never reject or truncate a valid stored password.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return &ValidationError{Field: "password", Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength)}
	}
	return nil
}
