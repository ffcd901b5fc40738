// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

package catalog

import (
	"github.com/oklog/ulid/v2"

	"github.com/vitrina/vitrina/internal/auth"
)

// Scope is the slice of the catalog an identity may read.
type Scope int

const (
	// ScopeAll covers every item. Anonymous readers and admins get this:
	// the catalog is public to browse, and admins manage all of it.
	ScopeAll Scope = iota

	// ScopeOwn covers only the identity's own items. Signed-in users
	// manage their own listings.
	ScopeOwn
)

// CanCreate reports whether the identity may create items. Creation
// requires authentication; ownership is forced from the identity, never
// taken from input.
func CanCreate(identity *auth.Identity) bool {
	return identity != nil
}

// Visibility returns the read scope for an identity. A nil identity is an
// anonymous reader.
func Visibility(identity *auth.Identity) Scope {
	if identity == nil || identity.IsAdmin() {
		return ScopeAll
	}
	return ScopeOwn
}

// CanModify reports whether the identity may update or delete an item
// owned by ownerID. Admins may modify anything; users only their own.
// Callers resolve existence first so a missing item never reports as
// a permission failure.
func CanModify(identity *auth.Identity, ownerID ulid.ULID) bool {
	if identity == nil {
		return false
	}
	return identity.IsAdmin() || identity.ID == ownerID
}
