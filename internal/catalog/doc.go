// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

// Package catalog manages the item catalog: the records users publish,
// the ownership and role rules deciding who sees and edits what, and the
// photo attachments stored in a blob store.
//
// # Domain Types
//
//   - Item: a priced catalog record with an owner and an optional photo.
//   - ItemInput: the raw fields a create or update submits.
//
// # Services
//
//   - Service: visibility-scoped listing and owner-checked writes.
//
// Authorization is decided by the predicates in authz.go. Every write
// resolves existence before permission, so a missing record and a
// forbidden one are reported distinctly.
package catalog
