// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vitrina Contributors

// Package auth provides the authentication and session engine for Vitrina.
//
// # Domain Types
//
// Domain types (Account, Identity, Session) should be created using their
// respective constructors:
//   - NewAccount - creates an Account with validated email, name, and password hash
//   - NewSession - creates a Session with a fixed lifetime
//
// Direct struct initialization bypasses validation and may create invalid state.
// Repository implementations receive pre-validated types from these constructors.
//
// # Services
//
// Service is the facade the UI layer calls: Register, Login, Logout, Bootstrap,
// CurrentSession, SetRole, ListAccounts. It composes an AccountRepository, a
// PasswordHasher, a RateLimiter, and a session Issuer; all are interfaces so
// in-memory and external implementations are interchangeable.
//
// Login-attempt throttling is process-local state behind the RateLimiter
// interface. The MemoryThrottle implementation assumes a single serving
// instance; deployments with multiple instances must supply a shared
// implementation instead.
package auth
