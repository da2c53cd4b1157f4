// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

// Package accounts implements registration, login, and identity resolution
// for Notare accounts.
//
// # Architecture
//
// The package follows the entity / store-contract / store / service / handler
// split. The Account entity has no dependencies on outer layers; stores
// implement the contracts defined here; the service orchestrates hashing,
// token issuance, and throttling; the handler is pure HTTP glue.
package accounts

import (
	"time"

	"github.com/notarehq/notare/internal/platform/sec"
)

// Account represents a registered Notare account.
//
// # Rules
//   - Email is unique and case-sensitive; it doubles as the token subject.
//   - PasswordHash is generated exclusively via the Argon2id [sec.Hasher].
//   - Role is assigned at registration and immutable through the API surface.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	Role         sec.Role  `json:"role"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// Identity returns the request-scoped identity view of the account.
func (a *Account) Identity() *sec.Identity {
	return &sec.Identity{
		ID:    a.ID,
		Email: a.Email,
		Role:  a.Role,
	}
}
