// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

package accounts

import (
	"context"
)

// Store defines the data access contract for accounts.
//
// # Review Process
//
// This interface is placed in a separate file from account.go so entity
// changes and storage-contract changes can be reviewed independently.
//
// # Implementations
//
// The canonical implementation is PostgreSQL ([PostgresStore]); tests use
// in-memory fakes.
type Store interface {
	// FindByEmail returns the account registered with the given email.
	//
	// Returns [apperr.NotFound] if no account matches.
	FindByEmail(ctx context.Context, email string) (*Account, error)

	// FindByID returns the account with the given ID.
	//
	// Returns [apperr.NotFound] if the account does not exist.
	FindByID(ctx context.Context, id string) (*Account, error)

	// Exists reports whether an account is registered with the given email.
	Exists(ctx context.Context, email string) (bool, error)

	// Create persists a brand-new account.
	//
	// Returns [apperr.EmailTaken] if the unique email constraint fails.
	Create(ctx context.Context, account *Account) error

	// List returns accounts ordered by creation time, newest first.
	List(ctx context.Context, limit, offset int) ([]*Account, error)
}

// LoginThrottle tracks consecutive failed login attempts per email.
//
// # Domain Ownership
//
// Kept alongside [Store] because throttling state is owned entirely by the
// accounts domain, despite living in volatile storage.
type LoginThrottle interface {
	// Failures returns the current failed-attempt count for the email.
	Failures(ctx context.Context, email string) (int64, error)

	// RecordFailure increments the failed-attempt count, (re)arming the
	// expiry window.
	RecordFailure(ctx context.Context, email string) error

	// Reset clears the failed-attempt count after a successful login.
	Reset(ctx context.Context, email string) error
}
