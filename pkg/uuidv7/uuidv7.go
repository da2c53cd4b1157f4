// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

// Package uuidv7 wraps google/uuid to generate time-ordered UUIDv7 values.
//
// # Why UUIDv7?
//
// It is used for account primary keys and request correlation identifiers.
// Because it is time-sortable, it keeps the PostgreSQL account index compact
// and makes correlation ids in logs naturally ordered by arrival time.
package uuidv7

import "github.com/google/uuid"

// New generates a new UUIDv7 string.
//
// # Safety
//
// It panics only if the OS random source is unavailable (extremely rare).
// This is acceptable as OS entropy failure is an unrecoverable system-level error.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		panic("uuidv7: failed to generate UUID: " + err.Error())
	}

	return id.String()
}
