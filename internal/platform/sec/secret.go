// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

package sec

import (
	"errors"
	"sync/atomic"
)

// MinSecretLength is the minimum accepted signing secret length.
// Anything shorter is a fatal misconfiguration, not a per-request error.
const MinSecretLength = 8

var (
	// ErrSecretMissing indicates no signing secret has been provisioned.
	ErrSecretMissing = errors.New("sec: signing secret is not set")

	// ErrSecretTooShort indicates the provisioned secret is below [MinSecretLength].
	ErrSecretTooShort = errors.New("sec: signing secret is too short")
)

// SecretSource holds the process-wide token signing secret.
//
// # Rotation
//
// The secret is read by [TokenService] at call time, not cached at startup,
// so it can be rotated between calls without a restart. The value is stored
// in an [atomic.Value]: concurrent readers never observe a partially-updated
// secret.
type SecretSource struct {
	value atomic.Value // string
}

// NewSecretSource creates a SecretSource holding the initial secret.
// An empty initial value is allowed; [SecretSource.Get] will reject it later.
func NewSecretSource(secret string) *SecretSource {
	source := &SecretSource{}
	source.value.Store(secret)
	return source
}

// Get returns the current secret.
//
// It fails fast with [ErrSecretMissing] or [ErrSecretTooShort] so that token
// issuance and verification never silently proceed with a weak secret.
func (s *SecretSource) Get() (string, error) {
	secret, _ := s.value.Load().(string)

	if secret == "" {
		return "", ErrSecretMissing
	}
	if len(secret) < MinSecretLength {
		return "", ErrSecretTooShort
	}

	return secret, nil
}

// Rotate atomically replaces the signing secret.
//
// In-flight requests keep the secret they already read; subsequent calls
// observe the new value. Tokens signed with the previous secret stop
// verifying immediately.
func (s *SecretSource) Rotate(secret string) {
	s.value.Store(secret)
}
