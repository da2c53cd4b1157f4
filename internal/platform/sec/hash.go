// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (password hashing, token
// signing, role hierarchy) from the domain logic. It acts as an
// Infrastructure service injected into the Application layer.
package sec

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// HashParams holds the Argon2id cost parameters embedded in every hash blob.
//
// # Tuning
//
// The defaults are deliberately expensive (256 MiB, 3 passes) to resist
// GPU-accelerated brute force. Tests inject cheap parameters instead of
// weakening the production defaults.
type HashParams struct {
	// MemoryKiB is the memory cost in KiB.
	MemoryKiB uint32
	// Time is the number of passes over memory.
	Time uint32
	// Parallelism is the number of threads used by the KDF.
	Parallelism uint8
	// SaltLength is the random salt size in bytes.
	SaltLength uint32
	// KeyLength is the derived key size in bytes.
	KeyLength uint32
}

// maxMemoryKiB bounds the memory cost accepted from a stored blob (1 GiB).
const maxMemoryKiB = 1024 * 1024

// DefaultHashParams is the production Argon2id configuration:
// 256 MiB memory, 3 iterations, single lane.
var DefaultHashParams = HashParams{
	MemoryKiB:   256 * 1024,
	Time:        3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hasher hashes and verifies passwords with Argon2id.
//
// It is a struct (not free functions) so that cost parameters can be injected
// in tests without touching production defaults.
type Hasher struct {
	params HashParams
}

// NewHasher creates a Hasher with the production [DefaultHashParams].
func NewHasher() *Hasher {
	return &Hasher{params: DefaultHashParams}
}

// NewHasherWithParams creates a Hasher with custom cost parameters.
// Intended for tests; production code uses [NewHasher].
func NewHasherWithParams(params HashParams) *Hasher {
	return &Hasher{params: params}
}

// Hash derives an Argon2id hash of the password and encodes it in the
// standard PHC string format:
//
//	$argon2id$v=19$m=262144,t=3,p=1$<salt-b64>$<key-b64>
//
// The cost parameters are embedded in the output, so verification is
// self-describing and remains correct after future parameter upgrades.
//
// It fails only if the OS random source cannot produce a salt.
func (h *Hasher) Hash(password string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("sec: failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.MemoryKiB,
		h.params.Time,
		h.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// Verify reports whether the password matches the encoded hash blob.
//
// It never returns an error: blobs that do not parse, were produced by a
// different algorithm, or were tampered with simply yield false. The derived
// key comparison is constant-time.
func (h *Hasher) Verify(password, encoded string) bool {
	params, salt, key, err := DecodeHash(encoded)
	if err != nil {
		return false
	}

	candidate := argon2.IDKey([]byte(password), salt, params.Time, params.MemoryKiB, params.Parallelism, uint32(len(key)))

	return subtle.ConstantTimeCompare(key, candidate) == 1
}

// DecodeHash parses a PHC-encoded Argon2id blob into its cost parameters,
// salt, and derived key.
//
// # Format
//
// The expected shape is "$argon2id$v=19$m=...,t=...,p=...$salt$key" with
// unpadded standard base64 for the salt and key segments.
func DecodeHash(encoded string) (HashParams, []byte, []byte, error) {
	var params HashParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return params, nil, nil, fmt.Errorf("sec: malformed argon2id hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return params, nil, nil, fmt.Errorf("sec: malformed argon2id version: %w", err)
	}
	if version != argon2.Version {
		return params, nil, nil, fmt.Errorf("sec: unsupported argon2id version %d", version)
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.MemoryKiB, &params.Time, &params.Parallelism); err != nil {
		return params, nil, nil, fmt.Errorf("sec: malformed argon2id parameters: %w", err)
	}
	// argon2.IDKey panics on zero cost parameters, so a tampered blob must be
	// rejected here. The memory ceiling caps what a stored blob can make a
	// single verification allocate.
	if params.Time < 1 || params.Parallelism < 1 {
		return params, nil, nil, fmt.Errorf("sec: argon2id cost parameters below minimum")
	}
	if params.MemoryKiB < 8*uint32(params.Parallelism) || params.MemoryKiB > maxMemoryKiB {
		return params, nil, nil, fmt.Errorf("sec: argon2id memory cost out of range")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return params, nil, nil, fmt.Errorf("sec: malformed argon2id salt: %w", err)
	}

	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return params, nil, nil, fmt.Errorf("sec: malformed argon2id key: %w", err)
	}

	params.SaltLength = uint32(len(salt))
	params.KeyLength = uint32(len(key))

	return params, salt, key, nil
}
