// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notarehq/notare/internal/platform/sec"
)

func newTokenService(secret string) (*sec.TokenService, *sec.SecretSource) {
	source := sec.NewSecretSource(secret)
	return sec.NewTokenService(source, time.Hour), source
}

/*
TestToken_IssueAndVerify verifies the happy path: a freshly issued token
verifies and carries subject, timestamps, and extra claims.
*/
func TestToken_IssueAndVerify(t *testing.T) {
	service, _ := newTokenService("strong-test-secret")

	token, err := service.Issue("alice@example.com", time.Hour, map[string]any{"role": "user"}, "")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := service.Verify(token)
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", claims.Subject)
	assert.Equal(t, "user", claims.Extra["role"])
	assert.False(t, claims.IssuedAt.IsZero())
	assert.WithinDuration(t, claims.IssuedAt.Add(time.Hour), claims.ExpiresAt, time.Second)
}

/*
TestToken_Expiry verifies expiry behavior around the boundary with an
injected clock: valid one second before expiry, rejected one second after.
*/
func TestToken_Expiry(t *testing.T) {
	issuedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	currentTime := issuedAt
	source := sec.NewSecretSource("strong-test-secret")
	service := sec.NewTokenServiceWithClock(source, time.Hour, func() time.Time { return currentTime })

	token, err := service.Issue("alice@example.com", time.Hour, nil, "")
	require.NoError(t, err)

	// 1. One second before expiry: still valid
	currentTime = issuedAt.Add(time.Hour - time.Second)
	_, err = service.Verify(token)
	assert.NoError(t, err)

	// 2. One second after expiry: rejected as an invalid token
	currentTime = issuedAt.Add(time.Hour + time.Second)
	_, err = service.Verify(token)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)
}

/*
TestToken_DefaultTTL verifies that a non-positive per-call TTL falls back to
the service default.
*/
func TestToken_DefaultTTL(t *testing.T) {
	source := sec.NewSecretSource("strong-test-secret")
	service := sec.NewTokenService(source, 30*time.Minute)

	token, err := service.Issue("alice@example.com", 0, nil, "")
	require.NoError(t, err)

	claims, err := service.Verify(token)
	require.NoError(t, err)
	assert.WithinDuration(t, claims.IssuedAt.Add(30*time.Minute), claims.ExpiresAt, time.Second)
}

/*
TestToken_VerifyRejectsGarbage verifies that malformed and tampered inputs
all collapse into ErrInvalidToken.
*/
func TestToken_VerifyRejectsGarbage(t *testing.T) {
	service, _ := newTokenService("strong-test-secret")

	good, err := service.Issue("alice@example.com", time.Hour, nil, "")
	require.NoError(t, err)

	inputs := []string{
		"",
		"not-a-token",
		"a.b.c",
		good + "tampered",
		// Signed with a different secret.
		func() string {
			other, _ := newTokenService("a-completely-different-secret")
			token, err := other.Issue("alice@example.com", time.Hour, nil, "")
			require.NoError(t, err)
			return token
		}(),
	}

	for _, input := range inputs {
		_, err := service.Verify(input)
		assert.ErrorIs(t, err, sec.ErrInvalidToken, "input %q", input)
	}
}

/*
TestToken_SecretPolicy verifies that a missing or under-length secret fails
with a configuration error distinct from token-level failures.
*/
func TestToken_SecretPolicy(t *testing.T) {
	// 1. Missing secret
	service, _ := newTokenService("")
	_, err := service.Issue("alice@example.com", time.Hour, nil, "")
	assert.ErrorIs(t, err, sec.ErrSecretMissing)
	_, err = service.Verify("anything")
	assert.ErrorIs(t, err, sec.ErrSecretMissing)

	// 2. Secret below the minimum length
	service, _ = newTokenService("short")
	_, err = service.Issue("alice@example.com", time.Hour, nil, "")
	assert.ErrorIs(t, err, sec.ErrSecretTooShort)
	_, err = service.Verify("anything")
	assert.ErrorIs(t, err, sec.ErrSecretTooShort)
}

/*
TestToken_SecretRotation verifies that rotation takes effect at call time:
tokens signed before a rotation stop verifying, new tokens verify.
*/
func TestToken_SecretRotation(t *testing.T) {
	service, source := newTokenService("original-secret")

	oldToken, err := service.Issue("alice@example.com", time.Hour, nil, "")
	require.NoError(t, err)

	source.Rotate("replacement-secret")

	// 1. The old token no longer verifies
	_, err = service.Verify(oldToken)
	assert.ErrorIs(t, err, sec.ErrInvalidToken)

	// 2. A token issued after rotation verifies fine
	newToken, err := service.Issue("alice@example.com", time.Hour, nil, "")
	require.NoError(t, err)
	_, err = service.Verify(newToken)
	assert.NoError(t, err)
}

/*
TestToken_ReservedClaims verifies that extra claims cannot overwrite the
reserved sub/iat/exp claims.
*/
func TestToken_ReservedClaims(t *testing.T) {
	service, _ := newTokenService("strong-test-secret")

	for _, reserved := range []string{"sub", "iat", "exp"} {
		_, err := service.Issue("alice@example.com", time.Hour, map[string]any{reserved: "spoofed"}, "")
		assert.ErrorIs(t, err, sec.ErrReservedClaim, "claim %q", reserved)
	}
}

/*
TestToken_KeyID verifies that the optional kid header survives the roundtrip.
*/
func TestToken_KeyID(t *testing.T) {
	service, _ := newTokenService("strong-test-secret")

	token, err := service.Issue("alice@example.com", time.Hour, nil, "2026-08")
	require.NoError(t, err)

	claims, err := service.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "2026-08", claims.KeyID)
}

/*
TestToken_IssuancesDiffer verifies that two tokens for the same subject are
distinct strings (iat granularity aside, a shared token would defeat audit
trails) while both verifying.
*/
func TestToken_IssuancesDiffer(t *testing.T) {
	issuedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	source := sec.NewSecretSource("strong-test-secret")
	service := sec.NewTokenServiceWithClock(source, time.Hour, func() time.Time {
		tick++
		return issuedAt.Add(time.Duration(tick) * time.Second)
	})

	first, err := service.Issue("alice@example.com", time.Hour, nil, "")
	require.NoError(t, err)
	second, err := service.Issue("alice@example.com", time.Hour, nil, "")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)

	_, err = service.Verify(first)
	assert.NoError(t, err)
	_, err = service.Verify(second)
	assert.NoError(t, err)
}
