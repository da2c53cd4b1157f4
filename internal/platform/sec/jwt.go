// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by [TokenService.Verify] for every token-level
// failure: bad signature, malformed payload, unexpected algorithm, or expiry.
//
// # Why a single error?
//
// Callers in the authentication path must not be able to distinguish WHY a
// token was rejected, otherwise the API becomes an oracle for forging
// attempts. Configuration failures ([ErrSecretMissing], [ErrSecretTooShort])
// stay separate because they indicate an operator problem, not a client one.
var ErrInvalidToken = errors.New("sec: invalid token")

// ErrReservedClaim is returned by [TokenService.Issue] when caller-supplied
// extra claims would overwrite the reserved sub/iat/exp claims.
var ErrReservedClaim = errors.New("sec: extra claim collides with a reserved claim")

// reservedClaims are the registered claims managed exclusively by Issue.
var reservedClaims = map[string]struct{}{
	"sub": {},
	"iat": {},
	"exp": {},
}

// Claims is the verified payload of an access token.
type Claims struct {
	// Subject is the account identifier (email) the token was issued for.
	Subject string
	// IssuedAt is the instant the token was signed.
	IssuedAt time.Time
	// ExpiresAt is the instant after which verification fails.
	ExpiresAt time.Time
	// KeyID is the optional "kid" header carried by the token.
	KeyID string
	// Extra holds all non-reserved claims embedded at issuance.
	Extra map[string]any
}

// TokenService issues and verifies HS256-signed, time-limited bearer tokens.
//
// # Secret Policy
//
// The signing secret is obtained from the [SecretSource] at call time, which
// makes secret rotation effective without a restart. Issue and Verify both
// fail fast when the secret is missing or weak.
type TokenService struct {
	secrets    *SecretSource
	defaultTTL time.Duration
	now        func() time.Time
}

// DefaultTokenTTL is used when the service is constructed with a
// non-positive TTL and the caller does not override per call.
const DefaultTokenTTL = time.Hour

// NewTokenService creates a TokenService reading secrets from source.
//
// defaultTTL is the token lifetime used when [TokenService.Issue] is called
// with a non-positive ttl; pass zero to fall back to [DefaultTokenTTL].
func NewTokenService(source *SecretSource, defaultTTL time.Duration) *TokenService {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTokenTTL
	}
	return &TokenService{
		secrets:    source,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// NewTokenServiceWithClock creates a TokenService with an injected clock.
// Intended for tests that need deterministic expiry behavior.
func NewTokenServiceWithClock(source *SecretSource, defaultTTL time.Duration, now func() time.Time) *TokenService {
	service := NewTokenService(source, defaultTTL)
	service.now = now
	return service
}

// Issue creates a signed token for the subject.
//
// # Parameters
//   - subject: The account identifier embedded as the "sub" claim.
//   - ttl: Token lifetime; non-positive values fall back to the default TTL.
//   - extraClaims: Optional additional claims merged into the payload.
//     Keys colliding with sub/iat/exp are rejected with [ErrReservedClaim].
//   - keyID: Optional "kid" header value for key identification.
func (service *TokenService) Issue(subject string, ttl time.Duration, extraClaims map[string]any, keyID string) (string, error) {
	secret, err := service.secrets.Get()
	if err != nil {
		return "", err
	}

	if ttl <= 0 {
		ttl = service.defaultTTL
	}

	currentTime := service.now()
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": jwt.NewNumericDate(currentTime),
		"exp": jwt.NewNumericDate(currentTime.Add(ttl)),
	}

	for name, value := range extraClaims {
		if _, reserved := reservedClaims[name]; reserved {
			return "", fmt.Errorf("%w: %q", ErrReservedClaim, name)
		}
		claims[name] = value
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if keyID != "" {
		token.Header["kid"] = keyID
	}

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify checks the signature and validity of a token string.
//
// Every token-level failure collapses into [ErrInvalidToken]. Expiry is
// checked against the service clock with no leeway.
func (service *TokenService) Verify(tokenString string) (*Claims, error) {
	secret, err := service.secrets.Get()
	if err != nil {
		return nil, err
	}

	parsed, err := jwt.Parse(tokenString,
		func(token *jwt.Token) (interface{}, error) {
			// HS256 only. Accepting "none" or an asymmetric algorithm here
			// would let a client forge tokens.
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(service.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	subject, err := mapClaims.GetSubject()
	if err != nil || subject == "" {
		return nil, ErrInvalidToken
	}

	issuedAt, err := mapClaims.GetIssuedAt()
	if err != nil || issuedAt == nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := mapClaims.GetExpirationTime()
	if err != nil || expiresAt == nil {
		return nil, ErrInvalidToken
	}

	claims := &Claims{
		Subject:   subject,
		IssuedAt:  issuedAt.Time,
		ExpiresAt: expiresAt.Time,
		Extra:     make(map[string]any),
	}

	if kid, ok := parsed.Header["kid"].(string); ok {
		claims.KeyID = kid
	}

	for name, value := range mapClaims {
		if _, reserved := reservedClaims[name]; reserved {
			continue
		}
		claims.Extra[name] = value
	}

	return claims, nil
}
