// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/notarehq/notare/internal/platform/apperr"
	"github.com/notarehq/notare/internal/platform/constants"
	"github.com/notarehq/notare/internal/platform/ctxutil"
	"github.com/notarehq/notare/internal/platform/respond"
	"github.com/notarehq/notare/internal/platform/sec"
)

// IdentityResolver turns a raw bearer token into a resolved account identity.
//
// # Why an interface?
//
// Defining IdentityResolver here decouples the middleware from the accounts
// service implementation, allowing us to easily inject fakes during unit
// testing. The resolver is expected to verify the token AND re-load the
// account from the store (possession of a token is not proof the account
// still exists).
type IdentityResolver interface {
	Resolve(ctx context.Context, rawToken string) (*sec.Identity, error)
}

// Authenticate extracts and verifies the bearer token from the Authorization header.
//
// # Flow
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, request proceeds as anonymous ([RequireAuth] gates later).
//  3. If present, resolve it via [IdentityResolver].
//  4. Inject [*sec.Identity] into the request context for downstream use.
//
// Every resolution failure — malformed header, bad signature, expiry, missing
// secret, unknown subject — collapses into one 401 UNAUTHORIZED response so
// the endpoint cannot be used as an oracle.
func Authenticate(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or missing token"))
				return
			}

			// ── 3. Token Resolution ───────────────────────────────────────────
			identity, err := resolver.Resolve(request.Context(), parts[1])
			if err != nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or missing token"))
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			ctx := ctxutil.WithIdentity(request.Context(), identity)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// RequireAuth blocks requests that are not authenticated.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate].
//
// A missing credential yields the same 401 UNAUTHORIZED code as an invalid
// one — absence of a token is not a distinct error class.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		identity := ctxutil.GetIdentity(request.Context())
		if identity == nil {
			respond.Error(writer, request, apperr.Unauthorized("Invalid or missing token"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireRole blocks requests if the authenticated account doesn't hold the
// required role.
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate]. It automatically
// implies [RequireAuth] so you don't need to mount both.
//
// # Contract
//
// 401 (no/invalid credential) and 403 (valid credential, insufficient
// privilege) are never conflated.
func RequireRole(role sec.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			identity := ctxutil.GetIdentity(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────
			if identity == nil {
				respond.Error(writer, request, apperr.Unauthorized("Invalid or missing token"))
				return
			}

			// ── 2. Authorization Check ────────────────────────────────────────
			if !identity.Role.AtLeast(role) {
				respond.Error(writer, request, apperr.Forbidden("Insufficient permissions"))
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
