// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

package accounts

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/notarehq/notare/internal/platform/apperr"
	"github.com/notarehq/notare/internal/platform/constants"
	"github.com/notarehq/notare/internal/platform/sec"
	"github.com/notarehq/notare/internal/platform/validate"
	"github.com/notarehq/notare/pkg/pagination"
	"github.com/notarehq/notare/pkg/uuidv7"
)

// RegisterInput carries the registration request payload.
type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput carries the login request payload.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenOutput is the successful login response body.
type TokenOutput struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Service implements the account business logic: registration, login,
// bearer-token resolution, and the administrative account listing.
type Service struct {
	store    Store
	throttle LoginThrottle
	hasher   *sec.Hasher
	tokens   *sec.TokenService
	tokenTTL time.Duration
	logger   *slog.Logger
}

// NewService wires the account service.
//
// tokenTTL is the lifetime of issued access tokens; non-positive values fall
// back to the token service default.
func NewService(
	store Store,
	throttle LoginThrottle,
	hasher *sec.Hasher,
	tokens *sec.TokenService,
	tokenTTL time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:    store,
		throttle: throttle,
		hasher:   hasher,
		tokens:   tokens,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// Register creates a new account with the default "user" role.
//
// # Errors
//   - VALIDATION_ERROR (422) for malformed email or out-of-bounds password.
//   - EMAIL_TAKEN (400) when the email is already registered.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Account, error) {
	input.Email = strings.TrimSpace(input.Email)

	v := &validate.Validator{}
	v.Required("email", input.Email)
	if input.Email != "" {
		v.Email("email", input.Email)
	}
	v.Required("password", input.Password).
		MinLen("password", input.Password, constants.PasswordMinLength).
		MaxLen("password", input.Password, constants.PasswordMaxLength)
	if err := v.Err(); err != nil {
		return nil, err
	}

	taken, err := s.store.Exists(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.EmailTaken()
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	account := &Account{
		ID:           uuidv7.New(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		Role:         sec.RoleUser,
	}

	if err := s.store.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account_registered",
		slog.String("account_id", account.ID),
	)

	return account, nil
}

// Login verifies credentials and issues a bearer token.
//
// # Errors
//   - VALIDATION_ERROR (422) for an empty or malformed payload.
//   - RATE_LIMITED (429) after too many consecutive failures for the email.
//   - INVALID_CREDENTIALS (401) for an unknown email or wrong password.
//     The two cases are deliberately indistinguishable.
func (s *Service) Login(ctx context.Context, input LoginInput) (*TokenOutput, error) {
	input.Email = strings.TrimSpace(input.Email)

	v := &validate.Validator{}
	v.Required("email", input.Email)
	if input.Email != "" {
		v.Email("email", input.Email)
	}
	v.Required("password", input.Password)
	if err := v.Err(); err != nil {
		return nil, err
	}

	if s.isThrottled(ctx, input.Email) {
		return nil, apperr.RateLimited("Too many failed login attempts, try again later")
	}

	account, err := s.store.FindByEmail(ctx, input.Email)
	if err != nil {
		if appError := apperr.As(err); appError != nil && appError.Code == apperr.CodeNotFound {
			s.recordFailure(ctx, input.Email)
			return nil, apperr.InvalidCredentials()
		}
		return nil, err
	}

	if !s.hasher.Verify(input.Password, account.PasswordHash) {
		s.recordFailure(ctx, input.Email)
		return nil, apperr.InvalidCredentials()
	}

	if err := s.throttle.Reset(ctx, input.Email); err != nil {
		s.logger.WarnContext(ctx, "login_throttle_reset_failed", slog.Any("error", err))
	}

	accessToken, err := s.tokens.Issue(account.Email, s.tokenTTL, map[string]any{
		"role": string(account.Role),
	}, "")
	if err != nil {
		return nil, apperr.Internal(err)
	}

	s.logger.InfoContext(ctx, "account_logged_in",
		slog.String("account_id", account.ID),
	)

	return &TokenOutput{
		AccessToken: accessToken,
		TokenType:   "bearer",
	}, nil
}

// Resolve turns a raw bearer token into the identity of a live account.
//
// Every failure — bad signature, expired token, account deleted since
// issuance — collapses into a single UNAUTHORIZED error so the middleware
// surface leaks nothing about which step rejected the credential.
func (s *Service) Resolve(ctx context.Context, rawToken string) (*sec.Identity, error) {
	claims, err := s.tokens.Verify(rawToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or missing token")
	}

	// Tokens assert who the caller WAS at issuance; the store load asserts
	// who they ARE now. Role changes and deletions take effect immediately.
	account, err := s.store.FindByEmail(ctx, claims.Subject)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or missing token")
	}

	return account.Identity(), nil
}

// ListAccounts returns a page of accounts for the admin surface.
func (s *Service) ListAccounts(ctx context.Context, page pagination.Params) ([]*Account, error) {
	return s.store.List(ctx, page.Limit, page.Offset)
}

// isThrottled reports whether the email has exhausted its failure budget.
// Throttle backend errors fail open: availability of login beats strictness
// of throttling.
func (s *Service) isThrottled(ctx context.Context, email string) bool {
	failures, err := s.throttle.Failures(ctx, email)
	if err != nil {
		s.logger.WarnContext(ctx, "login_throttle_read_failed", slog.Any("error", err))
		return false
	}

	return failures >= constants.LoginFailureLimit
}

func (s *Service) recordFailure(ctx context.Context, email string) {
	if err := s.throttle.RecordFailure(ctx, email); err != nil {
		s.logger.WarnContext(ctx, "login_throttle_record_failed", slog.Any("error", err))
	}
}
