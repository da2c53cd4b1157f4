// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/notarehq/notare/internal/platform/ctxkey"
	"github.com/notarehq/notare/internal/platform/sec"
)

// # Request Correlation

// WithCorrelationID returns a new context with the provided correlation ID attached.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyCorrelationID, id)
}

// GetCorrelationID retrieves the correlation ID from the context.
// Returns an empty string if not found.
func GetCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyCorrelationID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithIdentity returns a new context with the resolved account identity attached.
func WithIdentity(ctx context.Context, identity *sec.Identity) context.Context {
	return context.WithValue(ctx, ctxkey.KeyAccount, identity)
}

// GetIdentity retrieves the [*sec.Identity] from the [context.Context].
// Returns nil for anonymous requests.
func GetIdentity(ctx context.Context) *sec.Identity {
	identity, ok := ctx.Value(ctxkey.KeyAccount).(*sec.Identity)
	if !ok {
		return nil
	}
	return identity
}
