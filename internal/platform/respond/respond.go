// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

// Package respond provides HTTP response helpers used by all API handlers.
//
// # Architecture
//
// This package centralizes the presentation logic for HTTP responses.
// Success payloads are written exactly as the API contract shows them (bare
// JSON objects and arrays); every failure is rendered as an RFC 7807 problem
// envelope by the [problem] package. Handlers never construct error bodies
// themselves.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/notarehq/notare/internal/platform/apperr"
	"github.com/notarehq/notare/internal/platform/ctxutil"
	"github.com/notarehq/notare/internal/platform/problem"
)

// JSON writes a JSON response with the given status code.
func JSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

// OK writes a 200 OK response with the payload as-is.
func OK(writer http.ResponseWriter, payload interface{}) {
	JSON(writer, http.StatusOK, payload)
}

// NoContent writes a 204 No Content response.
func NoContent(writer http.ResponseWriter) {
	writer.WriteHeader(http.StatusNoContent)
}

// Error converts any Go error into a problem-details response.
//
// This is the single choke point between typed application failures and the
// wire. Errors that are not an [*apperr.AppError] are treated as unexpected:
// their text is logged server-side and the client receives a sanitized
// INTERNAL_ERROR envelope.
func Error(writer http.ResponseWriter, request *http.Request, err error) {
	var appError *apperr.AppError
	if !errors.As(err, &appError) {
		logger := ctxutil.GetLogger(request.Context())
		logger.ErrorContext(request.Context(), "unhandled_error",
			slog.String("error", err.Error()),
			slog.String("correlation_id", ctxutil.GetCorrelationID(request.Context())),
		)
		appError = apperr.Internal(err)
	}

	// Always log 5xx errors as they indicate server-side issues.
	if appError.HTTPStatus >= 500 {
		logger := ctxutil.GetLogger(request.Context())
		logger.ErrorContext(request.Context(), "api_server_error",
			slog.String("code", appError.Code),
			slog.String("correlation_id", ctxutil.GetCorrelationID(request.Context())),
			slog.Any("cause", appError.Cause),
		)
	}

	problem.Write(writer, problem.FromAppError(request, appError))
}
