// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

/*
Package problem renders RFC 7807 "problem details" error envelopes.

Every HTTP error response (4xx/5xx) produced by the API carries exactly one
of these envelopes, with a stable field set and a per-request correlation
identifier. Handlers never build error bodies themselves; they raise
[apperr.AppError] values and the respond boundary converts them here.

Envelope shape (Content-Type: application/problem+json):

	{type, title, status, detail, instance, correlation_id, code, message, details}
*/
package problem

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/notarehq/notare/internal/platform/apperr"
	"github.com/notarehq/notare/internal/platform/ctxutil"
)

// MediaType is the Content-Type for problem responses.
const MediaType = "application/problem+json"

// TypeBlank is the default problem type URI. Error families that gain a
// documented URI later can override it without changing the envelope shape.
const TypeBlank = "about:blank"

// Details is the canonical error envelope.
//
// Immutable once constructed; one instance per failed request.
type Details struct {
	// Type is a URI identifying the problem family.
	Type string `json:"type"`
	// Title is a short, human-readable summary of the status.
	Title string `json:"title"`
	// Status is the HTTP status code, duplicated in the body.
	Status int `json:"status"`
	// Detail is a human-readable explanation specific to this occurrence.
	Detail string `json:"detail"`
	// Instance is the full URI of the request that failed.
	Instance string `json:"instance"`
	// CorrelationID is the identifier generated for this request.
	CorrelationID string `json:"correlation_id"`
	// Code is the machine-readable taxonomy token.
	Code string `json:"code"`
	// Message is the client-safe error message.
	Message string `json:"message"`
	// Extra is a structured mapping with additional context
	// (e.g. {"errors": [...]} for validation failures). Never nil.
	Extra map[string]any `json:"details"`
}

// Build constructs a [Details] envelope from its parts.
//
// A nil extra mapping is replaced with an empty one so the JSON body always
// contains a "details" object.
func Build(status int, title, detail, code, correlationID, instance string, extra map[string]any) Details {
	if extra == nil {
		extra = map[string]any{}
	}

	return Details{
		Type:          TypeBlank,
		Title:         title,
		Status:        status,
		Detail:        detail,
		Instance:      instance,
		CorrelationID: correlationID,
		Code:          code,
		Message:       detail,
		Extra:         extra,
	}
}

// FromAppError converts a typed application error into an envelope,
// pulling the correlation id from the request context and the instance URI
// from the request itself.
func FromAppError(request *http.Request, appError *apperr.AppError) Details {
	title := http.StatusText(appError.HTTPStatus)

	detail := appError.Message
	extra := map[string]any{}

	// Validation failures surface the first offending field in the detail
	// text and the full structured list under details.errors.
	if len(appError.Details) > 0 {
		first := appError.Details[0]
		detail = fmt.Sprintf("%s: %s", first.Field, first.Message)
		extra["errors"] = appError.Details
	}

	envelope := Build(
		appError.HTTPStatus,
		title,
		detail,
		appError.Code,
		ctxutil.GetCorrelationID(request.Context()),
		InstanceURI(request),
		extra,
	)
	envelope.Message = appError.Message

	return envelope
}

// Write serializes the envelope with the problem media type.
func Write(writer http.ResponseWriter, envelope Details) {
	writer.Header().Set("Content-Type", MediaType)
	writer.WriteHeader(envelope.Status)
	_ = json.NewEncoder(writer).Encode(envelope)
}

// InstanceURI reconstructs the full URI of the request being served.
func InstanceURI(request *http.Request) string {
	scheme := "http"
	if request.TLS != nil {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s%s", scheme, request.Host, request.URL.RequestURI())
}
