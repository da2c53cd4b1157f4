// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/notarehq/notare/internal/platform/apperr"
	"github.com/notarehq/notare/internal/platform/ctxutil"
	"github.com/notarehq/notare/internal/platform/sec"
	"github.com/notarehq/notare/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Request schemas are strict: a body carrying a field the target struct does
not declare is rejected as a validation failure naming the offending field.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON or an unknown-field validation error
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	decoder := json.NewDecoder(request.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		if field, ok := unknownField(err); ok {
			return validate.UnknownFieldError(field)
		}
		return validate.ErrInvalidJSON
	}
	return nil
}

// unknownField extracts the field name from encoding/json's unknown-field
// error. The stdlib exposes no typed error for this case, only the message
// `json: unknown field "name"`.
func unknownField(err error) (string, bool) {
	const prefix = `json: unknown field `
	msg := err.Error()
	if !strings.HasPrefix(msg, prefix) {
		return "", false
	}
	return strings.Trim(strings.TrimPrefix(msg, prefix), `"`), true
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Identity extracts the resolved account identity from the request context.

Returns nil if the request is not authenticated.
*/
func Identity(request *http.Request) *sec.Identity {
	return ctxutil.GetIdentity(request.Context())
}

/*
RequiredIdentity ensures the request is authenticated and returns the identity.

Returns:
  - *sec.Identity: The resolved account identity
  - error: apperr.Unauthorized if the request is not authenticated
*/
func RequiredIdentity(request *http.Request) (*sec.Identity, error) {

	identity := ctxutil.GetIdentity(request.Context())

	if identity == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return identity, nil
}
