// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

package accounts

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/notarehq/notare/internal/platform/request"
	"github.com/notarehq/notare/internal/platform/respond"
	"github.com/notarehq/notare/pkg/pagination"
)

// Handler exposes the account service over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates the HTTP handler for the accounts domain.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the public authentication endpoints.
//
//	POST /register
//	POST /login
func (h *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/register", h.register)
	router.Post("/login", h.login)

	return router
}

// AdminRoutes mounts the administrative endpoints. The caller is responsible
// for guarding them with the admin-role middleware.
//
//	GET /users
func (h *Handler) AdminRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/users", h.listAccounts)

	return router
}

// register handles POST /api/v1/auth/register.
func (h *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input RegisterInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	account, err := h.service.Register(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, account)
}

// login handles POST /api/v1/auth/login.
func (h *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input LoginInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	token, err := h.service.Login(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, token)
}

// listAccounts handles GET /api/v1/admin/users.
func (h *Handler) listAccounts(writer http.ResponseWriter, request *http.Request) {
	page := pagination.FromRequest(request)

	accounts, err := h.service.ListAccounts(request.Context(), page)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, accounts)
}
