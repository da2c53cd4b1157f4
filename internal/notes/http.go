// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

package notes

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/notarehq/notare/internal/platform/request"
	"github.com/notarehq/notare/internal/platform/respond"
	"github.com/notarehq/notare/internal/platform/validate"
	"github.com/notarehq/notare/pkg/pagination"
)

// Handler exposes the note service over HTTP.
type Handler struct {
	service *Service
}

// NewHandler creates the HTTP handler for the notes domain.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// NoteRoutes mounts the note endpoints. All of them require authentication;
// the caller mounts them behind the auth middleware.
//
//	GET    /
//	POST   /
//	GET    /{noteID}
//	PATCH  /{noteID}
//	DELETE /{noteID}
func (h *Handler) NoteRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", h.list)
	router.Post("/", h.create)
	router.Get("/{noteID}", h.get)
	router.Patch("/{noteID}", h.update)
	router.Delete("/{noteID}", h.delete)

	return router
}

// TagRoutes mounts the tag endpoints, also auth-only.
//
//	GET  /
//	POST /
func (h *Handler) TagRoutes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", h.listTags)
	router.Post("/", h.createTag)

	return router
}

// list handles GET /api/v1/notes.
func (h *Handler) list(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	page := pagination.FromRequest(request)
	input := ListInput{
		Tag:    request.URL.Query().Get("tag"),
		Query:  request.URL.Query().Get("q"),
		Limit:  page.Limit,
		Offset: page.Offset,
	}

	result, err := h.service.List(request.Context(), identity, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

// create handles POST /api/v1/notes.
func (h *Handler) create(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	note, err := h.service.Create(request.Context(), identity, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, note)
}

// get handles GET /api/v1/notes/{noteID}.
func (h *Handler) get(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	noteID, err := parseNoteID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	note, err := h.service.Get(request.Context(), identity, noteID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, note)
}

// update handles PATCH /api/v1/notes/{noteID}.
func (h *Handler) update(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	noteID, err := parseNoteID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input UpdateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	note, err := h.service.Update(request.Context(), identity, noteID, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, note)
}

// delete handles DELETE /api/v1/notes/{noteID}.
func (h *Handler) delete(writer http.ResponseWriter, request *http.Request) {
	identity, err := requestutil.RequiredIdentity(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	noteID, err := parseNoteID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := h.service.Delete(request.Context(), identity, noteID); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

// listTags handles GET /api/v1/tags.
func (h *Handler) listTags(writer http.ResponseWriter, request *http.Request) {
	tags, err := h.service.ListTags(request.Context(), pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, tags)
}

// createTag handles POST /api/v1/tags.
func (h *Handler) createTag(writer http.ResponseWriter, request *http.Request) {
	var input CreateTagInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	tag, err := h.service.CreateTag(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, tag)
}

// parseNoteID extracts the numeric note ID from the URL.
func parseNoteID(request *http.Request) (int64, error) {
	raw := requestutil.Param(request, "noteID")

	noteID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, validate.RequiredError("noteID", "Must be an integer")
	}

	return noteID, nil
}
