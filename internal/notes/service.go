// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

package notes

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/notarehq/notare/internal/platform/apperr"
	"github.com/notarehq/notare/internal/platform/sec"
	"github.com/notarehq/notare/internal/platform/validate"
	"github.com/notarehq/notare/pkg/pagination"
	"github.com/notarehq/notare/pkg/slug"
)

// CreateInput carries the note creation payload.
type CreateInput struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags"`
}

// UpdateInput carries a partial note update. Nil fields are left untouched.
type UpdateInput struct {
	Title *string   `json:"title"`
	Body  *string   `json:"body"`
	Tags  *[]string `json:"tags"`
}

// CreateTagInput carries the standalone tag creation payload.
type CreateTagInput struct {
	Name string `json:"name"`
}

// ListInput carries the listing filters accepted from the query string.
type ListInput struct {
	Tag    string
	Query  string
	Limit  int
	Offset int
}

// Service implements the note business logic.
//
// # Ownership
//
// Every operation takes the caller's resolved identity. Regular accounts only
// ever see their own notes; a foreign note behaves exactly like a missing one
// (404), so note IDs cannot be probed. Admin accounts bypass the owner scope.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService wires the note service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// Create makes a new note owned by the caller.
func (s *Service) Create(ctx context.Context, identity *sec.Identity, input CreateInput) (*Note, error) {
	input.Title = strings.TrimSpace(input.Title)

	v := &validate.Validator{}
	v.Required("title", input.Title).
		MaxLen("title", input.Title, MaxTitleLength)
	tags, tagErr := normalizeTags(input.Tags)
	v.Custom("tags", tagErr, "Tag names must not be empty")
	if err := v.Err(); err != nil {
		return nil, err
	}

	note := &Note{
		OwnerID: identity.ID,
		Title:   input.Title,
		Body:    input.Body,
		Tags:    tags,
	}

	if err := s.store.CreateNote(ctx, note); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "note_created",
		slog.Int64("note_id", note.ID),
		slog.String("owner_id", note.OwnerID),
	)

	return note, nil
}

// Get returns a single note visible to the caller.
func (s *Service) Get(ctx context.Context, identity *sec.Identity, id int64) (*Note, error) {
	return s.findVisible(ctx, identity, id)
}

// List returns the notes visible to the caller, filtered and paginated.
//
// The tag filter accepts any spelling that slugifies to the stored tag, so
// "Späte Nacht" and "spate-nacht" select the same notes.
func (s *Service) List(ctx context.Context, identity *sec.Identity, input ListInput) ([]*Note, error) {
	filter := Filter{
		Query:  strings.TrimSpace(input.Query),
		Limit:  input.Limit,
		Offset: input.Offset,
	}
	if tag := strings.TrimSpace(input.Tag); tag != "" {
		filter.TagSlug = slug.From(tag)
	}
	if !identity.IsAdmin() {
		filter.OwnerID = identity.ID
	}

	return s.store.ListNotes(ctx, filter)
}

// Update applies a partial update to a note visible to the caller.
func (s *Service) Update(ctx context.Context, identity *sec.Identity, id int64, input UpdateInput) (*Note, error) {
	note, err := s.findVisible(ctx, identity, id)
	if err != nil {
		return nil, err
	}

	v := &validate.Validator{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		v.Required("title", title).
			MaxLen("title", title, MaxTitleLength)
		note.Title = title
	}
	if input.Body != nil {
		note.Body = *input.Body
	}
	if input.Tags != nil {
		tags, tagErr := normalizeTags(*input.Tags)
		v.Custom("tags", tagErr, "Tag names must not be empty")
		note.Tags = tags
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	if err := s.store.UpdateNote(ctx, note); err != nil {
		return nil, err
	}

	return note, nil
}

// Delete removes a note visible to the caller.
func (s *Service) Delete(ctx context.Context, identity *sec.Identity, id int64) error {
	if _, err := s.findVisible(ctx, identity, id); err != nil {
		return err
	}

	if err := s.store.DeleteNote(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "note_deleted",
		slog.Int64("note_id", id),
		slog.String("account_id", identity.ID),
	)

	return nil
}

// CreateTag registers a standalone tag so it can be attached to notes later.
// Creating a tag that already exists returns the stored row unchanged.
func (s *Service) CreateTag(ctx context.Context, input CreateTagInput) (*Tag, error) {
	name := strings.TrimSpace(input.Name)

	v := &validate.Validator{}
	v.Required("name", name)
	v.Custom("name", name != "" && slug.From(name) == "", "Must contain at least one letter or digit")
	if err := v.Err(); err != nil {
		return nil, err
	}

	return s.store.EnsureTag(ctx, name, slug.From(name))
}

// ListTags returns a page of tags ordered by name.
func (s *Service) ListTags(ctx context.Context, page pagination.Params) ([]*Tag, error) {
	return s.store.ListTags(ctx, page.Limit, page.Offset)
}

// findVisible loads a note and enforces the ownership scope. A note owned by
// someone else is reported as NOT_FOUND, never as FORBIDDEN.
func (s *Service) findVisible(ctx context.Context, identity *sec.Identity, id int64) (*Note, error) {
	note, err := s.store.FindNote(ctx, id)
	if err != nil {
		return nil, err
	}

	if !identity.IsAdmin() && note.OwnerID != identity.ID {
		return nil, apperr.NotFound("Note")
	}

	return note, nil
}

// normalizeTags trims and deduplicates tag names, keeping the first spelling
// of each slug. It reports failure if any entry is blank.
func normalizeTags(raw []string) ([]string, bool) {
	seen := make(map[string]struct{}, len(raw))
	tags := make([]string, 0, len(raw))

	for _, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, true
		}
		key := slug.From(name)
		if key == "" {
			return nil, true
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		tags = append(tags, name)
	}

	sort.Strings(tags)
	return tags, false
}
