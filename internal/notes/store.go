// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

package notes

import (
	"context"
)

// Filter narrows a note listing.
//
// A zero OwnerID means "all owners" and is reserved for admin callers; the
// service fills it in for regular accounts before the store ever sees the
// request.
type Filter struct {
	// OwnerID restricts results to one account when non-empty.
	OwnerID string
	// TagSlug restricts results to notes carrying the tag with this slug.
	TagSlug string
	// Query restricts results to notes whose title or content contains the
	// term, case-insensitively.
	Query string

	Limit  int
	Offset int
}

// Store defines the data access contract for notes and tags.
type Store interface {
	// CreateNote persists the note and links its tags, creating missing tags
	// on the fly. ID and timestamps are filled in on return.
	CreateNote(ctx context.Context, note *Note) error

	// FindNote returns the note with the given ID regardless of owner.
	//
	// Returns [apperr.NotFound] if it does not exist. Ownership checks are
	// the service's job.
	FindNote(ctx context.Context, id int64) (*Note, error)

	// ListNotes returns notes matching the filter, newest first.
	ListNotes(ctx context.Context, filter Filter) ([]*Note, error)

	// UpdateNote persists the note's title, content, and tag set.
	//
	// Returns [apperr.NotFound] if the note no longer exists.
	UpdateNote(ctx context.Context, note *Note) error

	// DeleteNote removes the note and its tag links.
	//
	// Returns [apperr.NotFound] if the note does not exist.
	DeleteNote(ctx context.Context, id int64) error

	// EnsureTag creates the tag if no tag with the slug exists yet and
	// returns the stored row either way.
	EnsureTag(ctx context.Context, name, slug string) (*Tag, error)

	// ListTags returns a page of tags ordered by name.
	ListTags(ctx context.Context, limit, offset int) ([]*Tag, error)
}
