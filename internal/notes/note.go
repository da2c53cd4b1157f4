// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

// Package notes implements the note-taking core of Notare: per-account notes
// with free-form tags, full-text-ish search, and strict ownership scoping.
package notes

import (
	"time"
)

// Note is a single note owned by exactly one account.
//
// Tags carries the display names of the attached tags, alphabetically sorted.
// The join rows behind it are managed by the store; the entity only ever sees
// names.
type Note struct {
	ID        int64     `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tag is a shared label attachable to any number of notes.
//
// The slug is derived from the name and unique across the system; two names
// that slugify identically ("Späte Nacht" / "spate nacht") are the same tag.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// MaxTitleLength bounds the note title at creation and update.
const MaxTitleLength = 200
