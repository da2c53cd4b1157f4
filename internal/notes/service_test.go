// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

package notes

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notarehq/notare/internal/platform/apperr"
	"github.com/notarehq/notare/internal/platform/sec"
	"github.com/notarehq/notare/pkg/pagination"
	"github.com/notarehq/notare/pkg/slug"
)

// memoryStore is an in-memory Store for tests.
type memoryStore struct {
	nextNoteID int64
	nextTagID  int64
	notes      map[int64]*Note
	tags       map[string]*Tag // keyed by slug
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		notes: make(map[int64]*Note),
		tags:  make(map[string]*Tag),
	}
}

func (m *memoryStore) CreateNote(_ context.Context, note *Note) error {
	m.nextNoteID++
	note.ID = m.nextNoteID
	note.CreatedAt = time.Now().Add(time.Duration(m.nextNoteID) * time.Millisecond)
	note.UpdatedAt = note.CreatedAt

	for _, name := range note.Tags {
		m.ensure(name)
	}

	stored := *note
	m.notes[note.ID] = &stored
	return nil
}

func (m *memoryStore) FindNote(_ context.Context, id int64) (*Note, error) {
	note, ok := m.notes[id]
	if !ok {
		return nil, apperr.NotFound("Note")
	}
	found := *note
	return &found, nil
}

func (m *memoryStore) ListNotes(_ context.Context, filter Filter) ([]*Note, error) {
	matched := make([]*Note, 0)
	for _, note := range m.notes {
		if filter.OwnerID != "" && note.OwnerID != filter.OwnerID {
			continue
		}
		if filter.TagSlug != "" && !m.hasTag(note, filter.TagSlug) {
			continue
		}
		if filter.Query != "" && !containsFold(note.Title, filter.Query) && !containsFold(note.Body, filter.Query) {
			continue
		}
		matched = append(matched, note)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	if filter.Offset >= len(matched) {
		return []*Note{}, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

func (m *memoryStore) UpdateNote(_ context.Context, note *Note) error {
	if _, ok := m.notes[note.ID]; !ok {
		return apperr.NotFound("Note")
	}
	for _, name := range note.Tags {
		m.ensure(name)
	}
	note.UpdatedAt = time.Now()
	stored := *note
	m.notes[note.ID] = &stored
	return nil
}

func (m *memoryStore) DeleteNote(_ context.Context, id int64) error {
	if _, ok := m.notes[id]; !ok {
		return apperr.NotFound("Note")
	}
	delete(m.notes, id)
	return nil
}

func (m *memoryStore) EnsureTag(_ context.Context, name, slugValue string) (*Tag, error) {
	if tag, ok := m.tags[slugValue]; ok {
		return tag, nil
	}
	m.nextTagID++
	tag := &Tag{ID: m.nextTagID, Name: name, Slug: slugValue}
	m.tags[slugValue] = tag
	return tag, nil
}

func (m *memoryStore) ListTags(_ context.Context, limit, offset int) ([]*Tag, error) {
	all := make([]*Tag, 0, len(m.tags))
	for _, tag := range m.tags {
		all = append(all, tag)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })

	if offset >= len(all) {
		return []*Tag{}, nil
	}
	all = all[offset:]
	if limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *memoryStore) ensure(name string) {
	_, _ = m.EnsureTag(context.Background(), name, slug.From(name))
}

func (m *memoryStore) hasTag(note *Note, tagSlug string) bool {
	for _, name := range note.Tags {
		if slug.From(name) == tagSlug {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

var (
	alice = &sec.Identity{ID: "account-alice", Email: "alice@example.com", Role: sec.RoleUser}
	bob   = &sec.Identity{ID: "account-bob", Email: "bob@example.com", Role: sec.RoleUser}
	root  = &sec.Identity{ID: "account-root", Email: "root@example.com", Role: sec.RoleAdmin}
)

func newTestService() (*Service, *memoryStore) {
	store := newMemoryStore()
	return NewService(store, slog.New(slog.DiscardHandler)), store
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates note with deduplicated sorted tags", func(t *testing.T) {
		service, _ := newTestService()

		note, err := service.Create(ctx, alice, CreateInput{
			Title: "Osmosis",
			Body:  "Water crosses the membrane.",
			Tags:  []string{"biology", "Exam Prep", "BIOLOGY"},
		})
		require.NoError(t, err)

		assert.Equal(t, alice.ID, note.OwnerID)
		assert.Equal(t, []string{"Exam Prep", "biology"}, note.Tags)
		assert.NotZero(t, note.ID)
	})

	t.Run("rejects empty title", func(t *testing.T) {
		service, _ := newTestService()

		_, err := service.Create(ctx, alice, CreateInput{Title: "   ", Body: "x"})
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, apperr.CodeValidation, appError.Code)
		assert.Equal(t, 422, appError.HTTPStatus)
	})

	t.Run("rejects overlong title", func(t *testing.T) {
		service, _ := newTestService()

		_, err := service.Create(ctx, alice, CreateInput{Title: strings.Repeat("a", MaxTitleLength+1)})
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, apperr.CodeValidation, appError.Code)
	})

	t.Run("rejects blank tag names", func(t *testing.T) {
		service, _ := newTestService()

		_, err := service.Create(ctx, alice, CreateInput{Title: "ok", Tags: []string{"fine", "  "}})
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, apperr.CodeValidation, appError.Code)
	})
}

func TestOwnershipScoping(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	note, err := service.Create(ctx, alice, CreateInput{Title: "Private", Body: "secret"})
	require.NoError(t, err)

	t.Run("owner can read", func(t *testing.T) {
		got, err := service.Get(ctx, alice, note.ID)
		require.NoError(t, err)
		assert.Equal(t, note.ID, got.ID)
	})

	t.Run("foreign note reads as not found", func(t *testing.T) {
		_, err := service.Get(ctx, bob, note.ID)
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, apperr.CodeNotFound, appError.Code)
		assert.Equal(t, 404, appError.HTTPStatus)
	})

	t.Run("foreign delete reads as not found", func(t *testing.T) {
		err := service.Delete(ctx, bob, note.ID)
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, apperr.CodeNotFound, appError.Code)
	})

	t.Run("admin bypasses the owner scope", func(t *testing.T) {
		got, err := service.Get(ctx, root, note.ID)
		require.NoError(t, err)
		assert.Equal(t, note.ID, got.ID)
	})

	t.Run("missing note is not found", func(t *testing.T) {
		_, err := service.Get(ctx, alice, 999999)
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, apperr.CodeNotFound, appError.Code)
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	seed := []struct {
		owner *sec.Identity
		input CreateInput
	}{
		{alice, CreateInput{Title: "Mitosis phases", Body: "prophase metaphase", Tags: []string{"biology"}}},
		{alice, CreateInput{Title: "French verbs", Body: "être avoir", Tags: []string{"language"}}},
		{bob, CreateInput{Title: "Enzymes", Body: "catalysis basics", Tags: []string{"biology"}}},
	}
	for _, s := range seed {
		_, err := service.Create(ctx, s.owner, s.input)
		require.NoError(t, err)
	}

	list := func(t *testing.T, who *sec.Identity, input ListInput) []*Note {
		t.Helper()
		if input.Limit == 0 {
			input.Limit = pagination.DefaultLimit
		}
		result, err := service.List(ctx, who, input)
		require.NoError(t, err)
		return result
	}

	t.Run("non-admin sees only own notes", func(t *testing.T) {
		result := list(t, alice, ListInput{})
		require.Len(t, result, 2)
		for _, note := range result {
			assert.Equal(t, alice.ID, note.OwnerID)
		}
	})

	t.Run("admin sees all notes", func(t *testing.T) {
		result := list(t, root, ListInput{})
		assert.Len(t, result, 3)
	})

	t.Run("tag filter matches any spelling of the slug", func(t *testing.T) {
		result := list(t, alice, ListInput{Tag: "Biology"})
		require.Len(t, result, 1)
		assert.Equal(t, "Mitosis phases", result[0].Title)
	})

	t.Run("query matches title and body case-insensitively", func(t *testing.T) {
		byTitle := list(t, alice, ListInput{Query: "mitosis"})
		require.Len(t, byTitle, 1)

		byBody := list(t, alice, ListInput{Query: "AVOIR"})
		require.Len(t, byBody, 1)
		assert.Equal(t, "French verbs", byBody[0].Title)
	})

	t.Run("newest first with limit and offset", func(t *testing.T) {
		first := list(t, alice, ListInput{Limit: 1})
		require.Len(t, first, 1)
		assert.Equal(t, "French verbs", first[0].Title)

		second := list(t, alice, ListInput{Limit: 1, Offset: 1})
		require.Len(t, second, 1)
		assert.Equal(t, "Mitosis phases", second[0].Title)
	})
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	strPtr := func(s string) *string { return &s }

	t.Run("applies only the provided fields", func(t *testing.T) {
		service, _ := newTestService()
		note, err := service.Create(ctx, alice, CreateInput{Title: "Draft", Body: "v1", Tags: []string{"wip"}})
		require.NoError(t, err)

		updated, err := service.Update(ctx, alice, note.ID, UpdateInput{Body: strPtr("v2")})
		require.NoError(t, err)

		assert.Equal(t, "Draft", updated.Title)
		assert.Equal(t, "v2", updated.Body)
		assert.Equal(t, []string{"wip"}, updated.Tags)
	})

	t.Run("empty tags list clears all tags", func(t *testing.T) {
		service, _ := newTestService()
		note, err := service.Create(ctx, alice, CreateInput{Title: "Draft", Tags: []string{"wip"}})
		require.NoError(t, err)

		empty := []string{}
		updated, err := service.Update(ctx, alice, note.ID, UpdateInput{Tags: &empty})
		require.NoError(t, err)
		assert.Empty(t, updated.Tags)
	})

	t.Run("rejects blanking the title", func(t *testing.T) {
		service, _ := newTestService()
		note, err := service.Create(ctx, alice, CreateInput{Title: "Draft"})
		require.NoError(t, err)

		_, err = service.Update(ctx, alice, note.ID, UpdateInput{Title: strPtr("  ")})
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, apperr.CodeValidation, appError.Code)
	})
}

func TestTags(t *testing.T) {
	ctx := context.Background()

	t.Run("create is an idempotent upsert by slug", func(t *testing.T) {
		service, _ := newTestService()

		first, err := service.CreateTag(ctx, CreateTagInput{Name: "Späte Nacht"})
		require.NoError(t, err)
		assert.Equal(t, "spate-nacht", first.Slug)

		second, err := service.CreateTag(ctx, CreateTagInput{Name: "spate nacht"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		service, _ := newTestService()

		_, err := service.CreateTag(ctx, CreateTagInput{Name: " "})
		appError := apperr.As(err)
		require.NotNil(t, appError)
		assert.Equal(t, apperr.CodeValidation, appError.Code)
	})

	t.Run("lists tags alphabetically with pagination", func(t *testing.T) {
		service, _ := newTestService()
		for _, name := range []string{"zeta", "alpha", "mid"} {
			_, err := service.CreateTag(ctx, CreateTagInput{Name: name})
			require.NoError(t, err)
		}

		tags, err := service.ListTags(ctx, pagination.Params{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, tags, 2)
		assert.Equal(t, "mid", tags[0].Name)
		assert.Equal(t, "zeta", tags[1].Name)
	})
}
