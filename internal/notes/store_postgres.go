// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

package notes

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notarehq/notare/internal/platform/apperr"
	"github.com/notarehq/notare/internal/platform/dberr"
	"github.com/notarehq/notare/pkg/slug"
)

// PostgresStore implements [Store] backed by PostgreSQL via pgx.
//
// Tag names are aggregated into the note rows with array_agg, so a note and
// its tags always come back in a single query.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed note store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var _ Store = (*PostgresStore)(nil)

const noteSelect = `
	SELECT n.id, n.owner_id, n.title, n.body, n.created_at, n.updated_at,
	       COALESCE(array_agg(t.name ORDER BY t.name) FILTER (WHERE t.name IS NOT NULL), '{}') AS tags
	FROM note n
	LEFT JOIN note_tag nt ON nt.note_id = n.id
	LEFT JOIN tag t ON t.id = nt.tag_id`

// CreateNote implements [Store].
func (s *PostgresStore) CreateNote(ctx context.Context, note *Note) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		const query = `
			INSERT INTO note (owner_id, title, body)
			VALUES ($1, $2, $3)
			RETURNING id, created_at, updated_at`

		err := tx.QueryRow(ctx, query, note.OwnerID, note.Title, note.Body).
			Scan(&note.ID, &note.CreatedAt, &note.UpdatedAt)
		if err != nil {
			return apperr.Internal(err)
		}

		return s.linkTags(ctx, tx, note)
	})
}

// FindNote implements [Store].
func (s *PostgresStore) FindNote(ctx context.Context, id int64) (*Note, error) {
	query := noteSelect + `
	WHERE n.id = $1
	GROUP BY n.id`

	note := &Note{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&note.ID,
		&note.OwnerID,
		&note.Title,
		&note.Body,
		&note.CreatedAt,
		&note.UpdatedAt,
		&note.Tags,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Note")
	}

	return note, nil
}

// ListNotes implements [Store].
func (s *PostgresStore) ListNotes(ctx context.Context, filter Filter) ([]*Note, error) {
	conditions := make([]string, 0, 3)
	args := make([]any, 0, 5)

	if filter.OwnerID != "" {
		args = append(args, filter.OwnerID)
		conditions = append(conditions, fmt.Sprintf("n.owner_id = $%d", len(args)))
	}
	if filter.TagSlug != "" {
		args = append(args, filter.TagSlug)
		conditions = append(conditions, fmt.Sprintf(
			`n.id IN (SELECT nt2.note_id FROM note_tag nt2 JOIN tag t2 ON t2.id = nt2.tag_id WHERE t2.slug = $%d)`,
			len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+escapeLike(filter.Query)+"%")
		conditions = append(conditions, fmt.Sprintf(
			"(n.title ILIKE $%d OR n.body ILIKE $%d)", len(args), len(args)))
	}

	query := noteSelect
	if len(conditions) > 0 {
		query += "\n\tWHERE " + strings.Join(conditions, " AND ")
	}

	args = append(args, filter.Limit)
	limitPos := len(args)
	args = append(args, filter.Offset)
	query += fmt.Sprintf(`
	GROUP BY n.id
	ORDER BY n.created_at DESC, n.id DESC
	LIMIT $%d OFFSET $%d`, limitPos, limitPos+1)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	result := make([]*Note, 0)
	for rows.Next() {
		note := &Note{}
		err := rows.Scan(
			&note.ID,
			&note.OwnerID,
			&note.Title,
			&note.Body,
			&note.CreatedAt,
			&note.UpdatedAt,
			&note.Tags,
		)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		result = append(result, note)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}

	return result, nil
}

// UpdateNote implements [Store].
func (s *PostgresStore) UpdateNote(ctx context.Context, note *Note) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		const query = `
			UPDATE note
			SET title = $2, body = $3, updated_at = now()
			WHERE id = $1
			RETURNING updated_at`

		err := tx.QueryRow(ctx, query, note.ID, note.Title, note.Body).
			Scan(&note.UpdatedAt)
		if err != nil {
			return dberr.Wrap(err, "Note")
		}

		if _, err := tx.Exec(ctx, `DELETE FROM note_tag WHERE note_id = $1`, note.ID); err != nil {
			return apperr.Internal(err)
		}

		return s.linkTags(ctx, tx, note)
	})
}

// DeleteNote implements [Store]. Join rows go with the note via ON DELETE CASCADE.
func (s *PostgresStore) DeleteNote(ctx context.Context, id int64) error {
	commandTag, err := s.pool.Exec(ctx, `DELETE FROM note WHERE id = $1`, id)
	if err != nil {
		return apperr.Internal(err)
	}
	if commandTag.RowsAffected() == 0 {
		return apperr.NotFound("Note")
	}

	return nil
}

// EnsureTag implements [Store].
//
// The no-op DO UPDATE makes the conflicting row visible to RETURNING, so the
// existing tag comes back without a second query.
func (s *PostgresStore) EnsureTag(ctx context.Context, name, slugValue string) (*Tag, error) {
	const query = `
		INSERT INTO tag (name, slug)
		VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET name = tag.name
		RETURNING id, name, slug`

	tag := &Tag{}
	err := s.pool.QueryRow(ctx, query, name, slugValue).Scan(&tag.ID, &tag.Name, &tag.Slug)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	return tag, nil
}

// ListTags implements [Store].
func (s *PostgresStore) ListTags(ctx context.Context, limit, offset int) ([]*Tag, error) {
	const query = `SELECT id, name, slug FROM tag ORDER BY name ASC LIMIT $1 OFFSET $2`

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	tags := make([]*Tag, 0)
	for rows.Next() {
		tag := &Tag{}
		if err := rows.Scan(&tag.ID, &tag.Name, &tag.Slug); err != nil {
			return nil, apperr.Internal(err)
		}
		tags = append(tags, tag)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}

	return tags, nil
}

// linkTags ensures every tag on the note exists and inserts the join rows.
func (s *PostgresStore) linkTags(ctx context.Context, tx pgx.Tx, note *Note) error {
	const ensure = `
		INSERT INTO tag (name, slug)
		VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET name = tag.name
		RETURNING id`
	const link = `
		INSERT INTO note_tag (note_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING`

	for _, name := range note.Tags {
		var tagID int64
		if err := tx.QueryRow(ctx, ensure, name, slug.From(name)).Scan(&tagID); err != nil {
			return apperr.Internal(err)
		}
		if _, err := tx.Exec(ctx, link, note.ID, tagID); err != nil {
			return apperr.Internal(err)
		}
	}

	return nil
}

// inTx runs fn inside a transaction, committing on success.
func (s *PostgresStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return apperr.Internal(err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return apperr.Internal(err)
	}

	return nil
}

// escapeLike escapes LIKE/ILIKE metacharacters in a user-supplied search term.
func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
