// Copyright (c) 2026 Notare. All rights reserved.
// Author: dev@notare.app

package accounts

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notarehq/notare/internal/platform/apperr"
	"github.com/notarehq/notare/internal/platform/dberr"
)

// PostgresStore implements [Store] backed by PostgreSQL via pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a PostgreSQL-backed account store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

const accountColumns = `id, email, password_hash, role, created_at, updated_at`

// FindByEmail implements [Store].
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM account WHERE email = $1`, accountColumns)

	account := &Account{}
	err := s.pool.QueryRow(ctx, query, email).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Account")
	}

	return account, nil
}

// FindByID implements [Store].
func (s *PostgresStore) FindByID(ctx context.Context, id string) (*Account, error) {
	query := fmt.Sprintf(`SELECT %s FROM account WHERE id = $1`, accountColumns)

	account := &Account{}
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, "Account")
	}

	return account, nil
}

// Exists implements [Store].
func (s *PostgresStore) Exists(ctx context.Context, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM account WHERE email = $1)`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, apperr.Internal(err)
	}

	return exists, nil
}

// Create implements [Store].
//
// A concurrent duplicate registration slips past the service-level Exists
// check; the unique index catches it here and maps to EMAIL_TAKEN.
func (s *PostgresStore) Create(ctx context.Context, account *Account) error {
	const query = `
		INSERT INTO account (id, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.Role,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.EmailTaken()
		}
		return apperr.Internal(err)
	}

	return nil
}

// List implements [Store].
func (s *PostgresStore) List(ctx context.Context, limit, offset int) ([]*Account, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM account
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`, accountColumns)

	rows, err := s.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	defer rows.Close()

	accounts := make([]*Account, 0)
	for rows.Next() {
		account := &Account{}
		err := rows.Scan(
			&account.ID,
			&account.Email,
			&account.PasswordHash,
			&account.Role,
			&account.CreatedAt,
			&account.UpdatedAt,
		)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		accounts = append(accounts, account)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Internal(err)
	}

	return accounts, nil
}
