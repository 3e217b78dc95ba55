// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/vaultlink/internal/platform/apperr"
	"github.com/taibuivan/vaultlink/internal/platform/database/schema"
	"github.com/taibuivan/vaultlink/internal/platform/dberr"
)

// # Account Repository

// PostgresRepository implements [Repository] on the users.account table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of [Repository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Create persists a new account into the users.account table.

Description: Initializes timestamps if not provided. A duplicate email hits the
unique index and surfaces as a Conflict, which covers the race between two
registrations that both passed the service-level lookup.

Parameters:
  - context: context.Context
  - account: *Account (Entity to persist)

Returns:
  - error: apperr.Conflict or connectivity errors
*/
func (repository *PostgresRepository) Create(context context.Context, account *Account) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, $4, $5)`,
		schema.UserAccount.Table,
		schema.UserAccount.ID, schema.UserAccount.Email, schema.UserAccount.Password,
		schema.UserAccount.CreatedAt, schema.UserAccount.UpdatedAt,
	)

	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		account.ID,
		account.Email,
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return apperr.Conflict(msgEmailTaken)
		}
		return fmt.Errorf("postgres_account_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByID retrieves an account by primary key.
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Account, error) {
	query := selectAccountWhere(schema.UserAccount.ID)
	return repository.findOne(context, "find_by_id", query, id)
}

/*
FindByEmail retrieves an account by its normalized, unique email address.
*/
func (repository *PostgresRepository) FindByEmail(context context.Context, email string) (*Account, error) {
	query := selectAccountWhere(schema.UserAccount.Email)
	return repository.findOne(context, "find_by_email", query, email)
}

/*
FindBySessionHash retrieves the account holding the given session digest.

Description: Backed by a unique partial index, so at most one row matches.
*/
func (repository *PostgresRepository) FindBySessionHash(context context.Context, tokenHash string) (*Account, error) {
	query := selectAccountWhere(schema.UserAccount.SessionTokenHash)
	return repository.findOne(context, "find_by_session", query, tokenHash)
}

/*
SetSession overwrites the single session slot of an account.

Parameters:
  - context: context.Context
  - accountID: string
  - tokenHash: string (SHA-256 hex digest, never the raw token)
  - expiresAt: time.Time

Returns:
  - error: apperr.NotFound if the account vanished, or database errors
*/
func (repository *PostgresRepository) SetSession(context context.Context, accountID, tokenHash string, expiresAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2, %s = $3, %s = NOW()
		WHERE %s = $1`,
		schema.UserAccount.Table,
		schema.UserAccount.SessionTokenHash, schema.UserAccount.SessionExpiresAt, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID,
	)

	tag, err := repository.pool.Exec(context, query, accountID, tokenHash, expiresAt)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_set_session_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Account")
	}
	return nil
}

/*
ClearSession revokes the account's session immediately.
*/
func (repository *PostgresRepository) ClearSession(context context.Context, accountID string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = NULL, %s = NULL, %s = NOW()
		WHERE %s = $1`,
		schema.UserAccount.Table,
		schema.UserAccount.SessionTokenHash, schema.UserAccount.SessionExpiresAt, schema.UserAccount.UpdatedAt,
		schema.UserAccount.ID,
	)

	if _, err := repository.pool.Exec(context, query, accountID); err != nil {
		return fmt.Errorf("postgres_account_repo_clear_session_failed: %w", err)
	}
	return nil
}

// selectAccountWhere builds a single-row lookup on one unique column.
func selectAccountWhere(column string) string {
	return fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.UserAccount.ColumnList(), schema.UserAccount.Table, column)
}

// findOne runs a single-row account query and maps pgx.ErrNoRows to NotFound.
func (repository *PostgresRepository) findOne(context context.Context, action, query string, argument any) (*Account, error) {
	account := &Account{}
	err := repository.pool.QueryRow(context, query, argument).Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.SessionTokenHash,
		&account.SessionExpiresAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Account")
		}
		return nil, fmt.Errorf("postgres_account_repo_%s_failed: %w", action, err)
	}

	return account, nil
}
