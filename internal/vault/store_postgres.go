// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vault

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

// # Vault Repository

// PostgresRepository implements [Repository] on the vault.item table.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of [Repository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

/*
Create persists a new record into the vault.item table.

Description: The primary key is the short share ID, so an ID collision hits
the primary key and surfaces as a Conflict the service can retry on.

Returns:
  - error: apperr.Conflict on ID collision, or database errors
*/
func (repository *PostgresRepository) Create(context context.Context, record *Record) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		schema.VaultItem.Table, schema.VaultItem.ColumnList(),
	)

	var textBody *string
	var storageRef, originalName, mimeType *string
	var byteSize *int64

	if record.Kind == KindText {
		textBody = &record.Text
	}
	if record.File != nil {
		storageRef = &record.File.StorageRef
		originalName = &record.File.OriginalName
		mimeType = &record.File.MIMEType
		byteSize = &record.File.ByteSize
	}

	_, err := repository.pool.Exec(context, query,
		record.ID,
		string(record.Kind),
		textBody,
		storageRef,
		originalName,
		byteSize,
		mimeType,
		record.CreatedAt,
		record.ExpiresAt,
		record.ViewCount,
		record.MaxViews,
		record.OneTimeView,
		record.PasswordHash,
		record.DeleteToken,
		record.OwnerID,
		record.AllowedIdentities,
	)

	return dberr.Wrap(err, "postgres_vault_repo_create_failed")
}

/*
FindByID retrieves a record by its share ID. Expired rows are returned as-is.
*/
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Record, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.VaultItem.ColumnList(), schema.VaultItem.Table, schema.VaultItem.ID)

	record, err := scanRecord(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errVaultNotFound()
		}
		return nil, fmt.Errorf("postgres_vault_repo_find_by_id_failed: %w", err)
	}

	return record, nil
}

/*
IncrementViewCount bumps the counter in a single statement and returns the result.
*/
func (repository *PostgresRepository) IncrementViewCount(context context.Context, id string) (int, error) {
	query := fmt.Sprintf(`UPDATE %s SET %s = %s + 1 WHERE %s = $1 RETURNING %s`,
		schema.VaultItem.Table,
		schema.VaultItem.ViewCount, schema.VaultItem.ViewCount,
		schema.VaultItem.ID, schema.VaultItem.ViewCount,
	)

	var viewCount int
	if err := repository.pool.QueryRow(context, query, id).Scan(&viewCount); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errVaultNotFound()
		}
		return 0, fmt.Errorf("postgres_vault_repo_increment_views_failed: %w", err)
	}

	return viewCount, nil
}

/*
Delete removes a single record.
*/
func (repository *PostgresRepository) Delete(context context.Context, id string) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`, schema.VaultItem.Table, schema.VaultItem.ID)

	tag, err := repository.pool.Exec(context, query, id)
	if err != nil {
		return false, fmt.Errorf("postgres_vault_repo_delete_failed: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

/*
ListByOwner returns one page of the owner's live records, newest first.

Parameters:
  - context: context.Context
  - ownerID: string (Account ID)
  - now: time.Time (Records expiring at or before now are excluded)
  - limit, offset: int (Page window)

Returns:
  - []*Record: The page
  - int: Total live records of the owner
  - error: Database errors
*/
func (repository *PostgresRepository) ListByOwner(context context.Context, ownerID string, now time.Time, limit, offset int) ([]*Record, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER() AS total
		FROM %s
		WHERE %s = $1 AND %s > $2
		ORDER BY %s DESC
		LIMIT $3 OFFSET $4`,
		schema.VaultItem.ColumnList(), schema.VaultItem.Table,
		schema.VaultItem.OwnerID, schema.VaultItem.ExpiresAt,
		schema.VaultItem.CreatedAt,
	)

	rows, err := repository.pool.Query(context, query, ownerID, now, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_vault_repo_list_by_owner_failed: %w", err)
	}
	defer rows.Close()

	records := make([]*Record, 0, limit)
	var total int
	for rows.Next() {
		record, err := scanRecord(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_vault_repo_list_by_owner_scan_failed: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_vault_repo_list_by_owner_failed: %w", err)
	}

	return records, total, nil
}

/*
ListExpired returns the oldest expired records first, served by the expiresat index.
*/
func (repository *PostgresRepository) ListExpired(context context.Context, now time.Time, limit int) ([]*Record, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s <= $1
		ORDER BY %s
		LIMIT $2`,
		schema.VaultItem.ColumnList(), schema.VaultItem.Table,
		schema.VaultItem.ExpiresAt, schema.VaultItem.ExpiresAt,
	)

	return repository.list(context, "list_expired", query, now, limit)
}

/*
DeleteByIDs removes a batch of records in one statement.
*/
func (repository *PostgresRepository) DeleteByIDs(context context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = ANY($1)`, schema.VaultItem.Table, schema.VaultItem.ID)

	tag, err := repository.pool.Exec(context, query, ids)
	if err != nil {
		return 0, fmt.Errorf("postgres_vault_repo_delete_batch_failed: %w", err)
	}
	return tag.RowsAffected(), nil
}

/*
ReferencedStorageRefs reports which blob keys are still referenced by a record.
*/
func (repository *PostgresRepository) ReferencedStorageRefs(context context.Context, refs []string) (map[string]bool, error) {
	referenced := make(map[string]bool, len(refs))
	if len(refs) == 0 {
		return referenced, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = ANY($1)`,
		schema.VaultItem.StorageRef, schema.VaultItem.Table, schema.VaultItem.StorageRef)

	rows, err := repository.pool.Query(context, query, refs)
	if err != nil {
		return nil, fmt.Errorf("postgres_vault_repo_referenced_refs_failed: %w", err)
	}

	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("postgres_vault_repo_referenced_refs_failed: %w", err)
	}

	for _, ref := range found {
		referenced[ref] = true
	}
	return referenced, nil
}

// list runs a multi-row query and scans every row into a [Record].
func (repository *PostgresRepository) list(context context.Context, action, query string, arguments ...any) ([]*Record, error) {
	rows, err := repository.pool.Query(context, query, arguments...)
	if err != nil {
		return nil, fmt.Errorf("postgres_vault_repo_%s_failed: %w", action, err)
	}
	defer rows.Close()

	records := make([]*Record, 0)
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres_vault_repo_%s_scan_failed: %w", action, err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_vault_repo_%s_failed: %w", action, err)
	}

	return records, nil
}

// scanRecord maps one row of [schema.VaultItem] columns onto a [Record].
// extra receives any trailing columns, such as a window count.
func scanRecord(row pgx.Row, extra ...any) (*Record, error) {
	var (
		record       Record
		kind         string
		textBody     *string
		storageRef   *string
		originalName *string
		byteSize     *int64
		mimeType     *string
	)

	destinations := []any{
		&record.ID,
		&kind,
		&textBody,
		&storageRef,
		&originalName,
		&byteSize,
		&mimeType,
		&record.CreatedAt,
		&record.ExpiresAt,
		&record.ViewCount,
		&record.MaxViews,
		&record.OneTimeView,
		&record.PasswordHash,
		&record.DeleteToken,
		&record.OwnerID,
		&record.AllowedIdentities,
	}

	if err := row.Scan(append(destinations, extra...)...); err != nil {
		return nil, err
	}

	record.Kind = Kind(kind)
	if textBody != nil {
		record.Text = *textBody
	}
	if storageRef != nil {
		record.File = &FileMeta{StorageRef: *storageRef}
		if originalName != nil {
			record.File.OriginalName = *originalName
		}
		if byteSize != nil {
			record.File.ByteSize = *byteSize
		}
		if mimeType != nil {
			record.File.MIMEType = *mimeType
		}
	}

	return &record, nil
}

// errVaultNotFound is the single answer for missing and already-consumed records.
func errVaultNotFound() *apperr.AppError {
	return apperr.NotFound("Vault")
}
