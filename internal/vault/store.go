// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vault

import (
	"context"
	"time"
)

// # Vault Data Access

// Repository defines the data access contract for vault records.
//
// It stores records only; blobs live in a [blob.Store] and are the service's
// concern. Implementations never apply expiry or view policy.
type Repository interface {

	/*
		Create persists a new record.

		Returns:
		  - error: apperr.Conflict when the ID is already taken
	*/
	Create(context context.Context, record *Record) error

	/*
		FindByID returns the record with the given ID, expired or not.

		Returns:
		  - error: apperr.NotFound when absent
	*/
	FindByID(context context.Context, id string) (*Record, error)

	/*
		IncrementViewCount atomically adds one view and returns the new count.

		Returns:
		  - error: apperr.NotFound when the record was removed meanwhile
	*/
	IncrementViewCount(context context.Context, id string) (int, error)

	/*
		Delete removes a record and reports whether a row was removed.
	*/
	Delete(context context.Context, id string) (bool, error)

	/*
		ListByOwner returns one page of the owner's records that are still live at now,
		newest first, and the total number of such records.
	*/
	ListByOwner(context context.Context, ownerID string, now time.Time, limit, offset int) ([]*Record, int, error)

	/*
		ListExpired returns up to limit records whose expiry is at or before now.
	*/
	ListExpired(context context.Context, now time.Time, limit int) ([]*Record, error)

	/*
		DeleteByIDs removes the given records and returns how many were removed.
	*/
	DeleteByIDs(context context.Context, ids []string) (int64, error)

	/*
		ReferencedStorageRefs returns the subset of refs still owned by a record.
	*/
	ReferencedStorageRefs(context context.Context, refs []string) (map[string]bool, error)
}
