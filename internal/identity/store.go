// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"time"
)

// # Account Data Access

// Repository defines the data access contract for accounts and their session.
//
// Lookups are by unique key only (id, email, session digest). Implementations
// must enforce uniqueness of email and of the session digest.
type Repository interface {

	/*
		Create persists a brand-new account.

		Returns:
		  - error: apperr.Conflict when the email is already taken
	*/
	Create(context context.Context, account *Account) error

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - error: apperr.NotFound when absent
	*/
	FindByID(context context.Context, id string) (*Account, error)

	/*
		FindByEmail returns the account with the given normalized email.

		Returns:
		  - error: apperr.NotFound when absent
	*/
	FindByEmail(context context.Context, email string) (*Account, error)

	/*
		FindBySessionHash returns the account whose stored session digest matches.
		Expiry is NOT checked here; the service decides.

		Returns:
		  - error: apperr.NotFound when no account holds the digest
	*/
	FindBySessionHash(context context.Context, tokenHash string) (*Account, error)

	/*
		SetSession overwrites the account's session digest and expiry.
	*/
	SetSession(context context.Context, accountID, tokenHash string, expiresAt time.Time) error

	/*
		ClearSession removes the account's session digest and expiry.
	*/
	ClearSession(context context.Context, accountID string) error
}
