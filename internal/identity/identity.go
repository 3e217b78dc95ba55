// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package identity implements accounts and opaque bearer sessions.

It owns every mutation of an account: registration, password verification,
issuing and revoking the single live session an account may hold.

# Architecture

  - Account: The persisted identity. Only digests of session tokens are stored.
  - Service: Register, Login, AuthenticateToken, Logout and WhoAmI.
  - Repository: Abstracted storage, implemented on PostgreSQL.

Session expiry is checked lazily when a token is presented; no background
sweep is needed.
*/
package identity

import (
	"time"

	"github.com/taibuivan/vaultlink/internal/platform/sec"
)

// # Domain Entities

// Account represents a registered owner of vaults.
type Account struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	SessionTokenHash *string    `json:"-"`
	SessionExpiresAt *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Principal returns the request-scoped view of the account.
func (account *Account) Principal() *sec.Principal {
	return &sec.Principal{UserID: account.ID, Email: account.Email}
}

// HasLiveSession reports whether the stored session is still valid at now.
func (account *Account) HasLiveSession(now time.Time) bool {
	return account.SessionTokenHash != nil &&
		account.SessionExpiresAt != nil &&
		now.Before(*account.SessionExpiresAt)
}

// Session is a freshly issued bearer token. The raw token is only ever seen here.
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Account   *Account  `json:"user"`
}

// # Field Identifiers

const (
	FieldEmail    = "email"
	FieldPassword = "password"
	FieldUser     = "user"
)
