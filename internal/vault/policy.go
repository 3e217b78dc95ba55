// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vault

import (
	"context"
	"slices"

	"github.com/taibuivan/vaultlink/internal/platform/apperr"
	"github.com/taibuivan/vaultlink/internal/platform/sec"
)

// PasswordVerifier checks a plaintext password against its stored form.
type PasswordVerifier interface {
	Verify(ctx context.Context, storedHash, plainTextPassword string) (bool, error)
}

// Credentials is what a reader presents when opening a vault.
type Credentials struct {
	// Principal is nil for anonymous readers.
	Principal *sec.Principal
	// Password is "" when none was supplied.
	Password string
}

// Policy evaluates read access for a record. It never mutates the record.
type Policy struct {
	verifier PasswordVerifier
}

// NewPolicy creates a Policy that checks password gates with verifier.
func NewPolicy(verifier PasswordVerifier) *Policy {
	return &Policy{verifier: verifier}
}

/*
EvaluateAccess applies the read gates in a fixed order.

 1. Exhaustion: a record whose view cap is already reached is no longer accessible.
 2. Identity: restricted records admit the owner and the listed emails only.
 3. Password: a gated record needs the matching password.

The first failing gate decides the error. Expiry is checked by the caller
beforehand because it also triggers reclamation.
*/
func (policy *Policy) EvaluateAccess(ctx context.Context, record *Record, creds Credentials) error {

	// 1. Exhaustion
	if err := CanView(record); err != nil {
		return err
	}

	// 2. Identity allow-list
	if err := CanAccessAsIdentity(record, creds.Principal); err != nil {
		return err
	}

	// 3. Password gate
	if !record.HasPassword() {
		return nil
	}

	if creds.Password == "" {
		return apperr.PasswordRequired(msgPasswordRequired)
	}

	matches, err := policy.verifier.Verify(ctx, *record.PasswordHash, creds.Password)
	if err != nil {
		return apperr.Internal(err)
	}
	if !matches {
		return apperr.PasswordRequired(msgPasswordRequired)
	}

	return nil
}

// CanView rejects records whose view cap has already been reached.
func CanView(record *Record) error {
	if record.IsExhausted() {
		return apperr.Forbidden(msgNoLongerAccessible)
	}
	return nil
}

// CanAccessAsIdentity checks the allow-list of a restricted record.
// Anonymous readers are told to authenticate.
func CanAccessAsIdentity(record *Record, principal *sec.Principal) error {
	if !record.IsRestricted() {
		return nil
	}

	if principal == nil {
		return apperr.Forbidden(msgRestricted).WithAuthRequired()
	}

	if record.OwnerID != nil && principal.Is(*record.OwnerID) {
		return nil
	}

	allowed := slices.ContainsFunc(record.AllowedIdentities, principal.HasEmail)
	if !allowed {
		return apperr.Forbidden(msgRestricted)
	}

	return nil
}

// CanManageAsOwner reports whether principal may manage an owned record.
// Records without an owner are managed by the delete token alone.
func CanManageAsOwner(record *Record, principal *sec.Principal) bool {
	if !record.IsOwned() {
		return true
	}
	return principal.Is(*record.OwnerID)
}

// authorizeManage gates Preview and Delete: the delete token first, then ownership.
func authorizeManage(record *Record, token string, principal *sec.Principal) error {
	if record.DeleteToken == nil || token == "" || !sec.ConstantTimeEqualString(*record.DeleteToken, token) {
		return apperr.Forbidden(msgInvalidDeleteToken)
	}

	if !CanManageAsOwner(record, principal) {
		if principal == nil {
			return apperr.Forbidden(msgNotOwner).WithAuthRequired()
		}
		return apperr.Forbidden(msgNotOwner)
	}

	return nil
}
