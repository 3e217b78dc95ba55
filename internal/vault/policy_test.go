// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vault

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vaultlink/internal/platform/apperr"
	"github.com/taibuivan/vaultlink/internal/platform/sec"
	"github.com/taibuivan/vaultlink/pkg/pointer"
)

// plainVerifier compares passwords directly and counts calls.
type plainVerifier struct {
	calls int
	err   error
}

func (verifier *plainVerifier) Verify(_ context.Context, storedHash, plainTextPassword string) (bool, error) {
	verifier.calls++
	return storedHash == "hash:"+plainTextPassword, verifier.err
}

/*
TestEvaluateAccess_Order checks the first failing gate decides the error.
*/
func TestEvaluateAccess_Order(t *testing.T) {
	tests := []struct {
		name         string
		record       Record
		creds        Credentials
		code         string
		authRequired bool
	}{
		{
			name:   "open record",
			record: Record{},
		},
		{
			name:   "exhaustion before identity",
			record: Record{ViewCount: 1, MaxViews: pointer.To(1), AllowedIdentities: []string{"bob@example.com"}},
			code:   apperr.CodeForbidden,
		},
		{
			name:   "consumed one-time",
			record: Record{ViewCount: 1, OneTimeView: true},
			code:   apperr.CodeForbidden,
		},
		{
			name:         "identity before password",
			record:       Record{AllowedIdentities: []string{"bob@example.com"}, PasswordHash: pointer.To("hash:pw")},
			creds:        Credentials{Password: "pw"},
			code:         apperr.CodeForbidden,
			authRequired: true,
		},
		{
			name:   "listed identity then password",
			record: Record{AllowedIdentities: []string{"bob@example.com"}, PasswordHash: pointer.To("hash:pw")},
			creds:  Credentials{Principal: bob},
			code:   apperr.CodePasswordRequired,
		},
		{
			name:   "listed identity with password",
			record: Record{AllowedIdentities: []string{"bob@example.com"}, PasswordHash: pointer.To("hash:pw")},
			creds:  Credentials{Principal: bob, Password: "pw"},
		},
		{
			name:   "email match ignores case",
			record: Record{AllowedIdentities: []string{"bob@example.com"}},
			creds:  Credentials{Principal: &sec.Principal{UserID: "x", Email: "Bob@Example.COM"}},
		},
		{
			name:   "owner bypasses allow-list",
			record: Record{OwnerID: pointer.To(alice.UserID), AllowedIdentities: []string{"bob@example.com"}},
			creds:  Credentials{Principal: alice},
		},
		{
			name:   "wrong password",
			record: Record{PasswordHash: pointer.To("hash:pw")},
			creds:  Credentials{Password: "nope"},
			code:   apperr.CodePasswordRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy := NewPolicy(&plainVerifier{})
			err := policy.EvaluateAccess(context.Background(), &tt.record, tt.creds)

			if tt.code == "" {
				require.NoError(t, err)
				return
			}

			appError := assertCode(t, err, tt.code)
			assert.Equal(t, tt.authRequired, appError.AuthRequired)
		})
	}
}

/*
TestEvaluateAccess_MissingPasswordSkipsKDF avoids hashing when nothing was presented.
*/
func TestEvaluateAccess_MissingPasswordSkipsKDF(t *testing.T) {
	verifier := &plainVerifier{}
	policy := NewPolicy(verifier)

	err := policy.EvaluateAccess(context.Background(), &Record{PasswordHash: pointer.To("hash:pw")}, Credentials{})
	appError := assertCode(t, err, apperr.CodePasswordRequired)
	assert.True(t, appError.RequiresPassword)
	assert.Zero(t, verifier.calls)
}

/*
TestEvaluateAccess_VerifierFailure surfaces as an internal error, not a denial.
*/
func TestEvaluateAccess_VerifierFailure(t *testing.T) {
	policy := NewPolicy(&plainVerifier{err: errors.New("slot unavailable")})

	err := policy.EvaluateAccess(context.Background(), &Record{PasswordHash: pointer.To("hash:pw")}, Credentials{Password: "pw"})
	assertCode(t, err, apperr.CodeInternal)
}

/*
TestCanManageAsOwner covers owned and ownerless records.
*/
func TestCanManageAsOwner(t *testing.T) {
	owned := &Record{OwnerID: pointer.To(alice.UserID)}
	ownerless := &Record{}

	assert.True(t, CanManageAsOwner(owned, alice))
	assert.False(t, CanManageAsOwner(owned, bob))
	assert.False(t, CanManageAsOwner(owned, nil))
	assert.True(t, CanManageAsOwner(ownerless, nil))
	assert.True(t, CanManageAsOwner(ownerless, bob))
}

/*
TestAuthorizeManage checks the token before ownership.
*/
func TestAuthorizeManage(t *testing.T) {
	record := &Record{OwnerID: pointer.To(alice.UserID), DeleteToken: pointer.To("capability")}

	require.NoError(t, authorizeManage(record, "capability", alice))

	err := authorizeManage(record, "", alice)
	appError := assertCode(t, err, apperr.CodeForbidden)
	assert.Equal(t, msgInvalidDeleteToken, appError.Message)

	err = authorizeManage(record, "capability", bob)
	appError = assertCode(t, err, apperr.CodeForbidden)
	assert.Equal(t, msgNotOwner, appError.Message)

	err = authorizeManage(&Record{}, "anything", nil)
	assertCode(t, err, apperr.CodeForbidden)
}
