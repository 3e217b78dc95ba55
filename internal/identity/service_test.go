// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vaultlink/internal/platform/apperr"
	"github.com/taibuivan/vaultlink/internal/platform/sec"
)

func newTestService(t *testing.T) (*Service, *memoryRepository, *time.Time) {
	t.Helper()

	repository := newMemoryRepository()
	service := NewService(repository, sec.NewHasher(2), slog.New(slog.NewTextHandler(io.Discard, nil)))

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return clock }

	return service, repository, &clock
}

/*
TestRegister_IssuesSession normalizes the email and signs the account in.
*/
func TestRegister_IssuesSession(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	session, err := service.Register(ctx, Credentials{Email: "  Alice@Example.com ", Password: "hunter22"})
	require.NoError(t, err)

	assert.Equal(t, "alice@example.com", session.Account.Email)
	assert.NotEmpty(t, session.Token)
	assert.NotEqual(t, session.Token, *session.Account.SessionTokenHash)

	principal, err := service.AuthenticateToken(ctx, session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.Account.ID, principal.UserID)
	assert.Equal(t, "alice@example.com", principal.Email)
}

/*
TestRegister_Validation rejects malformed emails and short passwords.
*/
func TestRegister_Validation(t *testing.T) {
	service, _, _ := newTestService(t)

	tests := []struct {
		name  string
		input Credentials
	}{
		{"missing_email", Credentials{Email: "", Password: "longenough"}},
		{"bad_email", Credentials{Email: "not-an-email", Password: "longenough"}},
		{"short_password", Credentials{Email: "bob@example.com", Password: "short"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Register(context.Background(), tt.input)
			assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
		})
	}
}

/*
TestRegister_DuplicateEmail returns Conflict regardless of case.
*/
func TestRegister_DuplicateEmail(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, Credentials{Email: "dup@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = service.Register(ctx, Credentials{Email: "DUP@example.com", Password: "password2"})
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))
}

/*
TestLogin_IdenticalFailures ensures unknown email and wrong password look the same.
*/
func TestLogin_IdenticalFailures(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := service.Register(ctx, Credentials{Email: "carol@example.com", Password: "correct-horse"})
	require.NoError(t, err)

	_, wrongPassword := service.Login(ctx, Credentials{Email: "carol@example.com", Password: "wrong-horse"})
	_, unknownEmail := service.Login(ctx, Credentials{Email: "nobody@example.com", Password: "correct-horse"})

	first := apperr.As(wrongPassword)
	second := apperr.As(unknownEmail)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, first.Message, second.Message)
	assert.Equal(t, first.HTTPStatus, second.HTTPStatus)
}

// flakyHasher fails its first Hash call and records what Verify was given.
type flakyHasher struct {
	*sec.Hasher
	hashCalls    int
	verifiedWith []string
}

func (hasher *flakyHasher) Hash(ctx context.Context, password string) (string, error) {
	hasher.hashCalls++
	if hasher.hashCalls == 1 {
		return "", errors.New("hasher_slot_unavailable")
	}
	return hasher.Hasher.Hash(ctx, password)
}

func (hasher *flakyHasher) Verify(ctx context.Context, storedHash, password string) (bool, error) {
	hasher.verifiedWith = append(hasher.verifiedWith, storedHash)
	return hasher.Hasher.Verify(ctx, storedHash, password)
}

/*
TestLogin_DecoyRetriesAfterFailure derives the decoy again when the first attempt fails.
*/
func TestLogin_DecoyRetriesAfterFailure(t *testing.T) {
	hasher := &flakyHasher{Hasher: sec.NewHasher(2)}
	service := NewService(newMemoryRepository(), hasher, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	for range 3 {
		_, err := service.Login(ctx, Credentials{Email: "nobody@example.com", Password: "correct-horse"})
		assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
	}

	assert.Equal(t, 2, hasher.hashCalls)
	require.Len(t, hasher.verifiedWith, 3)
	assert.Empty(t, hasher.verifiedWith[0])
	assert.NotEmpty(t, hasher.verifiedWith[1])
	assert.Equal(t, hasher.verifiedWith[1], hasher.verifiedWith[2])
}

/*
TestLogin_ReplacesPriorSession keeps a single live session per account.
*/
func TestLogin_ReplacesPriorSession(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	registered, err := service.Register(ctx, Credentials{Email: "dave@example.com", Password: "password123"})
	require.NoError(t, err)

	loggedIn, err := service.Login(ctx, Credentials{Email: "DAVE@example.com", Password: "password123"})
	require.NoError(t, err)

	_, err = service.AuthenticateToken(ctx, registered.Token)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))

	_, err = service.AuthenticateToken(ctx, loggedIn.Token)
	assert.NoError(t, err)
}

/*
TestAuthenticateToken_Expiry rejects a session once its lifetime has passed.
*/
func TestAuthenticateToken_Expiry(t *testing.T) {
	service, _, clock := newTestService(t)
	ctx := context.Background()

	session, err := service.Register(ctx, Credentials{Email: "erin@example.com", Password: "password123"})
	require.NoError(t, err)

	*clock = clock.Add(SessionTTL - time.Second)
	_, err = service.AuthenticateToken(ctx, session.Token)
	assert.NoError(t, err)

	*clock = clock.Add(2 * time.Second)
	_, err = service.AuthenticateToken(ctx, session.Token)
	require.Error(t, err)
	assert.Equal(t, msgSessionInvalid, apperr.As(err).Message)
}

/*
TestLogout_InvalidatesImmediately clears the stored digest.
*/
func TestLogout_InvalidatesImmediately(t *testing.T) {
	service, repository, _ := newTestService(t)
	ctx := context.Background()

	session, err := service.Register(ctx, Credentials{Email: "frank@example.com", Password: "password123"})
	require.NoError(t, err)

	require.NoError(t, service.Logout(ctx, session.Account.ID))

	_, err = service.AuthenticateToken(ctx, session.Token)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))

	stored, err := repository.FindByID(ctx, session.Account.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.SessionTokenHash)
	assert.Nil(t, stored.SessionExpiresAt)
}

/*
TestWhoAmI returns the account for a valid caller.
*/
func TestWhoAmI(t *testing.T) {
	service, _, _ := newTestService(t)
	ctx := context.Background()

	session, err := service.Register(ctx, Credentials{Email: "gina@example.com", Password: "password123"})
	require.NoError(t, err)

	account, err := service.WhoAmI(ctx, session.Account.ID)
	require.NoError(t, err)
	assert.Equal(t, "gina@example.com", account.Email)

	_, err = service.WhoAmI(ctx, "missing")
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorized))
}
