// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/vaultlink/internal/platform/apperr"
	"github.com/taibuivan/vaultlink/internal/platform/sec"
	"github.com/taibuivan/vaultlink/internal/platform/validate"
	"github.com/taibuivan/vaultlink/pkg/uuid"
)

// # Contracts & Types

// PasswordHasher runs the password KDF. [sec.Hasher] is the production implementation.
type PasswordHasher interface {
	Hash(ctx context.Context, plainTextPassword string) (string, error)
	Verify(ctx context.Context, storedHash, plainTextPassword string) (bool, error)
}

// Service implements account and session use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed with care.
type Service struct {
	repository Repository
	hasher     PasswordHasher
	logger     *slog.Logger
	now        func() time.Time

	// decoyHash equalizes timing for unknown emails. It is derived on first
	// use and kept only once derivation succeeds.
	decoyMu   sync.Mutex
	decoyHash string
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(repository Repository, hasher PasswordHasher, logger *slog.Logger) *Service {
	return &Service{
		repository: repository,
		hasher:     hasher,
		logger:     logger,
		now:        time.Now,
	}
}

// # Registration Flow

// Credentials holds an email/password pair as submitted by a client.
type Credentials struct {
	Email    string
	Password string
}

/*
Register validates, hashes, and persists a brand new account, then signs it in.

Parameters:
  - context: context.Context
  - input: Credentials

Returns:
  - *Session: The new account with its first session token
  - err: ValidationError, Conflict (email taken) or storage errors
*/
func (service *Service) Register(context context.Context, input Credentials) (*Session, error) {
	email := validate.NormalizeEmail(input.Email)

	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).
		MaxLen(FieldEmail, email, EmailMaxLength).
		Email(FieldEmail, email).
		Required(FieldPassword, input.Password).
		MinLen(FieldPassword, input.Password, PasswordMinLength)

	if err := validator.Err(); err != nil {
		return nil, err
	}

	// Verify email uniqueness. The unique index still guards the race.
	if _, err := service.repository.FindByEmail(context, email); err == nil {
		return nil, apperr.Conflict(msgEmailTaken)
	} else if !apperr.HasCode(err, apperr.CodeNotFound) {
		return nil, fmt.Errorf("identity_service_lookup_failed: %w", err)
	}

	hashedPassword, err := service.hasher.Hash(context, input.Password)
	if err != nil {
		return nil, fmt.Errorf("identity_service_hash_failed: %w", err)
	}

	account := &Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    service.now(),
	}

	if err := service.repository.Create(context, account); err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("identity_service_register_failed: %w", err)
	}

	service.logger.InfoContext(context, "account_registered", slog.String("user_id", account.ID))

	return service.issueSession(context, account)
}

// # Authentication Flow

/*
Login verifies credentials and issues a new session, replacing any prior one.

Description: Unknown emails and wrong passwords produce the identical error.
For unknown emails a decoy hash is still verified so both paths cost one KDF run.

Parameters:
  - context: context.Context
  - input: Credentials

Returns:
  - *Session: Fresh bearer token and account
  - err: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input Credentials) (*Session, error) {
	email := validate.NormalizeEmail(input.Email)

	if email == "" || input.Password == "" {
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	account, err := service.repository.FindByEmail(context, email)
	if err != nil {
		if !apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, fmt.Errorf("identity_service_lookup_failed: %w", err)
		}
		// Spend the same KDF time as a real verification.
		_, _ = service.hasher.Verify(context, service.decoy(context), input.Password)
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	matched, err := service.hasher.Verify(context, account.PasswordHash, input.Password)
	if err != nil {
		return nil, fmt.Errorf("identity_service_verify_failed: %w", err)
	}
	if !matched {
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	return service.issueSession(context, account)
}

/*
AuthenticateToken resolves a bearer token to its caller.

Description: Hashes the token, looks up the single account holding that digest
and checks expiry lazily.

Returns:
  - *sec.Principal: The authenticated caller
  - err: Unauthorized("Session expired or missing")
*/
func (service *Service) AuthenticateToken(context context.Context, token string) (*sec.Principal, error) {
	if token == "" {
		return nil, apperr.Unauthorized(msgSessionInvalid)
	}

	account, err := service.repository.FindBySessionHash(context, sec.HashToken(token))
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized(msgSessionInvalid)
		}
		return nil, apperr.Internal(fmt.Errorf("identity_service_session_lookup_failed: %w", err))
	}

	if !account.HasLiveSession(service.now()) {
		return nil, apperr.Unauthorized(msgSessionInvalid)
	}

	return account.Principal(), nil
}

/*
Logout clears the stored session so the token stops working immediately.
*/
func (service *Service) Logout(context context.Context, accountID string) error {
	if err := service.repository.ClearSession(context, accountID); err != nil {
		return fmt.Errorf("identity_service_logout_failed: %w", err)
	}

	service.logger.InfoContext(context, "account_logged_out", slog.String("user_id", accountID))
	return nil
}

/*
WhoAmI returns the account behind an authenticated caller.
*/
func (service *Service) WhoAmI(context context.Context, accountID string) (*Account, error) {
	account, err := service.repository.FindByID(context, accountID)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			return nil, apperr.Unauthorized(msgSessionInvalid)
		}
		return nil, fmt.Errorf("identity_service_whoami_failed: %w", err)
	}
	return account, nil
}

// # Session Management

// issueSession generates a token, stores only its digest and returns the raw token once.
func (service *Service) issueSession(context context.Context, account *Account) (*Session, error) {
	token, err := sec.GenerateSecureToken(SessionTokenLength)
	if err != nil {
		return nil, fmt.Errorf("identity_service_token_failed: %w", err)
	}

	expiresAt := service.now().Add(SessionTTL)
	tokenHash := sec.HashToken(token)

	if err := service.repository.SetSession(context, account.ID, tokenHash, expiresAt); err != nil {
		return nil, fmt.Errorf("identity_service_session_failed: %w", err)
	}

	account.SessionTokenHash = &tokenHash
	account.SessionExpiresAt = &expiresAt

	return &Session{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}

// decoy returns a valid stored hash for an arbitrary password.
// A failed derivation is not cached, so the next unknown-email login retries it.
func (service *Service) decoy(context context.Context) string {
	service.decoyMu.Lock()
	defer service.decoyMu.Unlock()

	if service.decoyHash != "" {
		return service.decoyHash
	}

	hash, err := service.hasher.Hash(context, "decoy-password-for-timing")
	if err != nil {
		service.logger.WarnContext(context, "identity_decoy_hash_failed", slog.Any("error", err))
		return ""
	}

	service.decoyHash = hash
	return hash
}
