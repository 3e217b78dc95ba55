// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package identity

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/vaultlink/internal/platform/apperr"
)

// memoryRepository is an in-memory [Repository] with the same uniqueness rules as Postgres.
type memoryRepository struct {
	mu       sync.Mutex
	accounts map[string]*Account
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{accounts: map[string]*Account{}}
}

func (repository *memoryRepository) Create(_ context.Context, account *Account) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, existing := range repository.accounts {
		if existing.Email == account.Email {
			return apperr.Conflict(msgEmailTaken)
		}
	}
	clone := *account
	repository.accounts[account.ID] = &clone
	return nil
}

func (repository *memoryRepository) FindByID(_ context.Context, id string) (*Account, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if account, ok := repository.accounts[id]; ok {
		clone := *account
		return &clone, nil
	}
	return nil, apperr.NotFound("Account")
}

func (repository *memoryRepository) FindByEmail(_ context.Context, email string) (*Account, error) {
	return repository.find(func(account *Account) bool { return account.Email == email })
}

func (repository *memoryRepository) FindBySessionHash(_ context.Context, tokenHash string) (*Account, error) {
	return repository.find(func(account *Account) bool {
		return account.SessionTokenHash != nil && *account.SessionTokenHash == tokenHash
	})
}

func (repository *memoryRepository) SetSession(_ context.Context, accountID, tokenHash string, expiresAt time.Time) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	account, ok := repository.accounts[accountID]
	if !ok {
		return apperr.NotFound("Account")
	}
	account.SessionTokenHash = &tokenHash
	account.SessionExpiresAt = &expiresAt
	return nil
}

func (repository *memoryRepository) ClearSession(_ context.Context, accountID string) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if account, ok := repository.accounts[accountID]; ok {
		account.SessionTokenHash = nil
		account.SessionExpiresAt = nil
	}
	return nil
}

func (repository *memoryRepository) find(match func(*Account) bool) (*Account, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	for _, account := range repository.accounts {
		if match(account) {
			clone := *account
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Account")
}
