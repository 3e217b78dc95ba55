// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package vault

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/taibuivan/vaultlink/internal/platform/apperr"
)

// memoryRepository is an in-memory [Repository] with the same key rules as Postgres.
type memoryRepository struct {
	mu      sync.Mutex
	records map[string]*Record

	// conflicts makes the next n Create calls fail with a primary key collision.
	conflicts int
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{records: map[string]*Record{}}
}

func cloneRecord(record *Record) *Record {
	clone := *record
	if record.File != nil {
		file := *record.File
		clone.File = &file
	}
	clone.AllowedIdentities = slices.Clone(record.AllowedIdentities)
	return &clone
}

func (repository *memoryRepository) Create(_ context.Context, record *Record) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	if repository.conflicts > 0 {
		repository.conflicts--
		return apperr.Conflict("Resource already exists")
	}
	if _, exists := repository.records[record.ID]; exists {
		return apperr.Conflict("Resource already exists")
	}
	repository.records[record.ID] = cloneRecord(record)
	return nil
}

func (repository *memoryRepository) FindByID(_ context.Context, id string) (*Record, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	record, ok := repository.records[id]
	if !ok {
		return nil, errVaultNotFound()
	}
	return cloneRecord(record), nil
}

func (repository *memoryRepository) IncrementViewCount(_ context.Context, id string) (int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	record, ok := repository.records[id]
	if !ok {
		return 0, errVaultNotFound()
	}
	record.ViewCount++
	return record.ViewCount, nil
}

func (repository *memoryRepository) Delete(_ context.Context, id string) (bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	_, ok := repository.records[id]
	delete(repository.records, id)
	return ok, nil
}

func (repository *memoryRepository) ListByOwner(_ context.Context, ownerID string, now time.Time, limit, offset int) ([]*Record, int, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	records := make([]*Record, 0)
	for _, record := range repository.records {
		if record.OwnerID != nil && *record.OwnerID == ownerID && record.ExpiresAt.After(now) {
			records = append(records, cloneRecord(record))
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].CreatedAt.After(records[j].CreatedAt) })

	total := len(records)
	if offset >= total {
		return []*Record{}, total, nil
	}
	return records[offset:min(offset+limit, total)], total, nil
}

func (repository *memoryRepository) ListExpired(_ context.Context, now time.Time, limit int) ([]*Record, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	records := make([]*Record, 0)
	for _, record := range repository.records {
		if !record.ExpiresAt.After(now) {
			records = append(records, cloneRecord(record))
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ExpiresAt.Before(records[j].ExpiresAt) })
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (repository *memoryRepository) DeleteByIDs(_ context.Context, ids []string) (int64, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	var deleted int64
	for _, id := range ids {
		if _, ok := repository.records[id]; ok {
			delete(repository.records, id)
			deleted++
		}
	}
	return deleted, nil
}

func (repository *memoryRepository) ReferencedStorageRefs(_ context.Context, refs []string) (map[string]bool, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	referenced := map[string]bool{}
	for _, record := range repository.records {
		if ref := record.StorageRef(); ref != "" && slices.Contains(refs, ref) {
			referenced[ref] = true
		}
	}
	return referenced, nil
}

// put stores a record directly, bypassing the service.
func (repository *memoryRepository) put(record *Record) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	repository.records[record.ID] = cloneRecord(record)
}

func (repository *memoryRepository) has(id string) bool {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	_, ok := repository.records[id]
	return ok
}

func (repository *memoryRepository) count() int {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	return len(repository.records)
}
