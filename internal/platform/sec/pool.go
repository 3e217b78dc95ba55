// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Hasher runs the CPU-heavy KDF on a bounded number of slots.
//
// Requests that need a hash wait for a slot instead of piling onto every core,
// so unrelated requests keep their latency under a burst of logins or
// password-protected views.
type Hasher struct {
	slots *semaphore.Weighted
}

// NewHasher creates a Hasher with the given concurrency. A value <= 0 means GOMAXPROCS.
func NewHasher(concurrency int) *Hasher {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &Hasher{slots: semaphore.NewWeighted(int64(concurrency))}
}

// Hash derives the stored form of a password on a worker slot.
func (h *Hasher) Hash(ctx context.Context, plainTextPassword string) (string, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("sec: hasher slot unavailable: %w", err)
	}
	defer h.slots.Release(1)

	return HashPassword(plainTextPassword)
}

// Verify checks a password against its stored form on a worker slot.
func (h *Hasher) Verify(ctx context.Context, storedHash, plainTextPassword string) (bool, error) {
	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, fmt.Errorf("sec: hasher slot unavailable: %w", err)
	}
	defer h.slots.Release(1)

	return CheckPasswordHash(plainTextPassword, storedHash), nil
}
