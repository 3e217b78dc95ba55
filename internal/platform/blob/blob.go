// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package blob stores the raw bytes behind File vaults.

Two backends implement [Store]: a local directory (the default, suitable for a
single node) and any S3-compatible bucket (AWS, MinIO, Cloudflare R2). Keys are
flat, opaque names generated by the vault service; callers never pass user
supplied filenames as keys.

Every backend reports a missing object as [ErrNotExist] so cleanup paths can
treat "already gone" as success.
*/
package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// ErrNotExist is returned when a key has no object behind it.
var ErrNotExist = errors.New("blob: object does not exist")

// ErrInvalidKey is returned for keys that could escape the storage root.
var ErrInvalidKey = errors.New("blob: invalid key")

// Object describes a stored blob as seen by [Store.List].
type Object struct {
	Key        string
	Size       int64
	ModifiedAt time.Time
}

// Store is the persistence boundary for file payloads.
type Store interface {
	// Put writes r under key and returns the number of bytes stored.
	// size is a hint and may be -1 when unknown.
	Put(ctx context.Context, key string, r io.Reader, size int64) (int64, error)

	// Open returns a reader for key. The caller must close it.
	Open(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key. A missing key yields [ErrNotExist].
	Delete(ctx context.Context, key string) error

	// List returns every stored object.
	List(ctx context.Context) ([]Object, error)
}

// IsNotExist reports whether err means the object is absent.
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// ValidateKey rejects empty keys and anything that looks like a path.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) || strings.HasPrefix(key, ".") {
		return ErrInvalidKey
	}
	return nil
}
