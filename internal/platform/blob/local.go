// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// tempSuffix marks partially written blobs. List reports them like any other
// file: no record references a temp key, so the orphan sweep removes leftovers
// of a crashed Put once they are older than its grace period.
const tempSuffix = ".partial"

// LocalStore keeps blobs as flat files under one directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed and returns a store rooted there.
func NewLocalStore(root string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("blob: failed to create upload directory %s: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

// Put streams r into a temp file, fsyncs it, then renames it into place.
// A failed write never leaves a half-written file under the final key.
func (store *LocalStore) Put(ctx context.Context, key string, r io.Reader, _ int64) (int64, error) {
	if err := ValidateKey(key); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	finalPath := store.path(key)
	tempPath := finalPath + tempSuffix

	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return 0, fmt.Errorf("blob: failed to create temp file: %w", err)
	}

	written, err := io.Copy(file, r)
	if err != nil {
		file.Close()
		os.Remove(tempPath)
		return 0, fmt.Errorf("blob: failed to write %s: %w", key, err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return 0, fmt.Errorf("blob: fsync failed for %s: %w", key, err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("blob: failed to close %s: %w", key, err)
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("blob: failed to move %s into place: %w", key, err)
	}

	return written, nil
}

// Open opens the file behind key for reading.
func (store *LocalStore) Open(_ context.Context, key string) (io.ReadCloser, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	file, err := os.Open(store.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotExist
		}
		return nil, fmt.Errorf("blob: failed to open %s: %w", key, err)
	}
	return file, nil
}

// Delete removes the file behind key.
func (store *LocalStore) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if err := os.Remove(store.path(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotExist
		}
		return fmt.Errorf("blob: failed to delete %s: %w", key, err)
	}
	return nil
}

// List returns the regular files directly under the root, temp files included.
func (store *LocalStore) List(ctx context.Context) ([]Object, error) {
	entries, err := os.ReadDir(store.root)
	if err != nil {
		return nil, fmt.Errorf("blob: failed to list %s: %w", store.root, err)
	}

	objects := make([]Object, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.Type().IsRegular() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}

		objects = append(objects, Object{
			Key:        entry.Name(),
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		})
	}
	return objects, nil
}

// Root returns the directory blobs are written to.
func (store *LocalStore) Root() string {
	return store.root
}

func (store *LocalStore) path(key string) string {
	return filepath.Join(store.root, key)
}
