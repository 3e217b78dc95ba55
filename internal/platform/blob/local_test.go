// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package blob_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/vaultlink/internal/platform/blob"
)

func newLocalStore(t *testing.T) *blob.LocalStore {
	t.Helper()
	store, err := blob.NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return store
}

/*
TestLocalStore_PutOpenDelete covers the full object lifecycle.
*/
func TestLocalStore_PutOpenDelete(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	written, err := store.Put(ctx, "abc123.txt", strings.NewReader("hello vault"), 11)
	require.NoError(t, err)
	assert.Equal(t, int64(11), written)

	reader, err := store.Open(ctx, "abc123.txt")
	require.NoError(t, err)
	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.NoError(t, reader.Close())
	assert.Equal(t, "hello vault", string(content))

	require.NoError(t, store.Delete(ctx, "abc123.txt"))

	_, err = store.Open(ctx, "abc123.txt")
	assert.ErrorIs(t, err, blob.ErrNotExist)
}

/*
TestLocalStore_DeleteMissing reports ErrNotExist so callers can treat it as done.
*/
func TestLocalStore_DeleteMissing(t *testing.T) {
	store := newLocalStore(t)

	err := store.Delete(context.Background(), "never-written.bin")
	assert.True(t, blob.IsNotExist(err))
}

/*
TestLocalStore_RejectsPathKeys blocks traversal outside the root.
*/
func TestLocalStore_RejectsPathKeys(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	for _, key := range []string{"", "..", "../escape", "nested/key", `win\key`, ".hidden"} {
		_, err := store.Put(ctx, key, strings.NewReader("x"), 1)
		assert.ErrorIs(t, err, blob.ErrInvalidKey, key)
	}
}

/*
TestLocalStore_List returns regular files with their sizes.
*/
func TestLocalStore_List(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	_, err := store.Put(ctx, "one.pdf", strings.NewReader("1"), 1)
	require.NoError(t, err)
	_, err = store.Put(ctx, "two.png", strings.NewReader("22"), 2)
	require.NoError(t, err)
	require.NoError(t, os.Mkdir(filepath.Join(store.Root(), "subdir"), 0o750))

	objects, err := store.List(ctx)
	require.NoError(t, err)

	sizes := map[string]int64{}
	for _, object := range objects {
		sizes[object.Key] = object.Size
		assert.False(t, object.ModifiedAt.IsZero())
	}
	assert.Equal(t, map[string]int64{"one.pdf": 1, "two.png": 2}, sizes)
}

/*
TestLocalStore_CancelledPut does not create any file.
*/
func TestLocalStore_CancelledPut(t *testing.T) {
	store := newLocalStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Put(ctx, "late.txt", strings.NewReader("x"), 1)
	require.Error(t, err)

	objects, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, objects)
}

/*
TestLocalStore_ListReportsTempFiles exposes leftovers of an interrupted Put so they can be deleted.
*/
func TestLocalStore_ListReportsTempFiles(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(store.Root(), "123-abc.png.partial"), []byte("half"), 0o640))

	objects, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, "123-abc.png.partial", objects[0].Key)
	assert.Equal(t, int64(4), objects[0].Size)

	require.NoError(t, store.Delete(ctx, "123-abc.png.partial"))

	objects, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, objects)
}
