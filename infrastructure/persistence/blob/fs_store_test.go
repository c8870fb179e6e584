package blob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	pkgerrors "filegraph/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestNewFileStore(t *testing.T) {
	t.Run("creates root directory", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "nested", "blobs")
		_, err := NewFileStore(root, zap.NewNop())
		require.NoError(t, err)

		info, err := os.Stat(root)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})

	t.Run("rejects empty root", func(t *testing.T) {
		_, err := NewFileStore("", zap.NewNop())
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestPutGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Put(ctx, "key-1", []byte("hello")))

	data, err := store.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// Put overwrites.
	require.NoError(t, store.Put(ctx, "key-1", []byte("replaced")))
	data, err = store.Get(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(data))
}

func TestGetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Get(context.Background(), "no-such-key")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.Put(ctx, "key-1", []byte("x")))
	require.NoError(t, store.Delete(ctx, "key-1"))

	_, err := store.Get(ctx, "key-1")
	assert.True(t, pkgerrors.IsNotFound(err))

	err = store.Delete(ctx, "key-1")
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	ok, err := store.Exists(ctx, "key-1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Put(ctx, "key-1", nil))
	ok, err = store.Exists(ctx, "key-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRejectsPathShapedKeys(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, key := range []string{"", "../escape", "a/b", "a\\b", ".hidden", "nul\x00"} {
		t.Run(key, func(t *testing.T) {
			err := store.Put(ctx, key, []byte("x"))
			assert.True(t, pkgerrors.IsValidation(err), "%q", key)
		})
	}
}

func TestCancelledContext(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.Put(ctx, "key-1", []byte("x"))
	assert.True(t, pkgerrors.IsUnavailable(err))
}
