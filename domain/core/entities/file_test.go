package entities

import (
	"testing"
	"time"

	pkgerrors "filegraph/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFile(t *testing.T) *File {
	t.Helper()
	f, err := NewFile("alice", "notes.txt", 42, "text/plain", "blob-key-1")
	require.NoError(t, err)
	return f
}

func TestNewFile(t *testing.T) {
	f := newTestFile(t)

	assert.Equal(t, "alice", f.OwnerName())
	assert.Equal(t, "notes.txt", f.Filename())
	assert.Equal(t, int64(42), f.Size())
	assert.Equal(t, "text/plain", f.ContentType())
	assert.Equal(t, "blob-key-1", f.BlobKey())
	assert.False(t, f.Deleted())
	assert.True(t, f.DeletedAt().IsZero())
	assert.Equal(t, f.CreatedAt(), f.UpdatedAt())
}

func TestNewFileValidation(t *testing.T) {
	cases := []struct {
		name     string
		owner    string
		filename string
		size     int64
		blobKey  string
	}{
		{"empty owner", "", "a.txt", 0, "k"},
		{"empty filename", "alice", "", 0, "k"},
		{"negative size", "alice", "a.txt", -1, "k"},
		{"empty blob key", "alice", "a.txt", 0, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFile(tc.owner, tc.filename, tc.size, "text/plain", tc.blobKey)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsValidation(err))
		})
	}
}

func TestApplyEdit(t *testing.T) {
	t.Run("updates size and content type", func(t *testing.T) {
		f := newTestFile(t)
		require.NoError(t, f.ApplyEdit(100, "application/json"))
		assert.Equal(t, int64(100), f.Size())
		assert.Equal(t, "application/json", f.ContentType())
	})

	t.Run("keeps content type when empty", func(t *testing.T) {
		f := newTestFile(t)
		require.NoError(t, f.ApplyEdit(100, ""))
		assert.Equal(t, "text/plain", f.ContentType())
	})

	t.Run("rejects negative size", func(t *testing.T) {
		f := newTestFile(t)
		err := f.ApplyEdit(-1, "")
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("rejects edit on deleted file", func(t *testing.T) {
		f := newTestFile(t)
		require.NoError(t, f.MarkDeleted())
		err := f.ApplyEdit(10, "")
		assert.True(t, pkgerrors.IsGone(err))
	})
}

func TestMarkDeleted(t *testing.T) {
	f := newTestFile(t)

	require.NoError(t, f.MarkDeleted())
	assert.True(t, f.Deleted())
	assert.False(t, f.DeletedAt().IsZero())

	// Deletion is terminal; a second delete is Gone, not idempotent success.
	err := f.MarkDeleted()
	assert.True(t, pkgerrors.IsGone(err))
}

func TestEnsureReadable(t *testing.T) {
	f := newTestFile(t)
	assert.NoError(t, f.EnsureReadable())

	require.NoError(t, f.MarkDeleted())
	assert.True(t, pkgerrors.IsGone(f.EnsureReadable()))
}

func TestReconstructFile(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	deleted := created.Add(time.Hour)
	f := ReconstructFile("4:abc:9", "bob", "a.txt", 7, "text/csv", "key-9", true, created, deleted, deleted)

	assert.Equal(t, "4:abc:9", f.ID())
	assert.Equal(t, "bob", f.OwnerName())
	assert.True(t, f.Deleted())
	assert.Equal(t, deleted, f.DeletedAt())
	assert.True(t, pkgerrors.IsGone(f.EnsureReadable()))
}
