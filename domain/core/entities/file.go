package entities

import (
	"time"

	pkgerrors "filegraph/pkg/errors"
)

// File is a tracked upload. The filename is unique per owning person across
// both active and soft-deleted files, and never changes. Deletion is a
// terminal property flip; the node and its interaction history survive it.
//
// State machine: nonexistent -> active -> deleted (terminal).
type File struct {
	id          string
	ownerName   string
	filename    string
	size        int64
	contentType string
	blobKey     string
	deleted     bool
	createdAt   time.Time
	updatedAt   time.Time
	deletedAt   time.Time
}

// NewFile creates an active file with business rule validation. blobKey is the
// opaque blob-store key assigned by the service.
func NewFile(ownerName, filename string, size int64, contentType, blobKey string) (*File, error) {
	if ownerName == "" {
		return nil, pkgerrors.NewValidationError("owner name cannot be empty")
	}
	if filename == "" {
		return nil, pkgerrors.NewValidationError("filename cannot be empty")
	}
	if size < 0 {
		return nil, pkgerrors.NewValidationError("size cannot be negative")
	}
	if blobKey == "" {
		return nil, pkgerrors.NewValidationError("blob key cannot be empty")
	}

	now := time.Now().UTC()
	return &File{
		ownerName:   ownerName,
		filename:    filename,
		size:        size,
		contentType: contentType,
		blobKey:     blobKey,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// ReconstructFile rebuilds a file from store data with preserved state.
func ReconstructFile(
	id, ownerName, filename string,
	size int64,
	contentType, blobKey string,
	deleted bool,
	createdAt, updatedAt, deletedAt time.Time,
) *File {
	return &File{
		id:          id,
		ownerName:   ownerName,
		filename:    filename,
		size:        size,
		contentType: contentType,
		blobKey:     blobKey,
		deleted:     deleted,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
		deletedAt:   deletedAt,
	}
}

// ApplyEdit replaces the mutable metadata after the blob content changed.
// Deleted files reject edits; the filename never changes.
func (f *File) ApplyEdit(size int64, contentType string) error {
	if f.deleted {
		return pkgerrors.NewGoneError("file '" + f.filename + "'")
	}
	if size < 0 {
		return pkgerrors.NewValidationError("size cannot be negative")
	}

	f.size = size
	if contentType != "" {
		f.contentType = contentType
	}
	f.updatedAt = time.Now().UTC()
	return nil
}

// MarkDeleted flips the file into its terminal deleted state. Deleting an
// already-deleted file is an idempotent failure, not a success.
func (f *File) MarkDeleted() error {
	if f.deleted {
		return pkgerrors.NewGoneError("file '" + f.filename + "'")
	}

	f.deleted = true
	f.deletedAt = time.Now().UTC()
	f.updatedAt = f.deletedAt
	return nil
}

// EnsureReadable returns Gone when the file is soft-deleted, nil otherwise.
func (f *File) EnsureReadable() error {
	if f.deleted {
		return pkgerrors.NewGoneError("file '" + f.filename + "'")
	}
	return nil
}

// ID returns the store-assigned identifier, empty until persisted.
func (f *File) ID() string { return f.id }

// SetID records the store-assigned identifier after creation.
func (f *File) SetID(id string) { f.id = id }

// OwnerName returns the owning person's name.
func (f *File) OwnerName() string { return f.ownerName }

// Filename returns the immutable filename.
func (f *File) Filename() string { return f.filename }

// Size returns the file size in bytes.
func (f *File) Size() int64 { return f.size }

// ContentType returns the file's MIME type.
func (f *File) ContentType() string { return f.contentType }

// BlobKey returns the opaque blob-store key.
func (f *File) BlobKey() string { return f.blobKey }

// Deleted reports whether the file is in its terminal deleted state.
func (f *File) Deleted() bool { return f.deleted }

// CreatedAt returns when the file was first uploaded.
func (f *File) CreatedAt() time.Time { return f.createdAt }

// UpdatedAt returns when the file was last modified.
func (f *File) UpdatedAt() time.Time { return f.updatedAt }

// DeletedAt returns when the file was soft-deleted, zero if active.
func (f *File) DeletedAt() time.Time { return f.deletedAt }
