package entities

import "time"

// InteractionType defines the type of person/file relationship
type InteractionType string

const (
	InteractionUploaded   InteractionType = "UPLOADED"
	InteractionDownloaded InteractionType = "DOWNLOADED"
	InteractionEdited     InteractionType = "EDITED"

	// RelationUploadedWith links two files uploaded in the same batch. The
	// relation is symmetric in meaning but stored once per pair, in batch
	// order; queries ignore direction.
	RelationUploadedWith = "UPLOADED_WITH"
)

// Interaction is one recorded person/file event. Interactions are append-only:
// created at the moment of the triggering event, never mutated or deleted,
// and they survive soft deletion of the file.
type Interaction struct {
	ID        string          `json:"id"`
	Type      InteractionType `json:"type"`
	Actor     string          `json:"actor"`
	Filename  string          `json:"filename"`
	Timestamp time.Time       `json:"timestamp"`
}
