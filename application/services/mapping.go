package services

import (
	"fmt"
	"time"

	"filegraph/application/ports"
	"filegraph/domain/core/entities"
	pkgerrors "filegraph/pkg/errors"
)

// Node labels and property keys used in the graph. The store holds arbitrary
// property maps; everything above it works with the typed entities, and this
// file is the only place the two representations meet.
const (
	LabelPerson = "Person"
	LabelFile   = "File"

	propName        = "name"
	propEmail       = "email"
	propFilename    = "filename"
	propOwner       = "owner"
	propOwnerKey    = "owner_key"
	propSize        = "size"
	propContentType = "content_type"
	propBlobKey     = "blob_key"
	propDeleted     = "deleted"
	propCreatedAt   = "created_at"
	propUpdatedAt   = "updated_at"
	propDeletedAt   = "deleted_at"
	propTimestamp   = "timestamp"
	propBatchID     = "batch_id"
)

// ownerKey derives the per-person filename uniqueness key. The store enforces
// a uniqueness constraint on this single property, which gives the composite
// (owner, filename) constraint without scanning.
func ownerKey(owner, filename string) string {
	return owner + "/" + filename
}

func hasLabel(labels []string, want string) bool {
	for _, label := range labels {
		if label == want {
			return true
		}
	}
	return false
}

func personToProps(p *entities.Person) map[string]interface{} {
	return map[string]interface{}{
		propName:      p.Name(),
		propEmail:     p.Email(),
		propCreatedAt: p.CreatedAt().Format(time.RFC3339),
	}
}

func personFromNode(node ports.Node) (*entities.Person, error) {
	name, ok := stringProp(node.Props, propName)
	if !ok {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("person node %s has no name", node.ID))
	}
	email, _ := stringProp(node.Props, propEmail)
	createdAt := timeProp(node.Props, propCreatedAt)

	return entities.ReconstructPerson(node.ID, name, email, createdAt), nil
}

func fileToProps(f *entities.File) map[string]interface{} {
	return map[string]interface{}{
		propFilename:    f.Filename(),
		propOwner:       f.OwnerName(),
		propOwnerKey:    ownerKey(f.OwnerName(), f.Filename()),
		propSize:        f.Size(),
		propContentType: f.ContentType(),
		propBlobKey:     f.BlobKey(),
		propDeleted:     f.Deleted(),
		propCreatedAt:   f.CreatedAt().Format(time.RFC3339),
		propUpdatedAt:   f.UpdatedAt().Format(time.RFC3339),
	}
}

func fileFromNode(node ports.Node) (*entities.File, error) {
	filename, ok := stringProp(node.Props, propFilename)
	if !ok {
		return nil, pkgerrors.NewInternalError(fmt.Sprintf("file node %s has no filename", node.ID))
	}
	owner, _ := stringProp(node.Props, propOwner)
	contentType, _ := stringProp(node.Props, propContentType)
	blobKey, _ := stringProp(node.Props, propBlobKey)
	deleted, _ := node.Props[propDeleted].(bool)

	return entities.ReconstructFile(
		node.ID,
		owner,
		filename,
		intProp(node.Props, propSize),
		contentType,
		blobKey,
		deleted,
		timeProp(node.Props, propCreatedAt),
		timeProp(node.Props, propUpdatedAt),
		timeProp(node.Props, propDeletedAt),
	), nil
}

func interactionFromRelationship(rel ports.Relationship, actor, filename string) entities.Interaction {
	return entities.Interaction{
		ID:        rel.ID,
		Type:      entities.InteractionType(rel.Type),
		Actor:     actor,
		Filename:  filename,
		Timestamp: timeProp(rel.Props, propTimestamp),
	}
}

func stringProp(props map[string]interface{}, key string) (string, bool) {
	s, ok := props[key].(string)
	return s, ok
}

// intProp handles the numeric types the store round-trips integers as.
func intProp(props map[string]interface{}, key string) int64 {
	switch v := props[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

func timeProp(props map[string]interface{}, key string) time.Time {
	s, ok := props[key].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
