package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"filegraph/application/ports"
	"filegraph/domain/core/entities"
	pkgerrors "filegraph/pkg/errors"
	"filegraph/pkg/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Query templates executed through GraphStore.RunQuery. These are the only
// query texts the service ever submits; untrusted values travel exclusively
// as bound parameters.
const (
	queryPersonByName = `MATCH (p:Person {name: $name}) RETURN p LIMIT 1`
	queryFileByKey    = `MATCH (f:File {owner_key: $owner_key}) RETURN f LIMIT 1`
	queryFilesByOwner = `MATCH (f:File {owner: $owner}) RETURN f ORDER BY f.filename`
	queryNodeCount    = `MATCH (n) RETURN count(n) AS count`
	queryRelCount     = `MATCH ()-[r]->() RETURN count(r) AS count`
	queryLabels       = `MATCH (n) UNWIND labels(n) AS label RETURN DISTINCT label ORDER BY label`
	queryRelTypes     = `MATCH ()-[r]->() RETURN DISTINCT type(r) AS type ORDER BY type`
)

// FileUpload is one inbound file in an upload or batch upload call.
type FileUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Stats summarizes the graph contents.
type Stats struct {
	NodeCount         int64    `json:"node_count"`
	RelationshipCount int64    `json:"relationship_count"`
	Labels            []string `json:"labels"`
	RelationshipTypes []string `json:"relationship_types"`
}

// InteractionService owns the person/file business rules and records every
// interaction as graph relationships. It talks to the graph through the
// validated GraphStore port and to file bytes through the BlobStore port; it
// holds no state of its own, so concurrent requests only contend inside the
// stores.
type InteractionService struct {
	graph  ports.GraphStore
	blobs  ports.BlobStore
	logger *zap.Logger
}

// NewInteractionService creates the domain service.
func NewInteractionService(graph ports.GraphStore, blobs ports.BlobStore, logger *zap.Logger) *InteractionService {
	return &InteractionService{
		graph:  graph,
		blobs:  blobs,
		logger: logger,
	}
}

// CreatePerson creates a person node. Uniqueness of the name is enforced by
// the store constraint, not by a read-before-write: when two concurrent calls
// race on the same name, exactly one node survives and the loser gets Conflict.
func (s *InteractionService) CreatePerson(ctx context.Context, name, email string) (*entities.Person, error) {
	person, err := entities.NewPerson(name, email)
	if err != nil {
		return nil, err
	}

	node, err := s.graph.CreateNode(ctx, []string{LabelPerson}, personToProps(person))
	if err != nil {
		if pkgerrors.IsConflict(err) {
			return nil, pkgerrors.NewConflictError(fmt.Sprintf("person with name '%s' already exists", name))
		}
		return nil, err
	}
	person.SetID(node.ID)

	s.logger.Info("Person created",
		zap.String("name", person.Name()),
		zap.String("nodeID", person.ID()),
	)
	return person, nil
}

// GetPerson resolves a person by globally unique name.
func (s *InteractionService) GetPerson(ctx context.Context, name string) (*entities.Person, error) {
	rows, err := s.graph.RunQuery(ctx, queryPersonByName, map[string]interface{}{"name": name})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("person '%s'", name))
	}

	node, ok := rows[0]["p"].(ports.Node)
	if !ok {
		return nil, pkgerrors.NewInternalError("unexpected result shape for person lookup")
	}
	return personFromNode(node)
}

// ListPersons returns every person node.
func (s *InteractionService) ListPersons(ctx context.Context) ([]*entities.Person, error) {
	nodes, err := s.graph.FindNodesByLabel(ctx, LabelPerson)
	if err != nil {
		return nil, err
	}

	persons := make([]*entities.Person, 0, len(nodes))
	for _, node := range nodes {
		person, err := personFromNode(node)
		if err != nil {
			return nil, err
		}
		persons = append(persons, person)
	}
	sort.Slice(persons, func(i, j int) bool { return persons[i].Name() < persons[j].Name() })
	return persons, nil
}

// UploadFile stores the file bytes, creates the File node and records the
// UPLOADED relationship, in that order. An orphaned blob after a failed graph
// write is unreachable and tolerated, but never reported as success.
func (s *InteractionService) UploadFile(ctx context.Context, personName string, upload FileUpload) (*entities.File, error) {
	person, err := s.GetPerson(ctx, personName)
	if err != nil {
		return nil, err
	}
	return s.uploadOne(ctx, person, upload)
}

// UploadBatch uploads every file under one batch context and links the batch
// members pairwise with UPLOADED_WITH. The batch is atomic from the caller's
// view: any failure rolls back the files already created in this attempt
// before the error is returned, and no linking edges are left behind.
func (s *InteractionService) UploadBatch(ctx context.Context, personName string, uploads []FileUpload) ([]*entities.File, error) {
	if len(uploads) == 0 {
		return nil, pkgerrors.NewValidationError("no files provided")
	}

	person, err := s.GetPerson(ctx, personName)
	if err != nil {
		return nil, err
	}

	// Reject duplicate filenames inside the batch before any write happens.
	seen := make(map[string]bool, len(uploads))
	for _, upload := range uploads {
		if err := validation.Filename(upload.Filename); err != nil {
			return nil, err
		}
		if seen[upload.Filename] {
			return nil, pkgerrors.NewValidationError(
				fmt.Sprintf("duplicate filename in batch: '%s'", upload.Filename))
		}
		seen[upload.Filename] = true
	}

	batchID := uuid.New().String()
	created := make([]*entities.File, 0, len(uploads))

	for _, upload := range uploads {
		file, err := s.uploadOne(ctx, person, upload)
		if err != nil {
			s.rollbackBatch(ctx, created)
			return nil, err
		}
		created = append(created, file)
	}

	// Link every unordered pair once, in batch order. The relation is
	// symmetric in meaning; readers query it ignoring direction.
	now := time.Now().UTC().Format(time.RFC3339Nano)
	for i := 0; i < len(created); i++ {
		for j := i + 1; j < len(created); j++ {
			_, err := s.graph.CreateRelationship(ctx,
				created[i].ID(), created[j].ID(),
				entities.RelationUploadedWith,
				map[string]interface{}{
					propBatchID:   batchID,
					propTimestamp: now,
				})
			if err != nil {
				s.rollbackBatch(ctx, created)
				return nil, err
			}
		}
	}

	s.logger.Info("Batch uploaded",
		zap.String("person", personName),
		zap.String("batchID", batchID),
		zap.Int("files", len(created)),
	)
	return created, nil
}

// uploadOne runs the single-file upload sequence: blob first, then node, then
// the UPLOADED edge. Each later failure compensates the earlier writes.
func (s *InteractionService) uploadOne(ctx context.Context, person *entities.Person, upload FileUpload) (*entities.File, error) {
	if err := validation.Filename(upload.Filename); err != nil {
		return nil, err
	}
	contentType, err := validation.ContentType(upload.ContentType)
	if err != nil {
		return nil, err
	}

	// Opaque key: the blob path never contains user input.
	blobKey := uuid.New().String()

	file, err := entities.NewFile(person.Name(), upload.Filename, int64(len(upload.Data)), contentType, blobKey)
	if err != nil {
		return nil, err
	}

	if err := s.blobs.Put(ctx, blobKey, upload.Data); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to store file content")
	}

	node, err := s.graph.CreateNode(ctx, []string{LabelFile}, fileToProps(file))
	if err != nil {
		s.discardBlob(ctx, blobKey)
		if pkgerrors.IsConflict(err) {
			// The owner_key constraint covers deleted files too: a name is
			// never reusable after soft deletion.
			return nil, pkgerrors.NewConflictError(fmt.Sprintf(
				"file '%s' already exists for person '%s'", upload.Filename, person.Name()))
		}
		return nil, err
	}
	file.SetID(node.ID)

	if err := s.recordInteraction(ctx, person.ID(), file.ID(), entities.InteractionUploaded); err != nil {
		if delErr := s.graph.DeleteNode(ctx, file.ID()); delErr != nil {
			s.logger.Error("Failed to clean up file node after relationship failure",
				zap.String("nodeID", file.ID()), zap.Error(delErr))
		}
		s.discardBlob(ctx, blobKey)
		return nil, err
	}

	return file, nil
}

// rollbackBatch compensates a failed batch: every file node created in this
// attempt is removed together with its incident edges and its blob.
func (s *InteractionService) rollbackBatch(ctx context.Context, created []*entities.File) {
	for _, file := range created {
		if err := s.graph.DeleteNode(ctx, file.ID()); err != nil {
			s.logger.Error("Batch rollback failed to delete file node",
				zap.String("nodeID", file.ID()),
				zap.String("filename", file.Filename()),
				zap.Error(err),
			)
		}
		s.discardBlob(ctx, file.BlobKey())
	}
}

func (s *InteractionService) discardBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil && !pkgerrors.IsNotFound(err) {
		s.logger.Warn("Failed to delete blob", zap.String("key", key), zap.Error(err))
	}
}

// DownloadFile returns the file bytes and records a DOWNLOADED interaction.
// The read happens before the record, so a download that fails to fetch bytes
// leaves no trace in the history.
func (s *InteractionService) DownloadFile(ctx context.Context, personName, filename string) (*entities.File, []byte, error) {
	person, file, err := s.resolve(ctx, personName, filename)
	if err != nil {
		return nil, nil, err
	}
	if err := file.EnsureReadable(); err != nil {
		return nil, nil, err
	}

	data, err := s.blobs.Get(ctx, file.BlobKey())
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, nil, pkgerrors.NewNotFoundError(fmt.Sprintf("content of file '%s'", filename))
		}
		return nil, nil, err
	}

	if err := s.recordInteraction(ctx, person.ID(), file.ID(), entities.InteractionDownloaded); err != nil {
		return nil, nil, err
	}
	return file, data, nil
}

// EditFile overwrites the blob content, updates the file metadata and records
// an EDITED interaction. The filename never changes.
func (s *InteractionService) EditFile(ctx context.Context, personName string, upload FileUpload) (*entities.File, error) {
	person, file, err := s.resolve(ctx, personName, upload.Filename)
	if err != nil {
		return nil, err
	}

	// An omitted content type keeps the file's current one; only an explicit
	// value goes through normalization.
	contentType := ""
	if upload.ContentType != "" {
		contentType, err = validation.ContentType(upload.ContentType)
		if err != nil {
			return nil, err
		}
	}
	if err := file.ApplyEdit(int64(len(upload.Data)), contentType); err != nil {
		return nil, err
	}

	if err := s.blobs.Put(ctx, file.BlobKey(), upload.Data); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to overwrite file content")
	}

	if _, err := s.graph.UpdateNode(ctx, file.ID(), map[string]interface{}{
		propSize:        file.Size(),
		propContentType: file.ContentType(),
		propUpdatedAt:   file.UpdatedAt().Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}

	if err := s.recordInteraction(ctx, person.ID(), file.ID(), entities.InteractionEdited); err != nil {
		return nil, err
	}
	return file, nil
}

// DeleteFile soft-deletes a file: the node flips to its terminal deleted state
// and the blob is removed, but the node and all interaction history stay in
// the graph. Deleting an already-deleted file fails with Gone.
func (s *InteractionService) DeleteFile(ctx context.Context, personName, filename string) (*entities.File, error) {
	_, file, err := s.resolve(ctx, personName, filename)
	if err != nil {
		return nil, err
	}

	if err := file.MarkDeleted(); err != nil {
		return nil, err
	}

	if _, err := s.graph.UpdateNode(ctx, file.ID(), map[string]interface{}{
		propDeleted:   true,
		propDeletedAt: file.DeletedAt().Format(time.RFC3339),
		propUpdatedAt: file.UpdatedAt().Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}

	s.discardBlob(ctx, file.BlobKey())

	s.logger.Info("File soft-deleted",
		zap.String("person", personName),
		zap.String("filename", filename),
	)
	return file, nil
}

// ListFiles returns all files owned by a person, deleted ones included, so
// callers can partition active against deleted.
func (s *InteractionService) ListFiles(ctx context.Context, personName string) ([]*entities.File, error) {
	if _, err := s.GetPerson(ctx, personName); err != nil {
		return nil, err
	}

	rows, err := s.graph.RunQuery(ctx, queryFilesByOwner, map[string]interface{}{"owner": personName})
	if err != nil {
		return nil, err
	}

	files := make([]*entities.File, 0, len(rows))
	for _, row := range rows {
		node, ok := row["f"].(ports.Node)
		if !ok {
			return nil, pkgerrors.NewInternalError("unexpected result shape for file listing")
		}
		file, err := fileFromNode(node)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	return files, nil
}

// ListAllFiles returns every file node in the graph regardless of owner,
// ordered by owner then filename.
func (s *InteractionService) ListAllFiles(ctx context.Context) ([]*entities.File, error) {
	nodes, err := s.graph.FindNodesByLabel(ctx, LabelFile)
	if err != nil {
		return nil, err
	}

	files := make([]*entities.File, 0, len(nodes))
	for _, node := range nodes {
		file, err := fileFromNode(node)
		if err != nil {
			return nil, err
		}
		files = append(files, file)
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].OwnerName() != files[j].OwnerName() {
			return files[i].OwnerName() < files[j].OwnerName()
		}
		return files[i].Filename() < files[j].Filename()
	})
	return files, nil
}

// GetFileByID returns file metadata by graph node id. The id is opaque to
// callers; anything that is not a File node reports NotFound.
func (s *InteractionService) GetFileByID(ctx context.Context, id string) (*entities.File, error) {
	node, err := s.graph.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	if !hasLabel(node.Labels, LabelFile) {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("file %s", id))
	}
	return fileFromNode(node)
}

// History returns every interaction recorded against the file, from any
// person, ascending by time. Soft deletion does not affect it.
func (s *InteractionService) History(ctx context.Context, personName, filename string) ([]entities.Interaction, error) {
	_, file, err := s.resolve(ctx, personName, filename)
	if err != nil {
		return nil, err
	}

	rels, err := s.graph.FindRelationshipsForNode(ctx, file.ID(), ports.DirectionIncoming, "")
	if err != nil {
		return nil, err
	}

	actors := make(map[string]string)
	interactions := make([]entities.Interaction, 0, len(rels))
	for _, rel := range rels {
		switch entities.InteractionType(rel.Type) {
		case entities.InteractionUploaded, entities.InteractionDownloaded, entities.InteractionEdited:
		default:
			continue
		}

		actor, ok := actors[rel.StartID]
		if !ok {
			node, err := s.graph.GetNode(ctx, rel.StartID)
			if err != nil {
				return nil, err
			}
			actor, _ = stringProp(node.Props, propName)
			actors[rel.StartID] = actor
		}
		interactions = append(interactions, interactionFromRelationship(rel, actor, file.Filename()))
	}

	sort.SliceStable(interactions, func(i, j int) bool {
		return interactions[i].Timestamp.Before(interactions[j].Timestamp)
	})
	return interactions, nil
}

// BatchRelated returns the files linked to the named file by UPLOADED_WITH
// edges in either direction: a one-hop adjacency lookup, not a path search.
func (s *InteractionService) BatchRelated(ctx context.Context, personName, filename string) ([]*entities.File, error) {
	_, file, err := s.resolve(ctx, personName, filename)
	if err != nil {
		return nil, err
	}

	rels, err := s.graph.FindRelationshipsForNode(ctx, file.ID(), ports.DirectionAll, entities.RelationUploadedWith)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	related := make([]*entities.File, 0, len(rels))
	for _, rel := range rels {
		otherID := rel.StartID
		if otherID == file.ID() {
			otherID = rel.EndID
		}
		if seen[otherID] {
			continue
		}
		seen[otherID] = true

		node, err := s.graph.GetNode(ctx, otherID)
		if err != nil {
			return nil, err
		}
		other, err := fileFromNode(node)
		if err != nil {
			return nil, err
		}
		related = append(related, other)
	}

	sort.Slice(related, func(i, j int) bool { return related[i].Filename() < related[j].Filename() })
	return related, nil
}

// GraphStats reports node and relationship counts plus the distinct labels
// and relationship types present in the graph.
func (s *InteractionService) GraphStats(ctx context.Context) (Stats, error) {
	var stats Stats

	rows, err := s.graph.RunQuery(ctx, queryNodeCount, nil)
	if err != nil {
		return stats, err
	}
	if len(rows) > 0 {
		stats.NodeCount = countValue(rows[0]["count"])
	}

	rows, err = s.graph.RunQuery(ctx, queryRelCount, nil)
	if err != nil {
		return stats, err
	}
	if len(rows) > 0 {
		stats.RelationshipCount = countValue(rows[0]["count"])
	}

	rows, err = s.graph.RunQuery(ctx, queryLabels, nil)
	if err != nil {
		return stats, err
	}
	for _, row := range rows {
		if label, ok := row["label"].(string); ok {
			stats.Labels = append(stats.Labels, label)
		}
	}

	rows, err = s.graph.RunQuery(ctx, queryRelTypes, nil)
	if err != nil {
		return stats, err
	}
	for _, row := range rows {
		if relType, ok := row["type"].(string); ok {
			stats.RelationshipTypes = append(stats.RelationshipTypes, relType)
		}
	}
	return stats, nil
}

func countValue(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

// resolve looks up a person by name and their file by filename. Both must
// exist; the file may be soft-deleted, callers decide whether that matters.
func (s *InteractionService) resolve(ctx context.Context, personName, filename string) (*entities.Person, *entities.File, error) {
	if err := validation.Filename(filename); err != nil {
		return nil, nil, err
	}

	person, err := s.GetPerson(ctx, personName)
	if err != nil {
		return nil, nil, err
	}

	rows, err := s.graph.RunQuery(ctx, queryFileByKey, map[string]interface{}{
		"owner_key": ownerKey(personName, filename),
	})
	if err != nil {
		return nil, nil, err
	}
	if len(rows) == 0 {
		return nil, nil, pkgerrors.NewNotFoundError(
			fmt.Sprintf("file '%s' for person '%s'", filename, personName))
	}

	node, ok := rows[0]["f"].(ports.Node)
	if !ok {
		return nil, nil, pkgerrors.NewInternalError("unexpected result shape for file lookup")
	}
	file, err := fileFromNode(node)
	if err != nil {
		return nil, nil, err
	}
	return person, file, nil
}

// recordInteraction appends one immutable person->file interaction edge.
func (s *InteractionService) recordInteraction(ctx context.Context, personID, fileID string, kind entities.InteractionType) error {
	_, err := s.graph.CreateRelationship(ctx, personID, fileID, string(kind), map[string]interface{}{
		propTimestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
	return err
}
