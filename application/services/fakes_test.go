package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"filegraph/application/ports"
	pkgerrors "filegraph/pkg/errors"
)

// fakeGraphStore is an in-memory GraphStore. It enforces the same uniqueness
// constraints the real store carries (Person.name, File.owner_key) and
// understands the query templates the service submits.
type fakeGraphStore struct {
	mu     sync.Mutex
	nodes  map[string]ports.Node
	rels   map[string]ports.Relationship
	nextID int

	// Failure injection. When set, the matching call returns the error once.
	failCreateRelationship func(relType string) error
	failCreateNode         func(labels []string) error
}

func newFakeGraphStore() *fakeGraphStore {
	return &fakeGraphStore{
		nodes: make(map[string]ports.Node),
		rels:  make(map[string]ports.Relationship),
	}
}

func (f *fakeGraphStore) id() string {
	f.nextID++
	return fmt.Sprintf("4:fake:%d", f.nextID)
}

func copyProps(props map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

func (f *fakeGraphStore) CreateNode(ctx context.Context, labels []string, props map[string]interface{}) (ports.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCreateNode != nil {
		if err := f.failCreateNode(labels); err != nil {
			return ports.Node{}, err
		}
	}

	for _, uniqueProp := range []struct{ label, key string }{
		{LabelPerson, propName},
		{LabelFile, propOwnerKey},
	} {
		if !hasLabel(labels, uniqueProp.label) {
			continue
		}
		for _, existing := range f.nodes {
			if hasLabel(existing.Labels, uniqueProp.label) && existing.Props[uniqueProp.key] == props[uniqueProp.key] {
				return ports.Node{}, pkgerrors.NewConflictError("constraint violation")
			}
		}
	}

	node := ports.Node{ID: f.id(), Labels: labels, Props: copyProps(props)}
	f.nodes[node.ID] = node
	return node, nil
}

func (f *fakeGraphStore) GetNode(ctx context.Context, id string) (ports.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	node, ok := f.nodes[id]
	if !ok {
		return ports.Node{}, pkgerrors.NewNotFoundError("node")
	}
	return node, nil
}

func (f *fakeGraphStore) UpdateNode(ctx context.Context, id string, props map[string]interface{}) (ports.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	node, ok := f.nodes[id]
	if !ok {
		return ports.Node{}, pkgerrors.NewNotFoundError("node")
	}
	merged := copyProps(node.Props)
	for k, v := range props {
		merged[k] = v
	}
	node.Props = merged
	f.nodes[id] = node
	return node, nil
}

func (f *fakeGraphStore) DeleteNode(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.nodes[id]; !ok {
		return pkgerrors.NewNotFoundError("node")
	}
	delete(f.nodes, id)
	for relID, rel := range f.rels {
		if rel.StartID == id || rel.EndID == id {
			delete(f.rels, relID)
		}
	}
	return nil
}

func (f *fakeGraphStore) FindNodesByLabel(ctx context.Context, label string) ([]ports.Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ports.Node
	for _, node := range f.nodes {
		if hasLabel(node.Labels, label) {
			out = append(out, node)
		}
	}
	return out, nil
}

func (f *fakeGraphStore) CreateRelationship(ctx context.Context, fromID, toID, relType string, props map[string]interface{}) (ports.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failCreateRelationship != nil {
		if err := f.failCreateRelationship(relType); err != nil {
			return ports.Relationship{}, err
		}
	}

	if _, ok := f.nodes[fromID]; !ok {
		return ports.Relationship{}, pkgerrors.NewNotFoundError("relationship endpoint")
	}
	if _, ok := f.nodes[toID]; !ok {
		return ports.Relationship{}, pkgerrors.NewNotFoundError("relationship endpoint")
	}

	rel := ports.Relationship{ID: f.id(), Type: relType, StartID: fromID, EndID: toID, Props: copyProps(props)}
	f.rels[rel.ID] = rel
	return rel, nil
}

func (f *fakeGraphStore) GetRelationship(ctx context.Context, id string) (ports.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rel, ok := f.rels[id]
	if !ok {
		return ports.Relationship{}, pkgerrors.NewNotFoundError("relationship")
	}
	return rel, nil
}

func (f *fakeGraphStore) UpdateRelationship(ctx context.Context, id string, props map[string]interface{}) (ports.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rel, ok := f.rels[id]
	if !ok {
		return ports.Relationship{}, pkgerrors.NewNotFoundError("relationship")
	}
	merged := copyProps(rel.Props)
	for k, v := range props {
		merged[k] = v
	}
	rel.Props = merged
	f.rels[id] = rel
	return rel, nil
}

func (f *fakeGraphStore) DeleteRelationship(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rels[id]; !ok {
		return pkgerrors.NewNotFoundError("relationship")
	}
	delete(f.rels, id)
	return nil
}

func (f *fakeGraphStore) FindRelationshipsByType(ctx context.Context, relType string) ([]ports.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ports.Relationship
	for _, rel := range f.rels {
		if rel.Type == relType {
			out = append(out, rel)
		}
	}
	return out, nil
}

func (f *fakeGraphStore) FindRelationshipsForNode(ctx context.Context, nodeID string, direction ports.Direction, relType string) ([]ports.Relationship, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ports.Relationship
	for _, rel := range f.rels {
		if relType != "" && rel.Type != relType {
			continue
		}
		switch direction {
		case ports.DirectionIncoming:
			if rel.EndID != nodeID {
				continue
			}
		case ports.DirectionOutgoing:
			if rel.StartID != nodeID {
				continue
			}
		default:
			if rel.StartID != nodeID && rel.EndID != nodeID {
				continue
			}
		}
		out = append(out, rel)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeGraphStore) RunQuery(ctx context.Context, query string, params map[string]interface{}) ([]map[string]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch query {
	case queryPersonByName:
		for _, node := range f.nodes {
			if hasLabel(node.Labels, LabelPerson) && node.Props[propName] == params["name"] {
				return []map[string]interface{}{{"p": node}}, nil
			}
		}
		return nil, nil

	case queryFileByKey:
		for _, node := range f.nodes {
			if hasLabel(node.Labels, LabelFile) && node.Props[propOwnerKey] == params["owner_key"] {
				return []map[string]interface{}{{"f": node}}, nil
			}
		}
		return nil, nil

	case queryFilesByOwner:
		var files []ports.Node
		for _, node := range f.nodes {
			if hasLabel(node.Labels, LabelFile) && node.Props[propOwner] == params["owner"] {
				files = append(files, node)
			}
		}
		sort.Slice(files, func(i, j int) bool {
			a, _ := files[i].Props[propFilename].(string)
			b, _ := files[j].Props[propFilename].(string)
			return a < b
		})
		rows := make([]map[string]interface{}, len(files))
		for i, node := range files {
			rows[i] = map[string]interface{}{"f": node}
		}
		return rows, nil

	case queryNodeCount:
		return []map[string]interface{}{{"count": int64(len(f.nodes))}}, nil

	case queryRelCount:
		return []map[string]interface{}{{"count": int64(len(f.rels))}}, nil

	case queryLabels:
		seen := map[string]bool{}
		for _, node := range f.nodes {
			for _, label := range node.Labels {
				seen[label] = true
			}
		}
		return distinctRows(seen, "label"), nil

	case queryRelTypes:
		seen := map[string]bool{}
		for _, rel := range f.rels {
			seen[rel.Type] = true
		}
		return distinctRows(seen, "type"), nil
	}

	return nil, pkgerrors.NewValidationError("unrecognized query template")
}

func (f *fakeGraphStore) FindPath(ctx context.Context, fromID, toID string, maxHops int) (ports.Path, error) {
	return ports.Path{}, pkgerrors.NewNotFoundError("path")
}

func distinctRows(seen map[string]bool, column string) []map[string]interface{} {
	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	rows := make([]map[string]interface{}, len(values))
	for i, v := range values {
		rows[i] = map[string]interface{}{column: v}
	}
	return rows
}

// nodeCount reports how many nodes carry the label.
func (f *fakeGraphStore) nodeCount(label string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, node := range f.nodes {
		if hasLabel(node.Labels, label) {
			n++
		}
	}
	return n
}

// relCount reports how many relationships carry the type.
func (f *fakeGraphStore) relCount(relType string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, rel := range f.rels {
		if rel.Type == relType {
			n++
		}
	}
	return n
}

// fakeBlobStore is an in-memory BlobStore with optional Put failure injection.
type fakeBlobStore struct {
	mu      sync.Mutex
	blobs   map[string][]byte
	failPut func() error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPut != nil {
		if err := f.failPut(); err != nil {
			return err
		}
	}
	f.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (f *fakeBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.blobs[key]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("blob")
	}
	return append([]byte(nil), data...), nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.blobs[key]; !ok {
		return pkgerrors.NewNotFoundError("blob")
	}
	delete(f.blobs, key)
	return nil
}

func (f *fakeBlobStore) Exists(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blobs[key]
	return ok, nil
}

func (f *fakeBlobStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}
