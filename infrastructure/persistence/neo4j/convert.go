package neo4j

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"filegraph/application/ports"
	pkgerrors "filegraph/pkg/errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// nodeFromRecord extracts a node column into the generic representation.
func nodeFromRecord(record *neo4j.Record, key string) (ports.Node, error) {
	value, ok := record.Get(key)
	if !ok {
		return ports.Node{}, pkgerrors.NewInternalError(fmt.Sprintf("column '%s' missing from result", key))
	}
	node, ok := value.(dbtype.Node)
	if !ok {
		return ports.Node{}, pkgerrors.NewInternalError(fmt.Sprintf("column '%s' is not a node", key))
	}
	return convertNode(node), nil
}

// relationshipFromRecord extracts a relationship column.
func relationshipFromRecord(record *neo4j.Record, key string) (ports.Relationship, error) {
	value, ok := record.Get(key)
	if !ok {
		return ports.Relationship{}, pkgerrors.NewInternalError(fmt.Sprintf("column '%s' missing from result", key))
	}
	rel, ok := value.(dbtype.Relationship)
	if !ok {
		return ports.Relationship{}, pkgerrors.NewInternalError(fmt.Sprintf("column '%s' is not a relationship", key))
	}
	return convertRelationship(rel), nil
}

// pathFromRecord extracts a path column.
func pathFromRecord(record *neo4j.Record, key string) (ports.Path, error) {
	value, ok := record.Get(key)
	if !ok {
		return ports.Path{}, pkgerrors.NewInternalError(fmt.Sprintf("column '%s' missing from result", key))
	}
	p, ok := value.(dbtype.Path)
	if !ok {
		return ports.Path{}, pkgerrors.NewInternalError(fmt.Sprintf("column '%s' is not a path", key))
	}

	path := ports.Path{
		Nodes:         make([]ports.Node, 0, len(p.Nodes)),
		Relationships: make([]ports.Relationship, 0, len(p.Relationships)),
	}
	for _, node := range p.Nodes {
		path.Nodes = append(path.Nodes, convertNode(node))
	}
	for _, rel := range p.Relationships {
		path.Relationships = append(path.Relationships, convertRelationship(rel))
	}
	return path, nil
}

func convertNode(node dbtype.Node) ports.Node {
	return ports.Node{
		ID:     node.ElementId,
		Labels: node.Labels,
		Props:  node.Props,
	}
}

func convertRelationship(rel dbtype.Relationship) ports.Relationship {
	return ports.Relationship{
		ID:      rel.ElementId,
		Type:    rel.Type,
		StartID: rel.StartElementId,
		EndID:   rel.EndElementId,
		Props:   rel.Props,
	}
}

// convertValue maps driver values inside query rows to the generic
// representations, leaving plain scalars untouched.
func convertValue(value interface{}) interface{} {
	switch v := value.(type) {
	case dbtype.Node:
		return convertNode(v)
	case dbtype.Relationship:
		return convertRelationship(v)
	case dbtype.Path:
		path := ports.Path{}
		for _, node := range v.Nodes {
			path.Nodes = append(path.Nodes, convertNode(node))
		}
		for _, rel := range v.Relationships {
			path.Relationships = append(path.Relationships, convertRelationship(rel))
		}
		return path
	default:
		return value
	}
}

// constraintViolationCode is the server code for uniqueness violations.
const constraintViolationCode = "ConstraintValidationFailed"

// mapDriverError translates driver failures into the error taxonomy:
// uniqueness violations become Conflict, connection loss and timeouts become
// Unavailable, anything else is an internal store error.
func mapDriverError(err error) error {
	if err == nil {
		return nil
	}
	if pkgerrors.IsAppError(err) {
		return err
	}

	var neo4jErr *neo4j.Neo4jError
	if errors.As(err, &neo4jErr) {
		if strings.Contains(neo4jErr.Code, constraintViolationCode) {
			return pkgerrors.NewConflictError("uniqueness constraint violated").WithCause(err)
		}
	}

	if isConnectivityError(err) {
		return pkgerrors.NewUnavailableError("graph store", err)
	}

	return pkgerrors.NewInternalError("graph store operation failed").WithCause(err)
}

func isConnectivityError(err error) bool {
	if err == nil {
		return false
	}
	if pkgerrors.IsUnavailable(err) {
		return true
	}
	if neo4j.IsConnectivityError(err) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
