package ports

import "context"

// Direction selects relationship orientation relative to a node.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
	DirectionAll      Direction = "all"
)

// Node is the generic property-graph vertex representation. The domain layer
// maps these to typed entities; nothing above the store works with raw maps
// for longer than the mapping step.
type Node struct {
	ID     string
	Labels []string
	Props  map[string]interface{}
}

// Relationship is a directed, typed edge between two existing nodes.
type Relationship struct {
	ID      string
	Type    string
	StartID string
	EndID   string
	Props   map[string]interface{}
}

// Path is an alternating node/relationship sequence between two nodes.
type Path struct {
	Nodes         []Node
	Relationships []Relationship
}

// GraphStore is the validated wrapper around the property-graph engine.
// Implementations must be safe for concurrent use, pass every property value
// as a bound parameter, and complete each call within a bounded timeout.
//
// Errors are reported through the pkg/errors taxonomy: NotFound for missing
// entities, Conflict for store-level uniqueness violations, Unavailable for
// connection loss or timeout.
type GraphStore interface {
	CreateNode(ctx context.Context, labels []string, props map[string]interface{}) (Node, error)
	GetNode(ctx context.Context, id string) (Node, error)
	UpdateNode(ctx context.Context, id string, props map[string]interface{}) (Node, error)
	DeleteNode(ctx context.Context, id string) error
	FindNodesByLabel(ctx context.Context, label string) ([]Node, error)

	CreateRelationship(ctx context.Context, fromID, toID, relType string, props map[string]interface{}) (Relationship, error)
	GetRelationship(ctx context.Context, id string) (Relationship, error)
	UpdateRelationship(ctx context.Context, id string, props map[string]interface{}) (Relationship, error)
	DeleteRelationship(ctx context.Context, id string) error
	FindRelationshipsByType(ctx context.Context, relType string) ([]Relationship, error)
	FindRelationshipsForNode(ctx context.Context, nodeID string, direction Direction, relType string) ([]Relationship, error)

	// RunQuery executes a developer-authored query template with caller-bound
	// parameters. Callers must never pass query text built from untrusted
	// input; untrusted values belong in params.
	RunQuery(ctx context.Context, query string, params map[string]interface{}) ([]map[string]interface{}, error)

	// FindPath returns the shortest path between two nodes within maxHops.
	FindPath(ctx context.Context, fromID, toID string, maxHops int) (Path, error)
}
