// Package neo4j implements the GraphStore port on top of the Neo4j Bolt
// driver. Every label and relationship type is whitelisted before it is
// spliced into query text; every property value travels as a bound parameter.
package neo4j

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"filegraph/application/ports"
	pkgerrors "filegraph/pkg/errors"
	"filegraph/pkg/validation"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// Config holds the Neo4j connection settings.
type Config struct {
	URI      string
	Username string
	Password string
	Database string

	MaxConnectionPoolSize   int
	ConnectionTimeout       time.Duration
	QueryTimeout            time.Duration
	MaxTransactionRetryTime time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URI:                     "bolt://localhost:7687",
		Username:                "neo4j",
		Password:                "password",
		MaxConnectionPoolSize:   50,
		ConnectionTimeout:       30 * time.Second,
		QueryTimeout:            10 * time.Second,
		MaxTransactionRetryTime: 30 * time.Second,
	}
}

// Client is the validated graph store client. The underlying driver pools
// connections and is safe for concurrent use; Client adds identifier
// whitelisting, bounded per-call timeouts and error taxonomy mapping.
type Client struct {
	config Config
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewClient creates a client. It must be connected via Connect before use.
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if config.URI == "" {
		return nil, pkgerrors.NewValidationError("graph store URI is required")
	}
	if config.QueryTimeout <= 0 {
		config.QueryTimeout = DefaultConfig().QueryTimeout
	}
	return &Client{config: config, logger: logger}, nil
}

// Connect establishes the driver connection with exponential backoff.
func (c *Client) Connect(ctx context.Context) error {
	auth := neo4j.BasicAuth(c.config.Username, c.config.Password, "")

	configurer := func(cfg *neo4j.Config) {
		cfg.MaxConnectionPoolSize = c.config.MaxConnectionPoolSize
		cfg.ConnectionAcquisitionTimeout = c.config.ConnectionTimeout
		cfg.MaxTransactionRetryTime = c.config.MaxTransactionRetryTime
	}

	var lastErr error
	maxRetries := 5
	baseDelay := 100 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		driver, err := neo4j.NewDriverWithContext(c.config.URI, auth, configurer)
		if err == nil {
			if err = driver.VerifyConnectivity(ctx); err == nil {
				c.driver = driver
				c.logger.Info("Connected to graph store", zap.String("uri", c.config.URI))
				return nil
			}
		}
		lastErr = err

		if ctx.Err() != nil {
			return pkgerrors.NewUnavailableError("graph store", ctx.Err())
		}

		delay := baseDelay * time.Duration(math.Pow(2, float64(attempt)))
		if delay > c.config.ConnectionTimeout {
			delay = c.config.ConnectionTimeout
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return pkgerrors.NewUnavailableError("graph store", ctx.Err())
		}
	}

	return pkgerrors.NewUnavailableError("graph store",
		fmt.Errorf("failed to connect after %d attempts: %w", maxRetries, lastErr))
}

// Close releases the driver and its pooled connections.
func (c *Client) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}
	err := c.driver.Close(ctx)
	c.driver = nil
	return err
}

// VerifyConnectivity checks that the store is reachable.
func (c *Client) VerifyConnectivity(ctx context.Context) error {
	if c.driver == nil {
		return pkgerrors.NewUnavailableError("graph store", fmt.Errorf("driver not connected"))
	}
	if err := c.driver.VerifyConnectivity(ctx); err != nil {
		return pkgerrors.NewUnavailableError("graph store", err)
	}
	return nil
}

// EnsureUniqueConstraint creates a store-level uniqueness constraint on a
// label property. Concurrent creates racing on the constrained property
// resolve here: exactly one write wins, the other surfaces as Conflict.
func (c *Client) EnsureUniqueConstraint(ctx context.Context, label, property string) error {
	if err := validation.Label(label); err != nil {
		return err
	}
	if err := validation.PropertyKey(property); err != nil {
		return err
	}

	name := fmt.Sprintf("%s_%s_unique", strings.ToLower(label), strings.ToLower(property))
	query := fmt.Sprintf(
		"CREATE CONSTRAINT %s IF NOT EXISTS FOR (n:%s) REQUIRE n.%s IS UNIQUE",
		name, label, property,
	)
	_, err := c.write(ctx, query, nil, func(result neo4j.ResultWithContext, ctx context.Context) (interface{}, error) {
		_, err := result.Consume(ctx)
		return nil, err
	})
	return err
}

// CreateNode creates a node with the given labels and bound properties.
func (c *Client) CreateNode(ctx context.Context, labels []string, props map[string]interface{}) (ports.Node, error) {
	if len(labels) == 0 {
		return ports.Node{}, pkgerrors.NewValidationError("at least one label is required")
	}
	for _, label := range labels {
		if err := validation.Label(label); err != nil {
			return ports.Node{}, err
		}
	}
	if err := validation.Properties(props); err != nil {
		return ports.Node{}, err
	}

	query := fmt.Sprintf("CREATE (n:%s) SET n = $props RETURN n", strings.Join(labels, ":"))
	return c.writeNode(ctx, query, map[string]interface{}{"props": ensureProps(props)}, "node")
}

// GetNode fetches a node by its store-assigned identifier.
func (c *Client) GetNode(ctx context.Context, id string) (ports.Node, error) {
	query := "MATCH (n) WHERE elementId(n) = $id RETURN n"
	return c.readNode(ctx, query, map[string]interface{}{"id": id})
}

// UpdateNode merges properties into an existing node.
func (c *Client) UpdateNode(ctx context.Context, id string, props map[string]interface{}) (ports.Node, error) {
	if err := validation.Properties(props); err != nil {
		return ports.Node{}, err
	}

	query := "MATCH (n) WHERE elementId(n) = $id SET n += $props RETURN n"
	return c.writeNode(ctx, query, map[string]interface{}{
		"id":    id,
		"props": ensureProps(props),
	}, "node")
}

// DeleteNode removes a node and all its incident relationships.
func (c *Client) DeleteNode(ctx context.Context, id string) error {
	query := "MATCH (n) WHERE elementId(n) = $id DETACH DELETE n RETURN count(n) AS deleted"
	deleted, err := c.write(ctx, query, map[string]interface{}{"id": id}, collectCount)
	if err != nil {
		return err
	}
	if deleted.(int64) == 0 {
		return pkgerrors.NewNotFoundError("node")
	}
	return nil
}

// FindNodesByLabel returns every node carrying the given label.
func (c *Client) FindNodesByLabel(ctx context.Context, label string) ([]ports.Node, error) {
	if err := validation.Label(label); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("MATCH (n:%s) RETURN n", label)
	result, err := c.read(ctx, query, nil, collectAll)
	if err != nil {
		return nil, err
	}

	records := result.([]*neo4j.Record)
	nodes := make([]ports.Node, 0, len(records))
	for _, record := range records {
		node, err := nodeFromRecord(record, "n")
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// CreateRelationship creates a typed edge between two existing nodes. A
// missing endpoint surfaces as NotFound, never as a dangling edge.
func (c *Client) CreateRelationship(ctx context.Context, fromID, toID, relType string, props map[string]interface{}) (ports.Relationship, error) {
	if err := validation.RelationType(relType); err != nil {
		return ports.Relationship{}, err
	}
	if err := validation.Properties(props); err != nil {
		return ports.Relationship{}, err
	}

	query := fmt.Sprintf(`
		MATCH (a) WHERE elementId(a) = $fromId
		MATCH (b) WHERE elementId(b) = $toId
		CREATE (a)-[r:%s]->(b)
		SET r = $props
		RETURN r`, relType)
	params := map[string]interface{}{
		"fromId": fromID,
		"toId":   toID,
		"props":  ensureProps(props),
	}

	result, err := c.write(ctx, query, params, collectSingle)
	if err != nil {
		return ports.Relationship{}, err
	}
	record := result.(*neo4j.Record)
	if record == nil {
		return ports.Relationship{}, pkgerrors.NewNotFoundError("relationship endpoint")
	}
	return relationshipFromRecord(record, "r")
}

// GetRelationship fetches a relationship by its store-assigned identifier.
func (c *Client) GetRelationship(ctx context.Context, id string) (ports.Relationship, error) {
	query := "MATCH ()-[r]->() WHERE elementId(r) = $id RETURN r"
	result, err := c.read(ctx, query, map[string]interface{}{"id": id}, collectSingle)
	if err != nil {
		return ports.Relationship{}, err
	}
	record := result.(*neo4j.Record)
	if record == nil {
		return ports.Relationship{}, pkgerrors.NewNotFoundError("relationship")
	}
	return relationshipFromRecord(record, "r")
}

// UpdateRelationship merges properties into an existing relationship.
func (c *Client) UpdateRelationship(ctx context.Context, id string, props map[string]interface{}) (ports.Relationship, error) {
	if err := validation.Properties(props); err != nil {
		return ports.Relationship{}, err
	}

	query := "MATCH ()-[r]->() WHERE elementId(r) = $id SET r += $props RETURN r"
	result, err := c.write(ctx, query, map[string]interface{}{
		"id":    id,
		"props": ensureProps(props),
	}, collectSingle)
	if err != nil {
		return ports.Relationship{}, err
	}
	record := result.(*neo4j.Record)
	if record == nil {
		return ports.Relationship{}, pkgerrors.NewNotFoundError("relationship")
	}
	return relationshipFromRecord(record, "r")
}

// DeleteRelationship removes a relationship by identifier.
func (c *Client) DeleteRelationship(ctx context.Context, id string) error {
	query := "MATCH ()-[r]->() WHERE elementId(r) = $id DELETE r RETURN count(r) AS deleted"
	deleted, err := c.write(ctx, query, map[string]interface{}{"id": id}, collectCount)
	if err != nil {
		return err
	}
	if deleted.(int64) == 0 {
		return pkgerrors.NewNotFoundError("relationship")
	}
	return nil
}

// FindRelationshipsByType returns every relationship of the given type.
func (c *Client) FindRelationshipsByType(ctx context.Context, relType string) ([]ports.Relationship, error) {
	if err := validation.RelationType(relType); err != nil {
		return nil, err
	}

	query := fmt.Sprintf("MATCH ()-[r:%s]->() RETURN r", relType)
	return c.collectRelationships(ctx, query, nil)
}

// FindRelationshipsForNode returns the relationships incident to a node,
// filtered by direction and optionally by type.
func (c *Client) FindRelationshipsForNode(ctx context.Context, nodeID string, direction ports.Direction, relType string) ([]ports.Relationship, error) {
	typeFilter := ""
	if relType != "" {
		if err := validation.RelationType(relType); err != nil {
			return nil, err
		}
		typeFilter = ":" + relType
	}

	var pattern string
	switch direction {
	case ports.DirectionIncoming:
		pattern = fmt.Sprintf("<-[r%s]-()", typeFilter)
	case ports.DirectionOutgoing:
		pattern = fmt.Sprintf("-[r%s]->()", typeFilter)
	case ports.DirectionAll, "":
		pattern = fmt.Sprintf("-[r%s]-()", typeFilter)
	default:
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("invalid direction '%s'", direction))
	}

	query := fmt.Sprintf("MATCH (n)%s WHERE elementId(n) = $id RETURN r", pattern)
	return c.collectRelationships(ctx, query, map[string]interface{}{"id": nodeID})
}

// RunQuery executes a developer-authored query template with bound
// parameters and returns the result rows. Graph values inside rows are
// converted to the generic Node/Relationship representations.
func (c *Client) RunQuery(ctx context.Context, query string, params map[string]interface{}) ([]map[string]interface{}, error) {
	if err := validation.Properties(params); err != nil {
		return nil, err
	}

	result, err := c.read(ctx, query, params, collectAll)
	if err != nil {
		return nil, err
	}

	records := result.([]*neo4j.Record)
	rows := make([]map[string]interface{}, 0, len(records))
	for _, record := range records {
		row := make(map[string]interface{}, len(record.Keys))
		for i, key := range record.Keys {
			row[key] = convertValue(record.Values[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// maxPathHops bounds path searches to keep them from exhausting the store.
const maxPathHops = 15

// FindPath returns the shortest path between two nodes within maxHops.
func (c *Client) FindPath(ctx context.Context, fromID, toID string, maxHops int) (ports.Path, error) {
	if maxHops < 1 {
		maxHops = 1
	}
	if maxHops > maxPathHops {
		maxHops = maxPathHops
	}

	query := fmt.Sprintf(`
		MATCH (a) WHERE elementId(a) = $fromId
		MATCH (b) WHERE elementId(b) = $toId
		MATCH path = shortestPath((a)-[*..%d]-(b))
		RETURN path`, maxHops)
	params := map[string]interface{}{"fromId": fromID, "toId": toID}

	result, err := c.read(ctx, query, params, collectSingle)
	if err != nil {
		return ports.Path{}, err
	}
	record := result.(*neo4j.Record)
	if record == nil {
		return ports.Path{}, pkgerrors.NewNotFoundError("path between nodes")
	}
	return pathFromRecord(record, "path")
}

// txWork extracts a result from an executed query inside a transaction.
type txWork func(result neo4j.ResultWithContext, ctx context.Context) (interface{}, error)

// write runs a query in a managed write transaction with a bounded timeout,
// retrying once on connectivity loss.
func (c *Client) write(ctx context.Context, query string, params map[string]interface{}, work txWork) (interface{}, error) {
	return c.run(ctx, query, params, work, true)
}

// read runs a query in a managed read transaction with a bounded timeout,
// retrying once on connectivity loss.
func (c *Client) read(ctx context.Context, query string, params map[string]interface{}, work txWork) (interface{}, error) {
	return c.run(ctx, query, params, work, false)
}

func (c *Client) run(ctx context.Context, query string, params map[string]interface{}, work txWork, isWrite bool) (interface{}, error) {
	if c.driver == nil {
		return nil, pkgerrors.NewUnavailableError("graph store", fmt.Errorf("driver not connected"))
	}

	result, err := c.runOnce(ctx, query, params, work, isWrite)
	if err != nil && isConnectivityError(err) {
		// One immediate retry on connection loss; anything else surfaces
		// directly.
		c.logger.Warn("Graph store connection lost, retrying once", zap.Error(err))
		result, err = c.runOnce(ctx, query, params, work, isWrite)
	}
	if err != nil {
		return nil, mapDriverError(err)
	}
	return result, nil
}

func (c *Client) runOnce(ctx context.Context, query string, params map[string]interface{}, work txWork, isWrite bool) (interface{}, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.QueryTimeout)
	defer cancel()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.config.Database})
	defer session.Close(ctx)

	tx := func(tx neo4j.ManagedTransaction) (interface{}, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return work(result, ctx)
	}

	if isWrite {
		return session.ExecuteWrite(ctx, tx)
	}
	return session.ExecuteRead(ctx, tx)
}

func (c *Client) writeNode(ctx context.Context, query string, params map[string]interface{}, resource string) (ports.Node, error) {
	result, err := c.write(ctx, query, params, collectSingle)
	if err != nil {
		return ports.Node{}, err
	}
	record := result.(*neo4j.Record)
	if record == nil {
		return ports.Node{}, pkgerrors.NewNotFoundError(resource)
	}
	return nodeFromRecord(record, "n")
}

func (c *Client) readNode(ctx context.Context, query string, params map[string]interface{}) (ports.Node, error) {
	result, err := c.read(ctx, query, params, collectSingle)
	if err != nil {
		return ports.Node{}, err
	}
	record := result.(*neo4j.Record)
	if record == nil {
		return ports.Node{}, pkgerrors.NewNotFoundError("node")
	}
	return nodeFromRecord(record, "n")
}

func (c *Client) collectRelationships(ctx context.Context, query string, params map[string]interface{}) ([]ports.Relationship, error) {
	result, err := c.read(ctx, query, params, collectAll)
	if err != nil {
		return nil, err
	}

	records := result.([]*neo4j.Record)
	rels := make([]ports.Relationship, 0, len(records))
	for _, record := range records {
		rel, err := relationshipFromRecord(record, "r")
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

// collectSingle returns the first record or nil when the result is empty.
func collectSingle(result neo4j.ResultWithContext, ctx context.Context) (interface{}, error) {
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return (*neo4j.Record)(nil), nil
	}
	return records[0], nil
}

// collectAll drains the result into a record slice.
func collectAll(result neo4j.ResultWithContext, ctx context.Context) (interface{}, error) {
	return result.Collect(ctx)
}

// collectCount reads an int64 "deleted" column from the first record.
func collectCount(result neo4j.ResultWithContext, ctx context.Context) (interface{}, error) {
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return int64(0), nil
	}
	value, ok := records[0].Get("deleted")
	if !ok {
		return int64(0), nil
	}
	count, _ := value.(int64)
	return count, nil
}

// ensureProps keeps SET n = $props from receiving a nil map.
func ensureProps(props map[string]interface{}) map[string]interface{} {
	if props == nil {
		return map[string]interface{}{}
	}
	return props
}
