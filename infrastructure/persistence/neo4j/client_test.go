package neo4j

import (
	"context"
	"testing"
	"time"

	pkgerrors "filegraph/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUnconnectedClient(t *testing.T) *Client {
	t.Helper()
	client, err := NewClient(DefaultConfig(), zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("requires uri", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.URI = ""
		_, err := NewClient(cfg, zap.NewNop())
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("defaults query timeout", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.QueryTimeout = 0
		client, err := NewClient(cfg, zap.NewNop())
		require.NoError(t, err)
		assert.Equal(t, 10*time.Second, client.config.QueryTimeout)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "bolt://localhost:7687", cfg.URI)
	assert.Equal(t, 50, cfg.MaxConnectionPoolSize)
	assert.Positive(t, cfg.QueryTimeout)
}

// Identifier validation runs before any store round trip, so these paths are
// exercisable without a connection.
func TestClientRejectsInvalidIdentifiers(t *testing.T) {
	ctx := context.Background()
	client := newUnconnectedClient(t)

	t.Run("create node", func(t *testing.T) {
		_, err := client.CreateNode(ctx, nil, nil)
		assert.True(t, pkgerrors.IsValidation(err))

		_, err = client.CreateNode(ctx, []string{"Person) DETACH DELETE (n"}, nil)
		assert.True(t, pkgerrors.IsValidation(err))

		_, err = client.CreateNode(ctx, []string{"Person"}, map[string]interface{}{"bad key": 1})
		assert.True(t, pkgerrors.IsValidation(err))

		_, err = client.CreateNode(ctx, []string{"Person"}, map[string]interface{}{"list": []int{1}})
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("update node", func(t *testing.T) {
		_, err := client.UpdateNode(ctx, "4:abc:1", map[string]interface{}{"bad key": 1})
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("create relationship", func(t *testing.T) {
		_, err := client.CreateRelationship(ctx, "a", "b", "BAD TYPE", nil)
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("find nodes by label", func(t *testing.T) {
		_, err := client.FindNodesByLabel(ctx, "Person;MATCH")
		assert.True(t, pkgerrors.IsValidation(err))
	})

	t.Run("ensure unique constraint", func(t *testing.T) {
		err := client.EnsureUniqueConstraint(ctx, "Per son", "name")
		assert.True(t, pkgerrors.IsValidation(err))

		err = client.EnsureUniqueConstraint(ctx, "Person", "na me")
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestVerifyConnectivityWithoutDriver(t *testing.T) {
	client := newUnconnectedClient(t)
	err := client.VerifyConnectivity(context.Background())
	assert.True(t, pkgerrors.IsUnavailable(err))
}

func TestCloseWithoutDriver(t *testing.T) {
	client := newUnconnectedClient(t)
	assert.NoError(t, client.Close(context.Background()))
}
