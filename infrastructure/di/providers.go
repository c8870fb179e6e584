package di

import (
	"context"

	"filegraph/application/ports"
	"filegraph/application/services"
	"filegraph/infrastructure/config"
	"filegraph/infrastructure/persistence/blob"
	"filegraph/infrastructure/persistence/neo4j"
	pkgerrors "filegraph/pkg/errors"

	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideGraphClient creates a connected Neo4j client with the uniqueness
// constraints the domain relies on already in place.
func ProvideGraphClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*neo4j.Client, error) {
	graphCfg := neo4j.DefaultConfig()
	graphCfg.URI = cfg.Neo4jURI
	graphCfg.Username = cfg.Neo4jUser
	graphCfg.Password = cfg.Neo4jPassword
	graphCfg.Database = cfg.Neo4jDatabase
	graphCfg.QueryTimeout = cfg.QueryTimeout

	client, err := neo4j.NewClient(graphCfg, logger)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	if err := client.EnsureUniqueConstraint(ctx, services.LabelPerson, "name"); err != nil {
		client.Close(ctx)
		return nil, err
	}
	if err := client.EnsureUniqueConstraint(ctx, services.LabelFile, "owner_key"); err != nil {
		client.Close(ctx)
		return nil, err
	}

	return client, nil
}

// ProvideGraphStore exposes the Neo4j client as the graph access port
func ProvideGraphStore(client *neo4j.Client) ports.GraphStore {
	return client
}

// ProvideBlobStore creates the filesystem-backed blob store
func ProvideBlobStore(cfg *config.Config, logger *zap.Logger) (ports.BlobStore, error) {
	return blob.NewFileStore(cfg.UploadDir, logger)
}

// ProvideInteractionService creates the domain service
func ProvideInteractionService(graph ports.GraphStore, blobs ports.BlobStore, logger *zap.Logger) *services.InteractionService {
	return services.NewInteractionService(graph, blobs, logger)
}

// ProvideErrorHandler creates the HTTP error handler
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment())
}
