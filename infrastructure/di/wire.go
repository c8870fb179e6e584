//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"filegraph/application/ports"
	"filegraph/application/services"
	"filegraph/infrastructure/config"
	"filegraph/infrastructure/persistence/neo4j"
	pkgerrors "filegraph/pkg/errors"

	"github.com/google/wire"
	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config       *config.Config
	Logger       *zap.Logger
	GraphClient  *neo4j.Client
	GraphStore   ports.GraphStore
	BlobStore    ports.BlobStore
	Service      *services.InteractionService
	ErrorHandler *pkgerrors.ErrorHandler
}

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideGraphClient,
	ProvideGraphStore,
	ProvideBlobStore,
	ProvideInteractionService,
	ProvideErrorHandler,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	wire.Build(SuperSet)
	return nil, nil // Wire will replace this
}
