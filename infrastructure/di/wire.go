//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"github.com/mark-henry/mhnodalnetwork/infrastructure/config"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogLevel,
	ProvideLogger,
	ProvideMetrics,
	ProvideTracing,
	ProvideSlugCodec,
	ProvideGraphStore,
	ProvideCache,
	ProvideReadModels,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideJWTValidator,
	ProvideRouter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container. The returned cleanup
// closes the store, flushes spans and syncs the logger.
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil
}
