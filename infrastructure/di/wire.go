//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"jamflow/application/ports"
	"jamflow/infrastructure/config"
	"jamflow/infrastructure/persistence/memory"
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	ProvideLogger,
	ProvideDomainConfig,
	ProvideClock,
	ProvideCollector,
	ProvideTracer,
	ProvideGraphRepository,
	wire.Bind(new(ports.GraphRepository), new(*memory.GraphRepository)),
	ProvideCache,
	wire.Bind(new(ports.Cache), new(*InMemoryCache)),
	ProvideCompatibilityEngine,
	ProvideEdgeRecalculator,
	ProvideEdgeStyler,
	ProvideNodeValidator,
	ProvideReducer,
	ProvideDispatcher,
	ProvideFlatParser,
	ProvideStructureParser,
	ProvideCollaboratorClient,
	ProvideCommandInference,
	ProvideRecommendationProvider,
	ProvideProducerFeedback,
	ProvideMusicGenerator,
	ProvideSessionService,
	ProvideEdgeService,
	ProvideAssistService,
	ProvideCommandBus,
	ProvideQueryBus,
	ProvideRateLimiter,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
