package di

import (
	"go.uber.org/zap"

	"jamflow/application/commands/bus"
	"jamflow/application/ports"
	querybus "jamflow/application/queries/bus"
	"jamflow/application/services"
	domainconfig "jamflow/domain/config"
	"jamflow/infrastructure/collaborators"
	"jamflow/infrastructure/config"
	"jamflow/pkg/observability"
	"jamflow/pkg/ratelimit"
)

// Container holds all application dependencies
type Container struct {
	Config        *config.Config
	DomainConfig  *domainconfig.DomainConfig
	Logger        *zap.Logger
	Collector     *observability.Collector
	Tracer        *observability.Tracer
	GraphRepo     ports.GraphRepository
	Cache         ports.Cache
	Collaborators *collaborators.Client
	Sessions      *services.SessionService
	Edges         *services.EdgeService
	Assist        *services.AssistService
	CommandBus    *bus.CommandBus
	QueryBus      *querybus.QueryBus
	RateLimiter   *ratelimit.SlidingWindowLimiter
}
