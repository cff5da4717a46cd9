package di

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mark-henry/mhnodalnetwork/application/commands"
	"github.com/mark-henry/mhnodalnetwork/application/commands/bus"
	commandhandlers "github.com/mark-henry/mhnodalnetwork/application/commands/handlers"
	"github.com/mark-henry/mhnodalnetwork/application/ports"
	"github.com/mark-henry/mhnodalnetwork/application/queries"
	querybus "github.com/mark-henry/mhnodalnetwork/application/queries/bus"
	queryhandlers "github.com/mark-henry/mhnodalnetwork/application/queries/handlers"
	"github.com/mark-henry/mhnodalnetwork/application/services"
	"github.com/mark-henry/mhnodalnetwork/domain/core/entities"
	"github.com/mark-henry/mhnodalnetwork/domain/core/valueobjects"
	"github.com/mark-henry/mhnodalnetwork/infrastructure/cache"
	"github.com/mark-henry/mhnodalnetwork/infrastructure/config"
	"github.com/mark-henry/mhnodalnetwork/infrastructure/persistence"
	"github.com/mark-henry/mhnodalnetwork/infrastructure/persistence/graphdb"
	"github.com/mark-henry/mhnodalnetwork/infrastructure/persistence/memory"
	"github.com/mark-henry/mhnodalnetwork/interfaces/http/rest"
	"github.com/mark-henry/mhnodalnetwork/pkg/auth"
	"github.com/mark-henry/mhnodalnetwork/pkg/observability"
)

const serviceName = "nodalnet"

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	LogLevel   zap.AtomicLevel
	Store      ports.GraphStore
	Cache      ports.Cache
	ReadModels *services.ReadModels
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Metrics    *observability.Collector
	Tracing    *observability.TracerProvider
	Router     *rest.Router
}

// Bootstrap creates the schema and the configured seed graphs.
func (c *Container) Bootstrap(ctx context.Context) error {
	if err := c.Store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	for _, g := range c.Config.SeedGraphs {
		if err := c.Store.SeedGraph(ctx, entities.GraphSummary{ID: g.ID, Name: g.Name}); err != nil {
			return fmt.Errorf("seed graph %d: %w", g.ID, err)
		}
	}
	c.ReadModels.InvalidateGraphList(ctx)
	return nil
}

// ProvideLogLevel parses the configured level into an atomic level the
// config watcher can change at runtime.
func ProvideLogLevel(cfg *config.Config) (zap.AtomicLevel, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return zap.AtomicLevel{}, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	return zap.NewAtomicLevelAt(level), nil
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config, level zap.AtomicLevel) (*zap.Logger, func(), error) {
	var zcfg zap.Config
	if cfg.IsProduction() {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level

	logger, err := zcfg.Build()
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func ProvideMetrics() *observability.Collector {
	return observability.NewCollector(serviceName)
}

// ProvideTracing exports spans when tracing is enabled and hands out no-op
// tracers otherwise.
func ProvideTracing(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func(), error) {
	if !cfg.EnableTracing {
		return observability.NoopTracing(), func() {}, nil
	}
	tp, err := observability.InitTracing(ctx, serviceName, cfg.Environment, cfg.OTELEndpoint)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Warn("Failed to shut down tracer provider", zap.Error(err))
		}
	}
	return tp, cleanup, nil
}

func ProvideSlugCodec(cfg *config.Config) (*valueobjects.SlugCodec, error) {
	return valueobjects.NewSlugCodec(cfg.SlugSalt, cfg.SlugMinLength)
}

// ProvideGraphStore builds the configured backend and wraps it with tracing
// and metrics.
func ProvideGraphStore(
	cfg *config.Config,
	tracing *observability.TracerProvider,
	metrics *observability.Collector,
	logger *zap.Logger,
) (ports.GraphStore, func(), error) {
	var (
		inner   ports.GraphStore
		cleanup = func() {}
	)

	switch cfg.StoreBackend {
	case config.StoreMemory:
		logger.Warn("Using in-memory store; data is lost on exit")
		inner = memory.NewStore()
	case config.StoreNeo4j:
		executor, err := graphdb.NewNeo4jExecutor(graphdb.Settings{
			URI:            cfg.Neo4jURI,
			Username:       cfg.Neo4jUsername,
			Password:       cfg.Neo4jPassword,
			Database:       cfg.Neo4jDatabase,
			ConnectTimeout: cfg.Neo4jConnectTimeout,
		})
		if err != nil {
			return nil, nil, err
		}
		breaker := graphdb.DefaultBreakerSettings()
		breaker.FailureThreshold = cfg.BreakerFailureThreshold
		breaker.MinRequests = cfg.BreakerMinRequests
		breaker.Timeout = cfg.BreakerTimeout

		inner = graphdb.NewGraphStore(graphdb.NewBreakerExecutor(executor, breaker, logger), logger)
		cleanup = func() {
			if err := executor.Close(context.Background()); err != nil {
				logger.Warn("Failed to close Neo4j driver", zap.Error(err))
			}
		}
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	return persistence.NewInstrumentedStore(inner, tracing.Tracer(), metrics), cleanup, nil
}

func ProvideCache(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) ports.Cache {
	return cache.NewLRUCache(cfg.CacheSize, cfg.CacheTTL, metrics, logger)
}

func ProvideReadModels(store ports.GraphStore, c ports.Cache, codec *valueobjects.SlugCodec, logger *zap.Logger) *services.ReadModels {
	return services.NewReadModels(store, c, codec, logger)
}

// ProvideCommandBus creates a command bus with registered handlers
func ProvideCommandBus(store ports.GraphStore, reads *services.ReadModels, logger *zap.Logger) (*bus.CommandBus, error) {
	commandBus := bus.NewCommandBus(bus.LoggingMiddleware(logger))

	createNode := commandhandlers.NewCreateNodeHandler(store, reads, logger)
	updateNode := commandhandlers.NewUpdateNodeHandler(store, reads, logger)
	deleteNode := commandhandlers.NewDeleteNodeHandler(store, reads, logger)
	updateGraph := commandhandlers.NewUpdateGraphHandler(store, reads, logger)

	registrations := []struct {
		cmd     bus.Command
		handler bus.CommandHandlerFunc
	}{
		{commands.CreateNodeCommand{}, func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			c, ok := cmd.(commands.CreateNodeCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type %T", cmd)
			}
			return createNode.Handle(ctx, c)
		}},
		{commands.UpdateNodeCommand{}, func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			c, ok := cmd.(commands.UpdateNodeCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type %T", cmd)
			}
			return nil, updateNode.Handle(ctx, c)
		}},
		{commands.DeleteNodeCommand{}, func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			c, ok := cmd.(commands.DeleteNodeCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type %T", cmd)
			}
			return nil, deleteNode.Handle(ctx, c)
		}},
		{commands.UpdateGraphCommand{}, func(ctx context.Context, cmd bus.Command) (interface{}, error) {
			c, ok := cmd.(commands.UpdateGraphCommand)
			if !ok {
				return nil, fmt.Errorf("invalid command type %T", cmd)
			}
			return nil, updateGraph.Handle(ctx, c)
		}},
	}
	for _, r := range registrations {
		if err := commandBus.Register(r.cmd, r.handler); err != nil {
			return nil, err
		}
	}
	return commandBus, nil
}

// ProvideQueryBus creates a query bus with registered handlers
func ProvideQueryBus(reads *services.ReadModels, logger *zap.Logger) (*querybus.QueryBus, error) {
	queryBus := querybus.NewQueryBus()

	listGraphs := queryhandlers.NewListGraphsHandler(reads)
	getGraph := queryhandlers.NewGetGraphHandler(reads, logger)
	getNode := queryhandlers.NewGetNodeHandler(reads)

	registrations := []struct {
		query   querybus.Query
		handler querybus.QueryHandlerFunc
	}{
		{queries.ListGraphsQuery{}, func(ctx context.Context, q querybus.Query) (interface{}, error) {
			lq, ok := q.(queries.ListGraphsQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type %T", q)
			}
			return listGraphs.Handle(ctx, lq)
		}},
		{queries.GetGraphQuery{}, func(ctx context.Context, q querybus.Query) (interface{}, error) {
			gq, ok := q.(queries.GetGraphQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type %T", q)
			}
			return getGraph.Handle(ctx, gq)
		}},
		{queries.GetNodeQuery{}, func(ctx context.Context, q querybus.Query) (interface{}, error) {
			nq, ok := q.(queries.GetNodeQuery)
			if !ok {
				return nil, fmt.Errorf("invalid query type %T", q)
			}
			return getNode.Handle(ctx, nq)
		}},
	}
	for _, r := range registrations {
		if err := queryBus.Register(r.query, r.handler); err != nil {
			return nil, err
		}
	}
	return queryBus, nil
}

// ProvideJWTValidator returns nil when no secret is configured, which leaves
// the API open.
func ProvideJWTValidator(cfg *config.Config) (*auth.JWTValidator, error) {
	if cfg.JWTSecret == "" {
		return nil, nil
	}
	return auth.NewJWTValidator(cfg.JWTSecret, cfg.JWTIssuer)
}

func ProvideRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	store ports.GraphStore,
	metrics *observability.Collector,
	validator *auth.JWTValidator,
	logger *zap.Logger,
) *rest.Router {
	opts := rest.Options{
		Auth:      validator,
		StaticDir: cfg.StaticDir,
		Debug:     cfg.DebugErrors,
	}
	if cfg.EnableMetrics {
		opts.Metrics = metrics
	}
	if cfg.EnableCORS {
		opts.CORSOrigins = cfg.CORSOrigins
	}
	return rest.NewRouter(commandBus, queryBus, store, logger, opts)
}
