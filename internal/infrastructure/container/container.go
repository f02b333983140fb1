// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/alchemorsel/kitchenops/internal/application/analysis"
	"github.com/alchemorsel/kitchenops/internal/application/demand"
	"github.com/alchemorsel/kitchenops/internal/application/optimization"
	"github.com/alchemorsel/kitchenops/internal/application/rotation"
	"github.com/alchemorsel/kitchenops/internal/domain/composition"
	"github.com/alchemorsel/kitchenops/internal/domain/recipe"
	"github.com/alchemorsel/kitchenops/internal/domain/scaling"
	"github.com/alchemorsel/kitchenops/internal/infrastructure/config"
	"github.com/alchemorsel/kitchenops/internal/infrastructure/http/apiserver"
	"github.com/alchemorsel/kitchenops/internal/infrastructure/messaging"
	"github.com/alchemorsel/kitchenops/internal/infrastructure/monitoring"
	gormRepo "github.com/alchemorsel/kitchenops/internal/infrastructure/persistence/gorm"
	"github.com/alchemorsel/kitchenops/internal/infrastructure/persistence/memory"
	"github.com/alchemorsel/kitchenops/internal/infrastructure/persistence/postgres"
	redisRepo "github.com/alchemorsel/kitchenops/internal/infrastructure/persistence/redis"
	"github.com/alchemorsel/kitchenops/internal/infrastructure/persistence/sqlite"
	"github.com/alchemorsel/kitchenops/internal/ports/inbound"
	"github.com/alchemorsel/kitchenops/internal/ports/outbound"
	"github.com/alchemorsel/kitchenops/pkg/healthcheck"
	"github.com/alchemorsel/kitchenops/pkg/logger"
)

// ConfigPath is the optional configuration file; empty searches the
// default locations
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	DatabaseModule,
	CacheModule,

	// Repository modules
	RepositoryModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Event modules
	EventModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging and the config watcher that adjusts the
// log level at runtime
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, zap.AtomicLevel, error) {
		return logger.NewWithLevel(LoggerConfig(cfg))
	},
	func(path ConfigPath, level zap.AtomicLevel, log *zap.Logger) (*config.Watcher, error) {
		return config.NewWatcher(string(path), level, log)
	},
)

// LoggerConfig derives the logger settings. Development environments get
// development encoding and stack traces even without app.debug.
func LoggerConfig(cfg *config.Config) logger.Config {
	return logger.Config{
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
		Development: cfg.App.Debug || cfg.IsDevelopment(),
	}
}

// MonitoringModule provides metrics and tracing
var MonitoringModule = fx.Provide(
	func() *prometheus.Registry {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg
	},
	monitoring.NewMetrics,
	func(cfg *config.Config, log *zap.Logger) (*monitoring.Tracing, error) {
		return monitoring.NewTracing(monitoring.TracingConfig{
			ServiceName:    "kitchenops",
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			Enabled:        cfg.Monitoring.EnableTracing,
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			SamplingRate:   cfg.Monitoring.SamplingRate,
		}, log)
	},
	func(t *monitoring.Tracing) trace.Tracer { return t.Tracer() },
)

// Database is the selected storage backend. Exactly one of gorm and store
// is set.
type Database struct {
	Driver string
	gorm   *gorm.DB
	sqlDB  *sql.DB
	store  *memory.Store
	close  func() error
}

// PingContext checks the backend; the memory store is always reachable
func (d *Database) PingContext(ctx context.Context) error {
	if d.sqlDB == nil {
		return nil
	}
	return d.sqlDB.PingContext(ctx)
}

// Close releases the connections
func (d *Database) Close() error {
	if d.close == nil {
		return nil
	}
	return d.close()
}

// DatabaseModule provides the storage backend selected by database.driver
var DatabaseModule = fx.Provide(
	NewDatabase,
)

// NewDatabase opens the configured backend
func NewDatabase(cfg *config.Config, log *zap.Logger, reg *prometheus.Registry) (*Database, error) {
	db := &Database{Driver: cfg.Database.Driver}

	switch cfg.Database.Driver {
	case "memory":
		db.store = memory.NewStore()
		log.Info("Using in-memory store")
		return db, nil

	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		cm, err := postgres.NewConnectionManager(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		db.gorm, db.sqlDB, db.close = cm.GetDB(), cm.SQLDB(), cm.Close

	default:
		gdb, err := sqlite.SetupDatabase(cfg.Database.Path, gormLogLevel(cfg.Database.LogLevel))
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		db.gorm, db.sqlDB, db.close = gdb, sqlDB, sqlDB.Close

		log.Info("Connected to SQLite database",
			zap.String("path", cfg.Database.Path),
			zap.Bool("in_memory", cfg.Database.Path == ":memory:"),
		)
	}

	if cfg.Database.Seed {
		if err := sqlite.SeedDatabase(db.gorm); err != nil {
			log.Warn("Failed to seed database", zap.Error(err))
		}
	}

	reg.MustRegister(collectors.NewDBStatsCollector(db.sqlDB, cfg.Database.Driver))
	return db, nil
}

func gormLogLevel(level string) gormLogger.LogLevel {
	switch level {
	case "debug", "info":
		return gormLogger.Info
	case "warn":
		return gormLogger.Warn
	case "error":
		return gormLogger.Error
	default:
		return gormLogger.Silent
	}
}

// Cache is the analysis cache and, when Redis is configured, its client
type Cache struct {
	outbound.CacheRepository
	Redis  goredis.UniversalClient
	memory *memory.CacheRepository
}

// CacheModule provides caching. Without a Redis host the cache is local to
// the process.
var CacheModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger) *Cache {
		if cfg.Redis.Host == "" {
			log.Info("Using in-memory analysis cache")
			mem := memory.NewCacheRepository()
			return &Cache{CacheRepository: mem, memory: mem}
		}
		client := redisRepo.NewClient(cfg)
		log.Info("Using Redis analysis cache", zap.String("addr", cfg.RedisAddr()))
		return &Cache{
			CacheRepository: redisRepo.NewCacheRepository(client, cfg.Redis, log),
			Redis:           client,
		}
	},
)

// Repositories groups the repositories of the selected backend
type Repositories struct {
	fx.Out

	Templates outbound.TemplateRepository
	Slots     outbound.SlotRepository
	Recipes   outbound.RecipeRepository
	Links     outbound.SubRecipeLinkRepository
}

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	func(db *Database) Repositories {
		if db.store != nil {
			return Repositories{
				Templates: db.store.Templates(),
				Slots:     db.store.Slots(),
				Recipes:   db.store.Recipes(),
				Links:     db.store.Links(),
			}
		}
		return Repositories{
			Templates: gormRepo.NewTemplateRepository(db.gorm),
			Slots:     gormRepo.NewSlotRepository(db.gorm),
			Recipes:   gormRepo.NewRecipeRepository(db.gorm),
			Links:     gormRepo.NewSubRecipeLinkRepository(db.gorm),
		}
	},
)

// ServiceModule provides the engines and the rotation service
var ServiceModule = fx.Provide(
	func(links outbound.SubRecipeLinkRepository, cfg *config.Config) *composition.Graph {
		return composition.NewGraph(links, composition.WithMaxNodes(cfg.Rotation.MaxCompositionNodes))
	},
	func(cfg *config.Config) *analysis.Engine {
		return analysis.NewEngine(analysis.Config{
			VarietyWindowWeeks: cfg.Rotation.VarietyWindowWeeks,
			HotspotShare:       cfg.Rotation.AllergenHotspotShare,
			Hemisphere:         recipe.Hemisphere(cfg.Rotation.Hemisphere),
		}, time.Now)
	},
	func(cfg *config.Config) (*scaling.Engine, error) {
		return scaling.NewEngine(scaling.Curve{
			SpiceExponent:     cfg.Scaling.SpiceExponent,
			LeaveningExponent: cfg.Scaling.LeaveningExponent,
			FatExponent:       cfg.Scaling.FatExponent,
			LiquidExponent:    cfg.Scaling.LiquidExponent,
		})
	},
	func(
		slots outbound.SlotRepository,
		recipes outbound.RecipeRepository,
		graph *composition.Graph,
		analyzer *analysis.Engine,
		cfg *config.Config,
		log *zap.Logger,
	) *optimization.Engine {
		return optimization.NewEngine(slots, recipes, graph, optimization.NewHeuristicProvider(), analyzer,
			optimization.Config{
				MaxProposals: cfg.Rotation.MaxProposals,
				Weights: optimization.Weights{
					Variety:     cfg.Rotation.VarietyWeight,
					Seasonality: cfg.Rotation.SeasonalityWeight,
					Cost:        cfg.Rotation.CostWeight,
				},
			}, log)
	},
	demand.NewAggregator,
	fx.Annotate(
		NewRotationService,
		fx.As(new(inbound.RotationService)),
	),
)

// ServiceParams are the inputs of the rotation service
type ServiceParams struct {
	fx.In

	Config     *config.Config
	Templates  outbound.TemplateRepository
	Slots      outbound.SlotRepository
	Recipes    outbound.RecipeRepository
	Links      outbound.SubRecipeLinkRepository
	Cache      *Cache
	Dispatcher *messaging.Dispatcher
	Graph      *composition.Graph
	Analyzer   *analysis.Engine
	Optimizer  *optimization.Engine
	Scaler     *scaling.Engine
	Demand     *demand.Aggregator
	Metrics    *monitoring.Metrics
	Tracer     trace.Tracer
	Logger     *zap.Logger
}

// NewRotationService assembles the rotation service
func NewRotationService(p ServiceParams) *rotation.RotationService {
	return rotation.NewRotationService(rotation.Dependencies{
		Templates: p.Templates,
		Slots:     p.Slots,
		Recipes:   p.Recipes,
		Links:     p.Links,
		Cache:     p.Cache,
		Events:    p.Dispatcher,
		Graph:     p.Graph,
		Analyzer:  p.Analyzer,
		Optimizer: p.Optimizer,
		Scaler:    p.Scaler,
		Demand:    p.Demand,
		Metrics:   p.Metrics,
		Tracer:    p.Tracer,
		Logger:    p.Logger,
	}, rotation.Settings{
		DefaultWeekCount: p.Config.Rotation.DefaultWeekCount,
		AnalysisTTL:      p.Config.Redis.AnalysisTTL,
	})
}

// HTTPModule provides the health checks and the API server
var HTTPModule = fx.Provide(
	NewHealthCheck,
	func(
		cfg *config.Config,
		log *zap.Logger,
		service inbound.RotationService,
		health *healthcheck.HealthCheck,
		metrics *monitoring.Metrics,
		tracing *monitoring.Tracing,
	) *apiserver.Server {
		if !cfg.Monitoring.EnableMetrics {
			metrics = nil
		}
		return apiserver.NewServer(cfg, log, service, health, metrics, tracing.Provider())
	},
)

// NewHealthCheck registers a checker per external dependency
func NewHealthCheck(cfg *config.Config, log *zap.Logger, db *Database, cache *Cache) *healthcheck.HealthCheck {
	hc := healthcheck.New(cfg.App.Version, log.Named("health"))
	hc.Register("database", healthcheck.NewDatabaseChecker(db))
	if cache.Redis != nil {
		hc.Register("redis", healthcheck.NewRedisChecker(cache.Redis))
	}
	return hc
}

// EventModule provides event handling
var EventModule = fx.Options(
	fx.Provide(messaging.NewDispatcher),
	fx.Invoke(messaging.RegisterAuditHandlers),
)

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// LifecycleParams are the components with a start/stop lifecycle
type LifecycleParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.Logger
	Watcher   *config.Watcher
	Database  *Database
	Cache     *Cache
	Tracing   *monitoring.Tracing
	Server    *apiserver.Server
}

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(p LifecycleParams) {
	log := p.Logger
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting KitchenOps",
				zap.String("version", p.Config.App.Version),
				zap.String("environment", p.Config.App.Environment),
				zap.String("database", p.Database.Driver),
			)

			p.Watcher.Start()
			if p.Cache.memory != nil {
				go p.Cache.memory.Cleanup(cleanupCtx, time.Minute)
			}

			// Start HTTP server
			go func() {
				if err := p.Server.Start(); err != nil {
					log.Fatal("Failed to start HTTP server", zap.Error(err))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down KitchenOps")
			stopCleanup()

			// Shutdown HTTP server
			if err := p.Server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			if p.Cache.Redis != nil {
				if err := p.Cache.Redis.Close(); err != nil {
					log.Error("Failed to close Redis client", zap.Error(err))
				}
			}

			if err := p.Database.Close(); err != nil {
				log.Error("Failed to close database connection", zap.Error(err))
			}

			if err := p.Tracing.Shutdown(ctx); err != nil {
				log.Error("Failed to flush traces", zap.Error(err))
			}

			// Flush logs
			_ = log.Sync()

			return nil
		},
	})
}
