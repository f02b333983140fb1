// Package postgres provides PostgreSQL database connection and management
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"

	"github.com/alchemorsel/kitchenops/internal/infrastructure/config"
	"github.com/alchemorsel/kitchenops/internal/infrastructure/persistence/migrations"
)

// ConnectionManager owns the primary connection and its read replicas
type ConnectionManager struct {
	config  *config.Config
	logger  *zap.Logger
	db      *gorm.DB
	writeDB *sql.DB
}

// NewConnectionManager opens the primary database, registers replicas and
// applies the embedded migrations when auto_migrate is set
func NewConnectionManager(ctx context.Context, cfg *config.Config, log *zap.Logger) (*ConnectionManager, error) {
	cm := &ConnectionManager{config: cfg, logger: log.Named("postgres")}

	if err := cm.initializePrimaryConnection(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize primary connection: %w", err)
	}

	if cfg.Database.AutoMigrate {
		if err := cm.Migrate(); err != nil {
			return nil, err
		}
	}

	// Replicas are registered after migrating so the schema check hits the primary
	if err := cm.initializeReadReplicas(); err != nil {
		cm.logger.Warn("Failed to initialize read replicas", zap.Error(err))
	}

	cm.logger.Info("Database connection manager initialized",
		zap.String("host", cfg.Database.Host),
		zap.Int("max_open_conns", cfg.Database.MaxOpenConns),
		zap.Int("replicas", len(cfg.Database.Replicas)),
	)
	return cm, nil
}

// initializePrimaryConnection sets up the primary database connection
func (cm *ConnectionManager) initializePrimaryConnection(ctx context.Context) error {
	db, err := gorm.Open(postgres.Open(cm.config.GetDSN()), &gorm.Config{
		Logger:                 cm.createGORMLogger(),
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	cm.configurePool(sqlDB)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	cm.db = db
	cm.writeDB = sqlDB
	return nil
}

func (cm *ConnectionManager) configurePool(sqlDB *sql.DB) {
	d := cm.config.Database
	if d.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(d.MaxOpenConns)
	}
	if d.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(d.MaxIdleConns)
	}
	if d.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(d.ConnMaxLifetime)
	}
	if d.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(d.ConnMaxIdleTime)
	}
}

// initializeReadReplicas routes reads (grid listings, analysis loads) to
// replicas. Compare-and-swap updates always go to the primary.
func (cm *ConnectionManager) initializeReadReplicas() error {
	if len(cm.config.Database.Replicas) == 0 {
		return nil
	}

	replicas := make([]gorm.Dialector, len(cm.config.Database.Replicas))
	for i, host := range cm.config.Database.Replicas {
		replicas[i] = postgres.Open(cm.config.DSNFor(host))
	}

	resolver := dbresolver.Register(dbresolver.Config{
		Replicas: replicas,
		Policy:   dbresolver.RoundRobinPolicy(),
	})
	if d := cm.config.Database; d.MaxOpenConns > 0 {
		resolver = resolver.SetMaxOpenConns(d.MaxOpenConns)
	}
	if err := cm.db.Use(resolver); err != nil {
		return fmt.Errorf("failed to register read replicas: %w", err)
	}

	cm.logger.Info("Read replicas configured", zap.Int("replica_count", len(replicas)))
	return nil
}

// Migrator returns a migrator bound to the primary connection. Closing it
// closes the shared *sql.DB, so callers that keep using the manager must not.
func (cm *ConnectionManager) Migrator() (*migrations.Migrator, error) {
	return migrations.New(cm.writeDB, cm.config.Database.Database, cm.logger)
}

// Migrate applies the embedded schema migrations
func (cm *ConnectionManager) Migrate() error {
	m, err := cm.Migrator()
	if err != nil {
		return err
	}
	return m.Up()
}

// createGORMLogger routes GORM output through zap
func (cm *ConnectionManager) createGORMLogger() logger.Interface {
	logLevel := logger.Silent
	switch cm.config.Database.LogLevel {
	case "debug", "info":
		logLevel = logger.Info
	case "warn":
		logLevel = logger.Warn
	case "error":
		logLevel = logger.Error
	}

	return logger.New(
		&GORMLogWriter{logger: cm.logger},
		logger.Config{
			SlowThreshold:             cm.config.Database.SlowQueryThreshold,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// GetDB returns the main database connection
func (cm *ConnectionManager) GetDB() *gorm.DB {
	return cm.db
}

// SQLDB returns the primary connection pool
func (cm *ConnectionManager) SQLDB() *sql.DB {
	return cm.writeDB
}

// HealthCheck performs a health check on the primary connection
func (cm *ConnectionManager) HealthCheck(ctx context.Context) error {
	if err := cm.writeDB.PingContext(ctx); err != nil {
		return fmt.Errorf("primary database ping failed: %w", err)
	}
	return nil
}

// Close closes all database connections
func (cm *ConnectionManager) Close() error {
	if cm.writeDB == nil {
		return nil
	}
	return cm.writeDB.Close()
}
