// Package main provides the schema migration tool for postgres deployments
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/alchemorsel/kitchenops/internal/infrastructure/config"
	"github.com/alchemorsel/kitchenops/internal/infrastructure/container"
	"github.com/alchemorsel/kitchenops/internal/infrastructure/persistence/postgres"
	"github.com/alchemorsel/kitchenops/pkg/logger"
)

const usage = `Usage: migrate [-config path] <command>

Commands:
  up            apply all pending migrations
  down          roll back the latest migration
  force VERSION mark VERSION as applied and clear the dirty flag
  status        print applied and pending migrations
`

func main() {
	configPath := flag.String("config", os.Getenv("KITCHENOPS_CONFIG"), "Configuration file path")
	timeout := flag.Duration("timeout", 2*time.Minute, "Connection and migration timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*configPath, *timeout, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, timeout time.Duration, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Database.Driver != "postgres" {
		return fmt.Errorf("schema migrations apply to postgres only, database.driver is %q", cfg.Database.Driver)
	}
	// the tool decides what to run, never the connection manager
	cfg.Database.AutoMigrate = false
	cfg.Database.Replicas = nil

	log, err := logger.New(container.LoggerConfig(cfg))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cm, err := postgres.NewConnectionManager(ctx, cfg, log)
	if err != nil {
		return err
	}
	m, err := cm.Migrator()
	if err != nil {
		_ = cm.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Failed to close migrator", zap.Error(err))
		}
	}()

	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("force needs a version")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		return m.Force(version)
	case "status":
		status, err := m.Status()
		if err != nil {
			return err
		}
		fmt.Printf("version %d (dirty: %t)\n", status.Version, status.Dirty)
		for _, mig := range status.Applied {
			fmt.Printf("  applied  %06d_%s\n", mig.Version, mig.Name)
		}
		for _, mig := range status.Pending {
			fmt.Printf("  pending  %06d_%s\n", mig.Version, mig.Name)
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}
