// Package main provides the main entry point for the KitchenOps rotation API
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"

	"github.com/alchemorsel/kitchenops/internal/infrastructure/container"
)

func main() {
	configPath := flag.String("config", os.Getenv("KITCHENOPS_CONFIG"), "Configuration file path")
	flag.Parse()

	// Create Fx application with dependency injection
	app := fx.New(
		fx.NopLogger, // Use our own logger instead of Fx's
		fx.Supply(container.ConfigPath(*configPath)),
		container.Module,
	)
	if err := app.Err(); err != nil {
		log.Fatalf("Failed to build application: %v", err)
	}

	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, app.StartTimeout())
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	// Wait for interrupt signal
	<-ctx.Done()

	fmt.Println("\nShutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		log.Fatalf("Failed to stop application gracefully: %v", err)
	}
}
