package container

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/alchemorsel/kitchenops/internal/infrastructure/config"
	"github.com/alchemorsel/kitchenops/internal/infrastructure/monitoring"
)

func TestModule_GraphIsComplete(t *testing.T) {
	err := fx.ValidateApp(Module, fx.Supply(ConfigPath("")))
	assert.NoError(t, err)
}

func testConfig(driver string) *config.Config {
	return &config.Config{
		App:      config.AppConfig{Name: "KitchenOps", Version: "test"},
		Database: config.DatabaseConfig{Driver: driver, Path: ":memory:", Seed: true},
	}
}

func TestLoggerConfig(t *testing.T) {
	cfg := testConfig("memory")

	cfg.App.Environment = "development"
	assert.True(t, LoggerConfig(cfg).Development)

	cfg.App.Environment = "production"
	assert.False(t, LoggerConfig(cfg).Development)

	cfg.App.Debug = true
	assert.True(t, LoggerConfig(cfg).Development)
}

func TestNewDatabase(t *testing.T) {
	t.Run("Memory_PingsWithoutConnection", func(t *testing.T) {
		db, err := NewDatabase(testConfig("memory"), zap.NewNop(), prometheus.NewRegistry())
		require.NoError(t, err)
		assert.NoError(t, db.PingContext(context.Background()))
		assert.NoError(t, db.Close())
	})

	t.Run("SQLite_SeedsCatalogue", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		db, err := NewDatabase(testConfig("sqlite"), zap.NewNop(), reg)
		require.NoError(t, err)
		defer db.Close()

		assert.NoError(t, db.PingContext(context.Background()))

		var count int64
		require.NoError(t, db.gorm.Table("recipes").Count(&count).Error)
		assert.Equal(t, int64(5), count)

		families, err := reg.Gather()
		require.NoError(t, err)
		assert.NotEmpty(t, families)
	})
}

func TestNewHealthCheck_SkipsRedisWithoutClient(t *testing.T) {
	db, err := NewDatabase(testConfig("memory"), zap.NewNop(), prometheus.NewRegistry())
	require.NoError(t, err)

	hc := NewHealthCheck(testConfig("memory"), zap.NewNop(), db, &Cache{})
	response := hc.Check(context.Background())

	require.Len(t, response.Checks, 1)
	assert.Equal(t, "database", response.Checks[0].Name)
}

func TestMetricsShareRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := monitoring.NewMetrics(reg)
	m.RecordSwapApplied()

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "rotation_swaps_applied_total")
}
