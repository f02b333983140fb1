// Package config provides centralized configuration management
// using Viper for configuration loading and validation
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. KITCHENOPS_SERVER_PORT
const EnvPrefix = "KITCHENOPS"

// Config holds all application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Rotation   RotationConfig   `mapstructure:"rotation"`
	Scaling    ScalingConfig    `mapstructure:"scaling"`
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`
	LogLevel    string `mapstructure:"log_level"`
	LogFormat   string `mapstructure:"log_format"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	EnableHTTP2     bool          `mapstructure:"enable_http2"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig contains database configuration. Driver is one of
// "sqlite", "postgres" or "memory".
type DatabaseConfig struct {
	Driver             string        `mapstructure:"driver"`
	Path               string        `mapstructure:"path"`
	Host               string        `mapstructure:"host"`
	Port               int           `mapstructure:"port"`
	Database           string        `mapstructure:"database"`
	Username           string        `mapstructure:"username"`
	Password           string        `mapstructure:"password"`
	SSLMode            string        `mapstructure:"ssl_mode"`
	Replicas           []string      `mapstructure:"replicas"`
	MaxOpenConns       int           `mapstructure:"max_open_conns"`
	MaxIdleConns       int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel           string        `mapstructure:"log_level"`
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`
	AutoMigrate        bool          `mapstructure:"auto_migrate"`
	Seed               bool          `mapstructure:"seed"`
}

// RedisConfig contains Redis configuration. An empty host disables Redis
// and the analysis cache falls back to memory.
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	MaxRetries   int           `mapstructure:"max_retries"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
	AnalysisTTL  time.Duration `mapstructure:"analysis_ttl"`
	Compression  bool          `mapstructure:"compression"`
}

// MonitoringConfig contains monitoring configuration
type MonitoringConfig struct {
	EnableMetrics bool    `mapstructure:"enable_metrics"`
	EnableTracing bool    `mapstructure:"enable_tracing"`
	OTLPEndpoint  string  `mapstructure:"otlp_endpoint"`
	SamplingRate  float64 `mapstructure:"sampling_rate"`
}

// RateLimitConfig limits write requests (proposals, swaps, slot edits)
type RateLimitConfig struct {
	Enable         bool `mapstructure:"enable"`
	RequestsPerMin int  `mapstructure:"requests_per_min"`
	BurstSize      int  `mapstructure:"burst_size"`
}

// RotationConfig tunes the rotation core
type RotationConfig struct {
	DefaultWeekCount     int     `mapstructure:"default_week_count"`
	VarietyWindowWeeks   int     `mapstructure:"variety_window_weeks"`
	AllergenHotspotShare float64 `mapstructure:"allergen_hotspot_share"`
	Hemisphere           string  `mapstructure:"hemisphere"`
	MaxProposals         int     `mapstructure:"max_proposals"`
	MaxCompositionNodes  int     `mapstructure:"max_composition_nodes"`
	VarietyWeight        float64 `mapstructure:"variety_weight"`
	SeasonalityWeight    float64 `mapstructure:"seasonality_weight"`
	CostWeight           float64 `mapstructure:"cost_weight"`
}

// ScalingConfig holds the sub-linear scaling exponents
type ScalingConfig struct {
	SpiceExponent     float64 `mapstructure:"spice_exponent"`
	LeaveningExponent float64 `mapstructure:"leavening_exponent"`
	FatExponent       float64 `mapstructure:"fat_exponent"`
	LiquidExponent    float64 `mapstructure:"liquid_exponent"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v, err := newViper(configPath)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

func newViper(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Set config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/kitchenops")
	}

	// Enable environment variable override
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we have defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "KitchenOps")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.log_format", "json")

	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.max_header_bytes", 1<<20) // 1MB
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.enable_http2", true)
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "kitchenops.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "kitchenops")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.conn_max_idle_time", "10m")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_query_threshold", "200ms")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.seed", false)

	// Redis defaults
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "5s")
	v.SetDefault("redis.read_timeout", "3s")
	v.SetDefault("redis.write_timeout", "3s")
	v.SetDefault("redis.key_prefix", "kitchenops:")
	v.SetDefault("redis.analysis_ttl", "10m")
	v.SetDefault("redis.compression", true)

	// Monitoring defaults
	v.SetDefault("monitoring.enable_metrics", true)
	v.SetDefault("monitoring.enable_tracing", false)
	v.SetDefault("monitoring.sampling_rate", 0.1)

	// Rate limit defaults
	v.SetDefault("rate_limit.enable", true)
	v.SetDefault("rate_limit.requests_per_min", 120)
	v.SetDefault("rate_limit.burst_size", 20)

	// Rotation defaults
	v.SetDefault("rotation.default_week_count", 6)
	v.SetDefault("rotation.variety_window_weeks", 2)
	v.SetDefault("rotation.allergen_hotspot_share", 0.5)
	v.SetDefault("rotation.hemisphere", "north")
	v.SetDefault("rotation.max_proposals", 10)
	v.SetDefault("rotation.max_composition_nodes", 10000)
	v.SetDefault("rotation.variety_weight", 1.0)
	v.SetDefault("rotation.seasonality_weight", 1.0)
	v.SetDefault("rotation.cost_weight", 1.0)

	// Scaling defaults
	v.SetDefault("scaling.spice_exponent", 0.75)
	v.SetDefault("scaling.leavening_exponent", 0.75)
	v.SetDefault("scaling.fat_exponent", 0.6)
	v.SetDefault("scaling.liquid_exponent", 0.9)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	// Validate required fields
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	// Validate port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.Database == "" {
			return fmt.Errorf("database.database is required for postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("database.driver must be sqlite, postgres or memory, got %q", c.Database.Driver)
	}

	if c.Rotation.DefaultWeekCount < 1 {
		return fmt.Errorf("rotation.default_week_count must be at least 1")
	}
	if c.Rotation.VarietyWindowWeeks < 1 {
		return fmt.Errorf("rotation.variety_window_weeks must be at least 1")
	}
	if c.Rotation.AllergenHotspotShare <= 0 || c.Rotation.AllergenHotspotShare > 1 {
		return fmt.Errorf("rotation.allergen_hotspot_share must be in (0, 1]")
	}
	if c.Rotation.Hemisphere != "north" && c.Rotation.Hemisphere != "south" {
		return fmt.Errorf("rotation.hemisphere must be north or south")
	}
	if c.Rotation.MaxProposals < 1 {
		return fmt.Errorf("rotation.max_proposals must be at least 1")
	}

	s := c.Scaling
	if !(s.FatExponent > 0 && s.FatExponent < s.SpiceExponent && s.FatExponent < s.LeaveningExponent &&
		s.SpiceExponent < s.LiquidExponent && s.LeaveningExponent < s.LiquidExponent && s.LiquidExponent <= 1) {
		return fmt.Errorf("scaling exponents must satisfy 0 < fat < spice, leavening < liquid <= 1")
	}

	if c.IsProduction() {
		if c.Database.Driver == "memory" {
			return fmt.Errorf("database.driver memory is not allowed in production")
		}
		if c.Database.Seed {
			return fmt.Errorf("database.seed must be off in production")
		}
		for _, origin := range c.Server.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("server.cors_origins must list explicit origins in production")
			}
		}
	}

	return nil
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// GetDSN returns the postgres connection string for host
func (c *Config) GetDSN() string {
	return c.DSNFor(c.Database.Host)
}

// DSNFor returns the postgres connection string for another host, e.g. a
// read replica sharing the primary's credentials
func (c *Config) DSNFor(host string) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		host,
		c.Database.Port,
		c.Database.Username,
		c.Database.Password,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// RedisAddr returns host:port of the Redis server
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
