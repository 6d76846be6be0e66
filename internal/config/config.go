package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	RabbitMQ RabbitMQConfig
	Distance DistanceConfig
	Pricing  PricingConfig
	Matching MatchingConfig
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"10s"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Backend string `envconfig:"STORE_BACKEND" default:"postgres"` // postgres | memory
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Driver      string `envconfig:"DB_DRIVER" default:"postgres"` // postgres | pgx
	Host        string `envconfig:"DB_HOST" default:"localhost"`
	Port        string `envconfig:"DB_PORT" default:"5432"`
	User        string `envconfig:"DB_USER" default:"postgres"`
	Password    string `envconfig:"DB_PASSWORD" default:"postgres"`
	DBName      string `envconfig:"DB_NAME" default:"ride_hailing"`
	SSLMode     string `envconfig:"DB_SSLMODE" default:"disable"`
	AutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`
}

// DSN returns the libpq keyword/value connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`

	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"20"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"2s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"500ms"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"500ms"`
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string `envconfig:"NEW_RELIC_APP_NAME" default:"ride-hailing-service"`
	LicenseKey string `envconfig:"NEW_RELIC_LICENSE_KEY"`
	Enabled    bool   `envconfig:"NEW_RELIC_ENABLED" default:"false"`
}

// RabbitMQConfig holds event broker configuration. An empty URL logs events instead.
type RabbitMQConfig struct {
	URL      string `envconfig:"RABBITMQ_URL"`
	Exchange string `envconfig:"RABBITMQ_EXCHANGE" default:"ride.events"`
}

// DistanceConfig selects and configures the distance provider.
type DistanceConfig struct {
	Provider     string        `envconfig:"DISTANCE_PROVIDER" default:"osrm"` // osrm | google | haversine
	OSRMURL      string        `envconfig:"OSRM_URL" default:"http://router.project-osrm.org"`
	GoogleAPIKey string        `envconfig:"GOOGLE_MAPS_API_KEY"`
	Timeout      time.Duration `envconfig:"DISTANCE_TIMEOUT" default:"3s"`
}

// PricingConfig holds fare and settlement parameters.
type PricingConfig struct {
	RatePerKm  decimal.Decimal `envconfig:"FARE_RATE_PER_KM" default:"10"`
	Commission decimal.Decimal `envconfig:"PLATFORM_COMMISSION" default:"0.3"`
	SurgeMax   float64         `envconfig:"SURGE_MAX" default:"2.0"`
}

// MatchingConfig holds driver matching parameters.
type MatchingConfig struct {
	Source            string  `envconfig:"MATCHING_SOURCE" default:"geo"` // geo | sql
	RadiusKm          float64 `envconfig:"MATCHING_RADIUS_KM" default:"10"`
	Limit             int     `envconfig:"MATCHING_LIMIT" default:"10"`
	TopRatedThreshold float64 `envconfig:"MATCHING_TOP_RATED_THRESHOLD" default:"4.8"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}
	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Distance.Provider {
	case "osrm", "haversine":
	case "google":
		if c.Distance.GoogleAPIKey == "" {
			return fmt.Errorf("GOOGLE_MAPS_API_KEY is required for the google distance provider")
		}
	default:
		return fmt.Errorf("unknown DISTANCE_PROVIDER %q", c.Distance.Provider)
	}
	switch c.Matching.Source {
	case "geo", "sql":
	default:
		return fmt.Errorf("unknown MATCHING_SOURCE %q", c.Matching.Source)
	}
	if c.Pricing.Commission.IsNegative() || c.Pricing.Commission.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("PLATFORM_COMMISSION must be within [0, 1]")
	}
	if !c.Pricing.RatePerKm.IsPositive() {
		return fmt.Errorf("FARE_RATE_PER_KM must be positive")
	}
	return nil
}
