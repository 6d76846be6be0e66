package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Registers "pgx" driver
	_ "github.com/lib/pq"
	_ "github.com/newrelic/go-agent/v3/integrations/nrpq" // Registers "nrpostgres" driver
	"github.com/newrelic/go-agent/v3/newrelic"

	"ridehail/internal/config"
)

// NewDatabase creates a new PostgreSQL connection with optimized settings.
// With New Relic enabled the lib/pq driver is wrapped by nrpq for SQL
// tracing; otherwise cfg.Driver picks lib/pq or pgx.
func NewDatabase(ctx context.Context, cfg config.DatabaseConfig, nrApp *newrelic.Application) (*sql.DB, error) {
	driverName := selectDriver(cfg.Driver, nrApp != nil)

	db, err := sql.Open(driverName, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database with %s: %w", driverName, err)
	}

	// Pool sized for a single API instance; lifetimes rotate connections
	// across DB failovers.
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	// Verify connection.
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func selectDriver(configured string, instrumented bool) string {
	switch {
	case instrumented:
		return "nrpostgres"
	case configured == "pgx":
		return "pgx"
	default:
		return "postgres"
	}
}
