package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	"github.com/staysite/site-sync-backend/config"
)

// NewConnection opens a pool with the configured driver ("postgres" for
// lib/pq, "pgx" for the pgx stdlib adapter) and verifies it with a ping
// bounded by pingTimeout.
func NewConnection(ctx context.Context, cfg *config.DatabaseConfig, pingTimeout time.Duration) (*sql.DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "postgres"
	}

	db, err := sql.Open(driver, DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if pingTimeout <= 0 {
		pingTimeout = 2 * time.Second
	}
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}
