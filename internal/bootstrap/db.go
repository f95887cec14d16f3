package bootstrap

import (
	"context"
	"database/sql"
	"time"

	"github.com/staysite/site-sync-backend/config"
	"github.com/staysite/site-sync-backend/internal/projects/remote"
	"github.com/staysite/site-sync-backend/internal/storage/postgres"
)

type DBOptions struct {
	Config *config.DatabaseConfig
	PingTO time.Duration
	// EnsureSchema creates the projects table on start.
	EnsureSchema bool
}

// OpenRemote connects the remote project store. With no connection settings
// it returns remote.Unconfigured and a nil *sql.DB, so the service runs
// local-only instead of refusing to start.
func OpenRemote(ctx context.Context, opt DBOptions) (remote.Store, *remote.Postgres, *sql.DB, error) {
	if opt.Config == nil || !opt.Config.Enabled() {
		return remote.Unconfigured{}, nil, nil, nil
	}

	db, err := postgres.NewConnection(ctx, opt.Config, opt.PingTO)
	if err != nil {
		return nil, nil, nil, err
	}

	store := remote.NewPostgres(db)
	if opt.EnsureSchema {
		sctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := store.EnsureSchema(sctx); err != nil {
			db.Close()
			return nil, nil, nil, err
		}
	}
	return store, store, db, nil
}
