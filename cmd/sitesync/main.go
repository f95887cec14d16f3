// Command sitesync is the operator CLI for the project store: inspect a
// user's projects, push locally synthesized records and create the schema.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/staysite/site-sync-backend/config"
	"github.com/staysite/site-sync-backend/internal/bootstrap"
	"github.com/staysite/site-sync-backend/internal/logging"
	"github.com/staysite/site-sync-backend/internal/projects/remote"
	"github.com/staysite/site-sync-backend/internal/projects/service"
)

var rootCmd = &cobra.Command{
	Use:   "sitesync",
	Short: "Operate the site project store and its local cache",
	Long: `sitesync works against the same configuration as the API server
(environment variables or a .env file) and goes through the same sync
coordinator, so remote outages fall back to the local cache exactly as
they do for editor traffic.`,
	SilenceUsage: true,
}

var jsonOutput bool

func main() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	rootCmd.AddCommand(listCmd, getCmd, deleteCmd, reconcileCmd, migrateCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is the coordinator plus the resources that must be released with it.
type env struct {
	cfg   *config.Config
	svc   *service.ProjectService
	pg    *remote.Postgres
	close func()
}

func openEnv(ctx context.Context, ensureSchema bool) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(logging.Options{Level: cfg.App.LogLevel})

	store, pg, db, err := bootstrap.OpenRemote(ctx, bootstrap.DBOptions{Config: &cfg.Database, EnsureSchema: ensureSchema})
	if err != nil {
		return nil, err
	}
	opened, err := bootstrap.OpenCache(ctx, cfg.Cache)
	if err != nil {
		if db != nil {
			db.Close()
		}
		return nil, err
	}

	svc := service.NewProjectService(store, opened.Cache, service.Options{
		GetTimeout:    cfg.Sync.GetTimeout,
		ListTimeout:   cfg.Sync.ListTimeout,
		CreateTimeout: cfg.Sync.CreateTimeout,
		UpdateTimeout: cfg.Sync.UpdateTimeout,
		DeleteTimeout: cfg.Sync.DeleteTimeout,
	})

	return &env{
		cfg:   cfg,
		svc:   svc,
		pg:    pg,
		close: func() {
			svc.Wait()
			opened.Closer.Close()
			if db != nil {
				db.Close()
			}
		},
	}, nil
}
