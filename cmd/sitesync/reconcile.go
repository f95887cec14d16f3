package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/staysite/site-sync-backend/internal/projects/domain"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Push locally synthesized projects to the remote store once",
	Long: `Reconcile walks the local cache and pushes every record that only
exists locally (created or edited while the remote store was unreachable).
Records edited again during the push stay local for the next pass.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer e.close()

		if e.pg == nil {
			return fmt.Errorf("reconcile needs a database: %w", domain.ErrRemoteUnavailable)
		}

		limiter := rate.NewLimiter(rate.Limit(e.cfg.Reconcile.RatePerS), max(e.cfg.Reconcile.BurstSize, 1))
		start := time.Now()
		res, err := e.svc.Reconcile(cmd.Context(), limiter)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "pending=%d pushed=%d failed=%d in %v\n",
			res.Pending, res.Pushed, res.Failed, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the projects table and indexes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer e.close()

		if e.pg == nil {
			return fmt.Errorf("no database configured (set DB_DSN or DB_HOST)")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}
