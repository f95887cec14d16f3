package postgres

import (
	"fmt"

	"github.com/staysite/site-sync-backend/config"
)

// DSN returns cfg.DSN when set, otherwise a keyword/value string built from
// the discrete fields. Both lib/pq and pgx accept this form.
func DSN(cfg *config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name,
	)
}
