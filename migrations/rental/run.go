// Package rental embeds the goose migrations for the rental read-side
// projection tables and applies them on worker startup.
package rental

import (
	"embed"

	"github.com/ghuser/rentledger/pkg/config"
	"github.com/ghuser/rentledger/pkg/migrator"
)

//go:embed *.sql
var migrationsFS embed.FS

// Run applies all pending migrations against cfg.DatabaseURL.
func Run(cfg *config.Config) error {
	return migrator.RunMigrations(cfg.DatabaseURL, migrationsFS)
}
