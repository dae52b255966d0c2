package pgx

import (
	"embed"
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/berryware/berryrag/pkg/common"
	"github.com/berryware/berryrag/pkg/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations brings the schema up to date. databaseURL is a
// postgres:// URL; the embedded migrations are idempotent, running
// against a current schema is a no-op.
func RunMigrations(databaseURL string) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return common.Wrapf(common.ErrStorageUnavailable, "load migrations: %v", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return common.Wrapf(common.ErrStorageUnavailable, "open migration target: %v", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("[Store][Migrate] Schema already up to date")
			return nil
		}
		return common.Wrapf(common.ErrStorageUnavailable, "apply migrations: %v", err)
	}
	logger.Info("[Store][Migrate] Schema migrated")
	return nil
}
