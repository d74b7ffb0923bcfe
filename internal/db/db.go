// Package db applies schema migrations before the rest of the service
// touches the database.
package db

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/kinbook/lineage/pkg/logger"
)

// Migrate runs all pending migrations from sourceDir against databaseURL.
// An already up-to-date schema is not an error.
func Migrate(databaseURL, sourceDir string) error {
	m, err := migrate.New("file://"+sourceDir, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("[DB][Migrate] Schema already up to date")
			return nil
		}
		return err
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	logger.Info("[DB][Migrate] Schema migrated", "version", version, "dirty", dirty)
	return nil
}
