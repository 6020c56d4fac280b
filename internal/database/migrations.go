package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/sirupsen/logrus"
)

// MigrationRunner applies the SQL files under the migrations directory.
type MigrationRunner struct {
	migrate *migrate.Migrate
	log     *logrus.Logger
}

// NewMigrationRunner creates a new migration runner
func NewMigrationRunner(databaseURL, migrationsPath string, logger *logrus.Logger) (*MigrationRunner, error) {
	m, err := migrate.New("file://"+migrationsPath, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating migration instance: %w", err)
	}
	return &MigrationRunner{migrate: m, log: logger}, nil
}

// Up applies every pending migration.
func (mr *MigrationRunner) Up() error {
	return mr.run("up", mr.migrate.Up)
}

// Down rolls back the most recent migration.
func (mr *MigrationRunner) Down() error {
	return mr.run("down", func() error { return mr.migrate.Steps(-1) })
}

// Reset rolls back every migration.
func (mr *MigrationRunner) Reset() error {
	return mr.run("reset", mr.migrate.Down)
}

func (mr *MigrationRunner) run(direction string, step func() error) error {
	entry := mr.log.WithField("direction", direction)
	entry.Info("Running database migrations")

	if err := step(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			entry.Info("No migrations to apply")
			return nil
		}
		return fmt.Errorf("running migrations %s: %w", direction, err)
	}

	version, dirty, err := mr.migrate.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		entry.Info("Schema is empty")
	case err != nil:
		entry.WithError(err).Warn("Could not read migration version")
	default:
		entry.WithFields(logrus.Fields{
			"version": version,
			"dirty":   dirty,
		}).Info("Migrations completed")
	}
	return nil
}

// Version returns the current migration version
func (mr *MigrationRunner) Version() (uint, bool, error) {
	return mr.migrate.Version()
}

// Close closes the migration runner
func (mr *MigrationRunner) Close() error {
	sourceErr, dbErr := mr.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("closing migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("closing migration database: %w", dbErr)
	}
	return nil
}
