// Package migration applies the embedded SQL migrations with golang-migrate.
package migration

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"stockledger/pkg/logger"
)

// Migrator handles database migrations using golang-migrate.
type Migrator struct {
	migrate *migrate.Migrate
	log     *logger.Logger
}

// New creates a Migrator reading migrations from fsys (root directory ".").
func New(fsys fs.FS, databaseURL string, log *logger.Logger) (*Migrator, error) {
	src, err := iofs.New(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("open migrations source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, DriverURL(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if log == nil {
		log = logger.Default()
	}

	return &Migrator{
		migrate: m,
		log:     log.WithComponent("migrate"),
	}, nil
}

// DriverURL rewrites a postgres:// DSN to the pgx5:// scheme of the pgx/v5 driver.
func DriverURL(databaseURL string) string {
	for _, scheme := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(databaseURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, scheme)
		}
	}
	return databaseURL
}

// Up runs all pending migrations.
func (m *Migrator) Up() error {
	m.log.Info("Running migrations up")

	err := m.migrate.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		m.log.Info("No migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}

	m.log.Infow("Migrations completed", "version", version, "dirty", dirty)
	return nil
}

// Down rolls back all migrations.
func (m *Migrator) Down() error {
	m.log.Info("Running migrations down")

	err := m.migrate.Down()
	if errors.Is(err, migrate.ErrNoChange) {
		m.log.Info("No migrations to roll back")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration down failed: %w", err)
	}

	m.log.Info("All migrations rolled back")
	return nil
}

// Steps applies n migrations (positive = up, negative = down).
func (m *Migrator) Steps(n int) error {
	m.log.Infow("Running migration steps", "steps", n)

	err := m.migrate.Steps(n)
	if errors.Is(err, migrate.ErrNoChange) {
		m.log.Info("No migrations to apply")
		return nil
	}
	if err != nil {
		return fmt.Errorf("migration steps failed: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return err
	}

	m.log.Infow("Migration steps completed", "version", version, "dirty", dirty)
	return nil
}

// Version returns the current migration version. Zero means none applied.
func (m *Migrator) Version() (uint, bool, error) {
	version, dirty, err := m.migrate.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// Force sets the version without running migrations. Used to clear a dirty state.
func (m *Migrator) Force(version int) error {
	m.log.Warnw("Forcing migration version", "version", version)

	if err := m.migrate.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}

	m.log.Infow("Migration version forced", "version", version)
	return nil
}

// Close releases the source and database handles.
func (m *Migrator) Close() error {
	sourceErr, dbErr := m.migrate.Close()
	if sourceErr != nil {
		return fmt.Errorf("failed to close source: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("failed to close database: %w", dbErr)
	}
	return nil
}
