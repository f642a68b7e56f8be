package postgres

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/turtacn/SolarSite-Intelligence/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/turtacn/SolarSite-Intelligence/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// EmbeddedMigrations lists the migration files compiled into the binary.
func EmbeddedMigrations() ([]string, error) {
	names, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// newMigrate opens a migrator. An empty migrationsPath selects the embedded
// schema; otherwise it is a golang-migrate source URL such as
// "file://migrations".
func newMigrate(dbURL, migrationsPath string) (*migrate.Migrate, error) {
	if migrationsPath == "" {
		src, err := iofs.New(migrationFS, "migrations")
		if err != nil {
			return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
		}
		return migrate.NewWithSourceInstance("iofs", src, dbURL)
	}
	return migrate.New(migrationsPath, dbURL)
}

// MigrateUp applies all pending migrations. Nothing to apply is not an error.
func MigrateUp(dbURL, migrationsPath string) error {
	m, err := newMigrate(dbURL, migrationsPath)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// RollbackMigration rolls back steps migrations.
func RollbackMigration(dbURL, migrationsPath string, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be greater than 0, got %d", steps)
	}
	m, err := newMigrate(dbURL, migrationsPath)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("no migrations to roll back")
		}
		return fmt.Errorf("failed to rollback %d step(s): %w", steps, err)
	}
	return nil
}

// MigrationStatus returns the applied version and whether a previous run left
// the schema dirty. A fresh database reports version 0.
func MigrationStatus(dbURL, migrationsPath string) (version uint, dirty bool, err error) {
	m, err := newMigrate(dbURL, migrationsPath)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	version, dirty, err = m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get migration version: %w", err)
	}
	return version, dirty, nil
}

// ForceMigrationVersion marks the schema as version without running anything.
// Only for recovering a dirty state by hand.
func ForceMigrationVersion(dbURL, migrationsPath string, version int) error {
	m, err := newMigrate(dbURL, migrationsPath)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Force(version); err != nil {
		return fmt.Errorf("failed to force version %d: %w", version, err)
	}
	return nil
}

// RunMigrations applies the embedded schema over the open connection.
func (c *Connection) RunMigrations() error {
	driver, err := pgmigrate.WithInstance(c.db, &pgmigrate.Config{})
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeDatabaseError, "failed to create migration driver")
	}
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeInternal, "failed to open embedded migrations")
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return pkgerrors.Wrap(err, pkgerrors.ErrCodeDatabaseError, "failed to create migrate instance")
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, _, _ := m.Version()
		return pkgerrors.Wrapf(err, pkgerrors.ErrCodeDatabaseError, "failed to run migrations (current version: %d)", version)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		c.logger.Warn("failed to read migration version", logging.Err(err))
	}
	c.logger.Info("database migrations completed",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

//Personal.AI order the ending
