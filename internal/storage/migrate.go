package storage

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrate applies the embedded migrations for the store's driver.
func (s *SQLStore) Migrate() error {
	db := s.DB()
	if db == nil {
		return errors.New("cannot migrate inside a transaction")
	}
	src, err := iofs.New(migrationsFS, "migrations/"+s.driver)
	if err != nil {
		return errors.Wrap(err, "failed to create migration source")
	}

	var driver database.Driver
	switch s.driver {
	case DriverPostgres:
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
	case DriverSQLite:
		driver, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	default:
		err = errors.Errorf("no migrations for driver %q", s.driver)
	}
	if err != nil {
		return errors.Wrap(err, "failed to create migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", src, s.driver, driver)
	if err != nil {
		return errors.Wrap(err, "failed to initialize migrations")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "failed to apply migrations")
	}
	return nil
}
