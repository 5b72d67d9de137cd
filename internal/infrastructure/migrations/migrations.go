// Package migrations holds the embedded schema for every supported credential store
// engine and applies it with golang-migrate.
package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Engine names a migration set and the database/sql driver used to apply it.
type Engine string

const (
	Postgres Engine = "postgres"
	SQLite   Engine = "sqlite"
)

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS

func (e Engine) sqlDriver() string {
	if e == Postgres {
		return "pgx"
	}
	return "sqlite"
}

// Up applies every pending migration for engine against dsn.
// It opens and closes its own handle so the caller's pool is never shared with the migrator.
func Up(engine Engine, dsn string, logger *logrus.Logger) error {
	if engine != Postgres && engine != SQLite {
		return fmt.Errorf("unknown migration engine %q", engine)
	}
	db, err := sql.Open(engine.sqlDriver(), dsn)
	if err != nil {
		return fmt.Errorf("open %s for migrations: %w", engine, err)
	}
	defer func() { _ = db.Close() }()

	var driver database.Driver
	switch engine {
	case Postgres:
		driver, err = pgmigrate.WithInstance(db, &pgmigrate.Config{})
	case SQLite:
		driver, err = sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	}
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}

	src, err := iofs.New(FS, string(engine))
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, string(engine), driver)
	if err != nil {
		return fmt.Errorf("migrator: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	if logger != nil {
		logger.WithField("engine", engine).Info("running migrations...")
	}
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		if logger != nil {
			logger.WithField("engine", engine).Info("no migrations to run")
		}
		return nil
	}
	return err
}
