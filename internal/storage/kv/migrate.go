package kv

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

const migrationsTable = "tryon_schema_migrations"

func migrationSource() (source.Driver, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load embedded migrations: %w", err)
	}
	return src, nil
}

// MigratePostgres applies the embedded schema migrations on a dedicated
// connection, which is closed before returning.
func MigratePostgres(dsn string) error {
	sqldb, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open postgres for migration: %w", err)
	}

	driver, err := postgres.WithInstance(sqldb, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		sqldb.Close()
		return fmt.Errorf("failed to create postgres migration driver: %w", err)
	}

	src, err := migrationSource()
	if err != nil {
		driver.Close()
		return err
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		src.Close()
		driver.Close()
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
