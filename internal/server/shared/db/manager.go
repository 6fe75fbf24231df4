// Package db opens the optional event store and wires its repositories and
// goose migrations for the selected SQL driver.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/treasurehunt/internal/server/repositories/events"
	"github.com/pressly/goose/v3"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

type RepositoryManager interface {
	RunMigrations(context.Context) error
	Conn() *sql.DB
	Events() events.Repository
	Close() error
}

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func runMigrations(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(string(dialect)); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, dir)
}

// Open connects to the store selected by driver, runs pending migrations and
// returns the manager. The caller owns Close.
func Open(ctx context.Context, driver, dsn string) (RepositoryManager, error) {
	var (
		m   RepositoryManager
		err error
	)

	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported event store driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	if driver == DriverPostgres {
		m = NewPostgresRepositoryManager(conn)
	} else {
		m = NewSQLiteRepositoryManager(conn)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := m.RunMigrations(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return m, nil
}
