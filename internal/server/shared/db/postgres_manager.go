package db

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/treasurehunt/internal/server/migrations"
	"github.com/dmitrijs2005/treasurehunt/internal/server/repositories/events"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

var migrationsFS = migrations.Migrations

type PostgresRepositoryManager struct {
	db     *sql.DB
	events events.Repository
}

func NewPostgresRepositoryManager(db *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{db: db, events: events.NewPostgresRepository(db)}
}

func (m *PostgresRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRepositoryManager) Events() events.Repository {
	return m.events
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	return runMigrations(ctx, m.db, goose.DialectPostgres, migrations.PostgresDir)
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
