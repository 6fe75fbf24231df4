package db

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/treasurehunt/internal/server/migrations"
	"github.com/dmitrijs2005/treasurehunt/internal/server/repositories/events"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

type SQLiteRepositoryManager struct {
	db     *sql.DB
	events events.Repository
}

func NewSQLiteRepositoryManager(db *sql.DB) *SQLiteRepositoryManager {
	return &SQLiteRepositoryManager{db: db, events: events.NewSQLiteRepository(db)}
}

func (m *SQLiteRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *SQLiteRepositoryManager) Events() events.Repository {
	return m.events
}

func (m *SQLiteRepositoryManager) RunMigrations(ctx context.Context) error {
	return runMigrations(ctx, m.db, goose.DialectSQLite3, migrations.SQLiteDir)
}

func (m *SQLiteRepositoryManager) Close() error {
	return m.db.Close()
}
