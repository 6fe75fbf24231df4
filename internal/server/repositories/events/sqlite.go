package events

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/treasurehunt/internal/dbx"
	"github.com/dmitrijs2005/treasurehunt/internal/server/models"
)

type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Insert(ctx context.Context, e *models.Event) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_events (occurred_at, kind, session_id, remote_addr, file_name, size, "offset", message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.OccurredAt.UTC(), string(e.Kind), e.SessionID, e.RemoteAddr, e.FileName, e.Size, e.Offset, e.Message)
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read event id: %w", err)
	}
	e.ID = id
	return nil
}

func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]models.Event, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, occurred_at, kind, session_id, remote_addr, file_name, size, "offset", message
		FROM activity_events
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]models.Event, error) {
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		var (
			e    models.Event
			kind string
		)
		if err := rows.Scan(&e.ID, &e.OccurredAt, &kind, &e.SessionID, &e.RemoteAddr, &e.FileName, &e.Size, &e.Offset, &e.Message); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		e.Kind = models.EventKind(kind)
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate event rows: %w", err)
	}
	return out, nil
}
