package events

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/treasurehunt/internal/dbx"
	"github.com/dmitrijs2005/treasurehunt/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, e *models.Event) error {
	query :=
		`INSERT INTO activity_events (occurred_at, kind, session_id, remote_addr, file_name, size, "offset", message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		e.OccurredAt, string(e.Kind), e.SessionID, e.RemoteAddr, e.FileName, e.Size, e.Offset, e.Message).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) Recent(ctx context.Context, limit int) ([]models.Event, error) {
	query :=
		`SELECT id, occurred_at, kind, session_id, remote_addr, file_name, size, "offset", message
		 FROM activity_events
		 ORDER BY id DESC
		 LIMIT $1
		 `

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scanEvents(rows)
}
