// Package events persists activity log events in a SQL table so they can be
// queried after the fact. PostgreSQL and SQLite flavours share one interface.
package events

import (
	"context"

	"github.com/dmitrijs2005/treasurehunt/internal/server/models"
)

type Repository interface {
	Insert(ctx context.Context, e *models.Event) error
	Recent(ctx context.Context, limit int) ([]models.Event, error)
}
