package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/domain"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/ports"
)

// insertEvents appends outbox rows inside the caller's transaction. The
// NOTIFY toward the relay fires from a table trigger, so notification and
// entity write commit or roll back together.
func insertEvents(ctx context.Context, tx *sql.Tx, events []ports.Event) error {
	for _, evt := range events {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO outbox_events (id, event_type, payload, created_at)
			VALUES ($1, $2, $3, NOW())`,
			evt.ID, evt.Type, evt.Payload,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// staleWriteError distinguishes a vanished row from a version mismatch after
// an UPDATE touched zero rows.
func staleWriteError(ctx context.Context, tx *sql.Tx, table, id string) error {
	var exists bool
	err := tx.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM "+table+" WHERE id = $1)", id,
	).Scan(&exists)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if !exists {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}
