package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/domain"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/ports"
)

// GuardianLinkRepository persists guardian-link requests in Postgres with
// optimistic concurrency: every row carries a version column that is checked
// in the UPDATE's WHERE clause and bumped on success. Outbox events are
// written in the same transaction; a trigger on outbox_events raises the
// NOTIFY the relay listens on (see schema.sql).
type GuardianLinkRepository struct {
	db *sql.DB
}

var _ ports.GuardianLinkStore = (*GuardianLinkRepository)(nil)

func NewGuardianLinkRepository(db *sql.DB) *GuardianLinkRepository {
	return &GuardianLinkRepository{db: db}
}

func (r *GuardianLinkRepository) Get(ctx context.Context, id string) (*domain.GuardianLinkRequest, error) {
	var req domain.GuardianLinkRequest
	err := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, guardian_name, guardian_contact, guardian_relationship,
		       requested_by, existing_guardian_ids, approved_by,
		       created_at, expires_at, status, version
		FROM guardian_link_requests
		WHERE id = $1`, id,
	).Scan(
		&req.ID, &req.StudentID,
		&req.NewGuardian.Name, &req.NewGuardian.Contact, &req.NewGuardian.Relationship,
		&req.RequestedBy,
		pq.Array(&req.ExistingGuardianIDs), pq.Array(&req.ApprovedBy),
		&req.CreatedAt, &req.ExpiresAt, &req.Status, &req.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *GuardianLinkRepository) Create(ctx context.Context, req *domain.GuardianLinkRequest, events []ports.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO guardian_link_requests
			(id, student_id, guardian_name, guardian_contact, guardian_relationship,
			 requested_by, existing_guardian_ids, approved_by,
			 created_at, expires_at, status, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 1)`,
		req.ID, req.StudentID,
		req.NewGuardian.Name, req.NewGuardian.Contact, req.NewGuardian.Relationship,
		req.RequestedBy,
		pq.Array(req.ExistingGuardianIDs), pq.Array(req.ApprovedBy),
		req.CreatedAt, req.ExpiresAt, req.Status,
	)
	if err != nil {
		return err
	}

	if err := insertEvents(ctx, tx, events); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	req.Version = 1
	return nil
}

func (r *GuardianLinkRepository) Update(ctx context.Context, req *domain.GuardianLinkRequest, events []ports.Event) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE guardian_link_requests
		SET approved_by = $1, status = $2, version = version + 1
		WHERE id = $3 AND version = $4`,
		pq.Array(req.ApprovedBy), req.Status, req.ID, req.Version,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return staleWriteError(ctx, tx, "guardian_link_requests", req.ID)
	}

	if err := insertEvents(ctx, tx, events); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	req.Version++
	return nil
}
