package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/domain"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/ports"
)

// PaymentRepository persists payment requests in Postgres. The installment
// ledger is stored as a JSONB column on the request row so the whole entity
// updates under one version check; the ledger's append-only discipline is
// enforced by the workflow, which only ever extends the slice.
type PaymentRepository struct {
	db *sql.DB
}

var _ ports.PaymentRequestStore = (*PaymentRepository)(nil)

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Get(ctx context.Context, id string) (*domain.PaymentRequest, error) {
	var (
		req         domain.PaymentRequest
		amount      string
		minimum     string
		paid        string
		historyJSON []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, requested_by, amount, purpose, due_date,
		       allow_partial, minimum_amount, paid_amount, status,
		       payment_history, created_at, version
		FROM payment_requests
		WHERE id = $1`, id,
	).Scan(
		&req.ID, &req.StudentID, &req.RequestedBy, &amount, &req.Purpose, &req.DueDate,
		&req.AllowPartial, &minimum, &paid, &req.Status,
		&historyJSON, &req.CreatedAt, &req.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if req.Amount, err = decimal.NewFromString(amount); err != nil {
		return nil, err
	}
	if req.MinimumAmount, err = decimal.NewFromString(minimum); err != nil {
		return nil, err
	}
	if req.PaidAmount, err = decimal.NewFromString(paid); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(historyJSON, &req.History); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *PaymentRepository) Create(ctx context.Context, req *domain.PaymentRequest, events []ports.Event) error {
	historyJSON, err := json.Marshal(req.History)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payment_requests
			(id, student_id, requested_by, amount, purpose, due_date,
			 allow_partial, minimum_amount, paid_amount, status,
			 payment_history, created_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, 1)`,
		req.ID, req.StudentID, req.RequestedBy,
		req.Amount.String(), req.Purpose, req.DueDate,
		req.AllowPartial, req.MinimumAmount.String(), req.PaidAmount.String(), req.Status,
		historyJSON, req.CreatedAt,
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

func (r *PaymentRepository) Update(ctx context.Context, req *domain.PaymentRequest, events []ports.Event) error {
	historyJSON, err := json.Marshal(req.History)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE payment_requests
		SET paid_amount = $1, status = $2, payment_history = $3, version = version + 1
		WHERE id = $4 AND version = $5`,
		req.PaidAmount.String(), req.Status, historyJSON, req.ID, req.Version,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return staleWriteError(ctx, tx, "payment_requests", req.ID)
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
