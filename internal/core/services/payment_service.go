package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/domain"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/ports"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/validation"
)

// PaymentService drives the installment settlement workflow. A request is
// settled in full or in partial installments subject to the minimum-amount
// rule; paid_amount and status are recomputed on every committed
// installment, never by readers.
type PaymentService struct {
	store  ports.PaymentRequestStore
	engine *validation.Engine
	replay ports.ReplayGuard // optional; nil disables the fast-path
	clock  ports.Clock
}

var _ ports.PaymentWorkflow = (*PaymentService)(nil)

func NewPaymentService(
	store ports.PaymentRequestStore,
	engine *validation.Engine,
	replay ports.ReplayGuard,
	clock ports.Clock,
) *PaymentService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &PaymentService{
		store:  store,
		engine: engine,
		replay: replay,
		clock:  clock,
	}
}

// Create validates the payload and opens a pending request with an empty
// ledger.
func (s *PaymentService) Create(ctx context.Context, in domain.CreatePayment) (*domain.PaymentRequest, error) {
	now := s.clock.Now()
	amount, minimum, err := s.engine.ValidateCreation(in, now)
	if err != nil {
		return nil, err
	}

	req := &domain.PaymentRequest{
		ID:            uuid.NewString(),
		StudentID:     in.StudentID,
		RequestedBy:   in.RequestedBy,
		Amount:        amount,
		Purpose:       in.Purpose,
		DueDate:       in.DueDate,
		AllowPartial:  in.AllowPartial,
		MinimumAmount: minimum,
		PaidAmount:    decimal.Zero,
		Status:        domain.PaymentPending,
		History:       []domain.PaymentInstallment{},
		CreatedAt:     now,
	}

	events := []ports.Event{s.paymentEvent(ports.EventPaymentCreated, req, nil)}
	if err := s.store.Create(ctx, req, events); err != nil {
		return nil, err
	}
	recordTransition("payment_request", "created")
	return req, nil
}

// Approve moves a pending request to approved. Any other starting status is
// rejected: approval is only meaningful before settlement begins.
func (s *PaymentService) Approve(ctx context.Context, requestID string) (*domain.PaymentRequest, error) {
	return s.adminTransition(ctx, requestID, domain.PaymentApproved, ports.EventPaymentApproved)
}

// Reject moves a pending request to rejected, a terminal state.
func (s *PaymentService) Reject(ctx context.Context, requestID string) (*domain.PaymentRequest, error) {
	return s.adminTransition(ctx, requestID, domain.PaymentRejected, ports.EventPaymentRejected)
}

func (s *PaymentService) adminTransition(ctx context.Context, requestID string, to domain.PaymentStatus, eventType string) (*domain.PaymentRequest, error) {
	for attempt := 0; attempt < conflictRetries; attempt++ {
		req, err := s.store.Get(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if req.Status == to {
			return req, nil
		}
		if req.Status != domain.PaymentPending {
			return req, domain.ErrAlreadyTerminal
		}

		req.Status = to
		events := []ports.Event{s.paymentEvent(eventType, req, nil)}

		if err := s.store.Update(ctx, req, events); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return nil, err
		}
		recordTransition("payment_request", string(req.Status))
		return req, nil
	}
	return nil, domain.ErrConflict
}

// RecordPayment appends an installment to the ledger and re-derives
// paid_amount and status. Resubmitting an external reference already in the
// ledger is a no-op returning current state, so network retries cannot
// double-count.
func (s *PaymentService) RecordPayment(ctx context.Context, requestID, rawAmount, externalRef string) (*domain.PaymentRequest, error) {
	if externalRef == "" {
		return nil, domain.NewValidationError("external_ref", "transaction reference is required")
	}
	amount, err := s.engine.ValidateAmount(rawAmount)
	if err != nil {
		return nil, err
	}

	if s.replay != nil {
		// Best-effort duplicate hint; the ledger scan below is authoritative.
		if seen, err := s.replay.MarkSeen(ctx, externalRef); err == nil && seen {
			log.Printf("payment request %s: duplicate submission of reference %s", requestID, externalRef)
		}
	}

	for attempt := 0; attempt < conflictRetries; attempt++ {
		req, err := s.store.Get(ctx, requestID)
		if err != nil {
			return nil, err
		}
		if inst := req.FindInstallment(externalRef); inst != nil {
			return req, nil
		}
		if req.IsTerminal() {
			return req, domain.ErrAlreadyTerminal
		}
		if err := s.engine.ValidatePartialPayment(req, amount); err != nil {
			return nil, err
		}

		installment := domain.PaymentInstallment{
			ID:               uuid.NewString(),
			PaymentRequestID: req.ID,
			Amount:           amount,
			PaymentDate:      s.clock.Now(),
			ExternalRef:      externalRef,
		}
		req.History = append(req.History, installment)
		req.PaidAmount = req.PaidAmount.Add(amount)
		if req.RemainingAmount().IsZero() {
			req.Status = domain.PaymentPaid
		} else {
			req.Status = domain.PaymentPartiallyPaid
		}

		events := []ports.Event{s.paymentEvent(ports.EventPaymentRecorded, req, &installment)}
		if req.Status == domain.PaymentPaid {
			events = append(events, s.paymentEvent(ports.EventPaymentSettled, req, nil))
		}

		if err := s.store.Update(ctx, req, events); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return nil, err
		}
		recordTransition("payment_request", string(req.Status))
		return req, nil
	}
	return nil, domain.ErrConflict
}

// Get reads a request by id.
func (s *PaymentService) Get(ctx context.Context, requestID string) (*domain.PaymentRequest, error) {
	return s.store.Get(ctx, requestID)
}

// SuggestAmounts derives quick-amount shortcuts from the current balance:
// the full remainder, half the remainder clamped up to the minimum
// installment, and the minimum itself. Candidates above the remaining
// balance or duplicated are dropped, so a shortcut can never propose an
// amount the settlement rules would refuse.
func (s *PaymentService) SuggestAmounts(req *domain.PaymentRequest) []decimal.Decimal {
	remaining := req.RemainingAmount()
	if req.IsTerminal() || remaining.IsZero() {
		return nil
	}
	if !req.AllowPartial {
		return []decimal.Decimal{remaining}
	}

	half := remaining.Div(decimal.NewFromInt(2)).Round(2)
	if half.LessThan(req.MinimumAmount) {
		half = req.MinimumAmount
	}

	suggestions := []decimal.Decimal{remaining}
	for _, candidate := range []decimal.Decimal{half, req.MinimumAmount} {
		if candidate.GreaterThan(remaining) || !candidate.IsPositive() {
			continue
		}
		duplicate := false
		for _, existing := range suggestions {
			if existing.Equal(candidate) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			suggestions = append(suggestions, candidate)
		}
	}
	return suggestions
}

func (s *PaymentService) paymentEvent(eventType string, req *domain.PaymentRequest, inst *domain.PaymentInstallment) ports.Event {
	evt := ports.PaymentEvent{
		RequestID: req.ID,
		StudentID: req.StudentID,
		Status:    string(req.Status),
		Remaining: req.RemainingAmount().String(),
	}
	if inst != nil {
		evt.Amount = inst.Amount.String()
		evt.ExternalRef = inst.ExternalRef
	}
	payload, _ := json.Marshal(evt)
	return ports.Event{ID: uuid.NewString(), Type: eventType, Payload: payload}
}
