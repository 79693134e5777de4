// Package validation centralizes the amount, percentage and creation-payload
// checks both workflows rely on. Every function is pure and reports expected
// domain violations as typed errors rather than panics, so handlers and
// services consume one uniform contract.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/domain"
)

const minPurposeLength = 10

// Engine evaluates monetary rules against deployment-tuned thresholds.
type Engine struct {
	absoluteFloor  decimal.Decimal // smallest acceptable minimum installment
	minimumPercent int64           // minimum installment as a percent of the total
}

func NewEngine(absoluteFloor decimal.Decimal, minimumPercent int64) *Engine {
	return &Engine{
		absoluteFloor:  absoluteFloor,
		minimumPercent: minimumPercent,
	}
}

// ValidateAmount parses a raw client amount. Non-numeric, zero and negative
// inputs are rejected.
func (e *Engine) ValidateAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, domain.NewValidationError("amount", "amount must be a number")
	}
	if !amount.IsPositive() {
		return decimal.Zero, domain.NewValidationError("amount", "amount must be greater than zero")
	}
	return amount, nil
}

// ValidateMinimumAmount checks a proposed minimum installment against the
// request total. The percent floor stops totals from being split into
// trivially small installments.
func (e *Engine) ValidateMinimumAmount(minimum, total decimal.Decimal) error {
	if minimum.LessThan(e.absoluteFloor) {
		return domain.NewValidationError("minimum_amount",
			fmt.Sprintf("minimum amount must be at least %s", e.absoluteFloor))
	}
	if minimum.GreaterThan(total) {
		return domain.NewValidationError("minimum_amount", "minimum amount cannot exceed the total")
	}
	percentFloor := total.Mul(decimal.NewFromInt(e.minimumPercent)).Div(decimal.NewFromInt(100))
	if minimum.LessThan(percentFloor) {
		return domain.NewValidationError("minimum_amount",
			fmt.Sprintf("minimum amount must be at least %d%% of the total", e.minimumPercent))
	}
	return nil
}

// ValidatePartialPayment checks a proposed installment against the request's
// current balance and rules.
func (e *Engine) ValidatePartialPayment(req *domain.PaymentRequest, proposed decimal.Decimal) error {
	if !proposed.IsPositive() {
		return domain.NewValidationError("amount", "amount must be greater than zero")
	}
	remaining := req.RemainingAmount()
	if !req.AllowPartial && !proposed.Equal(remaining) {
		return domain.NewValidationError("amount",
			fmt.Sprintf("this request must be paid in full (%s)", remaining))
	}
	if proposed.GreaterThan(remaining) {
		return domain.NewValidationError("amount",
			fmt.Sprintf("amount exceeds the remaining balance of %s", remaining))
	}
	if req.AllowPartial && proposed.LessThan(req.MinimumAmount) && !proposed.Equal(remaining) {
		return domain.NewValidationError("amount",
			fmt.Sprintf("amount is below the minimum installment of %s", req.MinimumAmount))
	}
	return nil
}

// PaymentPercentage returns round(paid/total*100) as an integer between 0 and
// 100. A zero total yields 0.
func (e *Engine) PaymentPercentage(paid, total decimal.Decimal) int {
	if total.IsZero() {
		return 0
	}
	pct := paid.Div(total).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return int(pct)
}

// ValidateCreation aggregates the field-level checks for a payment request
// payload. On success it returns the parsed amount and minimum (zero when
// partial payment is disabled); on failure the error carries every failing
// field at once.
func (e *Engine) ValidateCreation(in domain.CreatePayment, now time.Time) (amount, minimum decimal.Decimal, err error) {
	fields := make(map[string]string)

	if strings.TrimSpace(in.StudentID) == "" {
		fields["student_id"] = "select a student"
	}
	if strings.TrimSpace(in.RequestedBy) == "" {
		fields["requested_by"] = "requesting actor is required"
	}

	amount, amountErr := e.ValidateAmount(in.Amount)
	if amountErr != nil {
		fields["amount"] = amountErr.(*domain.ValidationError).Fields["amount"]
	}

	if len(strings.TrimSpace(in.Purpose)) < minPurposeLength {
		fields["purpose"] = fmt.Sprintf("purpose must be at least %d characters", minPurposeLength)
	}

	if in.DueDate.Before(now) {
		fields["due_date"] = "due date cannot be in the past"
	}

	if in.AllowPartial {
		min, minErr := e.ValidateAmount(in.MinimumAmount)
		switch {
		case strings.TrimSpace(in.MinimumAmount) == "":
			fields["minimum_amount"] = "minimum amount is required for partial payments"
		case minErr != nil:
			fields["minimum_amount"] = minErr.(*domain.ValidationError).Fields["amount"]
		case amountErr == nil:
			if err := e.ValidateMinimumAmount(min, amount); err != nil {
				fields["minimum_amount"] = err.(*domain.ValidationError).Fields["minimum_amount"]
			} else {
				minimum = min
			}
		default:
			minimum = min
		}
	}

	if len(fields) > 0 {
		return decimal.Zero, decimal.Zero, &domain.ValidationError{Fields: fields}
	}
	return amount, minimum, nil
}

// ValidateGuardianLink checks the creation payload for a guardian-link
// request.
func (e *Engine) ValidateGuardianLink(in domain.CreateGuardianLink) error {
	fields := make(map[string]string)

	if strings.TrimSpace(in.StudentID) == "" {
		fields["student_id"] = "select a student"
	}
	if strings.TrimSpace(in.RequestedBy) == "" {
		fields["requested_by"] = "requesting actor is required"
	}
	if strings.TrimSpace(in.NewGuardian.Name) == "" {
		fields["new_guardian.name"] = "guardian name is required"
	}
	if strings.TrimSpace(in.NewGuardian.Contact) == "" {
		fields["new_guardian.contact"] = "guardian contact is required"
	}
	if strings.TrimSpace(in.NewGuardian.Relationship) == "" {
		fields["new_guardian.relationship"] = "relationship is required"
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}
