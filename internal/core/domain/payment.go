package domain

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "pending"
	PaymentApproved      PaymentStatus = "approved"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentPaid          PaymentStatus = "paid"
	PaymentRejected      PaymentStatus = "rejected"
)

// CreatePayment is the raw creation payload. Amounts arrive as strings from
// the client and are validated into decimals before a request is built.
type CreatePayment struct {
	StudentID     string    `json:"student_id"`
	Amount        string    `json:"amount"`
	Purpose       string    `json:"purpose"`
	DueDate       time.Time `json:"due_date"`
	AllowPartial  bool      `json:"allow_partial"`
	MinimumAmount string    `json:"minimum_amount,omitempty"`
	RequestedBy   string    `json:"requested_by"`
}

// PaymentInstallment is an immutable ledger entry. ExternalRef is the
// mobile-money transaction id and doubles as the replay key: a second submit
// with the same reference is answered with the already-recorded state.
type PaymentInstallment struct {
	ID               string          `json:"id"`
	PaymentRequestID string          `json:"payment_request_id"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentDate      time.Time       `json:"payment_date"`
	ExternalRef      string          `json:"external_ref"`
}

// PaymentRequest is a monetary request issued to a student's guardians,
// settled in full or in tracked installments. PaidAmount and Status are
// derived at write time from the installment ledger, never inferred by
// readers.
type PaymentRequest struct {
	ID            string               `json:"id"`
	StudentID     string               `json:"student_id"`
	RequestedBy   string               `json:"requested_by"`
	Amount        decimal.Decimal      `json:"amount"`
	Purpose       string               `json:"purpose"`
	DueDate       time.Time            `json:"due_date"`
	AllowPartial  bool                 `json:"allow_partial"`
	MinimumAmount decimal.Decimal      `json:"minimum_amount"`
	PaidAmount    decimal.Decimal      `json:"paid_amount"`
	Status        PaymentStatus        `json:"status"`
	History       []PaymentInstallment `json:"payment_history"` // append-only, chronological
	CreatedAt     time.Time            `json:"created_at"`
	Version       int64                `json:"-"`
}

// IsTerminal reports whether the request accepts further transitions.
// Unlike guardian links, approved is not terminal here: an approved request
// still collects installments until paid.
func (p *PaymentRequest) IsTerminal() bool {
	return p.Status == PaymentPaid || p.Status == PaymentRejected
}

// RemainingAmount is the outstanding balance, never negative.
func (p *PaymentRequest) RemainingAmount() decimal.Decimal {
	remaining := p.Amount.Sub(p.PaidAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

func (p *PaymentRequest) InstallmentCount() int {
	return len(p.History)
}

// FindInstallment looks up a ledger entry by its external reference.
func (p *PaymentRequest) FindInstallment(externalRef string) *PaymentInstallment {
	for i := range p.History {
		if p.History[i].ExternalRef == externalRef {
			return &p.History[i]
		}
	}
	return nil
}

func (p *PaymentRequest) Clone() *PaymentRequest {
	c := *p
	c.History = slices.Clone(p.History)
	return &c
}
