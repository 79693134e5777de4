package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/domain"
)

// GuardianLinkWorkflow is the consent state machine over guardian-link
// requests. Approve and Reject identify the acting guardian explicitly; the
// transport layer resolves it from the authenticated session.
type GuardianLinkWorkflow interface {
	Create(ctx context.Context, in domain.CreateGuardianLink) (*domain.GuardianLinkRequest, error)
	Approve(ctx context.Context, requestID, guardianID string) (*domain.GuardianLinkRequest, error)
	Reject(ctx context.Context, requestID, guardianID string) (*domain.GuardianLinkRequest, error)
	Get(ctx context.Context, requestID string) (*domain.GuardianLinkRequest, error)
}

// PaymentWorkflow is the settlement state machine over payment requests.
type PaymentWorkflow interface {
	Create(ctx context.Context, in domain.CreatePayment) (*domain.PaymentRequest, error)
	Approve(ctx context.Context, requestID string) (*domain.PaymentRequest, error)
	Reject(ctx context.Context, requestID string) (*domain.PaymentRequest, error)
	RecordPayment(ctx context.Context, requestID, rawAmount, externalRef string) (*domain.PaymentRequest, error)
	Get(ctx context.Context, requestID string) (*domain.PaymentRequest, error)
	SuggestAmounts(req *domain.PaymentRequest) []decimal.Decimal
}
