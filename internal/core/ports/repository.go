package ports

import (
	"context"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/domain"
)

// GuardianLinkStore persists guardian-link requests. Update is a
// compare-and-swap on the request's Version: a write based on a stale
// snapshot fails with domain.ErrConflict and must be retried against fresh
// state. The events are written in the same transaction as the entity
// (transactional outbox), so a committed transition always has its
// notifications queued.
type GuardianLinkStore interface {
	Get(ctx context.Context, id string) (*domain.GuardianLinkRequest, error)
	Create(ctx context.Context, req *domain.GuardianLinkRequest, events []Event) error
	Update(ctx context.Context, req *domain.GuardianLinkRequest, events []Event) error
}

// PaymentRequestStore persists payment requests with the same CAS and outbox
// semantics as GuardianLinkStore.
type PaymentRequestStore interface {
	Get(ctx context.Context, id string) (*domain.PaymentRequest, error)
	Create(ctx context.Context, req *domain.PaymentRequest, events []Event) error
	Update(ctx context.Context, req *domain.PaymentRequest, events []Event) error
}
