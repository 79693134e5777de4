package ports

import (
	"context"
	"encoding/json"
)

// Event types emitted by the workflows. The notification service consumes
// these from the queue and fans out to push/SMS/email.
const (
	EventLinkCreated          = "guardian_link.created"
	EventLinkApprovalRecorded = "guardian_link.approval_recorded"
	EventLinkApproved         = "guardian_link.approved"
	EventLinkRejected         = "guardian_link.rejected"
	EventLinkExpired          = "guardian_link.expired"
	EventGuardianLinked       = "guardian.linked"

	EventPaymentCreated  = "payment_request.created"
	EventPaymentApproved = "payment_request.approved"
	EventPaymentRejected = "payment_request.rejected"
	EventPaymentRecorded = "payment.recorded"
	EventPaymentSettled  = "payment_request.paid"
)

// Event is a single outbox entry: the payload is marshalled by the service
// that raises it and stored alongside the entity write.
type Event struct {
	ID      string
	Type    string
	Payload []byte
}

// Notification is an outbox entry read back by the relay for publishing.
type Notification struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NotificationPublisher delivers notifications to the message broker.
// Dispatch is fire-and-forget with respect to workflow correctness; delivery
// failures are retried by the relay, never by the workflows.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n Notification) error
}

// GuardianLinkEvent is the payload for guardian_link.* events.
type GuardianLinkEvent struct {
	RequestID  string `json:"request_id"`
	StudentID  string `json:"student_id"`
	Status     string `json:"status"`
	GuardianID string `json:"guardian_id,omitempty"` // acting guardian, when relevant
}

// GuardianLinkedEvent signals the student/guardian registry to attach the
// approved guardian. The registry owns the actual relation; this core only
// raises the event.
type GuardianLinkedEvent struct {
	StudentID    string `json:"student_id"`
	Name         string `json:"name"`
	Contact      string `json:"contact"`
	Relationship string `json:"relationship"`
}

// PaymentEvent is the payload for payment_request.* and payment.* events.
type PaymentEvent struct {
	RequestID   string `json:"request_id"`
	StudentID   string `json:"student_id"`
	Status      string `json:"status"`
	Amount      string `json:"amount,omitempty"`    // installment amount, for payment.recorded
	Remaining   string `json:"remaining,omitempty"` // balance after the transition
	ExternalRef string `json:"external_ref,omitempty"`
}
