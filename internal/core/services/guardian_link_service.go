package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/domain"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/ports"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/validation"
)

// conflictRetries bounds the internal retry loop around optimistic-
// concurrency failures before they surface as a transient error.
const conflictRetries = 3

// GuardianLinkService drives the consent workflow: a new guardian is linked
// to a student only after every guardian present at creation time approves,
// within the request's TTL. A single veto rejects; elapsed TTL expires the
// request lazily on the next guarded access.
type GuardianLinkService struct {
	store        ports.GuardianLinkStore
	directory    ports.GuardianDirectory
	engine       *validation.Engine
	clock        ports.Clock
	maxGuardians int
	linkTTL      time.Duration
}

var _ ports.GuardianLinkWorkflow = (*GuardianLinkService)(nil)

func NewGuardianLinkService(
	store ports.GuardianLinkStore,
	directory ports.GuardianDirectory,
	engine *validation.Engine,
	clock ports.Clock,
	maxGuardians int,
	linkTTL time.Duration,
) *GuardianLinkService {
	if clock == nil {
		clock = ports.SystemClock{}
	}
	return &GuardianLinkService{
		store:        store,
		directory:    directory,
		engine:       engine,
		clock:        clock,
		maxGuardians: maxGuardians,
		linkTTL:      linkTTL,
	}
}

// Create opens a link request, snapshotting the student's current guardians
// as the approval set. Fails before any write if the student is already at
// the guardian cap.
func (s *GuardianLinkService) Create(ctx context.Context, in domain.CreateGuardianLink) (*domain.GuardianLinkRequest, error) {
	if err := s.engine.ValidateGuardianLink(in); err != nil {
		return nil, err
	}

	guardianIDs, err := s.directory.GuardianIDs(ctx, in.StudentID)
	if err != nil {
		return nil, err
	}
	if len(guardianIDs) >= s.maxGuardians {
		return nil, domain.NewValidationError("student_id",
			"student already has the maximum number of guardians")
	}

	now := s.clock.Now()
	req := &domain.GuardianLinkRequest{
		ID:                  uuid.NewString(),
		StudentID:           in.StudentID,
		NewGuardian:         in.NewGuardian,
		RequestedBy:         in.RequestedBy,
		ExistingGuardianIDs: guardianIDs,
		ApprovedBy:          []string{},
		CreatedAt:           now,
		ExpiresAt:           now.Add(s.linkTTL),
		Status:              domain.LinkPending,
	}

	// A request with no existing guardians has nobody to wait for and is
	// granted immediately.
	events := []ports.Event{s.linkEvent(ports.EventLinkCreated, req, "")}
	if req.FullyApproved() {
		req.Status = domain.LinkApproved
		events = append(events,
			s.linkEvent(ports.EventLinkApproved, req, ""),
			s.guardianLinkedEvent(req),
		)
	}

	if err := s.store.Create(ctx, req, events); err != nil {
		return nil, err
	}
	recordTransition("guardian_link", "created")
	return req, nil
}

// Approve records one guardian's consent. Re-approval by the same guardian
// is a no-op returning current state; the approval that completes the
// snapshot transitions the request to approved and signals the registry.
func (s *GuardianLinkService) Approve(ctx context.Context, requestID, guardianID string) (*domain.GuardianLinkRequest, error) {
	for attempt := 0; attempt < conflictRetries; attempt++ {
		req, err := s.store.Get(ctx, requestID)
		if err != nil {
			return nil, err
		}

		if expired, err := s.expireIfDue(ctx, req); expired {
			return req, err
		}

		if !req.IsExistingGuardian(guardianID) {
			return nil, domain.ErrForbidden
		}
		// Idempotent re-approval, including after the request reached
		// approved: the caller gets the current state back.
		if req.HasApproved(guardianID) && req.Status != domain.LinkRejected && req.Status != domain.LinkExpired {
			return req, nil
		}
		if req.IsTerminal() {
			if req.Status == domain.LinkExpired {
				return req, domain.ErrExpired
			}
			return req, domain.ErrAlreadyTerminal
		}

		req.ApprovedBy = append(req.ApprovedBy, guardianID)
		events := []ports.Event{s.linkEvent(ports.EventLinkApprovalRecorded, req, guardianID)}
		if req.FullyApproved() {
			req.Status = domain.LinkApproved
			events = append(events,
				s.linkEvent(ports.EventLinkApproved, req, guardianID),
				s.guardianLinkedEvent(req),
			)
		}

		if err := s.store.Update(ctx, req, events); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return nil, err
		}
		recordTransition("guardian_link", string(req.Status))
		return req, nil
	}
	return nil, domain.ErrConflict
}

// Reject lets any single existing guardian veto the link. Granting needs
// consensus; denying does not.
func (s *GuardianLinkService) Reject(ctx context.Context, requestID, guardianID string) (*domain.GuardianLinkRequest, error) {
	for attempt := 0; attempt < conflictRetries; attempt++ {
		req, err := s.store.Get(ctx, requestID)
		if err != nil {
			return nil, err
		}

		if expired, err := s.expireIfDue(ctx, req); expired {
			return req, err
		}

		if !req.IsExistingGuardian(guardianID) {
			return nil, domain.ErrForbidden
		}
		if req.IsTerminal() {
			if req.Status == domain.LinkExpired {
				return req, domain.ErrExpired
			}
			return req, domain.ErrAlreadyTerminal
		}

		req.Status = domain.LinkRejected
		events := []ports.Event{s.linkEvent(ports.EventLinkRejected, req, guardianID)}

		if err := s.store.Update(ctx, req, events); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				continue
			}
			return nil, err
		}
		recordTransition("guardian_link", string(req.Status))
		return req, nil
	}
	return nil, domain.ErrConflict
}

// Get reads a request, applying lazy expiry so every reader observes an
// elapsed TTL as expired.
func (s *GuardianLinkService) Get(ctx context.Context, requestID string) (*domain.GuardianLinkRequest, error) {
	req, err := s.store.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if expired, _ := s.expireIfDue(ctx, req); expired {
		return req, nil
	}
	return req, nil
}

// expireIfDue flips a pending request past its TTL to expired and persists
// the flip. The caller's view is expired even when the persist loses a race
// or fails: expiry is a function of the clock, not of storage.
func (s *GuardianLinkService) expireIfDue(ctx context.Context, req *domain.GuardianLinkRequest) (bool, error) {
	if !req.ExpiredBy(s.clock.Now()) {
		return false, nil
	}
	req.Status = domain.LinkExpired
	events := []ports.Event{s.linkEvent(ports.EventLinkExpired, req, "")}
	if err := s.store.Update(ctx, req, events); err != nil && !errors.Is(err, domain.ErrConflict) {
		log.Printf("guardian link %s: failed to persist expiry: %v", req.ID, err)
	} else if err == nil {
		recordTransition("guardian_link", string(domain.LinkExpired))
	}
	return true, domain.ErrExpired
}

func (s *GuardianLinkService) linkEvent(eventType string, req *domain.GuardianLinkRequest, guardianID string) ports.Event {
	payload, _ := json.Marshal(ports.GuardianLinkEvent{
		RequestID:  req.ID,
		StudentID:  req.StudentID,
		Status:     string(req.Status),
		GuardianID: guardianID,
	})
	return ports.Event{ID: uuid.NewString(), Type: eventType, Payload: payload}
}

func (s *GuardianLinkService) guardianLinkedEvent(req *domain.GuardianLinkRequest) ports.Event {
	payload, _ := json.Marshal(ports.GuardianLinkedEvent{
		StudentID:    req.StudentID,
		Name:         req.NewGuardian.Name,
		Contact:      req.NewGuardian.Contact,
		Relationship: req.NewGuardian.Relationship,
	})
	return ports.Event{ID: uuid.NewString(), Type: ports.EventGuardianLinked, Payload: payload}
}
