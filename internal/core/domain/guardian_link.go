package domain

import (
	"slices"
	"time"
)

type LinkStatus string

const (
	LinkPending  LinkStatus = "pending"
	LinkApproved LinkStatus = "approved"
	LinkRejected LinkStatus = "rejected"
	LinkExpired  LinkStatus = "expired"
)

// NewGuardian describes the guardian a teacher proposes to attach to a
// student. The directory creates the actual guardian record once the link
// request is unanimously approved.
type NewGuardian struct {
	Name         string `json:"name"`
	Contact      string `json:"contact"`
	Relationship string `json:"relationship"`
}

// CreateGuardianLink is the payload for opening a link request.
type CreateGuardianLink struct {
	StudentID   string      `json:"student_id"`
	NewGuardian NewGuardian `json:"new_guardian"`
	RequestedBy string      `json:"requested_by"`
}

// GuardianLinkRequest requires unanimous approval from every guardian that
// was linked to the student at the moment the request was created. The
// snapshot in ExistingGuardianIDs is immutable; guardians added later have
// no say on this request.
type GuardianLinkRequest struct {
	ID                  string      `json:"id"`
	StudentID           string      `json:"student_id"`
	NewGuardian         NewGuardian `json:"new_guardian"`
	RequestedBy         string      `json:"requested_by"`
	ExistingGuardianIDs []string    `json:"existing_guardian_ids"`
	ApprovedBy          []string    `json:"approved_by"` // insertion order kept for audit
	CreatedAt           time.Time   `json:"created_at"`
	ExpiresAt           time.Time   `json:"expires_at"`
	Status              LinkStatus  `json:"status"`
	Version             int64       `json:"-"`
}

func (r *GuardianLinkRequest) IsTerminal() bool {
	return r.Status != LinkPending
}

func (r *GuardianLinkRequest) IsExistingGuardian(guardianID string) bool {
	return slices.Contains(r.ExistingGuardianIDs, guardianID)
}

func (r *GuardianLinkRequest) HasApproved(guardianID string) bool {
	return slices.Contains(r.ApprovedBy, guardianID)
}

// FullyApproved reports whether every guardian in the creation-time snapshot
// has approved. ApprovedBy is maintained as a subset of the snapshot, so a
// length comparison suffices.
func (r *GuardianLinkRequest) FullyApproved() bool {
	return len(r.ApprovedBy) == len(r.ExistingGuardianIDs)
}

// ExpiredBy reports whether the TTL has elapsed at the given instant. Expiry
// only applies to pending requests; terminal states keep their status.
func (r *GuardianLinkRequest) ExpiredBy(now time.Time) bool {
	return r.Status == LinkPending && now.After(r.ExpiresAt)
}

func (r *GuardianLinkRequest) Clone() *GuardianLinkRequest {
	c := *r
	c.ExistingGuardianIDs = slices.Clone(r.ExistingGuardianIDs)
	c.ApprovedBy = slices.Clone(r.ApprovedBy)
	return &c
}
