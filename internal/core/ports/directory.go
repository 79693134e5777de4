package ports

import "context"

// GuardianDirectory is the external student/guardian registry. The workflows
// read it to snapshot a student's guardian set and to enforce the guardian
// cap; they never write to it.
type GuardianDirectory interface {
	GuardianIDs(ctx context.Context, studentID string) ([]string, error)
}

// ReplayGuard remembers recently seen payment references so a double submit
// can be flagged before the store round-trip. It is a best-effort cache: the
// authoritative duplicate check is the installment ledger itself, so errors
// and evictions here are harmless.
type ReplayGuard interface {
	MarkSeen(ctx context.Context, externalRef string) (alreadySeen bool, err error)
}
