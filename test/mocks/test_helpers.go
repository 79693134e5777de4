package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/ports"
)

// MockGuardianDirectory implements ports.GuardianDirectory with a fixed
// student -> guardians mapping.
type MockGuardianDirectory struct {
	Guardians map[string][]string
	Err       error
}

var _ ports.GuardianDirectory = (*MockGuardianDirectory)(nil)

func (m *MockGuardianDirectory) GuardianIDs(ctx context.Context, studentID string) ([]string, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Guardians[studentID], nil
}

// MockClock is a settable ports.Clock.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

var _ ports.Clock = (*MockClock)(nil)

func NewMockClock(now time.Time) *MockClock {
	return &MockClock{now: now}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// MockReplayGuard implements ports.ReplayGuard in memory.
type MockReplayGuard struct {
	mu   sync.Mutex
	seen map[string]bool
	Err  error
}

var _ ports.ReplayGuard = (*MockReplayGuard)(nil)

func NewMockReplayGuard() *MockReplayGuard {
	return &MockReplayGuard{seen: make(map[string]bool)}
}

func (m *MockReplayGuard) MarkSeen(ctx context.Context, externalRef string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return false, m.Err
	}
	already := m.seen[externalRef]
	m.seen[externalRef] = true
	return already, nil
}
