// Package mocks provides in-memory implementations of the port interfaces
// for testing. The stores reproduce the production compare-and-swap
// semantics: Get hands out deep copies, Update fails with ErrConflict when
// the caller's snapshot version is stale. That lets the service retry loops
// and the concurrency properties be exercised without a database.
package mocks

import (
	"context"
	"sync"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/domain"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/ports"
)

// MockGuardianLinkStore implements ports.GuardianLinkStore in memory.
type MockGuardianLinkStore struct {
	mu       sync.Mutex
	requests map[string]*domain.GuardianLinkRequest

	// Recorded outbox events, in commit order.
	Events []ports.Event

	// Error injection
	GetError    error
	CreateError error
	UpdateError error
}

var _ ports.GuardianLinkStore = (*MockGuardianLinkStore)(nil)

func NewMockGuardianLinkStore() *MockGuardianLinkStore {
	return &MockGuardianLinkStore{requests: make(map[string]*domain.GuardianLinkRequest)}
}

func (m *MockGuardianLinkStore) Get(ctx context.Context, id string) (*domain.GuardianLinkRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	req, ok := m.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return req.Clone(), nil
}

func (m *MockGuardianLinkStore) Create(ctx context.Context, req *domain.GuardianLinkRequest, events []ports.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	stored := req.Clone()
	stored.Version = 1
	m.requests[req.ID] = stored
	req.Version = 1
	m.Events = append(m.Events, events...)
	return nil
}

func (m *MockGuardianLinkStore) Update(ctx context.Context, req *domain.GuardianLinkRequest, events []ports.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return m.UpdateError
	}
	current, ok := m.requests[req.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if current.Version != req.Version {
		return domain.ErrConflict
	}
	stored := req.Clone()
	stored.Version = current.Version + 1
	m.requests[req.ID] = stored
	req.Version = stored.Version
	m.Events = append(m.Events, events...)
	return nil
}

// Stored returns the committed state of a request for assertions.
func (m *MockGuardianLinkStore) Stored(id string) *domain.GuardianLinkRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req, ok := m.requests[id]; ok {
		return req.Clone()
	}
	return nil
}

// MockPaymentStore implements ports.PaymentRequestStore in memory.
type MockPaymentStore struct {
	mu       sync.Mutex
	requests map[string]*domain.PaymentRequest

	Events []ports.Event

	GetError    error
	CreateError error
	UpdateError error
}

var _ ports.PaymentRequestStore = (*MockPaymentStore)(nil)

func NewMockPaymentStore() *MockPaymentStore {
	return &MockPaymentStore{requests: make(map[string]*domain.PaymentRequest)}
}

func (m *MockPaymentStore) Get(ctx context.Context, id string) (*domain.PaymentRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	req, ok := m.requests[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return req.Clone(), nil
}

func (m *MockPaymentStore) Create(ctx context.Context, req *domain.PaymentRequest, events []ports.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateError != nil {
		return m.CreateError
	}
	stored := req.Clone()
	stored.Version = 1
	m.requests[req.ID] = stored
	req.Version = 1
	m.Events = append(m.Events, events...)
	return nil
}

func (m *MockPaymentStore) Update(ctx context.Context, req *domain.PaymentRequest, events []ports.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return m.UpdateError
	}
	current, ok := m.requests[req.ID]
	if !ok {
		return domain.ErrNotFound
	}
	if current.Version != req.Version {
		return domain.ErrConflict
	}
	stored := req.Clone()
	stored.Version = current.Version + 1
	m.requests[req.ID] = stored
	req.Version = stored.Version
	m.Events = append(m.Events, events...)
	return nil
}

func (m *MockPaymentStore) Stored(id string) *domain.PaymentRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req, ok := m.requests[id]; ok {
		return req.Clone()
	}
	return nil
}
