package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/domain"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/ports"
)

// stubLinkWorkflow returns canned results so the handler's decoding and
// error mapping can be tested in isolation.
type stubLinkWorkflow struct {
	result *domain.GuardianLinkRequest
	err    error
}

var _ ports.GuardianLinkWorkflow = (*stubLinkWorkflow)(nil)

func (s *stubLinkWorkflow) Create(ctx context.Context, in domain.CreateGuardianLink) (*domain.GuardianLinkRequest, error) {
	return s.result, s.err
}

func (s *stubLinkWorkflow) Approve(ctx context.Context, requestID, guardianID string) (*domain.GuardianLinkRequest, error) {
	return s.result, s.err
}

func (s *stubLinkWorkflow) Reject(ctx context.Context, requestID, guardianID string) (*domain.GuardianLinkRequest, error) {
	return s.result, s.err
}

func (s *stubLinkWorkflow) Get(ctx context.Context, requestID string) (*domain.GuardianLinkRequest, error) {
	return s.result, s.err
}

func serveApprove(t *testing.T, workflow ports.GuardianLinkWorkflow) *httptest.ResponseRecorder {
	t.Helper()
	h := NewGuardianLinkHandler(workflow)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /guardian-links/{id}/approve", h.Approve)

	req := httptest.NewRequest("POST", "/guardian-links/req-1/approve", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestGuardianLinkHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "not_found", err: domain.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "forbidden", err: domain.ErrForbidden, wantStatus: http.StatusForbidden},
		{name: "expired", err: domain.ErrExpired, wantStatus: http.StatusGone},
		{name: "already_terminal", err: domain.ErrAlreadyTerminal, wantStatus: http.StatusConflict},
		{name: "conflict_exhausted", err: domain.ErrConflict, wantStatus: http.StatusServiceUnavailable},
		{name: "validation", err: domain.NewValidationError("student_id", "select a student"), wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serveApprove(t, &stubLinkWorkflow{err: tt.err})
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestGuardianLinkHandler_ValidationFieldsSurfaced(t *testing.T) {
	rec := serveApprove(t, &stubLinkWorkflow{
		err: domain.NewValidationError("student_id", "select a student"),
	})

	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Fields["student_id"] != "select a student" {
		t.Errorf("field errors not surfaced verbatim: %+v", body)
	}
}

func TestGuardianLinkHandler_ApproveOK(t *testing.T) {
	rec := serveApprove(t, &stubLinkWorkflow{
		result: &domain.GuardianLinkRequest{ID: "req-1", Status: domain.LinkApproved},
	})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var got domain.GuardianLinkRequest
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if got.Status != domain.LinkApproved {
		t.Errorf("status = %s, want approved", got.Status)
	}
}

func TestGuardianLinkHandler_CreateBadPayload(t *testing.T) {
	h := NewGuardianLinkHandler(&stubLinkWorkflow{})

	req := httptest.NewRequest("POST", "/guardian-links", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
