package handler

import (
	"encoding/json"
	"net/http"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/adapters/middleware"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/domain"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/ports"
)

type GuardianLinkHandler struct {
	workflow ports.GuardianLinkWorkflow
}

func NewGuardianLinkHandler(workflow ports.GuardianLinkWorkflow) *GuardianLinkHandler {
	return &GuardianLinkHandler{workflow: workflow}
}

type createGuardianLinkRequest struct {
	StudentID   string             `json:"student_id"`
	NewGuardian domain.NewGuardian `json:"new_guardian"`
}

// Create opens a link request. The requesting teacher is taken from the
// authenticated session, not from the payload.
func (h *GuardianLinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createGuardianLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	link, err := h.workflow.Create(r.Context(), domain.CreateGuardianLink{
		StudentID:   req.StudentID,
		NewGuardian: req.NewGuardian,
		RequestedBy: middleware.ActorID(r.Context()),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, link)
}

// Approve records the authenticated guardian's consent.
func (h *GuardianLinkHandler) Approve(w http.ResponseWriter, r *http.Request) {
	link, err := h.workflow.Approve(r.Context(), r.PathValue("id"), middleware.ActorID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// Reject records the authenticated guardian's veto.
func (h *GuardianLinkHandler) Reject(w http.ResponseWriter, r *http.Request) {
	link, err := h.workflow.Reject(r.Context(), r.PathValue("id"), middleware.ActorID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

func (h *GuardianLinkHandler) Get(w http.ResponseWriter, r *http.Request) {
	link, err := h.workflow.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}
