package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/adapters/middleware"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/domain"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/ports"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/validation"
)

type PaymentHandler struct {
	workflow ports.PaymentWorkflow
	engine   *validation.Engine
}

func NewPaymentHandler(workflow ports.PaymentWorkflow, engine *validation.Engine) *PaymentHandler {
	return &PaymentHandler{workflow: workflow, engine: engine}
}

type createPaymentRequest struct {
	StudentID     string    `json:"student_id"`
	Amount        string    `json:"amount"`
	Purpose       string    `json:"purpose"`
	DueDate       time.Time `json:"due_date"`
	AllowPartial  bool      `json:"allow_partial"`
	MinimumAmount string    `json:"minimum_amount,omitempty"`
}

// paymentResponse decorates the request with the derived progress figures
// clients render: remaining balance and settled percentage.
type paymentResponse struct {
	*domain.PaymentRequest
	RemainingAmount  string `json:"remaining_amount"`
	PaidPercentage   int    `json:"paid_percentage"`
	InstallmentCount int    `json:"installment_count"`
}

func (h *PaymentHandler) respond(w http.ResponseWriter, status int, req *domain.PaymentRequest) {
	writeJSON(w, status, paymentResponse{
		PaymentRequest:   req,
		RemainingAmount:  req.RemainingAmount().String(),
		PaidPercentage:   h.engine.PaymentPercentage(req.PaidAmount, req.Amount),
		InstallmentCount: req.InstallmentCount(),
	})
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	payment, err := h.workflow.Create(r.Context(), domain.CreatePayment{
		StudentID:     req.StudentID,
		Amount:        req.Amount,
		Purpose:       req.Purpose,
		DueDate:       req.DueDate,
		AllowPartial:  req.AllowPartial,
		MinimumAmount: req.MinimumAmount,
		RequestedBy:   middleware.ActorID(r.Context()),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.respond(w, http.StatusCreated, payment)
}

func (h *PaymentHandler) Approve(w http.ResponseWriter, r *http.Request) {
	payment, err := h.workflow.Approve(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, payment)
}

func (h *PaymentHandler) Reject(w http.ResponseWriter, r *http.Request) {
	payment, err := h.workflow.Reject(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, payment)
}

type recordPaymentRequest struct {
	Amount      string `json:"amount"`
	ExternalRef string `json:"external_ref"`
}

func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req recordPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	payment, err := h.workflow.RecordPayment(r.Context(), r.PathValue("id"), req.Amount, req.ExternalRef)
	if err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, payment)
}

func (h *PaymentHandler) Get(w http.ResponseWriter, r *http.Request) {
	payment, err := h.workflow.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, payment)
}

// Suggestions returns the quick-amount shortcuts for the current balance.
func (h *PaymentHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	payment, err := h.workflow.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	amounts := h.workflow.SuggestAmounts(payment)
	suggestions := make([]string, 0, len(amounts))
	for _, a := range amounts {
		suggestions = append(suggestions, a.String())
	}
	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}
