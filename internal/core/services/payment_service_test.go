package services_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/domain"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/services"
	"github.com/skolera/school-platform/request-lifecycle-service/internal/core/validation"
	"github.com/skolera/school-platform/request-lifecycle-service/test/mocks"
)

func newPaymentFixture() (*services.PaymentService, *mocks.MockPaymentStore, *validation.Engine, *mocks.MockClock) {
	store := mocks.NewMockPaymentStore()
	engine := validation.NewEngine(decimal.NewFromInt(100), 10)
	clock := mocks.NewMockClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	svc := services.NewPaymentService(store, engine, mocks.NewMockReplayGuard(), clock)
	return svc, store, engine, clock
}

func createPayment(t *testing.T, svc *services.PaymentService, clock *mocks.MockClock, allowPartial bool) *domain.PaymentRequest {
	t.Helper()
	in := domain.CreatePayment{
		StudentID:    "student-1",
		Amount:       "5000",
		Purpose:      "Term two school trip",
		DueDate:      clock.Now().Add(72 * time.Hour),
		AllowPartial: allowPartial,
		RequestedBy:  "teacher-1",
	}
	if allowPartial {
		in.MinimumAmount = "1000"
	}
	req, err := svc.Create(context.Background(), in)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	return req
}

func TestPayment_Create(t *testing.T) {
	svc, store, _, clock := newPaymentFixture()
	req := createPayment(t, svc, clock, true)

	if req.Status != domain.PaymentPending {
		t.Errorf("status = %s, want pending", req.Status)
	}
	if !req.PaidAmount.IsZero() {
		t.Errorf("paid_amount = %s, want 0", req.PaidAmount)
	}
	if req.InstallmentCount() != 0 {
		t.Errorf("history should be empty, got %d entries", req.InstallmentCount())
	}
	if store.Stored(req.ID) == nil {
		t.Error("request was not persisted")
	}
}

func TestPayment_CreateInvalidPayload(t *testing.T) {
	svc, store, _, clock := newPaymentFixture()

	_, err := svc.Create(context.Background(), domain.CreatePayment{
		StudentID:   "student-1",
		Amount:      "-5",
		Purpose:     "short",
		DueDate:     clock.Now().Add(-time.Hour),
		RequestedBy: "teacher-1",
	})
	var vErr *domain.ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(store.Events) != 0 {
		t.Error("invalid payload must not create a request")
	}
}

func TestPayment_ApproveAndReject(t *testing.T) {
	svc, _, _, clock := newPaymentFixture()
	ctx := context.Background()

	approved := createPayment(t, svc, clock, true)
	got, err := svc.Approve(ctx, approved.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if got.Status != domain.PaymentApproved {
		t.Errorf("status = %s, want approved", got.Status)
	}
	// Approve is idempotent from approved.
	if got, err = svc.Approve(ctx, approved.ID); err != nil || got.Status != domain.PaymentApproved {
		t.Errorf("re-approve: got (%s, %v)", got.Status, err)
	}

	rejected := createPayment(t, svc, clock, true)
	if got, err = svc.Reject(ctx, rejected.ID); err != nil || got.Status != domain.PaymentRejected {
		t.Fatalf("reject: got (%v, %v)", got, err)
	}
	// Cross transitions from a settled state are refused.
	if _, err = svc.Reject(ctx, approved.ID); !errors.Is(err, domain.ErrAlreadyTerminal) {
		t.Errorf("reject approved request: got %v, want ErrAlreadyTerminal", err)
	}
	if _, err = svc.Approve(ctx, rejected.ID); !errors.Is(err, domain.ErrAlreadyTerminal) {
		t.Errorf("approve rejected request: got %v, want ErrAlreadyTerminal", err)
	}
}

// The worked settlement example: 5000 total, minimum 1000. 1000 ->
// partially_paid at 20%, then 4000 -> paid at 100%; 500 is refused at any
// point without touching state.
func TestPayment_InstallmentSettlement(t *testing.T) {
	svc, store, engine, clock := newPaymentFixture()
	ctx := context.Background()
	req := createPayment(t, svc, clock, true)

	if _, err := svc.RecordPayment(ctx, req.ID, "500", "mm-000"); err == nil {
		t.Fatal("payment below minimum must be rejected")
	}
	if got := store.Stored(req.ID); !got.PaidAmount.IsZero() || got.InstallmentCount() != 0 {
		t.Fatalf("failed payment mutated state: %+v", got)
	}

	got, err := svc.RecordPayment(ctx, req.ID, "1000", "mm-001")
	if err != nil {
		t.Fatalf("first installment failed: %v", err)
	}
	if got.Status != domain.PaymentPartiallyPaid {
		t.Errorf("status = %s, want partially_paid", got.Status)
	}
	if want := decimal.NewFromInt(4000); !got.RemainingAmount().Equal(want) {
		t.Errorf("remaining = %s, want 4000", got.RemainingAmount())
	}
	if pct := engine.PaymentPercentage(got.PaidAmount, got.Amount); pct != 20 {
		t.Errorf("percentage = %d, want 20", pct)
	}

	if _, err := svc.RecordPayment(ctx, req.ID, "500", "mm-002"); err == nil {
		t.Fatal("payment below minimum must be rejected mid-settlement")
	}

	got, err = svc.RecordPayment(ctx, req.ID, "4000", "mm-003")
	if err != nil {
		t.Fatalf("final installment failed: %v", err)
	}
	if got.Status != domain.PaymentPaid {
		t.Errorf("status = %s, want paid", got.Status)
	}
	if !got.RemainingAmount().IsZero() {
		t.Errorf("remaining = %s, want 0", got.RemainingAmount())
	}
	if pct := engine.PaymentPercentage(got.PaidAmount, got.Amount); pct != 100 {
		t.Errorf("percentage = %d, want 100", pct)
	}

	// Ledger sums to paid_amount.
	sum := decimal.Zero
	for _, inst := range got.History {
		sum = sum.Add(inst.Amount)
	}
	if !sum.Equal(got.PaidAmount) {
		t.Errorf("ledger sum %s != paid_amount %s", sum, got.PaidAmount)
	}

	// Terminal: nothing further is accepted.
	if _, err := svc.RecordPayment(ctx, req.ID, "1000", "mm-004"); !errors.Is(err, domain.ErrAlreadyTerminal) {
		t.Errorf("payment after settlement: got %v, want ErrAlreadyTerminal", err)
	}
}

func TestPayment_FullOnlyRequiresExactAmount(t *testing.T) {
	svc, _, _, clock := newPaymentFixture()
	ctx := context.Background()
	req := createPayment(t, svc, clock, false)

	if _, err := svc.RecordPayment(ctx, req.ID, "2500", "mm-005"); err == nil {
		t.Fatal("partial amount on a full-only request must be rejected")
	}

	got, err := svc.RecordPayment(ctx, req.ID, "5000", "mm-006")
	if err != nil {
		t.Fatalf("full payment failed: %v", err)
	}
	if got.Status != domain.PaymentPaid {
		t.Errorf("status = %s, want paid", got.Status)
	}
}

func TestPayment_DuplicateReferenceIsNoOp(t *testing.T) {
	svc, store, _, clock := newPaymentFixture()
	ctx := context.Background()
	req := createPayment(t, svc, clock, true)

	first, err := svc.RecordPayment(ctx, req.ID, "1000", "mm-007")
	if err != nil {
		t.Fatalf("payment failed: %v", err)
	}
	eventsBefore := len(store.Events)

	// A slow-network retry resubmits the same reference.
	second, err := svc.RecordPayment(ctx, req.ID, "1000", "mm-007")
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if !second.PaidAmount.Equal(first.PaidAmount) {
		t.Errorf("paid_amount = %s, double-counted to %s", first.PaidAmount, second.PaidAmount)
	}
	if second.InstallmentCount() != 1 {
		t.Errorf("installments = %d, want 1", second.InstallmentCount())
	}
	if len(store.Events) != eventsBefore {
		t.Error("resubmit emitted events")
	}
}

func TestPayment_RecordPaymentValidation(t *testing.T) {
	svc, _, _, clock := newPaymentFixture()
	ctx := context.Background()
	req := createPayment(t, svc, clock, true)

	var vErr *domain.ValidationError
	if _, err := svc.RecordPayment(ctx, req.ID, "abc", "mm-008"); !errors.As(err, &vErr) {
		t.Errorf("non-numeric amount: got %v, want ValidationError", err)
	}
	if _, err := svc.RecordPayment(ctx, req.ID, "1000", ""); !errors.As(err, &vErr) {
		t.Errorf("missing reference: got %v, want ValidationError", err)
	}
	if _, err := svc.RecordPayment(ctx, req.ID, "6000", "mm-009"); !errors.As(err, &vErr) {
		t.Errorf("overpayment: got %v, want ValidationError", err)
	}
	if _, err := svc.RecordPayment(ctx, "missing", "1000", "mm-010"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown request: got %v, want ErrNotFound", err)
	}
}

// Two guardians paying the two final halves concurrently must not lose an
// installment or overshoot the total.
func TestPayment_ConcurrentInstallments(t *testing.T) {
	svc, store, _, clock := newPaymentFixture()
	req := createPayment(t, svc, clock, true)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, payment := range []struct{ amount, ref string }{
		{"2500", "mm-011"},
		{"2500", "mm-012"},
	} {
		wg.Add(1)
		go func(i int, amount, ref string) {
			defer wg.Done()
			_, errs[i] = svc.RecordPayment(context.Background(), req.ID, amount, ref)
		}(i, payment.amount, payment.ref)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("concurrent payment %d failed: %v", i, err)
		}
	}

	stored := store.Stored(req.ID)
	if stored.InstallmentCount() != 2 {
		t.Errorf("installments = %d, lost one under concurrency", stored.InstallmentCount())
	}
	if !stored.PaidAmount.Equal(decimal.NewFromInt(5000)) {
		t.Errorf("paid_amount = %s, want 5000", stored.PaidAmount)
	}
	if stored.Status != domain.PaymentPaid {
		t.Errorf("status = %s, want paid", stored.Status)
	}
}

func TestPayment_SuggestAmounts(t *testing.T) {
	svc, _, _, _ := newPaymentFixture()

	base := func() *domain.PaymentRequest {
		return &domain.PaymentRequest{
			Amount:        decimal.NewFromInt(5000),
			PaidAmount:    decimal.Zero,
			AllowPartial:  true,
			MinimumAmount: decimal.NewFromInt(1000),
			Status:        domain.PaymentPending,
		}
	}

	t.Run("fresh_request", func(t *testing.T) {
		got := svc.SuggestAmounts(base())
		want := []string{"5000", "2500", "1000"}
		assertSuggestions(t, got, want)
	})

	t.Run("half_clamped_to_minimum", func(t *testing.T) {
		// Remaining 1500: naive half (750) sits below the minimum and
		// must be lifted to it, not offered as an invalid shortcut.
		req := base()
		req.PaidAmount = decimal.NewFromInt(3500)
		req.Status = domain.PaymentPartiallyPaid
		assertSuggestions(t, svc.SuggestAmounts(req), []string{"1500", "1000"})
	})

	t.Run("last_installment_below_minimum", func(t *testing.T) {
		// Remaining 800 < minimum: only the exact remainder survives.
		req := base()
		req.PaidAmount = decimal.NewFromInt(4200)
		req.Status = domain.PaymentPartiallyPaid
		assertSuggestions(t, svc.SuggestAmounts(req), []string{"800"})
	})

	t.Run("full_only", func(t *testing.T) {
		req := base()
		req.AllowPartial = false
		req.MinimumAmount = decimal.Zero
		assertSuggestions(t, svc.SuggestAmounts(req), []string{"5000"})
	})

	t.Run("settled_request", func(t *testing.T) {
		req := base()
		req.PaidAmount = req.Amount
		req.Status = domain.PaymentPaid
		if got := svc.SuggestAmounts(req); got != nil {
			t.Errorf("settled request suggested %v", got)
		}
	})
}

func assertSuggestions(t *testing.T, got []decimal.Decimal, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("suggestions = %v, want %v", got, want)
	}
	for i := range want {
		if !got[i].Equal(decimal.RequireFromString(want[i])) {
			t.Errorf("suggestion[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
