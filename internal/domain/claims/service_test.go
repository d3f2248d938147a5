package claims

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repositories --

type mockClaimRepo struct {
	items map[uuid.UUID]*Claim
}

func newMockClaimRepo() *mockClaimRepo {
	return &mockClaimRepo{items: make(map[uuid.UUID]*Claim)}
}

func (m *mockClaimRepo) Create(_ context.Context, c *Claim) error {
	for _, existing := range m.items {
		if existing.ClaimNumber == c.ClaimNumber {
			return ErrDuplicateClaimNumber
		}
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()
	m.items[c.ID] = c
	return nil
}

func (m *mockClaimRepo) GetByID(_ context.Context, id uuid.UUID) (*Claim, error) {
	c, ok := m.items[id]
	if !ok {
		return nil, ErrClaimNotFound
	}
	return c, nil
}

func (m *mockClaimRepo) GetByClaimNumber(_ context.Context, claimNumber string) (*Claim, error) {
	for _, c := range m.items {
		if c.ClaimNumber == claimNumber {
			return c, nil
		}
	}
	return nil, ErrClaimNotFound
}

func (m *mockClaimRepo) GetByClaimNumberForUpdate(ctx context.Context, claimNumber string) (*Claim, error) {
	return m.GetByClaimNumber(ctx, claimNumber)
}

func (m *mockClaimRepo) UpdatePayment(_ context.Context, id uuid.UUID, paidAmount float64, status string) error {
	c, ok := m.items[id]
	if !ok {
		return ErrClaimNotFound
	}
	c.PaidAmount = paidAmount
	c.Status = status
	c.UpdatedAt = time.Now()
	return nil
}

func (m *mockClaimRepo) ListOutstandingByProvider(_ context.Context, providerID uuid.UUID) ([]*Claim, error) {
	var result []*Claim
	for _, c := range m.items {
		if c.ProviderID != providerID {
			continue
		}
		switch c.Status {
		case StatusSubmitted, StatusPartiallyPaid, StatusException:
			result = append(result, c)
		}
	}
	return result, nil
}

type mockPostingRepo struct {
	items     map[uuid.UUID]*PaymentPosting
	createErr error
}

func newMockPostingRepo() *mockPostingRepo {
	return &mockPostingRepo{items: make(map[uuid.UUID]*PaymentPosting)}
}

func (m *mockPostingRepo) Create(_ context.Context, p *PaymentPosting) error {
	if m.createErr != nil {
		return m.createErr
	}
	p.ID = uuid.New()
	m.items[p.ID] = p
	return nil
}

func (m *mockPostingRepo) GetByBatchAndClaim(_ context.Context, batchID, claimID uuid.UUID) (*PaymentPosting, error) {
	for _, p := range m.items {
		if p.BatchID == batchID && p.ClaimID == claimID {
			return p, nil
		}
	}
	return nil, nil
}

func (m *mockPostingRepo) ListByClaim(_ context.Context, claimID uuid.UUID, limit, offset int) ([]*PaymentPosting, int, error) {
	var result []*PaymentPosting
	for _, p := range m.items {
		if p.ClaimID == claimID {
			result = append(result, p)
		}
	}
	return result, len(result), nil
}

// passthroughTx runs the function without a real transaction. The mocks
// apply writes immediately, so rollback semantics are tested separately
// against the error path.
type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService() (*Service, *mockClaimRepo, *mockPostingRepo) {
	claims := newMockClaimRepo()
	postings := newMockPostingRepo()
	return NewService(claims, postings, passthroughTx{}), claims, postings
}

func seedClaim(t *testing.T, repo *mockClaimRepo, number string, charged, paid float64, status string) *Claim {
	t.Helper()
	serviceDate := time.Now().AddDate(0, 0, -45)
	c := &Claim{
		ClaimNumber:  number,
		PatientID:    uuid.New(),
		ProviderID:   uuid.New(),
		ServiceDate:  &serviceDate,
		TotalCharged: charged,
		PaidAmount:   paid,
		Status:       status,
	}
	if err := repo.Create(context.Background(), c); err != nil {
		t.Fatalf("seed claim: %v", err)
	}
	return c
}

// -- CreateClaim --

func TestCreateClaim(t *testing.T) {
	svc, _, _ := newTestService()

	claim, err := svc.CreateClaim(context.Background(), CreateClaimRequest{
		PatientID:     uuid.New(),
		ProviderID:    uuid.New(),
		ProviderCode:  "CLIN42",
		ServiceDate:   "2026-08-01",
		DiagnosisCode: "E11.9",
		ProcedureCode: "99213",
		Amount:        150.759,
	})
	if err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}
	if claim.Status != StatusSubmitted {
		t.Errorf("status = %q, want %q", claim.Status, StatusSubmitted)
	}
	if claim.TotalCharged != 150.76 {
		t.Errorf("total charged = %v, want 150.76", claim.TotalCharged)
	}
	if claim.PaidAmount != 0 {
		t.Errorf("paid amount = %v, want 0", claim.PaidAmount)
	}
	if claim.ClaimNumber == "" {
		t.Error("expected generated claim number")
	}
}

func TestCreateClaimInvalid(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.CreateClaim(context.Background(), CreateClaimRequest{
		ProviderCode:  "CLIN42",
		ServiceDate:   "2026-08-01",
		DiagnosisCode: "not-a-code",
		ProcedureCode: "99",
		Amount:        -5,
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Errors) == 0 {
		t.Error("expected validation messages")
	}
}

// -- ApplyPosting --

func TestApplyPostingFullPayment(t *testing.T) {
	svc, repo, _ := newTestService()
	claim := seedClaim(t, repo, "CLIN42-2026-1-1", 200, 0, StatusSubmitted)

	posting, err := svc.ApplyPosting(context.Background(), PostingRequest{
		ClaimNumber: claim.ClaimNumber,
		BatchID:     uuid.New(),
		PaidAmount:  200,
		OperatorID:  "op-1",
	})
	if err != nil {
		t.Fatalf("ApplyPosting: %v", err)
	}
	if posting.PaidAmount != 200 {
		t.Errorf("posting paid = %v, want 200", posting.PaidAmount)
	}
	if claim.Status != StatusPaid {
		t.Errorf("claim status = %q, want %q", claim.Status, StatusPaid)
	}
	if claim.PaidAmount != 200 {
		t.Errorf("claim paid = %v, want 200", claim.PaidAmount)
	}
}

func TestApplyPostingPartialPayment(t *testing.T) {
	svc, repo, _ := newTestService()
	claim := seedClaim(t, repo, "CLIN42-2026-1-2", 300, 0, StatusSubmitted)

	if _, err := svc.ApplyPosting(context.Background(), PostingRequest{
		ClaimNumber: claim.ClaimNumber,
		BatchID:     uuid.New(),
		PaidAmount:  120.50,
	}); err != nil {
		t.Fatalf("ApplyPosting: %v", err)
	}
	if claim.Status != StatusPartiallyPaid {
		t.Errorf("claim status = %q, want %q", claim.Status, StatusPartiallyPaid)
	}
	if claim.PaidAmount != 120.50 {
		t.Errorf("claim paid = %v, want 120.50", claim.PaidAmount)
	}

	// A second batch settles the remainder.
	if _, err := svc.ApplyPosting(context.Background(), PostingRequest{
		ClaimNumber: claim.ClaimNumber,
		BatchID:     uuid.New(),
		PaidAmount:  179.50,
	}); err != nil {
		t.Fatalf("second ApplyPosting: %v", err)
	}
	if claim.Status != StatusPaid {
		t.Errorf("claim status = %q, want %q", claim.Status, StatusPaid)
	}
	if claim.PaidAmount != 300 {
		t.Errorf("claim paid = %v, want 300", claim.PaidAmount)
	}
}

func TestApplyPostingExceedsCharges(t *testing.T) {
	svc, repo, postings := newTestService()
	claim := seedClaim(t, repo, "CLIN42-2026-1-3", 100, 40, StatusPartiallyPaid)

	_, err := svc.ApplyPosting(context.Background(), PostingRequest{
		ClaimNumber: claim.ClaimNumber,
		BatchID:     uuid.New(),
		PaidAmount:  60.01,
	})
	if !errors.Is(err, ErrAmountExceedsCharges) {
		t.Fatalf("expected ErrAmountExceedsCharges, got %v", err)
	}
	if claim.PaidAmount != 40 {
		t.Errorf("claim paid changed to %v after rejected posting", claim.PaidAmount)
	}
	if len(postings.items) != 0 {
		t.Error("posting recorded despite rejection")
	}
}

func TestApplyPostingNegativeAmount(t *testing.T) {
	svc, repo, _ := newTestService()
	claim := seedClaim(t, repo, "CLIN42-2026-1-4", 100, 0, StatusSubmitted)

	_, err := svc.ApplyPosting(context.Background(), PostingRequest{
		ClaimNumber: claim.ClaimNumber,
		BatchID:     uuid.New(),
		PaidAmount:  -1,
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestApplyPostingUnknownClaim(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.ApplyPosting(context.Background(), PostingRequest{
		ClaimNumber: "NOPE-2026-1-1",
		BatchID:     uuid.New(),
		PaidAmount:  10,
	})
	if !errors.Is(err, ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
}

func TestApplyPostingIdempotent(t *testing.T) {
	svc, repo, postings := newTestService()
	claim := seedClaim(t, repo, "CLIN42-2026-1-5", 500, 0, StatusSubmitted)
	batchID := uuid.New()

	first, err := svc.ApplyPosting(context.Background(), PostingRequest{
		ClaimNumber: claim.ClaimNumber,
		BatchID:     batchID,
		PaidAmount:  500,
	})
	if err != nil {
		t.Fatalf("first ApplyPosting: %v", err)
	}

	// Replaying the same batch line must not double-apply.
	second, err := svc.ApplyPosting(context.Background(), PostingRequest{
		ClaimNumber: claim.ClaimNumber,
		BatchID:     batchID,
		PaidAmount:  500,
	})
	if err != nil {
		t.Fatalf("replayed ApplyPosting: %v", err)
	}
	if second.ID != first.ID {
		t.Error("replay created a second posting record")
	}
	if claim.PaidAmount != 500 {
		t.Errorf("claim paid = %v after replay, want 500", claim.PaidAmount)
	}
	if len(postings.items) != 1 {
		t.Errorf("posting count = %d, want 1", len(postings.items))
	}
}

func TestApplyPostingExactCentAccumulation(t *testing.T) {
	svc, repo, _ := newTestService()
	claim := seedClaim(t, repo, "CLIN42-2026-1-6", 0.30, 0, StatusSubmitted)

	for i := 0; i < 3; i++ {
		if _, err := svc.ApplyPosting(context.Background(), PostingRequest{
			ClaimNumber: claim.ClaimNumber,
			BatchID:     uuid.New(),
			PaidAmount:  0.10,
		}); err != nil {
			t.Fatalf("posting %d: %v", i+1, err)
		}
	}
	if claim.Status != StatusPaid {
		t.Errorf("claim status = %q after three dime postings, want %q", claim.Status, StatusPaid)
	}
	if claim.PaidAmount != 0.30 {
		t.Errorf("claim paid = %v, want 0.30", claim.PaidAmount)
	}
}

// -- Aging --

func TestAging(t *testing.T) {
	svc, repo, _ := newTestService()
	providerID := uuid.New()

	mk := func(number string, daysAgo int, charged, paid float64, status string) {
		serviceDate := time.Now().AddDate(0, 0, -daysAgo)
		c := &Claim{
			ClaimNumber:  number,
			PatientID:    uuid.New(),
			ProviderID:   providerID,
			ServiceDate:  &serviceDate,
			TotalCharged: charged,
			PaidAmount:   paid,
			Status:       status,
		}
		if err := repo.Create(context.Background(), c); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	mk("A-2026-1-1", 10, 100, 0, StatusSubmitted)
	mk("A-2026-1-2", 45, 200, 50, StatusPartiallyPaid)
	mk("A-2026-1-3", 120, 300, 0, StatusException)
	mk("A-2026-1-4", 200, 400, 400, StatusPaid) // settled, excluded

	report, err := svc.Aging(context.Background(), providerID)
	if err != nil {
		t.Fatalf("Aging: %v", err)
	}
	if len(report.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(report.Entries))
	}
	if report.TotalBalance != 550 {
		t.Errorf("total balance = %v, want 550", report.TotalBalance)
	}
	if report.BucketTotals["0-30"] != 100 {
		t.Errorf("0-30 total = %v, want 100", report.BucketTotals["0-30"])
	}
	if report.BucketTotals["31-60"] != 150 {
		t.Errorf("31-60 total = %v, want 150", report.BucketTotals["31-60"])
	}
	if report.BucketTotals["90+"] != 300 {
		t.Errorf("90+ total = %v, want 300", report.BucketTotals["90+"])
	}
	for _, e := range report.Entries {
		if e.ClaimNumber == "A-2026-1-3" && e.Collectability != 50 {
			t.Errorf("120-day collectability = %d, want 50", e.Collectability)
		}
	}
}
