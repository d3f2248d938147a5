package claims

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rcm/rcm/internal/platform/db"
	"github.com/rcm/rcm/internal/rcm"
)

// Service is the claim ledger: the single write path for a claim's financial
// state. All paid-amount mutations flow through ApplyPosting.
type Service struct {
	claims   Repository
	postings PostingRepository
	tx       db.TxRunner
}

func NewService(claims Repository, postings PostingRepository, tx db.TxRunner) *Service {
	return &Service{claims: claims, postings: postings, tx: tx}
}

// ValidationError carries field-level problems from claim submission. It is
// returned instead of persisting anything.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid claim: " + strings.Join(e.Errors, "; ")
}

// CreateClaimRequest is a claim submission from the surrounding application.
type CreateClaimRequest struct {
	PatientID     uuid.UUID `json:"patient_id"`
	ProviderID    uuid.UUID `json:"provider_id"`
	ProviderCode  string    `json:"provider_code"`
	ServiceDate   string    `json:"service_date"`
	DiagnosisCode string    `json:"diagnosis_code"`
	ProcedureCode string    `json:"procedure_code"`
	Amount        float64   `json:"amount"`
}

// CreateClaim validates a submission, assigns a generated claim number, and
// stores the claim in submitted status with nothing paid.
func (s *Service) CreateClaim(ctx context.Context, req CreateClaimRequest) (*Claim, error) {
	patientID, providerID := "", ""
	if req.PatientID != uuid.Nil {
		patientID = req.PatientID.String()
	}
	if req.ProviderID != uuid.Nil {
		providerID = req.ProviderID.String()
	}
	result := rcm.ValidateClaim(rcm.ClaimInput{
		PatientID:     patientID,
		ProviderID:    providerID,
		ServiceDate:   req.ServiceDate,
		DiagnosisCode: req.DiagnosisCode,
		ProcedureCode: req.ProcedureCode,
		Amount:        req.Amount,
	})
	if !result.Valid {
		return nil, &ValidationError{Errors: result.Errors}
	}

	number, err := rcm.GenerateClaimNumber(req.ProviderCode)
	if err != nil {
		return nil, &ValidationError{Errors: []string{err.Error()}}
	}

	serviceDate, _ := rcm.ParseDate(req.ServiceDate)
	c := &Claim{
		ClaimNumber:   number,
		PatientID:     req.PatientID,
		ProviderID:    req.ProviderID,
		ServiceDate:   &serviceDate,
		DiagnosisCode: &req.DiagnosisCode,
		ProcedureCode: &req.ProcedureCode,
		TotalCharged:  rcm.RoundCents(req.Amount),
		PaidAmount:    0,
		Status:        StatusSubmitted,
	}
	if err := s.claims.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// LookupClaim fetches a claim by its claim number.
func (s *Service) LookupClaim(ctx context.Context, claimNumber string) (*Claim, error) {
	return s.claims.GetByClaimNumber(ctx, claimNumber)
}

// ListPostings returns the posting history for a claim.
func (s *Service) ListPostings(ctx context.Context, claimID uuid.UUID, limit, offset int) ([]*PaymentPosting, int, error) {
	return s.postings.ListByClaim(ctx, claimID, limit, offset)
}

// PostingRequest is one remittance line item to apply against a claim.
type PostingRequest struct {
	ClaimNumber      string
	BatchID          uuid.UUID
	PaidAmount       float64
	AdjustmentAmount float64
	AdjustmentReason string
	OperatorID       string
	AutoPosted       bool
}

// centsEpsilon absorbs float representation noise when comparing amounts
// that have already been rounded to cents.
const centsEpsilon = 0.005

// ApplyPosting applies one payment/adjustment to a claim as a single
// transaction: the claim row is locked, the cumulative paid amount and status
// are updated, and the posting record is written — or none of it is.
//
// The paid amount must not exceed the claim's remaining balance
// (ErrAmountExceedsCharges; never silently clamped). Re-posting a
// (batch, claim) pair that already has a posting record returns the prior
// record without applying anything twice.
func (s *Service) ApplyPosting(ctx context.Context, req PostingRequest) (*PaymentPosting, error) {
	if req.PaidAmount < 0 {
		return nil, ErrInvalidAmount
	}

	var posting *PaymentPosting
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		claim, err := s.claims.GetByClaimNumberForUpdate(ctx, req.ClaimNumber)
		if err != nil {
			return err
		}

		existing, err := s.postings.GetByBatchAndClaim(ctx, req.BatchID, claim.ID)
		if err != nil {
			return err
		}
		if existing != nil {
			posting = existing
			return nil
		}

		if req.PaidAmount > claim.RemainingBalance()+centsEpsilon {
			return ErrAmountExceedsCharges
		}

		newPaid := rcm.RoundCents(claim.PaidAmount + req.PaidAmount)
		status := StatusPartiallyPaid
		if newPaid >= claim.TotalCharged-centsEpsilon {
			status = StatusPaid
		}
		if err := s.claims.UpdatePayment(ctx, claim.ID, newPaid, status); err != nil {
			return err
		}

		var reason *string
		if req.AdjustmentReason != "" {
			reason = &req.AdjustmentReason
		}
		posting = &PaymentPosting{
			ClaimID:          claim.ID,
			BatchID:          req.BatchID,
			ClaimNumber:      claim.ClaimNumber,
			PaidAmount:       rcm.RoundCents(req.PaidAmount),
			AdjustmentAmount: rcm.RoundCents(req.AdjustmentAmount),
			AdjustmentReason: reason,
			AutoPosted:       req.AutoPosted,
			PostedBy:         req.OperatorID,
			PostedAt:         time.Now(),
		}
		return s.postings.Create(ctx, posting)
	})
	if err != nil {
		return nil, err
	}
	return posting, nil
}

// AgingEntry is one outstanding claim classified for collections.
type AgingEntry struct {
	ClaimNumber    string  `json:"claim_number"`
	DaysInAR       int     `json:"days_in_ar"`
	Bucket         string  `json:"bucket"`
	Collectability int     `json:"collectability_score"`
	Balance        float64 `json:"balance"`
}

// AgingReport summarizes a report over a provider's outstanding claims.
type AgingReport struct {
	Entries      []AgingEntry       `json:"entries"`
	BucketTotals map[string]float64 `json:"bucket_totals"`
	TotalBalance float64            `json:"total_balance"`
}

// Aging classifies every outstanding claim for a provider into AR buckets
// with collectability scores, for the collections dashboard.
func (s *Service) Aging(ctx context.Context, providerID uuid.UUID) (*AgingReport, error) {
	outstanding, err := s.claims.ListOutstandingByProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}

	report := &AgingReport{
		Entries: []AgingEntry{},
		BucketTotals: map[string]float64{
			rcm.Bucket0To30:  0,
			rcm.Bucket31To60: 0,
			rcm.Bucket61To90: 0,
			rcm.Bucket90Plus: 0,
		},
	}
	now := time.Now()
	for _, c := range outstanding {
		var ref time.Time
		if c.ServiceDate != nil {
			ref = *c.ServiceDate
		}
		days := rcm.DaysInAR(ref, now)
		bucket := rcm.AgingBucket(days)
		balance := rcm.RoundCents(c.RemainingBalance())
		report.Entries = append(report.Entries, AgingEntry{
			ClaimNumber:    c.ClaimNumber,
			DaysInAR:       days,
			Bucket:         bucket,
			Collectability: rcm.CollectabilityScore(days),
			Balance:        balance,
		})
		report.BucketTotals[bucket] = rcm.RoundCents(report.BucketTotals[bucket] + balance)
		report.TotalBalance = rcm.RoundCents(report.TotalBalance + balance)
	}
	return report, nil
}
