package claims

import (
	"time"

	"github.com/google/uuid"
)

// Claim statuses. Transitions move forward (draft → submitted → paid or
// partially-paid); denied and exception are explicit recovery states.
const (
	StatusDraft         = "draft"
	StatusSubmitted     = "submitted"
	StatusPaid          = "paid"
	StatusPartiallyPaid = "partially-paid"
	StatusDenied        = "denied"
	StatusException     = "exception"
)

// Claim maps to the claims table: one billed service awaiting reimbursement.
// PaidAmount accumulates postings and never exceeds TotalCharged.
type Claim struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	ClaimNumber   string     `db:"claim_number" json:"claim_number"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	ProviderID    uuid.UUID  `db:"provider_id" json:"provider_id"`
	ServiceDate   *time.Time `db:"service_date" json:"service_date,omitempty"`
	DiagnosisCode *string    `db:"diagnosis_code" json:"diagnosis_code,omitempty"`
	ProcedureCode *string    `db:"procedure_code" json:"procedure_code,omitempty"`
	TotalCharged  float64    `db:"total_charged" json:"total_charged"`
	PaidAmount    float64    `db:"paid_amount" json:"paid_amount"`
	Status        string     `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// RemainingBalance is the unpaid portion of the claim.
func (c *Claim) RemainingBalance() float64 {
	return c.TotalCharged - c.PaidAmount
}

// PaymentPosting maps to the payment_postings table: the durable record of
// one remittance line item applied to a claim. Exactly one exists per
// (batch, claim) pair; rows are immutable once written.
type PaymentPosting struct {
	ID               uuid.UUID `db:"id" json:"id"`
	ClaimID          uuid.UUID `db:"claim_id" json:"claim_id"`
	BatchID          uuid.UUID `db:"batch_id" json:"batch_id"`
	ClaimNumber      string    `db:"claim_number" json:"claim_number"`
	PaidAmount       float64   `db:"paid_amount" json:"paid_amount"`
	AdjustmentAmount float64   `db:"adjustment_amount" json:"adjustment_amount"`
	AdjustmentReason *string   `db:"adjustment_reason" json:"adjustment_reason,omitempty"`
	AutoPosted       bool      `db:"auto_posted" json:"auto_posted"`
	PostedBy         string    `db:"posted_by" json:"posted_by"`
	PostedAt         time.Time `db:"posted_at" json:"posted_at"`
}
