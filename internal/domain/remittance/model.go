package remittance

import (
	"time"

	"github.com/google/uuid"
)

// Batch statuses. A batch moves pending → posted or pending → exception on a
// posting attempt; failed is the terminal state for exception batches an
// operator abandons via MarkFailed.
const (
	StatusPending   = "pending"
	StatusPosted    = "posted"
	StatusException = "exception"
	StatusFailed    = "failed"
)

// Batch maps to the remittance_batches table: one payer remittance
// transmission (ERA) and the outcome of posting it.
type Batch struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	ERANumber   string     `db:"era_number" json:"era_number"`
	ProviderID  uuid.UUID  `db:"provider_id" json:"provider_id"`
	PayerName   string     `db:"payer_name" json:"payer_name"`
	CheckNumber string     `db:"check_number" json:"check_number"`
	CheckDate   *time.Time `db:"check_date" json:"check_date,omitempty"`
	TotalAmount float64    `db:"total_amount" json:"total_amount"`
	ClaimCount  int        `db:"claim_count" json:"claim_count"`
	FileName    string     `db:"file_name" json:"file_name"`
	Status      string     `db:"status" json:"status"`
	AutoPosted  bool       `db:"auto_posted" json:"auto_posted"`
	Exceptions  []string   `db:"exceptions" json:"exceptions"`
	ProcessedAt *time.Time `db:"processed_at" json:"processed_at,omitempty"`
	ProcessedBy *string    `db:"processed_by" json:"processed_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// LineItem maps to the remittance_items table: one claim-level entry inside a
// batch. Rows are read-only after ingestion except for the posted marker.
type LineItem struct {
	ID               uuid.UUID  `db:"id" json:"id"`
	BatchID          uuid.UUID  `db:"batch_id" json:"batch_id"`
	ClaimNumber      string     `db:"claim_number" json:"claim_number"`
	PatientName      string     `db:"patient_name" json:"patient_name"`
	ServiceDate      *time.Time `db:"service_date" json:"service_date,omitempty"`
	ChargedAmount    float64    `db:"charged_amount" json:"charged_amount"`
	PaidAmount       float64    `db:"paid_amount" json:"paid_amount"`
	AdjustmentAmount float64    `db:"adjustment_amount" json:"adjustment_amount"`
	AdjustmentReason *string    `db:"adjustment_reason" json:"adjustment_reason,omitempty"`
	Posted           bool       `db:"posted" json:"posted"`
	PostedAt         *time.Time `db:"posted_at" json:"posted_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// PostingSummary is the outcome of one auto-posting attempt over a batch.
type PostingSummary struct {
	ERAID           uuid.UUID `json:"era_id"`
	AutoPostedCount int       `json:"auto_posted_count"`
	ExceptionsCount int       `json:"exceptions_count"`
	Exceptions      []string  `json:"exceptions"`
	Status          string    `json:"status"`
}

// BulkResult is the per-batch outcome of a bulk posting request.
type BulkResult struct {
	ID      uuid.UUID `json:"id"`
	Success bool      `json:"success"`
	Error   string    `json:"error,omitempty"`
}

// PostingStats are trailing 30-day dashboard metrics.
type PostingStats struct {
	TotalPosted            float64 `json:"total_posted"`
	PostingCount           int     `json:"posting_count"`
	AutoPostedPercentage   float64 `json:"auto_posted_percentage"`
	ExceptionsCount        int     `json:"exceptions_count"`
	AveragePostingTimeDays float64 `json:"average_posting_time_days"`
}

// UploadResult identifies a freshly ingested remittance file.
type UploadResult struct {
	ERAID     uuid.UUID `json:"era_id"`
	ERANumber string    `json:"era_number"`
	FileName  string    `json:"file_name"`
}
