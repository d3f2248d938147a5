package claims

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the claims table access contract. Implementations resolve a
// transaction from the context so ledger writes stay atomic.
type Repository interface {
	Create(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, id uuid.UUID) (*Claim, error)
	GetByClaimNumber(ctx context.Context, claimNumber string) (*Claim, error)
	// GetByClaimNumberForUpdate locks the claim row for the duration of the
	// surrounding transaction, serializing postings against the same claim.
	GetByClaimNumberForUpdate(ctx context.Context, claimNumber string) (*Claim, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, paidAmount float64, status string) error
	ListOutstandingByProvider(ctx context.Context, providerID uuid.UUID) ([]*Claim, error)
}

// PostingRepository is the payment_postings table access contract.
type PostingRepository interface {
	Create(ctx context.Context, p *PaymentPosting) error
	GetByBatchAndClaim(ctx context.Context, batchID, claimID uuid.UUID) (*PaymentPosting, error)
	ListByClaim(ctx context.Context, claimID uuid.UUID, limit, offset int) ([]*PaymentPosting, int, error)
}
