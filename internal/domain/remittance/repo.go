package remittance

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// QueueFilter narrows the ERA work queue.
type QueueFilter struct {
	Status        string
	PayerContains string
}

// BatchRepository is the remittance_batches table access contract.
type BatchRepository interface {
	Create(ctx context.Context, b *Batch) error
	GetByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, f QueueFilter, limit, offset int) ([]*Batch, int, error)
	// RecordOutcome stores the result of a posting attempt: final status,
	// exception list, and the operator who processed the batch.
	RecordOutcome(ctx context.Context, id uuid.UUID, status string, autoPosted bool, exceptions []string, processedBy string) error
	// MarkPostedIfPending transitions pending → posted and reports whether
	// this call won the transition. A false return with nil error means the
	// batch was not pending (already processed or concurrently taken).
	MarkPostedIfPending(ctx context.Context, id uuid.UUID, processedBy string) (bool, error)
}

// ItemRepository is the remittance_items table access contract.
type ItemRepository interface {
	CreateAll(ctx context.Context, items []*LineItem) error
	ListByBatch(ctx context.Context, batchID uuid.UUID) ([]*LineItem, error)
	MarkPosted(ctx context.Context, id uuid.UUID) error
}

// StatsRepository aggregates posting history for dashboards.
type StatsRepository interface {
	// PostingTotals sums payment postings since the given time: total amount
	// posted, posting count, and how many were auto-posted.
	PostingTotals(ctx context.Context, since time.Time) (total float64, count, autoCount int, err error)
	// ExceptionBatchCount counts batches currently in exception status
	// created since the given time.
	ExceptionBatchCount(ctx context.Context, since time.Time) (int, error)
	// AveragePostingDays is the mean latency in days between batch creation
	// and processing for batches processed since the given time. Zero when
	// nothing was processed.
	AveragePostingDays(ctx context.Context, since time.Time) (float64, error)
}
