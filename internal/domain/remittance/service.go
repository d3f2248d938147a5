package remittance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rcm/rcm/internal/domain/claims"
	"github.com/rcm/rcm/internal/platform/db"
	"github.com/rcm/rcm/internal/rcm"
)

// statsWindow is the trailing window for dashboard metrics.
const statsWindow = 30 * 24 * time.Hour

// Service owns the remittance workflow: file ingestion, the auto-posting
// engine, the trusted bulk path, and posting statistics. All claim mutations
// go through the claim ledger.
type Service struct {
	batches BatchRepository
	items   ItemRepository
	stats   StatsRepository
	ledger  *claims.Service
	tx      db.TxRunner
}

func NewService(batches BatchRepository, items ItemRepository, stats StatsRepository, ledger *claims.Service, tx db.TxRunner) *Service {
	return &Service{batches: batches, items: items, stats: stats, ledger: ledger, tx: tx}
}

// Queue lists a provider's remittance batches, optionally filtered by status
// and a payer-name substring.
func (s *Service) Queue(ctx context.Context, providerID uuid.UUID, f QueueFilter, limit, offset int) ([]*Batch, int, error) {
	return s.batches.ListByProvider(ctx, providerID, f, limit, offset)
}

// GetBatch fetches one batch with its line items.
func (s *Service) GetBatch(ctx context.Context, id uuid.UUID) (*Batch, []*LineItem, error) {
	b, err := s.batches.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.items.ListByBatch(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return b, items, nil
}

// ProcessBatch runs the auto-posting engine over one batch. Line items are
// applied sequentially, each in its own transaction, so one bad item never
// rolls back or blocks the rest. Domain mismatches become exception strings
// in the returned summary; only the batch lookup itself fails hard.
//
// Re-running a batch is safe: items already marked posted are skipped, and
// the ledger refuses to apply the same (batch, claim) pair twice.
func (s *Service) ProcessBatch(ctx context.Context, batchID uuid.UUID, operatorID string) (*PostingSummary, error) {
	batch, err := s.batches.GetByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	if batch.Status == StatusPosted || batch.Status == StatusFailed {
		return nil, ErrBatchNotPending
	}
	items, err := s.items.ListByBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}

	autoPosted := 0
	exceptions := []string{}
	for _, li := range items {
		if li.Posted {
			autoPosted++
			continue
		}

		item := li
		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			_, err := s.ledger.ApplyPosting(ctx, claims.PostingRequest{
				ClaimNumber:      item.ClaimNumber,
				BatchID:          batch.ID,
				PaidAmount:       item.PaidAmount,
				AdjustmentAmount: item.AdjustmentAmount,
				AdjustmentReason: derefString(item.AdjustmentReason),
				OperatorID:       operatorID,
				AutoPosted:       true,
			})
			if err != nil {
				return err
			}
			return s.items.MarkPosted(ctx, item.ID)
		})
		switch {
		case err == nil:
			autoPosted++
		case errors.Is(err, claims.ErrClaimNotFound):
			exceptions = append(exceptions,
				fmt.Sprintf("Claim %s not found", item.ClaimNumber))
		case errors.Is(err, claims.ErrAmountExceedsCharges):
			exceptions = append(exceptions,
				fmt.Sprintf("Payment amount exceeds charges for claim %s", item.ClaimNumber))
		default:
			exceptions = append(exceptions,
				fmt.Sprintf("Failed to post claim %s: %v", item.ClaimNumber, err))
		}
	}

	status := StatusPosted
	if len(exceptions) > 0 {
		status = StatusException
	}
	if err := s.batches.RecordOutcome(ctx, batch.ID, status, true, exceptions, operatorID); err != nil {
		return nil, err
	}

	return &PostingSummary{
		ERAID:           batch.ID,
		AutoPostedCount: autoPosted,
		ExceptionsCount: len(exceptions),
		Exceptions:      exceptions,
		Status:          status,
	}, nil
}

// BulkPost transitions pending batches straight to posted without claim-level
// validation. This is the trusted path for batches validated out-of-band. The
// call never fails outright; every id gets a per-id result, and batches that
// were not pending (already processed or taken by a concurrent request)
// report success=false.
func (s *Service) BulkPost(ctx context.Context, ids []uuid.UUID, operatorID string) []BulkResult {
	results := make([]BulkResult, 0, len(ids))
	for _, id := range ids {
		ok, err := s.batches.MarkPostedIfPending(ctx, id, operatorID)
		switch {
		case err != nil:
			results = append(results, BulkResult{ID: id, Success: false, Error: err.Error()})
		case !ok:
			results = append(results, BulkResult{ID: id, Success: false, Error: "batch is not pending"})
		default:
			results = append(results, BulkResult{ID: id, Success: true})
		}
	}
	return results
}

// Stats computes trailing 30-day posting metrics. Zero-activity windows
// report zeros, never a division error.
func (s *Service) Stats(ctx context.Context) (*PostingStats, error) {
	since := time.Now().Add(-statsWindow)

	total, count, autoCount, err := s.stats.PostingTotals(ctx, since)
	if err != nil {
		return nil, err
	}
	exceptions, err := s.stats.ExceptionBatchCount(ctx, since)
	if err != nil {
		return nil, err
	}
	avgDays, err := s.stats.AveragePostingDays(ctx, since)
	if err != nil {
		return nil, err
	}

	autoPct := 0.0
	if count > 0 {
		autoPct = rcm.RoundCents(float64(autoCount) / float64(count) * 100)
	}
	return &PostingStats{
		TotalPosted:            rcm.RoundCents(total),
		PostingCount:           count,
		AutoPostedPercentage:   autoPct,
		ExceptionsCount:        exceptions,
		AveragePostingTimeDays: avgDays,
	}, nil
}

// IngestFile parses an uploaded remittance payload into a batch with line
// items. Malformed files still become a batch, in exception status carrying
// the parse errors, so operators can review and correct them; the upload is
// never rejected outright.
func (s *Service) IngestFile(ctx context.Context, providerID uuid.UUID, raw []byte, fileName string) (*UploadResult, error) {
	parsed := rcm.ParseERA(raw)

	batch := &Batch{
		ERANumber:  fmt.Sprintf("ERA-%d-%d", time.Now().Year(), time.Now().UnixMilli()),
		ProviderID: providerID,
		FileName:   fileName,
	}
	if !parsed.Valid {
		batch.Status = StatusException
		batch.Exceptions = parsed.Errors
		if err := s.batches.Create(ctx, batch); err != nil {
			return nil, err
		}
		return &UploadResult{ERAID: batch.ID, ERANumber: batch.ERANumber, FileName: fileName}, nil
	}

	batch.PayerName = parsed.PayerName
	batch.CheckNumber = parsed.CheckNumber
	batch.CheckDate = parsed.CheckDate
	batch.TotalAmount = parsed.TotalAmount
	batch.ClaimCount = len(parsed.Claims)
	batch.Status = StatusPending

	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.batches.Create(ctx, batch); err != nil {
			return err
		}
		items := make([]*LineItem, 0, len(parsed.Claims))
		for i := range parsed.Claims {
			c := &parsed.Claims[i]
			var reason *string
			if c.AdjustmentReason != "" {
				reason = &c.AdjustmentReason
			}
			items = append(items, &LineItem{
				BatchID:          batch.ID,
				ClaimNumber:      c.ClaimNumber,
				PatientName:      c.PatientName,
				ServiceDate:      c.ServiceDate,
				ChargedAmount:    c.ChargedAmount,
				PaidAmount:       c.PaidAmount,
				AdjustmentAmount: c.AdjustmentAmount,
				AdjustmentReason: reason,
			})
		}
		return s.items.CreateAll(ctx, items)
	})
	if err != nil {
		return nil, err
	}
	return &UploadResult{ERAID: batch.ID, ERANumber: batch.ERANumber, FileName: fileName}, nil
}

// Requeue returns an exception batch to pending so it can be re-attempted
// after manual correction.
func (s *Service) Requeue(ctx context.Context, id uuid.UUID, operatorID string) (*Batch, error) {
	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if batch.Status != StatusException {
		return nil, ErrBatchNotPending
	}
	if err := s.batches.RecordOutcome(ctx, id, StatusPending, batch.AutoPosted, []string{}, operatorID); err != nil {
		return nil, err
	}
	return s.batches.GetByID(ctx, id)
}

// MarkFailed abandons an exception batch the operator cannot correct, for
// example when the payer must reissue the remittance. Failed batches are
// terminal: the posting engine refuses them and requeue does not apply.
func (s *Service) MarkFailed(ctx context.Context, id uuid.UUID, operatorID string) (*Batch, error) {
	batch, err := s.batches.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if batch.Status != StatusException {
		return nil, ErrBatchNotPending
	}
	if err := s.batches.RecordOutcome(ctx, id, StatusFailed, batch.AutoPosted, batch.Exceptions, operatorID); err != nil {
		return nil, err
	}
	return s.batches.GetByID(ctx, id)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
