package remittance

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rcm/rcm/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// =========== Batch Repository ===========

type batchRepoPG struct{ pool *pgxpool.Pool }

func NewBatchRepoPG(pool *pgxpool.Pool) BatchRepository { return &batchRepoPG{pool: pool} }

func (r *batchRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const batchCols = `id, era_number, provider_id, payer_name, check_number, check_date,
	total_amount, claim_count, file_name, status, auto_posted, exceptions,
	processed_at, processed_by, created_at, updated_at`

func scanBatch(row pgx.Row) (*Batch, error) {
	var b Batch
	err := row.Scan(&b.ID, &b.ERANumber, &b.ProviderID, &b.PayerName, &b.CheckNumber, &b.CheckDate,
		&b.TotalAmount, &b.ClaimCount, &b.FileName, &b.Status, &b.AutoPosted, &b.Exceptions,
		&b.ProcessedAt, &b.ProcessedBy, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBatchNotFound
	}
	return &b, err
}

func (r *batchRepoPG) Create(ctx context.Context, b *Batch) error {
	b.ID = uuid.New()
	if b.Exceptions == nil {
		b.Exceptions = []string{}
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO remittance_batches (id, era_number, provider_id, payer_name,
			check_number, check_date, total_amount, claim_count, file_name,
			status, auto_posted, exceptions)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		b.ID, b.ERANumber, b.ProviderID, b.PayerName,
		b.CheckNumber, b.CheckDate, b.TotalAmount, b.ClaimCount, b.FileName,
		b.Status, b.AutoPosted, b.Exceptions)
	return err
}

func (r *batchRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Batch, error) {
	return scanBatch(r.conn(ctx).QueryRow(ctx,
		`SELECT `+batchCols+` FROM remittance_batches WHERE id = $1`, id))
}

func (r *batchRepoPG) ListByProvider(ctx context.Context, providerID uuid.UUID, f QueueFilter, limit, offset int) ([]*Batch, int, error) {
	where := ` WHERE provider_id = $1`
	args := []interface{}{providerID}
	if f.Status != "" {
		args = append(args, f.Status)
		where += ` AND status = $2`
	}
	if f.PayerContains != "" {
		args = append(args, "%"+f.PayerContains+"%")
		if f.Status != "" {
			where += ` AND payer_name ILIKE $3`
		} else {
			where += ` AND payer_name ILIKE $2`
		}
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM remittance_batches`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	n := len(args)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+batchCols+` FROM remittance_batches`+where+
			` ORDER BY created_at DESC LIMIT $`+strconv.Itoa(n-1)+` OFFSET $`+strconv.Itoa(n), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Batch
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, b)
	}
	return items, total, rows.Err()
}

func (r *batchRepoPG) RecordOutcome(ctx context.Context, id uuid.UUID, status string, autoPosted bool, exceptions []string, processedBy string) error {
	if exceptions == nil {
		exceptions = []string{}
	}
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE remittance_batches
		SET status = $2, auto_posted = $3, exceptions = $4,
			processed_at = NOW(), processed_by = $5, updated_at = NOW()
		WHERE id = $1`,
		id, status, autoPosted, exceptions, processedBy)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBatchNotFound
	}
	return nil
}

func (r *batchRepoPG) MarkPostedIfPending(ctx context.Context, id uuid.UUID, processedBy string) (bool, error) {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE remittance_batches
		SET status = $2, processed_at = NOW(), processed_by = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4`,
		id, StatusPosted, processedBy, StatusPending)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// =========== Item Repository ===========

type itemRepoPG struct{ pool *pgxpool.Pool }

func NewItemRepoPG(pool *pgxpool.Pool) ItemRepository { return &itemRepoPG{pool: pool} }

func (r *itemRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const itemCols = `id, batch_id, claim_number, patient_name, service_date,
	charged_amount, paid_amount, adjustment_amount, adjustment_reason,
	posted, posted_at, created_at`

func scanItem(row pgx.Row) (*LineItem, error) {
	var li LineItem
	err := row.Scan(&li.ID, &li.BatchID, &li.ClaimNumber, &li.PatientName, &li.ServiceDate,
		&li.ChargedAmount, &li.PaidAmount, &li.AdjustmentAmount, &li.AdjustmentReason,
		&li.Posted, &li.PostedAt, &li.CreatedAt)
	return &li, err
}

func (r *itemRepoPG) CreateAll(ctx context.Context, items []*LineItem) error {
	c := r.conn(ctx)
	for _, li := range items {
		li.ID = uuid.New()
		if _, err := c.Exec(ctx, `
			INSERT INTO remittance_items (id, batch_id, claim_number, patient_name,
				service_date, charged_amount, paid_amount, adjustment_amount, adjustment_reason)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			li.ID, li.BatchID, li.ClaimNumber, li.PatientName,
			li.ServiceDate, li.ChargedAmount, li.PaidAmount, li.AdjustmentAmount, li.AdjustmentReason); err != nil {
			return err
		}
	}
	return nil
}

func (r *itemRepoPG) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]*LineItem, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+itemCols+` FROM remittance_items WHERE batch_id = $1 ORDER BY created_at, id`,
		batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*LineItem
	for rows.Next() {
		li, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, li)
	}
	return items, rows.Err()
}

func (r *itemRepoPG) MarkPosted(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx,
		`UPDATE remittance_items SET posted = TRUE, posted_at = NOW() WHERE id = $1`, id)
	return err
}

// =========== Stats Repository ===========

type statsRepoPG struct{ pool *pgxpool.Pool }

func NewStatsRepoPG(pool *pgxpool.Pool) StatsRepository { return &statsRepoPG{pool: pool} }

func (r *statsRepoPG) PostingTotals(ctx context.Context, since time.Time) (float64, int, int, error) {
	var total float64
	var count, autoCount int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(paid_amount), 0), COUNT(*),
			COUNT(*) FILTER (WHERE auto_posted)
		FROM payment_postings WHERE posted_at >= $1`, since).
		Scan(&total, &count, &autoCount)
	return total, count, autoCount, err
}

func (r *statsRepoPG) ExceptionBatchCount(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM remittance_batches
		WHERE status = $1 AND created_at >= $2`, StatusException, since).Scan(&count)
	return count, err
}

func (r *statsRepoPG) AveragePostingDays(ctx context.Context, since time.Time) (float64, error) {
	var days float64
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM processed_at - created_at) / 86400), 0)
		FROM remittance_batches
		WHERE processed_at IS NOT NULL AND processed_at >= $1`, since).Scan(&days)
	return days, err
}
