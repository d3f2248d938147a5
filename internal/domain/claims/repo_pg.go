package claims

import (
	"context"
	"errors"

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

// =========== Claim Repository ===========

type claimRepoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &claimRepoPG{pool: pool} }

func (r *claimRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const claimCols = `id, claim_number, patient_id, provider_id, service_date,
	diagnosis_code, procedure_code, total_charged, paid_amount, status,
	created_at, updated_at`

func scanClaim(row pgx.Row) (*Claim, error) {
	var c Claim
	err := row.Scan(&c.ID, &c.ClaimNumber, &c.PatientID, &c.ProviderID, &c.ServiceDate,
		&c.DiagnosisCode, &c.ProcedureCode, &c.TotalCharged, &c.PaidAmount, &c.Status,
		&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrClaimNotFound
	}
	return &c, err
}

func (r *claimRepoPG) Create(ctx context.Context, c *Claim) error {
	c.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO claims (id, claim_number, patient_id, provider_id, service_date,
			diagnosis_code, procedure_code, total_charged, paid_amount, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.ClaimNumber, c.PatientID, c.ProviderID, c.ServiceDate,
		c.DiagnosisCode, c.ProcedureCode, c.TotalCharged, c.PaidAmount, c.Status)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDuplicateClaimNumber
	}
	return err
}

func (r *claimRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Claim, error) {
	return scanClaim(r.conn(ctx).QueryRow(ctx,
		`SELECT `+claimCols+` FROM claims WHERE id = $1`, id))
}

func (r *claimRepoPG) GetByClaimNumber(ctx context.Context, claimNumber string) (*Claim, error) {
	return scanClaim(r.conn(ctx).QueryRow(ctx,
		`SELECT `+claimCols+` FROM claims WHERE claim_number = $1`, claimNumber))
}

func (r *claimRepoPG) GetByClaimNumberForUpdate(ctx context.Context, claimNumber string) (*Claim, error) {
	return scanClaim(r.conn(ctx).QueryRow(ctx,
		`SELECT `+claimCols+` FROM claims WHERE claim_number = $1 FOR UPDATE`, claimNumber))
}

func (r *claimRepoPG) UpdatePayment(ctx context.Context, id uuid.UUID, paidAmount float64, status string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE claims SET paid_amount = $2, status = $3, updated_at = NOW()
		WHERE id = $1`,
		id, paidAmount, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrClaimNotFound
	}
	return nil
}

func (r *claimRepoPG) ListOutstandingByProvider(ctx context.Context, providerID uuid.UUID) ([]*Claim, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+claimCols+` FROM claims
		WHERE provider_id = $1 AND status IN ($2, $3, $4)
		ORDER BY service_date`,
		providerID, StatusSubmitted, StatusPartiallyPaid, StatusException)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// =========== PaymentPosting Repository ===========

type postingRepoPG struct{ pool *pgxpool.Pool }

func NewPostingRepoPG(pool *pgxpool.Pool) PostingRepository { return &postingRepoPG{pool: pool} }

func (r *postingRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const postingCols = `id, claim_id, batch_id, claim_number, paid_amount,
	adjustment_amount, adjustment_reason, auto_posted, posted_by, posted_at`

func scanPosting(row pgx.Row) (*PaymentPosting, error) {
	var p PaymentPosting
	err := row.Scan(&p.ID, &p.ClaimID, &p.BatchID, &p.ClaimNumber, &p.PaidAmount,
		&p.AdjustmentAmount, &p.AdjustmentReason, &p.AutoPosted, &p.PostedBy, &p.PostedAt)
	return &p, err
}

func (r *postingRepoPG) Create(ctx context.Context, p *PaymentPosting) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO payment_postings (id, claim_id, batch_id, claim_number,
			paid_amount, adjustment_amount, adjustment_reason, auto_posted, posted_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.ClaimID, p.BatchID, p.ClaimNumber,
		p.PaidAmount, p.AdjustmentAmount, p.AdjustmentReason, p.AutoPosted, p.PostedBy)
	return err
}

func (r *postingRepoPG) GetByBatchAndClaim(ctx context.Context, batchID, claimID uuid.UUID) (*PaymentPosting, error) {
	p, err := scanPosting(r.conn(ctx).QueryRow(ctx,
		`SELECT `+postingCols+` FROM payment_postings WHERE batch_id = $1 AND claim_id = $2`,
		batchID, claimID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *postingRepoPG) ListByClaim(ctx context.Context, claimID uuid.UUID, limit, offset int) ([]*PaymentPosting, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM payment_postings WHERE claim_id = $1`, claimID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+postingCols+` FROM payment_postings WHERE claim_id = $1
		ORDER BY posted_at DESC LIMIT $2 OFFSET $3`, claimID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*PaymentPosting
	for rows.Next() {
		p, err := scanPosting(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	return items, total, rows.Err()
}
