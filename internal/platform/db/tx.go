package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

// DBTxKey carries an open transaction through a context so repositories
// participate in it transparently.
const DBTxKey contextKey = "db_tx"

// TxFromContext returns the transaction stored in ctx, or nil when the caller
// is not inside one.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// TxRunner executes a function inside a database transaction. Services depend
// on this interface rather than on the pool so tests can substitute a
// passthrough implementation.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// PgxTxRunner runs transactions against a pgx pool.
type PgxTxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner creates a TxRunner backed by pool.
func NewTxRunner(pool *pgxpool.Pool) *PgxTxRunner {
	return &PgxTxRunner{pool: pool}
}

// RunInTx begins a transaction, stores it in the context for repositories to
// pick up via TxFromContext, and commits when fn returns nil. Any error from
// fn rolls the transaction back and is returned unchanged. A nested call
// reuses the transaction already in the context.
func (r *PgxTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(context.WithValue(ctx, DBTxKey, tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
