package sqlstore

import (
	"context"
	"database/sql"
)

type txContextKey struct{}

// TransactionFromContext returns the transaction carried by ctx, if any.
func TransactionFromContext(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txContextKey{}).(*sql.Tx)
	return tx, ok
}

// ContextWithTransaction returns a context carrying the transaction.
func ContextWithTransaction(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// executor is the common surface of *sql.DB and *sql.Tx the repository
// issues statements through.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// executorFor picks the context's transaction when one is active, the pool
// otherwise.
func executorFor(ctx context.Context, db *sql.DB) executor {
	if tx, ok := TransactionFromContext(ctx); ok {
		return tx
	}
	return db
}

// WithTransaction begins a transaction, runs fn with it carried in the
// context, and commits or rolls back on fn's result. A context already
// carrying a transaction is reused so nested scopes join the outer one.
func WithTransaction(ctx context.Context, db *sql.DB, fn func(context.Context) error) error {
	if _, ok := TransactionFromContext(ctx); ok {
		return fn(ctx)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(ContextWithTransaction(ctx, tx)); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
