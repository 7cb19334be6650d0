// Package tx carries an open *sql.Tx through a context so store calls made
// inside postgres.InTx join the same transaction.
package tx

import (
	"context"
	"database/sql"
)

type key struct{}

// WithTx returns ctx unchanged when tx is nil.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, key{}, tx)
}

func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(key{}).(*sql.Tx)
	return tx, ok
}
