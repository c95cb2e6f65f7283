// Package repokit gives service repos the store seams without a driver import
package repokit

import "marketwatch/internal/platform/store"

type (
	// Queryer runs SQL against a pool or an open transaction
	Queryer = store.RowQuerier

	// TxRunner is the pool: a Queryer that can also open transactions
	TxRunner = store.TxRunner

	// Rows is a multi-row result
	Rows = store.Rows

	// Row is a single-row result
	Row = store.Row
)

// Binder turns a Queryer into a concrete repo, so one repo type serves pool and tx callers alike
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc adapts a constructor into a Binder
type BindFunc[T any] func(Queryer) T

// Bind implements Binder
func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// MustBind binds b to q; a nil q is a wiring bug and panics
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: MustBind on a nil Queryer")
	}
	return b.Bind(q)
}
