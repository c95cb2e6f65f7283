package store

import (
	"context"
	"fmt"
)

// Schema is one idempotent DDL script owned by a repo
type Schema struct {
	Name string
	SQL  string
}

// Migrate applies each schema inside one transaction, in order
func Migrate(ctx context.Context, tx TxRunner, schemas ...Schema) error {
	if tx == nil {
		return fmt.Errorf("migrate: postgres not configured")
	}
	return tx.Tx(ctx, func(q RowQuerier) error {
		for _, s := range schemas {
			if _, err := q.Exec(ctx, s.SQL); err != nil {
				return fmt.Errorf("migrate %s: %w", s.Name, err)
			}
		}
		return nil
	})
}
