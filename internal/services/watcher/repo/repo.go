// Package repo provides the watcher repository implementation
package repo

import (
	"context"
	_ "embed"

	"marketwatch/internal/modkit/repokit"
	"marketwatch/internal/platform/store"
	"marketwatch/internal/services/watcher/domain"
)

//go:embed schema.sql
var schemaSQL string

// Schema is the watcher DDL
var Schema = store.Schema{Name: "watcher", SQL: schemaSQL}

// Migrate applies the watcher schema
func Migrate(ctx context.Context, tx repokit.TxRunner) error {
	return store.Migrate(ctx, tx, Schema)
}

// Repo is the watcher persistence contract
type Repo interface {
	domain.Store
}

type (
	// PG is a Postgres watcher repository
	PG      struct{}
	queries struct{ q repokit.Queryer }
)

// NewPG constructs a Postgres watcher repository
func NewPG() repokit.Binder[Repo] { return PG{} }

// Bind binds a Queryer to a Postgres implementation of Repo
func (PG) Bind(q repokit.Queryer) Repo { return &queries{q: q} }
