// Package adapter isolates per-engine differences behind a small interface:
// connection setup, placeholder style, auto-increment DDL and RETURNING
// support. The repository layer stays engine-agnostic.
package adapter

import (
	"database/sql"

	"gamestore"
)

// Adapter abstracts one relational engine.
type Adapter interface {
	// Name returns the engine identifier ("sqlite", "postgres", "mysql").
	Name() string

	// Connect opens a pooled database handle from the config.
	Connect(cfg *gamestore.Config) (*sql.DB, error)

	// Placeholder renders the n-th (1-based) bind parameter.
	Placeholder(n int) string

	// AutoIncrementPK returns the column definition for an auto-assigned
	// integer primary key.
	AutoIncrementPK() string

	// CaseSensitiveLike returns the operator for a case-sensitive LIKE
	// match. Engines whose default LIKE folds case need a variant form.
	CaseSensitiveLike() string

	// SupportsReturning reports whether INSERT ... RETURNING id works.
	// Engines without it fall back to LastInsertId.
	SupportsReturning() bool
}

func applyPool(db *sql.DB, cfg *gamestore.Config) {
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}
