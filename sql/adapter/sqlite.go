package adapter

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"gamestore"
)

// SQLiteAdapter implements the Adapter interface for SQLite.
type SQLiteAdapter struct{}

// NewSQLiteAdapter creates a new SQLite adapter.
func NewSQLiteAdapter() *SQLiteAdapter {
	return &SQLiteAdapter{}
}

// Name returns the adapter name.
func (a *SQLiteAdapter) Name() string { return "sqlite" }

// Connect opens the database file named by cfg.FilePath (":memory:" for an
// in-memory database). Writes are serialized through a single connection;
// SQLite handles concurrent writers poorly and an in-memory database
// vanishes if its only connection is recycled.
func (a *SQLiteAdapter) Connect(cfg *gamestore.Config) (*sql.DB, error) {
	path := cfg.FilePath
	if path == "" {
		path = ":memory:"
	}
	dsn := path + "?_foreign_keys=on&_case_sensitive_like=on"
	for key, value := range cfg.Options {
		dsn += fmt.Sprintf("&%s=%s", key, value)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return db, nil
}

// Placeholder renders the n-th bind parameter.
func (a *SQLiteAdapter) Placeholder(n int) string { return "?" }

// AutoIncrementPK returns the auto-assigned primary key definition.
func (a *SQLiteAdapter) AutoIncrementPK() string {
	return "INTEGER PRIMARY KEY AUTOINCREMENT"
}

// CaseSensitiveLike returns plain LIKE; the connection string sets the
// case_sensitive_like pragma so it does not fold ASCII case.
func (a *SQLiteAdapter) CaseSensitiveLike() string { return "LIKE" }

// SupportsReturning reports RETURNING support; the repository uses
// LastInsertId instead.
func (a *SQLiteAdapter) SupportsReturning() bool { return false }
