package adapter

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq" // PostgreSQL driver

	"gamestore"
)

// PostgresAdapter implements the Adapter interface for PostgreSQL.
type PostgresAdapter struct{}

// NewPostgresAdapter creates a new PostgreSQL adapter.
func NewPostgresAdapter() *PostgresAdapter {
	return &PostgresAdapter{}
}

// Name returns the adapter name.
func (a *PostgresAdapter) Name() string { return "postgres" }

// Connect opens a pooled connection from the config.
func (a *PostgresAdapter) Connect(cfg *gamestore.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", a.connectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	applyPool(db, cfg)
	return db, nil
}

func (a *PostgresAdapter) connectionString(cfg *gamestore.Config) string {
	var parts []string
	if cfg.Host != "" {
		parts = append(parts, "host="+cfg.Host)
	}
	if cfg.Port > 0 {
		parts = append(parts, fmt.Sprintf("port=%d", cfg.Port))
	}
	if cfg.Database != "" {
		parts = append(parts, "dbname="+cfg.Database)
	}
	if cfg.Username != "" {
		parts = append(parts, "user="+cfg.Username)
	}
	if cfg.Password != "" {
		parts = append(parts, "password="+cfg.Password)
	}
	if cfg.ConnectTimeout > 0 {
		parts = append(parts, fmt.Sprintf("connect_timeout=%d", int(cfg.ConnectTimeout.Seconds())))
	}
	if _, ok := cfg.Options["sslmode"]; !ok {
		parts = append(parts, "sslmode=disable")
	}
	for key, value := range cfg.Options {
		parts = append(parts, key+"="+value)
	}
	return strings.Join(parts, " ")
}

// Placeholder renders the n-th bind parameter.
func (a *PostgresAdapter) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

// AutoIncrementPK returns the auto-assigned primary key definition.
func (a *PostgresAdapter) AutoIncrementPK() string {
	return "BIGSERIAL PRIMARY KEY"
}

// CaseSensitiveLike returns plain LIKE, which is already case-sensitive.
func (a *PostgresAdapter) CaseSensitiveLike() string { return "LIKE" }

// SupportsReturning reports RETURNING support.
func (a *PostgresAdapter) SupportsReturning() bool { return true }
