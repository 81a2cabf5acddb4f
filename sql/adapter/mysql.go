package adapter

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"gamestore"
)

// MySQLAdapter implements the Adapter interface for MySQL and MariaDB.
type MySQLAdapter struct{}

// NewMySQLAdapter creates a new MySQL adapter.
func NewMySQLAdapter() *MySQLAdapter {
	return &MySQLAdapter{}
}

// Name returns the adapter name.
func (a *MySQLAdapter) Name() string { return "mysql" }

// Connect opens a pooled connection from the config.
func (a *MySQLAdapter) Connect(cfg *gamestore.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", a.connectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}
	applyPool(db, cfg)
	return db, nil
}

func (a *MySQLAdapter) connectionString(cfg *gamestore.Config) string {
	var sb strings.Builder
	if cfg.Username != "" {
		sb.WriteString(cfg.Username)
		if cfg.Password != "" {
			sb.WriteString(":" + cfg.Password)
		}
		sb.WriteString("@")
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	port := cfg.Port
	if port == 0 {
		port = 3306
	}
	fmt.Fprintf(&sb, "tcp(%s:%d)/%s", host, port, cfg.Database)

	params := []string{"parseTime=false", "charset=utf8mb4"}
	if cfg.ConnectTimeout > 0 {
		params = append(params, fmt.Sprintf("timeout=%s", cfg.ConnectTimeout))
	}
	for key, value := range cfg.Options {
		params = append(params, key+"="+value)
	}
	sb.WriteString("?" + strings.Join(params, "&"))
	return sb.String()
}

// Placeholder renders the n-th bind parameter.
func (a *MySQLAdapter) Placeholder(n int) string { return "?" }

// AutoIncrementPK returns the auto-assigned primary key definition.
func (a *MySQLAdapter) AutoIncrementPK() string {
	return "BIGINT PRIMARY KEY AUTO_INCREMENT"
}

// CaseSensitiveLike forces a binary comparison; the default collations
// fold case.
func (a *MySQLAdapter) CaseSensitiveLike() string { return "LIKE BINARY" }

// SupportsReturning reports RETURNING support; the repository uses
// LastInsertId instead.
func (a *MySQLAdapter) SupportsReturning() bool { return false }
