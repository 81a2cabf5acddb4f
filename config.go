package gamestore

import "time"

// Config carries backend connection settings. Only the fields relevant to a
// given backend are consulted: relational backends use the network and pool
// settings, the file backend uses BasePath, and the document backend uses
// FilePath.
type Config struct {
	// Type names the backend or relational driver ("sqlite", "postgres",
	// "mysql").
	Type string

	// Network settings for server-based databases.
	Host     string
	Port     int
	Username string
	Password string
	Database string

	// BasePath is the root directory for file-per-record storage.
	BasePath string

	// FilePath locates an embedded database file. ":memory:" selects an
	// in-memory SQLite database.
	FilePath string

	// Connection pool settings.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration

	// Options carries driver-specific parameters such as sslmode or
	// charset.
	Options map[string]string
}

// ConfigOption configures a Config.
type ConfigOption func(*Config)

// DefaultConfig returns a config with sensible pool defaults.
func DefaultConfig(backendType string) *Config {
	return &Config{
		Type:            backendType,
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		ConnectTimeout:  10 * time.Second,
		Options:         make(map[string]string),
	}
}

// NewConfig creates a config for the given backend type with options
// applied.
func NewConfig(backendType string, opts ...ConfigOption) *Config {
	cfg := DefaultConfig(backendType)
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithHost sets the database host.
func WithHost(host string) ConfigOption {
	return func(c *Config) { c.Host = host }
}

// WithPort sets the database port.
func WithPort(port int) ConfigOption {
	return func(c *Config) { c.Port = port }
}

// WithCredentials sets the database username and password.
func WithCredentials(username, password string) ConfigOption {
	return func(c *Config) {
		c.Username = username
		c.Password = password
	}
}

// WithDatabase sets the database name.
func WithDatabase(database string) ConfigOption {
	return func(c *Config) { c.Database = database }
}

// WithBasePath sets the root directory for file-per-record storage.
func WithBasePath(path string) ConfigOption {
	return func(c *Config) { c.BasePath = path }
}

// WithFilePath sets the embedded database file location.
func WithFilePath(path string) ConfigOption {
	return func(c *Config) { c.FilePath = path }
}

// WithMaxOpenConns sets the maximum number of open connections.
func WithMaxOpenConns(n int) ConfigOption {
	return func(c *Config) { c.MaxOpenConns = n }
}

// WithMaxIdleConns sets the maximum number of idle connections.
func WithMaxIdleConns(n int) ConfigOption {
	return func(c *Config) { c.MaxIdleConns = n }
}

// WithConnMaxLifetime sets the maximum connection lifetime.
func WithConnMaxLifetime(d time.Duration) ConfigOption {
	return func(c *Config) { c.ConnMaxLifetime = d }
}

// WithConnectTimeout sets the connection timeout.
func WithConnectTimeout(d time.Duration) ConfigOption {
	return func(c *Config) { c.ConnectTimeout = d }
}

// WithOption sets a driver-specific parameter.
func WithOption(key, value string) ConfigOption {
	return func(c *Config) {
		if c.Options == nil {
			c.Options = make(map[string]string)
		}
		c.Options[key] = value
	}
}
