package database

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// DriverPostgres selects lib/pq against a Postgres server.
	DriverPostgres = "postgres"
	// DriverSQLite selects the pure-Go modernc SQLite driver on a local file.
	DriverSQLite = "sqlite"

	defaultQueryTimeout = 5 * time.Second
)

// Config holds database connection settings shared across bots.
type Config struct {
	Driver         string        `yaml:"driver" envconfig:"DB_DRIVER"`
	Host           string        `yaml:"host" envconfig:"DB_HOST"`
	Port           string        `yaml:"port" envconfig:"DB_PORT"`
	User           string        `yaml:"user" envconfig:"DB_USER"`
	Password       string        `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string        `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string        `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	Path           string        `yaml:"path" envconfig:"DB_PATH"`
	MaxConnections int           `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	QueryTimeout   time.Duration `yaml:"query_timeout" envconfig:"DB_QUERY_TIMEOUT"`
	// MigrationsDir overrides the embedded migrations with a directory on disk.
	MigrationsDir string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// Normalize validates the driver specific fields and fills defaults.
func (c *Config) Normalize() error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	switch c.Driver {
	case "", DriverPostgres, "postgresql":
		c.Driver = DriverPostgres
		if c.Host == "" || c.Name == "" {
			return fmt.Errorf("database.host and database.name are required for postgres")
		}
		if c.Port == "" {
			c.Port = "5432"
		}
		if c.SSLMode == "" {
			c.SSLMode = "disable"
		}
		if c.MaxConnections <= 0 {
			c.MaxConnections = 10
		}
	case DriverSQLite, "sqlite3":
		c.Driver = DriverSQLite
		if strings.TrimSpace(c.Path) == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
		// SQLite allows a single writer; one shared connection serializes callers.
		c.MaxConnections = 1
	default:
		return fmt.Errorf("invalid database.driver %q; allowed: postgres, sqlite", c.Driver)
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = defaultQueryTimeout
	}
	return nil
}

// DSN returns the connection string understood by the configured sql driver.
func (c Config) DSN() string {
	if c.Driver == DriverSQLite {
		return "file:" + c.Path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// MigrateURL returns the golang-migrate database URL for the configured driver.
func (c Config) MigrateURL() string {
	if c.Driver == DriverSQLite {
		return "sqlite://" + c.Path
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}
