// Package database opens the catalog store and the live source databases
// it mirrors.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver, registered as "pgx"
	_ "modernc.org/sqlite"             // Pure Go SQLite driver, registered as "sqlite"

	"github.com/dbsmedya/gocatalog/internal/config"
)

// Driver names registered by the imported drivers.
const (
	CatalogDriver  = "sqlite"
	MySQLDriver    = "mysql"
	PostgresDriver = "pgx"
)

// Manager owns the catalog connection and any source connections opened
// through it.
type Manager struct {
	Catalog *sql.DB
	sources map[string]*sql.DB
	config  *config.Config
}

// NewManager creates a new database manager from configuration.
func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		config:  cfg,
		sources: make(map[string]*sql.DB),
	}
}

// OpenCatalog opens the catalog store.
func (m *Manager) OpenCatalog(ctx context.Context) (*sql.DB, error) {
	if m.Catalog != nil {
		return m.Catalog, nil
	}
	db, err := OpenCatalog(ctx, &m.config.Catalog)
	if err != nil {
		return nil, err
	}
	m.Catalog = db
	return db, nil
}

// OpenCatalog opens an SQLite catalog file (or :memory:) on a single
// long-lived connection. The store runs one transaction at a time, and an
// in-memory database only lives as long as its connection.
func OpenCatalog(ctx context.Context, cfg *config.CatalogConfig) (*sql.DB, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("catalog path is empty")
	}

	db, err := sql.Open(CatalogDriver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", cfg.Path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if cfg.BusyTimeoutMS > 0 {
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = "+strconv.Itoa(cfg.BusyTimeoutMS)); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set busy timeout: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open catalog %s: %w", cfg.Path, err)
	}
	return db, nil
}

// ConnectSource connects to the named source, reusing an open connection.
func (m *Manager) ConnectSource(ctx context.Context, name string) (*sql.DB, config.SourceConfig, error) {
	src, err := m.config.GetSource(name)
	if err != nil {
		return nil, src, err
	}
	if db, ok := m.sources[name]; ok {
		return db, src, nil
	}

	db, err := connectWithRetry(ctx, &src)
	if err != nil {
		return nil, src, fmt.Errorf("failed to connect to source %q: %w", name, err)
	}
	m.sources[name] = db
	return db, src, nil
}

// connectWithRetry attempts to connect with exponential backoff.
func connectWithRetry(ctx context.Context, cfg *config.SourceConfig) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 3
	backoff := time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = connect(cfg)
		if err == nil {
			if pingErr := db.PingContext(ctx); pingErr == nil {
				return db, nil
			} else {
				db.Close()
				err = pingErr
			}
		}

		if i < maxRetries-1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}

	return nil, fmt.Errorf("failed after %d retries: %w", maxRetries, err)
}

func connect(cfg *config.SourceConfig) (*sql.DB, error) {
	driver, dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if cfg.MaxConnections > 0 {
		db.SetMaxOpenConns(cfg.MaxConnections)
		db.SetMaxIdleConns(cfg.MaxConnections)
	}
	db.SetConnMaxLifetime(10 * time.Minute)

	return db, nil
}

// BuildDSN returns the driver name and connection string for a source.
func BuildDSN(cfg *config.SourceConfig) (string, string, error) {
	switch cfg.Dialect {
	case config.DialectMySQL, "":
		return MySQLDriver, buildMySQLDSN(cfg), nil
	case config.DialectPostgres:
		return PostgresDriver, buildPostgresDSN(cfg), nil
	default:
		return "", "", fmt.Errorf("unsupported dialect %q", cfg.Dialect)
	}
}

func buildMySQLDSN(cfg *config.SourceConfig) string {
	// Format: user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	params := "?parseTime=true"
	switch cfg.TLS {
	case "disable":
		params += "&tls=false"
	case "required":
		params += "&tls=true"
	case "preferred", "":
		params += "&tls=preferred"
	}

	return dsn + params
}

func buildPostgresDSN(cfg *config.SourceConfig) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:   "/" + cfg.Database,
	}

	q := url.Values{}
	switch cfg.TLS {
	case "disable":
		q.Set("sslmode", "disable")
	case "required":
		q.Set("sslmode", "require")
	case "preferred", "":
		q.Set("sslmode", "prefer")
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// Close closes every connection opened through the manager.
func (m *Manager) Close() error {
	var errs []error

	for name, db := range m.sources {
		if err := db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("source %s close: %w", name, err))
		}
	}
	m.sources = make(map[string]*sql.DB)

	if m.Catalog != nil {
		if err := m.Catalog.Close(); err != nil {
			errs = append(errs, fmt.Errorf("catalog close: %w", err))
		}
		m.Catalog = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing connections: %v", errs)
	}
	return nil
}
