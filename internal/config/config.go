// Package config provides configuration structures and loading for gocatalog.
package config

import (
	"fmt"
	"sort"
	"strings"
)

// Config represents the complete application configuration.
type Config struct {
	Catalog CatalogConfig           `yaml:"catalog" mapstructure:"catalog"`
	Sources map[string]SourceConfig `yaml:"sources" mapstructure:"sources"`
	Sync    SyncConfig              `yaml:"sync" mapstructure:"sync"`
	Logging LoggingConfig           `yaml:"logging" mapstructure:"logging"`
}

// CatalogConfig locates the embedded catalog store.
type CatalogConfig struct {
	Path             string `yaml:"path" mapstructure:"path"` // file path or :memory:
	ExtractCacheSize int    `yaml:"extract_cache_size" mapstructure:"extract_cache_size"`
	BusyTimeoutMS    int    `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// SourceConfig represents a live database whose structure is mirrored.
type SourceConfig struct {
	Dialect        string `yaml:"dialect" mapstructure:"dialect"` // mysql or postgres
	Host           string `yaml:"host" mapstructure:"host"`
	Port           int    `yaml:"port" mapstructure:"port"`
	User           string `yaml:"user" mapstructure:"user"`
	Password       string `yaml:"password" mapstructure:"password"`
	Database       string `yaml:"database" mapstructure:"database"`
	Schema         string `yaml:"schema" mapstructure:"schema"` // defaults to database (mysql) or public (postgres)
	TLS            string `yaml:"tls" mapstructure:"tls"`       // disable, preferred, required
	MaxConnections int    `yaml:"max_connections" mapstructure:"max_connections"`
}

// SyncConfig controls a reconciliation run against a source.
type SyncConfig struct {
	LockTimeout int      `yaml:"lock_timeout" mapstructure:"lock_timeout"` // seconds
	Tables      []string `yaml:"tables" mapstructure:"tables"`             // empty means every introspected table
	Verify      string   `yaml:"verify" mapstructure:"verify"`             // count, sha256 or skip, run after a sync
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

const (
	DialectMySQL    = "mysql"
	DialectPostgres = "postgres"
)

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			Path:             "gocatalog.db",
			ExtractCacheSize: 64,
			BusyTimeoutMS:    5000,
		},
		Sources: map[string]SourceConfig{},
		Sync: SyncConfig{
			LockTimeout: 10,
			Verify:      "skip",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// GetSource returns the named source with per-dialect defaults filled in.
// Source names are case-insensitive.
func (c *Config) GetSource(name string) (SourceConfig, error) {
	src, ok := c.Sources[strings.ToLower(name)]
	if !ok {
		return SourceConfig{}, fmt.Errorf("source %q not found in configuration", name)
	}
	return src.withDefaults(), nil
}

// ListSources returns the configured source names, sorted.
func (c *Config) ListSources() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s SourceConfig) withDefaults() SourceConfig {
	if s.Dialect == "" {
		s.Dialect = DialectMySQL
	}
	if s.Port == 0 {
		if s.Dialect == DialectPostgres {
			s.Port = 5432
		} else {
			s.Port = 3306
		}
	}
	if s.Schema == "" {
		if s.Dialect == DialectPostgres {
			s.Schema = "public"
		} else {
			s.Schema = s.Database
		}
	}
	if s.TLS == "" {
		s.TLS = "preferred"
	}
	if s.MaxConnections == 0 {
		s.MaxConnections = 4
	}
	return s
}
