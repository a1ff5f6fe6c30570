package config

import (
	"errors"
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.Sources["shop"] = SourceConfig{
		Dialect:  DialectMySQL,
		Host:     "localhost",
		User:     "reader",
		Database: "shop",
	}
	return cfg
}

func TestValidConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("expected no validation errors, got: %v", err)
	}
}

func TestValidate_NoSources(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("a catalog without sources is valid, got: %v", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{
			name:   "missing catalog path",
			mutate: func(c *Config) { c.Catalog.Path = "" },
			field:  "catalog.path",
		},
		{
			name:   "negative cache size",
			mutate: func(c *Config) { c.Catalog.ExtractCacheSize = -1 },
			field:  "catalog.extract_cache_size",
		},
		{
			name:   "negative busy timeout",
			mutate: func(c *Config) { c.Catalog.BusyTimeoutMS = -5 },
			field:  "catalog.busy_timeout_ms",
		},
		{
			name: "unknown dialect",
			mutate: func(c *Config) {
				s := c.Sources["shop"]
				s.Dialect = "oracle"
				c.Sources["shop"] = s
			},
			field: "sources.shop.dialect",
		},
		{
			name: "missing host",
			mutate: func(c *Config) {
				s := c.Sources["shop"]
				s.Host = ""
				c.Sources["shop"] = s
			},
			field: "sources.shop.host",
		},
		{
			name: "port out of range",
			mutate: func(c *Config) {
				s := c.Sources["shop"]
				s.Port = 70000
				c.Sources["shop"] = s
			},
			field: "sources.shop.port",
		},
		{
			name: "missing user",
			mutate: func(c *Config) {
				s := c.Sources["shop"]
				s.User = ""
				c.Sources["shop"] = s
			},
			field: "sources.shop.user",
		},
		{
			name: "missing database",
			mutate: func(c *Config) {
				s := c.Sources["shop"]
				s.Database = ""
				c.Sources["shop"] = s
			},
			field: "sources.shop.database",
		},
		{
			name: "invalid tls",
			mutate: func(c *Config) {
				s := c.Sources["shop"]
				s.TLS = "sometimes"
				c.Sources["shop"] = s
			},
			field: "sources.shop.tls",
		},
		{
			name:   "negative lock timeout",
			mutate: func(c *Config) { c.Sync.LockTimeout = -1 },
			field:  "sync.lock_timeout",
		},
		{
			name:   "unknown verify method",
			mutate: func(c *Config) { c.Sync.Verify = "md5" },
			field:  "sync.verify",
		},
		{
			name:   "duplicate sync table",
			mutate: func(c *Config) { c.Sync.Tables = []string{"_tables", "_tables"} },
			field:  "sync.tables[1]",
		},
		{
			name:   "invalid log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
			field:  "logging.level",
		},
		{
			name:   "invalid log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
			field:  "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}

			var verrs ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %T", err)
			}
			found := false
			for _, e := range verrs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error for field %s, got: %v", tt.field, err)
			}
		})
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "catalog.path", Message: "path is required"},
		{Field: "sources.shop.host", Message: "host is required"},
	}

	msg := errs.Error()
	if !strings.HasPrefix(msg, "validation failed:") {
		t.Errorf("unexpected message prefix: %s", msg)
	}
	if !strings.Contains(msg, "catalog.path: path is required") || !strings.Contains(msg, "sources.shop.host: host is required") {
		t.Errorf("expected both errors in message, got: %s", msg)
	}

	if (ValidationErrors{}).Error() != "" {
		t.Error("expected empty message for no errors")
	}
}
