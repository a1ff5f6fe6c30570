package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}

// Validate checks the configuration for required fields and valid values.
func (c *Config) Validate() error {
	var errors ValidationErrors

	errors = append(errors, c.validateCatalog()...)
	for _, name := range c.ListSources() {
		src := c.Sources[name].withDefaults()
		errors = append(errors, validateSource("sources."+name, &src)...)
	}
	errors = append(errors, c.validateSync()...)
	errors = append(errors, c.validateLogging()...)

	if len(errors) > 0 {
		return errors
	}
	return nil
}

func (c *Config) validateCatalog() ValidationErrors {
	var errors ValidationErrors

	if c.Catalog.Path == "" {
		errors = append(errors, ValidationError{
			Field:   "catalog.path",
			Message: "path is required",
		})
	}

	if c.Catalog.ExtractCacheSize < 0 {
		errors = append(errors, ValidationError{
			Field:   "catalog.extract_cache_size",
			Message: "extract_cache_size cannot be negative",
		})
	}

	if c.Catalog.BusyTimeoutMS < 0 {
		errors = append(errors, ValidationError{
			Field:   "catalog.busy_timeout_ms",
			Message: "busy_timeout_ms cannot be negative",
		})
	}

	return errors
}

func validateSource(prefix string, src *SourceConfig) ValidationErrors {
	var errors ValidationErrors

	if src.Dialect != DialectMySQL && src.Dialect != DialectPostgres {
		errors = append(errors, ValidationError{
			Field:   prefix + ".dialect",
			Message: "dialect must be 'mysql' or 'postgres'",
		})
	}

	if src.Host == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".host",
			Message: "host is required",
		})
	}

	if src.Port <= 0 || src.Port > 65535 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".port",
			Message: "port must be between 1 and 65535",
		})
	}

	if src.User == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".user",
			Message: "user is required",
		})
	}

	if src.Database == "" {
		errors = append(errors, ValidationError{
			Field:   prefix + ".database",
			Message: "database name is required",
		})
	}

	validTLS := map[string]bool{"disable": true, "preferred": true, "required": true}
	if !validTLS[src.TLS] {
		errors = append(errors, ValidationError{
			Field:   prefix + ".tls",
			Message: "tls must be 'disable', 'preferred', or 'required'",
		})
	}

	if src.MaxConnections < 0 {
		errors = append(errors, ValidationError{
			Field:   prefix + ".max_connections",
			Message: "max_connections cannot be negative",
		})
	}

	return errors
}

func (c *Config) validateSync() ValidationErrors {
	var errors ValidationErrors

	if c.Sync.LockTimeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "sync.lock_timeout",
			Message: "lock_timeout cannot be negative",
		})
	}

	validMethods := map[string]bool{"count": true, "sha256": true, "skip": true, "": true}
	if !validMethods[c.Sync.Verify] {
		errors = append(errors, ValidationError{
			Field:   "sync.verify",
			Message: "verify must be 'count', 'sha256', or 'skip'",
		})
	}

	seen := make(map[string]bool)
	for i, table := range c.Sync.Tables {
		if seen[table] {
			errors = append(errors, ValidationError{
				Field:   fmt.Sprintf("sync.tables[%d]", i),
				Message: fmt.Sprintf("table %q listed more than once", table),
			})
		}
		seen[table] = true
	}

	return errors
}

func (c *Config) validateLogging() ValidationErrors {
	var errors ValidationErrors

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true, "": true}
	if !validLevels[c.Logging.Level] {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Message: "level must be 'debug', 'info', 'warn', or 'error'",
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "": true}
	if !validFormats[c.Logging.Format] {
		errors = append(errors, ValidationError{
			Field:   "logging.format",
			Message: "format must be 'json' or 'text'",
		})
	}

	return errors
}
