package store

import (
	"context"
	"strconv"
)

// VersionAttribute is the reserved attribute holding the catalog schema
// version.
const VersionAttribute = "_schema_version"

type schemaState int

const (
	schemaMissing schemaState = iota
	schemaValid
)

// bootstrap checks the stored schema version, creating every catalog object
// first when storage is empty.
func (s *Store) bootstrap(ctx context.Context) error {
	state, err := s.checkSchema(ctx)
	if err != nil {
		return err
	}
	if state == schemaValid {
		return nil
	}

	s.log.Infow("creating catalog objects", "objects", s.catalog.Len(), "version", s.catalog.Version)
	if err := s.createSchema(ctx); err != nil {
		return err
	}

	state, err = s.checkSchema(ctx)
	if err != nil {
		return err
	}
	if state != schemaValid {
		return newError(KindIncorrectSchema, "", nil, "schema version missing after creation")
	}
	return nil
}

// checkSchema reads the version marker. A failed read is taken as an empty
// storage; a marker with another version is an error.
func (s *Store) checkSchema(ctx context.Context) (schemaState, error) {
	stored, found, err := s.attribute(ctx, VersionAttribute)
	if err != nil {
		s.log.Debugw("version marker not readable", "error", err)
		return schemaMissing, nil
	}
	if !found {
		return schemaMissing, nil
	}

	version, err := strconv.Atoi(stored)
	if err != nil || version != s.catalog.Version {
		return schemaMissing, newError(KindIncorrectSchema, "", nil,
			"stored schema version %q, expected %d", stored, s.catalog.Version)
	}
	s.version = version
	return schemaValid, nil
}

// createSchema creates every object in dependency order and writes the
// version marker, all in one transaction.
func (s *Store) createSchema(ctx context.Context) (err error) {
	if _, err := s.beginIfNone(ctx); err != nil {
		return newError(KindInternal, "", err, "create schema")
	}
	defer func() {
		if err != nil {
			if rbErr := s.rollback(); rbErr != nil {
				s.log.Warnw("rollback after failed schema creation", "error", rbErr)
			}
		}
	}()

	for _, obj := range s.catalog.Objects() {
		ddl, rerr := s.renderer.RenderCreate(obj)
		if rerr != nil {
			return newError(KindIncorrectSchema, obj.Name(), rerr, "render %s", obj.Kind())
		}
		s.log.Debugw("creating catalog object", "object", obj.Name(), "kind", obj.Kind().String())
		if _, eerr := s.tx.ExecContext(ctx, ddl); eerr != nil {
			return newError(KindIncorrectSchema, obj.Name(), eerr, "create %s", obj.Kind())
		}
	}

	attrs, ok := s.tables[attributesTable]
	if !ok {
		return newError(KindIncorrectSchema, "", nil, "catalog has no _attributes table")
	}
	insert, args, berr := attrs.insert.Bind(map[string]any{
		newKey(0): VersionAttribute,
		newKey(1): strconv.Itoa(s.catalog.Version),
	})
	if berr != nil {
		return newError(KindInternal, "_attributes", berr, "bind version marker")
	}
	if _, eerr := s.tx.ExecContext(ctx, insert, args...); eerr != nil {
		return newError(KindIncorrectSchema, attributesTable, eerr, "write version marker")
	}
	if cerr := s.commit(); cerr != nil {
		return newError(KindIncorrectSchema, "", cerr, "create schema")
	}
	return nil
}
