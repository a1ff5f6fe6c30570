package store

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrIncorrectSchema = errors.New("incorrect catalog schema")
	ErrModifyContents  = errors.New("invalid catalog modification")
	ErrExtractSQL      = errors.New("invalid extraction statement")
	ErrInternal        = errors.New("internal catalog error")
)

// ErrorKind classifies store errors.
type ErrorKind int

const (
	KindIncorrectSchema ErrorKind = iota + 1
	KindModifyContents
	KindExtractSQL
	KindInternal
)

func (k ErrorKind) sentinel() error {
	switch k {
	case KindIncorrectSchema:
		return ErrIncorrectSchema
	case KindModifyContents:
		return ErrModifyContents
	case KindExtractSQL:
		return ErrExtractSQL
	default:
		return ErrInternal
	}
}

// Error is returned by every store operation that fails for a reason other
// than a plain statement or context error.
type Error struct {
	Kind    ErrorKind
	Table   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Kind.sentinel().Error()
	if e.Table != "" {
		msg += fmt.Sprintf(" (table %s)", e.Table)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind.sentinel(), e.Err}
	}
	return []error{e.Kind.sentinel()}
}

func newError(kind ErrorKind, table string, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Table: table, Message: fmt.Sprintf(format, args...), Err: err}
}
