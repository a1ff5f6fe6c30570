package schema

import (
	"errors"
	"fmt"
)

// ErrInvalidDescriptor is matched by every descriptor construction error.
var ErrInvalidDescriptor = errors.New("invalid catalog descriptor")

// DescriptorError reports a malformed object description.
type DescriptorError struct {
	Object  string
	Message string
	Err     error
}

func (e *DescriptorError) Error() string {
	msg := e.Message
	if e.Object != "" {
		msg = fmt.Sprintf("object %q: %s", e.Object, e.Message)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DescriptorError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidDescriptor, e.Err}
	}
	return []error{ErrInvalidDescriptor}
}

func descriptorErr(object, format string, args ...any) *DescriptorError {
	return &DescriptorError{Object: object, Message: fmt.Sprintf(format, args...)}
}
