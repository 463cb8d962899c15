package errors

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

const (
	MetadataSeparator = ", "
	MetadataPrefix    = "metadata={"
	MetadataSuffix    = "}"
)

// Error is a structured error naming the failing operation, the failure kind
// and an optional underlying cause.
type Error struct {
	Kind     Kind              `json:"kind"`
	Op       string            `json:"op,omitempty"`
	Message  string            `json:"message,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
	cause    error
}

// Error renders "op: kind: message metadata={...}: cause", omitting empty parts.
func (e *Error) Error() string {
	var msg strings.Builder

	if e.Op != "" {
		msg.WriteString(e.Op)
		msg.WriteString(": ")
	}
	msg.WriteString(e.Kind.String())

	if e.Message != "" {
		msg.WriteString(": ")
		msg.WriteString(e.Message)
	}

	if len(e.Metadata) > 0 {
		msg.WriteByte(' ')
		msg.WriteString(MetadataPrefix)
		for i, k := range slices.Sorted(maps.Keys(e.Metadata)) {
			if i > 0 {
				msg.WriteString(MetadataSeparator)
			}
			msg.WriteString(k)
			msg.WriteByte('=')
			msg.WriteString(e.Metadata[k])
		}
		msg.WriteString(MetadataSuffix)
	}

	if e.cause != nil {
		msg.WriteString(": ")
		msg.WriteString(e.cause.Error())
	}

	return msg.String()
}

// Unwrap returns the cause of the error
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether err is an *Error of the same kind. A target carrying an
// Op or Message additionally requires those to match, so the bare sentinels
// (ErrDecryption, ErrNotInitialized, ...) match any error of their kind.
func (e *Error) Is(err error) bool {
	var target *Error
	if !errors.As(err, &target) {
		return false
	}
	if e.Kind != target.Kind {
		return false
	}
	if target.Op != "" && target.Op != e.Op {
		return false
	}
	if target.Message != "" && target.Message != e.Message {
		return false
	}
	return true
}

// WithMetadata adds metadata to the error. Returns a new error instance to maintain immutability.
func (e *Error) WithMetadata(m map[string]string) *Error {
	if len(m) == 0 {
		return e
	}

	err := e.clone()
	if err.Metadata == nil {
		err.Metadata = make(map[string]string, len(m))
	}

	maps.Copy(err.Metadata, m)
	return err
}

// WithCause adds a cause to the error. Returns a new error instance to maintain immutability.
func (e *Error) WithCause(cause error) *Error {
	if cause == nil {
		return e
	}

	err := e.clone()
	err.cause = cause
	return err
}

// clone creates a shallow copy of the error while deep copying the metadata map
func (e *Error) clone() *Error {
	var metadata map[string]string
	if len(e.Metadata) > 0 {
		metadata = make(map[string]string, len(e.Metadata))
		maps.Copy(metadata, e.Metadata)
	}

	return &Error{
		Kind:     e.Kind,
		Op:       e.Op,
		Message:  e.Message,
		Metadata: metadata,
		cause:    e.cause,
	}
}

// New creates an error of the given kind for op with a formatted message.
func New(kind Kind, op string, format string, args ...any) *Error {
	message := format
	if len(args) > 0 {
		message = fmt.Sprintf(format, args...)
	}

	return &Error{
		Kind:    kind,
		Op:      op,
		Message: message,
	}
}

// E creates an error of the given kind for op wrapping cause. cause may be nil.
func E(op string, kind Kind, cause error) *Error {
	return &Error{
		Kind:  kind,
		Op:    op,
		cause: cause,
	}
}

// Wrap wraps err with kind, op and a formatted message.
// Returns nil if err is nil.
func Wrap(err error, kind Kind, op string, format string, args ...any) *Error {
	if err == nil {
		return nil
	}
	return New(kind, op, format, args...).WithCause(err)
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
