package errors

import (
	goerrors "errors"
)

// Is reports whether err's chain holds target. *Error targets match by kind.
func Is(err, target error) bool {
	return goerrors.Is(err, target)
}

// As finds the first error in err's chain assignable to target
func As(err error, target any) bool {
	return goerrors.As(err, target)
}

// Plain returns a kind-less error with the given text, for causes that do not
// need a taxonomy entry.
func Plain(text string) error {
	return goerrors.New(text)
}
