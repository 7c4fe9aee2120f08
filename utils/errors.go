package utils

import (
	"github.com/pkg/errors"
)

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError[ExpectedT any](actual interface{}) error {
	return errors.Errorf("expected %s but got %T", TypeName[ExpectedT](), actual)
}

// NewDriverNotRegisteredError is used when a config names a driver nothing registered.
func NewDriverNotRegisteredError(name string) error {
	return errors.Errorf("no sensor driver registered under %q", name)
}
