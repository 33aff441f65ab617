package utils

import (
	"fmt"

	"github.com/pkg/errors"
)

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError[ExpectedT any](actual interface{}) error {
	return errors.Errorf("expected %s but got %T", typeName[ExpectedT](), actual)
}

// typeName names T even when it is an interface type.
func typeName[T any]() string {
	var zero [0]T
	return fmt.Sprintf("%T", zero)[len("[0]"):]
}
