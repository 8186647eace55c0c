package triage

import (
	"errors"
	"fmt"
)

var ErrUnknownCategory = errors.New("unknown category")

// UnknownCategoryError reports a value outside a training vocabulary.
type UnknownCategoryError struct {
	Field string
	Value string
}

func (e UnknownCategoryError) Error() string {
	return fmt.Sprintf("%s %q is not in the training vocabulary", e.Field, e.Value)
}

func (e UnknownCategoryError) Unwrap() error {
	return ErrUnknownCategory
}
