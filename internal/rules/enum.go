package rules

import (
	"fmt"
	"slices"
)

// Enum is a closed value set for a column without a transition table.
type Enum[S ~string] struct {
	field  string
	values []S
}

func NewEnum[S ~string](field string, values ...S) Enum[S] {
	return Enum[S]{field: field, values: values}
}

func (e Enum[S]) Contains(v S) bool {
	return slices.Contains(e.values, v)
}

func (e Enum[S]) Validate(v S) error {
	if e.Contains(v) {
		return nil
	}
	return Constraint("chk_"+e.field, fmt.Sprintf("%s must be one of %v, got %q", e.field, e.values, v))
}
