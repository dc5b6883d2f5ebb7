package rules

import (
	"fmt"
	"strings"
	"time"
)

// Validator checks the value bounds of one row and keeps the first violation.
// Codes match the CHECK constraint names in the schema: chk_<table>_<column>.
type Validator struct {
	table string
	err   error
}

func Validate(table string) *Validator {
	return &Validator{table: table}
}

func (v *Validator) fail(field, format string, args ...any) {
	if v.err != nil {
		return
	}
	v.err = Constraint(
		"chk_"+v.table+"_"+field,
		fmt.Sprintf("%s.%s ", v.table, field)+fmt.Sprintf(format, args...),
	)
}

func (v *Validator) NonNegative(field string, value float64) *Validator {
	if value < 0 {
		v.fail(field, "must be >= 0, got %v", value)
	}
	return v
}

func (v *Validator) NonNegativeInt(field string, value int64) *Validator {
	if value < 0 {
		v.fail(field, "must be >= 0, got %d", value)
	}
	return v
}

func (v *Validator) Positive(field string, value float64) *Validator {
	if value <= 0 {
		v.fail(field, "must be > 0, got %v", value)
	}
	return v
}

func (v *Validator) Between(field string, value, lo, hi float64) *Validator {
	if value < lo || value > hi {
		v.fail(field, "must be between %v and %v, got %v", lo, hi, value)
	}
	return v
}

// AtMost checks value <= limit, where limit is the value of limitField on the same row.
func (v *Validator) AtMost(field string, value float64, limitField string, limit float64) *Validator {
	if value > limit {
		v.fail(field, "must not exceed %s (%v), got %v", limitField, limit, value)
	}
	return v
}

func (v *Validator) NotBefore(field string, value time.Time, refField string, ref time.Time) *Validator {
	if value.Before(ref) {
		v.fail(field, "must not be before %s", refField)
	}
	return v
}

func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.fail(field, "is required")
	}
	return v
}

// Check folds in an error produced elsewhere, such as an enum check.
func (v *Validator) Check(err error) *Validator {
	if v.err == nil && err != nil {
		v.err = err
	}
	return v
}

func (v *Validator) Err() error {
	return v.err
}
