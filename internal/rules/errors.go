package rules

import (
	"errors"
	"fmt"
)

// Kind classifies why a mutation was refused.
type Kind string

const (
	KindConstraintViolation       Kind = "constraint_violation"
	KindIllegalTransition         Kind = "illegal_transition"
	KindBusinessRuleViolation     Kind = "business_rule_violation"
	KindReferentialCascadeFailure Kind = "referential_cascade_failure"
)

// Error is returned for every refused mutation. Message is safe to show to callers.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels below, and any *Error with the same kind and code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

var (
	ErrConstraintViolation       = &Error{Kind: KindConstraintViolation, Message: "constraint_violation"}
	ErrIllegalTransition         = &Error{Kind: KindIllegalTransition, Message: "illegal_transition"}
	ErrBusinessRuleViolation     = &Error{Kind: KindBusinessRuleViolation, Message: "business_rule_violation"}
	ErrReferentialCascadeFailure = &Error{Kind: KindReferentialCascadeFailure, Message: "referential_cascade_failure"}
)

const (
	CodeCommercialUseNotAllowed = "commercial_use_not_allowed"
	CodeUsageLimitExceeded      = "license_usage_limit_exceeded"
	CodeUniqueViolation         = "unique_violation"
	CodeForeignKeyViolation     = "foreign_key_violation"
	CodeCheckViolation          = "check_violation"
)

func Constraint(code, message string) *Error {
	return &Error{Kind: KindConstraintViolation, Code: code, Message: message}
}

// IllegalTransition formats the rejection of a state change on field.
func IllegalTransition(field, from, to string) *Error {
	return &Error{
		Kind:    KindIllegalTransition,
		Code:    "transition_" + field,
		Message: fmt.Sprintf("Invalid %s transition: %s -> %s", field, from, to),
	}
}

func BusinessRule(code, message string) *Error {
	return &Error{Kind: KindBusinessRuleViolation, Code: code, Message: message}
}

func CommercialUseNotAllowed() *Error {
	return BusinessRule(CodeCommercialUseNotAllowed, "Cannot create commercial license for identity that does not allow commercial use")
}

func UsageLimitExceeded(current, limit int64) *Error {
	return BusinessRule(CodeUsageLimitExceeded, fmt.Sprintf("License usage limit exceeded: %d > %d", current, limit))
}

// CascadeFailure wraps the error raised by one cascade step. A nil err yields nil.
func CascadeFailure(step string, err error) error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) && already.Kind == KindReferentialCascadeFailure {
		return err
	}
	return &Error{
		Kind:    KindReferentialCascadeFailure,
		Code:    "cascade_" + step,
		Message: fmt.Sprintf("cascade %s failed: %s", step, err.Error()),
		Err:     err,
	}
}

// KindOf reports the kind of the outermost rule error in err's chain.
func KindOf(err error) (Kind, bool) {
	var re *Error
	if errors.As(err, &re) {
		return re.Kind, true
	}
	return "", false
}

// CodeOf reports the code of the outermost rule error in err's chain.
func CodeOf(err error) string {
	var re *Error
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func IsRuleError(err error) bool {
	_, ok := KindOf(err)
	return ok
}
