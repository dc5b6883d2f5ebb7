package rules

import (
	"strings"

	"github.com/actorhub/actorhub/pkg/db"
)

// FromStore converts integrity errors raised by the database into constraint
// violations so callers see the same error whether the app or the store refused
// the write. Other errors pass through unchanged.
func FromStore(err error) error {
	if err == nil || IsRuleError(err) {
		return err
	}

	var code string
	switch {
	case db.IsDuplicateKeyErr(err):
		code = CodeUniqueViolation
	case db.IsCheckViolationErr(err):
		code = CodeCheckViolation
	case db.IsForeignKeyErr(err):
		code = CodeForeignKeyViolation
	default:
		return err
	}
	if name := constraintName(err); name != "" {
		code = name
	}
	return &Error{
		Kind:    KindConstraintViolation,
		Code:    code,
		Message: err.Error(),
		Err:     err,
	}
}

func constraintName(err error) string {
	if name := db.ConstraintName(err); name != "" {
		return name
	}
	// sqlite names expression indexes as: UNIQUE constraint failed: index 'uq_x'
	msg := err.Error()
	const marker = "index '"
	if idx := strings.Index(msg, marker); idx >= 0 {
		rest := msg[idx+len(marker):]
		if end := strings.IndexByte(rest, '\''); end > 0 {
			return rest[:end]
		}
	}
	return ""
}
