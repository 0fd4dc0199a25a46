package schema

import "fmt"

// UsageError indicates a contract violation by the caller, such as
// mutating a frozen model or referencing an unknown field name. It is
// not locally recoverable.
type UsageError struct {
	Msg string
}

func (e *UsageError) Error() string {
	return "schema: " + e.Msg
}

func usageErrorf(format string, args ...any) *UsageError {
	return &UsageError{Msg: fmt.Sprintf(format, args...)}
}

// CompatibilityError indicates a structural or type mismatch between a
// projected field and its mapped source field. It is returned as an
// inspectable failure from the projection API, since callers may
// legitimately probe whether a mapping is feasible.
type CompatibilityError struct {
	Target string
	Source string
	Reason string
}

func (e *CompatibilityError) Error() string {
	return fmt.Sprintf("schema: field mapping %s: %s --> %s", e.Reason, e.Source, e.Target)
}
