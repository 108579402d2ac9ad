// package poserr defines the typed error taxonomy used at the boundary of
// the proof-plan engine: input-validation errors raised before any
// transcript activity, and verification errors returned fail-closed by the
// verifier.
package poserr

import "fmt"

// Kind tags the category of a boundary error.
type Kind string

const (
	KindParseError        Kind = "ParseError"
	KindColumnNotFound    Kind = "ColumnNotFound"
	KindTableNotFound     Kind = "TableNotFound"
	KindTypeMismatch      Kind = "TypeMismatch"
	KindUnsupported       Kind = "Unsupported"
	KindPrecisionOverflow Kind = "PrecisionOverflow"
	KindVerificationError Kind = "VerificationError"
)

// Error is the common boundary error type. Stage is only meaningful for
// KindVerificationError, identifying which pipeline step rejected.
type Error struct {
	Kind  Kind
	Stage string
	Msg   string
	Err   error
}

func (e *Error) Error() string {
	if e.Stage != "" {
		return fmt.Sprintf("%s[%s]: %s", e.Kind, e.Stage, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func ParseErrorf(format string, args ...any) *Error {
	return newf(KindParseError, format, args...)
}

func ColumnNotFound(table, column string) *Error {
	return newf(KindColumnNotFound, "column %q not found in table %q", column, table)
}

func TableNotFound(table string) *Error {
	return newf(KindTableNotFound, "table %q not found", table)
}

func TypeMismatchf(format string, args ...any) *Error {
	return newf(KindTypeMismatch, format, args...)
}

func Unsupportedf(format string, args ...any) *Error {
	return newf(KindUnsupported, format, args...)
}

func PrecisionOverflowf(format string, args ...any) *Error {
	return newf(KindPrecisionOverflow, format, args...)
}

// VerificationError builds a fail-closed verification error tagged with the
// pipeline stage that rejected. The verifier never continues past one of
// these and never wraps prover secrets into Msg.
func VerificationError(stage, format string, args ...any) *Error {
	e := newf(KindVerificationError, format, args...)
	e.Stage = stage
	return e
}

// Is lets callers use errors.Is(err, poserr.KindVerificationError-style
// sentinels) by comparing Kind; two *Error values are "the same kind" for
// errors.Is purposes when their Kind matches and Stage either matches or
// the target's Stage is empty (wildcard).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Kind != t.Kind {
		return false
	}
	return t.Stage == "" || t.Stage == e.Stage
}
