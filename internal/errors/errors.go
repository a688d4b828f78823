// Package errors collects user-facing diagnostics the way each
// compiler stage reports them: accumulated during a tree walk,
// inspected at the stage boundary, never thrown. Mirrors the
// collector shape of the teacher's internal/errors.SentraError, but
// tags each diagnostic with the Phase that reported it, and wraps truly internal bugs with
// github.com/pkg/errors so a stack trace is available under -debug.
package errors

import (
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Phase identifies which stage reported a diagnostic. The driver
// picks the exit code from the stage it is running, not from Phase.
type Phase int

const (
	PhaseSyntax Phase = iota + 1
	PhaseName
	PhaseType
)

// Diagnostic is one user-facing error with a source location.
type Diagnostic struct {
	Phase   Phase
	Line    int
	Column  int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d:%d %s", d.Line, d.Column, d.Message)
}

// Collector accumulates diagnostics for one compiler stage.
type Collector struct {
	Phase       Phase
	Diagnostics []Diagnostic
}

func NewCollector(phase Phase) *Collector {
	return &Collector{Phase: phase}
}

// Errorf records a diagnostic at the given location.
func (c *Collector) Errorf(line, col int, format string, args ...any) {
	c.Diagnostics = append(c.Diagnostics, Diagnostic{
		Phase:   c.Phase,
		Line:    line,
		Column:  col,
		Message: fmt.Sprintf(format, args...),
	})
}

// HasErrors reports whether any diagnostic was recorded.
func (c *Collector) HasErrors() bool { return len(c.Diagnostics) > 0 }

// InternalError marks a violated compiler invariant (type-stack
// underflow, an AST/type switch missing a case for a value that
// cannot exist given an already-accepted program). These are never
// shown to the user as ordinary diagnostics; the driver recovers them
// at the top level and prints only the message unless -debug is set,
// per SPEC_FULL.md §7.
type InternalError struct {
	cause error
}

func (e *InternalError) Error() string { return e.cause.Error() }
func (e *InternalError) Unwrap() error { return e.cause }

// NewInternalError wraps msg with a captured stack trace.
func NewInternalError(format string, args ...any) *InternalError {
	return &InternalError{cause: pkgerrors.Errorf(format, args...)}
}

// StackTrace renders the captured stack, or "" if none was attached
// (e.g. the wrapped error didn't come from pkg/errors).
func StackTrace(err error) string {
	type stackTracer interface {
		StackTrace() pkgerrors.StackTrace
	}
	if st, ok := err.(stackTracer); ok {
		return fmt.Sprintf("%+v", st.StackTrace())
	}
	if ie, ok := err.(*InternalError); ok {
		return StackTrace(ie.cause)
	}
	return ""
}
