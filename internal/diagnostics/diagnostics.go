// Package diagnostics defines the errors and warnings the entailment solver
// emits, and renders them for the terminal.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/funvibe/lumen/internal/typesystem"
)

// Kind classifies a solver diagnostic.
type Kind int

const (
	UnknownClass Kind = iota
	NoInstanceFound
	OverlappingInstances
	PossiblyInfiniteInstance
	UserDefinedWarning
)

func (k Kind) String() string {
	switch k {
	case UnknownClass:
		return "UnknownClass"
	case NoInstanceFound:
		return "NoInstanceFound"
	case OverlappingInstances:
		return "OverlappingInstances"
	case PossiblyInfiniteInstance:
		return "PossiblyInfiniteInstance"
	case UserDefinedWarning:
		return "UserDefinedWarning"
	default:
		return "Unknown"
	}
}

// DiagnosticError is a solver failure. Hints is the stack of constraints
// being solved when the failure occurred, outermost first.
type DiagnosticError struct {
	Kind       Kind
	Message    string
	Constraint typesystem.Constraint
	Hints      []typesystem.Constraint
}

func (e *DiagnosticError) Error() string {
	if len(e.Hints) == 0 {
		return e.Message
	}
	var b strings.Builder
	b.WriteString(e.Message)
	for _, hint := range e.Hints {
		b.WriteString("\n  while solving ")
		b.WriteString(hint.String())
	}
	return b.String()
}

// NewUnknownClass reports a constraint over a class missing from the
// environment.
func NewUnknownClass(con typesystem.Constraint, hints []typesystem.Constraint) *DiagnosticError {
	return &DiagnosticError{
		Kind:       UnknownClass,
		Message:    fmt.Sprintf("unknown type class %s", con.Class),
		Constraint: con,
		Hints:      hints,
	}
}

// NewNoInstanceFound reports that no instance satisfies the constraint.
func NewNoInstanceFound(con typesystem.Constraint, hints []typesystem.Constraint) *DiagnosticError {
	return &DiagnosticError{
		Kind:       NoInstanceFound,
		Message:    fmt.Sprintf("no type class instance was found for %s", con),
		Constraint: con,
		Hints:      hints,
	}
}

// NewOverlappingInstances reports multiple candidate instances with distinct
// evidence.
func NewOverlappingInstances(con typesystem.Constraint, evidences []string, hints []typesystem.Constraint) *DiagnosticError {
	return &DiagnosticError{
		Kind:       OverlappingInstances,
		Message:    fmt.Sprintf("overlapping instances for %s: %s", con, strings.Join(evidences, ", ")),
		Constraint: con,
		Hints:      hints,
	}
}

// NewPossiblyInfiniteInstance reports the work budget was exhausted.
func NewPossiblyInfiniteInstance(con typesystem.Constraint, hints []typesystem.Constraint) *DiagnosticError {
	return &DiagnosticError{
		Kind:       PossiblyInfiniteInstance,
		Message:    fmt.Sprintf("possibly infinite instance resolution for %s", con),
		Constraint: con,
		Hints:      hints,
	}
}

// Warning is a non-fatal diagnostic recorded during solving.
type Warning struct {
	Kind    Kind
	Message string
}

// Collector accumulates warnings for one compilation task.
type Collector struct {
	Warnings []Warning
}

func NewCollector() *Collector {
	return &Collector{}
}

// AddUserDefinedWarning records a warning produced by a Warn constraint.
func (c *Collector) AddUserDefinedWarning(message string) {
	c.Warnings = append(c.Warnings, Warning{Kind: UserDefinedWarning, Message: message})
}
