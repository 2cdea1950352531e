// Package ast holds the elaborated-expression forms the dictionary pass
// produces and rewrites. The parser-facing surface syntax lives elsewhere;
// these nodes are what type checking leaves behind.
package ast

import (
	"github.com/funvibe/lumen/internal/environment"
	"github.com/funvibe/lumen/internal/typesystem"
)

// Expression is the base interface for all elaborated expressions.
type Expression interface {
	expressionNode()
}

// Var is a reference to a named value, possibly module-qualified.
type Var struct {
	Name typesystem.Qualified
}

// App is a function application.
type App struct {
	Fn  Expression
	Arg Expression
}

// Abs is a single-parameter abstraction.
type Abs struct {
	Param string
	Body  Expression
}

// Accessor projects a field out of a record expression.
type Accessor struct {
	Field string
	Expr  Expression
}

// RecordField is one labelled field of a record literal.
type RecordField struct {
	Label string
	Value Expression
}

// RecordLiteral constructs a record value.
type RecordLiteral struct {
	Fields []RecordField
}

// StringLiteral is a string constant.
type StringLiteral struct {
	Value string
}

// TypeClassDictionary is the placeholder the type checker leaves where a
// dictionary value is needed. The dictionary pass replaces every one of
// these with a synthesized term, or defers it for a later iteration.
type TypeClassDictionary struct {
	Constraint typesystem.Constraint
	Context    environment.InstanceContext
	Hints      []typesystem.Constraint // solving-constraint stack, outermost first
}

func (*Var) expressionNode()                 {}
func (*App) expressionNode()                 {}
func (*Abs) expressionNode()                 {}
func (*Accessor) expressionNode()            {}
func (*RecordLiteral) expressionNode()       {}
func (*StringLiteral) expressionNode()       {}
func (*TypeClassDictionary) expressionNode() {}

// MkApp applies fn to the given arguments left-associatively.
func MkApp(fn Expression, args ...Expression) Expression {
	e := fn
	for _, arg := range args {
		e = &App{Fn: e, Arg: arg}
	}
	return e
}
