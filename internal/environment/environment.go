// Package environment holds the compiler environment the entailment solver
// consults: type classes, data declarations, newtypes, type synonyms, and
// the dictionaries currently in scope.
package environment

import (
	"fmt"

	"github.com/funvibe/lumen/internal/typesystem"
)

// FunctionalDependency declares that some class parameters determine others,
// both given as indices into the class's parameter list.
type FunctionalDependency struct {
	Determiners []int
	Determined  []int
}

// TypeClassData is the environment entry for a declared type class.
type TypeClassData struct {
	Params       []string
	Superclasses []typesystem.Constraint // templates over Params
	Dependencies []FunctionalDependency
}

// DataConstructor is one constructor of a data declaration.
type DataConstructor struct {
	Name   string
	Fields []typesystem.Type
}

// DataDeclaration is the environment entry for a data type.
type DataDeclaration struct {
	Params       []string
	Constructors []DataConstructor
}

// NewtypeData describes a newtype: a single constructor wrapping one field.
type NewtypeData struct {
	Params      []string
	WrappedType typesystem.Type
	Constructor string
}

// TypeSynonym is a parameterized type alias.
type TypeSynonym struct {
	Params []string
	Body   typesystem.Type
}

// Environment is the scope the solver runs against. One environment belongs
// to one compilation task.
type Environment struct {
	TypeClasses map[typesystem.Qualified]*TypeClassData
	Types       map[typesystem.Qualified]*DataDeclaration
	Newtypes    map[typesystem.Qualified]*NewtypeData
	Synonyms    map[typesystem.Qualified]*TypeSynonym
}

func NewEnvironment() *Environment {
	return &Environment{
		TypeClasses: make(map[typesystem.Qualified]*TypeClassData),
		Types:       make(map[typesystem.Qualified]*DataDeclaration),
		Newtypes:    make(map[typesystem.Qualified]*NewtypeData),
		Synonyms:    make(map[typesystem.Qualified]*TypeSynonym),
	}
}

// TypeClass looks up a class by name.
func (e *Environment) TypeClass(name typesystem.Qualified) (*TypeClassData, bool) {
	tc, ok := e.TypeClasses[name]
	return tc, ok
}

// NewtypeConstructor looks up the newtype description for a type name.
func (e *Environment) NewtypeConstructor(name typesystem.Qualified) (*NewtypeData, bool) {
	nt, ok := e.Newtypes[name]
	return nt, ok
}

// ExpandAllSynonyms fully expands every type synonym occurring in t.
// An under-applied synonym is an error.
func (e *Environment) ExpandAllSynonyms(t typesystem.Type) (typesystem.Type, error) {
	head, args := typesystem.UnapplyTypes(t)
	if tc, ok := head.(typesystem.TypeConstructor); ok {
		if syn, isSyn := e.Synonyms[tc.Name]; isSyn {
			if len(args) < len(syn.Params) {
				return nil, fmt.Errorf("partially applied type synonym %s", tc.Name)
			}
			subst := make(map[string]typesystem.Type, len(syn.Params))
			for i, param := range syn.Params {
				subst[param] = args[i]
			}
			expanded := typesystem.MkTypeApp(typesystem.ReplaceTypeVars(syn.Body, subst), args[len(syn.Params):]...)
			return e.ExpandAllSynonyms(expanded)
		}
	}

	switch typ := t.(type) {
	case typesystem.TypeApp:
		fn, err := e.ExpandAllSynonyms(typ.Fn)
		if err != nil {
			return nil, err
		}
		arg, err := e.ExpandAllSynonyms(typ.Arg)
		if err != nil {
			return nil, err
		}
		return typesystem.TypeApp{Fn: fn, Arg: arg}, nil
	case typesystem.ForAll:
		body, err := e.ExpandAllSynonyms(typ.Body)
		if err != nil {
			return nil, err
		}
		return typesystem.ForAll{Var: typ.Var, Body: body, SkolemScope: typ.SkolemScope}, nil
	case typesystem.KindedType:
		inner, err := e.ExpandAllSynonyms(typ.Inner)
		if err != nil {
			return nil, err
		}
		return typesystem.KindedType{Inner: inner, Kind: typ.Kind}, nil
	case typesystem.RCons:
		head, err := e.ExpandAllSynonyms(typ.Head)
		if err != nil {
			return nil, err
		}
		tail, err := e.ExpandAllSynonyms(typ.Tail)
		if err != nil {
			return nil, err
		}
		return typesystem.RCons{Label: typ.Label, Head: head, Tail: tail}, nil
	default:
		return t, nil
	}
}
