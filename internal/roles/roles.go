// Package roles infers the role of every parameter of a data type:
// whether the parameter's representation affects the representation of the
// containing type. Coercible solving depends on these.
package roles

import (
	"github.com/funvibe/lumen/internal/config"
	"github.com/funvibe/lumen/internal/environment"
	"github.com/funvibe/lumen/internal/typesystem"
)

// Role of a type parameter.
type Role int

const (
	// Phantom parameters never appear in a runtime-relevant position.
	Phantom Role = iota
	// Representational parameters feed into the runtime representation.
	Representational
)

func (r Role) String() string {
	if r == Representational {
		return "representational"
	}
	return "phantom"
}

// join is pointwise: Phantom is the identity, Representational absorbs.
func (r Role) join(other Role) Role {
	if r == Representational || other == Representational {
		return Representational
	}
	return Phantom
}

// ParamRole pairs a declared parameter with its inferred role.
type ParamRole struct {
	Param string
	Role  Role
}

var primRoles = map[typesystem.Qualified][]ParamRole{
	typesystem.Prim(config.FunctionTypeName): {
		{Param: "a", Role: Representational},
		{Param: "b", Role: Representational},
	},
	typesystem.Prim(config.ArrayTypeName): {
		{Param: "a", Role: Representational},
	},
	typesystem.Prim(config.RecordTypeName): {
		{Param: "r", Role: Representational},
	},
}

// InferRoles returns the roles of a named type's parameters in declaration
// order. Unknown types have no entries.
func InferRoles(env *environment.Environment, typeName typesystem.Qualified) []ParamRole {
	inf := &inferrer{
		env:        env,
		memo:       make(map[typesystem.Qualified][]ParamRole),
		inProgress: make(map[typesystem.Qualified]bool),
	}
	return inf.rolesOf(typeName)
}

type inferrer struct {
	env        *environment.Environment
	memo       map[typesystem.Qualified][]ParamRole
	inProgress map[typesystem.Qualified]bool
}

func (inf *inferrer) rolesOf(typeName typesystem.Qualified) []ParamRole {
	if prim, ok := primRoles[typeName]; ok {
		return prim
	}
	if cached, ok := inf.memo[typeName]; ok {
		return cached
	}
	decl, ok := inf.env.Types[typeName]
	if !ok {
		return nil
	}
	if inf.inProgress[typeName] {
		// Recursive occurrence: contribute nothing for now. Phantom is the
		// identity of the join, so the enclosing computation still reaches
		// the least fixed point.
		phantom := make([]ParamRole, len(decl.Params))
		for i, param := range decl.Params {
			phantom[i] = ParamRole{Param: param, Role: Phantom}
		}
		return phantom
	}
	inf.inProgress[typeName] = true

	acc := make(map[string]Role)
	for _, ctor := range decl.Constructors {
		for _, field := range ctor.Fields {
			inf.walk(field, acc)
		}
	}

	result := make([]ParamRole, len(decl.Params))
	for i, param := range decl.Params {
		result[i] = ParamRole{Param: param, Role: acc[param]}
	}

	delete(inf.inProgress, typeName)
	inf.memo[typeName] = result
	return result
}

// walk folds the role contribution of one field type into acc. Variables
// bound by quantifiers inside the field may land in acc too; the final
// projection over declared parameters discards them.
func (inf *inferrer) walk(t typesystem.Type, acc map[string]Role) {
	switch typ := t.(type) {
	case typesystem.TypeVar:
		acc[typ.Name] = acc[typ.Name].join(Representational)
	case typesystem.ForAll:
		inf.walk(typ.Body, acc)
	case typesystem.KindedType:
		inf.walk(typ.Inner, acc)
	case typesystem.RCons:
		inf.walk(typ.Head, acc)
		inf.walk(typ.Tail, acc)
	case typesystem.TypeApp:
		head, args := typesystem.UnapplyTypes(typ)
		if tc, ok := head.(typesystem.TypeConstructor); ok {
			headRoles := inf.rolesOf(tc.Name)
			for i, arg := range args {
				if i >= len(headRoles) {
					break
				}
				if headRoles[i].Role == Representational {
					inf.walk(arg, acc)
				}
			}
			return
		}
		inf.walk(head, acc)
		for _, arg := range args {
			inf.walk(arg, acc)
		}
	}
}
