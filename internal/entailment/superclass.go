package entailment

import (
	"github.com/funvibe/lumen/internal/diagnostics"
	"github.com/funvibe/lumen/internal/environment"
	"github.com/funvibe/lumen/internal/typesystem"
)

// NewDictionaries builds the descriptor for a dictionary entering scope
// under the given identifier, together with derived descriptors for every
// transitively implied superclass. Derived descriptors carry the accessor
// path back to the base dictionary; all of them are local assumptions.
func (s *Solver) NewDictionaries(path []environment.ClassIndex, ident typesystem.Qualified, con typesystem.Constraint) ([]*environment.InstanceDescriptor, error) {
	classData, ok := s.env.TypeClass(con.Class)
	if !ok {
		return nil, diagnostics.NewUnknownClass(con, s.hintStack())
	}

	subst := make(map[string]typesystem.Type, len(classData.Params))
	for i, param := range classData.Params {
		if i < len(con.Args) {
			subst[param] = con.Args[i]
		}
	}

	var result []*environment.InstanceDescriptor
	for i, superclass := range classData.Superclasses {
		superCon := superclass.MapArgs(func(t typesystem.Type) typesystem.Type {
			return typesystem.ReplaceTypeVars(t, subst)
		})
		superPath := make([]environment.ClassIndex, 0, len(path)+1)
		superPath = append(superPath, environment.ClassIndex{Class: superclass.Class, Index: i})
		superPath = append(superPath, path...)
		derived, err := s.NewDictionaries(superPath, ident, superCon)
		if err != nil {
			return nil, err
		}
		result = append(result, derived...)
	}

	result = append(result, &environment.InstanceDescriptor{
		Evidence:      environment.NamedInstance{Name: ident},
		Path:          path,
		ClassName:     con.Class,
		InstanceTypes: con.Args,
	})
	return result, nil
}
