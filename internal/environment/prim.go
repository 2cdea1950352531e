package environment

import (
	"github.com/funvibe/lumen/internal/config"
	"github.com/funvibe/lumen/internal/typesystem"
)

// RegisterPrimClasses seeds the environment with the compiler-solved
// classes. Their instances are synthesized by the solver; what the
// environment contributes is arity and functional dependencies, which
// drive head matching for the output positions.
func RegisterPrimClasses(env *Environment) {
	register := func(name string, params []string, fdeps []FunctionalDependency) {
		env.TypeClasses[typesystem.Prim(name)] = &TypeClassData{
			Params:       params,
			Dependencies: fdeps,
		}
	}

	register(config.CoercibleClassName, []string{"a", "b"}, nil)
	register(config.IsSymbolClassName, []string{"sym"}, nil)
	register(config.WarnClassName, []string{"message"}, nil)

	register(config.SymbolCompareClassName, []string{"lhs", "rhs", "ordering"}, []FunctionalDependency{
		{Determiners: []int{0, 1}, Determined: []int{2}},
	})
	register(config.SymbolAppendClassName, []string{"left", "right", "appended"}, []FunctionalDependency{
		{Determiners: []int{0, 1}, Determined: []int{2}},
		{Determiners: []int{0, 2}, Determined: []int{1}},
		{Determiners: []int{1, 2}, Determined: []int{0}},
	})
	register(config.SymbolConsClassName, []string{"head", "tail", "symbol"}, []FunctionalDependency{
		{Determiners: []int{0, 1}, Determined: []int{2}},
		{Determiners: []int{2}, Determined: []int{0, 1}},
	})

	register(config.RowUnionClassName, []string{"left", "right", "union"}, []FunctionalDependency{
		{Determiners: []int{0, 1}, Determined: []int{2}},
		{Determiners: []int{1, 2}, Determined: []int{0}},
		{Determiners: []int{2, 0}, Determined: []int{1}},
	})
	register(config.RowNubClassName, []string{"original", "nubbed"}, []FunctionalDependency{
		{Determiners: []int{0}, Determined: []int{1}},
	})
	register(config.RowLacksClassName, []string{"label", "row"}, nil)
	register(config.RowConsClassName, []string{"label", "a", "tail", "row"}, []FunctionalDependency{
		{Determiners: []int{0, 1, 2}, Determined: []int{3}},
		{Determiners: []int{0, 3}, Determined: []int{1, 2}},
	})
	register(config.RowToListClassName, []string{"row", "list"}, []FunctionalDependency{
		{Determiners: []int{0}, Determined: []int{1}},
	})
}
