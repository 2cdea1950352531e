package entailment

import (
	"strings"
	"unicode/utf8"

	"github.com/funvibe/lumen/internal/config"
	"github.com/funvibe/lumen/internal/environment"
	"github.com/funvibe/lumen/internal/roles"
	"github.com/funvibe/lumen/internal/typesystem"
)

// solveBuiltin runs the per-class decision procedure for the compiler-solved
// classes. The second result is false when the class is not compiler-solved
// or the procedure has no opinion yet; the generic candidate path continues.
// A true result with no candidates is a definitive "no instance".
func (s *Solver) solveBuiltin(ctx environment.InstanceContext, con typesystem.Constraint) ([]*environment.InstanceDescriptor, bool) {
	if con.Class.Module != config.PrimModule {
		return nil, false
	}
	args := con.Args
	switch con.Class.Name {
	case config.WarnClassName:
		return s.solveWarn(ctx, con), true
	case config.CoercibleClassName:
		if len(args) == 2 {
			return s.solveCoercible(con)
		}
	case config.IsSymbolClassName:
		if len(args) == 1 {
			return solveIsSymbol(con)
		}
	case config.SymbolCompareClassName:
		if len(args) == 3 {
			return solveSymbolCompare(con)
		}
	case config.SymbolAppendClassName:
		if len(args) == 3 {
			return solveSymbolAppend(con)
		}
	case config.SymbolConsClassName:
		if len(args) == 3 {
			return solveSymbolCons(con)
		}
	case config.RowUnionClassName:
		if len(args) == 3 {
			return s.solveRowUnion(con)
		}
	case config.RowNubClassName:
		if len(args) == 2 {
			return solveRowNub(con)
		}
	case config.RowLacksClassName:
		if len(args) == 2 {
			return solveRowLacks(con)
		}
	case config.RowConsClassName:
		if len(args) == 4 {
			return solveRowCons(con)
		}
	case config.RowToListClassName:
		if len(args) == 2 {
			return solveRowToList(con)
		}
	}
	return nil, false
}

// builtinDescriptor is a solver-synthesized dictionary: never chained,
// never derived.
func builtinDescriptor(class typesystem.Qualified, instanceTypes []typesystem.Type, deps []typesystem.Constraint, evidence environment.Evidence) *environment.InstanceDescriptor {
	return &environment.InstanceDescriptor{
		Evidence:      evidence,
		ClassName:     class,
		InstanceTypes: instanceTypes,
		Dependencies:  &deps,
	}
}

func literalString(t typesystem.Type) (string, bool) {
	lit, ok := typesystem.UnwrapKinded(t).(typesystem.TypeLevelString)
	return lit.Value, ok
}

// solveWarn returns the in-scope user dictionaries first and appends the
// synthesized warning. The order is deliberate: with several winners the
// stable shortest-path pick lands on the user-provided dictionary, which is
// how a user re-introducing the constraint defers the warning.
func (s *Solver) solveWarn(ctx environment.InstanceContext, con typesystem.Constraint) []*environment.InstanceDescriptor {
	candidates := findCandidates(ctx, s.currentModule, con.Class, con.Args)
	synthesized := &environment.InstanceDescriptor{
		Evidence:      environment.WarnInstance{Message: con.Args[0]},
		ClassName:     con.Class,
		InstanceTypes: con.Args,
	}
	return append(candidates, synthesized)
}

func (s *Solver) solveCoercible(con typesystem.Constraint) ([]*environment.InstanceDescriptor, bool) {
	a, err1 := s.env.ExpandAllSynonyms(con.Args[0])
	b, err2 := s.env.ExpandAllSynonyms(con.Args[1])
	if err1 != nil || err2 != nil {
		return nil, false
	}

	success := func(deps []typesystem.Constraint) ([]*environment.InstanceDescriptor, bool) {
		return []*environment.InstanceDescriptor{
			builtinDescriptor(con.Class, con.Args, deps, environment.EmptyClassInstance{}),
		}, true
	}

	if typesystem.TypesEqual(typesystem.UnwrapKinded(a), typesystem.UnwrapKinded(b)) {
		return success(nil)
	}
	if deps, ok := s.reduceCoercible(a, b); ok {
		return success(deps)
	}
	if deps, ok := s.reduceCoercible(b, a); ok {
		return success(deps)
	}
	if typesystem.ContainsUnknown(a) || typesystem.ContainsUnknown(b) {
		// not enough information yet; leave the constraint to a later pass
		return nil, false
	}
	return nil, true
}

// reduceCoercible unwraps one layer on the left side: a bare newtype, a
// congruence between equal constructor heads modulated by roles, or a
// saturated newtype application.
func (s *Solver) reduceCoercible(a, b typesystem.Type) ([]typesystem.Constraint, bool) {
	head, args := typesystem.UnapplyTypes(a)
	tc, ok := head.(typesystem.TypeConstructor)
	if !ok {
		return nil, false
	}

	coercible := func(x, y typesystem.Type) typesystem.Constraint {
		return typesystem.Constraint{Class: typesystem.Prim(config.CoercibleClassName), Args: []typesystem.Type{x, y}}
	}

	if nt, isNewtype := s.env.NewtypeConstructor(tc.Name); isNewtype && len(args) == 0 && len(nt.Params) == 0 {
		return []typesystem.Constraint{coercible(nt.WrappedType, b)}, true
	}

	if bHead, bArgs := typesystem.UnapplyTypes(b); len(args) > 0 {
		if bTC, ok := bHead.(typesystem.TypeConstructor); ok && bTC.Name == tc.Name && len(bArgs) == len(args) {
			headRoles := roles.InferRoles(s.env, tc.Name)
			if len(args) <= len(headRoles) {
				var deps []typesystem.Constraint
				for i := range args {
					if headRoles[i].Role == roles.Representational {
						deps = append(deps, coercible(args[i], bArgs[i]))
					}
				}
				return deps, true
			}
		}
	}

	if nt, isNewtype := s.env.NewtypeConstructor(tc.Name); isNewtype && len(args) == len(nt.Params) {
		subst := make(map[string]typesystem.Type, len(nt.Params))
		for i, param := range nt.Params {
			subst[param] = args[i]
		}
		wrapped := typesystem.ReplaceTypeVars(nt.WrappedType, subst)
		return []typesystem.Constraint{coercible(wrapped, b)}, true
	}
	return nil, false
}

func solveIsSymbol(con typesystem.Constraint) ([]*environment.InstanceDescriptor, bool) {
	sym, ok := literalString(con.Args[0])
	if !ok {
		return nil, false
	}
	return []*environment.InstanceDescriptor{
		builtinDescriptor(con.Class, con.Args, nil, environment.IsSymbolInstance{Symbol: sym}),
	}, true
}

func solveSymbolCompare(con typesystem.Constraint) ([]*environment.InstanceDescriptor, bool) {
	lhs, lOK := literalString(con.Args[0])
	rhs, rOK := literalString(con.Args[1])
	if !lOK || !rOK {
		return nil, false
	}
	ordering := config.OrderingEQName
	switch {
	case lhs < rhs:
		ordering = config.OrderingLTName
	case lhs > rhs:
		ordering = config.OrderingGTName
	}
	instanceTypes := []typesystem.Type{
		con.Args[0],
		con.Args[1],
		typesystem.TypeConstructor{Name: typesystem.Prim(ordering)},
	}
	return []*environment.InstanceDescriptor{
		builtinDescriptor(con.Class, instanceTypes, nil, environment.EmptyClassInstance{}),
	}, true
}

// solveSymbolAppend derives whichever of the three positions is missing
// from the other two. More than one missing position is no opinion; a
// contradiction among known literals is a definitive failure.
func solveSymbolAppend(con typesystem.Constraint) ([]*environment.InstanceDescriptor, bool) {
	left, lOK := literalString(con.Args[0])
	right, rOK := literalString(con.Args[1])
	appended, aOK := literalString(con.Args[2])

	lit := func(s string) typesystem.Type { return typesystem.TypeLevelString{Value: s} }
	success := func(instanceTypes []typesystem.Type) ([]*environment.InstanceDescriptor, bool) {
		return []*environment.InstanceDescriptor{
			builtinDescriptor(con.Class, instanceTypes, nil, environment.EmptyClassInstance{}),
		}, true
	}

	switch {
	case lOK && rOK:
		return success([]typesystem.Type{con.Args[0], con.Args[1], lit(left + right)})
	case lOK && aOK:
		if !strings.HasPrefix(appended, left) {
			return nil, true
		}
		return success([]typesystem.Type{con.Args[0], lit(appended[len(left):]), con.Args[2]})
	case rOK && aOK:
		if !strings.HasSuffix(appended, right) {
			return nil, true
		}
		return success([]typesystem.Type{lit(appended[:len(appended)-len(right)]), con.Args[1], con.Args[2]})
	default:
		return nil, false
	}
}

// solveSymbolCons decomposes a known non-empty symbol into head and tail,
// or composes a single-character head with a tail.
func solveSymbolCons(con typesystem.Constraint) ([]*environment.InstanceDescriptor, bool) {
	head, hOK := literalString(con.Args[0])
	tail, tOK := literalString(con.Args[1])
	full, fOK := literalString(con.Args[2])

	lit := func(s string) typesystem.Type { return typesystem.TypeLevelString{Value: s} }
	success := func(instanceTypes []typesystem.Type) ([]*environment.InstanceDescriptor, bool) {
		return []*environment.InstanceDescriptor{
			builtinDescriptor(con.Class, instanceTypes, nil, environment.EmptyClassInstance{}),
		}, true
	}

	switch {
	case fOK:
		first, size := utf8.DecodeRuneInString(full)
		if size == 0 || first == utf8.RuneError && size == 1 {
			return nil, true
		}
		return success([]typesystem.Type{lit(full[:size]), lit(full[size:]), con.Args[2]})
	case hOK && tOK:
		if utf8.RuneCountInString(head) != 1 {
			return nil, true
		}
		return success([]typesystem.Type{con.Args[0], con.Args[1], lit(head + tail)})
	default:
		return nil, false
	}
}

// solveRowUnion computes a left-biased union. A closed left row commits
// immediately; an open left row with at least one known label commits the
// known prefix and recurses on the tail.
func (s *Solver) solveRowUnion(con typesystem.Constraint) ([]*environment.InstanceDescriptor, bool) {
	fixed, tail := typesystem.RowToList(con.Args[0])

	success := func(union typesystem.Type, deps []typesystem.Constraint) ([]*environment.InstanceDescriptor, bool) {
		instanceTypes := []typesystem.Type{con.Args[0], con.Args[1], union}
		return []*environment.InstanceDescriptor{
			builtinDescriptor(con.Class, instanceTypes, deps, environment.EmptyClassInstance{}),
		}, true
	}

	switch tail.(type) {
	case typesystem.REmpty:
		rightEntries, rightTail := typesystem.RowToList(con.Args[1])
		labels := make(map[string]bool, len(fixed))
		for _, entry := range fixed {
			labels[entry.Label] = true
		}
		merged := append([]typesystem.RowEntry{}, fixed...)
		for _, entry := range rightEntries {
			if !labels[entry.Label] {
				merged = append(merged, entry)
			}
		}
		return success(typesystem.RowFromList(merged, rightTail), nil)
	case typesystem.TUnknown, typesystem.TypeVar, typesystem.Skolem:
		if len(fixed) == 0 {
			return nil, false
		}
		rest := s.unifier.Fresh()
		dep := typesystem.Constraint{
			Class: con.Class,
			Args:  []typesystem.Type{tail, con.Args[1], rest},
		}
		return success(typesystem.RowFromList(fixed, rest), []typesystem.Constraint{dep})
	default:
		return nil, false
	}
}

func solveRowNub(con typesystem.Constraint) ([]*environment.InstanceDescriptor, bool) {
	entries, tail := typesystem.RowToList(con.Args[0])
	if _, closed := tail.(typesystem.REmpty); !closed {
		return nil, false
	}
	sorted := typesystem.SortRowEntries(entries)
	var nubbed []typesystem.RowEntry
	for i, entry := range sorted {
		if i == 0 || sorted[i-1].Label != entry.Label {
			nubbed = append(nubbed, entry)
		}
	}
	instanceTypes := []typesystem.Type{con.Args[0], typesystem.RowFromList(nubbed, typesystem.REmpty{})}
	return []*environment.InstanceDescriptor{
		builtinDescriptor(con.Class, instanceTypes, nil, environment.EmptyClassInstance{}),
	}, true
}

func solveRowLacks(con typesystem.Constraint) ([]*environment.InstanceDescriptor, bool) {
	label, ok := literalString(con.Args[0])
	if !ok {
		return nil, false
	}
	fixed, tail := typesystem.RowToList(con.Args[1])
	for _, entry := range fixed {
		if entry.Label == label {
			return nil, true
		}
	}

	success := func(deps []typesystem.Constraint) ([]*environment.InstanceDescriptor, bool) {
		return []*environment.InstanceDescriptor{
			builtinDescriptor(con.Class, con.Args, deps, environment.EmptyClassInstance{}),
		}, true
	}

	switch tail.(type) {
	case typesystem.REmpty:
		return success(nil)
	case typesystem.TUnknown, typesystem.TypeVar, typesystem.Skolem:
		if len(fixed) == 0 {
			return nil, false
		}
		dep := typesystem.Constraint{Class: con.Class, Args: []typesystem.Type{con.Args[0], tail}}
		return success([]typesystem.Constraint{dep})
	default:
		return nil, false
	}
}

func solveRowCons(con typesystem.Constraint) ([]*environment.InstanceDescriptor, bool) {
	label, ok := literalString(con.Args[0])
	if !ok {
		return nil, false
	}
	row := typesystem.RCons{Label: label, Head: con.Args[1], Tail: con.Args[2]}
	instanceTypes := []typesystem.Type{con.Args[0], con.Args[1], con.Args[2], row}
	return []*environment.InstanceDescriptor{
		builtinDescriptor(con.Class, instanceTypes, nil, environment.EmptyClassInstance{}),
	}, true
}

func solveRowToList(con typesystem.Constraint) ([]*environment.InstanceDescriptor, bool) {
	entries, tail := typesystem.RowToList(con.Args[0])
	if _, closed := tail.(typesystem.REmpty); !closed {
		return nil, false
	}
	sorted := typesystem.SortRowEntries(entries)
	var list typesystem.Type = typesystem.TypeConstructor{Name: typesystem.Prim(config.RowListNilName)}
	for i := len(sorted) - 1; i >= 0; i-- {
		list = typesystem.MkTypeApp(
			typesystem.TypeConstructor{Name: typesystem.Prim(config.RowListConsName)},
			typesystem.TypeLevelString{Value: sorted[i].Label},
			sorted[i].Type,
			list,
		)
	}
	instanceTypes := []typesystem.Type{con.Args[0], list}
	return []*environment.InstanceDescriptor{
		builtinDescriptor(con.Class, instanceTypes, nil, environment.EmptyClassInstance{}),
	}, true
}
