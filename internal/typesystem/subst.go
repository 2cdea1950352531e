package typesystem

// Substitution maps unification unknowns to the types they were solved to.
// It is owned by the Unifier and mutated in place as constraints are solved.
type Substitution map[int]Type

// Apply resolves every solved unknown in t, chasing chains of unknowns.
// Cycles are broken by leaving the unknown in place, as unify's occurs
// check should have prevented them in the first place.
func (s Substitution) Apply(t Type) Type {
	return s.applyWithCycleCheck(t, nil)
}

func (s Substitution) applyWithCycleCheck(t Type, visited []int) Type {
	switch typ := t.(type) {
	case TUnknown:
		replacement, ok := s[typ.ID]
		if !ok {
			return typ
		}
		for _, id := range visited {
			if id == typ.ID {
				return typ
			}
		}
		return s.applyWithCycleCheck(replacement, append(visited, typ.ID))
	case TypeApp:
		return TypeApp{
			Fn:  s.applyWithCycleCheck(typ.Fn, visited),
			Arg: s.applyWithCycleCheck(typ.Arg, visited),
		}
	case ForAll:
		return ForAll{
			Var:         typ.Var,
			Body:        s.applyWithCycleCheck(typ.Body, visited),
			SkolemScope: typ.SkolemScope,
		}
	case KindedType:
		return KindedType{
			Inner: s.applyWithCycleCheck(typ.Inner, visited),
			Kind:  typ.Kind,
		}
	case RCons:
		return RCons{
			Label: typ.Label,
			Head:  s.applyWithCycleCheck(typ.Head, visited),
			Tail:  s.applyWithCycleCheck(typ.Tail, visited),
		}
	default:
		return t
	}
}

// ReplaceTypeVars substitutes named type variables in t. Variables bound by
// an inner forall shadow the replacement.
func ReplaceTypeVars(t Type, m map[string]Type) Type {
	if len(m) == 0 {
		return t
	}
	switch typ := t.(type) {
	case TypeVar:
		if replacement, ok := m[typ.Name]; ok {
			return replacement
		}
		return typ
	case TypeApp:
		return TypeApp{Fn: ReplaceTypeVars(typ.Fn, m), Arg: ReplaceTypeVars(typ.Arg, m)}
	case ForAll:
		if _, shadowed := m[typ.Var]; shadowed {
			inner := make(map[string]Type, len(m)-1)
			for k, v := range m {
				if k != typ.Var {
					inner[k] = v
				}
			}
			return ForAll{Var: typ.Var, Body: ReplaceTypeVars(typ.Body, inner), SkolemScope: typ.SkolemScope}
		}
		return ForAll{Var: typ.Var, Body: ReplaceTypeVars(typ.Body, m), SkolemScope: typ.SkolemScope}
	case KindedType:
		return KindedType{Inner: ReplaceTypeVars(typ.Inner, m), Kind: typ.Kind}
	case RCons:
		return RCons{Label: typ.Label, Head: ReplaceTypeVars(typ.Head, m), Tail: ReplaceTypeVars(typ.Tail, m)}
	default:
		return t
	}
}

// UsedTypeVariables collects the named type variables occurring free in t,
// in first-occurrence order.
func UsedTypeVariables(t Type) []string {
	var names []string
	seen := make(map[string]bool)
	var walk func(t Type, bound map[string]bool)
	walk = func(t Type, bound map[string]bool) {
		switch typ := t.(type) {
		case TypeVar:
			if !bound[typ.Name] && !seen[typ.Name] {
				seen[typ.Name] = true
				names = append(names, typ.Name)
			}
		case TypeApp:
			walk(typ.Fn, bound)
			walk(typ.Arg, bound)
		case ForAll:
			inner := make(map[string]bool, len(bound)+1)
			for k := range bound {
				inner[k] = true
			}
			inner[typ.Var] = true
			walk(typ.Body, inner)
		case KindedType:
			walk(typ.Inner, bound)
		case RCons:
			walk(typ.Head, bound)
			walk(typ.Tail, bound)
		}
	}
	walk(t, make(map[string]bool))
	return names
}
