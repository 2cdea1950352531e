package typesystem

import "strconv"

// Unifier owns the live substitution and the fresh-name supply for one
// compilation task. It is not safe for concurrent use; the whole solver
// pipeline is single-threaded by design.
type Unifier struct {
	Subst Substitution
	next  int
}

func NewUnifier() *Unifier {
	return &Unifier{Subst: make(Substitution)}
}

// Fresh allocates a new unification unknown.
func (u *Unifier) Fresh() TUnknown {
	id := u.next
	u.next++
	return TUnknown{ID: id}
}

// FreshIdent allocates a unique identifier with the given prefix.
func (u *Unifier) FreshIdent(prefix string) string {
	id := u.next
	u.next++
	return prefix + strconv.Itoa(id)
}

// Substitute applies the current substitution to t.
func (u *Unifier) Substitute(t Type) Type {
	return u.Subst.Apply(t)
}

// Unify makes t1 and t2 equal by extending the substitution, or reports
// why it cannot. Kinded wrappers are transparent.
func (u *Unifier) Unify(t1, t2 Type) error {
	t1 = UnwrapKinded(u.Subst.Apply(t1))
	t2 = UnwrapKinded(u.Subst.Apply(t2))

	if un1, ok := t1.(TUnknown); ok {
		if un2, ok := t2.(TUnknown); ok && un1.ID == un2.ID {
			return nil
		}
		return u.solveUnknown(un1.ID, t2)
	}
	if un2, ok := t2.(TUnknown); ok {
		return u.solveUnknown(un2.ID, t1)
	}

	switch a := t1.(type) {
	case TypeVar:
		if b, ok := t2.(TypeVar); ok && a.Name == b.Name {
			return nil
		}
	case Skolem:
		if b, ok := t2.(Skolem); ok && a.ID == b.ID {
			return nil
		}
	case TypeConstructor:
		if b, ok := t2.(TypeConstructor); ok && a.Name == b.Name {
			return nil
		}
	case TypeLevelString:
		if b, ok := t2.(TypeLevelString); ok && a.Value == b.Value {
			return nil
		}
	case TypeApp:
		if b, ok := t2.(TypeApp); ok {
			if err := u.Unify(a.Fn, b.Fn); err != nil {
				return err
			}
			return u.Unify(a.Arg, b.Arg)
		}
	case ForAll:
		return u.Unify(u.instantiate(a), t2)
	case REmpty:
		if _, ok := t2.(REmpty); ok {
			return nil
		}
	case RCons:
		switch t2.(type) {
		case REmpty, RCons:
			return u.unifyRows(t1, t2)
		}
	}
	if b, ok := t2.(ForAll); ok {
		return u.Unify(t1, u.instantiate(b))
	}
	return NewUnificationError(t1, t2)
}

// instantiate opens a quantifier with a fresh unknown.
func (u *Unifier) instantiate(t ForAll) Type {
	return ReplaceTypeVars(t.Body, map[string]Type{t.Var: u.Fresh()})
}

func (u *Unifier) solveUnknown(id int, t Type) error {
	if unknownOccurs(id, t) {
		return NewOccursCheckError(id, t)
	}
	u.Subst[id] = t
	return nil
}

func unknownOccurs(id int, t Type) bool {
	found := false
	EverywhereOnType(t, func(t Type) {
		if un, ok := t.(TUnknown); ok && un.ID == id {
			found = true
		}
	})
	return found
}

// unifyRows aligns two rows by label, unifies the common entries, and
// rewires the tails around the leftovers.
func (u *Unifier) unifyRows(l, r Type) error {
	align := AlignRows(l, r)
	for _, pair := range align.Common {
		if err := u.Unify(pair.Left.Type, pair.Right.Type); err != nil {
			return err
		}
	}

	switch {
	case len(align.LeftOnly) == 0 && len(align.RightOnly) == 0:
		return u.Unify(align.LeftTail, align.RightTail)
	case len(align.LeftOnly) == 0:
		// left tail must absorb the right-only entries
		return u.Unify(align.LeftTail, RowFromList(align.RightOnly, align.RightTail))
	case len(align.RightOnly) == 0:
		return u.Unify(align.RightTail, RowFromList(align.LeftOnly, align.LeftTail))
	default:
		lTail, lOk := align.LeftTail.(TUnknown)
		rTail, rOk := align.RightTail.(TUnknown)
		if !lOk || !rOk {
			return NewUnificationError(l, r)
		}
		if lTail.ID == rTail.ID {
			// the shared tail cannot contain both leftover sets
			return NewOccursCheckError(lTail.ID, r)
		}
		rest := u.Fresh()
		if err := u.solveUnknown(lTail.ID, RowFromList(align.RightOnly, rest)); err != nil {
			return err
		}
		return u.solveUnknown(rTail.ID, RowFromList(align.LeftOnly, rest))
	}
}
