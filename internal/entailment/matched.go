// Package entailment implements the type-class constraint solver: candidate
// gathering, head matching under functional dependencies, instance chains
// and overlap rules, the built-in compiler-solved classes, and dictionary
// synthesis.
package entailment

import (
	"github.com/funvibe/lumen/internal/environment"
	"github.com/funvibe/lumen/internal/typesystem"
)

// MatchKind is the three-point lattice Match < Unknown < Apart used while
// comparing a wanted constraint against an instance head.
type MatchKind int

const (
	// Match: the heads are equal as far as we can see.
	Match MatchKind = iota
	// Unknown: equality cannot be decided yet (an unsolved unknown is in
	// the way); the candidate can be neither committed nor skipped.
	Unknown
	// Apart: the heads are provably different.
	Apart
)

func (m MatchKind) String() string {
	switch m {
	case Match:
		return "Match"
	case Unknown:
		return "Unknown"
	default:
		return "Apart"
	}
}

// And combines two comparisons; Apart is absorbing, Match is the unit.
func (m MatchKind) And(other MatchKind) MatchKind {
	if other > m {
		return other
	}
	return m
}

// Matching accumulates candidate bindings for the variables of an instance
// head. A variable bound at several positions collects every occurrence;
// the occurrences must later prove pairwise equal.
type Matching map[string][]typesystem.Type

func (m Matching) add(name string, t typesystem.Type) {
	m[name] = append(m[name], t)
}

func (m Matching) merge(other Matching) {
	for name, types := range other {
		m[name] = append(m[name], types...)
	}
}

// typeHeadsAreEqual compares a wanted type against one instance-head type.
// Type variables on the instance side are binders and match anything;
// variables on the wanted side are rigid.
func typeHeadsAreEqual(wanted, instance typesystem.Type) (MatchKind, Matching) {
	wanted = typesystem.UnwrapKinded(wanted)
	instance = typesystem.UnwrapKinded(instance)

	if v, ok := instance.(typesystem.TypeVar); ok {
		return Match, Matching{v.Name: {wanted}}
	}

	switch w := wanted.(type) {
	case typesystem.TUnknown:
		if i, ok := instance.(typesystem.TUnknown); ok && w.ID == i.ID {
			return Match, Matching{}
		}
		return Unknown, Matching{}
	case typesystem.Skolem:
		if i, ok := instance.(typesystem.Skolem); ok && w.ID == i.ID {
			return Match, Matching{}
		}
	case typesystem.TypeVar:
		if i, ok := instance.(typesystem.TypeVar); ok && w.Name == i.Name {
			return Match, Matching{}
		}
	case typesystem.TypeConstructor:
		if i, ok := instance.(typesystem.TypeConstructor); ok && w.Name == i.Name {
			return Match, Matching{}
		}
	case typesystem.TypeLevelString:
		if i, ok := instance.(typesystem.TypeLevelString); ok && w.Value == i.Value {
			return Match, Matching{}
		}
	case typesystem.TypeApp:
		if i, ok := instance.(typesystem.TypeApp); ok {
			fnKind, fnMatching := typeHeadsAreEqual(w.Fn, i.Fn)
			argKind, argMatching := typeHeadsAreEqual(w.Arg, i.Arg)
			fnMatching.merge(argMatching)
			return fnKind.And(argKind), fnMatching
		}
	case typesystem.REmpty:
		switch instance.(type) {
		case typesystem.REmpty:
			return Match, Matching{}
		case typesystem.RCons:
			return rowHeadsAreEqual(wanted, instance)
		}
	case typesystem.RCons:
		switch instance.(type) {
		case typesystem.REmpty, typesystem.RCons:
			return rowHeadsAreEqual(wanted, instance)
		}
	}
	return Apart, Matching{}
}

// rowHeadsAreEqual aligns two rows by label; common entries recurse and a
// trailing variable on the instance side absorbs whatever the wanted row
// has left over.
func rowHeadsAreEqual(wanted, instance typesystem.Type) (MatchKind, Matching) {
	align := typesystem.AlignRows(wanted, instance)
	kind := Match
	matching := Matching{}
	for _, pair := range align.Common {
		entryKind, entryMatching := typeHeadsAreEqual(pair.Left.Type, pair.Right.Type)
		kind = kind.And(entryKind)
		matching.merge(entryMatching)
	}
	if kind == Apart {
		return Apart, matching
	}

	if len(align.RightOnly) == 0 {
		if v, ok := align.RightTail.(typesystem.TypeVar); ok {
			matching.add(v.Name, typesystem.RowFromList(align.LeftOnly, align.LeftTail))
			return kind, matching
		}
	}
	if len(align.LeftOnly) == 0 && len(align.RightOnly) == 0 {
		tailKind, tailMatching := typeHeadsAreEqual(align.LeftTail, align.RightTail)
		matching.merge(tailMatching)
		return kind.And(tailKind), matching
	}
	// an unsolved wanted tail could still grow the missing labels
	if _, ok := align.LeftTail.(typesystem.TUnknown); ok {
		return kind.And(Unknown), matching
	}
	return Apart, matching
}

// typesAreEqual is the strict comparison used to verify that a variable
// bound at several head positions received compatible types. A skolem
// against anything else is Unknown: apartness cannot be proven without
// more information.
func typesAreEqual(t1, t2 typesystem.Type) MatchKind {
	t1 = typesystem.UnwrapKinded(t1)
	t2 = typesystem.UnwrapKinded(t2)

	if s1, ok := t1.(typesystem.Skolem); ok {
		if s2, ok := t2.(typesystem.Skolem); ok && s1.ID == s2.ID {
			return Match
		}
		return Unknown
	}
	if _, ok := t2.(typesystem.Skolem); ok {
		return Unknown
	}

	switch a := t1.(type) {
	case typesystem.TUnknown:
		if b, ok := t2.(typesystem.TUnknown); ok && a.ID == b.ID {
			return Match
		}
		return Unknown
	case typesystem.TypeVar:
		if b, ok := t2.(typesystem.TypeVar); ok && a.Name == b.Name {
			return Match
		}
	case typesystem.TypeConstructor:
		if b, ok := t2.(typesystem.TypeConstructor); ok && a.Name == b.Name {
			return Match
		}
	case typesystem.TypeLevelString:
		if b, ok := t2.(typesystem.TypeLevelString); ok && a.Value == b.Value {
			return Match
		}
	case typesystem.TypeApp:
		if b, ok := t2.(typesystem.TypeApp); ok {
			return typesAreEqual(a.Fn, b.Fn).And(typesAreEqual(a.Arg, b.Arg))
		}
	case typesystem.REmpty:
		switch t2.(type) {
		case typesystem.REmpty:
			return Match
		case typesystem.RCons:
			return rowsAreEqual(t1, t2)
		}
	case typesystem.RCons:
		switch t2.(type) {
		case typesystem.REmpty, typesystem.RCons:
			return rowsAreEqual(t1, t2)
		}
	}
	if _, ok := t2.(typesystem.TUnknown); ok {
		return Unknown
	}
	return Apart
}

func rowsAreEqual(t1, t2 typesystem.Type) MatchKind {
	align := typesystem.AlignRows(t1, t2)
	kind := Match
	for _, pair := range align.Common {
		kind = kind.And(typesAreEqual(pair.Left.Type, pair.Right.Type))
	}
	if len(align.LeftOnly) == 0 && len(align.RightOnly) == 0 {
		return kind.And(typesAreEqual(align.LeftTail, align.RightTail))
	}
	// leftover labels can only be reconciled through an open tail
	if isOpenTail(align.LeftTail) || isOpenTail(align.RightTail) {
		return kind.And(Unknown)
	}
	return Apart
}

func isOpenTail(t typesystem.Type) bool {
	switch t.(type) {
	case typesystem.TUnknown, typesystem.TypeVar, typesystem.Skolem:
		return true
	default:
		return false
	}
}

// covers computes the functional-dependency closure of the directly matched
// positions and reports whether every position is reached.
func covers(fdeps []environment.FunctionalDependency, matched []MatchKind) bool {
	inSet := make([]bool, len(matched))
	count := 0
	for i, kind := range matched {
		if kind == Match {
			inSet[i] = true
			count++
		}
	}
	for changed := true; changed; {
		changed = false
		for _, dep := range fdeps {
			determined := true
			for _, d := range dep.Determiners {
				if d >= len(inSet) || !inSet[d] {
					determined = false
					break
				}
			}
			if !determined {
				continue
			}
			for _, d := range dep.Determined {
				if d < len(inSet) && !inSet[d] {
					inSet[d] = true
					count++
					changed = true
				}
			}
		}
	}
	return count == len(matched)
}

// matches decides whether one candidate instance can discharge the wanted
// argument list, given the class's functional dependencies.
func matches(fdeps []environment.FunctionalDependency, tcd *environment.InstanceDescriptor, wanted []typesystem.Type) (MatchKind, Matching) {
	if len(tcd.InstanceTypes) != len(wanted) {
		return Apart, Matching{}
	}

	kinds := make([]MatchKind, len(wanted))
	matchings := make([]Matching, len(wanted))
	for i := range wanted {
		kinds[i], matchings[i] = typeHeadsAreEqual(wanted[i], tcd.InstanceTypes[i])
	}

	if !covers(fdeps, kinds) {
		for _, kind := range kinds {
			if kind == Apart {
				return Apart, Matching{}
			}
		}
		return Unknown, Matching{}
	}

	// Positions determined by functional dependencies are inferred rather
	// than matched; they are excluded from pairwise verification.
	verification := Matching{}
	for i, kind := range kinds {
		if kind == Match {
			verification.merge(matchings[i])
		}
	}
	for _, types := range verification {
		for i := 0; i < len(types); i++ {
			for j := i + 1; j < len(types); j++ {
				if typesAreEqual(types[i], types[j]) == Apart {
					return Apart, Matching{}
				}
			}
		}
	}

	// The committed bindings still need every position, determined ones
	// included, so that unification can propagate them.
	full := Matching{}
	for _, matching := range matchings {
		full.merge(matching)
	}
	return Match, full
}
