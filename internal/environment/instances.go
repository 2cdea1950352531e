package environment

import (
	"sort"

	"github.com/funvibe/lumen/internal/typesystem"
)

// ClassIndex is one step of a superclass path: the class whose dictionary is
// projected and the index of the superclass within its declaration.
type ClassIndex struct {
	Class typesystem.Qualified
	Index int
}

// InstanceDescriptor is a dictionary visible to the solver.
//
// Dependencies distinguishes two states that must not be collapsed: nil
// marks a local assumption that never participates in overlap detection,
// while an empty (non-nil) slice is a user instance with no subgoals.
type InstanceDescriptor struct {
	// Chain names the instance chain this descriptor belongs to, nil when
	// the instance was declared on its own.
	Chain      *typesystem.Qualified
	ChainIndex int

	Evidence Evidence

	// Path is non-empty for dictionaries derived by superclass projection.
	Path []ClassIndex

	ClassName     typesystem.Qualified
	InstanceTypes []typesystem.Type

	Dependencies *[]typesystem.Constraint
}

// IsLocal reports whether this descriptor is a local assumption.
func (d *InstanceDescriptor) IsLocal() bool { return d.Dependencies == nil }

// IsDerived reports whether this descriptor was derived via superclasses.
func (d *InstanceDescriptor) IsDerived() bool { return len(d.Path) > 0 }

// LocalModule is the context key for dictionaries with no owning module.
const LocalModule = ""

// InstanceContext maps optional module -> class -> dictionary identifier ->
// descriptor. The module key LocalModule holds assumptions and deferred
// dictionaries introduced during the current check.
type InstanceContext map[string]map[typesystem.Qualified]map[typesystem.Qualified]*InstanceDescriptor

// Add registers a descriptor, creating the intermediate levels as needed.
func (c InstanceContext) Add(module string, ident typesystem.Qualified, d *InstanceDescriptor) {
	classes, ok := c[module]
	if !ok {
		classes = make(map[typesystem.Qualified]map[typesystem.Qualified]*InstanceDescriptor)
		c[module] = classes
	}
	dicts, ok := classes[d.ClassName]
	if !ok {
		dicts = make(map[typesystem.Qualified]*InstanceDescriptor)
		classes[d.ClassName] = dicts
	}
	dicts[ident] = d
}

// Combine merges two contexts with a left-biased union at every level.
func Combine(left, right InstanceContext) InstanceContext {
	merged := make(InstanceContext, len(left)+len(right))
	for module, classes := range left {
		merged[module] = combineClasses(classes, right[module])
	}
	for module, classes := range right {
		if _, ok := merged[module]; !ok {
			merged[module] = combineClasses(classes, nil)
		}
	}
	return merged
}

func combineClasses(
	left, right map[typesystem.Qualified]map[typesystem.Qualified]*InstanceDescriptor,
) map[typesystem.Qualified]map[typesystem.Qualified]*InstanceDescriptor {
	merged := make(map[typesystem.Qualified]map[typesystem.Qualified]*InstanceDescriptor, len(left)+len(right))
	for class, dicts := range left {
		merged[class] = combineDicts(dicts, right[class])
	}
	for class, dicts := range right {
		if _, ok := merged[class]; !ok {
			merged[class] = combineDicts(dicts, nil)
		}
	}
	return merged
}

func combineDicts(
	left, right map[typesystem.Qualified]*InstanceDescriptor,
) map[typesystem.Qualified]*InstanceDescriptor {
	merged := make(map[typesystem.Qualified]*InstanceDescriptor, len(left)+len(right))
	for ident, d := range right {
		merged[ident] = d
	}
	for ident, d := range left {
		merged[ident] = d
	}
	return merged
}

// FindDictionaries returns every descriptor registered for the class under
// any of the given module keys, in module order. Within one module,
// descriptors come out sorted by identifier so that candidate gathering is
// deterministic.
func (c InstanceContext) FindDictionaries(class typesystem.Qualified, modules []string) []*InstanceDescriptor {
	var result []*InstanceDescriptor
	seen := make(map[string]bool, len(modules))
	for _, module := range modules {
		if seen[module] {
			continue
		}
		seen[module] = true
		classes, ok := c[module]
		if !ok {
			continue
		}
		dicts, ok := classes[class]
		if !ok {
			continue
		}
		idents := make([]typesystem.Qualified, 0, len(dicts))
		for ident := range dicts {
			idents = append(idents, ident)
		}
		sort.Slice(idents, func(i, j int) bool {
			return idents[i].String() < idents[j].String()
		})
		for _, ident := range idents {
			result = append(result, dicts[ident])
		}
	}
	return result
}
