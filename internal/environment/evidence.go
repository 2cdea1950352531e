package environment

import "github.com/funvibe/lumen/internal/typesystem"

// Evidence is the runtime identity of a dictionary: a named user instance,
// or one of the solver-synthesized shapes. The sum is closed.
type Evidence interface {
	evidenceNode()
	String() string
}

// NamedInstance refers to a user-written instance by its generated name.
type NamedInstance struct {
	Name typesystem.Qualified
}

// WarnInstance is synthesized for the Warn class; Message is the type-level
// payload of the warning.
type WarnInstance struct {
	Message typesystem.Type
}

// IsSymbolInstance is synthesized for IsSymbol over a known literal.
type IsSymbolInstance struct {
	Symbol string
}

// EmptyClassInstance is the placeholder evidence for classes with no members.
type EmptyClassInstance struct{}

func (NamedInstance) evidenceNode()      {}
func (WarnInstance) evidenceNode()       {}
func (IsSymbolInstance) evidenceNode()   {}
func (EmptyClassInstance) evidenceNode() {}

func (e NamedInstance) String() string    { return e.Name.String() }
func (e WarnInstance) String() string     { return "warn " + e.Message.String() }
func (e IsSymbolInstance) String() string { return "isSymbol " + e.Symbol }
func (EmptyClassInstance) String() string { return "empty" }

// EvidenceEqual is structural equality on evidence; overlap checks use it.
func EvidenceEqual(a, b Evidence) bool {
	switch x := a.(type) {
	case NamedInstance:
		y, ok := b.(NamedInstance)
		return ok && x.Name == y.Name
	case WarnInstance:
		y, ok := b.(WarnInstance)
		return ok && typesystem.TypesEqual(x.Message, y.Message)
	case IsSymbolInstance:
		y, ok := b.(IsSymbolInstance)
		return ok && x.Symbol == y.Symbol
	case EmptyClassInstance:
		_, ok := b.(EmptyClassInstance)
		return ok
	default:
		return false
	}
}
