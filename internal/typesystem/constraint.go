package typesystem

import "strings"

// Constraint is a wanted or given class constraint `C t1 ... tn`.
// Info carries source hints and is opaque to the solver.
type Constraint struct {
	Class Qualified
	Args  []Type
	Info  any
}

func (c Constraint) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Class.String())
	for _, arg := range c.Args {
		parts = append(parts, arg.String())
	}
	return strings.Join(parts, " ")
}

// MapArgs returns a copy of the constraint with f applied to each argument.
func (c Constraint) MapArgs(f func(Type) Type) Constraint {
	args := make([]Type, len(c.Args))
	for i, arg := range c.Args {
		args[i] = f(arg)
	}
	return Constraint{Class: c.Class, Args: args, Info: c.Info}
}
