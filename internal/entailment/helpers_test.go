package entailment

import (
	"testing"

	"github.com/funvibe/lumen/internal/ast"
	"github.com/funvibe/lumen/internal/diagnostics"
	"github.com/funvibe/lumen/internal/environment"
	"github.com/funvibe/lumen/internal/typesystem"
)

func q(module, name string) typesystem.Qualified {
	return typesystem.Qualified{Module: module, Name: name}
}

func tcon(module, name string) typesystem.Type {
	return typesystem.TypeConstructor{Name: q(module, name)}
}

func tvar(name string) typesystem.Type { return typesystem.TypeVar{Name: name} }

func sym(value string) typesystem.Type { return typesystem.TypeLevelString{Value: value} }

func intType() typesystem.Type  { return tcon("Prim", "Int") }
func boolType() typesystem.Type { return tcon("Prim", "Boolean") }

func arrayOf(t typesystem.Type) typesystem.Type {
	return typesystem.MkTypeApp(tcon("Prim", "Array"), t)
}

func closedRow(entries ...typesystem.RowEntry) typesystem.Type {
	return typesystem.RowFromList(entries, typesystem.REmpty{})
}

func entry(label string, t typesystem.Type) typesystem.RowEntry {
	return typesystem.RowEntry{Label: label, Type: t}
}

func primConstraint(name string, args ...typesystem.Type) typesystem.Constraint {
	return typesystem.Constraint{Class: typesystem.Prim(name), Args: args}
}

// fixture bundles the state one solver test needs.
type fixture struct {
	env      *environment.Environment
	unifier  *typesystem.Unifier
	warnings *diagnostics.Collector
	solver   *Solver
	ctx      environment.InstanceContext
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := environment.NewEnvironment()
	environment.RegisterPrimClasses(env)
	unifier := typesystem.NewUnifier()
	warnings := diagnostics.NewCollector()
	return &fixture{
		env:      env,
		unifier:  unifier,
		warnings: warnings,
		solver:   NewSolver(env, unifier, warnings, "Main", nil),
		ctx:      make(environment.InstanceContext),
	}
}

// declareClass registers a user class in the fixture environment.
func (f *fixture) declareClass(class typesystem.Qualified, params []string, superclasses ...typesystem.Constraint) {
	f.env.TypeClasses[class] = &environment.TypeClassData{Params: params, Superclasses: superclasses}
}

// addInstance registers a user instance in the current module and returns
// its evidence name.
func (f *fixture) addInstance(name string, class typesystem.Qualified, instanceTypes []typesystem.Type, deps []typesystem.Constraint) typesystem.Qualified {
	ident := q("Main", name)
	f.ctx.Add("Main", ident, &environment.InstanceDescriptor{
		Evidence:      environment.NamedInstance{Name: ident},
		ClassName:     class,
		InstanceTypes: instanceTypes,
		Dependencies:  &deps,
	})
	return ident
}

// addChainedInstance registers one member of a named instance chain.
func (f *fixture) addChainedInstance(name, chain string, indexInChain int, class typesystem.Qualified, instanceTypes []typesystem.Type) typesystem.Qualified {
	ident := q("Main", name)
	chainName := q("Main", chain)
	deps := []typesystem.Constraint{}
	f.ctx.Add("Main", ident, &environment.InstanceDescriptor{
		Chain:         &chainName,
		ChainIndex:    indexInChain,
		Evidence:      environment.NamedInstance{Name: ident},
		ClassName:     class,
		InstanceTypes: instanceTypes,
		Dependencies:  &deps,
	})
	return ident
}

func (f *fixture) entails(t *testing.T, opts Options, con typesystem.Constraint) ast.Expression {
	t.Helper()
	term, err := f.solver.Entails(opts, con, f.ctx, nil)
	if err != nil {
		t.Fatalf("entails %s: %v", con, err)
	}
	return term
}

func (f *fixture) entailsErr(t *testing.T, opts Options, con typesystem.Constraint) *diagnostics.DiagnosticError {
	t.Helper()
	_, err := f.solver.Entails(opts, con, f.ctx, nil)
	if err == nil {
		t.Fatalf("entails %s: expected error", con)
	}
	diag, ok := err.(*diagnostics.DiagnosticError)
	if !ok {
		t.Fatalf("entails %s: expected diagnostic error, got %T: %v", con, err, err)
	}
	return diag
}

// varName unwraps a Var expression.
func varName(t *testing.T, e ast.Expression) typesystem.Qualified {
	t.Helper()
	v, ok := e.(*ast.Var)
	if !ok {
		t.Fatalf("expected Var, got %T", e)
	}
	return v.Name
}

// appSpine unwinds nested applications into head and arguments.
func appSpine(e ast.Expression) (ast.Expression, []ast.Expression) {
	var args []ast.Expression
	for {
		app, ok := e.(*ast.App)
		if !ok {
			for i, j := 0, len(args)-1; i < j; i, j = i+1, j-1 {
				args[i], args[j] = args[j], args[i]
			}
			return e, args
		}
		args = append(args, app.Arg)
		e = app.Fn
	}
}
