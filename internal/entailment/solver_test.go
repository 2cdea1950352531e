package entailment

import (
	"reflect"
	"testing"

	"github.com/kr/pretty"

	"github.com/funvibe/lumen/internal/ast"
	"github.com/funvibe/lumen/internal/diagnostics"
	"github.com/funvibe/lumen/internal/environment"
	"github.com/funvibe/lumen/internal/typesystem"
)

var showClass = typesystem.Qualified{Module: "Data.Show", Name: "Show"}

// declareShow registers class Show with instances Show Int and
// Show a => Show (Array a).
func (f *fixture) declareShow(t *testing.T) (typesystem.Qualified, typesystem.Qualified) {
	t.Helper()
	f.declareClass(showClass, []string{"a"})
	showInt := f.addInstance("showInt", showClass, []typesystem.Type{intType()}, nil)
	showArray := f.addInstance("showArray", showClass, []typesystem.Type{arrayOf(tvar("a"))},
		[]typesystem.Constraint{{Class: showClass, Args: []typesystem.Type{tvar("a")}}})
	return showInt, showArray
}

func TestNestedInstanceResolution(t *testing.T) {
	f := newFixture(t)
	showInt, showArray := f.declareShow(t)

	term := f.entails(t, Options{}, typesystem.Constraint{
		Class: showClass,
		Args:  []typesystem.Type{arrayOf(arrayOf(intType()))},
	})

	// Show_Array (Show_Array Show_Int)
	head, args := appSpine(term)
	if varName(t, head) != showArray || len(args) != 1 {
		t.Fatalf("expected showArray applied once, got %# v", pretty.Formatter(term))
	}
	innerHead, innerArgs := appSpine(args[0])
	if varName(t, innerHead) != showArray || len(innerArgs) != 1 {
		t.Fatalf("expected nested showArray, got %# v", pretty.Formatter(args[0]))
	}
	if varName(t, innerArgs[0]) != showInt {
		t.Errorf("expected showInt at the leaf, got %# v", pretty.Formatter(innerArgs[0]))
	}
}

func TestUnknownClassError(t *testing.T) {
	f := newFixture(t)
	diag := f.entailsErr(t, Options{}, typesystem.Constraint{
		Class: q("Main", "Nowhere"),
		Args:  []typesystem.Type{intType()},
	})
	if diag.Kind != diagnostics.UnknownClass {
		t.Errorf("expected UnknownClass, got %s", diag.Kind)
	}
}

func TestNoInstanceFoundCarriesHints(t *testing.T) {
	f := newFixture(t)
	f.declareShow(t)

	diag := f.entailsErr(t, Options{}, typesystem.Constraint{
		Class: showClass,
		Args:  []typesystem.Type{arrayOf(boolType())},
	})
	if diag.Kind != diagnostics.NoInstanceFound {
		t.Fatalf("expected NoInstanceFound, got %s", diag.Kind)
	}
	// the failing subgoal keeps the enclosing constraint on its hint stack
	if len(diag.Hints) != 2 {
		t.Fatalf("expected outer and inner constraints on the stack, got %v", diag.Hints)
	}
	if diag.Hints[1].Class != showClass || !typesystem.TypesEqual(diag.Hints[1].Args[0], boolType()) {
		t.Errorf("innermost hint should be the failing subgoal, got %s", diag.Hints[1])
	}
}

func TestOverlappingInstances(t *testing.T) {
	f := newFixture(t)
	class := q("Main", "C")
	f.declareClass(class, []string{"a"})
	f.addInstance("cIntOne", class, []typesystem.Type{intType()}, nil)
	f.addInstance("cIntTwo", class, []typesystem.Type{intType()}, nil)

	diag := f.entailsErr(t, Options{}, typesystem.Constraint{Class: class, Args: []typesystem.Type{intType()}})
	if diag.Kind != diagnostics.OverlappingInstances {
		t.Errorf("expected OverlappingInstances, got %s", diag.Kind)
	}
}

func TestDerivedDictionaryNeverOverlaps(t *testing.T) {
	f := newFixture(t)
	class := q("Main", "C")
	f.declareClass(class, []string{"a"})
	ident := f.addInstance("cInt", class, []typesystem.Type{intType()}, nil)

	// a superclass-derived occurrence of the same dictionary
	f.ctx.Add("Main", q("Main", "cIntDerived"), &environment.InstanceDescriptor{
		Evidence:      environment.NamedInstance{Name: q("Main", "someSub")},
		Path:          []environment.ClassIndex{{Class: class, Index: 0}},
		ClassName:     class,
		InstanceTypes: []typesystem.Type{intType()},
	})

	term := f.entails(t, Options{}, typesystem.Constraint{Class: class, Args: []typesystem.Type{intType()}})
	if varName(t, term) != ident {
		t.Errorf("the primary instance should win over the derived one, got %# v", pretty.Formatter(term))
	}
}

func TestLocalAssumptionNeverOverlaps(t *testing.T) {
	f := newFixture(t)
	class := q("Main", "C")
	f.declareClass(class, []string{"a"})
	f.addInstance("cInt", class, []typesystem.Type{intType()}, nil)

	// a local assumption for the same head
	f.ctx.Add(environment.LocalModule, q("", "dictC"), &environment.InstanceDescriptor{
		Evidence:      environment.NamedInstance{Name: q("", "dictC")},
		ClassName:     class,
		InstanceTypes: []typesystem.Type{intType()},
	})

	if _, err := f.solver.Entails(Options{}, typesystem.Constraint{Class: class, Args: []typesystem.Type{intType()}}, f.ctx, nil); err != nil {
		t.Errorf("a local assumption must not trigger overlap: %v", err)
	}
}

func TestChainFirstMatchWins(t *testing.T) {
	f := newFixture(t)
	class := q("Main", "C")
	f.declareClass(class, []string{"a"})
	first := f.addChainedInstance("cInt", "cChain", 0, class, []typesystem.Type{intType()})
	second := f.addChainedInstance("cAny", "cChain", 1, class, []typesystem.Type{tvar("a")})

	term := f.entails(t, Options{}, typesystem.Constraint{Class: class, Args: []typesystem.Type{intType()}})
	if varName(t, term) != first {
		t.Errorf("the earlier chain member should win, got %# v", pretty.Formatter(term))
	}

	term = f.entails(t, Options{}, typesystem.Constraint{Class: class, Args: []typesystem.Type{boolType()}})
	if varName(t, term) != second {
		t.Errorf("apartness should advance the chain, got %# v", pretty.Formatter(term))
	}
}

func TestChainBlockedByUnknown(t *testing.T) {
	f := newFixture(t)
	class := q("Main", "C")
	f.declareClass(class, []string{"a"})
	f.addChainedInstance("cInt", "cChain", 0, class, []typesystem.Type{intType()})
	f.addChainedInstance("cAny", "cChain", 1, class, []typesystem.Type{tvar("a")})

	// an unknown argument cannot be proven apart from Int, so the chain
	// may not skip to the catch-all
	un := f.unifier.Fresh()
	term := f.entails(t, Options{DeferErrors: true}, typesystem.Constraint{Class: class, Args: []typesystem.Type{un}})
	if _, deferred := term.(*ast.TypeClassDictionary); !deferred {
		t.Errorf("blocked chain must defer, got %T", term)
	}
}

func TestChainOrderIndependentOfRegistrationOrder(t *testing.T) {
	run := func(reversed bool) typesystem.Qualified {
		f := newFixture(t)
		class := q("Main", "C")
		f.declareClass(class, []string{"a"})
		if reversed {
			f.addChainedInstance("cAny", "cChain", 1, class, []typesystem.Type{tvar("a")})
			f.addChainedInstance("cInt", "cChain", 0, class, []typesystem.Type{intType()})
		} else {
			f.addChainedInstance("cInt", "cChain", 0, class, []typesystem.Type{intType()})
			f.addChainedInstance("cAny", "cChain", 1, class, []typesystem.Type{tvar("a")})
		}
		term := f.entails(t, Options{}, typesystem.Constraint{Class: class, Args: []typesystem.Type{intType()}})
		return varName(t, term)
	}
	if run(false) != run(true) {
		t.Errorf("chain members must be ordered by their declared index, not registration order")
	}
}

func TestDeferralThenResolution(t *testing.T) {
	f := newFixture(t)
	showInt, _ := f.declareShow(t)

	un := f.unifier.Fresh()
	wanted := typesystem.Constraint{Class: showClass, Args: []typesystem.Type{un}}

	term := f.entails(t, Options{DeferErrors: true}, wanted)
	placeholder, ok := term.(*ast.TypeClassDictionary)
	if !ok {
		t.Fatalf("expected deferral, got %T", term)
	}

	// unification later pins the unknown
	if err := f.unifier.Unify(un, intType()); err != nil {
		t.Fatalf("unify: %v", err)
	}

	resolved := f.entails(t, Options{DeferErrors: true}, placeholder.Constraint)
	if varName(t, resolved) != showInt {
		t.Errorf("expected showInt after refinement, got %# v", pretty.Formatter(resolved))
	}
}

func TestReplacePassIdempotence(t *testing.T) {
	f := newFixture(t)
	f.declareShow(t)

	un := f.unifier.Fresh()
	expr := ast.Expression(&ast.App{
		Fn: &ast.TypeClassDictionary{
			Constraint: typesystem.Constraint{Class: showClass, Args: []typesystem.Type{arrayOf(intType())}},
			Context:    f.ctx,
		},
		Arg: &ast.TypeClassDictionary{
			Constraint: typesystem.Constraint{Class: showClass, Args: []typesystem.Type{un}},
			Context:    f.ctx,
		},
	})

	rewritten, obligations, err := f.solver.ReplaceTypeClassDictionaries(true, expr)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(obligations) != 1 {
		t.Fatalf("the unknown constraint should generalize, got %d obligations", len(obligations))
	}

	again, moreObligations, err := f.solver.ReplaceTypeClassDictionaries(true, rewritten)
	if err != nil {
		t.Fatalf("replace (second run): %v", err)
	}
	if f.solver.progress {
		t.Errorf("second run must make no progress")
	}
	if len(moreObligations) != 0 {
		t.Errorf("second run must not add obligations, got %d", len(moreObligations))
	}
	if !reflect.DeepEqual(rewritten, again) {
		t.Errorf("stable expression changed:\n%v", pretty.Diff(rewritten, again))
	}
}

func TestGeneralizationProducesObligationAndAssumption(t *testing.T) {
	f := newFixture(t)
	f.declareShow(t)

	un := f.unifier.Fresh()
	wanted := typesystem.Constraint{Class: showClass, Args: []typesystem.Type{un}}

	term, err := f.solver.Entails(Options{ShouldGeneralize: true}, wanted, f.ctx, nil)
	if err != nil {
		t.Fatalf("entails: %v", err)
	}
	dictVar := varName(t, term)
	if len(f.solver.obligations) != 1 {
		t.Fatalf("expected one obligation, got %d", len(f.solver.obligations))
	}
	if f.solver.obligations[0].Ident != dictVar.Name {
		t.Errorf("obligation should name the fresh dictionary, got %s vs %s", f.solver.obligations[0].Ident, dictVar.Name)
	}

	// the assumption now discharges the same constraint directly
	reuse := f.entails(t, Options{}, wanted)
	if varName(t, reuse) != dictVar {
		t.Errorf("expected the assumed dictionary to be reused, got %# v", pretty.Formatter(reuse))
	}
}

func TestSuperclassExpansionAndProjection(t *testing.T) {
	f := newFixture(t)
	eqClass := q("Data.Eq", "Eq")
	ordClass := q("Data.Ord", "Ord")
	f.declareClass(eqClass, []string{"a"})
	f.declareClass(ordClass, []string{"a"}, typesystem.Constraint{Class: eqClass, Args: []typesystem.Type{tvar("a")}})

	dictOrd := q("", "dictOrd")
	dicts, err := f.solver.NewDictionaries(nil, dictOrd, typesystem.Constraint{Class: ordClass, Args: []typesystem.Type{intType()}})
	if err != nil {
		t.Fatalf("newDictionaries: %v", err)
	}
	if len(dicts) != 2 {
		t.Fatalf("expected the Ord descriptor plus the derived Eq descriptor, got %d", len(dicts))
	}
	for _, d := range dicts {
		if !d.IsLocal() {
			t.Errorf("seeded dictionaries are local assumptions: %+v", d)
		}
		f.ctx.Add(environment.LocalModule, dictOrd, d)
	}

	// solving Eq Int goes through the superclass accessor
	term := f.entails(t, Options{}, typesystem.Constraint{Class: eqClass, Args: []typesystem.Type{intType()}})
	app, ok := term.(*ast.App)
	if !ok {
		t.Fatalf("expected accessor application, got %# v", pretty.Formatter(term))
	}
	accessor, ok := app.Fn.(*ast.Accessor)
	if !ok || accessor.Field != "Eq0" {
		t.Fatalf("expected Eq0 projection, got %# v", pretty.Formatter(app.Fn))
	}
	if varName(t, accessor.Expr) != dictOrd {
		t.Errorf("projection should start from the Ord dictionary, got %# v", pretty.Formatter(accessor.Expr))
	}
}

func TestPossiblyInfiniteInstance(t *testing.T) {
	f := newFixture(t)
	class := q("Main", "Loop")
	f.declareClass(class, []string{"a"})
	f.addInstance("loopAny", class, []typesystem.Type{tvar("a")},
		[]typesystem.Constraint{{Class: class, Args: []typesystem.Type{tvar("a")}}})

	diag := f.entailsErr(t, Options{WorkBudget: 25}, typesystem.Constraint{Class: class, Args: []typesystem.Type{intType()}})
	if diag.Kind != diagnostics.PossiblyInfiniteInstance {
		t.Errorf("expected PossiblyInfiniteInstance, got %s", diag.Kind)
	}
}

func TestInstanceScopedToArgumentModules(t *testing.T) {
	f := newFixture(t)
	f.declareClass(showClass, []string{"a"})

	// the instance lives in the module that owns the constructor
	ident := q("Data.Thing", "showThing")
	thing := tcon("Data.Thing", "Thing")
	deps := []typesystem.Constraint{}
	f.ctx.Add("Data.Thing", ident, &environment.InstanceDescriptor{
		Evidence:      environment.NamedInstance{Name: ident},
		ClassName:     showClass,
		InstanceTypes: []typesystem.Type{thing},
		Dependencies:  &deps,
	})

	term := f.entails(t, Options{}, typesystem.Constraint{Class: showClass, Args: []typesystem.Type{thing}})
	if varName(t, term) != ident {
		t.Errorf("instance should be visible through the argument's module, got %# v", pretty.Formatter(term))
	}

	// with no mention of Data.Thing the dictionary is out of scope
	diag := f.entailsErr(t, Options{}, typesystem.Constraint{Class: showClass, Args: []typesystem.Type{intType()}})
	if diag.Kind != diagnostics.NoInstanceFound {
		t.Errorf("expected NoInstanceFound, got %s", diag.Kind)
	}
}

func TestFunctionalDependencyPropagation(t *testing.T) {
	f := newFixture(t)
	// class Convert a b | a -> b; instance Convert Int Boolean
	class := q("Main", "Convert")
	f.env.TypeClasses[class] = &environment.TypeClassData{
		Params:       []string{"a", "b"},
		Dependencies: []environment.FunctionalDependency{{Determiners: []int{0}, Determined: []int{1}}},
	}
	f.addInstance("convertIntBoolean", class, []typesystem.Type{intType(), boolType()}, nil)

	un := f.unifier.Fresh()
	f.entails(t, Options{}, typesystem.Constraint{Class: class, Args: []typesystem.Type{intType(), un}})
	if !typesystem.TypesEqual(f.unifier.Substitute(un), boolType()) {
		t.Errorf("the dependency should pin b to Boolean, got %s", f.unifier.Substitute(un))
	}
}

func TestEmbeddedPlaceholderSolvedByProgressLoop(t *testing.T) {
	f := newFixture(t)
	// class Convert a b | a -> b feeds Show through the substitution
	convert := q("Main", "Convert")
	f.env.TypeClasses[convert] = &environment.TypeClassData{
		Params:       []string{"a", "b"},
		Dependencies: []environment.FunctionalDependency{{Determiners: []int{0}, Determined: []int{1}}},
	}
	f.addInstance("convertIntBoolean", convert, []typesystem.Type{intType(), boolType()}, nil)
	f.declareClass(showClass, []string{"a"})
	showBoolean := f.addInstance("showBoolean", showClass, []typesystem.Type{boolType()}, nil)

	un := f.unifier.Fresh()
	expr := ast.Expression(&ast.App{
		// Show b is blocked until Convert Int b pins b
		Fn: &ast.TypeClassDictionary{
			Constraint: typesystem.Constraint{Class: showClass, Args: []typesystem.Type{un}},
			Context:    f.ctx,
		},
		Arg: &ast.TypeClassDictionary{
			Constraint: typesystem.Constraint{Class: convert, Args: []typesystem.Type{intType(), un}},
			Context:    f.ctx,
		},
	})

	rewritten, obligations, err := f.solver.ReplaceTypeClassDictionaries(false, expr)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if len(obligations) != 0 {
		t.Errorf("everything should solve, got %d obligations", len(obligations))
	}
	app := rewritten.(*ast.App)
	if varName(t, app.Fn) != showBoolean {
		t.Errorf("expected showBoolean once the dependency propagated, got %# v", pretty.Formatter(app.Fn))
	}
	if ast.CountPlaceholders(rewritten) != 0 {
		t.Errorf("no placeholders should remain")
	}
}
