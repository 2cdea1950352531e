package entailment

import (
	"sort"
	"strconv"

	"github.com/funvibe/lumen/internal/ast"
	"github.com/funvibe/lumen/internal/config"
	"github.com/funvibe/lumen/internal/diagnostics"
	"github.com/funvibe/lumen/internal/environment"
	"github.com/funvibe/lumen/internal/typesystem"
)

// Options controls one entailment call.
type Options struct {
	// DeferErrors turns missing, unknown and overlapping instances into
	// deferred placeholders instead of failures; the solve-or-defer pass
	// sets it, the generalization pass does not.
	DeferErrors bool

	// ShouldGeneralize lets an unsolvable constraint become an obligation
	// on the enclosing binding instead of an error.
	ShouldGeneralize bool

	// WorkBudget overrides the solver's recursion budget when positive.
	WorkBudget int
}

// UnsolvedObligation records a constraint that was generalized away: the
// fresh dictionary identifier standing for it, the instance context at the
// point of deferral, and the constraint itself.
type UnsolvedObligation struct {
	Ident      string
	Context    environment.InstanceContext
	Constraint typesystem.Constraint
}

// Solver carries the mutable state of one dictionary-elaboration task: the
// shared substitution (through the unifier), the inferred context of
// assumed constraints, the progress flag, the accumulated generalization
// obligations and the solving-constraint hint stack. Not safe for
// concurrent use.
type Solver struct {
	env           *environment.Environment
	unifier       *typesystem.Unifier
	warnings      *diagnostics.Collector
	currentModule string
	workBudget    int

	inferred    environment.InstanceContext
	progress    bool
	obligations []UnsolvedObligation
	hints       []typesystem.Constraint
}

// NewSolver creates a solver for one compilation task. opts may be nil.
func NewSolver(env *environment.Environment, unifier *typesystem.Unifier, warnings *diagnostics.Collector, currentModule string, opts *config.Options) *Solver {
	budget := config.DefaultSolverWorkBudget
	if opts != nil && opts.SolverWorkBudget > 0 {
		budget = opts.SolverWorkBudget
	}
	return &Solver{
		env:           env,
		unifier:       unifier,
		warnings:      warnings,
		currentModule: currentModule,
		workBudget:    budget,
		inferred:      make(environment.InstanceContext),
	}
}

// Entails solves a single wanted constraint against the given context and
// returns the synthesized dictionary term.
func (s *Solver) Entails(opts Options, wanted typesystem.Constraint, context environment.InstanceContext, hints []typesystem.Constraint) (ast.Expression, error) {
	if opts.WorkBudget <= 0 {
		opts.WorkBudget = s.workBudget
	}
	saved := s.hints
	s.hints = append([]typesystem.Constraint(nil), hints...)
	defer func() { s.hints = saved }()
	return s.solve(opts, context, 0, wanted)
}

// chainWinner is the single result a chain contributed.
type chainWinner struct {
	tcd      *environment.InstanceDescriptor
	matching Matching
}

func (s *Solver) solve(opts Options, ctx environment.InstanceContext, work int, con typesystem.Constraint) (ast.Expression, error) {
	if work > opts.WorkBudget {
		return nil, diagnostics.NewPossiblyInfiniteInstance(con, s.hintStack())
	}

	// the substitution may have grown since the constraint was recorded
	refreshed := con.MapArgs(s.unifier.Substitute)
	s.hints = append(s.hints, refreshed)
	defer func() { s.hints = s.hints[:len(s.hints)-1] }()

	classData, ok := s.env.TypeClass(refreshed.Class)
	if !ok {
		if opts.DeferErrors {
			return s.deferConstraint(ctx, refreshed), nil
		}
		return nil, diagnostics.NewUnknownClass(refreshed, s.hintStack())
	}

	scope := environment.Combine(ctx, s.inferred)
	candidates, handled := s.solveBuiltin(scope, refreshed)
	if !handled {
		candidates = findCandidates(scope, s.currentModule, refreshed.Class, refreshed.Args)
	}

	winners := s.runChains(classData.Dependencies, candidates, refreshed.Args)

	switch len(winners) {
	case 0:
		if opts.DeferErrors {
			return s.deferConstraint(ctx, refreshed), nil
		}
		if opts.ShouldGeneralize && canBeGeneralized(refreshed) {
			return s.commitUnsolved(ctx, refreshed)
		}
		return nil, diagnostics.NewNoInstanceFound(refreshed, s.hintStack())
	case 1:
		return s.commitSolved(opts, ctx, work, refreshed, winners[0])
	default:
		for i := range winners {
			for j := i + 1; j < len(winners); j++ {
				if overlapping(winners[i].tcd, winners[j].tcd) {
					if opts.DeferErrors {
						return s.deferConstraint(ctx, refreshed), nil
					}
					evidences := make([]string, len(winners))
					for k, w := range winners {
						evidences[k] = w.tcd.Evidence.String()
					}
					return nil, diagnostics.NewOverlappingInstances(refreshed, evidences, s.hintStack())
				}
			}
		}
		// several compatible candidates: the one closest to a concrete
		// dictionary wins, first occurrence breaking ties
		best := winners[0]
		for _, w := range winners[1:] {
			if len(w.tcd.Path) < len(best.tcd.Path) {
				best = w
			}
		}
		return s.commitSolved(opts, ctx, work, refreshed, best)
	}
}

// runChains groups candidates into instance chains, orders each chain, and
// lets every chain contribute at most one winner. Within a chain the first
// Match wins, Apart moves on, and Unknown blocks the whole chain: it can
// neither commit nor be skipped without a proof of apartness.
func (s *Solver) runChains(fdeps []environment.FunctionalDependency, candidates []*environment.InstanceDescriptor, wanted []typesystem.Type) []chainWinner {
	type chainGroup struct {
		named   bool
		members []*environment.InstanceDescriptor
	}
	var groups []chainGroup
	index := make(map[string]int)
	for _, tcd := range candidates {
		if tcd.Chain == nil {
			groups = append(groups, chainGroup{members: []*environment.InstanceDescriptor{tcd}})
			continue
		}
		key := tcd.Chain.String()
		at, seen := index[key]
		if !seen {
			index[key] = len(groups)
			groups = append(groups, chainGroup{named: true})
			at = len(groups) - 1
		}
		groups[at].members = append(groups[at].members, tcd)
	}

	var winners []chainWinner
	for _, group := range groups {
		if group.named {
			sort.SliceStable(group.members, func(i, j int) bool {
				return group.members[i].ChainIndex < group.members[j].ChainIndex
			})
		}
	chain:
		for _, tcd := range group.members {
			kind, matching := matches(fdeps, tcd, wanted)
			switch kind {
			case Match:
				winners = append(winners, chainWinner{tcd: tcd, matching: matching})
				break chain
			case Unknown:
				break chain
			}
		}
	}
	return winners
}

// overlapping: two candidates conflict when both are genuine user
// instances (not local assumptions, not superclass-derived) with distinct
// evidence.
func overlapping(a, b *environment.InstanceDescriptor) bool {
	return !a.IsLocal() && !b.IsLocal() &&
		!a.IsDerived() && !b.IsDerived() &&
		!environment.EvidenceEqual(a.Evidence, b.Evidence)
}

// canBeGeneralized: a constraint may become an obligation when it is
// nullary or when some argument is still an unsolved unknown.
func canBeGeneralized(con typesystem.Constraint) bool {
	if len(con.Args) == 0 {
		return true
	}
	for _, arg := range con.Args {
		if _, ok := typesystem.UnwrapKinded(arg).(typesystem.TUnknown); ok {
			return true
		}
	}
	return false
}

func (s *Solver) commitSolved(opts Options, ctx environment.InstanceContext, work int, con typesystem.Constraint, winner chainWinner) (ast.Expression, error) {
	s.progress = true
	tcd := winner.tcd

	// a variable matched at several positions must have received the same
	// type at each; let the unifier confirm
	names := make([]string, 0, len(winner.matching))
	for name := range winner.matching {
		names = append(names, name)
	}
	sort.Strings(names)
	binding := make(map[string]typesystem.Type, len(names))
	for _, name := range names {
		list := winner.matching[name]
		for i := 1; i < len(list); i++ {
			if err := s.unifier.Unify(list[0], list[i]); err != nil {
				return nil, err
			}
		}
		binding[name] = s.unifier.Substitute(list[0])
	}
	binding = s.freshenInstanceHead(tcd, binding)

	// functional dependencies propagate here: unifying the instantiated
	// head against the wanted arguments pins the inferred positions
	for i := range tcd.InstanceTypes {
		instanceType := typesystem.ReplaceTypeVars(tcd.InstanceTypes[i], binding)
		if err := s.unifier.Unify(instanceType, s.unifier.Substitute(con.Args[i])); err != nil {
			return nil, err
		}
	}

	var subgoalDicts []ast.Expression
	if tcd.Dependencies != nil {
		for _, dep := range *tcd.Dependencies {
			subgoal := dep.MapArgs(func(t typesystem.Type) typesystem.Type {
				return typesystem.ReplaceTypeVars(t, binding)
			})
			dict, err := s.solve(opts, ctx, work+1, subgoal)
			if err != nil {
				return nil, err
			}
			subgoalDicts = append(subgoalDicts, dict)
		}
	}

	var term ast.Expression
	switch evidence := tcd.Evidence.(type) {
	case environment.NamedInstance:
		term = ast.MkApp(&ast.Var{Name: evidence.Name}, subgoalDicts...)
	case environment.EmptyClassInstance:
		term = useEmpty(subgoalDicts)
	case environment.WarnInstance:
		s.warnings.AddUserDefinedWarning(typeLevelMessage(s.unifier.Substitute(evidence.Message)))
		term = useEmpty(subgoalDicts)
	case environment.IsSymbolInstance:
		term = &ast.RecordLiteral{Fields: []ast.RecordField{{
			Label: config.ReflectSymbolField,
			Value: &ast.Abs{Param: "_", Body: &ast.StringLiteral{Value: evidence.Symbol}},
		}}}
	}

	// a derived dictionary is reached by projecting superclass fields out
	// of the base dictionary, innermost step last in the stored path
	for i := len(tcd.Path) - 1; i >= 0; i-- {
		step := tcd.Path[i]
		term = &ast.App{
			Fn:  &ast.Accessor{Field: superclassFieldName(step.Class, step.Index), Expr: term},
			Arg: undefinedVar(),
		}
	}
	return term, nil
}

func (s *Solver) commitUnsolved(ctx environment.InstanceContext, con typesystem.Constraint) (ast.Expression, error) {
	ident := s.unifier.FreshIdent("dict" + con.Class.Name)
	qident := typesystem.Qualified{Name: ident}
	dicts, err := s.NewDictionaries(nil, qident, con)
	if err != nil {
		return nil, err
	}
	for _, d := range dicts {
		s.inferred.Add(environment.LocalModule, qident, d)
	}
	s.obligations = append(s.obligations, UnsolvedObligation{Ident: ident, Context: ctx, Constraint: con})
	return &ast.Var{Name: qident}, nil
}

func (s *Solver) deferConstraint(ctx environment.InstanceContext, con typesystem.Constraint) ast.Expression {
	outer := s.hints[:len(s.hints)-1]
	return &ast.TypeClassDictionary{
		Constraint: con,
		Context:    ctx,
		Hints:      append([]typesystem.Constraint(nil), outer...),
	}
}

// freshenInstanceHead extends the binding with fresh unknowns for every
// variable of the instance head or its dependencies that matching did not
// pin down.
func (s *Solver) freshenInstanceHead(tcd *environment.InstanceDescriptor, binding map[string]typesystem.Type) map[string]typesystem.Type {
	extended := make(map[string]typesystem.Type, len(binding))
	for name, t := range binding {
		extended[name] = t
	}
	need := func(t typesystem.Type) {
		for _, name := range typesystem.UsedTypeVariables(t) {
			if _, bound := extended[name]; !bound {
				extended[name] = s.unifier.Fresh()
			}
		}
	}
	for _, t := range tcd.InstanceTypes {
		need(t)
	}
	if tcd.Dependencies != nil {
		for _, dep := range *tcd.Dependencies {
			for _, t := range dep.Args {
				need(t)
			}
		}
	}
	return extended
}

func (s *Solver) hintStack() []typesystem.Constraint {
	return append([]typesystem.Constraint(nil), s.hints...)
}

// useEmpty builds the placeholder dictionary for a class with no members.
// The subgoal dictionaries still appear in the term so that evaluation
// order is preserved.
func useEmpty(args []ast.Expression) ast.Expression {
	term := undefinedVar()
	for _, arg := range args {
		term = &ast.App{Fn: &ast.Abs{Param: "_", Body: term}, Arg: arg}
	}
	return term
}

func undefinedVar() ast.Expression {
	return &ast.Var{Name: typesystem.Prim(config.UndefinedName)}
}

func superclassFieldName(class typesystem.Qualified, index int) string {
	return class.Name + strconv.Itoa(index)
}

// typeLevelMessage renders the payload of a Warn constraint.
func typeLevelMessage(t typesystem.Type) string {
	if lit, ok := literalString(t); ok {
		return lit
	}
	return t.String()
}
