package entailment

import (
	"github.com/funvibe/lumen/internal/ast"
)

// ReplaceTypeClassDictionaries runs the dictionary pass over an expression.
//
// The first phase solves or defers every placeholder, repeating while any
// solve made progress: each solved constraint can refine the substitution
// enough to unblock another. The second phase runs with deferral off; what
// still cannot be solved either generalizes into an obligation on the
// enclosing binding (when shouldGeneralize is set) or fails.
func (s *Solver) ReplaceTypeClassDictionaries(shouldGeneralize bool, expr ast.Expression) (ast.Expression, []UnsolvedObligation, error) {
	deferPass := Options{DeferErrors: true, ShouldGeneralize: shouldGeneralize}
	for {
		s.progress = false
		rewritten, err := s.rewritePlaceholders(deferPass, expr)
		if err != nil {
			return nil, nil, err
		}
		expr = rewritten
		if !s.progress {
			break
		}
	}

	finalPass := Options{DeferErrors: false, ShouldGeneralize: shouldGeneralize}
	rewritten, err := s.rewritePlaceholders(finalPass, expr)
	if err != nil {
		return nil, nil, err
	}

	obligations := s.obligations
	s.obligations = nil
	return rewritten, obligations, nil
}

func (s *Solver) rewritePlaceholders(opts Options, expr ast.Expression) (ast.Expression, error) {
	return ast.EverywhereOnValuesTopDownM(func(e ast.Expression) (ast.Expression, error) {
		if dict, ok := e.(*ast.TypeClassDictionary); ok {
			return s.Entails(opts, dict.Constraint, dict.Context, dict.Hints)
		}
		return e, nil
	}, expr)
}
