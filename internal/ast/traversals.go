package ast

// EverywhereOnValuesTopDownM rewrites an expression tree top-down: f runs on
// the node first, then the traversal recurses into the children of whatever
// f returned. The first error aborts the walk.
func EverywhereOnValuesTopDownM(f func(Expression) (Expression, error), e Expression) (Expression, error) {
	rewritten, err := f(e)
	if err != nil {
		return nil, err
	}
	switch n := rewritten.(type) {
	case *App:
		fn, err := EverywhereOnValuesTopDownM(f, n.Fn)
		if err != nil {
			return nil, err
		}
		arg, err := EverywhereOnValuesTopDownM(f, n.Arg)
		if err != nil {
			return nil, err
		}
		return &App{Fn: fn, Arg: arg}, nil
	case *Abs:
		body, err := EverywhereOnValuesTopDownM(f, n.Body)
		if err != nil {
			return nil, err
		}
		return &Abs{Param: n.Param, Body: body}, nil
	case *Accessor:
		expr, err := EverywhereOnValuesTopDownM(f, n.Expr)
		if err != nil {
			return nil, err
		}
		return &Accessor{Field: n.Field, Expr: expr}, nil
	case *RecordLiteral:
		fields := make([]RecordField, len(n.Fields))
		for i, field := range n.Fields {
			value, err := EverywhereOnValuesTopDownM(f, field.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = RecordField{Label: field.Label, Value: value}
		}
		return &RecordLiteral{Fields: fields}, nil
	default:
		return rewritten, nil
	}
}

// CountPlaceholders returns how many dictionary placeholders remain in e.
func CountPlaceholders(e Expression) int {
	count := 0
	_, _ = EverywhereOnValuesTopDownM(func(e Expression) (Expression, error) {
		if _, ok := e.(*TypeClassDictionary); ok {
			count++
		}
		return e, nil
	}, e)
	return count
}
