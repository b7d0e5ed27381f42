package translate

import (
	"frozenarrow/arrowcol"
	"frozenarrow/farrowerr"
	"frozenarrow/predicate"
)

// unsupported builds the UnsupportedPattern error the translator returns
// whenever an Expr cannot be reduced to a predicate.Predicate. Callers are
// expected to fall back to scalar evaluation of their own expression in
// that case.
func unsupported(format string, args ...interface{}) error {
	return farrowerr.New(farrowerr.UnsupportedPattern, format, args...)
}

// Where reduces expr into the flat predicate list a plan.Filter carries.
// A top-level And flattens (recursively) into one predicate per conjunct,
// letting the optimizer reorder them independently; any other expr shape
// yields a single-element list.
func Where(schema *arrowcol.Schema, expr *Expr) ([]predicate.Predicate, error) {
	if expr == nil {
		return nil, nil
	}
	var preds []predicate.Predicate
	if err := flattenAnd(schema, expr, &preds); err != nil {
		return nil, err
	}
	return preds, nil
}

// flattenAnd appends expr's conjuncts to preds, recursing through nested
// And nodes so "a && (b && c)" and "(a && b) && c" both flatten to three
// predicates.
func flattenAnd(schema *arrowcol.Schema, expr *Expr, preds *[]predicate.Predicate) error {
	if expr.kind == exprAnd {
		for _, child := range expr.children {
			if err := flattenAnd(schema, child, preds); err != nil {
				return err
			}
		}
		return nil
	}
	p, err := buildPredicate(schema, expr)
	if err != nil {
		return err
	}
	*preds = append(*preds, p)
	return nil
}

// buildPredicate reduces one Expr (leaf or compound, but never a bare
// top-level And — callers that want conjunction concatenation use Where)
// into a single predicate.Predicate.
func buildPredicate(schema *arrowcol.Schema, expr *Expr) (predicate.Predicate, error) {
	switch expr.kind {
	case exprCompare:
		return buildCompare(schema, expr)
	case exprPattern:
		return predicate.NewStringOp(schema, expr.column, expr.patternKind, expr.literal.(string))
	case exprIsNull:
		isNull, err := predicate.NewIsNull(schema, expr.column)
		if err != nil {
			return nil, err
		}
		if expr.negated {
			return predicate.NewNot(isNull), nil
		}
		return isNull, nil
	case exprAnd:
		list := make([]predicate.Predicate, 0, len(expr.children))
		for _, child := range expr.children {
			p, err := buildPredicate(schema, child)
			if err != nil {
				return nil, err
			}
			list = append(list, p)
		}
		return predicate.NewAnd(list), nil
	case exprOr:
		if len(expr.children) != 2 {
			return nil, unsupported("translate: Or requires exactly two operands, got %d", len(expr.children))
		}
		left, err := buildPredicate(schema, expr.children[0])
		if err != nil {
			return nil, err
		}
		right, err := buildPredicate(schema, expr.children[1])
		if err != nil {
			return nil, err
		}
		return predicate.NewOr(left, right), nil
	case exprNot:
		if len(expr.children) != 1 {
			return nil, unsupported("translate: Not requires exactly one operand, got %d", len(expr.children))
		}
		inner, err := buildPredicate(schema, expr.children[0])
		if err != nil {
			return nil, err
		}
		return predicate.NewNot(inner), nil
	default:
		return nil, unsupported("translate: unrecognized expression kind")
	}
}

// buildCompare resolves expr's column type from schema and dispatches to
// the matching typed predicate constructor, converting Go's untyped
// literal into the exact type each constructor expects. Any column/literal
// combination the core predicate model does not support (e.g. ordering
// operators against a Bool column) fails with UnsupportedPattern rather
// than silently coercing.
func buildCompare(schema *arrowcol.Schema, expr *Expr) (predicate.Predicate, error) {
	idx, ok := schema.IndexOf(expr.column)
	if !ok {
		return nil, farrowerr.New(farrowerr.SchemaMismatch, "translate: unknown column %q", expr.column)
	}
	meta := schema.Column(idx)

	switch meta.Type {
	case arrowcol.Int32:
		v, err := asInt32(expr.literal)
		if err != nil {
			return nil, err
		}
		return predicate.NewI32Cmp(schema, expr.column, expr.op, v)
	case arrowcol.Float64:
		v, err := asFloat64(expr.literal)
		if err != nil {
			return nil, err
		}
		return predicate.NewF64Cmp(schema, expr.column, expr.op, v)
	case arrowcol.Decimal:
		v, err := asInt64(expr.literal)
		if err != nil {
			return nil, err
		}
		return predicate.NewDecCmp(schema, expr.column, expr.op, v)
	case arrowcol.String:
		v, ok := expr.literal.(string)
		if !ok {
			return nil, unsupported("translate: column %q is String, literal is %T", expr.column, expr.literal)
		}
		return predicate.NewStrCmp(schema, expr.column, expr.op, v)
	case arrowcol.Bool:
		v, ok := expr.literal.(bool)
		if !ok {
			return nil, unsupported("translate: column %q is Bool, literal is %T", expr.column, expr.literal)
		}
		switch expr.op {
		case predicate.Eq:
			return predicate.NewBoolEq(schema, expr.column, v)
		case predicate.Ne:
			eq, err := predicate.NewBoolEq(schema, expr.column, v)
			if err != nil {
				return nil, err
			}
			return predicate.NewNot(eq), nil
		default:
			return nil, unsupported("translate: Bool column %q supports only = and !=, got %s", expr.column, expr.op)
		}
	default:
		return nil, unsupported("translate: column %q has unsupported type %s", expr.column, meta.Type)
	}
}

func asInt32(v interface{}) (int32, error) {
	switch n := v.(type) {
	case int32:
		return n, nil
	case int:
		return int32(n), nil
	case int64:
		return int32(n), nil
	default:
		return 0, unsupported("translate: expected an integer literal, got %T", v)
	}
}

func asInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	default:
		return 0, unsupported("translate: expected an integer literal, got %T", v)
	}
}

func asFloat64(v interface{}) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	default:
		return 0, unsupported("translate: expected a floating-point literal, got %T", v)
	}
}
