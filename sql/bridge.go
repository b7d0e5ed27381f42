package sql

import (
	"strconv"
	"strings"

	"frozenarrow/arrowcol"
	"frozenarrow/farrowerr"
	"frozenarrow/translate"
)

// Translate converts a parsed SelectStmt into the same Translated{Node,
// Terminal} shape the translate package's combinator API produces, so the
// optimizer and physical planner downstream never need to know whether a
// query arrived as SQL text or as a chained Query call. schema and
// rowCount describe the collection named in FROM; the caller is
// responsible for matching stmt.From against the collection it actually
// holds (the dialect has no
// catalog of named collections to resolve FROM against itself).
func Translate(schema *arrowcol.Schema, rowCount int64, stmt *SelectStmt) (*translate.Translated, error) {
	aggCols, plainCols, err := splitColumns(stmt.Columns)
	if err != nil {
		return nil, err
	}

	q := translate.NewQuery(schema, rowCount)

	if stmt.Where != nil {
		expr, err := boolExprToExpr(schema, stmt.Where)
		if err != nil {
			return nil, err
		}
		q = q.Where(expr)
	}

	if stmt.GroupBy != "" {
		return translateGroupBy(q, schema, stmt, aggCols)
	}

	if len(aggCols) > 0 {
		return translateUngroupedAggregate(q, stmt, aggCols)
	}

	return translateRowQuery(q, schema, stmt, plainCols)
}

// splitColumns separates the SELECT list into aggregate calls and plain
// column references; "*" is reported as a plain column with an empty
// Source, expanded by translateRowQuery into an identity projection (i.e.
// no Select() call at all).
func splitColumns(cols []SelectColumn) (agg []SelectColumn, plain []SelectColumn, err error) {
	for _, c := range cols {
		if c.Aggregate != nil {
			agg = append(agg, c)
			continue
		}
		plain = append(plain, c)
	}
	if len(agg) > 0 && len(plain) > 0 {
		for _, p := range plain {
			if !p.Star {
				return nil, nil, farrowerr.New(farrowerr.UnsupportedPattern,
					"sql: cannot mix aggregate and non-aggregate columns without GROUP BY")
			}
		}
	}
	return agg, plain, nil
}

func translateRowQuery(q *translate.Query, schema *arrowcol.Schema, stmt *SelectStmt, plainCols []SelectColumn) (*translate.Translated, error) {
	if !isStarOnly(plainCols) {
		fields := make([]translate.SelectField, 0, len(plainCols))
		for _, c := range plainCols {
			name := c.Alias
			if name == "" {
				name = c.Column
			}
			fields = append(fields, translate.SelectField{Source: c.Column, OutputName: name})
		}
		q = q.Select(fields...)
	}

	if stmt.Distinct {
		q = q.Distinct()
	}
	for _, term := range stmt.OrderBy {
		q = q.OrderBy(term.Column, term.Descending)
	}
	if stmt.Offset != nil {
		q = q.Skip(*stmt.Offset)
	}
	if stmt.Limit != nil {
		q = q.Take(*stmt.Limit)
	}
	return q.Enumerate()
}

func isStarOnly(cols []SelectColumn) bool {
	if len(cols) != 1 {
		return len(cols) == 0
	}
	return cols[0].Star
}

// translateUngroupedAggregate handles "SELECT COUNT(*)|SUM(x)|... FROM t
// [WHERE ...]" with no GROUP BY. The dialect supports exactly one
// aggregate function per ungrouped query: translate.Query's terminal API
// (Count/Sum/Avg/Min/Max) returns one scalar, so "SELECT COUNT(*),
// SUM(x) FROM t" has no Translated shape to produce and is rejected
// rather than silently dropping one of the two aggregates.
func translateUngroupedAggregate(q *translate.Query, stmt *SelectStmt, aggCols []SelectColumn) (*translate.Translated, error) {
	if len(aggCols) != 1 {
		return nil, farrowerr.New(farrowerr.UnsupportedPattern,
			"sql: only one aggregate function is supported without GROUP BY, got %d", len(aggCols))
	}
	call := aggCols[0].Aggregate
	switch call.Func {
	case "COUNT":
		return q.Count()
	case "SUM":
		return q.Sum(call.Column)
	case "AVG":
		return q.Avg(call.Column)
	case "MIN":
		return q.Min(call.Column)
	case "MAX":
		return q.Max(call.Column)
	default:
		return nil, farrowerr.New(farrowerr.UnsupportedPattern, "sql: unknown aggregate function %q", call.Func)
	}
}

func translateGroupBy(q *translate.Query, schema *arrowcol.Schema, stmt *SelectStmt, aggCols []SelectColumn) (*translate.Translated, error) {
	if len(aggCols) == 0 {
		return nil, farrowerr.New(farrowerr.UnsupportedPattern, "sql: GROUP BY requires at least one aggregate column")
	}

	// HAVING is documented-limited to the group key column: since the key's
	// value is invariant within a group, "HAVING key op literal" is
	// equivalent to filtering the key column before grouping at all.
	if stmt.Having != nil {
		if err := requireOnlyColumn(stmt.Having, stmt.GroupBy); err != nil {
			return nil, err
		}
		expr, err := boolExprToExpr(schema, stmt.Having)
		if err != nil {
			return nil, err
		}
		q = q.Where(expr)
	}

	specs := make([]translate.AggSpec, 0, len(aggCols))
	for _, c := range aggCols {
		call := c.Aggregate
		outputName := c.Alias
		if outputName == "" {
			outputName = strings.ToLower(call.Func)
		}
		switch call.Func {
		case "COUNT":
			specs = append(specs, translate.CountAgg(outputName))
		case "SUM":
			specs = append(specs, translate.SumAgg(call.Column, outputName))
		case "AVG":
			specs = append(specs, translate.AvgAgg(call.Column, outputName))
		case "MIN":
			specs = append(specs, translate.MinAgg(call.Column, outputName))
		case "MAX":
			specs = append(specs, translate.MaxAgg(call.Column, outputName))
		default:
			return nil, farrowerr.New(farrowerr.UnsupportedPattern, "sql: unknown aggregate function %q", call.Func)
		}
	}

	q = q.GroupBy(stmt.GroupBy, specs...)
	for _, term := range stmt.OrderBy {
		q = q.OrderBy(term.Column, term.Descending)
	}
	if stmt.Offset != nil {
		q = q.Skip(*stmt.Offset)
	}
	if stmt.Limit != nil {
		q = q.Take(*stmt.Limit)
	}
	return q.Enumerate()
}

// requireOnlyColumn walks be and fails unless every CompareExpr/LikeExpr
// /IsNullExpr references exactly allowed.
func requireOnlyColumn(be BoolExpr, allowed string) error {
	switch e := be.(type) {
	case *BinaryBoolExpr:
		if err := requireOnlyColumn(e.Left, allowed); err != nil {
			return err
		}
		return requireOnlyColumn(e.Right, allowed)
	case *NotExpr:
		return requireOnlyColumn(e.Inner, allowed)
	case *CompareExpr:
		return requireColumn(e.Column, allowed)
	case *LikeExpr:
		return requireColumn(e.Column, allowed)
	case *IsNullExpr:
		return requireColumn(e.Column, allowed)
	default:
		return farrowerr.New(farrowerr.UnsupportedPattern, "sql: unrecognized HAVING expression")
	}
}

func requireColumn(column, allowed string) error {
	if column != allowed {
		return farrowerr.New(farrowerr.UnsupportedPattern,
			"sql: HAVING supports only the GROUP BY key column %q, got %q", allowed, column)
	}
	return nil
}

// boolExprToExpr converts the parsed WHERE/HAVING AST into a
// translate.Expr, resolving each literal against its target column's type
// (the parser itself carries no schema, matching the translator's own
// schema-at-the-edge design).
func boolExprToExpr(schema *arrowcol.Schema, be BoolExpr) (*translate.Expr, error) {
	switch e := be.(type) {
	case *BinaryBoolExpr:
		left, err := boolExprToExpr(schema, e.Left)
		if err != nil {
			return nil, err
		}
		right, err := boolExprToExpr(schema, e.Right)
		if err != nil {
			return nil, err
		}
		if e.Op == "AND" {
			return translate.And(left, right), nil
		}
		return translate.Or(left, right), nil
	case *NotExpr:
		inner, err := boolExprToExpr(schema, e.Inner)
		if err != nil {
			return nil, err
		}
		return translate.Not(inner), nil
	case *IsNullExpr:
		col := translate.Col(e.Column)
		if e.Negate {
			return col.IsNotNull(), nil
		}
		return col.IsNull(), nil
	case *LikeExpr:
		expr, err := likeExprToExpr(e)
		if err != nil {
			return nil, err
		}
		return expr, nil
	case *CompareExpr:
		return compareExprToExpr(schema, e)
	default:
		return nil, farrowerr.New(farrowerr.UnsupportedPattern, "sql: unrecognized boolean expression")
	}
}

// likeExprToExpr maps a LIKE pattern onto the one StringOp kind it exactly
// matches: "%x%" -> Contains, "%x" -> EndsWith, "x%" -> StartsWith, and a
// pattern with no wildcard -> a plain string equality. Any other
// combination (wildcards in the middle, a "_" single-character wildcard)
// has no StringOp equivalent and reports UnsupportedPattern rather than
// approximating.
func likeExprToExpr(e *LikeExpr) (*translate.Expr, error) {
	pattern := e.Pattern
	if strings.Contains(pattern, "_") {
		return nil, farrowerr.New(farrowerr.UnsupportedPattern, "sql: LIKE '_' single-character wildcard is not supported")
	}
	col := translate.Col(e.Column)

	leading := strings.HasPrefix(pattern, "%")
	trailing := strings.HasSuffix(pattern, "%")
	inner := pattern
	if leading {
		inner = strings.TrimPrefix(inner, "%")
	}
	if trailing {
		inner = strings.TrimSuffix(inner, "%")
	}
	if strings.Contains(inner, "%") {
		return nil, farrowerr.New(farrowerr.UnsupportedPattern, "sql: LIKE pattern %q has an unsupported wildcard placement", pattern)
	}

	var expr *translate.Expr
	switch {
	case leading && trailing:
		expr = col.Contains(inner)
	case leading:
		expr = col.EndsWith(inner)
	case trailing:
		expr = col.StartsWith(inner)
	default:
		expr = col.Eq(inner)
	}
	if e.Negated {
		return translate.Not(expr), nil
	}
	return expr, nil
}

func compareExprToExpr(schema *arrowcol.Schema, e *CompareExpr) (*translate.Expr, error) {
	idx, ok := schema.IndexOf(e.Column)
	if !ok {
		return nil, farrowerr.New(farrowerr.SchemaMismatch, "sql: unknown column %q", e.Column)
	}
	meta := schema.Column(idx)
	value, err := literalValue(e.Literal, meta.Type)
	if err != nil {
		return nil, err
	}
	col := translate.Col(e.Column)
	switch e.Op {
	case "=":
		return col.Eq(value), nil
	case "!=", "<>":
		return col.Ne(value), nil
	case "<":
		return col.Lt(value), nil
	case "<=":
		return col.Le(value), nil
	case ">":
		return col.Gt(value), nil
	case ">=":
		return col.Ge(value), nil
	default:
		return nil, farrowerr.New(farrowerr.UnsupportedPattern, "sql: unknown comparison operator %q", e.Op)
	}
}

// literalValue converts a parsed Literal into the Go value translate.Expr
// expects for colType. Decimal columns have no scale in their schema
// metadata (arrowcol.ColumnMeta carries only Name/Type/Nullable), so a
// decimal literal's own scale is taken from its lexical form: "12.34"
// against a Decimal column yields scaledValue 1234 at implied scale 2.
// This is a documented dialect assumption — callers must author decimal
// literals already at the column's stored scale — consistent with
// predicate.NewDecCmp's own raw-scaled-int64 contract.
func literalValue(lit Literal, colType arrowcol.Type) (interface{}, error) {
	switch colType {
	case arrowcol.Int32:
		if lit.Kind != LiteralInteger {
			return nil, farrowerr.New(farrowerr.UnsupportedPattern, "sql: expected an integer literal for an Int32 column, got %q", lit.Text)
		}
		n, err := strconv.ParseInt(lit.Text, 10, 32)
		if err != nil {
			return nil, farrowerr.New(farrowerr.UnsupportedPattern, "sql: invalid integer literal %q", lit.Text)
		}
		return int32(n), nil
	case arrowcol.Float64:
		switch lit.Kind {
		case LiteralFloat, LiteralInteger:
			v, err := strconv.ParseFloat(lit.Text, 64)
			if err != nil {
				return nil, farrowerr.New(farrowerr.UnsupportedPattern, "sql: invalid numeric literal %q", lit.Text)
			}
			return v, nil
		default:
			return nil, farrowerr.New(farrowerr.UnsupportedPattern, "sql: expected a numeric literal for a Float64 column, got %q", lit.Text)
		}
	case arrowcol.Decimal:
		return decimalScaled(lit)
	case arrowcol.String:
		if lit.Kind != LiteralString {
			return nil, farrowerr.New(farrowerr.UnsupportedPattern, "sql: expected a string literal for a String column, got %q", lit.Text)
		}
		return lit.Text, nil
	case arrowcol.Bool:
		if lit.Kind != LiteralBoolean {
			return nil, farrowerr.New(farrowerr.UnsupportedPattern, "sql: expected TRUE/FALSE for a Bool column, got %q", lit.Text)
		}
		return lit.Text == "TRUE", nil
	default:
		return nil, farrowerr.New(farrowerr.UnsupportedPattern, "sql: column type %s has no SQL literal comparator", colType)
	}
}

// decimalScaled converts an integer or decimal-point literal into the raw
// scaled int64 predicate.NewDecCmp expects, inferring the scale from the
// literal's own digits-after-the-point count.
func decimalScaled(lit Literal) (int64, error) {
	switch lit.Kind {
	case LiteralInteger:
		n, err := strconv.ParseInt(lit.Text, 10, 64)
		if err != nil {
			return 0, farrowerr.New(farrowerr.UnsupportedPattern, "sql: invalid integer literal %q", lit.Text)
		}
		return n, nil
	case LiteralFloat:
		digits := strings.Replace(lit.Text, ".", "", 1)
		n, err := strconv.ParseInt(digits, 10, 64)
		if err != nil {
			return 0, farrowerr.New(farrowerr.UnsupportedPattern, "sql: invalid decimal literal %q", lit.Text)
		}
		return n, nil
	default:
		return 0, farrowerr.New(farrowerr.UnsupportedPattern, "sql: expected a numeric literal for a Decimal column, got %q", lit.Text)
	}
}
