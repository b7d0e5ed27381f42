package translate

import (
	"frozenarrow/arrowcol"
	"frozenarrow/farrowerr"
	"frozenarrow/plan"
)

// TerminalKind is the shape of result the host surface asked for, carried
// alongside the translated logical plan so the query provider knows which
// executor family to dispatch to.
type TerminalKind int

const (
	// TerminalEnumerate returns the row sequence described by the plan
	// (respecting any Select/Distinct/OrderBy/Take/Skip already applied).
	TerminalEnumerate TerminalKind = iota
	// TerminalScalarAgg returns the single scalar value of the trailing
	// plan.Aggregate node (Count/Sum/Avg/Min/Max).
	TerminalScalarAgg
	// TerminalAny reports whether any row matches.
	TerminalAny
	// TerminalAll reports whether every row matches. The translated plan
	// is built as Filter(Not(predicate)); the executor negates its Any
	// result, since "all rows satisfy p" iff "no row satisfies !p".
	TerminalAll
	// TerminalFirst returns the first matching row, failing if none exists.
	TerminalFirst
	// TerminalFirstOrDefault returns the first matching row, or the
	// caller's zero value if none exists.
	TerminalFirstOrDefault
)

// SelectField is one output column of a Select projection: OutputName
// takes its value from Source. The field's type is not part of
// SelectField; Select looks it up in the schema.
type SelectField struct {
	Source     string
	OutputName string
}

// AggSpec is one aggregate computed per group in a GroupBy query, built via
// CountAgg/SumAgg/AvgAgg/MinAgg/MaxAgg.
type AggSpec struct {
	kind       plan.AggKind
	column     string
	outputName string
}

// CountAgg builds a Count() aggregate.
func CountAgg(outputName string) AggSpec {
	return AggSpec{kind: plan.AggCount, outputName: outputName}
}

// SumAgg builds a Sum(column) aggregate.
func SumAgg(column, outputName string) AggSpec {
	return AggSpec{kind: plan.AggSum, column: column, outputName: outputName}
}

// AvgAgg builds an Avg(column) aggregate.
func AvgAgg(column, outputName string) AggSpec {
	return AggSpec{kind: plan.AggAvg, column: column, outputName: outputName}
}

// MinAgg builds a Min(column) aggregate.
func MinAgg(column, outputName string) AggSpec {
	return AggSpec{kind: plan.AggMin, column: column, outputName: outputName}
}

// MaxAgg builds a Max(column) aggregate.
func MaxAgg(column, outputName string) AggSpec {
	return AggSpec{kind: plan.AggMax, column: column, outputName: outputName}
}

// Translated is the output of the translator: a logical plan ready for
// plancache/optimizer/physical, plus the terminal shape the host surface
// requested.
type Translated struct {
	Node     plan.Node
	Terminal TerminalKind
}

// Query is the fluent builder realizing the host expression-tree surface
// (Where/Select/GroupBy/Take/Skip/terminal ops). Each method either
// advances the plan tree or records the first error encountered, letting
// a chain run to completion before the caller checks err once at a
// terminal method, rather than forcing an error check after every call.
type Query struct {
	schema *arrowcol.Schema
	node   plan.Node
	err    error
}

// NewQuery begins a query over a scan of schema with rowCount rows.
func NewQuery(schema *arrowcol.Schema, rowCount int64) *Query {
	scan, err := plan.NewScan(schema, rowCount)
	return &Query{schema: schema, node: scan, err: err}
}

func (q *Query) fail(err error) *Query {
	if q.err == nil {
		q.err = err
	}
	return q
}

// Where applies expr as a Filter. Multiple Where calls AND together, same
// as chaining And(...) into one expression.
func (q *Query) Where(expr *Expr) *Query {
	if q.err != nil {
		return q
	}
	preds, err := Where(q.schema, expr)
	if err != nil {
		return q.fail(err)
	}
	if len(preds) == 0 {
		return q
	}
	// The translator never evaluates data, so it cannot estimate real
	// selectivity; 1.0 (no assumed pruning) is the conservative placeholder.
	// The optimizer reorders the predicates by zone-map estimates but keeps
	// this Filter selectivity unchanged.
	f, err := plan.NewFilter(q.node, preds, 1.0)
	if err != nil {
		return q.fail(err)
	}
	q.node = f
	return q
}

// Select applies a Project narrowing/renaming fields to output names.
func (q *Query) Select(fields ...SelectField) *Query {
	if q.err != nil {
		return q
	}
	projectFields := make([]plan.ProjectField, 0, len(fields))
	for _, f := range fields {
		idx, ok := q.schema.IndexOf(f.Source)
		if !ok {
			return q.fail(farrowerr.New(farrowerr.SchemaMismatch, "translate: unknown column %q", f.Source))
		}
		meta := q.schema.Column(idx)
		outputName := f.OutputName
		if outputName == "" {
			outputName = f.Source
		}
		projectFields = append(projectFields, plan.ProjectField{
			SourceColumn: f.Source,
			OutputName:   outputName,
			Type:         meta.Type,
		})
	}
	p, err := plan.NewProject(q.node, projectFields)
	if err != nil {
		return q.fail(err)
	}
	q.node = p
	return q
}

// groupCardinalityGuess is the translator's placeholder estimate for a
// GroupBy's distinct-group count, since it has no zone map to derive a
// real one from. No later stage refines it: the optimizer carries it
// through as the GroupBy's EstimatedRowCount unchanged.
const groupCardinalityGuess = 256

// GroupBy applies a GroupBy(keySel).Select(aggProjector) translation:
// one key column plus one or more aggregates.
func (q *Query) GroupBy(keyColumn string, aggs ...AggSpec) *Query {
	if q.err != nil {
		return q
	}
	if len(aggs) == 0 {
		return q.fail(farrowerr.New(farrowerr.UnsupportedPattern, "translate: GroupBy requires at least one aggregate"))
	}
	descriptors := make([]plan.AggDescriptor, len(aggs))
	for i, a := range aggs {
		descriptors[i] = plan.AggDescriptor{Kind: a.kind, Column: a.column, OutputName: a.outputName}
	}
	estimate := q.node.EstimatedRowCount()
	if estimate > groupCardinalityGuess {
		estimate = groupCardinalityGuess
	}
	g, err := plan.NewGroupBy(q.node, keyColumn, descriptors, estimate)
	if err != nil {
		return q.fail(err)
	}
	q.node = g
	return q
}

// Distinct applies a Distinct over the current plan.
func (q *Query) Distinct() *Query {
	if q.err != nil {
		return q
	}
	d, err := plan.NewDistinct(q.node)
	if err != nil {
		return q.fail(err)
	}
	q.node = d
	return q
}

// OrderBy applies a Sort. Chained OrderBy calls accumulate into one Sort
// node's key list (LINQ's OrderBy/ThenBy shape), provided no other
// operator was applied in between; an OrderBy following something other
// than an existing Sort starts a fresh Sort node.
func (q *Query) OrderBy(column string, descending bool) *Query {
	if q.err != nil {
		return q
	}
	key := plan.SortKey{Column: column, Descending: descending}
	if existing, ok := q.node.(*plan.Sort); ok {
		keys := append(append([]plan.SortKey(nil), existing.Keys()...), key)
		s, err := plan.NewSort(existing.Input(), keys)
		if err != nil {
			return q.fail(err)
		}
		q.node = s
		return q
	}
	s, err := plan.NewSort(q.node, []plan.SortKey{key})
	if err != nil {
		return q.fail(err)
	}
	q.node = s
	return q
}

// Take applies a Limit.
func (q *Query) Take(count int64) *Query {
	if q.err != nil {
		return q
	}
	l, err := plan.NewLimit(q.node, count)
	if err != nil {
		return q.fail(err)
	}
	q.node = l
	return q
}

// Skip applies an Offset.
func (q *Query) Skip(count int64) *Query {
	if q.err != nil {
		return q
	}
	o, err := plan.NewOffset(q.node, count)
	if err != nil {
		return q.fail(err)
	}
	q.node = o
	return q
}

// Enumerate finalizes the query as a row-sequence result.
func (q *Query) Enumerate() (*Translated, error) {
	if q.err != nil {
		return nil, q.err
	}
	return &Translated{Node: q.node, Terminal: TerminalEnumerate}, nil
}

// aggregateTerminal wraps the current plan in a non-grouped plan.Aggregate
// and marks it TerminalScalarAgg, the shared tail of Count/Sum/Avg/Min/Max.
func (q *Query) aggregateTerminal(kind plan.AggKind, column string) (*Translated, error) {
	if q.err != nil {
		return nil, q.err
	}
	a, err := plan.NewAggregate(q.node, kind, column)
	if err != nil {
		return nil, err
	}
	return &Translated{Node: a, Terminal: TerminalScalarAgg}, nil
}

// Count finalizes the query as a Count() terminal.
func (q *Query) Count() (*Translated, error) { return q.aggregateTerminal(plan.AggCount, "") }

// Sum finalizes the query as a Sum(column) terminal.
func (q *Query) Sum(column string) (*Translated, error) { return q.aggregateTerminal(plan.AggSum, column) }

// Avg finalizes the query as an Avg(column) terminal.
func (q *Query) Avg(column string) (*Translated, error) { return q.aggregateTerminal(plan.AggAvg, column) }

// Min finalizes the query as a Min(column) terminal.
func (q *Query) Min(column string) (*Translated, error) { return q.aggregateTerminal(plan.AggMin, column) }

// Max finalizes the query as a Max(column) terminal.
func (q *Query) Max(column string) (*Translated, error) { return q.aggregateTerminal(plan.AggMax, column) }

// Any finalizes the query as an Any(predicate) terminal: true if any row
// satisfies expr (applied on top of whatever Where was already chained).
func (q *Query) Any(expr *Expr) (*Translated, error) {
	if q.err != nil {
		return nil, q.err
	}
	if expr != nil {
		q.Where(expr)
		if q.err != nil {
			return nil, q.err
		}
	}
	return &Translated{Node: q.node, Terminal: TerminalAny}, nil
}

// All finalizes the query as an All(predicate) terminal: true if every row
// satisfies expr. Translated as Filter(Not(expr)) + TerminalAll so the
// executor can reuse the same streaming Any machinery and negate the
// result.
func (q *Query) All(expr *Expr) (*Translated, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.Where(Not(expr))
	if q.err != nil {
		return nil, q.err
	}
	return &Translated{Node: q.node, Terminal: TerminalAll}, nil
}

// First finalizes the query as a First() terminal.
func (q *Query) First() (*Translated, error) {
	if q.err != nil {
		return nil, q.err
	}
	return &Translated{Node: q.node, Terminal: TerminalFirst}, nil
}

// FirstOrDefault finalizes the query as a FirstOrDefault() terminal.
func (q *Query) FirstOrDefault() (*Translated, error) {
	if q.err != nil {
		return nil, q.err
	}
	return &Translated{Node: q.node, Terminal: TerminalFirstOrDefault}, nil
}
