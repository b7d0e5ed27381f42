// Package plan implements an immutable logical plan tree: seven primary
// node kinds plus Distinct and Sort, each carrying its input, output
// schema, estimated row count, and a stable description string,
// visitable via a Visitor.
package plan

import (
	"fmt"
	"math"

	"frozenarrow/arrowcol"
	"frozenarrow/farrowerr"
	"frozenarrow/predicate"
)

// Kind enumerates the logical node kinds.
type Kind int

const (
	KindScan Kind = iota
	KindFilter
	KindProject
	KindAggregate
	KindGroupBy
	KindLimit
	KindOffset
	KindDistinct
	KindSort
)

func (k Kind) String() string {
	switch k {
	case KindScan:
		return "Scan"
	case KindFilter:
		return "Filter"
	case KindProject:
		return "Project"
	case KindAggregate:
		return "Aggregate"
	case KindGroupBy:
		return "GroupBy"
	case KindLimit:
		return "Limit"
	case KindOffset:
		return "Offset"
	case KindDistinct:
		return "Distinct"
	case KindSort:
		return "Sort"
	default:
		return "Unknown"
	}
}

// Node is the common interface every logical plan node implements. Nodes
// are immutable once constructed; sharing is always by reference.
type Node interface {
	Kind() Kind
	// Input returns the child node, or nil for Scan.
	Input() Node
	OutputSchema() *arrowcol.Schema
	EstimatedRowCount() int64
	Description() string
	Accept(v Visitor) interface{}
}

// Visitor lets transformers (optimizer, explainer, hasher, cost model)
// walk a plan without a type switch in every caller. Go methods cannot be
// generic, so Accept/the Visitor methods exchange interface{}; callers
// type-assert the result to the concrete T they expect.
type Visitor interface {
	VisitScan(*Scan) interface{}
	VisitFilter(*Filter) interface{}
	VisitProject(*Project) interface{}
	VisitAggregate(*Aggregate) interface{}
	VisitGroupBy(*GroupBy) interface{}
	VisitLimit(*Limit) interface{}
	VisitOffset(*Offset) interface{}
	VisitDistinct(*Distinct) interface{}
	VisitSort(*Sort) interface{}
}

func invariantError(format string, args ...interface{}) error {
	return farrowerr.New(farrowerr.BoundsError, format, args...)
}

// Scan is the root node: a reference to the frozen collection itself.
type Scan struct {
	schema   *arrowcol.Schema
	rowCount int64
}

// NewScan builds a Scan over schema with rowCount rows.
func NewScan(schema *arrowcol.Schema, rowCount int64) (*Scan, error) {
	if rowCount < 0 {
		return nil, invariantError("plan: Scan row count must be non-negative, got %d", rowCount)
	}
	return &Scan{schema: schema, rowCount: rowCount}, nil
}

func (s *Scan) Kind() Kind                        { return KindScan }
func (s *Scan) Input() Node                       { return nil }
func (s *Scan) OutputSchema() *arrowcol.Schema    { return s.schema }
func (s *Scan) EstimatedRowCount() int64          { return s.rowCount }
func (s *Scan) Description() string               { return fmt.Sprintf("Scan(rows=%d)", s.rowCount) }
func (s *Scan) Accept(v Visitor) interface{}      { return v.VisitScan(s) }

// Filter refines its input by a conjunctive (or compound) predicate list,
// already reordered by the optimizer once it has run.
type Filter struct {
	input       Node
	predicates  []predicate.Predicate
	selectivity float64
}

// NewFilter builds a Filter. selectivity must be in [0,1]; it is the
// combined estimated selectivity of predicates against input.
func NewFilter(input Node, predicates []predicate.Predicate, selectivity float64) (*Filter, error) {
	if selectivity < 0 || selectivity > 1 {
		return nil, invariantError("plan: Filter selectivity must be in [0,1], got %f", selectivity)
	}
	return &Filter{
		input:       input,
		predicates:  append([]predicate.Predicate(nil), predicates...),
		selectivity: selectivity,
	}, nil
}

func (f *Filter) Kind() Kind                     { return KindFilter }
func (f *Filter) Input() Node                    { return f.input }
func (f *Filter) OutputSchema() *arrowcol.Schema { return f.input.OutputSchema() }
func (f *Filter) Predicates() []predicate.Predicate { return f.predicates }
func (f *Filter) Selectivity() float64           { return f.selectivity }

func (f *Filter) EstimatedRowCount() int64 {
	return int64(math.Ceil(float64(f.input.EstimatedRowCount()) * f.selectivity))
}

func (f *Filter) Description() string {
	return fmt.Sprintf("Filter(predicates=%d, selectivity=%.4f)", len(f.predicates), f.selectivity)
}

func (f *Filter) Accept(v Visitor) interface{} { return v.VisitFilter(f) }

// ProjectField describes one output column of a Project node.
type ProjectField struct {
	SourceColumn string
	OutputName   string
	Type         arrowcol.Type
}

// Project narrows/renames columns from its input.
type Project struct {
	input  Node
	schema *arrowcol.Schema
	fields []ProjectField
}

// NewProject builds a Project with the given output fields.
func NewProject(input Node, fields []ProjectField) (*Project, error) {
	cols := make([]arrowcol.ColumnMeta, len(fields))
	for i, fld := range fields {
		cols[i] = arrowcol.ColumnMeta{Name: fld.OutputName, Type: fld.Type}
	}
	return &Project{input: input, schema: arrowcol.NewSchema(cols), fields: append([]ProjectField(nil), fields...)}, nil
}

func (p *Project) Kind() Kind                     { return KindProject }
func (p *Project) Input() Node                    { return p.input }
func (p *Project) OutputSchema() *arrowcol.Schema { return p.schema }
func (p *Project) Fields() []ProjectField         { return p.fields }
func (p *Project) EstimatedRowCount() int64       { return p.input.EstimatedRowCount() }
func (p *Project) Description() string {
	return fmt.Sprintf("Project(fields=%d)", len(p.fields))
}
func (p *Project) Accept(v Visitor) interface{} { return v.VisitProject(p) }

// AggKind enumerates the aggregation functions the core supports.
type AggKind int

const (
	AggCount AggKind = iota
	AggSum
	AggAvg
	AggMin
	AggMax
)

func (k AggKind) String() string {
	switch k {
	case AggCount:
		return "Count"
	case AggSum:
		return "Sum"
	case AggAvg:
		return "Avg"
	case AggMin:
		return "Min"
	case AggMax:
		return "Max"
	default:
		return "Unknown"
	}
}

// Aggregate reduces its input to a single row via one aggregation
// function over one column (Column is ignored for Count).
type Aggregate struct {
	input  Node
	schema *arrowcol.Schema
	kind   AggKind
	column string
}

// NewAggregate builds an Aggregate of kind over column (column may be
// empty for AggCount).
func NewAggregate(input Node, kind AggKind, column string) (*Aggregate, error) {
	outType := arrowcol.Int64
	if kind != AggCount {
		if idx, ok := input.OutputSchema().IndexOf(column); ok {
			outType = input.OutputSchema().Column(idx).Type
		}
	}
	schema := arrowcol.NewSchema([]arrowcol.ColumnMeta{{Name: kind.String(), Type: outType}})
	return &Aggregate{input: input, schema: schema, kind: kind, column: column}, nil
}

func (a *Aggregate) Kind() Kind                     { return KindAggregate }
func (a *Aggregate) Input() Node                    { return a.input }
func (a *Aggregate) OutputSchema() *arrowcol.Schema { return a.schema }
func (a *Aggregate) AggKind() AggKind               { return a.kind }
func (a *Aggregate) Column() string                 { return a.column }
func (a *Aggregate) EstimatedRowCount() int64       { return 1 }
func (a *Aggregate) Description() string {
	return fmt.Sprintf("Aggregate(%s(%s))", a.kind, a.column)
}
func (a *Aggregate) Accept(v Visitor) interface{} { return v.VisitAggregate(a) }

// AggDescriptor is one aggregation computed per group in a GroupBy.
type AggDescriptor struct {
	Kind       AggKind
	Column     string
	OutputName string
}

// GroupBy partitions its input by one key column and computes one or more
// aggregates per group.
type GroupBy struct {
	input                   Node
	schema                  *arrowcol.Schema
	keyColumn               string
	aggregates              []AggDescriptor
	estimatedDistinctGroups int64
}

// NewGroupBy builds a GroupBy keyed on keyColumn with the given
// aggregates. estimatedDistinctGroups seeds EstimatedRowCount.
func NewGroupBy(input Node, keyColumn string, aggregates []AggDescriptor, estimatedDistinctGroups int64) (*GroupBy, error) {
	if estimatedDistinctGroups < 0 {
		return nil, invariantError("plan: GroupBy estimated distinct groups must be non-negative, got %d", estimatedDistinctGroups)
	}
	keyIdx, ok := input.OutputSchema().IndexOf(keyColumn)
	if !ok {
		return nil, invariantError("plan: GroupBy key column %q not found in input schema", keyColumn)
	}
	cols := []arrowcol.ColumnMeta{input.OutputSchema().Column(keyIdx)}
	for _, agg := range aggregates {
		outType := arrowcol.Int64
		if agg.Kind != AggCount {
			if idx, ok := input.OutputSchema().IndexOf(agg.Column); ok {
				outType = input.OutputSchema().Column(idx).Type
			}
		}
		cols = append(cols, arrowcol.ColumnMeta{Name: agg.OutputName, Type: outType})
	}
	return &GroupBy{
		input:                   input,
		schema:                  arrowcol.NewSchema(cols),
		keyColumn:               keyColumn,
		aggregates:              append([]AggDescriptor(nil), aggregates...),
		estimatedDistinctGroups: estimatedDistinctGroups,
	}, nil
}

func (g *GroupBy) Kind() Kind                     { return KindGroupBy }
func (g *GroupBy) Input() Node                    { return g.input }
func (g *GroupBy) OutputSchema() *arrowcol.Schema { return g.schema }
func (g *GroupBy) KeyColumn() string              { return g.keyColumn }
func (g *GroupBy) Aggregates() []AggDescriptor     { return g.aggregates }
func (g *GroupBy) EstimatedRowCount() int64        { return g.estimatedDistinctGroups }
func (g *GroupBy) Description() string {
	return fmt.Sprintf("GroupBy(key=%s, aggregates=%d, groups~%d)", g.keyColumn, len(g.aggregates), g.estimatedDistinctGroups)
}
func (g *GroupBy) Accept(v Visitor) interface{} { return v.VisitGroupBy(g) }

// Limit caps the input to at most count rows.
type Limit struct {
	input Node
	count int64
}

// NewLimit builds a Limit. count must be non-negative.
func NewLimit(input Node, count int64) (*Limit, error) {
	if count < 0 {
		return nil, invariantError("plan: Limit count must be non-negative, got %d", count)
	}
	return &Limit{input: input, count: count}, nil
}

func (l *Limit) Kind() Kind                     { return KindLimit }
func (l *Limit) Input() Node                    { return l.input }
func (l *Limit) OutputSchema() *arrowcol.Schema { return l.input.OutputSchema() }
func (l *Limit) Count() int64                   { return l.count }
func (l *Limit) EstimatedRowCount() int64 {
	if l.count < l.input.EstimatedRowCount() {
		return l.count
	}
	return l.input.EstimatedRowCount()
}
func (l *Limit) Description() string           { return fmt.Sprintf("Limit(%d)", l.count) }
func (l *Limit) Accept(v Visitor) interface{} { return v.VisitLimit(l) }

// Offset skips the first count rows of its input.
type Offset struct {
	input Node
	count int64
}

// NewOffset builds an Offset. count must be non-negative.
func NewOffset(input Node, count int64) (*Offset, error) {
	if count < 0 {
		return nil, invariantError("plan: Offset count must be non-negative, got %d", count)
	}
	return &Offset{input: input, count: count}, nil
}

func (o *Offset) Kind() Kind                     { return KindOffset }
func (o *Offset) Input() Node                    { return o.input }
func (o *Offset) OutputSchema() *arrowcol.Schema { return o.input.OutputSchema() }
func (o *Offset) Count() int64                   { return o.count }
func (o *Offset) EstimatedRowCount() int64 {
	remaining := o.input.EstimatedRowCount() - o.count
	if remaining < 0 {
		return 0
	}
	return remaining
}
func (o *Offset) Description() string           { return fmt.Sprintf("Offset(%d)", o.count) }
func (o *Offset) Accept(v Visitor) interface{} { return v.VisitOffset(o) }

// Distinct removes duplicate rows (by full-row equality) from its input.
type Distinct struct {
	input Node
}

// NewDistinct builds a Distinct over input.
func NewDistinct(input Node) (*Distinct, error) {
	return &Distinct{input: input}, nil
}

func (d *Distinct) Kind() Kind                     { return KindDistinct }
func (d *Distinct) Input() Node                    { return d.input }
func (d *Distinct) OutputSchema() *arrowcol.Schema { return d.input.OutputSchema() }
func (d *Distinct) EstimatedRowCount() int64       { return d.input.EstimatedRowCount() }
func (d *Distinct) Description() string           { return "Distinct()" }
func (d *Distinct) Accept(v Visitor) interface{}  { return v.VisitDistinct(d) }

// SortKey is one ORDER BY key.
type SortKey struct {
	Column     string
	Descending bool
}

// Sort orders its input by one or more keys.
type Sort struct {
	input Node
	keys  []SortKey
}

// NewSort builds a Sort over input with at least one key.
func NewSort(input Node, keys []SortKey) (*Sort, error) {
	if len(keys) == 0 {
		return nil, invariantError("plan: Sort requires at least one key")
	}
	return &Sort{input: input, keys: append([]SortKey(nil), keys...)}, nil
}

func (s *Sort) Kind() Kind                     { return KindSort }
func (s *Sort) Input() Node                    { return s.input }
func (s *Sort) OutputSchema() *arrowcol.Schema { return s.input.OutputSchema() }
func (s *Sort) Keys() []SortKey                { return s.keys }
func (s *Sort) EstimatedRowCount() int64       { return s.input.EstimatedRowCount() }
func (s *Sort) Description() string            { return fmt.Sprintf("Sort(keys=%d)", len(s.keys)) }
func (s *Sort) Accept(v Visitor) interface{}  { return v.VisitSort(s) }
