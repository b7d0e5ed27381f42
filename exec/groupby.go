package exec

import (
	"frozenarrow/arrowcol"
	"frozenarrow/farrowerr"
	"frozenarrow/plan"
	"frozenarrow/predicate"
	"frozenarrow/zonemap"
)

// GroupRow is one output row of a GroupByAggregate call: the group's key
// value plus one AggResult per requested plan.AggDescriptor, in the same
// order the caller passed them.
type GroupRow struct {
	Key        interface{}
	Aggregates []AggResult
}

// groupAcc is one aggregate's running accumulator for a single group,
// updated one selected row at a time rather than rescanning the column
// per group — the single-pass counterpart to aggregateIntColumn/
// aggregateFloatColumn's whole-selection scan.
type groupAcc struct {
	kind       plan.AggKind
	isFloat    bool
	count      int64
	intSum     int64
	intMin     int64
	intMax     int64
	floatSum   float64
	floatMin   float64
	floatMax   float64
	haveMinMax bool
	overflow   bool
}

func (a *groupAcc) observeCount() {
	a.count++
}

func (a *groupAcc) observeInt(v int64) {
	a.count++
	switch a.kind {
	case plan.AggSum, plan.AggAvg:
		sum, overflowed := addOverflow(a.intSum, v)
		if overflowed {
			a.overflow = true
			return
		}
		a.intSum = sum
	case plan.AggMin, plan.AggMax:
		if !a.haveMinMax {
			a.intMin, a.intMax = v, v
			a.haveMinMax = true
			return
		}
		if v < a.intMin {
			a.intMin = v
		}
		if v > a.intMax {
			a.intMax = v
		}
	}
}

func (a *groupAcc) observeFloat(v float64) {
	a.count++
	switch a.kind {
	case plan.AggSum, plan.AggAvg:
		a.floatSum += v
	case plan.AggMin, plan.AggMax:
		if !a.haveMinMax {
			a.floatMin, a.floatMax = v, v
			a.haveMinMax = true
			return
		}
		if v < a.floatMin {
			a.floatMin = v
		}
		if v > a.floatMax {
			a.floatMax = v
		}
	}
}

func (a *groupAcc) result() (AggResult, error) {
	if a.kind == plan.AggCount {
		return AggResult{Kind: a.kind, Int64Value: a.count, RowsSeen: a.count}, nil
	}
	if a.overflow {
		return AggResult{}, farrowerr.New(farrowerr.Overflow, "exec: integer sum overflowed int64 within a group")
	}
	if a.isFloat {
		switch a.kind {
		case plan.AggSum:
			return AggResult{Kind: a.kind, Float64Value: a.floatSum, IsFloat: true, RowsSeen: a.count}, nil
		case plan.AggAvg:
			if a.count == 0 {
				return AggResult{}, farrowerr.New(farrowerr.EmptyAggregate, "exec: Avg over an empty group")
			}
			return AggResult{Kind: a.kind, Float64Value: a.floatSum / float64(a.count), IsFloat: true, RowsSeen: a.count}, nil
		case plan.AggMin:
			if !a.haveMinMax {
				return AggResult{}, farrowerr.New(farrowerr.EmptyAggregate, "exec: Min over an empty group")
			}
			return AggResult{Kind: a.kind, Float64Value: a.floatMin, IsFloat: true, RowsSeen: a.count}, nil
		case plan.AggMax:
			if !a.haveMinMax {
				return AggResult{}, farrowerr.New(farrowerr.EmptyAggregate, "exec: Max over an empty group")
			}
			return AggResult{Kind: a.kind, Float64Value: a.floatMax, IsFloat: true, RowsSeen: a.count}, nil
		}
	}
	switch a.kind {
	case plan.AggSum:
		return AggResult{Kind: a.kind, Int64Value: a.intSum, RowsSeen: a.count}, nil
	case plan.AggAvg:
		if a.count == 0 {
			return AggResult{}, farrowerr.New(farrowerr.EmptyAggregate, "exec: Avg over an empty group")
		}
		return AggResult{Kind: a.kind, Float64Value: float64(a.intSum) / float64(a.count), IsFloat: true, RowsSeen: a.count}, nil
	case plan.AggMin:
		if !a.haveMinMax {
			return AggResult{}, farrowerr.New(farrowerr.EmptyAggregate, "exec: Min over an empty group")
		}
		return AggResult{Kind: a.kind, Int64Value: a.intMin, RowsSeen: a.count}, nil
	case plan.AggMax:
		if !a.haveMinMax {
			return AggResult{}, farrowerr.New(farrowerr.EmptyAggregate, "exec: Max over an empty group")
		}
		return AggResult{Kind: a.kind, Int64Value: a.intMax, RowsSeen: a.count}, nil
	default:
		return AggResult{}, farrowerr.New(farrowerr.TypeMismatch, "exec: unsupported aggregate kind in a group")
	}
}

// aggColumn resolves one AggDescriptor's source column (the zero value
// for Count, which never touches a column).
type aggColumn struct {
	col     arrowcol.ColumnView
	meta    arrowcol.ColumnMeta
	isFloat bool
}

func (ac aggColumn) intValueAt(row int) int64 {
	return intValueAt(ac.col, ac.meta, row)
}

func (ac aggColumn) floatValueAt(row int) float64 {
	return ac.col.Float64Values()[row]
}

func resolveAggColumn(batch arrowcol.RecordBatch, d plan.AggDescriptor) (aggColumn, error) {
	if d.Kind == plan.AggCount {
		return aggColumn{}, nil
	}
	schema := batch.Schema()
	idx, ok := schema.IndexOf(d.Column)
	if !ok {
		return aggColumn{}, farrowerr.New(farrowerr.SchemaMismatch, "exec: unknown aggregate column %q", d.Column)
	}
	meta := schema.Column(idx)
	col := batch.Column(idx)
	switch meta.Type {
	case arrowcol.Int32, arrowcol.Int64, arrowcol.Decimal:
		return aggColumn{col: col, meta: meta, isFloat: false}, nil
	case arrowcol.Float64:
		return aggColumn{col: col, meta: meta, isFloat: true}, nil
	default:
		return aggColumn{}, farrowerr.New(farrowerr.TypeMismatch, "exec: column %q is not numeric, cannot aggregate", d.Column)
	}
}

// groupKeyAt extracts row's value from the GROUP BY key column as a
// comparable Go value usable as a map key. Float64 key columns are
// rejected: grouping on floating-point equality is unsound (two
// "equal" business values can differ in their last bit), so the engine
// requires an exact-equality-capable key type instead of silently
// grouping by bit pattern.
func groupKeyAt(col arrowcol.ColumnView, meta arrowcol.ColumnMeta, row int) (interface{}, error) {
	switch meta.Type {
	case arrowcol.Int32:
		return col.Int32Values()[row], nil
	case arrowcol.Int64, arrowcol.Decimal:
		return col.Int64Values()[row], nil
	case arrowcol.Bool:
		return col.BoolValues()[row], nil
	case arrowcol.String:
		return col.StringAt(row), nil
	default:
		return nil, farrowerr.New(farrowerr.UnsupportedPattern, "exec: column type %s cannot be used as a GROUP BY key", meta.Type)
	}
}

// GroupByAggregate is the group-by executor: it filters with
// EvaluateFiltered exactly once, then makes one further pass over the
// selected rows, bucketing each by its key-column value and updating one
// groupAcc per requested aggregate incrementally (never rescanning the
// column once per group). Groups are returned in first-seen row order,
// the same ascending-index determinism the rest of the executor family
// guarantees.
func GroupByAggregate(batch arrowcol.RecordBatch, zm *zonemap.ZoneMap, preds []predicate.Predicate, keyColumn string, aggregates []plan.AggDescriptor) ([]GroupRow, error) {
	schema := batch.Schema()
	keyIdx, ok := schema.IndexOf(keyColumn)
	if !ok {
		return nil, farrowerr.New(farrowerr.SchemaMismatch, "exec: unknown GROUP BY key column %q", keyColumn)
	}
	keyCol := batch.Column(keyIdx)
	keyMeta := keyCol.Meta()

	aggCols := make([]aggColumn, len(aggregates))
	for i, d := range aggregates {
		ac, err := resolveAggColumn(batch, d)
		if err != nil {
			return nil, err
		}
		aggCols[i] = ac
	}

	sel := EvaluateFiltered(batch, zm, preds)

	groupIndex := make(map[interface{}]int)
	var keys []interface{}
	var accs [][]*groupAcc

	it := sel.IterSelectedIndices()
	for {
		row, ok := it.Next()
		if !ok {
			break
		}
		key, err := groupKeyAt(keyCol, keyMeta, row)
		if err != nil {
			return nil, err
		}
		g, seen := groupIndex[key]
		if !seen {
			g = len(keys)
			groupIndex[key] = g
			keys = append(keys, key)
			groupAccs := make([]*groupAcc, len(aggregates))
			for i, d := range aggregates {
				groupAccs[i] = &groupAcc{kind: d.Kind, isFloat: aggCols[i].isFloat}
			}
			accs = append(accs, groupAccs)
		}

		for i, d := range aggregates {
			acc := accs[g][i]
			if d.Kind == plan.AggCount {
				acc.observeCount()
				continue
			}
			ac := aggCols[i]
			if ac.isFloat {
				acc.observeFloat(ac.floatValueAt(row))
				continue
			}
			acc.observeInt(ac.intValueAt(row))
		}
	}

	rows := make([]GroupRow, len(keys))
	for g, key := range keys {
		results := make([]AggResult, len(aggregates))
		for i := range aggregates {
			res, err := accs[g][i].result()
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
		rows[g] = GroupRow{Key: key, Aggregates: results}
	}
	return rows, nil
}
