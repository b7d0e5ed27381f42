package exec

import (
	"frozenarrow/arrowcol"
	"frozenarrow/bitmap"
	"frozenarrow/farrowerr"
	"frozenarrow/plan"
	"frozenarrow/predicate"
	"frozenarrow/zonemap"
)

// AggResult is the outcome of a single-pass fused aggregation: exactly one
// of Int64Value/Float64Value is meaningful, per IsFloat.
type AggResult struct {
	Kind         plan.AggKind
	Int64Value   int64
	Float64Value float64
	IsFloat      bool
	RowsSeen     int64
}

// Aggregate performs a fused filter+aggregate in a single pass: it
// builds the filtered selection once (via EvaluateFiltered) then makes a
// single additional pass over the selected rows accumulating kind over
// column. Count never touches column. Min/Max over an empty selection
// report farrowerr.EmptyAggregate; Sum over an empty selection reports
// zero, matching a monoid identity rather than an error.
func Aggregate(batch arrowcol.RecordBatch, zm *zonemap.ZoneMap, preds []predicate.Predicate, kind plan.AggKind, column string) (AggResult, error) {
	sel := EvaluateFiltered(batch, zm, preds)
	return aggregateSelection(batch, sel, kind, column)
}

func aggregateSelection(batch arrowcol.RecordBatch, sel *bitmap.Bitmap, kind plan.AggKind, column string) (AggResult, error) {
	if kind == plan.AggCount {
		return AggResult{Kind: kind, Int64Value: int64(sel.CountSet()), RowsSeen: int64(sel.CountSet())}, nil
	}

	schema := batch.Schema()
	idx, ok := schema.IndexOf(column)
	if !ok {
		return AggResult{}, farrowerr.New(farrowerr.SchemaMismatch, "exec: unknown aggregate column %q", column)
	}
	col := batch.Column(idx)
	meta := col.Meta()

	switch meta.Type {
	case arrowcol.Int32, arrowcol.Int64, arrowcol.Decimal:
		return aggregateIntColumn(col, meta, sel, kind)
	case arrowcol.Float64:
		return aggregateFloatColumn(col, sel, kind)
	default:
		return AggResult{}, farrowerr.New(farrowerr.TypeMismatch, "exec: column %q is not numeric, cannot aggregate", column)
	}
}

func intValueAt(col arrowcol.ColumnView, meta arrowcol.ColumnMeta, row int) int64 {
	if meta.Type == arrowcol.Int32 {
		return int64(col.Int32Values()[row])
	}
	return col.Int64Values()[row]
}

func aggregateIntColumn(col arrowcol.ColumnView, meta arrowcol.ColumnMeta, sel *bitmap.Bitmap, kind plan.AggKind) (AggResult, error) {
	var sum int64
	var count int64
	min, max := int64(0), int64(0)
	haveMinMax := false

	it := sel.IterSelectedIndices()
	for {
		row, ok := it.Next()
		if !ok {
			break
		}
		v := intValueAt(col, meta, row)
		count++

		switch kind {
		case plan.AggSum, plan.AggAvg:
			newSum, overflowed := addOverflow(sum, v)
			if overflowed {
				return AggResult{}, farrowerr.New(farrowerr.Overflow, "exec: integer sum overflowed int64")
			}
			sum = newSum
		case plan.AggMin, plan.AggMax:
			if !haveMinMax {
				min, max = v, v
				haveMinMax = true
			} else {
				if v < min {
					min = v
				}
				if v > max {
					max = v
				}
			}
		}
	}

	switch kind {
	case plan.AggSum:
		return AggResult{Kind: kind, Int64Value: sum, RowsSeen: count}, nil
	case plan.AggAvg:
		if count == 0 {
			return AggResult{}, farrowerr.New(farrowerr.EmptyAggregate, "exec: Avg over an empty selection")
		}
		return AggResult{Kind: kind, Float64Value: float64(sum) / float64(count), IsFloat: true, RowsSeen: count}, nil
	case plan.AggMin:
		if !haveMinMax {
			return AggResult{}, farrowerr.New(farrowerr.EmptyAggregate, "exec: Min over an empty selection")
		}
		return AggResult{Kind: kind, Int64Value: min, RowsSeen: count}, nil
	case plan.AggMax:
		if !haveMinMax {
			return AggResult{}, farrowerr.New(farrowerr.EmptyAggregate, "exec: Max over an empty selection")
		}
		return AggResult{Kind: kind, Int64Value: max, RowsSeen: count}, nil
	default:
		return AggResult{}, farrowerr.New(farrowerr.TypeMismatch, "exec: unsupported aggregate kind for an integer column")
	}
}

func aggregateFloatColumn(col arrowcol.ColumnView, sel *bitmap.Bitmap, kind plan.AggKind) (AggResult, error) {
	values := col.Float64Values()
	var sum float64
	var count int64
	min, max := 0.0, 0.0
	haveMinMax := false

	it := sel.IterSelectedIndices()
	for {
		row, ok := it.Next()
		if !ok {
			break
		}
		v := values[row]
		count++

		switch kind {
		case plan.AggSum, plan.AggAvg:
			sum += v
		case plan.AggMin, plan.AggMax:
			if !haveMinMax {
				min, max = v, v
				haveMinMax = true
			} else {
				if v < min {
					min = v
				}
				if v > max {
					max = v
				}
			}
		}
	}

	switch kind {
	case plan.AggSum:
		return AggResult{Kind: kind, Float64Value: sum, IsFloat: true, RowsSeen: count}, nil
	case plan.AggAvg:
		if count == 0 {
			return AggResult{}, farrowerr.New(farrowerr.EmptyAggregate, "exec: Avg over an empty selection")
		}
		return AggResult{Kind: kind, Float64Value: sum / float64(count), IsFloat: true, RowsSeen: count}, nil
	case plan.AggMin:
		if !haveMinMax {
			return AggResult{}, farrowerr.New(farrowerr.EmptyAggregate, "exec: Min over an empty selection")
		}
		return AggResult{Kind: kind, Float64Value: min, IsFloat: true, RowsSeen: count}, nil
	case plan.AggMax:
		if !haveMinMax {
			return AggResult{}, farrowerr.New(farrowerr.EmptyAggregate, "exec: Max over an empty selection")
		}
		return AggResult{Kind: kind, Float64Value: max, IsFloat: true, RowsSeen: count}, nil
	default:
		return AggResult{}, farrowerr.New(farrowerr.TypeMismatch, "exec: unsupported aggregate kind for a float column")
	}
}

// addOverflow adds a and b, reporting whether the int64 result overflowed,
// so Sum accumulation can report farrowerr.Overflow instead of wrapping.
func addOverflow(a, b int64) (int64, bool) {
	sum := a + b
	// Overflow occurred iff a and b share a sign and the result's sign
	// differs from theirs.
	if (a > 0 && b > 0 && sum < 0) || (a < 0 && b < 0 && sum > 0) {
		return 0, true
	}
	return sum, false
}
