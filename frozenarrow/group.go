package frozenarrow

import (
	"fmt"
	"sort"

	"frozenarrow/arrowcol"
	"frozenarrow/exec"
	"frozenarrow/plan"
	"frozenarrow/translate"
)

// groupByNodeIn finds the *plan.GroupBy node in n's input chain, if any,
// returning it plus every node that wraps it, outermost (n itself) first.
// Reversing wrappers gives the order they must be re-applied to the
// group rows GroupByAggregate produces.
func groupByNodeIn(n plan.Node) (*plan.GroupBy, []plan.Node) {
	var wrappers []plan.Node
	for n != nil {
		if g, ok := n.(*plan.GroupBy); ok {
			return g, wrappers
		}
		wrappers = append(wrappers, n)
		n = n.Input()
	}
	return nil, nil
}

// execGroupBy computes a GroupBy's groups via exec.GroupByAggregate, then
// re-applies any Sort/Limit/Offset that wrapped it in the original query.
// A Distinct or Project wrapping a GroupBy is a no-op here: groups are
// already distinct by key, and a projection over group output columns
// does not change which groups exist.
func (c *Collection) execGroupBy(g *plan.GroupBy, wrappers []plan.Node) (*Result, error) {
	preds := collectFilterPredicates(g.Input())
	groups, err := exec.GroupByAggregate(c.batch, c.zm, preds, g.KeyColumn(), g.Aggregates())
	if err != nil {
		return nil, err
	}

	for i := len(wrappers) - 1; i >= 0; i-- {
		switch w := wrappers[i].(type) {
		case *plan.Sort:
			sortGroups(groups, w.Keys(), g.KeyColumn(), g.Aggregates())
		case *plan.Limit:
			if int64(len(groups)) > w.Count() {
				groups = groups[:w.Count()]
			}
		case *plan.Offset:
			if int64(len(groups)) > w.Count() {
				groups = groups[w.Count():]
			} else {
				groups = nil
			}
		}
	}

	return &Result{
		Terminal:       translate.TerminalEnumerate,
		Groups:         groups,
		GroupKeyColumn: g.KeyColumn(),
		Aggregates:     g.Aggregates(),
	}, nil
}

// sortGroups orders groups by keys, where each key's column names either
// the group-by key column itself or one aggregate's OutputName.
func sortGroups(groups []exec.GroupRow, keys []plan.SortKey, keyColumn string, aggs []plan.AggDescriptor) {
	sort.SliceStable(groups, func(i, j int) bool {
		for _, k := range keys {
			cmp := compareGroupsBy(groups[i], groups[j], k.Column, keyColumn, aggs)
			if cmp != 0 {
				if k.Descending {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return false
	})
}

func compareGroupsBy(a, b exec.GroupRow, column, keyColumn string, aggs []plan.AggDescriptor) int {
	if column == keyColumn {
		return compareBoxedValues(a.Key, b.Key)
	}
	for i, d := range aggs {
		if d.OutputName == column {
			ra, rb := a.Aggregates[i], b.Aggregates[i]
			if ra.IsFloat || rb.IsFloat {
				af, bf := ra.Float64Value, rb.Float64Value
				if !ra.IsFloat {
					af = float64(ra.Int64Value)
				}
				if !rb.IsFloat {
					bf = float64(rb.Int64Value)
				}
				switch {
				case af < bf:
					return -1
				case af > bf:
					return 1
				default:
					return 0
				}
			}
			switch {
			case ra.Int64Value < rb.Int64Value:
				return -1
			case ra.Int64Value > rb.Int64Value:
				return 1
			default:
				return 0
			}
		}
	}
	return 0
}

// compareBoxedValues compares two group-key values of the same
// underlying Go type (int32, int64, bool, or string — the types
// groupKeyAt in package exec ever produces).
func compareBoxedValues(a, b interface{}) int {
	switch av := a.(type) {
	case int32:
		bv := b.(int32)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case int64:
		bv := b.(int64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	case bool:
		bv := b.(bool)
		if av == bv {
			return 0
		}
		if !av && bv {
			return -1
		}
		return 1
	case string:
		bv := b.(string)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}

// compareColumnValues compares rows i and j of col by meta's type,
// driving materialize's Sort case.
func compareColumnValues(col arrowcol.ColumnView, meta arrowcol.ColumnMeta, i, j int) int {
	switch meta.Type {
	case arrowcol.Int32:
		return compareBoxedValues(col.Int32Values()[i], col.Int32Values()[j])
	case arrowcol.Int64, arrowcol.Decimal:
		return compareBoxedValues(col.Int64Values()[i], col.Int64Values()[j])
	case arrowcol.Float64:
		vi, vj := col.Float64Values()[i], col.Float64Values()[j]
		switch {
		case vi < vj:
			return -1
		case vi > vj:
			return 1
		default:
			return 0
		}
	case arrowcol.Bool:
		return compareBoxedValues(col.BoolValues()[i], col.BoolValues()[j])
	case arrowcol.String:
		return compareBoxedValues(col.StringAt(i), col.StringAt(j))
	default:
		return 0
	}
}

// boxColumnValue extracts row's value from col as a boxed Go value,
// honoring null bitmaps (a null row yields a nil interface value).
func boxColumnValue(col arrowcol.ColumnView, meta arrowcol.ColumnMeta, row int) interface{} {
	if nb := col.NullBitmap(); nb != nil {
		byteIdx := row / 8
		bitIdx := uint(row % 8)
		if byteIdx >= len(nb.Bytes) || nb.Bytes[byteIdx]&(1<<bitIdx) == 0 {
			return nil
		}
	}
	switch meta.Type {
	case arrowcol.Int32:
		return col.Int32Values()[row]
	case arrowcol.Int64, arrowcol.Decimal:
		return col.Int64Values()[row]
	case arrowcol.Float64:
		return col.Float64Values()[row]
	case arrowcol.Bool:
		return col.BoolValues()[row]
	case arrowcol.String:
		return col.StringAt(row)
	default:
		return nil
	}
}

// rowDedupeKey builds a type-tagged string key for row over columns,
// used by materialize's Distinct case to detect duplicates without
// colliding values of different types that stringify the same way.
func rowDedupeKey(batch arrowcol.RecordBatch, schema *arrowcol.Schema, row int, columns []plan.ProjectField) string {
	key := ""
	for _, f := range columns {
		idx, ok := schema.IndexOf(f.SourceColumn)
		if !ok {
			continue
		}
		meta := schema.Column(idx)
		v := boxColumnValue(batch.Column(idx), meta, row)
		key += fmt.Sprintf("%T:%v|", v, v)
	}
	return key
}
