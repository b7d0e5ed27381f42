package exec

import (
	"context"
	"math"
	"testing"

	"frozenarrow/arrowcol"
	"frozenarrow/plan"
	"frozenarrow/predicate"
	"frozenarrow/zonemap"
)

func buildRangeBatch(t *testing.T, n int) (arrowcol.RecordBatch, *arrowcol.Schema) {
	t.Helper()
	schema := arrowcol.NewSchema([]arrowcol.ColumnMeta{
		{Name: "age", Type: arrowcol.Int32},
		{Name: "amount", Type: arrowcol.Float64},
	})
	ages := make([]int32, n)
	amounts := make([]float64, n)
	for i := 0; i < n; i++ {
		ages[i] = int32(i)
		amounts[i] = float64(i) * 1.5
	}
	age := arrowcol.NewInt32Column("age", ages, nil)
	amount := arrowcol.NewFloat64Column("amount", amounts, nil)
	batch := arrowcol.NewBatch(schema, []arrowcol.ColumnView{age, amount}, n)
	return batch, schema
}

func TestEvaluateFilteredMatchesScalarEval(t *testing.T) {
	batch, schema := buildRangeBatch(t, 1000)
	zm := zonemap.Build(batch, 100)
	p, _ := predicate.NewI32Cmp(schema, "age", predicate.Gt, 500)

	sel := EvaluateFiltered(batch, zm, []predicate.Predicate{p})
	for row := 0; row < batch.NumRows(); row++ {
		want := p.ScalarEval(batch, row)
		if sel.Get(row) != want {
			t.Fatalf("row %d: selection=%v, scalar=%v", row, sel.Get(row), want)
		}
	}
}

func TestEvaluateFilteredEmptyPredicatesSelectsAll(t *testing.T) {
	batch, _ := buildRangeBatch(t, 100)
	zm := zonemap.Build(batch, 10)
	sel := EvaluateFiltered(batch, zm, nil)
	if sel.CountSet() != 100 {
		t.Fatalf("CountSet() = %d, want 100 with no predicates", sel.CountSet())
	}
}

func TestAggregateCountSumAvgMinMax(t *testing.T) {
	batch, schema := buildRangeBatch(t, 1000)
	zm := zonemap.Build(batch, 100)
	p, _ := predicate.NewI32Cmp(schema, "age", predicate.Lt, 10) // ages 0..9

	count, err := Aggregate(batch, zm, []predicate.Predicate{p}, plan.AggCount, "")
	if err != nil || count.Int64Value != 10 {
		t.Fatalf("Count = %+v, err=%v, want 10", count, err)
	}

	sum, err := Aggregate(batch, zm, []predicate.Predicate{p}, plan.AggSum, "age")
	if err != nil || sum.Int64Value != 45 {
		t.Fatalf("Sum = %+v, err=%v, want 45", sum, err)
	}

	avg, err := Aggregate(batch, zm, []predicate.Predicate{p}, plan.AggAvg, "age")
	if err != nil || avg.Float64Value != 4.5 {
		t.Fatalf("Avg = %+v, err=%v, want 4.5", avg, err)
	}

	min, err := Aggregate(batch, zm, []predicate.Predicate{p}, plan.AggMin, "age")
	if err != nil || min.Int64Value != 0 {
		t.Fatalf("Min = %+v, err=%v, want 0", min, err)
	}

	max, err := Aggregate(batch, zm, []predicate.Predicate{p}, plan.AggMax, "age")
	if err != nil || max.Int64Value != 9 {
		t.Fatalf("Max = %+v, err=%v, want 9", max, err)
	}
}

func TestAggregateEmptySelectionCountAndSumAreZero(t *testing.T) {
	batch, schema := buildRangeBatch(t, 100)
	zm := zonemap.Build(batch, 10)
	p, _ := predicate.NewI32Cmp(schema, "age", predicate.Gt, 99999) // matches nothing

	count, err := Aggregate(batch, zm, []predicate.Predicate{p}, plan.AggCount, "")
	if err != nil || count.Int64Value != 0 {
		t.Fatalf("Count over empty selection = %+v, err=%v, want 0", count, err)
	}

	sum, err := Aggregate(batch, zm, []predicate.Predicate{p}, plan.AggSum, "age")
	if err != nil || sum.Int64Value != 0 {
		t.Fatalf("Sum over empty selection = %+v, err=%v, want 0", sum, err)
	}
}

func TestAggregateEmptySelectionMinMaxReportEmptyAggregate(t *testing.T) {
	batch, schema := buildRangeBatch(t, 100)
	zm := zonemap.Build(batch, 10)
	p, _ := predicate.NewI32Cmp(schema, "age", predicate.Gt, 99999)

	if _, err := Aggregate(batch, zm, []predicate.Predicate{p}, plan.AggMin, "age"); err == nil {
		t.Fatalf("expected EmptyAggregate error for Min over an empty selection")
	}
	if _, err := Aggregate(batch, zm, []predicate.Predicate{p}, plan.AggMax, "age"); err == nil {
		t.Fatalf("expected EmptyAggregate error for Max over an empty selection")
	}
}

func TestAggregateReportsOverflow(t *testing.T) {
	schema := arrowcol.NewSchema([]arrowcol.ColumnMeta{{Name: "big", Type: arrowcol.Int64}})
	values := []int64{math.MaxInt64, 1}
	col := arrowcol.NewInt64Column("big", values, nil)
	batch := arrowcol.NewBatch(schema, []arrowcol.ColumnView{col}, 2)
	zm := zonemap.Build(batch, 10)

	_, err := Aggregate(batch, zm, nil, plan.AggSum, "big")
	if err == nil {
		t.Fatalf("expected Overflow error summing MaxInt64+1")
	}
}

func TestParallelFilterMatchesSequential(t *testing.T) {
	batch, schema := buildRangeBatch(t, 5000)
	zm := zonemap.Build(batch, 100)
	p1, _ := predicate.NewI32Cmp(schema, "age", predicate.Gt, 1000)
	p2, _ := predicate.NewI32Cmp(schema, "age", predicate.Lt, 4000)
	preds := []predicate.Predicate{p1, p2}

	seq := EvaluateFiltered(batch, zm, preds)
	par, err := EvaluateFilteredParallel(context.Background(), batch, zm, preds, 4)
	if err != nil {
		t.Fatalf("EvaluateFilteredParallel: %v", err)
	}
	for row := 0; row < batch.NumRows(); row++ {
		if seq.Get(row) != par.Get(row) {
			t.Fatalf("row %d: sequential=%v parallel=%v", row, seq.Get(row), par.Get(row))
		}
	}
}

func TestAggregateParallelMatchesSequential(t *testing.T) {
	batch, schema := buildRangeBatch(t, 5000)
	zm := zonemap.Build(batch, 100)
	p, _ := predicate.NewI32Cmp(schema, "age", predicate.Lt, 3000)
	preds := []predicate.Predicate{p}

	seq, err := Aggregate(batch, zm, preds, plan.AggSum, "age")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	par, err := AggregateParallel(context.Background(), batch, zm, preds, plan.AggSum, "age", 4)
	if err != nil {
		t.Fatalf("AggregateParallel: %v", err)
	}
	if seq.Int64Value != par.Int64Value {
		t.Fatalf("sequential sum=%d, parallel sum=%d", seq.Int64Value, par.Int64Value)
	}
}

func TestAggregateParallelFloatWithinRelativeError(t *testing.T) {
	batch, schema := buildRangeBatch(t, 5000)
	zm := zonemap.Build(batch, 100)
	p, _ := predicate.NewI32Cmp(schema, "age", predicate.Lt, 3000)
	preds := []predicate.Predicate{p}

	seq, err := Aggregate(batch, zm, preds, plan.AggSum, "amount")
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	par, err := AggregateParallel(context.Background(), batch, zm, preds, plan.AggSum, "amount", 4)
	if err != nil {
		t.Fatalf("AggregateParallel: %v", err)
	}
	relErr := math.Abs(seq.Float64Value-par.Float64Value) / math.Abs(seq.Float64Value)
	if relErr > 1e-9 {
		t.Fatalf("relative error %g exceeds 1e-9 (seq=%g par=%g)", relErr, seq.Float64Value, par.Float64Value)
	}
}

func TestCollectRowIndicesMatchesSelection(t *testing.T) {
	batch, schema := buildRangeBatch(t, 1000)
	zm := zonemap.Build(batch, 100)
	p, _ := predicate.NewI32Cmp(schema, "age", predicate.Lt, 20) // ~2% selectivity, exercises the sparse path
	sel := EvaluateFiltered(batch, zm, []predicate.Predicate{p})

	indices := CollectRowIndices(sel)
	if len(indices) != 20 {
		t.Fatalf("len(indices) = %d, want 20", len(indices))
	}
	for i, idx := range indices {
		if idx != i {
			t.Fatalf("indices[%d] = %d, want %d", i, idx, i)
		}
	}
}

func TestCollectRowIndicesDensePath(t *testing.T) {
	batch, schema := buildRangeBatch(t, 1000)
	zm := zonemap.Build(batch, 100)
	p, _ := predicate.NewI32Cmp(schema, "age", predicate.Lt, 900) // 90% selectivity, exercises the dense path
	sel := EvaluateFiltered(batch, zm, []predicate.Predicate{p})

	indices := CollectRowIndices(sel)
	if len(indices) != 900 {
		t.Fatalf("len(indices) = %d, want 900", len(indices))
	}
}

func TestAnyFindsMatch(t *testing.T) {
	batch, schema := buildRangeBatch(t, 1000)
	zm := zonemap.Build(batch, 100)
	p, _ := predicate.NewI32Cmp(schema, "age", predicate.Eq, 500)
	if !Any(batch, zm, []predicate.Predicate{p}) {
		t.Fatalf("expected Any to find age=500")
	}
}

func TestAnyReportsFalseOnNoMatch(t *testing.T) {
	batch, schema := buildRangeBatch(t, 1000)
	zm := zonemap.Build(batch, 100)
	p, _ := predicate.NewI32Cmp(schema, "age", predicate.Gt, 99999)
	if Any(batch, zm, []predicate.Predicate{p}) {
		t.Fatalf("expected Any to report false when nothing matches")
	}
}

func TestFirstReturnsEarliestMatchingRow(t *testing.T) {
	batch, schema := buildRangeBatch(t, 1000)
	zm := zonemap.Build(batch, 100)
	p, _ := predicate.NewI32Cmp(schema, "age", predicate.Ge, 250)
	row, found := First(batch, zm, []predicate.Predicate{p})
	if !found || row != 250 {
		t.Fatalf("First() = (%d, %v), want (250, true)", row, found)
	}
}

func TestFirstOrDefaultReportsAbsentOnNoMatch(t *testing.T) {
	batch, schema := buildRangeBatch(t, 1000)
	zm := zonemap.Build(batch, 100)
	p, _ := predicate.NewI32Cmp(schema, "age", predicate.Gt, 99999)
	_, found := FirstOrDefault(batch, zm, []predicate.Predicate{p})
	if found {
		t.Fatalf("expected FirstOrDefault to report not-found")
	}
}
