package predicate

import (
	"testing"

	"frozenarrow/arrowcol"
	"frozenarrow/bitmap"
	"frozenarrow/zonemap"
)

func buildTestBatch(t *testing.T) (arrowcol.RecordBatch, *arrowcol.Schema) {
	t.Helper()
	schema := arrowcol.NewSchema([]arrowcol.ColumnMeta{
		{Name: "age", Type: arrowcol.Int32},
		{Name: "amount", Type: arrowcol.Float64},
		{Name: "region", Type: arrowcol.String, Nullable: true},
		{Name: "active", Type: arrowcol.Bool},
	})
	age := arrowcol.NewInt32Column("age", []int32{10, 20, 30, 40, 50}, nil)
	amount := arrowcol.NewFloat64Column("amount", []float64{1.5, 2.5, 3.5, 4.5, 5.5}, nil)
	nb := &bitmap.NullBitmapView{Bytes: []byte{0b10111}, Length: 5} // row 3 is null
	region := arrowcol.NewDictStringColumn("region", []int32{0, 1, 0, 1, 2}, []string{"east", "west", "north"}, nb)
	active := arrowcol.NewBoolColumn("active", []bool{true, false, true, false, true}, nil)
	batch := arrowcol.NewBatch(schema, []arrowcol.ColumnView{age, amount, region, active}, 5)
	return batch, schema
}

func selectedIndices(sel *bitmap.Bitmap) []int {
	var got []int
	it := sel.IterSelectedIndices()
	for {
		idx, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, idx)
	}
	return got
}

func assertIndices(t *testing.T, got, want []int) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestI32CmpEvaluate(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p, err := NewI32Cmp(schema, "age", Gt, 25)
	if err != nil {
		t.Fatalf("NewI32Cmp: %v", err)
	}
	sel := bitmap.New(batch.NumRows(), true)
	p.Evaluate(batch, sel)
	assertIndices(t, selectedIndices(sel), []int{2, 3, 4})
}

func TestI32CmpEvaluateRangeMatchesScalar(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p, _ := NewI32Cmp(schema, "age", Ge, 20)
	sel := bitmap.New(batch.NumRows(), true)
	p.EvaluateRange(batch, 0, 3, sel)
	p.EvaluateRange(batch, 3, 5, sel)
	for row := 0; row < batch.NumRows(); row++ {
		want := p.ScalarEval(batch, row)
		if sel.Get(row) != want {
			t.Fatalf("row %d: bitmap says %v, scalar says %v", row, sel.Get(row), want)
		}
	}
}

func TestStrCmpDictionaryEquality(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p, err := NewStrCmp(schema, "region", Eq, "west")
	if err != nil {
		t.Fatalf("NewStrCmp: %v", err)
	}
	sel := bitmap.New(batch.NumRows(), true)
	p.Evaluate(batch, sel)
	assertIndices(t, selectedIndices(sel), []int{1})
}

func TestIsNullOnDictColumn(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p, err := NewIsNull(schema, "region")
	if err != nil {
		t.Fatalf("NewIsNull: %v", err)
	}
	sel := bitmap.New(batch.NumRows(), true)
	p.Evaluate(batch, sel)
	assertIndices(t, selectedIndices(sel), []int{3})
}

func TestBoolEq(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p, _ := NewBoolEq(schema, "active", true)
	sel := bitmap.New(batch.NumRows(), true)
	p.Evaluate(batch, sel)
	assertIndices(t, selectedIndices(sel), []int{0, 2, 4})
}

func TestStringOpContains(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p, _ := NewStringOp(schema, "region", Contains, "es")
	sel := bitmap.New(batch.NumRows(), true)
	p.Evaluate(batch, sel)
	// "west" contains "es"; row 3 is null and excluded.
	assertIndices(t, selectedIndices(sel), []int{1})
}

func TestAndShortCircuits(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p1, _ := NewI32Cmp(schema, "age", Gt, 100) // matches nothing
	p2, _ := NewF64Cmp(schema, "amount", Gt, 0)
	and := NewAnd([]Predicate{p1, p2})
	sel := bitmap.New(batch.NumRows(), true)
	and.Evaluate(batch, sel)
	if sel.CountSet() != 0 {
		t.Fatalf("expected empty selection, got %d", sel.CountSet())
	}
}

func TestAndConjunction(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p1, _ := NewI32Cmp(schema, "age", Gt, 15)
	p2, _ := NewI32Cmp(schema, "age", Lt, 45)
	and := NewAnd([]Predicate{p1, p2})
	sel := bitmap.New(batch.NumRows(), true)
	and.Evaluate(batch, sel)
	assertIndices(t, selectedIndices(sel), []int{1, 2, 3})
}

func TestOrDisjunction(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p1, _ := NewI32Cmp(schema, "age", Eq, 10)
	p2, _ := NewI32Cmp(schema, "age", Eq, 50)
	or := NewOr(p1, p2)
	sel := bitmap.New(batch.NumRows(), true)
	or.Evaluate(batch, sel)
	assertIndices(t, selectedIndices(sel), []int{0, 4})
}

func TestNotNegation(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p, _ := NewI32Cmp(schema, "age", Eq, 30)
	not := NewNot(p)
	sel := bitmap.New(batch.NumRows(), true)
	not.Evaluate(batch, sel)
	assertIndices(t, selectedIndices(sel), []int{0, 1, 3, 4})
}

func TestCompoundScalarEvalMatchesEvaluate(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p1, _ := NewI32Cmp(schema, "age", Gt, 15)
	p2, _ := NewF64Cmp(schema, "amount", Lt, 5)
	and := NewAnd([]Predicate{p1, p2})
	sel := bitmap.New(batch.NumRows(), true)
	and.Evaluate(batch, sel)
	for row := 0; row < batch.NumRows(); row++ {
		if sel.Get(row) != and.ScalarEval(batch, row) {
			t.Fatalf("row %d: bitmap/scalar mismatch", row)
		}
	}
}

func TestEstimatedSelectivityBounded(t *testing.T) {
	batch, schema := buildTestBatch(t)
	zm := zonemap.Build(batch, 5)
	p1, _ := NewI32Cmp(schema, "age", Gt, 15)
	p2, _ := NewF64Cmp(schema, "amount", Lt, 5)
	and := NewAnd([]Predicate{p1, p2})
	sel := and.EstimatedSelectivity(zm)
	if sel < 0 || sel > 1 {
		t.Fatalf("selectivity out of range: %f", sel)
	}
}

func TestUnknownColumnFails(t *testing.T) {
	_, schema := buildTestBatch(t)
	if _, err := NewI32Cmp(schema, "missing", Eq, 1); err == nil {
		t.Fatalf("expected error for unknown column")
	}
}

func TestWrongTypeFails(t *testing.T) {
	_, schema := buildTestBatch(t)
	if _, err := NewI32Cmp(schema, "amount", Eq, 1); err == nil {
		t.Fatalf("expected type mismatch error")
	}
}
