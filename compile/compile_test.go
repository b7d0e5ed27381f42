package compile

import (
	"testing"

	"frozenarrow/arrowcol"
	"frozenarrow/bitmap"
	"frozenarrow/predicate"
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

func TestCompileI32CmpMatchesScalarEval(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p, _ := predicate.NewI32Cmp(schema, "age", predicate.Gt, 25)

	fn, ok := Compile(batch, p)
	if !ok {
		t.Fatalf("expected I32Cmp to compile")
	}
	for row := 0; row < batch.NumRows(); row++ {
		if fn(row) != p.ScalarEval(batch, row) {
			t.Fatalf("row %d: compiled=%v scalar=%v", row, fn(row), p.ScalarEval(batch, row))
		}
	}
}

func TestCompileIsNullMatchesScalarEval(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p, _ := predicate.NewIsNull(schema, "region")

	fn, ok := Compile(batch, p)
	if !ok {
		t.Fatalf("expected IsNull to compile")
	}
	for row := 0; row < batch.NumRows(); row++ {
		if fn(row) != p.ScalarEval(batch, row) {
			t.Fatalf("row %d: compiled=%v scalar=%v", row, fn(row), p.ScalarEval(batch, row))
		}
	}
}

func TestCompileAndOfCompilableLeaves(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p1, _ := predicate.NewI32Cmp(schema, "age", predicate.Gt, 15)
	p2, _ := predicate.NewF64Cmp(schema, "amount", predicate.Lt, 5)
	and := predicate.NewAnd([]predicate.Predicate{p1, p2})

	fn, ok := Compile(batch, and)
	if !ok {
		t.Fatalf("expected And(I32Cmp, F64Cmp) to compile")
	}
	for row := 0; row < batch.NumRows(); row++ {
		if fn(row) != and.ScalarEval(batch, row) {
			t.Fatalf("row %d: compiled=%v scalar=%v", row, fn(row), and.ScalarEval(batch, row))
		}
	}
}

func TestCompileRejectsUnsupportedKind(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p, _ := predicate.NewStringOp(schema, "region", predicate.Contains, "es")

	if _, ok := Compile(batch, p); ok {
		t.Fatalf("expected StringOp to be rejected by the compiler")
	}
}

func TestCompileAndRejectsIfAnyMemberUnsupported(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p1, _ := predicate.NewI32Cmp(schema, "age", predicate.Gt, 15)
	p2, _ := predicate.NewStringOp(schema, "region", predicate.Contains, "es")
	and := predicate.NewAnd([]predicate.Predicate{p1, p2})

	if _, ok := Compile(batch, and); ok {
		t.Fatalf("expected And containing a StringOp member to be rejected")
	}
}

func TestCacheGetOrCompileReusesEntry(t *testing.T) {
	batch, schema := buildTestBatch(t)
	p, _ := predicate.NewI32Cmp(schema, "age", predicate.Gt, 25)
	cache := NewCache()

	builds := 0
	build := func() (Func, bool) {
		builds++
		return Compile(batch, p)
	}

	if _, ok := cache.GetOrCompile(42, build); !ok {
		t.Fatalf("expected first GetOrCompile to succeed")
	}
	if _, ok := cache.GetOrCompile(42, build); !ok {
		t.Fatalf("expected second GetOrCompile to succeed")
	}
	if builds != 1 {
		t.Fatalf("build() called %d times, want 1 (second lookup should hit cache)", builds)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache.Len() = %d, want 1", cache.Len())
	}
}

func TestCacheGetOrCompileDoesNotCacheFailedBuild(t *testing.T) {
	cache := NewCache()
	build := func() (Func, bool) { return nil, false }

	if _, ok := cache.GetOrCompile(7, build); ok {
		t.Fatalf("expected failed build to report ok=false")
	}
	if cache.Len() != 0 {
		t.Fatalf("cache.Len() = %d, want 0 after a failed build", cache.Len())
	}
}
