package arrowcol

import (
	"testing"

	"frozenarrow/bitmap"
)

func buildTestBatch(t *testing.T) *Batch {
	t.Helper()
	schema := NewSchema([]ColumnMeta{
		{Name: "id", Type: Int32},
		{Name: "amount", Type: Float64},
		{Name: "region", Type: String},
	})
	id := NewInt32Column("id", []int32{1, 2, 3, 4}, nil)
	amount := NewFloat64Column("amount", []float64{10.5, 20.25, 30, 40}, nil)
	region := NewDictStringColumn("region", []int32{0, 1, 0, 2}, []string{"east", "west", "north"}, nil)
	return NewBatch(schema, []ColumnView{id, amount, region}, 4)
}

func TestSchemaIndexOf(t *testing.T) {
	b := buildTestBatch(t)
	idx, ok := b.Schema().IndexOf("amount")
	if !ok || idx != 1 {
		t.Fatalf("IndexOf(amount) = (%d,%v), want (1,true)", idx, ok)
	}
	if _, ok := b.Schema().IndexOf("missing"); ok {
		t.Fatalf("expected IndexOf(missing) to fail")
	}
}

func TestBatchColumnAccess(t *testing.T) {
	b := buildTestBatch(t)
	if b.NumRows() != 4 {
		t.Fatalf("NumRows() = %d, want 4", b.NumRows())
	}
	idCol := b.Column(0)
	if got := idCol.Int32Values(); len(got) != 4 || got[2] != 3 {
		t.Fatalf("unexpected id column values: %v", got)
	}
	regionCol := b.Column(2)
	if !regionCol.IsDictionaryEncoded() {
		t.Fatalf("expected region column to be dictionary encoded")
	}
	if regionCol.StringAt(1) != "west" || regionCol.StringAt(3) != "north" {
		t.Fatalf("unexpected dictionary resolution: %s %s", regionCol.StringAt(1), regionCol.StringAt(3))
	}
}

func TestNewBatchPanicsOnMismatchedColumnLength(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on mismatched column length")
		}
	}()
	schema := NewSchema([]ColumnMeta{{Name: "id", Type: Int32}})
	id := NewInt32Column("id", []int32{1, 2, 3}, nil)
	NewBatch(schema, []ColumnView{id}, 4)
}

func TestNullableColumnNullBitmap(t *testing.T) {
	nb := &bitmap.NullBitmapView{Bytes: []byte{0b1101}, Length: 4}
	col := NewInt32Column("x", []int32{1, 2, 3, 4}, nb)
	if !col.Meta().Nullable {
		t.Fatalf("expected column to be nullable when a null bitmap is supplied")
	}
	if col.NullBitmap() != nb {
		t.Fatalf("expected NullBitmap() to return the supplied view")
	}
}

func TestDecimalColumnScale(t *testing.T) {
	col := NewDecimalColumn("price", []int64{1050, 2025}, 2, nil)
	if col.Scale() != 2 {
		t.Fatalf("Scale() = %d, want 2", col.Scale())
	}
	if col.Int64Values()[0] != 1050 {
		t.Fatalf("unexpected scaled value")
	}
}
