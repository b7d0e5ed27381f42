package predicate

import (
	"frozenarrow/arrowcol"
	"frozenarrow/bitmap"
	"frozenarrow/zonemap"
)

// BoolEq tests a Bool column against a constant. Evaluation is a single
// pass equivalent to an AND/ANDNOT against the column's value bitmap;
// here the column is stored as one bool per row rather than a packed
// bitset, so the pass is a direct slice scan.
type BoolEq struct {
	col   int32
	value bool
}

// NewBoolEq resolves column against schema and builds a BoolEq.
func NewBoolEq(schema *arrowcol.Schema, column string, value bool) (*BoolEq, error) {
	idx, err := resolveColumn(schema, column, arrowcol.Bool)
	if err != nil {
		return nil, err
	}
	return &BoolEq{col: idx, value: value}, nil
}

func (p *BoolEq) ColumnIndex() int32 { return p.col }

// Value returns the equality literal.
func (p *BoolEq) Value() bool { return p.value }

func (p *BoolEq) Evaluate(batch arrowcol.RecordBatch, selection *bitmap.Bitmap) {
	p.EvaluateRange(batch, 0, batch.NumRows(), selection)
}

func (p *BoolEq) EvaluateRange(batch arrowcol.RecordBatch, lo, hi int, selection *bitmap.Bitmap) {
	col := batch.Column(int(p.col))
	clearNullsInRange(selection, col.NullBitmap(), lo, hi)
	values := col.BoolValues()
	for row := lo; row < hi; row++ {
		if values[row] != p.value {
			selection.Clear(row)
		}
	}
}

func (p *BoolEq) ScalarEval(batch arrowcol.RecordBatch, row int) bool {
	col := batch.Column(int(p.col))
	if !isValidRow(col.NullBitmap(), row) {
		return false
	}
	return col.BoolValues()[row] == p.value
}

func (p *BoolEq) EstimatedSelectivity(zm *zonemap.ZoneMap) float64 {
	value := 0.0
	if p.value {
		value = 1.0
	}
	return zm.EstimateSelectivity(int(p.col), zonemap.Eq, value, 2)
}

// IsNull tests whether a column's value is NULL at each row.
type IsNull struct {
	col int32
}

// NewIsNull resolves column (of any type) against schema and builds an IsNull.
func NewIsNull(schema *arrowcol.Schema, column string) (*IsNull, error) {
	idx, ok := schema.IndexOf(column)
	if !ok {
		return nil, columnNotFound(column)
	}
	return &IsNull{col: int32(idx)}, nil
}

func (p *IsNull) ColumnIndex() int32 { return p.col }

func (p *IsNull) Evaluate(batch arrowcol.RecordBatch, selection *bitmap.Bitmap) {
	p.EvaluateRange(batch, 0, batch.NumRows(), selection)
}

func (p *IsNull) EvaluateRange(batch arrowcol.RecordBatch, lo, hi int, selection *bitmap.Bitmap) {
	col := batch.Column(int(p.col))
	nb := col.NullBitmap()
	for row := lo; row < hi; row++ {
		if isValidRow(nb, row) {
			selection.Clear(row)
		}
	}
}

func (p *IsNull) ScalarEval(batch arrowcol.RecordBatch, row int) bool {
	col := batch.Column(int(p.col))
	return !isValidRow(col.NullBitmap(), row)
}

func (p *IsNull) EstimatedSelectivity(zm *zonemap.ZoneMap) float64 {
	var nullRows, totalRows int64
	for c := 0; c < zm.NumChunks(); c++ {
		s := zm.Summary(int(p.col), c)
		nullRows += s.NullCount
		totalRows += s.RowCount
	}
	if totalRows == 0 {
		return 0
	}
	return float64(nullRows) / float64(totalRows)
}
