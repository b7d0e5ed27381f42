package predicate

import (
	"github.com/ajroetker/go-highway/hwy"

	"frozenarrow/arrowcol"
	"frozenarrow/bitmap"
	"frozenarrow/zonemap"
)

// simdCompareRange clears every bit in [lo,hi) of sel whose value[i] does
// not satisfy `value[i] OP needle`, processing hwy.MaxLanes[T]() elements
// per SIMD iteration (8 int32 lanes or 4 f64 lanes on typical hardware)
// with a scalar tail for the remainder.
func simdCompareRange[T hwy.Lanes](values []T, lo, hi int, op CmpOp, needleVal T, sel *bitmap.Bitmap) {
	lanes := hwy.MaxLanes[T]()
	if lanes <= 0 {
		lanes = 1
	}
	needle := hwy.Set(needleVal)

	i := lo
	for ; i+lanes <= hi; i += lanes {
		vec := hwy.Load(values[i : i+lanes])
		mask := compareMask(op, vec, needle)
		for lane := 0; lane < lanes; lane++ {
			if !mask.GetBit(lane) {
				sel.Clear(i + lane)
			}
		}
	}
	for ; i < hi; i++ {
		if !scalarCompare(op, values[i], needleVal) {
			sel.Clear(i)
		}
	}
}

func compareMask[T hwy.Lanes](op CmpOp, a, b hwy.Vec[T]) hwy.Mask[T] {
	switch op {
	case Eq:
		return hwy.Equal(a, b)
	case Ne:
		return hwy.NotEqual(a, b)
	case Lt:
		return hwy.LessThan(a, b)
	case Le:
		return hwy.LessEqual(a, b)
	case Gt:
		return hwy.GreaterThan(a, b)
	default:
		return hwy.GreaterEqual(a, b)
	}
}

func scalarCompare[T hwy.Lanes](op CmpOp, a, b T) bool {
	switch op {
	case Eq:
		return a == b
	case Ne:
		return a != b
	case Lt:
		return a < b
	case Le:
		return a <= b
	case Gt:
		return a > b
	default:
		return a >= b
	}
}

// I32Cmp compares an Int32 column against a constant.
type I32Cmp struct {
	col   int32
	op    CmpOp
	value int32
}

// NewI32Cmp resolves column against schema and builds an I32Cmp.
func NewI32Cmp(schema *arrowcol.Schema, column string, op CmpOp, value int32) (*I32Cmp, error) {
	idx, err := resolveColumn(schema, column, arrowcol.Int32)
	if err != nil {
		return nil, err
	}
	return &I32Cmp{col: idx, op: op, value: value}, nil
}

func (p *I32Cmp) ColumnIndex() int32 { return p.col }

// Op returns the comparison operator.
func (p *I32Cmp) Op() CmpOp { return p.op }

// Value returns the comparison literal.
func (p *I32Cmp) Value() int32 { return p.value }

func (p *I32Cmp) Evaluate(batch arrowcol.RecordBatch, selection *bitmap.Bitmap) {
	p.EvaluateRange(batch, 0, batch.NumRows(), selection)
}

func (p *I32Cmp) EvaluateRange(batch arrowcol.RecordBatch, lo, hi int, selection *bitmap.Bitmap) {
	col := batch.Column(int(p.col))
	clearNullsInRange(selection, col.NullBitmap(), lo, hi)
	simdCompareRange(col.Int32Values(), lo, hi, p.op, p.value, selection)
}

func (p *I32Cmp) ScalarEval(batch arrowcol.RecordBatch, row int) bool {
	col := batch.Column(int(p.col))
	if !isValidRow(col.NullBitmap(), row) {
		return false
	}
	return scalarCompare(p.op, col.Int32Values()[row], p.value)
}

func (p *I32Cmp) EstimatedSelectivity(zm *zonemap.ZoneMap) float64 {
	return zm.EstimateSelectivity(int(p.col), p.op.toZoneMapOp(), float64(p.value), 0)
}

// F64Cmp compares a Float64 column against a constant.
type F64Cmp struct {
	col   int32
	op    CmpOp
	value float64
}

// NewF64Cmp resolves column against schema and builds an F64Cmp.
func NewF64Cmp(schema *arrowcol.Schema, column string, op CmpOp, value float64) (*F64Cmp, error) {
	idx, err := resolveColumn(schema, column, arrowcol.Float64)
	if err != nil {
		return nil, err
	}
	return &F64Cmp{col: idx, op: op, value: value}, nil
}

func (p *F64Cmp) ColumnIndex() int32 { return p.col }

// Op returns the comparison operator.
func (p *F64Cmp) Op() CmpOp { return p.op }

// Value returns the comparison literal.
func (p *F64Cmp) Value() float64 { return p.value }

func (p *F64Cmp) Evaluate(batch arrowcol.RecordBatch, selection *bitmap.Bitmap) {
	p.EvaluateRange(batch, 0, batch.NumRows(), selection)
}

func (p *F64Cmp) EvaluateRange(batch arrowcol.RecordBatch, lo, hi int, selection *bitmap.Bitmap) {
	col := batch.Column(int(p.col))
	clearNullsInRange(selection, col.NullBitmap(), lo, hi)
	simdCompareRange(col.Float64Values(), lo, hi, p.op, p.value, selection)
}

func (p *F64Cmp) ScalarEval(batch arrowcol.RecordBatch, row int) bool {
	col := batch.Column(int(p.col))
	if !isValidRow(col.NullBitmap(), row) {
		return false
	}
	return scalarCompare(p.op, col.Float64Values()[row], p.value)
}

func (p *F64Cmp) EstimatedSelectivity(zm *zonemap.ZoneMap) float64 {
	return zm.EstimateSelectivity(int(p.col), p.op.toZoneMapOp(), p.value, 0)
}

// DecCmp compares a Decimal column (stored as scaled int64s) against a
// constant already scaled to match the column's declared scale.
type DecCmp struct {
	col         int32
	op          CmpOp
	scaledValue int64
}

// NewDecCmp resolves column against schema and builds a DecCmp. value must
// already be scaled to the column's fixed-point representation.
func NewDecCmp(schema *arrowcol.Schema, column string, op CmpOp, scaledValue int64) (*DecCmp, error) {
	idx, err := resolveColumn(schema, column, arrowcol.Decimal)
	if err != nil {
		return nil, err
	}
	return &DecCmp{col: idx, op: op, scaledValue: scaledValue}, nil
}

func (p *DecCmp) ColumnIndex() int32 { return p.col }

// Op returns the comparison operator.
func (p *DecCmp) Op() CmpOp { return p.op }

// ScaledValue returns the comparison literal, already scaled.
func (p *DecCmp) ScaledValue() int64 { return p.scaledValue }

func (p *DecCmp) Evaluate(batch arrowcol.RecordBatch, selection *bitmap.Bitmap) {
	p.EvaluateRange(batch, 0, batch.NumRows(), selection)
}

func (p *DecCmp) EvaluateRange(batch arrowcol.RecordBatch, lo, hi int, selection *bitmap.Bitmap) {
	col := batch.Column(int(p.col))
	clearNullsInRange(selection, col.NullBitmap(), lo, hi)
	simdCompareRange(col.Int64Values(), lo, hi, p.op, p.scaledValue, selection)
}

func (p *DecCmp) ScalarEval(batch arrowcol.RecordBatch, row int) bool {
	col := batch.Column(int(p.col))
	if !isValidRow(col.NullBitmap(), row) {
		return false
	}
	return scalarCompare(p.op, col.Int64Values()[row], p.scaledValue)
}

func (p *DecCmp) EstimatedSelectivity(zm *zonemap.ZoneMap) float64 {
	return zm.EstimateSelectivity(int(p.col), p.op.toZoneMapOp(), float64(p.scaledValue), 0)
}
