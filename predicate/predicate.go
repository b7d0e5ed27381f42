// Package predicate implements typed, immutable column predicates: leaf
// predicates over a single column plus the And/Or/Not compounds, each
// able to evaluate itself over a whole batch, over a sub-range (for the
// parallel executor), or against one row (for the streaming/sparse
// paths).
package predicate

import (
	"frozenarrow/arrowcol"
	"frozenarrow/bitmap"
	"frozenarrow/farrowerr"
	"frozenarrow/zonemap"
)

// CmpOp enumerates the six comparison operators the numeric and string
// predicates support.
type CmpOp int

const (
	Eq CmpOp = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

func (op CmpOp) String() string {
	switch op {
	case Eq:
		return "="
	case Ne:
		return "!="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	default:
		return "?"
	}
}

func (op CmpOp) toZoneMapOp() zonemap.Op {
	switch op {
	case Eq:
		return zonemap.Eq
	case Ne:
		return zonemap.Ne
	case Lt:
		return zonemap.Lt
	case Le:
		return zonemap.Le
	case Gt:
		return zonemap.Gt
	default:
		return zonemap.Ge
	}
}

// Predicate is the common surface every leaf and compound predicate
// exposes.
type Predicate interface {
	// ColumnIndex returns the bound column, or -1 for compounds.
	ColumnIndex() int32
	// Evaluate refines selection in place over the whole batch.
	Evaluate(batch arrowcol.RecordBatch, selection *bitmap.Bitmap)
	// EvaluateRange refines selection in place over [lo,hi) only.
	EvaluateRange(batch arrowcol.RecordBatch, lo, hi int, selection *bitmap.Bitmap)
	// ScalarEval evaluates the predicate against one row directly.
	ScalarEval(batch arrowcol.RecordBatch, row int) bool
	// EstimatedSelectivity estimates the predicate's match fraction using
	// the collection's zone map.
	EstimatedSelectivity(zm *zonemap.ZoneMap) float64
}

// columnNotFound builds the SchemaMismatch error shared by every
// constructor that resolves a column name against a schema.
func columnNotFound(name string) error {
	return farrowerr.New(farrowerr.SchemaMismatch, "predicate: unknown column %q", name)
}

// resolveColumn validates that name exists in schema and has the expected
// type, returning its index resolved once at construction time rather
// than on every evaluation.
func resolveColumn(schema *arrowcol.Schema, name string, want arrowcol.Type) (int32, error) {
	idx, ok := schema.IndexOf(name)
	if !ok {
		return 0, columnNotFound(name)
	}
	meta := schema.Column(idx)
	if meta.Type != want {
		return 0, farrowerr.New(farrowerr.TypeMismatch, "predicate: column %q is %s, want %s", name, meta.Type, want)
	}
	return int32(idx), nil
}

// clearNullsInRange clears every bit in [lo,hi) of sel whose row is NULL
// according to nb. A nil nb means the column is non-nullable and nothing
// is cleared. This is the range-scoped form of
// Bitmap.AndWithArrowNullBitmap the SIMD loops run once before comparing,
// so the comparison loop itself never has to branch on nullability.
func clearNullsInRange(sel *bitmap.Bitmap, nb *bitmap.NullBitmapView, lo, hi int) {
	if nb == nil {
		return
	}
	for row := lo; row < hi; row++ {
		byteIdx := row / 8
		bitIdx := uint(row % 8)
		valid := byteIdx < len(nb.Bytes) && nb.Bytes[byteIdx]&(1<<bitIdx) != 0
		if !valid {
			sel.Clear(row)
		}
	}
}

// isValidRow reports whether row is non-null per nb (nil means non-nullable).
func isValidRow(nb *bitmap.NullBitmapView, row int) bool {
	if nb == nil {
		return true
	}
	byteIdx := row / 8
	bitIdx := uint(row % 8)
	return byteIdx < len(nb.Bytes) && nb.Bytes[byteIdx]&(1<<bitIdx) != 0
}
