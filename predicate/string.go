package predicate

import (
	"strings"

	"frozenarrow/arrowcol"
	"frozenarrow/bitmap"
	"frozenarrow/zonemap"
)

// StrCmp compares a String column against a constant. On a plain string
// column it does a scalar lexicographic compare. On a dictionary-encoded
// column it resolves the needle to a dictionary index at the start of
// each EvaluateRange call (the index is not cached across calls) and
// compares indices for = and !=; ordering operators compare each row's
// dictionary value against the needle string.
type StrCmp struct {
	col    int32
	op     CmpOp
	needle string
}

// NewStrCmp resolves column against schema and builds a StrCmp.
func NewStrCmp(schema *arrowcol.Schema, column string, op CmpOp, needle string) (*StrCmp, error) {
	idx, err := resolveColumn(schema, column, arrowcol.String)
	if err != nil {
		return nil, err
	}
	return &StrCmp{col: idx, op: op, needle: needle}, nil
}

func (p *StrCmp) ColumnIndex() int32 { return p.col }

// Op returns the comparison operator.
func (p *StrCmp) Op() CmpOp { return p.op }

// Needle returns the comparison literal.
func (p *StrCmp) Needle() string { return p.needle }

func (p *StrCmp) Evaluate(batch arrowcol.RecordBatch, selection *bitmap.Bitmap) {
	p.EvaluateRange(batch, 0, batch.NumRows(), selection)
}

func (p *StrCmp) EvaluateRange(batch arrowcol.RecordBatch, lo, hi int, selection *bitmap.Bitmap) {
	col := batch.Column(int(p.col))
	clearNullsInRange(selection, col.NullBitmap(), lo, hi)

	if col.IsDictionaryEncoded() {
		needleIdx := int32(-1)
		dict := col.Dictionary()
		for i, v := range dict {
			if v == p.needle {
				needleIdx = int32(i)
				break
			}
		}
		indices := col.DictionaryIndices()
		for row := lo; row < hi; row++ {
			if !selection.Get(row) {
				continue
			}
			if !compareIndexAgainstNeedle(p.op, indices[row], needleIdx, dict, p.needle) {
				selection.Clear(row)
			}
		}
		return
	}

	for row := lo; row < hi; row++ {
		if !selection.Get(row) {
			continue
		}
		if !scalarStringCompare(p.op, col.StringAt(row), p.needle) {
			selection.Clear(row)
		}
	}
}

// compareIndexAgainstNeedle compares dictionary indices directly when the
// operator is equality/inequality (no string compare needed); for
// ordering operators it falls back to resolving the dictionary value and
// comparing it against needle, since index order does not imply value
// order in general.
func compareIndexAgainstNeedle(op CmpOp, idx, needleIdx int32, dict []string, needle string) bool {
	switch op {
	case Eq:
		return idx == needleIdx
	case Ne:
		return idx != needleIdx
	default:
		var value string
		if int(idx) >= 0 && int(idx) < len(dict) {
			value = dict[idx]
		}
		return scalarStringCompare(op, value, needle)
	}
}

func scalarStringCompare(op CmpOp, a, b string) bool {
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

func (p *StrCmp) ScalarEval(batch arrowcol.RecordBatch, row int) bool {
	col := batch.Column(int(p.col))
	if !isValidRow(col.NullBitmap(), row) {
		return false
	}
	return scalarStringCompare(p.op, col.StringAt(row), p.needle)
}

func (p *StrCmp) EstimatedSelectivity(zm *zonemap.ZoneMap) float64 {
	var matchableRows, totalRows int64
	for c := 0; c < zm.NumChunks(); c++ {
		totalRows += zm.Summary(int(p.col), c).RowCount
		if !zm.CanSkipString(int(p.col), c, p.op.toZoneMapOp(), p.needle) {
			matchableRows += zm.Summary(int(p.col), c).RowCount
		}
	}
	if totalRows == 0 {
		return 0
	}
	fraction := float64(matchableRows) / float64(totalRows)
	if p.op == Eq {
		return fraction * 0.1
	}
	return fraction * 0.5
}

// StringOpKind enumerates the StringOp predicate's pattern-match kinds.
type StringOpKind int

const (
	Contains StringOpKind = iota
	StartsWith
	EndsWith
)

// StringOp tests a string column with a pattern-match kind: Contains,
// StartsWith, or EndsWith. Unlike StrCmp it never uses the dictionary
// index fast path (the match is a substring test, not equality) and is
// evaluated scalar-per-row with short-circuit.
type StringOp struct {
	col    int32
	kind   StringOpKind
	needle string
}

// NewStringOp resolves column against schema and builds a StringOp.
func NewStringOp(schema *arrowcol.Schema, column string, kind StringOpKind, needle string) (*StringOp, error) {
	idx, err := resolveColumn(schema, column, arrowcol.String)
	if err != nil {
		return nil, err
	}
	return &StringOp{col: idx, kind: kind, needle: needle}, nil
}

func (p *StringOp) ColumnIndex() int32 { return p.col }

// PatternKind returns the match kind (Contains/StartsWith/EndsWith).
func (p *StringOp) PatternKind() StringOpKind { return p.kind }

// Needle returns the match literal.
func (p *StringOp) Needle() string { return p.needle }

func (p *StringOp) matches(v string) bool {
	switch p.kind {
	case StartsWith:
		return strings.HasPrefix(v, p.needle)
	case EndsWith:
		return strings.HasSuffix(v, p.needle)
	default:
		return strings.Contains(v, p.needle)
	}
}

func (p *StringOp) Evaluate(batch arrowcol.RecordBatch, selection *bitmap.Bitmap) {
	p.EvaluateRange(batch, 0, batch.NumRows(), selection)
}

func (p *StringOp) EvaluateRange(batch arrowcol.RecordBatch, lo, hi int, selection *bitmap.Bitmap) {
	col := batch.Column(int(p.col))
	clearNullsInRange(selection, col.NullBitmap(), lo, hi)
	for row := lo; row < hi; row++ {
		if !selection.Get(row) {
			continue
		}
		if !p.matches(col.StringAt(row)) {
			selection.Clear(row)
		}
	}
}

func (p *StringOp) ScalarEval(batch arrowcol.RecordBatch, row int) bool {
	col := batch.Column(int(p.col))
	if !isValidRow(col.NullBitmap(), row) {
		return false
	}
	return p.matches(col.StringAt(row))
}

// EstimatedSelectivity has no zone-map shortcut for substring/prefix/suffix
// matching (min/max bounds don't bound a Contains test), so it returns a
// fixed conservative estimate (see DESIGN.md).
func (p *StringOp) EstimatedSelectivity(zm *zonemap.ZoneMap) float64 {
	return 0.3
}
