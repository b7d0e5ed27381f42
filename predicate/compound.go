package predicate

import (
	"frozenarrow/arrowcol"
	"frozenarrow/bitmap"
	"frozenarrow/zonemap"
)

func anySetInRange(b *bitmap.Bitmap, lo, hi int) bool {
	for row := lo; row < hi; row++ {
		if b.Get(row) {
			return true
		}
	}
	return false
}

// And is the conjunction of a list of predicates, evaluated in list order
// (the optimizer has already reordered the list by ascending
// selectivity). Evaluation stops early once the live selection within the
// current range is empty.
type And struct {
	list []Predicate
}

// NewAnd builds an And over list, in the given order.
func NewAnd(list []Predicate) *And {
	return &And{list: append([]Predicate(nil), list...)}
}

// List returns the conjuncts in evaluation order.
func (p *And) List() []Predicate { return p.list }

func (p *And) ColumnIndex() int32 { return -1 }

func (p *And) Evaluate(batch arrowcol.RecordBatch, selection *bitmap.Bitmap) {
	p.EvaluateRange(batch, 0, batch.NumRows(), selection)
}

func (p *And) EvaluateRange(batch arrowcol.RecordBatch, lo, hi int, selection *bitmap.Bitmap) {
	for _, member := range p.list {
		member.EvaluateRange(batch, lo, hi, selection)
		if !anySetInRange(selection, lo, hi) {
			return
		}
	}
}

func (p *And) ScalarEval(batch arrowcol.RecordBatch, row int) bool {
	for _, member := range p.list {
		if !member.ScalarEval(batch, row) {
			return false
		}
	}
	return true
}

func (p *And) EstimatedSelectivity(zm *zonemap.ZoneMap) float64 {
	sel := 1.0
	for _, member := range p.list {
		sel *= member.EstimatedSelectivity(zm)
	}
	if sel < 0 {
		sel = 0
	}
	if sel > 1 {
		sel = 1
	}
	return sel
}

// Or is the disjunction of exactly two predicates.
type Or struct {
	left, right Predicate
}

// NewOr builds an Or of left and right.
func NewOr(left, right Predicate) *Or {
	return &Or{left: left, right: right}
}

func (p *Or) Left() Predicate  { return p.left }
func (p *Or) Right() Predicate { return p.right }

func (p *Or) ColumnIndex() int32 { return -1 }

func (p *Or) Evaluate(batch arrowcol.RecordBatch, selection *bitmap.Bitmap) {
	p.EvaluateRange(batch, 0, batch.NumRows(), selection)
}

func (p *Or) EvaluateRange(batch arrowcol.RecordBatch, lo, hi int, selection *bitmap.Bitmap) {
	freshA := bitmap.New(selection.Len(), false)
	freshB := bitmap.New(selection.Len(), false)
	for row := lo; row < hi; row++ {
		freshA.Set(row)
		freshB.Set(row)
	}
	p.left.EvaluateRange(batch, lo, hi, freshA)
	p.right.EvaluateRange(batch, lo, hi, freshB)
	freshA.Or(freshB)

	for row := lo; row < hi; row++ {
		if !freshA.Get(row) {
			selection.Clear(row)
		}
	}
}

func (p *Or) ScalarEval(batch arrowcol.RecordBatch, row int) bool {
	return p.left.ScalarEval(batch, row) || p.right.ScalarEval(batch, row)
}

func (p *Or) EstimatedSelectivity(zm *zonemap.ZoneMap) float64 {
	sa := p.left.EstimatedSelectivity(zm)
	sb := p.right.EstimatedSelectivity(zm)
	sel := sa + sb - sa*sb
	if sel < 0 {
		sel = 0
	}
	if sel > 1 {
		sel = 1
	}
	return sel
}

// Not is the logical negation of a single predicate.
type Not struct {
	inner Predicate
}

// NewNot builds a Not of inner.
func NewNot(inner Predicate) *Not {
	return &Not{inner: inner}
}

// Inner returns the negated predicate.
func (p *Not) Inner() Predicate { return p.inner }

func (p *Not) ColumnIndex() int32 { return -1 }

func (p *Not) Evaluate(batch arrowcol.RecordBatch, selection *bitmap.Bitmap) {
	p.EvaluateRange(batch, 0, batch.NumRows(), selection)
}

func (p *Not) EvaluateRange(batch arrowcol.RecordBatch, lo, hi int, selection *bitmap.Bitmap) {
	fresh := bitmap.New(selection.Len(), false)
	for row := lo; row < hi; row++ {
		fresh.Set(row)
	}
	p.inner.EvaluateRange(batch, lo, hi, fresh)
	fresh.Invert()

	for row := lo; row < hi; row++ {
		if !fresh.Get(row) {
			selection.Clear(row)
		}
	}
}

func (p *Not) ScalarEval(batch arrowcol.RecordBatch, row int) bool {
	return !p.inner.ScalarEval(batch, row)
}

func (p *Not) EstimatedSelectivity(zm *zonemap.ZoneMap) float64 {
	return 1 - p.inner.EstimatedSelectivity(zm)
}
