// Package compile implements a predicate compiler: it fuses a
// (already-reordered) predicate list into a single closure
// `f(row_index) -> bool` that captures the batch's column arrays
// directly, short-circuits the conjunction, and needs no per-row virtual
// dispatch. Only I32Cmp, F64Cmp, BoolEq, IsNull, and And(list) of those
// kinds compile; anything else falls back to the interpreted predicate
// path.
package compile

import (
	"sync"

	"frozenarrow/arrowcol"
	"frozenarrow/bitmap"
	"frozenarrow/predicate"
)

// Func is a compiled, fused row-index decision function.
type Func func(row int) bool

// Compile attempts to fuse p against batch into a Func. ok is false if p
// (or any of its conjuncts, recursively) uses a kind the compiler does
// not support, in which case callers must fall back to p.ScalarEval.
func Compile(batch arrowcol.RecordBatch, p predicate.Predicate) (fn Func, ok bool) {
	switch pr := p.(type) {
	case *predicate.I32Cmp:
		col := batch.Column(int(pr.ColumnIndex()))
		values := col.Int32Values()
		nb := col.NullBitmap()
		op, needle := pr.Op(), pr.Value()
		return func(row int) bool {
			if !validRow(nb, row) {
				return false
			}
			return compareInt32(op, values[row], needle)
		}, true

	case *predicate.F64Cmp:
		col := batch.Column(int(pr.ColumnIndex()))
		values := col.Float64Values()
		nb := col.NullBitmap()
		op, needle := pr.Op(), pr.Value()
		return func(row int) bool {
			if !validRow(nb, row) {
				return false
			}
			return compareFloat64(op, values[row], needle)
		}, true

	case *predicate.BoolEq:
		col := batch.Column(int(pr.ColumnIndex()))
		values := col.BoolValues()
		nb := col.NullBitmap()
		want := pr.Value()
		return func(row int) bool {
			if !validRow(nb, row) {
				return false
			}
			return values[row] == want
		}, true

	case *predicate.IsNull:
		col := batch.Column(int(pr.ColumnIndex()))
		nb := col.NullBitmap()
		return func(row int) bool {
			return !validRow(nb, row)
		}, true

	case *predicate.And:
		members := pr.List()
		fns := make([]Func, 0, len(members))
		for _, m := range members {
			fn, ok := Compile(batch, m)
			if !ok {
				return nil, false
			}
			fns = append(fns, fn)
		}
		return func(row int) bool {
			for _, fn := range fns {
				if !fn(row) {
					return false
				}
			}
			return true
		}, true

	default:
		return nil, false
	}
}

func validRow(nb *bitmap.NullBitmapView, row int) bool {
	if nb == nil {
		return true
	}
	byteIdx := row / 8
	bitIdx := uint(row % 8)
	return byteIdx < len(nb.Bytes) && nb.Bytes[byteIdx]&(1<<bitIdx) != 0
}

func compareInt32(op predicate.CmpOp, a, b int32) bool {
	switch op {
	case predicate.Eq:
		return a == b
	case predicate.Ne:
		return a != b
	case predicate.Lt:
		return a < b
	case predicate.Le:
		return a <= b
	case predicate.Gt:
		return a > b
	default:
		return a >= b
	}
}

func compareFloat64(op predicate.CmpOp, a, b float64) bool {
	switch op {
	case predicate.Eq:
		return a == b
	case predicate.Ne:
		return a != b
	case predicate.Lt:
		return a < b
	case predicate.Le:
		return a <= b
	case predicate.Gt:
		return a > b
	default:
		return a >= b
	}
}

// Cache is a thread-safe cache of compiled functions keyed by a
// predicate list's canonical hash.
type Cache struct {
	mu      sync.RWMutex
	entries map[uint64]Func
}

// NewCache builds an empty compiled-predicate cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[uint64]Func)}
}

// GetOrCompile returns the cached Func for hash, compiling and storing it
// via build if absent. ok mirrors Compile's: false means build reported
// the predicate list is not (fully) compilable.
func (c *Cache) GetOrCompile(hash uint64, build func() (Func, bool)) (Func, bool) {
	c.mu.RLock()
	fn, found := c.entries[hash]
	c.mu.RUnlock()
	if found {
		return fn, true
	}

	fn, ok := build()
	if !ok {
		return nil, false
	}
	c.mu.Lock()
	c.entries[hash] = fn
	c.mu.Unlock()
	return fn, true
}

// Len returns the number of compiled functions currently cached.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
