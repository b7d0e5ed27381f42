package exec

import (
	"frozenarrow/arrowcol"
	"frozenarrow/bitmap"
	"frozenarrow/predicate"
	"frozenarrow/zonemap"
)

// anySetInRange reports whether any bit in [lo,hi) of sel is set.
func anySetInRange(sel *bitmap.Bitmap, lo, hi int) bool {
	for row := lo; row < hi; row++ {
		if sel.Get(row) {
			return true
		}
	}
	return false
}

// EvaluateFiltered is a block iterator / range evaluator: it walks zm
// chunk by chunk, clearing a whole chunk's bits
// in one shot when the zone map proves no row in it can match, and
// otherwise running preds (already reordered by the optimizer) over just
// that chunk's row range, short-circuiting the conjunction the moment the
// live selection within the chunk goes empty.
func EvaluateFiltered(batch arrowcol.RecordBatch, zm *zonemap.ZoneMap, preds []predicate.Predicate) *bitmap.Bitmap {
	sel := bitmap.New(batch.NumRows(), true)
	if len(preds) == 0 {
		return sel
	}
	for c := 0; c < zm.NumChunks(); c++ {
		lo, hi := zm.ChunkBounds(c)
		if lo >= hi {
			continue
		}
		if canSkipChunk(preds, zm, c) {
			_ = sel.ClearRange(lo, hi)
			continue
		}
		for _, p := range preds {
			p.EvaluateRange(batch, lo, hi, sel)
			if !anySetInRange(sel, lo, hi) {
				break
			}
		}
	}
	return sel
}
