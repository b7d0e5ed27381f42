package exec

import (
	"frozenarrow/arrowcol"
	"frozenarrow/predicate"
	"frozenarrow/zonemap"
)

// Any is a streaming short-circuit scan: it never materializes a
// selection bitmap, stopping at the first row that satisfies every
// predicate, skipping whole zone-map chunks along the way.
func Any(batch arrowcol.RecordBatch, zm *zonemap.ZoneMap, preds []predicate.Predicate) bool {
	_, found := First(batch, zm, preds)
	return found
}

// First returns the index of the first row satisfying preds, scanning
// chunk by chunk and skipping any chunk the zone map proves cannot match.
// found is false if no row qualifies.
func First(batch arrowcol.RecordBatch, zm *zonemap.ZoneMap, preds []predicate.Predicate) (row int, found bool) {
	for c := 0; c < zm.NumChunks(); c++ {
		lo, hi := zm.ChunkBounds(c)
		if lo >= hi {
			continue
		}
		if canSkipChunk(preds, zm, c) {
			continue
		}
		for r := lo; r < hi; r++ {
			if combinedScalarEval(preds, batch, r) {
				return r, true
			}
		}
	}
	return 0, false
}

// FirstOrDefault is First without a distinguished "absent" sentinel: the
// caller supplies its own default value to use when found is false, since
// the engine has no universal zero-row representation across arbitrary
// schemas.
func FirstOrDefault(batch arrowcol.RecordBatch, zm *zonemap.ZoneMap, preds []predicate.Predicate) (row int, found bool) {
	return First(batch, zm, preds)
}
