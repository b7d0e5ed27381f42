// Package exec implements the engine's execution primitives: chunk-skip-
// aware range filtering, a single-pass fused aggregator, a
// statically-partitioned parallel executor, a dense/sparse row-index
// collector, and streaming short-circuit scans for Any/First.
package exec

import (
	"frozenarrow/arrowcol"
	"frozenarrow/predicate"
	"frozenarrow/zonemap"
)

// convertOp maps a predicate.CmpOp to its zonemap.Op counterpart. The two
// enums are declared independently (predicate must not import zonemap's
// comparison semantics, only its Summary/skip API), so the mapping is
// spelled out explicitly rather than relying on matching iota order.
func convertOp(op predicate.CmpOp) zonemap.Op {
	switch op {
	case predicate.Eq:
		return zonemap.Eq
	case predicate.Ne:
		return zonemap.Ne
	case predicate.Lt:
		return zonemap.Lt
	case predicate.Le:
		return zonemap.Le
	case predicate.Gt:
		return zonemap.Gt
	default:
		return zonemap.Ge
	}
}

// canSkipChunkFor reports whether zm proves p cannot match any row in
// chunk c. Only the leaf kinds with a zone-map-backed skip test
// (I32Cmp/F64Cmp/DecCmp/StrCmp) can prove this; every other kind
// (BoolEq/IsNull/StringOp/And/Or/Not) conservatively reports false, since
// proving "no match" for those would require evaluating rows anyway.
func canSkipChunkFor(p predicate.Predicate, zm *zonemap.ZoneMap, c int) bool {
	switch pr := p.(type) {
	case *predicate.I32Cmp:
		return zm.CanSkipNumeric(int(pr.ColumnIndex()), c, convertOp(pr.Op()), float64(pr.Value()))
	case *predicate.F64Cmp:
		return zm.CanSkipNumeric(int(pr.ColumnIndex()), c, convertOp(pr.Op()), pr.Value())
	case *predicate.DecCmp:
		return zm.CanSkipNumeric(int(pr.ColumnIndex()), c, convertOp(pr.Op()), float64(pr.ScaledValue()))
	case *predicate.StrCmp:
		return zm.CanSkipString(int(pr.ColumnIndex()), c, convertOp(pr.Op()), pr.Needle())
	default:
		return false
	}
}

// canSkipChunk reports whether any predicate in preds proves chunk c has
// no possible match; since preds are conjoined (AND semantics), one
// provably-empty predicate is enough to skip the whole chunk.
func canSkipChunk(preds []predicate.Predicate, zm *zonemap.ZoneMap, c int) bool {
	for _, p := range preds {
		if canSkipChunkFor(p, zm, c) {
			return true
		}
	}
	return false
}

// combinedScalarEval is the row-at-a-time AND of every predicate in preds,
// short-circuiting on the first failure (used by the streaming scans,
// which never materialize a selection bitmap).
func combinedScalarEval(preds []predicate.Predicate, batch arrowcol.RecordBatch, row int) bool {
	for _, p := range preds {
		if !p.ScalarEval(batch, row) {
			return false
		}
	}
	return true
}
