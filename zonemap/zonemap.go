// Package zonemap implements a per-chunk min/max/null summary: built once
// per collection, it lets predicate evaluation skip whole chunks that
// provably cannot contain a match.
package zonemap

import (
	"math"

	"frozenarrow/arrowcol"
)

// ChunkRows is the default chunk size a zone map is built over.
const ChunkRows = 16_384

// Summary is one column's per-chunk statistics: the min/max bounds seen
// (encoded as float64 for numeric columns and as a byte-ordered string
// bound for strings), whether any row in the chunk is null, and the null
// count.
type Summary struct {
	Min        float64
	Max        float64
	MinString  string
	MaxString  string
	HasNull    bool
	NullCount  int64
	RowCount   int64
	IsString   bool
}

// ZoneMap holds, for every column and every chunk, a Summary. It is built
// once over an arrowcol.RecordBatch and is read-only for the lifetime of
// the collection.
type ZoneMap struct {
	chunkRows int
	numChunks int
	numRows   int
	// summaries[colIndex][chunkIndex]
	summaries [][]Summary
}

// Build constructs a ZoneMap over batch, partitioning rows into chunks of
// chunkRows (0 or negative defaults to ChunkRows).
func Build(batch arrowcol.RecordBatch, chunkRows int) *ZoneMap {
	if chunkRows <= 0 {
		chunkRows = ChunkRows
	}
	n := batch.NumRows()
	numChunks := (n + chunkRows - 1) / chunkRows
	if numChunks == 0 {
		numChunks = 1
	}
	schema := batch.Schema()
	summaries := make([][]Summary, schema.NumColumns())

	for ci := 0; ci < schema.NumColumns(); ci++ {
		col := batch.Column(ci)
		meta := col.Meta()
		chunkSummaries := make([]Summary, numChunks)
		for c := 0; c < numChunks; c++ {
			lo := c * chunkRows
			hi := lo + chunkRows
			if hi > n {
				hi = n
			}
			chunkSummaries[c] = summarizeChunk(col, meta, lo, hi)
		}
		summaries[ci] = chunkSummaries
	}

	return &ZoneMap{chunkRows: chunkRows, numChunks: numChunks, numRows: n, summaries: summaries}
}

func summarizeChunk(col arrowcol.ColumnView, meta arrowcol.ColumnMeta, lo, hi int) Summary {
	s := Summary{Min: math.Inf(1), Max: math.Inf(-1), RowCount: int64(hi - lo)}

	isValid := func(row int) bool {
		nb := col.NullBitmap()
		if nb == nil {
			return true
		}
		byteIdx := row / 8
		bitIdx := uint(row % 8)
		if byteIdx >= len(nb.Bytes) {
			return true
		}
		return nb.Bytes[byteIdx]&(1<<bitIdx) != 0
	}

	switch meta.Type {
	case arrowcol.Int32:
		vals := col.Int32Values()
		for row := lo; row < hi; row++ {
			if !isValid(row) {
				s.HasNull = true
				s.NullCount++
				continue
			}
			v := float64(vals[row])
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
		}
	case arrowcol.Int64, arrowcol.Decimal:
		vals := col.Int64Values()
		for row := lo; row < hi; row++ {
			if !isValid(row) {
				s.HasNull = true
				s.NullCount++
				continue
			}
			v := float64(vals[row])
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
		}
	case arrowcol.Float64:
		vals := col.Float64Values()
		for row := lo; row < hi; row++ {
			if !isValid(row) {
				s.HasNull = true
				s.NullCount++
				continue
			}
			v := vals[row]
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
		}
	case arrowcol.String:
		s.IsString = true
		seen := false
		for row := lo; row < hi; row++ {
			if !isValid(row) {
				s.HasNull = true
				s.NullCount++
				continue
			}
			v := col.StringAt(row)
			if !seen || v < s.MinString {
				s.MinString = v
			}
			seen = true
			if v > s.MaxString {
				s.MaxString = v
			}
		}
	case arrowcol.Bool:
		vals := col.BoolValues()
		for row := lo; row < hi; row++ {
			if !isValid(row) {
				s.HasNull = true
				s.NullCount++
				continue
			}
			v := 0.0
			if vals[row] {
				v = 1.0
			}
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
		}
	default:
		// Opaque/Timestamp columns carry no summary the core understands;
		// can_skip degrades to "never skip" for predicates on them.
		for row := lo; row < hi; row++ {
			if !isValid(row) {
				s.HasNull = true
				s.NullCount++
			}
		}
	}

	if s.Min > s.Max {
		// Chunk was all-null (or empty): leave bounds degenerate so any
		// range comparison against them is conservatively "cannot skip".
		s.Min, s.Max = 0, 0
	}
	return s
}

// NumChunks returns the number of chunks the zone map was built over.
func (z *ZoneMap) NumChunks() int { return z.numChunks }

// ChunkRows returns the chunk size used to build z.
func (z *ZoneMap) ChunkRows() int { return z.chunkRows }

// ChunkBounds returns the [lo, hi) row range covered by chunk c.
func (z *ZoneMap) ChunkBounds(c int) (int, int) {
	lo := c * z.chunkRows
	hi := lo + z.chunkRows
	if hi > z.numRows {
		hi = z.numRows
	}
	return lo, hi
}

// Summary returns the recorded Summary for column colIndex, chunk c.
func (z *ZoneMap) Summary(colIndex, c int) Summary {
	return z.summaries[colIndex][c]
}

// Op enumerates the comparison operators zone-map skip reasoning
// understands.
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// CanSkipNumeric reports whether chunk c can be proven to contain no row
// satisfying `col OP value`, using the chunk's numeric min/max/null
// summary. False negatives (returning false when the chunk actually has
// no match) are allowed; false positives are not.
func (z *ZoneMap) CanSkipNumeric(colIndex, c int, op Op, value float64) bool {
	s := z.summaries[colIndex][c]
	if s.RowCount == 0 {
		return true
	}
	if s.HasNull && s.NullCount == s.RowCount {
		// All rows null: comparisons against a literal never match NULL.
		return true
	}
	switch op {
	case Eq:
		return value < s.Min || value > s.Max
	case Ne:
		return s.Min == s.Max && s.Min == value && s.NullCount == 0
	case Lt:
		return s.Min >= value
	case Le:
		return s.Min > value
	case Gt:
		return s.Max <= value
	case Ge:
		return s.Max < value
	default:
		return false
	}
}

// CanSkipString reports the string-column analogue of CanSkipNumeric for
// equality/inequality against a literal, using lexicographic min/max.
func (z *ZoneMap) CanSkipString(colIndex, c int, op Op, value string) bool {
	s := z.summaries[colIndex][c]
	if s.RowCount == 0 {
		return true
	}
	if s.HasNull && s.NullCount == s.RowCount {
		return true
	}
	switch op {
	case Eq:
		return value < s.MinString || value > s.MaxString
	case Lt:
		return s.MinString >= value
	case Le:
		return s.MinString > value
	case Gt:
		return s.MaxString <= value
	case Ge:
		return s.MaxString < value
	default:
		return false
	}
}

// EstimateSelectivity estimates the fraction of rows across all chunks
// that a numeric comparison against value is expected to match, given the
// column's observed chunk bounds. Equality uses 1/distinct_estimate when
// distinctEstimate > 0, else a fixed conservative fallback.
func (z *ZoneMap) EstimateSelectivity(colIndex int, op Op, value float64, distinctEstimate int64) float64 {
	if z.numRows == 0 {
		return 0
	}
	var matchableRows int64
	for c := 0; c < z.numChunks; c++ {
		if z.CanSkipNumeric(colIndex, c, op, value) {
			continue
		}
		matchableRows += z.summaries[colIndex][c].RowCount
	}
	fraction := float64(matchableRows) / float64(z.numRows)

	switch op {
	case Eq:
		if distinctEstimate > 0 {
			return fraction * (1.0 / float64(distinctEstimate))
		}
		return fraction * 0.1
	case Ne:
		if distinctEstimate > 0 {
			return fraction * (1.0 - 1.0/float64(distinctEstimate))
		}
		return fraction * 0.9
	default:
		// Range comparisons: assume roughly half of the non-skippable
		// rows qualify absent a histogram.
		return fraction * 0.5
	}
}
