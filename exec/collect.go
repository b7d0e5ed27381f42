package exec

import "frozenarrow/bitmap"

// sparseSelectivityThreshold is the fraction below which the index-list
// fast path outperforms a full dense scan.
const sparseSelectivityThreshold = 0.05

// CollectRowIndices is a sparse collector: it materializes the selected
// row indices of sel, picking whichever of two
// equivalent strategies fits the observed selectivity best. Below
// sparseSelectivityThreshold it walks only the set bits via
// Bitmap.IterSelectedIndices (trailing-zero-count skip); at or above it,
// a dense row-by-row Get scan is cheaper since nearly every row is
// visited anyway. This only applies to row materialization (SELECT
// output, Distinct, Sort); Count never calls this, since
// Bitmap.CountSet() already answers it directly off the selection.
func CollectRowIndices(sel *bitmap.Bitmap) []int {
	n := sel.Len()
	if n == 0 {
		return nil
	}
	selected := sel.CountSet()
	if selected == 0 {
		return nil
	}
	out := make([]int, 0, selected)

	fraction := float64(selected) / float64(n)
	if fraction < sparseSelectivityThreshold {
		it := sel.IterSelectedIndices()
		for {
			idx, ok := it.Next()
			if !ok {
				break
			}
			out = append(out, idx)
		}
		return out
	}

	for row := 0; row < n; row++ {
		if sel.Get(row) {
			out = append(out, row)
		}
	}
	return out
}
