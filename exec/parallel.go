package exec

import (
	"context"
	"sync"

	"frozenarrow/arrowcol"
	"frozenarrow/bitmap"
	"frozenarrow/farrowerr"
	"frozenarrow/plan"
	"frozenarrow/predicate"
	"frozenarrow/zonemap"
)

// EvaluateFilteredParallel is a parallel executor: it statically
// partitions zm's chunks across workers goroutines,
// each running the same chunk-skip-then-range-evaluate pass as
// EvaluateFiltered over its own disjoint row ranges. When zm's chunk size
// is a multiple of 64 (zonemap's ChunkRows default is), every chunk
// boundary is block-aligned, so every goroutine writes to a disjoint set
// of bitmap words with no synchronization needed on sel itself; for any
// other chunk size the chunks are evaluated by a single goroutine. ctx is
// polled once per chunk; a cancellation mid-scan returns
// farrowerr.Cancelled.
func EvaluateFilteredParallel(ctx context.Context, batch arrowcol.RecordBatch, zm *zonemap.ZoneMap, preds []predicate.Predicate, workers int) (*bitmap.Bitmap, error) {
	sel := bitmap.New(batch.NumRows(), true)
	if len(preds) == 0 {
		return sel, nil
	}
	if workers < 1 {
		workers = 1
	}
	if zm.ChunkRows()%64 != 0 {
		workers = 1
	}

	chunks := zm.NumChunks()
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for c := worker; c < chunks; c += workers {
				select {
				case <-ctx.Done():
					errs[worker] = farrowerr.Wrap(farrowerr.Cancelled, ctx.Err(), "exec: parallel filter cancelled at chunk %d", c)
					return
				default:
				}
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
		}(w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return sel, nil
}

// partialAgg is one worker's contribution to a parallel aggregate,
// combined via monoid reduction in AggregateParallel: sum/count are
// additive monoids, min/max keep the pairwise extreme (haveMinMax marks
// whether a worker saw any value at all), and avg is derived from the combined sum/count pair rather
// than averaging partial averages.
type partialAgg struct {
	sum      int64
	sumFloat float64
	count    int64
	min      int64
	max      int64
	minFloat float64
	maxFloat float64
	haveMinMax bool
	isFloat  bool
	overflow bool
}

// AggregateParallel is the parallel counterpart to Aggregate: each worker
// filters and accumulates its own assigned chunks directly into a local
// partialAgg (no shared bitmap pass), and the partials are combined via
// monoid reduction once every worker finishes.
func AggregateParallel(ctx context.Context, batch arrowcol.RecordBatch, zm *zonemap.ZoneMap, preds []predicate.Predicate, kind plan.AggKind, column string, workers int) (AggResult, error) {
	if kind == plan.AggCount {
		sel, err := EvaluateFilteredParallel(ctx, batch, zm, preds, workers)
		if err != nil {
			return AggResult{}, err
		}
		return AggResult{Kind: kind, Int64Value: int64(sel.CountSet()), RowsSeen: int64(sel.CountSet())}, nil
	}

	schema := batch.Schema()
	idx, ok := schema.IndexOf(column)
	if !ok {
		return AggResult{}, farrowerr.New(farrowerr.SchemaMismatch, "exec: unknown aggregate column %q", column)
	}
	col := batch.Column(idx)
	meta := col.Meta()
	isFloat := meta.Type == arrowcol.Float64
	if !isFloat && meta.Type != arrowcol.Int32 && meta.Type != arrowcol.Int64 && meta.Type != arrowcol.Decimal {
		return AggResult{}, farrowerr.New(farrowerr.TypeMismatch, "exec: column %q is not numeric, cannot aggregate", column)
	}

	if workers < 1 {
		workers = 1
	}
	chunks := zm.NumChunks()
	partials := make([]partialAgg, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			local := &partials[worker]
			local.isFloat = isFloat
			workerSel := bitmap.New(batch.NumRows(), true)
			for c := worker; c < chunks; c += workers {
				select {
				case <-ctx.Done():
					errs[worker] = farrowerr.Wrap(farrowerr.Cancelled, ctx.Err(), "exec: parallel aggregate cancelled at chunk %d", c)
					return
				default:
				}
				lo, hi := zm.ChunkBounds(c)
				if lo >= hi || canSkipChunk(preds, zm, c) {
					continue
				}
				for _, p := range preds {
					p.EvaluateRange(batch, lo, hi, workerSel)
					if !anySetInRange(workerSel, lo, hi) {
						break
					}
				}
				for row := lo; row < hi; row++ {
					if !workerSel.Get(row) {
						continue
					}
					local.count++
					if isFloat {
						v := col.Float64Values()[row]
						if kind == plan.AggSum || kind == plan.AggAvg {
							local.sumFloat += v
						}
						if kind == plan.AggMin || kind == plan.AggMax {
							if !local.haveMinMax {
								local.minFloat, local.maxFloat, local.haveMinMax = v, v, true
							} else {
								if v < local.minFloat {
									local.minFloat = v
								}
								if v > local.maxFloat {
									local.maxFloat = v
								}
							}
						}
					} else {
						v := intValueAt(col, meta, row)
						if kind == plan.AggSum || kind == plan.AggAvg {
							newSum, overflowed := addOverflow(local.sum, v)
							if overflowed {
								local.overflow = true
							} else {
								local.sum = newSum
							}
						}
						if kind == plan.AggMin || kind == plan.AggMax {
							if !local.haveMinMax {
								local.min, local.max, local.haveMinMax = v, v, true
							} else {
								if v < local.min {
									local.min = v
								}
								if v > local.max {
									local.max = v
								}
							}
						}
					}
				}
			}
		}(w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return AggResult{}, err
		}
	}
	return combinePartials(partials, kind, isFloat)
}

// combinePartials reduces per-worker partialAgg values via monoid combine
// rules: sum/count add, min/max take the pairwise extreme, and avg is
// derived from the combined
// sum/count (never from averaging partial averages, which would weight
// workers unequally when chunk counts differ).
func combinePartials(partials []partialAgg, kind plan.AggKind, isFloat bool) (AggResult, error) {
	var totalCount int64
	var sumInt int64
	var sumFloat float64
	var minInt, maxInt int64
	var minFloat, maxFloat float64
	haveMinMax := false
	overflowed := false

	for _, p := range partials {
		totalCount += p.count
		if p.overflow {
			overflowed = true
		}
		if isFloat {
			sumFloat += p.sumFloat
		} else {
			newSum, of := addOverflow(sumInt, p.sum)
			if of {
				overflowed = true
			} else {
				sumInt = newSum
			}
		}
		if p.haveMinMax {
			if !haveMinMax {
				haveMinMax = true
				minInt, maxInt = p.min, p.max
				minFloat, maxFloat = p.minFloat, p.maxFloat
			} else {
				if isFloat {
					if p.minFloat < minFloat {
						minFloat = p.minFloat
					}
					if p.maxFloat > maxFloat {
						maxFloat = p.maxFloat
					}
				} else {
					if p.min < minInt {
						minInt = p.min
					}
					if p.max > maxInt {
						maxInt = p.max
					}
				}
			}
		}
	}

	switch kind {
	case plan.AggSum:
		if overflowed {
			return AggResult{}, farrowerr.New(farrowerr.Overflow, "exec: integer sum overflowed int64")
		}
		if isFloat {
			return AggResult{Kind: kind, Float64Value: sumFloat, IsFloat: true, RowsSeen: totalCount}, nil
		}
		return AggResult{Kind: kind, Int64Value: sumInt, RowsSeen: totalCount}, nil
	case plan.AggAvg:
		if totalCount == 0 {
			return AggResult{}, farrowerr.New(farrowerr.EmptyAggregate, "exec: Avg over an empty selection")
		}
		if overflowed {
			return AggResult{}, farrowerr.New(farrowerr.Overflow, "exec: integer sum overflowed int64 while computing Avg")
		}
		if isFloat {
			return AggResult{Kind: kind, Float64Value: sumFloat / float64(totalCount), IsFloat: true, RowsSeen: totalCount}, nil
		}
		return AggResult{Kind: kind, Float64Value: float64(sumInt) / float64(totalCount), IsFloat: true, RowsSeen: totalCount}, nil
	case plan.AggMin:
		if !haveMinMax {
			return AggResult{}, farrowerr.New(farrowerr.EmptyAggregate, "exec: Min over an empty selection")
		}
		if isFloat {
			return AggResult{Kind: kind, Float64Value: minFloat, IsFloat: true, RowsSeen: totalCount}, nil
		}
		return AggResult{Kind: kind, Int64Value: minInt, RowsSeen: totalCount}, nil
	case plan.AggMax:
		if !haveMinMax {
			return AggResult{}, farrowerr.New(farrowerr.EmptyAggregate, "exec: Max over an empty selection")
		}
		if isFloat {
			return AggResult{Kind: kind, Float64Value: maxFloat, IsFloat: true, RowsSeen: totalCount}, nil
		}
		return AggResult{Kind: kind, Int64Value: maxInt, RowsSeen: totalCount}, nil
	default:
		return AggResult{}, farrowerr.New(farrowerr.TypeMismatch, "exec: unsupported aggregate kind")
	}
}
