package frozenarrow

import (
	"context"
	"sort"
	"time"

	"frozenarrow/adaptive"
	"frozenarrow/arrowcol"
	"frozenarrow/bitmap"
	"frozenarrow/compile"
	"frozenarrow/exec"
	"frozenarrow/farrowerr"
	"frozenarrow/optimizer"
	"frozenarrow/physical"
	"frozenarrow/plan"
	"frozenarrow/predicate"
	"frozenarrow/translate"
)

// Execute runs a translated query through the full execution pipeline:
// plan cache lookup/optimize-on-miss, physical planning, an
// adaptive-execution override of the cost model's strategy choice, and
// dispatch to the matching exec family by terminal kind. Every execution
// (hit or miss, overridden or not) is timed and, when adaptive execution
// is enabled, recorded back into the tracker so later queries with the
// same canonical shape benefit from it.
func (c *Collection) Execute(translated *translate.Translated) (*Result, error) {
	return c.executeContext(context.Background(), translated)
}

// ExecuteContext is Execute with an explicit context, honored by the
// parallel filter/aggregate paths for cooperative cancellation.
func (c *Collection) ExecuteContext(ctx context.Context, translated *translate.Translated) (*Result, error) {
	return c.executeContext(ctx, translated)
}

func (c *Collection) executeContext(ctx context.Context, translated *translate.Translated) (*Result, error) {
	if translated == nil || translated.Node == nil {
		return nil, farrowerr.New(farrowerr.SchemaMismatch, "frozenarrow: nil translated query")
	}

	optimized := c.planFor(translated.Node)
	physicalPlan := physical.Build(optimized, c.cfg)
	queryHash := plan.Hash(optimized)

	override, hasOverride := c.resolveStrategy(queryHash, physicalPlan)

	start := time.Now()
	result, err := c.dispatch(ctx, optimized, physicalPlan, translated.Terminal, override, hasOverride)
	elapsed := time.Since(start)

	if c.adaptiveTracker != nil {
		if primary, ok := findPrimaryStrategy(physicalPlan); ok {
			used := primary
			if hasOverride {
				used = override
			}
			c.adaptiveTracker.Record(queryHash, adaptive.Sample{
				Strategy:      used,
				WallNanos:     elapsed.Nanoseconds(),
				RowsProcessed: int64(c.batch.NumRows()),
			})
		}
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// planFor canonicalizes node (before optimization, per plancache's own
// keying convention), consults the plan cache if configured, and
// optimizes + stores on a miss.
func (c *Collection) planFor(node plan.Node) plan.Node {
	key := plan.CanonicalString(node)
	if c.planCache != nil {
		if cached, ok := c.planCache.Lookup(key); ok {
			return cached
		}
	}
	optimized := optimizer.Optimize(node, c.zm)
	if c.planCache != nil {
		c.planCache.Store(key, optimized)
	}
	return optimized
}

// findPrimaryStrategy walks p's input chain looking for the first
// Filter or Aggregate node's chosen Strategy: the one axis adaptive
// execution tunes. A GroupBy's GroupStrategy is a separate, untuned axis
// (see DESIGN.md).
func findPrimaryStrategy(p *physical.Plan) (physical.Strategy, bool) {
	for p != nil {
		switch p.Logical.(type) {
		case *plan.Filter, *plan.Aggregate:
			return p.Strategy, true
		}
		p = p.Input
	}
	return 0, false
}

// resolveStrategy asks the adaptive tracker whether a learned strategy
// beats the cost model's pick for this query shape. ok is false whenever
// adaptive execution is disabled, no primary strategy node exists, or the
// tracker has not accumulated enough samples yet to suggest anything
// other than the cost model's own choice.
func (c *Collection) resolveStrategy(queryHash uint64, p *physical.Plan) (physical.Strategy, bool) {
	if c.adaptiveTracker == nil {
		return 0, false
	}
	primary, ok := findPrimaryStrategy(p)
	if !ok {
		return 0, false
	}
	best, ok, _ := c.adaptiveTracker.Suggest(queryHash, primary)
	if !ok || best == primary {
		return 0, false
	}
	return best, true
}

// dispatch picks the exec family for terminal. GroupBy queries are
// intercepted here even though their TerminalKind is TerminalEnumerate:
// a GroupBy node anywhere in the chain means the result is a set of
// groups, not a set of original-batch rows.
func (c *Collection) dispatch(ctx context.Context, n plan.Node, p *physical.Plan, terminal translate.TerminalKind, override physical.Strategy, hasOverride bool) (*Result, error) {
	switch terminal {
	case translate.TerminalScalarAgg:
		return c.execScalarAgg(ctx, n, p, override, hasOverride)
	case translate.TerminalAny:
		return c.execAny(n, translate.TerminalAny)
	case translate.TerminalAll:
		return c.execAny(n, translate.TerminalAll)
	case translate.TerminalFirst:
		return c.execFirst(n, translate.TerminalFirst)
	case translate.TerminalFirstOrDefault:
		return c.execFirst(n, translate.TerminalFirstOrDefault)
	default:
		if g, wrappers := groupByNodeIn(n); g != nil {
			return c.execGroupBy(g, wrappers)
		}
		state, err := c.materialize(ctx, n, p, override, hasOverride)
		if err != nil {
			return nil, err
		}
		return &Result{Terminal: translate.TerminalEnumerate, RowIndices: state.indices, Fields: state.fields}, nil
	}
}

// collectFilterPredicates walks n's input chain gathering every Filter
// node's predicates. Order across stacked Filter nodes is irrelevant
// since conjunction is commutative; only a single Filter node's own
// predicate list is ever reordered by the optimizer.
func collectFilterPredicates(n plan.Node) []predicate.Predicate {
	var preds []predicate.Predicate
	for n != nil {
		if f, ok := n.(*plan.Filter); ok {
			preds = append(preds, f.Predicates()...)
		}
		n = n.Input()
	}
	return preds
}

func (c *Collection) execScalarAgg(ctx context.Context, n plan.Node, p *physical.Plan, override physical.Strategy, hasOverride bool) (*Result, error) {
	agg, ok := n.(*plan.Aggregate)
	if !ok {
		return nil, farrowerr.New(farrowerr.TypeMismatch, "frozenarrow: scalar aggregate terminal without a plan.Aggregate root")
	}
	preds := collectFilterPredicates(agg.Input())
	strategy := p.Strategy
	if hasOverride {
		strategy = override
	}

	var (
		res exec.AggResult
		err error
	)
	if strategy == physical.Parallel {
		res, err = exec.AggregateParallel(ctx, c.batch, c.zm, preds, agg.AggKind(), agg.Column(), 0)
	} else {
		res, err = exec.Aggregate(c.batch, c.zm, preds, agg.AggKind(), agg.Column())
	}
	if err != nil {
		return nil, err
	}
	return &Result{Terminal: translate.TerminalScalarAgg, Scalar: res}, nil
}

func (c *Collection) execAny(n plan.Node, terminal translate.TerminalKind) (*Result, error) {
	preds := collectFilterPredicates(n)
	found := exec.Any(c.batch, c.zm, preds)
	matched := found
	if terminal == translate.TerminalAll {
		matched = !found
	}
	return &Result{Terminal: terminal, Matched: matched}, nil
}

func (c *Collection) execFirst(n plan.Node, terminal translate.TerminalKind) (*Result, error) {
	preds := collectFilterPredicates(n)
	if terminal == translate.TerminalFirst {
		row, found := exec.First(c.batch, c.zm, preds)
		if !found {
			return nil, farrowerr.New(farrowerr.EmptyAggregate, "frozenarrow: First() found no matching row")
		}
		return &Result{Terminal: terminal, Row: row, Found: true}, nil
	}
	row, found := exec.FirstOrDefault(c.batch, c.zm, preds)
	return &Result{Terminal: terminal, Row: row, Found: found}, nil
}

// executionState is the row-sequence materialization's running state:
// the current row ordering plus whatever projection is in effect.
type executionState struct {
	indices []int
	fields  []plan.ProjectField
}

// materialize walks n (and its matching physical.Plan, same shape since
// physical.Build recurses the same way) bottom-up, turning Scan/Filter/
// Project/Sort/Distinct/Limit/Offset into a final row ordering. Filter
// nodes are expected to sit directly (possibly through other Filters)
// over a Scan, matching the only shapes translate and sql ever produce;
// a Filter stacked over an already-reordered Project/Sort still filters
// correctly, it simply intersects against the full batch rather than
// re-deriving a narrower zone map.
func (c *Collection) materialize(ctx context.Context, n plan.Node, p *physical.Plan, override physical.Strategy, hasOverride bool) (*executionState, error) {
	var (
		input *executionState
		err   error
	)
	if n.Input() != nil {
		input, err = c.materialize(ctx, n.Input(), p.Input, override, hasOverride)
		if err != nil {
			return nil, err
		}
	}

	switch node := n.(type) {
	case *plan.Scan:
		indices := make([]int, c.batch.NumRows())
		for i := range indices {
			indices[i] = i
		}
		return &executionState{indices: indices}, nil

	case *plan.Filter:
		strategy := p.Strategy
		if hasOverride {
			strategy = override
		}
		sel, compiled := c.compiledFilterSelection(node)
		if !compiled {
			if strategy == physical.Parallel {
				sel, err = exec.EvaluateFilteredParallel(ctx, c.batch, c.zm, node.Predicates(), 0)
				if err != nil {
					return nil, err
				}
			} else {
				sel = exec.EvaluateFiltered(c.batch, c.zm, node.Predicates())
			}
		}
		filtered := make([]int, 0, len(input.indices))
		for _, row := range input.indices {
			if sel.Get(row) {
				filtered = append(filtered, row)
			}
		}
		return &executionState{indices: filtered, fields: input.fields}, nil

	case *plan.Project:
		return &executionState{indices: input.indices, fields: node.Fields()}, nil

	case *plan.Sort:
		indices := append([]int(nil), input.indices...)
		c.sortRowIndices(indices, node.Keys())
		return &executionState{indices: indices, fields: input.fields}, nil

	case *plan.Distinct:
		return &executionState{indices: c.distinctRows(input.indices, input.fields), fields: input.fields}, nil

	case *plan.Limit:
		indices := input.indices
		if int64(len(indices)) > node.Count() {
			indices = indices[:node.Count()]
		}
		return &executionState{indices: indices, fields: input.fields}, nil

	case *plan.Offset:
		indices := input.indices
		if int64(len(indices)) > node.Count() {
			indices = indices[node.Count():]
		} else {
			indices = nil
		}
		return &executionState{indices: indices, fields: input.fields}, nil

	default:
		return input, nil
	}
}

// compiledFilterSelection uses the compiled-predicate cache when one is
// configured: the node's predicate list is fused into a single And and
// compiled (or fetched already-compiled) by
// its canonical plan hash, then run as a flat per-row scan. This trades
// zone-map chunk skipping for a branch-free row test; callers fall back
// to EvaluateFiltered when the predicate shape does not compile.
func (c *Collection) compiledFilterSelection(node *plan.Filter) (*bitmap.Bitmap, bool) {
	if c.compileCache == nil {
		return nil, false
	}
	preds := node.Predicates()
	if len(preds) == 0 {
		return nil, false
	}
	var combined predicate.Predicate
	if len(preds) == 1 {
		combined = preds[0]
	} else {
		combined = predicate.NewAnd(preds)
	}

	key := plan.Hash(node)
	fn, ok := c.compileCache.GetOrCompile(key, func() (compile.Func, bool) {
		return compile.Compile(c.batch, combined)
	})
	if !ok {
		return nil, false
	}

	sel := bitmap.New(c.batch.NumRows(), false)
	for row := 0; row < c.batch.NumRows(); row++ {
		if fn(row) {
			sel.Set(row)
		}
	}
	return sel, true
}

func (c *Collection) sortRowIndices(indices []int, keys []plan.SortKey) {
	schema := c.schema
	sort.SliceStable(indices, func(i, j int) bool {
		for _, k := range keys {
			idx, ok := schema.IndexOf(k.Column)
			if !ok {
				continue
			}
			meta := schema.Column(idx)
			col := c.batch.Column(idx)
			cmp := compareColumnValues(col, meta, indices[i], indices[j])
			if cmp != 0 {
				if k.Descending {
					return cmp > 0
				}
				return cmp < 0
			}
		}
		return false
	})
}

func (c *Collection) distinctRows(indices []int, fields []plan.ProjectField) []int {
	columns := fields
	if len(columns) == 0 {
		columns = allColumns(c.schema)
	}
	seen := make(map[string]bool, len(indices))
	out := make([]int, 0, len(indices))
	for _, row := range indices {
		key := rowDedupeKey(c.batch, c.schema, row, columns)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, row)
	}
	return out
}

func allColumns(schema *arrowcol.Schema) []plan.ProjectField {
	fields := make([]plan.ProjectField, schema.NumColumns())
	for i := 0; i < schema.NumColumns(); i++ {
		meta := schema.Column(i)
		fields[i] = plan.ProjectField{SourceColumn: meta.Name, OutputName: meta.Name, Type: meta.Type}
	}
	return fields
}
