// Package physical implements a cost-based physical planner: it walks an
// optimized logical plan and attaches a chosen execution strategy
// (Sequential/SIMD/Parallel for filter/aggregate, Hash/Sorted for
// group-by) plus an estimated cost to every node.
package physical

import (
	"frozenarrow/config"
	"frozenarrow/plan"
	"frozenarrow/predicate"
)

// Strategy is the filter/aggregate execution strategy a node is assigned.
type Strategy int

const (
	Sequential Strategy = iota
	SIMD
	Parallel
)

func (s Strategy) String() string {
	switch s {
	case SIMD:
		return "SIMD"
	case Parallel:
		return "Parallel"
	default:
		return "Sequential"
	}
}

// costMultiplier is the mult[strategy] factor of the cost formula.
func (s Strategy) costMultiplier() float64 {
	switch s {
	case SIMD:
		return 0.25
	case Parallel:
		return 0.5
	default:
		return 1.0
	}
}

// GroupStrategy is the group-by execution strategy: hash bucketing or
// pre-sorted. There is no separate array-indexed strategy.
type GroupStrategy int

const (
	HashGroup GroupStrategy = iota
	SortedGroup
)

func (g GroupStrategy) String() string {
	if g == SortedGroup {
		return "Sorted"
	}
	return "Hash"
}

// Plan is the physical counterpart to a logical plan.Node: the same node
// plus a chosen Strategy/GroupStrategy, its estimated cost, and the
// ordering/partitioning properties that propagate from children to
// suppress unnecessary resorts.
type Plan struct {
	Logical       plan.Node
	Input         *Plan
	Strategy      Strategy
	GroupStrategy GroupStrategy
	EstimatedCost float64
	IsOrdered     bool
	IsPartitioned bool
}

// simdCapable reports whether p's predicates are all of a kind the SIMD
// numeric comparison loop supports (I32Cmp, F64Cmp, DecCmp). Any other
// leaf/compound kind forces a Sequential or Parallel fallback for that
// node.
func simdCapable(preds []predicate.Predicate) bool {
	for _, p := range preds {
		switch p.(type) {
		case *predicate.I32Cmp, *predicate.F64Cmp, *predicate.DecCmp:
			// ok
		default:
			return false
		}
	}
	return true
}

// Build walks n bottom-up and assigns a Strategy/GroupStrategy and cost to
// every node, using cfg's thresholds.
func Build(n plan.Node, cfg config.Config) *Plan {
	if n == nil {
		return nil
	}
	inputPhysical := Build(n.Input(), cfg)

	switch node := n.(type) {
	case *plan.Scan:
		return &Plan{
			Logical:       node,
			EstimatedCost: float64(node.EstimatedRowCount()) * 1e-3,
			IsOrdered:     true,
			IsPartitioned: false,
		}
	case *plan.Filter:
		rows := node.Input().EstimatedRowCount()
		npred := len(node.Predicates())
		strategy := chooseFilterStrategy(rows, npred, node.Predicates(), cfg)
		cost := float64(rows) * float64(npred) * 1e-4 * strategy.costMultiplier()
		if inputPhysical != nil {
			cost += inputPhysical.EstimatedCost
		}
		return &Plan{
			Logical:       node,
			Input:         inputPhysical,
			Strategy:      strategy,
			EstimatedCost: cost,
			IsOrdered:     inputPhysical != nil && inputPhysical.IsOrdered,
			IsPartitioned: strategy == Parallel,
		}
	case *plan.Aggregate:
		rows := node.Input().EstimatedRowCount()
		strategy := chooseAggregateStrategy(rows, cfg)
		cost := float64(rows) * 1e-4 * strategy.costMultiplier()
		if inputPhysical != nil {
			cost += inputPhysical.EstimatedCost
		}
		return &Plan{
			Logical:       node,
			Input:         inputPhysical,
			Strategy:      strategy,
			EstimatedCost: cost,
			IsOrdered:     true,
			IsPartitioned: false,
		}
	case *plan.GroupBy:
		rows := node.Input().EstimatedRowCount()
		groupStrategy := HashGroup
		if inputPhysical != nil && inputPhysical.IsOrdered {
			groupStrategy = SortedGroup
		}
		const groupByKeys = 1 // a GroupBy node has exactly one key column
		cost := float64(rows) * (1 + 0.5*groupByKeys) * 1e-4
		if inputPhysical != nil {
			cost += inputPhysical.EstimatedCost
		}
		return &Plan{
			Logical:       node,
			Input:         inputPhysical,
			GroupStrategy: groupStrategy,
			EstimatedCost: cost,
			IsOrdered:     groupStrategy == SortedGroup,
			IsPartitioned: false,
		}
	default:
		// Project/Limit/Offset/Distinct/Sort carry no strategy of their
		// own; they inherit the input's cost and ordering properties.
		cost := 0.0
		ordered := true
		partitioned := false
		if inputPhysical != nil {
			cost = inputPhysical.EstimatedCost
			ordered = inputPhysical.IsOrdered
			partitioned = inputPhysical.IsPartitioned
		}
		if _, isSort := n.(*plan.Sort); isSort {
			ordered = true
		}
		return &Plan{Logical: n, Input: inputPhysical, EstimatedCost: cost, IsOrdered: ordered, IsPartitioned: partitioned}
	}
}

func chooseFilterStrategy(rows int64, npredicates int, preds []predicate.Predicate, cfg config.Config) Strategy {
	if rows >= cfg.ParallelThreshold && npredicates > 1 {
		return Parallel
	}
	if rows >= cfg.SIMDThreshold && simdCapable(preds) {
		return SIMD
	}
	return Sequential
}

func chooseAggregateStrategy(rows int64, cfg config.Config) Strategy {
	if rows >= cfg.ParallelThreshold {
		return Parallel
	}
	if rows >= cfg.SIMDThreshold {
		return SIMD
	}
	return Sequential
}
