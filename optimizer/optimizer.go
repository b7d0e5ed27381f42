// Package optimizer implements the logical plan rewrite rules: predicate
// reordering by selectivity and trivial-node elimination. A Limit above a
// Filter is left where it is; there is no hoisting rewrite. The optimizer is pure: it never mutates its
// input plan, always returning a new tree.
package optimizer

import (
	"sort"

	"frozenarrow/plan"
	"frozenarrow/predicate"
	"frozenarrow/zonemap"
)

// Optimize applies every rule bottom-up once and returns a new plan tree.
func Optimize(n plan.Node, zm *zonemap.ZoneMap) plan.Node {
	if n == nil {
		return nil
	}
	input := n.Input()
	var optimizedInput plan.Node
	if input != nil {
		optimizedInput = Optimize(input, zm)
	}

	switch node := n.(type) {
	case *plan.Scan:
		return node
	case *plan.Filter:
		preds := reorderBySelectivity(node.Predicates(), zm)
		f, err := plan.NewFilter(optimizedInput, preds, node.Selectivity())
		if err != nil {
			return node
		}
		return eliminateTrivialFilter(f)
	case *plan.Project:
		p, err := plan.NewProject(optimizedInput, node.Fields())
		if err != nil {
			return node
		}
		return p
	case *plan.Aggregate:
		a, err := plan.NewAggregate(optimizedInput, node.AggKind(), node.Column())
		if err != nil {
			return node
		}
		return a
	case *plan.GroupBy:
		distinctGroups := node.EstimatedRowCount()
		g, err := plan.NewGroupBy(optimizedInput, node.KeyColumn(), node.Aggregates(), distinctGroups)
		if err != nil {
			return node
		}
		return g
	case *plan.Limit:
		l, err := plan.NewLimit(optimizedInput, node.Count())
		if err != nil {
			return node
		}
		return eliminateTrivialLimit(l, optimizedInput)
	case *plan.Offset:
		o, err := plan.NewOffset(optimizedInput, node.Count())
		if err != nil {
			return node
		}
		return eliminateTrivialOffset(o, optimizedInput)
	case *plan.Distinct:
		d, err := plan.NewDistinct(optimizedInput)
		if err != nil {
			return node
		}
		return d
	case *plan.Sort:
		s, err := plan.NewSort(optimizedInput, node.Keys())
		if err != nil {
			return node
		}
		return s
	default:
		return n
	}
}

// reorderBySelectivity sorts preds ascending by estimated selectivity
// (cheapest/most-restrictive first), with a stable sort so ties preserve
// the user's original order.
func reorderBySelectivity(preds []predicate.Predicate, zm *zonemap.ZoneMap) []predicate.Predicate {
	if zm == nil || len(preds) < 2 {
		return preds
	}
	type scored struct {
		pred        predicate.Predicate
		selectivity float64
	}
	pairs := make([]scored, len(preds))
	for i, p := range preds {
		pairs[i] = scored{pred: p, selectivity: p.EstimatedSelectivity(zm)}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].selectivity < pairs[j].selectivity
	})
	out := make([]predicate.Predicate, len(pairs))
	for i, s := range pairs {
		out[i] = s.pred
	}
	return out
}

// eliminateTrivialFilter collapses Filter(no predicates) to its child.
func eliminateTrivialFilter(f *plan.Filter) plan.Node {
	if len(f.Predicates()) == 0 {
		return f.Input()
	}
	return f
}

// eliminateTrivialLimit collapses Limit(very_large) to its child when the
// limit can never bind (count >= input's estimated row count). The
// estimate is trusted only when no GroupBy, and no Filter with selectivity
// below 1, sits in the input chain, since those estimates can fall below
// the real row count.
func eliminateTrivialLimit(l *plan.Limit, input plan.Node) plan.Node {
	if input == nil || l.Count() < input.EstimatedRowCount() {
		return l
	}
	for n := input; n != nil; n = n.Input() {
		switch node := n.(type) {
		case *plan.GroupBy:
			return l
		case *plan.Filter:
			if node.Selectivity() < 1 {
				return l
			}
		}
	}
	return input
}

// eliminateTrivialOffset collapses Offset(0) to its child.
func eliminateTrivialOffset(o *plan.Offset, input plan.Node) plan.Node {
	if o.Count() == 0 {
		return input
	}
	return o
}
