package frozenarrow

import (
	"fmt"
	"strings"

	"frozenarrow/farrowerr"
	"frozenarrow/optimizer"
	"frozenarrow/physical"
	"frozenarrow/plan"
	"frozenarrow/translate"
)

// Explain renders translated's optimized, physically-planned node chain
// as a human-readable tree, root first, each input indented one level
// further — an EXPLAIN-style debugging aid for inspecting which strategy
// and cost the physical planner chose for each node.
func (c *Collection) Explain(translated *translate.Translated) (string, error) {
	if translated == nil || translated.Node == nil {
		return "", farrowerr.New(farrowerr.SchemaMismatch, "frozenarrow: nil translated query")
	}
	optimized := optimizer.Optimize(translated.Node, c.zm)
	p := physical.Build(optimized, c.cfg)

	var b strings.Builder
	explainNode(&b, p, 0)
	return b.String(), nil
}

func explainNode(b *strings.Builder, p *physical.Plan, depth int) {
	if p == nil {
		return
	}
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(p.Logical.Description())
	switch p.Logical.(type) {
	case *plan.Filter, *plan.Aggregate:
		fmt.Fprintf(b, " strategy=%s cost=%.4f", p.Strategy, p.EstimatedCost)
	case *plan.GroupBy:
		fmt.Fprintf(b, " group=%s cost=%.4f", p.GroupStrategy, p.EstimatedCost)
	default:
		fmt.Fprintf(b, " cost=%.4f", p.EstimatedCost)
	}
	b.WriteString("\n")
	explainNode(b, p.Input, depth+1)
}
