package plan

import (
	"fmt"
	"hash/fnv"
	"strings"

	"frozenarrow/predicate"
)

// CanonicalString renders node (and its whole input chain) into a stable
// string that includes literal predicate values, so that e.g. `age > 30`
// and `age > 40` canonicalize differently — the distinction a plan cache
// key needs to preserve. It is independent of any particular predicate
// concrete type via a small type switch, since Predicate itself exposes
// no stringer.
func CanonicalString(n Node) string {
	var b strings.Builder
	writeCanonical(&b, n)
	return b.String()
}

func writeCanonical(b *strings.Builder, n Node) {
	if n == nil {
		return
	}
	if in := n.Input(); in != nil {
		writeCanonical(b, in)
		b.WriteByte('|')
	}
	switch node := n.(type) {
	case *Scan:
		fmt.Fprintf(b, "Scan()")
	case *Filter:
		b.WriteString("Filter(")
		for i, p := range node.predicates {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(canonicalPredicate(p))
		}
		b.WriteByte(')')
	case *Project:
		b.WriteString("Project(")
		for i, f := range node.fields {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, "%s->%s", f.SourceColumn, f.OutputName)
		}
		b.WriteByte(')')
	case *Aggregate:
		fmt.Fprintf(b, "Aggregate(%s,%s)", node.kind, node.column)
	case *GroupBy:
		fmt.Fprintf(b, "GroupBy(%s", node.keyColumn)
		for _, a := range node.aggregates {
			fmt.Fprintf(b, ",%s(%s)", a.Kind, a.Column)
		}
		b.WriteByte(')')
	case *Limit:
		fmt.Fprintf(b, "Limit(%d)", node.count)
	case *Offset:
		fmt.Fprintf(b, "Offset(%d)", node.count)
	case *Distinct:
		b.WriteString("Distinct()")
	case *Sort:
		b.WriteString("Sort(")
		for i, k := range node.keys {
			if i > 0 {
				b.WriteByte(',')
			}
			dir := "ASC"
			if k.Descending {
				dir = "DESC"
			}
			fmt.Fprintf(b, "%s:%s", k.Column, dir)
		}
		b.WriteByte(')')
	}
}

// canonicalPredicate stringifies a predicate including its literal
// operands, so that e.g. `age > 30` and `age > 40` canonicalize
// differently. Compound predicates recurse into their members.
func canonicalPredicate(p predicate.Predicate) string {
	switch pr := p.(type) {
	case *predicate.I32Cmp:
		return fmt.Sprintf("I32Cmp(%d,%s,%d)", pr.ColumnIndex(), pr.Op(), pr.Value())
	case *predicate.F64Cmp:
		return fmt.Sprintf("F64Cmp(%d,%s,%g)", pr.ColumnIndex(), pr.Op(), pr.Value())
	case *predicate.DecCmp:
		return fmt.Sprintf("DecCmp(%d,%s,%d)", pr.ColumnIndex(), pr.Op(), pr.ScaledValue())
	case *predicate.StrCmp:
		return fmt.Sprintf("StrCmp(%d,%s,%q)", pr.ColumnIndex(), pr.Op(), pr.Needle())
	case *predicate.BoolEq:
		return fmt.Sprintf("BoolEq(%d,%v)", pr.ColumnIndex(), pr.Value())
	case *predicate.IsNull:
		return fmt.Sprintf("IsNull(%d)", pr.ColumnIndex())
	case *predicate.StringOp:
		return fmt.Sprintf("StringOp(%d,%d,%q)", pr.ColumnIndex(), pr.PatternKind(), pr.Needle())
	case *predicate.And:
		parts := make([]string, len(pr.List()))
		for i, m := range pr.List() {
			parts[i] = canonicalPredicate(m)
		}
		return "And[" + strings.Join(parts, ";") + "]"
	case *predicate.Or:
		return fmt.Sprintf("Or(%s,%s)", canonicalPredicate(pr.Left()), canonicalPredicate(pr.Right()))
	case *predicate.Not:
		return fmt.Sprintf("Not(%s)", canonicalPredicate(pr.Inner()))
	default:
		return fmt.Sprintf("%T(col=%d)", p, p.ColumnIndex())
	}
}

// Hash returns a 64-bit FNV-1a hash of node's canonical string, used as
// the adaptive execution tracker's query hash.
func Hash(n Node) uint64 {
	h := fnv.New64a()
	h.Write([]byte(CanonicalString(n)))
	return h.Sum64()
}
