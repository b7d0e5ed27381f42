package frozenarrow

import (
	"frozenarrow/exec"
	"frozenarrow/plan"
	"frozenarrow/translate"
)

// Result is the outcome of Execute, shaped by its Terminal. Exactly one
// of the field groups below is populated, matching translate.TerminalKind:
//
//   - TerminalEnumerate: RowIndices+Fields (a plain row sequence) or
//     Groups+GroupKeyColumn+Aggregates (a GroupBy's output groups).
//   - TerminalScalarAgg: Scalar.
//   - TerminalAny / TerminalAll: Matched.
//   - TerminalFirst / TerminalFirstOrDefault: Row+Found.
type Result struct {
	Terminal translate.TerminalKind

	RowIndices []int
	Fields     []plan.ProjectField

	Groups         []exec.GroupRow
	GroupKeyColumn string
	Aggregates     []plan.AggDescriptor

	Scalar exec.AggResult

	Matched bool

	Row   int
	Found bool
}

// IsGrouped reports whether this result came from a GROUP BY query.
func (r *Result) IsGrouped() bool { return r.GroupKeyColumn != "" }
