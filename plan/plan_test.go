package plan

import (
	"testing"

	"frozenarrow/arrowcol"
	"frozenarrow/predicate"
)

func testSchema() *arrowcol.Schema {
	return arrowcol.NewSchema([]arrowcol.ColumnMeta{
		{Name: "age", Type: arrowcol.Int32},
		{Name: "score", Type: arrowcol.Float64},
	})
}

func TestFilterEstimatedRowCount(t *testing.T) {
	scan, err := NewScan(testSchema(), 1000)
	if err != nil {
		t.Fatalf("NewScan: %v", err)
	}
	p, _ := predicate.NewI32Cmp(testSchema(), "age", predicate.Gt, 30)
	f, err := NewFilter(scan, []predicate.Predicate{p}, 0.4)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}
	if f.EstimatedRowCount() != 400 {
		t.Fatalf("EstimatedRowCount() = %d, want 400", f.EstimatedRowCount())
	}
}

func TestFilterRejectsBadSelectivity(t *testing.T) {
	scan, _ := NewScan(testSchema(), 1000)
	if _, err := NewFilter(scan, nil, 1.5); err == nil {
		t.Fatalf("expected error for out-of-range selectivity")
	}
}

func TestLimitRejectsNegativeCount(t *testing.T) {
	scan, _ := NewScan(testSchema(), 1000)
	if _, err := NewLimit(scan, -1); err == nil {
		t.Fatalf("expected error for negative limit")
	}
}

func TestAggregateIsOneRow(t *testing.T) {
	scan, _ := NewScan(testSchema(), 1000)
	agg, err := NewAggregate(scan, AggSum, "score")
	if err != nil {
		t.Fatalf("NewAggregate: %v", err)
	}
	if agg.EstimatedRowCount() != 1 {
		t.Fatalf("EstimatedRowCount() = %d, want 1", agg.EstimatedRowCount())
	}
}

func TestGroupByRowCountIsDistinctGroups(t *testing.T) {
	scan, _ := NewScan(testSchema(), 1000)
	gb, err := NewGroupBy(scan, "age", []AggDescriptor{{Kind: AggCount, OutputName: "n"}}, 45)
	if err != nil {
		t.Fatalf("NewGroupBy: %v", err)
	}
	if gb.EstimatedRowCount() != 45 {
		t.Fatalf("EstimatedRowCount() = %d, want 45", gb.EstimatedRowCount())
	}
}

func TestCanonicalStringDistinguishesLiterals(t *testing.T) {
	scan, _ := NewScan(testSchema(), 1000)
	p1, _ := predicate.NewI32Cmp(testSchema(), "age", predicate.Gt, 30)
	p2, _ := predicate.NewI32Cmp(testSchema(), "age", predicate.Gt, 40)
	f1, _ := NewFilter(scan, []predicate.Predicate{p1}, 0.5)
	f2, _ := NewFilter(scan, []predicate.Predicate{p2}, 0.5)
	if CanonicalString(f1) == CanonicalString(f2) {
		t.Fatalf("expected distinct canonical strings for age>30 vs age>40")
	}
}

func TestCanonicalStringStableForEqualPlans(t *testing.T) {
	scan, _ := NewScan(testSchema(), 1000)
	p1, _ := predicate.NewI32Cmp(testSchema(), "age", predicate.Gt, 30)
	p2, _ := predicate.NewI32Cmp(testSchema(), "age", predicate.Gt, 30)
	f1, _ := NewFilter(scan, []predicate.Predicate{p1}, 0.5)
	f2, _ := NewFilter(scan, []predicate.Predicate{p2}, 0.5)
	if CanonicalString(f1) != CanonicalString(f2) {
		t.Fatalf("expected identical canonical strings for equal plans")
	}
	if Hash(f1) != Hash(f2) {
		t.Fatalf("expected identical hashes for equal plans")
	}
}

type rowCountVisitor struct{}

func (rowCountVisitor) VisitScan(n *Scan) interface{}         { return n.EstimatedRowCount() }
func (rowCountVisitor) VisitFilter(n *Filter) interface{}     { return n.EstimatedRowCount() }
func (rowCountVisitor) VisitProject(n *Project) interface{}   { return n.EstimatedRowCount() }
func (rowCountVisitor) VisitAggregate(n *Aggregate) interface{} { return n.EstimatedRowCount() }
func (rowCountVisitor) VisitGroupBy(n *GroupBy) interface{}   { return n.EstimatedRowCount() }
func (rowCountVisitor) VisitLimit(n *Limit) interface{}       { return n.EstimatedRowCount() }
func (rowCountVisitor) VisitOffset(n *Offset) interface{}     { return n.EstimatedRowCount() }
func (rowCountVisitor) VisitDistinct(n *Distinct) interface{} { return n.EstimatedRowCount() }
func (rowCountVisitor) VisitSort(n *Sort) interface{}         { return n.EstimatedRowCount() }

func TestVisitorDispatch(t *testing.T) {
	scan, _ := NewScan(testSchema(), 1000)
	limit, _ := NewLimit(scan, 10)
	got := limit.Accept(rowCountVisitor{})
	if got.(int64) != 10 {
		t.Fatalf("Accept(rowCountVisitor) = %v, want 10", got)
	}
}
