package exec

import (
	"testing"

	"frozenarrow/arrowcol"
	"frozenarrow/plan"
	"frozenarrow/predicate"
	"frozenarrow/zonemap"
)

func buildGroupByBatch(t *testing.T) (arrowcol.RecordBatch, *arrowcol.Schema) {
	t.Helper()
	schema := arrowcol.NewSchema([]arrowcol.ColumnMeta{
		{Name: "region", Type: arrowcol.String},
		{Name: "amount", Type: arrowcol.Float64},
		{Name: "age", Type: arrowcol.Int32},
	})
	regions := []string{"west", "east", "west", "east", "west", "north"}
	amounts := []float64{10, 20, 30, 40, 50, 60}
	ages := []int32{1, 2, 3, 4, 5, 6}
	batch := arrowcol.NewBatch(schema, []arrowcol.ColumnView{
		arrowcol.NewStringColumn("region", regions, nil),
		arrowcol.NewFloat64Column("amount", amounts, nil),
		arrowcol.NewInt32Column("age", ages, nil),
	}, len(regions))
	return batch, schema
}

func findGroup(rows []GroupRow, key interface{}) (GroupRow, bool) {
	for _, r := range rows {
		if r.Key == key {
			return r, true
		}
	}
	return GroupRow{}, false
}

func TestGroupByAggregateCountAndSum(t *testing.T) {
	batch, schema := buildGroupByBatch(t)
	zm := zonemap.Build(batch, 100)
	_ = schema

	aggs := []plan.AggDescriptor{
		{Kind: plan.AggCount, OutputName: "n"},
		{Kind: plan.AggSum, Column: "amount", OutputName: "total"},
	}
	rows, err := GroupByAggregate(batch, zm, nil, "region", aggs)
	if err != nil {
		t.Fatalf("GroupByAggregate: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3 groups", len(rows))
	}

	west, ok := findGroup(rows, "west")
	if !ok {
		t.Fatalf("missing group 'west'")
	}
	if west.Aggregates[0].Int64Value != 3 {
		t.Fatalf("west count = %d, want 3", west.Aggregates[0].Int64Value)
	}
	if west.Aggregates[1].Float64Value != 90 {
		t.Fatalf("west sum(amount) = %v, want 90", west.Aggregates[1].Float64Value)
	}

	east, ok := findGroup(rows, "east")
	if !ok {
		t.Fatalf("missing group 'east'")
	}
	if east.Aggregates[0].Int64Value != 2 || east.Aggregates[1].Float64Value != 60 {
		t.Fatalf("east = %+v, want count=2 sum=60", east.Aggregates)
	}
}

func TestGroupByAggregateRespectsFilterPredicate(t *testing.T) {
	batch, schema := buildGroupByBatch(t)
	zm := zonemap.Build(batch, 100)
	p, _ := predicate.NewI32Cmp(schema, "age", predicate.Gt, 2)

	aggs := []plan.AggDescriptor{{Kind: plan.AggCount, OutputName: "n"}}
	rows, err := GroupByAggregate(batch, zm, []predicate.Predicate{p}, "region", aggs)
	if err != nil {
		t.Fatalf("GroupByAggregate: %v", err)
	}
	// age>2 keeps rows 3,4,5,6 -> west(age3), east(age4), west(age5), north(age6)
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3 groups after filtering", len(rows))
	}
	west, ok := findGroup(rows, "west")
	if !ok || west.Aggregates[0].Int64Value != 2 {
		t.Fatalf("west = %+v, want count=2", west)
	}
}

func TestGroupByAggregateOnInt32Key(t *testing.T) {
	batch, _ := buildGroupByBatch(t)
	zm := zonemap.Build(batch, 100)
	aggs := []plan.AggDescriptor{{Kind: plan.AggMax, Column: "amount", OutputName: "max_amount"}}
	rows, err := GroupByAggregate(batch, zm, nil, "age", aggs)
	if err != nil {
		t.Fatalf("GroupByAggregate: %v", err)
	}
	if len(rows) != 6 {
		t.Fatalf("len(rows) = %d, want 6 (every age distinct)", len(rows))
	}
}

func TestGroupByAggregateUnknownKeyColumnFails(t *testing.T) {
	batch, _ := buildGroupByBatch(t)
	zm := zonemap.Build(batch, 100)
	_, err := GroupByAggregate(batch, zm, nil, "nonexistent", []plan.AggDescriptor{{Kind: plan.AggCount}})
	if err == nil {
		t.Fatalf("expected an error for an unknown key column")
	}
}

func TestGroupByAggregateFloatKeyUnsupported(t *testing.T) {
	batch, _ := buildGroupByBatch(t)
	zm := zonemap.Build(batch, 100)
	_, err := GroupByAggregate(batch, zm, nil, "amount", []plan.AggDescriptor{{Kind: plan.AggCount}})
	if err == nil {
		t.Fatalf("expected UnsupportedPattern for a Float64 GROUP BY key")
	}
}
