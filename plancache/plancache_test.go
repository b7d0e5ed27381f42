package plancache

import (
	"fmt"
	"testing"

	"frozenarrow/arrowcol"
	"frozenarrow/plan"
)

func dummyPlan(t *testing.T, rows int64) plan.Node {
	t.Helper()
	schema := arrowcol.NewSchema([]arrowcol.ColumnMeta{{Name: "x", Type: arrowcol.Int32}})
	s, err := plan.NewScan(schema, rows)
	if err != nil {
		t.Fatalf("NewScan: %v", err)
	}
	return s
}

func TestStoreThenLookupHits(t *testing.T) {
	c := New(10)
	p := dummyPlan(t, 100)
	c.Store("key1", p)

	got, ok := c.Lookup("key1")
	if !ok || got != p {
		t.Fatalf("expected cache hit returning the stored plan")
	}
	hits, misses := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("hits=%d misses=%d, want 1,1", hits, misses)
	}
}

func TestLookupMissOnUnknownKey(t *testing.T) {
	c := New(10)
	if _, ok := c.Lookup("missing"); ok {
		t.Fatalf("expected miss for unknown key")
	}
}

func TestEvictsOldestQuarterOverCapacity(t *testing.T) {
	c := New(8)
	for i := 0; i < 8; i++ {
		c.Store(fmt.Sprintf("key%d", i), dummyPlan(t, int64(i)))
	}
	if c.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", c.Len())
	}
	// Touch key7 so it is not the least-recently-used entry.
	c.Lookup("key7")
	c.Store("key8", dummyPlan(t, 8))
	if c.Len() != 7 {
		t.Fatalf("Len() = %d, want 7 after evicting 2 of 9", c.Len())
	}
	if _, ok := c.Lookup("key7"); !ok {
		t.Fatalf("expected recently-used key7 to survive eviction")
	}
}

func TestUnboundedCacheNeverEvicts(t *testing.T) {
	c := New(0)
	for i := 0; i < 1000; i++ {
		c.Store(fmt.Sprintf("key%d", i), dummyPlan(t, int64(i)))
	}
	if c.Len() != 1000 {
		t.Fatalf("Len() = %d, want 1000 for an unbounded cache", c.Len())
	}
}
