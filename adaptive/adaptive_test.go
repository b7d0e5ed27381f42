package adaptive

import (
	"testing"

	"frozenarrow/physical"
)

func TestSuggestNotOkBeforeMinSamples(t *testing.T) {
	tr := NewTracker(nil)
	for i := 0; i < MinSamples-1; i++ {
		tr.Record(1, Sample{Strategy: physical.Sequential, WallNanos: 1000})
	}
	_, ok, _ := tr.Suggest(1, physical.Sequential)
	if ok {
		t.Fatalf("expected Suggest to report not-ok before MinSamples observations")
	}
}

func TestSuggestPrefersLowerAverageLatency(t *testing.T) {
	tr := NewTracker(nil)
	for i := 0; i < MinSamples; i++ {
		tr.Record(1, Sample{Strategy: physical.Sequential, WallNanos: 10_000})
		tr.Record(1, Sample{Strategy: physical.SIMD, WallNanos: 2_000})
	}
	best, ok, rec := tr.Suggest(1, physical.Sequential)
	if !ok {
		t.Fatalf("expected Suggest to be ready after MinSamples observations")
	}
	if best != physical.SIMD {
		t.Fatalf("best = %v, want SIMD", best)
	}
	if rec == nil || rec.Kind != "Opportunity" {
		t.Fatalf("expected an Opportunity recommendation since learned choice differs from cost model")
	}
}

func TestSuggestMatchesCostModelReportsNoRecommendation(t *testing.T) {
	tr := NewTracker(nil)
	for i := 0; i < MinSamples; i++ {
		tr.Record(1, Sample{Strategy: physical.Sequential, WallNanos: 5_000})
	}
	best, ok, rec := tr.Suggest(1, physical.Sequential)
	if !ok || best != physical.Sequential {
		t.Fatalf("expected Sequential to win with only Sequential samples")
	}
	if rec != nil {
		t.Fatalf("expected no recommendation when learned choice matches cost model")
	}
}

func TestSuggestTieBreaksTowardCheaperStrategy(t *testing.T) {
	tr := NewTracker(nil)
	for i := 0; i < MinSamples; i++ {
		tr.Record(1, Sample{Strategy: physical.Parallel, WallNanos: 1_000})
		tr.Record(1, Sample{Strategy: physical.SIMD, WallNanos: 1_000})
	}
	best, ok, _ := tr.Suggest(1, physical.Sequential)
	if !ok {
		t.Fatalf("expected Suggest to be ready")
	}
	if best != physical.SIMD {
		t.Fatalf("best = %v, want SIMD on a tied average (cheaper cost-model multiplier)", best)
	}
}

func TestRingWindowCapsAtWindowSize(t *testing.T) {
	tr := NewTracker(nil)
	for i := 0; i < WindowSize*3; i++ {
		tr.Record(1, Sample{Strategy: physical.Sequential, WallNanos: int64(i)})
	}
	qs := tr.queries[1]
	r := qs.ringFor(physical.Sequential)
	if r.count != WindowSize {
		t.Fatalf("ring.count = %d, want %d after overflowing the window", r.count, WindowSize)
	}
}

func TestDistinctQueryHashesAreIndependent(t *testing.T) {
	tr := NewTracker(nil)
	for i := 0; i < MinSamples; i++ {
		tr.Record(1, Sample{Strategy: physical.Sequential, WallNanos: 1_000})
		tr.Record(2, Sample{Strategy: physical.Sequential, WallNanos: 9_000})
	}
	_, ok1, _ := tr.Suggest(1, physical.Sequential)
	_, ok2, _ := tr.Suggest(2, physical.Sequential)
	if !ok1 || !ok2 {
		t.Fatalf("expected both query hashes to independently reach MinSamples")
	}
}
