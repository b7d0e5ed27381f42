// Package adaptive implements a learned-strategy feedback loop: each
// distinct query shape (identified by its canonical plan hash)
// accumulates a bounded ring buffer of recent execution samples per
// physical.Strategy, and once at least one strategy has MinSamples
// samples, Suggest recommends whichever eligible strategy has the lowest
// observed average latency, ties broken toward the cheaper cost-model
// strategy.
package adaptive

import (
	"sync"
	"time"

	"frozenarrow/farrowlog"
	"frozenarrow/physical"
)

// WindowSize is the number of most recent samples retained per strategy
// per query hash.
const WindowSize = 32

// MinSamples is the number of samples a strategy needs before it is
// eligible to be compared against others.
const MinSamples = 5

// Sample is one observed execution of a query under a given strategy.
type Sample struct {
	Strategy         physical.Strategy
	WallNanos        int64
	RowsProcessed    int64
	SelectivityActual float64
}

// ring is a fixed-capacity circular buffer of Samples for one strategy.
type ring struct {
	buf   [WindowSize]Sample
	count int // number of valid samples in buf, capped at WindowSize
	next  int
}

func (r *ring) push(s Sample) {
	r.buf[r.next] = s
	r.next = (r.next + 1) % WindowSize
	if r.count < WindowSize {
		r.count++
	}
}

func (r *ring) averageNanos() float64 {
	if r.count == 0 {
		return 0
	}
	var total int64
	for i := 0; i < r.count; i++ {
		total += r.buf[i].WallNanos
	}
	return float64(total) / float64(r.count)
}

// queryStats tracks one ring per strategy for a single query hash.
type queryStats struct {
	rings map[physical.Strategy]*ring
}

func newQueryStats() *queryStats {
	return &queryStats{rings: make(map[physical.Strategy]*ring)}
}

func (q *queryStats) ringFor(s physical.Strategy) *ring {
	r, ok := q.rings[s]
	if !ok {
		r = &ring{}
		q.rings[s] = r
	}
	return r
}

// Recommendation is returned by Suggest (Kind "Opportunity") when the
// learned strategy differs from the cost model's choice. Slow samples are
// only logged by Record as "Slow" events; no Recommendation value is
// built for them.
type Recommendation struct {
	Kind   string // "Slow" or "Opportunity"
	Detail string
}

// Tracker is the engine-wide adaptive execution state: per-query-hash
// sample windows, guarded by a single mutex since samples arrive from
// concurrent query executions.
type Tracker struct {
	mu      sync.Mutex
	queries map[uint64]*queryStats
	logger  *farrowlog.Logger
}

// NewTracker builds an empty Tracker. logger may be nil, in which case
// QueryExecuted/Recommendation events are not logged.
func NewTracker(logger *farrowlog.Logger) *Tracker {
	return &Tracker{queries: make(map[uint64]*queryStats), logger: logger}
}

// Record appends one execution sample for queryHash under its chosen
// strategy, then logs it and, if the sample looks anomalously slow
// relative to that strategy's own history, emits a Slow recommendation.
func (t *Tracker) Record(queryHash uint64, sample Sample) {
	t.mu.Lock()
	qs, ok := t.queries[queryHash]
	if !ok {
		qs = newQueryStats()
		t.queries[queryHash] = qs
	}
	r := qs.ringFor(sample.Strategy)
	priorAvg := r.averageNanos()
	priorCount := r.count
	r.push(sample)
	t.mu.Unlock()

	if t.logger != nil {
		t.logger.QueryExecuted(hashHex(queryHash), sample.Strategy.String(), time.Duration(sample.WallNanos), sample.RowsProcessed)
		if priorCount >= MinSamples && priorAvg > 0 && float64(sample.WallNanos) > priorAvg*3 {
			t.logger.Recommendation(hashHex(queryHash), "Slow",
				"execution took more than 3x this strategy's rolling average")
		}
	}
}

// Suggest returns the strategy with the lowest observed average latency
// for queryHash, along with whether a recommendation differs from
// costModelChoice. ok is false until at least one strategy has
// accumulated MinSamples observations; callers should keep using the
// cost model's choice until then.
func (t *Tracker) Suggest(queryHash uint64, costModelChoice physical.Strategy) (best physical.Strategy, ok bool, rec *Recommendation) {
	t.mu.Lock()
	qs, found := t.queries[queryHash]
	if !found {
		t.mu.Unlock()
		return costModelChoice, false, nil
	}

	type candidate struct {
		strategy physical.Strategy
		avg      float64
	}
	var eligible []candidate
	for s, r := range qs.rings {
		if r.count >= MinSamples {
			eligible = append(eligible, candidate{strategy: s, avg: r.averageNanos()})
		}
	}
	t.mu.Unlock()

	if len(eligible) == 0 {
		return costModelChoice, false, nil
	}

	best = eligible[0].strategy
	bestAvg := eligible[0].avg
	for _, c := range eligible[1:] {
		if c.avg < bestAvg || (c.avg == bestAvg && cheaperStrategy(c.strategy, best)) {
			best = c.strategy
			bestAvg = c.avg
		}
	}

	if best != costModelChoice {
		rec = &Recommendation{
			Kind: "Opportunity",
			Detail: "learned strategy " + best.String() + " outperforms cost-model choice " + costModelChoice.String(),
		}
		if t.logger != nil {
			t.logger.Recommendation(hashHex(queryHash), rec.Kind, rec.Detail)
		}
	}
	return best, true, rec
}

// cheaperStrategy breaks ties toward the strategy with the lower
// cost-model multiplier: SIMD < Parallel < Sequential.
func cheaperStrategy(a, b physical.Strategy) bool {
	return rank(a) < rank(b)
}

func rank(s physical.Strategy) int {
	switch s {
	case physical.SIMD:
		return 0
	case physical.Parallel:
		return 1
	default:
		return 2
	}
}

func hashHex(h uint64) string {
	const hexDigits = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hexDigits[h&0xf]
		h >>= 4
	}
	return string(buf)
}
