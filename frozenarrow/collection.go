// Package frozenarrow is the top-level query surface: a Collection wraps
// one immutable record batch together with the zone map, plan cache,
// compiled-predicate cache, and adaptive tracker that a query needs to go
// from a translated logical plan to a result, wiring together optimizer,
// physical, compile, adaptive, and exec exactly the way those packages
// were designed to be driven.
package frozenarrow

import (
	"frozenarrow/adaptive"
	"frozenarrow/arrowcol"
	"frozenarrow/compile"
	"frozenarrow/config"
	"frozenarrow/farrowerr"
	"frozenarrow/farrowlog"
	"frozenarrow/plan"
	"frozenarrow/plancache"
	"frozenarrow/translate"
	"frozenarrow/zonemap"
)

// Collection is an immutable record batch plus the engine machinery a
// query provider needs: a zone map built once at construction time, and
// the optional plan/compile caches and adaptive tracker the Config
// requests.
type Collection struct {
	batch arrowcol.RecordBatch
	schema *arrowcol.Schema
	cfg config.Config
	zm *zonemap.ZoneMap

	planCache       *plancache.Cache
	compileCache    *compile.Cache
	adaptiveTracker *adaptive.Tracker
	logger          *farrowlog.Logger
}

// NewCollection wraps batch with the engine's execution machinery. opts
// are applied over config.Default(); an invalid resulting configuration
// (a violated threshold or capacity constraint) is rejected before any
// cache is built.
func NewCollection(batch arrowcol.RecordBatch, opts ...config.Option) (*Collection, error) {
	if batch == nil {
		return nil, farrowerr.New(farrowerr.SchemaMismatch, "frozenarrow: batch is nil")
	}
	cfg := config.Apply(opts...)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := farrowlog.Default()
	c := &Collection{
		batch:  batch,
		schema: batch.Schema(),
		cfg:    cfg,
		zm:     zonemap.Build(batch, int(cfg.ChunkRows)),
		logger: logger,
	}
	if cfg.UseLogicalPlanCache {
		c.planCache = plancache.New(int(cfg.PlanCacheCapacity))
	}
	if cfg.UseAdaptiveExecution {
		c.adaptiveTracker = adaptive.NewTracker(logger)
	}
	if cfg.UseCompiledQueries {
		c.compileCache = compile.NewCache()
	}
	return c, nil
}

// Schema returns the collection's column schema.
func (c *Collection) Schema() *arrowcol.Schema { return c.schema }

// NumRows returns the number of rows in the underlying batch.
func (c *Collection) NumRows() int { return c.batch.NumRows() }

// Config returns the collection's effective configuration.
func (c *Collection) Config() config.Config { return c.cfg }

// Query begins a fluent query over the collection.
func (c *Collection) Query() *translate.Query {
	return translate.NewQuery(c.schema, int64(c.batch.NumRows()))
}

// PlanCacheStats reports the plan cache's accumulated (hits, misses). ok
// is false when the collection was built with UseLogicalPlanCache off.
func (c *Collection) PlanCacheStats() (hits, misses int64, ok bool) {
	if c.planCache == nil {
		return 0, 0, false
	}
	hits, misses = c.planCache.Stats()
	return hits, misses, true
}

// DebugCachedPlanText returns the canonical plan string translated was
// cached under, recovered from the plan cache's compressed storage. It is
// meant for logging/inspection of cache contents, not for driving
// execution: ok is false when the collection has no plan cache or the
// query's canonical shape was never stored.
func (c *Collection) DebugCachedPlanText(translated *translate.Translated) (string, bool) {
	if c.planCache == nil || translated == nil || translated.Node == nil {
		return "", false
	}
	key := plan.CanonicalString(translated.Node)
	return c.planCache.DebugCanonical(key)
}

// CompiledQueryCount reports how many distinct predicate shapes have been
// compiled so far. ok is false when the collection was built with
// UseCompiledQueries off.
func (c *Collection) CompiledQueryCount() (int, bool) {
	if c.compileCache == nil {
		return 0, false
	}
	return c.compileCache.Len(), true
}
