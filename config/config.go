// Package config holds FrozenArrow's recognized engine options: a plain
// struct with both `yaml` and `env` tags, loaded from YAML via
// gopkg.in/yaml.v3 and then overridden from the process environment by
// hand. FrozenArrow is an embedded, in-process library with no
// persistence or network surface of its own, so Config carries only the
// execution/cache/threshold knobs a caller can tune, not a standalone
// server's listener, storage, or auth settings.
package config

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds every engine-recognized execution, cache, and threshold
// option a caller can tune.
type Config struct {
	UseLogicalPlanExecution bool  `yaml:"use_logical_plan_execution" env:"FROZENARROW_USE_LOGICAL_PLAN_EXECUTION"`
	UseLogicalPlanCache     bool  `yaml:"use_logical_plan_cache" env:"FROZENARROW_USE_LOGICAL_PLAN_CACHE"`
	UseDirectExecution      bool  `yaml:"use_direct_execution" env:"FROZENARROW_USE_DIRECT_EXECUTION"`
	UseCompiledQueries      bool  `yaml:"use_compiled_queries" env:"FROZENARROW_USE_COMPILED_QUERIES"`
	UseAdaptiveExecution    bool  `yaml:"use_adaptive_execution" env:"FROZENARROW_USE_ADAPTIVE_EXECUTION"`
	ParallelThreshold       int64 `yaml:"parallel_threshold" env:"FROZENARROW_PARALLEL_THRESHOLD"`
	SIMDThreshold           int64 `yaml:"simd_threshold" env:"FROZENARROW_SIMD_THRESHOLD"`
	ChunkRows               int32 `yaml:"chunk_rows" env:"FROZENARROW_CHUNK_ROWS"`
	PlanCacheCapacity       int32 `yaml:"plan_cache_capacity" env:"FROZENARROW_PLAN_CACHE_CAPACITY"`
}

// Default returns the engine's documented default configuration.
func Default() Config {
	return Config{
		UseLogicalPlanExecution: true,
		UseLogicalPlanCache:     true,
		UseDirectExecution:      true,
		UseCompiledQueries:      false,
		UseAdaptiveExecution:    false,
		ParallelThreshold:       50_000,
		SIMDThreshold:           1_000,
		ChunkRows:               16_384,
		PlanCacheCapacity:       256,
	}
}

// Option mutates a Config; NewCollection(batch, opts...) in package
// frozenarrow applies these over Default().
type Option func(*Config)

// WithParallelThreshold overrides ParallelThreshold.
func WithParallelThreshold(n int64) Option { return func(c *Config) { c.ParallelThreshold = n } }

// WithSIMDThreshold overrides SIMDThreshold.
func WithSIMDThreshold(n int64) Option { return func(c *Config) { c.SIMDThreshold = n } }

// WithChunkRows overrides ChunkRows.
func WithChunkRows(n int32) Option { return func(c *Config) { c.ChunkRows = n } }

// WithPlanCacheCapacity overrides PlanCacheCapacity.
func WithPlanCacheCapacity(n int32) Option { return func(c *Config) { c.PlanCacheCapacity = n } }

// WithAdaptiveExecution toggles C16.
func WithAdaptiveExecution(enabled bool) Option {
	return func(c *Config) { c.UseAdaptiveExecution = enabled }
}

// WithCompiledQueries toggles C15.
func WithCompiledQueries(enabled bool) Option {
	return func(c *Config) { c.UseCompiledQueries = enabled }
}

// WithPlanCache toggles C13.
func WithPlanCache(enabled bool) Option {
	return func(c *Config) { c.UseLogicalPlanCache = enabled }
}

// Apply runs opts over Default() and returns the result.
func Apply(opts ...Option) Config {
	c := Default()
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Validate rejects configurations that would make the engine's thresholds
// meaningless (zero or negative chunk size, negative thresholds).
func (c Config) Validate() error {
	if c.ChunkRows <= 0 {
		return fmt.Errorf("chunk_rows must be positive, got %d", c.ChunkRows)
	}
	if c.ParallelThreshold < 0 {
		return fmt.Errorf("parallel_threshold must be non-negative, got %d", c.ParallelThreshold)
	}
	if c.SIMDThreshold < 0 {
		return fmt.Errorf("simd_threshold must be non-negative, got %d", c.SIMDThreshold)
	}
	if c.PlanCacheCapacity <= 0 {
		return fmt.Errorf("plan_cache_capacity must be positive, got %d", c.PlanCacheCapacity)
	}
	return nil
}

// LoadYAML decodes a Config from r, starting from Default() so unset
// fields keep their documented defaults rather than zero values.
func LoadYAML(r io.Reader) (Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("config: decode yaml: %w", err)
	}
	return c, nil
}

// ApplyEnv overrides c's fields from the process environment, following
// each field's `env` tag: values are parsed with strconv, and an unset or
// unparsable variable is silently skipped, leaving the existing field
// value in place.
func ApplyEnv(c Config) Config {
	if v, ok := lookupBool("FROZENARROW_USE_LOGICAL_PLAN_EXECUTION"); ok {
		c.UseLogicalPlanExecution = v
	}
	if v, ok := lookupBool("FROZENARROW_USE_LOGICAL_PLAN_CACHE"); ok {
		c.UseLogicalPlanCache = v
	}
	if v, ok := lookupBool("FROZENARROW_USE_DIRECT_EXECUTION"); ok {
		c.UseDirectExecution = v
	}
	if v, ok := lookupBool("FROZENARROW_USE_COMPILED_QUERIES"); ok {
		c.UseCompiledQueries = v
	}
	if v, ok := lookupBool("FROZENARROW_USE_ADAPTIVE_EXECUTION"); ok {
		c.UseAdaptiveExecution = v
	}
	if v, ok := lookupInt64("FROZENARROW_PARALLEL_THRESHOLD"); ok {
		c.ParallelThreshold = v
	}
	if v, ok := lookupInt64("FROZENARROW_SIMD_THRESHOLD"); ok {
		c.SIMDThreshold = v
	}
	if v, ok := lookupInt64("FROZENARROW_CHUNK_ROWS"); ok {
		c.ChunkRows = int32(v)
	}
	if v, ok := lookupInt64("FROZENARROW_PLAN_CACHE_CAPACITY"); ok {
		c.PlanCacheCapacity = int32(v)
	}
	return c
}

func lookupBool(env string) (bool, bool) {
	raw, present := os.LookupEnv(env)
	if !present {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

func lookupInt64(env string) (int64, bool) {
	raw, present := os.LookupEnv(env)
	if !present {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
