package config

import (
	"strings"
	"testing"
)

func TestDefaultMatchesSpec(t *testing.T) {
	c := Default()
	if c.ParallelThreshold != 50_000 {
		t.Errorf("ParallelThreshold = %d, want 50000", c.ParallelThreshold)
	}
	if c.SIMDThreshold != 1_000 {
		t.Errorf("SIMDThreshold = %d, want 1000", c.SIMDThreshold)
	}
	if c.ChunkRows != 16_384 {
		t.Errorf("ChunkRows = %d, want 16384", c.ChunkRows)
	}
	if c.PlanCacheCapacity != 256 {
		t.Errorf("PlanCacheCapacity = %d, want 256", c.PlanCacheCapacity)
	}
}

func TestApplyOptions(t *testing.T) {
	c := Apply(WithChunkRows(8192), WithParallelThreshold(1000), WithAdaptiveExecution(true))
	if c.ChunkRows != 8192 || c.ParallelThreshold != 1000 || !c.UseAdaptiveExecution {
		t.Fatalf("unexpected config after options: %+v", c)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	yamlDoc := `
chunk_rows: 4096
use_adaptive_execution: true
`
	c, err := LoadYAML(strings.NewReader(yamlDoc))
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	if c.ChunkRows != 4096 {
		t.Errorf("ChunkRows = %d, want 4096", c.ChunkRows)
	}
	if !c.UseAdaptiveExecution {
		t.Errorf("expected UseAdaptiveExecution true")
	}
	if c.PlanCacheCapacity != 256 {
		t.Errorf("unset field should keep default, got %d", c.PlanCacheCapacity)
	}
}

func TestValidateRejectsBadChunkRows(t *testing.T) {
	c := Default()
	c.ChunkRows = 0
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for zero ChunkRows")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("FROZENARROW_CHUNK_ROWS", "2048")
	t.Setenv("FROZENARROW_USE_ADAPTIVE_EXECUTION", "true")
	c := ApplyEnv(Default())
	if c.ChunkRows != 2048 {
		t.Errorf("ChunkRows = %d, want 2048", c.ChunkRows)
	}
	if !c.UseAdaptiveExecution {
		t.Errorf("expected UseAdaptiveExecution true")
	}
}
