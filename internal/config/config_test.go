package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()

	if cfg.Tick.TickIntervalMS != 500 {
		t.Errorf("TickIntervalMS = %d, want 500", cfg.Tick.TickIntervalMS)
	}
	if cfg.Tick.MaxLevel != 60 {
		t.Errorf("MaxLevel = %d, want 60", cfg.Tick.MaxLevel)
	}
	if cfg.Proximity.PortalProximity != 30 {
		t.Errorf("PortalProximity = %v, want 30", cfg.Proximity.PortalProximity)
	}
	if cfg.Party.PartyMaxSize != 5 {
		t.Errorf("PartyMaxSize = %d, want 5", cfg.Party.PartyMaxSize)
	}
}

func TestTickInterval(t *testing.T) {
	cfg := TickConfig{TickIntervalMS: 500}
	if got := cfg.TickInterval(); got != 500*time.Millisecond {
		t.Errorf("TickInterval() = %v, want 500ms", got)
	}
}

func TestDungeonMaxTime(t *testing.T) {
	cfg := PartyConfig{
		DungeonMaxTimeMSPerRank: map[string]int{"S": 20 * 60 * 1000},
		DungeonMaxTimeMSDefault: 10 * 60 * 1000,
	}

	if got := cfg.DungeonMaxTime("S"); got != 20*time.Minute {
		t.Errorf("DungeonMaxTime(S) = %v, want 20m", got)
	}
	if got := cfg.DungeonMaxTime("E"); got != 10*time.Minute {
		t.Errorf("DungeonMaxTime(E) = %v, want 10m (default)", got)
	}
}

func TestLoadFromYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := []byte("tick:\n  tick_interval_ms: 750\n  max_level: 60\nproximity:\n  portal_proximity: 45\n")
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tick.TickIntervalMS != 750 {
		t.Errorf("TickIntervalMS = %d, want 750", cfg.Tick.TickIntervalMS)
	}
	if cfg.Proximity.PortalProximity != 45 {
		t.Errorf("PortalProximity = %v, want 45", cfg.Proximity.PortalProximity)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("TICK_INTERVAL_MS", "250")
	t.Setenv("NEO_RPC_URL", "http://localhost:40332")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Tick.TickIntervalMS != 250 {
		t.Errorf("TickIntervalMS = %d, want 250", cfg.Tick.TickIntervalMS)
	}
	if cfg.Ledger.NeoRPCURL != "http://localhost:40332" {
		t.Errorf("NeoRPCURL = %q, want http://localhost:40332", cfg.Ledger.NeoRPCURL)
	}
}

func TestNormalizeAppliesFallbacks(t *testing.T) {
	cfg := &Config{}
	cfg.normalize()

	if cfg.Tick.TickIntervalMS != 500 {
		t.Errorf("normalize() TickIntervalMS = %d, want 500", cfg.Tick.TickIntervalMS)
	}
	if cfg.Party.PartyMaxSize != 5 {
		t.Errorf("normalize() PartyMaxSize = %d, want 5", cfg.Party.PartyMaxSize)
	}
	if cfg.Party.DungeonMaxTimeMSPerRank == nil {
		t.Errorf("normalize() DungeonMaxTimeMSPerRank should not be nil")
	}
}
