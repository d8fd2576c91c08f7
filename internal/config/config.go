// Package config loads the world server's runtime configuration: a YAML
// base file overridden by environment variables, exactly the layering the
// rest of the stack expects (dotenv for local dev, then file, then env).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// TickConfig controls the per-zone clock (C1) and level/XP curve.
type TickConfig struct {
	TickIntervalMS         int     `json:"tick_interval_ms" yaml:"tick_interval_ms" env:"TICK_INTERVAL_MS"`
	MobRespawnTicksDefault int     `json:"mob_respawn_ticks_default" yaml:"mob_respawn_ticks_default" env:"MOB_RESPAWN_TICKS_DEFAULT"`
	MaxLevel               int     `json:"max_level" yaml:"max_level" env:"MAX_LEVEL"`
	XPGrowthRate           float64 `json:"xp_growth_rate" yaml:"xp_growth_rate" env:"XP_GROWTH_RATE"`
}

// ProximityConfig holds the range table every action gate checks against
// (spec.md §4.2 point 3 — the single source of truth requireWithinRange reads).
type ProximityConfig struct {
	GateProximity   float64 `json:"gate_proximity" yaml:"gate_proximity" env:"GATE_PROXIMITY"`
	NPCProximity    float64 `json:"npc_proximity" yaml:"npc_proximity" env:"NPC_PROXIMITY"`
	PortalProximity float64 `json:"portal_proximity" yaml:"portal_proximity" env:"PORTAL_PROXIMITY"`
	AltarProximity  float64 `json:"altar_proximity" yaml:"altar_proximity" env:"ALTAR_PROXIMITY"`
}

// PartyConfig controls party and dungeon sizing/timeouts.
type PartyConfig struct {
	PartyMaxSize               int            `json:"party_max_size" yaml:"party_max_size" env:"PARTY_MAX_SIZE"`
	DungeonMaxTimeMSPerRank     map[string]int `json:"dungeon_max_time_ms_per_rank" yaml:"dungeon_max_time_ms_per_rank"`
	DungeonMaxTimeMSDefault     int            `json:"dungeon_max_time_ms_default" yaml:"dungeon_max_time_ms_default" env:"DUNGEON_MAX_TIME_MS_DEFAULT"`
}

// LedgerConfig controls the Asset Ledger Adapter's Neo N3 backing and call
// timeout discipline (spec.md §5 "each ledger call has a timeout").
type LedgerConfig struct {
	NeoRPCURL            string `json:"neo_rpc_url" yaml:"neo_rpc_url" env:"NEO_RPC_URL"`
	NeoNetworkID         uint32 `json:"neo_network_id" yaml:"neo_network_id" env:"NEO_NETWORK_ID"`
	LedgerCallTimeoutMS  int    `json:"ledger_call_timeout_ms" yaml:"ledger_call_timeout_ms" env:"LEDGER_CALL_TIMEOUT_MS"`
	ItemContractHash     string `json:"item_contract_hash" yaml:"item_contract_hash" env:"LEDGER_ITEM_CONTRACT_HASH"`
	CurrencyContractHash string `json:"currency_contract_hash" yaml:"currency_contract_hash" env:"LEDGER_CURRENCY_CONTRACT_HASH"`
	TreasuryWIF          string `json:"treasury_wif" yaml:"treasury_wif" env:"LEDGER_TREASURY_WIF"`
}

// DatabaseConfig controls the character store / chunk-diff store (C15).
type DatabaseConfig struct {
	DSN string `json:"dsn" yaml:"dsn" env:"DATABASE_DSN"`
}

// RedisConfig controls the wallet→zoneId routing cache (C16).
type RedisConfig struct {
	Addr string `json:"addr" yaml:"addr" env:"REDIS_ADDR"`
}

// LoggingConfig controls pkg/logger's process-level logrus instance.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" env:"LOG_LEVEL"`
	Format string `json:"format" yaml:"format" env:"LOG_FORMAT"`
	Output string `json:"output" yaml:"output" env:"LOG_OUTPUT"`
}

// MetricsConfig controls the Prometheus collector registry's bind address
// for the edge layer to scrape (the core only registers collectors).
type MetricsConfig struct {
	Addr string `json:"addr" yaml:"addr" env:"METRICS_ADDR"`
}

// MaintenanceConfig controls the World Manager's cron-driven sweeps (S2),
// distinct from each zone's own 500ms tick.
type MaintenanceConfig struct {
	AutosaveCron     string `json:"autosave_cron" yaml:"autosave_cron" env:"MAINTENANCE_AUTOSAVE_CRON"`
	DungeonSweepCron string `json:"dungeon_sweep_cron" yaml:"dungeon_sweep_cron" env:"MAINTENANCE_DUNGEON_SWEEP_CRON"`
}

// WorldZoneConfig boots one persistent (non-dungeon) zone: a town, field, or
// other always-on region the World Manager registers at startup.
type WorldZoneConfig struct {
	ID   string  `json:"id" yaml:"id"`
	MinX float64 `json:"min_x" yaml:"min_x"`
	MinY float64 `json:"min_y" yaml:"min_y"`
	MaxX float64 `json:"max_x" yaml:"max_x"`
	MaxY float64 `json:"max_y" yaml:"max_y"`
}

// CatalogConfig names the JSON files backing the read-only game-data
// registries loaded at boot (spec.md §5).
type CatalogConfig struct {
	ItemsPath      string `json:"items_path" yaml:"items_path" env:"CATALOG_ITEMS_PATH"`
	RecipesPath    string `json:"recipes_path" yaml:"recipes_path" env:"CATALOG_RECIPES_PATH"`
	LootPath       string `json:"loot_path" yaml:"loot_path" env:"CATALOG_LOOT_PATH"`
	QuestsPath     string `json:"quests_path" yaml:"quests_path" env:"CATALOG_QUESTS_PATH"`
	TechniquesPath string `json:"techniques_path" yaml:"techniques_path" env:"CATALOG_TECHNIQUES_PATH"`
	RanksPath      string `json:"ranks_path" yaml:"ranks_path" env:"CATALOG_RANKS_PATH"`
}

// Config is the top-level configuration structure for cmd/worldserver.
type Config struct {
	Tick       TickConfig      `json:"tick" yaml:"tick"`
	Proximity  ProximityConfig `json:"proximity" yaml:"proximity"`
	Party      PartyConfig     `json:"party" yaml:"party"`
	Ledger     LedgerConfig    `json:"ledger" yaml:"ledger"`
	Database   DatabaseConfig  `json:"database" yaml:"database"`
	Redis      RedisConfig     `json:"redis" yaml:"redis"`
	Logging    LoggingConfig   `json:"logging" yaml:"logging"`
	Metrics    MetricsConfig   `json:"metrics" yaml:"metrics"`
	Maintenance MaintenanceConfig `json:"maintenance" yaml:"maintenance"`
	Catalog    CatalogConfig     `json:"catalog" yaml:"catalog"`
	WorldZones []WorldZoneConfig `json:"world_zones" yaml:"world_zones"`
}

// TickInterval returns the configured clock period as a time.Duration.
func (c TickConfig) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// LedgerCallTimeout returns the configured per-call ledger timeout.
func (c LedgerConfig) LedgerCallTimeout() time.Duration {
	return time.Duration(c.LedgerCallTimeoutMS) * time.Millisecond
}

// DungeonMaxTime returns the configured time limit for a gate rank, falling
// back to DungeonMaxTimeMSDefault when the rank has no override.
func (c PartyConfig) DungeonMaxTime(rank string) time.Duration {
	if ms, ok := c.DungeonMaxTimeMSPerRank[rank]; ok {
		return time.Duration(ms) * time.Millisecond
	}
	return time.Duration(c.DungeonMaxTimeMSDefault) * time.Millisecond
}

// New returns a configuration populated with spec.md §6's documented defaults.
func New() *Config {
	return &Config{
		Tick: TickConfig{
			TickIntervalMS:         500,
			MobRespawnTicksDefault: 60,
			MaxLevel:               60,
			XPGrowthRate:           0.02,
		},
		Proximity: ProximityConfig{
			GateProximity:   50,
			NPCProximity:    50,
			PortalProximity: 30,
			AltarProximity:  100,
		},
		Party: PartyConfig{
			PartyMaxSize:            5,
			DungeonMaxTimeMSPerRank: map[string]int{},
			DungeonMaxTimeMSDefault: 10 * 60 * 1000,
		},
		Ledger: LedgerConfig{
			NeoNetworkID:        894710606, // TestNet
			LedgerCallTimeoutMS: 5000,
		},
		Database: DatabaseConfig{},
		Redis:    RedisConfig{Addr: "127.0.0.1:6379"},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Metrics: MetricsConfig{Addr: ":9090"},
		Maintenance: MaintenanceConfig{
			AutosaveCron:     "*/5 * * * *",
			DungeonSweepCron: "*/1 * * * *",
		},
		Catalog: CatalogConfig{},
		WorldZones: []WorldZoneConfig{
			{ID: "town", MinX: -1000, MinY: -1000, MaxX: 1000, MaxY: 1000},
		},
	}
}

// Load loads configuration from a YAML file (if present) and environment
// variables, in that order: dotenv → YAML file → env overrides → normalize.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, err
		}
	} else {
		_ = loadFromFile("configs/config.yaml", cfg)
	}

	if err := envdecode.Decode(cfg); err != nil {
		// envdecode errors when no tagged field was present in the
		// environment; treat that as "no overrides" so local runs work
		// without exporting every variable.
		if !strings.Contains(err.Error(), "none of the target fields were set") {
			return nil, fmt.Errorf("decode env: %w", err)
		}
	}

	cfg.normalize()

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	expanded, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func (c *Config) normalize() {
	if c == nil {
		return
	}
	if c.Tick.TickIntervalMS <= 0 {
		c.Tick.TickIntervalMS = 500
	}
	if c.Tick.MaxLevel <= 0 {
		c.Tick.MaxLevel = 60
	}
	if c.Party.PartyMaxSize <= 0 {
		c.Party.PartyMaxSize = 5
	}
	if c.Party.DungeonMaxTimeMSPerRank == nil {
		c.Party.DungeonMaxTimeMSPerRank = map[string]int{}
	}
	if c.Ledger.LedgerCallTimeoutMS <= 0 {
		c.Ledger.LedgerCallTimeoutMS = 5000
	}
	if c.Maintenance.AutosaveCron == "" {
		c.Maintenance.AutosaveCron = "*/5 * * * *"
	}
	if c.Maintenance.DungeonSweepCron == "" {
		c.Maintenance.DungeonSweepCron = "*/1 * * * *"
	}
}
