// Command worldserver boots the zone-tick-loop core: it loads
// configuration and catalogs, wires the Asset Ledger Adapter, Persistence
// Layer, World Manager, Party/Dungeon/Transition Managers, and Action
// Dispatcher, registers every configured world zone, and runs until an
// interrupt or termination signal triggers a graceful shutdown. Serving
// client connections is an edge-layer concern outside this process.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	domainzone "github.com/nexusrealms/worldcore/internal/app/domain/zone"
	"github.com/nexusrealms/worldcore/internal/app/domain/terrain"
	"github.com/nexusrealms/worldcore/internal/app/domain/ledger"
	"github.com/nexusrealms/worldcore/internal/app/services/catalog"
	"github.com/nexusrealms/worldcore/internal/app/services/dispatcher"
	"github.com/nexusrealms/worldcore/internal/app/services/dungeon"
	"github.com/nexusrealms/worldcore/internal/app/services/ledgeradapter/memoryledger"
	"github.com/nexusrealms/worldcore/internal/app/services/ledgeradapter/neoledger"
	"github.com/nexusrealms/worldcore/internal/app/services/party"
	"github.com/nexusrealms/worldcore/internal/app/services/persistence"
	"github.com/nexusrealms/worldcore/internal/app/services/transition"
	"github.com/nexusrealms/worldcore/internal/app/services/worldmanager"
	"github.com/nexusrealms/worldcore/internal/app/services/zoneruntime"
	"github.com/nexusrealms/worldcore/internal/app/system"
	"github.com/nexusrealms/worldcore/internal/config"
	"github.com/nexusrealms/worldcore/internal/zonelog"
	"github.com/nexusrealms/worldcore/infrastructure/chain"
	"github.com/nexusrealms/worldcore/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file (overrides CONFIG_FILE)")
	flag.Parse()

	if trimmed := strings.TrimSpace(*configPath); trimmed != "" {
		os.Setenv("CONFIG_FILE", trimmed)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging)
	log.Info("worldcore booting")

	bundle, err := catalog.Load(catalog.Paths{
		Items:      cfg.Catalog.ItemsPath,
		Recipes:    cfg.Catalog.RecipesPath,
		Loot:       cfg.Catalog.LootPath,
		Quests:     cfg.Catalog.QuestsPath,
		Techniques: cfg.Catalog.TechniquesPath,
		Ranks:      cfg.Catalog.RanksPath,
	})
	if err != nil {
		log.WithError(err).Fatal("load catalogs")
	}

	ledgerAdapter, err := buildLedgerAdapter(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("build ledger adapter")
	}

	store, db := buildPersistenceStore(cfg, log)
	if db != nil {
		defer db.Close()
	}

	metrics := worldmanager.NewMetrics()
	routing := worldmanager.NewRoutingCache(cfg.Redis.Addr)
	if err := routing.Ping(context.Background()); err != nil {
		log.WithError(err).Warn("routing cache unreachable at boot; wallet routing will miss until it recovers")
	}

	world := worldmanager.NewManager(cfg, metrics, routing)
	partyMgr := party.NewManager(cfg, uuid.NewString)
	dungeonMgr := dungeon.NewManager(cfg, ledgerAdapter, bundle.Ranks, world, partyMgr, bundle.Catalogs, zonelog.Config{Level: cfg.Logging.Level})
	transitionMgr := transition.NewManager(cfg, world)

	if store != nil {
		world.WithAutosave(func(ctx context.Context) error { return autosaveSweep(ctx, world, store) })
	}
	world.WithDungeonSweep(func(ctx context.Context) error {
		log.WithField("zones", len(world.Zones())).Debug("dungeon sweep tick")
		return nil
	})

	dispatch := dispatcher.New(cfg, world, routing, partyMgr, dungeonMgr, transitionMgr, metrics)
	_ = dispatch // held by the edge layer that accepts client connections, out of scope here

	for _, wz := range cfg.WorldZones {
		grid := terrain.NewGrid(wz.ID, terrain.FlatWalkableGenerator)
		if store != nil {
			if diffs, err := store.LoadChunkDiffs(context.Background(), wz.ID); err != nil {
				log.WithError(err).WithField("zoneId", wz.ID).Warn("load chunk diffs failed; starting from a flat grid")
			} else {
				grid.LoadDiffs(diffs)
			}
		}
		bounds := domainzone.Bounds{MinX: wz.MinX, MinY: wz.MinY, MaxX: wz.MaxX, MaxY: wz.MaxY}
		z := domainzone.New(wz.ID, bounds, grid)
		rt := zoneruntime.New(z, cfg, ledgerAdapter, bundle.Catalogs, partyMgr, zonelog.Config{Level: cfg.Logging.Level})
		if err := world.RegisterRuntime(context.Background(), rt); err != nil {
			log.WithError(err).WithField("zoneId", wz.ID).Fatal("register world zone")
		}
		log.WithField("zoneId", wz.ID).Info("world zone online")
	}

	mgr := system.NewManager()
	for _, svc := range []system.Service{world, partyMgr, dungeonMgr, transitionMgr} {
		if err := mgr.Register(svc); err != nil {
			log.WithError(err).Fatal("register service")
		}
	}

	rootCtx := context.Background()
	if err := mgr.Start(rootCtx); err != nil {
		log.WithError(err).Fatal("start services")
	}
	log.Info("worldcore running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := mgr.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
	if err := routing.Close(); err != nil {
		log.WithError(err).Warn("close routing cache")
	}
	log.Info("worldcore stopped")
}

func buildLedgerAdapter(cfg *config.Config, log *logger.Logger) (ledger.Adapter, error) {
	if strings.TrimSpace(cfg.Ledger.NeoRPCURL) == "" {
		log.Warn("NEO_RPC_URL not set; using the in-memory ledger adapter")
		return memoryledger.New(), nil
	}

	client, err := chain.NewClient(chain.Config{
		RPCURL:    cfg.Ledger.NeoRPCURL,
		NetworkID: cfg.Ledger.NeoNetworkID,
		Timeout:   cfg.Ledger.LedgerCallTimeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("connect neo rpc: %w", err)
	}
	return neoledger.New(client, neoledger.Config{
		ItemContractHash:     cfg.Ledger.ItemContractHash,
		CurrencyContractHash: cfg.Ledger.CurrencyContractHash,
		TreasuryWIF:          cfg.Ledger.TreasuryWIF,
	})
}

func buildPersistenceStore(cfg *config.Config, log *logger.Logger) (*persistence.Store, *sqlx.DB) {
	dsn := strings.TrimSpace(cfg.Database.DSN)
	if dsn == "" {
		log.Warn("DATABASE_DSN not set; character and chunk-diff persistence disabled")
		return nil, nil
	}
	db, err := persistence.Open(context.Background(), dsn)
	if err != nil {
		log.WithError(err).Fatal("connect to postgres")
	}
	return persistence.New(db), db
}

// autosaveSweep flushes every registered zone's modified terrain chunks.
// Live character autosave is driven per-session by the (out-of-scope) edge
// layer on logout; this sweep's job is the terrain side, which has no
// natural per-action trigger.
func autosaveSweep(ctx context.Context, world *worldmanager.Manager, store *persistence.Store) error {
	for _, zoneID := range world.Zones() {
		rt, ok := world.Runtime(zoneID)
		if !ok {
			continue
		}
		diffs := rt.Zone.Terrain.ModifiedChunks()
		if len(diffs) == 0 {
			continue
		}
		if err := store.SaveChunkDiffs(ctx, zoneID, diffs); err != nil {
			return fmt.Errorf("save chunk diffs for zone %s: %w", zoneID, err)
		}
	}
	return nil
}
