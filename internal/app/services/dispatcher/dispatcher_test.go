package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domaindungeon "github.com/nexusrealms/worldcore/internal/app/domain/dungeon"
	"github.com/nexusrealms/worldcore/internal/app/domain/entity"
	domainparty "github.com/nexusrealms/worldcore/internal/app/domain/party"
	"github.com/nexusrealms/worldcore/internal/app/domain/terrain"
	"github.com/nexusrealms/worldcore/internal/app/domain/zone"
	"github.com/nexusrealms/worldcore/internal/app/services/ledgeradapter/memoryledger"
	"github.com/nexusrealms/worldcore/internal/app/services/zoneruntime"
	"github.com/nexusrealms/worldcore/internal/apperrors"
	"github.com/nexusrealms/worldcore/internal/config"
	"github.com/nexusrealms/worldcore/internal/zonelog"
)

type fakeZones struct {
	runtimes map[string]*zoneruntime.Runtime
}

func (f *fakeZones) Runtime(zoneID string) (*zoneruntime.Runtime, bool) {
	rt, ok := f.runtimes[zoneID]
	return rt, ok
}

type fakeWallets struct {
	zones map[string]string
}

func (f *fakeWallets) WalletZone(ctx context.Context, wallet string) (string, bool) {
	z, ok := f.zones[wallet]
	return z, ok
}

type fakeParty struct {
	createCalled bool
	invited      [2]string
}

func (f *fakeParty) Create(agentID string) (*domainparty.Party, error) {
	f.createCalled = true
	return domainparty.New("party1", agentID), nil
}
func (f *fakeParty) Invite(inviterID, targetAgentID string) error {
	f.invited = [2]string{inviterID, targetAgentID}
	return nil
}
func (f *fakeParty) Join(partyID, agentID string) (*domainparty.Party, error) {
	return domainparty.New(partyID, agentID), nil
}
func (f *fakeParty) Leave(agentID string) error                   { return nil }
func (f *fakeParty) Kick(requesterID, targetAgentID string) error { return nil }

type fakeDungeon struct{}

func (f *fakeDungeon) OpenGate(ctx context.Context, requesterID, sourceZoneID, gateEntityID string) (*domaindungeon.Instance, error) {
	return &domaindungeon.Instance{DungeonZoneID: "dungeon-1", InstanceID: "inst-1"}, nil
}

type fakeTransition struct{}

func (f *fakeTransition) TransitionPortal(sourceZoneID, entityID, portalID string) error { return nil }

func newTestRuntime(t *testing.T) *zoneruntime.Runtime {
	t.Helper()
	cfg := config.New()
	cfg.Tick.TickIntervalMS = 10
	grid := terrain.NewGrid("town", terrain.FlatWalkableGenerator)
	z := zone.New("town", zone.Bounds{MinX: -1000, MinY: -1000, MaxX: 1000, MaxY: 1000}, grid)
	rt := zoneruntime.New(z, cfg, memoryledger.New(), zoneruntime.Catalogs{}, nil, zonelog.Config{Level: "error"})
	require.NoError(t, rt.Start(context.Background()))
	t.Cleanup(func() { _ = rt.Stop(context.Background()) })
	return rt
}

func newTestPlayer(id, wallet string) *entity.Entity {
	e := entity.New(id, entity.TypePlayer, "town", 10, 10)
	e.Vitals = &entity.Vitals{HP: 100, MaxHP: 100, Alive: true}
	e.Combat = &entity.CombatState{AttackCooldownTicks: 2, WeaponCoef: 1.0, DefCoef: 1.0}
	e.Player = &entity.PlayerData{WalletAddress: wallet, Level: 1, Equipment: map[entity.EquipSlot]*entity.EquippedItem{}}
	return e
}

func TestDispatchZoneActionRoutesThroughRuntimeQueue(t *testing.T) {
	rt := newTestRuntime(t)
	require.NoError(t, rt.Zone.Insert(newTestPlayer("p1", "wallet1")))

	d := New(config.New(), &fakeZones{runtimes: map[string]*zoneruntime.Runtime{"town": rt}}, nil, nil, nil, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	res, err := d.Dispatch(ctx, Request{Verb: VerbMove, WalletAddress: "wallet1", EntityID: "p1", ZoneID: "town", X: 20, Y: 20})
	require.NoError(t, err)
	require.NotNil(t, res)
}

func TestDispatchResolvesZoneFromWalletRouterWhenZoneIDBlank(t *testing.T) {
	rt := newTestRuntime(t)
	require.NoError(t, rt.Zone.Insert(newTestPlayer("p1", "wallet1")))

	wallets := &fakeWallets{zones: map[string]string{"wallet1": "town"}}
	d := New(config.New(), &fakeZones{runtimes: map[string]*zoneruntime.Runtime{"town": rt}}, wallets, nil, nil, nil, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := d.Dispatch(ctx, Request{Verb: VerbMove, WalletAddress: "wallet1", EntityID: "p1", X: 5, Y: 5})
	require.NoError(t, err)
}

func TestDispatchRejectsMissingZoneResolution(t *testing.T) {
	d := New(config.New(), &fakeZones{runtimes: map[string]*zoneruntime.Runtime{}}, &fakeWallets{zones: map[string]string{}}, nil, nil, nil, nil)

	_, err := d.Dispatch(context.Background(), Request{Verb: VerbMove, WalletAddress: "wallet1", EntityID: "p1"})
	ge, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.Validation, ge.Kind)
}

func TestDispatchRoutesPartyCreate(t *testing.T) {
	fp := &fakeParty{}
	d := New(config.New(), &fakeZones{}, nil, fp, nil, nil, nil)

	res, err := d.Dispatch(context.Background(), Request{Verb: VerbPartyCreate, WalletAddress: "wallet1", EntityID: "leader"})
	require.NoError(t, err)
	assert.True(t, fp.createCalled)
	assert.Equal(t, "party1", res.Data["partyId"])
}

func TestDispatchRoutesDungeonOpenGate(t *testing.T) {
	wallets := &fakeWallets{zones: map[string]string{"wallet1": "town"}}
	d := New(config.New(), &fakeZones{}, wallets, nil, &fakeDungeon{}, nil, nil)

	res, err := d.Dispatch(context.Background(), Request{Verb: VerbDungeonOpen, WalletAddress: "wallet1", EntityID: "p1", GateEntityID: "gate1"})
	require.NoError(t, err)
	assert.Equal(t, "dungeon-1", res.Data["dungeonZoneId"])
}

func TestDispatchRoutesTransitionPortal(t *testing.T) {
	wallets := &fakeWallets{zones: map[string]string{"wallet1": "town"}}
	d := New(config.New(), &fakeZones{}, wallets, nil, nil, &fakeTransition{}, nil)

	_, err := d.Dispatch(context.Background(), Request{Verb: VerbTransitionPort, WalletAddress: "wallet1", EntityID: "p1", PortalID: "portal1"})
	require.NoError(t, err)
}

func TestDispatchRejectsUnknownVerb(t *testing.T) {
	d := New(config.New(), &fakeZones{}, nil, nil, nil, nil, nil)
	_, err := d.Dispatch(context.Background(), Request{Verb: "bogus", WalletAddress: "wallet1"})
	ge, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.Validation, ge.Kind)
}

func TestDispatchRateLimitsPerWallet(t *testing.T) {
	d := New(config.New(), &fakeZones{}, &fakeWallets{zones: map[string]string{}}, nil, nil, nil, nil)
	d.limiters = newLimiterSet(walletRateConfig{RequestsPerSecond: 1, Burst: 1})

	_, err1 := d.Dispatch(context.Background(), Request{Verb: VerbMove, WalletAddress: "wallet1", EntityID: "p1", ZoneID: "town"})
	_, err2 := d.Dispatch(context.Background(), Request{Verb: VerbMove, WalletAddress: "wallet1", EntityID: "p1", ZoneID: "town"})

	// err1 fails for lack of a registered zone, not the rate limit; err2 must
	// fail specifically with the rate limit precondition.
	require.Error(t, err1)
	ge, ok := apperrors.As(err2)
	require.True(t, ok)
	assert.Equal(t, apperrors.Precondition, ge.Kind)
}
