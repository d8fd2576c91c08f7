// Package party implements the Party Manager (C12): party create/invite/
// join/leave, and the agent->party reverse index that enforces invariant P1
// (spec.md §4.7 — "an agent appears in at most one party").
package party

import (
	"context"
	"sync"

	core "github.com/nexusrealms/worldcore/internal/app/core/service"
	"github.com/nexusrealms/worldcore/internal/app/domain/party"
	"github.com/nexusrealms/worldcore/internal/app/system"
	"github.com/nexusrealms/worldcore/internal/apperrors"
	"github.com/nexusrealms/worldcore/internal/config"
)

var _ system.Service = (*Manager)(nil)

// Manager owns every live party and the agent->party reverse index that
// enforces P1. All operations are short and held behind a single mutex
// (spec.md §4.11 "Party map, dungeon instance map, world zone map: each
// owned by its manager behind a single mutex; operations are short").
type Manager struct {
	cfg *config.Config

	mu       sync.Mutex
	parties  map[string]*party.Party
	byAgent  map[string]string // agentID -> partyID
	invites  map[string]map[string]struct{} // partyID -> invited agentIDs
	nextID   func() string
}

// NewManager constructs a Manager. idGen supplies fresh party ids (normally
// google/uuid.NewString, injected so tests can use deterministic ids).
func NewManager(cfg *config.Config, idGen func() string) *Manager {
	return &Manager{
		cfg:     cfg,
		parties: make(map[string]*party.Party),
		byAgent: make(map[string]string),
		invites: make(map[string]map[string]struct{}),
		nextID:  idGen,
	}
}

// Name identifies this Manager as a system.Service.
func (m *Manager) Name() string { return "party-manager" }

// Start is a no-op; the manager holds no background goroutine.
func (m *Manager) Start(ctx context.Context) error { return nil }

// Stop is a no-op; the manager holds no background goroutine.
func (m *Manager) Stop(ctx context.Context) error { return nil }

// Descriptor advertises this service's placement for orchestration tooling.
func (m *Manager) Descriptor() core.Descriptor {
	return core.Descriptor{Name: m.Name(), Domain: "party", Layer: core.LayerEngine}
}

// PartyMembersInZone returns every member of agentID's current party,
// including agentID itself. zoneID is accepted to satisfy
// zoneruntime.PartyXPProvider; the caller is responsible for filtering to
// members actually present in that zone (the manager does not track zone
// placement).
func (m *Manager) PartyMembersInZone(agentID, zoneID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.partyOf(agentID)
	if !ok {
		return nil
	}
	out := make([]string, len(p.MemberIDs))
	copy(out, p.MemberIDs)
	return out
}

func (m *Manager) partyOf(agentID string) (*party.Party, bool) {
	pid, ok := m.byAgent[agentID]
	if !ok {
		return nil, false
	}
	p, ok := m.parties[pid]
	return p, ok
}

// Create forms a new party of size 1 led by agentID. ConflictError if the
// agent is already in a party (spec.md §4.7: "create: a player with no party
// becomes the leader of a new party of size 1").
func (m *Manager) Create(agentID string) (*party.Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byAgent[agentID]; ok {
		return nil, apperrors.ConflictError("agent is already in a party").WithDetails("agentId", agentID)
	}

	p := party.New(m.nextID(), agentID)
	m.parties[p.ID] = p
	m.byAgent[agentID] = p.ID
	return p, nil
}

// Invite records an open invite from a current member of the party to
// targetAgentID. ValidationError if inviterID is not in a party;
// ConflictError if targetAgentID is already in a party.
func (m *Manager) Invite(inviterID, targetAgentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.partyOf(inviterID)
	if !ok {
		return apperrors.ValidationError("inviter is not in a party").WithDetails("agentId", inviterID)
	}
	if _, ok := m.byAgent[targetAgentID]; ok {
		return apperrors.ConflictError("target agent is already in a party").WithDetails("agentId", targetAgentID)
	}

	invited, ok := m.invites[p.ID]
	if !ok {
		invited = make(map[string]struct{})
		m.invites[p.ID] = invited
	}
	invited[targetAgentID] = struct{}{}
	return nil
}

// Join admits agentID into the party identified by partyID, provided it was
// previously invited by a current member (spec.md §4.7: "Join: only by
// accepting an invite from a party member while in the same zone" — the
// same-zone check is the dispatcher's responsibility since this manager
// does not track zone placement).
func (m *Manager) Join(partyID, agentID string) (*party.Party, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.parties[partyID]
	if !ok {
		return nil, apperrors.ValidationError("no such party").WithDetails("partyId", partyID)
	}
	invited := m.invites[partyID]
	if invited == nil {
		return nil, apperrors.AuthorizationError("agent was not invited to this party").WithDetails("agentId", agentID)
	}
	if _, ok := invited[agentID]; !ok {
		return nil, apperrors.AuthorizationError("agent was not invited to this party").WithDetails("agentId", agentID)
	}
	if _, ok := m.byAgent[agentID]; ok {
		return nil, apperrors.ConflictError("agent is already in a party").WithDetails("agentId", agentID)
	}

	if err := p.AddMember(agentID, m.cfg.Party.PartyMaxSize); err != nil {
		return nil, err
	}
	delete(invited, agentID)
	m.byAgent[agentID] = p.ID
	return p, nil
}

// Leave removes agentID from its party (O(1) by join order). Leader
// departure promotes the next member by join order; an emptied party is
// dissolved and its invite set discarded.
func (m *Manager) Leave(agentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.partyOf(agentID)
	if !ok {
		return apperrors.ValidationError("agent is not in a party").WithDetails("agentId", agentID)
	}

	_, dissolved, err := p.RemoveMember(agentID)
	if err != nil {
		return err
	}
	delete(m.byAgent, agentID)

	if dissolved {
		delete(m.parties, p.ID)
		delete(m.invites, p.ID)
	}
	return nil
}

// Kick removes targetAgentID from the party, provided requesterID is the
// current leader (spec.md §4.7 "leave/kick"). Leader departure semantics
// match Leave.
func (m *Manager) Kick(requesterID, targetAgentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.partyOf(requesterID)
	if !ok {
		return apperrors.ValidationError("requester is not in a party").WithDetails("agentId", requesterID)
	}
	if p.LeaderID != requesterID {
		return apperrors.AuthorizationError("only the party leader may kick a member").WithDetails("agentId", requesterID)
	}
	if !p.Contains(targetAgentID) {
		return apperrors.ValidationError("target is not a member of this party").WithDetails("agentId", targetAgentID)
	}

	_, dissolved, err := p.RemoveMember(targetAgentID)
	if err != nil {
		return err
	}
	delete(m.byAgent, targetAgentID)

	if dissolved {
		delete(m.parties, p.ID)
		delete(m.invites, p.ID)
	}
	return nil
}

// Get returns the party agentID belongs to, if any.
func (m *Manager) Get(agentID string) (*party.Party, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.partyOf(agentID)
}

// GetByID returns the party identified by partyID, if it exists.
func (m *Manager) GetByID(partyID string) (*party.Party, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.parties[partyID]
	return p, ok
}
