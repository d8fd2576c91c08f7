// Package party defines the Party value type (C12): coordination-only
// grouping with no shared vitals. Invariant P1 (an agent appears in at most
// one party) is enforced by the owning manager's reverse index, not by this
// type itself — Party only implements the member-list mechanics.
package party

import "github.com/nexusrealms/worldcore/internal/apperrors"

// Party is a membership-only grouping of agents; join order is preserved in
// MemberIDs so leader-departure promotion picks the next member deterministically.
type Party struct {
	ID        string
	LeaderID  string
	MemberIDs []string
}

// New creates a party of size 1 led by leaderID.
func New(id, leaderID string) *Party {
	return &Party{ID: id, LeaderID: leaderID, MemberIDs: []string{leaderID}}
}

// Contains reports whether agentID is a member of this party.
func (p *Party) Contains(agentID string) bool {
	for _, m := range p.MemberIDs {
		if m == agentID {
			return true
		}
	}
	return false
}

// Size returns the current member count.
func (p *Party) Size() int {
	return len(p.MemberIDs)
}

// AddMember appends agentID to the party, enforcing maxSize.
func (p *Party) AddMember(agentID string, maxSize int) error {
	if p.Contains(agentID) {
		return apperrors.ConflictError("agent already in this party").WithDetails("agentId", agentID)
	}
	if p.Size() >= maxSize {
		return apperrors.PreconditionError("party is full").
			WithDetails("partyId", p.ID).WithDetails("maxSize", maxSize)
	}
	p.MemberIDs = append(p.MemberIDs, agentID)
	return nil
}

// RemoveMember removes agentID by join order. If the departing member was
// the leader, the next member by join order is promoted; dissolved reports
// whether the party is now empty.
func (p *Party) RemoveMember(agentID string) (promotedLeader string, dissolved bool, err error) {
	idx := -1
	for i, m := range p.MemberIDs {
		if m == agentID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return "", false, apperrors.ValidationError("agent is not a member of this party").
			WithDetails("agentId", agentID).WithDetails("partyId", p.ID)
	}

	p.MemberIDs = append(p.MemberIDs[:idx], p.MemberIDs[idx+1:]...)

	if len(p.MemberIDs) == 0 {
		p.LeaderID = ""
		return "", true, nil
	}

	if p.LeaderID == agentID {
		p.LeaderID = p.MemberIDs[0]
		return p.LeaderID, false, nil
	}

	return "", false, nil
}
