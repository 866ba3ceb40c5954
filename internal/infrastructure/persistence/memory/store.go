// Package memory implements in-memory persistence for Guild Rank Hub.
// It backs tests and single-process development runs, and doubles as the
// reference implementation of the repository contracts: every behavior
// asserted against this store must hold for the durable backends too.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/guild-hub/guild-rank-hub/internal/domain/member"
	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HIERARCHY REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// HierarchyRepository implements rank.Repository in memory.
type HierarchyRepository struct {
	mu          sync.RWMutex
	hierarchies map[shared.CommunityID]*rank.Hierarchy
}

// NewHierarchyRepository creates an empty in-memory hierarchy repository.
func NewHierarchyRepository() *HierarchyRepository {
	return &HierarchyRepository{
		hierarchies: make(map[shared.CommunityID]*rank.Hierarchy),
	}
}

// GetRanks returns the community's hierarchy, or an empty one on first use.
func (r *HierarchyRepository) GetRanks(ctx context.Context, communityID shared.CommunityID) (*rank.Hierarchy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if h, ok := r.hierarchies[communityID]; ok {
		return h.Clone(), nil
	}
	return rank.NewHierarchy(communityID)
}

// SaveRanks stores the hierarchy wholesale.
func (r *HierarchyRepository) SaveRanks(ctx context.Context, hierarchy *rank.Hierarchy) error {
	if hierarchy == nil || !hierarchy.CommunityID.IsValid() {
		return rank.ErrInvalidCommunityID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.hierarchies[hierarchy.CommunityID] = hierarchy.Clone()
	return nil
}

// ListCommunities returns all communities with a stored hierarchy.
func (r *HierarchyRepository) ListCommunities(ctx context.Context) ([]shared.CommunityID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]shared.CommunityID, 0, len(r.hierarchies))
	for id := range r.hierarchies {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

type memberKey struct {
	community shared.CommunityID
	member    shared.MemberID
}

// MemberRepository implements member.Repository in memory.
// Records are kept in creation order per community so that leaderboard
// tie-breaking stays stable.
type MemberRepository struct {
	mu      sync.RWMutex
	records map[memberKey]*member.Member
	order   map[shared.CommunityID][]shared.MemberID
}

// NewMemberRepository creates an empty in-memory member repository.
func NewMemberRepository() *MemberRepository {
	return &MemberRepository{
		records: make(map[memberKey]*member.Member),
		order:   make(map[shared.CommunityID][]shared.MemberID),
	}
}

// Get returns a member record or member.ErrMemberNotFound.
func (r *MemberRepository) Get(ctx context.Context, communityID shared.CommunityID, memberID shared.MemberID) (*member.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.records[memberKey{communityID, memberID}]
	if !ok {
		return nil, member.ErrMemberNotFound
	}
	return m.Clone(), nil
}

// Save upserts a member record together with its history.
func (r *MemberRepository) Save(ctx context.Context, m *member.Member) error {
	if m == nil || !m.CommunityID.IsValid() {
		return rank.ErrInvalidCommunityID
	}
	if !m.MemberID.IsValid() {
		return member.ErrInvalidMemberID
	}

	key := memberKey{m.CommunityID, m.MemberID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.records[key]; !exists {
		r.order[m.CommunityID] = append(r.order[m.CommunityID], m.MemberID)
	}
	r.records[key] = m.Clone()
	return nil
}

// Delete removes a member record entirely.
func (r *MemberRepository) Delete(ctx context.Context, communityID shared.CommunityID, memberID shared.MemberID) error {
	key := memberKey{communityID, memberID}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[key]; !ok {
		return member.ErrMemberNotFound
	}
	delete(r.records, key)

	ids := r.order[communityID]
	for i, id := range ids {
		if id == memberID {
			r.order[communityID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

// ListByCommunity returns the community's records in creation order.
func (r *MemberRepository) ListByCommunity(ctx context.Context, communityID shared.CommunityID) ([]*member.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.order[communityID]
	members := make([]*member.Member, 0, len(ids))
	for _, id := range ids {
		if m, ok := r.records[memberKey{communityID, id}]; ok {
			members = append(members, m.Clone())
		}
	}
	return members, nil
}

// CountByCommunity returns the number of records in the community.
func (r *MemberRepository) CountByCommunity(ctx context.Context, communityID shared.CommunityID) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.order[communityID]), nil
}

// Compile-time interface checks.
var (
	_ rank.Repository   = (*HierarchyRepository)(nil)
	_ member.Repository = (*MemberRepository)(nil)
)
