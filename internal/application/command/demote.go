package command

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/guild-hub/guild-rank-hub/internal/domain/leaderboard"
	"github.com/guild-hub/guild-rank-hub/internal/domain/member"
	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
	"github.com/guild-hub/guild-rank-hub/pkg/keymutex"
)

// ══════════════════════════════════════════════════════════════════════════════
// DEMOTE MEMBER COMMAND
// Moves a member one tier down the community hierarchy. Demotion needs a
// valid anchor: an unranked member cannot be demoted, and a dangling rank
// gives no safe "previous" tier to land on.
// ══════════════════════════════════════════════════════════════════════════════

// DemoteMemberCommand contains the data needed to demote a member.
type DemoteMemberCommand struct {
	// CommunityID is the community whose hierarchy applies.
	CommunityID string

	// MemberID is the platform ID of the member to demote.
	MemberID string

	// DisplayName optionally refreshes the record's display name.
	DisplayName string

	// CorrelationID for tracing across services.
	CorrelationID string
}

// Validate validates the command.
func (c DemoteMemberCommand) Validate() error {
	if c.CommunityID == "" {
		return errors.New("demote_member: community_id is required")
	}
	if c.MemberID == "" {
		return errors.New("demote_member: member_id is required")
	}
	return nil
}

// DemoteMemberResult contains the result of a demotion.
// Role reconciliation semantics match PromoteMemberResult.
type DemoteMemberResult struct {
	// CommunityID is the community the demotion happened in.
	CommunityID string

	// MemberID is the demoted member.
	MemberID string

	// OldRank is the rank name before demotion.
	OldRank string

	// NewRank is the rank name after demotion.
	NewRank string

	// OldRoleID is the external grouping handle of the previous rank.
	OldRoleID string

	// NewRoleID is the external grouping handle of the new rank.
	NewRoleID string

	// FromTier is the tier before demotion.
	FromTier int

	// ToTier is the tier after demotion.
	ToTier int

	// DemotionCount is the member's total demotion count after this one.
	DemotionCount int

	// DemotedAt is when the demotion was committed.
	DemotedAt time.Time
}

// DemoteMemberHandler handles member demotions.
type DemoteMemberHandler struct {
	ranks   rank.Repository
	members member.Repository
	locks   *keymutex.KeyMutex
	cache   leaderboard.Cache
	events  EventPublisher
}

// NewDemoteMemberHandler creates a new DemoteMemberHandler.
// cache and events may be nil.
func NewDemoteMemberHandler(
	ranks rank.Repository,
	members member.Repository,
	locks *keymutex.KeyMutex,
	cache leaderboard.Cache,
	events EventPublisher,
) *DemoteMemberHandler {
	return &DemoteMemberHandler{
		ranks:   ranks,
		members: members,
		locks:   locks,
		cache:   cache,
		events:  events,
	}
}

// Handle executes the demotion.
func (h *DemoteMemberHandler) Handle(ctx context.Context, cmd DemoteMemberCommand) (*DemoteMemberResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "DemoteMember", shared.ErrValidation, err.Error(), err)
	}

	communityID := shared.CommunityID(cmd.CommunityID)
	memberID := shared.MemberID(cmd.MemberID)

	unlock := h.locks.Lock(cmd.CommunityID)
	defer unlock()

	hierarchy, err := h.ranks.GetRanks(ctx, communityID)
	if err != nil {
		return nil, wrap("DemoteMember", err)
	}

	m, err := h.members.Get(ctx, communityID, memberID)
	if errors.Is(err, member.ErrMemberNotFound) {
		// No record means nothing to demote from; the record is not created.
		return nil, wrap("DemoteMember", member.ErrNoRankToDemoteFrom)
	}
	if err != nil {
		return nil, wrap("DemoteMember", err)
	}

	m.Rename(cmd.DisplayName)

	transition, err := m.Demote(hierarchy)
	if err != nil {
		return nil, wrap("DemoteMember", err)
	}

	if err := h.members.Save(ctx, m); err != nil {
		return nil, wrap("DemoteMember", err)
	}

	invalidateCache(ctx, h.cache, communityID)

	event := member.NewTransitionEvent(uuid.NewString(), m, transition)
	event.CorrelationID = cmd.CorrelationID
	publish(ctx, h.events, event)

	return &DemoteMemberResult{
		CommunityID:   cmd.CommunityID,
		MemberID:      cmd.MemberID,
		OldRank:       transition.From.Name.String(),
		NewRank:       transition.To.Name.String(),
		OldRoleID:     transition.OldRoleID().String(),
		NewRoleID:     transition.NewRoleID().String(),
		FromTier:      int(transition.FromTier),
		ToTier:        int(transition.ToTier),
		DemotionCount: m.DemotionCount,
		DemotedAt:     m.LastUpdated,
	}, nil
}
