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
// SET MEMBER RANK COMMAND
// Moves a member directly to a named rank. Counters are untouched; the
// transition is logged to history with kind "set".
// ══════════════════════════════════════════════════════════════════════════════

// SetMemberRankCommand contains the data needed to set a member's rank.
type SetMemberRankCommand struct {
	// CommunityID is the community whose hierarchy applies.
	CommunityID string

	// MemberID is the platform ID of the member.
	MemberID string

	// DisplayName is the member's current display name.
	DisplayName string

	// RankName is the target rank, matched case-insensitively.
	RankName string

	// CorrelationID for tracing across services.
	CorrelationID string
}

// Validate validates the command.
func (c SetMemberRankCommand) Validate() error {
	if c.CommunityID == "" {
		return errors.New("set_member_rank: community_id is required")
	}
	if c.MemberID == "" {
		return errors.New("set_member_rank: member_id is required")
	}
	if c.DisplayName == "" {
		return errors.New("set_member_rank: display_name is required")
	}
	if c.RankName == "" {
		return errors.New("set_member_rank: rank_name is required")
	}
	return nil
}

// SetMemberRankResult contains the result of a direct rank assignment.
type SetMemberRankResult struct {
	// CommunityID is the community the assignment happened in.
	CommunityID string

	// MemberID is the member whose rank was set.
	MemberID string

	// OldRank is the rank name before the assignment (empty if none).
	OldRank string

	// NewRank is the assigned rank name (canonical casing from the hierarchy).
	NewRank string

	// OldRoleID is the external grouping handle of the previous rank.
	OldRoleID string

	// NewRoleID is the external grouping handle of the assigned rank.
	NewRoleID string

	// FromTier is the tier before the assignment (-1 if unranked/dangling).
	FromTier int

	// ToTier is the tier after the assignment.
	ToTier int

	// SetAt is when the assignment was committed.
	SetAt time.Time
}

// SetMemberRankHandler handles direct rank assignments.
type SetMemberRankHandler struct {
	ranks   rank.Repository
	members member.Repository
	locks   *keymutex.KeyMutex
	cache   leaderboard.Cache
	events  EventPublisher
}

// NewSetMemberRankHandler creates a new SetMemberRankHandler.
// cache and events may be nil.
func NewSetMemberRankHandler(
	ranks rank.Repository,
	members member.Repository,
	locks *keymutex.KeyMutex,
	cache leaderboard.Cache,
	events EventPublisher,
) *SetMemberRankHandler {
	return &SetMemberRankHandler{
		ranks:   ranks,
		members: members,
		locks:   locks,
		cache:   cache,
		events:  events,
	}
}

// Handle executes the rank assignment.
func (h *SetMemberRankHandler) Handle(ctx context.Context, cmd SetMemberRankCommand) (*SetMemberRankResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "SetMemberRank", shared.ErrValidation, err.Error(), err)
	}

	communityID := shared.CommunityID(cmd.CommunityID)
	memberID := shared.MemberID(cmd.MemberID)

	unlock := h.locks.Lock(cmd.CommunityID)
	defer unlock()

	hierarchy, err := h.ranks.GetRanks(ctx, communityID)
	if err != nil {
		return nil, wrap("SetMemberRank", err)
	}

	m, err := h.members.Get(ctx, communityID, memberID)
	switch {
	case errors.Is(err, member.ErrMemberNotFound):
		m, err = member.New(communityID, memberID, cmd.DisplayName)
		if err != nil {
			return nil, wrap("SetMemberRank", err)
		}
	case err != nil:
		return nil, wrap("SetMemberRank", err)
	default:
		m.Rename(cmd.DisplayName)
	}

	transition, err := m.SetRank(hierarchy, rank.Name(cmd.RankName))
	if err != nil {
		return nil, wrap("SetMemberRank", err)
	}

	if err := h.members.Save(ctx, m); err != nil {
		return nil, wrap("SetMemberRank", err)
	}

	invalidateCache(ctx, h.cache, communityID)

	event := member.NewTransitionEvent(uuid.NewString(), m, transition)
	event.CorrelationID = cmd.CorrelationID
	publish(ctx, h.events, event)

	var oldRank string
	if transition.From != nil {
		oldRank = transition.From.Name.String()
	}

	return &SetMemberRankResult{
		CommunityID: cmd.CommunityID,
		MemberID:    cmd.MemberID,
		OldRank:     oldRank,
		NewRank:     transition.To.Name.String(),
		OldRoleID:   transition.OldRoleID().String(),
		NewRoleID:   transition.NewRoleID().String(),
		FromTier:    int(transition.FromTier),
		ToTier:      int(transition.ToTier),
		SetAt:       m.LastUpdated,
	}, nil
}
