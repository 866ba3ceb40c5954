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
// RESET MEMBER COMMAND
// Deletes the member record entirely, returning the member to Unranked.
// The held rank's external grouping handle is returned for caller-side
// cleanup of the platform role.
// ══════════════════════════════════════════════════════════════════════════════

// ResetMemberCommand contains the data needed to reset a member.
type ResetMemberCommand struct {
	// CommunityID is the community the record belongs to.
	CommunityID string

	// MemberID is the platform ID of the member to reset.
	MemberID string

	// CorrelationID for tracing across services.
	CorrelationID string
}

// Validate validates the command.
func (c ResetMemberCommand) Validate() error {
	if c.CommunityID == "" {
		return errors.New("reset_member: community_id is required")
	}
	if c.MemberID == "" {
		return errors.New("reset_member: member_id is required")
	}
	return nil
}

// ResetMemberResult contains the result of a reset.
type ResetMemberResult struct {
	// CommunityID is the community the reset happened in.
	CommunityID string

	// MemberID is the reset member.
	MemberID string

	// HeldRank is the rank name the member held (possibly dangling).
	HeldRank string

	// HeldRoleID is the external grouping handle of the held rank,
	// empty when the rank was dangling or the member was unranked.
	HeldRoleID string

	// PromotionCount is the promotion total the record carried.
	PromotionCount int

	// DemotionCount is the demotion total the record carried.
	DemotionCount int

	// HistoryLength is the number of history entries that were deleted.
	HistoryLength int

	// ResetAt is when the reset was committed.
	ResetAt time.Time
}

// ResetMemberHandler handles member resets.
type ResetMemberHandler struct {
	ranks   rank.Repository
	members member.Repository
	locks   *keymutex.KeyMutex
	cache   leaderboard.Cache
	events  EventPublisher
}

// NewResetMemberHandler creates a new ResetMemberHandler.
// cache and events may be nil.
func NewResetMemberHandler(
	ranks rank.Repository,
	members member.Repository,
	locks *keymutex.KeyMutex,
	cache leaderboard.Cache,
	events EventPublisher,
) *ResetMemberHandler {
	return &ResetMemberHandler{
		ranks:   ranks,
		members: members,
		locks:   locks,
		cache:   cache,
		events:  events,
	}
}

// Handle executes the reset.
func (h *ResetMemberHandler) Handle(ctx context.Context, cmd ResetMemberCommand) (*ResetMemberResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "ResetMember", shared.ErrValidation, err.Error(), err)
	}

	communityID := shared.CommunityID(cmd.CommunityID)
	memberID := shared.MemberID(cmd.MemberID)

	unlock := h.locks.Lock(cmd.CommunityID)
	defer unlock()

	m, err := h.members.Get(ctx, communityID, memberID)
	if err != nil {
		return nil, wrap("ResetMember", err)
	}

	// Resolve the held role for caller-side cleanup before the record is gone.
	// A dangling rank resolves to an empty handle, which the caller treats
	// as "nothing to remove".
	var heldRoleID shared.RoleID
	if m.HasRank() {
		hierarchy, err := h.ranks.GetRanks(ctx, communityID)
		if err != nil {
			return nil, wrap("ResetMember", err)
		}
		if r, _, found := hierarchy.Find(m.CurrentRank); found {
			heldRoleID = r.RoleID
		}
	}

	if err := h.members.Delete(ctx, communityID, memberID); err != nil {
		return nil, wrap("ResetMember", err)
	}

	invalidateCache(ctx, h.cache, communityID)

	event := member.NewResetEvent(uuid.NewString(), communityID, memberID, m.CurrentRank)
	event.CorrelationID = cmd.CorrelationID
	publish(ctx, h.events, event)

	return &ResetMemberResult{
		CommunityID:    cmd.CommunityID,
		MemberID:       cmd.MemberID,
		HeldRank:       m.CurrentRank.String(),
		HeldRoleID:     heldRoleID.String(),
		PromotionCount: m.PromotionCount,
		DemotionCount:  m.DemotionCount,
		HistoryLength:  len(m.History),
		ResetAt:        time.Now().UTC(),
	}, nil
}
