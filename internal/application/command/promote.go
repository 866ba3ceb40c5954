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
// PROMOTE MEMBER COMMAND
// Moves a member one tier up the community hierarchy. An unranked member
// (or one whose recorded rank no longer exists) starts at the lowest rank.
// ══════════════════════════════════════════════════════════════════════════════

// PromoteMemberCommand contains the data needed to promote a member.
type PromoteMemberCommand struct {
	// CommunityID is the community whose hierarchy applies.
	CommunityID string

	// MemberID is the platform ID of the member to promote.
	MemberID string

	// DisplayName is the member's current display name. Used when the
	// record is created lazily and to refresh an existing record.
	DisplayName string

	// CorrelationID for tracing across services.
	CorrelationID string
}

// Validate validates the command.
func (c PromoteMemberCommand) Validate() error {
	if c.CommunityID == "" {
		return errors.New("promote_member: community_id is required")
	}
	if c.MemberID == "" {
		return errors.New("promote_member: member_id is required")
	}
	if c.DisplayName == "" {
		return errors.New("promote_member: display_name is required")
	}
	return nil
}

// PromoteMemberResult contains the result of a promotion.
//
// OldRoleID and NewRoleID are the external grouping handles the caller
// needs to reconcile platform roles (add new, remove old). The engine's
// own state change is already committed; a failed reconciliation on the
// caller's side must not roll it back.
type PromoteMemberResult struct {
	// CommunityID is the community the promotion happened in.
	CommunityID string

	// MemberID is the promoted member.
	MemberID string

	// OldRank is the rank name before promotion (empty if none).
	OldRank string

	// NewRank is the rank name after promotion.
	NewRank string

	// OldRoleID is the external grouping handle of the previous rank
	// (empty if the member was unranked or the rank was dangling).
	OldRoleID string

	// NewRoleID is the external grouping handle of the new rank.
	NewRoleID string

	// FromTier is the tier before promotion (-1 if unranked).
	FromTier int

	// ToTier is the tier after promotion.
	ToTier int

	// FirstRank is true when the member just entered the hierarchy.
	FirstRank bool

	// PromotionCount is the member's total promotion count after this one.
	PromotionCount int

	// PromotedAt is when the promotion was committed.
	PromotedAt time.Time
}

// PromoteMemberHandler handles member promotions.
type PromoteMemberHandler struct {
	ranks   rank.Repository
	members member.Repository
	locks   *keymutex.KeyMutex
	cache   leaderboard.Cache
	events  EventPublisher
}

// NewPromoteMemberHandler creates a new PromoteMemberHandler.
// cache and events may be nil.
func NewPromoteMemberHandler(
	ranks rank.Repository,
	members member.Repository,
	locks *keymutex.KeyMutex,
	cache leaderboard.Cache,
	events EventPublisher,
) *PromoteMemberHandler {
	return &PromoteMemberHandler{
		ranks:   ranks,
		members: members,
		locks:   locks,
		cache:   cache,
		events:  events,
	}
}

// Handle executes the promotion.
func (h *PromoteMemberHandler) Handle(ctx context.Context, cmd PromoteMemberCommand) (*PromoteMemberResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "PromoteMember", shared.ErrValidation, err.Error(), err)
	}

	communityID := shared.CommunityID(cmd.CommunityID)
	memberID := shared.MemberID(cmd.MemberID)

	unlock := h.locks.Lock(cmd.CommunityID)
	defer unlock()

	hierarchy, err := h.ranks.GetRanks(ctx, communityID)
	if err != nil {
		return nil, wrap("PromoteMember", err)
	}

	m, err := h.members.Get(ctx, communityID, memberID)
	switch {
	case errors.Is(err, member.ErrMemberNotFound):
		// Lazy record creation. The record is only persisted after a
		// successful transition, so an empty hierarchy never leaves one behind.
		m, err = member.New(communityID, memberID, cmd.DisplayName)
		if err != nil {
			return nil, wrap("PromoteMember", err)
		}
	case err != nil:
		return nil, wrap("PromoteMember", err)
	default:
		m.Rename(cmd.DisplayName)
	}

	transition, err := m.Promote(hierarchy)
	if err != nil {
		return nil, wrap("PromoteMember", err)
	}

	if err := h.members.Save(ctx, m); err != nil {
		return nil, wrap("PromoteMember", err)
	}

	invalidateCache(ctx, h.cache, communityID)

	event := member.NewTransitionEvent(uuid.NewString(), m, transition)
	event.CorrelationID = cmd.CorrelationID
	publish(ctx, h.events, event)

	var oldRank string
	if transition.From != nil {
		oldRank = transition.From.Name.String()
	}

	return &PromoteMemberResult{
		CommunityID:    cmd.CommunityID,
		MemberID:       cmd.MemberID,
		OldRank:        oldRank,
		NewRank:        transition.To.Name.String(),
		OldRoleID:      transition.OldRoleID().String(),
		NewRoleID:      transition.NewRoleID().String(),
		FromTier:       int(transition.FromTier),
		ToTier:         int(transition.ToTier),
		FirstRank:      transition.From == nil,
		PromotionCount: m.PromotionCount,
		PromotedAt:     m.LastUpdated,
	}, nil
}
