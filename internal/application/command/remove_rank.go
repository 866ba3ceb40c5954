package command

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/guild-hub/guild-rank-hub/internal/domain/leaderboard"
	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
	"github.com/guild-hub/guild-rank-hub/pkg/keymutex"
)

// ══════════════════════════════════════════════════════════════════════════════
// REMOVE RANK COMMAND
// Removes a rank from the hierarchy. Members still pointing at the
// removed rank keep the name as a dangling reference; transitions and
// the leaderboard tolerate it by re-resolving tiers at call time.
// ══════════════════════════════════════════════════════════════════════════════

// RemoveRankCommand contains the data needed to remove a rank.
type RemoveRankCommand struct {
	// CommunityID is the community whose hierarchy is mutated.
	CommunityID string

	// Name is the rank to remove, matched case-insensitively.
	Name string

	// CorrelationID for tracing across services.
	CorrelationID string
}

// Validate validates the command.
func (c RemoveRankCommand) Validate() error {
	if c.CommunityID == "" {
		return errors.New("remove_rank: community_id is required")
	}
	if c.Name == "" {
		return errors.New("remove_rank: name is required")
	}
	return nil
}

// RemoveRankResult contains the result of removing a rank.
type RemoveRankResult struct {
	// CommunityID is the mutated community.
	CommunityID string

	// Name is the removed rank's name (canonical casing).
	Name string

	// RoleID is the removed rank's external grouping handle.
	RoleID string

	// HierarchySize is the number of ranks after the removal.
	HierarchySize int
}

// RemoveRankHandler handles rank removals.
type RemoveRankHandler struct {
	ranks  rank.Repository
	locks  *keymutex.KeyMutex
	cache  leaderboard.Cache
	events EventPublisher
}

// NewRemoveRankHandler creates a new RemoveRankHandler.
// cache and events may be nil.
func NewRemoveRankHandler(
	ranks rank.Repository,
	locks *keymutex.KeyMutex,
	cache leaderboard.Cache,
	events EventPublisher,
) *RemoveRankHandler {
	return &RemoveRankHandler{
		ranks:  ranks,
		locks:  locks,
		cache:  cache,
		events: events,
	}
}

// Handle executes the rank removal.
func (h *RemoveRankHandler) Handle(ctx context.Context, cmd RemoveRankCommand) (*RemoveRankResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "RemoveRank", shared.ErrValidation, err.Error(), err)
	}

	communityID := shared.CommunityID(cmd.CommunityID)

	unlock := h.locks.Lock(cmd.CommunityID)
	defer unlock()

	hierarchy, err := h.ranks.GetRanks(ctx, communityID)
	if err != nil {
		return nil, wrap("RemoveRank", err)
	}

	removed, err := hierarchy.Remove(rank.Name(cmd.Name))
	if err != nil {
		return nil, wrap("RemoveRank", err)
	}

	if err := h.ranks.SaveRanks(ctx, hierarchy); err != nil {
		return nil, wrap("RemoveRank", err)
	}

	invalidateCache(ctx, h.cache, communityID)

	event := rank.NewHierarchyEvent(uuid.NewString(), shared.EventRankRemoved, hierarchy, removed.Name)
	event.CorrelationID = cmd.CorrelationID
	publish(ctx, h.events, event)

	return &RemoveRankResult{
		CommunityID:   cmd.CommunityID,
		Name:          removed.Name.String(),
		RoleID:        removed.RoleID.String(),
		HierarchySize: hierarchy.Len(),
	}, nil
}
