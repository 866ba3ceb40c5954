package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/guild-hub/guild-rank-hub/internal/domain/leaderboard"
	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
	"github.com/guild-hub/guild-rank-hub/pkg/keymutex"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPLACE HIERARCHY COMMAND
// Replaces the community's rank list wholesale. Checking that the
// referenced external groupings actually exist is the caller's job -
// the engine only guarantees name uniqueness and order.
// ══════════════════════════════════════════════════════════════════════════════

// RankDefinition is one rank in a hierarchy replacement, lowest tier first.
type RankDefinition struct {
	// Name is the rank's name.
	Name string

	// RoleID is the external grouping handle associated with the rank.
	RoleID string
}

// ReplaceHierarchyCommand contains the data needed to replace a hierarchy.
type ReplaceHierarchyCommand struct {
	// CommunityID is the community whose hierarchy is replaced.
	CommunityID string

	// Ranks is the full ordered rank list (lowest first). An empty list
	// clears the hierarchy; subsequent transitions then fail until ranks
	// are configured again.
	Ranks []RankDefinition

	// CorrelationID for tracing across services.
	CorrelationID string
}

// Validate validates the command.
func (c ReplaceHierarchyCommand) Validate() error {
	if c.CommunityID == "" {
		return errors.New("replace_hierarchy: community_id is required")
	}
	for i, r := range c.Ranks {
		if r.Name == "" {
			return fmt.Errorf("replace_hierarchy: rank %d: name is required", i)
		}
		if r.RoleID == "" {
			return fmt.Errorf("replace_hierarchy: rank %d (%s): role_id is required", i, r.Name)
		}
	}
	return nil
}

// ReplaceHierarchyResult contains the result of a hierarchy replacement.
type ReplaceHierarchyResult struct {
	// CommunityID is the mutated community.
	CommunityID string

	// HierarchySize is the number of ranks after the replacement.
	HierarchySize int
}

// ReplaceHierarchyHandler handles full hierarchy replacements.
type ReplaceHierarchyHandler struct {
	ranks  rank.Repository
	locks  *keymutex.KeyMutex
	cache  leaderboard.Cache
	events EventPublisher
}

// NewReplaceHierarchyHandler creates a new ReplaceHierarchyHandler.
// cache and events may be nil.
func NewReplaceHierarchyHandler(
	ranks rank.Repository,
	locks *keymutex.KeyMutex,
	cache leaderboard.Cache,
	events EventPublisher,
) *ReplaceHierarchyHandler {
	return &ReplaceHierarchyHandler{
		ranks:  ranks,
		locks:  locks,
		cache:  cache,
		events: events,
	}
}

// Handle executes the hierarchy replacement.
func (h *ReplaceHierarchyHandler) Handle(ctx context.Context, cmd ReplaceHierarchyCommand) (*ReplaceHierarchyResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "ReplaceHierarchy", shared.ErrValidation, err.Error(), err)
	}

	communityID := shared.CommunityID(cmd.CommunityID)

	unlock := h.locks.Lock(cmd.CommunityID)
	defer unlock()

	hierarchy, err := h.ranks.GetRanks(ctx, communityID)
	if err != nil {
		return nil, wrap("ReplaceHierarchy", err)
	}

	ranks := make([]rank.Rank, 0, len(cmd.Ranks))
	for _, def := range cmd.Ranks {
		r, err := rank.NewRank(rank.Name(def.Name), shared.RoleID(def.RoleID))
		if err != nil {
			return nil, wrap("ReplaceHierarchy", err)
		}
		ranks = append(ranks, r)
	}

	if err := hierarchy.Replace(ranks); err != nil {
		return nil, wrap("ReplaceHierarchy", err)
	}

	if err := h.ranks.SaveRanks(ctx, hierarchy); err != nil {
		return nil, wrap("ReplaceHierarchy", err)
	}

	invalidateCache(ctx, h.cache, communityID)

	event := rank.NewHierarchyEvent(uuid.NewString(), shared.EventHierarchyReplaced, hierarchy, "")
	event.CorrelationID = cmd.CorrelationID
	publish(ctx, h.events, event)

	return &ReplaceHierarchyResult{
		CommunityID:   cmd.CommunityID,
		HierarchySize: hierarchy.Len(),
	}, nil
}
