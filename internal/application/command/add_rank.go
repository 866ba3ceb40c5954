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
// ADD RANK COMMAND
// Inserts a new rank into the community hierarchy. An out-of-range
// position falls back to appending at the top; this is part of the
// contract, not an accident - callers pass nil to append explicitly.
// ══════════════════════════════════════════════════════════════════════════════

// AddRankCommand contains the data needed to add a rank.
type AddRankCommand struct {
	// CommunityID is the community whose hierarchy is mutated.
	CommunityID string

	// Name is the new rank's name (unique per community, case-insensitive).
	Name string

	// RoleID is the external grouping handle associated with the rank.
	// Validating that the grouping exists is the caller's responsibility.
	RoleID string

	// Position optionally inserts the rank at a tier index.
	// nil or out of [0, len] appends at the top.
	Position *int

	// CorrelationID for tracing across services.
	CorrelationID string
}

// Validate validates the command.
func (c AddRankCommand) Validate() error {
	if c.CommunityID == "" {
		return errors.New("add_rank: community_id is required")
	}
	if c.Name == "" {
		return errors.New("add_rank: name is required")
	}
	if c.RoleID == "" {
		return errors.New("add_rank: role_id is required")
	}
	return nil
}

// AddRankResult contains the result of adding a rank.
type AddRankResult struct {
	// CommunityID is the mutated community.
	CommunityID string

	// Name is the added rank's name.
	Name string

	// RoleID is the rank's external grouping handle.
	RoleID string

	// Tier is the tier the rank ended up at.
	Tier int

	// HierarchySize is the number of ranks after the insert.
	HierarchySize int
}

// AddRankHandler handles rank additions.
type AddRankHandler struct {
	ranks  rank.Repository
	locks  *keymutex.KeyMutex
	cache  leaderboard.Cache
	events EventPublisher
}

// NewAddRankHandler creates a new AddRankHandler.
// cache and events may be nil.
func NewAddRankHandler(
	ranks rank.Repository,
	locks *keymutex.KeyMutex,
	cache leaderboard.Cache,
	events EventPublisher,
) *AddRankHandler {
	return &AddRankHandler{
		ranks:  ranks,
		locks:  locks,
		cache:  cache,
		events: events,
	}
}

// Handle executes the rank addition.
func (h *AddRankHandler) Handle(ctx context.Context, cmd AddRankCommand) (*AddRankResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, shared.WrapError("command", "AddRank", shared.ErrValidation, err.Error(), err)
	}

	communityID := shared.CommunityID(cmd.CommunityID)

	unlock := h.locks.Lock(cmd.CommunityID)
	defer unlock()

	hierarchy, err := h.ranks.GetRanks(ctx, communityID)
	if err != nil {
		return nil, wrap("AddRank", err)
	}

	newRank, err := rank.NewRank(rank.Name(cmd.Name), shared.RoleID(cmd.RoleID))
	if err != nil {
		return nil, wrap("AddRank", err)
	}

	position := -1
	if cmd.Position != nil {
		position = *cmd.Position
	}

	if err := hierarchy.Add(newRank, position); err != nil {
		return nil, wrap("AddRank", err)
	}

	if err := h.ranks.SaveRanks(ctx, hierarchy); err != nil {
		return nil, wrap("AddRank", err)
	}

	invalidateCache(ctx, h.cache, communityID)

	event := rank.NewHierarchyEvent(uuid.NewString(), shared.EventRankAdded, hierarchy, newRank.Name)
	event.CorrelationID = cmd.CorrelationID
	publish(ctx, h.events, event)

	return &AddRankResult{
		CommunityID:   cmd.CommunityID,
		Name:          newRank.Name.String(),
		RoleID:        cmd.RoleID,
		Tier:          int(hierarchy.TierOf(newRank.Name)),
		HierarchySize: hierarchy.Len(),
	}, nil
}
