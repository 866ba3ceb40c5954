// Package command contains write operations (CQRS - Commands).
// Commands are responsible for changing the state of the system: member
// transitions and hierarchy mutations. Every mutating command serializes
// per community through a shared KeyMutex, which closes the
// load-modify-save race between concurrent callers.
package command

import (
	"context"
	"errors"

	"github.com/guild-hub/guild-rank-hub/internal/domain/leaderboard"
	"github.com/guild-hub/guild-rank-hub/internal/domain/member"
	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SHARED DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// EventPublisher publishes domain events after successful commits.
// A nil publisher disables event publishing.
type EventPublisher interface {
	// Publish delivers the event to subscribers.
	Publish(ctx context.Context, event shared.Event) error
}

// invalidateCache drops the community's cached leaderboard after a mutation.
// Best effort: a cache failure never fails the command.
func invalidateCache(ctx context.Context, cache leaderboard.Cache, communityID shared.CommunityID) {
	if cache == nil {
		return
	}
	// Cache errors are ignored: the next read rebuilds from the store.
	_ = cache.Invalidate(ctx, communityID)
}

// publish delivers a domain event. Best effort: the state change is already
// committed, a failed publish must not roll it back.
func publish(ctx context.Context, bus EventPublisher, event shared.Event) {
	if bus == nil {
		return
	}
	_ = bus.Publish(ctx, event)
}

// classifyKind maps domain sentinels onto the shared error taxonomy so that
// callers can branch on shared.IsValidation / IsNotFound / IsStorage.
func classifyKind(err error) error {
	switch {
	case errors.Is(err, member.ErrMemberNotFound),
		errors.Is(err, rank.ErrRankNotFound):
		return shared.ErrNotFound
	case errors.Is(err, rank.ErrDuplicateRank):
		return shared.ErrAlreadyExists
	case errors.Is(err, member.ErrNoChange):
		return shared.ErrNoEffect
	case errors.Is(err, member.ErrNoRanksConfigured):
		return shared.ErrInvalidState
	case errors.Is(err, member.ErrAlreadyAtMaxRank),
		errors.Is(err, member.ErrAlreadyAtMinRank),
		errors.Is(err, member.ErrNoRankToDemoteFrom),
		errors.Is(err, member.ErrRankNotInHierarchy):
		return shared.ErrStateTransition
	case errors.Is(err, rank.ErrInvalidRankName),
		errors.Is(err, rank.ErrInvalidCommunityID),
		errors.Is(err, member.ErrInvalidMemberID),
		errors.Is(err, member.ErrInvalidDisplayName):
		return shared.ErrValidation
	default:
		return shared.ErrStorage
	}
}

// wrap attaches command context to a domain or storage error.
func wrap(op string, err error) error {
	return shared.WrapError("command", op, classifyKind(err), err.Error(), err)
}
