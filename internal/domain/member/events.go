package member

import (
	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN EVENTS
// События переходов. Публикуются командным слоем после успешного
// сохранения записи; сами переходы от публикации не зависят.
// ══════════════════════════════════════════════════════════════════════════════

// TransitionEvent - событие успешного перехода участника.
type TransitionEvent struct {
	shared.BaseEvent

	CommunityID shared.CommunityID `json:"community_id"`
	MemberID    shared.MemberID    `json:"member_id"`
	DisplayName string             `json:"display_name"`
	FromRank    rank.Name          `json:"from_rank,omitempty"`
	ToRank      rank.Name          `json:"to_rank"`
	FromTier    rank.Tier          `json:"from_tier"`
	ToTier      rank.Tier          `json:"to_tier"`
}

// NewTransitionEvent создаёт событие по результату перехода.
func NewTransitionEvent(eventID string, m *Member, t *Transition) TransitionEvent {
	eventType := shared.EventMemberRankSet
	switch t.Kind {
	case KindPromotion:
		eventType = shared.EventMemberPromoted
	case KindDemotion:
		eventType = shared.EventMemberDemoted
	}

	var fromName rank.Name
	if t.From != nil {
		fromName = t.From.Name
	}

	return TransitionEvent{
		BaseEvent:   shared.NewBaseEvent(eventID, eventType, aggregateID(m.CommunityID, m.MemberID)),
		CommunityID: m.CommunityID,
		MemberID:    m.MemberID,
		DisplayName: m.DisplayName,
		FromRank:    fromName,
		ToRank:      t.To.Name,
		FromTier:    t.FromTier,
		ToTier:      t.ToTier,
	}
}

// Payload implements shared.Event.
func (e TransitionEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"community_id": e.CommunityID.String(),
		"member_id":    e.MemberID.String(),
		"display_name": e.DisplayName,
		"from_rank":    e.FromRank.String(),
		"to_rank":      e.ToRank.String(),
		"from_tier":    int(e.FromTier),
		"to_tier":      int(e.ToTier),
	}
}

// ResetEvent - событие удаления записи участника.
type ResetEvent struct {
	shared.BaseEvent

	CommunityID shared.CommunityID `json:"community_id"`
	MemberID    shared.MemberID    `json:"member_id"`
	HeldRank    rank.Name          `json:"held_rank,omitempty"`
}

// NewResetEvent создаёт событие сброса участника.
func NewResetEvent(eventID string, communityID shared.CommunityID, memberID shared.MemberID, heldRank rank.Name) ResetEvent {
	return ResetEvent{
		BaseEvent:   shared.NewBaseEvent(eventID, shared.EventMemberReset, aggregateID(communityID, memberID)),
		CommunityID: communityID,
		MemberID:    memberID,
		HeldRank:    heldRank,
	}
}

// Payload implements shared.Event.
func (e ResetEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"community_id": e.CommunityID.String(),
		"member_id":    e.MemberID.String(),
		"held_rank":    e.HeldRank.String(),
	}
}

func aggregateID(communityID shared.CommunityID, memberID shared.MemberID) string {
	return communityID.String() + "/" + memberID.String()
}
