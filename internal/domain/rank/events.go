package rank

import (
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN EVENTS
// События изменения иерархии. Публикуются командным слоем после
// успешного сохранения.
// ══════════════════════════════════════════════════════════════════════════════

// HierarchyEvent - событие изменения иерархии рангов сообщества.
type HierarchyEvent struct {
	shared.BaseEvent

	CommunityID shared.CommunityID `json:"community_id"`

	// RankName - имя затронутого ранга (пустое для полной замены).
	RankName Name `json:"rank_name,omitempty"`

	// Size - размер иерархии после изменения.
	Size int `json:"size"`
}

// NewHierarchyEvent создаёт событие изменения иерархии.
func NewHierarchyEvent(eventID string, eventType shared.EventType, h *Hierarchy, rankName Name) HierarchyEvent {
	return HierarchyEvent{
		BaseEvent:   shared.NewBaseEvent(eventID, eventType, h.CommunityID.String()),
		CommunityID: h.CommunityID,
		RankName:    rankName,
		Size:        h.Len(),
	}
}

// Payload implements shared.Event.
func (e HierarchyEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"community_id": e.CommunityID.String(),
		"rank_name":    e.RankName.String(),
		"size":         e.Size,
	}
}
