package query

import (
	"context"
	"errors"
	"time"

	"github.com/guild-hub/guild-rank-hub/internal/domain/member"
	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET MEMBER QUERY
// Возвращает карточку участника: запись, зарезолвленный tier и историю
// переходов в обратном хронологическом порядке (свежие первыми).
// ══════════════════════════════════════════════════════════════════════════════

// GetMemberQuery содержит параметры запроса карточки участника.
type GetMemberQuery struct {
	// CommunityID - сообщество.
	CommunityID string

	// MemberID - идентификатор участника.
	MemberID string

	// HistoryLimit - максимальное количество записей истории (0 = все).
	HistoryLimit int
}

// Validate проверяет корректность параметров запроса.
func (q GetMemberQuery) Validate() error {
	if q.CommunityID == "" {
		return errors.New("get_member: community_id is required")
	}
	if q.MemberID == "" {
		return errors.New("get_member: member_id is required")
	}
	if q.HistoryLimit < 0 {
		return errors.New("get_member: history_limit cannot be negative")
	}
	return nil
}

// HistoryEntryDTO - одна запись истории переходов.
type HistoryEntryDTO struct {
	// From - ранг до перехода (пустое значение = без ранга).
	From string `json:"from,omitempty"`

	// To - ранг после перехода.
	To string `json:"to"`

	// Kind - вид перехода: promotion, demotion или set.
	Kind string `json:"kind"`

	// Timestamp - время перехода.
	Timestamp time.Time `json:"timestamp"`
}

// GetMemberResult содержит карточку участника.
type GetMemberResult struct {
	// CommunityID - сообщество.
	CommunityID string `json:"community_id"`

	// MemberID - идентификатор участника.
	MemberID string `json:"member_id"`

	// DisplayName - отображаемое имя.
	DisplayName string `json:"display_name"`

	// CurrentRank - имя текущего ранга (пустое = без ранга).
	CurrentRank string `json:"current_rank,omitempty"`

	// Tier - текущий tier (-1 для "висячей" ссылки и отсутствия ранга).
	Tier int `json:"tier"`

	// Dangling - текущий ранг не резолвится в иерархии.
	Dangling bool `json:"dangling"`

	// PromotionCount - количество продвижений.
	PromotionCount int `json:"promotion_count"`

	// DemotionCount - количество понижений.
	DemotionCount int `json:"demotion_count"`

	// JoinedAt - время создания записи.
	JoinedAt time.Time `json:"joined_at"`

	// LastUpdated - время последнего перехода.
	LastUpdated time.Time `json:"last_updated"`

	// History - история переходов, свежие записи первыми.
	History []HistoryEntryDTO `json:"history"`
}

// GetMemberHandler обрабатывает запросы карточки участника.
type GetMemberHandler struct {
	ranks   rank.Repository
	members member.Repository
}

// NewGetMemberHandler создаёт новый обработчик.
func NewGetMemberHandler(ranks rank.Repository, members member.Repository) *GetMemberHandler {
	return &GetMemberHandler{ranks: ranks, members: members}
}

// Handle выполняет запрос.
func (h *GetMemberHandler) Handle(ctx context.Context, query GetMemberQuery) (*GetMemberResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetMember", shared.ErrValidation, err.Error(), err)
	}

	communityID := shared.CommunityID(query.CommunityID)

	m, err := h.members.Get(ctx, communityID, shared.MemberID(query.MemberID))
	if err != nil {
		if errors.Is(err, member.ErrMemberNotFound) {
			return nil, shared.WrapError("query", "GetMember", shared.ErrNotFound, err.Error(), err)
		}
		return nil, shared.WrapError("query", "GetMember", shared.ErrStorage, "failed to load member", err)
	}

	hierarchy, err := h.ranks.GetRanks(ctx, communityID)
	if err != nil {
		return nil, shared.WrapError("query", "GetMember", shared.ErrStorage, "failed to load hierarchy", err)
	}

	tier := m.TierIn(hierarchy)

	// История в обратном порядке: порядок вставки = хронологический,
	// для отображения разворачиваем
	historyLen := len(m.History)
	limit := historyLen
	if query.HistoryLimit > 0 && query.HistoryLimit < limit {
		limit = query.HistoryLimit
	}

	history := make([]HistoryEntryDTO, 0, limit)
	for i := historyLen - 1; i >= 0 && len(history) < limit; i-- {
		entry := m.History[i]
		history = append(history, HistoryEntryDTO{
			From:      entry.From.String(),
			To:        entry.To.String(),
			Kind:      string(entry.Kind),
			Timestamp: entry.Timestamp,
		})
	}

	return &GetMemberResult{
		CommunityID:    query.CommunityID,
		MemberID:       query.MemberID,
		DisplayName:    m.DisplayName,
		CurrentRank:    m.CurrentRank.String(),
		Tier:           int(tier),
		Dangling:       m.HasRank() && !tier.IsRanked(),
		PromotionCount: m.PromotionCount,
		DemotionCount:  m.DemotionCount,
		JoinedAt:       m.JoinedAt,
		LastUpdated:    m.LastUpdated,
		History:        history,
	}, nil
}
