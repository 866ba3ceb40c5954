// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
// Each query is a self-contained use case with its own request/response types.
package query

import (
	"context"
	"errors"

	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET RANKS QUERY
// Возвращает иерархию рангов сообщества в порядке tier (низший первым).
// Пустая иерархия - валидный ответ, не ошибка.
// ══════════════════════════════════════════════════════════════════════════════

// GetRanksQuery содержит параметры запроса иерархии.
type GetRanksQuery struct {
	// CommunityID - сообщество, чью иерархию запрашиваем.
	CommunityID string
}

// Validate проверяет корректность параметров запроса.
func (q GetRanksQuery) Validate() error {
	if q.CommunityID == "" {
		return errors.New("get_ranks: community_id is required")
	}
	return nil
}

// RankDTO - одна строка иерархии (Data Transfer Object).
type RankDTO struct {
	// Tier - позиция ранга (0 = низший).
	Tier int `json:"tier"`

	// Name - имя ранга.
	Name string `json:"name"`

	// RoleID - идентификатор внешней группы.
	RoleID string `json:"role_id"`
}

// GetRanksResult содержит результат запроса иерархии.
type GetRanksResult struct {
	// CommunityID - сообщество.
	CommunityID string `json:"community_id"`

	// Ranks - ранги в порядке иерархии (низший первым).
	Ranks []RankDTO `json:"ranks"`
}

// GetRanksHandler обрабатывает запросы иерархии рангов.
type GetRanksHandler struct {
	ranks rank.Repository
}

// NewGetRanksHandler создаёт новый обработчик.
func NewGetRanksHandler(ranks rank.Repository) *GetRanksHandler {
	return &GetRanksHandler{ranks: ranks}
}

// Handle выполняет запрос.
func (h *GetRanksHandler) Handle(ctx context.Context, query GetRanksQuery) (*GetRanksResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetRanks", shared.ErrValidation, err.Error(), err)
	}

	hierarchy, err := h.ranks.GetRanks(ctx, shared.CommunityID(query.CommunityID))
	if err != nil {
		return nil, shared.WrapError("query", "GetRanks", shared.ErrStorage, "failed to load hierarchy", err)
	}

	result := &GetRanksResult{
		CommunityID: query.CommunityID,
		Ranks:       make([]RankDTO, hierarchy.Len()),
	}
	for i, r := range hierarchy.Ranks {
		result.Ranks[i] = RankDTO{
			Tier:   i,
			Name:   r.Name.String(),
			RoleID: r.RoleID.String(),
		}
	}

	return result, nil
}
