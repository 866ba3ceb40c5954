package query

import (
	"context"
	"errors"

	"github.com/guild-hub/guild-rank-hub/internal/domain/leaderboard"
	"github.com/guild-hub/guild-rank-hub/internal/domain/member"
	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COMMUNITY STATS QUERY
// Агрегированная статистика сообщества: распределение участников по
// рангам, суммы продвижений и понижений. Работает и с пустой иерархией.
// ══════════════════════════════════════════════════════════════════════════════

// GetCommunityStatsQuery содержит параметры запроса статистики.
type GetCommunityStatsQuery struct {
	// CommunityID - сообщество.
	CommunityID string
}

// Validate проверяет корректность параметров запроса.
func (q GetCommunityStatsQuery) Validate() error {
	if q.CommunityID == "" {
		return errors.New("get_community_stats: community_id is required")
	}
	return nil
}

// RankCountDTO - количество участников на одном ранге.
type RankCountDTO struct {
	// Tier - позиция ранга.
	Tier int `json:"tier"`

	// Name - имя ранга.
	Name string `json:"name"`

	// Members - количество участников.
	Members int `json:"members"`
}

// GetCommunityStatsResult содержит статистику сообщества.
type GetCommunityStatsResult struct {
	// CommunityID - сообщество.
	CommunityID string `json:"community_id"`

	// HierarchySize - количество рангов в иерархии.
	HierarchySize int `json:"hierarchy_size"`

	// TotalMembers - общее количество записей участников.
	TotalMembers int `json:"total_members"`

	// RankedMembers - участники с валидным рангом.
	RankedMembers int `json:"ranked_members"`

	// DanglingMembers - участники с "висячей" ссылкой.
	DanglingMembers int `json:"dangling_members"`

	// TotalPromotions - сумма продвижений.
	TotalPromotions int `json:"total_promotions"`

	// TotalDemotions - сумма понижений.
	TotalDemotions int `json:"total_demotions"`

	// Distribution - распределение по рангам (низший первым).
	Distribution []RankCountDTO `json:"distribution"`
}

// GetCommunityStatsHandler обрабатывает запросы статистики.
type GetCommunityStatsHandler struct {
	ranks   rank.Repository
	members member.Repository
}

// NewGetCommunityStatsHandler создаёт новый обработчик.
func NewGetCommunityStatsHandler(ranks rank.Repository, members member.Repository) *GetCommunityStatsHandler {
	return &GetCommunityStatsHandler{ranks: ranks, members: members}
}

// Handle выполняет запрос.
func (h *GetCommunityStatsHandler) Handle(ctx context.Context, query GetCommunityStatsQuery) (*GetCommunityStatsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetCommunityStats", shared.ErrValidation, err.Error(), err)
	}

	communityID := shared.CommunityID(query.CommunityID)

	hierarchy, err := h.ranks.GetRanks(ctx, communityID)
	if err != nil {
		return nil, shared.WrapError("query", "GetCommunityStats", shared.ErrStorage, "failed to load hierarchy", err)
	}

	members, err := h.members.ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, shared.WrapError("query", "GetCommunityStats", shared.ErrStorage, "failed to load members", err)
	}

	stats, err := leaderboard.ComputeStats(hierarchy, members)
	if err != nil {
		return nil, shared.WrapError("query", "GetCommunityStats", shared.ErrInvalidInput, err.Error(), err)
	}

	result := &GetCommunityStatsResult{
		CommunityID:     query.CommunityID,
		HierarchySize:   hierarchy.Len(),
		TotalMembers:    stats.TotalMembers,
		RankedMembers:   stats.RankedMembers,
		DanglingMembers: stats.DanglingMembers,
		TotalPromotions: stats.TotalPromotions,
		TotalDemotions:  stats.TotalDemotions,
		Distribution:    make([]RankCountDTO, len(stats.Distribution)),
	}
	for i, rc := range stats.Distribution {
		result.Distribution[i] = RankCountDTO{
			Tier:    int(rc.Tier),
			Name:    rc.Rank.Name.String(),
			Members: rc.Members,
		}
	}

	return result, nil
}
