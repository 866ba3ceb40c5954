package query

import (
	"context"
	"errors"
	"time"

	"github.com/guild-hub/guild-rank-hub/internal/domain/leaderboard"
	"github.com/guild-hub/guild-rank-hub/internal/domain/member"
	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Строит рейтинг сообщества: tier по убыванию, затем продвижения по
// убыванию, ничьи - в порядке создания записей. Сначала пробует кеш,
// при промахе строит из хранилища и кеширует результат.
// ══════════════════════════════════════════════════════════════════════════════

// DefaultLeaderboardLimit - размер рейтинга по умолчанию.
const DefaultLeaderboardLimit = 10

// GetLeaderboardQuery содержит параметры запроса рейтинга.
type GetLeaderboardQuery struct {
	// CommunityID - сообщество.
	CommunityID string

	// Limit - максимальное количество строк (0 = значение по умолчанию).
	// Большие значения не ошибка: результат просто ограничен числом
	// участников.
	Limit int
}

// Validate проверяет корректность параметров запроса.
func (q *GetLeaderboardQuery) Validate() error {
	if q.CommunityID == "" {
		return errors.New("get_leaderboard: community_id is required")
	}
	if q.Limit < 0 {
		return errors.New("get_leaderboard: limit cannot be negative")
	}
	if q.Limit == 0 {
		q.Limit = DefaultLeaderboardLimit
	}
	return nil
}

// GetLeaderboardResult содержит результат запроса рейтинга.
type GetLeaderboardResult struct {
	// CommunityID - сообщество.
	CommunityID string `json:"community_id"`

	// Entries - строки рейтинга.
	Entries []leaderboard.Entry `json:"entries"`

	// TotalMembers - общее количество записей в сообществе.
	TotalMembers int `json:"total_members"`

	// FromCache - результат получен из кеша.
	FromCache bool `json:"from_cache"`

	// GeneratedAt - время генерации результата.
	GeneratedAt time.Time `json:"generated_at"`
}

// GetLeaderboardHandler обрабатывает запросы рейтинга.
type GetLeaderboardHandler struct {
	ranks   rank.Repository
	members member.Repository
	cache   leaderboard.Cache
}

// NewGetLeaderboardHandler создаёт новый обработчик.
// cache может быть nil - тогда рейтинг всегда строится из хранилища.
func NewGetLeaderboardHandler(
	ranks rank.Repository,
	members member.Repository,
	cache leaderboard.Cache,
) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		ranks:   ranks,
		members: members,
		cache:   cache,
	}
}

// Handle выполняет запрос.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrValidation, err.Error(), err)
	}

	communityID := shared.CommunityID(query.CommunityID)

	// Попытка получить из кеша
	if h.cache != nil {
		if entries, err := h.cache.GetTop(ctx, communityID, query.Limit); err == nil {
			count, err := h.members.CountByCommunity(ctx, communityID)
			if err != nil {
				count = len(entries)
			}
			return &GetLeaderboardResult{
				CommunityID:  query.CommunityID,
				Entries:      entries,
				TotalMembers: count,
				FromCache:    true,
				GeneratedAt:  time.Now().UTC(),
			}, nil
		}
	}

	hierarchy, err := h.ranks.GetRanks(ctx, communityID)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrStorage, "failed to load hierarchy", err)
	}

	members, err := h.members.ListByCommunity(ctx, communityID)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrStorage, "failed to load members", err)
	}

	standings, err := leaderboard.Build(hierarchy, members, query.Limit)
	if err != nil {
		if errors.Is(err, member.ErrNoRanksConfigured) {
			return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrInvalidState, err.Error(), err)
		}
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrInvalidInput, err.Error(), err)
	}

	entries := leaderboard.EntriesFromStandings(standings)

	// Кешируем построенный топ; ошибка кеша не критична
	if h.cache != nil {
		_ = h.cache.SetTop(ctx, communityID, query.Limit, entries)
	}

	return &GetLeaderboardResult{
		CommunityID:  query.CommunityID,
		Entries:      entries,
		TotalMembers: len(members),
		FromCache:    false,
		GeneratedAt:  time.Now().UTC(),
	}, nil
}
