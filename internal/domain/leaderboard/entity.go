// Package leaderboard содержит чистую логику агрегации: построение
// рейтинга сообщества и подсчёт статистики по записям участников.
// Пакет только читает данные и никогда не изменяет хранилище.
package leaderboard

import (
	"errors"
	"fmt"
	"sort"

	"github.com/guild-hub/guild-rank-hub/internal/domain/member"
	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
)

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrNilHierarchy - иерархия не передана.
	ErrNilHierarchy = errors.New("hierarchy is required")

	// ErrInvalidLimit - отрицательный limit.
	ErrInvalidLimit = errors.New("limit cannot be negative")
)

// ══════════════════════════════════════════════════════════════════════════════
// STANDING
// ══════════════════════════════════════════════════════════════════════════════

// Standing представляет одну строку рейтинга: запись участника и его
// tier, зарезолвленный на момент построения. TierUnranked означает
// "висячую" ссылку на удалённый ранг - такие записи сортируются в конец.
type Standing struct {
	// Position - позиция в рейтинге (начиная с 1).
	Position int

	// Member - запись участника.
	Member *member.Member

	// Tier - tier участника в текущей иерархии.
	Tier rank.Tier
}

// String возвращает строковое представление для логирования.
func (s Standing) String() string {
	return fmt.Sprintf(
		"Standing{#%d %s @ tier %d, promotions: %d}",
		s.Position, s.Member.DisplayName, s.Tier, s.Member.PromotionCount,
	)
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// Build строит рейтинг сообщества по записям участников и живой иерархии.
//
// Ключ сортировки: tier по убыванию ("висячие" записи с tier -1 в конце),
// при равном tier - количество продвижений по убыванию. Оставшиеся ничьи
// сохраняют порядок создания записей (стабильная сортировка).
//
// Limit ограничивает размер результата; значение больше количества
// участников просто не действует, limit <= 0 означает "без ограничения".
func Build(h *rank.Hierarchy, members []*member.Member, limit int) ([]Standing, error) {
	if h == nil {
		return nil, ErrNilHierarchy
	}
	if h.IsEmpty() {
		return nil, member.ErrNoRanksConfigured
	}

	standings := make([]Standing, 0, len(members))
	for _, m := range members {
		if m == nil {
			continue
		}
		standings = append(standings, Standing{
			Member: m,
			Tier:   m.TierIn(h),
		})
	}

	sort.SliceStable(standings, func(i, j int) bool {
		if standings[i].Tier != standings[j].Tier {
			return standings[i].Tier > standings[j].Tier
		}
		return standings[i].Member.PromotionCount > standings[j].Member.PromotionCount
	})

	if limit > 0 && limit < len(standings) {
		standings = standings[:limit]
	}

	for i := range standings {
		standings[i].Position = i + 1
	}

	return standings, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMUNITY STATS
// ══════════════════════════════════════════════════════════════════════════════

// RankCount представляет количество участников на одном ранге.
type RankCount struct {
	// Rank - ранг иерархии.
	Rank rank.Rank

	// Tier - позиция ранга.
	Tier rank.Tier

	// Members - количество участников на этом ранге.
	Members int
}

// Stats содержит агрегированную статистику сообщества.
type Stats struct {
	// TotalMembers - общее количество записей участников.
	TotalMembers int

	// RankedMembers - участники, чей ранг резолвится в иерархии.
	RankedMembers int

	// DanglingMembers - участники с "висячей" ссылкой на удалённый ранг.
	DanglingMembers int

	// TotalPromotions - сумма продвижений по всем участникам.
	TotalPromotions int

	// TotalDemotions - сумма понижений по всем участникам.
	TotalDemotions int

	// Distribution - распределение участников по рангам,
	// в порядке иерархии (низший первым).
	Distribution []RankCount
}

// ComputeStats считает статистику сообщества по записям и иерархии.
// В отличие от Build, работает и с пустой иерархией: статистика
// пустого сообщества - валидный ответ, а не ошибка.
func ComputeStats(h *rank.Hierarchy, members []*member.Member) (*Stats, error) {
	if h == nil {
		return nil, ErrNilHierarchy
	}

	stats := &Stats{
		Distribution: make([]RankCount, h.Len()),
	}
	for i, r := range h.Ranks {
		stats.Distribution[i] = RankCount{Rank: r, Tier: rank.Tier(i)}
	}

	for _, m := range members {
		if m == nil {
			continue
		}

		stats.TotalMembers++
		stats.TotalPromotions += m.PromotionCount
		stats.TotalDemotions += m.DemotionCount

		tier := m.TierIn(h)
		if tier.IsRanked() {
			stats.RankedMembers++
			stats.Distribution[tier].Members++
		} else if m.HasRank() {
			stats.DanglingMembers++
		}
	}

	return stats, nil
}
