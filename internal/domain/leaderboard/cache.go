package leaderboard

import (
	"context"
	"time"

	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CACHE CONTRACT
// Горячий кеш рейтинга. Реализация - infrastructure/persistence/redis.
// Кеш опционален: движок полностью работоспособен без него.
// ══════════════════════════════════════════════════════════════════════════════

// Entry - плоская строка рейтинга, пригодная для сериализации в кеш.
// В отличие от Standing не тянет за собой историю участника.
type Entry struct {
	// Position - позиция в рейтинге (начиная с 1).
	Position int `json:"position"`

	// MemberID - идентификатор участника.
	MemberID shared.MemberID `json:"member_id"`

	// DisplayName - отображаемое имя.
	DisplayName string `json:"display_name"`

	// RankName - имя текущего ранга.
	RankName rank.Name `json:"rank_name"`

	// Tier - tier на момент построения (-1 для "висячих" ссылок).
	Tier rank.Tier `json:"tier"`

	// Promotions - количество продвижений.
	Promotions int `json:"promotions"`

	// Demotions - количество понижений.
	Demotions int `json:"demotions"`

	// LastUpdated - время последнего перехода участника.
	LastUpdated time.Time `json:"last_updated"`
}

// EntriesFromStandings превращает рейтинг в плоские строки.
func EntriesFromStandings(standings []Standing) []Entry {
	entries := make([]Entry, len(standings))
	for i, s := range standings {
		entries[i] = Entry{
			Position:    s.Position,
			MemberID:    s.Member.MemberID,
			DisplayName: s.Member.DisplayName,
			RankName:    s.Member.CurrentRank,
			Tier:        s.Tier,
			Promotions:  s.Member.PromotionCount,
			Demotions:   s.Member.DemotionCount,
			LastUpdated: s.Member.LastUpdated,
		}
	}
	return entries
}

// Cache определяет контракт кеша рейтинга.
type Cache interface {
	// GetTop возвращает закешированный топ-N сообщества.
	// Возвращает ошибку при промахе кеша.
	GetTop(ctx context.Context, communityID shared.CommunityID, limit int) ([]Entry, error)

	// SetTop кеширует топ-N сообщества.
	SetTop(ctx context.Context, communityID shared.CommunityID, limit int, entries []Entry) error

	// Invalidate сбрасывает кеш сообщества.
	// Вызывается после каждой успешной мутации.
	Invalidate(ctx context.Context, communityID shared.CommunityID) error
}
