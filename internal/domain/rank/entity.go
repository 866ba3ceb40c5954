// Package rank содержит доменную модель иерархии рангов сообщества.
// Это ядро бизнес-логики - здесь нет внешних зависимостей.
package rank

import (
	"errors"
	"fmt"
	"strings"

	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Name представляет имя ранга. Имена уникальны внутри сообщества
// без учёта регистра.
type Name string

// IsValid проверяет корректность имени ранга.
func (n Name) IsValid() bool {
	s := strings.TrimSpace(string(n))
	return len(s) >= 1 && len(s) <= 100
}

// String возвращает строковое представление имени.
func (n Name) String() string {
	return string(n)
}

// Normalized возвращает каноническую форму имени для поиска.
// Все сравнения имён рангов проходят через эту функцию.
func (n Name) Normalized() string {
	return strings.ToLower(strings.TrimSpace(string(n)))
}

// Equals сравнивает два имени без учёта регистра.
func (n Name) Equals(other Name) bool {
	return n.Normalized() == other.Normalized()
}

// Tier представляет позицию ранга в иерархии.
// Индекс 0 - низший ранг, len-1 - высший. Tier не хранится отдельно:
// позиция в упорядоченном списке и есть tier.
type Tier int

// TierUnranked - специальное значение для участников без ранга
// или с "висячей" ссылкой на удалённый ранг.
const TierUnranked Tier = -1

// IsRanked возвращает true, если tier указывает на реальный ранг.
func (t Tier) IsRanked() bool {
	return t >= 0
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidRankName - невалидное имя ранга.
	ErrInvalidRankName = errors.New("invalid rank name: must be 1-100 chars")

	// ErrDuplicateRank - ранг с таким именем уже существует (без учёта регистра).
	ErrDuplicateRank = errors.New("rank with this name already exists")

	// ErrRankNotFound - ранг не найден в иерархии.
	ErrRankNotFound = errors.New("rank not found in hierarchy")

	// ErrInvalidCommunityID - невалидный идентификатор сообщества.
	ErrInvalidCommunityID = errors.New("invalid community id")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: RANK
// ══════════════════════════════════════════════════════════════════════════════

// Rank представляет один ранг в иерархии сообщества.
type Rank struct {
	// Name - имя ранга, уникальное внутри сообщества без учёта регистра.
	Name Name

	// RoleID - непрозрачный идентификатор внешней группы (роли),
	// связанной с рангом 1:1. Движок никогда не изменяет саму группу.
	RoleID shared.RoleID
}

// NewRank создаёт новый ранг с валидацией имени.
func NewRank(name Name, roleID shared.RoleID) (Rank, error) {
	if !name.IsValid() {
		return Rank{}, ErrInvalidRankName
	}
	return Rank{Name: name, RoleID: roleID}, nil
}

// String возвращает строковое представление ранга для логирования.
func (r Rank) String() string {
	return fmt.Sprintf("Rank{Name: %s, RoleID: %s}", r.Name, r.RoleID)
}

// ══════════════════════════════════════════════════════════════════════════════
// AGGREGATE: HIERARCHY
// ══════════════════════════════════════════════════════════════════════════════

// Hierarchy представляет упорядоченную иерархию рангов одного сообщества.
// Позиция ранга в списке и есть его tier: индекс 0 - низший ранг.
// Иерархия создаётся неявно при первой записи и может быть пустой -
// в этом случае машина состояний отклоняет все переходы.
type Hierarchy struct {
	// CommunityID - сообщество, которому принадлежит иерархия.
	CommunityID shared.CommunityID

	// Ranks - упорядоченный список рангов (низший первым).
	Ranks []Rank
}

// NewHierarchy создаёт пустую иерархию для указанного сообщества.
func NewHierarchy(communityID shared.CommunityID) (*Hierarchy, error) {
	if !communityID.IsValid() {
		return nil, ErrInvalidCommunityID
	}
	return &Hierarchy{
		CommunityID: communityID,
		Ranks:       make([]Rank, 0),
	}, nil
}

// Len возвращает количество рангов в иерархии.
func (h *Hierarchy) Len() int {
	return len(h.Ranks)
}

// IsEmpty возвращает true, если в иерархии нет рангов.
func (h *Hierarchy) IsEmpty() bool {
	return len(h.Ranks) == 0
}

// TierOf возвращает tier ранга по имени (без учёта регистра).
// Возвращает TierUnranked, если ранг не найден - в том числе для
// "висячих" ссылок на удалённые ранги.
func (h *Hierarchy) TierOf(name Name) Tier {
	normalized := name.Normalized()
	for i, r := range h.Ranks {
		if r.Name.Normalized() == normalized {
			return Tier(i)
		}
	}
	return TierUnranked
}

// Find возвращает ранг и его tier по имени (без учёта регистра).
func (h *Hierarchy) Find(name Name) (Rank, Tier, bool) {
	tier := h.TierOf(name)
	if !tier.IsRanked() {
		return Rank{}, TierUnranked, false
	}
	return h.Ranks[tier], tier, true
}

// At возвращает ранг на указанном tier.
func (h *Hierarchy) At(tier Tier) (Rank, bool) {
	if !tier.IsRanked() || int(tier) >= len(h.Ranks) {
		return Rank{}, false
	}
	return h.Ranks[tier], true
}

// Lowest возвращает низший ранг иерархии.
func (h *Hierarchy) Lowest() (Rank, bool) {
	return h.At(0)
}

// Highest возвращает высший ранг иерархии.
func (h *Hierarchy) Highest() (Rank, bool) {
	return h.At(Tier(len(h.Ranks) - 1))
}

// IsHighest возвращает true, если tier - вершина иерархии.
func (h *Hierarchy) IsHighest(tier Tier) bool {
	return tier.IsRanked() && int(tier) == len(h.Ranks)-1
}

// Contains проверяет наличие ранга с указанным именем.
func (h *Hierarchy) Contains(name Name) bool {
	return h.TierOf(name).IsRanked()
}

// Add вставляет новый ранг на указанную позицию.
// Позиция вне диапазона [0, len] означает добавление в конец -
// это контрактное поведение, а не ошибка: вызывающая сторона может
// передать -1, чтобы явно запросить добавление в конец.
// Возвращает ErrDuplicateRank при совпадении имени без учёта регистра.
func (h *Hierarchy) Add(r Rank, position int) error {
	if !r.Name.IsValid() {
		return ErrInvalidRankName
	}
	if h.Contains(r.Name) {
		return ErrDuplicateRank
	}

	if position < 0 || position > len(h.Ranks) {
		h.Ranks = append(h.Ranks, r)
		return nil
	}

	h.Ranks = append(h.Ranks, Rank{})
	copy(h.Ranks[position+1:], h.Ranks[position:])
	h.Ranks[position] = r
	return nil
}

// Remove удаляет ранг по имени (без учёта регистра) и возвращает его.
// Оставшиеся ранги сдвигаются: tier = индекс, пересчёт происходит сам собой.
// Возвращает ErrRankNotFound, если ранг не найден.
func (h *Hierarchy) Remove(name Name) (Rank, error) {
	tier := h.TierOf(name)
	if !tier.IsRanked() {
		return Rank{}, ErrRankNotFound
	}

	removed := h.Ranks[tier]
	h.Ranks = append(h.Ranks[:tier], h.Ranks[tier+1:]...)
	return removed, nil
}

// Replace полностью заменяет список рангов.
// Проверяет уникальность имён без учёта регистра.
func (h *Hierarchy) Replace(ranks []Rank) error {
	seen := make(map[string]struct{}, len(ranks))
	for _, r := range ranks {
		if !r.Name.IsValid() {
			return ErrInvalidRankName
		}
		key := r.Name.Normalized()
		if _, ok := seen[key]; ok {
			return ErrDuplicateRank
		}
		seen[key] = struct{}{}
	}

	h.Ranks = make([]Rank, len(ranks))
	copy(h.Ranks, ranks)
	return nil
}

// Clone создаёт глубокую копию иерархии.
func (h *Hierarchy) Clone() *Hierarchy {
	if h == nil {
		return nil
	}

	clone := &Hierarchy{
		CommunityID: h.CommunityID,
		Ranks:       make([]Rank, len(h.Ranks)),
	}
	copy(clone.Ranks, h.Ranks)
	return clone
}

// String возвращает строковое представление иерархии для логирования.
func (h *Hierarchy) String() string {
	names := make([]string, len(h.Ranks))
	for i, r := range h.Ranks {
		names[i] = r.Name.String()
	}
	return fmt.Sprintf("Hierarchy{Community: %s, Ranks: [%s]}", h.CommunityID, strings.Join(names, " < "))
}
