package member

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// TransitionKind определяет вид перехода между рангами.
type TransitionKind string

const (
	// KindPromotion - продвижение на один tier вверх.
	KindPromotion TransitionKind = "promotion"
	// KindDemotion - понижение на один tier вниз.
	KindDemotion TransitionKind = "demotion"
	// KindSet - прямая установка ранга без изменения счётчиков.
	KindSet TransitionKind = "set"
)

// IsValid проверяет, что вид перехода корректен.
func (k TransitionKind) IsValid() bool {
	switch k {
	case KindPromotion, KindDemotion, KindSet:
		return true
	default:
		return false
	}
}

// HistoryEntry представляет одну запись истории переходов.
// Записи только добавляются, никогда не изменяются и не удаляются.
// Порядок вставки = хронологический порядок.
type HistoryEntry struct {
	// From - имя ранга до перехода. Пустое значение означает,
	// что участник был без ранга.
	From rank.Name

	// To - имя ранга после перехода.
	To rank.Name

	// Timestamp - время перехода.
	Timestamp time.Time

	// Kind - вид перехода.
	Kind TransitionKind
}

// Transition описывает результат успешного перехода.
// Содержит идентификаторы внешних групп старого и нового ранга,
// чтобы вызывающая сторона могла синхронизировать членство в группах.
// Сам движок группы не трогает.
type Transition struct {
	// Kind - вид перехода.
	Kind TransitionKind

	// From - ранг до перехода. nil, если участник был без ранга
	// или его ранг отсутствовал в иерархии ("висячая" ссылка).
	From *rank.Rank

	// To - ранг после перехода.
	To rank.Rank

	// FromTier - tier до перехода (TierUnranked, если ранга не было).
	FromTier rank.Tier

	// ToTier - tier после перехода.
	ToTier rank.Tier
}

// OldRoleID возвращает идентификатор внешней группы старого ранга.
// Пустое значение, если старого ранга не было.
func (t *Transition) OldRoleID() shared.RoleID {
	if t.From == nil {
		return ""
	}
	return t.From.RoleID
}

// NewRoleID возвращает идентификатор внешней группы нового ранга.
func (t *Transition) NewRoleID() shared.RoleID {
	return t.To.RoleID
}

// ══════════════════════════════════════════════════════════════════════════════
// DOMAIN ERRORS
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrInvalidMemberID - невалидный идентификатор участника.
	ErrInvalidMemberID = errors.New("invalid member id")

	// ErrInvalidDisplayName - невалидное отображаемое имя.
	ErrInvalidDisplayName = errors.New("invalid display name: must be 1-100 chars")

	// ErrMemberNotFound - запись участника не найдена.
	ErrMemberNotFound = errors.New("member not found")

	// ErrNoRanksConfigured - в сообществе не настроен ни один ранг.
	ErrNoRanksConfigured = errors.New("no ranks configured for this community")

	// ErrAlreadyAtMaxRank - участник уже на высшем ранге.
	ErrAlreadyAtMaxRank = errors.New("member is already at the highest rank")

	// ErrAlreadyAtMinRank - участник уже на низшем ранге.
	ErrAlreadyAtMinRank = errors.New("member is already at the lowest rank")

	// ErrNoRankToDemoteFrom - участник без ранга, понижать не с чего.
	ErrNoRankToDemoteFrom = errors.New("member has no rank to demote from")

	// ErrRankNotInHierarchy - текущий ранг участника отсутствует в иерархии,
	// безопасно выбрать "предыдущий" tier невозможно.
	ErrRankNotInHierarchy = errors.New("member's current rank is not in the hierarchy")

	// ErrNoChange - участник уже находится на целевом ранге.
	ErrNoChange = errors.New("member already has this rank")
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN ENTITY: MEMBER
// ══════════════════════════════════════════════════════════════════════════════

// Member представляет запись участника сообщества.
// Запись создаётся лениво при первом переходе и удаляется целиком
// только через reset. Запись принадлежит ровно одному сообществу.
type Member struct {
	// CommunityID - сообщество, которому принадлежит запись.
	CommunityID shared.CommunityID

	// MemberID - идентификатор участника на платформе.
	MemberID shared.MemberID

	// DisplayName - отображаемое имя участника.
	DisplayName string

	// CurrentRank - имя текущего ранга. Пустое значение означает
	// отсутствие ранга. Имя может "повиснуть", если ранг позже
	// удалили из иерархии - это допустимое состояние.
	CurrentRank rank.Name

	// PromotionCount - количество продвижений за всё время.
	PromotionCount int

	// DemotionCount - количество понижений за всё время.
	DemotionCount int

	// JoinedAt - время создания записи.
	JoinedAt time.Time

	// LastUpdated - время последнего перехода.
	LastUpdated time.Time

	// History - упорядоченная история переходов (старые первыми).
	History []HistoryEntry
}

// New создаёт новую запись участника с валидацией полей.
func New(communityID shared.CommunityID, memberID shared.MemberID, displayName string) (*Member, error) {
	if !communityID.IsValid() {
		return nil, rank.ErrInvalidCommunityID
	}
	if !memberID.IsValid() {
		return nil, ErrInvalidMemberID
	}

	displayName = strings.TrimSpace(displayName)
	if len(displayName) == 0 || len(displayName) > 100 {
		return nil, ErrInvalidDisplayName
	}

	now := time.Now().UTC()

	return &Member{
		CommunityID: communityID,
		MemberID:    memberID,
		DisplayName: displayName,
		CurrentRank: "",
		JoinedAt:    now,
		LastUpdated: now,
		History:     make([]HistoryEntry, 0, 1),
	}, nil
}

// HasRank возвращает true, если у участника записан ранг
// (имя может при этом быть "висячим").
func (m *Member) HasRank() bool {
	return m.CurrentRank != ""
}

// TierIn резолвит текущий tier участника в указанной иерархии.
// Возвращает TierUnranked для участника без ранга и для "висячей" ссылки.
// Tier никогда не кешируется - только этот резолв на момент вызова.
func (m *Member) TierIn(h *rank.Hierarchy) rank.Tier {
	if !m.HasRank() {
		return rank.TierUnranked
	}
	return h.TierOf(m.CurrentRank)
}

// Rename обновляет отображаемое имя, если оно изменилось.
func (m *Member) Rename(displayName string) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" || displayName == m.DisplayName {
		return
	}
	m.DisplayName = displayName
}

// ─────────────────────────────────────────────────────────────────────────────
// State transitions
// ─────────────────────────────────────────────────────────────────────────────

// Promote поднимает участника на один tier вверх.
//
// Участник без ранга (или с "висячим" рангом) получает низший ранг
// иерархии. С высшего ранга продвижение невозможно. При пустой иерархии
// переход отклоняется без каких-либо изменений.
func (m *Member) Promote(h *rank.Hierarchy) (*Transition, error) {
	if h.IsEmpty() {
		return nil, ErrNoRanksConfigured
	}

	currentTier := m.TierIn(h)

	if !currentTier.IsRanked() {
		// Без ранга или "висячая" ссылка: начинаем с низшего ранга.
		// From остаётся пустым - старой группы, которую нужно снять,
		// у вызывающей стороны нет.
		first, _ := h.Lowest()
		return m.apply(KindPromotion, nil, first, rank.TierUnranked, 0), nil
	}

	if h.IsHighest(currentTier) {
		return nil, ErrAlreadyAtMaxRank
	}

	from, _ := h.At(currentTier)
	to, _ := h.At(currentTier + 1)
	return m.apply(KindPromotion, &from, to, currentTier, currentTier+1), nil
}

// Demote опускает участника на один tier вниз.
//
// Понижение требует валидного якоря: участник без ранга не понижается,
// а с "висячего" ранга безопасно выбрать "предыдущий" tier невозможно.
func (m *Member) Demote(h *rank.Hierarchy) (*Transition, error) {
	if h.IsEmpty() {
		return nil, ErrNoRanksConfigured
	}

	if !m.HasRank() {
		return nil, ErrNoRankToDemoteFrom
	}

	currentTier := m.TierIn(h)
	if !currentTier.IsRanked() {
		return nil, ErrRankNotInHierarchy
	}

	if currentTier == 0 {
		return nil, ErrAlreadyAtMinRank
	}

	from, _ := h.At(currentTier)
	to, _ := h.At(currentTier - 1)
	return m.apply(KindDemotion, &from, to, currentTier, currentTier-1), nil
}

// SetRank напрямую устанавливает участнику указанный ранг.
//
// Счётчики продвижений и понижений не изменяются - переход только
// перемещает участника и записывается в историю с видом "set".
func (m *Member) SetRank(h *rank.Hierarchy, target rank.Name) (*Transition, error) {
	if h.IsEmpty() {
		return nil, ErrNoRanksConfigured
	}

	to, toTier, found := h.Find(target)
	if !found {
		return nil, rank.ErrRankNotFound
	}

	if m.HasRank() && m.CurrentRank.Equals(to.Name) {
		return nil, ErrNoChange
	}

	currentTier := m.TierIn(h)
	var from *rank.Rank
	if currentTier.IsRanked() {
		r, _ := h.At(currentTier)
		from = &r
	}

	return m.apply(KindSet, from, to, currentTier, toTier), nil
}

// apply фиксирует переход: обновляет текущий ранг, счётчики и историю.
func (m *Member) apply(kind TransitionKind, from *rank.Rank, to rank.Rank, fromTier, toTier rank.Tier) *Transition {
	now := time.Now().UTC()

	var fromName rank.Name
	if from != nil {
		fromName = from.Name
	}

	m.CurrentRank = to.Name
	m.LastUpdated = now

	switch kind {
	case KindPromotion:
		m.PromotionCount++
	case KindDemotion:
		m.DemotionCount++
	}

	m.History = append(m.History, HistoryEntry{
		From:      fromName,
		To:        to.Name,
		Timestamp: now,
		Kind:      kind,
	})

	return &Transition{
		Kind:     kind,
		From:     from,
		To:       to,
		FromTier: fromTier,
		ToTier:   toTier,
	}
}

// String возвращает строковое представление участника для логирования.
func (m *Member) String() string {
	return fmt.Sprintf(
		"Member{Community: %s, ID: %s, Rank: %q, Promotions: %d, Demotions: %d}",
		m.CommunityID, m.MemberID, m.CurrentRank, m.PromotionCount, m.DemotionCount,
	)
}

// Clone создаёт глубокую копию записи участника.
func (m *Member) Clone() *Member {
	if m == nil {
		return nil
	}

	clone := *m
	clone.History = make([]HistoryEntry, len(m.History))
	copy(clone.History, m.History)
	return &clone
}
