package rank

import (
	"context"

	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт для работы с хранилищем иерархий рангов.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над иерархиями рангов.
type Repository interface {
	// GetRanks возвращает иерархию сообщества.
	// Если для сообщества ещё ничего не сохранено, возвращает пустую
	// иерархию (первый запуск - не ошибка).
	GetRanks(ctx context.Context, communityID shared.CommunityID) (*Hierarchy, error)

	// SaveRanks сохраняет иерархию целиком (полная замена).
	// Запись атомарна в пределах одного сообщества.
	SaveRanks(ctx context.Context, hierarchy *Hierarchy) error

	// ListCommunities возвращает идентификаторы всех сообществ,
	// у которых есть сохранённая иерархия.
	ListCommunities(ctx context.Context) ([]shared.CommunityID, error)
}
