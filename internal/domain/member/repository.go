package member

import (
	"context"

	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// Контракт для работы с хранилищем записей участников.
// Реализации находятся в infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// Repository определяет операции над записями участников.
type Repository interface {
	// Get возвращает запись участника.
	// Возвращает ErrMemberNotFound, если записи нет.
	Get(ctx context.Context, communityID shared.CommunityID, memberID shared.MemberID) (*Member, error)

	// Save сохраняет запись участника целиком (создание или обновление).
	// Запись вместе с историей сохраняется атомарно: либо всё, либо ничего.
	Save(ctx context.Context, m *Member) error

	// Delete удаляет запись участника целиком (reset).
	// Возвращает ErrMemberNotFound, если записи нет.
	Delete(ctx context.Context, communityID shared.CommunityID, memberID shared.MemberID) error

	// ListByCommunity возвращает все записи сообщества в порядке создания.
	ListByCommunity(ctx context.Context, communityID shared.CommunityID) ([]*Member, error)

	// CountByCommunity возвращает количество записей в сообществе.
	CountByCommunity(ctx context.Context, communityID shared.CommunityID) (int, error)
}
