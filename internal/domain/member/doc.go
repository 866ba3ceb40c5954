// Package member содержит доменную модель участника сообщества и машину
// состояний его продвижения по иерархии рангов.
//
// Это ядро бизнес-логики системы "Guild Rank Hub". Пакет определяет:
//
//   - Сущности (Entities): Member, HistoryEntry
//   - Value Objects: TransitionKind, Transition
//   - Интерфейс репозитория: Repository
//
// # Машина состояний
//
// Участник находится либо в состоянии Unranked (записи нет или текущий
// ранг не резолвится), либо AtTier(i) для 0 <= i < len(ranks).
// Терминальных состояний нет: с вершины нельзя продвинуться дальше,
// но reset всегда возвращает в Unranked, удаляя запись целиком.
//
// Tier никогда не кешируется: каждый переход заново резолвит текущий
// ранг по имени в живой иерархии. Это делает машину устойчивой к
// параллельному редактированию иерархии - "висячая" ссылка на удалённый
// ранг обрабатывается явно, а не приводит к панике.
//
// # Переходы
//
// Promote поднимает участника на один tier (или на первый ранг, если
// участник без ранга либо его ранг удалён из иерархии). Demote опускает
// на один tier и требует валидного якоря: с "висячего" ранга безопасно
// спуститься некуда. SetRank перемещает на произвольный ранг без
// изменения счётчиков. Каждый успешный переход добавляет запись в
// историю; история append-only.
//
//	transition, err := m.Promote(hierarchy)
//	if err != nil {
//	    // ErrAlreadyAtMaxRank, ErrNoRanksConfigured, ...
//	}
//
// # Архитектурные принципы
//
//  1. Нулевые внешние зависимости - только стандартная библиотека Go
//  2. Dependency Inversion - интерфейс Repository реализуется в infrastructure
//  3. Rich Domain Model - переходы инкапсулированы в сущности Member
package member
