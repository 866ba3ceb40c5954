// Package postgres implements PostgreSQL persistence for Guild Rank Hub.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HIERARCHY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// HierarchyRepository implements rank.Repository for PostgreSQL.
type HierarchyRepository struct {
	conn *Connection
}

// NewHierarchyRepository creates a new HierarchyRepository.
func NewHierarchyRepository(conn *Connection) *HierarchyRepository {
	return &HierarchyRepository{conn: conn}
}

// GetRanks returns the community's hierarchy ordered by tier.
// A community with no stored ranks gets an empty hierarchy, not an error.
func (r *HierarchyRepository) GetRanks(ctx context.Context, communityID shared.CommunityID) (*rank.Hierarchy, error) {
	if !communityID.IsValid() {
		return nil, rank.ErrInvalidCommunityID
	}

	query := `
		SELECT name, role_id
		FROM rank_hierarchies
		WHERE community_id = $1
		ORDER BY position ASC
	`

	rows, err := r.conn.Query(ctx, query, string(communityID))
	if err != nil {
		return nil, fmt.Errorf("failed to query hierarchy: %w", err)
	}
	defer rows.Close()

	hierarchy, err := rank.NewHierarchy(communityID)
	if err != nil {
		return nil, err
	}

	for rows.Next() {
		var name, roleID string
		if err := rows.Scan(&name, &roleID); err != nil {
			return nil, fmt.Errorf("failed to scan rank row: %w", err)
		}
		hierarchy.Ranks = append(hierarchy.Ranks, rank.Rank{
			Name:   rank.Name(name),
			RoleID: shared.RoleID(roleID),
		})
	}

	return hierarchy, rows.Err()
}

// SaveRanks replaces the community's hierarchy wholesale in one transaction.
func (r *HierarchyRepository) SaveRanks(ctx context.Context, hierarchy *rank.Hierarchy) error {
	if hierarchy == nil || !hierarchy.CommunityID.IsValid() {
		return rank.ErrInvalidCommunityID
	}

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			"DELETE FROM rank_hierarchies WHERE community_id = $1",
			string(hierarchy.CommunityID),
		)
		if err != nil {
			return fmt.Errorf("failed to clear hierarchy: %w", err)
		}

		for position, rnk := range hierarchy.Ranks {
			_, err := tx.Exec(ctx, `
				INSERT INTO rank_hierarchies (community_id, position, name, role_id)
				VALUES ($1, $2, $3, $4)
			`,
				string(hierarchy.CommunityID),
				position,
				rnk.Name.String(),
				rnk.RoleID.String(),
			)
			if err != nil {
				if IsUniqueViolation(err) {
					return rank.ErrDuplicateRank
				}
				return fmt.Errorf("failed to insert rank %q: %w", rnk.Name, err)
			}
		}

		return nil
	})
}

// ListCommunities returns all communities with at least one stored rank row.
func (r *HierarchyRepository) ListCommunities(ctx context.Context) ([]shared.CommunityID, error) {
	query := `
		SELECT DISTINCT community_id
		FROM rank_hierarchies
		ORDER BY community_id
	`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list communities: %w", err)
	}
	defer rows.Close()

	var ids []shared.CommunityID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan community id: %w", err)
		}
		ids = append(ids, shared.CommunityID(id))
	}

	return ids, rows.Err()
}

var _ rank.Repository = (*HierarchyRepository)(nil)
