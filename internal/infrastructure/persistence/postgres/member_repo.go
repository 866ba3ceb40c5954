// Package postgres implements PostgreSQL persistence for Guild Rank Hub.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/guild-hub/guild-rank-hub/internal/domain/member"
	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MemberRepository implements member.Repository for PostgreSQL.
// Transition history is stored as a JSONB array on the member row:
// it is append-only, read back wholesale, and never queried by field.
type MemberRepository struct {
	conn *Connection
}

// NewMemberRepository creates a new MemberRepository.
func NewMemberRepository(conn *Connection) *MemberRepository {
	return &MemberRepository{conn: conn}
}

// historyEntryJSON mirrors member.HistoryEntry for JSONB storage.
type historyEntryJSON struct {
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
}

// Get returns a member record or member.ErrMemberNotFound.
func (r *MemberRepository) Get(ctx context.Context, communityID shared.CommunityID, memberID shared.MemberID) (*member.Member, error) {
	query := `
		SELECT community_id, member_id, display_name, current_rank,
			   promotion_count, demotion_count, joined_at, last_updated, history
		FROM members
		WHERE community_id = $1 AND member_id = $2
	`

	row := r.conn.QueryRow(ctx, query, string(communityID), string(memberID))
	return r.scanMember(row)
}

// Save upserts a member record. seq is assigned on first insert and
// preserved by the conflict clause afterwards.
func (r *MemberRepository) Save(ctx context.Context, m *member.Member) error {
	if m == nil || !m.CommunityID.IsValid() {
		return rank.ErrInvalidCommunityID
	}
	if !m.MemberID.IsValid() {
		return member.ErrInvalidMemberID
	}

	historyJSON, err := marshalHistory(m.History)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	query := `
		INSERT INTO members (
			community_id, member_id, display_name, current_rank,
			promotion_count, demotion_count, joined_at, last_updated, history
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (community_id, member_id) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			current_rank = EXCLUDED.current_rank,
			promotion_count = EXCLUDED.promotion_count,
			demotion_count = EXCLUDED.demotion_count,
			last_updated = EXCLUDED.last_updated,
			history = EXCLUDED.history
	`

	_, err = r.conn.Exec(ctx, query,
		string(m.CommunityID),
		string(m.MemberID),
		m.DisplayName,
		m.CurrentRank.String(),
		m.PromotionCount,
		m.DemotionCount,
		m.JoinedAt,
		m.LastUpdated,
		historyJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save member: %w", err)
	}

	return nil
}

// Delete removes a member record entirely.
func (r *MemberRepository) Delete(ctx context.Context, communityID shared.CommunityID, memberID shared.MemberID) error {
	result, err := r.conn.Exec(ctx,
		"DELETE FROM members WHERE community_id = $1 AND member_id = $2",
		string(communityID),
		string(memberID),
	)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}

	if result.RowsAffected() == 0 {
		return member.ErrMemberNotFound
	}

	return nil
}

// ListByCommunity returns the community's records in creation order.
func (r *MemberRepository) ListByCommunity(ctx context.Context, communityID shared.CommunityID) ([]*member.Member, error) {
	query := `
		SELECT community_id, member_id, display_name, current_rank,
			   promotion_count, demotion_count, joined_at, last_updated, history
		FROM members
		WHERE community_id = $1
		ORDER BY seq ASC
	`

	rows, err := r.conn.Query(ctx, query, string(communityID))
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []*member.Member
	for rows.Next() {
		m, err := r.scanMemberFromRows(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	return members, rows.Err()
}

// CountByCommunity returns the number of records in the community.
func (r *MemberRepository) CountByCommunity(ctx context.Context, communityID shared.CommunityID) (int, error) {
	var count int
	err := r.conn.QueryRow(ctx,
		"SELECT COUNT(*) FROM members WHERE community_id = $1",
		string(communityID),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return count, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Scan helpers
// ──────────────────────────────────────────────────────────────────────────────

func (r *MemberRepository) scanMember(row pgx.Row) (*member.Member, error) {
	var m member.Member
	var communityID, memberID, currentRank string
	var historyJSON []byte

	err := row.Scan(
		&communityID,
		&memberID,
		&m.DisplayName,
		&currentRank,
		&m.PromotionCount,
		&m.DemotionCount,
		&m.JoinedAt,
		&m.LastUpdated,
		&historyJSON,
	)

	if IsNoRows(err) {
		return nil, member.ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}

	m.CommunityID = shared.CommunityID(communityID)
	m.MemberID = shared.MemberID(memberID)
	m.CurrentRank = rank.Name(currentRank)
	m.History, err = unmarshalHistory(historyJSON)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func (r *MemberRepository) scanMemberFromRows(rows pgx.Rows) (*member.Member, error) {
	var m member.Member
	var communityID, memberID, currentRank string
	var historyJSON []byte

	err := rows.Scan(
		&communityID,
		&memberID,
		&m.DisplayName,
		&currentRank,
		&m.PromotionCount,
		&m.DemotionCount,
		&m.JoinedAt,
		&m.LastUpdated,
		&historyJSON,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan member: %w", err)
	}

	m.CommunityID = shared.CommunityID(communityID)
	m.MemberID = shared.MemberID(memberID)
	m.CurrentRank = rank.Name(currentRank)
	m.History, err = unmarshalHistory(historyJSON)
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func marshalHistory(history []member.HistoryEntry) ([]byte, error) {
	entries := make([]historyEntryJSON, len(history))
	for i, h := range history {
		entries[i] = historyEntryJSON{
			From:      h.From.String(),
			To:        h.To.String(),
			Timestamp: h.Timestamp,
			Kind:      string(h.Kind),
		}
	}
	return json.Marshal(entries)
}

func unmarshalHistory(data []byte) ([]member.HistoryEntry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []historyEntryJSON
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}

	history := make([]member.HistoryEntry, len(entries))
	for i, e := range entries {
		history[i] = member.HistoryEntry{
			From:      rank.Name(e.From),
			To:        rank.Name(e.To),
			Timestamp: e.Timestamp,
			Kind:      member.TransitionKind(e.Kind),
		}
	}
	return history, nil
}

var _ member.Repository = (*MemberRepository)(nil)
