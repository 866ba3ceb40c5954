// Package bolt implements embedded persistence on top of bbolt.
// It is the default durable backend for single-node deployments where
// running a Postgres instance is overkill: one file on disk, no daemon.
//
// Layout:
//
//	hierarchies/                -> community_id => JSON []rankRecord
//	members/<community_id>/     -> member_id    => JSON memberRecord
//
// Member records carry a monotonically increasing sequence number taken
// from the community bucket, so ListByCommunity can reconstruct creation
// order without a separate index.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/guild-hub/guild-rank-hub/internal/domain/member"
	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

var (
	bucketHierarchies = []byte("hierarchies")
	bucketMembers     = []byte("members")
)

// Store is an embedded store implementing both repository contracts.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the database file and prepares root buckets.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketHierarchies); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketMembers)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bolt: init buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}

// ══════════════════════════════════════════════════════════════════════════════
// SERIALIZATION RECORDS
// Domain types carry no storage tags; records are the storage schema.
// ══════════════════════════════════════════════════════════════════════════════

type rankRecord struct {
	Name   string `json:"name"`
	RoleID string `json:"role_id"`
}

type historyRecord struct {
	From      string    `json:"from,omitempty"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
}

type memberRecord struct {
	MemberID       string          `json:"member_id"`
	DisplayName    string          `json:"display_name"`
	CurrentRank    string          `json:"current_rank,omitempty"`
	PromotionCount int             `json:"promotion_count"`
	DemotionCount  int             `json:"demotion_count"`
	JoinedAt       time.Time       `json:"joined_at"`
	LastUpdated    time.Time       `json:"last_updated"`
	History        []historyRecord `json:"history"`
	Seq            uint64          `json:"seq"`
}

func encodeHierarchy(h *rank.Hierarchy) ([]byte, error) {
	records := make([]rankRecord, len(h.Ranks))
	for i, r := range h.Ranks {
		records[i] = rankRecord{Name: r.Name.String(), RoleID: r.RoleID.String()}
	}
	return json.Marshal(records)
}

func decodeHierarchy(communityID shared.CommunityID, data []byte) (*rank.Hierarchy, error) {
	var records []rankRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("bolt: decode hierarchy for %s: %w", communityID, err)
	}

	ranks := make([]rank.Rank, len(records))
	for i, rec := range records {
		ranks[i] = rank.Rank{Name: rank.Name(rec.Name), RoleID: shared.RoleID(rec.RoleID)}
	}
	return &rank.Hierarchy{CommunityID: communityID, Ranks: ranks}, nil
}

func encodeMember(m *member.Member, seq uint64) ([]byte, error) {
	rec := memberRecord{
		MemberID:       m.MemberID.String(),
		DisplayName:    m.DisplayName,
		CurrentRank:    m.CurrentRank.String(),
		PromotionCount: m.PromotionCount,
		DemotionCount:  m.DemotionCount,
		JoinedAt:       m.JoinedAt,
		LastUpdated:    m.LastUpdated,
		History:        make([]historyRecord, len(m.History)),
		Seq:            seq,
	}
	for i, h := range m.History {
		rec.History[i] = historyRecord{
			From:      h.From.String(),
			To:        h.To.String(),
			Timestamp: h.Timestamp,
			Kind:      string(h.Kind),
		}
	}
	return json.Marshal(rec)
}

func decodeMember(communityID shared.CommunityID, data []byte) (*member.Member, uint64, error) {
	var rec memberRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, 0, fmt.Errorf("bolt: decode member for %s: %w", communityID, err)
	}

	m := &member.Member{
		CommunityID:    communityID,
		MemberID:       shared.MemberID(rec.MemberID),
		DisplayName:    rec.DisplayName,
		CurrentRank:    rank.Name(rec.CurrentRank),
		PromotionCount: rec.PromotionCount,
		DemotionCount:  rec.DemotionCount,
		JoinedAt:       rec.JoinedAt,
		LastUpdated:    rec.LastUpdated,
		History:        make([]member.HistoryEntry, len(rec.History)),
	}
	for i, h := range rec.History {
		m.History[i] = member.HistoryEntry{
			From:      rank.Name(h.From),
			To:        rank.Name(h.To),
			Timestamp: h.Timestamp,
			Kind:      member.TransitionKind(h.Kind),
		}
	}
	return m, rec.Seq, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HIERARCHY REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// GetRanks returns the community's hierarchy, or an empty one if the
// community has never stored ranks.
func (s *Store) GetRanks(ctx context.Context, communityID shared.CommunityID) (*rank.Hierarchy, error) {
	if !communityID.IsValid() {
		return nil, rank.ErrInvalidCommunityID
	}

	var hierarchy *rank.Hierarchy
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketHierarchies).Get([]byte(communityID))
		if data == nil {
			var err error
			hierarchy, err = rank.NewHierarchy(communityID)
			return err
		}

		var err error
		hierarchy, err = decodeHierarchy(communityID, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return hierarchy, nil
}

// SaveRanks stores the hierarchy wholesale, replacing the previous one.
func (s *Store) SaveRanks(ctx context.Context, hierarchy *rank.Hierarchy) error {
	if hierarchy == nil || !hierarchy.CommunityID.IsValid() {
		return rank.ErrInvalidCommunityID
	}

	data, err := encodeHierarchy(hierarchy)
	if err != nil {
		return fmt.Errorf("bolt: encode hierarchy: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketHierarchies).Put([]byte(hierarchy.CommunityID), data)
	})
}

// ListCommunities returns all communities with a stored hierarchy.
func (s *Store) ListCommunities(ctx context.Context) ([]shared.CommunityID, error) {
	var ids []shared.CommunityID
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketHierarchies).ForEach(func(k, _ []byte) error {
			ids = append(ids, shared.CommunityID(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MEMBER REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// Get returns a member record or member.ErrMemberNotFound.
func (s *Store) Get(ctx context.Context, communityID shared.CommunityID, memberID shared.MemberID) (*member.Member, error) {
	var m *member.Member
	err := s.db.View(func(tx *bolt.Tx) error {
		community := tx.Bucket(bucketMembers).Bucket([]byte(communityID))
		if community == nil {
			return member.ErrMemberNotFound
		}

		data := community.Get([]byte(memberID))
		if data == nil {
			return member.ErrMemberNotFound
		}

		var err error
		m, _, err = decodeMember(communityID, data)
		return err
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Save upserts a member record. New records get the next sequence number
// of the community bucket; existing records keep theirs.
func (s *Store) Save(ctx context.Context, m *member.Member) error {
	if m == nil || !m.CommunityID.IsValid() {
		return rank.ErrInvalidCommunityID
	}
	if !m.MemberID.IsValid() {
		return member.ErrInvalidMemberID
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		community, err := tx.Bucket(bucketMembers).CreateBucketIfNotExists([]byte(m.CommunityID))
		if err != nil {
			return err
		}

		var seq uint64
		if existing := community.Get([]byte(m.MemberID)); existing != nil {
			if _, existingSeq, err := decodeMember(m.CommunityID, existing); err == nil {
				seq = existingSeq
			}
		}
		if seq == 0 {
			if seq, err = community.NextSequence(); err != nil {
				return err
			}
		}

		data, err := encodeMember(m, seq)
		if err != nil {
			return fmt.Errorf("bolt: encode member: %w", err)
		}
		return community.Put([]byte(m.MemberID), data)
	})
}

// Delete removes a member record entirely.
func (s *Store) Delete(ctx context.Context, communityID shared.CommunityID, memberID shared.MemberID) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		community := tx.Bucket(bucketMembers).Bucket([]byte(communityID))
		if community == nil || community.Get([]byte(memberID)) == nil {
			return member.ErrMemberNotFound
		}
		return community.Delete([]byte(memberID))
	})
}

// ListByCommunity returns the community's records in creation order.
func (s *Store) ListByCommunity(ctx context.Context, communityID shared.CommunityID) ([]*member.Member, error) {
	type ordered struct {
		m   *member.Member
		seq uint64
	}

	var records []ordered
	err := s.db.View(func(tx *bolt.Tx) error {
		community := tx.Bucket(bucketMembers).Bucket([]byte(communityID))
		if community == nil {
			return nil
		}
		return community.ForEach(func(_, v []byte) error {
			m, seq, err := decodeMember(communityID, v)
			if err != nil {
				return err
			}
			records = append(records, ordered{m: m, seq: seq})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(records, func(i, j int) bool { return records[i].seq < records[j].seq })

	members := make([]*member.Member, len(records))
	for i, rec := range records {
		members[i] = rec.m
	}
	return members, nil
}

// CountByCommunity returns the number of records in the community.
func (s *Store) CountByCommunity(ctx context.Context, communityID shared.CommunityID) (int, error) {
	count := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		community := tx.Bucket(bucketMembers).Bucket([]byte(communityID))
		if community == nil {
			return nil
		}
		count = community.Stats().KeyN
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Compile-time interface checks.
var (
	_ rank.Repository   = (*Store)(nil)
	_ member.Repository = (*Store)(nil)
)
