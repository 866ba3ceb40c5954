package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guild-hub/guild-rank-hub/internal/domain/member"
	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func newHierarchy(t *testing.T, communityID string, names ...string) *rank.Hierarchy {
	t.Helper()

	h, err := rank.NewHierarchy(shared.CommunityID(communityID))
	require.NoError(t, err)
	for _, name := range names {
		r, err := rank.NewRank(rank.Name(name), shared.RoleID("role-"+name))
		require.NoError(t, err)
		require.NoError(t, h.Add(r, -1))
	}
	return h
}

func newMember(t *testing.T, communityID, memberID string) *member.Member {
	t.Helper()

	m, err := member.New(shared.CommunityID(communityID), shared.MemberID(memberID), memberID)
	require.NoError(t, err)
	return m
}

func TestStore_HierarchyRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRanks(ctx, newHierarchy(t, "community-1", "Bronze", "Silver", "Gold")))

	loaded, err := store.GetRanks(ctx, "community-1")
	require.NoError(t, err)
	require.Equal(t, 3, loaded.Len())
	assert.Equal(t, rank.Tier(0), loaded.TierOf("Bronze"))
	assert.Equal(t, rank.Tier(2), loaded.TierOf("Gold"))

	r, _, found := loaded.Find("Silver")
	require.True(t, found)
	assert.Equal(t, shared.RoleID("role-Silver"), r.RoleID)
}

func TestStore_GetRanks_FirstUseReturnsEmpty(t *testing.T) {
	store := openTestStore(t)

	h, err := store.GetRanks(context.Background(), "unknown")
	require.NoError(t, err)
	assert.True(t, h.IsEmpty())
}

func TestStore_ListCommunities(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRanks(ctx, newHierarchy(t, "b-community", "Bronze")))
	require.NoError(t, store.SaveRanks(ctx, newHierarchy(t, "a-community", "Bronze")))

	ids, err := store.ListCommunities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []shared.CommunityID{"a-community", "b-community"}, ids)
}

func TestStore_MemberRoundTrip(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	h := newHierarchy(t, "community-1", "Bronze", "Silver")
	m := newMember(t, "community-1", "alice")
	_, err := m.Promote(h)
	require.NoError(t, err)
	_, err = m.Promote(h)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, m))

	loaded, err := store.Get(ctx, "community-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, rank.Name("Silver"), loaded.CurrentRank)
	assert.Equal(t, 2, loaded.PromotionCount)
	require.Len(t, loaded.History, 2)
	assert.Equal(t, member.KindPromotion, loaded.History[0].Kind)
	assert.Equal(t, rank.Name("Bronze"), loaded.History[0].To)
	assert.Equal(t, rank.Name("Silver"), loaded.History[1].To)
}

func TestStore_Get_NotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "community-1", "nobody")
	assert.ErrorIs(t, err, member.ErrMemberNotFound)
}

func TestStore_ListByCommunity_CreationOrderSurvivesUpdates(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newMember(t, "community-1", "carol")))
	require.NoError(t, store.Save(ctx, newMember(t, "community-1", "alice")))
	require.NoError(t, store.Save(ctx, newMember(t, "community-1", "bob")))

	// Обновление записи не двигает её в порядке создания
	carol, err := store.Get(ctx, "community-1", "carol")
	require.NoError(t, err)
	carol.PromotionCount = 5
	require.NoError(t, store.Save(ctx, carol))

	members, err := store.ListByCommunity(ctx, "community-1")
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, shared.MemberID("carol"), members[0].MemberID)
	assert.Equal(t, shared.MemberID("alice"), members[1].MemberID)
	assert.Equal(t, shared.MemberID("bob"), members[2].MemberID)
	assert.Equal(t, 5, members[0].PromotionCount)
}

func TestStore_CommunityIsolation(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newMember(t, "community-1", "alice")))
	require.NoError(t, store.Save(ctx, newMember(t, "community-2", "alice")))

	count, err := store.CountByCommunity(ctx, "community-1")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	members, err := store.ListByCommunity(ctx, "community-2")
	require.NoError(t, err)
	assert.Len(t, members, 1)
}

func TestStore_Delete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, newMember(t, "community-1", "alice")))
	require.NoError(t, store.Delete(ctx, "community-1", "alice"))

	_, err := store.Get(ctx, "community-1", "alice")
	assert.ErrorIs(t, err, member.ErrMemberNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "community-1", "alice"), member.ErrMemberNotFound)
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.SaveRanks(ctx, newHierarchy(t, "community-1", "Bronze")))
	require.NoError(t, store.Save(ctx, newMember(t, "community-1", "alice")))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	h, err := reopened.GetRanks(ctx, "community-1")
	require.NoError(t, err)
	assert.Equal(t, 1, h.Len())

	m, err := reopened.Get(ctx, "community-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, shared.MemberID("alice"), m.MemberID)
}
