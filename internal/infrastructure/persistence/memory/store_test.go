package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guild-hub/guild-rank-hub/internal/domain/member"
	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

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

func TestHierarchyRepository_FirstUseReturnsEmpty(t *testing.T) {
	repo := NewHierarchyRepository()

	h, err := repo.GetRanks(context.Background(), "unknown")
	require.NoError(t, err)
	assert.True(t, h.IsEmpty())
	assert.Equal(t, shared.CommunityID("unknown"), h.CommunityID)
}

func TestHierarchyRepository_SaveAndGet(t *testing.T) {
	repo := NewHierarchyRepository()
	ctx := context.Background()

	h := newHierarchy(t, "community-1", "Bronze", "Silver")
	require.NoError(t, repo.SaveRanks(ctx, h))

	loaded, err := repo.GetRanks(ctx, "community-1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Len())
	assert.Equal(t, rank.Tier(1), loaded.TierOf("Silver"))
}

func TestHierarchyRepository_GetReturnsCopy(t *testing.T) {
	repo := NewHierarchyRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveRanks(ctx, newHierarchy(t, "community-1", "Bronze")))

	loaded, err := repo.GetRanks(ctx, "community-1")
	require.NoError(t, err)
	_, err = loaded.Remove("Bronze")
	require.NoError(t, err)

	// Мутация копии не протекает в хранилище
	again, err := repo.GetRanks(ctx, "community-1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Len())
}

func TestHierarchyRepository_SaveInvalid(t *testing.T) {
	repo := NewHierarchyRepository()

	err := repo.SaveRanks(context.Background(), nil)
	assert.ErrorIs(t, err, rank.ErrInvalidCommunityID)
}

func TestHierarchyRepository_ListCommunities(t *testing.T) {
	repo := NewHierarchyRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveRanks(ctx, newHierarchy(t, "b-community", "Bronze")))
	require.NoError(t, repo.SaveRanks(ctx, newHierarchy(t, "a-community", "Bronze")))

	ids, err := repo.ListCommunities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []shared.CommunityID{"a-community", "b-community"}, ids)
}

func TestMemberRepository_GetNotFound(t *testing.T) {
	repo := NewMemberRepository()

	_, err := repo.Get(context.Background(), "community-1", "nobody")
	assert.ErrorIs(t, err, member.ErrMemberNotFound)
}

func TestMemberRepository_SaveAndGet(t *testing.T) {
	repo := NewMemberRepository()
	ctx := context.Background()

	m := newMember(t, "community-1", "alice")
	m.CurrentRank = "Bronze"
	m.PromotionCount = 2
	require.NoError(t, repo.Save(ctx, m))

	loaded, err := repo.Get(ctx, "community-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, rank.Name("Bronze"), loaded.CurrentRank)
	assert.Equal(t, 2, loaded.PromotionCount)
}

func TestMemberRepository_GetReturnsCopy(t *testing.T) {
	repo := NewMemberRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newMember(t, "community-1", "alice")))

	loaded, err := repo.Get(ctx, "community-1", "alice")
	require.NoError(t, err)
	loaded.PromotionCount = 99

	again, err := repo.Get(ctx, "community-1", "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, again.PromotionCount)
}

func TestMemberRepository_ListByCommunity_CreationOrder(t *testing.T) {
	repo := NewMemberRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newMember(t, "community-1", "carol")))
	require.NoError(t, repo.Save(ctx, newMember(t, "community-1", "alice")))
	require.NoError(t, repo.Save(ctx, newMember(t, "community-1", "bob")))

	// Повторное сохранение не меняет порядок создания
	carol := newMember(t, "community-1", "carol")
	carol.PromotionCount = 5
	require.NoError(t, repo.Save(ctx, carol))

	members, err := repo.ListByCommunity(ctx, "community-1")
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, shared.MemberID("carol"), members[0].MemberID)
	assert.Equal(t, shared.MemberID("alice"), members[1].MemberID)
	assert.Equal(t, shared.MemberID("bob"), members[2].MemberID)
	assert.Equal(t, 5, members[0].PromotionCount)
}

func TestMemberRepository_CommunityIsolation(t *testing.T) {
	repo := NewMemberRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newMember(t, "community-1", "alice")))
	require.NoError(t, repo.Save(ctx, newMember(t, "community-2", "alice")))

	members, err := repo.ListByCommunity(ctx, "community-1")
	require.NoError(t, err)
	assert.Len(t, members, 1)

	count, err := repo.CountByCommunity(ctx, "community-2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMemberRepository_Delete(t *testing.T) {
	repo := NewMemberRepository()
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, newMember(t, "community-1", "alice")))
	require.NoError(t, repo.Save(ctx, newMember(t, "community-1", "bob")))

	require.NoError(t, repo.Delete(ctx, "community-1", "alice"))

	_, err := repo.Get(ctx, "community-1", "alice")
	assert.ErrorIs(t, err, member.ErrMemberNotFound)

	members, err := repo.ListByCommunity(ctx, "community-1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, shared.MemberID("bob"), members[0].MemberID)

	// Повторное удаление - not found
	assert.ErrorIs(t, repo.Delete(ctx, "community-1", "alice"), member.ErrMemberNotFound)
}

func TestMemberRepository_CountByCommunity(t *testing.T) {
	repo := NewMemberRepository()
	ctx := context.Background()

	count, err := repo.CountByCommunity(ctx, "community-1")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	require.NoError(t, repo.Save(ctx, newMember(t, "community-1", "alice")))
	require.NoError(t, repo.Save(ctx, newMember(t, "community-1", "bob")))

	count, err = repo.CountByCommunity(ctx, "community-1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
