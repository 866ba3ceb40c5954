package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guild-hub/guild-rank-hub/internal/domain/member"
	"github.com/guild-hub/guild-rank-hub/internal/domain/rank"
	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

func newTestHierarchy(t *testing.T, names ...string) *rank.Hierarchy {
	t.Helper()

	h, err := rank.NewHierarchy("community-1")
	require.NoError(t, err)
	for _, name := range names {
		r, err := rank.NewRank(rank.Name(name), shared.RoleID("role-"+name))
		require.NoError(t, err)
		require.NoError(t, h.Add(r, -1))
	}
	return h
}

func newTestMember(t *testing.T, id, rankName string, promotions int) *member.Member {
	t.Helper()

	m, err := member.New("community-1", shared.MemberID(id), id)
	require.NoError(t, err)
	m.CurrentRank = rank.Name(rankName)
	m.PromotionCount = promotions
	return m
}

func TestBuild_OrdersByTierThenPromotions(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver", "Gold")

	members := []*member.Member{
		newTestMember(t, "alice", "Silver", 3),
		newTestMember(t, "bob", "Bronze", 10),
		newTestMember(t, "carol", "Gold", 1),
	}

	standings, err := Build(h, members, 0)
	require.NoError(t, err)
	require.Len(t, standings, 3)

	// Tier важнее счётчика продвижений
	assert.Equal(t, shared.MemberID("carol"), standings[0].Member.MemberID)
	assert.Equal(t, shared.MemberID("alice"), standings[1].Member.MemberID)
	assert.Equal(t, shared.MemberID("bob"), standings[2].Member.MemberID)

	assert.Equal(t, 1, standings[0].Position)
	assert.Equal(t, 2, standings[1].Position)
	assert.Equal(t, 3, standings[2].Position)
}

func TestBuild_TiesBreakByPromotionsThenCreationOrder(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver")

	members := []*member.Member{
		newTestMember(t, "first", "Silver", 2),
		newTestMember(t, "second", "Silver", 5),
		newTestMember(t, "third", "Silver", 2),
	}

	standings, err := Build(h, members, 0)
	require.NoError(t, err)
	require.Len(t, standings, 3)

	assert.Equal(t, shared.MemberID("second"), standings[0].Member.MemberID)
	// Полная ничья: порядок создания записей сохраняется
	assert.Equal(t, shared.MemberID("first"), standings[1].Member.MemberID)
	assert.Equal(t, shared.MemberID("third"), standings[2].Member.MemberID)
}

func TestBuild_DanglingAndUnrankedSortLast(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver")

	members := []*member.Member{
		newTestMember(t, "dangling", "Legacy", 50),
		newTestMember(t, "ranked", "Bronze", 0),
	}

	standings, err := Build(h, members, 0)
	require.NoError(t, err)
	require.Len(t, standings, 2)

	// Даже 50 продвижений не спасают "висячую" ссылку: tier -1 в конце
	assert.Equal(t, shared.MemberID("ranked"), standings[0].Member.MemberID)
	assert.Equal(t, shared.MemberID("dangling"), standings[1].Member.MemberID)
	assert.Equal(t, rank.TierUnranked, standings[1].Tier)
}

func TestBuild_Limit(t *testing.T) {
	h := newTestHierarchy(t, "Bronze")

	members := []*member.Member{
		newTestMember(t, "a", "Bronze", 3),
		newTestMember(t, "b", "Bronze", 2),
		newTestMember(t, "c", "Bronze", 1),
	}

	standings, err := Build(h, members, 2)
	require.NoError(t, err)
	require.Len(t, standings, 2)
	assert.Equal(t, shared.MemberID("a"), standings[0].Member.MemberID)

	// Limit больше количества участников просто не действует
	standings, err = Build(h, members, 100)
	require.NoError(t, err)
	assert.Len(t, standings, 3)

	// limit <= 0 означает "без ограничения"
	standings, err = Build(h, members, 0)
	require.NoError(t, err)
	assert.Len(t, standings, 3)
}

func TestBuild_EmptyHierarchy(t *testing.T) {
	h := newTestHierarchy(t)

	_, err := Build(h, nil, 0)
	assert.ErrorIs(t, err, member.ErrNoRanksConfigured)
}

func TestBuild_NilHierarchy(t *testing.T) {
	_, err := Build(nil, nil, 0)
	assert.ErrorIs(t, err, ErrNilHierarchy)
}

func TestBuild_NoMembers(t *testing.T) {
	h := newTestHierarchy(t, "Bronze")

	standings, err := Build(h, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, standings)
}

func TestEntriesFromStandings(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver")

	members := []*member.Member{
		newTestMember(t, "alice", "Silver", 4),
	}

	standings, err := Build(h, members, 0)
	require.NoError(t, err)

	entries := EntriesFromStandings(standings)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, shared.MemberID("alice"), entries[0].MemberID)
	assert.Equal(t, rank.Name("Silver"), entries[0].RankName)
	assert.Equal(t, rank.Tier(1), entries[0].Tier)
	assert.Equal(t, 4, entries[0].Promotions)
}

func TestComputeStats(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver")

	alice := newTestMember(t, "alice", "Silver", 3)
	alice.DemotionCount = 1
	bob := newTestMember(t, "bob", "Bronze", 1)
	dangling := newTestMember(t, "carol", "Legacy", 2)
	unranked := newTestMember(t, "dave", "", 0)

	stats, err := ComputeStats(h, []*member.Member{alice, bob, dangling, unranked})
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalMembers)
	assert.Equal(t, 2, stats.RankedMembers)
	assert.Equal(t, 1, stats.DanglingMembers)
	assert.Equal(t, 6, stats.TotalPromotions)
	assert.Equal(t, 1, stats.TotalDemotions)

	require.Len(t, stats.Distribution, 2)
	assert.Equal(t, rank.Name("Bronze"), stats.Distribution[0].Rank.Name)
	assert.Equal(t, 1, stats.Distribution[0].Members)
	assert.Equal(t, rank.Name("Silver"), stats.Distribution[1].Rank.Name)
	assert.Equal(t, 1, stats.Distribution[1].Members)
}

func TestComputeStats_EmptyHierarchyIsValid(t *testing.T) {
	h := newTestHierarchy(t)

	stats, err := ComputeStats(h, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalMembers)
	assert.Empty(t, stats.Distribution)
}

func TestComputeStats_NilHierarchy(t *testing.T) {
	_, err := ComputeStats(nil, nil)
	assert.ErrorIs(t, err, ErrNilHierarchy)
}
