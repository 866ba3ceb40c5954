package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guild-hub/guild-rank-hub/internal/domain/shared"
)

func TestName_IsValid(t *testing.T) {
	assert.True(t, Name("Bronze").IsValid())
	assert.True(t, Name("a").IsValid())
	assert.False(t, Name("").IsValid())
	assert.False(t, Name("   ").IsValid())

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'x'
	}
	assert.False(t, Name(long).IsValid())
}

func TestName_Equals(t *testing.T) {
	assert.True(t, Name("Bronze").Equals(Name("bronze")))
	assert.True(t, Name("BRONZE").Equals(Name("  bronze  ")))
	assert.False(t, Name("Bronze").Equals(Name("Silver")))
}

func TestNewRank_Validation(t *testing.T) {
	r, err := NewRank("Bronze", "role-1")
	require.NoError(t, err)
	assert.Equal(t, Name("Bronze"), r.Name)
	assert.Equal(t, shared.RoleID("role-1"), r.RoleID)

	_, err = NewRank("", "role-1")
	assert.ErrorIs(t, err, ErrInvalidRankName)
}

func newTestHierarchy(t *testing.T, names ...string) *Hierarchy {
	t.Helper()

	h, err := NewHierarchy("community-1")
	require.NoError(t, err)
	for i, name := range names {
		r, err := NewRank(Name(name), shared.RoleID("role-"+name))
		require.NoError(t, err)
		require.NoError(t, h.Add(r, i))
	}
	return h
}

func TestNewHierarchy(t *testing.T) {
	h, err := NewHierarchy("community-1")
	require.NoError(t, err)
	assert.True(t, h.IsEmpty())
	assert.Equal(t, 0, h.Len())

	_, err = NewHierarchy("")
	assert.ErrorIs(t, err, ErrInvalidCommunityID)
}

func TestHierarchy_TierOf(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver", "Gold")

	assert.Equal(t, Tier(0), h.TierOf("Bronze"))
	assert.Equal(t, Tier(1), h.TierOf("silver"))
	assert.Equal(t, Tier(2), h.TierOf("  GOLD  "))
	assert.Equal(t, TierUnranked, h.TierOf("Platinum"))
}

func TestHierarchy_Find(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver")

	r, tier, found := h.Find("SILVER")
	require.True(t, found)
	assert.Equal(t, Name("Silver"), r.Name)
	assert.Equal(t, Tier(1), tier)

	_, tier, found = h.Find("Gold")
	assert.False(t, found)
	assert.Equal(t, TierUnranked, tier)
}

func TestHierarchy_LowestHighest(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver", "Gold")

	lowest, ok := h.Lowest()
	require.True(t, ok)
	assert.Equal(t, Name("Bronze"), lowest.Name)

	highest, ok := h.Highest()
	require.True(t, ok)
	assert.Equal(t, Name("Gold"), highest.Name)

	assert.True(t, h.IsHighest(2))
	assert.False(t, h.IsHighest(1))
	assert.False(t, h.IsHighest(TierUnranked))

	empty := newTestHierarchy(t)
	_, ok = empty.Lowest()
	assert.False(t, ok)
	_, ok = empty.Highest()
	assert.False(t, ok)
}

func TestHierarchy_Add_AtPosition(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Gold")

	silver, err := NewRank("Silver", "role-Silver")
	require.NoError(t, err)
	require.NoError(t, h.Add(silver, 1))

	assert.Equal(t, Tier(0), h.TierOf("Bronze"))
	assert.Equal(t, Tier(1), h.TierOf("Silver"))
	assert.Equal(t, Tier(2), h.TierOf("Gold"))
}

func TestHierarchy_Add_OutOfRangeAppends(t *testing.T) {
	h := newTestHierarchy(t, "Bronze")

	silver, err := NewRank("Silver", "role-Silver")
	require.NoError(t, err)
	require.NoError(t, h.Add(silver, -1))
	assert.Equal(t, Tier(1), h.TierOf("Silver"))

	gold, err := NewRank("Gold", "role-Gold")
	require.NoError(t, err)
	require.NoError(t, h.Add(gold, 99))
	assert.Equal(t, Tier(2), h.TierOf("Gold"))
}

func TestHierarchy_Add_DuplicateCaseInsensitive(t *testing.T) {
	h := newTestHierarchy(t, "Bronze")

	dup, err := NewRank("BRONZE", "role-other")
	require.NoError(t, err)
	assert.ErrorIs(t, h.Add(dup, -1), ErrDuplicateRank)
	assert.Equal(t, 1, h.Len())
}

func TestHierarchy_Remove(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver", "Gold")

	removed, err := h.Remove("silver")
	require.NoError(t, err)
	assert.Equal(t, Name("Silver"), removed.Name)

	// Оставшиеся ранги сдвигаются: tier пересчитывается сам собой
	assert.Equal(t, Tier(0), h.TierOf("Bronze"))
	assert.Equal(t, Tier(1), h.TierOf("Gold"))
	assert.Equal(t, TierUnranked, h.TierOf("Silver"))

	_, err = h.Remove("Silver")
	assert.ErrorIs(t, err, ErrRankNotFound)
}

func TestHierarchy_Replace(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver")

	err := h.Replace([]Rank{
		{Name: "Recruit", RoleID: "role-r"},
		{Name: "Veteran", RoleID: "role-v"},
		{Name: "Elite", RoleID: "role-e"},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, Tier(0), h.TierOf("Recruit"))

	err = h.Replace([]Rank{
		{Name: "Alpha", RoleID: "role-a"},
		{Name: "alpha", RoleID: "role-b"},
	})
	assert.ErrorIs(t, err, ErrDuplicateRank)
	// Неудачная замена не трогает иерархию
	assert.Equal(t, 3, h.Len())

	require.NoError(t, h.Replace(nil))
	assert.True(t, h.IsEmpty())
}

func TestHierarchy_Clone(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver")

	clone := h.Clone()
	require.NotNil(t, clone)

	_, err := clone.Remove("Bronze")
	require.NoError(t, err)

	assert.Equal(t, 2, h.Len())
	assert.Equal(t, 1, clone.Len())
}

func TestTier_IsRanked(t *testing.T) {
	assert.True(t, Tier(0).IsRanked())
	assert.True(t, Tier(5).IsRanked())
	assert.False(t, TierUnranked.IsRanked())
}
