package member

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func newTestMember(t *testing.T) *Member {
	t.Helper()

	m, err := New("community-1", "member-1", "Alice")
	require.NoError(t, err)
	return m
}

func TestNew_Validation(t *testing.T) {
	m, err := New("community-1", "member-1", "  Alice  ")
	require.NoError(t, err)
	assert.Equal(t, "Alice", m.DisplayName)
	assert.False(t, m.HasRank())
	assert.Empty(t, m.History)

	_, err = New("", "member-1", "Alice")
	assert.ErrorIs(t, err, rank.ErrInvalidCommunityID)

	_, err = New("community-1", "", "Alice")
	assert.ErrorIs(t, err, ErrInvalidMemberID)

	_, err = New("community-1", "member-1", "   ")
	assert.ErrorIs(t, err, ErrInvalidDisplayName)
}

func TestMember_Rename(t *testing.T) {
	m := newTestMember(t)

	m.Rename("Alicia")
	assert.Equal(t, "Alicia", m.DisplayName)

	// Пустое имя игнорируется
	m.Rename("   ")
	assert.Equal(t, "Alicia", m.DisplayName)
}

func TestPromote_UnrankedStartsAtLowest(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver", "Gold")
	m := newTestMember(t)

	tr, err := m.Promote(h)
	require.NoError(t, err)

	assert.Equal(t, KindPromotion, tr.Kind)
	assert.Nil(t, tr.From)
	assert.Equal(t, rank.Name("Bronze"), tr.To.Name)
	assert.Equal(t, rank.TierUnranked, tr.FromTier)
	assert.Equal(t, rank.Tier(0), tr.ToTier)
	assert.Equal(t, shared.RoleID(""), tr.OldRoleID())
	assert.Equal(t, shared.RoleID("role-Bronze"), tr.NewRoleID())

	assert.Equal(t, rank.Name("Bronze"), m.CurrentRank)
	assert.Equal(t, 1, m.PromotionCount)
	require.Len(t, m.History, 1)
	assert.Equal(t, rank.Name(""), m.History[0].From)
	assert.Equal(t, rank.Name("Bronze"), m.History[0].To)
}

func TestPromote_StepsOneTierUp(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver", "Gold")
	m := newTestMember(t)
	m.CurrentRank = "Bronze"

	tr, err := m.Promote(h)
	require.NoError(t, err)

	require.NotNil(t, tr.From)
	assert.Equal(t, rank.Name("Bronze"), tr.From.Name)
	assert.Equal(t, rank.Name("Silver"), tr.To.Name)
	assert.Equal(t, rank.Tier(0), tr.FromTier)
	assert.Equal(t, rank.Tier(1), tr.ToTier)
	assert.Equal(t, 1, m.PromotionCount)
}

func TestPromote_AtMaxRank(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver")
	m := newTestMember(t)
	m.CurrentRank = "Silver"

	_, err := m.Promote(h)
	assert.ErrorIs(t, err, ErrAlreadyAtMaxRank)
	assert.Equal(t, 0, m.PromotionCount)
	assert.Empty(t, m.History)
}

func TestPromote_EmptyHierarchy(t *testing.T) {
	h := newTestHierarchy(t)
	m := newTestMember(t)

	_, err := m.Promote(h)
	assert.ErrorIs(t, err, ErrNoRanksConfigured)
	assert.False(t, m.HasRank())
}

func TestPromote_DanglingRankRestartsAtLowest(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver")
	m := newTestMember(t)
	m.CurrentRank = "Legacy" // ранг, удалённый из иерархии

	tr, err := m.Promote(h)
	require.NoError(t, err)

	assert.Nil(t, tr.From)
	assert.Equal(t, rank.Name("Bronze"), tr.To.Name)
	assert.Equal(t, rank.TierUnranked, tr.FromTier)
}

func TestDemote_StepsOneTierDown(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver", "Gold")
	m := newTestMember(t)
	m.CurrentRank = "Gold"

	tr, err := m.Demote(h)
	require.NoError(t, err)

	assert.Equal(t, KindDemotion, tr.Kind)
	require.NotNil(t, tr.From)
	assert.Equal(t, rank.Name("Gold"), tr.From.Name)
	assert.Equal(t, rank.Name("Silver"), tr.To.Name)
	assert.Equal(t, rank.Tier(2), tr.FromTier)
	assert.Equal(t, rank.Tier(1), tr.ToTier)
	assert.Equal(t, 1, m.DemotionCount)
	assert.Equal(t, 0, m.PromotionCount)
}

func TestDemote_Unranked(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver")
	m := newTestMember(t)

	_, err := m.Demote(h)
	assert.ErrorIs(t, err, ErrNoRankToDemoteFrom)
}

func TestDemote_DanglingRank(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver")
	m := newTestMember(t)
	m.CurrentRank = "Legacy"

	_, err := m.Demote(h)
	assert.ErrorIs(t, err, ErrRankNotInHierarchy)
	// Запись не изменилась: "висячий" ранг остался на месте
	assert.Equal(t, rank.Name("Legacy"), m.CurrentRank)
	assert.Equal(t, 0, m.DemotionCount)
}

func TestDemote_AtMinRank(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver")
	m := newTestMember(t)
	m.CurrentRank = "Bronze"

	_, err := m.Demote(h)
	assert.ErrorIs(t, err, ErrAlreadyAtMinRank)
}

func TestDemote_EmptyHierarchy(t *testing.T) {
	h := newTestHierarchy(t)
	m := newTestMember(t)
	m.CurrentRank = "Bronze"

	_, err := m.Demote(h)
	assert.ErrorIs(t, err, ErrNoRanksConfigured)
}

func TestSetRank_MovesWithoutCounters(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver", "Gold")
	m := newTestMember(t)
	m.CurrentRank = "Bronze"

	tr, err := m.SetRank(h, "gold")
	require.NoError(t, err)

	assert.Equal(t, KindSet, tr.Kind)
	assert.Equal(t, rank.Name("Gold"), tr.To.Name)
	assert.Equal(t, rank.Tier(0), tr.FromTier)
	assert.Equal(t, rank.Tier(2), tr.ToTier)

	// Прямая установка не трогает счётчики
	assert.Equal(t, 0, m.PromotionCount)
	assert.Equal(t, 0, m.DemotionCount)
	assert.Equal(t, rank.Name("Gold"), m.CurrentRank)
	require.Len(t, m.History, 1)
	assert.Equal(t, KindSet, m.History[0].Kind)
}

func TestSetRank_NoChange(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver")
	m := newTestMember(t)
	m.CurrentRank = "Silver"

	_, err := m.SetRank(h, "SILVER")
	assert.ErrorIs(t, err, ErrNoChange)
	assert.Empty(t, m.History)
}

func TestSetRank_UnknownRank(t *testing.T) {
	h := newTestHierarchy(t, "Bronze")
	m := newTestMember(t)

	_, err := m.SetRank(h, "Platinum")
	assert.ErrorIs(t, err, rank.ErrRankNotFound)
}

func TestSetRank_EmptyHierarchy(t *testing.T) {
	h := newTestHierarchy(t)
	m := newTestMember(t)

	_, err := m.SetRank(h, "Bronze")
	assert.ErrorIs(t, err, ErrNoRanksConfigured)
}

func TestPromoteDemote_RoundTrip(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver")
	m := newTestMember(t)

	_, err := m.Promote(h) // -> Bronze
	require.NoError(t, err)
	_, err = m.Promote(h) // -> Silver
	require.NoError(t, err)
	_, err = m.Demote(h) // -> Bronze
	require.NoError(t, err)

	assert.Equal(t, rank.Name("Bronze"), m.CurrentRank)
	assert.Equal(t, 2, m.PromotionCount)
	assert.Equal(t, 1, m.DemotionCount)

	// История только добавляется, хронологический порядок сохраняется
	require.Len(t, m.History, 3)
	assert.Equal(t, KindPromotion, m.History[0].Kind)
	assert.Equal(t, KindPromotion, m.History[1].Kind)
	assert.Equal(t, KindDemotion, m.History[2].Kind)
	assert.Equal(t, rank.Name("Silver"), m.History[2].From)
	assert.Equal(t, rank.Name("Bronze"), m.History[2].To)
}

func TestMember_TierIn(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver")
	m := newTestMember(t)

	assert.Equal(t, rank.TierUnranked, m.TierIn(h))

	m.CurrentRank = "Silver"
	assert.Equal(t, rank.Tier(1), m.TierIn(h))

	m.CurrentRank = "Legacy"
	assert.Equal(t, rank.TierUnranked, m.TierIn(h))
}

func TestMember_Clone(t *testing.T) {
	h := newTestHierarchy(t, "Bronze", "Silver")
	m := newTestMember(t)
	_, err := m.Promote(h)
	require.NoError(t, err)

	clone := m.Clone()
	_, err = clone.Promote(h)
	require.NoError(t, err)

	assert.Equal(t, 1, m.PromotionCount)
	assert.Equal(t, 2, clone.PromotionCount)
	assert.Len(t, m.History, 1)
	assert.Len(t, clone.History, 2)
}

func TestTransitionKind_IsValid(t *testing.T) {
	assert.True(t, KindPromotion.IsValid())
	assert.True(t, KindDemotion.IsValid())
	assert.True(t, KindSet.IsValid())
	assert.False(t, TransitionKind("merge").IsValid())
}
