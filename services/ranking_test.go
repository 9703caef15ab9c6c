package services

import (
	"context"
	"testing"
	"time"

	"holder-contest-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(standings []models.Standing) []int64 {
	out := make([]int64, len(standings))
	for i, s := range standings {
		out[i] = s.ParticipantID
	}
	return out
}

func TestSortStandings_TieBreaks(t *testing.T) {
	base := time.Unix(0, 0).UTC()
	got := SortStandings([]models.Standing{
		{ParticipantID: 1, Points: 10, JoinedAt: base.Add(100 * time.Second)},
		{ParticipantID: 2, Points: 10, JoinedAt: base.Add(50 * time.Second)},
		{ParticipantID: 3, Points: 15, JoinedAt: base.Add(200 * time.Second)},
		{ParticipantID: 5, Points: 10, JoinedAt: base.Add(100 * time.Second)},
		{ParticipantID: 4, Points: 10, JoinedAt: base.Add(100 * time.Second)},
	})
	assert.Equal(t, []int64{3, 2, 1, 4, 5}, ids(got))
	for i, s := range got {
		assert.Equal(t, i+1, s.Rank)
	}
}

func seedRanking(t *testing.T) *RankingEngine {
	t.Helper()
	st := newTestStore(t)
	ctx := context.Background()
	base := time.Unix(1_700_000_000, 0).UTC()
	seed := []struct {
		id     int64
		handle string
		points int64
		joined time.Duration
	}{
		{1, "A", 10, 100 * time.Second},
		{2, "B", 10, 50 * time.Second},
		{3, "C", 15, 200 * time.Second},
	}
	for _, s := range seed {
		require.NoError(t, st.UpsertParticipant(ctx, s.id, s.handle))
		_, err := st.MarkJoined(ctx, s.id, base.Add(s.joined))
		require.NoError(t, err)
		require.NoError(t, st.AddPoints(ctx, s.id, s.points))
	}
	// has points but never joined
	require.NoError(t, st.UpsertParticipant(ctx, 9, "lurker"))
	require.NoError(t, st.AddPoints(ctx, 9, 1000))
	return NewRankingEngine(st)
}

func TestRankingEngine_TopAndRank(t *testing.T) {
	r := seedRanking(t)
	ctx := context.Background()

	all, err := r.Standings(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2, 1}, ids(all))

	a, err := r.Rank(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, a.Rank)
	assert.Equal(t, int64(10), a.Points)

	top, err := r.Top(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, ids(top))
	assert.Equal(t, "C", top[0].Handle)

	top, err = r.Top(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, top, 3)

	top, err = r.Top(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, top)

	_, err = r.Rank(ctx, 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRankingEngine_Idempotent(t *testing.T) {
	r := seedRanking(t)
	first, err := r.Standings(context.Background())
	require.NoError(t, err)
	second, err := r.Standings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
