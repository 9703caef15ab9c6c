package services

import (
	"context"
	"testing"
	"time"

	"holder-contest-system/models"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestContestClock_WindowBoundaries(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	cc := NewContestClock(newTestStore(t), clock, nil)
	ctx := context.Background()

	st, err := cc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ContestNotStarted, st.State)

	w, err := cc.Start(ctx, 2)
	require.NoError(t, err)
	assert.True(t, t0.Equal(*w.StartAt))
	assert.True(t, t0.Add(172800*time.Second).Equal(*w.EndAt))

	live, err := cc.IsLive(ctx)
	require.NoError(t, err)
	assert.True(t, live, "start is inclusive")

	clock.Advance(48 * time.Hour)
	live, err = cc.IsLive(ctx)
	require.NoError(t, err)
	assert.True(t, live, "end is inclusive")

	clock.Advance(time.Second)
	st, err = cc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ContestActiveOutsideWindow, st.State)
	assert.Zero(t, st.Remaining)
}

func TestContestClock_EndAndRestart(t *testing.T) {
	clock := clockwork.NewFakeClockAt(t0)
	cc := NewContestClock(newTestStore(t), clock, nil)
	ctx := context.Background()

	_, err := cc.Start(ctx, 14)
	require.NoError(t, err)
	clock.Advance(time.Hour)

	st, err := cc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ContestLive, st.State)
	assert.Equal(t, 14*24*time.Hour-time.Hour, st.Remaining)

	w, err := cc.End(ctx)
	require.NoError(t, err)
	assert.False(t, w.Active)
	require.NotNil(t, w.EndAt)

	st, err = cc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ContestEnded, st.State)

	// a new start replaces the old window
	w, err = cc.Start(ctx, 1)
	require.NoError(t, err)
	assert.True(t, t0.Add(time.Hour).Equal(*w.StartAt))
	assert.Equal(t, int64(3), w.Version)
}

func TestContestClock_RejectsNonPositiveDays(t *testing.T) {
	cc := NewContestClock(newTestStore(t), clockwork.NewFakeClockAt(t0), nil)
	_, err := cc.Start(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidDays)
	_, err = cc.Start(context.Background(), -3)
	assert.ErrorIs(t, err, ErrInvalidDays)
}

func TestContestClock_DayLimit(t *testing.T) {
	cc := NewContestClock(newTestStore(t), clockwork.NewFakeClockAt(t0), nil)
	ctx := context.Background()

	_, err := cc.Start(ctx, 200000)
	assert.ErrorIs(t, err, ErrInvalidDays)
	_, err = cc.Start(ctx, MaxContestDays+1)
	assert.ErrorIs(t, err, ErrInvalidDays)

	st, err := cc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ContestNotStarted, st.State, "rejected starts write nothing")

	w, err := cc.Start(ctx, MaxContestDays)
	require.NoError(t, err)
	assert.True(t, w.EndAt.After(*w.StartAt))
	assert.True(t, t0.AddDate(0, 0, MaxContestDays).Equal(*w.EndAt))

	st, err = cc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ContestLive, st.State)
}
