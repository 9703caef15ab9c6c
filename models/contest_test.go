package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestContestWindow_IsLiveBoundaries(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	before := now.Add(-time.Second)
	after := now.Add(time.Second)

	startsNow := ContestWindow{StartAt: &now, EndAt: &after, Active: true}
	assert.True(t, startsNow.IsLive(now), "start bound is inclusive")

	endsNow := ContestWindow{StartAt: &before, EndAt: &now, Active: true}
	assert.True(t, endsNow.IsLive(now), "end bound is inclusive")
	assert.False(t, endsNow.IsLive(after))
	assert.False(t, startsNow.IsLive(before))

	inactive := ContestWindow{StartAt: &before, EndAt: &after, Active: false}
	assert.False(t, inactive.IsLive(now))
}

func TestContestWindow_State(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	start := now.Add(-time.Hour)
	end := now.Add(time.Hour)
	past := now.Add(-30 * time.Minute)

	assert.Equal(t, ContestNotStarted, ContestWindow{}.State(now))
	assert.Equal(t, ContestLive, ContestWindow{StartAt: &start, EndAt: &end, Active: true}.State(now))
	assert.Equal(t, ContestActiveOutsideWindow, ContestWindow{StartAt: &start, EndAt: &past, Active: true}.State(now))
	assert.Equal(t, ContestEnded, ContestWindow{StartAt: &start, EndAt: &end, Active: false}.State(now))
}
