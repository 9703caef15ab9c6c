// services/contest_clock.go
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"holder-contest-system/models"
	"holder-contest-system/store"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	casAttempts = 5
	// MaxContestDays keeps start + days*24h well inside time.Duration.
	MaxContestDays = 36500
)

// ContestStatus is the window plus its derived state at one instant.
type ContestStatus struct {
	Window    models.ContestWindow
	State     models.ContestState
	Now       time.Time
	Remaining time.Duration
}

// ContestClock owns the singleton contest window.
type ContestClock struct {
	Store  store.Store
	Clock  clockwork.Clock
	Logger *zap.Logger
}

func NewContestClock(st store.Store, clock clockwork.Clock, logger *zap.Logger) *ContestClock {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContestClock{Store: st, Clock: clock, Logger: logger.With(zap.String("component", "contest"))}
}

func (c *ContestClock) now() time.Time {
	return c.Clock.Now().UTC().Truncate(time.Second)
}

// Start opens a window of exactly days*24h beginning now, replacing any
// previous window.
func (c *ContestClock) Start(ctx context.Context, days int) (models.ContestWindow, error) {
	if days <= 0 || days > MaxContestDays {
		return models.ContestWindow{}, ErrInvalidDays
	}
	w, err := c.update(ctx, func(models.ContestWindow) models.ContestWindow {
		start := c.now()
		end := start.Add(time.Duration(days) * 24 * time.Hour)
		return models.ContestWindow{StartAt: &start, EndAt: &end, Active: true}
	})
	if err != nil {
		return models.ContestWindow{}, err
	}
	c.Logger.Info("contest started",
		zap.Int("days", days),
		zap.Time("start_at", *w.StartAt),
		zap.Time("end_at", *w.EndAt))
	return w, nil
}

// End deactivates the window and keeps its timestamps.
func (c *ContestClock) End(ctx context.Context) (models.ContestWindow, error) {
	w, err := c.update(ctx, func(cur models.ContestWindow) models.ContestWindow {
		cur.Active = false
		return cur
	})
	if err != nil {
		return models.ContestWindow{}, err
	}
	c.Logger.Info("contest ended", zap.Int64("version", w.Version))
	return w, nil
}

// update applies mutate under compare-and-swap, re-reading on conflict.
func (c *ContestClock) update(ctx context.Context, mutate func(models.ContestWindow) models.ContestWindow) (models.ContestWindow, error) {
	for attempt := 0; attempt < casAttempts; attempt++ {
		cur, err := c.Store.GetContestWindow(ctx)
		if err != nil {
			return models.ContestWindow{}, err
		}
		stored, err := c.Store.CompareAndSwapContestWindow(ctx, cur.Version, mutate(cur))
		if errors.Is(err, store.ErrVersionConflict) {
			c.Logger.Debug("contest window changed concurrently, retrying", zap.Int("attempt", attempt+1))
			continue
		}
		return stored, err
	}
	return models.ContestWindow{}, fmt.Errorf("contest window update gave up after %d attempts: %w", casAttempts, store.ErrVersionConflict)
}

func (c *ContestClock) Status(ctx context.Context) (ContestStatus, error) {
	w, err := c.Store.GetContestWindow(ctx)
	if err != nil {
		return ContestStatus{}, err
	}
	now := c.now()
	st := ContestStatus{Window: w, State: w.State(now), Now: now}
	if st.State == models.ContestLive {
		st.Remaining = w.EndAt.Sub(now)
	}
	return st, nil
}

// IsLive reports whether the contest accepts joins right now.
func (c *ContestClock) IsLive(ctx context.Context) (bool, error) {
	st, err := c.Status(ctx)
	if err != nil {
		return false, err
	}
	return st.State == models.ContestLive, nil
}
