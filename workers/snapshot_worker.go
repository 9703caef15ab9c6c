// workers/snapshot_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"holder-contest-system/metrics"
	"holder-contest-system/models"
	"holder-contest-system/services"
	"holder-contest-system/store"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const SnapshotTopN = 100

// Archiver uploads a snapshot body to object storage. utils.R2Archive satisfies it.
type Archiver interface {
	PutJSON(ctx context.Context, key string, body []byte) error
}

// SnapshotWorker persists the current ranking on a fixed interval.
type SnapshotWorker struct {
	Store    store.Store
	Ranking  *services.RankingEngine
	Contest  *services.ContestClock
	Archive  Archiver
	Metrics  *metrics.Metrics
	Clock    clockwork.Clock
	Logger   *zap.Logger
	Interval time.Duration
}

func NewSnapshotWorker(st store.Store, ranking *services.RankingEngine, contest *services.ContestClock, archive Archiver, m *metrics.Metrics, clock clockwork.Clock, logger *zap.Logger, interval time.Duration) *SnapshotWorker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SnapshotWorker{
		Store:    st,
		Ranking:  ranking,
		Contest:  contest,
		Archive:  archive,
		Metrics:  m,
		Clock:    clock,
		Logger:   logger.With(zap.String("component", "snapshot")),
		Interval: interval,
	}
}

// Start schedules the snapshot job. Call Shutdown on the returned scheduler to stop it.
func (w *SnapshotWorker) Start(ctx context.Context) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithClock(w.Clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = sched.NewJob(
		gocron.DurationJob(w.Interval),
		gocron.NewTask(func() {
			if _, err := w.TakeSnapshot(ctx); err != nil {
				w.Logger.Error("[Snapshot] failed", zap.Error(err))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithName("leaderboard-snapshot"),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("failed to schedule snapshot job: %w", err)
	}
	sched.Start()
	w.Logger.Info("📸 Snapshot job scheduled", zap.Duration("every", w.Interval))
	return sched, nil
}

// TakeSnapshot stores the top standings. It returns nil without writing while
// no contest has ever started. An archive failure is logged and the row kept.
func (w *SnapshotWorker) TakeSnapshot(ctx context.Context) (*models.LeaderboardSnapshot, error) {
	status, err := w.Contest.Status(ctx)
	if err != nil {
		return nil, err
	}
	if status.State == models.ContestNotStarted {
		return nil, nil
	}

	top, err := w.Ranking.Top(ctx, SnapshotTopN)
	if err != nil {
		return nil, err
	}
	entries, err := json.Marshal(top)
	if err != nil {
		return nil, fmt.Errorf("failed to encode standings: %w", err)
	}

	snap := &models.LeaderboardSnapshot{
		ID:             uuid.NewString(),
		ContestVersion: status.Window.Version,
		ContestState:   string(status.State),
		EntryCount:     len(top),
		Entries:        string(entries),
		TakenAt:        w.Clock.Now().UTC().Truncate(time.Second),
	}
	if err := w.Store.SaveSnapshot(ctx, snap); err != nil {
		return nil, err
	}
	if w.Metrics != nil {
		w.Metrics.SnapshotsTaken.Inc()
	}

	if w.Archive != nil {
		key := fmt.Sprintf("leaderboards/v%d/%s-%s.json", snap.ContestVersion, snap.TakenAt.Format("20060102T150405Z"), snap.ID)
		body, err := json.Marshal(snap)
		if err == nil {
			err = w.Archive.PutJSON(ctx, key, body)
		}
		if err != nil {
			if w.Metrics != nil {
				w.Metrics.SnapshotArchiveErrs.Inc()
			}
			w.Logger.Warn("[Snapshot] archive upload failed", zap.String("snapshot_id", snap.ID), zap.Error(err))
		} else if err := w.Store.SetSnapshotArchiveKey(ctx, snap.ID, key); err != nil {
			w.Logger.Warn("[Snapshot] failed to record archive key", zap.String("snapshot_id", snap.ID), zap.Error(err))
		} else {
			snap.ArchiveKey = key
		}
	}

	w.Logger.Info("[Snapshot] leaderboard saved",
		zap.String("snapshot_id", snap.ID),
		zap.Int("entries", snap.EntryCount),
		zap.String("state", snap.ContestState))
	return snap, nil
}
