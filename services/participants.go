// services/participants.go
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"holder-contest-system/models"
	"holder-contest-system/store"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// ParticipantService covers registration, joining and admin point changes.
type ParticipantService struct {
	Store   store.Store
	Contest *ContestClock
	Locks   *ParticipantLocks
	Clock   clockwork.Clock
	Logger  *zap.Logger
}

func NewParticipantService(st store.Store, contest *ContestClock, locks *ParticipantLocks, clock clockwork.Clock, logger *zap.Logger) *ParticipantService {
	if locks == nil {
		locks = NewParticipantLocks()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParticipantService{Store: st, Contest: contest, Locks: locks, Clock: clock, Logger: logger}
}

// Register creates the participant on first contact and refreshes its handle after that.
func (s *ParticipantService) Register(ctx context.Context, id int64, handle string) (*models.Participant, error) {
	if err := s.Store.UpsertParticipant(ctx, id, normalizeHandle(handle)); err != nil {
		return nil, err
	}
	return s.Store.GetParticipant(ctx, id)
}

// JoinResult reports the stored participant and whether this call stamped the join time.
type JoinResult struct {
	Participant *models.Participant
	NewlyJoined bool
}

// Join enters a verified participant into a live contest. Joining again keeps
// the first timestamp.
func (s *ParticipantService) Join(ctx context.Context, id int64) (JoinResult, error) {
	unlock := s.Locks.Lock(id)
	defer unlock()

	p, err := s.Store.GetParticipant(ctx, id)
	if err != nil {
		return JoinResult{}, err
	}
	live, err := s.Contest.IsLive(ctx)
	if err != nil {
		return JoinResult{}, err
	}
	if !live {
		return JoinResult{}, ErrContestNotLive
	}
	if !p.Eligible {
		return JoinResult{}, ErrNotVerified
	}

	set, err := s.Store.MarkJoined(ctx, id, s.Clock.Now().UTC().Truncate(time.Second))
	if err != nil {
		return JoinResult{}, err
	}
	if set {
		s.Logger.Info("participant joined", zap.Int64("participant_id", id))
		p, err = s.Store.GetParticipant(ctx, id)
		if err != nil {
			return JoinResult{}, err
		}
	}
	return JoinResult{Participant: p, NewlyJoined: set}, nil
}

// AddPointsByHandle applies delta to the participant with the given handle
// and returns its new total.
func (s *ParticipantService) AddPointsByHandle(ctx context.Context, handle string, delta int64) (*models.Participant, int64, error) {
	handle = normalizeHandle(handle)
	if handle == "" {
		return nil, 0, fmt.Errorf("%w: empty handle", ErrNotFound)
	}
	p, err := s.Store.FindParticipantByHandle(ctx, handle)
	if err != nil {
		return nil, 0, err
	}
	if err := s.Store.AddPoints(ctx, p.ID, delta); err != nil {
		return nil, 0, err
	}
	total, err := s.Store.Points(ctx, p.ID)
	if err != nil {
		return nil, 0, err
	}
	s.Logger.Info("points adjusted",
		zap.String("handle", handle),
		zap.Int64("participant_id", p.ID),
		zap.Int64("delta", delta),
		zap.Int64("total", total))
	return p, total, nil
}

// RemovePointsByHandle subtracts |delta|.
func (s *ParticipantService) RemovePointsByHandle(ctx context.Context, handle string, delta int64) (*models.Participant, int64, error) {
	if delta > 0 {
		delta = -delta
	}
	return s.AddPointsByHandle(ctx, handle, delta)
}

func normalizeHandle(h string) string {
	return strings.TrimPrefix(strings.TrimSpace(h), "@")
}
