// workers/enforcement_sweep.go
package workers

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"holder-contest-system/metrics"
	"holder-contest-system/models"
	"holder-contest-system/notify"
	"holder-contest-system/services"
	"holder-contest-system/store"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const notifyTimeout = 10 * time.Second

type SweepConfig struct {
	InitialDelay time.Duration
	CheckDelay   time.Duration
	Interval     time.Duration
	// KickOnFail also clears join status on revocation, removing the
	// participant from the ranking.
	KickOnFail bool
}

// CycleReport summarizes one enforcement cycle.
type CycleReport struct {
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Skipped    bool      `json:"skipped"`
	SkipReason string    `json:"skip_reason,omitempty"`
	MinRaw     string    `json:"min_raw,omitempty"`
	Candidates int       `json:"candidates"`
	Checked    int       `json:"checked"`
	Revoked    int       `json:"revoked"`
	Unchanged  int       `json:"unchanged"`
	Errors     int       `json:"errors"`
}

// EnforcementSweep periodically re-checks every eligible, joined participant
// and revokes those whose holding fell below the threshold.
type EnforcementSweep struct {
	Store    store.Store
	Checker  *services.EligibilityChecker
	Notifier notify.Notifier
	Metrics  *metrics.Metrics
	Clock    clockwork.Clock
	Logger   *zap.Logger
	Config   SweepConfig
}

func NewEnforcementSweep(st store.Store, checker *services.EligibilityChecker, notifier notify.Notifier, m *metrics.Metrics, clock clockwork.Clock, logger *zap.Logger, cfg SweepConfig) *EnforcementSweep {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "sweep"))
	if notifier == nil {
		notifier = notify.LogNotifier{Logger: logger}
	}
	return &EnforcementSweep{
		Store:    st,
		Checker:  checker,
		Notifier: notifier,
		Metrics:  m,
		Clock:    clock,
		Logger:   logger,
		Config:   cfg,
	}
}

// Run waits the initial delay, then alternates cycles and interval sleeps
// until ctx is cancelled. A failing cycle never stops the loop.
func (s *EnforcementSweep) Run(ctx context.Context) {
	s.Logger.Info("🔁 Enforcement sweep started",
		zap.Duration("initial_delay", s.Config.InitialDelay),
		zap.Duration("interval", s.Config.Interval),
		zap.Bool("kick_on_fail", s.Config.KickOnFail))

	if !s.sleep(ctx, s.Config.InitialDelay) {
		s.Logger.Info("Enforcement sweep stopped.")
		return
	}
	for {
		report, err := s.safeCycle(ctx)
		if err != nil {
			s.Logger.Error("❌ sweep cycle failed", zap.Error(err))
		} else {
			s.Logger.Info("✅ sweep cycle finished",
				zap.Bool("skipped", report.Skipped),
				zap.Int("checked", report.Checked),
				zap.Int("revoked", report.Revoked),
				zap.Int("errors", report.Errors))
		}
		if !s.sleep(ctx, s.Config.Interval) {
			s.Logger.Info("Enforcement sweep stopped.")
			return
		}
	}
}

func (s *EnforcementSweep) safeCycle(ctx context.Context) (report CycleReport, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sweep cycle panicked: %v", r)
		}
	}()
	return s.RunCycle(ctx)
}

// RunCycle performs exactly one pass. The threshold is derived once and
// shared by every participant in the pass.
func (s *EnforcementSweep) RunCycle(ctx context.Context) (CycleReport, error) {
	start := s.Clock.Now()
	report := CycleReport{StartedAt: start.UTC()}
	defer func() {
		report.FinishedAt = s.Clock.Now().UTC()
		if s.Metrics != nil {
			s.Metrics.SweepCycleDuration.Observe(s.Clock.Since(start).Seconds())
		}
	}()

	th, err := s.Checker.Thresholds.Current(ctx)
	if err != nil {
		report.Skipped = true
		report.SkipReason = err.Error()
		s.Logger.Warn("⏭️ skipping sweep cycle, threshold unavailable", zap.Error(err))
		if s.Metrics != nil {
			s.Metrics.SweepSkipped.Inc()
			s.Metrics.OracleErrors.WithLabelValues("threshold").Inc()
		}
		return report, nil
	}
	report.MinRaw = th.MinRaw.String()
	if s.Metrics != nil {
		s.Metrics.SweepCycles.Inc()
		f, _ := th.MinTokens().Float64()
		s.Metrics.ThresholdMinTokens.Set(f)
	}

	candidates, err := s.Store.ListEligibleJoined(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list participants: %w", err)
	}
	report.Candidates = len(candidates)

	for i := range candidates {
		if i > 0 && !s.sleep(ctx, s.Config.CheckDelay) {
			return report, ctx.Err()
		}
		s.checkOne(ctx, candidates[i], th, &report)
	}
	return report, nil
}

func (s *EnforcementSweep) checkOne(ctx context.Context, p models.Participant, th services.Threshold, report *CycleReport) {
	defer func() {
		if r := recover(); r != nil {
			report.Errors++
			s.Logger.Error("participant check panicked", zap.Int64("participant_id", p.ID), zap.Any("panic", r))
		}
	}()

	wallet := ""
	if p.Wallet != nil {
		wallet = *p.Wallet
	}
	report.Checked++
	if s.Metrics != nil {
		s.Metrics.SweepChecks.Inc()
	}

	if !services.IsValidWalletAddress(wallet) {
		s.revoke(ctx, p, wallet, nil, th, notify.ReasonInvalidWallet, report)
		return
	}

	ok, balance, err := s.Checker.Check(ctx, wallet, th)
	if err != nil {
		report.Errors++
		s.Logger.Warn("balance check failed, retrying next cycle",
			zap.Int64("participant_id", p.ID),
			zap.String("wallet", wallet),
			zap.Error(err))
		if s.Metrics != nil {
			s.Metrics.OracleErrors.WithLabelValues("balance").Inc()
		}
		return
	}
	if ok {
		report.Unchanged++
		return
	}
	s.revoke(ctx, p, wallet, balance, th, notify.ReasonBelowThreshold, report)
}

func (s *EnforcementSweep) revoke(ctx context.Context, p models.Participant, wallet string, balance *big.Int, th services.Threshold, reason string, report *CycleReport) {
	changed, err := s.Store.Revoke(ctx, p.ID, wallet, s.Config.KickOnFail)
	if err != nil {
		report.Errors++
		s.Logger.Error("failed to revoke participant", zap.Int64("participant_id", p.ID), zap.Error(err))
		return
	}
	if !changed {
		// re-verified or already revoked since the candidate list was read
		report.Unchanged++
		s.Logger.Info("participant changed during check, leaving as is", zap.Int64("participant_id", p.ID))
		return
	}
	report.Revoked++
	if s.Metrics != nil {
		s.Metrics.Revocations.WithLabelValues(reason).Inc()
	}

	balanceRaw := ""
	if balance != nil {
		balanceRaw = balance.String()
	}
	s.Logger.Info("🚫 participant revoked",
		zap.Int64("participant_id", p.ID),
		zap.String("wallet", wallet),
		zap.String("reason", reason),
		zap.String("balance_raw", balanceRaw),
		zap.String("min_raw", th.MinRaw.String()),
		zap.Bool("kicked", s.Config.KickOnFail))

	ev := notify.Revocation{
		ParticipantID: p.ID,
		Handle:        p.Handle,
		Wallet:        wallet,
		BalanceRaw:    balanceRaw,
		MinRaw:        th.MinRaw.String(),
		MinUSD:        th.MinUSD.String(),
		Kicked:        s.Config.KickOnFail,
		Reason:        reason,
		RevokedAt:     s.Clock.Now().UTC(),
	}
	s.notify(ctx, ev)
}

// notify is log-and-continue: its outcome never reaches the cycle's control flow.
func (s *EnforcementSweep) notify(ctx context.Context, ev notify.Revocation) {
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Warn("notifier panicked", zap.Any("panic", r))
		}
	}()
	nctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := s.Notifier.NotifyRevoked(nctx, ev); err != nil {
		if s.Metrics != nil {
			s.Metrics.NotifyFailures.Inc()
		}
		s.Logger.Warn("revocation notice not delivered",
			zap.Int64("participant_id", ev.ParticipantID),
			zap.Error(err))
	}
}

// sleep waits d on the injected clock and reports false if ctx ended first.
func (s *EnforcementSweep) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-s.Clock.After(d):
		return true
	}
}
