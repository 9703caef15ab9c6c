// app.go
package main

import (
	"context"
	"fmt"

	"holder-contest-system/config"
	"holder-contest-system/metrics"
	"holder-contest-system/notify"
	"holder-contest-system/oracle"
	"holder-contest-system/services"
	"holder-contest-system/store"
	"holder-contest-system/utils"
	"holder-contest-system/workers"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// app is the wired object graph shared by every subcommand.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *store.GormStore
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	clock    clockwork.Clock

	checker      *services.EligibilityChecker
	contest      *services.ContestClock
	participants *services.ParticipantService
	ranking      *services.RankingEngine
	sweep        *workers.EnforcementSweep
	snapshots    *workers.SnapshotWorker

	closers []func() error
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*store.GormStore, error) {
	var db *gorm.DB
	err := utils.WithBackoff(ctx, utils.DefaultRetryConfig(), logger, "database connect", func() error {
		var err error
		db, err = store.Open(cfg.DBDriver, cfg.DatabaseURL, gormlogger.Default.LogMode(gormlogger.Warn))
		return err
	})
	if err != nil {
		return nil, err
	}
	st, err := store.New(db)
	if err != nil {
		return nil, err
	}
	logger.Info("✅ Database ready", zap.String("driver", cfg.DBDriver))
	return st, nil
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		registry: prometheus.NewRegistry(),
		clock:    clockwork.NewRealClock(),
		closers:  []func() error{st.Close},
	}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	httpClient := utils.NewHTTPClient(cfg.OracleHTTPTimeout())
	rpc := oracle.NewSolanaRPC(cfg.SolRPCURL, httpClient)
	market := oracle.Market{Chain: rpc, Dex: oracle.NewDexScreener(cfg.DexScreenerURL, httpClient)}

	locks := services.NewParticipantLocks()
	thresholds := services.NewThresholdCalculator(market, cfg.TokenMint, cfg.MinHoldUSD)
	a.checker = services.NewEligibilityChecker(st, rpc, thresholds, locks, logger)
	a.checker.Metrics = a.metrics
	a.contest = services.NewContestClock(st, a.clock, logger)
	a.participants = services.NewParticipantService(st, a.contest, locks, a.clock, logger)
	a.ranking = services.NewRankingEngine(st)

	var notifier notify.Notifier = notify.LogNotifier{Logger: logger}
	if cfg.RedisURL != "" {
		rn, err := notify.NewRedisNotifier(ctx, cfg.RedisURL, cfg.NotifyChannel, logger)
		if err != nil {
			// notifications are best effort; the sweep still runs
			logger.Warn("⚠️ Redis unavailable, revocation notices go to the log", zap.Error(err))
		} else {
			notifier = rn
			a.closers = append(a.closers, rn.Close)
		}
	}

	a.sweep = workers.NewEnforcementSweep(st, a.checker, notifier, a.metrics, a.clock, logger, workers.SweepConfig{
		InitialDelay: cfg.SweepInitialDelay(),
		CheckDelay:   cfg.SweepCheckDelay(),
		Interval:     cfg.SweepInterval(),
		KickOnFail:   cfg.KickOnFail,
	})

	var archive workers.Archiver
	if cfg.R2Enabled() {
		r2, err := utils.NewR2Archive(ctx, cfg.R2AccountID, cfg.R2AccessKeyID, cfg.R2AccessKeySecret, cfg.R2Bucket)
		if err != nil {
			_ = a.close()
			return nil, fmt.Errorf("failed to initialize R2 client: %w", err)
		}
		archive = r2
	}
	a.snapshots = workers.NewSnapshotWorker(st, a.ranking, a.contest, archive, a.metrics, a.clock, logger, cfg.SnapshotInterval())
	return a, nil
}

func (a *app) close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
