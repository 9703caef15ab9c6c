// services/eligibility.go
package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"holder-contest-system/metrics"
	"holder-contest-system/oracle"
	"holder-contest-system/store"

	"go.uber.org/zap"
)

// Verdict is the outcome of one verification.
type Verdict struct {
	ParticipantID int64
	Wallet        string
	Eligible      bool
	Balance       *big.Int
	Threshold     Threshold
}

// Err returns ErrBelowThreshold for a negative verdict, nil otherwise.
func (v Verdict) Err() error {
	if v.Eligible {
		return nil
	}
	return ErrBelowThreshold
}

// EligibilityChecker checks a wallet against a live threshold and records the verdict.
type EligibilityChecker struct {
	Store      store.Store
	Balances   oracle.BalanceOracle
	Thresholds *ThresholdCalculator
	Locks      *ParticipantLocks
	Metrics    *metrics.Metrics
	Logger     *zap.Logger
}

func NewEligibilityChecker(st store.Store, balances oracle.BalanceOracle, thresholds *ThresholdCalculator, locks *ParticipantLocks, logger *zap.Logger) *EligibilityChecker {
	if locks == nil {
		locks = NewParticipantLocks()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityChecker{
		Store:      st,
		Balances:   balances,
		Thresholds: thresholds,
		Locks:      locks,
		Logger:     logger.With(zap.String("component", "verify")),
	}
}

// Check compares one wallet against an already-derived threshold. It makes no writes.
func (c *EligibilityChecker) Check(ctx context.Context, wallet string, th Threshold) (bool, *big.Int, error) {
	if !IsValidWalletAddress(wallet) {
		return false, nil, ErrInvalidAddress
	}
	balance, err := c.Balances.Balance(ctx, wallet, c.Thresholds.Mint)
	if err != nil {
		return false, nil, fmt.Errorf("%w: balance: %v", ErrOracleUnavailable, err)
	}
	return th.Met(balance), balance, nil
}

// Verify runs a full verification for participant id and persists wallet and
// verdict whether or not the threshold is met. Invalid addresses and oracle
// failures return an error and leave the stored row untouched.
func (c *EligibilityChecker) Verify(ctx context.Context, id int64, wallet string) (Verdict, error) {
	wallet = strings.TrimSpace(wallet)
	if !IsValidWalletAddress(wallet) {
		return Verdict{}, ErrInvalidAddress
	}

	unlock := c.Locks.Lock(id)
	defer unlock()

	th, err := c.Thresholds.Current(ctx)
	if err != nil {
		c.Logger.Warn("threshold unavailable", zap.Int64("participant_id", id), zap.Error(err))
		c.observe("oracle_unavailable")
		return Verdict{}, err
	}

	eligible, balance, err := c.Check(ctx, wallet, th)
	if err != nil {
		c.Logger.Warn("balance lookup failed",
			zap.Int64("participant_id", id),
			zap.String("wallet", wallet),
			zap.Error(err))
		c.observe("oracle_unavailable")
		return Verdict{}, err
	}

	if err := c.Store.SetVerification(ctx, id, wallet, eligible); err != nil {
		return Verdict{}, err
	}

	if eligible {
		c.observe("eligible")
	} else {
		c.observe("below_threshold")
	}
	c.Logger.Info("wallet verified",
		zap.Int64("participant_id", id),
		zap.String("wallet", wallet),
		zap.Bool("eligible", eligible),
		zap.String("balance_raw", balance.String()),
		zap.String("min_raw", th.MinRaw.String()))

	return Verdict{
		ParticipantID: id,
		Wallet:        wallet,
		Eligible:      eligible,
		Balance:       balance,
		Threshold:     th,
	}, nil
}

func (c *EligibilityChecker) observe(outcome string) {
	if c.Metrics != nil {
		c.Metrics.Verifications.WithLabelValues(outcome).Inc()
	}
}
