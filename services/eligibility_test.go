package services

import (
	"context"
	"testing"

	"holder-contest-system/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChecker(t *testing.T, balances *fakeBalances, prices *fakePrices) (*EligibilityChecker, *store.GormStore) {
	t.Helper()
	st := newTestStore(t)
	require.NoError(t, st.UpsertParticipant(context.Background(), 1, "alice"))
	calc := NewThresholdCalculator(prices, testMint, 5)
	return NewEligibilityChecker(st, balances, calc, nil, nil), st
}

func TestVerify_InvalidAddressMakesNoOracleCall(t *testing.T) {
	balances := &fakeBalances{}
	prices := &fakePrices{decimals: 0, price: decimal.NewFromInt(1)}
	c, st := newTestChecker(t, balances, prices)

	_, err := c.Verify(context.Background(), 1, "short")
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.Zero(t, balances.calls)
	assert.Zero(t, prices.calls)

	p, err := st.GetParticipant(context.Background(), 1)
	require.NoError(t, err)
	assert.Nil(t, p.Wallet)
}

func TestVerify_BoundaryBalance(t *testing.T) {
	// min $5 at $1 with 0 decimals is exactly 5 raw units
	balances := &fakeBalances{balances: map[string]int64{testWallet: 5, otherWallet: 4}}
	prices := &fakePrices{decimals: 0, price: decimal.NewFromInt(1)}
	c, st := newTestChecker(t, balances, prices)
	ctx := context.Background()

	v, err := c.Verify(ctx, 1, testWallet)
	require.NoError(t, err)
	assert.True(t, v.Eligible)
	assert.NoError(t, v.Err())
	assert.Equal(t, "5", v.Balance.String())
	assert.Equal(t, "5", v.Threshold.MinRaw.String())

	p, err := st.GetParticipant(ctx, 1)
	require.NoError(t, err)
	assert.True(t, p.Eligible)
	assert.Equal(t, testWallet, *p.Wallet)

	v, err = c.Verify(ctx, 1, "  "+otherWallet+" ")
	require.NoError(t, err)
	assert.False(t, v.Eligible)
	assert.ErrorIs(t, v.Err(), ErrBelowThreshold)

	// negative verdicts are persisted too
	p, err = st.GetParticipant(ctx, 1)
	require.NoError(t, err)
	assert.False(t, p.Eligible)
	assert.Equal(t, otherWallet, *p.Wallet)
}

func TestVerify_OracleFailurePersistsNothing(t *testing.T) {
	balances := &fakeBalances{
		balances: map[string]int64{testWallet: 100},
		errs:     map[string]error{otherWallet: errOracleDown},
	}
	prices := &fakePrices{decimals: 0, price: decimal.NewFromInt(1)}
	c, st := newTestChecker(t, balances, prices)
	ctx := context.Background()

	_, err := c.Verify(ctx, 1, testWallet)
	require.NoError(t, err)

	_, err = c.Verify(ctx, 1, otherWallet)
	assert.ErrorIs(t, err, ErrOracleUnavailable)

	p, err := st.GetParticipant(ctx, 1)
	require.NoError(t, err)
	assert.True(t, p.Eligible)
	assert.Equal(t, testWallet, *p.Wallet)

	prices.err = errOracleDown
	_, err = c.Verify(ctx, 1, otherWallet)
	assert.ErrorIs(t, err, ErrOracleUnavailable)
	p, err = st.GetParticipant(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, testWallet, *p.Wallet)
}

func TestVerify_UnknownParticipant(t *testing.T) {
	balances := &fakeBalances{balances: map[string]int64{testWallet: 100}}
	prices := &fakePrices{decimals: 0, price: decimal.NewFromInt(1)}
	c, _ := newTestChecker(t, balances, prices)

	_, err := c.Verify(context.Background(), 99, testWallet)
	assert.ErrorIs(t, err, ErrNotFound)
}
