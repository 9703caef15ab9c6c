package services

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"holder-contest-system/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testMint    = "So11111111111111111111111111111111111111112"
	testWallet  = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	otherWallet = "7dHbWXmci3dT8UFYWYZweBLXgycu7Y3iL6trKn1Y7ARj"
)

var errOracleDown = errors.New("oracle down")

func newTestStore(t *testing.T) *store.GormStore {
	t.Helper()
	db, err := store.Open("sqlite", "file:"+uuid.NewString()+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	s, err := store.New(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

type fakePrices struct {
	mu       sync.Mutex
	decimals int32
	price    decimal.Decimal
	err      error
	calls    int
}

func (f *fakePrices) Decimals(context.Context, string) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.decimals, nil
}

func (f *fakePrices) USDPrice(context.Context, string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return decimal.Zero, f.err
	}
	return f.price, nil
}

type fakeBalances struct {
	mu       sync.Mutex
	balances map[string]int64
	errs     map[string]error
	calls    int
}

func (f *fakeBalances) Balance(_ context.Context, wallet, _ string) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[wallet]; err != nil {
		return nil, err
	}
	return big.NewInt(f.balances[wallet]), nil
}
