package workers

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"holder-contest-system/metrics"
	"holder-contest-system/notify"
	"holder-contest-system/services"
	"holder-contest-system/store"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	testMint = "So11111111111111111111111111111111111111112"
	walletA  = "9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"
	walletB  = "7dHbWXmci3dT8UFYWYZweBLXgycu7Y3iL6trKn1Y7ARj"
	walletC  = "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"
)

var (
	errDown = errors.New("upstream down")
	t0      = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

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
	mu    sync.Mutex
	price decimal.Decimal
	err   error
}

func (f *fakePrices) Decimals(context.Context, string) (int32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return 0, f.err
}

func (f *fakePrices) USDPrice(context.Context, string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.price, f.err
}

type fakeBalances struct {
	mu       sync.Mutex
	balances map[string]int64
	errs     map[string]error
	calls    map[string]int
}

func (f *fakeBalances) Balance(_ context.Context, wallet, _ string) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[wallet]++
	if err := f.errs[wallet]; err != nil {
		return nil, err
	}
	return big.NewInt(f.balances[wallet]), nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Revocation
	err    error
}

func (r *recordingNotifier) NotifyRevoked(_ context.Context, ev notify.Revocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// seedJoined creates an eligible, joined participant holding wallet.
func seedJoined(t *testing.T, st store.Store, id int64, wallet string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, st.UpsertParticipant(ctx, id, ""))
	require.NoError(t, st.SetVerification(ctx, id, wallet, true))
	_, err := st.MarkJoined(ctx, id, t0)
	require.NoError(t, err)
}

func newChecker(st store.Store, balances *fakeBalances, prices *fakePrices) *services.EligibilityChecker {
	// $5 minimum; price 1 and 0 decimals gives a 5 unit threshold
	calc := services.NewThresholdCalculator(prices, testMint, 5)
	return services.NewEligibilityChecker(st, balances, calc, nil, nil)
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}
