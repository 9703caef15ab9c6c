package oracle

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dexHandler(t *testing.T, status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/token-pairs/v1/solana/"+testMint, r.URL.Path)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	})
}

func TestUSDPrice_PicksHighestLiquidity(t *testing.T) {
	body := `[
		{"pairAddress":"a","priceUsd":"0.010","liquidity":{"usd":1000}},
		{"pairAddress":"b","priceUsd":"0.012","liquidity":{"usd":250000}},
		{"pairAddress":"c","priceUsd":"0.011"}
	]`
	dex := NewDexScreener("http://dex.mock/", newTestHTTPClient(dexHandler(t, http.StatusOK, body)))

	price, err := dex.USDPrice(context.Background(), testMint)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("0.012")), price.String())
}

func TestUSDPrice_Unavailable(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"empty list":     {http.StatusOK, `[]`},
		"not a list":     {http.StatusOK, `{"pairs":null}`},
		"missing price":  {http.StatusOK, `[{"pairAddress":"a","liquidity":{"usd":5}}]`},
		"zero price":     {http.StatusOK, `[{"pairAddress":"a","priceUsd":"0","liquidity":{"usd":5}}]`},
		"server failure": {http.StatusBadGateway, `oops`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dex := NewDexScreener("http://dex.mock", newTestHTTPClient(dexHandler(t, tc.status, tc.body)))
			_, err := dex.USDPrice(context.Background(), testMint)
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestBestPair_TieKeepsFirst(t *testing.T) {
	pairs := []DexPair{{PairAddress: "first"}, {PairAddress: "second"}}
	best, ok := BestPair(pairs)
	require.True(t, ok)
	assert.Equal(t, "first", best.PairAddress)

	_, ok = BestPair(nil)
	assert.False(t, ok)
}
