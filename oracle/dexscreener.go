// oracle/dexscreener.go
package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"holder-contest-system/utils"

	"github.com/shopspring/decimal"
)

const DefaultDexScreenerURL = "https://api.dexscreener.com"

// DexScreener prices a Solana mint from its most liquid pair.
type DexScreener struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewDexScreener(baseURL string, client *http.Client) *DexScreener {
	if baseURL == "" {
		baseURL = DefaultDexScreenerURL
	}
	if client == nil {
		client = utils.NewHTTPClient(0)
	}
	return &DexScreener{BaseURL: strings.TrimRight(baseURL, "/"), HTTPClient: client}
}

// DexPair holds the fields of a DexScreener pair we read.
type DexPair struct {
	PairAddress string `json:"pairAddress"`
	PriceUSD    string `json:"priceUsd"`
	Liquidity   *struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
}

func (p DexPair) liquidityUSD() float64 {
	if p.Liquidity == nil {
		return 0
	}
	return p.Liquidity.USD
}

// USDPrice returns the price of the highest-liquidity pair, or ErrUnavailable.
func (d *DexScreener) USDPrice(ctx context.Context, mint string) (decimal.Decimal, error) {
	pairs, err := d.pairs(ctx, mint)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price: %v", ErrUnavailable, err)
	}
	best, ok := BestPair(pairs)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: no pairs for %s", ErrUnavailable, mint)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(best.PriceUSD))
	if err != nil || !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: bad priceUsd %q", ErrUnavailable, best.PriceUSD)
	}
	return price, nil
}

// BestPair picks the pair with the most USD liquidity. Earlier pairs win ties.
func BestPair(pairs []DexPair) (DexPair, bool) {
	if len(pairs) == 0 {
		return DexPair{}, false
	}
	best := pairs[0]
	for _, p := range pairs[1:] {
		if p.liquidityUSD() > best.liquidityUSD() {
			best = p
		}
	}
	return best, true
}

func (d *DexScreener) pairs(ctx context.Context, mint string) ([]DexPair, error) {
	endpoint := fmt.Sprintf("%s/token-pairs/v1/solana/%s", d.BaseURL, url.PathEscape(mint))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call dexscreener: %w", err)
	}
	defer func() { _ = utils.DrainAndClose(resp.Body) }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("dexscreener returned status %d: %s", resp.StatusCode, string(body))
	}

	var pairs []DexPair
	if err := json.NewDecoder(resp.Body).Decode(&pairs); err != nil {
		return nil, fmt.Errorf("failed to decode dexscreener response: %w", err)
	}
	return pairs, nil
}
