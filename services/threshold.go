// services/threshold.go
package services

import (
	"context"
	"fmt"
	"math/big"

	"holder-contest-system/oracle"

	"github.com/shopspring/decimal"
)

// Threshold is the raw-unit minimum derived for one verification call or one sweep cycle.
type Threshold struct {
	MinUSD   decimal.Decimal
	PriceUSD decimal.Decimal
	Decimals int32
	MinRaw   *big.Int
}

// Met reports balance >= MinRaw.
func (t Threshold) Met(balance *big.Int) bool {
	return balance != nil && balance.Cmp(t.MinRaw) >= 0
}

// MinTokens is MinRaw scaled to whole tokens.
func (t Threshold) MinTokens() decimal.Decimal {
	return FormatUnits(t.MinRaw, t.Decimals)
}

// MinRawUnits computes ceil(minUSD / priceUSD * 10^decimals) exactly.
func MinRawUnits(minUSD, priceUSD decimal.Decimal, decimals int32) (*big.Int, error) {
	if !priceUSD.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive, got %s", ErrOracleUnavailable, priceUSD)
	}
	if decimals < 0 {
		return nil, fmt.Errorf("%w: negative decimals %d", ErrOracleUnavailable, decimals)
	}
	if !minUSD.IsPositive() {
		return nil, fmt.Errorf("minimum USD must be positive, got %s", minUSD)
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	r := new(big.Rat).Quo(minUSD.Rat(), priceUSD.Rat())
	r.Mul(r, new(big.Rat).SetInt(scale))

	q, rem := new(big.Int).QuoRem(r.Num(), r.Denom(), new(big.Int))
	if rem.Sign() > 0 {
		q.Add(q, big.NewInt(1))
	}
	return q, nil
}

// FormatUnits converts raw units to whole tokens.
func FormatUnits(raw *big.Int, decimals int32) decimal.Decimal {
	if raw == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(raw, -decimals)
}

// ThresholdCalculator derives a fresh Threshold from live oracle data. It never caches.
type ThresholdCalculator struct {
	Prices oracle.PriceOracle
	Mint   string
	MinUSD decimal.Decimal
}

func NewThresholdCalculator(prices oracle.PriceOracle, mint string, minUSD float64) *ThresholdCalculator {
	return &ThresholdCalculator{Prices: prices, Mint: mint, MinUSD: decimal.NewFromFloat(minUSD)}
}

// Current fetches decimals and price once. Any failure is ErrOracleUnavailable.
func (c *ThresholdCalculator) Current(ctx context.Context) (Threshold, error) {
	decimals, err := c.Prices.Decimals(ctx, c.Mint)
	if err != nil {
		return Threshold{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	price, err := c.Prices.USDPrice(ctx, c.Mint)
	if err != nil {
		return Threshold{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	minRaw, err := MinRawUnits(c.MinUSD, price, decimals)
	if err != nil {
		return Threshold{}, err
	}
	return Threshold{MinUSD: c.MinUSD, PriceUSD: price, Decimals: decimals, MinRaw: minRaw}, nil
}
