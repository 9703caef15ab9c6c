// oracle/oracle.go
package oracle

import (
	"context"
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

// ErrUnavailable marks a price or decimals value that could not be determined.
// It is never a statement about a wallet.
var ErrUnavailable = errors.New("oracle value unavailable")

// BalanceOracle returns a wallet's aggregate raw balance of a mint.
type BalanceOracle interface {
	Balance(ctx context.Context, wallet, mint string) (*big.Int, error)
}

// PriceOracle returns the live decimals and USD price of a mint.
type PriceOracle interface {
	Decimals(ctx context.Context, mint string) (int32, error)
	USDPrice(ctx context.Context, mint string) (decimal.Decimal, error)
}

// DecimalsSource and USDPriceSource split PriceOracle by upstream.
type DecimalsSource interface {
	Decimals(ctx context.Context, mint string) (int32, error)
}

type USDPriceSource interface {
	USDPrice(ctx context.Context, mint string) (decimal.Decimal, error)
}

// Market reads decimals from the chain and price from a DEX aggregator.
type Market struct {
	Chain DecimalsSource
	Dex   USDPriceSource
}

func (m Market) Decimals(ctx context.Context, mint string) (int32, error) {
	return m.Chain.Decimals(ctx, mint)
}

func (m Market) USDPrice(ctx context.Context, mint string) (decimal.Decimal, error) {
	return m.Dex.USDPrice(ctx, mint)
}
