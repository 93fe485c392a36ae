package quote

import (
	"context"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/basket-engine/internal/domain"
)

// SnapshotReader reads the basket's on-chain state. Snapshots may lag
// continuously-accruing external positions by a small per-block buffer;
// callers tolerate it.
type SnapshotReader interface {
	FetchBasketSnapshot(ctx context.Context, basket ethcommon.Address, modules []ethcommon.Address) (*domain.BasketSnapshot, error)
	FetchManager(ctx context.Context, basket ethcommon.Address) (ethcommon.Address, error)
}

// QuoteProvider prices a single leg against external liquidity.
type QuoteProvider interface {
	FetchQuote(ctx context.Context, req domain.ProviderRequest) (*domain.ProviderQuote, error)
}

// GasEstimator simulates the eventual on-chain trade call.
type GasEstimator interface {
	EstimateTradeGas(ctx context.Context, params domain.TradeEstimateParams) (uint64, error)
}

// GasPriceSource and PriceSource feed display enrichment only.
type GasPriceSource interface {
	FetchGasPrice(ctx context.Context, speed string) (*big.Int, error)
}

type PriceSource interface {
	FetchUsdPrices(ctx context.Context, tokens []ethcommon.Address) (map[ethcommon.Address]float64, error)
}

// AuditSink records successful quotes; failures must not fail the quote.
type AuditSink interface {
	RecordQuote(mode string, result *domain.QuoteResult) error
}
