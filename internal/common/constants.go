// Package common contains protocol constants and shared error types used across services
package common

import (
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// Scale is the basket-share precision: every Position.Unit is the amount of the
// component held per 10^18 of basket-token supply.
var Scale = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// DustThreshold is the smallest economically meaningful position, in raw
// per-share units. A non-zero position below it is unusable on-chain.
var DustThreshold = big.NewInt(50)

const (
	// DefaultSlippagePercent is applied when a quote request does not set one.
	DefaultSlippagePercent = 2.0

	// DefaultFeePercent is applied when a quote request does not set one.
	DefaultFeePercent = 0.0

	// DefaultGasSpeed selects the gas-oracle tier used for display enrichment.
	DefaultGasSpeed = "fast"
)

// DefaultFeeRecipient receives the aggregator fee when the caller does not
// name one.
var DefaultFeeRecipient = ethcommon.HexToAddress("0x37e6365d4f6aE378467b0e24c9065Ce5f06D70bF")

// DefaultExcludedProviders are liquidity sources excluded from every quote
// unless the caller overrides the list.
var DefaultExcludedProviders = []string{"Kyber"}

// Chain IDs with a known quote-provider host. Anything else fails fast with
// UnsupportedChainError before any I/O.
const (
	ChainMainnet  int64 = 1
	ChainOptimism int64 = 10
	ChainPolygon  int64 = 137
	ChainBase     int64 = 8453
	ChainArbitrum int64 = 42161
)

// QuoteProviderHosts maps chain id to the swap-aggregation API host.
var QuoteProviderHosts = map[int64]string{
	ChainMainnet:  "https://api.0x.org",
	ChainOptimism: "https://optimism.api.0x.org",
	ChainPolygon:  "https://polygon.api.0x.org",
	ChainBase:     "https://base.api.0x.org",
	ChainArbitrum: "https://arbitrum.api.0x.org",
}

// GatedQuoteProviderHosts marks hosts that require the API key header.
var GatedQuoteProviderHosts = map[int64]bool{
	ChainMainnet: true,
}

// PricePlatformIDs maps chain id to the token-price service platform slug.
var PricePlatformIDs = map[int64]string{
	ChainMainnet:  "ethereum",
	ChainOptimism: "optimistic-ethereum",
	ChainPolygon:  "polygon-pos",
	ChainBase:     "base",
	ChainArbitrum: "arbitrum-one",
}

// WrappedNativeTokens maps chain id to the wrapped gas token, used to price
// gas cost in usd for display.
var WrappedNativeTokens = map[int64]ethcommon.Address{
	ChainMainnet:  ethcommon.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
	ChainOptimism: ethcommon.HexToAddress("0x4200000000000000000000000000000000000006"),
	ChainPolygon:  ethcommon.HexToAddress("0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270"),
	ChainBase:     ethcommon.HexToAddress("0x4200000000000000000000000000000000000006"),
	ChainArbitrum: ethcommon.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
}

// IsSupportedChain reports whether the engine can quote on the given chain.
func IsSupportedChain(chainID int64) bool {
	_, ok := QuoteProviderHosts[chainID]
	return ok
}
