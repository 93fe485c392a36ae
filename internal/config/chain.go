package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/hxuan190/basket-engine/internal/common"
)

type ChainConfig struct {
	// ChainID selects the target network and, through it, the quote provider
	// host and price platform. Must be one of the supported set.
	ChainID int64

	// RPCURL is the EVM JSON-RPC endpoint used for basket reads and gas
	// estimation.
	RPCURL string

	// QuoteHostOverride replaces the chain's default quote provider host,
	// e.g. to point at a proxy in staging.
	QuoteHostOverride string

	// QuoteAPIKey is attached only when the resolved host is gated.
	QuoteAPIKey string

	// GasOracleURL serves gas-price tiers for display enrichment.
	GasOracleURL string

	// PriceAPIURL serves usd token prices for display enrichment.
	PriceAPIURL string

	// TradeModule is the protocol's trade module contract, the target of
	// simulated gas estimation calls.
	TradeModule string

	// AdapterName identifies the exchange adapter passed to the trade module.
	AdapterName string
}

func (c *ChainConfig) Key() string {
	return CHAIN_CONFIG_KEY
}

func (c *ChainConfig) Load() error {
	c.ChainID = getEnvOrDefaultInt64("CHAIN_ID", common.ChainMainnet)
	c.RPCURL = os.Getenv("RPC_URL")
	c.QuoteHostOverride = os.Getenv("QUOTE_HOST")
	c.QuoteAPIKey = os.Getenv("QUOTE_API_KEY")
	c.GasOracleURL = getEnvOrDefault("GAS_ORACLE_URL", "https://ethgasstation.info/api/ethgasAPI.json")
	c.PriceAPIURL = getEnvOrDefault("PRICE_API_URL", "https://api.coingecko.com/api/v3")
	c.TradeModule = os.Getenv("TRADE_MODULE")
	c.AdapterName = getEnvOrDefault("ADAPTER_NAME", "ZeroExApiAdapterV5")
	return nil
}

func (c *ChainConfig) Validate() error {
	if !common.IsSupportedChain(c.ChainID) {
		return fmt.Errorf("unsupported chain id %d", c.ChainID)
	}
	if c.RPCURL == "" {
		return errors.New("invalid chain config: RPC_URL is required")
	}
	return nil
}
