package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/config"
	"github.com/hxuan190/basket-engine/internal/http"
	"github.com/hxuan190/basket-engine/internal/services/batch"
	"github.com/hxuan190/basket-engine/internal/services/quote"
)

// @title Basket Engine API
// @version 1.0
// @description Trade quote and unit-conversion engine for tokenized basket portfolios on EVM chains.
// @description
// @description ## - Features
// @description - **Per-Share Scaling**: Converts notional trade amounts to protocol-compliant per-share units with directional rounding
// @description - **Dust Protection**: Rejects trades that would strand positions below the on-chain usability threshold
// @description - **Aggregated Liquidity**: Quotes sourced from the 0x swap aggregation API
// @description - **Gas Simulation**: Trade legs are simulated against the trade module before a quote is returned
// @description - **Batch Rebalancing**: Whole rebalances priced concurrently with rate-limit-aware staggering
// @description
// @description ## - Supported Networks
// @description | Network | Chain ID |
// @description |---------|----------|
// @description | Ethereum | 1 |
// @description | Optimism | 10 |
// @description | Polygon | 137 |
// @description | Base | 8453 |
// @description | Arbitrum | 42161 |
// @description
// @description ## - Usage Tips
// @description - rawAmount is a human decimal string ("0.5"), scaled by the token's decimals server-side
// @description - Trade quotes return per-share units; swap quotes return raw token totals
// @description - Default slippage is 2%, default excluded source is Kyber
// @description - Rate limit: 10 requests/second (burst: 20)
// @BasePath /
// @schemes https http
// @tag.name quote
// @tag.description Price single rebalance legs in per-share basket units
// @tag.name swap
// @tag.description Price external funding-token swaps in raw units
// @tag.name batch
// @tag.description Price whole rebalances with aggregate dust validation

func main() {
	common.InitRuntimeTuning()

	// load env
	err := godotenv.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load env")
		return
	}
	common.SetupLogger(os.Getenv("LOG_LEVEL"), os.Getenv("ENV"))

	// di container config
	conf := container.NewConf(
		&config.GeneralConfig{},
		&config.ChainConfig{},
		&config.EngineConfig{},
	)

	// di container
	dic, err := container.New(
		// config
		conf,

		// services
		&quote.Service{},
		&batch.Scheduler{},

		&http.HTTPService{},
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to create di container")
		return
	}

	if err := dic.Run(); err != nil {
		log.Error().Err(err).Msg("failed to run di container")
		return
	}

	log.Info().Msg("Shutting down services...")
	if err := dic.Stop(); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
	log.Info().Msg("Shutdown complete")
}
