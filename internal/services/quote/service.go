// Package quote orchestrates a single trade leg: snapshot read, notional
// derivation, external quote, per-share conversion, dust validation and
// display enrichment.
package quote

import (
	"context"
	"errors"
	"math/big"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	container "github.com/thehyperflames/dicontainer-go"

	"github.com/hxuan190/basket-engine/internal/adapters/chain"
	"github.com/hxuan190/basket-engine/internal/adapters/gasoracle"
	"github.com/hxuan190/basket-engine/internal/adapters/persistence"
	"github.com/hxuan190/basket-engine/internal/adapters/prices"
	"github.com/hxuan190/basket-engine/internal/adapters/provider"
	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/config"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/metrics"
	"github.com/hxuan190/basket-engine/internal/services"
	"github.com/hxuan190/basket-engine/internal/services/dust"
	"github.com/hxuan190/basket-engine/internal/services/scaling"
)

const QUOTE_SERVICE = "quote-service"

type Service struct {
	container.BaseDIInstance
	logger *services.ServiceLogger

	chainID     int64
	adapterName string
	syncModules []ethcommon.Address

	snapshots    SnapshotReader
	provider     QuoteProvider
	gasEstimator GasEstimator
	gasPrices    GasPriceSource
	usdPrices    PriceSource
	audit        AuditSink

	reader *chain.Reader
	store  *persistence.Storage
}

func (svc *Service) ID() string {
	return QUOTE_SERVICE
}

func (svc *Service) Configure(c container.IContainer) error {
	svc.logger = services.NewServiceLogger(svc)

	chainConf := c.GetConfig(config.CHAIN_CONFIG_KEY).(*config.ChainConfig)
	engineConf := c.GetConfig(config.ENGINE_CONFIG_KEY).(*config.EngineConfig)

	svc.chainID = chainConf.ChainID
	svc.adapterName = chainConf.AdapterName
	if chainConf.TradeModule != "" {
		svc.syncModules = []ethcommon.Address{ethcommon.HexToAddress(chainConf.TradeModule)}
	}

	reader, err := chain.NewReader(chainConf.RPCURL)
	if err != nil {
		return err
	}
	svc.reader = reader
	svc.snapshots = reader

	estimator, err := chain.NewEstimator(reader.Client(), ethcommon.HexToAddress(chainConf.TradeModule))
	if err != nil {
		return err
	}
	svc.gasEstimator = estimator

	prov, err := provider.NewClient(chainConf.ChainID, chainConf.QuoteHostOverride, chainConf.QuoteAPIKey)
	if err != nil {
		return err
	}
	svc.provider = prov

	svc.gasPrices = gasoracle.NewClient(chainConf.GasOracleURL)

	priceClient, err := prices.NewClient(chainConf.ChainID, chainConf.PriceAPIURL)
	if err != nil {
		return err
	}
	svc.usdPrices = priceClient

	if engineConf.AuditEnabled {
		store, err := persistence.NewStorage(engineConf.AuditDBPath)
		if err != nil {
			return err
		}
		svc.store = store
		svc.audit = store
	}

	return nil
}

func (svc *Service) Start() error {
	return nil
}

func (svc *Service) Stop() error {
	if svc.store != nil {
		if err := svc.store.Close(); err != nil {
			svc.logger.Error().Err(err).Msg("failed to close audit storage")
		}
	}
	if svc.reader != nil {
		svc.reader.Close()
	}
	return nil
}

// Snapshots exposes the snapshot reader for the batch scheduler's pre-check.
func (svc *Service) Snapshots() SnapshotReader {
	return svc.snapshots
}

// SyncModules is the module list forwarded on every snapshot fetch, so batch
// pre-check reads and per-leg reads ask for the same state.
func (svc *Service) SyncModules() []ethcommon.Address {
	return svc.syncModules
}

// RecentQuotes lists audit history, newest first. Empty when auditing is off.
func (svc *Service) RecentQuotes(limit int) ([]persistence.StoredQuote, error) {
	if svc.store == nil {
		return nil, nil
	}
	return svc.store.RecentQuotes(limit)
}

// QuoteTrade prices a basket-internal rebalance leg and converts the
// provider's totals into protocol-compliant per-share units.
func (svc *Service) QuoteTrade(ctx context.Context, req domain.QuoteRequest) (*domain.QuoteResult, error) {
	start := time.Now()
	result, err := svc.quoteTrade(ctx, req)
	svc.observe("trade", start, err)
	return result, err
}

func (svc *Service) quoteTrade(ctx context.Context, req domain.QuoteRequest) (*domain.QuoteResult, error) {
	if !common.IsSupportedChain(svc.chainID) {
		return nil, &common.UnsupportedChainError{ChainID: svc.chainID}
	}
	r := resolve(req)

	snap, err := svc.snapshots.FetchBasketSnapshot(ctx, req.FromAddress, svc.syncModules)
	if err != nil {
		return nil, err
	}

	notional, err := domain.ParseRawAmount(req.RawAmount, req.FromDecimals)
	if err != nil {
		return nil, err
	}

	var unit *big.Int
	if pos := snap.PositionOf(req.FromToken); pos != nil {
		unit = pos.Unit
	}

	normalized, _, err := scaling.NormalizeSellAmount(req.FromToken, unit, snap.TotalSupply, notional)
	if err != nil {
		var exceeds *common.AmountExceedsAvailableError
		if errors.As(err, &exceeds) {
			metrics.AmountRejections.Inc()
		}
		return nil, err
	}

	pq, err := svc.provider.FetchQuote(ctx, domain.ProviderRequest{
		SellToken:          req.FromToken,
		BuyToken:           req.ToToken,
		SellAmount:         normalized,
		SlippagePercent:    r.Slippage,
		TakerAddress:       req.FromAddress,
		ExcludedProviders:  r.Excluded,
		FeeRecipient:       r.FeeRecipient,
		BuyTokenFeePercent: r.Fee,
		AffiliateAddress:   r.FeeRecipient,
		Firm:               r.Firm,
	})
	if err != nil {
		return nil, err
	}

	fromUnits, err := svc.sellUnits(unit, snap.TotalSupply, pq.SellAmount)
	if err != nil {
		return nil, err
	}
	toUnits, err := scaling.NotionalToPerShareBuy(pq.BuyAmount, snap.TotalSupply, r.Slippage, r.Fee)
	if err != nil {
		return nil, err
	}

	if err := svc.checkDust(snap, req, fromUnits, toUnits); err != nil {
		return nil, err
	}

	gas, err := svc.gasEstimator.EstimateTradeGas(ctx, domain.TradeEstimateParams{
		Basket:      req.FromAddress,
		AdapterName: svc.adapterName,
		SellToken:   req.FromToken,
		SellUnits:   fromUnits,
		BuyToken:    req.ToToken,
		BuyUnits:    toUnits,
		Calldata:    pq.Calldata,
		Manager:     snap.Manager,
	})
	if err != nil {
		return nil, err
	}

	result := &domain.QuoteResult{
		FromToken:   req.FromToken,
		ToToken:     req.ToToken,
		FromUnits:   fromUnits,
		ToUnits:     toUnits,
		Calldata:    pq.Calldata,
		GasEstimate: gas,
	}
	svc.enrichDisplay(ctx, result, r.Slippage)
	svc.record("trade", result)
	return result, nil
}

// sellUnits converts the provider's returned sell total to per-share units,
// short-circuiting the exact implied-max case so a full exit maps to the
// position's unit with zero drift.
func (svc *Service) sellUnits(unit *big.Int, totalSupply, sellAmount *big.Int) (*big.Int, error) {
	if unit != nil {
		implied := scaling.ImpliedMax(unit, totalSupply)
		if sellAmount.Cmp(implied) == 0 {
			return new(big.Int).Set(unit), nil
		}
	}
	return scaling.NotionalToPerShareSell(sellAmount, totalSupply)
}

func (svc *Service) checkDust(snap *domain.BasketSnapshot, req domain.QuoteRequest, fromUnits, toUnits *big.Int) error {
	if err := dust.CheckSell(snap, req.FromToken, fromUnits); err != nil {
		metrics.DustRejections.WithLabelValues("sell").Inc()
		return err
	}
	if req.ToToken != (ethcommon.Address{}) {
		if err := dust.CheckBuy(snap, req.ToToken, toUnits); err != nil {
			metrics.DustRejections.WithLabelValues("buy").Inc()
			return err
		}
	}
	return nil
}

// QuoteSwap prices an external funding-token swap. There is no basket
// position to protect, so neither scaling nor dust validation applies and the
// provider's own gas figure is used.
func (svc *Service) QuoteSwap(ctx context.Context, req domain.QuoteRequest) (*domain.QuoteResult, error) {
	start := time.Now()
	result, err := svc.quoteSwap(ctx, req)
	svc.observe("swap", start, err)
	return result, err
}

func (svc *Service) quoteSwap(ctx context.Context, req domain.QuoteRequest) (*domain.QuoteResult, error) {
	if !common.IsSupportedChain(svc.chainID) {
		return nil, &common.UnsupportedChainError{ChainID: svc.chainID}
	}
	r := resolve(req)

	manager, err := svc.snapshots.FetchManager(ctx, req.FromAddress)
	if err != nil {
		return nil, err
	}

	preq := domain.ProviderRequest{
		SellToken:          req.FromToken,
		BuyToken:           req.ToToken,
		SlippagePercent:    r.Slippage,
		TakerAddress:       manager,
		ExcludedProviders:  r.Excluded,
		FeeRecipient:       r.FeeRecipient,
		BuyTokenFeePercent: r.Fee,
		AffiliateAddress:   r.FeeRecipient,
		Firm:               r.Firm,
	}
	if req.UseBuyAmount {
		preq.BuyAmount, err = domain.ParseRawAmount(req.RawAmount, req.ToDecimals)
	} else {
		preq.SellAmount, err = domain.ParseRawAmount(req.RawAmount, req.FromDecimals)
	}
	if err != nil {
		return nil, err
	}

	pq, err := svc.provider.FetchQuote(ctx, preq)
	if err != nil {
		return nil, err
	}

	result := &domain.QuoteResult{
		FromToken:   req.FromToken,
		ToToken:     req.ToToken,
		FromUnits:   pq.SellAmount,
		ToUnits:     pq.BuyAmount,
		Calldata:    pq.Calldata,
		GasEstimate: pq.GasEstimate,
	}
	svc.enrichDisplay(ctx, result, r.Slippage)
	svc.record("swap", result)
	return result, nil
}

// enrichDisplay attaches gas price and usd figures. Display data is
// best-effort: a failed fetch is logged and zeros are shown, the quote itself
// stands.
func (svc *Service) enrichDisplay(ctx context.Context, result *domain.QuoteResult, slippage float64) {
	result.Display.SlippagePercent = slippage

	gasPrice, err := svc.gasPrices.FetchGasPrice(ctx, common.DefaultGasSpeed)
	if err != nil {
		svc.logger.Warn().Err(err).Msg("gas price fetch failed, display only")
	} else {
		result.GasPrice = gasPrice
	}

	lookup := []ethcommon.Address{result.FromToken, result.ToToken}
	native, hasNative := common.WrappedNativeTokens[svc.chainID]
	if hasNative {
		lookup = append(lookup, native)
	}
	usd, err := svc.usdPrices.FetchUsdPrices(ctx, lookup)
	if err != nil {
		svc.logger.Warn().Err(err).Msg("usd price fetch failed, display only")
		return
	}

	result.Display.FromTokenPriceUsd = usd[result.FromToken]
	result.Display.ToTokenPriceUsd = usd[result.ToToken]

	if hasNative && result.GasPrice != nil {
		weiCost := new(big.Int).Mul(result.GasPrice, new(big.Int).SetUint64(result.GasEstimate))
		ethCost, _ := new(big.Float).Quo(new(big.Float).SetInt(weiCost), big.NewFloat(1e18)).Float64()
		result.Display.GasCostUsd = ethCost * usd[native]
	}
}

func (svc *Service) record(mode string, result *domain.QuoteResult) {
	if svc.audit == nil {
		return
	}
	if err := svc.audit.RecordQuote(mode, result); err != nil {
		svc.logger.Warn().Err(err).Msg("failed to record quote audit entry")
	}
}

func (svc *Service) observe(mode string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.QuoteRequests.WithLabelValues(mode, status).Inc()
	metrics.QuoteDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}
