package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/metrics"
)

const tradeModuleABIJSON = `[
	{"name":"trade","type":"function","stateMutability":"nonpayable","inputs":[
		{"name":"setToken","type":"address"},
		{"name":"exchangeName","type":"string"},
		{"name":"sendToken","type":"address"},
		{"name":"sendQuantity","type":"uint256"},
		{"name":"receiveToken","type":"address"},
		{"name":"minReceiveQuantity","type":"uint256"},
		{"name":"data","type":"bytes"}
	],"outputs":[]}
]`

// Estimator simulates the eventual trade-module call to price its gas. It
// never submits anything.
type Estimator struct {
	client      *ethclient.Client
	tradeModule ethcommon.Address
	tradeABI    abi.ABI
}

func NewEstimator(client *ethclient.Client, tradeModule ethcommon.Address) (*Estimator, error) {
	parsed, err := abi.JSON(strings.NewReader(tradeModuleABIJSON))
	if err != nil {
		return nil, fmt.Errorf("parse trade module abi: %w", err)
	}
	return &Estimator{client: client, tradeModule: tradeModule, tradeABI: parsed}, nil
}

// EstimateTradeGas simulates the trade from the manager's account. A revert
// or RPC failure surfaces as GasEstimationError.
func (e *Estimator) EstimateTradeGas(ctx context.Context, params domain.TradeEstimateParams) (uint64, error) {
	start := time.Now()
	defer func() {
		metrics.GasEstimateDuration.Observe(time.Since(start).Seconds())
	}()

	data, err := e.tradeABI.Pack("trade",
		params.Basket,
		params.AdapterName,
		params.SellToken,
		params.SellUnits,
		params.BuyToken,
		params.BuyUnits,
		[]byte(params.Calldata),
	)
	if err != nil {
		return 0, &common.GasEstimationError{Err: err}
	}

	gas, err := e.client.EstimateGas(ctx, ethereum.CallMsg{
		From: params.Manager,
		To:   &e.tradeModule,
		Data: data,
	})
	if err != nil {
		return 0, &common.GasEstimationError{Err: err}
	}
	return gas, nil
}
