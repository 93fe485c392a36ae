package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ProviderRequest is the resolved request sent to the external swap
// aggregator. Exactly one of SellAmount/BuyAmount is set.
type ProviderRequest struct {
	SellToken common.Address
	BuyToken  common.Address

	SellAmount *big.Int
	BuyAmount  *big.Int

	SlippagePercent    float64
	TakerAddress       common.Address
	ExcludedProviders  []string
	FeeRecipient       common.Address
	BuyTokenFeePercent float64
	AffiliateAddress   common.Address

	// Firm marks the quote as preceding actual execution intent, as opposed
	// to a speculative/indicative one.
	Firm bool
}

// ProviderQuote is the provider's answer, totals in raw token units.
type ProviderQuote struct {
	Price           string
	GuaranteedPrice string
	Calldata        hexutil.Bytes
	SellAmount      *big.Int
	BuyAmount       *big.Int
	GasEstimate     uint64
}

// TradeEstimateParams describes the eventual on-chain trade call whose gas is
// being simulated.
type TradeEstimateParams struct {
	Basket      common.Address
	AdapterName string
	SellToken   common.Address
	SellUnits   *big.Int
	BuyToken    common.Address
	BuyUnits    *big.Int
	Calldata    hexutil.Bytes
	Manager     common.Address
}
