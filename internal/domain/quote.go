package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// QuoteRequest describes one trade leg as the caller specified it. Optional
// fields are pointers; unset fields receive engine defaults when the request
// is resolved, the request itself is never mutated.
type QuoteRequest struct {
	// FromToken is sold, ToToken is bought.
	FromToken common.Address
	ToToken   common.Address

	FromDecimals uint8
	ToDecimals   uint8

	// RawAmount is a human decimal string, e.g. "0.5". It is the total
	// notional moved across the whole basket supply, not a per-share figure.
	RawAmount string

	// UseBuyAmount interprets RawAmount as the desired buy amount instead of
	// the sell amount. Only honored on the swap path; trade legs always sell.
	UseBuyAmount bool

	// FromAddress is the basket token whose positions fund the trade.
	FromAddress common.Address

	SlippagePercent   *float64
	FeePercent        *float64
	FeeRecipient      *common.Address
	ExcludedProviders []string
	IsFirmQuote       *bool
}

// QuoteDisplay carries usd-denominated enrichment. Display values are never
// used for correctness-critical amounts.
type QuoteDisplay struct {
	FromTokenPriceUsd float64 `json:"fromTokenPriceUsd"`
	ToTokenPriceUsd   float64 `json:"toTokenPriceUsd"`
	GasCostUsd        float64 `json:"gasCostUsd"`
	SlippagePercent   float64 `json:"slippagePercent"`
}

// QuoteResult is the protocol-compliant outcome of one quote. FromUnits and
// ToUnits are per-share quantities for trade legs and raw totals for swap
// quotes.
type QuoteResult struct {
	FromToken   common.Address
	ToToken     common.Address
	FromUnits   *big.Int
	ToUnits     *big.Int
	Calldata    hexutil.Bytes
	GasEstimate uint64
	GasPrice    *big.Int
	Display     QuoteDisplay
}

type legKind uint8

const (
	legReal legKind = iota
	legPassthrough
)

// BatchLeg is a tagged variant: a Real leg carries a QuoteRequest and goes
// through the full orchestration; a Passthrough leg is included only for
// array alignment and never reaches network code.
type BatchLeg struct {
	kind      legKind
	req       QuoteRequest
	rawAmount string
}

// RealLeg wraps a quote request as a schedulable batch entry.
func RealLeg(req QuoteRequest) BatchLeg {
	return BatchLeg{kind: legReal, req: req}
}

// PassthroughLeg echoes rawAmount (an integer string of raw units) on both
// sides of its result without contacting the provider.
func PassthroughLeg(rawAmount string) BatchLeg {
	return BatchLeg{kind: legPassthrough, rawAmount: rawAmount}
}

func (l BatchLeg) IsPassthrough() bool { return l.kind == legPassthrough }

// Request returns the underlying quote request; ok is false for Passthrough
// legs, which carry none.
func (l BatchLeg) Request() (QuoteRequest, bool) {
	if l.kind != legReal {
		return QuoteRequest{}, false
	}
	return l.req, true
}

func (l BatchLeg) RawAmount() string { return l.rawAmount }
