package common

import (
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
)

// UnsupportedChainError is returned before any I/O when the target network is
// not in the supported set.
type UnsupportedChainError struct {
	ChainID int64
}

func (e *UnsupportedChainError) Error() string {
	return fmt.Sprintf("unsupported chain id: %d", e.ChainID)
}

// AmountExceedsAvailableError rejects a sell request larger than the basket's
// implied maximum for that component.
type AmountExceedsAvailableError struct {
	Token     ethcommon.Address
	Requested *big.Int
	Available *big.Int
}

func (e *AmountExceedsAvailableError) Error() string {
	return fmt.Sprintf("amount %s of %s exceeds available %s",
		e.Requested, e.Token.Hex(), e.Available)
}

// DustPositionError rejects a trade that would leave a non-zero position below
// DustThreshold. Side is "sell side" or "buy side".
type DustPositionError struct {
	Side  string
	Token ethcommon.Address
	Units *big.Int
}

func (e *DustPositionError) Error() string {
	return fmt.Sprintf("trade would leave dust position on %s: %s units of %s (minimum %s)",
		e.Side, e.Units, e.Token.Hex(), DustThreshold)
}

// QuoteProviderError wraps a failed or malformed response from the external
// quote provider. The provider message is surfaced verbatim, never retried.
type QuoteProviderError struct {
	Provider string
	Message  string
	Err      error
}

func (e *QuoteProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("quote provider %s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("quote provider %s: %v", e.Provider, e.Err)
}

func (e *QuoteProviderError) Unwrap() error { return e.Err }

// GasEstimationError wraps an on-chain revert or RPC failure during trade gas
// estimation.
type GasEstimationError struct {
	Err error
}

func (e *GasEstimationError) Error() string {
	return fmt.Sprintf("gas estimation failed: %v", e.Err)
}

func (e *GasEstimationError) Unwrap() error { return e.Err }
