// Package scaling converts between total notional amounts and per-share basket
// units. Rounding direction is part of the protocol contract: sell-side
// conversions round up so the per-share figure always covers the requested
// notional, buy-side conversions round down so the engine never promises more
// than will arrive. All math is arbitrary-precision big.Int.
package scaling

import (
	"fmt"
	"math"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/hxuan190/basket-engine/internal/common"
)

// Pre-computed constants (avoid allocation on every call)
var (
	zero  = big.NewInt(0)
	one   = big.NewInt(1)
	milli = big.NewInt(1000)
)

// NotionalToPerShareSell converts a total sell amount to per-share units,
// rounding up: perShare = ceil(total * SCALE / supply). Rounding down here
// would under-collateralize the trade when the per-share figure is multiplied
// back up at execution time.
func NotionalToPerShareSell(totalAmount, totalSupply *big.Int) (*big.Int, error) {
	if err := checkSupply(totalSupply); err != nil {
		return nil, err
	}
	if totalAmount.Sign() < 0 {
		return nil, fmt.Errorf("negative sell amount %s", totalAmount)
	}

	// ceil(a*SCALE/b) = (a*SCALE + b - 1) / b
	num := new(big.Int).Mul(totalAmount, common.Scale)
	num.Add(num, totalSupply)
	num.Sub(num, one)
	per := num.Div(num, totalSupply)

	if err := CheckUint256(per); err != nil {
		return nil, err
	}
	return per, nil
}

// NotionalToPerShareBuy converts a total buy amount to per-share units after
// the slippage+fee haircut, truncating at both steps: promising a fractionally
// larger min-receive than will actually arrive is a correctness violation,
// under-promising is safe.
func NotionalToPerShareBuy(totalAmount, totalSupply *big.Int, slippagePercent, feePercent float64) (*big.Int, error) {
	if err := checkSupply(totalSupply); err != nil {
		return nil, err
	}
	if totalAmount.Sign() < 0 {
		return nil, fmt.Errorf("negative buy amount %s", totalAmount)
	}

	tolerance := big.NewInt(ToleranceMilli(slippagePercent, feePercent))
	haircut := new(big.Int).Mul(totalAmount, tolerance)
	haircut.Div(haircut, milli)

	per := haircut.Mul(haircut, common.Scale)
	per.Div(per, totalSupply)

	if err := CheckUint256(per); err != nil {
		return nil, err
	}
	return per, nil
}

// ToleranceMilli returns floor(1000 * (100 - (slippage + fee)) / 100): the
// fraction of the quoted buy amount, in thousandths, that survives the
// combined haircut. The floor is taken over the COMBINED percentage with
// integer math; flooring each input separately, or letting float division
// round, can push the tolerance up by one and over-promise the min-receive.
// Inputs are meaningful to 0.001% granularity.
func ToleranceMilli(slippagePercent, feePercent float64) int64 {
	combinedMilli := int64(math.Round(slippagePercent*1000)) + int64(math.Round(feePercent*1000))
	return 1000 * (100000 - combinedMilli) / 100000
}

// ImpliedMax is the largest notional sell amount the basket's position can
// fund: floor(unit * supply / SCALE).
func ImpliedMax(unit, totalSupply *big.Int) *big.Int {
	max := new(big.Int).Mul(unit, totalSupply)
	return max.Div(max, common.Scale)
}

// NormalizeSellAmount validates a requested notional sell amount against the
// position and truncates it to the precision representable as an exact
// per-share unit, so later conversions round-trip without drift.
//
// The exact implied-max request is the "sell entire position" case and is
// returned verbatim: re-rounding it would accumulate error against the
// position's true unit.
func NormalizeSellAmount(token ethcommon.Address, unit, totalSupply, amount *big.Int) (normalized *big.Int, exactMax bool, err error) {
	if err := checkSupply(totalSupply); err != nil {
		return nil, false, err
	}
	if amount.Sign() < 0 {
		return nil, false, fmt.Errorf("negative sell amount %s", amount)
	}

	if unit == nil {
		unit = zero
	}
	implied := ImpliedMax(unit, totalSupply)

	switch amount.Cmp(implied) {
	case 1:
		return nil, false, &common.AmountExceedsAvailableError{Token: token, Requested: new(big.Int).Set(amount), Available: implied}
	case 0:
		return new(big.Int).Set(implied), true, nil
	}

	// floor(floor(amount*SCALE/supply) * supply / SCALE)
	per := new(big.Int).Mul(amount, common.Scale)
	per.Div(per, totalSupply)
	norm := per.Mul(per, totalSupply)
	norm.Div(norm, common.Scale)
	return norm, false, nil
}

// PerShareToNotional is the execution-time inverse of the sell conversion:
// floor(perShare * supply / SCALE).
func PerShareToNotional(perShare, totalSupply *big.Int) *big.Int {
	n := new(big.Int).Mul(perShare, totalSupply)
	return n.Div(n, common.Scale)
}

// CheckUint256 rejects values that cannot be submitted on-chain as a uint256.
func CheckUint256(v *big.Int) error {
	if v.Sign() < 0 {
		return fmt.Errorf("value %s is negative", v)
	}
	if _, overflow := uint256.FromBig(v); overflow {
		return fmt.Errorf("value %s overflows uint256", v)
	}
	return nil
}

func checkSupply(totalSupply *big.Int) error {
	if totalSupply == nil || totalSupply.Sign() <= 0 {
		return fmt.Errorf("total supply must be positive, got %s", totalSupply)
	}
	return nil
}
