// Package dust rejects trades that would strand a near-zero, unusable
// position in the basket.
package dust

import (
	"fmt"
	"math/big"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/services/scaling"
)

// CheckSell rejects a per-share delta that would leave the sold position at
// 0 < remaining < DustThreshold. A trade meant as a full exit can otherwise
// leave an unusable sliver through rounding alone.
func CheckSell(snap *domain.BasketSnapshot, token ethcommon.Address, delta *big.Int) error {
	current := big.NewInt(0)
	if pos := snap.PositionOf(token); pos != nil {
		current = pos.Unit
	}

	remaining := new(big.Int).Sub(current, delta)
	if remaining.Sign() > 0 && remaining.Cmp(common.DustThreshold) < 0 {
		return &common.DustPositionError{Side: "sell side", Token: token, Units: remaining}
	}
	return nil
}

// CheckBuy rejects a per-share delta that would create a bought position at
// 0 < resulting < DustThreshold. Skipped entirely by callers with no buy
// token; a missing existing position counts as zero.
func CheckBuy(snap *domain.BasketSnapshot, token ethcommon.Address, delta *big.Int) error {
	current := big.NewInt(0)
	if pos := snap.PositionOf(token); pos != nil {
		current = pos.Unit
	}

	resulting := new(big.Int).Add(current, delta)
	if resulting.Sign() > 0 && resulting.Cmp(common.DustThreshold) < 0 {
		return &common.DustPositionError{Side: "buy side", Token: token, Units: resulting}
	}
	return nil
}

// ValidateBatch is the batch-wide pre-check run before any leg is scheduled.
// Sell notionals are summed per token across Real legs; a token sold in more
// than one leg gets its summed amount converted and dust-checked here.
// Tokens sold in exactly one leg are checked inside that leg's own
// orchestration instead: a single leg may deliberately request the exact
// implied max, which bypasses the threshold via the normalization
// short-circuit.
func ValidateBatch(snap *domain.BasketSnapshot, legs []domain.BatchLeg) error {
	type sellTotal struct {
		amount *big.Int
		count  int
	}
	totals := make(map[ethcommon.Address]*sellTotal)

	for i, leg := range legs {
		req, ok := leg.Request()
		if !ok {
			continue
		}
		amount, err := domain.ParseRawAmount(req.RawAmount, req.FromDecimals)
		if err != nil {
			return fmt.Errorf("leg %d: %w", i, err)
		}
		t, ok2 := totals[req.FromToken]
		if !ok2 {
			t = &sellTotal{amount: new(big.Int)}
			totals[req.FromToken] = t
		}
		t.amount.Add(t.amount, amount)
		t.count++
	}

	for token, total := range totals {
		if total.count < 2 {
			continue
		}
		delta, err := scaling.NotionalToPerShareSell(total.amount, snap.TotalSupply)
		if err != nil {
			return err
		}
		if err := CheckSell(snap, token, delta); err != nil {
			return err
		}
	}
	return nil
}
