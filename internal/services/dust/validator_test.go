package dust

import (
	"math/big"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/domain"
)

var (
	wbtc = ethcommon.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")
	weth = ethcommon.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

func snapshotWith(unit int64, supply string) *domain.BasketSnapshot {
	total, _ := new(big.Int).SetString(supply, 10)
	return &domain.BasketSnapshot{
		Positions: []domain.Position{
			{Component: wbtc, Unit: big.NewInt(unit)},
		},
		TotalSupply: total,
	}
}

func TestCheckSell(t *testing.T) {
	snap := snapshotWith(1000, "1000000000000000000")

	tests := []struct {
		name    string
		delta   int64
		wantErr bool
	}{
		{"full exit leaves zero", 1000, false},
		{"healthy remainder", 900, false},
		{"exactly at threshold", 950, false},
		{"dust remainder", 980, true},
		{"one unit short of exit", 999, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckSell(snap, wbtc, big.NewInt(tt.delta))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var dustErr *common.DustPositionError
			require.ErrorAs(t, err, &dustErr)
			assert.Equal(t, "sell side", dustErr.Side)
			assert.Equal(t, wbtc, dustErr.Token)
		})
	}
}

func TestCheckBuy(t *testing.T) {
	snap := snapshotWith(1000, "1000000000000000000")

	// No existing position: the delta alone decides.
	err := CheckBuy(snap, weth, big.NewInt(49))
	var dustErr *common.DustPositionError
	require.ErrorAs(t, err, &dustErr)
	assert.Equal(t, "buy side", dustErr.Side)

	assert.NoError(t, CheckBuy(snap, weth, big.NewInt(50)))
	assert.NoError(t, CheckBuy(snap, weth, big.NewInt(0)))

	// Existing position tops up past the threshold.
	assert.NoError(t, CheckBuy(snap, wbtc, big.NewInt(1)))
}

func TestValidateBatchSumsRepeatedSellToken(t *testing.T) {
	// unit=1000 per share, supply=1e18 → implied max notional 1000.
	snap := snapshotWith(1000, "1000000000000000000")

	leg := func(raw string) domain.BatchLeg {
		return domain.RealLeg(domain.QuoteRequest{
			FromToken:    wbtc,
			ToToken:      weth,
			FromDecimals: 0,
			RawAmount:    raw,
		})
	}

	// Two legs summing to 960 leave remaining 40 < 50: rejected before any
	// network call.
	err := ValidateBatch(snap, []domain.BatchLeg{leg("480"), leg("480")})
	var dustErr *common.DustPositionError
	require.ErrorAs(t, err, &dustErr)
	assert.Equal(t, "sell side", dustErr.Side)

	// Summing to a clean full exit passes.
	assert.NoError(t, ValidateBatch(snap, []domain.BatchLeg{leg("500"), leg("500")}))

	// A single leg selling 960 is not pre-checked here; its own orchestration
	// decides.
	assert.NoError(t, ValidateBatch(snap, []domain.BatchLeg{leg("960")}))

	// Passthrough legs never participate.
	assert.NoError(t, ValidateBatch(snap, []domain.BatchLeg{
		leg("500"), domain.PassthroughLeg("123"), leg("500"),
	}))
}
