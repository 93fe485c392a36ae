package scaling

import (
	"math/big"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/basket-engine/internal/common"
)

// Fixture from a production basket: one wBTC position against a large supply.
var (
	fixtureUnit   = mustBig("0x354e308b36c16b")       // 15004144166682987
	fixtureSupply = mustBig("0x5df56bc958049751d8fb") // 443707302040744963987707
)

func mustBig(hex string) *big.Int {
	v, ok := new(big.Int).SetString(hex[2:], 16)
	if !ok {
		panic("bad hex " + hex)
	}
	return v
}

func dec(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad decimal " + s)
	}
	return v
}

func TestNotionalToPerShareSellRoundsUp(t *testing.T) {
	per, err := NotionalToPerShareSell(dec("499999999999793729"), fixtureSupply)
	require.NoError(t, err)
	assert.Equal(t, dec("1126868991563"), per)

	// Ceiling property: scaling back down always covers the notional.
	back := PerShareToNotional(per, fixtureSupply)
	assert.True(t, back.Cmp(dec("499999999999793729")) >= 0)
}

func TestNotionalToPerShareSellCeilingProperty(t *testing.T) {
	amounts := []*big.Int{
		big.NewInt(1),
		big.NewInt(49),
		dec("1000000000000000000"),
		dec("499999999999793729"),
		dec("123456789123456789123"),
	}
	for _, amount := range amounts {
		per, err := NotionalToPerShareSell(amount, fixtureSupply)
		require.NoError(t, err)
		back := PerShareToNotional(per, fixtureSupply)
		assert.True(t, back.Cmp(amount) >= 0,
			"ceil(%s) scaled back gives %s, below the requested notional", amount, back)
	}
}

func TestNotionalToPerShareBuyAppliesHaircut(t *testing.T) {
	// Provider returns 41312691160507030; 2% slippage + 1% fee leaves 970/1000.
	per, err := NotionalToPerShareBuy(dec("41312691160507030"), fixtureSupply, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, dec("90314741816"), per)
}

func TestNotionalToPerShareBuyFloorsCombinedTolerance(t *testing.T) {
	// 0.24% slippage sits between 0.1% steps; the surviving fraction is
	// floor(1000*99.76/100) = 997, so with supply 1 the per-share figure is
	// 997 * SCALE, not 998 * SCALE.
	per, err := NotionalToPerShareBuy(big.NewInt(1000), big.NewInt(1), 0.24, 0)
	require.NoError(t, err)
	assert.Equal(t, new(big.Int).Mul(big.NewInt(997), common.Scale), per)
}

func TestToleranceMilli(t *testing.T) {
	tests := []struct {
		slippage, fee float64
		want          int64
	}{
		{2, 1, 970},
		{2, 0, 980},
		{0, 0, 1000},
		{0.5, 0.5, 990},
		{0.1, 0, 999},
		{100, 0, 0},
		// Sub-0.1% inputs floor over the combined value, never round up.
		{0.24, 0, 997},
		{0.2, 0, 998},
		{0.44, 0.44, 991},
		{0.05, 0.04, 999},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToleranceMilli(tt.slippage, tt.fee),
			"slippage %v fee %v", tt.slippage, tt.fee)
	}
}

func TestNormalizeSellAmountTruncatesToPerShareGrid(t *testing.T) {
	// 0.5 of an 18-decimal token.
	norm, exactMax, err := NormalizeSellAmount(ethcommon.Address{}, fixtureUnit, fixtureSupply, dec("500000000000000000"))
	require.NoError(t, err)
	assert.False(t, exactMax)
	assert.Equal(t, dec("499999999999793729"), norm)

	// Normalization is idempotent: a grid value maps to itself.
	again, _, err := NormalizeSellAmount(ethcommon.Address{}, fixtureUnit, fixtureSupply, norm)
	require.NoError(t, err)
	assert.Equal(t, norm, again)
}

func TestNormalizeSellAmountExactMaxShortCircuit(t *testing.T) {
	implied := ImpliedMax(fixtureUnit, fixtureSupply)

	norm, exactMax, err := NormalizeSellAmount(ethcommon.Address{}, fixtureUnit, fixtureSupply, implied)
	require.NoError(t, err)
	assert.True(t, exactMax)
	assert.Equal(t, implied, norm, "implied-max request must pass through verbatim")

	// Selling the entire position converts to exactly the position's unit.
	per, err := NotionalToPerShareSell(norm, fixtureSupply)
	require.NoError(t, err)
	assert.Equal(t, fixtureUnit, per)
}

func TestNormalizeSellAmountExceedsAvailable(t *testing.T) {
	token := ethcommon.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")
	implied := ImpliedMax(fixtureUnit, fixtureSupply)
	over := new(big.Int).Add(implied, big.NewInt(1))

	_, _, err := NormalizeSellAmount(token, fixtureUnit, fixtureSupply, over)
	var exceeds *common.AmountExceedsAvailableError
	require.ErrorAs(t, err, &exceeds)
	assert.Equal(t, token, exceeds.Token)
	assert.Equal(t, implied, exceeds.Available)
}

func TestNormalizeSellAmountNilPosition(t *testing.T) {
	_, _, err := NormalizeSellAmount(ethcommon.Address{}, nil, fixtureSupply, big.NewInt(1))
	var exceeds *common.AmountExceedsAvailableError
	require.ErrorAs(t, err, &exceeds)
	assert.Equal(t, int64(0), exceeds.Available.Int64())
}

func TestScalingRejectsZeroSupply(t *testing.T) {
	_, err := NotionalToPerShareSell(big.NewInt(1), big.NewInt(0))
	assert.Error(t, err)

	_, err = NotionalToPerShareBuy(big.NewInt(1), big.NewInt(0), 2, 0)
	assert.Error(t, err)

	_, _, err = NormalizeSellAmount(ethcommon.Address{}, fixtureUnit, big.NewInt(-1), big.NewInt(1))
	assert.Error(t, err)
}

func TestCheckUint256(t *testing.T) {
	maxU256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	assert.NoError(t, CheckUint256(maxU256))
	assert.Error(t, CheckUint256(new(big.Int).Add(maxU256, big.NewInt(1))))
	assert.Error(t, CheckUint256(big.NewInt(-1)))
}
