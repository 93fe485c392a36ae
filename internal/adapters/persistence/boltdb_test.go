package persistence

import (
	"math/big"
	"path/filepath"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/basket-engine/internal/domain"
)

func TestRecordAndListQuotes(t *testing.T) {
	s, err := NewStorage(filepath.Join(t.TempDir(), "audit.db"))
	require.NoError(t, err)
	defer s.Close()

	result := &domain.QuoteResult{
		FromToken:   ethcommon.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"),
		ToToken:     ethcommon.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		FromUnits:   big.NewInt(1126868991563),
		ToUnits:     big.NewInt(90314741816),
		GasEstimate: 280000,
		GasPrice:    big.NewInt(30000000000),
	}

	require.NoError(t, s.RecordQuote("trade", result))
	require.NoError(t, s.RecordQuote("trade", result))

	n, err := s.QuoteCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	quotes, err := s.RecentQuotes(10)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "trade", quotes[0].Mode)
	assert.Equal(t, "1126868991563", quotes[0].FromUnits)
	assert.Equal(t, "90314741816", quotes[0].ToUnits)
	assert.Equal(t, uint64(280000), quotes[0].GasEstimate)

	// Limit applies.
	quotes, err = s.RecentQuotes(1)
	require.NoError(t, err)
	assert.Len(t, quotes, 1)
}
