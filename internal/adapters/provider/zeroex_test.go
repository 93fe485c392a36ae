package provider

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient(common.ChainMainnet, srv.URL, "test-key")
	require.NoError(t, err)
	return c
}

func TestFetchQuoteParsesPayload(t *testing.T) {
	var gotQuery map[string][]string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		assert.Equal(t, "test-key", r.Header.Get(apiKeyHeader))
		w.Write([]byte(`{
			"price": "0.08262",
			"guaranteedPrice": "0.08097",
			"data": "0xd9627aa4",
			"sellAmount": "499999999999793729",
			"buyAmount": "41312691160507030",
			"gas": "280000"
		}`))
	})

	quote, err := c.FetchQuote(context.Background(), domain.ProviderRequest{
		SellToken:          ethcommon.HexToAddress("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"),
		BuyToken:           ethcommon.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
		SellAmount:         big.NewInt(499999999999793729),
		SlippagePercent:    2,
		ExcludedProviders:  []string{"Kyber"},
		FeeRecipient:       common.DefaultFeeRecipient,
		BuyTokenFeePercent: 1,
		Firm:               true,
	})
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(499999999999793729), quote.SellAmount)
	assert.Equal(t, big.NewInt(41312691160507030), quote.BuyAmount)
	assert.Equal(t, uint64(280000), quote.GasEstimate)
	assert.Equal(t, "0xd9627aa4", quote.Calldata.String())

	assert.Equal(t, []string{"499999999999793729"}, gotQuery["sellAmount"])
	assert.Equal(t, []string{"0.02"}, gotQuery["slippagePercentage"])
	assert.Equal(t, []string{"0.01"}, gotQuery["buyTokenPercentageFee"])
	assert.Equal(t, []string{"Kyber"}, gotQuery["excludedSources"])
	assert.Empty(t, gotQuery["skipValidation"], "firm quotes must not skip validation")
}

func TestFetchQuoteBuyAmountMode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1000000", r.URL.Query().Get("buyAmount"))
		assert.Empty(t, r.URL.Query().Get("sellAmount"))
		w.Write([]byte(`{"price":"1","guaranteedPrice":"1","data":"0x","sellAmount":"1","buyAmount":"1000000","gas":"21000"}`))
	})

	quote, err := c.FetchQuote(context.Background(), domain.ProviderRequest{
		BuyAmount: big.NewInt(1000000),
	})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1000000), quote.BuyAmount)
}

func TestFetchQuoteSurfacesProviderReason(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":100,"reason":"INSUFFICIENT_ASSET_LIQUIDITY"}`))
	})

	_, err := c.FetchQuote(context.Background(), domain.ProviderRequest{SellAmount: big.NewInt(1)})
	var provErr *common.QuoteProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Contains(t, provErr.Error(), "INSUFFICIENT_ASSET_LIQUIDITY")
}

func TestFetchQuoteMalformedPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"sellAmount":"not-a-number","buyAmount":"1","gas":"1","data":"0x"}`))
	})

	_, err := c.FetchQuote(context.Background(), domain.ProviderRequest{SellAmount: big.NewInt(1)})
	var provErr *common.QuoteProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Contains(t, provErr.Error(), "malformed payload")
}

func TestNewClientRejectsUnknownChain(t *testing.T) {
	_, err := NewClient(1337, "", "")
	var chainErr *common.UnsupportedChainError
	require.ErrorAs(t, err, &chainErr)
	assert.Equal(t, int64(1337), chainErr.ChainID)
}
