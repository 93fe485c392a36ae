package http

import (
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/basket-engine/internal/http/httputil"
	"github.com/hxuan190/basket-engine/internal/services/quote"
)

// SwapHandler quotes external funding-token swaps. These execute from the
// basket's manager and bypass per-share scaling and dust validation entirely.
type SwapHandler struct {
	quoteSvc *quote.Service
}

func NewSwapHandler(quoteSvc *quote.Service) *SwapHandler {
	return &SwapHandler{quoteSvc: quoteSvc}
}

func (h *SwapHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getSwapQuote)
}

func (h *SwapHandler) Root() string {
	return "/swap"
}

// @Summary Get swap quote
// @Description Price a funding-token swap executed by the basket's manager:
// @Description - Amounts stay in raw token units, no per-share conversion applies
// @Description - useBuyAmount=true interprets rawAmount as the desired buy amount
// @Description - The provider's own gas estimate is returned, no on-chain simulation runs
// @Tags swap
// @Produce json
// @Param fromToken query string true "Token being sold" example("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
// @Param toToken query string true "Token being bought" example("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")
// @Param rawAmount query string true "Amount as a decimal string" example("1")
// @Param fromDecimals query int false "Sell token decimals" default(18)
// @Param toDecimals query int false "Buy token decimals" default(18)
// @Param fromAddress query string true "Basket token address" example("0x1494CA1F11D487c2bBe4543E90080AeBa4BA3C2b")
// @Param useBuyAmount query bool false "Interpret rawAmount as the buy amount" default(false)
// @Param slippagePercentage query number false "Slippage tolerance in percent" default(2)
// @Param feePercentage query number false "Buy-token fee in percent" default(0)
// @Param excludedSources query string false "Comma-separated excluded liquidity sources" default(Kyber)
// @Param isFirmQuote query bool false "Quote precedes execution" default(true)
// @Success 200 {object} QuoteResponse "Priced swap in raw token units"
// @Failure 400 {object} httputil.Response "Invalid parameters or unsupported chain"
// @Failure 502 {object} httputil.Response "Quote provider failure"
// @Router /api/v1/swap [get]
func (h *SwapHandler) getSwapQuote(c *gin.Context) {
	req, ok := parseQuoteParams(c)
	if !ok {
		return
	}

	result, err := h.quoteSvc.QuoteSwap(c.Request.Context(), req)
	if err != nil {
		handleQuoteError(c, err)
		return
	}
	httputil.Success(c, buildQuoteResponse(result))
}
