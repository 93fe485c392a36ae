package http

import (
	"errors"
	gohttp "net/http"
	"strconv"
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/http/httputil"
	"github.com/hxuan190/basket-engine/internal/services/quote"
)

type QuoteHandler struct {
	quoteSvc *quote.Service
}

func NewQuoteHandler(quoteSvc *quote.Service) *QuoteHandler {
	return &QuoteHandler{quoteSvc: quoteSvc}
}

func (h *QuoteHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.GET("", h.getTradeQuote)
	admin.GET("/history", h.getHistory)
}

func (h *QuoteHandler) Root() string {
	return "/quote"
}

// QuoteParams are the query parameters shared by the trade and swap quote
// endpoints.
type QuoteParams struct {
	// Token being sold (checksummed or lowercase hex address)
	// Example: "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599" (WBTC)
	FromToken string `form:"fromToken" binding:"required" example:"0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"`

	// Token being bought. May be omitted on trade quotes whose buy side needs
	// no dust protection (e.g. unwinds into the funding token).
	ToToken string `form:"toToken" example:"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`

	// Human-readable decimal amount, e.g. "0.5". For trade quotes this is the
	// total notional moved across the whole basket supply.
	RawAmount string `form:"rawAmount" binding:"required" example:"0.5"`

	// ERC-20 decimals of the from/to tokens
	FromDecimals uint8 `form:"fromDecimals,default=18" example:"8"`
	ToDecimals   uint8 `form:"toDecimals,default=18" example:"18"`

	// Basket token whose positions fund the trade
	FromAddress string `form:"fromAddress" binding:"required" example:"0x1494CA1F11D487c2bBe4543E90080AeBa4BA3C2b"`

	// Slippage tolerance in percent. Default: 2 (2%)
	SlippagePercentage *float64 `form:"slippagePercentage" example:"1.5"`

	// Aggregator fee on the buy token, in percent. Default: 0
	FeePercentage *float64 `form:"feePercentage" example:"1"`

	// Fee recipient address; engine default when omitted
	FeeRecipient string `form:"feeRecipient"`

	// Comma-separated liquidity sources to exclude. Default: "Kyber"
	ExcludedSources string `form:"excludedSources" example:"Kyber,Uniswap_V2"`

	// Whether this quote precedes actual execution. Default: true
	IsFirmQuote *bool `form:"isFirmQuote" example:"true"`

	// Interpret rawAmount as the buy amount instead of the sell amount.
	// Honored on swap quotes only.
	UseBuyAmount bool `form:"useBuyAmount" example:"false"`
}

// QuoteResponse is the priced leg, all big integers as decimal strings.
type QuoteResponse struct {
	FromToken string `json:"fromToken" example:"0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"`
	ToToken   string `json:"toToken" example:"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`

	// Per-share units for trade quotes, raw token totals for swap quotes
	FromUnits string `json:"fromUnits" example:"1126868991563"`
	ToUnits   string `json:"toUnits" example:"90314741816"`

	// Provider calldata to pass through to the trade module, 0x-prefixed hex
	Calldata string `json:"calldata" example:"0xd9627aa4..."`

	GasEstimate uint64 `json:"gasEstimate" example:"280000"`
	GasPrice    string `json:"gasPrice,omitempty" example:"30000000000"`

	// Display-only enrichment; zeros when the upstream fetch failed
	FromTokenPriceUsd float64 `json:"fromTokenPriceUsd" example:"43000"`
	ToTokenPriceUsd   float64 `json:"toTokenPriceUsd" example:"2000"`
	GasCostUsd        float64 `json:"gasCostUsd" example:"16.8"`
	SlippagePercent   float64 `json:"slippagePercent" example:"2"`
}

func parseQuoteParams(c *gin.Context) (domain.QuoteRequest, bool) {
	var params QuoteParams
	if err := c.ShouldBindQuery(&params); err != nil {
		httputil.BadRequest(c, "invalid query parameters: "+err.Error())
		return domain.QuoteRequest{}, false
	}

	if !ethcommon.IsHexAddress(params.FromToken) {
		httputil.BadRequest(c, "invalid fromToken address")
		return domain.QuoteRequest{}, false
	}
	if params.ToToken != "" && !ethcommon.IsHexAddress(params.ToToken) {
		httputil.BadRequest(c, "invalid toToken address")
		return domain.QuoteRequest{}, false
	}
	if !ethcommon.IsHexAddress(params.FromAddress) {
		httputil.BadRequest(c, "invalid fromAddress")
		return domain.QuoteRequest{}, false
	}

	req := domain.QuoteRequest{
		FromToken:       ethcommon.HexToAddress(params.FromToken),
		ToToken:         ethcommon.HexToAddress(params.ToToken),
		FromDecimals:    params.FromDecimals,
		ToDecimals:      params.ToDecimals,
		RawAmount:       params.RawAmount,
		UseBuyAmount:    params.UseBuyAmount,
		FromAddress:     ethcommon.HexToAddress(params.FromAddress),
		SlippagePercent: params.SlippagePercentage,
		FeePercent:      params.FeePercentage,
		IsFirmQuote:     params.IsFirmQuote,
	}
	if params.FeeRecipient != "" {
		if !ethcommon.IsHexAddress(params.FeeRecipient) {
			httputil.BadRequest(c, "invalid feeRecipient address")
			return domain.QuoteRequest{}, false
		}
		recipient := ethcommon.HexToAddress(params.FeeRecipient)
		req.FeeRecipient = &recipient
	}
	if params.ExcludedSources != "" {
		req.ExcludedProviders = strings.Split(params.ExcludedSources, ",")
	}
	return req, true
}

func buildQuoteResponse(result *domain.QuoteResult) QuoteResponse {
	resp := QuoteResponse{
		FromToken:         result.FromToken.Hex(),
		ToToken:           result.ToToken.Hex(),
		FromUnits:         result.FromUnits.String(),
		ToUnits:           result.ToUnits.String(),
		Calldata:          hexutil.Encode(result.Calldata),
		GasEstimate:       result.GasEstimate,
		FromTokenPriceUsd: result.Display.FromTokenPriceUsd,
		ToTokenPriceUsd:   result.Display.ToTokenPriceUsd,
		GasCostUsd:        result.Display.GasCostUsd,
		SlippagePercent:   result.Display.SlippagePercent,
	}
	if result.GasPrice != nil {
		resp.GasPrice = result.GasPrice.String()
	}
	return resp
}

// handleQuoteError maps engine errors to HTTP statuses: caller mistakes are
// 400, protocol-rule rejections 422, upstream failures 502.
func handleQuoteError(c *gin.Context, err error) {
	var unsupported *common.UnsupportedChainError
	var exceeds *common.AmountExceedsAvailableError
	var dust *common.DustPositionError
	var provider *common.QuoteProviderError
	var gas *common.GasEstimationError

	switch {
	case errors.As(err, &unsupported), errors.As(err, &exceeds):
		httputil.BadRequest(c, err.Error())
	case errors.As(err, &dust):
		httputil.Error(c, gohttp.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &provider), errors.As(err, &gas):
		httputil.Error(c, gohttp.StatusBadGateway, err.Error())
	default:
		httputil.InternalError(c, err.Error())
	}
}

// @Summary Get trade quote
// @Description Price one rebalance leg of a basket token and convert the totals to per-share units:
// @Description - The sell amount is validated against the basket's implied maximum for that component
// @Description - Sell units round up, buy units round down after the slippage+fee haircut
// @Description - Trades leaving a position below the dust threshold are rejected
// @Description - Gas is simulated against the trade module from the manager's account
// @Description
// @Description **Amount Format:**
// @Description - rawAmount is a human decimal string of the total notional, e.g. "0.5"
// @Description - It is truncated to the nearest exactly-representable per-share figure before quoting
// @Tags quote
// @Produce json
// @Param fromToken query string true "Token being sold" example("0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599")
// @Param toToken query string false "Token being bought" example("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
// @Param rawAmount query string true "Total notional as a decimal string" example("0.5")
// @Param fromDecimals query int false "Sell token decimals" default(18)
// @Param toDecimals query int false "Buy token decimals" default(18)
// @Param fromAddress query string true "Basket token address" example("0x1494CA1F11D487c2bBe4543E90080AeBa4BA3C2b")
// @Param slippagePercentage query number false "Slippage tolerance in percent" default(2)
// @Param feePercentage query number false "Buy-token fee in percent" default(0)
// @Param excludedSources query string false "Comma-separated excluded liquidity sources" default(Kyber)
// @Param isFirmQuote query bool false "Quote precedes execution" default(true)
// @Success 200 {object} QuoteResponse "Priced leg in per-share units"
// @Failure 400 {object} httputil.Response "Invalid parameters, unsupported chain or amount above implied max"
// @Failure 422 {object} httputil.Response "Trade would leave a dust position"
// @Failure 502 {object} httputil.Response "Quote provider or gas estimation failure"
// @Router /api/v1/quote [get]
func (h *QuoteHandler) getTradeQuote(c *gin.Context) {
	req, ok := parseQuoteParams(c)
	if !ok {
		return
	}

	result, err := h.quoteSvc.QuoteTrade(c.Request.Context(), req)
	if err != nil {
		handleQuoteError(c, err)
		return
	}
	httputil.Success(c, buildQuoteResponse(result))
}

// @Summary List recent quotes
// @Description Returns the most recent audit records, newest first. Empty when auditing is disabled.
// @Tags quote
// @Produce json
// @Param limit query int false "Maximum records to return" default(50)
// @Success 200 {array} persistence.StoredQuote
// @Router /api/v1/admin/quote/history [get]
func (h *QuoteHandler) getHistory(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			httputil.BadRequest(c, "invalid limit")
			return
		}
		limit = parsed
	}

	quotes, err := h.quoteSvc.RecentQuotes(limit)
	if err != nil {
		httputil.InternalError(c, err.Error())
		return
	}
	httputil.Success(c, quotes)
}
