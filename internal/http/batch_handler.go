package http

import (
	"fmt"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"

	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/http/httputil"
	"github.com/hxuan190/basket-engine/internal/services/batch"
)

// BatchHandler prices whole rebalances: many legs in one call, staggered
// against the provider and dust-checked in aggregate before anything is
// scheduled.
type BatchHandler struct {
	batchSvc *batch.Scheduler
}

func NewBatchHandler(batchSvc *batch.Scheduler) *BatchHandler {
	return &BatchHandler{batchSvc: batchSvc}
}

func (h *BatchHandler) SetRoutes(pub *gin.RouterGroup, private *gin.RouterGroup, admin *gin.RouterGroup) {
	pub.POST("/trade", h.postTradeBatch)
	pub.POST("/swap", h.postSwapBatch)
	pub.POST("/validate", h.postValidate)
}

func (h *BatchHandler) Root() string {
	return "/batch"
}

// BatchLegParams is one entry of a batch request. A passthrough leg carries
// only rawAmount (an integer string of raw units) and is echoed back without
// being priced, keeping result indexes aligned with a caller-side plan.
type BatchLegParams struct {
	// Echo this leg instead of pricing it
	Passthrough bool `json:"passthrough" example:"false"`

	// Decimal notional for real legs, integer raw units for passthrough legs
	RawAmount string `json:"rawAmount" binding:"required" example:"0.5"`

	FromToken string `json:"fromToken" example:"0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599"`
	ToToken   string `json:"toToken" example:"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"`

	// Token decimals; 18 when omitted
	FromDecimals *uint8 `json:"fromDecimals" example:"8"`
	ToDecimals   *uint8 `json:"toDecimals" example:"18"`

	// Basket token whose positions fund the trade; required on real legs
	FromAddress string `json:"fromAddress" example:"0x1494CA1F11D487c2bBe4543E90080AeBa4BA3C2b"`

	SlippagePercentage *float64 `json:"slippagePercentage" example:"2"`
	FeePercentage      *float64 `json:"feePercentage" example:"0"`
	FeeRecipient       string   `json:"feeRecipient"`
	ExcludedSources    []string `json:"excludedSources" example:"Kyber"`
	IsFirmQuote        *bool    `json:"isFirmQuote" example:"true"`
	UseBuyAmount       bool     `json:"useBuyAmount" example:"false"`
}

// BatchRequest prices every leg concurrently with a per-leg start delay.
type BatchRequest struct {
	Legs []BatchLegParams `json:"legs" binding:"required,min=1"`

	// Stagger step in milliseconds: leg i starts no earlier than i*step.
	// Engine default when omitted; 0 disables the stagger.
	DelayStepMs *int64 `json:"delayStepMs" example:"300"`
}

// BatchResponse aligns with the request legs by index.
type BatchResponse struct {
	Results []QuoteResponse `json:"results"`
}

func (p BatchLegParams) toLeg() (domain.BatchLeg, error) {
	if p.Passthrough {
		return domain.PassthroughLeg(p.RawAmount), nil
	}

	if !ethcommon.IsHexAddress(p.FromToken) {
		return domain.BatchLeg{}, fmt.Errorf("invalid fromToken address %q", p.FromToken)
	}
	if p.ToToken != "" && !ethcommon.IsHexAddress(p.ToToken) {
		return domain.BatchLeg{}, fmt.Errorf("invalid toToken address %q", p.ToToken)
	}
	if !ethcommon.IsHexAddress(p.FromAddress) {
		return domain.BatchLeg{}, fmt.Errorf("invalid fromAddress %q", p.FromAddress)
	}

	req := domain.QuoteRequest{
		FromToken:         ethcommon.HexToAddress(p.FromToken),
		ToToken:           ethcommon.HexToAddress(p.ToToken),
		FromDecimals:      18,
		ToDecimals:        18,
		RawAmount:         p.RawAmount,
		UseBuyAmount:      p.UseBuyAmount,
		FromAddress:       ethcommon.HexToAddress(p.FromAddress),
		SlippagePercent:   p.SlippagePercentage,
		FeePercent:        p.FeePercentage,
		ExcludedProviders: p.ExcludedSources,
		IsFirmQuote:       p.IsFirmQuote,
	}
	if p.FromDecimals != nil {
		req.FromDecimals = *p.FromDecimals
	}
	if p.ToDecimals != nil {
		req.ToDecimals = *p.ToDecimals
	}
	if p.FeeRecipient != "" {
		if !ethcommon.IsHexAddress(p.FeeRecipient) {
			return domain.BatchLeg{}, fmt.Errorf("invalid feeRecipient address %q", p.FeeRecipient)
		}
		recipient := ethcommon.HexToAddress(p.FeeRecipient)
		req.FeeRecipient = &recipient
	}
	return domain.RealLeg(req), nil
}

func (h *BatchHandler) parseBatch(c *gin.Context) ([]domain.BatchLeg, *time.Duration, bool) {
	var body BatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		httputil.BadRequest(c, "invalid request body: "+err.Error())
		return nil, nil, false
	}

	legs := make([]domain.BatchLeg, 0, len(body.Legs))
	for i, p := range body.Legs {
		leg, err := p.toLeg()
		if err != nil {
			httputil.BadRequest(c, fmt.Sprintf("leg %d: %v", i, err))
			return nil, nil, false
		}
		legs = append(legs, leg)
	}

	var step *time.Duration
	if body.DelayStepMs != nil {
		if *body.DelayStepMs < 0 {
			httputil.BadRequest(c, "delayStepMs must not be negative")
			return nil, nil, false
		}
		d := time.Duration(*body.DelayStepMs) * time.Millisecond
		step = &d
	}
	return legs, step, true
}

func buildBatchResponse(results []*domain.QuoteResult) BatchResponse {
	out := BatchResponse{Results: make([]QuoteResponse, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, buildQuoteResponse(r))
	}
	return out
}

// @Summary Quote a trade batch
// @Description Price every rebalance leg concurrently. Legs are started with an increasing delay to avoid provider rate limits, and the summed sell amounts per token are dust-checked against one snapshot before anything is scheduled. The batch fails as a whole on the first leg error.
// @Tags batch
// @Accept json
// @Produce json
// @Param request body BatchRequest true "Legs to price"
// @Success 200 {object} BatchResponse "Results aligned with legs by index"
// @Failure 400 {object} httputil.Response "Invalid body or leg parameters"
// @Failure 422 {object} httputil.Response "A leg or the aggregate would leave a dust position"
// @Failure 502 {object} httputil.Response "Quote provider or gas estimation failure"
// @Router /api/v1/batch/trade [post]
func (h *BatchHandler) postTradeBatch(c *gin.Context) {
	legs, step, ok := h.parseBatch(c)
	if !ok {
		return
	}

	results, err := h.batchSvc.QuoteTradeBatch(c.Request.Context(), legs, step)
	if err != nil {
		handleQuoteError(c, err)
		return
	}
	httputil.Success(c, buildBatchResponse(results))
}

// @Summary Quote a swap batch
// @Description Price several funding-token swaps concurrently with a short stagger. No basket accounting applies, so there is no aggregate pre-check.
// @Tags batch
// @Accept json
// @Produce json
// @Param request body BatchRequest true "Legs to price"
// @Success 200 {object} BatchResponse "Results aligned with legs by index"
// @Failure 400 {object} httputil.Response "Invalid body or leg parameters"
// @Failure 502 {object} httputil.Response "Quote provider failure"
// @Router /api/v1/batch/swap [post]
func (h *BatchHandler) postSwapBatch(c *gin.Context) {
	legs, step, ok := h.parseBatch(c)
	if !ok {
		return
	}

	results, err := h.batchSvc.QuoteSwapBatch(c.Request.Context(), legs, step)
	if err != nil {
		handleQuoteError(c, err)
		return
	}
	httputil.Success(c, buildBatchResponse(results))
}

// @Summary Validate a trade batch
// @Description Run only the aggregate dust pre-check against the current snapshot, without pricing anything. Useful for vetting a rebalance plan cheaply.
// @Tags batch
// @Accept json
// @Produce json
// @Param request body BatchRequest true "Legs to validate"
// @Success 200 {object} map[string]bool "valid: true"
// @Failure 400 {object} httputil.Response "Invalid body or leg parameters"
// @Failure 422 {object} httputil.Response "The aggregate would leave a dust position"
// @Router /api/v1/batch/validate [post]
func (h *BatchHandler) postValidate(c *gin.Context) {
	legs, _, ok := h.parseBatch(c)
	if !ok {
		return
	}

	if err := h.batchSvc.ValidateTradeBatch(c.Request.Context(), legs); err != nil {
		handleQuoteError(c, err)
		return
	}
	httputil.Success(c, gin.H{"valid": true})
}
