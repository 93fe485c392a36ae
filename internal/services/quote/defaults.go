package quote

import (
	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/domain"
)

// resolvedRequest is a QuoteRequest with every optional field decided. It is
// built fresh per call; the caller's request is never mutated and no default
// lives in mutable service state.
type resolvedRequest struct {
	domain.QuoteRequest

	Slippage     float64
	Fee          float64
	FeeRecipient ethcommon.Address
	Excluded     []string
	Firm         bool
}

func resolve(req domain.QuoteRequest) resolvedRequest {
	r := resolvedRequest{
		QuoteRequest: req,
		Slippage:     common.DefaultSlippagePercent,
		Fee:          common.DefaultFeePercent,
		FeeRecipient: common.DefaultFeeRecipient,
		Excluded:     common.DefaultExcludedProviders,
		Firm:         true,
	}
	if req.SlippagePercent != nil {
		r.Slippage = *req.SlippagePercent
	}
	if req.FeePercent != nil {
		r.Fee = *req.FeePercent
	}
	if req.FeeRecipient != nil {
		r.FeeRecipient = *req.FeeRecipient
	}
	if req.ExcludedProviders != nil {
		r.Excluded = req.ExcludedProviders
	}
	if req.IsFirmQuote != nil {
		r.Firm = *req.IsFirmQuote
	}
	return r
}
