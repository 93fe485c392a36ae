// Package provider implements the HTTP client for the external swap
// aggregation service that prices individual trade legs.
package provider

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog/log"

	"github.com/hxuan190/basket-engine/internal/common"
	"github.com/hxuan190/basket-engine/internal/domain"
	"github.com/hxuan190/basket-engine/internal/metrics"
)

const (
	providerName = "0x"
	quotePath    = "/swap/v1/quote"

	apiKeyHeader = "0x-api-key"
)

type Client struct {
	httpClient *http.Client
	host       string
	apiKey     string
	gated      bool
}

// NewClient resolves the chain-specific host. hostOverride, when non-empty,
// replaces the default host but keeps the chain's gating behavior.
func NewClient(chainID int64, hostOverride, apiKey string) (*Client, error) {
	host, ok := common.QuoteProviderHosts[chainID]
	if !ok {
		return nil, &common.UnsupportedChainError{ChainID: chainID}
	}
	if hostOverride != "" {
		host = hostOverride
	}

	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		host:       host,
		apiKey:     apiKey,
		gated:      common.GatedQuoteProviderHosts[chainID],
	}, nil
}

// quoteDTO mirrors the provider's wire format; numeric fields arrive as
// decimal strings.
type quoteDTO struct {
	Price           string `json:"price"`
	GuaranteedPrice string `json:"guaranteedPrice"`
	Data            string `json:"data"`
	SellAmount      string `json:"sellAmount"`
	BuyAmount       string `json:"buyAmount"`
	Gas             string `json:"gas"`
}

type errorDTO struct {
	Code   int    `json:"code"`
	Reason string `json:"reason"`
}

// FetchQuote requests a quote for exactly the amounts in req. Failures are
// surfaced verbatim as QuoteProviderError; the engine never retries.
func (c *Client) FetchQuote(ctx context.Context, req domain.ProviderRequest) (*domain.ProviderQuote, error) {
	q := url.Values{}
	q.Set("sellToken", req.SellToken.Hex())
	q.Set("buyToken", req.BuyToken.Hex())
	switch {
	case req.SellAmount != nil:
		q.Set("sellAmount", req.SellAmount.String())
	case req.BuyAmount != nil:
		q.Set("buyAmount", req.BuyAmount.String())
	default:
		return nil, &common.QuoteProviderError{Provider: providerName, Message: "neither sellAmount nor buyAmount set"}
	}
	q.Set("slippagePercentage", strconv.FormatFloat(req.SlippagePercent/100, 'f', -1, 64))
	q.Set("takerAddress", req.TakerAddress.Hex())
	if len(req.ExcludedProviders) > 0 {
		q.Set("excludedSources", strings.Join(req.ExcludedProviders, ","))
	}
	if req.BuyTokenFeePercent > 0 {
		q.Set("buyTokenPercentageFee", strconv.FormatFloat(req.BuyTokenFeePercent/100, 'f', -1, 64))
		q.Set("feeRecipient", req.FeeRecipient.Hex())
	}
	if req.AffiliateAddress != (ethcommon.Address{}) {
		q.Set("affiliateAddress", req.AffiliateAddress.Hex())
	}
	if !req.Firm {
		q.Set("skipValidation", "true")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+quotePath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, &common.QuoteProviderError{Provider: providerName, Err: err}
	}
	if c.gated && c.apiKey != "" {
		httpReq.Header.Set(apiKeyHeader, c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	metrics.ProviderRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ProviderRequestFailures.Inc()
		return nil, &common.QuoteProviderError{Provider: providerName, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ProviderRequestFailures.Inc()
		return nil, &common.QuoteProviderError{Provider: providerName, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		metrics.ProviderRequestFailures.Inc()
		var dto errorDTO
		if sonic.Unmarshal(body, &dto) == nil && dto.Reason != "" {
			return nil, &common.QuoteProviderError{Provider: providerName, Message: dto.Reason}
		}
		return nil, &common.QuoteProviderError{
			Provider: providerName,
			Message:  fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var dto quoteDTO
	if err := sonic.Unmarshal(body, &dto); err != nil {
		metrics.ProviderRequestFailures.Inc()
		return nil, &common.QuoteProviderError{Provider: providerName, Message: "malformed payload", Err: err}
	}

	quote, err := dto.toDomain()
	if err != nil {
		metrics.ProviderRequestFailures.Inc()
		return nil, &common.QuoteProviderError{Provider: providerName, Message: "malformed payload", Err: err}
	}

	log.Debug().
		Str("sellToken", req.SellToken.Hex()).
		Str("buyToken", req.BuyToken.Hex()).
		Str("sellAmount", quote.SellAmount.String()).
		Str("buyAmount", quote.BuyAmount.String()).
		Msg("[quoteProvider] quote received")

	return quote, nil
}

func (dto *quoteDTO) toDomain() (*domain.ProviderQuote, error) {
	sell, ok := new(big.Int).SetString(dto.SellAmount, 10)
	if !ok {
		return nil, fmt.Errorf("invalid sellAmount %q", dto.SellAmount)
	}
	buy, ok := new(big.Int).SetString(dto.BuyAmount, 10)
	if !ok {
		return nil, fmt.Errorf("invalid buyAmount %q", dto.BuyAmount)
	}
	gas, err := strconv.ParseUint(dto.Gas, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid gas %q", dto.Gas)
	}
	calldata, err := hexutil.Decode(dto.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid calldata: %w", err)
	}

	return &domain.ProviderQuote{
		Price:           dto.Price,
		GuaranteedPrice: dto.GuaranteedPrice,
		Calldata:        calldata,
		SellAmount:      sell,
		BuyAmount:       buy,
		GasEstimate:     gas,
	}, nil
}
