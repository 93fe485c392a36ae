// Package prices fetches usd token prices for display enrichment.
package prices

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	ethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/bytedance/sonic"

	"github.com/hxuan190/basket-engine/internal/common"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	platform   string
}

func NewClient(chainID int64, baseURL string) (*Client, error) {
	platform, ok := common.PricePlatformIDs[chainID]
	if !ok {
		return nil, &common.UnsupportedChainError{ChainID: chainID}
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		platform:   platform,
	}, nil
}

// FetchUsdPrices resolves usd prices for the given token addresses. Tokens
// unknown to the service are simply absent from the result.
func (c *Client) FetchUsdPrices(ctx context.Context, tokens []ethcommon.Address) (map[ethcommon.Address]float64, error) {
	if len(tokens) == 0 {
		return map[ethcommon.Address]float64{}, nil
	}

	addrs := make([]string, 0, len(tokens))
	for _, t := range tokens {
		addrs = append(addrs, strings.ToLower(t.Hex()))
	}

	q := url.Values{}
	q.Set("contract_addresses", strings.Join(addrs, ","))
	q.Set("vs_currencies", "usd")
	endpoint := fmt.Sprintf("%s/simple/token_price/%s?%s", c.baseURL, c.platform, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price service status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var dto map[string]struct {
		Usd float64 `json:"usd"`
	}
	if err := sonic.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("price service payload: %w", err)
	}

	out := make(map[ethcommon.Address]float64, len(dto))
	for addr, entry := range dto {
		out[ethcommon.HexToAddress(addr)] = entry.Usd
	}
	return out, nil
}
