// Package gasoracle fetches gas-price tiers from a chain-specific HTTP
// service. Prices feed display enrichment only, never correctness-critical
// amounts.
package gasoracle

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

// Speed tiers understood by the oracle.
const (
	SpeedSafeLow = "safeLow"
	SpeedAverage = "average"
	SpeedFast    = "fast"
)

type Client struct {
	httpClient *http.Client
	url        string
}

func NewClient(url string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		url:        url,
	}
}

// priceDTO is the oracle's wire format: prices in tenths of gwei.
type priceDTO struct {
	SafeLow float64 `json:"safeLow"`
	Average float64 `json:"average"`
	Fast    float64 `json:"fast"`
}

// FetchGasPrice returns the wei price for the given speed tier.
func (c *Client) FetchGasPrice(ctx context.Context, speed string) (*big.Int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gas oracle status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var dto priceDTO
	if err := sonic.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("gas oracle payload: %w", err)
	}

	var tenthsGwei float64
	switch speed {
	case SpeedSafeLow:
		tenthsGwei = dto.SafeLow
	case SpeedAverage:
		tenthsGwei = dto.Average
	case SpeedFast:
		tenthsGwei = dto.Fast
	default:
		return nil, fmt.Errorf("unknown gas speed %q", speed)
	}

	// tenths of gwei -> wei
	wei := new(big.Float).Mul(big.NewFloat(tenthsGwei), big.NewFloat(1e8))
	out, _ := wei.Int(nil)
	return out, nil
}
