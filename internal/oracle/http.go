package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPSource fetches prices from an external feed returning a JSON object of
// symbol → micro-USD price: {"ETH": 3200000000, "USDC": 1000000}.
type HTTPSource struct {
	url    string
	client *http.Client
}

// NewHTTPSource creates a source reading from the given URL.
func NewHTTPSource(url string) *HTTPSource {
	return &HTTPSource{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Prices fetches the full table from the feed.
func (s *HTTPSource) Prices(ctx context.Context) (map[string]uint64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("oracle: build request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oracle: fetch prices: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oracle: feed returned status %d", resp.StatusCode)
	}

	var prices map[string]uint64
	if err := json.NewDecoder(resp.Body).Decode(&prices); err != nil {
		return nil, fmt.Errorf("oracle: decode prices: %w", err)
	}
	return prices, nil
}

// Price fetches the table and picks one symbol.
func (s *HTTPSource) Price(ctx context.Context, symbol string) (uint64, error) {
	prices, err := s.Prices(ctx)
	if err != nil {
		return 0, err
	}
	p, ok := prices[symbol]
	if !ok {
		return 0, ErrUnknownSymbol
	}
	return p, nil
}
