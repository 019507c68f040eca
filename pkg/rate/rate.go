// Package rate resolves the SOL/USD conversion used to enrich price
// responses. Quotes themselves never depend on it.
package rate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	defaultEndpoint = "https://api.coingecko.com/api/v3/simple/price?ids=solana&vs_currencies=usd"
	cacheTTL        = 30 * time.Second
)

// Source returns the current USD value of one SOL.
type Source interface {
	SolPriceUSD(ctx context.Context) (float64, error)
}

// HTTPSource polls a public price endpoint and caches the result so one
// stuck upstream cannot stall every price request.
type HTTPSource struct {
	endpoint string
	client   *http.Client

	mu        sync.Mutex
	cached    float64
	fetchedAt time.Time
}

func NewHTTPSource(endpoint string) *HTTPSource {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &HTTPSource{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 5 * time.Second},
	}
}

func (s *HTTPSource) SolPriceUSD(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached > 0 && time.Since(s.fetchedAt) < cacheTTL {
		return s.cached, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("build rate request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if s.cached > 0 {
			return s.cached, nil
		}
		return 0, fmt.Errorf("fetch sol price: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if s.cached > 0 {
			return s.cached, nil
		}
		return 0, fmt.Errorf("fetch sol price: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Solana struct {
			USD float64 `json:"usd"`
		} `json:"solana"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("decode sol price response: %w", err)
	}
	if body.Solana.USD <= 0 {
		return 0, fmt.Errorf("sol price response missing usd value")
	}

	s.cached = body.Solana.USD
	s.fetchedAt = time.Now()
	return s.cached, nil
}
