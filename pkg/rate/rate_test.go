package rate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolPriceUSD(t *testing.T) {
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"solana":{"usd":142.5}}`))
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL)
	price, err := source.SolPriceUSD(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 142.5, price)

	// Second read inside the TTL serves the cache.
	price, err = source.SolPriceUSD(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 142.5, price)
	assert.Equal(t, int64(1), hits.Load())
}

func TestSolPriceUSDServesStaleOnUpstreamError(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"solana":{"usd":100}}`))
	}))
	defer server.Close()

	source := NewHTTPSource(server.URL)
	_, err := source.SolPriceUSD(context.Background())
	require.NoError(t, err)

	fail.Store(true)
	source.fetchedAt = source.fetchedAt.Add(-cacheTTL) // expire the cache
	price, err := source.SolPriceUSD(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100.0, price)
}

func TestSolPriceUSDRejectsBadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"solana":{}}`))
	}))
	defer server.Close()

	_, err := NewHTTPSource(server.URL).SolPriceUSD(context.Background())
	assert.Error(t, err)
}
