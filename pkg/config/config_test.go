package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	assert.Equal(t, uint64(500), DefaultSlippageBps())
	assert.Equal(t, 50, TipPercentile())
	assert.Equal(t, uint64(10_000), MinTipLamports())
	assert.Equal(t, "relaxed", QuoteFreshness())
}

func TestQuoteFreshnessValidation(t *testing.T) {
	t.Setenv("QUOTE_FRESHNESS", "strict")
	assert.Equal(t, "strict", QuoteFreshness())

	t.Setenv("QUOTE_FRESHNESS", "paranoid")
	assert.Equal(t, "relaxed", QuoteFreshness())
}

func TestGetRPCEndpoints(t *testing.T) {
	t.Setenv("RPC_ENDPOINTS", " https://a.example.com , https://b.example.com ,")
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, GetRPCEndpoints())
}

func TestOverrides(t *testing.T) {
	t.Setenv("SLIPPAGE_BPS", "250")
	t.Setenv("TIP_PERCENTILE", "75")
	t.Setenv("MIN_TIP_LAMPORTS", "50000")

	assert.Equal(t, uint64(250), DefaultSlippageBps())
	assert.Equal(t, 75, TipPercentile())
	assert.Equal(t, uint64(50_000), MinTipLamports())
}
