// Package config reads service configuration from the environment, with
// an optional .env file for local runs.
package config

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// LoadEnv loads KEY=VALUE pairs from a .env file if it exists. Values
// already present in the environment win.
func LoadEnv(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		// .env file is optional
		return nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getUint64(key string, fallback uint64) uint64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

// GetRPCEndpoints returns the comma-separated RPC endpoints from the
// environment, or nil when unset.
func GetRPCEndpoints() []string {
	envEndpoints := os.Getenv("RPC_ENDPOINTS")
	if envEndpoints == "" {
		return nil
	}
	endpoints := strings.Split(envEndpoints, ",")
	result := make([]string, 0, len(endpoints))
	for _, endpoint := range endpoints {
		if trimmed := strings.TrimSpace(endpoint); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// DefaultSlippageBps is the slippage applied to requests that omit one.
func DefaultSlippageBps() uint64 {
	return getUint64("SLIPPAGE_BPS", 500)
}

// TipPercentile selects which percentile of the tip stream prices
// priority bundles.
func TipPercentile() int {
	return int(getUint64("TIP_PERCENTILE", 50))
}

// MinTipLamports is the fallback tip floor used when the tip stream has
// not delivered a snapshot yet.
func MinTipLamports() uint64 {
	return getUint64("MIN_TIP_LAMPORTS", 10_000)
}

// QuoteFreshness selects whether the slippage bound is re-validated
// against a fresh reserve read before signing ("strict") or only against
// the original quote ("relaxed").
func QuoteFreshness() string {
	v := getString("QUOTE_FRESHNESS", "relaxed")
	if v != "strict" && v != "relaxed" {
		return "relaxed"
	}
	return v
}

// Port is the HTTP listen port.
func Port() int {
	return int(getUint64("PORT", 8080))
}

// BlockEngineURL is the priority relay JSON-RPC endpoint.
func BlockEngineURL() string {
	return getString("JITO_BLOCK_ENGINE_URL", "https://mainnet.block-engine.jito.wtf/api/v1")
}

// TipStreamURL is the websocket feed of recently landed tip percentiles.
func TipStreamURL() string {
	return getString("JITO_TIP_STREAM_URL", "ws://bundles-api-rest.jito.wtf/api/v1/bundles/tip_stream")
}
