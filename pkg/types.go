package pkg

import (
	"fmt"

	"cosmossdk.io/math"
	"github.com/mr-tron/base58"
)

// VenueKind identifies the liquidity venue a trade is priced against.
type VenueKind string

const (
	VenueBondingCurve    VenueKind = "bonding_curve"
	VenueConstantProduct VenueKind = "constant_product"
)

// SwapDirection is the trade direction relative to the token mint:
// Buy spends the quote token (SOL) for the mint, Sell does the reverse.
type SwapDirection string

const (
	DirectionBuy  SwapDirection = "buy"
	DirectionSell SwapDirection = "sell"
)

// SwapInType selects how AmountIn is interpreted: an absolute quantity in
// UI units, or a percentage of the wallet's current holding.
type SwapInType string

const (
	InTypeQty SwapInType = "qty"
	InTypePct SwapInType = "pct"
)

const (
	// DefaultSlippageBps is applied when a request carries no slippage (5%).
	DefaultSlippageBps = uint64(500)

	BpsDenominator = int64(10_000)
)

// SwapRequest is a validated client swap order. It is immutable after
// Validate; defaults are filled in before it reaches the engine.
type SwapRequest struct {
	Mint             string        `json:"mint"`
	Direction        SwapDirection `json:"direction"`
	AmountIn         float64       `json:"amount_in"`
	InType           SwapInType    `json:"in_type,omitempty"`
	SlippageBps      uint64        `json:"slippage,omitempty"`
	UsePriorityRelay bool          `json:"jito,omitempty"`
}

// Validate checks the request and fills defaults (qty input, default
// slippage). Slippage is always set after this call.
func (r *SwapRequest) Validate() error {
	raw, err := base58.Decode(r.Mint)
	if err != nil || len(raw) != 32 {
		return fmt.Errorf("invalid mint %q", r.Mint)
	}
	switch r.Direction {
	case DirectionBuy, DirectionSell:
	default:
		return fmt.Errorf("invalid direction %q", r.Direction)
	}
	if r.AmountIn <= 0 {
		return fmt.Errorf("amount_in must be positive, got %f", r.AmountIn)
	}
	switch r.InType {
	case InTypeQty, InTypePct:
	case "":
		r.InType = InTypeQty
	default:
		return fmt.Errorf("invalid in_type %q", r.InType)
	}
	if r.InType == InTypePct && r.AmountIn > 100 {
		return fmt.Errorf("percentage input out of range: %f", r.AmountIn)
	}
	if r.SlippageBps == 0 {
		r.SlippageBps = DefaultSlippageBps
	}
	if r.SlippageBps > uint64(BpsDenominator) {
		return fmt.Errorf("slippage out of range: %d bps", r.SlippageBps)
	}
	return nil
}

// Venue is the pricing contract every venue adapter satisfies.
type Venue interface {
	SpotPrice() float64
	Quote(amountIn math.Int, direction SwapDirection) (math.Int, error)
	Reserves() PoolReserves
}

// PoolReserves is a point-in-time reserve snapshot for one venue account.
// Never mutated; every quote fetches a fresh one.
type PoolReserves struct {
	BaseReserve  math.Int
	QuoteReserve math.Int
	Venue        VenueKind
}

// Quote is the priced result of routing one request against one reserve
// snapshot. MinOut carries the slippage bound the trade must clear.
type Quote struct {
	Venue       VenueKind `json:"venue"`
	Price       float64   `json:"price"`
	ExpectedOut math.Int  `json:"expected_out"`
	MinOut      math.Int  `json:"min_out"`
}

// ApplySlippage returns the minimum acceptable output for an expected
// output under the given tolerance: out * (10000 - bps) / 10000.
func ApplySlippage(expectedOut math.Int, slippageBps uint64) math.Int {
	return expectedOut.
		Mul(math.NewInt(BpsDenominator - int64(slippageBps))).
		Quo(math.NewInt(BpsDenominator))
}
