package raydium

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	cosmath "cosmossdk.io/math"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"swapengine/pkg"
	"swapengine/pkg/sol"
)

var _ pkg.Venue = (*AMMPool)(nil)

// AMMPool is the decoded LIQUIDITY_STATE_LAYOUT_V4 account plus the vault
// reserves fetched alongside it. Reserves live in the vault token
// accounts, not the state account itself.
type AMMPool struct {
	Status               uint64
	Nonce                uint64
	MaxOrder             uint64
	Depth                uint64
	BaseDecimal          uint64
	QuoteDecimal         uint64
	State                uint64
	ResetFlag            uint64
	MinSize              uint64
	VolMaxCutRatio       uint64
	AmountWaveRatio      uint64
	BaseLotSize          uint64
	QuoteLotSize         uint64
	MinPriceMultiplier   uint64
	MaxPriceMultiplier   uint64
	SystemDecimalValue   uint64
	MinSeparateNumerator uint64
	MinSeparateDenom     uint64
	TradeFeeNumerator    uint64
	TradeFeeDenominator  uint64
	PnlNumerator         uint64
	PnlDenominator       uint64
	SwapFeeNumerator     uint64
	SwapFeeDenominator   uint64
	BaseNeedTakePnl      uint64
	QuoteNeedTakePnl     uint64
	QuoteTotalPnl        uint64
	BaseTotalPnl         uint64
	PoolOpenTime         uint64
	PunishPcAmount       uint64
	PunishCoinAmount     uint64
	OrderbookToInitTime  uint64
	SwapBaseInAmount     bin.Uint128
	SwapQuoteOutAmount   bin.Uint128
	SwapBase2QuoteFee    uint64
	SwapQuoteInAmount    bin.Uint128
	SwapBaseOutAmount    bin.Uint128
	SwapQuote2BaseFee    uint64
	BaseVault            solana.PublicKey
	QuoteVault           solana.PublicKey
	BaseMint             solana.PublicKey
	QuoteMint            solana.PublicKey
	LpMint               solana.PublicKey
	OpenOrders           solana.PublicKey
	MarketID             solana.PublicKey
	MarketProgramID      solana.PublicKey
	TargetOrders         solana.PublicKey
	WithdrawQueue        solana.PublicKey
	LpVault              solana.PublicKey
	Owner                solana.PublicKey
	LpReserve            uint64
	Padding              [3]uint64

	PoolID       solana.PublicKey `bin:"-" borsh_skip:"true"`
	BaseReserve  cosmath.Int      `bin:"-" borsh_skip:"true"`
	QuoteReserve cosmath.Int      `bin:"-" borsh_skip:"true"`
}

// Decode parses the pool state account.
func (p *AMMPool) Decode(data []byte) error {
	if len(data) < PoolStateSize {
		return fmt.Errorf("pool data too short: expected %d bytes, got %d: %w",
			PoolStateSize, len(data), pkg.ErrDecode)
	}
	dec := bin.NewBinDecoder(data)
	if err := dec.Decode(p); err != nil {
		return fmt.Errorf("decode pool state: %w: %v", pkg.ErrDecode, err)
	}
	return nil
}

// FetchReserves reads both vault balances and nets out the pending
// protocol PnL the program still owes itself.
func (p *AMMPool) FetchReserves(ctx context.Context, solClient *sol.Client) error {
	accounts := []solana.PublicKey{p.BaseVault, p.QuoteVault}
	results, err := solClient.GetMultipleAccountsWithOpts(ctx, accounts)
	if err != nil {
		return fmt.Errorf("fetch vault balances: %w", err)
	}
	for i, result := range results.Value {
		if result == nil {
			return fmt.Errorf("vault %s: %w", accounts[i], pkg.ErrNotFound)
		}
		data := result.Data.GetBinary()
		if len(data) < 72 {
			return fmt.Errorf("vault %s token account too short: %w", accounts[i], pkg.ErrDecode)
		}
		amount := binary.LittleEndian.Uint64(data[64:72])
		if accounts[i].Equals(p.BaseVault) {
			p.BaseReserve = netReserve(amount, p.BaseNeedTakePnl)
		} else {
			p.QuoteReserve = netReserve(amount, p.QuoteNeedTakePnl)
		}
	}
	if p.BaseReserve.IsNil() || p.QuoteReserve.IsNil() ||
		p.BaseReserve.IsZero() || p.QuoteReserve.IsZero() {
		return fmt.Errorf("pool %s has empty reserves: %w", p.PoolID, pkg.ErrDecode)
	}
	return nil
}

func netReserve(vaultAmount, needTakePnl uint64) cosmath.Int {
	if needTakePnl >= vaultAmount {
		return cosmath.ZeroInt()
	}
	return cosmath.NewIntFromUint64(vaultAmount - needTakePnl)
}

// Reserves returns the current snapshot. FetchReserves must have run.
func (p *AMMPool) Reserves() pkg.PoolReserves {
	return pkg.PoolReserves{
		BaseReserve:  p.BaseReserve,
		QuoteReserve: p.QuoteReserve,
		Venue:        pkg.VenueConstantProduct,
	}
}

// FeeRate returns the swap fee fraction, preferring the pool state's own
// fee over the configured default.
func (p *AMMPool) FeeRate() (numerator, denominator uint64) {
	if p.SwapFeeNumerator > 0 && p.SwapFeeDenominator > 0 {
		return p.SwapFeeNumerator, p.SwapFeeDenominator
	}
	return DefaultFeeNumerator, DefaultFeeDenominator
}

// SpotPrice returns the decimal-adjusted quote price of one whole base
// token.
func (p *AMMPool) SpotPrice() float64 {
	if p.BaseReserve.IsNil() || p.BaseReserve.IsZero() {
		return 0
	}
	base, _ := new(big.Float).SetInt(p.BaseReserve.BigInt()).Float64()
	quote, _ := new(big.Float).SetInt(p.QuoteReserve.BigInt()).Float64()
	adjustment := math.Pow10(int(p.BaseDecimal)) / math.Pow10(int(p.QuoteDecimal))
	return quote / base * adjustment
}

// Quote prices amountIn under the constant-product formula with the swap
// fee taken from the input before the solve:
//
//	out = reserveOut - k/(reserveIn + amountIn*(1-fee))
//
// Direction follows the routed mint: Buy spends quote, Sell spends base.
func (p *AMMPool) Quote(amountIn cosmath.Int, direction pkg.SwapDirection) (cosmath.Int, error) {
	if p.BaseReserve.IsNil() || p.QuoteReserve.IsNil() ||
		p.BaseReserve.IsZero() || p.QuoteReserve.IsZero() {
		return cosmath.ZeroInt(), fmt.Errorf("pool %s reserves not loaded: %w", p.PoolID, pkg.ErrDecode)
	}
	if !amountIn.IsPositive() {
		return cosmath.ZeroInt(), fmt.Errorf("invalid input amount %s", amountIn)
	}

	var reserveIn, reserveOut cosmath.Int
	switch direction {
	case pkg.DirectionBuy:
		reserveIn, reserveOut = p.QuoteReserve, p.BaseReserve
	case pkg.DirectionSell:
		reserveIn, reserveOut = p.BaseReserve, p.QuoteReserve
	default:
		return cosmath.ZeroInt(), fmt.Errorf("invalid direction %q", direction)
	}

	feeNum, feeDen := p.FeeRate()
	inWithFee := amountIn.
		Mul(cosmath.NewIntFromUint64(feeDen - feeNum)).
		Quo(cosmath.NewIntFromUint64(feeDen))

	k := reserveIn.Mul(reserveOut)
	newReserveOut := k.Quo(reserveIn.Add(inWithFee))
	if newReserveOut.GTE(reserveOut) {
		return cosmath.ZeroInt(), nil
	}
	return reserveOut.Sub(newReserveOut), nil
}
