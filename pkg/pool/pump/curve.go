package pump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/uint128"

	"swapengine/pkg"
	"swapengine/pkg/anchor"
)

var _ pkg.Venue = (*BondingCurve)(nil)

// BondingCurve is the decoded state of one launch curve. Pricing uses the
// effective reserves (virtual + real); the raw token balance of the curve
// vault is not the price input.
type BondingCurve struct {
	VirtualTokenReserves uint64
	VirtualSolReserves   uint64
	RealTokenReserves    uint64
	RealSolReserves      uint64
	TokenTotalSupply     uint64
	Complete             bool
	Creator              solana.PublicKey

	CurveID solana.PublicKey
	Mint    solana.PublicKey
}

// DeriveCurveAddress returns the bonding-curve PDA for a mint.
func DeriveCurveAddress(mint solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(CurveSeed), mint.Bytes()},
		PumpProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive curve address for %s: %w", mint, err)
	}
	return addr, nil
}

// DeriveCreatorVault returns the creator fee vault PDA.
func DeriveCreatorVault(creator solana.PublicKey) (solana.PublicKey, error) {
	addr, _, err := solana.FindProgramAddress(
		[][]byte{[]byte(CreatorVaultSeed), creator.Bytes()},
		PumpProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive creator vault for %s: %w", creator, err)
	}
	return addr, nil
}

// Decode parses the raw curve account bytes. Wrong length or a wrong
// discriminator is a decode failure, never a zero-reserve default.
func (c *BondingCurve) Decode(data []byte) error {
	if len(data) < CurveAccountSize {
		return fmt.Errorf("curve data too short: expected %d bytes, got %d: %w",
			CurveAccountSize, len(data), pkg.ErrDecode)
	}
	if !bytes.Equal(data[:8], anchor.AccountDiscriminator("BondingCurve")) {
		return fmt.Errorf("wrong curve discriminator: %w", pkg.ErrDecode)
	}

	offset := 8
	c.VirtualTokenReserves = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	c.VirtualSolReserves = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	c.RealTokenReserves = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	c.RealSolReserves = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	c.TokenTotalSupply = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	c.Complete = data[offset] != 0
	offset++

	if len(data) >= CurveAccountSizeWithCreator {
		c.Creator = solana.PublicKeyFromBytes(data[offset : offset+32])
	}
	return nil
}

func (c *BondingCurve) effectiveReserves() (base, quote uint64) {
	return c.VirtualTokenReserves + c.RealTokenReserves,
		c.VirtualSolReserves + c.RealSolReserves
}

// Reserves returns the effective reserve snapshot used for pricing.
func (c *BondingCurve) Reserves() pkg.PoolReserves {
	base, quote := c.effectiveReserves()
	return pkg.PoolReserves{
		BaseReserve:  cosmath.NewIntFromUint64(base),
		QuoteReserve: cosmath.NewIntFromUint64(quote),
		Venue:        pkg.VenueBondingCurve,
	}
}

// SpotPrice returns the marginal SOL price of one whole token.
func (c *BondingCurve) SpotPrice() float64 {
	base, quote := c.effectiveReserves()
	if base == 0 {
		return 0
	}
	return (float64(quote) / math.Pow10(SolDecimals)) /
		(float64(base) / math.Pow10(TokenDecimals))
}

// Quote solves the constant-product invariant k = base * quote for the
// output of a trade, holding k fixed. A completed curve refuses to quote:
// trading has migrated to the AMM venue.
func (c *BondingCurve) Quote(amountIn cosmath.Int, direction pkg.SwapDirection) (cosmath.Int, error) {
	if c.Complete {
		return cosmath.ZeroInt(), fmt.Errorf("curve %s: %w", c.CurveID, pkg.ErrVenueMigrated)
	}
	base, quote := c.effectiveReserves()
	if base == 0 || quote == 0 {
		return cosmath.ZeroInt(), fmt.Errorf("curve %s has empty reserves: %w", c.CurveID, pkg.ErrDecode)
	}
	if !amountIn.IsPositive() || !amountIn.IsUint64() {
		return cosmath.ZeroInt(), fmt.Errorf("invalid input amount %s", amountIn)
	}
	in := amountIn.Uint64()

	// k needs 128 bits: both reserves are u64 lamport-scale values.
	k := uint128.From64(base).Mul64(quote)

	// The denominator additions stay in 128 bits too: reserve+in can
	// exceed the u64 range.
	var out uint64
	switch direction {
	case pkg.DirectionBuy:
		// quote in, base out: out = base - k/(quote+in)
		newBase := k.Div(uint128.From64(quote).Add64(in))
		if newBase.Hi != 0 || newBase.Lo >= base {
			return cosmath.ZeroInt(), nil
		}
		out = base - newBase.Lo
	case pkg.DirectionSell:
		// base in, quote out: out = quote - k/(base+in)
		newQuote := k.Div(uint128.From64(base).Add64(in))
		if newQuote.Hi != 0 || newQuote.Lo >= quote {
			return cosmath.ZeroInt(), nil
		}
		out = quote - newQuote.Lo
	default:
		return cosmath.ZeroInt(), fmt.Errorf("invalid direction %q", direction)
	}
	return cosmath.NewIntFromUint64(out), nil
}
