package pump

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapengine/pkg"
	"swapengine/pkg/anchor"
)

func curveAccountBytes(virtualToken, virtualSol, realToken, realSol, supply uint64, complete bool, creator *solana.PublicKey) []byte {
	size := CurveAccountSize
	if creator != nil {
		size = CurveAccountSizeWithCreator
	}
	data := make([]byte, size)
	copy(data[:8], anchor.AccountDiscriminator("BondingCurve"))
	binary.LittleEndian.PutUint64(data[8:16], virtualToken)
	binary.LittleEndian.PutUint64(data[16:24], virtualSol)
	binary.LittleEndian.PutUint64(data[24:32], realToken)
	binary.LittleEndian.PutUint64(data[32:40], realSol)
	binary.LittleEndian.PutUint64(data[40:48], supply)
	if complete {
		data[48] = 1
	}
	if creator != nil {
		copy(data[49:81], creator.Bytes())
	}
	return data
}

func TestDecodeCurve(t *testing.T) {
	creator := solana.NewWallet().PublicKey()
	data := curveAccountBytes(100, 200, 30, 40, 1_000_000, false, &creator)

	var curve BondingCurve
	require.NoError(t, curve.Decode(data))
	assert.Equal(t, uint64(100), curve.VirtualTokenReserves)
	assert.Equal(t, uint64(200), curve.VirtualSolReserves)
	assert.Equal(t, uint64(30), curve.RealTokenReserves)
	assert.Equal(t, uint64(40), curve.RealSolReserves)
	assert.Equal(t, uint64(1_000_000), curve.TokenTotalSupply)
	assert.False(t, curve.Complete)
	assert.Equal(t, creator, curve.Creator)
}

func TestDecodeCurveWithoutCreator(t *testing.T) {
	data := curveAccountBytes(1, 2, 3, 4, 5, true, nil)

	var curve BondingCurve
	require.NoError(t, curve.Decode(data))
	assert.True(t, curve.Complete)
	assert.True(t, curve.Creator.IsZero())
}

func TestDecodeCurveRejectsShortData(t *testing.T) {
	var curve BondingCurve
	err := curve.Decode(make([]byte, 20))
	assert.ErrorIs(t, err, pkg.ErrDecode)
}

func TestDecodeCurveRejectsWrongDiscriminator(t *testing.T) {
	data := curveAccountBytes(1, 2, 3, 4, 5, false, nil)
	copy(data[:8], anchor.AccountDiscriminator("Global"))

	var curve BondingCurve
	err := curve.Decode(data)
	assert.ErrorIs(t, err, pkg.ErrDecode)
}

func TestCurveBuyQuote(t *testing.T) {
	// 30 SOL / 30B tokens of effective reserves; spending 10 SOL must
	// yield exactly a quarter of the token reserve.
	curve := BondingCurve{
		VirtualTokenReserves: 30_000_000_000,
		VirtualSolReserves:   30_000_000_000,
	}

	out, err := curve.Quote(cosmath.NewInt(10_000_000_000), pkg.DirectionBuy)
	require.NoError(t, err)
	assert.Equal(t, cosmath.NewInt(7_500_000_000), out)
}

func TestCurveSellQuote(t *testing.T) {
	curve := BondingCurve{
		VirtualTokenReserves: 30_000_000_000,
		VirtualSolReserves:   40_000_000_000,
	}

	// Selling restores the pre-buy state of TestCurveBuyQuote: the
	// 7.5B tokens bought for 10 SOL sell back for the same 10 SOL.
	curve.VirtualTokenReserves -= 7_500_000_000
	out, err := curve.Quote(cosmath.NewInt(7_500_000_000), pkg.DirectionSell)
	require.NoError(t, err)
	assert.Equal(t, cosmath.NewInt(10_000_000_000), out)
}

func TestCurveQuotePreservesInvariant(t *testing.T) {
	curve := BondingCurve{
		VirtualTokenReserves: 1_073_000_000_000_000,
		VirtualSolReserves:   30_000_000_000,
		RealTokenReserves:    793_100_000_000_000,
	}
	base, quote := curve.effectiveReserves()
	kBefore := cosmath.NewIntFromUint64(base).Mul(cosmath.NewIntFromUint64(quote))

	in := cosmath.NewInt(1_000_000_000)
	out, err := curve.Quote(in, pkg.DirectionBuy)
	require.NoError(t, err)
	require.True(t, out.IsPositive())

	// Integer division truncates the output, so k never decreases.
	kAfter := cosmath.NewIntFromUint64(base).Sub(out).
		Mul(cosmath.NewIntFromUint64(quote).Add(in))
	assert.True(t, kAfter.GTE(kBefore), "invariant shrank: %s -> %s", kBefore, kAfter)
}

func TestCurveQuoteLargeInputNoWrap(t *testing.T) {
	// reserve+in exceeds the u64 range; the divide must still see the
	// full denominator. Doubling the in-side reserve halves the out side
	// exactly.
	in := cosmath.NewIntFromUint64(math.MaxUint64)

	buyCurve := BondingCurve{
		VirtualTokenReserves: 1_000_000_000,
		VirtualSolReserves:   math.MaxUint64,
	}
	out, err := buyCurve.Quote(in, pkg.DirectionBuy)
	require.NoError(t, err)
	assert.Equal(t, cosmath.NewInt(500_000_000), out)

	sellCurve := BondingCurve{
		VirtualTokenReserves: math.MaxUint64,
		VirtualSolReserves:   1_000_000_000,
	}
	out, err = sellCurve.Quote(in, pkg.DirectionSell)
	require.NoError(t, err)
	assert.Equal(t, cosmath.NewInt(500_000_000), out)
}

func TestCurveQuoteRefusesMigrated(t *testing.T) {
	curve := BondingCurve{
		VirtualTokenReserves: 30_000_000_000,
		VirtualSolReserves:   30_000_000_000,
		Complete:             true,
	}
	_, err := curve.Quote(cosmath.NewInt(1_000_000), pkg.DirectionBuy)
	assert.ErrorIs(t, err, pkg.ErrVenueMigrated)
}

func TestCurveQuoteEmptyReserves(t *testing.T) {
	var curve BondingCurve
	_, err := curve.Quote(cosmath.NewInt(1), pkg.DirectionBuy)
	assert.ErrorIs(t, err, pkg.ErrDecode)
}

func TestCurveQuoteRejectsBadInput(t *testing.T) {
	curve := BondingCurve{
		VirtualTokenReserves: 30_000_000_000,
		VirtualSolReserves:   30_000_000_000,
	}
	_, err := curve.Quote(cosmath.ZeroInt(), pkg.DirectionBuy)
	assert.Error(t, err)
	assert.False(t, errors.Is(err, pkg.ErrVenueMigrated))

	_, err = curve.Quote(cosmath.NewInt(5), "hold")
	assert.Error(t, err)
}

func TestCurveSpotPrice(t *testing.T) {
	// 30 SOL against 30B tokens: 1e-9 SOL per whole token after the
	// 9/6 decimal adjustment.
	curve := BondingCurve{
		VirtualTokenReserves: 30_000_000_000,
		VirtualSolReserves:   30_000_000_000,
	}
	assert.InDelta(t, 0.001, curve.SpotPrice(), 1e-12)
}

func TestDeriveCurveAddressDeterministic(t *testing.T) {
	mint := solana.NewWallet().PublicKey()
	a, err := DeriveCurveAddress(mint)
	require.NoError(t, err)
	b, err := DeriveCurveAddress(mint)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.False(t, a.IsZero())
}
