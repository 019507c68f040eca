package pump

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapengine/pkg/anchor"
)

func testCurve(t *testing.T) *BondingCurve {
	t.Helper()
	mint := solana.NewWallet().PublicKey()
	curveID, err := DeriveCurveAddress(mint)
	require.NoError(t, err)
	return &BondingCurve{
		CurveID: curveID,
		Mint:    mint,
		Creator: solana.NewWallet().PublicKey(),
	}
}

func TestBuildBuyInstruction(t *testing.T) {
	curve := testCurve(t)
	user := solana.NewWallet().PublicKey()
	ata, err := AssociatedCurveAccount(user, curve.Mint)
	require.NoError(t, err)

	inst, err := curve.BuildBuyInstruction(user, ata, 7_500_000_000, 10_500_000_000)
	require.NoError(t, err)

	assert.Equal(t, PumpProgramID, inst.ProgramID())

	accounts := inst.Accounts()
	require.Len(t, accounts, 12)
	assert.Equal(t, PumpGlobal, accounts[0].PublicKey)
	assert.Equal(t, PumpFeeRecipient, accounts[1].PublicKey)
	assert.Equal(t, curve.Mint, accounts[2].PublicKey)
	assert.Equal(t, curve.CurveID, accounts[3].PublicKey)
	assert.Equal(t, user, accounts[6].PublicKey)
	assert.True(t, accounts[6].IsSigner)
	assert.Equal(t, solana.SystemProgramID, accounts[7].PublicKey)
	assert.Equal(t, solana.TokenProgramID, accounts[8].PublicKey)
	assert.Equal(t, PumpEventAuthority, accounts[10].PublicKey)
	assert.Equal(t, PumpProgramID, accounts[11].PublicKey)

	data, err := inst.Data()
	require.NoError(t, err)
	require.Len(t, data, 24)
	assert.Equal(t, anchor.GetDiscriminator("global", "buy"), data[:8])
	assert.Equal(t, uint64(7_500_000_000), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint64(10_500_000_000), binary.LittleEndian.Uint64(data[16:24]))
}

func TestBuildSellInstruction(t *testing.T) {
	curve := testCurve(t)
	user := solana.NewWallet().PublicKey()
	ata, err := AssociatedCurveAccount(user, curve.Mint)
	require.NoError(t, err)

	inst, err := curve.BuildSellInstruction(user, ata, 1_000_000, 950_000)
	require.NoError(t, err)

	accounts := inst.Accounts()
	require.Len(t, accounts, 12)
	// Sell swaps the system/token program slots around the creator vault.
	assert.Equal(t, solana.SystemProgramID, accounts[7].PublicKey)
	assert.Equal(t, solana.TokenProgramID, accounts[9].PublicKey)

	data, err := inst.Data()
	require.NoError(t, err)
	require.Len(t, data, 24)
	assert.Equal(t, anchor.GetDiscriminator("global", "sell"), data[:8])
	assert.Equal(t, uint64(1_000_000), binary.LittleEndian.Uint64(data[8:16]))
	assert.Equal(t, uint64(950_000), binary.LittleEndian.Uint64(data[16:24]))
}
