package raydium

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSwapInstruction(t *testing.T) {
	pool := &AMMPool{
		PoolID:          solana.NewWallet().PublicKey(),
		OpenOrders:      solana.NewWallet().PublicKey(),
		TargetOrders:    solana.NewWallet().PublicKey(),
		BaseVault:       solana.NewWallet().PublicKey(),
		QuoteVault:      solana.NewWallet().PublicKey(),
		MarketProgramID: solana.NewWallet().PublicKey(),
		MarketID:        solana.NewWallet().PublicKey(),
	}
	market := &Market{
		OwnAddress: pool.MarketID,
		Bids:       solana.NewWallet().PublicKey(),
		Asks:       solana.NewWallet().PublicKey(),
		EventQueue: solana.NewWallet().PublicKey(),
		BaseVault:  solana.NewWallet().PublicKey(),
		QuoteVault: solana.NewWallet().PublicKey(),
	}
	for nonce := uint64(0); nonce < 255; nonce++ {
		market.VaultSignerNonce = nonce
		if _, err := market.VaultSigner(pool.MarketProgramID); err == nil {
			break
		}
	}

	user := solana.NewWallet().PublicKey()
	source := solana.NewWallet().PublicKey()
	destination := solana.NewWallet().PublicKey()

	inst, err := pool.BuildSwapInstruction(market, user, source, destination, 1_000_000_000, 950_000_000)
	require.NoError(t, err)

	assert.Equal(t, AmmProgramID, inst.ProgramID())

	accounts := inst.Accounts()
	require.Len(t, accounts, 18)
	assert.Equal(t, solana.TokenProgramID, accounts[0].PublicKey)
	assert.Equal(t, pool.PoolID, accounts[1].PublicKey)
	assert.Equal(t, AmmAuthority, accounts[2].PublicKey)
	assert.Equal(t, pool.OpenOrders, accounts[3].PublicKey)
	assert.Equal(t, pool.MarketProgramID, accounts[7].PublicKey)
	assert.Equal(t, pool.MarketID, accounts[8].PublicKey)
	assert.Equal(t, market.Bids, accounts[9].PublicKey)
	assert.Equal(t, source, accounts[15].PublicKey)
	assert.Equal(t, destination, accounts[16].PublicKey)
	assert.Equal(t, user, accounts[17].PublicKey)
	assert.True(t, accounts[17].IsSigner)

	data, err := inst.Data()
	require.NoError(t, err)
	require.Len(t, data, 17)
	assert.Equal(t, SwapBaseInCode, data[0])
	assert.Equal(t, uint64(1_000_000_000), binary.LittleEndian.Uint64(data[1:9]))
	assert.Equal(t, uint64(950_000_000), binary.LittleEndian.Uint64(data[9:17]))
}
