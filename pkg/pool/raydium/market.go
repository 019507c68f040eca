package raydium

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"swapengine/pkg"
)

// Market is the serum MarketStateV3 account slice the swap instruction
// needs. The layout starts and ends with literal padding bytes, so the
// decoder walks offsets directly.
type Market struct {
	OwnAddress       solana.PublicKey
	VaultSignerNonce uint64
	BaseMint         solana.PublicKey
	QuoteMint        solana.PublicKey
	BaseVault        solana.PublicKey
	QuoteVault       solana.PublicKey
	RequestQueue     solana.PublicKey
	EventQueue       solana.PublicKey
	Bids             solana.PublicKey
	Asks             solana.PublicKey
	BaseLotSize      uint64
	QuoteLotSize     uint64
}

// DecodeMarket parses a serum MarketStateV3 account.
func DecodeMarket(data []byte) (*Market, error) {
	if len(data) < MarketStateSize {
		return nil, fmt.Errorf("market data too short: expected %d bytes, got %d: %w",
			MarketStateSize, len(data), pkg.ErrDecode)
	}

	m := &Market{}
	offset := 5 // "serum" prefix padding
	offset += 8 // account flags
	m.OwnAddress = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32
	m.VaultSignerNonce = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	m.BaseMint = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32
	m.QuoteMint = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32
	m.BaseVault = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32
	offset += 8 // base deposits total
	offset += 8 // base fees accrued
	m.QuoteVault = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32
	offset += 8 // quote deposits total
	offset += 8 // quote fees accrued
	offset += 8 // quote dust threshold
	m.RequestQueue = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32
	m.EventQueue = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32
	m.Bids = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32
	m.Asks = solana.PublicKeyFromBytes(data[offset : offset+32])
	offset += 32
	m.BaseLotSize = binary.LittleEndian.Uint64(data[offset : offset+8])
	offset += 8
	m.QuoteLotSize = binary.LittleEndian.Uint64(data[offset : offset+8])

	return m, nil
}

// VaultSigner derives the market's vault authority from the stored nonce.
func (m *Market) VaultSigner(marketProgram solana.PublicKey) (solana.PublicKey, error) {
	nonce := make([]byte, 8)
	binary.LittleEndian.PutUint64(nonce, m.VaultSignerNonce)
	signer, err := solana.CreateProgramAddress(
		[][]byte{m.OwnAddress.Bytes(), nonce},
		marketProgram,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive vault signer for market %s: %w", m.OwnAddress, err)
	}
	return signer, nil
}
