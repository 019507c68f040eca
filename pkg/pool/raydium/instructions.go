package raydium

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// SwapBaseInInstruction is the native swap_base_in call: a fixed input
// amount with a minimum acceptable output. The program is pre-anchor, so
// the data is a bare tag byte followed by two little-endian u64s.
type SwapBaseInInstruction struct {
	bin.BaseVariant
	AmountIn                uint64
	MinAmountOut            uint64
	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

func (inst *SwapBaseInInstruction) ProgramID() solana.PublicKey {
	return AmmProgramID
}

func (inst *SwapBaseInInstruction) Accounts() (out []*solana.AccountMeta) {
	return inst.Impl.(solana.AccountsGettable).GetAccounts()
}

func (inst *SwapBaseInInstruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := buf.WriteByte(SwapBaseInCode); err != nil {
		return nil, fmt.Errorf("failed to write instruction tag: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, inst.AmountIn); err != nil {
		return nil, fmt.Errorf("failed to encode amount in: %w", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, inst.MinAmountOut); err != nil {
		return nil, fmt.Errorf("failed to encode min amount out: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildSwapInstruction assembles a swap_base_in for the user's source and
// destination token accounts. Direction is fixed by which account is
// passed as source.
func (p *AMMPool) BuildSwapInstruction(
	market *Market,
	user solana.PublicKey,
	userSource solana.PublicKey,
	userDestination solana.PublicKey,
	amountIn uint64,
	minAmountOut uint64,
) (solana.Instruction, error) {
	vaultSigner, err := market.VaultSigner(p.MarketProgramID)
	if err != nil {
		return nil, err
	}

	inst := SwapBaseInInstruction{
		AmountIn:     amountIn,
		MinAmountOut: minAmountOut,
	}
	inst.AccountMetaSlice = make(solana.AccountMetaSlice, 18)
	inst.BaseVariant = bin.BaseVariant{Impl: inst}

	inst.AccountMetaSlice[0] = solana.NewAccountMeta(solana.TokenProgramID, false, false)
	inst.AccountMetaSlice[1] = solana.NewAccountMeta(p.PoolID, true, false)
	inst.AccountMetaSlice[2] = solana.NewAccountMeta(AmmAuthority, false, false)
	inst.AccountMetaSlice[3] = solana.NewAccountMeta(p.OpenOrders, true, false)
	inst.AccountMetaSlice[4] = solana.NewAccountMeta(p.TargetOrders, true, false)
	inst.AccountMetaSlice[5] = solana.NewAccountMeta(p.BaseVault, true, false)
	inst.AccountMetaSlice[6] = solana.NewAccountMeta(p.QuoteVault, true, false)
	inst.AccountMetaSlice[7] = solana.NewAccountMeta(p.MarketProgramID, false, false)
	inst.AccountMetaSlice[8] = solana.NewAccountMeta(p.MarketID, true, false)
	inst.AccountMetaSlice[9] = solana.NewAccountMeta(market.Bids, true, false)
	inst.AccountMetaSlice[10] = solana.NewAccountMeta(market.Asks, true, false)
	inst.AccountMetaSlice[11] = solana.NewAccountMeta(market.EventQueue, true, false)
	inst.AccountMetaSlice[12] = solana.NewAccountMeta(market.BaseVault, true, false)
	inst.AccountMetaSlice[13] = solana.NewAccountMeta(market.QuoteVault, true, false)
	inst.AccountMetaSlice[14] = solana.NewAccountMeta(vaultSigner, false, false)
	inst.AccountMetaSlice[15] = solana.NewAccountMeta(userSource, true, false)
	inst.AccountMetaSlice[16] = solana.NewAccountMeta(userDestination, true, false)
	inst.AccountMetaSlice[17] = solana.NewAccountMeta(user, true, true)

	return &inst, nil
}
