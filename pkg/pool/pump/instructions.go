package pump

import (
	"bytes"
	"encoding/binary"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"swapengine/pkg/anchor"
)

// BuySwapInstruction spends at most MaxSolCost lamports for exactly
// TokenAmount base units on the curve.
type BuySwapInstruction struct {
	bin.BaseVariant
	TokenAmount             uint64
	MaxSolCost              uint64
	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

func (inst *BuySwapInstruction) ProgramID() solana.PublicKey {
	return PumpProgramID
}

func (inst *BuySwapInstruction) Accounts() (out []*solana.AccountMeta) {
	return inst.Impl.(solana.AccountsGettable).GetAccounts()
}

func (inst *BuySwapInstruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)
	if _, err := buf.Write(anchor.GetDiscriminator("global", "buy")); err != nil {
		return nil, fmt.Errorf("failed to write discriminator: %w", err)
	}
	if err := bin.NewBorshEncoder(buf).WriteUint64(inst.TokenAmount, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode token amount: %w", err)
	}
	if err := bin.NewBorshEncoder(buf).WriteUint64(inst.MaxSolCost, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode max sol cost: %w", err)
	}
	return buf.Bytes(), nil
}

// SellSwapInstruction sells TokenAmount base units for at least
// MinSolOutput lamports.
type SellSwapInstruction struct {
	bin.BaseVariant
	TokenAmount             uint64
	MinSolOutput            uint64
	solana.AccountMetaSlice `bin:"-" borsh_skip:"true"`
}

func (inst *SellSwapInstruction) ProgramID() solana.PublicKey {
	return PumpProgramID
}

func (inst *SellSwapInstruction) Accounts() (out []*solana.AccountMeta) {
	return inst.Impl.(solana.AccountsGettable).GetAccounts()
}

func (inst *SellSwapInstruction) Data() ([]byte, error) {
	buf := new(bytes.Buffer)
	if _, err := buf.Write(anchor.GetDiscriminator("global", "sell")); err != nil {
		return nil, fmt.Errorf("failed to write discriminator: %w", err)
	}
	if err := bin.NewBorshEncoder(buf).WriteUint64(inst.TokenAmount, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode token amount: %w", err)
	}
	if err := bin.NewBorshEncoder(buf).WriteUint64(inst.MinSolOutput, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode min sol output: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildBuyInstruction assembles a curve buy for the user's associated
// token account.
func (c *BondingCurve) BuildBuyInstruction(
	user solana.PublicKey,
	userTokenAccount solana.PublicKey,
	tokenAmount uint64,
	maxSolCost uint64,
) (solana.Instruction, error) {
	curveTokenAccount, err := AssociatedCurveAccount(c.CurveID, c.Mint)
	if err != nil {
		return nil, err
	}
	creatorVault, err := DeriveCreatorVault(c.Creator)
	if err != nil {
		return nil, err
	}

	inst := BuySwapInstruction{
		TokenAmount: tokenAmount,
		MaxSolCost:  maxSolCost,
	}
	inst.AccountMetaSlice = make(solana.AccountMetaSlice, 12)
	inst.BaseVariant = bin.BaseVariant{Impl: inst}

	inst.AccountMetaSlice[0] = solana.NewAccountMeta(PumpGlobal, false, false)
	inst.AccountMetaSlice[1] = solana.NewAccountMeta(PumpFeeRecipient, true, false)
	inst.AccountMetaSlice[2] = solana.NewAccountMeta(c.Mint, false, false)
	inst.AccountMetaSlice[3] = solana.NewAccountMeta(c.CurveID, true, false)
	inst.AccountMetaSlice[4] = solana.NewAccountMeta(curveTokenAccount, true, false)
	inst.AccountMetaSlice[5] = solana.NewAccountMeta(userTokenAccount, true, false)
	inst.AccountMetaSlice[6] = solana.NewAccountMeta(user, true, true)
	inst.AccountMetaSlice[7] = solana.NewAccountMeta(solana.SystemProgramID, false, false)
	inst.AccountMetaSlice[8] = solana.NewAccountMeta(solana.TokenProgramID, false, false)
	inst.AccountMetaSlice[9] = solana.NewAccountMeta(creatorVault, true, false)
	inst.AccountMetaSlice[10] = solana.NewAccountMeta(PumpEventAuthority, false, false)
	inst.AccountMetaSlice[11] = solana.NewAccountMeta(PumpProgramID, false, false)

	return &inst, nil
}

// BuildSellInstruction assembles a curve sell from the user's associated
// token account.
func (c *BondingCurve) BuildSellInstruction(
	user solana.PublicKey,
	userTokenAccount solana.PublicKey,
	tokenAmount uint64,
	minSolOutput uint64,
) (solana.Instruction, error) {
	curveTokenAccount, err := AssociatedCurveAccount(c.CurveID, c.Mint)
	if err != nil {
		return nil, err
	}
	creatorVault, err := DeriveCreatorVault(c.Creator)
	if err != nil {
		return nil, err
	}

	inst := SellSwapInstruction{
		TokenAmount:  tokenAmount,
		MinSolOutput: minSolOutput,
	}
	inst.AccountMetaSlice = make(solana.AccountMetaSlice, 12)
	inst.BaseVariant = bin.BaseVariant{Impl: inst}

	inst.AccountMetaSlice[0] = solana.NewAccountMeta(PumpGlobal, false, false)
	inst.AccountMetaSlice[1] = solana.NewAccountMeta(PumpFeeRecipient, true, false)
	inst.AccountMetaSlice[2] = solana.NewAccountMeta(c.Mint, false, false)
	inst.AccountMetaSlice[3] = solana.NewAccountMeta(c.CurveID, true, false)
	inst.AccountMetaSlice[4] = solana.NewAccountMeta(curveTokenAccount, true, false)
	inst.AccountMetaSlice[5] = solana.NewAccountMeta(userTokenAccount, true, false)
	inst.AccountMetaSlice[6] = solana.NewAccountMeta(user, true, true)
	inst.AccountMetaSlice[7] = solana.NewAccountMeta(solana.SystemProgramID, false, false)
	inst.AccountMetaSlice[8] = solana.NewAccountMeta(creatorVault, true, false)
	inst.AccountMetaSlice[9] = solana.NewAccountMeta(solana.TokenProgramID, false, false)
	inst.AccountMetaSlice[10] = solana.NewAccountMeta(PumpEventAuthority, false, false)
	inst.AccountMetaSlice[11] = solana.NewAccountMeta(PumpProgramID, false, false)

	return &inst, nil
}

// AssociatedCurveAccount is the curve PDA's own associated token account
// holding the real base reserve.
func AssociatedCurveAccount(curveID, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(curveID, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive curve token account: %w", err)
	}
	return ata, nil
}
