// Package token resolves wallet token holdings: associated accounts,
// balances, and percentage-denominated input amounts.
package token

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"

	"swapengine/pkg"
	"swapengine/pkg/sol"
)

// Account is one SPL token holding of the wallet.
type Account struct {
	Address string `json:"address"`
	Mint    string `json:"mint"`
	Amount  string `json:"amount"`
}

// AssociatedAccount derives the owner's associated token account for mint.
func AssociatedAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("derive associated token account: %w", err)
	}
	return ata, nil
}

// AccountReader reads raw account bytes. *sol.Client satisfies it.
type AccountReader interface {
	GetAccountDataBytes(ctx context.Context, account solana.PublicKey) ([]byte, error)
}

// Balance returns the owner's balance of mint in base units. A missing
// token account reads as zero; any other read failure propagates so a
// flaky RPC is never mistaken for an empty wallet.
func Balance(ctx context.Context, reader AccountReader, owner, mint solana.PublicKey) (math.Int, error) {
	ata, err := AssociatedAccount(owner, mint)
	if err != nil {
		return math.ZeroInt(), err
	}
	data, err := reader.GetAccountDataBytes(ctx, ata)
	if errors.Is(err, pkg.ErrNotFound) {
		return math.ZeroInt(), nil
	}
	if err != nil {
		return math.ZeroInt(), fmt.Errorf("read token account %s: %w", ata, err)
	}
	if len(data) < 72 {
		return math.ZeroInt(), fmt.Errorf("token account %s too short: %w", ata, pkg.ErrDecode)
	}
	return math.NewIntFromUint64(binary.LittleEndian.Uint64(data[64:72])), nil
}

// ResolveInputAmount converts a percentage of the owner's current holding
// of mint into base units.
func ResolveInputAmount(ctx context.Context, reader AccountReader, owner, mint solana.PublicKey, pct float64) (math.Int, error) {
	if pct <= 0 || pct > 100 {
		return math.ZeroInt(), fmt.Errorf("percentage out of range: %f", pct)
	}
	balance, err := Balance(ctx, reader, owner, mint)
	if err != nil {
		return math.ZeroInt(), err
	}
	if balance.IsZero() {
		return math.ZeroInt(), fmt.Errorf("no holding of %s to sell", mint)
	}
	return PctOf(balance, pct), nil
}

// PctOf scales an amount by a percentage with basis-point resolution.
func PctOf(amount math.Int, pct float64) math.Int {
	bps := int64(pct * 100)
	return amount.Mul(math.NewInt(bps)).Quo(math.NewInt(10_000))
}

// ListAccounts returns all SPL token accounts owned by owner.
func ListAccounts(ctx context.Context, client *sol.Client, owner solana.PublicKey) ([]Account, error) {
	result, err := client.GetTokenAccountsByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list token accounts: %w", err)
	}
	accounts := make([]Account, 0, len(result.Value))
	for _, keyed := range result.Value {
		data := keyed.Account.Data.GetBinary()
		if len(data) < 72 {
			continue
		}
		mint := solana.PublicKeyFromBytes(data[0:32])
		amount := binary.LittleEndian.Uint64(data[64:72])
		accounts = append(accounts, Account{
			Address: keyed.Pubkey.String(),
			Mint:    mint.String(),
			Amount:  strconv.FormatUint(amount, 10),
		})
	}
	return accounts, nil
}
