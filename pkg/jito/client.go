// Package jito submits transaction bundles through a block-engine relay
// and tracks the live landed-tip percentiles that price the bundle tip.
package jito

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	jitorpc "github.com/jito-labs/jito-go-rpc"
	"github.com/mr-tron/base58"
	"go.uber.org/zap"
)

// Client wraps the block-engine JSON-RPC surface. Tip accounts are
// fetched once at startup; a relay that cannot name its tip accounts
// cannot accept bundles.
type Client struct {
	rpc         *jitorpc.JitoJsonRpcClient
	logger      *zap.Logger
	tipAccounts []solana.PublicKey
}

func NewClient(blockEngineURL string, logger *zap.Logger) *Client {
	return &Client{
		rpc:    jitorpc.NewJitoJsonRpcClient(blockEngineURL, ""),
		logger: logger,
	}
}

// InitTipAccounts loads the relay's tip accounts. Must succeed before the
// first bundle.
func (c *Client) InitTipAccounts() error {
	raw, err := c.rpc.GetTipAccounts()
	if err != nil {
		return fmt.Errorf("get tip accounts: %w", err)
	}
	var addresses []string
	if err := json.Unmarshal(raw, &addresses); err != nil {
		return fmt.Errorf("decode tip accounts: %w", err)
	}
	if len(addresses) == 0 {
		return fmt.Errorf("relay returned no tip accounts")
	}
	accounts := make([]solana.PublicKey, 0, len(addresses))
	for _, addr := range addresses {
		key, err := solana.PublicKeyFromBase58(addr)
		if err != nil {
			return fmt.Errorf("invalid tip account %q: %w", addr, err)
		}
		accounts = append(accounts, key)
	}
	c.tipAccounts = accounts
	c.logger.Info("loaded relay tip accounts", zap.Int("count", len(accounts)))
	return nil
}

// RandomTipAccount spreads tips across the relay's accounts.
func (c *Client) RandomTipAccount() (solana.PublicKey, error) {
	if len(c.tipAccounts) == 0 {
		return solana.PublicKey{}, fmt.Errorf("tip accounts not initialized")
	}
	return c.tipAccounts[rand.Intn(len(c.tipAccounts))], nil
}

// TipInstruction builds the lamport transfer that pays the relay.
func (c *Client) TipInstruction(from solana.PublicKey, lamports uint64) (solana.Instruction, error) {
	tipAccount, err := c.RandomTipAccount()
	if err != nil {
		return nil, err
	}
	return system.NewTransferInstruction(lamports, from, tipAccount).Build(), nil
}

// SubmitBundle sends signed transactions as one atomic bundle and returns
// the relay's bundle id.
func (c *Client) SubmitBundle(txs []*solana.Transaction) (string, error) {
	encoded := make([]string, 0, len(txs))
	for _, tx := range txs {
		serialized, err := tx.MarshalBinary()
		if err != nil {
			return "", fmt.Errorf("serialize bundle transaction: %w", err)
		}
		encoded = append(encoded, base58.Encode(serialized))
	}

	raw, err := c.rpc.SendBundle([][]string{encoded})
	if err != nil {
		return "", fmt.Errorf("send bundle: %w", err)
	}
	var bundleID string
	if err := json.Unmarshal(raw, &bundleID); err != nil {
		return "", fmt.Errorf("decode bundle id: %w", err)
	}
	c.logger.Info("bundle submitted",
		zap.String("bundle_id", bundleID),
		zap.Int("transactions", len(encoded)))
	return bundleID, nil
}
