// Package sol wraps the Solana JSON-RPC client with rate limiting and
// the narrow read/submit surface the engine needs.
package sol

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"golang.org/x/time/rate"

	"swapengine/pkg"
)

// Client is a rate-limited wrapper around one RPC endpoint.
type Client struct {
	endpoint string
	rpc      *rpc.Client
	limiter  *rate.Limiter
}

// NewClient creates a client for the given endpoint. reqLimitPerSecond
// bounds outbound request rate; zero disables limiting.
func NewClient(ctx context.Context, endpoint string, reqLimitPerSecond int) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("empty RPC endpoint")
	}
	c := &Client{
		endpoint: endpoint,
		rpc:      rpc.New(endpoint),
	}
	if reqLimitPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(reqLimitPerSecond), reqLimitPerSecond)
	}
	return c, nil
}

func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// GetAccountDataBytes fetches and returns the raw bytes of one account.
// A missing account maps to pkg.ErrNotFound.
func (c *Client) GetAccountDataBytes(ctx context.Context, account solana.PublicKey) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	result, err := c.rpc.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{
		Commitment: rpc.CommitmentConfirmed,
		Encoding:   solana.EncodingBase64,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("account %s: %w", account, pkg.ErrNotFound)
		}
		return nil, fmt.Errorf("get account %s: %w", account, err)
	}
	if result == nil || result.Value == nil {
		return nil, fmt.Errorf("account %s: %w", account, pkg.ErrNotFound)
	}
	return result.Value.Data.GetBinary(), nil
}

// GetMultipleAccountsWithOpts batches account reads at confirmed
// commitment.
func (c *Client) GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.rpc.GetMultipleAccountsWithOpts(ctx, accounts, &rpc.GetMultipleAccountsOpts{
		Commitment: rpc.CommitmentConfirmed,
		Encoding:   solana.EncodingBase64,
	})
}

// ProgramAccount is one hit of a filtered program scan.
type ProgramAccount struct {
	Pubkey solana.PublicKey
	Data   []byte
}

// FindProgramAccounts runs a filtered program account scan and returns
// the raw account bytes.
func (c *Client) FindProgramAccounts(ctx context.Context, program solana.PublicKey, filters []rpc.RPCFilter) ([]ProgramAccount, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	results, err := c.rpc.GetProgramAccountsWithOpts(ctx, program, &rpc.GetProgramAccountsOpts{
		Commitment: rpc.CommitmentConfirmed,
		Encoding:   solana.EncodingBase64,
		Filters:    filters,
	})
	if err != nil {
		return nil, fmt.Errorf("get program accounts for %s: %w", program, err)
	}
	accounts := make([]ProgramAccount, 0, len(results))
	for _, keyed := range results {
		accounts = append(accounts, ProgramAccount{
			Pubkey: keyed.Pubkey,
			Data:   keyed.Account.Data.GetBinary(),
		})
	}
	return accounts, nil
}

// GetTokenAccountsByOwner lists the owner's SPL token accounts.
func (c *Client) GetTokenAccountsByOwner(ctx context.Context, owner solana.PublicKey) (*rpc.GetTokenAccountsResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	programID := solana.TokenProgramID
	return c.rpc.GetTokenAccountsByOwner(ctx, owner,
		&rpc.GetTokenAccountsConfig{ProgramId: &programID},
		&rpc.GetTokenAccountsOpts{
			Commitment: rpc.CommitmentConfirmed,
			Encoding:   solana.EncodingBase64,
		})
}

// GetBalance returns the lamport balance of an account.
func (c *Client) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	result, err := c.rpc.GetBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		return 0, err
	}
	return result.Value, nil
}

// GetLatestBlockhash fetches a recent blockhash for transaction building.
func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	if err := c.wait(ctx); err != nil {
		return solana.Hash{}, err
	}
	result, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	return result.Value.Blockhash, nil
}

// SendTransaction submits a signed transaction through the ordinary
// transport. Preflight is skipped; the engine's own slippage bound is the
// correctness guarantee.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if err := c.wait(ctx); err != nil {
		return solana.Signature{}, err
	}
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("send transaction: %w", err)
	}
	return sig, nil
}
