// Package router decides which venue a mint currently trades on: its
// launch bonding curve until migration, the AMM pool after.
package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"swapengine/pkg"
	"swapengine/pkg/pool/pump"
	"swapengine/pkg/pool/raydium"
	"swapengine/pkg/sol"
)

// ChainReader is the read surface routing needs. *sol.Client satisfies it.
type ChainReader interface {
	GetAccountDataBytes(ctx context.Context, account solana.PublicKey) ([]byte, error)
	FindProgramAccounts(ctx context.Context, program solana.PublicKey, filters []rpc.RPCFilter) ([]sol.ProgramAccount, error)
}

// Route names the venue a mint resolved to, carrying the decoded state
// the adapter needs. Exactly one of Curve or Pool is set.
type Route struct {
	Venue pkg.VenueKind
	Curve *pump.BondingCurve
	Pool  *raydium.AMMPool
}

type Router struct {
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{logger: logger}
}

// Resolve finds the live venue for a mint. The bonding curve PDA is
// checked first: a curve that exists and is not complete wins. A complete
// or absent curve falls through to the AMM pool scan. A mint with neither
// venue is pkg.ErrNoVenueFound.
func (r *Router) Resolve(ctx context.Context, reader ChainReader, mint solana.PublicKey) (*Route, error) {
	curve, err := r.resolveCurve(ctx, reader, mint)
	switch {
	case err == nil:
		if !curve.Complete {
			r.logger.Debug("routed to bonding curve",
				zap.String("mint", mint.String()),
				zap.String("curve", curve.CurveID.String()))
			return &Route{Venue: pkg.VenueBondingCurve, Curve: curve}, nil
		}
		r.logger.Debug("curve complete, falling through to AMM",
			zap.String("mint", mint.String()))
	case errors.Is(err, pkg.ErrNotFound):
		// Not curve-launched; the AMM scan decides.
	default:
		return nil, err
	}

	amm, err := r.resolveAMM(ctx, reader, mint)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("mint %s: %w", mint, pkg.ErrNoVenueFound)
		}
		return nil, err
	}
	r.logger.Debug("routed to AMM pool",
		zap.String("mint", mint.String()),
		zap.String("pool", amm.PoolID.String()))
	return &Route{Venue: pkg.VenueConstantProduct, Pool: amm}, nil
}

// ResolveAMMPool finds the AMM pool pairing a mint with WSOL regardless
// of any live bonding curve. Pool lookups use this; trading goes through
// Resolve.
func (r *Router) ResolveAMMPool(ctx context.Context, reader ChainReader, mint solana.PublicKey) (*raydium.AMMPool, error) {
	pool, err := r.resolveAMM(ctx, reader, mint)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("no AMM pool for mint %s: %w", mint, pkg.ErrNoVenueFound)
		}
		return nil, err
	}
	return pool, nil
}

func (r *Router) resolveCurve(ctx context.Context, reader ChainReader, mint solana.PublicKey) (*pump.BondingCurve, error) {
	curveID, err := pump.DeriveCurveAddress(mint)
	if err != nil {
		return nil, err
	}
	data, err := reader.GetAccountDataBytes(ctx, curveID)
	if err != nil {
		return nil, err
	}
	curve := &pump.BondingCurve{CurveID: curveID, Mint: mint}
	if err := curve.Decode(data); err != nil {
		return nil, err
	}
	return curve, nil
}

// resolveAMM scans the AMM program for a pool pairing the mint with WSOL,
// in either orientation.
func (r *Router) resolveAMM(ctx context.Context, reader ChainReader, mint solana.PublicKey) (*raydium.AMMPool, error) {
	account, data, err := r.findPoolAccount(ctx, reader, mint, raydium.WSOL)
	if errors.Is(err, pkg.ErrNotFound) {
		account, data, err = r.findPoolAccount(ctx, reader, raydium.WSOL, mint)
	}
	if err != nil {
		return nil, err
	}

	pool := &raydium.AMMPool{PoolID: account}
	if err := pool.Decode(data); err != nil {
		return nil, err
	}
	return pool, nil
}

func (r *Router) findPoolAccount(ctx context.Context, reader ChainReader, baseMint, quoteMint solana.PublicKey) (solana.PublicKey, []byte, error) {
	results, err := reader.FindProgramAccounts(ctx, raydium.AmmProgramID, []rpc.RPCFilter{
		{DataSize: uint64(raydium.PoolStateSize)},
		{Memcmp: &rpc.RPCFilterMemcmp{
			Offset: raydium.BaseMintOffset,
			Bytes:  solana.Base58(baseMint.Bytes()),
		}},
		{Memcmp: &rpc.RPCFilterMemcmp{
			Offset: raydium.QuoteMintOffset,
			Bytes:  solana.Base58(quoteMint.Bytes()),
		}},
	})
	if err != nil {
		return solana.PublicKey{}, nil, fmt.Errorf("scan AMM pools: %w", err)
	}
	if len(results) == 0 {
		return solana.PublicKey{}, nil, pkg.ErrNotFound
	}
	if len(results) > 1 {
		r.logger.Debug("multiple AMM pools for pair, using first",
			zap.String("base", baseMint.String()),
			zap.Int("count", len(results)))
	}
	return results[0].Pubkey, results[0].Data, nil
}
