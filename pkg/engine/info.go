package engine

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"

	"swapengine/pkg"
	"swapengine/pkg/pool/pump"
	"swapengine/pkg/pool/raydium"
	"swapengine/pkg/token"
)

// PriceInfo is the read-only price of a mint on its current venue.
type PriceInfo struct {
	Mint     string        `json:"mint"`
	Venue    pkg.VenueKind `json:"venue"`
	PriceSOL float64       `json:"price_sol"`
	PriceUSD float64       `json:"price_usd,omitempty"`
}

// QuotePrice resolves the mint's venue and returns its spot price. USD
// enrichment is best-effort; a dead rate source never fails the price.
func (e *Engine) QuotePrice(ctx context.Context, mintAddr string) (*PriceInfo, error) {
	mint, err := solana.PublicKeyFromBase58(mintAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid mint %q", mintAddr)
	}
	client := e.rpc.GetClient()

	route, err := e.router.Resolve(ctx, client, mint)
	if err != nil {
		return nil, err
	}

	info := &PriceInfo{Mint: mintAddr, Venue: route.Venue}
	switch route.Venue {
	case pkg.VenueBondingCurve:
		info.PriceSOL = route.Curve.SpotPrice()
	case pkg.VenueConstantProduct:
		if err := route.Pool.FetchReserves(ctx, client); err != nil {
			return nil, err
		}
		info.PriceSOL = ammPriceSOL(route.Pool, mint)
	}

	if e.rates != nil {
		if solUSD, err := e.rates.SolPriceUSD(ctx); err == nil {
			info.PriceUSD = info.PriceSOL * solUSD
		}
	}
	return info, nil
}

// CoinInfo is the decoded launch-curve state of a mint. After migration
// the price comes from the AMM pool the mint graduated to.
type CoinInfo struct {
	Mint                 string  `json:"mint"`
	CurveAddress         string  `json:"curve_address"`
	VirtualTokenReserves uint64  `json:"virtual_token_reserves"`
	VirtualSolReserves   uint64  `json:"virtual_sol_reserves"`
	RealTokenReserves    uint64  `json:"real_token_reserves"`
	RealSolReserves      uint64  `json:"real_sol_reserves"`
	TokenTotalSupply     uint64  `json:"token_total_supply"`
	Complete             bool    `json:"complete"`
	Creator              string  `json:"creator,omitempty"`
	PriceSOL             float64 `json:"price_sol"`
	AmmPoolID            string  `json:"amm_pool_id,omitempty"`
}

// GetCoin reads a mint's bonding curve, complete or not.
func (e *Engine) GetCoin(ctx context.Context, mintAddr string) (*CoinInfo, error) {
	mint, err := solana.PublicKeyFromBase58(mintAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid mint %q", mintAddr)
	}
	client := e.rpc.GetClient()

	route, err := e.router.Resolve(ctx, client, mint)
	if err != nil {
		return nil, err
	}
	curve := route.Curve
	if curve == nil {
		// Migrated mints route to the AMM; the curve account still exists.
		curveID, err := pump.DeriveCurveAddress(mint)
		if err != nil {
			return nil, err
		}
		data, err := client.GetAccountDataBytes(ctx, curveID)
		if err != nil {
			return nil, err
		}
		curve = &pump.BondingCurve{CurveID: curveID, Mint: mint}
		if err := curve.Decode(data); err != nil {
			return nil, err
		}
	}

	info := &CoinInfo{
		Mint:                 mintAddr,
		CurveAddress:         curve.CurveID.String(),
		VirtualTokenReserves: curve.VirtualTokenReserves,
		VirtualSolReserves:   curve.VirtualSolReserves,
		RealTokenReserves:    curve.RealTokenReserves,
		RealSolReserves:      curve.RealSolReserves,
		TokenTotalSupply:     curve.TokenTotalSupply,
		Complete:             curve.Complete,
	}
	if !curve.Creator.IsZero() {
		info.Creator = curve.Creator.String()
	}

	if route.Pool != nil {
		if err := route.Pool.FetchReserves(ctx, client); err != nil {
			return nil, err
		}
		info.PriceSOL = ammPriceSOL(route.Pool, mint)
		info.AmmPoolID = route.Pool.PoolID.String()
	} else {
		info.PriceSOL = curve.SpotPrice()
	}
	return info, nil
}

// PoolInfo is the decoded AMM pool state plus its live reserves.
type PoolInfo struct {
	PoolID       string  `json:"pool_id"`
	BaseMint     string  `json:"base_mint"`
	QuoteMint    string  `json:"quote_mint"`
	BaseReserve  string  `json:"base_reserve"`
	QuoteReserve string  `json:"quote_reserve"`
	BaseDecimal  uint64  `json:"base_decimal"`
	QuoteDecimal uint64  `json:"quote_decimal"`
	MarketID     string  `json:"market_id"`
	SpotPrice    float64 `json:"spot_price"`
	SolPriceUSD  float64 `json:"sol_price_usd,omitempty"`
	PriceUSD     float64 `json:"price_usd,omitempty"`
}

// GetPool reads and decodes one AMM pool by address.
func (e *Engine) GetPool(ctx context.Context, poolAddr string) (*PoolInfo, error) {
	poolID, err := solana.PublicKeyFromBase58(poolAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid pool id %q", poolAddr)
	}
	client := e.rpc.GetClient()

	data, err := client.GetAccountDataBytes(ctx, poolID)
	if err != nil {
		return nil, err
	}
	pool := &raydium.AMMPool{PoolID: poolID}
	if err := pool.Decode(data); err != nil {
		return nil, err
	}
	if err := pool.FetchReserves(ctx, client); err != nil {
		return nil, err
	}
	return e.poolInfo(ctx, pool), nil
}

// GetPoolByMint finds the AMM pool pairing a mint with WSOL and returns
// it with live reserves. A mint still on its bonding curve has no pool.
func (e *Engine) GetPoolByMint(ctx context.Context, mintAddr string) (*PoolInfo, error) {
	mint, err := solana.PublicKeyFromBase58(mintAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid mint %q", mintAddr)
	}
	client := e.rpc.GetClient()

	pool, err := e.router.ResolveAMMPool(ctx, client, mint)
	if err != nil {
		return nil, err
	}
	if err := pool.FetchReserves(ctx, client); err != nil {
		return nil, err
	}
	return e.poolInfo(ctx, pool), nil
}

func (e *Engine) poolInfo(ctx context.Context, pool *raydium.AMMPool) *PoolInfo {
	info := &PoolInfo{
		PoolID:       pool.PoolID.String(),
		BaseMint:     pool.BaseMint.String(),
		QuoteMint:    pool.QuoteMint.String(),
		BaseReserve:  pool.BaseReserve.String(),
		QuoteReserve: pool.QuoteReserve.String(),
		BaseDecimal:  pool.BaseDecimal,
		QuoteDecimal: pool.QuoteDecimal,
		MarketID:     pool.MarketID.String(),
		SpotPrice:    pool.SpotPrice(),
	}
	if e.rates != nil && pool.QuoteMint.Equals(raydium.WSOL) {
		if solUSD, err := e.rates.SolPriceUSD(ctx); err == nil {
			info.SolPriceUSD = solUSD
			info.PriceUSD = info.SpotPrice * solUSD
		}
	}
	return info
}

// TokenAccounts lists the service wallet's SPL token holdings.
func (e *Engine) TokenAccounts(ctx context.Context) ([]token.Account, error) {
	return token.ListAccounts(ctx, e.rpc.GetClient(), e.wallet.PublicKey())
}

// TokenAccount returns the wallet's holding of one mint. A wallet that
// never held the mint reads as a zero balance.
func (e *Engine) TokenAccount(ctx context.Context, mintAddr string) (*token.Account, error) {
	mint, err := solana.PublicKeyFromBase58(mintAddr)
	if err != nil {
		return nil, fmt.Errorf("invalid mint %q", mintAddr)
	}
	owner := e.wallet.PublicKey()

	ata, err := token.AssociatedAccount(owner, mint)
	if err != nil {
		return nil, err
	}
	balance, err := token.Balance(ctx, e.rpc.GetClient(), owner, mint)
	if err != nil {
		return nil, err
	}
	return &token.Account{
		Address: ata.String(),
		Mint:    mintAddr,
		Amount:  balance.String(),
	}, nil
}
