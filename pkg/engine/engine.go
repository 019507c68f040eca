// Package engine turns validated swap requests into signed, submitted
// transactions: route, quote, bound, build, sign, submit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"

	cosmath "cosmossdk.io/math"
	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	spltoken "github.com/gagliardetto/solana-go/programs/token"
	"go.uber.org/zap"

	"swapengine/pkg"
	"swapengine/pkg/pool/pump"
	"swapengine/pkg/pool/raydium"
	"swapengine/pkg/rate"
	"swapengine/pkg/router"
	"swapengine/pkg/sol"
	"swapengine/pkg/token"
	"swapengine/pkg/wallet"
)

// TipSource serves the current relay tip at a percentile.
// *jito.TipMonitor satisfies it.
type TipSource interface {
	CurrentTip(percentile int) (uint64, error)
}

// BundleClient is the priority relay surface. *jito.Client satisfies it.
type BundleClient interface {
	TipInstruction(from solana.PublicKey, lamports uint64) (solana.Instruction, error)
	SubmitBundle(txs []*solana.Transaction) (string, error)
}

// Config carries the execution policy knobs.
type Config struct {
	TipPercentile   int
	MinTipLamports  uint64
	StrictFreshness bool
}

type Engine struct {
	rpc     *sol.RPCPool
	wallet  *wallet.Wallet
	router  *router.Router
	bundles BundleClient
	tips    TipSource
	rates   rate.Source
	cfg     Config
	logger  *zap.Logger
}

func NewEngine(
	rpc *sol.RPCPool,
	w *wallet.Wallet,
	r *router.Router,
	bundles BundleClient,
	tips TipSource,
	rates rate.Source,
	cfg Config,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		rpc:     rpc,
		wallet:  w,
		router:  r,
		bundles: bundles,
		tips:    tips,
		rates:   rates,
		cfg:     cfg,
		logger:  logger,
	}
}

// Result reports one executed swap. Signature is set on plain submission,
// BundleID on relay submission.
type Result struct {
	Venue       pkg.VenueKind `json:"venue"`
	Signature   string        `json:"signature,omitempty"`
	BundleID    string        `json:"bundle_id,omitempty"`
	AmountIn    string        `json:"amount_in"`
	ExpectedOut string        `json:"expected_out"`
	MinOut      string        `json:"min_out"`
	Price       float64       `json:"price"`
	TipLamports uint64        `json:"tip_lamports,omitempty"`
	Rerouted    bool          `json:"rerouted,omitempty"`
}

// Execute runs the full swap pipeline. If the venue migrates between
// routing and execution the request is re-routed exactly once; a second
// migration error is terminal.
func (e *Engine) Execute(ctx context.Context, req *pkg.SwapRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	mint := solana.MustPublicKeyFromBase58(req.Mint)
	client := e.rpc.GetClient()

	route, err := e.router.Resolve(ctx, client, mint)
	if err != nil {
		return nil, err
	}

	result, err := e.executeRoute(ctx, client, route, mint, req)
	if err == nil || !errors.Is(err, pkg.ErrVenueMigrated) {
		return result, err
	}

	e.logger.Info("venue migrated mid-trade, re-routing once",
		zap.String("mint", req.Mint))
	route, rerr := e.router.Resolve(ctx, client, mint)
	if rerr != nil {
		return nil, rerr
	}
	result, err = e.executeRoute(ctx, client, route, mint, req)
	if result != nil {
		result.Rerouted = true
	}
	return result, err
}

func (e *Engine) executeRoute(ctx context.Context, client *sol.Client, route *router.Route, mint solana.PublicKey, req *pkg.SwapRequest) (*Result, error) {
	if route.Venue == pkg.VenueConstantProduct {
		if err := route.Pool.FetchReserves(ctx, client); err != nil {
			return nil, err
		}
	}

	amountIn, err := e.resolveAmountIn(ctx, client, route, mint, req)
	if err != nil {
		return nil, err
	}

	expectedOut, price, err := e.quoteRoute(route, mint, amountIn, req.Direction)
	if err != nil {
		return nil, err
	}
	if !expectedOut.IsPositive() {
		return nil, fmt.Errorf("quote produced no output for %s %s", req.Direction, req.Mint)
	}
	minOut := pkg.ApplySlippage(expectedOut, req.SlippageBps)

	if e.cfg.StrictFreshness {
		expectedOut, err = e.revalidate(ctx, client, route, mint, amountIn, minOut, req.Direction)
		if err != nil {
			return nil, err
		}
	}

	instructions, err := e.buildInstructions(ctx, client, route, mint, amountIn, expectedOut, minOut, req)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Venue:       route.Venue,
		AmountIn:    amountIn.String(),
		ExpectedOut: expectedOut.String(),
		MinOut:      minOut.String(),
		Price:       price,
	}

	if req.UsePriorityRelay {
		tip := e.tipLamports()
		tipInst, err := e.bundles.TipInstruction(e.wallet.PublicKey(), tip)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, tipInst)
		tx, err := e.signTransaction(ctx, client, instructions)
		if err != nil {
			return nil, err
		}
		bundleID, err := e.bundles.SubmitBundle([]*solana.Transaction{tx})
		if err != nil {
			return nil, submissionError(ctx, err)
		}
		result.BundleID = bundleID
		result.TipLamports = tip
		return result, nil
	}

	tx, err := e.signTransaction(ctx, client, instructions)
	if err != nil {
		return nil, err
	}
	sig, err := client.SendTransaction(ctx, tx)
	if err != nil {
		return nil, submissionError(ctx, err)
	}
	result.Signature = sig.String()
	return result, nil
}

// submissionError classifies a failed submit. A cancellation racing an
// in-flight signed transaction leaves the trade in limbo: the error must
// say so rather than look like a clean failure.
func submissionError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", pkg.ErrOutcomeUnknown, err)
	}
	return err
}

// resolveAmountIn converts the request's UI amount into base units. Buys
// are denominated in SOL, sells in the token; percentage inputs scale the
// wallet's live balance of the spent side.
func (e *Engine) resolveAmountIn(ctx context.Context, client *sol.Client, route *router.Route, mint solana.PublicKey, req *pkg.SwapRequest) (cosmath.Int, error) {
	owner := e.wallet.PublicKey()

	switch req.Direction {
	case pkg.DirectionBuy:
		if req.InType == pkg.InTypePct {
			balance, err := client.GetBalance(ctx, owner)
			if err != nil {
				return cosmath.ZeroInt(), fmt.Errorf("read SOL balance: %w", err)
			}
			if balance == 0 {
				return cosmath.ZeroInt(), fmt.Errorf("no SOL balance to spend")
			}
			return token.PctOf(cosmath.NewIntFromUint64(balance), req.AmountIn), nil
		}
		return uiToBase(req.AmountIn, solDecimals), nil

	case pkg.DirectionSell:
		if req.InType == pkg.InTypePct {
			return token.ResolveInputAmount(ctx, client, owner, mint, req.AmountIn)
		}
		return uiToBase(req.AmountIn, tokenDecimals(route, mint)), nil
	}
	return cosmath.ZeroInt(), fmt.Errorf("invalid direction %q", req.Direction)
}

func (e *Engine) quoteRoute(route *router.Route, mint solana.PublicKey, amountIn cosmath.Int, direction pkg.SwapDirection) (cosmath.Int, float64, error) {
	switch route.Venue {
	case pkg.VenueBondingCurve:
		out, err := route.Curve.Quote(amountIn, direction)
		return out, route.Curve.SpotPrice(), err
	case pkg.VenueConstantProduct:
		out, err := route.Pool.Quote(amountIn, ammDirection(route.Pool, mint, direction))
		return out, ammPriceSOL(route.Pool, mint), err
	}
	return cosmath.ZeroInt(), 0, fmt.Errorf("unknown venue %q", route.Venue)
}

// revalidate re-reads venue state and re-quotes against it. A fresh quote
// below the original bound fails the trade instead of landing it.
func (e *Engine) revalidate(ctx context.Context, client *sol.Client, route *router.Route, mint solana.PublicKey, amountIn, minOut cosmath.Int, direction pkg.SwapDirection) (cosmath.Int, error) {
	switch route.Venue {
	case pkg.VenueBondingCurve:
		data, err := client.GetAccountDataBytes(ctx, route.Curve.CurveID)
		if err != nil {
			return cosmath.ZeroInt(), err
		}
		if err := route.Curve.Decode(data); err != nil {
			return cosmath.ZeroInt(), err
		}
	case pkg.VenueConstantProduct:
		if err := route.Pool.FetchReserves(ctx, client); err != nil {
			return cosmath.ZeroInt(), err
		}
	}

	fresh, _, err := e.quoteRoute(route, mint, amountIn, direction)
	if err != nil {
		return cosmath.ZeroInt(), err
	}
	if fresh.LT(minOut) {
		return cosmath.ZeroInt(), fmt.Errorf("fresh quote %s below bound %s: %w",
			fresh, minOut, pkg.ErrSlippageExceeded)
	}
	return fresh, nil
}

func (e *Engine) buildInstructions(ctx context.Context, client *sol.Client, route *router.Route, mint solana.PublicKey, amountIn, expectedOut, minOut cosmath.Int, req *pkg.SwapRequest) ([]solana.Instruction, error) {
	switch route.Venue {
	case pkg.VenueBondingCurve:
		return e.buildCurveInstructions(ctx, client, route.Curve, amountIn, expectedOut, minOut, req)
	case pkg.VenueConstantProduct:
		return e.buildAMMInstructions(ctx, client, route.Pool, mint, amountIn, minOut, req)
	}
	return nil, fmt.Errorf("unknown venue %q", route.Venue)
}

func (e *Engine) buildCurveInstructions(ctx context.Context, client *sol.Client, curve *pump.BondingCurve, amountIn, expectedOut, minOut cosmath.Int, req *pkg.SwapRequest) ([]solana.Instruction, error) {
	owner := e.wallet.PublicKey()
	ata, err := token.AssociatedAccount(owner, curve.Mint)
	if err != nil {
		return nil, err
	}

	var instructions []solana.Instruction

	switch req.Direction {
	case pkg.DirectionBuy:
		exists, err := e.accountExists(ctx, client, ata)
		if err != nil {
			return nil, err
		}
		if !exists {
			instructions = append(instructions,
				associatedtokenaccount.NewCreateInstruction(owner, owner, curve.Mint).Build())
		}
		// The program takes an exact token amount and a lamport cap; the
		// slippage tolerance moves to the cost side.
		maxSolCost := amountIn.
			Mul(cosmath.NewInt(pkg.BpsDenominator + int64(req.SlippageBps))).
			Quo(cosmath.NewInt(pkg.BpsDenominator))
		buy, err := curve.BuildBuyInstruction(owner, ata, expectedOut.Uint64(), maxSolCost.Uint64())
		if err != nil {
			return nil, err
		}
		return append(instructions, buy), nil

	case pkg.DirectionSell:
		sell, err := curve.BuildSellInstruction(owner, ata, amountIn.Uint64(), minOut.Uint64())
		if err != nil {
			return nil, err
		}
		return append(instructions, sell), nil
	}
	return nil, fmt.Errorf("invalid direction %q", req.Direction)
}

// buildAMMInstructions wraps the SOL leg through a WSOL account: fund and
// sync before a buy, close after either direction to unwrap.
func (e *Engine) buildAMMInstructions(ctx context.Context, client *sol.Client, pool *raydium.AMMPool, mint solana.PublicKey, amountIn, minOut cosmath.Int, req *pkg.SwapRequest) ([]solana.Instruction, error) {
	owner := e.wallet.PublicKey()
	tokenATA, err := token.AssociatedAccount(owner, mint)
	if err != nil {
		return nil, err
	}
	wsolATA, err := token.AssociatedAccount(owner, raydium.WSOL)
	if err != nil {
		return nil, err
	}

	marketData, err := client.GetAccountDataBytes(ctx, pool.MarketID)
	if err != nil {
		return nil, fmt.Errorf("fetch market %s: %w", pool.MarketID, err)
	}
	market, err := raydium.DecodeMarket(marketData)
	if err != nil {
		return nil, err
	}

	var instructions []solana.Instruction

	wsolExists, err := e.accountExists(ctx, client, wsolATA)
	if err != nil {
		return nil, err
	}
	if !wsolExists {
		instructions = append(instructions,
			associatedtokenaccount.NewCreateInstruction(owner, owner, raydium.WSOL).Build())
	}

	var source, destination solana.PublicKey
	switch req.Direction {
	case pkg.DirectionBuy:
		tokenExists, err := e.accountExists(ctx, client, tokenATA)
		if err != nil {
			return nil, err
		}
		if !tokenExists {
			instructions = append(instructions,
				associatedtokenaccount.NewCreateInstruction(owner, owner, mint).Build())
		}
		instructions = append(instructions,
			system.NewTransferInstruction(amountIn.Uint64(), owner, wsolATA).Build(),
			spltoken.NewSyncNativeInstruction(wsolATA).Build())
		source, destination = wsolATA, tokenATA
	case pkg.DirectionSell:
		source, destination = tokenATA, wsolATA
	default:
		return nil, fmt.Errorf("invalid direction %q", req.Direction)
	}

	swap, err := pool.BuildSwapInstruction(market, owner, source, destination,
		amountIn.Uint64(), minOut.Uint64())
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, swap)

	instructions = append(instructions,
		spltoken.NewCloseAccountInstruction(wsolATA, owner, owner, nil).Build())

	return instructions, nil
}

func (e *Engine) signTransaction(ctx context.Context, client *sol.Client, instructions []solana.Instruction) (*solana.Transaction, error) {
	blockhash, err := client.GetLatestBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := solana.NewTransaction(instructions, blockhash,
		solana.TransactionPayer(e.wallet.PublicKey()))
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}
	if err := e.wallet.SignTransaction(tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// tipLamports prices the bundle tip from the live stream, falling back to
// the configured floor when no snapshot has arrived.
func (e *Engine) tipLamports() uint64 {
	tip, err := e.tips.CurrentTip(e.cfg.TipPercentile)
	if err != nil {
		e.logger.Warn("tip stream unavailable, using floor",
			zap.Uint64("floor", e.cfg.MinTipLamports))
		return e.cfg.MinTipLamports
	}
	if tip < e.cfg.MinTipLamports {
		return e.cfg.MinTipLamports
	}
	return tip
}

func (e *Engine) accountExists(ctx context.Context, client *sol.Client, account solana.PublicKey) (bool, error) {
	_, err := client.GetAccountDataBytes(ctx, account)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, pkg.ErrNotFound) {
		return false, nil
	}
	return false, err
}

const solDecimals = 9

func tokenDecimals(route *router.Route, mint solana.PublicKey) int {
	if route.Venue == pkg.VenueBondingCurve {
		return pump.TokenDecimals
	}
	if route.Pool.BaseMint.Equals(mint) {
		return int(route.Pool.BaseDecimal)
	}
	return int(route.Pool.QuoteDecimal)
}

func uiToBase(amount float64, decimals int) cosmath.Int {
	return cosmath.NewInt(int64(math.Round(amount * math.Pow10(decimals))))
}

// ammDirection maps the request direction onto the pool's base/quote
// orientation. Buy always spends WSOL for the mint.
func ammDirection(pool *raydium.AMMPool, mint solana.PublicKey, direction pkg.SwapDirection) pkg.SwapDirection {
	if pool.BaseMint.Equals(mint) {
		return direction
	}
	if direction == pkg.DirectionBuy {
		return pkg.DirectionSell
	}
	return pkg.DirectionBuy
}

// ammPriceSOL is the SOL price of one whole mint token regardless of pool
// orientation.
func ammPriceSOL(pool *raydium.AMMPool, mint solana.PublicKey) float64 {
	spot := pool.SpotPrice()
	if pool.BaseMint.Equals(mint) {
		return spot
	}
	if spot == 0 {
		return 0
	}
	return 1 / spot
}
