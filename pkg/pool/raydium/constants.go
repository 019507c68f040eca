package raydium

import "github.com/gagliardetto/solana-go"

var (
	// AmmProgramID is the Raydium liquidity pool v4 program.
	AmmProgramID = solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8")

	// AmmAuthority is the program's pool vault authority.
	AmmAuthority = solana.MustPublicKeyFromBase58("5Q544fKrFoe6tsEbD7S8EmxGTJYAKtTVhAW5Q5pge4j1")

	// WSOL is the canonical quote token every routed pool pairs against.
	WSOL = solana.MustPublicKeyFromBase58("So11111111111111111111111111111111111111112")
)

const (
	// PoolStateSize is the LIQUIDITY_STATE_LAYOUT_V4 account length.
	PoolStateSize = 752

	// BaseMintOffset/QuoteMintOffset locate the mint pair inside the
	// pool state for memcmp filters.
	BaseMintOffset  = 400
	QuoteMintOffset = 432

	// MarketStateSize is the serum MarketStateV3 account length.
	MarketStateSize = 388

	// DefaultFeeNumerator/Denominator is the 0.25% swap fee applied to
	// input when the pool state carries no fee of its own.
	DefaultFeeNumerator   = 25
	DefaultFeeDenominator = 10_000

	// SwapBaseInCode is the native instruction tag for swap_base_in.
	SwapBaseInCode = uint8(9)

	SolDecimals = 9
)
