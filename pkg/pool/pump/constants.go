package pump

import "github.com/gagliardetto/solana-go"

var (
	// PumpProgramID is the bonding-curve launch program.
	PumpProgramID = solana.MustPublicKeyFromBase58("6EF8rrecthR5Dkzon8Nwu78hRvfCKubJ14M5uBEwF6P")

	// PumpGlobal holds the program-wide config account.
	PumpGlobal = solana.MustPublicKeyFromBase58("4wTV1YmiEkRvAtNtsSGPtUrqRYQMe5SKy2uB4Jjaxnjf")

	// PumpFeeRecipient collects the protocol fee on every trade.
	PumpFeeRecipient = solana.MustPublicKeyFromBase58("CebN5WGQ4jvEPvsVU4EoHEpgzq1VV7AbicfhtW4xC9iM")

	// PumpEventAuthority is the anchor event CPI authority.
	PumpEventAuthority = solana.MustPublicKeyFromBase58("Ce6TQqeHC9p8KetsN6JsjHK7UTZk7nasjjnr7XxwpgG1")
)

const (
	// CurveSeed derives a mint's bonding-curve PDA.
	CurveSeed = "bonding-curve"

	// CreatorVaultSeed derives the creator fee vault PDA.
	CreatorVaultSeed = "creator-vault"

	// CurveAccountSize is the minimum account length: 8-byte
	// discriminator, five u64 reserve/supply fields, completion flag.
	CurveAccountSize = 49

	// CurveAccountSizeWithCreator includes the trailing creator pubkey
	// written by newer program versions.
	CurveAccountSizeWithCreator = CurveAccountSize + 32

	// TokenDecimals is fixed for every curve-launched mint.
	TokenDecimals = 6

	// SolDecimals is the lamport scale of the quote side.
	SolDecimals = 9
)
