package pkg

import "errors"

// Terminal pricing/routing failures surfaced unchanged to the caller.
var (
	// ErrNotFound means the pool or curve account does not exist on chain.
	ErrNotFound = errors.New("account not found")

	// ErrDecode means an account exists but its layout did not parse.
	// Indicates a program version mismatch; never silently defaulted.
	ErrDecode = errors.New("account decode failed")

	// ErrVenueMigrated means the bonding curve completed and trading for
	// the mint has moved to the AMM. The engine re-routes once on this.
	ErrVenueMigrated = errors.New("bonding curve migrated")

	// ErrNoVenueFound means the mint has no curve and no AMM pool.
	ErrNoVenueFound = errors.New("no venue found for mint")

	// ErrSlippageExceeded means a re-checked output fell below MinOut.
	ErrSlippageExceeded = errors.New("slippage tolerance exceeded")

	// ErrOutcomeUnknown means the request was cancelled while a signed
	// transaction was in flight. The trade may still land; callers must
	// not retry blindly.
	ErrOutcomeUnknown = errors.New("submission outcome unknown")
)

// ErrTipUnavailable is returned by the tip monitor before any stream
// message has arrived. Non-fatal: callers fall back to the configured
// minimum tip.
var ErrTipUnavailable = errors.New("tip percentiles unavailable")
