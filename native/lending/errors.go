package lending

import (
	"errors"

	"zklend/native/commitment"
)

// Every rejection below is local to one transaction and reported to the
// caller; nothing here is a fatal process-level error. A rejected operation
// leaves all commitments and aggregates untouched.
var (
	// ErrProofVerificationFailed signals the supplied proof does not attest
	// the required predicate for the current state. Always recoverable: the
	// caller may resubmit with a correct proof.
	ErrProofVerificationFailed = errors.New("lending engine: proof verification failed")
	// ErrNotSolvent signals the solvency predicate is false for the
	// requested transition.
	ErrNotSolvent = errors.New("lending engine: insufficient collateral for requested borrow")
	// ErrMalformedCommitment mirrors the commitment scheme's structural
	// failure; fatal to the request, not the process.
	ErrMalformedCommitment = commitment.ErrMalformedCommitment
	// ErrExceedsMaxSeize rejects liquidation calls seizing more than the
	// governance per-call bound.
	ErrExceedsMaxSeize = errors.New("lending engine: seize amount exceeds per-call bound")
	// ErrNotEligibleForLiquidation rejects liquidation of a position whose
	// eligibility proof does not verify.
	ErrNotEligibleForLiquidation = errors.New("lending engine: borrower not eligible for liquidation")
	// ErrNotWhitelisted rejects institutional borrows from identities
	// outside the pool whitelist.
	ErrNotWhitelisted = errors.New("lending engine: identity not whitelisted for institutional pool")
	// ErrCreditLimitExceeded rejects delegated borrows whose credit-limit
	// predicate is false.
	ErrCreditLimitExceeded = errors.New("lending engine: delegated credit limit exceeded")
	// ErrFlashLoanGuard rejects large borrows inside the guard window after
	// a stake unless a strong solvency proof accompanies them.
	ErrFlashLoanGuard = errors.New("lending engine: flash loan guard triggered")
	// ErrInvalidStateTransition rejects operations forbidden by the
	// account's current status.
	ErrInvalidStateTransition = errors.New("lending engine: invalid account state transition")
	// ErrInsufficientLiquidity rejects borrows exceeding the pool's public
	// liquidity.
	ErrInsufficientLiquidity = errors.New("lending engine: insufficient liquidity")
	// ErrInvalidAmount rejects non-positive public flows.
	ErrInvalidAmount = errors.New("lending engine: amount must be positive")
	// ErrAccrualRequired rejects debt mutations attempted while interest
	// settlement is outstanding.
	ErrAccrualRequired = errors.New("lending engine: interest accrual must be settled first")
	// ErrUnauthorizedDelegate rejects delegated borrows by identities other
	// than the registered delegate.
	ErrUnauthorizedDelegate = errors.New("lending engine: caller is not the registered delegate")
)

var (
	errNilState          = errors.New("lending engine: state not configured")
	errNilVerifier       = errors.New("lending engine: proof verifier not configured")
	errNilParams         = errors.New("lending engine: parameter source not configured")
	errPoolNotConfigured = errors.New("lending engine: pool identifier not configured")
	errNilPool           = errors.New("lending engine: pool not initialised")
	errNilAccount        = errors.New("lending engine: account address required")
	errNotInstitutional  = errors.New("lending engine: pool does not lend at a fixed rate")
	errNilDelegation     = errors.New("lending engine: delegation record required")
)
