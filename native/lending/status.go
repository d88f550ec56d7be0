package lending

import "fmt"

// AccountStatus enumerates the lifecycle phases of a borrower account. Every
// transition is gated by a verified proof; no status is ever set
// speculatively.
type AccountStatus uint8

const (
	// StatusUninitialized marks an account that has never staked.
	StatusUninitialized AccountStatus = iota
	// StatusCollateralized marks an account with staked collateral and no
	// borrow history.
	StatusCollateralized
	// StatusBorrowed marks an account with outstanding debt whose last
	// verified solvency check held.
	StatusBorrowed
	// StatusLiquidatable marks an account for which a liquidation
	// eligibility proof has verified true.
	StatusLiquidatable
	// StatusClosed marks an account whose collateral and debt commitments
	// both verified as zero. No account closes while debt is outstanding.
	StatusClosed
)

// String implements fmt.Stringer for logs and events.
func (s AccountStatus) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusCollateralized:
		return "collateralized"
	case StatusBorrowed:
		return "borrowed"
	case StatusLiquidatable:
		return "liquidatable"
	case StatusClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

var allowedTransitions = map[AccountStatus]map[AccountStatus]bool{
	StatusUninitialized: {
		StatusCollateralized: true,
	},
	StatusCollateralized: {
		StatusCollateralized: true, // further stakes and rebalances
		StatusBorrowed:       true,
		StatusClosed:         true,
	},
	StatusBorrowed: {
		StatusBorrowed:     true, // borrow/repay/rebalance while solvent
		StatusLiquidatable: true,
		StatusClosed:       true,
	},
	StatusLiquidatable: {
		StatusLiquidatable: true, // repeated partial liquidation
		StatusBorrowed:     true, // solvency restored
		StatusClosed:       true,
	},
}

// Transition validates the move from the current status to the target and
// returns the target on success. Illegal moves report
// ErrInvalidStateTransition with both endpoints named.
func (s AccountStatus) Transition(to AccountStatus) (AccountStatus, error) {
	if targets, ok := allowedTransitions[s]; ok && targets[to] {
		return to, nil
	}
	return s, fmt.Errorf("%w: %s -> %s", ErrInvalidStateTransition, s, to)
}
