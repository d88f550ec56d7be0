package zkproof

// Predicate identifies a boolean fact about hidden values that a proof
// attests without revealing them.
type Predicate uint8

const (
	// PredicateUnspecified marks an unset predicate and never verifies.
	PredicateUnspecified Predicate = iota
	// PredicateSolvencyAfterBorrow attests the post-operation collateral
	// ratio meets or exceeds the governance minimum.
	PredicateSolvencyAfterBorrow
	// PredicateNonNegativeBalance attests the hidden balance behind a
	// commitment is not negative.
	PredicateNonNegativeBalance
	// PredicateCorrectDeltaApplication attests the delta commitment opens to
	// the value implied by the statement's public inputs and that
	// old + delta = new for the hidden values.
	PredicateCorrectDeltaApplication
	// PredicateCreditLimitRespected attests used + delta <= limit for a
	// delegated credit line without revealing any of the three.
	PredicateCreditLimitRespected
	// PredicateLiquidationEligible attests the collateral ratio has fallen
	// below the liquidation threshold.
	PredicateLiquidationEligible
	// PredicateZeroBalance attests the hidden value behind a commitment is
	// exactly zero, required before an account may close.
	PredicateZeroBalance
)

// String implements fmt.Stringer for logging and event emission.
func (p Predicate) String() string {
	switch p {
	case PredicateSolvencyAfterBorrow:
		return "solvency_after_borrow"
	case PredicateNonNegativeBalance:
		return "non_negative_balance"
	case PredicateCorrectDeltaApplication:
		return "correct_delta_application"
	case PredicateCreditLimitRespected:
		return "credit_limit_respected"
	case PredicateLiquidationEligible:
		return "liquidation_eligible"
	case PredicateZeroBalance:
		return "zero_balance"
	default:
		return "unspecified"
	}
}

// Valid reports whether the predicate is a known attestable fact.
func (p Predicate) Valid() bool {
	return p > PredicateUnspecified && p <= PredicateZeroBalance
}
