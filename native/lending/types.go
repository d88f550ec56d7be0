package lending

import (
	"math/big"

	"zklend/crypto"
	"zklend/native/commitment"
)

// BorrowerAccount maintains the confidential position for one borrower
// identity. Balances exist only as commitments; the engine mutates them
// solely through verified homomorphic deltas.
type BorrowerAccount struct {
	// Address is the owning identity; exactly one borrower controls the
	// account.
	Address crypto.Address
	// Collateral is the opaque commitment to staked collateral value.
	Collateral commitment.Commitment
	// Borrowed is the opaque commitment to outstanding debt including
	// settled interest.
	Borrowed commitment.Commitment
	// CreditLimit mirrors the delegated credit line bound to this account,
	// identity commitment for ordinary borrowers.
	CreditLimit commitment.Commitment
	// LastAccrualTime records when interest settlement last covered this
	// account.
	LastAccrualTime uint64
	// LastStakeTime feeds the flash-loan guard window check.
	LastStakeTime uint64
	// Status is the lifecycle position per the account state machine.
	Status AccountStatus
}

// Clone returns a deep copy so staged mutations never alias persisted state.
func (a *BorrowerAccount) Clone() *BorrowerAccount {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Collateral = a.Collateral.Clone()
	clone.Borrowed = a.Borrowed.Clone()
	clone.CreditLimit = a.CreditLimit.Clone()
	return &clone
}

// CollateralPool aggregates member collateral as a homomorphic sum. The
// invariant maintained at every committed boundary: TotalCollateral equals
// the sum of all active member account collateral commitments.
type CollateralPool struct {
	PoolID            string
	AcceptedAssetKind string
	TotalCollateral   commitment.Commitment
}

// Clone returns a deep copy of the collateral pool record.
func (p *CollateralPool) Clone() *CollateralPool {
	if p == nil {
		return nil
	}
	clone := *p
	clone.TotalCollateral = p.TotalCollateral.Clone()
	return &clone
}

// LendingPool tracks the public vault flows that drive utilization alongside
// the hidden mirror of member debt. Token movements through the pool vault
// are observable on the host ledger, so the liquidity figures are plaintext;
// per-account positions are not.
type LendingPool struct {
	PoolID string
	// TotalLiquidity is the public NAV of the pool vault.
	TotalLiquidity *big.Int
	// TotalBorrowed is the public outstanding borrow flow.
	TotalBorrowed *big.Int
	// TotalBorrowedCommitment is the homomorphic sum of member Borrowed
	// commitments, maintained in lockstep with account updates.
	TotalBorrowedCommitment commitment.Commitment
	// FixedRateBps marks an institutional pool when non-zero; such pools
	// ignore the utilization curve and require whitelist membership.
	FixedRateBps uint64
	// LastAccrualTime records the last public-side interest accrual.
	LastAccrualTime uint64
}

// Clone returns a deep copy of the lending pool record.
func (p *LendingPool) Clone() *LendingPool {
	if p == nil {
		return nil
	}
	clone := *p
	if p.TotalLiquidity != nil {
		clone.TotalLiquidity = new(big.Int).Set(p.TotalLiquidity)
	}
	if p.TotalBorrowed != nil {
		clone.TotalBorrowed = new(big.Int).Set(p.TotalBorrowed)
	}
	clone.TotalBorrowedCommitment = p.TotalBorrowedCommitment.Clone()
	return &clone
}

// Institutional reports whether the pool lends at a fixed rate to
// whitelisted identities.
func (p *LendingPool) Institutional() bool {
	return p != nil && p.FixedRateBps > 0
}

// DelegatedBorrower records a credit line a delegator has assigned to a
// delegate. Both the limit and the drawn amount stay hidden; the invariant
// used <= limit is proof-checked, never revealed.
type DelegatedBorrower struct {
	Delegator   crypto.Address
	Delegate    crypto.Address
	CreditLimit commitment.Commitment
	Used        commitment.Commitment
}

// Clone returns a deep copy of the delegation record.
func (d *DelegatedBorrower) Clone() *DelegatedBorrower {
	if d == nil {
		return nil
	}
	clone := *d
	clone.CreditLimit = d.CreditLimit.Clone()
	clone.Used = d.Used.Clone()
	return &clone
}

// BorrowerReputation tracks repayment behaviour for downstream credit
// decisions. Scores are plaintext counters; they reveal activity, not
// amounts.
type BorrowerReputation struct {
	Address           crypto.Address
	Score             uint64
	SuccessfulRepays  uint64
	LiquidationEvents uint64
}

// ProtocolState sums the per-pool aggregates. The invariant maintained at
// every committed transaction boundary: each field equals the corresponding
// (homomorphic) sum over all constituent pools.
type ProtocolState struct {
	TotalLiquidity          *big.Int
	TotalBorrowed           *big.Int
	TotalCollateral         commitment.Commitment
	TotalBorrowedCommitment commitment.Commitment
}

// Clone returns a deep copy of the protocol aggregates.
func (s *ProtocolState) Clone() *ProtocolState {
	if s == nil {
		return nil
	}
	clone := *s
	if s.TotalLiquidity != nil {
		clone.TotalLiquidity = new(big.Int).Set(s.TotalLiquidity)
	}
	if s.TotalBorrowed != nil {
		clone.TotalBorrowed = new(big.Int).Set(s.TotalBorrowed)
	}
	clone.TotalCollateral = s.TotalCollateral.Clone()
	clone.TotalBorrowedCommitment = s.TotalBorrowedCommitment.Clone()
	return &clone
}

// PartialLiquidationResult reports the outcome of one liquidation call.
type PartialLiquidationResult struct {
	// SeizedFlow is the public collateral flow credited to the liquidator.
	SeizedFlow *big.Int
	// RepaidFlow is the public debt flow returned to the pool.
	RepaidFlow *big.Int
	// SeizedCommitment and RepaidCommitment are the verified hidden deltas
	// applied to the borrower's position.
	SeizedCommitment commitment.Commitment
	RepaidCommitment commitment.Commitment
	// Status is the borrower's account status after the call.
	Status AccountStatus
}
