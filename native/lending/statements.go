package lending

import (
	"encoding/binary"
	"math/big"

	"zklend/native/commitment"
	"zklend/native/zkproof"
)

// Statement builders are shared by the engine and by provers: both sides
// derive the identical public statement from the same observed state, so a
// proof built against a stale snapshot fails verification as a normal
// rejection.

func u64be(v uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	return buf[:]
}

// snapshotDigest binds the pre-statement state of the records an operation
// touches.
func snapshotDigest(pool *LendingPool, cpool *CollateralPool, acct *BorrowerAccount) [32]byte {
	return zkproof.SnapshotDigest(
		[]byte(pool.PoolID),
		nonNil(pool.TotalLiquidity).Bytes(),
		nonNil(pool.TotalBorrowed).Bytes(),
		pool.TotalBorrowedCommitment.Bytes(),
		u64be(pool.FixedRateBps),
		cpool.TotalCollateral.Bytes(),
		acct.Collateral.Bytes(),
		acct.Borrowed.Bytes(),
		u64be(acct.LastAccrualTime),
		[]byte{byte(acct.Status)},
	)
}

// StakeStatement covers the NonNegativeBalance and CorrectDeltaApplication
// checks for a collateral stake.
func StakeStatement(pool *LendingPool, cpool *CollateralPool, acct *BorrowerAccount, delta commitment.Commitment, amount *big.Int) zkproof.Statement {
	return zkproof.Statement{
		PoolID:               pool.PoolID,
		Account:              acct.Address.Bytes(),
		CollateralCommitment: acct.Collateral.Bytes(),
		BorrowedCommitment:   acct.Borrowed.Bytes(),
		DeltaCommitment:      delta.Bytes(),
		ResultCommitment:     acct.Collateral.Add(delta).Bytes(),
		FlowAmount:           nonNil(amount),
		StateDigest:          snapshotDigest(pool, cpool, acct),
	}
}

// AccrualStatement covers the CorrectDeltaApplication check for an interest
// settlement: the hidden delta equals rate × hidden borrowed × Δtime.
func AccrualStatement(pool *LendingPool, cpool *CollateralPool, acct *BorrowerAccount, interestDelta commitment.Commitment, rateBps, elapsedSecs uint64) zkproof.Statement {
	return zkproof.Statement{
		PoolID:               pool.PoolID,
		Account:              acct.Address.Bytes(),
		CollateralCommitment: acct.Collateral.Bytes(),
		BorrowedCommitment:   acct.Borrowed.Bytes(),
		DeltaCommitment:      interestDelta.Bytes(),
		ResultCommitment:     acct.Borrowed.Add(interestDelta).Bytes(),
		RateBps:              rateBps,
		ElapsedSecs:          elapsedSecs,
		StateDigest:          snapshotDigest(pool, cpool, acct),
	}
}

// BorrowStatement covers the SolvencyAfterBorrow and
// CorrectDeltaApplication checks for a borrow. The account must already
// reflect any interest settlement performed in the same transaction.
func BorrowStatement(pool *LendingPool, cpool *CollateralPool, acct *BorrowerAccount, delta commitment.Commitment, amount *big.Int, params RiskParameters, rateBps uint64) zkproof.Statement {
	return zkproof.Statement{
		PoolID:               pool.PoolID,
		Account:              acct.Address.Bytes(),
		CollateralCommitment: acct.Collateral.Bytes(),
		BorrowedCommitment:   acct.Borrowed.Bytes(),
		DeltaCommitment:      delta.Bytes(),
		ResultCommitment:     acct.Borrowed.Add(delta).Bytes(),
		FlowAmount:           nonNil(amount),
		MinRatioBps:          params.MinCollateralRatioBps,
		RateBps:              rateBps,
		StateDigest:          snapshotDigest(pool, cpool, acct),
	}
}

// CreditStatement covers the CreditLimitRespected check for a delegated
// borrow: used + delta <= limit over hidden values.
func CreditStatement(pool *LendingPool, delegation *DelegatedBorrower, delta commitment.Commitment) zkproof.Statement {
	return zkproof.Statement{
		PoolID:             pool.PoolID,
		Account:            delegation.Delegate.Bytes(),
		BorrowedCommitment: delegation.Used.Bytes(),
		AuxCommitment:      delegation.CreditLimit.Bytes(),
		DeltaCommitment:    delta.Bytes(),
		ResultCommitment:   delegation.Used.Add(delta).Bytes(),
		StateDigest: zkproof.SnapshotDigest(
			[]byte(pool.PoolID),
			delegation.Delegator.Bytes(),
			delegation.Delegate.Bytes(),
			delegation.CreditLimit.Bytes(),
			delegation.Used.Bytes(),
		),
	}
}

// RepayStatement covers the CorrectDeltaApplication and NonNegativeBalance
// checks for a repayment.
func RepayStatement(pool *LendingPool, cpool *CollateralPool, acct *BorrowerAccount, delta commitment.Commitment, amount *big.Int) zkproof.Statement {
	return zkproof.Statement{
		PoolID:               pool.PoolID,
		Account:              acct.Address.Bytes(),
		CollateralCommitment: acct.Collateral.Bytes(),
		BorrowedCommitment:   acct.Borrowed.Bytes(),
		DeltaCommitment:      delta.Bytes(),
		ResultCommitment:     acct.Borrowed.Sub(delta).Bytes(),
		FlowAmount:           nonNil(amount),
		StateDigest:          snapshotDigest(pool, cpool, acct),
	}
}

// LiquidationStatement covers both the LiquidationEligible check and the
// CorrectDeltaApplication link between the seized collateral delta and the
// repaid debt delta under the liquidation discount.
func LiquidationStatement(pool *LendingPool, cpool *CollateralPool, acct *BorrowerAccount, seizeDelta, repayDelta commitment.Commitment, seizeFlow, repayFlow *big.Int, params RiskParameters) zkproof.Statement {
	return zkproof.Statement{
		PoolID:               pool.PoolID,
		Account:              acct.Address.Bytes(),
		CollateralCommitment: acct.Collateral.Bytes(),
		BorrowedCommitment:   acct.Borrowed.Bytes(),
		DeltaCommitment:      seizeDelta.Bytes(),
		AuxCommitment:        repayDelta.Bytes(),
		ResultCommitment:     acct.Collateral.Sub(seizeDelta).Bytes(),
		FlowAmount:           new(big.Int).Add(nonNil(seizeFlow), nonNil(repayFlow)),
		ThresholdBps:         params.LiquidationThresholdBps,
		DiscountBps:          params.LiquidationDiscountBps,
		StateDigest:          snapshotDigest(pool, cpool, acct),
	}
}

// RebalanceStatement covers the CorrectDeltaApplication (old + delta = new)
// and solvency checks for a collateral rebalance. Only the net effect is
// public; the magnitude of the move stays hidden.
func RebalanceStatement(pool *LendingPool, cpool *CollateralPool, acct *BorrowerAccount, newCollateral commitment.Commitment, params RiskParameters) zkproof.Statement {
	return zkproof.Statement{
		PoolID:               pool.PoolID,
		Account:              acct.Address.Bytes(),
		CollateralCommitment: acct.Collateral.Bytes(),
		BorrowedCommitment:   acct.Borrowed.Bytes(),
		DeltaCommitment:      newCollateral.Sub(acct.Collateral).Bytes(),
		ResultCommitment:     newCollateral.Bytes(),
		MinRatioBps:          params.MinCollateralRatioBps,
		StateDigest:          snapshotDigest(pool, cpool, acct),
	}
}

// CloseStatement covers the verified-zero check for one of the account's
// commitments when closing.
func CloseStatement(pool *LendingPool, cpool *CollateralPool, acct *BorrowerAccount, target commitment.Commitment) zkproof.Statement {
	return zkproof.Statement{
		PoolID:               pool.PoolID,
		Account:              acct.Address.Bytes(),
		CollateralCommitment: acct.Collateral.Bytes(),
		BorrowedCommitment:   acct.Borrowed.Bytes(),
		ResultCommitment:     target.Bytes(),
		FlowAmount:           big.NewInt(0),
		StateDigest:          snapshotDigest(pool, cpool, acct),
	}
}
