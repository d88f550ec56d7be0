package lending

import "math/big"

var (
	basisPoints    = big.NewInt(10_000)
	secondsPerYear = big.NewInt(31_536_000)
)

// bpsShare computes amount × bps / 10_000, flooring towards zero. Negative
// inputs yield zero.
func bpsShare(amount *big.Int, bps uint64) *big.Int {
	if amount == nil || amount.Sign() <= 0 || bps == 0 {
		return big.NewInt(0)
	}
	share := new(big.Int).Mul(amount, new(big.Int).SetUint64(bps))
	share.Quo(share, basisPoints)
	if share.Sign() < 0 {
		return big.NewInt(0)
	}
	return share
}

// seizeForRepay computes the collateral flow a liquidator receives for a
// repaid debt flow under the liquidation discount: repay × (10_000 +
// discountBps) / 10_000.
func seizeForRepay(repay *big.Int, discountBps uint64) *big.Int {
	if repay == nil || repay.Sign() <= 0 {
		return big.NewInt(0)
	}
	factor := new(big.Int).Add(basisPoints, new(big.Int).SetUint64(discountBps))
	seize := new(big.Int).Mul(repay, factor)
	seize.Quo(seize, basisPoints)
	return seize
}

// subFloorZero subtracts b from a, flooring the public mirror at zero so
// rounding drift between hidden and public accounting never underflows it.
func subFloorZero(a, b *big.Int) *big.Int {
	out := new(big.Int).Sub(nonNil(a), nonNil(b))
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out
}

// nonNil normalises possibly nil big.Int fields loaded from storage.
func nonNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}
