package lending

import "math/big"

// InterestModel shapes how the borrow rate reacts to pool utilization: a
// piecewise-linear curve with a kink above the target utilization. All pools
// of a kind share one model; institutional pools bypass it with a fixed
// rate.
type InterestModel struct {
	// BaseRate is the minimum annual borrow rate applied at zero
	// utilization.
	BaseRate *big.Rat
	// Slope1 is the rate increase per unit of utilization up to the kink.
	Slope1 *big.Rat
	// Slope2 governs the steeper increase beyond the kink.
	Slope2 *big.Rat
	// Kink is the utilization ratio where the slope changes.
	Kink *big.Rat
}

// NewInterestModel constructs a model from annual rates expressed in basis
// points, matching how governance publishes them.
func NewInterestModel(baseRateBps, slope1Bps, slope2Bps, kinkBps uint64) *InterestModel {
	bps := big.NewInt(10_000)
	return &InterestModel{
		BaseRate: new(big.Rat).SetFrac(new(big.Int).SetUint64(baseRateBps), bps),
		Slope1:   new(big.Rat).SetFrac(new(big.Int).SetUint64(slope1Bps), bps),
		Slope2:   new(big.Rat).SetFrac(new(big.Int).SetUint64(slope2Bps), bps),
		Kink:     new(big.Rat).SetFrac(new(big.Int).SetUint64(kinkBps), bps),
	}
}

// Clone returns a deep copy of the interest model.
func (m *InterestModel) Clone() *InterestModel {
	if m == nil {
		return nil
	}
	return &InterestModel{
		BaseRate: cloneRat(m.BaseRate),
		Slope1:   cloneRat(m.Slope1),
		Slope2:   cloneRat(m.Slope2),
		Kink:     cloneRat(m.Kink),
	}
}

// Utilization computes U = totalBorrowed / totalLiquidity. When the pool
// holds no liquidity the utilization is defined as zero.
func Utilization(totalBorrowed, totalLiquidity *big.Int) *big.Rat {
	if totalBorrowed == nil || totalBorrowed.Sign() <= 0 {
		return new(big.Rat)
	}
	if totalLiquidity == nil || totalLiquidity.Sign() <= 0 {
		return new(big.Rat)
	}
	return new(big.Rat).SetFrac(totalBorrowed, totalLiquidity)
}

// BorrowRate derives the annual borrow rate for the given utilization. The
// curve is monotonically non-decreasing over [0, 1].
func (m *InterestModel) BorrowRate(utilization *big.Rat) *big.Rat {
	if m == nil {
		return new(big.Rat)
	}
	rate := cloneRat(m.BaseRate)
	if utilization == nil || utilization.Sign() <= 0 {
		return rate
	}
	kink := cloneRat(m.Kink)
	slope1 := cloneRat(m.Slope1)
	slope2 := cloneRat(m.Slope2)
	if kink.Sign() == 0 || utilization.Cmp(kink) <= 0 {
		// Linear region before the kink.
		return rate.Add(rate, new(big.Rat).Mul(slope1, utilization))
	}

	// Rate at the kink using slope1, then the excess using slope2.
	rate.Add(rate, new(big.Rat).Mul(slope1, kink))
	excess := new(big.Rat).Sub(utilization, kink)
	if excess.Sign() < 0 {
		excess.SetInt64(0)
	}
	return rate.Add(rate, new(big.Rat).Mul(slope2, excess))
}

// RateBps reduces the borrow rate for the pool's current public totals to
// basis points, the representation bound into proof statements.
func (m *InterestModel) RateBps(totalBorrowed, totalLiquidity *big.Int) uint64 {
	rate := m.BorrowRate(Utilization(totalBorrowed, totalLiquidity))
	scaled := new(big.Rat).Mul(rate, new(big.Rat).SetInt64(10_000))
	out := new(big.Int).Quo(scaled.Num(), scaled.Denom())
	if out.Sign() < 0 {
		return 0
	}
	if !out.IsUint64() {
		return ^uint64(0)
	}
	return out.Uint64()
}

// PublicInterest computes rate × principal × Δt over public values, used for
// the pool-level plaintext mirror. Per-account hidden interest settles via
// proof-gated delta commitments instead.
func PublicInterest(principal *big.Int, rateBps uint64, elapsedSecs uint64) *big.Int {
	if principal == nil || principal.Sign() <= 0 || rateBps == 0 || elapsedSecs == 0 {
		return big.NewInt(0)
	}
	interest := new(big.Int).Mul(principal, new(big.Int).SetUint64(rateBps))
	interest.Mul(interest, new(big.Int).SetUint64(elapsedSecs))
	interest.Quo(interest, new(big.Int).Mul(basisPoints, secondsPerYear))
	return interest
}

func cloneRat(r *big.Rat) *big.Rat {
	if r == nil {
		return new(big.Rat)
	}
	return new(big.Rat).Set(r)
}
