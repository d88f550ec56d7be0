package governance

import (
	"math/big"
)

// Params groups the governance-controlled protocol parameters the lending
// core consults. The core never mutates them; changes arrive through the
// governance process and are persisted by the Store.
type Params struct {
	// MinCollateralRatioBps is the minimum collateral ratio a position must
	// satisfy after any borrow or rebalance, in basis points.
	MinCollateralRatioBps uint64 `json:"minCollateralRatioBps"`
	// LiquidationThresholdBps is the collateral ratio below which a position
	// becomes eligible for liquidation, in basis points.
	LiquidationThresholdBps uint64 `json:"liquidationThresholdBps"`
	// LiquidationDiscountBps is the bonus applied to seized collateral
	// relative to repaid debt, in basis points.
	LiquidationDiscountBps uint64 `json:"liquidationDiscountBps"`
	// MaxSeizeWei bounds the public collateral flow a single liquidation
	// call may seize.
	MaxSeizeWei *big.Int `json:"maxSeizeWei"`
	// FlashLoanGuardWindowSecs is the window after a stake during which
	// large borrows require a strong solvency proof.
	FlashLoanGuardWindowSecs uint64 `json:"flashLoanGuardWindowSecs"`
	// FlashLoanGuardThresholdWei is the public borrow flow above which the
	// guard applies inside the window.
	FlashLoanGuardThresholdWei *big.Int `json:"flashLoanGuardThresholdWei"`
	// ProtocolFeeBps is charged on every borrow flow and routed to the
	// treasury.
	ProtocolFeeBps uint64 `json:"protocolFeeBps"`
	// Interest model parameters for utilization-driven pools, as annual
	// rates in basis points.
	BaseRateBps uint64 `json:"baseRateBps"`
	Slope1Bps   uint64 `json:"slope1Bps"`
	Slope2Bps   uint64 `json:"slope2Bps"`
	KinkBps     uint64 `json:"kinkBps"`
	// Pauses lists modules whose flows governance has halted.
	Pauses map[string]bool `json:"pauses,omitempty"`
}

// EnsureDefaults populates nil big.Int fields so JSON round-trips stay safe.
func (p *Params) EnsureDefaults() {
	if p.MaxSeizeWei == nil {
		p.MaxSeizeWei = big.NewInt(0)
	}
	if p.FlashLoanGuardThresholdWei == nil {
		p.FlashLoanGuardThresholdWei = big.NewInt(0)
	}
}

// Clone returns a deep copy so callers cannot alias stored parameters.
func (p Params) Clone() Params {
	clone := p
	if p.MaxSeizeWei != nil {
		clone.MaxSeizeWei = new(big.Int).Set(p.MaxSeizeWei)
	}
	if p.FlashLoanGuardThresholdWei != nil {
		clone.FlashLoanGuardThresholdWei = new(big.Int).Set(p.FlashLoanGuardThresholdWei)
	}
	if p.Pauses != nil {
		clone.Pauses = make(map[string]bool, len(p.Pauses))
		for k, v := range p.Pauses {
			clone.Pauses[k] = v
		}
	}
	return clone
}
