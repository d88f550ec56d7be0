package lending

import (
	"math/big"

	"zklend/crypto"
	"zklend/native/commitment"
)

// RiskParameters groups the governance-controlled limits the engine
// consults on every operation. The engine never mutates them; they are
// sourced from the governance parameter store per call so parameter changes
// take effect at the next transaction boundary.
type RiskParameters struct {
	// MinCollateralRatioBps is the minimum post-operation collateral ratio.
	MinCollateralRatioBps uint64
	// LiquidationThresholdBps is the ratio below which positions become
	// liquidatable.
	LiquidationThresholdBps uint64
	// LiquidationDiscountBps is the collateral bonus granted to
	// liquidators.
	LiquidationDiscountBps uint64
	// MaxSeizeWei bounds the public collateral flow per liquidation call.
	MaxSeizeWei *big.Int
	// FlashLoanGuardWindowSecs and FlashLoanGuardThresholdWei parameterise
	// the same-window stake-then-borrow guard.
	FlashLoanGuardWindowSecs   uint64
	FlashLoanGuardThresholdWei *big.Int
	// ProtocolFeeBps is charged on borrow flows and routed to the treasury.
	ProtocolFeeBps uint64
	// InterestModel drives variable-rate pools.
	InterestModel *InterestModel
}

// Clone returns a deep copy of the risk parameters.
func (p RiskParameters) Clone() RiskParameters {
	clone := p
	if p.MaxSeizeWei != nil {
		clone.MaxSeizeWei = new(big.Int).Set(p.MaxSeizeWei)
	}
	if p.FlashLoanGuardThresholdWei != nil {
		clone.FlashLoanGuardThresholdWei = new(big.Int).Set(p.FlashLoanGuardThresholdWei)
	}
	clone.InterestModel = p.InterestModel.Clone()
	return clone
}

// ParamView supplies the current governance parameters. Implementations are
// read-only from the engine's perspective.
type ParamView interface {
	RiskParameters() (RiskParameters, error)
}

// WhitelistView answers institutional pool membership checks. Identity is a
// plaintext check, not a hidden value.
type WhitelistView interface {
	IsWhitelisted(identity crypto.Address, poolID string) bool
}

// FeeCollector receives protocol fee deltas. The treasury owns fee
// accounting; the engine only needs acknowledgement.
type FeeCollector interface {
	CollectFee(poolID string, feeCommitment commitment.Commitment, amount *big.Int) error
}

// StaticParams adapts a fixed RiskParameters value to the ParamView
// interface for wiring and tests.
type StaticParams struct {
	Params RiskParameters
}

// RiskParameters implements ParamView.
func (s StaticParams) RiskParameters() (RiskParameters, error) {
	return s.Params.Clone(), nil
}
