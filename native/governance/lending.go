package governance

import (
	"math/big"

	"zklend/native/lending"
)

// RiskParameters adapts the stored governance parameters to the lending
// core's parameter view, so the engine sees changes at the next transaction
// boundary without rewiring.
func (s *Store) RiskParameters() (lending.RiskParameters, error) {
	params, err := s.Params()
	if err != nil {
		return lending.RiskParameters{}, err
	}
	return lending.RiskParameters{
		MinCollateralRatioBps:      params.MinCollateralRatioBps,
		LiquidationThresholdBps:    params.LiquidationThresholdBps,
		LiquidationDiscountBps:     params.LiquidationDiscountBps,
		MaxSeizeWei:                new(big.Int).Set(params.MaxSeizeWei),
		FlashLoanGuardWindowSecs:   params.FlashLoanGuardWindowSecs,
		FlashLoanGuardThresholdWei: new(big.Int).Set(params.FlashLoanGuardThresholdWei),
		ProtocolFeeBps:             params.ProtocolFeeBps,
		InterestModel: lending.NewInterestModel(
			params.BaseRateBps, params.Slope1Bps, params.Slope2Bps, params.KinkBps,
		),
	}, nil
}
