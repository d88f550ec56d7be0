package lending

import (
	"math/big"

	"github.com/google/uuid"

	"zklend/crypto"
	"zklend/native/commitment"
)

// Event type identifiers emitted on successful operations. Payloads carry
// public flows and commitment encodings only; hidden values never appear in
// events.
const (
	EventTypeStake       = "lending.stake"
	EventTypeBorrow      = "lending.borrow"
	EventTypeRepay       = "lending.repay"
	EventTypeLiquidation = "lending.liquidation"
	EventTypeRebalance   = "lending.rebalance"
	EventTypeClose       = "lending.close"
)

// Event is the generic payload handed to the host's event pipeline.
type Event struct {
	Type       string
	Attributes map[string]string
}

// Emitter receives events for successful operations. Emission happens after
// persistence; a nil emitter drops events.
type Emitter interface {
	Emit(evt Event)
}

func baseAttributes(poolID string, account crypto.Address) map[string]string {
	return map[string]string{
		"operationId": uuid.NewString(),
		"poolId":      poolID,
		"account":     account.String(),
	}
}

// NewStakeEvent reports a collateral stake.
func NewStakeEvent(poolID string, account crypto.Address, amount *big.Int, delta commitment.Commitment, status AccountStatus) Event {
	attrs := baseAttributes(poolID, account)
	attrs["amount"] = amount.String()
	attrs["delta"] = delta.Hex()
	attrs["status"] = status.String()
	return Event{Type: EventTypeStake, Attributes: attrs}
}

// NewBorrowEvent reports a borrow together with the protocol fee taken and
// the rate bound into its proofs.
func NewBorrowEvent(poolID string, account crypto.Address, amount, fee *big.Int, rateBps uint64, delta commitment.Commitment) Event {
	attrs := baseAttributes(poolID, account)
	attrs["amount"] = amount.String()
	attrs["fee"] = fee.String()
	attrs["rateBps"] = new(big.Int).SetUint64(rateBps).String()
	attrs["delta"] = delta.Hex()
	return Event{Type: EventTypeBorrow, Attributes: attrs}
}

// NewRepayEvent reports a repayment.
func NewRepayEvent(poolID string, account crypto.Address, amount *big.Int, delta commitment.Commitment, status AccountStatus) Event {
	attrs := baseAttributes(poolID, account)
	attrs["amount"] = amount.String()
	attrs["delta"] = delta.Hex()
	attrs["status"] = status.String()
	return Event{Type: EventTypeRepay, Attributes: attrs}
}

// NewLiquidationEvent reports one partial liquidation call.
func NewLiquidationEvent(poolID string, liquidator, account crypto.Address, seized, repaid *big.Int) Event {
	attrs := baseAttributes(poolID, account)
	attrs["liquidator"] = liquidator.String()
	attrs["seized"] = seized.String()
	attrs["repaid"] = repaid.String()
	return Event{Type: EventTypeLiquidation, Attributes: attrs}
}

// NewRebalanceEvent reports a collateral composition change.
func NewRebalanceEvent(poolID string, account crypto.Address, newCollateral commitment.Commitment, status AccountStatus) Event {
	attrs := baseAttributes(poolID, account)
	attrs["collateral"] = newCollateral.Hex()
	attrs["status"] = status.String()
	return Event{Type: EventTypeRebalance, Attributes: attrs}
}

// NewCloseEvent reports an account retirement.
func NewCloseEvent(poolID string, account crypto.Address) Event {
	attrs := baseAttributes(poolID, account)
	return Event{Type: EventTypeClose, Attributes: attrs}
}
