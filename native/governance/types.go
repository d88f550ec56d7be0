package governance

import (
	"math/big"

	"zklend/crypto"
)

// ProposalStatus enumerates the lifecycle phases of a parameter proposal.
type ProposalStatus uint8

const (
	// ProposalStatusUnspecified marks an uninitialised proposal record.
	ProposalStatusUnspecified ProposalStatus = iota
	// ProposalStatusVotingPeriod identifies proposals accepting ballots.
	ProposalStatusVotingPeriod
	// ProposalStatusPassed marks proposals that met quorum and threshold.
	ProposalStatusPassed
	// ProposalStatusRejected marks proposals that failed either check.
	ProposalStatusRejected
	// ProposalStatusExecuted marks passed proposals whose parameter payload
	// has been applied to the store.
	ProposalStatusExecuted
)

// String implements fmt.Stringer.
func (s ProposalStatus) String() string {
	switch s {
	case ProposalStatusVotingPeriod:
		return "voting_period"
	case ProposalStatusPassed:
		return "passed"
	case ProposalStatusRejected:
		return "rejected"
	case ProposalStatusExecuted:
		return "executed"
	default:
		return "unspecified"
	}
}

// VoteChoice is a ballot option.
type VoteChoice uint8

const (
	VoteChoiceUnspecified VoteChoice = iota
	VoteChoiceYes
	VoteChoiceNo
	VoteChoiceAbstain
)

// Proposal is a pending or decided parameter update. The payload replaces the
// full parameter set on execution; partial updates are expressed by copying
// the current parameters and changing the targeted fields.
type Proposal struct {
	ID          uint64
	Proposer    crypto.Address
	Payload     Params
	VotingStart uint64
	VotingEnd   uint64
	Status      ProposalStatus
	YesPower    *big.Int
	NoPower     *big.Int
	AbstainPow  *big.Int
}

// Clone returns a deep copy of the proposal record.
func (p *Proposal) Clone() *Proposal {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Payload = p.Payload.Clone()
	if p.YesPower != nil {
		clone.YesPower = new(big.Int).Set(p.YesPower)
	}
	if p.NoPower != nil {
		clone.NoPower = new(big.Int).Set(p.NoPower)
	}
	if p.AbstainPow != nil {
		clone.AbstainPow = new(big.Int).Set(p.AbstainPow)
	}
	return &clone
}

// Vote records one ballot. A voter may revote; the last ballot counts.
type Vote struct {
	ProposalID uint64
	Voter      crypto.Address
	Choice     VoteChoice
	Power      *big.Int
}
