package governance

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"zklend/crypto"
	"zklend/storage"
)

type stubPower struct {
	powers map[string]int64
	total  int64
}

func (s stubPower) VotingPower(addr crypto.Address) *big.Int {
	return big.NewInt(s.powers[addr.String()])
}

func (s stubPower) TotalPower() *big.Int {
	return big.NewInt(s.total)
}

func newGovEnv(t *testing.T) (*Engine, *Store, crypto.Address, crypto.Address) {
	t.Helper()
	store := NewStore(storage.NewMemDB())
	alice := memberAddress(0x0a)
	bob := memberAddress(0x0b)
	power := stubPower{
		powers: map[string]int64{alice.String(): 60, bob.String(): 40},
		total:  100,
	}
	// One hour voting, 30% quorum, 50% threshold.
	return NewEngine(store, power, 3_600, 3_000, 5_000), store, alice, bob
}

func proposalPayload() Params {
	return Params{
		MinCollateralRatioBps:   16_000,
		LiquidationThresholdBps: 13_000,
		ProtocolFeeBps:          150,
	}
}

func TestProposalLifecycle(t *testing.T) {
	engine, store, alice, bob := newGovEnv(t)

	proposal, err := engine.Propose(alice, proposalPayload(), 1_000)
	require.NoError(t, err)
	require.Equal(t, ProposalStatusVotingPeriod, proposal.Status)
	require.Equal(t, uint64(4_600), proposal.VotingEnd)

	require.NoError(t, engine.CastVote(proposal.ID, alice, VoteChoiceYes, 2_000))
	require.NoError(t, engine.CastVote(proposal.ID, bob, VoteChoiceNo, 2_000))

	decided, err := engine.Finalize(proposal.ID, 5_000)
	require.NoError(t, err)
	require.Equal(t, ProposalStatusPassed, decided.Status)

	require.NoError(t, engine.Execute(proposal.ID))
	params, err := store.Params()
	require.NoError(t, err)
	require.Equal(t, uint64(16_000), params.MinCollateralRatioBps)
	require.Equal(t, uint64(150), params.ProtocolFeeBps)

	executed, err := engine.Proposal(proposal.ID)
	require.NoError(t, err)
	require.Equal(t, ProposalStatusExecuted, executed.Status)
}

func TestProposalRejectedBelowThreshold(t *testing.T) {
	engine, store, alice, bob := newGovEnv(t)
	proposal, err := engine.Propose(alice, proposalPayload(), 1_000)
	require.NoError(t, err)

	require.NoError(t, engine.CastVote(proposal.ID, alice, VoteChoiceNo, 2_000))
	require.NoError(t, engine.CastVote(proposal.ID, bob, VoteChoiceYes, 2_000))

	decided, err := engine.Finalize(proposal.ID, 5_000)
	require.NoError(t, err)
	require.Equal(t, ProposalStatusRejected, decided.Status)

	require.ErrorIs(t, engine.Execute(proposal.ID), ErrNotExecutable)
	params, err := store.Params()
	require.NoError(t, err)
	require.Zero(t, params.MinCollateralRatioBps)
}

func TestProposalRejectedBelowQuorum(t *testing.T) {
	store := NewStore(storage.NewMemDB())
	alice := memberAddress(0x0a)
	bob := memberAddress(0x0b)
	power := stubPower{
		powers: map[string]int64{alice.String(): 60, bob.String(): 40},
		total:  100,
	}
	// Majority quorum: bob's 40 of 100 alone cannot reach it.
	engine := NewEngine(store, power, 3_600, 5_001, 5_000)

	proposal, err := engine.Propose(alice, proposalPayload(), 1_000)
	require.NoError(t, err)
	require.NoError(t, engine.CastVote(proposal.ID, bob, VoteChoiceYes, 2_000))

	decided, err := engine.Finalize(proposal.ID, 5_000)
	require.NoError(t, err)
	require.Equal(t, ProposalStatusRejected, decided.Status)
}

func TestVotingWindowEnforced(t *testing.T) {
	engine, _, alice, bob := newGovEnv(t)
	proposal, err := engine.Propose(alice, proposalPayload(), 1_000)
	require.NoError(t, err)

	require.ErrorIs(t, engine.CastVote(proposal.ID, bob, VoteChoiceYes, 5_000), ErrVotingClosed)
	_, err = engine.Finalize(proposal.ID, 2_000)
	require.ErrorIs(t, err, ErrVotingClosed)
}

func TestRevoteReplacesBallot(t *testing.T) {
	engine, _, alice, _ := newGovEnv(t)
	proposal, err := engine.Propose(alice, proposalPayload(), 1_000)
	require.NoError(t, err)

	require.NoError(t, engine.CastVote(proposal.ID, alice, VoteChoiceYes, 2_000))
	require.NoError(t, engine.CastVote(proposal.ID, alice, VoteChoiceNo, 2_100))

	loaded, err := engine.Proposal(proposal.ID)
	require.NoError(t, err)
	require.Zero(t, loaded.YesPower.Sign())
	require.Equal(t, 0, loaded.NoPower.Cmp(big.NewInt(60)))
}

func TestVoteWithoutPowerRejected(t *testing.T) {
	engine, _, alice, _ := newGovEnv(t)
	proposal, err := engine.Propose(alice, proposalPayload(), 1_000)
	require.NoError(t, err)

	nobody := memberAddress(0x0c)
	require.ErrorIs(t, engine.CastVote(proposal.ID, nobody, VoteChoiceYes, 2_000), ErrNoVotingPower)
}

func TestUnknownProposal(t *testing.T) {
	engine, _, _, bob := newGovEnv(t)
	require.ErrorIs(t, engine.CastVote(42, bob, VoteChoiceYes, 2_000), ErrProposalNotFound)
}
