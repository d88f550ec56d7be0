package governance

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"zklend/crypto"
	"zklend/storage"
)

const (
	proposalKeyPrefix = "gov/proposal/"
	voteKeyPrefix     = "gov/vote/"
	sequenceKey       = "gov/sequence"
)

var (
	// ErrProposalNotFound is returned for ballots against unknown proposals.
	ErrProposalNotFound = errors.New("governance: proposal not found")
	// ErrVotingClosed rejects ballots outside the voting window.
	ErrVotingClosed = errors.New("governance: voting period closed")
	// ErrNotExecutable rejects execution of proposals that have not passed.
	ErrNotExecutable = errors.New("governance: proposal not executable")
	// ErrNoVotingPower rejects ballots from identities with zero power.
	ErrNoVotingPower = errors.New("governance: voter has no voting power")

	errNilStore = errors.New("governance: store not configured")
	errNilPower = errors.New("governance: voting power source not configured")
)

// PowerView supplies plaintext voting power per identity. Voting weight is
// public; only lending balances are hidden.
type PowerView interface {
	VotingPower(addr crypto.Address) *big.Int
	TotalPower() *big.Int
}

// Engine runs the parameter-update proposal lifecycle: propose, vote,
// finalize against quorum and threshold, execute into the parameter store.
type Engine struct {
	store        *Store
	power        PowerView
	votingSecs   uint64
	quorumBps    uint64
	thresholdBps uint64
}

// NewEngine constructs a governance engine with the given voting window and
// acceptance rules in basis points of total power.
func NewEngine(store *Store, power PowerView, votingSecs, quorumBps, thresholdBps uint64) *Engine {
	return &Engine{
		store:        store,
		power:        power,
		votingSecs:   votingSecs,
		quorumBps:    quorumBps,
		thresholdBps: thresholdBps,
	}
}

func (e *Engine) ready() error {
	if e == nil || e.store == nil || e.store.db == nil {
		return errNilStore
	}
	if e.power == nil {
		return errNilPower
	}
	return nil
}

func proposalKey(id uint64) []byte {
	return []byte(proposalKeyPrefix + strconv.FormatUint(id, 10))
}

func voteKey(id uint64, voter crypto.Address) []byte {
	return []byte(voteKeyPrefix + strconv.FormatUint(id, 10) + "/" + voter.String())
}

func (e *Engine) nextID() (uint64, error) {
	raw, err := e.store.db.Get([]byte(sequenceKey))
	var id uint64
	switch {
	case err == nil:
		id = binary.BigEndian.Uint64(raw)
	case errors.Is(err, storage.ErrNotFound):
	default:
		return 0, err
	}
	id++
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], id)
	if err := e.store.db.Put([]byte(sequenceKey), buf[:]); err != nil {
		return 0, err
	}
	return id, nil
}

type proposalJSON struct {
	ID          uint64 `json:"id"`
	Proposer    string `json:"proposer"`
	Payload     Params `json:"payload"`
	VotingStart uint64 `json:"votingStart"`
	VotingEnd   uint64 `json:"votingEnd"`
	Status      uint8  `json:"status"`
	YesPower    string `json:"yesPower"`
	NoPower     string `json:"noPower"`
	AbstainPow  string `json:"abstainPower"`
}

func encodePower(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func decodePower(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

func (e *Engine) putProposal(p *Proposal) error {
	rec := proposalJSON{
		ID:          p.ID,
		Proposer:    p.Proposer.String(),
		Payload:     p.Payload,
		VotingStart: p.VotingStart,
		VotingEnd:   p.VotingEnd,
		Status:      uint8(p.Status),
		YesPower:    encodePower(p.YesPower),
		NoPower:     encodePower(p.NoPower),
		AbstainPow:  encodePower(p.AbstainPow),
	}
	blob, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("governance: encode proposal: %w", err)
	}
	return e.store.db.Put(proposalKey(p.ID), blob)
}

// Proposal loads a proposal by identifier.
func (e *Engine) Proposal(id uint64) (*Proposal, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	raw, err := e.store.db.Get(proposalKey(id))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProposalNotFound
	}
	if err != nil {
		return nil, err
	}
	var rec proposalJSON
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("governance: decode proposal: %w", err)
	}
	proposer, err := crypto.DecodeAddress(rec.Proposer)
	if err != nil {
		return nil, fmt.Errorf("governance: decode proposer: %w", err)
	}
	return &Proposal{
		ID:          rec.ID,
		Proposer:    proposer,
		Payload:     rec.Payload,
		VotingStart: rec.VotingStart,
		VotingEnd:   rec.VotingEnd,
		Status:      ProposalStatus(rec.Status),
		YesPower:    decodePower(rec.YesPower),
		NoPower:     decodePower(rec.NoPower),
		AbstainPow:  decodePower(rec.AbstainPow),
	}, nil
}

// Propose opens a voting window for a full parameter payload.
func (e *Engine) Propose(proposer crypto.Address, payload Params, now uint64) (*Proposal, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if proposer.IsZero() {
		return nil, fmt.Errorf("governance: proposer address required")
	}
	payload.EnsureDefaults()
	id, err := e.nextID()
	if err != nil {
		return nil, err
	}
	proposal := &Proposal{
		ID:          id,
		Proposer:    proposer,
		Payload:     payload,
		VotingStart: now,
		VotingEnd:   now + e.votingSecs,
		Status:      ProposalStatusVotingPeriod,
		YesPower:    big.NewInt(0),
		NoPower:     big.NewInt(0),
		AbstainPow:  big.NewInt(0),
	}
	if err := e.putProposal(proposal); err != nil {
		return nil, err
	}
	return proposal.Clone(), nil
}

// CastVote records a ballot, replacing any earlier ballot from the voter.
func (e *Engine) CastVote(id uint64, voter crypto.Address, choice VoteChoice, now uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	proposal, err := e.Proposal(id)
	if err != nil {
		return err
	}
	if proposal.Status != ProposalStatusVotingPeriod || now >= proposal.VotingEnd {
		return ErrVotingClosed
	}
	power := e.power.VotingPower(voter)
	if power == nil || power.Sign() <= 0 {
		return ErrNoVotingPower
	}

	// Undo a previous ballot before counting the new one.
	if raw, err := e.store.db.Get(voteKey(id, voter)); err == nil {
		var prev struct {
			Choice uint8  `json:"choice"`
			Power  string `json:"power"`
		}
		if err := json.Unmarshal(raw, &prev); err == nil {
			prevPower := decodePower(prev.Power)
			switch VoteChoice(prev.Choice) {
			case VoteChoiceYes:
				proposal.YesPower.Sub(proposal.YesPower, prevPower)
			case VoteChoiceNo:
				proposal.NoPower.Sub(proposal.NoPower, prevPower)
			case VoteChoiceAbstain:
				proposal.AbstainPow.Sub(proposal.AbstainPow, prevPower)
			}
		}
	} else if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	switch choice {
	case VoteChoiceYes:
		proposal.YesPower.Add(proposal.YesPower, power)
	case VoteChoiceNo:
		proposal.NoPower.Add(proposal.NoPower, power)
	case VoteChoiceAbstain:
		proposal.AbstainPow.Add(proposal.AbstainPow, power)
	default:
		return fmt.Errorf("governance: invalid vote choice %d", choice)
	}

	ballot, err := json.Marshal(struct {
		Choice uint8  `json:"choice"`
		Power  string `json:"power"`
	}{uint8(choice), power.String()})
	if err != nil {
		return err
	}
	if err := e.store.db.Put(voteKey(id, voter), ballot); err != nil {
		return err
	}
	return e.putProposal(proposal)
}

// Finalize decides a proposal whose voting window has ended: quorum over
// total power, then yes-threshold over cast power.
func (e *Engine) Finalize(id uint64, now uint64) (*Proposal, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	proposal, err := e.Proposal(id)
	if err != nil {
		return nil, err
	}
	if proposal.Status != ProposalStatusVotingPeriod {
		return proposal, nil
	}
	if now < proposal.VotingEnd {
		return nil, ErrVotingClosed
	}

	cast := new(big.Int).Add(proposal.YesPower, proposal.NoPower)
	cast.Add(cast, proposal.AbstainPow)
	total := e.power.TotalPower()
	bps := big.NewInt(10_000)

	// cast / total >= quorum
	quorumOK := total != nil && total.Sign() > 0 &&
		new(big.Int).Mul(cast, bps).Cmp(new(big.Int).Mul(total, new(big.Int).SetUint64(e.quorumBps))) >= 0
	// yes / (yes + no) >= threshold
	decisive := new(big.Int).Add(proposal.YesPower, proposal.NoPower)
	thresholdOK := decisive.Sign() > 0 &&
		new(big.Int).Mul(proposal.YesPower, bps).Cmp(new(big.Int).Mul(decisive, new(big.Int).SetUint64(e.thresholdBps))) >= 0

	if quorumOK && thresholdOK {
		proposal.Status = ProposalStatusPassed
	} else {
		proposal.Status = ProposalStatusRejected
	}
	if err := e.putProposal(proposal); err != nil {
		return nil, err
	}
	return proposal.Clone(), nil
}

// Execute applies a passed proposal's payload to the parameter store.
// Changes take effect for operations at the next transaction boundary.
func (e *Engine) Execute(id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	proposal, err := e.Proposal(id)
	if err != nil {
		return err
	}
	if proposal.Status != ProposalStatusPassed {
		return ErrNotExecutable
	}
	if err := e.store.SetParams(proposal.Payload); err != nil {
		return err
	}
	proposal.Status = ProposalStatusExecuted
	return e.putProposal(proposal)
}
