package zkproof

import (
	"encoding/binary"
	"math/big"

	"lukechampine.com/blake3"
)

// statementDomain separates statement digests from any other blake3 use on
// the ledger.
const statementDomain = "zklend/zkproof/statement/v1"

// Statement carries the public inputs a proof is verified against: the
// commitments involved in the transition, the governance parameters in force,
// and a digest of the pre-state snapshot the proof was built on. A statement
// whose StateDigest no longer matches current state verifies false, which is
// how stale-snapshot proofs are rejected as a normal outcome.
type Statement struct {
	PoolID  string
	Account []byte

	// Commitment encodings (64 bytes each, may be empty when a predicate
	// does not reference them).
	CollateralCommitment []byte
	BorrowedCommitment   []byte
	DeltaCommitment      []byte
	ResultCommitment     []byte
	// AuxCommitment carries the second commitment of paired predicates:
	// the credit limit for CreditLimitRespected, the linked debt delta for
	// LiquidationEligible seizures.
	AuxCommitment []byte

	// FlowAmount is the public token flow through the pool vault, when the
	// operation has one. Individual positions stay hidden; vault flows are
	// observable on the host ledger.
	FlowAmount *big.Int

	// Governance parameters bound into the proof.
	MinRatioBps  uint64
	ThresholdBps uint64
	DiscountBps  uint64
	RateBps      uint64
	ElapsedSecs  uint64

	// StateDigest binds the pre-state snapshot the statement was built
	// against.
	StateDigest [32]byte
}

// Digest computes the canonical blake3 digest the proof system attests to.
// The predicate and strength flag are part of the preimage so an attestation
// for one fact can never satisfy another.
func (s Statement) Digest(predicate Predicate, strong bool) [32]byte {
	h := blake3.New(32, nil)
	h.Write([]byte(statementDomain))
	h.Write([]byte{byte(predicate)})
	if strong {
		h.Write([]byte{1})
	} else {
		h.Write([]byte{0})
	}
	writeBytes(h, []byte(s.PoolID))
	writeBytes(h, s.Account)
	writeBytes(h, s.CollateralCommitment)
	writeBytes(h, s.BorrowedCommitment)
	writeBytes(h, s.DeltaCommitment)
	writeBytes(h, s.ResultCommitment)
	writeBytes(h, s.AuxCommitment)
	if s.FlowAmount != nil {
		writeBytes(h, s.FlowAmount.Bytes())
	} else {
		writeBytes(h, nil)
	}
	writeUint64(h, s.MinRatioBps)
	writeUint64(h, s.ThresholdBps)
	writeUint64(h, s.DiscountBps)
	writeUint64(h, s.RateBps)
	writeUint64(h, s.ElapsedSecs)
	h.Write(s.StateDigest[:])

	var out [32]byte
	h.Sum(out[:0])
	return out
}

func writeBytes(h *blake3.Hasher, b []byte) {
	writeUint64(h, uint64(len(b)))
	h.Write(b)
}

func writeUint64(h *blake3.Hasher, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	h.Write(buf[:])
}

// SnapshotDigest folds the byte fields of a pre-state snapshot into the
// digest bound by StateDigest. Callers pass the commitment encodings and any
// plaintext aggregates of the records the proof depends on, in a fixed order.
func SnapshotDigest(fields ...[]byte) [32]byte {
	h := blake3.New(32, nil)
	h.Write([]byte("zklend/zkproof/snapshot/v1"))
	for _, field := range fields {
		writeBytes(h, field)
	}
	var out [32]byte
	h.Sum(out[:0])
	return out
}
