package zkproof

import (
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
)

// SchemeAttested identifies the attestation-backed verification scheme: an
// off-ledger proof system produces the zero-knowledge proof and a registered
// attester signs the statement digest once the proof checks out. Swapping in
// a different proof system only requires another Verifier implementation.
const SchemeAttested = "attested/v1"

// attestationSize is the length of a recoverable secp256k1 signature.
const attestationSize = 65

// Proof is the opaque proof material accompanying a state transition
// request. Strong marks the stronger solvency attestation demanded by
// flash-loan protection.
type Proof struct {
	Scheme  string
	Payload []byte
	Strong  bool
}

// Verifier validates a proof against a public statement and a claimed
// predicate. Implementations must be deterministic, stateless and
// side-channel free; verification failure is reported as false, never as an
// error or panic.
type Verifier interface {
	Verify(stmt Statement, proof Proof, predicate Predicate) bool
}

// AttestedVerifier verifies SchemeAttested proofs against per-predicate
// registered verifying keys.
type AttestedVerifier struct {
	mu   sync.RWMutex
	keys map[Predicate]map[string]struct{}
}

// NewAttestedVerifier constructs a verifier with no registered keys; it
// rejects everything until keys are registered.
func NewAttestedVerifier() *AttestedVerifier {
	return &AttestedVerifier{keys: make(map[Predicate]map[string]struct{})}
}

// RegisterKey authorises a compressed secp256k1 verifying key for the given
// predicate.
func (v *AttestedVerifier) RegisterKey(predicate Predicate, compressed []byte) {
	if v == nil || !predicate.Valid() || len(compressed) == 0 {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	set, ok := v.keys[predicate]
	if !ok {
		set = make(map[string]struct{})
		v.keys[predicate] = set
	}
	set[string(compressed)] = struct{}{}
}

// Verify implements Verifier. Malformed or non-matching proofs return false.
func (v *AttestedVerifier) Verify(stmt Statement, proof Proof, predicate Predicate) bool {
	if v == nil || !predicate.Valid() {
		return false
	}
	if proof.Scheme != SchemeAttested || len(proof.Payload) != attestationSize {
		return false
	}
	digest := stmt.Digest(predicate, proof.Strong)
	pub, err := crypto.SigToPub(digest[:], proof.Payload)
	if err != nil {
		return false
	}
	compressed := crypto.CompressPubkey(pub)

	v.mu.RLock()
	defer v.mu.RUnlock()
	set, ok := v.keys[predicate]
	if !ok {
		return false
	}
	_, ok = set[string(compressed)]
	return ok
}
