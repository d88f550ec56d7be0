package zkproof

import (
	"zklend/crypto"
)

// Prover signs statement digests with an attester key. It stands in for the
// proving side of the pluggable proof system and is used by tooling and
// tests; the ledger core itself only ever verifies.
type Prover struct {
	key *crypto.PrivateKey
}

// NewProver wraps an attester private key.
func NewProver(key *crypto.PrivateKey) *Prover {
	return &Prover{key: key}
}

// VerifyingKey returns the compressed public key to register with an
// AttestedVerifier.
func (p *Prover) VerifyingKey() []byte {
	if p == nil || p.key == nil {
		return nil
	}
	return p.key.PubKey().CompressedBytes()
}

// Attest produces a proof for the statement under the given predicate.
func (p *Prover) Attest(stmt Statement, predicate Predicate, strong bool) (Proof, error) {
	digest := stmt.Digest(predicate, strong)
	sig, err := p.key.Sign(digest[:])
	if err != nil {
		return Proof{}, err
	}
	return Proof{Scheme: SchemeAttested, Payload: sig, Strong: strong}, nil
}
