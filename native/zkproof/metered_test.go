package zkproof

import (
	"testing"
)

type recordingSink struct {
	verified map[string]int
	rejected map[string]int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{verified: make(map[string]int), rejected: make(map[string]int)}
}

func (s *recordingSink) RecordVerification(predicate string, ok bool) {
	if ok {
		s.verified[predicate]++
	} else {
		s.rejected[predicate]++
	}
}

func TestMeteredVerifierRecordsOutcomes(t *testing.T) {
	prover := newProver(t)
	inner := NewAttestedVerifier()
	inner.RegisterKey(PredicateSolvencyAfterBorrow, prover.VerifyingKey())

	sink := newRecordingSink()
	verifier := NewMeteredVerifier(inner, sink)

	stmt := sampleStatement()
	proof, err := prover.Attest(stmt, PredicateSolvencyAfterBorrow, false)
	if err != nil {
		t.Fatalf("attest: %v", err)
	}

	if !verifier.Verify(stmt, proof, PredicateSolvencyAfterBorrow) {
		t.Fatalf("valid proof rejected")
	}
	// An unregistered predicate fails and is recorded as rejected.
	if verifier.Verify(stmt, proof, PredicateNonNegativeBalance) {
		t.Fatalf("proof accepted for unregistered predicate")
	}

	if got := sink.verified[PredicateSolvencyAfterBorrow.String()]; got != 1 {
		t.Fatalf("verified count = %d, want 1", got)
	}
	if got := sink.rejected[PredicateNonNegativeBalance.String()]; got != 1 {
		t.Fatalf("rejected count = %d, want 1", got)
	}
}

func TestMeteredVerifierNilSink(t *testing.T) {
	prover := newProver(t)
	inner := NewAttestedVerifier()
	inner.RegisterKey(PredicateSolvencyAfterBorrow, prover.VerifyingKey())

	verifier := NewMeteredVerifier(inner, nil)
	stmt := sampleStatement()
	proof, err := prover.Attest(stmt, PredicateSolvencyAfterBorrow, false)
	if err != nil {
		t.Fatalf("attest: %v", err)
	}
	if !verifier.Verify(stmt, proof, PredicateSolvencyAfterBorrow) {
		t.Fatalf("nil sink must not affect verification")
	}
}
