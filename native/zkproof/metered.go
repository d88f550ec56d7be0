package zkproof

// VerificationSink receives the result of each proof verification. The
// observability layer implements it with prometheus counters.
type VerificationSink interface {
	RecordVerification(predicate string, ok bool)
}

// MeteredVerifier decorates a Verifier and reports every verification to the
// sink. A nil sink degrades to the plain inner verifier.
type MeteredVerifier struct {
	inner Verifier
	sink  VerificationSink
}

// NewMeteredVerifier wraps the inner verifier with result recording.
func NewMeteredVerifier(inner Verifier, sink VerificationSink) *MeteredVerifier {
	return &MeteredVerifier{inner: inner, sink: sink}
}

// Verify delegates to the inner verifier and records the outcome.
func (m *MeteredVerifier) Verify(stmt Statement, proof Proof, predicate Predicate) bool {
	ok := m.inner.Verify(stmt, proof, predicate)
	if m.sink != nil {
		m.sink.RecordVerification(predicate.String(), ok)
	}
	return ok
}
