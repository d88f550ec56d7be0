package commitment

import (
	"errors"
	"sort"
	"sync"
)

// Sign selects the direction of a homomorphic update.
type Sign int

const (
	// SignAdd credits the delta onto the current commitment.
	SignAdd Sign = iota
	// SignSub debits the delta from the current commitment.
	SignSub
)

var errUnknownSign = errors.New("commitment: unknown sign")

// Apply combines a current commitment with a delta in the requested
// direction. It is purely homomorphic: associative and commutative across
// deltas targeting disjoint accounts, strictly ordered per account by the
// caller.
func Apply(current, delta Commitment, sign Sign) (Commitment, error) {
	if !current.Valid() && !current.IsIdentity() {
		return Commitment{}, ErrMalformedCommitment
	}
	switch sign {
	case SignAdd:
		return current.Add(delta), nil
	case SignSub:
		return current.Sub(delta), nil
	default:
		return Commitment{}, errUnknownSign
	}
}

// Ledger stores opaque per-key commitments and applies homomorphic updates
// against them. It backs aggregate mirrors (pool totals, treasury sums)
// where the keyed value is itself a running homomorphic sum.
type Ledger struct {
	mu      sync.RWMutex
	entries map[string]Commitment
}

// NewLedger constructs an empty commitment ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]Commitment)}
}

// Get returns the stored commitment for the key, defaulting to the identity
// commitment for unseen keys.
func (l *Ledger) Get(key string) Commitment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if c, ok := l.entries[key]; ok {
		return c.Clone()
	}
	return Zero()
}

// Set overwrites the stored commitment for the key.
func (l *Ledger) Set(key string, c Commitment) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[key] = c.Clone()
}

// Apply folds a delta into the keyed commitment and returns the new value.
func (l *Ledger) Apply(key string, delta Commitment, sign Sign) (Commitment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	current, ok := l.entries[key]
	if !ok {
		current = Zero()
	}
	updated, err := Apply(current, delta, sign)
	if err != nil {
		return Commitment{}, err
	}
	l.entries[key] = updated
	return updated.Clone(), nil
}

// Aggregate returns the homomorphic sum over the supplied keys. Missing keys
// contribute the identity commitment.
func (l *Ledger) Aggregate(keys ...string) Commitment {
	l.mu.RLock()
	defer l.mu.RUnlock()
	sum := Zero()
	for _, key := range keys {
		if c, ok := l.entries[key]; ok {
			sum = sum.Add(c)
		}
	}
	return sum
}

// Keys lists the keys with stored commitments in deterministic order.
func (l *Ledger) Keys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	keys := make([]string, 0, len(l.entries))
	for key := range l.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
