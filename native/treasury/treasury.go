package treasury

import (
	"errors"
	"math/big"
	"strings"
	"sync"

	"zklend/native/commitment"
)

var (
	errPoolID    = errors.New("treasury: pool identifier required")
	errNilAmount = errors.New("treasury: fee amount must be non-negative")
)

// Collector is the interface the lending core calls after computing a fee
// delta. The treasury owns the accounting of collected fees; the core only
// needs acknowledgement.
type Collector interface {
	CollectFee(poolID string, feeCommitment commitment.Commitment, amount *big.Int) error
}

// Vault accumulates protocol fees per pool: the public flow totals plus a
// homomorphic commitment mirror, so downstream distribution can be audited
// without revealing which accounts paid what.
type Vault struct {
	mu          sync.Mutex
	commitments *commitment.Ledger
	totals      map[string]*big.Int
}

// NewVault constructs an empty treasury vault.
func NewVault() *Vault {
	return &Vault{
		commitments: commitment.NewLedger(),
		totals:      make(map[string]*big.Int),
	}
}

// CollectFee implements Collector.
func (v *Vault) CollectFee(poolID string, feeCommitment commitment.Commitment, amount *big.Int) error {
	poolID = strings.TrimSpace(poolID)
	if poolID == "" {
		return errPoolID
	}
	if amount == nil || amount.Sign() < 0 {
		return errNilAmount
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, err := v.commitments.Apply(poolID, feeCommitment, commitment.SignAdd); err != nil {
		return err
	}
	total, ok := v.totals[poolID]
	if !ok {
		total = big.NewInt(0)
	}
	v.totals[poolID] = new(big.Int).Add(total, amount)
	return nil
}

// CollectedTotal returns the public fee flow collected for a pool.
func (v *Vault) CollectedTotal(poolID string) *big.Int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if total, ok := v.totals[strings.TrimSpace(poolID)]; ok {
		return new(big.Int).Set(total)
	}
	return big.NewInt(0)
}

// CollectedCommitment returns the homomorphic sum of fee commitments for a
// pool.
func (v *Vault) CollectedCommitment(poolID string) commitment.Commitment {
	return v.commitments.Get(strings.TrimSpace(poolID))
}
