package lending

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"zklend/crypto"
	"zklend/native/commitment"
	"zklend/storage"
)

// State persists engine records in a key-value database using RLP encoding.
// Commitments travel as their canonical 64-byte encodings and are validated
// on load, so a corrupted record surfaces as ErrMalformedCommitment instead
// of an undefined point.
type State struct {
	db storage.Database
}

// NewState wraps a database as the engine's persistence backend.
func NewState(db storage.Database) *State {
	return &State{db: db}
}

func lendingPoolKey(poolID string) []byte {
	return []byte("lending/pool/" + poolID)
}

func collateralPoolKey(poolID string) []byte {
	return []byte("lending/cpool/" + poolID)
}

func accountKey(poolID string, addr crypto.Address) []byte {
	return []byte("lending/account/" + poolID + "/" + addr.String())
}

func delegationKey(poolID string, delegate crypto.Address) []byte {
	return []byte("lending/delegation/" + poolID + "/" + delegate.String())
}

func reputationKey(addr crypto.Address) []byte {
	return []byte("lending/reputation/" + addr.String())
}

var protocolStateKey = []byte("lending/protocol")

// get decodes the record at key into out, reporting found=false for missing
// keys.
func (s *State) get(key []byte, out interface{}) (bool, error) {
	raw, err := s.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

func (s *State) put(key []byte, record interface{}) error {
	raw, err := rlp.EncodeToBytes(record)
	if err != nil {
		return err
	}
	return s.db.Put(key, raw)
}

func decodeCommitment(raw []byte) (commitment.Commitment, error) {
	if len(raw) == 0 {
		return commitment.Zero(), nil
	}
	return commitment.FromBytes(raw)
}

type lendingPoolRLP struct {
	PoolID                  string
	TotalLiquidity          *big.Int
	TotalBorrowed           *big.Int
	TotalBorrowedCommitment []byte
	FixedRateBps            uint64
	LastAccrualTime         uint64
}

// GetLendingPool implements engineState.
func (s *State) GetLendingPool(poolID string) (*LendingPool, error) {
	var rec lendingPoolRLP
	found, err := s.get(lendingPoolKey(poolID), &rec)
	if err != nil || !found {
		return nil, err
	}
	borrowed, err := decodeCommitment(rec.TotalBorrowedCommitment)
	if err != nil {
		return nil, err
	}
	return &LendingPool{
		PoolID:                  rec.PoolID,
		TotalLiquidity:          nonNil(rec.TotalLiquidity),
		TotalBorrowed:           nonNil(rec.TotalBorrowed),
		TotalBorrowedCommitment: borrowed,
		FixedRateBps:            rec.FixedRateBps,
		LastAccrualTime:         rec.LastAccrualTime,
	}, nil
}

// PutLendingPool implements engineState.
func (s *State) PutLendingPool(pool *LendingPool) error {
	if pool == nil {
		return errNilPool
	}
	return s.put(lendingPoolKey(pool.PoolID), &lendingPoolRLP{
		PoolID:                  pool.PoolID,
		TotalLiquidity:          nonNil(pool.TotalLiquidity),
		TotalBorrowed:           nonNil(pool.TotalBorrowed),
		TotalBorrowedCommitment: pool.TotalBorrowedCommitment.Bytes(),
		FixedRateBps:            pool.FixedRateBps,
		LastAccrualTime:         pool.LastAccrualTime,
	})
}

type collateralPoolRLP struct {
	PoolID            string
	AcceptedAssetKind string
	TotalCollateral   []byte
}

// GetCollateralPool implements engineState.
func (s *State) GetCollateralPool(poolID string) (*CollateralPool, error) {
	var rec collateralPoolRLP
	found, err := s.get(collateralPoolKey(poolID), &rec)
	if err != nil || !found {
		return nil, err
	}
	total, err := decodeCommitment(rec.TotalCollateral)
	if err != nil {
		return nil, err
	}
	return &CollateralPool{
		PoolID:            rec.PoolID,
		AcceptedAssetKind: rec.AcceptedAssetKind,
		TotalCollateral:   total,
	}, nil
}

// PutCollateralPool implements engineState.
func (s *State) PutCollateralPool(pool *CollateralPool) error {
	if pool == nil {
		return errNilPool
	}
	return s.put(collateralPoolKey(pool.PoolID), &collateralPoolRLP{
		PoolID:            pool.PoolID,
		AcceptedAssetKind: pool.AcceptedAssetKind,
		TotalCollateral:   pool.TotalCollateral.Bytes(),
	})
}

type borrowerAccountRLP struct {
	AddressPrefix   string
	Address         []byte
	Collateral      []byte
	Borrowed        []byte
	CreditLimit     []byte
	LastAccrualTime uint64
	LastStakeTime   uint64
	Status          uint8
}

// GetBorrowerAccount implements engineState.
func (s *State) GetBorrowerAccount(poolID string, addr crypto.Address) (*BorrowerAccount, error) {
	var rec borrowerAccountRLP
	found, err := s.get(accountKey(poolID, addr), &rec)
	if err != nil || !found {
		return nil, err
	}
	collateral, err := decodeCommitment(rec.Collateral)
	if err != nil {
		return nil, err
	}
	borrowed, err := decodeCommitment(rec.Borrowed)
	if err != nil {
		return nil, err
	}
	limit, err := decodeCommitment(rec.CreditLimit)
	if err != nil {
		return nil, err
	}
	return &BorrowerAccount{
		Address:         crypto.NewAddress(crypto.AddressPrefix(rec.AddressPrefix), rec.Address),
		Collateral:      collateral,
		Borrowed:        borrowed,
		CreditLimit:     limit,
		LastAccrualTime: rec.LastAccrualTime,
		LastStakeTime:   rec.LastStakeTime,
		Status:          AccountStatus(rec.Status),
	}, nil
}

// PutBorrowerAccount implements engineState.
func (s *State) PutBorrowerAccount(poolID string, account *BorrowerAccount) error {
	if account == nil {
		return errNilAccount
	}
	return s.put(accountKey(poolID, account.Address), &borrowerAccountRLP{
		AddressPrefix:   string(account.Address.Prefix()),
		Address:         account.Address.Bytes(),
		Collateral:      account.Collateral.Bytes(),
		Borrowed:        account.Borrowed.Bytes(),
		CreditLimit:     account.CreditLimit.Bytes(),
		LastAccrualTime: account.LastAccrualTime,
		LastStakeTime:   account.LastStakeTime,
		Status:          uint8(account.Status),
	})
}

type delegationRLP struct {
	DelegatorPrefix string
	Delegator       []byte
	DelegatePrefix  string
	Delegate        []byte
	CreditLimit     []byte
	Used            []byte
}

// GetDelegation implements engineState.
func (s *State) GetDelegation(poolID string, delegate crypto.Address) (*DelegatedBorrower, error) {
	var rec delegationRLP
	found, err := s.get(delegationKey(poolID, delegate), &rec)
	if err != nil || !found {
		return nil, err
	}
	limit, err := decodeCommitment(rec.CreditLimit)
	if err != nil {
		return nil, err
	}
	used, err := decodeCommitment(rec.Used)
	if err != nil {
		return nil, err
	}
	return &DelegatedBorrower{
		Delegator:   crypto.NewAddress(crypto.AddressPrefix(rec.DelegatorPrefix), rec.Delegator),
		Delegate:    crypto.NewAddress(crypto.AddressPrefix(rec.DelegatePrefix), rec.Delegate),
		CreditLimit: limit,
		Used:        used,
	}, nil
}

// PutDelegation implements engineState.
func (s *State) PutDelegation(poolID string, delegation *DelegatedBorrower) error {
	if delegation == nil {
		return errNilDelegation
	}
	return s.put(delegationKey(poolID, delegation.Delegate), &delegationRLP{
		DelegatorPrefix: string(delegation.Delegator.Prefix()),
		Delegator:       delegation.Delegator.Bytes(),
		DelegatePrefix:  string(delegation.Delegate.Prefix()),
		Delegate:        delegation.Delegate.Bytes(),
		CreditLimit:     delegation.CreditLimit.Bytes(),
		Used:            delegation.Used.Bytes(),
	})
}

type protocolStateRLP struct {
	TotalLiquidity          *big.Int
	TotalBorrowed           *big.Int
	TotalCollateral         []byte
	TotalBorrowedCommitment []byte
}

// GetProtocolState implements engineState.
func (s *State) GetProtocolState() (*ProtocolState, error) {
	var rec protocolStateRLP
	found, err := s.get(protocolStateKey, &rec)
	if err != nil || !found {
		return nil, err
	}
	collateral, err := decodeCommitment(rec.TotalCollateral)
	if err != nil {
		return nil, err
	}
	borrowed, err := decodeCommitment(rec.TotalBorrowedCommitment)
	if err != nil {
		return nil, err
	}
	return &ProtocolState{
		TotalLiquidity:          nonNil(rec.TotalLiquidity),
		TotalBorrowed:           nonNil(rec.TotalBorrowed),
		TotalCollateral:         collateral,
		TotalBorrowedCommitment: borrowed,
	}, nil
}

// PutProtocolState implements engineState.
func (s *State) PutProtocolState(state *ProtocolState) error {
	if state == nil {
		return errNilState
	}
	return s.put(protocolStateKey, &protocolStateRLP{
		TotalLiquidity:          nonNil(state.TotalLiquidity),
		TotalBorrowed:           nonNil(state.TotalBorrowed),
		TotalCollateral:         state.TotalCollateral.Bytes(),
		TotalBorrowedCommitment: state.TotalBorrowedCommitment.Bytes(),
	})
}

type reputationRLP struct {
	AddressPrefix     string
	Address           []byte
	Score             uint64
	SuccessfulRepays  uint64
	LiquidationEvents uint64
}

// GetReputation implements engineState.
func (s *State) GetReputation(addr crypto.Address) (*BorrowerReputation, error) {
	var rec reputationRLP
	found, err := s.get(reputationKey(addr), &rec)
	if err != nil || !found {
		return nil, err
	}
	return &BorrowerReputation{
		Address:           crypto.NewAddress(crypto.AddressPrefix(rec.AddressPrefix), rec.Address),
		Score:             rec.Score,
		SuccessfulRepays:  rec.SuccessfulRepays,
		LiquidationEvents: rec.LiquidationEvents,
	}, nil
}

// PutReputation implements engineState.
func (s *State) PutReputation(rep *BorrowerReputation) error {
	if rep == nil {
		return errNilAccount
	}
	return s.put(reputationKey(rep.Address), &reputationRLP{
		AddressPrefix:     string(rep.Address.Prefix()),
		Address:           rep.Address.Bytes(),
		Score:             rep.Score,
		SuccessfulRepays:  rep.SuccessfulRepays,
		LiquidationEvents: rep.LiquidationEvents,
	})
}
