package lending

import (
	"math/big"

	"zklend/crypto"
	"zklend/native/commitment"
	"zklend/native/common"
	"zklend/native/zkproof"
)

// moduleName keys the governance pause switch for lending flows.
const moduleName = "lending"

// engineState is the persistence surface the engine mutates. Get methods
// return (nil, nil) when the record does not exist.
type engineState interface {
	GetLendingPool(poolID string) (*LendingPool, error)
	PutLendingPool(pool *LendingPool) error
	GetCollateralPool(poolID string) (*CollateralPool, error)
	PutCollateralPool(pool *CollateralPool) error
	GetBorrowerAccount(poolID string, addr crypto.Address) (*BorrowerAccount, error)
	PutBorrowerAccount(poolID string, account *BorrowerAccount) error
	GetDelegation(poolID string, delegate crypto.Address) (*DelegatedBorrower, error)
	PutDelegation(poolID string, delegation *DelegatedBorrower) error
	GetProtocolState() (*ProtocolState, error)
	PutProtocolState(state *ProtocolState) error
	GetReputation(addr crypto.Address) (*BorrowerReputation, error)
	PutReputation(rep *BorrowerReputation) error
}

// MetricsSink observes operation outcomes. Wiring is optional; a nil sink
// disables observation.
type MetricsSink interface {
	ObserveOperation(op, outcome string)
}

// Engine executes confidential lending operations against one pool. Every
// state transition is proof-gated; the engine mutates cloned records and
// persists only after all checks pass, so a rejection has zero side effects.
type Engine struct {
	state     engineState
	verifier  zkproof.Verifier
	params    ParamView
	whitelist WhitelistView
	fees      FeeCollector
	pauses    common.PauseView
	emitter   Emitter
	metrics   MetricsSink
	poolID    string
}

// NewEngine constructs an engine with no wiring. Callers must set state,
// verifier, params and the pool identifier before use.
func NewEngine() *Engine {
	return &Engine{}
}

// SetState wires the persistence backend.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetVerifier wires the proof verifier gating every transition.
func (e *Engine) SetVerifier(verifier zkproof.Verifier) { e.verifier = verifier }

// SetParams wires the governance parameter source.
func (e *Engine) SetParams(params ParamView) { e.params = params }

// SetWhitelist wires institutional pool membership checks.
func (e *Engine) SetWhitelist(whitelist WhitelistView) { e.whitelist = whitelist }

// SetFeeCollector wires the treasury sink for protocol fees.
func (e *Engine) SetFeeCollector(fees FeeCollector) { e.fees = fees }

// SetPauses wires the governance pause switches.
func (e *Engine) SetPauses(pauses common.PauseView) { e.pauses = pauses }

// SetEmitter wires the event sink.
func (e *Engine) SetEmitter(emitter Emitter) { e.emitter = emitter }

// SetMetrics wires the operation metrics sink.
func (e *Engine) SetMetrics(metrics MetricsSink) { e.metrics = metrics }

// SetPoolID selects the pool this engine instance operates on.
func (e *Engine) SetPoolID(poolID string) { e.poolID = poolID }

func (e *Engine) ready() error {
	switch {
	case e.state == nil:
		return errNilState
	case e.verifier == nil:
		return errNilVerifier
	case e.params == nil:
		return errNilParams
	case e.poolID == "":
		return errPoolNotConfigured
	}
	return nil
}

func (e *Engine) begin() (RiskParameters, error) {
	if err := e.ready(); err != nil {
		return RiskParameters{}, err
	}
	if err := common.Guard(e.pauses, moduleName); err != nil {
		return RiskParameters{}, err
	}
	return e.params.RiskParameters()
}

func (e *Engine) observe(op string, err error) {
	if e.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "rejected"
	}
	e.metrics.ObserveOperation(op, outcome)
}

func (e *Engine) emit(evt Event) {
	if e.emitter != nil {
		e.emitter.Emit(evt)
	}
}

// loadPools fetches the lending and collateral pool records for the
// configured pool.
func (e *Engine) loadPools() (*LendingPool, *CollateralPool, error) {
	pool, err := e.state.GetLendingPool(e.poolID)
	if err != nil {
		return nil, nil, err
	}
	if pool == nil {
		return nil, nil, errNilPool
	}
	cpool, err := e.state.GetCollateralPool(e.poolID)
	if err != nil {
		return nil, nil, err
	}
	if cpool == nil {
		cpool = &CollateralPool{PoolID: e.poolID, TotalCollateral: commitment.Zero()}
	}
	return pool, cpool, nil
}

func newAccount(addr crypto.Address) *BorrowerAccount {
	return &BorrowerAccount{
		Address:     addr,
		Collateral:  commitment.Zero(),
		Borrowed:    commitment.Zero(),
		CreditLimit: commitment.Zero(),
		Status:      StatusUninitialized,
	}
}

// rateBpsFor resolves the borrow rate bound into proof statements: the fixed
// rate for institutional pools, the utilization curve otherwise.
func rateBpsFor(pool *LendingPool, params RiskParameters) uint64 {
	if pool.Institutional() {
		return pool.FixedRateBps
	}
	return params.InterestModel.RateBps(pool.TotalBorrowed, pool.TotalLiquidity)
}

// accruePool rolls the public pool mirror forward to now. The hidden
// per-account side settles separately through settleAccrual.
func accruePool(pool *LendingPool, rateBps, now uint64) {
	if now <= pool.LastAccrualTime {
		return
	}
	elapsed := now - pool.LastAccrualTime
	interest := PublicInterest(pool.TotalBorrowed, rateBps, elapsed)
	if interest.Sign() > 0 {
		pool.TotalBorrowed = new(big.Int).Add(nonNil(pool.TotalBorrowed), interest)
	}
	pool.LastAccrualTime = now
}

// AccrualSettlement carries the caller-computed hidden interest delta and the
// proof that it applies the statement's rate over the elapsed period to the
// hidden principal.
type AccrualSettlement struct {
	InterestDelta commitment.Commitment
	Proof         zkproof.Proof
}

// settleAccrual brings the account's hidden debt up to date before a debt
// mutation. Debt-bearing accounts with elapsed time must supply a settlement;
// the pool's public mirror accrues afterwards so both sides derive the same
// statement. Returns the rate bound into subsequent statements.
func (e *Engine) settleAccrual(pool *LendingPool, cpool *CollateralPool, acct *BorrowerAccount, accr *AccrualSettlement, now uint64, params RiskParameters) (uint64, error) {
	rateBps := rateBpsFor(pool, params)
	debtBearing := acct.Status == StatusBorrowed || acct.Status == StatusLiquidatable
	if debtBearing && now > acct.LastAccrualTime {
		elapsed := now - acct.LastAccrualTime
		if accr == nil || !accr.InterestDelta.Valid() {
			return 0, ErrAccrualRequired
		}
		stmt := AccrualStatement(pool, cpool, acct, accr.InterestDelta, rateBps, elapsed)
		if !e.verifier.Verify(stmt, accr.Proof, zkproof.PredicateCorrectDeltaApplication) {
			return 0, ErrProofVerificationFailed
		}
		acct.Borrowed = acct.Borrowed.Add(accr.InterestDelta)
		pool.TotalBorrowedCommitment = pool.TotalBorrowedCommitment.Add(accr.InterestDelta)
	}
	acct.LastAccrualTime = now
	accruePool(pool, rateBps, now)
	return rateBps, nil
}

// persist writes the staged records and folds the pool-level diffs into the
// protocol aggregates. Nothing before this call has touched storage, and
// side effects outside storage (fees, events) wait until it succeeds.
func (e *Engine) persist(oldPool, newPool *LendingPool, oldCPool, newCPool *CollateralPool, acct *BorrowerAccount, delegation *DelegatedBorrower) error {
	if err := e.state.PutLendingPool(newPool); err != nil {
		return err
	}
	if err := e.state.PutCollateralPool(newCPool); err != nil {
		return err
	}
	if acct != nil {
		if err := e.state.PutBorrowerAccount(e.poolID, acct); err != nil {
			return err
		}
	}
	if delegation != nil {
		if err := e.state.PutDelegation(e.poolID, delegation); err != nil {
			return err
		}
	}
	protocol, err := e.state.GetProtocolState()
	if err != nil {
		return err
	}
	if protocol == nil {
		protocol = &ProtocolState{
			TotalLiquidity:          big.NewInt(0),
			TotalBorrowed:           big.NewInt(0),
			TotalCollateral:         commitment.Zero(),
			TotalBorrowedCommitment: commitment.Zero(),
		}
	}
	staged := protocol.Clone()
	staged.TotalLiquidity = new(big.Int).Add(nonNil(staged.TotalLiquidity),
		new(big.Int).Sub(nonNil(newPool.TotalLiquidity), nonNil(oldPool.TotalLiquidity)))
	staged.TotalBorrowed = new(big.Int).Add(nonNil(staged.TotalBorrowed),
		new(big.Int).Sub(nonNil(newPool.TotalBorrowed), nonNil(oldPool.TotalBorrowed)))
	staged.TotalBorrowedCommitment = staged.TotalBorrowedCommitment.
		Add(newPool.TotalBorrowedCommitment.Sub(oldPool.TotalBorrowedCommitment))
	staged.TotalCollateral = staged.TotalCollateral.
		Add(newCPool.TotalCollateral.Sub(oldCPool.TotalCollateral))
	return e.state.PutProtocolState(staged)
}

func (e *Engine) bumpReputation(addr crypto.Address, repaid bool) error {
	rep, err := e.state.GetReputation(addr)
	if err != nil {
		return err
	}
	if rep == nil {
		rep = &BorrowerReputation{Address: addr}
	}
	if repaid {
		rep.SuccessfulRepays++
		rep.Score++
	} else {
		rep.LiquidationEvents++
		if rep.Score > 0 {
			rep.Score--
		}
	}
	return e.state.PutReputation(rep)
}

// StakeRequest describes a collateral stake: a public inbound flow plus the
// hidden delta it commits to.
type StakeRequest struct {
	Account          crypto.Address
	Amount           *big.Int
	Delta            commitment.Commitment
	DeltaProof       zkproof.Proof
	NonNegativeProof zkproof.Proof
	Now              uint64
}

// Stake locks collateral for the account, creating it on first use. The
// delta proof links the hidden delta to the public flow; the non-negative
// proof covers the resulting hidden balance.
func (e *Engine) Stake(req StakeRequest) (acct *BorrowerAccount, err error) {
	defer func() { e.observe("stake", err) }()
	if _, err = e.begin(); err != nil {
		return nil, err
	}
	if req.Account.IsZero() {
		return nil, errNilAccount
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if !req.Delta.Valid() {
		return nil, ErrMalformedCommitment
	}

	pool, cpool, err := e.loadPools()
	if err != nil {
		return nil, err
	}
	stored, err := e.state.GetBorrowerAccount(e.poolID, req.Account)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		stored = newAccount(req.Account)
	}
	staged := stored.Clone()
	stagedPool, stagedCPool := pool.Clone(), cpool.Clone()

	next := staged.Status
	if staged.Status == StatusUninitialized {
		if next, err = staged.Status.Transition(StatusCollateralized); err != nil {
			return nil, err
		}
	} else if next, err = staged.Status.Transition(staged.Status); err != nil {
		return nil, err
	}

	stmt := StakeStatement(stagedPool, stagedCPool, staged, req.Delta, req.Amount)
	if !e.verifier.Verify(stmt, req.DeltaProof, zkproof.PredicateCorrectDeltaApplication) {
		return nil, ErrProofVerificationFailed
	}
	if !e.verifier.Verify(stmt, req.NonNegativeProof, zkproof.PredicateNonNegativeBalance) {
		return nil, ErrProofVerificationFailed
	}

	staged.Collateral = staged.Collateral.Add(req.Delta)
	staged.LastStakeTime = req.Now
	if staged.LastAccrualTime == 0 {
		staged.LastAccrualTime = req.Now
	}
	staged.Status = next
	stagedCPool.TotalCollateral = stagedCPool.TotalCollateral.Add(req.Delta)

	if err = e.persist(pool, stagedPool, cpool, stagedCPool, staged, nil); err != nil {
		return nil, err
	}
	e.emit(NewStakeEvent(e.poolID, req.Account, req.Amount, req.Delta, staged.Status))
	return staged.Clone(), nil
}

type borrowMode uint8

const (
	borrowStandard borrowMode = iota
	borrowInstitutional
	borrowDelegated
)

// BorrowRequest describes a borrow: the public outbound flow, the hidden debt
// delta and the proofs gating it. Accrual must be supplied when the account
// carries debt and time has passed.
type BorrowRequest struct {
	Account       crypto.Address
	Amount        *big.Int
	Delta         commitment.Commitment
	DeltaProof    zkproof.Proof
	SolvencyProof zkproof.Proof
	Accrual       *AccrualSettlement
	Now           uint64
}

// DelegatedBorrowRequest extends a borrow with the delegation being drawn and
// the proof its credit limit still holds.
type DelegatedBorrowRequest struct {
	BorrowRequest
	Delegator   crypto.Address
	CreditProof zkproof.Proof
}

// Borrow draws liquidity against the caller's collateral on a variable-rate
// pool. Returns the net public flow after the protocol fee.
func (e *Engine) Borrow(req BorrowRequest) (net *big.Int, err error) {
	defer func() { e.observe("borrow", err) }()
	return e.borrow(req, borrowStandard, nil)
}

// InstitutionalBorrow draws at the pool's fixed rate. The caller identity
// must be on the pool's whitelist; membership is a plaintext check.
func (e *Engine) InstitutionalBorrow(req BorrowRequest) (net *big.Int, err error) {
	defer func() { e.observe("institutional_borrow", err) }()
	return e.borrow(req, borrowInstitutional, nil)
}

// DelegatedBorrow draws against a credit line a delegator assigned to the
// caller. The drawn amount accrues to the delegation's hidden usage.
func (e *Engine) DelegatedBorrow(req DelegatedBorrowRequest) (net *big.Int, err error) {
	defer func() { e.observe("delegated_borrow", err) }()
	return e.borrow(req.BorrowRequest, borrowDelegated, &req)
}

func (e *Engine) borrow(req BorrowRequest, mode borrowMode, delegated *DelegatedBorrowRequest) (*big.Int, error) {
	params, err := e.begin()
	if err != nil {
		return nil, err
	}
	if req.Account.IsZero() {
		return nil, errNilAccount
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if !req.Delta.Valid() {
		return nil, ErrMalformedCommitment
	}

	pool, cpool, err := e.loadPools()
	if err != nil {
		return nil, err
	}
	switch mode {
	case borrowInstitutional:
		if !pool.Institutional() {
			return nil, errNotInstitutional
		}
		if e.whitelist == nil || !e.whitelist.IsWhitelisted(req.Account, e.poolID) {
			return nil, ErrNotWhitelisted
		}
	default:
		if pool.Institutional() {
			return nil, ErrNotWhitelisted
		}
	}

	stored, err := e.state.GetBorrowerAccount(e.poolID, req.Account)
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.Status == StatusUninitialized ||
		stored.Status == StatusClosed || stored.Status == StatusLiquidatable {
		return nil, ErrInvalidStateTransition
	}
	staged := stored.Clone()
	stagedPool, stagedCPool := pool.Clone(), cpool.Clone()

	rateBps, err := e.settleAccrual(stagedPool, stagedCPool, staged, req.Accrual, req.Now, params)
	if err != nil {
		return nil, err
	}
	if nonNil(stagedPool.TotalLiquidity).Cmp(req.Amount) < 0 {
		return nil, ErrInsufficientLiquidity
	}
	// A clock earlier than the last stake counts as inside the window.
	if params.FlashLoanGuardWindowSecs > 0 &&
		(req.Now < staged.LastStakeTime || req.Now-staged.LastStakeTime < params.FlashLoanGuardWindowSecs) &&
		nonNil(params.FlashLoanGuardThresholdWei).Sign() > 0 &&
		req.Amount.Cmp(params.FlashLoanGuardThresholdWei) > 0 &&
		!req.SolvencyProof.Strong {
		return nil, ErrFlashLoanGuard
	}

	stmt := BorrowStatement(stagedPool, stagedCPool, staged, req.Delta, req.Amount, params, rateBps)
	if !e.verifier.Verify(stmt, req.DeltaProof, zkproof.PredicateCorrectDeltaApplication) {
		return nil, ErrProofVerificationFailed
	}
	if !e.verifier.Verify(stmt, req.SolvencyProof, zkproof.PredicateSolvencyAfterBorrow) {
		return nil, ErrNotSolvent
	}

	var stagedDelegation *DelegatedBorrower
	if mode == borrowDelegated {
		if delegated == nil {
			return nil, errNilDelegation
		}
		delegation, err := e.state.GetDelegation(e.poolID, req.Account)
		if err != nil {
			return nil, err
		}
		if delegation == nil || !delegation.Delegate.Equal(req.Account) ||
			!delegation.Delegator.Equal(delegated.Delegator) {
			return nil, ErrUnauthorizedDelegate
		}
		creditStmt := CreditStatement(stagedPool, delegation, req.Delta)
		if !e.verifier.Verify(creditStmt, delegated.CreditProof, zkproof.PredicateCreditLimitRespected) {
			return nil, ErrCreditLimitExceeded
		}
		stagedDelegation = delegation.Clone()
		stagedDelegation.Used = stagedDelegation.Used.Add(req.Delta)
	}

	if staged.Status, err = staged.Status.Transition(StatusBorrowed); err != nil {
		return nil, err
	}
	staged.Borrowed = staged.Borrowed.Add(req.Delta)
	stagedPool.TotalBorrowedCommitment = stagedPool.TotalBorrowedCommitment.Add(req.Delta)
	stagedPool.TotalLiquidity = new(big.Int).Sub(nonNil(stagedPool.TotalLiquidity), req.Amount)
	stagedPool.TotalBorrowed = new(big.Int).Add(nonNil(stagedPool.TotalBorrowed), req.Amount)

	fee := bpsShare(req.Amount, params.ProtocolFeeBps)
	if err = e.persist(pool, stagedPool, cpool, stagedCPool, staged, stagedDelegation); err != nil {
		return nil, err
	}
	if fee.Sign() > 0 && e.fees != nil {
		if err = e.fees.CollectFee(e.poolID, commitment.Commit(fee, big.NewInt(0)), fee); err != nil {
			return nil, err
		}
	}
	net := new(big.Int).Sub(req.Amount, fee)
	e.emit(NewBorrowEvent(e.poolID, req.Account, req.Amount, fee, rateBps, req.Delta))
	return net, nil
}

// RepayRequest describes a repayment: the public inbound flow and the hidden
// debt decrement. RestoreProof optionally attests solvency has been restored
// for a liquidatable account.
type RepayRequest struct {
	Account          crypto.Address
	Amount           *big.Int
	Delta            commitment.Commitment
	DeltaProof       zkproof.Proof
	NonNegativeProof zkproof.Proof
	RestoreProof     *zkproof.Proof
	Accrual          *AccrualSettlement
	Now              uint64
}

// Repay reduces the caller's hidden debt by the verified delta and returns
// the public flow to the pool. Over-repayment never drives the hidden debt
// negative; the non-negative proof covers the post-repay balance.
func (e *Engine) Repay(req RepayRequest) (acct *BorrowerAccount, err error) {
	defer func() { e.observe("repay", err) }()
	params, err := e.begin()
	if err != nil {
		return nil, err
	}
	if req.Account.IsZero() {
		return nil, errNilAccount
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if !req.Delta.Valid() {
		return nil, ErrMalformedCommitment
	}

	pool, cpool, err := e.loadPools()
	if err != nil {
		return nil, err
	}
	stored, err := e.state.GetBorrowerAccount(e.poolID, req.Account)
	if err != nil {
		return nil, err
	}
	if stored == nil || (stored.Status != StatusBorrowed && stored.Status != StatusLiquidatable) {
		return nil, ErrInvalidStateTransition
	}
	staged := stored.Clone()
	stagedPool, stagedCPool := pool.Clone(), cpool.Clone()

	if _, err = e.settleAccrual(stagedPool, stagedCPool, staged, req.Accrual, req.Now, params); err != nil {
		return nil, err
	}

	stmt := RepayStatement(stagedPool, stagedCPool, staged, req.Delta, req.Amount)
	if !e.verifier.Verify(stmt, req.DeltaProof, zkproof.PredicateCorrectDeltaApplication) {
		return nil, ErrProofVerificationFailed
	}
	if !e.verifier.Verify(stmt, req.NonNegativeProof, zkproof.PredicateNonNegativeBalance) {
		return nil, ErrProofVerificationFailed
	}

	if staged.Status == StatusLiquidatable && req.RestoreProof != nil {
		if e.verifier.Verify(stmt, *req.RestoreProof, zkproof.PredicateSolvencyAfterBorrow) {
			if staged.Status, err = staged.Status.Transition(StatusBorrowed); err != nil {
				return nil, err
			}
		}
	}

	staged.Borrowed = staged.Borrowed.Sub(req.Delta)
	stagedPool.TotalBorrowedCommitment = stagedPool.TotalBorrowedCommitment.Sub(req.Delta)
	stagedPool.TotalBorrowed = subFloorZero(stagedPool.TotalBorrowed, req.Amount)

	// The lender reward share is skimmed from the repay flow before it
	// returns to pool liquidity.
	reward := bpsShare(req.Amount, params.ProtocolFeeBps)
	stagedPool.TotalLiquidity = new(big.Int).Add(nonNil(stagedPool.TotalLiquidity), new(big.Int).Sub(req.Amount, reward))

	if err = e.persist(pool, stagedPool, cpool, stagedCPool, staged, nil); err != nil {
		return nil, err
	}
	if reward.Sign() > 0 && e.fees != nil {
		if err = e.fees.CollectFee(e.poolID, commitment.Commit(reward, big.NewInt(0)), reward); err != nil {
			return nil, err
		}
	}
	if err = e.bumpReputation(req.Account, true); err != nil {
		return nil, err
	}
	e.emit(NewRepayEvent(e.poolID, req.Account, req.Amount, req.Delta, staged.Status))
	return staged.Clone(), nil
}

// LiquidateRequest describes one partial liquidation call against an
// undercollateralized borrower. RepayAmount is the public debt flow the
// liquidator covers; the seized collateral flow follows from the discount.
type LiquidateRequest struct {
	Liquidator       crypto.Address
	Account          crypto.Address
	RepayAmount      *big.Int
	SeizeDelta       commitment.Commitment
	RepayDelta       commitment.Commitment
	EligibilityProof zkproof.Proof
	LinkProof        zkproof.Proof
	Accrual          *AccrualSettlement
	Now              uint64
}

// Liquidate seizes discounted collateral in exchange for repaying part of the
// borrower's debt. Each call is bounded by the per-call seize limit unless
// the eligibility proof carries the strong full-eligibility attestation, so
// full seizure takes repeated calls, each re-proving against updated state.
func (e *Engine) Liquidate(req LiquidateRequest) (res *PartialLiquidationResult, err error) {
	defer func() { e.observe("liquidate", err) }()
	params, err := e.begin()
	if err != nil {
		return nil, err
	}
	if req.Account.IsZero() || req.Liquidator.IsZero() {
		return nil, errNilAccount
	}
	if req.RepayAmount == nil || req.RepayAmount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	if !req.SeizeDelta.Valid() || !req.RepayDelta.Valid() {
		return nil, ErrMalformedCommitment
	}

	pool, cpool, err := e.loadPools()
	if err != nil {
		return nil, err
	}
	stored, err := e.state.GetBorrowerAccount(e.poolID, req.Account)
	if err != nil {
		return nil, err
	}
	if stored == nil || (stored.Status != StatusBorrowed && stored.Status != StatusLiquidatable) {
		return nil, ErrNotEligibleForLiquidation
	}
	staged := stored.Clone()
	stagedPool, stagedCPool := pool.Clone(), cpool.Clone()

	if _, err = e.settleAccrual(stagedPool, stagedCPool, staged, req.Accrual, req.Now, params); err != nil {
		return nil, err
	}

	seizeFlow := seizeForRepay(req.RepayAmount, params.LiquidationDiscountBps)
	if nonNil(params.MaxSeizeWei).Sign() > 0 &&
		seizeFlow.Cmp(params.MaxSeizeWei) > 0 && !req.EligibilityProof.Strong {
		return nil, ErrExceedsMaxSeize
	}

	stmt := LiquidationStatement(stagedPool, stagedCPool, staged,
		req.SeizeDelta, req.RepayDelta, seizeFlow, req.RepayAmount, params)
	if !e.verifier.Verify(stmt, req.EligibilityProof, zkproof.PredicateLiquidationEligible) {
		return nil, ErrNotEligibleForLiquidation
	}
	if !e.verifier.Verify(stmt, req.LinkProof, zkproof.PredicateCorrectDeltaApplication) {
		return nil, ErrProofVerificationFailed
	}

	if staged.Status, err = staged.Status.Transition(StatusLiquidatable); err != nil {
		return nil, err
	}
	staged.Collateral = staged.Collateral.Sub(req.SeizeDelta)
	staged.Borrowed = staged.Borrowed.Sub(req.RepayDelta)
	stagedCPool.TotalCollateral = stagedCPool.TotalCollateral.Sub(req.SeizeDelta)
	stagedPool.TotalBorrowedCommitment = stagedPool.TotalBorrowedCommitment.Sub(req.RepayDelta)
	stagedPool.TotalBorrowed = subFloorZero(stagedPool.TotalBorrowed, req.RepayAmount)
	stagedPool.TotalLiquidity = new(big.Int).Add(nonNil(stagedPool.TotalLiquidity), req.RepayAmount)

	if err = e.persist(pool, stagedPool, cpool, stagedCPool, staged, nil); err != nil {
		return nil, err
	}
	if err = e.bumpReputation(req.Account, false); err != nil {
		return nil, err
	}
	e.emit(NewLiquidationEvent(e.poolID, req.Liquidator, req.Account, seizeFlow, req.RepayAmount))
	return &PartialLiquidationResult{
		SeizedFlow:       seizeFlow,
		RepaidFlow:       new(big.Int).Set(req.RepayAmount),
		SeizedCommitment: req.SeizeDelta.Clone(),
		RepaidCommitment: req.RepayDelta.Clone(),
		Status:           staged.Status,
	}, nil
}

// RebalanceRequest describes a collateral composition change. Only the
// replacement commitment is public; the magnitude of the move stays hidden.
type RebalanceRequest struct {
	Account       crypto.Address
	NewCollateral commitment.Commitment
	DeltaProof    zkproof.Proof
	SolvencyProof zkproof.Proof
	Now           uint64
}

// Rebalance replaces the account's collateral commitment with a verified
// equivalent. Accounts carrying debt must additionally prove the position
// stays solvent; a liquidatable account that proves solvency is restored.
func (e *Engine) Rebalance(req RebalanceRequest) (acct *BorrowerAccount, err error) {
	defer func() { e.observe("rebalance", err) }()
	params, err := e.begin()
	if err != nil {
		return nil, err
	}
	if req.Account.IsZero() {
		return nil, errNilAccount
	}
	if !req.NewCollateral.Valid() {
		return nil, ErrMalformedCommitment
	}

	pool, cpool, err := e.loadPools()
	if err != nil {
		return nil, err
	}
	stored, err := e.state.GetBorrowerAccount(e.poolID, req.Account)
	if err != nil {
		return nil, err
	}
	if stored == nil || stored.Status == StatusUninitialized || stored.Status == StatusClosed {
		return nil, ErrInvalidStateTransition
	}
	staged := stored.Clone()
	stagedPool, stagedCPool := pool.Clone(), cpool.Clone()
	accruePool(stagedPool, rateBpsFor(stagedPool, params), req.Now)

	stmt := RebalanceStatement(stagedPool, stagedCPool, staged, req.NewCollateral, params)
	if !e.verifier.Verify(stmt, req.DeltaProof, zkproof.PredicateCorrectDeltaApplication) {
		return nil, ErrProofVerificationFailed
	}
	debtBearing := staged.Status == StatusBorrowed || staged.Status == StatusLiquidatable
	if debtBearing {
		if !e.verifier.Verify(stmt, req.SolvencyProof, zkproof.PredicateSolvencyAfterBorrow) {
			return nil, ErrNotSolvent
		}
		if staged.Status == StatusLiquidatable {
			if staged.Status, err = staged.Status.Transition(StatusBorrowed); err != nil {
				return nil, err
			}
		}
	}

	delta := req.NewCollateral.Sub(staged.Collateral)
	staged.Collateral = req.NewCollateral.Clone()
	stagedCPool.TotalCollateral = stagedCPool.TotalCollateral.Add(delta)

	if err = e.persist(pool, stagedPool, cpool, stagedCPool, staged, nil); err != nil {
		return nil, err
	}
	e.emit(NewRebalanceEvent(e.poolID, req.Account, req.NewCollateral, staged.Status))
	return staged.Clone(), nil
}

// CloseRequest carries the zero-balance proofs required to retire an account.
type CloseRequest struct {
	Account             crypto.Address
	CollateralZeroProof zkproof.Proof
	DebtZeroProof       zkproof.Proof
	Now                 uint64
}

// CloseAccount retires an account after both its collateral and debt
// commitments verify as zero. The pool aggregates shed the account's residual
// commitments so the homomorphic sums stay exact.
func (e *Engine) CloseAccount(req CloseRequest) (err error) {
	defer func() { e.observe("close_account", err) }()
	if _, err = e.begin(); err != nil {
		return err
	}
	if req.Account.IsZero() {
		return errNilAccount
	}

	pool, cpool, err := e.loadPools()
	if err != nil {
		return err
	}
	stored, err := e.state.GetBorrowerAccount(e.poolID, req.Account)
	if err != nil {
		return err
	}
	if stored == nil || stored.Status == StatusUninitialized || stored.Status == StatusClosed {
		return ErrInvalidStateTransition
	}
	staged := stored.Clone()
	stagedPool, stagedCPool := pool.Clone(), cpool.Clone()

	collateralStmt := CloseStatement(stagedPool, stagedCPool, staged, staged.Collateral)
	if !e.verifier.Verify(collateralStmt, req.CollateralZeroProof, zkproof.PredicateZeroBalance) {
		return ErrProofVerificationFailed
	}
	debtStmt := CloseStatement(stagedPool, stagedCPool, staged, staged.Borrowed)
	if !e.verifier.Verify(debtStmt, req.DebtZeroProof, zkproof.PredicateZeroBalance) {
		return ErrProofVerificationFailed
	}

	if staged.Status, err = staged.Status.Transition(StatusClosed); err != nil {
		return err
	}
	stagedCPool.TotalCollateral = stagedCPool.TotalCollateral.Sub(staged.Collateral)
	stagedPool.TotalBorrowedCommitment = stagedPool.TotalBorrowedCommitment.Sub(staged.Borrowed)
	staged.Collateral = commitment.Zero()
	staged.Borrowed = commitment.Zero()

	if err = e.persist(pool, stagedPool, cpool, stagedCPool, staged, nil); err != nil {
		return err
	}
	e.emit(NewCloseEvent(e.poolID, req.Account))
	return nil
}

// SupplyLiquidity credits a public inbound flow to the pool vault. Supplier
// flows are observable on the host ledger, so no proof gates them.
func (e *Engine) SupplyLiquidity(amount *big.Int, now uint64) (pool *LendingPool, err error) {
	defer func() { e.observe("supply_liquidity", err) }()
	params, err := e.begin()
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	stored, cpool, err := e.loadPools()
	if err != nil {
		return nil, err
	}
	staged := stored.Clone()
	accruePool(staged, rateBpsFor(staged, params), now)
	staged.TotalLiquidity = new(big.Int).Add(nonNil(staged.TotalLiquidity), amount)
	if err = e.persist(stored, staged, cpool, cpool.Clone(), nil, nil); err != nil {
		return nil, err
	}
	return staged.Clone(), nil
}

// WithdrawLiquidity debits a public outbound flow from the pool vault,
// bounded by the unborrowed liquidity.
func (e *Engine) WithdrawLiquidity(amount *big.Int, now uint64) (pool *LendingPool, err error) {
	defer func() { e.observe("withdraw_liquidity", err) }()
	params, err := e.begin()
	if err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	stored, cpool, err := e.loadPools()
	if err != nil {
		return nil, err
	}
	staged := stored.Clone()
	accruePool(staged, rateBpsFor(staged, params), now)
	if nonNil(staged.TotalLiquidity).Cmp(amount) < 0 {
		return nil, ErrInsufficientLiquidity
	}
	staged.TotalLiquidity = new(big.Int).Sub(nonNil(staged.TotalLiquidity), amount)
	if err = e.persist(stored, staged, cpool, cpool.Clone(), nil, nil); err != nil {
		return nil, err
	}
	return staged.Clone(), nil
}

// RegisterDelegation records a credit line from delegator to delegate with a
// hidden limit. Drawing against it happens through DelegatedBorrow.
func (e *Engine) RegisterDelegation(delegator, delegate crypto.Address, creditLimit commitment.Commitment) error {
	if err := e.ready(); err != nil {
		return err
	}
	if delegator.IsZero() || delegate.IsZero() {
		return errNilAccount
	}
	if !creditLimit.Valid() {
		return ErrMalformedCommitment
	}
	return e.state.PutDelegation(e.poolID, &DelegatedBorrower{
		Delegator:   delegator,
		Delegate:    delegate,
		CreditLimit: creditLimit.Clone(),
		Used:        commitment.Zero(),
	})
}
