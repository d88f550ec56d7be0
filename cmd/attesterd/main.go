package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"zklend/crypto"
	"zklend/native/common"
	"zklend/native/zkproof"
	"zklend/observability/logging"
)

const passphraseEnv = "ZKLEND_ATTESTER_PASSPHRASE"

func main() {
	keystorePath := flag.String("keystore", "./attester-key.json", "path to the attester keystore file")
	listen := flag.String("listen", ":9465", "address for the attestation endpoint")
	maxRequests := flag.Uint("max-requests", 120, "attestation requests allowed per caller per epoch (0 disables)")
	epochSecs := flag.Uint("epoch-secs", 60, "length of a throttling epoch in seconds")
	flag.Parse()

	logger := logging.Setup("attesterd", os.Getenv("ZKLEND_ENV"))

	passphrase := os.Getenv(passphraseEnv)
	if passphrase == "" {
		logger.Error("missing passphrase", "env", passphraseEnv)
		os.Exit(1)
	}

	key, err := loadOrCreateKey(*keystorePath, passphrase, logger)
	if err != nil {
		logger.Error("prepare attester key", "err", err)
		os.Exit(1)
	}
	prover := zkproof.NewProver(key)
	logger.Info("attester ready",
		"verifyingKey", hex.EncodeToString(prover.VerifyingKey()),
		"listen", *listen)

	service := &attestService{
		prover: prover,
		logger: logger,
		quota: common.Quota{
			MaxRequestsPerEpoch: uint32(*maxRequests),
			EpochSeconds:        uint32(*epochSecs),
		},
		usage: make(map[string]common.QuotaNow),
	}

	router := chi.NewRouter()
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Get("/v1/key", service.handleKey)
	router.Post("/v1/attest", service.handleAttest)
	if err := http.ListenAndServe(*listen, router); err != nil {
		logger.Error("attestation server", "err", err)
		os.Exit(1)
	}
}

// loadOrCreateKey opens the keystore file, generating and persisting a fresh
// key on first run.
func loadOrCreateKey(path, passphrase string, logger *slog.Logger) (*crypto.PrivateKey, error) {
	key, err := crypto.LoadFromKeystore(path, passphrase)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	key, err = crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	if err := crypto.SaveToKeystore(path, key, passphrase); err != nil {
		return nil, err
	}
	logger.Info("generated attester key", "keystore", path)
	return key, nil
}

type attestService struct {
	prover *zkproof.Prover
	logger *slog.Logger
	quota  common.Quota

	mu    sync.Mutex
	usage map[string]common.QuotaNow
}

// attestRequest is the wire form of a statement to sign. Commitments and
// digests travel hex-encoded; the flow amount is a decimal string.
type attestRequest struct {
	Predicate string `json:"predicate"`
	Strong    bool   `json:"strong"`

	PoolID               string `json:"poolId"`
	Account              string `json:"account"`
	CollateralCommitment string `json:"collateralCommitment"`
	BorrowedCommitment   string `json:"borrowedCommitment"`
	DeltaCommitment      string `json:"deltaCommitment"`
	ResultCommitment     string `json:"resultCommitment"`
	AuxCommitment        string `json:"auxCommitment"`
	FlowAmount           string `json:"flowAmount"`
	MinRatioBps          uint64 `json:"minRatioBps"`
	ThresholdBps         uint64 `json:"thresholdBps"`
	DiscountBps          uint64 `json:"discountBps"`
	RateBps              uint64 `json:"rateBps"`
	ElapsedSecs          uint64 `json:"elapsedSecs"`
	StateDigest          string `json:"stateDigest"`
}

type attestResponse struct {
	Scheme string `json:"scheme"`
	Proof  string `json:"proof"`
	Strong bool   `json:"strong"`
}

func (s *attestService) handleKey(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"verifyingKey": hex.EncodeToString(s.prover.VerifyingKey()),
	})
}

func (s *attestService) handleAttest(w http.ResponseWriter, r *http.Request) {
	if err := s.throttle(r); err != nil {
		http.Error(w, err.Error(), http.StatusTooManyRequests)
		return
	}

	var req attestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed request body", http.StatusBadRequest)
		return
	}
	predicate, ok := predicateByName(req.Predicate)
	if !ok {
		http.Error(w, fmt.Sprintf("unknown predicate %q", req.Predicate), http.StatusBadRequest)
		return
	}
	stmt, err := req.statement()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	proof, err := s.prover.Attest(stmt, predicate, req.Strong)
	if err != nil {
		s.logger.Error("attestation failed", "predicate", req.Predicate, "err", err)
		http.Error(w, "attestation failed", http.StatusInternalServerError)
		return
	}
	s.logger.Info("attested statement",
		"predicate", req.Predicate,
		"pool", req.PoolID,
		"strong", req.Strong)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(attestResponse{
		Scheme: proof.Scheme,
		Proof:  hex.EncodeToString(proof.Payload),
		Strong: proof.Strong,
	})
}

// throttle enforces the per-caller request quota, keyed by remote host.
func (s *attestService) throttle(r *http.Request) error {
	if s.quota.MaxRequestsPerEpoch == 0 {
		return nil
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	epoch := uint64(time.Now().Unix())
	if s.quota.EpochSeconds > 0 {
		epoch /= uint64(s.quota.EpochSeconds)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := common.CheckQuota(s.quota, epoch, s.usage[host], 1, 0)
	if err != nil {
		return err
	}
	s.usage[host] = next
	return nil
}

func (r attestRequest) statement() (zkproof.Statement, error) {
	stmt := zkproof.Statement{
		PoolID:       r.PoolID,
		MinRatioBps:  r.MinRatioBps,
		ThresholdBps: r.ThresholdBps,
		DiscountBps:  r.DiscountBps,
		RateBps:      r.RateBps,
		ElapsedSecs:  r.ElapsedSecs,
	}
	for _, field := range []struct {
		name string
		src  string
		dst  *[]byte
	}{
		{"account", r.Account, &stmt.Account},
		{"collateralCommitment", r.CollateralCommitment, &stmt.CollateralCommitment},
		{"borrowedCommitment", r.BorrowedCommitment, &stmt.BorrowedCommitment},
		{"deltaCommitment", r.DeltaCommitment, &stmt.DeltaCommitment},
		{"resultCommitment", r.ResultCommitment, &stmt.ResultCommitment},
		{"auxCommitment", r.AuxCommitment, &stmt.AuxCommitment},
	} {
		if field.src == "" {
			continue
		}
		decoded, err := hex.DecodeString(field.src)
		if err != nil {
			return zkproof.Statement{}, fmt.Errorf("field %s is not hex", field.name)
		}
		*field.dst = decoded
	}
	if r.FlowAmount != "" {
		flow, ok := new(big.Int).SetString(r.FlowAmount, 10)
		if !ok {
			return zkproof.Statement{}, errors.New("flowAmount is not a decimal integer")
		}
		stmt.FlowAmount = flow
	}
	if r.StateDigest != "" {
		digest, err := hex.DecodeString(r.StateDigest)
		if err != nil || len(digest) != len(stmt.StateDigest) {
			return zkproof.Statement{}, errors.New("stateDigest must be 32 hex-encoded bytes")
		}
		copy(stmt.StateDigest[:], digest)
	}
	return stmt, nil
}

func predicateByName(name string) (zkproof.Predicate, bool) {
	for _, predicate := range []zkproof.Predicate{
		zkproof.PredicateSolvencyAfterBorrow,
		zkproof.PredicateNonNegativeBalance,
		zkproof.PredicateCorrectDeltaApplication,
		zkproof.PredicateCreditLimitRespected,
		zkproof.PredicateLiquidationEligible,
		zkproof.PredicateZeroBalance,
	} {
		if predicate.String() == name {
			return predicate, true
		}
	}
	return zkproof.PredicateUnspecified, false
}
