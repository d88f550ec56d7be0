package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zklend/config"
	"zklend/native/commitment"
	"zklend/native/governance"
	"zklend/native/lending"
	"zklend/native/treasury"
	"zklend/native/zkproof"
	"zklend/observability"
	"zklend/observability/logging"
	"zklend/storage"
)

func main() {
	configPath := flag.String("config", "./zklend.toml", "path to the service configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Setup("zklendd", cfg.Environment)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	govStore := governance.NewStore(db)
	if err := seedParams(govStore, cfg); err != nil {
		logger.Error("seed governance params", "err", err)
		os.Exit(1)
	}

	verifier := zkproof.NewAttestedVerifier()
	for _, attester := range cfg.Verifier {
		predicate, ok := predicateByName(attester.Predicate)
		if !ok {
			logger.Error("unknown attester predicate", "predicate", attester.Predicate)
			os.Exit(1)
		}
		verifier.RegisterKey(predicate, attester.VerifyingKeyBytes())
		logger.Info("registered attester key", "predicate", attester.Predicate)
	}

	state := lending.NewState(db)
	vault := treasury.NewVault()
	metrics := observability.Lending()

	engines := make(map[string]*lending.Engine, len(cfg.Pools))
	for _, pool := range cfg.Pools {
		if err := ensurePool(state, pool); err != nil {
			logger.Error("initialise pool", "pool", pool.PoolID, "err", err)
			os.Exit(1)
		}
		engine := lending.NewEngine()
		engine.SetState(state)
		engine.SetVerifier(zkproof.NewMeteredVerifier(verifier, metrics))
		engine.SetParams(govStore)
		engine.SetWhitelist(govStore)
		engine.SetFeeCollector(vault)
		engine.SetPauses(govStore)
		engine.SetMetrics(metrics)
		engine.SetEmitter(logEmitter{logger: logger})
		engine.SetPoolID(pool.PoolID)
		engines[pool.PoolID] = engine
		logger.Info("pool ready", "pool", pool.PoolID, "fixedRateBps", pool.FixedRateBps)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/v1/pools/{poolID}", poolHandler(state))
	go func() {
		if err := http.ListenAndServe(cfg.MetricsAddress, router); err != nil {
			logger.Error("http server", "err", err)
		}
	}()
	logger.Info("lending ledger ready", "pools", len(engines), "listen", cfg.MetricsAddress)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	logger.Info("shutting down")
}

// logEmitter publishes ledger events on the structured log until an external
// event bus is attached.
type logEmitter struct {
	logger *slog.Logger
}

func (l logEmitter) Emit(evt lending.Event) {
	attrs := make([]any, 0, 2*len(evt.Attributes))
	for key, value := range evt.Attributes {
		attrs = append(attrs, key, value)
	}
	l.logger.Info(evt.Type, attrs...)
}

// seedParams installs the configured risk parameters on first boot only;
// afterwards governance owns them.
func seedParams(store *governance.Store, cfg *config.Config) error {
	current, err := store.Params()
	if err != nil {
		return err
	}
	if current.MinCollateralRatioBps != 0 {
		return nil
	}
	maxSeize, ok := new(big.Int).SetString(cfg.Params.MaxSeizeWei, 10)
	if !ok {
		return fmt.Errorf("invalid MaxSeizeWei %q", cfg.Params.MaxSeizeWei)
	}
	guardThreshold, ok := new(big.Int).SetString(cfg.Params.FlashLoanGuardThresholdWei, 10)
	if !ok {
		return fmt.Errorf("invalid FlashLoanGuardThresholdWei %q", cfg.Params.FlashLoanGuardThresholdWei)
	}
	return store.SetParams(governance.Params{
		MinCollateralRatioBps:      cfg.Params.MinCollateralRatioBps,
		LiquidationThresholdBps:    cfg.Params.LiquidationThresholdBps,
		LiquidationDiscountBps:     cfg.Params.LiquidationDiscountBps,
		MaxSeizeWei:                maxSeize,
		FlashLoanGuardWindowSecs:   cfg.Params.FlashLoanGuardWindowSecs,
		FlashLoanGuardThresholdWei: guardThreshold,
		ProtocolFeeBps:             cfg.Params.ProtocolFeeBps,
		BaseRateBps:                cfg.Params.BaseRateBps,
		Slope1Bps:                  cfg.Params.Slope1Bps,
		Slope2Bps:                  cfg.Params.Slope2Bps,
		KinkBps:                    cfg.Params.KinkBps,
	})
}

func ensurePool(state *lending.State, cfg config.PoolConfig) error {
	pool, err := state.GetLendingPool(cfg.PoolID)
	if err != nil {
		return err
	}
	if pool == nil {
		if err := state.PutLendingPool(&lending.LendingPool{
			PoolID:                  cfg.PoolID,
			TotalLiquidity:          big.NewInt(0),
			TotalBorrowed:           big.NewInt(0),
			TotalBorrowedCommitment: commitment.Zero(),
			FixedRateBps:            cfg.FixedRateBps,
		}); err != nil {
			return err
		}
	}
	cpool, err := state.GetCollateralPool(cfg.PoolID)
	if err != nil {
		return err
	}
	if cpool == nil {
		return state.PutCollateralPool(&lending.CollateralPool{
			PoolID:            cfg.PoolID,
			AcceptedAssetKind: cfg.AcceptedAssetKind,
			TotalCollateral:   commitment.Zero(),
		})
	}
	return nil
}

// poolHandler exposes the public pool aggregates. Hidden positions never
// leave the ledger; only vault flows and commitment encodings are served.
func poolHandler(state *lending.State) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		poolID := chi.URLParam(r, "poolID")
		pool, err := state.GetLendingPool(poolID)
		if err != nil {
			http.Error(w, "pool lookup failed", http.StatusInternalServerError)
			return
		}
		if pool == nil {
			http.Error(w, "unknown pool", http.StatusNotFound)
			return
		}
		cpool, err := state.GetCollateralPool(poolID)
		if err != nil || cpool == nil {
			http.Error(w, "pool lookup failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"poolId":                  pool.PoolID,
			"totalLiquidity":          pool.TotalLiquidity.String(),
			"totalBorrowed":           pool.TotalBorrowed.String(),
			"totalBorrowedCommitment": pool.TotalBorrowedCommitment.Hex(),
			"totalCollateral":         cpool.TotalCollateral.Hex(),
			"acceptedAssetKind":       cpool.AcceptedAssetKind,
			"fixedRateBps":            pool.FixedRateBps,
		})
	}
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
