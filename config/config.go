package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the TOML-backed service configuration for a ledger node hosting
// the confidential lending core.
type Config struct {
	DataDir        string `toml:"DataDir"`
	MetricsAddress string `toml:"MetricsAddress"`
	Environment    string `toml:"Environment"`

	Pools    []PoolConfig     `toml:"Pools"`
	Params   ParamsConfig     `toml:"Params"`
	Verifier []AttesterConfig `toml:"Attesters"`
}

// PoolConfig declares one lending pool and its collateral counterpart.
type PoolConfig struct {
	PoolID            string `toml:"PoolID"`
	AcceptedAssetKind string `toml:"AcceptedAssetKind"`
	// FixedRateBps marks an institutional pool when non-zero.
	FixedRateBps uint64 `toml:"FixedRateBps"`
}

// ParamsConfig seeds the governance parameter store on first boot. All
// figures are basis points unless suffixed Wei or Secs.
type ParamsConfig struct {
	MinCollateralRatioBps      uint64 `toml:"MinCollateralRatioBps"`
	LiquidationThresholdBps    uint64 `toml:"LiquidationThresholdBps"`
	LiquidationDiscountBps     uint64 `toml:"LiquidationDiscountBps"`
	MaxSeizeWei                string `toml:"MaxSeizeWei"`
	FlashLoanGuardWindowSecs   uint64 `toml:"FlashLoanGuardWindowSecs"`
	FlashLoanGuardThresholdWei string `toml:"FlashLoanGuardThresholdWei"`
	ProtocolFeeBps             uint64 `toml:"ProtocolFeeBps"`
	BaseRateBps                uint64 `toml:"BaseRateBps"`
	Slope1Bps                  uint64 `toml:"Slope1Bps"`
	Slope2Bps                  uint64 `toml:"Slope2Bps"`
	KinkBps                    uint64 `toml:"KinkBps"`
}

// AttesterConfig registers one proof-system verifying key for a predicate.
type AttesterConfig struct {
	Predicate string `toml:"Predicate"`
	// VerifyingKey is the hex-encoded 33-byte compressed key.
	VerifyingKey string `toml:"VerifyingKey"`
}

// Load reads and validates the configuration at path, creating a default
// file when none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./zklend-data"
	}
	if strings.TrimSpace(cfg.MetricsAddress) == "" {
		cfg.MetricsAddress = ":9464"
	}
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "local"
	}
	p := &cfg.Params
	if p.MinCollateralRatioBps == 0 {
		p.MinCollateralRatioBps = 15_000
	}
	if p.LiquidationThresholdBps == 0 {
		p.LiquidationThresholdBps = 12_000
	}
	if p.LiquidationDiscountBps == 0 {
		p.LiquidationDiscountBps = 500
	}
	if p.KinkBps == 0 {
		p.KinkBps = 8_000
	}
	if strings.TrimSpace(p.MaxSeizeWei) == "" {
		p.MaxSeizeWei = "0"
	}
	if strings.TrimSpace(p.FlashLoanGuardThresholdWei) == "" {
		p.FlashLoanGuardThresholdWei = "0"
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Pools))
	for _, pool := range c.Pools {
		id := strings.TrimSpace(pool.PoolID)
		if id == "" {
			return fmt.Errorf("config: pool with empty PoolID")
		}
		if seen[id] {
			return fmt.Errorf("config: duplicate pool %q", id)
		}
		seen[id] = true
	}
	if c.Params.LiquidationThresholdBps > c.Params.MinCollateralRatioBps {
		return fmt.Errorf("config: liquidation threshold %d exceeds minimum collateral ratio %d",
			c.Params.LiquidationThresholdBps, c.Params.MinCollateralRatioBps)
	}
	for _, att := range c.Verifier {
		raw, err := hex.DecodeString(strings.TrimPrefix(att.VerifyingKey, "0x"))
		if err != nil {
			return fmt.Errorf("config: attester key for %q is not hex: %w", att.Predicate, err)
		}
		if len(raw) != 33 {
			return fmt.Errorf("config: attester key for %q must be 33 compressed bytes, got %d",
				att.Predicate, len(raw))
		}
	}
	return nil
}

// VerifyingKeyBytes decodes the attester's compressed key. Validate must
// have accepted the configuration first.
func (a AttesterConfig) VerifyingKeyBytes() []byte {
	raw, err := hex.DecodeString(strings.TrimPrefix(a.VerifyingKey, "0x"))
	if err != nil {
		return nil
	}
	return raw
}

func createDefault(path string) (*Config, error) {
	cfg := &Config{
		Pools: []PoolConfig{{PoolID: "main", AcceptedAssetKind: "wrapped-native"}},
	}
	applyDefaults(cfg)
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
