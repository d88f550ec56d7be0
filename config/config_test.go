package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zklend.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
[[Pools]]
PoolID = "main"
AcceptedAssetKind = "wrapped-native"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "./zklend-data", cfg.DataDir)
	require.Equal(t, ":9464", cfg.MetricsAddress)
	require.Equal(t, uint64(15_000), cfg.Params.MinCollateralRatioBps)
	require.Equal(t, uint64(12_000), cfg.Params.LiquidationThresholdBps)
	require.Len(t, cfg.Pools, 1)
}

func TestLoadCreatesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zklend.toml")
	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Len(t, cfg.Pools, 1)
	require.Equal(t, "main", cfg.Pools[0].PoolID)

	// Reloading the generated file parses cleanly.
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.Pools, again.Pools)
}

func TestValidateRejectsDuplicatePools(t *testing.T) {
	path := writeConfig(t, `
[[Pools]]
PoolID = "main"
[[Pools]]
PoolID = "main"
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "duplicate pool")
}

func TestValidateRejectsInvertedThresholds(t *testing.T) {
	path := writeConfig(t, `
[[Pools]]
PoolID = "main"

[Params]
MinCollateralRatioBps = 11000
LiquidationThresholdBps = 12000
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "liquidation threshold")
}

func TestValidateAttesterKeys(t *testing.T) {
	path := writeConfig(t, `
[[Pools]]
PoolID = "main"

[[Attesters]]
Predicate = "solvency_after_borrow"
VerifyingKey = "not-hex"
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "not hex")

	path = writeConfig(t, `
[[Pools]]
PoolID = "main"

[[Attesters]]
Predicate = "solvency_after_borrow"
VerifyingKey = "02aabb"
`)
	_, err = Load(path)
	require.ErrorContains(t, err, "33 compressed bytes")

	key := "02" + "11223344556677889900aabbccddeeff11223344556677889900aabbccddeeff"
	path = writeConfig(t, `
[[Pools]]
PoolID = "main"

[[Attesters]]
Predicate = "solvency_after_borrow"
VerifyingKey = "`+key+`"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Len(t, cfg.Verifier[0].VerifyingKeyBytes(), 33)
}
