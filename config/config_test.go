package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultWithGeneratedKey(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "deip-mainnet", cfg.ChainID)
	require.Equal(t, uint64(1000), cfg.FlushIntervalBlocks)

	_, err = hex.DecodeString(cfg.ValidatorKey)
	require.NoError(t, err)
	require.FileExists(t, path)
}

func TestLoadParsesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := `ListenAddress = ":6001"
DataDir = "./data"
ValidatorKey = "aabbccdd"
ChainID = "deip-testnet"
Tenant = "research-tenant"
FlushIntervalBlocks = 500

[SkipFlags]
SkipWitnessSignature = true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "deip-testnet", cfg.ChainID)
	require.Equal(t, "research-tenant", cfg.Tenant)
	require.Equal(t, uint64(500), cfg.FlushIntervalBlocks)
	require.True(t, cfg.SkipFlags.SkipWitnessSignature)
	require.False(t, cfg.SkipFlags.SkipAuthorityCheck)
}

func TestValidateRejectsMissingDataDir(t *testing.T) {
	cfg := &Config{ChainID: "x", ValidatorKey: "aa", FlushIntervalBlocks: 1}
	require.Error(t, Validate(cfg))
}

func TestValidateRejectsNonHexValidatorKey(t *testing.T) {
	cfg := &Config{DataDir: "./data", ChainID: "x", ValidatorKey: "not-hex", FlushIntervalBlocks: 1}
	require.Error(t, Validate(cfg))
}

func TestValidateRejectsZeroFlushInterval(t *testing.T) {
	cfg := &Config{DataDir: "./data", ChainID: "x", ValidatorKey: "aa"}
	require.Error(t, Validate(cfg))
}
