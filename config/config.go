package config

import (
	"encoding/hex"
	"os"

	"github.com/BurntSushi/toml"

	"deipchain/crypto"
)

// SkipFlags bundles the indexing-time-only verification bypasses named in
// spec §4.8/§6. They must never be honored for a block received over the
// network; replaying a trusted block log is the only legitimate use.
type SkipFlags struct {
	SkipWitnessSignature     bool `toml:"SkipWitnessSignature"`
	SkipAuthorityCheck       bool `toml:"SkipAuthorityCheck"`
	SkipTransactionDupeCheck bool `toml:"SkipTransactionDupeCheck"`
	SkipMerkleRootCheck      bool `toml:"SkipMerkleRootCheck"`
}

// Config is the daemon's top-level TOML document.
type Config struct {
	ListenAddress string `toml:"ListenAddress"` // reserved for the P2P layer, kept as passthrough
	DataDir       string `toml:"DataDir"`
	ValidatorKey  string `toml:"ValidatorKey"`
	ChainID       string `toml:"ChainID"`
	Tenant        string `toml:"Tenant"`

	SkipFlags SkipFlags `toml:"SkipFlags"`

	FlushIntervalBlocks uint64 `toml:"FlushIntervalBlocks"`
}

// Load loads the configuration from the given path, generating a default
// document (including a freshly generated validator key) if it is absent.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if cfg.ValidatorKey == "" {
		key, err := crypto.GeneratePrivateKey()
		if err != nil {
			return nil, err
		}
		cfg.ValidatorKey = hex.EncodeToString(key.Bytes())

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, os.ModePerm)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		if err := toml.NewEncoder(f).Encode(cfg); err != nil {
			return nil, err
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddress:       ":6001",
		DataDir:             "./deip-data",
		ValidatorKey:        hex.EncodeToString(key.Bytes()),
		ChainID:             "deip-mainnet",
		Tenant:              "default",
		FlushIntervalBlocks: 1000,
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
