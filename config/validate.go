package config

import (
	"encoding/hex"
	"fmt"
)

// Validate rejects a structurally invalid configuration document before it
// reaches a running daemon.
func Validate(cfg *Config) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("config: DataDir must not be empty")
	}
	if cfg.ChainID == "" {
		return fmt.Errorf("config: ChainID must not be empty")
	}
	if _, err := hex.DecodeString(cfg.ValidatorKey); err != nil {
		return fmt.Errorf("config: ValidatorKey must be hex-encoded: %w", err)
	}
	if cfg.FlushIntervalBlocks == 0 {
		return fmt.Errorf("config: FlushIntervalBlocks must be greater than zero")
	}
	return nil
}
