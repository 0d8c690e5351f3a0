// Command deipd runs a DEIP chain-core node: it loads a genesis document and
// a TOML config, builds the chain state, and serves the single-writer
// pipeline that applies transactions and blocks against it. This build has
// no peer-to-peer or RPC layer (the node-networking and JSON-RPC surface are
// explicit Non-goals of the chain core this repo implements), so a node
// configured with a witness signing key produces its own blocks solo; one
// without a matching witness just keeps the pipeline alive for an embedding
// process to drive directly.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"deipchain/config"
	"deipchain/crypto"
	"deipchain/genesis"
	"deipchain/observability/logging"
	"deipchain/pipeline"
	"deipchain/state"
	"deipchain/storage"
)

func main() {
	configPath := flag.String("config", "./deipd.toml", "Path to the node config file")
	genesisPath := flag.String("genesis", "./genesis.json", "Path to the genesis document")
	env := flag.String("env", "production", "Deployment environment label for structured logs")
	logFile := flag.String("log-file", "", "Optional rotating log file path, in addition to stdout")
	flag.Parse()

	logger := logging.Setup("deipd", *env)
	if *logFile != "" {
		logger = logging.SetupWithFile("deipd", *env, logging.FileSink{
			Path:       *logFile,
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
			Compress:   true,
		})
	}

	if err := run(*configPath, *genesisPath, logger); err != nil {
		logger.Error("deipd exited", "error", err)
		os.Exit(1)
	}
}

func run(configPath, genesisPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	spec, err := genesis.Load(genesisPath)
	if err != nil {
		return fmt.Errorf("load genesis: %w", err)
	}
	chain, _, err := genesis.Build(spec)
	if err != nil {
		return fmt.Errorf("build genesis state: %w", err)
	}
	logger.Info("genesis built", "chainId", spec.ChainID, "accounts", len(spec.Accounts), "witnesses", len(spec.Witnesses))

	keyBytes, err := hex.DecodeString(cfg.ValidatorKey)
	if err != nil {
		return fmt.Errorf("decode validator key: %w", err)
	}
	witnessKey, err := crypto.PrivateKeyFromBytes(keyBytes)
	if err != nil {
		return fmt.Errorf("parse validator key: %w", err)
	}

	// The pipeline's chain-ID signing domain is the genesis document's
	// numeric chainId, not the human-readable cfg.ChainID label (spec §6's
	// signing-digest domain separator is a number carried in state, never a
	// config string).
	p := pipeline.New(chain, spec.ChainID, cfg.SkipFlags)
	p.Tenant = cfg.Tenant
	p.FlushIntervalBlocks = cfg.FlushIntervalBlocks

	if cfg.DataDir != "" {
		var root []byte
		if chain.GlobalProperties.StateRoot != ([32]byte{}) {
			root = chain.GlobalProperties.StateRoot[:]
		}
		trie, err := storage.OpenStateTrie(filepath.Join(cfg.DataDir, "statetrie"), root)
		if err != nil {
			return fmt.Errorf("open state trie: %w", err)
		}
		p.SetStateTrie(trie)
		defer trie.Close()
	}

	owner := localWitnessOwner(chain, witnessKey.PubKey().CompressedHex())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if owner == "" {
		logger.Info("no genesis witness matches the configured validator key; running as a read-only replica")
	} else {
		logger.Info("running as witness", "owner", owner)
		prod := &producer{pipeline: p, owner: owner, key: witnessKey, logger: logger}
		go prod.run(ctx)
	}

	logger.Info("deipd running", "dataDir", cfg.DataDir, "network", cfg.ChainID)
	<-ctx.Done()
	logger.Info("deipd shutting down")
	return nil
}

// localWitnessOwner returns the owner name of the genesis witness whose
// signing key matches signingKey, or "" if none does.
func localWitnessOwner(chain *state.Chain, signingKey string) string {
	for _, w := range chain.Witnesses.All() {
		if w.SigningKey == signingKey {
			return w.Owner
		}
	}
	return ""
}
