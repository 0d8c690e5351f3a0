package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"deipchain/consensus"
	"deipchain/crypto"
	"deipchain/pipeline"
	"deipchain/protocol"
)

// producer drives solo block production for a node that holds a local
// witness signing key. This build has no peer-to-peer layer (spec's chain
// core scope ends at push_block/push_transaction), so every witness node is
// responsible for proposing its own blocks whenever its slot comes up.
type producer struct {
	pipeline *pipeline.Pipeline
	owner    string
	key      *crypto.PrivateKey
	logger   *slog.Logger
}

// run ticks once per block interval until ctx is cancelled.
func (p *producer) run(ctx context.Context) {
	ticker := time.NewTicker(consensus.BlockIntervalSeconds * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.maybeProduce(ctx); err != nil {
				p.logger.Error("block production failed", "error", err)
			}
		}
	}
}

// maybeProduce builds and pushes a block if the current slot belongs to
// this node's witness, or if the schedule has not shuffled yet (genesis
// bootstrap: GetScheduledWitness returns ok=false before the first shuffle,
// spec §4.7).
func (p *producer) maybeProduce(ctx context.Context) error {
	gp := &p.pipeline.Chain.GlobalProperties
	now := time.Now().Unix()
	slot := consensus.SlotAtTime(gp.HeadBlockTimeUnix, now)
	if slot < 1 {
		return nil
	}
	if expected, ok := consensus.GetScheduledWitness(p.pipeline.Schedule, uint64(slot)); ok && expected != p.owner {
		return nil
	}

	block, err := p.buildBlock(slot)
	if err != nil {
		return fmt.Errorf("build block: %w", err)
	}
	if err := p.pipeline.PushBlock(ctx, block); err != nil {
		return fmt.Errorf("push block: %w", err)
	}
	p.logger.Info("produced block", "number", block.Number, "witness", block.Witness, "transactions", len(block.Transactions))
	return nil
}

func (p *producer) buildBlock(slot int64) (*protocol.Block, error) {
	gp := &p.pipeline.Chain.GlobalProperties
	txs := p.pipeline.PendingTransactions()

	leaves := make([][]byte, 0, len(txs))
	for _, tx := range txs {
		d, err := tx.Digest()
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, d)
	}

	block := &protocol.Block{
		BlockHeader: protocol.BlockHeader{
			Previous:              p.pipeline.HeadDigest(),
			Number:                p.pipeline.HeadNumber() + 1,
			TimestampUnix:         protocol.SignedInt(consensus.SlotTime(gp.HeadBlockTimeUnix, slot)),
			Witness:               p.owner,
			TransactionMerkleRoot: protocol.MerkleRoot(leaves),
			StateRoot:             gp.StateRoot,
		},
		Transactions: txs,
	}

	digest, err := block.Digest()
	if err != nil {
		return nil, err
	}
	sig, err := p.key.Sign(digest)
	if err != nil {
		return nil, err
	}
	block.WitnessSignature = sig
	return block, nil
}
