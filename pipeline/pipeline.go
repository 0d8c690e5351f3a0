// Package pipeline implements the transaction and block application
// pipeline (spec §4.8): push_transaction validates and applies a signed
// transaction against the pending session; push_block attaches an incoming
// block to the fork database, replaying evaluators deterministically and
// advancing the chain's dynamic global properties and witness schedule.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"deipchain/authority"
	"deipchain/chainbase"
	"deipchain/config"
	"deipchain/consensus"
	"deipchain/evaluator"
	"deipchain/observability"
	"deipchain/protocol"
	"deipchain/state"
	"deipchain/storage"
)

// maxOpenForkSessions bounds how many blocks' undo sessions the fork
// database keeps open at once. chainbase can only commit or undo the
// topmost session (ForkDB's doc comment), so there is no way to flatten
// just the blocks behind last_irreversible_block_num while leaving newer
// ones revertible; once the window grows past this, far beyond any
// realistic fork depth, the whole stack is compacted at once instead.
const maxOpenForkSessions = 120

// MaxTimeUntilExpiration bounds how far in the future a transaction's
// expiration may be set, DEIP_MAX_TIME_UNTIL_EXPIRATION in spec §6.
const MaxTimeUntilExpiration = int64(2 * time.Minute / time.Second)

// Pipeline owns the single writer's worth of state the chain's state
// machine (spec §5 "single-writer") needs to push transactions and blocks:
// the object database, the witness schedule, the fork database, and the
// pending transaction queue.
type Pipeline struct {
	Chain   *state.Chain
	ChainID uint64
	Skip    config.SkipFlags

	// Tenant names the tenant account every transaction must carry a
	// matching TenantSignature for (spec §4.2 "tenant affirmation", §6
	// "tenant: ... all transactions must carry a matching tenant
	// signature"). Empty disables tenant affirmation entirely. Set after
	// construction, not via New, since most deployments (and tests) run
	// untenanted.
	Tenant string

	Bus *Bus

	Schedule    *consensus.Schedule
	VirtualTime consensus.VirtualTimeTracker

	fork *ForkDB

	// trie and FlushIntervalBlocks back the state_root flush (spec §3
	// "state_root", §4.1 "chainbase flush"). Both are nil/zero by default
	// (as most tests run without persistence); set after construction, e.g.
	// from cmd/deipd/main.go, to enable flushing.
	trie                *storage.StateTrie
	FlushIntervalBlocks uint64

	pendingSession    chainbaseSession
	pendingTxs        []*protocol.Transaction
	pendingTxsStashed []*protocol.Transaction

	limiter *rate.Limiter
	tracer  trace.Tracer
}

// chainbaseSession is the subset of *chainbase.Session the pipeline needs;
// named locally so pendingSession's zero value (nil) reads naturally.
type chainbaseSession interface {
	Commit() error
	Undo() error
}

// New builds a pipeline over chain, starting from genesis (no prior blocks
// attached to the fork database).
func New(chain *state.Chain, chainID uint64, skip config.SkipFlags) *Pipeline {
	return &Pipeline{
		Chain:       chain,
		ChainID:     chainID,
		Skip:        skip,
		Bus:         NewBus(),
		Schedule:    &consensus.Schedule{},
		VirtualTime: consensus.NewVirtualTimeTracker(),
		fork:        NewForkDB(),
		limiter:     rate.NewLimiter(rate.Limit(200), 400),
		tracer:      otel.Tracer("deipchain/pipeline"),
	}
}

// SetStateTrie attaches the account state trie flushed every
// FlushIntervalBlocks blocks (spec §3 "state_root"). Nodes that run without
// a configured data directory never call this, and PushBlock simply skips
// the flush.
func (p *Pipeline) SetStateTrie(trie *storage.StateTrie) {
	p.trie = trie
}

// HeadDigest and HeadNumber return the fork database's current best chain
// tip, for a block producer to extend with its next proposal.
func (p *Pipeline) HeadDigest() [32]byte { return p.fork.HeadDigest() }
func (p *Pipeline) HeadNumber() uint64   { return p.fork.HeadNumber() }

// PendingTransactions returns a snapshot of the transactions applied to the
// pending session since the last block, for a block producer to assemble
// into its next proposal.
func (p *Pipeline) PendingTransactions() []*protocol.Transaction {
	out := make([]*protocol.Transaction, len(p.pendingTxs))
	copy(out, p.pendingTxs)
	return out
}

func (p *Pipeline) ensurePendingSession() {
	if p.pendingSession == nil {
		p.pendingSession = p.Chain.DB.Begin()
	}
}

// PushTransaction validates tx statelessly, verifies its authorities, and
// applies its operations under a transaction-level undo session nested in
// the pending session (spec §4.8 "push_transaction").
func (p *Pipeline) PushTransaction(ctx context.Context, tx *protocol.Transaction) error {
	start := time.Now()
	ctx, span := p.tracer.Start(ctx, "pipeline.push_transaction",
		trace.WithAttributes(attribute.Int("transaction.op_count", len(tx.Operations))))
	defer span.End()

	outcome := "rejected"
	defer func() {
		observability.Pipeline().RecordTransaction(outcome, time.Since(start))
	}()

	if !p.limiter.Allow() {
		span.SetStatus(codes.Error, "rate limited")
		return ErrRateLimited
	}
	if err := p.validateStateless(tx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stateless validation failed")
		return err
	}

	p.Bus.emit(NotifyOnPendingTransaction, tx)

	if err := p.verifyAuthorities(tx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "authority check failed")
		return err
	}

	p.ensurePendingSession()
	session := p.Chain.DB.Begin()
	evalCtx := &evaluator.Context{
		Chain:    p.Chain,
		BlockNum: p.Chain.GlobalProperties.HeadBlockNumber + 1,
		NowUnix:  time.Now().Unix(),
	}

	p.Bus.emit(NotifyOnPreApplyTransaction, tx)

	if err := p.applyOperations(evalCtx, tx.Operations); err != nil {
		session.Undo()
		span.RecordError(err)
		span.SetStatus(codes.Error, "evaluation failed")
		return err
	}

	if err := session.Commit(); err != nil {
		return fmt.Errorf("pipeline: commit transaction session: %w", err)
	}

	p.pendingTxs = append(p.pendingTxs, tx)
	p.Bus.emit(NotifyOnAppliedTransaction, tx)
	outcome = "applied"
	return nil
}

func (p *Pipeline) applyOperations(evalCtx *evaluator.Context, ops []protocol.Operation) error {
	for _, op := range ops {
		p.Bus.emit(NotifyPreApplyOperation, op)
		if err := evaluator.Apply(evalCtx, op); err != nil {
			return err
		}
		p.Bus.emit(NotifyPostApplyOperation, op)
		p.Bus.emitVirtualOps(evalCtx.VirtualOps())
	}
	return nil
}

func (p *Pipeline) validateStateless(tx *protocol.Transaction) error {
	if len(tx.Operations) == 0 {
		return ErrEmptyTransaction
	}
	now := time.Now().Unix()
	expiration := tx.Expiration.Int64()
	if expiration <= now {
		return ErrTransactionExpired
	}
	if expiration > now+MaxTimeUntilExpiration {
		return ErrExpirationTooFar
	}
	if !p.Skip.SkipTransactionDupeCheck {
		expectedPrefix := p.Chain.GlobalProperties.BlockSummaryPrefix(uint16(tx.RefBlockNum))
		if expectedPrefix != tx.RefBlockPrefix {
			return ErrTaposMismatch
		}
	}
	return nil
}

func (p *Pipeline) verifyAuthorities(tx *protocol.Transaction) error {
	if p.Skip.SkipAuthorityCheck {
		return nil
	}
	digest, err := tx.SigningDigest(p.ChainID)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	signers, err := authority.RecoverSigners(digest, tx.Signatures)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := authority.VerifyAuthority(tx.RequiredAuthorities(), signers, p.Chain.AccountAuthorities); err != nil {
		return err
	}
	if p.Tenant == "" {
		return nil
	}
	if len(tx.TenantSignature) == 0 {
		return ErrMissingTenantAffirmation
	}
	return authority.VerifyTenantAffirmation(digest, tx.TenantSignature, p.Tenant, p.Chain.AccountAuthorities)
}

// PushBlock attaches block to the fork database, switching to its branch if
// it does not extend the current head, then deterministically replays its
// transactions and the per-block tick evaluators against a fresh undo
// session (spec §4.8 "push_block"). The session is left open on the fork
// database rather than committed immediately, so a later fork switch can
// still pop it with Session.Undo.
func (p *Pipeline) PushBlock(ctx context.Context, block *protocol.Block) error {
	start := time.Now()
	_, span := p.tracer.Start(ctx, "pipeline.push_block", trace.WithAttributes(
		attribute.Int64("block.number", int64(block.Number)),
		attribute.String("block.witness", block.Witness),
	))
	defer span.End()

	outcome := "rejected"
	defer func() {
		observability.Pipeline().RecordBlock(outcome, time.Since(start))
	}()

	digest, err := block.Digest()
	if err != nil {
		return fmt.Errorf("pipeline: block digest: %w", err)
	}
	var blockDigest [32]byte
	copy(blockDigest[:], digest)

	forkPoint := p.fork.findForkPoint(block.Previous)
	if forkPoint == -1 && !p.fork.isGenesisLink(block.Previous) {
		span.SetStatus(codes.Error, "unlinkable block")
		return ErrUnlinkableBlock
	}

	if err := p.validateBlockHeader(block, digest); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "header validation failed")
		return err
	}

	if _, err := p.fork.popTo(forkPoint); err != nil {
		return fmt.Errorf("pipeline: pop to fork point: %w", err)
	}
	p.discardPendingSession()

	session := p.Chain.DB.Begin()
	evalCtx := &evaluator.Context{
		Chain:    p.Chain,
		BlockNum: block.Number,
		NowUnix:  block.TimestampUnix.Int64(),
	}

	included := make(map[[32]byte]bool, len(block.Transactions))
	if err := p.applyBlockTransactions(evalCtx, block, included); err != nil {
		session.Undo()
		span.RecordError(err)
		span.SetStatus(codes.Error, "block application failed")
		return err
	}

	p.advanceGlobalProperties(block)
	p.recordWitnessParticipation(block)
	p.maybeReshuffleWitnesses()
	p.advanceIrreversibility()

	if p.trie != nil && p.FlushIntervalBlocks > 0 && block.Number%p.FlushIntervalBlocks == 0 {
		if err := p.flushStateRoot(block.Number); err != nil {
			slog.Error("pipeline: state root flush failed", "error", err)
		}
	}

	p.fork.push(&blockEntry{digest: blockDigest, number: block.Number, session: session})
	if len(p.fork.chain) > maxOpenForkSessions {
		if err := p.fork.Flatten(); err != nil {
			slog.Error("pipeline: fork database compaction failed", "error", err)
		}
	}

	p.Bus.emit(NotifyAppliedBlock, block)
	p.replayRetainedPendingTransactions(ctx, included)

	outcome = "applied"
	return nil
}

func (p *Pipeline) applyBlockTransactions(evalCtx *evaluator.Context, block *protocol.Block, included map[[32]byte]bool) error {
	for _, tx := range block.Transactions {
		if d, err := tx.Digest(); err == nil {
			var key [32]byte
			copy(key[:], d)
			included[key] = true
		}
		if err := p.applyOperations(evalCtx, tx.Operations); err != nil {
			return err
		}
	}
	if err := evaluator.ProcessExpiredProposals(evalCtx); err != nil {
		return err
	}
	if err := evaluator.ProcessExpiredExpertiseAllocationProposals(evalCtx); err != nil {
		return err
	}
	if err := evaluator.ProcessExpiredTokenSales(evalCtx); err != nil {
		return err
	}
	return evaluator.ProcessBudgets(evalCtx)
}

// validateBlockHeader checks the transaction Merkle root, the scheduled
// witness, and the witness signature, honoring config.SkipFlags so each
// check can be bypassed independently for replay/testing (spec §4.8, §7
// "Block validation").
func (p *Pipeline) validateBlockHeader(block *protocol.Block, digest []byte) error {
	if !p.Skip.SkipMerkleRootCheck {
		leaves := make([][]byte, 0, len(block.Transactions))
		for _, tx := range block.Transactions {
			d, err := tx.Digest()
			if err != nil {
				return fmt.Errorf("pipeline: transaction digest: %w", err)
			}
			leaves = append(leaves, d)
		}
		if protocol.MerkleRoot(leaves) != block.TransactionMerkleRoot {
			return ErrBadMerkleRoot
		}
	}

	gp := &p.Chain.GlobalProperties
	slot := consensus.SlotAtTime(gp.HeadBlockTimeUnix, block.TimestampUnix.Int64())
	if slot <= 0 {
		return ErrBadTimestamp
	}

	if expected, ok := consensus.GetScheduledWitness(p.Schedule, uint64(slot)); ok && expected != block.Witness {
		return ErrWrongScheduledWitness
	}

	if !p.Skip.SkipWitnessSignature {
		witness, err := p.Chain.Witnesses.GetBy("by_owner", []byte(block.Witness))
		if err != nil {
			if errors.Is(err, chainbase.ErrNotFound) {
				return fmt.Errorf("pipeline: %w: unknown witness %q", ErrBadWitnessSignature, block.Witness)
			}
			return err
		}
		signer, err := authority.RecoverSigner(digest, block.WitnessSignature)
		if err != nil || signer != witness.SigningKey {
			return ErrBadWitnessSignature
		}
	}
	return nil
}

func (p *Pipeline) discardPendingSession() {
	if p.pendingSession != nil {
		p.pendingSession.Undo()
		p.pendingSession = nil
	}
	p.pendingTxsStashed = p.pendingTxs
	p.pendingTxs = nil
}

// advanceGlobalProperties rolls DynamicGlobalProperties forward to reflect
// the just-applied block: head number/time, absolute slot, and the TaPOS
// block_summary ring buffer (spec §4.7, §6 "TaPOS").
func (p *Pipeline) advanceGlobalProperties(block *protocol.Block) {
	gp := &p.Chain.GlobalProperties
	slot := consensus.SlotAtTime(gp.HeadBlockTimeUnix, block.TimestampUnix.Int64())
	if slot < 1 {
		slot = 1
	}
	gp.CurrentAbsoluteSlot += uint64(slot)
	gp.HeadBlockNumber = block.Number
	gp.HeadBlockTimeUnix = block.TimestampUnix.Int64()
	gp.CurrentWitness = block.Witness

	if id, err := block.ID(); err == nil {
		gp.RecordBlockSummary(block.Number, protocol.RefBlockPrefix(id))
	}
}

func (p *Pipeline) recordWitnessParticipation(block *protocol.Block) {
	w, err := p.Chain.Witnesses.GetBy("by_owner", []byte(block.Witness))
	if err != nil {
		return
	}
	_ = p.Chain.Witnesses.Modify(w.GetID(), func(row *state.Witness) {
		row.LastConfirmedBlockNum = block.Number
		row.LastAttemptedBlockNum = block.Number
	})
	observability.Witness().RecordProduced(block.Witness)
}

// maybeReshuffleWitnesses recomputes the witness schedule at the start of
// every round (spec §4.7 "Witness schedule"), keeping the schedule's
// absolute-slot cursor in sync every block regardless.
func (p *Pipeline) maybeReshuffleWitnesses() {
	gp := &p.Chain.GlobalProperties
	p.Schedule.CurrentAbsoluteSlot = gp.CurrentAbsoluteSlot
	n := p.Schedule.NumScheduledWitnesses
	if n == 0 || gp.CurrentAbsoluteSlot%uint64(n) == 0 {
		p.Schedule = consensus.ShuffleWitnesses(p.Schedule, p.Chain.Witnesses.All(), p.VirtualTime)
	}
}

// advanceIrreversibility recomputes last_irreversible_block_num from the
// active schedule's witnesses (spec §4.7) and reports it.
func (p *Pipeline) advanceIrreversibility() {
	witnesses := p.Chain.Witnesses.All()
	confirmations := make([]uint64, 0, len(witnesses))
	for _, w := range witnesses {
		confirmations = append(confirmations, w.LastConfirmedBlockNum)
	}
	gp := &p.Chain.GlobalProperties
	candidate := consensus.LastIrreversibleBlockNum(confirmations)
	gp.LastIrreversibleBlockNum = consensus.AdvanceIrreversibility(gp.LastIrreversibleBlockNum, candidate)
	observability.Consensus().RecordIrreversibility(gp.HeadBlockNumber, gp.LastIrreversibleBlockNum)
}

// replayRetainedPendingTransactions re-pushes every transaction this node
// had pending before the fork switch/block application that the applied
// block did not itself include, dropping any that no longer validate
// (spec §4.8 "push_block": "re-push retained pending transactions").
func (p *Pipeline) replayRetainedPendingTransactions(ctx context.Context, included map[[32]byte]bool) {
	carried := p.pendingTxsStashed
	p.pendingTxsStashed = nil
	for _, tx := range carried {
		d, err := tx.Digest()
		if err != nil {
			continue
		}
		var key [32]byte
		copy(key[:], d)
		if included[key] {
			continue
		}
		_ = p.PushTransaction(ctx, tx)
	}
}
